// Package cart holds the till's in-memory shopping cart and the checkout that
// turns it into a recorded sale.
package cart

import (
	"context"
	"errors"
	"strings"

	models "point-of-sale/model"

	"github.com/shopspring/decimal"
)

// DefaultLowStockThreshold is the stock level under which adding an item warns.
const DefaultLowStockThreshold = 5

var (
	ErrEmptyCart         = errors.New("cart is empty")
	ErrOutOfStock        = errors.New("product is out of stock")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrItemNotInCart     = errors.New("item not in cart")
)

// Recorder persists a finished sale. store.Store satisfies it.
type Recorder interface {
	RecordSale(ctx context.Context, lines []models.SaleLine, total decimal.Decimal, customerName string) (int64, error)
}

// Line is a product snapshot and the quantity being bought. Product.Price is
// the price captured when the item first entered the cart.
type Line struct {
	Product  models.Product
	Quantity int
}

func (l Line) Subtotal() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is not safe for concurrent use; the caller serialises access.
type Cart struct {
	lines    map[int64]*Line
	order    []int64
	lowStock int
}

func New(lowStockThreshold int) *Cart {
	return &Cart{
		lines:    make(map[int64]*Line),
		lowStock: lowStockThreshold,
	}
}

// Add puts one unit of p in the cart. lowStock reports that p has fewer units
// left than the threshold; the add still happens.
func (c *Cart) Add(p models.Product) (line Line, lowStock bool, err error) {
	if p.Stock <= 0 {
		return Line{}, false, ErrOutOfStock
	}
	lowStock = p.Stock < c.lowStock

	if l, ok := c.lines[p.ID]; ok {
		if l.Quantity >= p.Stock {
			return *l, lowStock, ErrInsufficientStock
		}
		l.Quantity++
		l.Product.Stock = p.Stock
		return *l, lowStock, nil
	}

	l := &Line{Product: p, Quantity: 1}
	c.lines[p.ID] = l
	c.order = append(c.order, p.ID)
	return *l, lowStock, nil
}

// SetQuantity overwrites the quantity of a line. Bounds are the caller's job.
func (c *Cart) SetQuantity(productID int64, quantity int) error {
	l, ok := c.lines[productID]
	if !ok {
		return ErrItemNotInCart
	}
	l.Quantity = quantity
	return nil
}

// Remove drops a line; absent ids are ignored.
func (c *Cart) Remove(productID int64) {
	if _, ok := c.lines[productID]; !ok {
		return
	}
	delete(c.lines, productID)
	for i, id := range c.order {
		if id == productID {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

func (c *Cart) Clear() {
	c.lines = make(map[int64]*Line)
	c.order = nil
}

func (c *Cart) Get(productID int64) (Line, bool) {
	l, ok := c.lines[productID]
	if !ok {
		return Line{}, false
	}
	return *l, true
}

// Lines returns the lines in the order they were first added.
func (c *Cart) Lines() []Line {
	out := make([]Line, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, *c.lines[id])
	}
	return out
}

func (c *Cart) IsEmpty() bool { return len(c.lines) == 0 }

// ItemCount is the number of units across all lines.
func (c *Cart) ItemCount() int {
	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

// Total sums snapshot price × quantity.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// CustomerName trims name and falls back to the walk-in customer.
func CustomerName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.DefaultCustomer
	}
	return name
}

// Checkout records the cart as a sale and empties it. The cart is left
// untouched when it is empty or the recorder fails.
func (c *Cart) Checkout(ctx context.Context, r Recorder, customerName string) (int64, decimal.Decimal, error) {
	if c.IsEmpty() {
		return 0, decimal.Zero, ErrEmptyCart
	}

	customerName = CustomerName(customerName)

	lines := make([]models.SaleLine, 0, len(c.order))
	for _, l := range c.Lines() {
		lines = append(lines, models.SaleLine{
			ProductID: l.Product.ID,
			Quantity:  l.Quantity,
			Subtotal:  l.Subtotal(),
		})
	}
	total := c.Total()

	saleID, err := r.RecordSale(ctx, lines, total, customerName)
	if err != nil {
		return 0, decimal.Zero, err
	}
	c.Clear()
	return saleID, total, nil
}
