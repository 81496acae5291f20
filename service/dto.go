package service

import (
	"time"

	"point-of-sale/cart"
	models "point-of-sale/model"

	"github.com/shopspring/decimal"
)

// ProductInput is the product form: barcode, name, price and stock.
type ProductInput struct {
	Barcode string          `json:"barcode"`
	Name    string          `json:"name"`
	Price   decimal.Decimal `json:"price"`
	Stock   int             `json:"stock"`
}

type ProductDTO struct {
	ID       int64           `json:"id"`
	Barcode  string          `json:"barcode"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Stock    int             `json:"stock"`
	LowStock bool            `json:"low_stock"`
}

type CartLineDTO struct {
	ProductID int64           `json:"product_id"`
	Barcode   string          `json:"barcode"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type CartDTO struct {
	Lines     []CartLineDTO   `json:"lines"`
	ItemCount int             `json:"item_count"`
	Total     decimal.Decimal `json:"total"`
}

// AddResult is the cart line after an add. LowStock and Stock describe the
// product as it was read from the catalogue.
type AddResult struct {
	Line     CartLineDTO `json:"line"`
	LowStock bool        `json:"low_stock"`
	Stock    int         `json:"stock"`
}

// ScanResult holds either the line a scan added or, when the term matched
// several product names, the candidates to pick from.
type ScanResult struct {
	Added   *AddResult   `json:"added,omitempty"`
	Matches []ProductDTO `json:"matches,omitempty"`
}

type CheckoutDTO struct {
	SaleID       int64           `json:"sale_id"`
	Total        decimal.Decimal `json:"total"`
	CustomerName string          `json:"customer_name"`
}

type SaleDTO struct {
	ID           int64           `json:"id"`
	CreatedAt    time.Time       `json:"created_at"`
	Total        decimal.Decimal `json:"total"`
	CustomerName string          `json:"customer_name"`
}

type SaleDetailsDTO struct {
	Sale  SaleDTO             `json:"sale"`
	Items []models.SaleDetail `json:"items"`
}

func toSaleDTO(s models.Sale) SaleDTO {
	return SaleDTO{ID: s.ID, CreatedAt: s.CreatedAt, Total: s.Total, CustomerName: s.CustomerName}
}

func toLineDTO(l cart.Line) CartLineDTO {
	return CartLineDTO{
		ProductID: l.Product.ID,
		Barcode:   l.Product.Barcode,
		Name:      l.Product.Name,
		UnitPrice: l.Product.Price,
		Quantity:  l.Quantity,
		Subtotal:  l.Subtotal(),
	}
}
