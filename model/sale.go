package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultCustomer is recorded on a sale when no customer name was given.
const DefaultCustomer = "Guest"

type Product struct {
	ID      int64           `json:"id"`
	Barcode string          `json:"barcode"`
	Name    string          `json:"name"`
	Price   decimal.Decimal `json:"price"`
	Stock   int             `json:"stock"`
}

type Sale struct {
	ID           int64           `json:"id"`
	CreatedAt    time.Time       `json:"created_at"`
	Total        decimal.Decimal `json:"total"`
	CustomerName string          `json:"customer_name"`
}

type SaleItem struct {
	ID        int64           `json:"id"`
	SaleID    int64           `json:"sale_id"`
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// SaleLine is one line handed to the store at checkout.
type SaleLine struct {
	ProductID int64
	Quantity  int
	Subtotal  decimal.Decimal
}

// SaleDetail is a sale item joined with the product it references.
// Name and UnitPrice are read from the product at query time.
type SaleDetail struct {
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}
