package store

import (
	"context"

	models "point-of-sale/model"

	"github.com/shopspring/decimal"
)

// Store is the till's catalogue and sales ledger.
type Store interface {
	AddProduct(ctx context.Context, p models.Product) (int64, error)
	GetProduct(ctx context.Context, id int64) (models.Product, error)
	GetProductByBarcode(ctx context.Context, barcode string) (models.Product, error)
	ListProducts(ctx context.Context) ([]models.Product, error)
	SearchProducts(ctx context.Context, term string) ([]models.Product, error)
	UpdateProduct(ctx context.Context, p models.Product) error
	DeleteProduct(ctx context.Context, id int64) error

	RecordSale(ctx context.Context, lines []models.SaleLine, total decimal.Decimal, customerName string) (int64, error)
	GetSale(ctx context.Context, id int64) (models.Sale, error)
	ListSales(ctx context.Context) ([]models.Sale, error)
	GetSaleDetails(ctx context.Context, saleID int64) ([]models.SaleDetail, error)

	Close() error
}
