package service

import (
	"context"
	"io"
)

type ServiceInterface interface {
	AddProduct(ctx context.Context, in ProductInput) (ProductDTO, error)
	UpdateProduct(ctx context.Context, id int64, in ProductInput) error
	DeleteProduct(ctx context.Context, id int64) error
	ListProducts(ctx context.Context, filter string) ([]ProductDTO, error)
	GetProductByBarcode(ctx context.Context, barcode string) (ProductDTO, error)
	ExportInventory(ctx context.Context, w io.Writer) error

	Scan(ctx context.Context, term string) (ScanResult, error)
	AddToCart(ctx context.Context, productID int64) (AddResult, error)
	SetQuantity(ctx context.Context, productID int64, quantity int) error
	RemoveFromCart(ctx context.Context, productID int64) error
	ClearCart(ctx context.Context) error
	GetCart(ctx context.Context) (CartDTO, error)
	Checkout(ctx context.Context, customerName string) (CheckoutDTO, error)

	ListSales(ctx context.Context) ([]SaleDTO, error)
	SaleDetails(ctx context.Context, saleID int64) (SaleDetailsDTO, error)
	WriteReceipt(ctx context.Context, saleID int64, path string) (string, error)
	WriteLastReceipt(ctx context.Context, path string) (string, error)
}
