package store

import (
	"context"
	"path/filepath"
	"testing"

	models "point-of-sale/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openSQLite(t *testing.T) *SQLStore {
	t.Helper()
	s, err := Open(context.Background(), SQLite, filepath.Join(t.TempDir(), "nested", "pos_system.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func addCola(t *testing.T, s *SQLStore, stock int) models.Product {
	t.Helper()
	ctx := context.Background()
	_, err := s.AddProduct(ctx, models.Product{
		Barcode: "1234567890123",
		Name:    "Sample Cola",
		Price:   decimal.RequireFromString("1.99"),
		Stock:   stock,
	})
	require.NoError(t, err)
	p, err := s.GetProductByBarcode(ctx, "1234567890123")
	require.NoError(t, err)
	return p
}

func TestSQLite_ProductRoundTrip(t *testing.T) {
	s := openSQLite(t)
	p := addCola(t, s, 50)

	assert.NotZero(t, p.ID)
	assert.Equal(t, "1234567890123", p.Barcode)
	assert.Equal(t, "Sample Cola", p.Name)
	assert.True(t, p.Price.Equal(decimal.RequireFromString("1.99")), "price %s", p.Price)
	assert.Equal(t, 50, p.Stock)
}

func TestSQLite_DuplicateBarcodeLeavesCatalogueUnchanged(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()
	addCola(t, s, 50)

	_, err := s.AddProduct(ctx, models.Product{Barcode: "1234567890123", Name: "Other", Price: decimal.Zero})
	assert.ErrorIs(t, err, ErrDuplicateBarcode)

	all, err := s.ListProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSQLite_RecordSaleDecrementsAndFloorsStock(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()
	p := addCola(t, s, 50)

	_, err := s.RecordSale(ctx, []models.SaleLine{
		{ProductID: p.ID, Quantity: 3, Subtotal: decimal.RequireFromString("5.97")},
	}, decimal.RequireFromString("5.97"), "Guest")
	require.NoError(t, err)

	got, err := s.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 47, got.Stock)

	_, err = s.RecordSale(ctx, []models.SaleLine{
		{ProductID: p.ID, Quantity: 60, Subtotal: decimal.RequireFromString("119.40")},
	}, decimal.RequireFromString("119.40"), "Guest")
	require.NoError(t, err)

	got, err = s.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Stock)
}

func TestSQLite_RecordSaleWritesSaleAndItems(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()
	p := addCola(t, s, 50)

	id, err := s.RecordSale(ctx, []models.SaleLine{
		{ProductID: p.ID, Quantity: 10, Subtotal: decimal.RequireFromString("19.90")},
	}, decimal.RequireFromString("19.90"), "")
	require.NoError(t, err)

	sale, err := s.GetSale(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Guest", sale.CustomerName)
	assert.True(t, sale.Total.Equal(decimal.RequireFromString("19.90")))
	assert.False(t, sale.CreatedAt.IsZero())

	details, err := s.GetSaleDetails(ctx, id)
	require.NoError(t, err)
	require.Len(t, details, 1)
	assert.Equal(t, "Sample Cola", details[0].ProductName)
	assert.Equal(t, 10, details[0].Quantity)
	assert.True(t, details[0].Subtotal.Equal(decimal.RequireFromString("19.90")))

	sales, err := s.ListSales(ctx)
	require.NoError(t, err)
	assert.Len(t, sales, 1)
}

func TestSQLite_RecordSaleIsAtomic(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()
	p := addCola(t, s, 50)

	_, err := s.RecordSale(ctx, []models.SaleLine{
		{ProductID: p.ID, Quantity: 2, Subtotal: decimal.RequireFromString("3.98")},
		{ProductID: p.ID + 1000, Quantity: 1, Subtotal: decimal.RequireFromString("1.00")},
	}, decimal.RequireFromString("4.98"), "Guest")
	require.Error(t, err)

	got, err := s.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, got.Stock, "stock must not move when the sale fails")

	sales, err := s.ListSales(ctx)
	require.NoError(t, err)
	assert.Empty(t, sales)
}

func TestSQLite_DeleteProductRestrictedAfterSale(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()
	p := addCola(t, s, 50)

	_, err := s.RecordSale(ctx, []models.SaleLine{
		{ProductID: p.ID, Quantity: 1, Subtotal: decimal.RequireFromString("1.99")},
	}, decimal.RequireFromString("1.99"), "Guest")
	require.NoError(t, err)

	assert.ErrorIs(t, s.DeleteProduct(ctx, p.ID), ErrProductInUse)

	_, err = s.AddProduct(ctx, models.Product{Barcode: "999", Name: "Unsold", Price: decimal.RequireFromString("1")})
	require.NoError(t, err)
	unsold, err := s.GetProductByBarcode(ctx, "999")
	require.NoError(t, err)
	require.NoError(t, s.DeleteProduct(ctx, unsold.ID))
	assert.ErrorIs(t, s.DeleteProduct(ctx, unsold.ID), ErrNotFound)
}

func TestSQLite_UpdateAndSearch(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()
	p := addCola(t, s, 50)

	p.Name = "Diet Cola"
	p.Price = decimal.RequireFromString("2.25")
	p.Stock = 4
	require.NoError(t, s.UpdateProduct(ctx, p))

	found, err := s.SearchProducts(ctx, "DIET")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, 4, found[0].Stock)

	found, err = s.SearchProducts(ctx, "4567")
	require.NoError(t, err)
	assert.Len(t, found, 1, "barcode substring matches")
}

func TestSQLite_SearchIsLiteralAndUnicodeAware(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()
	for _, p := range []models.Product{
		{Barcode: "4567890123456", Name: "Éclair", Price: decimal.RequireFromString("1.50"), Stock: 12},
		{Barcode: "5678901234567", Name: "Jus 100ml", Price: decimal.RequireFromString("0.80"), Stock: 20},
	} {
		_, err := s.AddProduct(ctx, p)
		require.NoError(t, err)
	}

	found, err := s.SearchProducts(ctx, "éclair")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Éclair", found[0].Name)

	found, err = s.SearchProducts(ctx, "ju_")
	require.NoError(t, err)
	assert.Empty(t, found)

	found, err = s.SearchProducts(ctx, "100%")
	require.NoError(t, err)
	assert.Empty(t, found)
}
