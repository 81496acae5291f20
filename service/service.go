package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"point-of-sale/cart"
	"point-of-sale/export"
	models "point-of-sale/model"
	"point-of-sale/receipt"
	"point-of-sale/store"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const instrumentationName = "point-of-sale/service"

// Options are the till settings the service needs at construction.
type Options struct {
	LowStockThreshold int
	ReceiptsDir       string
}

// Service drives the single till: one cart against one store. Calls are
// serialised, so the HTTP layer may call it from any goroutine.
type Service struct {
	mu    sync.Mutex
	store store.Store
	cart  *cart.Cart
	log   *zap.Logger

	tracer       trace.Tracer
	salesCounter metric.Int64Counter

	lowStock    int
	receiptsDir string
	lastSaleID  int64
}

func NewService(s store.Store, logger *zap.Logger, opts Options) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	counter, err := otel.Meter(instrumentationName).Int64Counter("pos.sales.completed",
		metric.WithDescription("Sales recorded at checkout"),
	)
	if err != nil {
		logger.Warn("sales counter unavailable", zap.Error(err))
		counter = noop.Int64Counter{}
	}
	return &Service{
		store:        s,
		cart:         cart.New(opts.LowStockThreshold),
		log:          logger,
		tracer:       otel.Tracer(instrumentationName),
		salesCounter: counter,
		lowStock:     opts.LowStockThreshold,
		receiptsDir:  opts.ReceiptsDir,
	}
}

func (in ProductInput) normalize() (ProductInput, error) {
	in.Barcode = strings.TrimSpace(in.Barcode)
	in.Name = strings.TrimSpace(in.Name)
	if in.Barcode == "" {
		return in, fmt.Errorf("%w: barcode required", ErrValidation)
	}
	if in.Name == "" {
		return in, fmt.Errorf("%w: name required", ErrValidation)
	}
	if in.Price.IsNegative() {
		return in, fmt.Errorf("%w: price must be >= 0", ErrValidation)
	}
	if in.Stock < 0 {
		return in, fmt.Errorf("%w: stock must be >= 0", ErrValidation)
	}
	return in, nil
}

func (s *Service) toProductDTO(p models.Product) ProductDTO {
	return ProductDTO{
		ID:       p.ID,
		Barcode:  p.Barcode,
		Name:     p.Name,
		Price:    p.Price,
		Stock:    p.Stock,
		LowStock: p.Stock < s.lowStock,
	}
}

func (s *Service) AddProduct(ctx context.Context, in ProductInput) (ProductDTO, error) {
	in, err := in.normalize()
	if err != nil {
		return ProductDTO{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	p := models.Product{Barcode: in.Barcode, Name: in.Name, Price: in.Price, Stock: in.Stock}
	id, err := s.store.AddProduct(ctx, p)
	if err != nil {
		return ProductDTO{}, err
	}
	p.ID = id
	s.log.Info("product added", zap.Int64("product_id", id), zap.String("barcode", p.Barcode))
	return s.toProductDTO(p), nil
}

// UpdateProduct rewrites name, price and stock. The barcode in the input is
// only validated; a product keeps the barcode it was created with.
func (s *Service) UpdateProduct(ctx context.Context, id int64, in ProductInput) error {
	in, err := in.normalize()
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	err = s.store.UpdateProduct(ctx, models.Product{ID: id, Name: in.Name, Price: in.Price, Stock: in.Stock})
	if err != nil {
		return err
	}
	s.log.Info("product updated", zap.Int64("product_id", id))
	return nil
}

func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.log.Info("product deleted", zap.Int64("product_id", id))
	return nil
}

// ListProducts returns the catalogue, narrowed to name or barcode matches
// when filter is set.
func (s *Service) ListProducts(ctx context.Context, filter string) ([]ProductDTO, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		rows []models.Product
		err  error
	)
	if filter = strings.TrimSpace(filter); filter == "" {
		rows, err = s.store.ListProducts(ctx)
	} else {
		rows, err = s.store.SearchProducts(ctx, filter)
	}
	if err != nil {
		return nil, err
	}
	out := make([]ProductDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, s.toProductDTO(r))
	}
	return out, nil
}

func (s *Service) GetProductByBarcode(ctx context.Context, barcode string) (ProductDTO, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.store.GetProductByBarcode(ctx, strings.TrimSpace(barcode))
	if err != nil {
		return ProductDTO{}, err
	}
	return s.toProductDTO(p), nil
}

func (s *Service) ExportInventory(ctx context.Context, w io.Writer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.store.ListProducts(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrExport, err)
	}
	if err := export.WriteCSV(w, products); err != nil {
		s.log.Error("inventory export failed", zap.Error(err))
		return fmt.Errorf("%w: %v", ErrExport, err)
	}
	s.log.Info("inventory exported", zap.Int("products", len(products)))
	return nil
}

// Scan resolves term as a barcode first, then as part of a product name. A
// single hit goes into the cart; several are returned for the cashier to
// choose from.
func (s *Service) Scan(ctx context.Context, term string) (ScanResult, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return ScanResult{}, fmt.Errorf("%w: search term required", ErrValidation)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.store.GetProductByBarcode(ctx, term)
	if err == nil {
		res, err := s.addToCart(p)
		if err != nil {
			return ScanResult{}, err
		}
		return ScanResult{Added: &res}, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return ScanResult{}, err
	}

	found, err := s.store.SearchProducts(ctx, term)
	if err != nil {
		return ScanResult{}, err
	}
	lower := strings.ToLower(term)
	var matches []models.Product
	for _, p := range found {
		if strings.Contains(strings.ToLower(p.Name), lower) {
			matches = append(matches, p)
		}
	}

	switch len(matches) {
	case 0:
		return ScanResult{}, fmt.Errorf("no product for %q: %w", term, store.ErrNotFound)
	case 1:
		res, err := s.addToCart(matches[0])
		if err != nil {
			return ScanResult{}, err
		}
		return ScanResult{Added: &res}, nil
	}
	out := ScanResult{Matches: make([]ProductDTO, 0, len(matches))}
	for _, m := range matches {
		out.Matches = append(out.Matches, s.toProductDTO(m))
	}
	return out, nil
}

// AddToCart reads the product's current stock and adds one unit.
func (s *Service) AddToCart(ctx context.Context, productID int64) (AddResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.store.GetProduct(ctx, productID)
	if err != nil {
		return AddResult{}, err
	}
	return s.addToCart(p)
}

func (s *Service) addToCart(p models.Product) (AddResult, error) {
	line, low, err := s.cart.Add(p)
	if err != nil {
		s.log.Info("add to cart rejected", zap.Int64("product_id", p.ID), zap.Int("stock", p.Stock), zap.Error(err))
		return AddResult{}, err
	}
	if low {
		s.log.Warn("low stock", zap.Int64("product_id", p.ID), zap.String("name", p.Name), zap.Int("stock", p.Stock))
	}
	return AddResult{Line: toLineDTO(line), LowStock: low, Stock: p.Stock}, nil
}

// SetQuantity accepts 1 up to the stock seen when the product was last added.
func (s *Service) SetQuantity(ctx context.Context, productID int64, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	line, ok := s.cart.Get(productID)
	if !ok {
		return cart.ErrItemNotInCart
	}
	if quantity < 1 || quantity > line.Product.Stock {
		return fmt.Errorf("%w: must be between 1 and %d", ErrQuantityOutOfRange, line.Product.Stock)
	}
	return s.cart.SetQuantity(productID, quantity)
}

// RemoveFromCart drops the product's line; a product not in the cart is ignored.
func (s *Service) RemoveFromCart(ctx context.Context, productID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cart.Remove(productID)
	return nil
}

func (s *Service) ClearCart(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cart.Clear()
	return nil
}

func (s *Service) GetCart(ctx context.Context) (CartDTO, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := s.cart.Lines()
	out := CartDTO{
		Lines:     make([]CartLineDTO, 0, len(lines)),
		ItemCount: s.cart.ItemCount(),
		Total:     s.cart.Total(),
	}
	for _, l := range lines {
		out.Lines = append(out.Lines, toLineDTO(l))
	}
	return out, nil
}

// Checkout records the cart as one sale and empties it.
func (s *Service) Checkout(ctx context.Context, customerName string) (CheckoutDTO, error) {
	ctx, span := s.tracer.Start(ctx, "pos.Checkout")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	customerName = cart.CustomerName(customerName)
	items := s.cart.ItemCount()
	saleID, total, err := s.cart.Checkout(ctx, s.store, customerName)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if !errors.Is(err, cart.ErrEmptyCart) {
			s.log.Error("checkout failed", zap.Error(err))
		}
		return CheckoutDTO{}, err
	}

	s.lastSaleID = saleID
	span.SetAttributes(
		attribute.Int64("pos.sale_id", saleID),
		attribute.Int("pos.item_count", items),
	)
	s.salesCounter.Add(ctx, 1)
	s.log.Info("sale recorded",
		zap.Int64("sale_id", saleID),
		zap.String("total", total.StringFixed(2)),
		zap.String("customer", customerName),
		zap.Int("items", items),
	)
	return CheckoutDTO{SaleID: saleID, Total: total, CustomerName: customerName}, nil
}

func (s *Service) ListSales(ctx context.Context) ([]SaleDTO, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sales, err := s.store.ListSales(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]SaleDTO, 0, len(sales))
	for _, sale := range sales {
		out = append(out, toSaleDTO(sale))
	}
	return out, nil
}

func (s *Service) SaleDetails(ctx context.Context, saleID int64) (SaleDetailsDTO, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sale, items, err := s.loadSale(ctx, saleID)
	if err != nil {
		return SaleDetailsDTO{}, err
	}
	return SaleDetailsDTO{Sale: toSaleDTO(sale), Items: items}, nil
}

func (s *Service) loadSale(ctx context.Context, saleID int64) (models.Sale, []models.SaleDetail, error) {
	sale, err := s.store.GetSale(ctx, saleID)
	if err != nil {
		return models.Sale{}, nil, err
	}
	items, err := s.store.GetSaleDetails(ctx, saleID)
	if err != nil {
		return models.Sale{}, nil, err
	}
	return sale, items, nil
}

// WriteReceipt writes the receipt for saleID to path, or to
// <receipts dir>/receipt_<id>.txt when path is empty, and returns the path.
func (s *Service) WriteReceipt(ctx context.Context, saleID int64, path string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeReceipt(ctx, saleID, path)
}

// WriteLastReceipt is WriteReceipt for the most recent checkout of this process.
func (s *Service) WriteLastReceipt(ctx context.Context, path string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lastSaleID == 0 {
		return "", ErrNoRecentSale
	}
	return s.writeReceipt(ctx, s.lastSaleID, path)
}

func (s *Service) writeReceipt(ctx context.Context, saleID int64, path string) (string, error) {
	sale, items, err := s.loadSale(ctx, saleID)
	if err != nil {
		return "", err
	}
	if path = strings.TrimSpace(path); path == "" {
		path = filepath.Join(s.receiptsDir, fmt.Sprintf("receipt_%d.txt", saleID))
	}

	sale.CreatedAt = sale.CreatedAt.In(time.Local)
	if err := receipt.WriteFile(path, receipt.Receipt{Sale: sale, Items: items}); err != nil {
		s.log.Error("receipt write failed", zap.Int64("sale_id", saleID), zap.String("path", path), zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrReceipt, err)
	}
	s.log.Info("receipt written", zap.Int64("sale_id", saleID), zap.String("path", path))
	return path, nil
}

var sampleProducts = []models.Product{
	{Barcode: "1234567890123", Name: "Sample Cola", Price: decimal.RequireFromString("1.99"), Stock: 50},
	{Barcode: "2345678901234", Name: "Sample Chips", Price: decimal.RequireFromString("2.49"), Stock: 30},
	{Barcode: "3456789012345", Name: "Sample Candy", Price: decimal.RequireFromString("0.99"), Stock: 100},
}

// SeedSampleProducts stocks an empty catalogue with a few demo products and
// reports how many were added.
func (s *Service) SeedSampleProducts(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.store.ListProducts(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}
	for _, p := range sampleProducts {
		if _, err := s.store.AddProduct(ctx, p); err != nil {
			return 0, fmt.Errorf("seed %s: %w", p.Barcode, err)
		}
	}
	s.log.Info("sample products seeded", zap.Int("count", len(sampleProducts)))
	return len(sampleProducts), nil
}
