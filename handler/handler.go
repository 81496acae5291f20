package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"point-of-sale/cart"
	"point-of-sale/service"
	"point-of-sale/store"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Handler is the HTTP layer that talks to service.Service
type Handler struct {
	svc           service.ServiceInterface
	log           *zap.Logger
	adminPassword string
}

// NewHandler returns a Handler instance
func NewHandler(s service.ServiceInterface, logger *zap.Logger, adminPassword string) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: s, log: logger, adminPassword: adminPassword}
}

// RegisterRoutes registers all routes on the provided router
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.Use(h.requestID, h.logRequests, h.recoverPanics)

	r.HandleFunc("/health", h.Health).Methods("GET")

	// Catalogue and scanning
	r.HandleFunc("/products", h.ListProducts).Methods("GET")
	r.HandleFunc("/products/barcode/{barcode}", h.GetProductByBarcode).Methods("GET")
	r.HandleFunc("/scan", h.Scan).Methods("POST")

	// Cart
	r.HandleFunc("/cart", h.GetCart).Methods("GET")
	r.HandleFunc("/cart/add", h.AddToCart).Methods("POST")
	r.HandleFunc("/cart/quantity", h.SetQuantity).Methods("POST")
	r.HandleFunc("/cart/remove", h.RemoveFromCart).Methods("POST")
	r.HandleFunc("/cart/clear", h.ClearCart).Methods("POST")

	// Checkout
	r.HandleFunc("/checkout/order", h.Checkout).Methods("POST")

	// Sales history and receipts
	r.HandleFunc("/sales", h.ListSales).Methods("GET")
	r.HandleFunc("/sales/{id:[0-9]+}", h.SaleDetails).Methods("GET")
	r.HandleFunc("/sales/{id:[0-9]+}/receipt", h.WriteReceipt).Methods("POST")
	r.HandleFunc("/receipt", h.WriteLastReceipt).Methods("POST")

	// Inventory management, behind the admin password
	admin := r.PathPrefix("/inventory").Subrouter()
	admin.Use(h.requireAdmin)
	admin.HandleFunc("/products", h.CreateProduct).Methods("POST")
	admin.HandleFunc("/products/{id:[0-9]+}", h.UpdateProduct).Methods("PUT")
	admin.HandleFunc("/products/{id:[0-9]+}", h.DeleteProduct).Methods("DELETE")
	admin.HandleFunc("/export", h.ExportInventory).Methods("GET")
}

// --- request / response shapes ---
type scanReq struct {
	Term string `json:"term"`
}

type cartItemReq struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity,omitempty"` // only for /cart/quantity
}

type checkoutReq struct {
	CustomerName string `json:"customer_name"`
}

type receiptReq struct {
	Path string `json:"path"`
}

// --- helpers ---
func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// decode reads a JSON body into v. An empty body is accepted when optional.
func decode(r *http.Request, v interface{}, optional bool) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if optional && errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrQuantityOutOfRange),
		errors.Is(err, cart.ErrEmptyCart):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, cart.ErrItemNotInCart),
		errors.Is(err, service.ErrNoRecentSale):
		return http.StatusNotFound
	case errors.Is(err, store.ErrDuplicateBarcode),
		errors.Is(err, store.ErrProductInUse),
		errors.Is(err, cart.ErrOutOfStock),
		errors.Is(err, cart.ErrInsufficientStock):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		h.log.Error("request failed",
			zap.String("request_id", RequestIDFrom(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	writeErr(w, code, err.Error())
}

// --- Handler ---

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListProducts handles GET /products?q=...
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ps, err := h.svc.ListProducts(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

// GetProductByBarcode handles GET /products/barcode/{barcode}
func (h *Handler) GetProductByBarcode(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.GetProductByBarcode(r.Context(), mux.Vars(r)["barcode"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Scan handles POST /scan
// body: { "term": "1234567890123" }
func (h *Handler) Scan(w http.ResponseWriter, r *http.Request) {
	var req scanReq
	if err := decode(r, &req, false); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	res, err := h.svc.Scan(r.Context(), req.Term)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GetCart handles GET /cart
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.GetCart(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// AddToCart handles POST /cart/add
// body: { "product_id": 1 }
func (h *Handler) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req cartItemReq
	if err := decode(r, &req, false); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.ProductID == 0 {
		writeErr(w, http.StatusBadRequest, "product_id is required")
		return
	}
	res, err := h.svc.AddToCart(r.Context(), req.ProductID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// SetQuantity handles POST /cart/quantity
// body: { "product_id": 1, "quantity": 3 }
func (h *Handler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	var req cartItemReq
	if err := decode(r, &req, false); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.svc.SetQuantity(r.Context(), req.ProductID, req.Quantity); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// RemoveFromCart handles POST /cart/remove
// body: { "product_id": 1 }
func (h *Handler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	var req cartItemReq
	if err := decode(r, &req, false); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.svc.RemoveFromCart(r.Context(), req.ProductID); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

// ClearCart handles POST /cart/clear
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.ClearCart(r.Context()); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// Checkout handles POST /checkout/order
// body (optional): { "customer_name": "..." }
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutReq
	if err := decode(r, &req, true); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	out, err := h.svc.Checkout(r.Context(), req.CustomerName)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

// ListSales handles GET /sales
func (h *Handler) ListSales(w http.ResponseWriter, r *http.Request) {
	sales, err := h.svc.ListSales(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sales)
}

// SaleDetails handles GET /sales/{id}
func (h *Handler) SaleDetails(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid sale id")
		return
	}
	d, err := h.svc.SaleDetails(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// WriteReceipt handles POST /sales/{id}/receipt
// body (optional): { "path": "receipts/sale.txt" }
func (h *Handler) WriteReceipt(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid sale id")
		return
	}
	var req receiptReq
	if err := decode(r, &req, true); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	path, err := h.svc.WriteReceipt(r.Context(), id, req.Path)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"path": path})
}

// WriteLastReceipt handles POST /receipt
func (h *Handler) WriteLastReceipt(w http.ResponseWriter, r *http.Request) {
	var req receiptReq
	if err := decode(r, &req, true); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	path, err := h.svc.WriteLastReceipt(r.Context(), req.Path)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"path": path})
}

// CreateProduct handles POST /inventory/products
// body: { "barcode": "...", "name": "...", "price": "1.99", "stock": 10 }
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req service.ProductInput
	if err := decode(r, &req, false); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	p, err := h.svc.AddProduct(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// UpdateProduct handles PUT /inventory/products/{id}
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid product id")
		return
	}
	var req service.ProductInput
	if err := decode(r, &req, false); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.svc.UpdateProduct(r.Context(), id, req); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// DeleteProduct handles DELETE /inventory/products/{id}
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid product id")
		return
	}
	if err := h.svc.DeleteProduct(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ExportInventory handles GET /inventory/export
func (h *Handler) ExportInventory(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.svc.ExportInventory(r.Context(), &buf); err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="inventory.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
