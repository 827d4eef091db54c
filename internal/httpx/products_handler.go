package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ariefcatur/clothify-orders/internal/inventory"
)

type ProductsHandler struct {
	Catalog  inventory.Catalog
	Log      *zap.Logger
	validate *validator.Validate
}

type createProductReq struct {
	Name        string          `json:"name" validate:"required"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image"`
	Sizes       []string        `json:"sizes"`
	Stock       int             `json:"stock" validate:"min=0"`
}

func (h *ProductsHandler) Register(r chi.Router) {
	h.validate = newValidator()
	if h.Log == nil {
		h.Log = zap.NewNop()
	}
	r.Get("/products", h.listProducts)
	r.Post("/products", h.createProduct)
	r.Get("/products/{id}", h.getProduct)
}

func (h *ProductsHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ps, err := h.Catalog.ListProducts(ctx, r.URL.Query().Get("q"))
	if err != nil {
		writeDomainError(w, h.Log, err, "Failed to load products")
		return
	}
	if ps == nil {
		ps = []inventory.Product{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": ps})
}

func (h *ProductsHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	p, err := h.Catalog.GetProduct(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, h.Log, err, "Failed to load product")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"product": p})
}

func (h *ProductsHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductReq
	if !bind(w, r, h.validate, &req, "Name and price are required") {
		return
	}
	if !req.Price.IsPositive() {
		writeErr(w, http.StatusBadRequest, "Name and price are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p, err := h.Catalog.CreateProduct(ctx, inventory.NewProduct{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Image:       req.Image,
		Sizes:       req.Sizes,
		Stock:       req.Stock,
	})
	if err != nil {
		writeDomainError(w, h.Log, err, "Failed to create product")
		return
	}
	h.Log.Info("product created", zap.String("product_id", p.ID), zap.Int("stock", p.Stock))
	writeJSON(w, http.StatusCreated, map[string]any{"product": p})
}
