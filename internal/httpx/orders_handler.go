package httpx

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ariefcatur/clothify-orders/internal/checkout"
	"github.com/ariefcatur/clothify-orders/internal/inventory"
	"github.com/ariefcatur/clothify-orders/internal/orders"
	"github.com/ariefcatur/clothify-orders/internal/redisx"
)

const HeaderIdempotencyKey = "Idempotency-Key"

// OrderReader is the read side of the order cache.
type OrderReader interface {
	Get(ctx context.Context, id string) (orders.Order, bool, error)
}

type Idempotency interface {
	Begin(ctx context.Context, key string) (string, error)
	Complete(ctx context.Context, key, orderID string) error
	Abort(ctx context.Context, key string) error
}

type StatsReader interface {
	All(ctx context.Context) (map[string]int64, error)
}

type OrdersHandler struct {
	Service *checkout.Service

	// optional; nil disables the feature
	Catalog inventory.Catalog
	Cache   OrderReader
	Idem    Idempotency
	Stats   StatsReader

	Log      *zap.Logger
	validate *validator.Validate
}

type lineItemReq struct {
	ProductID string `json:"productId" validate:"required"`
	Qty       int    `json:"qty" validate:"required,min=1"`
	Size      string `json:"size,omitempty"`
}

type placeOrderReq struct {
	Name    string          `json:"name" validate:"required"`
	Address string          `json:"address" validate:"required"`
	Items   []lineItemReq   `json:"items" validate:"required,min=1,dive"`
	Total   decimal.Decimal `json:"total"`
}

type updateStatusReq struct {
	ID     string `json:"id" validate:"required"`
	Status string `json:"status" validate:"required"`
}

func (h *OrdersHandler) Register(r chi.Router) {
	h.validate = newValidator()
	if h.Log == nil {
		h.Log = zap.NewNop()
	}
	r.Post("/orders", h.placeOrder)
	r.Put("/orders", h.updateStatus)
	r.Get("/orders", h.listOrders)
	r.Get("/orders/stats", h.stats)
	r.Get("/orders/{id}", h.getOrder)
}

func (h *OrdersHandler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderReq
	if !bind(w, r, h.validate, &req, "Invalid order data") {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	key := r.Header.Get(HeaderIdempotencyKey)
	if key != "" && h.Idem != nil {
		orderID, err := h.Idem.Begin(ctx, key)
		switch {
		case errors.Is(err, redisx.ErrInFlight):
			writeErr(w, http.StatusConflict, "A request with this Idempotency-Key is already in progress")
			return
		case err != nil:
			// Redis trouble must not block checkout; carry on without replay protection.
			h.Log.Warn("idempotency unavailable", zap.Error(err))
			key = ""
		case orderID != "":
			h.replay(ctx, w, orderID)
			return
		}
	}

	items := make([]orders.LineItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, orders.LineItem{ProductID: it.ProductID, Qty: it.Qty, Size: it.Size})
	}
	placed, err := h.Service.PlaceOrder(ctx, checkout.PlaceOrderRequest{
		Name:    req.Name,
		Address: req.Address,
		Items:   items,
		Total:   req.Total,
		TraceID: middleware.GetReqID(r.Context()),
	})
	if err != nil {
		if key != "" {
			if aerr := h.Idem.Abort(context.WithoutCancel(ctx), key); aerr != nil {
				h.Log.Warn("idempotency abort failed", zap.Error(aerr))
			}
		}
		writeDomainError(w, h.Log, err, "Failed to create order")
		return
	}
	if key != "" {
		if err := h.Idem.Complete(ctx, key, placed.Order.ID); err != nil {
			h.Log.Warn("idempotency complete failed", zap.String("order_id", placed.Order.ID), zap.Error(err))
		}
	}
	writeJSON(w, http.StatusCreated, placed)
}

// replay answers a repeated POST with the order the first request created.
func (h *OrdersHandler) replay(ctx context.Context, w http.ResponseWriter, orderID string) {
	o, err := h.Service.Order(ctx, orderID)
	if err != nil {
		writeDomainError(w, h.Log, err, "Failed to create order")
		return
	}
	writeJSON(w, http.StatusOK, checkout.Placement{Order: o, Message: checkout.MessageProcessing})
}

func (h *OrdersHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusReq
	if !bind(w, r, h.validate, &req, "Order ID and status are required") {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Service.SetStatus(ctx, req.ID, orders.Status(req.Status))
	if err != nil {
		writeDomainError(w, h.Log, err, "Failed to update order")
		return
	}
	h.withProducts(ctx, []orders.Order{o})
	writeJSON(w, http.StatusOK, map[string]any{"order": o})
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if h.Cache != nil {
		o, ok, err := h.Cache.Get(ctx, orderID)
		if err != nil {
			h.Log.Warn("order cache read failed", zap.String("order_id", orderID), zap.Error(err))
		}
		if ok {
			h.withProducts(ctx, []orders.Order{o})
			writeJSON(w, http.StatusOK, map[string]any{"order": o})
			return
		}
	}

	o, err := h.Service.Order(ctx, orderID)
	if err != nil {
		writeDomainError(w, h.Log, err, "Failed to fetch order")
		return
	}
	h.withProducts(ctx, []orders.Order{o})
	writeJSON(w, http.StatusOK, map[string]any{"order": o})
}

func (h *OrdersHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	list, err := h.Service.List(ctx)
	if err != nil {
		writeDomainError(w, h.Log, err, "Failed to load orders")
		return
	}
	if list == nil {
		list = []orders.Order{}
	}
	h.withProducts(ctx, list)
	writeJSON(w, http.StatusOK, map[string]any{"orders": list})
}

// withProducts attaches each line item's product name and price. Items
// whose product is gone are left as they are.
func (h *OrdersHandler) withProducts(ctx context.Context, list []orders.Order) {
	if h.Catalog == nil {
		return
	}
	seen := map[string]*orders.ProductSummary{}
	for i := range list {
		for j := range list[i].Items {
			it := &list[i].Items[j]
			ps, ok := seen[it.ProductID]
			if !ok {
				p, err := h.Catalog.GetProduct(ctx, it.ProductID)
				switch {
				case err == nil:
					ps = &orders.ProductSummary{ID: p.ID, Name: p.Name, Price: p.Price}
				case !errors.Is(err, inventory.ErrProductNotFound):
					h.Log.Warn("product lookup failed", zap.String("product_id", it.ProductID), zap.Error(err))
				}
				seen[it.ProductID] = ps
			}
			it.Product = ps
		}
	}
}

func (h *OrdersHandler) stats(w http.ResponseWriter, r *http.Request) {
	if h.Stats == nil {
		writeJSON(w, http.StatusOK, map[string]any{"stats": map[string]int64{}})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	s, err := h.Stats.All(ctx)
	if err != nil {
		writeDomainError(w, h.Log, err, "Failed to load stats")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"stats": s})
}
