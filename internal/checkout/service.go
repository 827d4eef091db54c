// Package checkout places orders against live inventory and settles their
// payment in the background.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ariefcatur/clothify-orders/internal/inventory"
	"github.com/ariefcatur/clothify-orders/internal/orders"
)

const MessageProcessing = "Order placed, payment processing..."

const (
	defaultSettleTimeout = 10 * time.Second
	compensationTimeout  = 5 * time.Second
)

// Settler resolves the payment for one order.
type Settler interface {
	Settle(ctx context.Context, amount decimal.Decimal) (bool, error)
}

// Publisher emits order events; implemented by the Kafka producer.
type Publisher interface {
	PublishJSON(ctx context.Context, topic string, key []byte, v any, headers map[string]string) error
}

// OrderCache is written through on every status change.
type OrderCache interface {
	Put(ctx context.Context, o orders.Order) error
}

type Service struct {
	Ledger  inventory.Ledger
	Orders  orders.Store
	Settler Settler

	// optional collaborators
	Events Publisher
	Cache  OrderCache
	Log    *zap.Logger

	ServiceName      string
	SettleTimeout    time.Duration
	RestockOnFailure bool

	wg sync.WaitGroup
}

type PlaceOrderRequest struct {
	Name    string
	Address string
	Items   []orders.LineItem
	Total   decimal.Decimal
	TraceID string
}

type Placement struct {
	Order   orders.Order `json:"order"`
	Message string       `json:"message"`
}

// PlaceOrder validates the cart, reserves stock and creates a pending order.
// It returns before payment is settled. On any error no order exists and
// stock is back where it started.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (Placement, error) {
	if err := req.validate(); err != nil {
		return Placement{}, err
	}
	want := demand(req.Items)

	if err := s.checkStock(ctx, want); err != nil {
		return Placement{}, err
	}
	if err := s.reserve(ctx, want); err != nil {
		return Placement{}, err
	}

	o, err := s.Orders.Create(ctx, orders.NewOrder{
		Name:    req.Name,
		Address: req.Address,
		Items:   req.Items,
		Total:   req.Total,
	})
	if err != nil {
		s.release(ctx, want)
		return Placement{}, fmt.Errorf("create order: %w", err)
	}

	s.log().Info("order placed",
		zap.String("order_id", o.ID),
		zap.Int("line_items", len(o.Items)),
		zap.String("total", o.Total.String()))
	s.cachePut(ctx, o)
	s.publish(ctx, orders.EventOrderPlaced, o.ID, req.TraceID, orders.OrderPlacedPayload{
		OrderID: o.ID,
		Items:   o.Items,
		Total:   o.Total,
	})

	s.dispatchSettlement(o, req.TraceID)
	return Placement{Order: o, Message: MessageProcessing}, nil
}

// SetStatus is the operator override. Any valid status may be set,
// including back to pending.
func (s *Service) SetStatus(ctx context.Context, orderID string, status orders.Status) (orders.Order, error) {
	o, err := s.Orders.UpdateStatus(ctx, orderID, status)
	if err != nil {
		return orders.Order{}, err
	}
	s.log().Info("order status overridden", zap.String("order_id", o.ID), zap.String("status", string(o.Status)))
	s.cachePut(ctx, o)
	s.publish(ctx, orders.EventOrderStatusChanged, o.ID, "", orders.OrderStatusChangedPayload{
		OrderID: o.ID,
		Status:  o.Status,
	})
	return o, nil
}

func (s *Service) Order(ctx context.Context, orderID string) (orders.Order, error) {
	return s.Orders.FindByID(ctx, orderID)
}

func (s *Service) List(ctx context.Context) ([]orders.Order, error) {
	return s.Orders.List(ctx)
}

// Wait blocks until every in-flight settlement has recorded its outcome or
// ctx is done.
func (s *Service) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r PlaceOrderRequest) validate() error {
	if r.Name == "" || r.Address == "" || len(r.Items) == 0 {
		return orders.ErrValidation
	}
	if r.Total.IsNegative() {
		return fmt.Errorf("%w: total cannot be negative", orders.ErrValidation)
	}
	for _, it := range r.Items {
		if it.ProductID == "" {
			return fmt.Errorf("%w: product is required", orders.ErrValidation)
		}
		if it.Qty < 1 {
			return fmt.Errorf("%w: quantity must be at least 1", orders.ErrValidation)
		}
	}
	return nil
}

// need is the total quantity of one product across the cart; the same
// product can appear once per size.
type need struct {
	productID string
	qty       int
}

func demand(items []orders.LineItem) []need {
	idx := map[string]int{}
	out := make([]need, 0, len(items))
	for _, it := range items {
		if i, ok := idx[it.ProductID]; ok {
			out[i].qty += it.Qty
			continue
		}
		idx[it.ProductID] = len(out)
		out = append(out, need{productID: it.ProductID, qty: it.Qty})
	}
	return out
}

func (s *Service) checkStock(ctx context.Context, want []need) error {
	for _, n := range want {
		a, err := s.Ledger.CheckAvailability(ctx, n.productID, n.qty)
		if err != nil {
			return err
		}
		if !a.Available {
			return &inventory.StockError{
				ProductID: n.productID,
				Name:      a.Name,
				Requested: n.qty,
				Available: a.CurrentStock,
			}
		}
	}
	return nil
}

// reserve decrements one product at a time and undoes the ones already taken
// when a later decrement fails.
func (s *Service) reserve(ctx context.Context, want []need) error {
	taken := make([]need, 0, len(want))
	for _, n := range want {
		if err := s.Ledger.Decrement(ctx, n.productID, n.qty); err != nil {
			s.release(ctx, taken)
			if errors.Is(err, inventory.ErrInsufficientStock) {
				s.log().Info("stock race lost, reservation rolled back",
					zap.String("product_id", n.productID), zap.Error(err))
			}
			return err
		}
		taken = append(taken, n)
	}
	return nil
}

// release gives stock back. It must run to completion even if the request
// that reserved it has gone away.
func (s *Service) release(ctx context.Context, taken []need) {
	if len(taken) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()
	for _, n := range taken {
		if err := s.Ledger.Increment(ctx, n.productID, n.qty); err != nil {
			s.log().Error("stock compensation failed",
				zap.String("product_id", n.productID), zap.Int("qty", n.qty), zap.Error(err))
		}
	}
}

func (s *Service) publish(ctx context.Context, eventType, orderID, traceID string, payload any) {
	if s.Events == nil {
		return
	}
	env, err := orders.NewEnvelope(eventType, s.ServiceName, orderID, traceID, payload)
	if err == nil {
		err = s.Events.PublishJSON(ctx, orders.TopicFor(eventType), orders.PartitionKey(orderID), env, map[string]string{
			"x-event-type":    eventType,
			"x-event-version": fmt.Sprint(orders.EventVersion),
		})
	}
	if err != nil {
		s.log().Warn("publish event failed", zap.String("event_type", eventType), zap.String("order_id", orderID), zap.Error(err))
	}
}

func (s *Service) cachePut(ctx context.Context, o orders.Order) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Put(ctx, o); err != nil {
		s.log().Warn("order cache write failed", zap.String("order_id", o.ID), zap.Error(err))
	}
}

func (s *Service) log() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}
