package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ariefcatur/clothify-orders/internal/orders"
)

var (
	recordAttempts = 5
	recordBackoff  = 100 * time.Millisecond
)

const reasonDeclined = "payment declined"

func (s *Service) dispatchSettlement(o orders.Order, traceID string) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.settle(o, traceID)
	}()
}

// settle runs the payment exactly once. Whatever happens inside the settler,
// including a panic, the order ends up paid or failed.
func (s *Service) settle(o orders.Order, traceID string) {
	outcome, reason := orders.StatusFailed, ""
	defer func() {
		if r := recover(); r != nil {
			outcome, reason = orders.StatusFailed, fmt.Sprintf("settlement panic: %v", r)
			s.log().Error("settlement panicked", zap.String("order_id", o.ID), zap.Any("panic", r))
		}
		s.record(o, outcome, reason, traceID)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), s.settleTimeout())
	defer cancel()

	ok, err := s.Settler.Settle(ctx, o.Total)
	switch {
	case err != nil:
		reason = err.Error()
		s.log().Warn("settlement error", zap.String("order_id", o.ID), zap.Error(err))
	case ok:
		outcome = orders.StatusPaid
	default:
		reason = reasonDeclined
	}
}

// record moves the order out of pending. A store hiccup is retried with
// backoff; an operator override that got there first is left alone.
func (s *Service) record(o orders.Order, to orders.Status, reason, traceID string) {
	var updated orders.Order
	var err error
	backoff := recordBackoff
	for attempt := 1; attempt <= recordAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), compensationTimeout)
		updated, err = s.Orders.Transition(ctx, o.ID, orders.StatusPending, to)
		cancel()
		if err == nil || errors.Is(err, orders.ErrStatusMismatch) || errors.Is(err, orders.ErrOrderNotFound) {
			break
		}
		s.log().Warn("recording settlement failed, retrying",
			zap.String("order_id", o.ID), zap.Int("attempt", attempt), zap.Error(err))
		if attempt < recordAttempts {
			time.Sleep(backoff)
			backoff *= 2
		}
	}

	switch {
	case errors.Is(err, orders.ErrStatusMismatch):
		s.log().Info("order status changed before settlement finished, keeping it",
			zap.String("order_id", o.ID), zap.String("settlement", string(to)))
		return
	case err != nil:
		s.log().Error("could not record settlement", zap.String("order_id", o.ID),
			zap.String("status", string(to)), zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), compensationTimeout)
	defer cancel()

	restocked := false
	if to == orders.StatusFailed && s.RestockOnFailure {
		s.release(ctx, demand(o.Items))
		restocked = true
	}

	s.log().Info("payment settled",
		zap.String("order_id", o.ID),
		zap.String("status", string(to)),
		zap.String("reason", reason),
		zap.Bool("restocked", restocked))
	s.cachePut(ctx, updated)
	s.publish(ctx, orders.EventOrderSettled, o.ID, traceID, orders.OrderSettledPayload{
		OrderID: o.ID,
		Status:  to,
		Amount:  o.Total,
		Reason:  reason,
		Restock: restocked,
	})
}

func (s *Service) settleTimeout() time.Duration {
	if s.SettleTimeout <= 0 {
		return defaultSettleTimeout
	}
	return s.SettleTimeout
}
