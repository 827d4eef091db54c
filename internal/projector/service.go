// Package projector folds order events into read models kept in Redis:
// running counters and a warm order cache.
package projector

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	kafkax "github.com/ariefcatur/clothify-orders/internal/kafka"
	"github.com/ariefcatur/clothify-orders/internal/orders"
	"github.com/ariefcatur/clothify-orders/internal/redisx"
)

// Topics the projector subscribes to.
var Topics = []string{orders.TopicOrderPlaced, orders.TopicOrderSettled, orders.TopicOrderStatusChanged}

type Service struct {
	Redis *redis.Client
	Stats *redisx.Stats
	Cache *redisx.OrderCache
	// Orders refreshes the cache after a status change; nil only drops the entry.
	Orders      orders.Store
	ServiceName string
	Log         *zap.Logger
}

// HandleOrderEvent is installed as the consumer handler. Counters move at
// most once per event id; the cache refresh is best effort.
func (s *Service) HandleOrderEvent(ctx context.Context, m kafkago.Message) error {
	env, err := kafkax.Decode[orders.Envelope](m.Value)
	if err != nil {
		// poison message; committing it is the only way forward
		s.log().Error("undecodable event dropped",
			zap.String("topic", m.Topic),
			zap.Int64("offset", m.Offset),
			zap.String("event_type", kafkax.HeaderValue(m, "x-event-type")),
			zap.Error(err))
		return nil
	}
	fields, orderID := s.project(env)

	claimed, err := redisx.Claim(ctx, s.Redis, s.ServiceName, env.EventID)
	if err != nil {
		return fmt.Errorf("dedup %s: %w", env.EventID, err)
	}
	if !claimed {
		return nil
	}

	// nothing has been written if this fails, so the claim can go back
	if err := s.Stats.Incr(ctx, fields...); err != nil {
		if uerr := redisx.Unclaim(context.WithoutCancel(ctx), s.Redis, s.ServiceName, env.EventID); uerr != nil {
			s.log().Warn("unclaim failed", zap.String("event_id", env.EventID), zap.Error(uerr))
		}
		return fmt.Errorf("count %s: %w", env.EventID, err)
	}

	if orderID != "" {
		if err := s.refresh(ctx, orderID); err != nil {
			s.log().Warn("order cache refresh failed", zap.String("order_id", orderID), zap.Error(err))
		}
	}
	return nil
}

// project maps an event to the counters it bumps and the order whose cached
// copy is now stale.
func (s *Service) project(env orders.Envelope) (fields []string, orderID string) {
	switch env.EventType {
	case orders.EventOrderPlaced:
		return []string{redisx.StatPlaced}, ""

	case orders.EventOrderSettled:
		p, err := kafkax.UnwrapPayload[orders.OrderSettledPayload](env.Payload)
		if err != nil || !p.Status.Terminal() {
			s.log().Warn("malformed settlement ignored", zap.String("event_id", env.EventID), zap.Error(err))
			return nil, ""
		}
		field := redisx.StatFailed
		if p.Status == orders.StatusPaid {
			field = redisx.StatPaid
		}
		fields = []string{field}
		if p.Restock {
			fields = append(fields, redisx.StatRestocked)
		}
		s.log().Info("settlement projected", zap.String("order_id", p.OrderID), zap.String("status", string(p.Status)))
		return fields, p.OrderID

	case orders.EventOrderStatusChanged:
		p, err := kafkax.UnwrapPayload[orders.OrderStatusChangedPayload](env.Payload)
		if err != nil {
			return nil, ""
		}
		return []string{redisx.StatOverridden}, p.OrderID
	}
	return nil, ""
}

func (s *Service) refresh(ctx context.Context, orderID string) error {
	if s.Cache == nil {
		return nil
	}
	if s.Orders == nil {
		return s.Cache.Forget(ctx, orderID)
	}
	o, err := s.Orders.FindByID(ctx, orderID)
	if err != nil {
		s.log().Warn("cache refresh skipped", zap.String("order_id", orderID), zap.Error(err))
		return s.Cache.Forget(ctx, orderID)
	}
	return s.Cache.Put(ctx, o)
}

func (s *Service) log() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}
