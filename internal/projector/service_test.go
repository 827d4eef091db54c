package projector

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kafkax "github.com/ariefcatur/clothify-orders/internal/kafka"
	"github.com/ariefcatur/clothify-orders/internal/orders"
	"github.com/ariefcatur/clothify-orders/internal/redisx"
)

func newProjector(t *testing.T) (*Service, *miniredis.Miniredis, *orders.MemoryStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redisx.New(mr.Addr())
	t.Cleanup(func() { _ = rdb.Close() })
	store := orders.NewMemoryStore()
	return &Service{
		Redis:       rdb,
		Stats:       &redisx.Stats{Client: rdb},
		Cache:       &redisx.OrderCache{Client: rdb},
		Orders:      store,
		ServiceName: "projector",
	}, mr, store
}

func message(t *testing.T, eventType, orderID string, payload any) kafkago.Message {
	t.Helper()
	env, err := orders.NewEnvelope(eventType, "api", orderID, "", payload)
	require.NoError(t, err)
	m, err := kafkax.NewMessage(orders.TopicFor(eventType), orders.PartitionKey(orderID), env, nil)
	require.NoError(t, err)
	return m
}

func TestHandleOrderEvent_CountsSettlements(t *testing.T) {
	s, _, store := newProjector(t)
	ctx := context.Background()
	o, err := store.Create(ctx, orders.NewOrder{Name: "a", Address: "b", Items: []orders.LineItem{{ProductID: "p", Qty: 1}}})
	require.NoError(t, err)
	_, err = store.Transition(ctx, o.ID, orders.StatusPending, orders.StatusPaid)
	require.NoError(t, err)

	msgs := []kafkago.Message{
		message(t, orders.EventOrderPlaced, o.ID, orders.OrderPlacedPayload{OrderID: o.ID}),
		message(t, orders.EventOrderSettled, o.ID, orders.OrderSettledPayload{OrderID: o.ID, Status: orders.StatusPaid, Amount: decimal.NewFromInt(10)}),
		message(t, orders.EventOrderSettled, "other", orders.OrderSettledPayload{OrderID: "other", Status: orders.StatusFailed, Restock: true}),
		message(t, orders.EventOrderStatusChanged, o.ID, orders.OrderStatusChangedPayload{OrderID: o.ID, Status: orders.StatusPaid}),
	}
	for _, m := range msgs {
		require.NoError(t, s.HandleOrderEvent(ctx, m))
	}

	all, err := s.Stats.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{
		redisx.StatPlaced:     1,
		redisx.StatPaid:       1,
		redisx.StatFailed:     1,
		redisx.StatRestocked:  1,
		redisx.StatOverridden: 1,
	}, all)

	cached, ok, err := s.Cache.Get(ctx, o.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, orders.StatusPaid, cached.Status)
}

func TestHandleOrderEvent_Redelivery(t *testing.T) {
	s, _, _ := newProjector(t)
	ctx := context.Background()
	m := message(t, orders.EventOrderPlaced, "o-1", orders.OrderPlacedPayload{OrderID: "o-1"})

	for i := 0; i < 3; i++ {
		require.NoError(t, s.HandleOrderEvent(ctx, m))
	}
	all, _ := s.Stats.All(ctx)
	assert.Equal(t, int64(1), all[redisx.StatPlaced])
}

func TestHandleOrderEvent_FailureReleasesClaim(t *testing.T) {
	s, mr, _ := newProjector(t)
	ctx := context.Background()
	m := message(t, orders.EventOrderPlaced, "o-2", orders.OrderPlacedPayload{OrderID: "o-2"})

	// a non-hash value under the stats key makes HINCRBY fail
	require.NoError(t, mr.Set(redisx.KeyOrderStats, "oops"))
	require.Error(t, s.HandleOrderEvent(ctx, m))

	mr.Del(redisx.KeyOrderStats)
	require.NoError(t, s.HandleOrderEvent(ctx, m))
	all, _ := s.Stats.All(ctx)
	assert.Equal(t, int64(1), all[redisx.StatPlaced])
}

func TestHandleOrderEvent_CacheOutageStillCountsOnce(t *testing.T) {
	s, _, store := newProjector(t)
	ctx := context.Background()
	o, err := store.Create(ctx, orders.NewOrder{Name: "a", Address: "b", Items: []orders.LineItem{{ProductID: "p", Qty: 1}}})
	require.NoError(t, err)

	down, err := miniredis.Run()
	require.NoError(t, err)
	cacheClient := redisx.New(down.Addr())
	t.Cleanup(func() { _ = cacheClient.Close() })
	down.Close()
	s.Cache = &redisx.OrderCache{Client: cacheClient}

	m := message(t, orders.EventOrderSettled, o.ID, orders.OrderSettledPayload{OrderID: o.ID, Status: orders.StatusPaid})
	require.NoError(t, s.HandleOrderEvent(ctx, m))
	require.NoError(t, s.HandleOrderEvent(ctx, m))

	all, err := s.Stats.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{redisx.StatPaid: 1}, all)
}

func TestHandleOrderEvent_NonTerminalSettlementIgnored(t *testing.T) {
	s, _, _ := newProjector(t)
	ctx := context.Background()
	m := message(t, orders.EventOrderSettled, "o-3", orders.OrderSettledPayload{OrderID: "o-3", Status: orders.StatusPending})

	require.NoError(t, s.HandleOrderEvent(ctx, m))
	all, _ := s.Stats.All(ctx)
	assert.Empty(t, all)
}

func TestHandleOrderEvent_PoisonMessageIsSkipped(t *testing.T) {
	s, _, _ := newProjector(t)
	err := s.HandleOrderEvent(context.Background(), kafkago.Message{Topic: orders.TopicOrderPlaced, Value: []byte("{")})
	assert.NoError(t, err)
}
