package redisx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/ariefcatur/clothify-orders/internal/orders"
)

// OrderCache keeps a short-lived copy of order documents. The store stays
// the source of truth; a miss is never an error.
type OrderCache struct {
	Client *redis.Client
}

func (c *OrderCache) Put(ctx context.Context, o orders.Order) error {
	b, err := json.Marshal(o)
	if err != nil {
		return err
	}
	return c.Client.Set(ctx, fmt.Sprintf(KeyOrder, o.ID), b, TTLStatusCache).Err()
}

// Get reports ok=false on a miss.
func (c *OrderCache) Get(ctx context.Context, id string) (orders.Order, bool, error) {
	b, err := c.Client.Get(ctx, fmt.Sprintf(KeyOrder, id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return orders.Order{}, false, nil
	}
	if err != nil {
		return orders.Order{}, false, err
	}
	var o orders.Order
	if err := json.Unmarshal(b, &o); err != nil {
		// a stale shape is just a miss
		return orders.Order{}, false, nil
	}
	return o, true, nil
}

func (c *OrderCache) Forget(ctx context.Context, id string) error {
	return c.Client.Del(ctx, fmt.Sprintf(KeyOrder, id)).Err()
}
