package redisx

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const idemPending = "pending"

// ErrInFlight means a request with the same key is still being processed.
var ErrInFlight = errors.New("request with this idempotency key is in progress")

// Idempotency remembers which order a client-supplied key produced.
type Idempotency struct {
	Client *redis.Client
}

// Begin claims key. It returns the order id of an earlier completed request,
// ErrInFlight if one is still running, or "" when the caller now owns key.
func (i *Idempotency) Begin(ctx context.Context, key string) (string, error) {
	k := fmt.Sprintf(KeyIdemOrderPlace, key)
	ok, err := i.Client.SetNX(ctx, k, idemPending, TTLIdemPending).Result()
	if err != nil {
		return "", err
	}
	if ok {
		return "", nil
	}
	v, err := i.Client.Get(ctx, k).Result()
	switch {
	case errors.Is(err, redis.Nil):
		// expired between the two calls
		return "", ErrInFlight
	case err != nil:
		return "", err
	case v == idemPending:
		return "", ErrInFlight
	}
	return v, nil
}

// Complete binds key to orderID for TTLIdempotency.
func (i *Idempotency) Complete(ctx context.Context, key, orderID string) error {
	return i.Client.Set(ctx, fmt.Sprintf(KeyIdemOrderPlace, key), orderID, TTLIdempotency).Err()
}

// Abort releases key after a failed request so the client may retry.
func (i *Idempotency) Abort(ctx context.Context, key string) error {
	return i.Client.Del(ctx, fmt.Sprintf(KeyIdemOrderPlace, key)).Err()
}
