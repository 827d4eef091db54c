package redisx

import "time"

const (
	// Idempotency for order placement: idem:order:place:{key} -> order_id, or "pending" while in flight
	KeyIdemOrderPlace = "idem:order:place:%s"

	// Cached order document: order:{order_id} -> JSON
	KeyOrder = "order:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"

	// Order counters: hash orders:stats {placed, paid, failed, overridden, ...}
	KeyOrderStats = "orders:stats"
)

var (
	TTLIdempotency = 24 * time.Hour
	TTLIdemPending = 30 * time.Second
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)
