package redisx

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const (
	StatPlaced     = "placed"
	StatPaid       = "paid"
	StatFailed     = "failed"
	StatRestocked  = "restocked"
	StatOverridden = "overridden"
)

// Stats are running order counters kept in one hash.
type Stats struct {
	Client *redis.Client
}

// Incr bumps every field by one inside a single MULTI/EXEC, so either all
// of them move or none does.
func (s *Stats) Incr(ctx context.Context, fields ...string) error {
	if len(fields) == 0 {
		return nil
	}
	_, err := s.Client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		for _, f := range fields {
			p.HIncrBy(ctx, KeyOrderStats, f, 1)
		}
		return nil
	})
	return err
}

// All returns every counter; unknown or malformed fields are skipped.
func (s *Stats) All(ctx context.Context) (map[string]int64, error) {
	raw, err := s.Client.HGetAll(ctx, KeyOrderStats).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(raw))
	for k, v := range raw {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			continue
		}
		out[k] = n
	}
	return out, nil
}
