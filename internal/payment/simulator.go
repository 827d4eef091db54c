// Package payment simulates the external payment gateway.
package payment

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/shopspring/decimal"
)

const (
	DefaultMinDelay    = time.Second
	DefaultMaxDelay    = 3 * time.Second
	DefaultSuccessRate = 0.9
)

// Simulator resolves a payment after a random latency. The outcome is
// independent of the amount. Safe for concurrent use.
type Simulator struct {
	MinDelay    time.Duration
	MaxDelay    time.Duration
	SuccessRate float64

	// Float64 returns a value in [0,1); nil uses math/rand/v2.
	Float64 func() float64
}

func NewSimulator() *Simulator {
	return &Simulator{
		MinDelay:    DefaultMinDelay,
		MaxDelay:    DefaultMaxDelay,
		SuccessRate: DefaultSuccessRate,
	}
}

// Settle blocks only the calling goroutine. It returns ctx.Err() if the
// context ends before the simulated gateway answers.
func (s *Simulator) Settle(ctx context.Context, amount decimal.Decimal) (bool, error) {
	t := time.NewTimer(s.delay())
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case <-t.C:
	}
	return s.roll() < s.SuccessRate, nil
}

func (s *Simulator) delay() time.Duration {
	span := s.MaxDelay - s.MinDelay
	if span <= 0 {
		return s.MinDelay
	}
	return s.MinDelay + time.Duration(s.roll()*float64(span))
}

func (s *Simulator) roll() float64 {
	if s.Float64 != nil {
		return s.Float64()
	}
	return rand.Float64()
}
