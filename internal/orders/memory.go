package orders

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type MemoryStore struct {
	mu      sync.RWMutex
	orders  map[string]*Order
	nowFunc func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		orders:  map[string]*Order{},
		nowFunc: time.Now,
	}
}

func (s *MemoryStore) Create(ctx context.Context, n NewOrder) (Order, error) {
	if err := n.validate(); err != nil {
		return Order{}, err
	}
	now := s.nowFunc()
	o := &Order{
		ID:        uuid.NewString(),
		Name:      n.Name,
		Address:   n.Address,
		Items:     slices.Clone(n.Items),
		Total:     n.Total,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.mu.Lock()
	s.orders[o.ID] = o
	s.mu.Unlock()
	return cloneOrder(o), nil
}

func (s *MemoryStore) FindByID(ctx context.Context, id string) (Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	if !ok {
		return Order{}, ErrOrderNotFound
	}
	return cloneOrder(o), nil
}

func (s *MemoryStore) UpdateStatus(ctx context.Context, id string, status Status) (Order, error) {
	if !status.Valid() {
		return Order{}, ErrInvalidStatus
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return Order{}, ErrOrderNotFound
	}
	o.Status = status
	o.UpdatedAt = s.nowFunc()
	return cloneOrder(o), nil
}

func (s *MemoryStore) Transition(ctx context.Context, id string, from, to Status) (Order, error) {
	if !from.Valid() || !to.Valid() {
		return Order{}, ErrInvalidStatus
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return Order{}, ErrOrderNotFound
	}
	if o.Status != from {
		return Order{}, ErrStatusMismatch
	}
	o.Status = to
	o.UpdatedAt = s.nowFunc()
	return cloneOrder(o), nil
}

func (s *MemoryStore) List(ctx context.Context) ([]Order, error) {
	s.mu.RLock()
	out := make([]Order, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, cloneOrder(o))
	}
	s.mu.RUnlock()

	// newest first; same-tick ties ordered by id
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func cloneOrder(o *Order) Order {
	c := *o
	c.Items = slices.Clone(o.Items)
	return c
}
