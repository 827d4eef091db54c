package inventory

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryLedger keeps the catalog in process. The mutex makes the
// check-and-decrement in Decrement one atomic step, the same guarantee the
// conditional UPDATE gives in Repo.
type MemoryLedger struct {
	mu       sync.Mutex
	products map[string]*Product
	nowFunc  func() time.Time
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		products: map[string]*Product{},
		nowFunc:  time.Now,
	}
}

func (m *MemoryLedger) CheckAvailability(ctx context.Context, productID string, qty int) (Availability, error) {
	if qty < 1 {
		return Availability{}, ErrInvalidQuantity
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[productID]
	if !ok {
		return Availability{}, ErrProductNotFound
	}
	return Availability{
		ProductID:    p.ID,
		Name:         p.Name,
		Available:    p.Stock >= qty,
		CurrentStock: p.Stock,
	}, nil
}

func (m *MemoryLedger) Decrement(ctx context.Context, productID string, qty int) error {
	if qty < 1 {
		return ErrInvalidQuantity
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[productID]
	if !ok {
		return ErrProductNotFound
	}
	if p.Stock < qty {
		return &StockError{ProductID: p.ID, Name: p.Name, Requested: qty, Available: p.Stock}
	}
	p.Stock -= qty
	p.UpdatedAt = m.nowFunc()
	return nil
}

func (m *MemoryLedger) Increment(ctx context.Context, productID string, qty int) error {
	if qty < 1 {
		return ErrInvalidQuantity
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[productID]
	if !ok {
		return ErrProductNotFound
	}
	p.Stock += qty
	p.UpdatedAt = m.nowFunc()
	return nil
}

func (m *MemoryLedger) GetProduct(ctx context.Context, id string) (Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return Product{}, ErrProductNotFound
	}
	return clone(p), nil
}

func (m *MemoryLedger) ListProducts(ctx context.Context, query string) ([]Product, error) {
	q := strings.ToLower(query)
	m.mu.Lock()
	out := make([]Product, 0, len(m.products))
	for _, p := range m.products {
		if q != "" && !strings.Contains(strings.ToLower(p.Name), q) &&
			!strings.Contains(strings.ToLower(p.Description), q) {
			continue
		}
		out = append(out, clone(p))
	}
	m.mu.Unlock()

	// newest first; same-tick ties ordered by id
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *MemoryLedger) CreateProduct(ctx context.Context, np NewProduct) (Product, error) {
	if err := validateProduct(np); err != nil {
		return Product{}, err
	}
	now := m.nowFunc()
	p := &Product{
		ID:          uuid.NewString(),
		Name:        np.Name,
		Description: np.Description,
		Price:       np.Price,
		Image:       np.Image,
		Sizes:       slices.Clone(np.Sizes),
		Stock:       np.Stock,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if p.Sizes == nil {
		p.Sizes = []string{}
	}
	m.mu.Lock()
	m.products[p.ID] = p
	m.mu.Unlock()
	return clone(p), nil
}

func clone(p *Product) Product {
	c := *p
	c.Sizes = slices.Clone(p.Sizes)
	return c
}
