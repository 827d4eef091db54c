package inventory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, l *MemoryLedger, name string, stock int) Product {
	t.Helper()
	p, err := l.CreateProduct(context.Background(), NewProduct{
		Name:  name,
		Price: decimal.RequireFromString("19.99"),
		Sizes: []string{"S", "M"},
		Stock: stock,
	})
	require.NoError(t, err)
	return p
}

func TestCheckAvailability(t *testing.T) {
	l := NewMemoryLedger()
	p := seed(t, l, "Linen Shirt", 3)
	ctx := context.Background()

	a, err := l.CheckAvailability(ctx, p.ID, 3)
	require.NoError(t, err)
	assert.True(t, a.Available)
	assert.Equal(t, 3, a.CurrentStock)
	assert.Equal(t, "Linen Shirt", a.Name)

	a, err = l.CheckAvailability(ctx, p.ID, 4)
	require.NoError(t, err)
	assert.False(t, a.Available)

	_, err = l.CheckAvailability(ctx, "missing", 1)
	assert.ErrorIs(t, err, ErrProductNotFound)

	_, err = l.CheckAvailability(ctx, p.ID, 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestDecrement_InsufficientStockLeavesStockUntouched(t *testing.T) {
	l := NewMemoryLedger()
	p := seed(t, l, "Denim Jacket", 2)
	ctx := context.Background()

	err := l.Decrement(ctx, p.ID, 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	var se *StockError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 2, se.Available)
	assert.Equal(t, "Insufficient stock for Denim Jacket. Available: 2", se.Error())

	got, err := l.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Stock)
}

func TestDecrementIncrement_Arithmetic(t *testing.T) {
	l := NewMemoryLedger()
	p := seed(t, l, "Wool Scarf", 10)
	ctx := context.Background()

	require.NoError(t, l.Decrement(ctx, p.ID, 4))
	require.NoError(t, l.Decrement(ctx, p.ID, 1))
	require.NoError(t, l.Increment(ctx, p.ID, 2))

	got, _ := l.GetProduct(ctx, p.ID)
	assert.Equal(t, 7, got.Stock)

	assert.ErrorIs(t, l.Increment(ctx, "missing", 1), ErrProductNotFound)
	assert.ErrorIs(t, l.Decrement(ctx, "missing", 1), ErrProductNotFound)
	assert.ErrorIs(t, l.Increment(ctx, p.ID, 0), ErrInvalidQuantity)
}

func TestDecrement_ConcurrentLastUnit(t *testing.T) {
	l := NewMemoryLedger()
	p := seed(t, l, "Last Tee", 1)
	ctx := context.Background()

	const n = 50
	var wins, losses atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			err := l.Decrement(ctx, p.ID, 1)
			switch {
			case err == nil:
				wins.Add(1)
			case errors.Is(err, ErrInsufficientStock):
				losses.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	assert.Equal(t, int32(n-1), losses.Load())
	got, _ := l.GetProduct(ctx, p.ID)
	assert.Equal(t, 0, got.Stock)
}

func TestListProducts_SearchAndOrder(t *testing.T) {
	l := NewMemoryLedger()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	l.nowFunc = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}
	seed(t, l, "Cotton Hoodie", 1)
	seed(t, l, "Silk Dress", 1)
	seed(t, l, "Cotton Socks", 1)
	ctx := context.Background()

	all, err := l.ListProducts(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Cotton Socks", all[0].Name)

	cotton, err := l.ListProducts(ctx, "COTTON")
	require.NoError(t, err)
	assert.Len(t, cotton, 2)
}

func TestCreateProduct_Validation(t *testing.T) {
	l := NewMemoryLedger()
	_, err := l.CreateProduct(context.Background(), NewProduct{Name: "Free"})
	assert.ErrorIs(t, err, ErrInvalidProduct)

	_, err = l.CreateProduct(context.Background(), NewProduct{Price: decimal.NewFromInt(5)})
	assert.ErrorIs(t, err, ErrInvalidProduct)
}

func TestSeedIfEmpty(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryLedger()

	n, err := SeedIfEmpty(ctx, m, DefaultCatalog)
	require.NoError(t, err)
	assert.Equal(t, len(DefaultCatalog), n)

	n, err = SeedIfEmpty(ctx, m, DefaultCatalog)
	require.NoError(t, err)
	assert.Zero(t, n)

	all, _ := m.ListProducts(ctx, "")
	assert.Len(t, all, len(DefaultCatalog))
}

func TestListProducts_SameTickIsDeterministic(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()
	tick := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	l.nowFunc = func() time.Time { return tick }
	for _, name := range []string{"A", "B", "C", "D", "E"} {
		seed(t, l, name, 1)
	}

	first, err := l.ListProducts(ctx, "")
	require.NoError(t, err)
	for i := 1; i < len(first); i++ {
		assert.Less(t, first[i-1].ID, first[i].ID)
	}
	for i := 0; i < 10; i++ {
		again, _ := l.ListProducts(ctx, "")
		assert.Equal(t, first, again)
	}
}
