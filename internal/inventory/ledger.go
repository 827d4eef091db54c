package inventory

import "context"

// Ledger owns per-product stock counters.
//
// Decrement must check and mutate in one indivisible step: two concurrent
// callers asking for the last unit can never both succeed.
type Ledger interface {
	CheckAvailability(ctx context.Context, productID string, qty int) (Availability, error)
	Decrement(ctx context.Context, productID string, qty int) error
	Increment(ctx context.Context, productID string, qty int) error
}

// Catalog is the read/write surface the storefront and admin screens use.
type Catalog interface {
	GetProduct(ctx context.Context, id string) (Product, error)
	ListProducts(ctx context.Context, query string) ([]Product, error)
	CreateProduct(ctx context.Context, p NewProduct) (Product, error)
}

func validateProduct(p NewProduct) error {
	if p.Name == "" || !p.Price.IsPositive() {
		return ErrInvalidProduct
	}
	if p.Stock < 0 {
		return ErrInvalidProduct
	}
	return nil
}
