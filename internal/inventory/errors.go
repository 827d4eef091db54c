package inventory

import (
	"errors"
	"fmt"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidQuantity   = errors.New("quantity must be at least 1")
	ErrInvalidProduct    = errors.New("invalid product")
)

// StockError reports a shortfall for one product. It matches ErrInsufficientStock.
type StockError struct {
	ProductID string
	Name      string
	Requested int
	Available int
}

func (e *StockError) Error() string {
	name := e.Name
	if name == "" {
		name = e.ProductID
	}
	return fmt.Sprintf("Insufficient stock for %s. Available: %d", name, e.Available)
}

func (e *StockError) Unwrap() error { return ErrInsufficientStock }
