package inventory

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image"`
	Sizes       []string        `json:"sizes"` // labels only, stock is not tracked per size
	Stock       int             `json:"stock"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

type NewProduct struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Image       string
	Sizes       []string
	Stock       int
}

// Availability is a point-in-time read; it does not reserve anything.
type Availability struct {
	ProductID    string
	Name         string
	Available    bool
	CurrentStock int
}
