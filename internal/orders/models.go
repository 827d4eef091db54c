package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

type LineItem struct {
	ProductID string `json:"productId"`
	Qty       int    `json:"qty"`
	Size      string `json:"size,omitempty"`

	// Product is attached on reads for display and never persisted.
	Product *ProductSummary `json:"product,omitempty"`
}

type ProductSummary struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

type Order struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Address   string          `json:"address"`
	Items     []LineItem      `json:"items"`
	Total     decimal.Decimal `json:"total"` // as submitted by the client
	Status    Status          `json:"status"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// NewOrder is what the placement pipeline hands to Store.Create.
type NewOrder struct {
	Name    string
	Address string
	Items   []LineItem
	Total   decimal.Decimal
}

func (n NewOrder) validate() error {
	if n.Name == "" || n.Address == "" || len(n.Items) == 0 {
		return ErrValidation
	}
	return nil
}
