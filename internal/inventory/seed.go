package inventory

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// DefaultCatalog is loaded into an empty catalog on startup.
var DefaultCatalog = []NewProduct{
	{Name: "Classic White Tee", Description: "Heavyweight cotton crew neck", Price: decimal.RequireFromString("19.99"), Sizes: []string{"S", "M", "L", "XL"}, Stock: 40},
	{Name: "Slim Fit Chinos", Description: "Stretch twill, tapered leg", Price: decimal.RequireFromString("49.50"), Sizes: []string{"30", "32", "34", "36"}, Stock: 25},
	{Name: "Denim Jacket", Description: "Washed indigo trucker jacket", Price: decimal.RequireFromString("89.00"), Sizes: []string{"M", "L"}, Stock: 10},
	{Name: "Wool Beanie", Description: "Ribbed merino knit", Price: decimal.RequireFromString("15.00"), Stock: 60},
	{Name: "Limited Runner Sneaker", Description: "Numbered drop, one per customer", Price: decimal.RequireFromString("180.00"), Sizes: []string{"42", "43", "44"}, Stock: 3},
}

// SeedIfEmpty creates products only when the catalog has none. It reports
// how many were created.
func SeedIfEmpty(ctx context.Context, c Catalog, products []NewProduct) (int, error) {
	existing, err := c.ListProducts(ctx, "")
	if err != nil {
		return 0, fmt.Errorf("seed: %w", err)
	}
	if len(existing) > 0 {
		return 0, nil
	}
	for i, p := range products {
		if _, err := c.CreateProduct(ctx, p); err != nil {
			return i, fmt.Errorf("seed %q: %w", p.Name, err)
		}
	}
	return len(products), nil
}
