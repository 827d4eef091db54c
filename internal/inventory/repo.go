package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repo is the Postgres-backed Ledger and Catalog.
type Repo struct{ DB *pgxpool.Pool }

const productColumns = `id, name, description, price, image, sizes, stock, created_at, updated_at`

func (r *Repo) CheckAvailability(ctx context.Context, productID string, qty int) (Availability, error) {
	if qty < 1 {
		return Availability{}, ErrInvalidQuantity
	}
	if !isUUID(productID) {
		return Availability{}, ErrProductNotFound
	}
	var a Availability
	err := r.DB.QueryRow(ctx, `SELECT id, name, stock FROM products WHERE id=$1`, productID).
		Scan(&a.ProductID, &a.Name, &a.CurrentStock)
	if errors.Is(err, pgx.ErrNoRows) {
		return Availability{}, ErrProductNotFound
	}
	if err != nil {
		return Availability{}, fmt.Errorf("check availability %s: %w", productID, err)
	}
	a.Available = a.CurrentStock >= qty
	return a, nil
}

// Decrement is a single conditional UPDATE; the row lock taken by the
// statement serialises concurrent decrements on the same product.
func (r *Repo) Decrement(ctx context.Context, productID string, qty int) error {
	if qty < 1 {
		return ErrInvalidQuantity
	}
	if !isUUID(productID) {
		return ErrProductNotFound
	}
	ct, err := r.DB.Exec(ctx, `
		UPDATE products SET stock = stock - $2, updated_at = now()
		WHERE id = $1 AND stock >= $2`, productID, qty)
	if err != nil {
		return fmt.Errorf("decrement %s: %w", productID, err)
	}
	if ct.RowsAffected() == 1 {
		return nil
	}

	// nothing updated: either unknown product or not enough stock
	var name string
	var stock int
	err = r.DB.QueryRow(ctx, `SELECT name, stock FROM products WHERE id=$1`, productID).Scan(&name, &stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrProductNotFound
	}
	if err != nil {
		return fmt.Errorf("decrement %s: %w", productID, err)
	}
	return &StockError{ProductID: productID, Name: name, Requested: qty, Available: stock}
}

func (r *Repo) Increment(ctx context.Context, productID string, qty int) error {
	if qty < 1 {
		return ErrInvalidQuantity
	}
	if !isUUID(productID) {
		return ErrProductNotFound
	}
	ct, err := r.DB.Exec(ctx, `UPDATE products SET stock = stock + $2, updated_at = now() WHERE id=$1`, productID, qty)
	if err != nil {
		return fmt.Errorf("increment %s: %w", productID, err)
	}
	if ct.RowsAffected() != 1 {
		return ErrProductNotFound
	}
	return nil
}

func (r *Repo) GetProduct(ctx context.Context, id string) (Product, error) {
	if !isUUID(id) {
		return Product{}, ErrProductNotFound
	}
	p, err := scanProduct(r.DB.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrProductNotFound
	}
	if err != nil {
		return Product{}, fmt.Errorf("get product %s: %w", id, err)
	}
	return p, nil
}

func (r *Repo) ListProducts(ctx context.Context, query string) ([]Product, error) {
	sql := `SELECT ` + productColumns + ` FROM products`
	var args []any
	if query != "" {
		sql += ` WHERE name ILIKE $1 OR description ILIKE $1`
		args = append(args, likePattern(query))
	}
	sql += ` ORDER BY created_at DESC`

	rows, err := r.DB.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	out := []Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repo) CreateProduct(ctx context.Context, np NewProduct) (Product, error) {
	if err := validateProduct(np); err != nil {
		return Product{}, err
	}
	if np.Sizes == nil {
		np.Sizes = []string{}
	}
	row := r.DB.QueryRow(ctx, `
		INSERT INTO products(id, name, description, price, image, sizes, stock)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING `+productColumns,
		uuid.NewString(), np.Name, np.Description, np.Price, np.Image, np.Sizes, np.Stock)
	p, err := scanProduct(row)
	if err != nil {
		return Product{}, fmt.Errorf("create product: %w", err)
	}
	return p, nil
}

// likePattern matches query as a literal substring; % and _ typed by the
// user are not wildcards.
func likePattern(query string) string {
	return "%" + likeEscaper.Replace(query) + "%"
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// isUUID keeps malformed ids from reaching Postgres as a cast error.
func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Image, &p.Sizes, &p.Stock, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}
