package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repo stores orders in Postgres; line items live in a JSONB column so the
// order stays one document.
type Repo struct{ DB *pgxpool.Pool }

const orderColumns = `id, name, address, items, total, status, created_at, updated_at`

func (r *Repo) Create(ctx context.Context, n NewOrder) (Order, error) {
	if err := n.validate(); err != nil {
		return Order{}, err
	}
	row := r.DB.QueryRow(ctx, `
		INSERT INTO orders(id, name, address, items, total, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+orderColumns,
		uuid.NewString(), n.Name, n.Address, n.Items, n.Total, string(StatusPending),
	)
	o, err := scanOrder(row)
	if err != nil {
		return Order{}, fmt.Errorf("insert order: %w", err)
	}
	return o, nil
}

func (r *Repo) FindByID(ctx context.Context, id string) (Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Order{}, ErrOrderNotFound
	}
	o, err := scanOrder(r.DB.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrOrderNotFound
	}
	if err != nil {
		return Order{}, fmt.Errorf("find order %s: %w", id, err)
	}
	return o, nil
}

func (r *Repo) UpdateStatus(ctx context.Context, id string, status Status) (Order, error) {
	if !status.Valid() {
		return Order{}, ErrInvalidStatus
	}
	if _, err := uuid.Parse(id); err != nil {
		return Order{}, ErrOrderNotFound
	}
	o, err := scanOrder(r.DB.QueryRow(ctx, `
		UPDATE orders SET status=$2, updated_at=now() WHERE id=$1
		RETURNING `+orderColumns, id, string(status)))
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrOrderNotFound
	}
	if err != nil {
		return Order{}, fmt.Errorf("update order %s: %w", id, err)
	}
	return o, nil
}

func (r *Repo) Transition(ctx context.Context, id string, from, to Status) (Order, error) {
	if !from.Valid() || !to.Valid() {
		return Order{}, ErrInvalidStatus
	}
	if _, err := uuid.Parse(id); err != nil {
		return Order{}, ErrOrderNotFound
	}
	o, err := scanOrder(r.DB.QueryRow(ctx, `
		UPDATE orders SET status=$3, updated_at=now() WHERE id=$1 AND status=$2
		RETURNING `+orderColumns, id, string(from), string(to)))
	if err == nil {
		return o, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Order{}, fmt.Errorf("transition order %s: %w", id, err)
	}
	// no row matched: tell apart a missing order from a moved-on one
	if _, err := r.FindByID(ctx, id); err != nil {
		return Order{}, err
	}
	return Order{}, ErrStatusMismatch
}

func (r *Repo) List(ctx context.Context) ([]Order, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	out := []Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	var status string
	err := row.Scan(&o.ID, &o.Name, &o.Address, &o.Items, &o.Total, &status, &o.CreatedAt, &o.UpdatedAt)
	o.Status = Status(status)
	return o, err
}
