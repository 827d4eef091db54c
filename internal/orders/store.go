package orders

import "context"

// Store persists order documents.
type Store interface {
	// Create assigns id and timestamps and stores the order as pending.
	Create(ctx context.Context, o NewOrder) (Order, error)
	FindByID(ctx context.Context, id string) (Order, error)
	// UpdateStatus sets status unconditionally (operator override).
	UpdateStatus(ctx context.Context, id string, status Status) (Order, error)
	// Transition sets status only if the current status is from,
	// otherwise it returns ErrStatusMismatch.
	Transition(ctx context.Context, id string, from, to Status) (Order, error)
	// List returns orders newest first.
	List(ctx context.Context) ([]Order, error)
}
