package orders

import "errors"

var (
	ErrValidation     = errors.New("invalid order data")
	ErrOrderNotFound  = errors.New("order not found")
	ErrInvalidStatus  = errors.New("invalid status")
	ErrStatusMismatch = errors.New("status mismatch")
)
