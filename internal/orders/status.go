package orders

type Status string

const (
	StatusPending Status = "pending"
	StatusPaid    Status = "paid"
	StatusFailed  Status = "failed"
)

// Valid reports whether s is one of the persisted statuses.
// There is no transition table: an operator may set any valid status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusFailed:
		return true
	}
	return false
}

// Terminal is true for the outcomes settlement can produce.
func (s Status) Terminal() bool {
	return s == StatusPaid || s == StatusFailed
}
