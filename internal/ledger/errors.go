// Package ledger owns the donation and distribution record streams and
// the derived stock balance. The balance can never go negative: every
// disbursement is checked against available stock atomically with its
// insert.
package ledger

import (
	"errors"
	"fmt"
)

// ErrNotFound reports a referenced record that does not exist.
var ErrNotFound = errors.New("not found")

// ValidationError reports a missing or malformed required field.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid field: %s", e.Field)
}

// InsufficientStockError refuses a disbursement larger than the current
// stock balance. Available carries the balance at the time of the check.
type InsufficientStockError struct {
	Available int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock: %d available", e.Available)
}
