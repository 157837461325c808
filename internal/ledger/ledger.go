// Package ledger defines the boundary to the store that persists canonical transactions.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/ledgerfeed/ledgerfeed/internal/model"
)

// ErrDuplicate is matched by errors.Is for every duplicate-fingerprint rejection.
var ErrDuplicate = errors.New("duplicate fingerprint")

// DuplicateError reports that a transaction with the same fingerprint is already stored.
type DuplicateError struct {
	ExternalID string
	ExistingID string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("transaction %s already stored as %s", e.ExternalID, e.ExistingID)
}

// Is makes errors.Is(err, ErrDuplicate) true.
func (e *DuplicateError) Is(target error) bool { return target == ErrDuplicate }

// Sink durably stores transactions and enforces fingerprint uniqueness.
//
// With failIfDuplicate set, a transaction whose ExternalID is already stored is
// rejected with a *DuplicateError. Without it, the existing id is returned.
type Sink interface {
	Create(ctx context.Context, tx model.Transaction, failIfDuplicate bool) (string, error)
}

// History returns previously stored transactions.
type History interface {
	Transactions(ctx context.Context) ([]model.Transaction, error)
}
