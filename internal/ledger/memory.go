package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/ledgerfeed/ledgerfeed/internal/model"
)

// MemorySink keeps transactions in memory. It backs dry runs in tests and
// lets callers inject write failures.
type MemorySink struct {
	mu     sync.Mutex
	txns   []model.Transaction
	byExt  map[string]string
	FailOn func(model.Transaction) error
}

// NewMemorySink returns an empty MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{byExt: make(map[string]string)}
}

// Create implements Sink.
func (m *MemorySink) Create(_ context.Context, tx model.Transaction, failIfDuplicate bool) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.byExt[tx.ExternalID]; ok && tx.ExternalID != "" {
		if failIfDuplicate {
			return "", &DuplicateError{ExternalID: tx.ExternalID, ExistingID: existing}
		}
		return existing, nil
	}
	if m.FailOn != nil {
		if err := m.FailOn(tx); err != nil {
			return "", err
		}
	}
	if err := tx.Validate(); err != nil {
		return "", fmt.Errorf("invalid transaction: %w", err)
	}

	id := fmt.Sprintf("mem-%d", len(m.txns)+1)
	m.txns = append(m.txns, tx)
	if tx.ExternalID != "" {
		m.byExt[tx.ExternalID] = id
	}
	return id, nil
}

// Transactions implements History.
func (m *MemorySink) Transactions(context.Context) ([]model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Transaction(nil), m.txns...), nil
}

// Len returns the number of stored transactions.
func (m *MemorySink) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.txns)
}
