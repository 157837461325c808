// Package dedup keeps repeated imports idempotent.
package dedup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ledgerfeed/ledgerfeed/internal/ledger"
	"github.com/ledgerfeed/ledgerfeed/internal/model"
)

// Fingerprint hashes the identifying content of a raw record. Rows that are
// identical in date, raw description, signed amount and record id (line number
// or bank id) reproduce the same value on every run.
func Fingerprint(date time.Time, rawDescription string, signedAmount decimal.Decimal, recordID string) string {
	h := sha256.New()
	for i, part := range []string{
		date.Format("2006-01-02"),
		strings.TrimSpace(rawDescription),
		signedAmount.StringFixed(2),
		recordID,
	} {
		if i > 0 {
			h.Write([]byte{0x1f})
		}
		h.Write([]byte(part))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Outcome classifies one write attempt.
type Outcome string

const (
	Created   Outcome = "created"
	Duplicate Outcome = "duplicate"
	Failed    Outcome = "failed"
)

// Result is the outcome of Gate.Submit.
type Result struct {
	Outcome Outcome
	ID      string // ledger id when created, existing id when duplicate
	Err     error  // set when failed
}

// Gate writes transactions with "fail if the fingerprint exists" semantics
// and turns that rejection into a soft skip.
type Gate struct {
	sink ledger.Sink
}

// NewGate wraps sink.
func NewGate(sink ledger.Sink) *Gate {
	return &Gate{sink: sink}
}

// Submit hands tx to the sink exactly once.
func (g *Gate) Submit(ctx context.Context, tx model.Transaction) Result {
	id, err := g.sink.Create(ctx, tx, true)
	if err == nil {
		return Result{Outcome: Created, ID: id}
	}
	var dup *ledger.DuplicateError
	if errors.As(err, &dup) {
		return Result{Outcome: Duplicate, ID: dup.ExistingID}
	}
	if errors.Is(err, ledger.ErrDuplicate) {
		return Result{Outcome: Duplicate}
	}
	return Result{Outcome: Failed, Err: err}
}
