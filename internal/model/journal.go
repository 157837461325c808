package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Leg is a single row in journal.csv (one side of a double-entry).
type Leg struct {
	EntryID         string          // "YYYY-MM-NNNx" where x = a,b,c...
	Date            time.Time       //nolint:revive // plain field name is clearest
	Kind            TransactionKind //nolint:revive
	AccountID       int             //nolint:revive
	Description     string          //nolint:revive
	Debit           decimal.Decimal // zero if credit side
	Credit          decimal.Decimal // zero if debit side
	Currency        string
	ForeignAmount   decimal.NullDecimal
	ForeignCurrency string
	Counterparty    string
	ExternalID      string // transaction fingerprint, shared by all legs of an entry
	Reference       string // bank's own reference number
	Tags            []string
	Notes           string
}

// EntryGroup returns the base entry ID (without leg suffix).
// "2025-01-001a" -> "2025-01-001"
func (l Leg) EntryGroup() string {
	i := len(l.EntryID)
	for i > 0 && l.EntryID[i-1] >= 'a' && l.EntryID[i-1] <= 'z' {
		i--
	}
	return l.EntryID[:i]
}

// JoinTags renders tags as the semicolon-separated journal column.
func JoinTags(tags []string) string {
	return strings.Join(tags, ";")
}

// SplitTags parses the semicolon-separated journal column.
func SplitTags(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ";")
	tags := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tags = append(tags, p)
		}
	}
	return tags
}
