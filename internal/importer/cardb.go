package importer

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ledgerfeed/ledgerfeed/internal/model"
)

// FormatCardB is the card issuer export with separate debit and credit columns.
const FormatCardB = "cardb"

const (
	cardBColPosting   = 0
	cardBColValue     = 1
	cardBColDesc      = 2
	cardBColRawDesc   = 3
	cardBColDebit     = 4
	cardBColCredit    = 5
	cardBMinNumFields = 6
)

// CardBAdapter parses PostingDate, ValueDate, Description, RawDescription,
// DebitAmount, CreditAmount rows.
type CardBAdapter struct {
	Location *time.Location
}

// Format returns the adapter name.
func (a *CardBAdapter) Format() string { return FormatCardB }

// Parse reads the CSV, ignoring the header row. The export is newest first,
// so rows are returned reversed.
func (a *CardBAdapter) Parse(r io.Reader) ([]Record, error) {
	loc := a.Location
	if loc == nil {
		loc = time.UTC
	}
	recs, err := readCardCSV(r, cardBMinNumFields, func(line int, rec []string) (*CardRecord, error) {
		dateField := rec[cardBColPosting]
		if strings.TrimSpace(dateField) == "" {
			dateField = rec[cardBColValue]
		}
		date, err := parseDate(dateField, loc)
		if err != nil {
			return nil, fmt.Errorf("parsing date: %w", err)
		}
		debit, err := parseAmount(rec[cardBColDebit])
		if err != nil {
			return nil, fmt.Errorf("parsing debit %q: %w", rec[cardBColDebit], err)
		}
		credit, err := parseAmount(rec[cardBColCredit])
		if err != nil {
			return nil, fmt.Errorf("parsing credit %q: %w", rec[cardBColCredit], err)
		}
		if !debit.IsZero() && !credit.IsZero() {
			return nil, errors.New("both debit and credit are set")
		}

		desc := strings.TrimSpace(rec[cardBColDesc])
		raw := strings.TrimSpace(rec[cardBColRawDesc])
		if desc == "" {
			desc = raw
		}
		if raw == "" {
			raw = desc
		}
		return &CardRecord{
			line:        line,
			date:        date,
			description: desc,
			raw:         raw,
			signed:      credit.Abs().Sub(debit.Abs()),
			debit:       !debit.IsZero(),
		}, nil
	})
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(recs)-1; i < j; i, j = i+1, j-1 {
		recs[i], recs[j] = recs[j], recs[i]
	}
	return recs, nil
}

// Map turns one row into a canonical transaction.
func (a *CardBAdapter) Map(rc *RunContext, rec Record) (model.Transaction, error) {
	return mapCard(rc, rec)
}
