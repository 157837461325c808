package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ledgerfeed/ledgerfeed/internal/model"
)

// FormatCardA is the card issuer export with one signed amount column.
const FormatCardA = "carda"

const (
	cardAColDate      = 0
	cardAColDesc      = 1
	cardAColOrigCur   = 2
	cardAColOrigAmt   = 3
	cardAColLocal     = 4
	cardAMinNumFields = 5
)

// CardAAdapter parses Date, Description, OriginalCurrency, OriginalAmount,
// LocalAmount rows. A positive LocalAmount is a charge.
type CardAAdapter struct {
	Location *time.Location
}

// Format returns the adapter name.
func (a *CardAAdapter) Format() string { return FormatCardA }

// Parse reads the CSV, ignoring the header row. Rows keep file order.
func (a *CardAAdapter) Parse(r io.Reader) ([]Record, error) {
	loc := a.Location
	if loc == nil {
		loc = time.UTC
	}
	return readCardCSV(r, cardAMinNumFields, func(line int, rec []string) (*CardRecord, error) {
		date, err := parseDate(rec[cardAColDate], loc)
		if err != nil {
			return nil, fmt.Errorf("parsing date: %w", err)
		}
		if strings.TrimSpace(rec[cardAColLocal]) == "" {
			return nil, errors.New("missing local amount")
		}
		local, err := parseAmount(rec[cardAColLocal])
		if err != nil {
			return nil, fmt.Errorf("parsing local amount %q: %w", rec[cardAColLocal], err)
		}
		orig, err := parseAmount(rec[cardAColOrigAmt])
		if err != nil {
			return nil, fmt.Errorf("parsing original amount %q: %w", rec[cardAColOrigAmt], err)
		}
		desc := strings.TrimSpace(rec[cardAColDesc])
		return &CardRecord{
			line:        line,
			date:        date,
			description: desc,
			raw:         desc,
			signed:      local,
			debit:       local.IsPositive(),
			origCode:    strings.ToUpper(strings.TrimSpace(rec[cardAColOrigCur])),
			origAmount:  orig,
		}, nil
	})
}

// Map turns one row into a canonical transaction.
func (a *CardAAdapter) Map(rc *RunContext, rec Record) (model.Transaction, error) {
	return mapCard(rc, rec)
}

// readCardCSV reads a headed CSV and converts each row with fn. Rows with
// fewer than minFields columns are rejected.
func readCardCSV(r io.Reader, minFields int, fn func(line int, rec []string) (*CardRecord, error)) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	if _, err := cr.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, parseErr("reading header: %v", err)
	}

	var out []Record
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, parseErr("reading CSV: %v", err)
		}
		line, _ := cr.FieldPos(0)
		if len(rec) < minFields {
			return nil, parseErr("line %d: expected at least %d columns, got %d", line, minFields, len(rec))
		}
		c, err := fn(line, rec)
		if err != nil {
			return nil, parseErr("line %d: %v", line, err)
		}
		out = append(out, c)
	}
	return out, nil
}
