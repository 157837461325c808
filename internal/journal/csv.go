package journal

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ledgerfeed/ledgerfeed/internal/model"
)

// Header is the CSV header for journal.csv.
const Header = "entry_id,date,kind,account_id,description,debit,credit,currency,foreign_amount,foreign_currency,counterparty,external_id,reference,tags,notes"

const (
	numFields     = 15
	dateFormat    = "2006-01-02"
	colEntryID    = 0
	colDate       = 1
	colKind       = 2
	colAcctID     = 3
	colDesc       = 4
	colDebit      = 5
	colCredit     = 6
	colCurrency   = 7
	colForeignAmt = 8
	colForeignCur = 9
	colCparty     = 10
	colExternalID = 11
	colRef        = 12
	colTags       = 13
	colNotes      = 14
)

// ReadLegs reads all legs from a journal.csv reader.
func ReadLegs(r io.Reader) ([]model.Leg, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading journal CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	var legs []model.Leg
	for i, rec := range records[1:] {
		leg, err := UnmarshalLeg(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		legs = append(legs, leg)
	}
	return legs, nil
}

// WriteLegs writes legs to a journal.csv writer (including header).
func WriteLegs(w io.Writer, legs []model.Leg) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, leg := range legs {
		if err := cw.Write(MarshalLeg(leg)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

// AppendLegs appends legs without a header.
func AppendLegs(w io.Writer, legs []model.Leg) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	for i, leg := range legs {
		if err := cw.Write(MarshalLeg(leg)); err != nil {
			return fmt.Errorf("writing row %d: %w", i, err)
		}
	}
	return cw.Error()
}

// MarshalLeg converts a Leg to a CSV row.
func MarshalLeg(leg model.Leg) []string {
	row := make([]string, numFields)
	row[colEntryID] = leg.EntryID
	row[colDate] = leg.Date.Format(dateFormat)
	row[colKind] = string(leg.Kind)
	row[colAcctID] = strconv.Itoa(leg.AccountID)
	row[colDesc] = leg.Description
	if !leg.Debit.IsZero() {
		row[colDebit] = leg.Debit.StringFixed(2)
	}
	if !leg.Credit.IsZero() {
		row[colCredit] = leg.Credit.StringFixed(2)
	}
	row[colCurrency] = leg.Currency
	if leg.ForeignAmount.Valid {
		row[colForeignAmt] = leg.ForeignAmount.Decimal.String()
	}
	row[colForeignCur] = leg.ForeignCurrency
	row[colCparty] = leg.Counterparty
	row[colExternalID] = leg.ExternalID
	row[colRef] = leg.Reference
	row[colTags] = model.JoinTags(leg.Tags)
	row[colNotes] = leg.Notes
	return row
}

// UnmarshalLeg converts a CSV row to a Leg.
func UnmarshalLeg(record []string) (model.Leg, error) {
	if len(record) != numFields {
		return model.Leg{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	date, err := time.Parse(dateFormat, record[colDate])
	if err != nil {
		return model.Leg{}, fmt.Errorf("parsing date %q: %w", record[colDate], err)
	}

	accountID, err := strconv.Atoi(record[colAcctID])
	if err != nil {
		return model.Leg{}, fmt.Errorf("parsing account_id %q: %w", record[colAcctID], err)
	}

	debit, err := optionalDecimal("debit", record[colDebit])
	if err != nil {
		return model.Leg{}, err
	}
	credit, err := optionalDecimal("credit", record[colCredit])
	if err != nil {
		return model.Leg{}, err
	}

	var foreign decimal.NullDecimal
	if record[colForeignAmt] != "" {
		d, err := decimal.NewFromString(record[colForeignAmt])
		if err != nil {
			return model.Leg{}, fmt.Errorf("parsing foreign_amount %q: %w", record[colForeignAmt], err)
		}
		foreign = decimal.NewNullDecimal(d)
	}

	return model.Leg{
		EntryID:         record[colEntryID],
		Date:            date,
		Kind:            model.TransactionKind(record[colKind]),
		AccountID:       accountID,
		Description:     record[colDesc],
		Debit:           debit,
		Credit:          credit,
		Currency:        record[colCurrency],
		ForeignAmount:   foreign,
		ForeignCurrency: record[colForeignCur],
		Counterparty:    record[colCparty],
		ExternalID:      record[colExternalID],
		Reference:       record[colRef],
		Tags:            model.SplitTags(record[colTags]),
		Notes:           record[colNotes],
	}, nil
}

func optionalDecimal(field, s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing %s %q: %w", field, s, err)
	}
	return d, nil
}
