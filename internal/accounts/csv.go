package accounts

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ledgerfeed/ledgerfeed/internal/model"
)

// Header is the CSV header for chart-of-accounts.csv.
var Header = []string{"account_id", "account_name", "account_type", "parent_id", "currency", "description"}

const (
	numFields   = 6
	colID       = 0
	colName     = 1
	colType     = 2
	colParent   = 3
	colCurrency = 4
	colDesc     = 5
)

// ReadAccounts reads chart-of-accounts.csv.
func ReadAccounts(r io.Reader) ([]model.Account, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading accounts CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	// Ensure and the matchers assume ids are unique and names unique per type.
	ids := make(map[int]int)
	names := make(map[string]int)
	accounts := make([]model.Account, 0, len(records)-1)
	for i, rec := range records[1:] {
		row := i + 2
		acct, err := UnmarshalAccount(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		if prev, dup := ids[acct.ID]; dup {
			return nil, fmt.Errorf("row %d: account_id %d already used on row %d", row, acct.ID, prev)
		}
		key := string(acct.Type) + "/" + strings.ToLower(strings.TrimSpace(acct.Name))
		if prev, dup := names[key]; dup {
			return nil, fmt.Errorf("row %d: %s account %q already defined on row %d", row, acct.Type, acct.Name, prev)
		}
		ids[acct.ID], names[key] = row, row
		accounts = append(accounts, acct)
	}
	return accounts, nil
}

// WriteAccounts writes chart-of-accounts.csv.
func WriteAccounts(w io.Writer, accounts []model.Account) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, acct := range accounts {
		if err := cw.Write(MarshalAccount(acct)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalAccount converts an Account to a CSV row.
func MarshalAccount(acct model.Account) []string {
	row := make([]string, numFields)
	row[colID] = strconv.Itoa(acct.ID)
	row[colName] = acct.Name
	row[colType] = string(acct.Type)
	if acct.ParentID != 0 {
		row[colParent] = strconv.Itoa(acct.ParentID)
	}
	row[colCurrency] = acct.Currency
	row[colDesc] = acct.Description
	return row
}

// UnmarshalAccount converts a CSV row to an Account.
func UnmarshalAccount(record []string) (model.Account, error) {
	if len(record) != numFields {
		return model.Account{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}
	if strings.TrimSpace(record[colName]) == "" {
		return model.Account{}, fmt.Errorf("account %s has no name", record[colID])
	}

	id, err := strconv.Atoi(record[colID])
	if err != nil {
		return model.Account{}, fmt.Errorf("parsing account_id %q: %w", record[colID], err)
	}

	typ, ok := model.ParseAccountType(record[colType])
	if !ok {
		return model.Account{}, fmt.Errorf("unknown account_type %q", record[colType])
	}

	var parentID int
	if record[colParent] != "" {
		parentID, err = strconv.Atoi(record[colParent])
		if err != nil {
			return model.Account{}, fmt.Errorf("parsing parent_id %q: %w", record[colParent], err)
		}
	}

	return model.Account{
		ID:          id,
		Name:        record[colName],
		Type:        typ,
		ParentID:    parentID,
		Currency:    record[colCurrency],
		Description: record[colDesc],
	}, nil
}
