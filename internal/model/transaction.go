package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionKind is the direction of a canonical transaction. Amounts are
// always positive; the kind carries the sign.
type TransactionKind string

const (
	KindWithdrawal TransactionKind = "withdrawal"
	KindDeposit    TransactionKind = "deposit"
	KindTransfer   TransactionKind = "transfer"
)

// SideTypes returns the account types of the source and destination sides.
func (k TransactionKind) SideTypes() (source, destination AccountType) {
	switch k {
	case KindWithdrawal:
		return AccountTypeAsset, AccountTypeExpense
	case KindDeposit:
		return AccountTypeRevenue, AccountTypeAsset
	default:
		return AccountTypeAsset, AccountTypeAsset
	}
}

// AccountRef identifies one side of a transaction: either a known account id
// or a counterparty name that the ledger resolves or auto-creates.
type AccountRef struct {
	ID   int
	Name string
}

// Known returns a reference to an existing account.
func Known(id int) AccountRef { return AccountRef{ID: id} }

// Named returns a reference resolved by name.
func Named(name string) AccountRef { return AccountRef{Name: name} }

// IsKnown reports whether the side points at an existing account id.
func (r AccountRef) IsKnown() bool { return r.ID != 0 }

func (r AccountRef) String() string {
	if r.ID != 0 {
		return fmt.Sprintf("#%d", r.ID)
	}
	return r.Name
}

func (r AccountRef) valid() bool {
	return (r.ID != 0) != (strings.TrimSpace(r.Name) != "")
}

// Transaction is the canonical, format-independent record every adapter produces.
type Transaction struct {
	Kind                TransactionKind
	Date                time.Time // start of day in the source institution's zone
	Amount              decimal.Decimal
	CurrencyCode        string
	ForeignAmount       decimal.NullDecimal
	ForeignCurrencyCode string
	Description         string
	Source              AccountRef
	Destination         AccountRef
	Tags                []string
	Notes               string
	ExternalID          string
	InternalReference   string
}

// HasTag reports whether tag is attached.
func (t Transaction) HasTag(tag string) bool {
	for _, x := range t.Tags {
		if x == tag {
			return true
		}
	}
	return false
}

// Validate checks the canonical record invariants.
func (t Transaction) Validate() error {
	var errs []error
	switch t.Kind {
	case KindWithdrawal, KindDeposit, KindTransfer:
	default:
		errs = append(errs, fmt.Errorf("unknown kind %q", t.Kind))
	}
	if t.Date.IsZero() {
		errs = append(errs, errors.New("missing date"))
	}
	if !t.Amount.IsPositive() {
		errs = append(errs, fmt.Errorf("amount %s must be positive", t.Amount))
	}
	if t.CurrencyCode == "" {
		errs = append(errs, errors.New("missing currency code"))
	}
	if t.ForeignAmount.Valid != (t.ForeignCurrencyCode != "") {
		errs = append(errs, errors.New("foreign amount and foreign currency must be set together"))
	}
	if !t.Source.valid() {
		errs = append(errs, errors.New("source must have exactly one of id or name"))
	}
	if !t.Destination.valid() {
		errs = append(errs, errors.New("destination must have exactly one of id or name"))
	}
	if t.Kind == KindTransfer && (!t.Source.IsKnown() || !t.Destination.IsKnown()) {
		errs = append(errs, errors.New("transfer requires known accounts on both sides"))
	}
	if strings.TrimSpace(t.Description) == "" {
		errs = append(errs, errors.New("missing description"))
	}
	return errors.Join(errs...)
}
