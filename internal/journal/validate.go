package journal

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ledgerfeed/ledgerfeed/internal/model"
)

// ValidationError describes a single invariant violation.
type ValidationError struct {
	Invariant   int
	EntryID     string
	Description string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invariant %d [%s]: %s", e.Invariant, e.EntryID, e.Description)
}

// AccountChecker tests whether an account ID exists in the chart of accounts.
type AccountChecker interface {
	Exists(id int) bool
}

// ValidateLegs checks a month of journal legs:
//  1. every entry balances
//  2. every leg has exactly one of debit or credit
//  3. every account exists
//  4. every date lies in the month
//  5. entry sequence numbers run 1..N
//  6. amounts have at most two decimal places
//  7. an external id belongs to exactly one entry
func ValidateLegs(legs []model.Leg, accounts AccountChecker, year, month int) []ValidationError {
	var errs []ValidationError

	groups := make(map[string][]model.Leg)
	var groupOrder []string
	for _, leg := range legs {
		g := leg.EntryGroup()
		if _, seen := groups[g]; !seen {
			groupOrder = append(groupOrder, g)
		}
		groups[g] = append(groups[g], leg)
	}

	owner := make(map[string]string)
	for _, g := range groupOrder {
		totalDebit, totalCredit := decimal.Zero, decimal.Zero
		for _, leg := range groups[g] {
			totalDebit = totalDebit.Add(leg.Debit)
			totalCredit = totalCredit.Add(leg.Credit)

			if leg.ExternalID == "" {
				continue
			}
			if prev, ok := owner[leg.ExternalID]; ok && prev != g {
				errs = append(errs, ValidationError{
					Invariant:   7,
					EntryID:     g,
					Description: fmt.Sprintf("external id %s already used by %s", leg.ExternalID, prev),
				})
				continue
			}
			owner[leg.ExternalID] = g
		}
		if !totalDebit.Equal(totalCredit) {
			errs = append(errs, ValidationError{
				Invariant:   1,
				EntryID:     g,
				Description: fmt.Sprintf("debits (%s) != credits (%s)", totalDebit.StringFixed(2), totalCredit.StringFixed(2)),
			})
		}
	}

	cents := decimal.NewFromInt(100)
	for _, leg := range legs {
		if leg.Debit.IsZero() == leg.Credit.IsZero() {
			errs = append(errs, ValidationError{
				Invariant:   2,
				EntryID:     leg.EntryID,
				Description: "leg must have exactly one of debit or credit",
			})
		}

		if !accounts.Exists(leg.AccountID) {
			errs = append(errs, ValidationError{
				Invariant:   3,
				EntryID:     leg.EntryID,
				Description: fmt.Sprintf("unknown account %d", leg.AccountID),
			})
		}

		if leg.Date.Year() != year || int(leg.Date.Month()) != month {
			errs = append(errs, ValidationError{
				Invariant:   4,
				EntryID:     leg.EntryID,
				Description: fmt.Sprintf("date %s not in %04d-%02d", leg.Date.Format(dateFormat), year, month),
			})
		}

		for _, amt := range []struct {
			side  string
			value decimal.Decimal
		}{{"debit", leg.Debit}, {"credit", leg.Credit}} {
			scaled := amt.value.Mul(cents)
			if !amt.value.IsZero() && !scaled.Equal(scaled.Floor()) {
				errs = append(errs, ValidationError{
					Invariant:   6,
					EntryID:     leg.EntryID,
					Description: fmt.Sprintf("%s %s has more than 2 decimal places", amt.side, amt.value),
				})
			}
		}
	}

	seqSeen := make(map[int]bool)
	for _, leg := range legs {
		_, _, seq, err := ParseEntryID(leg.EntryID)
		if err != nil {
			errs = append(errs, ValidationError{
				Invariant:   5,
				EntryID:     leg.EntryID,
				Description: fmt.Sprintf("invalid entry ID: %v", err),
			})
			continue
		}
		seqSeen[seq] = true
	}
	for i := 1; i <= len(seqSeen); i++ {
		if !seqSeen[i] {
			errs = append(errs, ValidationError{
				Invariant:   5,
				EntryID:     fmt.Sprintf("seq %d", i),
				Description: fmt.Sprintf("missing sequence %d in 1..%d", i, len(seqSeen)),
			})
		}
	}

	return errs
}
