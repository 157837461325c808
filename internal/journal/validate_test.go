package journal

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ledgerfeed/ledgerfeed/internal/model"
)

// mockAccounts implements AccountChecker for testing.
type mockAccounts map[int]bool

func (m mockAccounts) Exists(id int) bool { return m[id] }

var defaultAccounts = mockAccounts{1001: true, 1003: true, 4001: true, 5001: true, 5006: true}

func entry(seq int, debitAcct, creditAcct int, amount, externalID string) []model.Leg {
	id := fmt.Sprintf("2025-09-%03d", seq)
	return []model.Leg{
		{EntryID: id + "a", Date: date(2025, 9, 15), AccountID: debitAcct, Debit: dec(amount), ExternalID: externalID},
		{EntryID: id + "b", Date: date(2025, 9, 15), AccountID: creditAcct, Credit: dec(amount), ExternalID: externalID},
	}
}

func invariants(errs []ValidationError) []int {
	var out []int
	for _, e := range errs {
		out = append(out, e.Invariant)
	}
	return out
}

func TestValidate_Clean(t *testing.T) {
	legs := append(entry(1, 5001, 1001, "100.00", "fp1"), entry(2, 1003, 1001, "2000.00", "fp2")...)
	assert.Empty(t, ValidateLegs(legs, defaultAccounts, 2025, 9))
}

func TestValidate_Violations(t *testing.T) {
	tests := []struct {
		name string
		legs func() []model.Leg
		want int
	}{
		{"unbalanced", func() []model.Leg {
			legs := entry(1, 5001, 1001, "100.00", "")
			legs[1].Credit = dec("99.00")
			return legs
		}, 1},
		{"both sides on one leg", func() []model.Leg {
			legs := entry(1, 5001, 1001, "100.00", "")
			legs[0].Credit = dec("100.00")
			legs[1].Debit = dec("100.00")
			return legs
		}, 2},
		{"unknown account", func() []model.Leg { return entry(1, 9999, 1001, "50.00", "") }, 3},
		{"wrong month", func() []model.Leg {
			legs := entry(1, 5001, 1001, "50.00", "")
			legs[0].Date = date(2025, 10, 1)
			legs[1].Date = date(2025, 10, 1)
			return legs
		}, 4},
		{"sequence gap", func() []model.Leg {
			return append(entry(1, 5001, 1001, "50.00", ""), entry(3, 5001, 1001, "75.00", "")...)
		}, 5},
		{"sub-cent amount", func() []model.Leg { return entry(1, 5001, 1001, "10.005", "") }, 6},
		{"reused external id", func() []model.Leg {
			return append(entry(1, 5001, 1001, "50.00", "fp1"), entry(2, 5006, 1001, "75.00", "fp1")...)
		}, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateLegs(tt.legs(), defaultAccounts, 2025, 9)
			assert.Contains(t, invariants(errs), tt.want)
		})
	}
}

func TestValidate_BadEntryID(t *testing.T) {
	legs := entry(1, 5001, 1001, "10.00", "")
	legs[0].EntryID = "garbage"
	errs := ValidateLegs(legs, defaultAccounts, 2025, 9)
	assert.Contains(t, invariants(errs), 5)
}

func TestValidationError_Message(t *testing.T) {
	e := ValidationError{Invariant: 3, EntryID: "2025-09-001a", Description: "unknown account 9999"}
	assert.Equal(t, "invariant 3 [2025-09-001a]: unknown account 9999", e.Error())
}
