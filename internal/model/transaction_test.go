package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func validWithdrawal() Transaction {
	return Transaction{
		Kind:         KindWithdrawal,
		Date:         time.Date(2025, 9, 22, 0, 0, 0, 0, time.UTC),
		Amount:       decimal.RequireFromString("45.00"),
		CurrencyCode: "AED",
		Description:  "Talabat Postpaid",
		Source:       Known(1),
		Destination:  Named("Talabat Postpaid"),
	}
}

func TestValidate_OK(t *testing.T) {
	assert.NoError(t, validWithdrawal().Validate())
}

func TestValidate_Violations(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Transaction)
		want   string
	}{
		{"negative amount", func(tx *Transaction) { tx.Amount = decimal.NewFromInt(-3) }, "must be positive"},
		{"zero amount", func(tx *Transaction) { tx.Amount = decimal.Zero }, "must be positive"},
		{"both id and name", func(tx *Transaction) { tx.Source = AccountRef{ID: 1, Name: "x"} }, "source must have exactly one"},
		{"empty destination", func(tx *Transaction) { tx.Destination = AccountRef{} }, "destination must have exactly one"},
		{"transfer to name", func(tx *Transaction) { tx.Kind = KindTransfer }, "transfer requires known accounts"},
		{"foreign half set", func(tx *Transaction) { tx.ForeignCurrencyCode = "USD" }, "set together"},
		{"bad kind", func(tx *Transaction) { tx.Kind = "refund" }, "unknown kind"},
		{"no currency", func(tx *Transaction) { tx.CurrencyCode = "" }, "missing currency"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := validWithdrawal()
			tt.mutate(&tx)
			err := tx.Validate()
			if assert.Error(t, err) {
				assert.Contains(t, err.Error(), tt.want)
			}
		})
	}
}

func TestParseAccountType(t *testing.T) {
	typ, ok := ParseAccountType(" Expense ")
	assert.True(t, ok)
	assert.Equal(t, AccountTypeExpense, typ)

	_, ok = ParseAccountType("cash")
	assert.False(t, ok)
}

func TestAccountRefString(t *testing.T) {
	assert.Equal(t, "#7", Known(7).String())
	assert.Equal(t, "Cash", Named("Cash").String())
}

func TestSideTypes(t *testing.T) {
	src, dst := KindWithdrawal.SideTypes()
	assert.Equal(t, AccountTypeAsset, src)
	assert.Equal(t, AccountTypeExpense, dst)

	src, dst = KindDeposit.SideTypes()
	assert.Equal(t, AccountTypeRevenue, src)
	assert.Equal(t, AccountTypeAsset, dst)

	src, dst = KindTransfer.SideTypes()
	assert.Equal(t, AccountTypeAsset, src)
	assert.Equal(t, AccountTypeAsset, dst)
}
