package model

import "strings"

// AccountType classifies accounts in the chart of accounts.
type AccountType string

const (
	AccountTypeAsset     AccountType = "asset"
	AccountTypeLiability AccountType = "liability"
	AccountTypeEquity    AccountType = "equity"
	AccountTypeRevenue   AccountType = "revenue"
	AccountTypeExpense   AccountType = "expense"
)

// ParseAccountType accepts the lowercase type names used in the chart CSV and on the command line.
func ParseAccountType(s string) (AccountType, bool) {
	switch t := AccountType(strings.ToLower(strings.TrimSpace(s))); t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeRevenue, AccountTypeExpense:
		return t, true
	default:
		return "", false
	}
}

// IDBase returns the first account id of the type's numbering block.
// Auto-created accounts are numbered upward from here.
func (t AccountType) IDBase() int {
	switch t {
	case AccountTypeAsset:
		return 1000
	case AccountTypeLiability:
		return 2000
	case AccountTypeEquity:
		return 3000
	case AccountTypeRevenue:
		return 4000
	case AccountTypeExpense:
		return 5000
	default:
		return 9000
	}
}

// Account represents a row in chart-of-accounts.csv.
type Account struct {
	ID          int
	Name        string
	Type        AccountType
	ParentID    int // 0 = top-level
	Currency    string
	Description string
}
