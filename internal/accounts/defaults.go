package accounts

import "github.com/ledgerfeed/ledgerfeed/internal/model"

// DefaultChart returns the starter chart of accounts for a new ledger repo.
func DefaultChart(currency string) []model.Account {
	return []model.Account{
		{ID: 1001, Name: "Current Account", Type: model.AccountTypeAsset, Currency: currency, Description: "Primary bank account"},
		{ID: 1002, Name: "Savings Account", Type: model.AccountTypeAsset, Currency: currency},
		{ID: 1003, Name: "Credit Card", Type: model.AccountTypeAsset, Currency: currency, Description: "Card account, imported from card statements"},
		{ID: 3001, Name: "Opening Balances", Type: model.AccountTypeEquity, Currency: currency},
		{ID: 4001, Name: "Salary", Type: model.AccountTypeRevenue, Currency: currency},
		{ID: 4002, Name: "Bank Interest", Type: model.AccountTypeRevenue, Currency: currency},
		{ID: 5001, Name: "Groceries", Type: model.AccountTypeExpense, Currency: currency},
		{ID: 5002, Name: "Bank Fees", Type: model.AccountTypeExpense, Currency: currency},
		{ID: 5003, Name: "Card Fees", Type: model.AccountTypeExpense, Currency: currency},
		{ID: 5004, Name: "Utilities", Type: model.AccountTypeExpense, Currency: currency},
		{ID: 5005, Name: "Cash", Type: model.AccountTypeExpense, Currency: currency, Description: "ATM withdrawals land here"},
	}
}
