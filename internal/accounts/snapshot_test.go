package accounts

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerfeed/ledgerfeed/internal/model"
)

type failingDirectory struct{}

func (failingDirectory) ListAccounts(context.Context, model.AccountType) ([]model.Account, error) {
	return nil, errors.New("directory offline")
}

func TestNewSnapshot(t *testing.T) {
	svc := NewService(DefaultChart("AED"))
	snap, err := NewSnapshot(context.Background(), svc)
	require.NoError(t, err)
	defer snap.Close()

	assert.Contains(t, snap.ExpenseNames(), "Groceries")
	assert.Contains(t, snap.RevenueNames(), "Salary")

	acct, ok := snap.Asset(1001)
	require.True(t, ok)
	assert.Equal(t, "Current Account", acct.Name)
	_, ok = snap.Asset(5001)
	assert.False(t, ok, "expense accounts are not assets")

	card, ok := snap.AssetByName("CREDIT CARD")
	require.True(t, ok)
	assert.Equal(t, 1003, card.ID)
}

func TestSnapshot_FrozenAtLoad(t *testing.T) {
	svc := NewService(DefaultChart("AED"))
	snap, err := NewSnapshot(context.Background(), svc)
	require.NoError(t, err)
	defer snap.Close()

	svc.Ensure(model.AccountTypeExpense, "Talabat Postpaid", "AED")

	assert.NotContains(t, snap.ExpenseNames(), "Talabat Postpaid")
	assert.Equal(t, "Talabat", snap.MatchExpense("Talabat"))
}

func TestSnapshot_MatchRepeatable(t *testing.T) {
	svc := NewService(DefaultChart("AED"))
	snap, err := NewSnapshot(context.Background(), svc)
	require.NoError(t, err)
	defer snap.Close()

	for i := 0; i < 3; i++ {
		assert.Equal(t, "Groceries", snap.MatchExpense("groceries"))
		assert.Equal(t, "Salary", snap.MatchRevenue("SALARY TRANSFER"))
	}
}

func TestNewSnapshot_Error(t *testing.T) {
	_, err := NewSnapshot(context.Background(), failingDirectory{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "directory offline")
}

func TestStaticSnapshot(t *testing.T) {
	snap := NewStaticSnapshot([]string{"Netflix"}, []string{"Employer Inc"}, nil)
	assert.Equal(t, "Netflix", snap.MatchExpense("NETFLIX"))
	assert.Equal(t, "Employer Inc", snap.MatchRevenue("employer"))
	snap.Close()
}
