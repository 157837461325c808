package accounts

import (
	"context"
	"fmt"
	"strings"

	"github.com/dgraph-io/ristretto"

	"github.com/ledgerfeed/ledgerfeed/internal/model"
)

// Snapshot is the account directory as seen at the start of one import run.
// Accounts created by the run's own writes are not visible to it.
type Snapshot struct {
	expense []string
	revenue []string
	assets  []model.Account
	memo    *ristretto.Cache
}

// NewSnapshot loads expense, revenue and asset accounts once from dir.
func NewSnapshot(ctx context.Context, dir Directory) (*Snapshot, error) {
	s := &Snapshot{}

	expense, err := dir.ListAccounts(ctx, model.AccountTypeExpense)
	if err != nil {
		return nil, fmt.Errorf("listing expense accounts: %w", err)
	}
	revenue, err := dir.ListAccounts(ctx, model.AccountTypeRevenue)
	if err != nil {
		return nil, fmt.Errorf("listing revenue accounts: %w", err)
	}
	s.assets, err = dir.ListAccounts(ctx, model.AccountTypeAsset)
	if err != nil {
		return nil, fmt.Errorf("listing asset accounts: %w", err)
	}
	s.expense = names(expense)
	s.revenue = names(revenue)

	s.memo, err = ristretto.NewCache(&ristretto.Config{
		NumCounters: 10000,
		MaxCost:     1000,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("creating match cache: %w", err)
	}
	return s, nil
}

// NewStaticSnapshot builds a Snapshot from fixed lists, without a match cache.
func NewStaticSnapshot(expense, revenue []string, assets []model.Account) *Snapshot {
	return &Snapshot{expense: expense, revenue: revenue, assets: assets}
}

// Close releases the match cache.
func (s *Snapshot) Close() {
	if s.memo != nil {
		s.memo.Close()
	}
}

// ExpenseNames returns the cached expense account names.
func (s *Snapshot) ExpenseNames() []string { return s.expense }

// RevenueNames returns the cached revenue account names.
func (s *Snapshot) RevenueNames() []string { return s.revenue }

// MatchExpense resolves a merchant name against expense accounts.
func (s *Snapshot) MatchExpense(name string) string {
	return s.match("e:", name, s.expense, false)
}

// MatchRevenue resolves a payer name against revenue accounts, allowing the
// candidate to contain the account name.
func (s *Snapshot) MatchRevenue(name string) string {
	return s.match("r:", name, s.revenue, true)
}

func (s *Snapshot) match(prefix, name string, directory []string, reverse bool) string {
	if s.memo == nil {
		return Match(name, directory, reverse)
	}
	key := prefix + name
	if v, ok := s.memo.Get(key); ok {
		if hit, ok := v.(string); ok {
			return hit
		}
	}
	hit := Match(name, directory, reverse)
	s.memo.Set(key, hit, 1)
	return hit
}

// Asset returns the asset account with the given id.
func (s *Snapshot) Asset(id int) (model.Account, bool) {
	for _, a := range s.assets {
		if a.ID == id {
			return a, true
		}
	}
	return model.Account{}, false
}

// AssetByName returns the asset account named name, ignoring case.
func (s *Snapshot) AssetByName(name string) (model.Account, bool) {
	for _, a := range s.assets {
		if strings.EqualFold(a.Name, name) {
			return a, true
		}
	}
	return model.Account{}, false
}

func names(accts []model.Account) []string {
	out := make([]string, 0, len(accts))
	for _, a := range accts {
		out = append(out, a.Name)
	}
	return out
}
