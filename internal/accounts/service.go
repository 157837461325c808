package accounts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ledgerfeed/ledgerfeed/internal/model"
)

// ChartPath is the chart of accounts location relative to a repo root.
var ChartPath = filepath.Join("accounts", "chart-of-accounts.csv")

// Directory lists existing accounts by type. It is read once per import run.
type Directory interface {
	ListAccounts(ctx context.Context, accountType model.AccountType) ([]model.Account, error)
}

// Service provides in-memory lookup over the chart of accounts.
type Service struct {
	mu       sync.RWMutex
	accounts []model.Account
	byID     map[int]model.Account
}

// NewService creates a Service from a slice of accounts.
func NewService(accounts []model.Account) *Service {
	byID := make(map[int]model.Account, len(accounts))
	for _, a := range accounts {
		byID[a.ID] = a
	}
	return &Service{accounts: accounts, byID: byID}
}

// Load reads chart-of-accounts.csv from a repo root and returns a Service.
func Load(repoRoot string) (*Service, error) {
	f, err := os.Open(filepath.Join(repoRoot, ChartPath))
	if err != nil {
		return nil, fmt.Errorf("opening chart of accounts: %w", err)
	}
	defer f.Close()

	accts, err := ReadAccounts(f)
	if err != nil {
		return nil, fmt.Errorf("reading chart of accounts: %w", err)
	}
	return NewService(accts), nil
}

// All returns all accounts.
func (s *Service) All() []model.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Account(nil), s.accounts...)
}

// Get returns an account by ID.
func (s *Service) Get(id int) (model.Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.byID[id]
	return a, ok
}

// Exists reports whether an account ID exists.
func (s *Service) Exists(id int) bool {
	_, ok := s.Get(id)
	return ok
}

// ByType returns all accounts of the given type.
func (s *Service) ByType(accountType model.AccountType) []model.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []model.Account
	for _, a := range s.accounts {
		if a.Type == accountType {
			result = append(result, a)
		}
	}
	return result
}

// ListAccounts implements Directory.
func (s *Service) ListAccounts(_ context.Context, accountType model.AccountType) ([]model.Account, error) {
	return s.ByType(accountType), nil
}

// FindByName returns the account of the given type whose name equals name, ignoring case.
func (s *Service) FindByName(accountType model.AccountType, name string) (model.Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.accounts {
		if a.Type == accountType && strings.EqualFold(a.Name, name) {
			return a, true
		}
	}
	return model.Account{}, false
}

// Ensure returns the account named name, adding it to the chart when missing.
// The boolean reports whether the account was created.
func (s *Service) Ensure(accountType model.AccountType, name, currency string) (model.Account, bool) {
	if a, ok := s.FindByName(accountType, name); ok {
		return a, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := accountType.IDBase() + 1
	for _, a := range s.accounts {
		if a.Type == accountType && a.ID >= next {
			next = a.ID + 1
		}
	}
	acct := model.Account{ID: next, Name: name, Type: accountType, Currency: currency, Description: "auto-created by import"}
	s.accounts = append(s.accounts, acct)
	s.byID[acct.ID] = acct
	return acct, true
}

// Remove drops an account from the in-memory chart. It is used to roll back
// accounts created for a write that was then rejected.
func (s *Service) Remove(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[id]; !ok {
		return
	}
	delete(s.byID, id)
	kept := s.accounts[:0]
	for _, a := range s.accounts {
		if a.ID != id {
			kept = append(kept, a)
		}
	}
	s.accounts = kept
}

// Save writes the chart of accounts to accounts/chart-of-accounts.csv.
func (s *Service) Save(repoRoot string) error {
	dir := filepath.Join(repoRoot, filepath.Dir(ChartPath))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating accounts dir: %w", err)
	}

	f, err := os.Create(filepath.Join(repoRoot, ChartPath))
	if err != nil {
		return fmt.Errorf("creating chart of accounts file: %w", err)
	}
	defer f.Close()

	if err := WriteAccounts(f, s.All()); err != nil {
		return fmt.Errorf("writing chart of accounts: %w", err)
	}
	return nil
}
