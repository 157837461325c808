// Package journal stores ledger transactions as balanced double-entry legs in
// per-month CSV files under the repo root.
package journal

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/ledgerfeed/ledgerfeed/internal/accounts"
	"github.com/ledgerfeed/ledgerfeed/internal/ledger"
	"github.com/ledgerfeed/ledgerfeed/internal/model"
)

// Ledger writes canonical transactions to <repo>/YYYY/MM/journal.csv.
// Counterparty names are resolved against the chart of accounts, and
// missing accounts are created and saved with the write.
type Ledger struct {
	mu       sync.Mutex
	repoRoot string
	accounts *accounts.Service
}

var (
	_ ledger.Sink    = (*Ledger)(nil)
	_ ledger.History = (*Ledger)(nil)
)

// NewLedger creates a Ledger over repoRoot using accts as its chart.
func NewLedger(repoRoot string, accts *accounts.Service) *Ledger {
	return &Ledger{repoRoot: repoRoot, accounts: accts}
}

// Create validates tx and appends it as one balanced entry. The destination
// side is debited and the source side credited. With failIfDuplicate, an
// external id already present in the month returns a *ledger.DuplicateError;
// without it the existing entry id is returned.
func (l *Ledger) Create(_ context.Context, tx model.Transaction, failIfDuplicate bool) (string, error) {
	if err := tx.Validate(); err != nil {
		return "", fmt.Errorf("invalid transaction: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	year, month := tx.Date.Year(), int(tx.Date.Month())
	existing, err := l.ReadMonth(year, month)
	if err != nil {
		return "", err
	}

	if tx.ExternalID != "" {
		for _, leg := range existing {
			if leg.ExternalID != tx.ExternalID {
				continue
			}
			if failIfDuplicate {
				return "", &ledger.DuplicateError{ExternalID: tx.ExternalID, ExistingID: leg.EntryGroup()}
			}
			return leg.EntryGroup(), nil
		}
	}

	srcType, dstType := tx.Kind.SideTypes()
	var created []int
	source, err := l.resolve(tx.Source, srcType, tx.CurrencyCode, &created)
	if err != nil {
		return "", fmt.Errorf("resolving source: %w", err)
	}
	dest, err := l.resolve(tx.Destination, dstType, tx.CurrencyCode, &created)
	if err != nil {
		l.rollback(created)
		return "", fmt.Errorf("resolving destination: %w", err)
	}

	entryID := FormatEntryID(year, month, nextSeq(existing))
	newLegs := []model.Leg{
		l.leg(tx, FormatLegID(entryID, 0), dest, source),
		l.leg(tx, FormatLegID(entryID, 1), source, dest),
	}
	newLegs[0].Debit = tx.Amount
	newLegs[1].Credit = tx.Amount

	if verrs := ValidateLegs(append(existing, newLegs...), l.accounts, year, month); len(verrs) > 0 {
		l.rollback(created)
		msgs := make([]string, len(verrs))
		for i, ve := range verrs {
			msgs[i] = ve.Error()
		}
		return "", fmt.Errorf("validation failed: %s", strings.Join(msgs, "; "))
	}

	if err := l.appendMonth(year, month, newLegs); err != nil {
		l.rollback(created)
		return "", err
	}
	if len(created) > 0 {
		if err := l.accounts.Save(l.repoRoot); err != nil {
			return "", fmt.Errorf("saving auto-created accounts: %w", err)
		}
	}
	return entryID, nil
}

func (l *Ledger) resolve(ref model.AccountRef, t model.AccountType, currency string, created *[]int) (model.Account, error) {
	if ref.IsKnown() {
		acct, ok := l.accounts.Get(ref.ID)
		if !ok {
			return model.Account{}, fmt.Errorf("unknown account %d", ref.ID)
		}
		return acct, nil
	}
	acct, isNew := l.accounts.Ensure(t, strings.TrimSpace(ref.Name), currency)
	if isNew {
		*created = append(*created, acct.ID)
	}
	return acct, nil
}

func (l *Ledger) rollback(created []int) {
	for _, id := range created {
		l.accounts.Remove(id)
	}
}

// leg builds one side of tx posted to acct, naming the other side.
func (l *Ledger) leg(tx model.Transaction, legID string, acct, other model.Account) model.Leg {
	return model.Leg{
		EntryID:         legID,
		Date:            tx.Date,
		Kind:            tx.Kind,
		AccountID:       acct.ID,
		Description:     tx.Description,
		Currency:        tx.CurrencyCode,
		ForeignAmount:   tx.ForeignAmount,
		ForeignCurrency: tx.ForeignCurrencyCode,
		Counterparty:    other.Name,
		ExternalID:      tx.ExternalID,
		Reference:       tx.InternalReference,
		Tags:            tx.Tags,
		Notes:           tx.Notes,
	}
}

func (l *Ledger) appendMonth(year, month int, legs []model.Leg) error {
	journalPath := l.monthPath(year, month)
	if err := os.MkdirAll(filepath.Dir(journalPath), 0o755); err != nil {
		return fmt.Errorf("creating journal dir: %w", err)
	}

	isNew := false
	if _, err := os.Stat(journalPath); errors.Is(err, fs.ErrNotExist) {
		isNew = true
	}

	f, err := os.OpenFile(journalPath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening journal: %w", err)
	}
	defer f.Close()

	if isNew {
		if _, err := fmt.Fprintln(f, Header); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	if err := AppendLegs(f, legs); err != nil {
		return fmt.Errorf("appending legs: %w", err)
	}
	return nil
}

// ReadMonth reads all legs for a given year/month.
func (l *Ledger) ReadMonth(year, month int) ([]model.Leg, error) {
	path := l.monthPath(year, month)
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening journal %s: %w", path, err)
	}
	defer f.Close()

	legs, err := ReadLegs(f)
	if err != nil {
		return nil, fmt.Errorf("reading journal %s: %w", path, err)
	}
	return legs, nil
}

// Months lists the journal files present as "YYYY/MM", oldest first.
func (l *Ledger) Months() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(l.repoRoot, "[0-9][0-9][0-9][0-9]", "[0-9][0-9]", "journal.csv"))
	if err != nil {
		return nil, fmt.Errorf("listing journals: %w", err)
	}
	months := make([]string, 0, len(matches))
	for _, m := range matches {
		rel, err := filepath.Rel(l.repoRoot, filepath.Dir(m))
		if err != nil {
			return nil, fmt.Errorf("listing journals: %w", err)
		}
		months = append(months, filepath.ToSlash(rel))
	}
	sort.Strings(months)
	return months, nil
}

// Transactions rebuilds canonical transactions from every journal month.
// Counterparty sides come back by account name, own accounts by id.
func (l *Ledger) Transactions(_ context.Context) ([]model.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	months, err := l.Months()
	if err != nil {
		return nil, err
	}

	var out []model.Transaction
	for _, m := range months {
		var year, month int
		if _, err := fmt.Sscanf(m, "%d/%d", &year, &month); err != nil {
			return nil, fmt.Errorf("parsing journal month %q: %w", m, err)
		}
		legs, err := l.ReadMonth(year, month)
		if err != nil {
			return nil, err
		}
		out = append(out, l.entries(legs)...)
	}
	return out, nil
}

func (l *Ledger) entries(legs []model.Leg) []model.Transaction {
	type pair struct{ debit, credit *model.Leg }
	byGroup := make(map[string]*pair)
	var order []string
	for i := range legs {
		leg := &legs[i]
		g := leg.EntryGroup()
		p, ok := byGroup[g]
		if !ok {
			p = &pair{}
			byGroup[g] = p
			order = append(order, g)
		}
		if !leg.Debit.IsZero() {
			p.debit = leg
		} else {
			p.credit = leg
		}
	}

	var out []model.Transaction
	for _, g := range order {
		p := byGroup[g]
		if p.debit == nil || p.credit == nil {
			continue
		}
		d := p.debit
		tx := model.Transaction{
			Kind:                d.Kind,
			Date:                d.Date,
			Amount:              d.Debit,
			CurrencyCode:        d.Currency,
			ForeignAmount:       d.ForeignAmount,
			ForeignCurrencyCode: d.ForeignCurrency,
			Description:         d.Description,
			Source:              l.ref(p.credit.AccountID),
			Destination:         l.ref(d.AccountID),
			Tags:                d.Tags,
			Notes:               d.Notes,
			ExternalID:          d.ExternalID,
			InternalReference:   d.Reference,
		}
		out = append(out, tx)
	}
	return out
}

// ref returns asset accounts by id and every other account by name.
func (l *Ledger) ref(id int) model.AccountRef {
	acct, ok := l.accounts.Get(id)
	if !ok || acct.Type == model.AccountTypeAsset {
		return model.Known(id)
	}
	return model.Named(acct.Name)
}

func nextSeq(legs []model.Leg) int {
	maxSeq := 0
	for _, leg := range legs {
		_, _, seq, err := ParseEntryID(leg.EntryID)
		if err != nil {
			continue
		}
		if seq > maxSeq {
			maxSeq = seq
		}
	}
	return maxSeq + 1
}

func (l *Ledger) monthPath(year, month int) string {
	return filepath.Join(l.repoRoot, fmt.Sprintf("%04d", year), fmt.Sprintf("%02d", month), "journal.csv")
}
