package importer

import (
	"strings"
	"time"

	"github.com/ledgerfeed/ledgerfeed/internal/accounts"
	"github.com/ledgerfeed/ledgerfeed/internal/model"
	"github.com/ledgerfeed/ledgerfeed/internal/normalize"
)

// RunContext carries everything a mapping function may consult. It is built
// once per run, before any write, and never refreshed.
type RunContext struct {
	Source   model.Account // asset account the statement belongs to
	Accounts *accounts.Snapshot
	Names    *normalize.Normalizer
	Cards    map[string]string // last four card digits -> asset account name
	Currency string            // ledger currency
	Location *time.Location
	Language string // preferred extended narration language
}

func (rc *RunContext) currency() string {
	if rc.Source.Currency != "" {
		return strings.ToUpper(rc.Source.Currency)
	}
	return strings.ToUpper(rc.Currency)
}

func (rc *RunContext) location() *time.Location {
	if rc.Location == nil {
		return time.UTC
	}
	return rc.Location
}

// own is the reference to the statement's account.
func (rc *RunContext) own() model.AccountRef { return model.Known(rc.Source.ID) }

// merchant normalizes raw and resolves it against expense accounts.
func (rc *RunContext) merchant(raw string) (description, account string) {
	description = rc.Names.NormalizeOr(raw, normalize.UnknownMerchant)
	return description, rc.Accounts.MatchExpense(description)
}

// payer normalizes raw and resolves it against revenue accounts.
func (rc *RunContext) payer(raw string) (description, account string) {
	description = rc.Names.NormalizeOr(raw, normalize.UnknownPayer)
	return description, rc.Accounts.MatchRevenue(description)
}

// card resolves the last four digits of a card number to an asset account.
func (rc *RunContext) card(lastFour string) (model.Account, bool) {
	name, ok := rc.Cards[lastFour]
	if !ok {
		return model.Account{}, false
	}
	return rc.Accounts.AssetByName(name)
}
