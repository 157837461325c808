package commands

import (
	"context"
	"fmt"

	"github.com/ledgerfeed/ledgerfeed/internal/accounts"
	"github.com/ledgerfeed/ledgerfeed/internal/config"
	"github.com/ledgerfeed/ledgerfeed/internal/journal"
	"github.com/ledgerfeed/ledgerfeed/internal/ledger"
	"github.com/ledgerfeed/ledgerfeed/internal/pgstore"
)

// backend is the configured ledger store seen through its three roles.
type backend struct {
	sink      ledger.Sink
	history   ledger.History
	directory accounts.Directory
	close     func()
}

func openBackend(ctx context.Context, root string, cfg *config.Config) (*backend, error) {
	if cfg.Ledger.Backend == config.BackendPostgres {
		loc, err := cfg.Location()
		if err != nil {
			return nil, err
		}
		pool, err := pgstore.Connect(ctx, cfg.Ledger.DatabaseURL)
		if err != nil {
			return nil, err
		}
		store := pgstore.New(pool, loc)
		if err := store.Migrate(ctx); err != nil {
			store.Close()
			return nil, err
		}
		return &backend{sink: store, history: store, directory: store, close: store.Close}, nil
	}

	svc, err := accounts.Load(root)
	if err != nil {
		return nil, fmt.Errorf("loading accounts: %w", err)
	}
	l := journal.NewLedger(root, svc)
	return &backend{sink: l, history: l, directory: svc, close: func() {}}, nil
}
