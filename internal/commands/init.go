package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ledgerfeed/ledgerfeed/internal/accounts"
	"github.com/ledgerfeed/ledgerfeed/internal/config"
	"github.com/ledgerfeed/ledgerfeed/internal/gitops"
	"github.com/ledgerfeed/ledgerfeed/internal/model"
	"github.com/ledgerfeed/ledgerfeed/internal/pgstore"
)

type initOptions struct {
	currency string
	timezone string
	backend  string
	noGit    bool
}

func newInitCommand() *cobra.Command {
	var opts initOptions

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new ledger repository",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(cmd.Context(), cmd.OutOrStdout(), absDir, opts)
		},
	}

	cmd.Flags().StringVar(&opts.currency, "currency", "AED", "ledger currency")
	cmd.Flags().StringVar(&opts.timezone, "timezone", "Asia/Dubai", "time zone statement dates are read in")
	cmd.Flags().StringVar(&opts.backend, "backend", config.BackendJournal, "ledger backend (journal or postgres)")
	cmd.Flags().BoolVar(&opts.noGit, "no-git", false, "do not initialize a git repository")

	return cmd
}

func runInit(ctx context.Context, out io.Writer, dir string, opts initOptions) error {
	cfgPath := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("%s already initialized", dir)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("checking %s: %w", cfgPath, err)
	}

	cfg := config.Default()
	cfg.Ledger.Currency = strings.ToUpper(opts.currency)
	cfg.Ledger.Timezone = opts.timezone
	cfg.Ledger.Backend = opts.backend
	cfg.Git.AutoCommit = !opts.noGit

	// The database URL stays out of the committed config.
	check := *cfg
	check.Ledger.DatabaseURL = os.Getenv(config.EnvDatabaseURL)
	if err := check.Validate(); err != nil {
		return err
	}

	for _, d := range []string{"accounts", "logs", "import", filepath.Join("import", "processed")} {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	if err := config.Save(cfgPath, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	chart := accounts.DefaultChart(cfg.Ledger.Currency)
	if err := accounts.NewService(chart).Save(dir); err != nil {
		return fmt.Errorf("writing chart of accounts: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(".env\nimport/*\n!import/.gitkeep\n"), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "import", ".gitkeep"), []byte{}, 0o644); err != nil {
		return fmt.Errorf("writing .gitkeep: %w", err)
	}

	if cfg.Ledger.Backend == config.BackendPostgres {
		if err := seedDatabase(ctx, check.Ledger.DatabaseURL, chart); err != nil {
			return err
		}
	}

	if opts.noGit {
		fmt.Fprintf(out, "Initialized ledger at %s\n", dir)
		return nil
	}

	if err := gitops.Init(ctx, dir); err != nil {
		return err
	}
	author := gitops.Author{Name: cfg.Git.AuthorName, Email: cfg.Git.AuthorEmail}
	hash, err := gitops.Commit(ctx, dir, "init: ledger repository", author)
	if err != nil {
		return fmt.Errorf("initial commit: %w", err)
	}

	fmt.Fprintf(out, "Initialized ledger at %s (%s)\n", dir, hash)
	return nil
}

func seedDatabase(ctx context.Context, url string, chart []model.Account) error {
	pool, err := pgstore.Connect(ctx, url)
	if err != nil {
		return err
	}
	store := pgstore.New(pool, nil)
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		return err
	}
	return store.Seed(ctx, chart)
}
