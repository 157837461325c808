package commands

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ledgerfeed/ledgerfeed/internal/config"
	"github.com/ledgerfeed/ledgerfeed/internal/gitops"
	"github.com/ledgerfeed/ledgerfeed/internal/importer"
	"github.com/ledgerfeed/ledgerfeed/internal/logger"
	"github.com/ledgerfeed/ledgerfeed/internal/normalize"
	"github.com/ledgerfeed/ledgerfeed/internal/runlog"
)

type importOptions struct {
	format  string
	account int
	dryRun  bool
	archive bool
}

func newImportCommand(root *rootOptions) *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import [file...]",
		Short: "Import statement files into the ledger",
		Long: `Import bank JSON exports and card CSV statements.

With no files, every .csv and .json file in <repo>/import is imported.
The format is detected from the file unless --format is given, and the
source account defaults to the first matching bank_accounts entry.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), cmd.OutOrStdout(), root, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.format, "format", "", "statement format (bankjson, carda, cardb)")
	cmd.Flags().IntVar(&opts.account, "account", 0, "source asset account id")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "preview without writing to the ledger")
	cmd.Flags().BoolVar(&opts.archive, "archive", false, "move imported files to import/processed")

	return cmd
}

// statement is one file queued for import.
type statement struct {
	name string
	path string
	// inbox is set for files under <repo>/import, the only ones archived.
	inbox bool
}

func runImport(ctx context.Context, out io.Writer, root *rootOptions, args []string, opts importOptions) error {
	repoRoot, cfg, err := root.loadRepo()
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	files, err := statements(repoRoot, args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Fprintln(out, "no statement files to import")
		return nil
	}

	be, err := openBackend(ctx, repoRoot, cfg)
	if err != nil {
		return err
	}
	defer be.close()

	runID := runlog.NewRunID()
	log := logger.FromContext(ctx).With().Str("run_id", runID).Logger()
	ctx = logger.WithContext(ctx, log)

	driver := &importer.Driver{
		Registry:   importer.DefaultRegistry(loc),
		Directory:  be.directory,
		Sink:       be.sink,
		Normalizer: normalize.New(cfg.Normalize.Cities),
		Cards:      cfg.Cards(),
		Currency:   cfg.Ledger.Currency,
		Location:   loc,
		Language:   cfg.Normalize.Language,
		Out:        out,
	}

	var total importer.Stats
	var imported []string
	for _, f := range files {
		format := opts.format
		if format == "" {
			if format, err = importer.DetectFile(f.path); err != nil {
				return fmt.Errorf("%s: %w", f.name, err)
			}
		}
		account := opts.account
		if account == 0 {
			account = cfg.DefaultSource(format != importer.FormatBankJSON)
		}
		if account == 0 {
			return fmt.Errorf("%s: no source account: pass --account or configure bank_accounts", f.name)
		}

		var entries []runlog.Entry
		driver.OnRecord = func(ev importer.Event) {
			entries = append(entries, logEntry(runID, f.name, ev))
		}

		fmt.Fprintf(out, "%s (%s)\n", f.name, format)
		stats, err := driver.Run(ctx, f.path, importer.Options{Format: format, SourceAccountID: account, DryRun: opts.dryRun})
		if err != nil {
			return fmt.Errorf("importing %s: %w", f.name, err)
		}
		if err := runlog.Append(repoRoot, entries); err != nil {
			log.Warn().Err(err).Msg("failed to write import log")
		}
		addStats(&total, stats)
		imported = append(imported, f.name)

		if opts.archive && !opts.dryRun && f.inbox && stats.Failed == 0 {
			if err := importer.MarkProcessed(repoRoot, f.name); err != nil {
				return err
			}
			fmt.Fprintf(out, "archived %s\n", f.name)
		}
	}

	if opts.dryRun || total.Created == 0 || !cfg.Git.AutoCommit || cfg.Ledger.Backend != config.BackendJournal {
		return nil
	}
	if !gitops.IsRepo(ctx, repoRoot) {
		log.Debug().Msg("not a git repository, skipping commit")
		return nil
	}
	msg := fmt.Sprintf("import: %s (%d created)", strings.Join(imported, ", "), total.Created)
	author := gitops.Author{Name: cfg.Git.AuthorName, Email: cfg.Git.AuthorEmail}
	hash, err := gitops.Commit(ctx, repoRoot, msg, author)
	if err != nil {
		return fmt.Errorf("committing import: %w", err)
	}
	fmt.Fprintf(out, "committed %s\n", hash)
	return nil
}

// statements resolves the files to import: the arguments, or the import inbox.
func statements(repoRoot string, args []string) ([]statement, error) {
	inbox := filepath.Join(repoRoot, "import")
	if len(args) == 0 {
		infos, err := importer.Scan(repoRoot)
		if err != nil {
			return nil, err
		}
		files := make([]statement, 0, len(infos))
		for _, fi := range infos {
			files = append(files, statement{name: fi.Name, path: fi.Path, inbox: true})
		}
		return files, nil
	}

	files := make([]statement, 0, len(args))
	for _, arg := range args {
		abs, err := filepath.Abs(arg)
		if err != nil {
			return nil, fmt.Errorf("resolving path: %w", err)
		}
		files = append(files, statement{name: filepath.Base(abs), path: abs, inbox: filepath.Dir(abs) == inbox})
	}
	return files, nil
}

func logEntry(runID, file string, ev importer.Event) runlog.Entry {
	e := runlog.Entry{
		Timestamp:   time.Now(),
		RunID:       runID,
		File:        file,
		Line:        ev.Line,
		Status:      string(ev.Status),
		Kind:        string(ev.Tx.Kind),
		Description: ev.Tx.Description,
		EntryID:     ev.ID,
		ExternalID:  ev.Tx.ExternalID,
		Reason:      ev.Reason,
	}
	if !ev.Tx.Amount.IsZero() {
		e.Amount = ev.Tx.Amount.StringFixed(2)
	}
	return e
}

func addStats(total *importer.Stats, s importer.Stats) {
	total.Created += s.Created
	total.Skipped += s.Skipped
	total.Duplicates += s.Duplicates
	total.Failed += s.Failed
	total.Previewed += s.Previewed
	total.Transfer += s.Transfer
	total.Withdrawal += s.Withdrawal
	total.Deposit += s.Deposit
}
