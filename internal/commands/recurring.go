package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ledgerfeed/ledgerfeed/internal/importer"
	"github.com/ledgerfeed/ledgerfeed/internal/normalize"
	"github.com/ledgerfeed/ledgerfeed/internal/recurring"
)

type recurringOptions struct {
	file   string
	format string
	json   bool
}

func newRecurringCommand(root *rootOptions) *cobra.Command {
	var opts recurringOptions

	cmd := &cobra.Command{
		Use:   "recurring",
		Short: "Detect recurring payments",
		Long: `Detect subscriptions and other recurring payments.

By default the ledger's withdrawals are analyzed. With --file, the debits
of a statement export are analyzed directly without importing it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRecurring(cmd.Context(), cmd.OutOrStdout(), root, opts)
		},
	}

	cmd.Flags().StringVar(&opts.file, "file", "", "statement file to analyze instead of the ledger")
	cmd.Flags().StringVar(&opts.format, "format", "", "format of --file (detected when empty)")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print the report as JSON")

	return cmd
}

func runRecurring(ctx context.Context, out io.Writer, root *rootOptions, opts recurringOptions) error {
	repoRoot, cfg, err := root.loadRepo()
	if err != nil {
		return err
	}

	var payments []recurring.Payment
	if opts.file != "" {
		loc, err := cfg.Location()
		if err != nil {
			return err
		}
		records, err := parseStatement(importer.DefaultRegistry(loc), opts.file, opts.format)
		if err != nil {
			return err
		}
		payments = importer.Payments(records, normalize.New(cfg.Normalize.Cities), cfg.Normalize.Language)
	} else {
		be, err := openBackend(ctx, repoRoot, cfg)
		if err != nil {
			return err
		}
		defer be.close()

		txns, err := be.history.Transactions(ctx)
		if err != nil {
			return fmt.Errorf("reading ledger: %w", err)
		}
		payments = recurring.FromTransactions(txns)
	}

	report := recurring.Analyze(payments, cfg.Recurring)
	if opts.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	return printReport(out, report)
}

func parseStatement(reg *importer.Registry, path, format string) ([]importer.Record, error) {
	if format == "" {
		detected, err := importer.DetectFile(path)
		if err != nil {
			return nil, err
		}
		format = detected
	}
	adapter := reg.Get(format)
	if adapter == nil {
		return nil, fmt.Errorf("unknown format %q", format)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	records, err := adapter.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return records, nil
}

func printReport(out io.Writer, report recurring.Report) error {
	if len(report.Findings) == 0 {
		fmt.Fprintln(out, "no recurring payments found")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "MERCHANT\tFREQUENCY\tEVERY\tTIMES\tAMOUNT\tLAST\tNEXT")
	for _, f := range report.Findings {
		amount := f.AvgAmount.StringFixed(2)
		if !f.FixedAmount {
			amount = f.MinAmount.StringFixed(2) + "-" + f.MaxAmount.StringFixed(2)
		}
		fmt.Fprintf(tw, "%s\t%s\t%.1fd\t%d\t%s\t%s\t%s\n",
			f.Merchant, f.Frequency, f.AvgIntervalDays, f.Occurrences, amount,
			f.LastDate.Format("2006-01-02"), f.NextDate.Format("2006-01-02"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "monthly total: %s\n", report.MonthlyTotal.StringFixed(2))
	return nil
}
