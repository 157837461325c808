package commands

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ledgerfeed/ledgerfeed/internal/model"
)

var accountTypes = []model.AccountType{
	model.AccountTypeAsset,
	model.AccountTypeLiability,
	model.AccountTypeEquity,
	model.AccountTypeRevenue,
	model.AccountTypeExpense,
}

func newAccountsCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "accounts [type]",
		Short: "List the chart of accounts",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			types := accountTypes
			if len(args) == 1 {
				t, ok := model.ParseAccountType(args[0])
				if !ok {
					return fmt.Errorf("unknown account type %q", args[0])
				}
				types = []model.AccountType{t}
			}
			return runAccounts(cmd.Context(), cmd.OutOrStdout(), root, types)
		},
	}
}

func runAccounts(ctx context.Context, out io.Writer, root *rootOptions, types []model.AccountType) error {
	repoRoot, cfg, err := root.loadRepo()
	if err != nil {
		return err
	}
	be, err := openBackend(ctx, repoRoot, cfg)
	if err != nil {
		return err
	}
	defer be.close()

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tTYPE\tCURRENCY")
	for _, t := range types {
		accts, err := be.directory.ListAccounts(ctx, t)
		if err != nil {
			return err
		}
		for _, a := range accts {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", a.ID, a.Name, a.Type, a.Currency)
		}
	}
	return tw.Flush()
}
