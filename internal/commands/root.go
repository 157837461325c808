package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ledgerfeed/ledgerfeed/internal/buildinfo"
	"github.com/ledgerfeed/ledgerfeed/internal/config"
	"github.com/ledgerfeed/ledgerfeed/internal/logger"
)

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	repo     string
	logLevel string
	logJSON  bool
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:     "ledgerfeed",
		Short:   "Import bank and card statements into a double-entry ledger",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			w := cmd.ErrOrStderr()
			log := logger.New(w, opts.logLevel)
			if opts.logJSON {
				log = logger.NewJSON(w, opts.logLevel)
			}
			cmd.SetContext(logger.WithContext(cmd.Context(), log))
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.repo, "repo", ".", "ledger repository directory")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	flags.BoolVar(&opts.logJSON, "log-json", false, "log as JSON lines")

	rootCmd.AddCommand(
		newInitCommand(),
		newImportCommand(opts),
		newRecurringCommand(opts),
		newAccountsCommand(opts),
	)

	return rootCmd
}

// loadRepo resolves the repository root and reads its configuration.
func (o *rootOptions) loadRepo() (string, *config.Config, error) {
	root, err := filepath.Abs(o.repo)
	if err != nil {
		return "", nil, fmt.Errorf("resolving path: %w", err)
	}
	cfg, err := config.LoadRepo(root)
	if err != nil {
		return "", nil, fmt.Errorf("loading %s: %w", config.FileName, err)
	}
	return root, cfg, nil
}
