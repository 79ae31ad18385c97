package commands

import (
	"github.com/spf13/cobra"

	"github.com/zenith-ledger/zenith/internal/buildinfo"
)

// globalFlags are shared by every command that opens the books.
type globalFlags struct {
	repo       string
	configPath string
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var g globalFlags

	rootCmd := &cobra.Command{
		Use:     "zenith",
		Short:   "Double-entry bookkeeping from the command line",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&g.repo, "repo", ".", "ledger repository root")
	rootCmd.PersistentFlags().StringVar(&g.configPath, "config", "", "config file (default <repo>/zenith.yaml)")

	rootCmd.AddCommand(
		newInitCommand(),
		newAccountsCommand(&g),
		newTxCommand(&g),
		newBalanceCommand(&g),
		newOpeningCommand(&g),
		newBudgetCommand(&g),
		newLogCommand(&g),
	)

	return rootCmd
}
