package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	"github.com/zenith-ledger/zenith/internal/book"
	"github.com/zenith-ledger/zenith/internal/budget"
	"github.com/zenith-ledger/zenith/internal/config"
	"github.com/zenith-ledger/zenith/internal/display"
	"github.com/zenith-ledger/zenith/internal/gitops"
	"github.com/zenith-ledger/zenith/internal/logging"
	"github.com/zenith-ledger/zenith/internal/persist"
)

type initOptions struct {
	name      string
	currency  string
	backend   string
	yearStart string
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

			return runInit(cmd, absDir, opts)
		},
	}

	cmd.Flags().StringVar(&opts.name, "name", "", "ledger name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&opts.currency, "currency", "PKR", "ISO 4217 currency code for display")
	cmd.Flags().StringVar(&opts.backend, "backend", persist.KindFile, fmt.Sprintf("storage backend %v", persist.Kinds()))
	cmd.Flags().StringVar(&opts.yearStart, "fiscal-year-start", budget.DefaultYearStart.String(), "first day of the fiscal year (MM-DD)")

	return cmd
}

func runInit(cmd *cobra.Command, dir string, opts initOptions) error {
	cfg := config.Default(opts.name)
	cfg.Ledger.Currency = opts.currency
	cfg.Storage.Backend = opts.backend
	cfg.Fiscal.YearStart = opts.yearStart

	if _, err := display.New(cfg.Ledger.Currency); err != nil {
		return err
	}
	if _, err := budget.ParseYearStart(cfg.Fiscal.YearStart); err != nil {
		return fmt.Errorf("--fiscal-year-start: %w", err)
	}
	if !slices.Contains(persist.Kinds(), cfg.Storage.Backend) {
		return fmt.Errorf("unknown storage backend %q (have %v)", cfg.Storage.Backend, persist.Kinds())
	}

	dirs := []string{"accounts", "journal", "budgets", "logs"}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	if err := config.Save(filepath.Join(dir, config.FileName), cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	gitignore := ".env\n*.sqlite-shm\n*.sqlite-wal\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}

	// Opening an empty backend seeds the default chart of accounts.
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	backend, err := persist.Open(cfg.Storage.Backend, cfg.StoragePath(dir))
	if err != nil {
		return err
	}
	b := book.Open(cmd.Context(), backend, book.WithLogger(logger))
	if b.Degraded() {
		_ = b.Close()
		return fmt.Errorf("writing chart of accounts: %w", b.LoadErr())
	}
	n := len(b.Accounts())
	if err := b.Close(); err != nil {
		return fmt.Errorf("closing storage: %w", err)
	}

	if err := gitops.Init(cmd.Context(), dir); err != nil {
		return err
	}
	author := gitops.Author{Name: cfg.Git.AuthorName, Email: cfg.Git.AuthorEmail}
	hash, err := gitops.CommitAll(cmd.Context(), dir, "init: Initialize "+opts.name, author)
	if err != nil {
		return fmt.Errorf("initial commit: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Initialized Zenith ledger at %s with %d accounts (%s)\n", dir, n, hash)
	return nil
}
