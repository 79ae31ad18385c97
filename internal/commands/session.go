package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zenith-ledger/zenith/internal/auditlog"
	"github.com/zenith-ledger/zenith/internal/book"
	"github.com/zenith-ledger/zenith/internal/budget"
	"github.com/zenith-ledger/zenith/internal/config"
	"github.com/zenith-ledger/zenith/internal/display"
	"github.com/zenith-ledger/zenith/internal/gitops"
	"github.com/zenith-ledger/zenith/internal/logging"
	"github.com/zenith-ledger/zenith/internal/persist"
)

// session is one opened ledger repo.
type session struct {
	root   string
	cfg    *config.Config
	log    *zap.Logger
	money  *display.Formatter
	book   *book.Book
	stdout io.Writer
}

// loadConfig reads the repo config, applying <repo>/.env and ZENITH_*
// overrides.
func loadConfig(g *globalFlags) (string, *config.Config, error) {
	root, err := filepath.Abs(g.repo)
	if err != nil {
		return "", nil, fmt.Errorf("resolving repo: %w", err)
	}
	if err := config.LoadEnvFile(filepath.Join(root, ".env")); err != nil {
		return "", nil, err
	}
	path := g.configPath
	if path == "" {
		path = filepath.Join(root, config.FileName)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return "", nil, fmt.Errorf("%w (run 'zenith init' first?)", err)
	}
	cfg.ApplyEnv()
	return root, cfg, nil
}

func openSession(ctx context.Context, g *globalFlags, stdout io.Writer) (*session, error) {
	root, cfg, err := loadConfig(g)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}
	money, err := display.New(cfg.Ledger.Currency)
	if err != nil {
		return nil, err
	}
	ys, err := budget.ParseYearStart(cfg.Fiscal.YearStart)
	if err != nil {
		return nil, fmt.Errorf("fiscal.year_start: %w", err)
	}

	backend, err := persist.Open(cfg.Storage.Backend, cfg.StoragePath(root))
	if err != nil {
		return nil, err
	}
	logger.Debug("opened storage",
		zap.String("backend", cfg.Storage.Backend),
		zap.String("path", cfg.StoragePath(root)),
	)

	b := book.Open(ctx, backend,
		book.WithLogger(logger),
		book.WithRecorder(auditlog.NewLog(root, cfg.Git.AuthorName)),
		book.WithFiscalYearStart(ys),
	)

	return &session{
		root:   root,
		cfg:    cfg,
		log:    logger,
		money:  money,
		book:   b,
		stdout: stdout,
	}, nil
}

// commit records a change in git when auto-commit is on and the repo is
// versioned.
func (s *session) commit(ctx context.Context, message string) error {
	if !s.cfg.Git.AutoCommit || !gitops.IsRepo(s.root) {
		return nil
	}
	author := gitops.Author{Name: s.cfg.Git.AuthorName, Email: s.cfg.Git.AuthorEmail}
	hash, err := gitops.CommitChanges(ctx, s.root, message, author)
	if err != nil {
		return fmt.Errorf("auto-commit: %w", err)
	}
	if hash != "" {
		s.log.Debug("committed", zap.String("hash", hash), zap.String("message", message))
	}
	return nil
}

func (s *session) Close() error {
	err := s.book.Close()
	// Sync of stderr returns EINVAL on some platforms.
	_ = s.log.Sync()
	return err
}

// withSession opens the books for the duration of fn.
func withSession(cmd *cobra.Command, g *globalFlags, fn func(*session) error) (err error) {
	s, err := openSession(cmd.Context(), g, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, s.Close())
	}()
	return fn(s)
}
