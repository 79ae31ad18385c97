// Package book is the process-wide handle on a set of books: the chart of
// accounts, the journal and the budgets, loaded from a persistence
// backend and mutated through it.
//
// Every write runs validate, persist, commit under one write lock, so a
// reader never sees a change that is not yet durable. Reads share a read
// lock.
package book

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/zenith-ledger/zenith/internal/accounts"
	"github.com/zenith-ledger/zenith/internal/balance"
	"github.com/zenith-ledger/zenith/internal/budget"
	"github.com/zenith-ledger/zenith/internal/errs"
	"github.com/zenith-ledger/zenith/internal/journal"
	"github.com/zenith-ledger/zenith/internal/persist"
)

// Recorder receives a line for every committed mutation.
type Recorder interface {
	Record(action, subject, details string) error
}

// Book holds the loaded state and the backend it persists to.
type Book struct {
	mu      sync.RWMutex
	backend persist.Backend
	log     *zap.Logger
	audit   Recorder
	fiscal  budget.YearStart

	accounts *accounts.Service
	ledger   *journal.Ledger
	budgets  *budget.Store

	degraded bool
	loadErr  error
}

// Option configures a Book.
type Option func(*Book)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(b *Book) { b.log = l }
}

// WithRecorder sets where committed mutations are recorded.
func WithRecorder(r Recorder) Option {
	return func(b *Book) { b.audit = r }
}

// WithFiscalYearStart sets the first day of the fiscal year.
func WithFiscalYearStart(ys budget.YearStart) Option {
	return func(b *Book) { b.fiscal = ys }
}

// Open loads a book from backend. An empty backend is seeded with the
// default chart of accounts.
//
// Open does not fail when loading does. The book starts from the default
// chart with no transactions or budgets, and Degraded reports it.
func Open(ctx context.Context, backend persist.Backend, opts ...Option) *Book {
	b := &Book{
		backend: backend,
		log:     zap.NewNop(),
		fiscal:  budget.DefaultYearStart,
	}
	for _, opt := range opts {
		opt(b)
	}

	if err := b.load(ctx); err != nil {
		b.log.Warn("loading books failed, starting from the default chart", zap.Error(err))
		b.accounts = accounts.NewService(accounts.DefaultChart())
		b.ledger = journal.NewLedger(nil)
		b.budgets = budget.NewStore()
		b.degraded = true
		b.loadErr = err
	}
	return b
}

func (b *Book) load(ctx context.Context) error {
	accts, err := b.backend.LoadAccounts(ctx)
	if err != nil {
		return errs.Persistence("load accounts", err)
	}
	if len(accts) == 0 {
		accts = accounts.DefaultChart()
		if err := b.backend.ReplaceAccounts(ctx, accts); err != nil {
			return errs.Persistence("seed accounts", err)
		}
		b.log.Info("seeded default chart of accounts", zap.Int("accounts", len(accts)))
	}

	txns, err := b.backend.LoadTransactions(ctx)
	if err != nil {
		return errs.Persistence("load transactions", err)
	}

	raw, err := b.backend.LoadBudgets(ctx)
	if err != nil {
		return errs.Persistence("load budgets", err)
	}
	budgets, err := budget.FromMap(raw)
	if err != nil {
		return errs.Persistence("load budgets", err)
	}

	b.accounts = accounts.NewService(accts)
	b.ledger = journal.NewLedger(txns)
	b.budgets = budgets
	b.log.Debug("loaded books",
		zap.Int("accounts", b.accounts.Len()),
		zap.Int("transactions", b.ledger.Len()),
		zap.Int("budgets", b.budgets.Len()),
	)
	return nil
}

// Degraded reports whether Open fell back to the default chart.
func (b *Book) Degraded() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.degraded
}

// LoadErr returns why Open fell back, or nil.
func (b *Book) LoadErr() error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.loadErr
}

// FiscalYearStart returns the configured first day of the fiscal year.
func (b *Book) FiscalYearStart() budget.YearStart {
	return b.fiscal
}

// Close closes the backend.
func (b *Book) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.backend.Close()
}

// engine returns a balance engine over the current state. Callers hold mu.
func (b *Book) engine() *balance.Engine {
	return balance.New(b.accounts, b.ledger)
}

// record reports a committed mutation. A failing recorder does not undo
// the mutation.
func (b *Book) record(action, subject, details string) {
	b.log.Info(action, zap.String("subject", subject), zap.String("details", details))
	if b.audit == nil {
		return
	}
	if err := b.audit.Record(action, subject, details); err != nil {
		b.log.Warn("recording activity failed", zap.String("action", action), zap.Error(err))
	}
}

// persistErr wraps a backend failure unless it already carries a kind
// the caller should branch on.
func persistErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return errs.Persistence(op, err)
}
