// Package persist stores the chart of accounts, the journal and the
// budget map. Every backend implements the same Backend contract and is
// selected by kind with Open.
package persist

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/zenith-ledger/zenith/internal/model"
)

// ErrRecordNotFound is returned by updates and deletes of a missing record.
var ErrRecordNotFound = errors.New("record not found")

// Backend is the persistence collaborator behind a book. Calls are made
// under the book's write lock, so implementations need not serialize
// writers themselves.
type Backend interface {
	LoadAccounts(ctx context.Context) ([]model.Account, error)
	ReplaceAccounts(ctx context.Context, accts []model.Account) error
	AddAccount(ctx context.Context, acct model.Account) error
	UpdateAccount(ctx context.Context, acct model.Account) error
	DeleteAccount(ctx context.Context, id string) error

	LoadTransactions(ctx context.Context) ([]model.Transaction, error)
	ReplaceTransactions(ctx context.Context, txns []model.Transaction) error
	AddTransaction(ctx context.Context, txn model.Transaction) error
	UpdateTransaction(ctx context.Context, txn model.Transaction) error
	DeleteTransaction(ctx context.Context, id string) error

	LoadBudgets(ctx context.Context) (map[string]decimal.Decimal, error)
	ReplaceBudgets(ctx context.Context, budgets map[string]decimal.Decimal) error

	Close() error
}

// Backend kinds.
const (
	KindMemory = "memory"
	KindFile   = "file"
	KindBolt   = "bolt"
	KindSQLite = "sqlite"
)

// Opener creates a backend rooted at path.
type Opener func(path string) (Backend, error)

var (
	openersMu sync.RWMutex
	openers   = make(map[string]Opener)
)

// Register makes a backend kind available to Open. It panics if open is
// nil or the kind is already registered.
func Register(kind string, open Opener) {
	openersMu.Lock()
	defer openersMu.Unlock()
	if open == nil {
		panic("persist: Register opener is nil")
	}
	if _, dup := openers[kind]; dup {
		panic("persist: Register called twice for kind " + kind)
	}
	openers[kind] = open
}

// Open opens a backend of the given kind.
func Open(kind, path string) (Backend, error) {
	openersMu.RLock()
	open := openers[kind]
	openersMu.RUnlock()
	if open == nil {
		return nil, fmt.Errorf("unknown storage backend %q (have %v)", kind, Kinds())
	}
	b, err := open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s backend: %w", kind, err)
	}
	return b, nil
}

// Kinds lists the registered backend kinds.
func Kinds() []string {
	openersMu.RLock()
	defer openersMu.RUnlock()
	kinds := make([]string, 0, len(openers))
	for k := range openers {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}

func init() {
	Register(KindMemory, func(string) (Backend, error) { return NewMemory(), nil })
	Register(KindFile, func(path string) (Backend, error) { return NewFile(path) })
	Register(KindBolt, func(path string) (Backend, error) { return NewBolt(path) })
	Register(KindSQLite, func(path string) (Backend, error) { return NewSQLite(path) })
}
