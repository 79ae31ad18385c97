package persist

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/zenith-ledger/zenith/internal/model"
)

// Operation names used for fault injection on Memory.
const (
	OpLoadAccounts        = "LoadAccounts"
	OpReplaceAccounts     = "ReplaceAccounts"
	OpAddAccount          = "AddAccount"
	OpUpdateAccount       = "UpdateAccount"
	OpDeleteAccount       = "DeleteAccount"
	OpLoadTransactions    = "LoadTransactions"
	OpReplaceTransactions = "ReplaceTransactions"
	OpAddTransaction      = "AddTransaction"
	OpUpdateTransaction   = "UpdateTransaction"
	OpDeleteTransaction   = "DeleteTransaction"
	OpLoadBudgets         = "LoadBudgets"
	OpReplaceBudgets      = "ReplaceBudgets"
)

// Memory keeps everything in process. Faults can be injected per
// operation to exercise failure paths.
type Memory struct {
	mu      sync.Mutex
	accts   []model.Account
	txns    []model.Transaction
	budgets map[string]decimal.Decimal
	faults  map[string]fault
	calls   []string
}

type fault struct {
	err       error
	remaining int // negative means until healed
}

// NewMemory creates an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{
		budgets: make(map[string]decimal.Decimal),
		faults:  make(map[string]fault),
	}
}

// Fail makes every later call of op return err until Heal is called.
func (m *Memory) Fail(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.faults[op] = fault{err: err, remaining: -1}
}

// FailOnce makes only the next call of op return err.
func (m *Memory) FailOnce(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.faults[op] = fault{err: err, remaining: 1}
}

// Heal clears all injected faults.
func (m *Memory) Heal() {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.faults)
}

// Calls returns the operations invoked so far, in order.
func (m *Memory) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.calls)
}

// enter records the call and returns any injected fault. Callers hold mu.
func (m *Memory) enter(ctx context.Context, op string) error {
	m.calls = append(m.calls, op)
	if err := ctx.Err(); err != nil {
		return err
	}
	f, ok := m.faults[op]
	if !ok {
		return nil
	}
	if f.remaining > 0 {
		if f.remaining--; f.remaining == 0 {
			delete(m.faults, op)
		} else {
			m.faults[op] = f
		}
	}
	return f.err
}

func (m *Memory) LoadAccounts(ctx context.Context) ([]model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(ctx, OpLoadAccounts); err != nil {
		return nil, err
	}
	return slices.Clone(m.accts), nil
}

func (m *Memory) ReplaceAccounts(ctx context.Context, accts []model.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(ctx, OpReplaceAccounts); err != nil {
		return err
	}
	m.accts = slices.Clone(accts)
	return nil
}

func (m *Memory) AddAccount(ctx context.Context, acct model.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(ctx, OpAddAccount); err != nil {
		return err
	}
	if slices.ContainsFunc(m.accts, func(a model.Account) bool { return a.ID == acct.ID }) {
		return fmt.Errorf("account %s already stored", acct.ID)
	}
	m.accts = append(m.accts, acct)
	return nil
}

func (m *Memory) UpdateAccount(ctx context.Context, acct model.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(ctx, OpUpdateAccount); err != nil {
		return err
	}
	i := slices.IndexFunc(m.accts, func(a model.Account) bool { return a.ID == acct.ID })
	if i < 0 {
		return fmt.Errorf("account %s: %w", acct.ID, ErrRecordNotFound)
	}
	m.accts[i] = acct
	return nil
}

func (m *Memory) DeleteAccount(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(ctx, OpDeleteAccount); err != nil {
		return err
	}
	i := slices.IndexFunc(m.accts, func(a model.Account) bool { return a.ID == id })
	if i < 0 {
		return fmt.Errorf("account %s: %w", id, ErrRecordNotFound)
	}
	m.accts = slices.Delete(m.accts, i, i+1)
	return nil
}

func (m *Memory) LoadTransactions(ctx context.Context) ([]model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(ctx, OpLoadTransactions); err != nil {
		return nil, err
	}
	out := make([]model.Transaction, len(m.txns))
	for i, t := range m.txns {
		out[i] = t.Clone()
	}
	return out, nil
}

func (m *Memory) ReplaceTransactions(ctx context.Context, txns []model.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(ctx, OpReplaceTransactions); err != nil {
		return err
	}
	m.txns = make([]model.Transaction, len(txns))
	for i, t := range txns {
		m.txns[i] = t.Clone()
	}
	return nil
}

func (m *Memory) AddTransaction(ctx context.Context, txn model.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(ctx, OpAddTransaction); err != nil {
		return err
	}
	if slices.ContainsFunc(m.txns, func(t model.Transaction) bool { return t.ID == txn.ID }) {
		return fmt.Errorf("transaction %s already stored", txn.ID)
	}
	m.txns = append(m.txns, txn.Clone())
	return nil
}

func (m *Memory) UpdateTransaction(ctx context.Context, txn model.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(ctx, OpUpdateTransaction); err != nil {
		return err
	}
	i := slices.IndexFunc(m.txns, func(t model.Transaction) bool { return t.ID == txn.ID })
	if i < 0 {
		return fmt.Errorf("transaction %s: %w", txn.ID, ErrRecordNotFound)
	}
	m.txns[i] = txn.Clone()
	return nil
}

func (m *Memory) DeleteTransaction(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(ctx, OpDeleteTransaction); err != nil {
		return err
	}
	i := slices.IndexFunc(m.txns, func(t model.Transaction) bool { return t.ID == id })
	if i < 0 {
		return fmt.Errorf("transaction %s: %w", id, ErrRecordNotFound)
	}
	m.txns = slices.Delete(m.txns, i, i+1)
	return nil
}

func (m *Memory) LoadBudgets(ctx context.Context) (map[string]decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(ctx, OpLoadBudgets); err != nil {
		return nil, err
	}
	return maps.Clone(m.budgets), nil
}

func (m *Memory) ReplaceBudgets(ctx context.Context, budgets map[string]decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(ctx, OpReplaceBudgets); err != nil {
		return err
	}
	m.budgets = maps.Clone(budgets)
	if m.budgets == nil {
		m.budgets = make(map[string]decimal.Decimal)
	}
	return nil
}

func (m *Memory) Close() error { return nil }
