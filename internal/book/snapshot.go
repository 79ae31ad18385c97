package book

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/zenith-ledger/zenith/internal/accounts"
	"github.com/zenith-ledger/zenith/internal/budget"
	"github.com/zenith-ledger/zenith/internal/errs"
	"github.com/zenith-ledger/zenith/internal/journal"
	"github.com/zenith-ledger/zenith/internal/model"
)

// Snapshot is the complete persisted state of a book.
type Snapshot struct {
	Accounts     []model.Account
	Transactions []model.Transaction
	Budgets      map[string]decimal.Decimal
}

// Snapshot returns a copy of the current state.
func (b *Book) Snapshot() Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return Snapshot{
		Accounts:     b.accounts.All(),
		Transactions: b.ledger.All(),
		Budgets:      b.budgets.Map(),
	}
}

// Restore replaces the whole state with snap through the backend's bulk
// operations. snap is validated first; nothing changes if it is invalid.
//
// The backend is written accounts first, then transactions, then
// budgets. If a later step fails the earlier ones are rolled back to the
// previous state.
func (b *Book) Restore(ctx context.Context, snap Snapshot) error {
	accts, ledger, budgets, err := checkSnapshot(snap)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	prev := Snapshot{
		Accounts:     b.accounts.All(),
		Transactions: b.ledger.All(),
		Budgets:      b.budgets.Map(),
	}

	if err := b.backend.ReplaceAccounts(ctx, accts.All()); err != nil {
		return persistErr("restore accounts", err)
	}
	if err := b.backend.ReplaceTransactions(ctx, ledger.All()); err != nil {
		return b.rollbackRestore(ctx, prev, false, persistErr("restore transactions", err))
	}
	if err := b.backend.ReplaceBudgets(ctx, budgets.Map()); err != nil {
		return b.rollbackRestore(ctx, prev, true, persistErr("restore budgets", err))
	}

	b.accounts = accts
	b.ledger = ledger
	b.budgets = budgets
	b.degraded = false
	b.loadErr = nil
	b.record("book.restore", "", fmt.Sprintf("%d accounts, %d transactions, %d budgets",
		accts.Len(), ledger.Len(), budgets.Len()))
	return nil
}

func (b *Book) rollbackRestore(ctx context.Context, prev Snapshot, txns bool, cause error) error {
	var rerrs []error
	if err := b.backend.ReplaceAccounts(ctx, prev.Accounts); err != nil {
		rerrs = append(rerrs, err)
	}
	if txns {
		if err := b.backend.ReplaceTransactions(ctx, prev.Transactions); err != nil {
			rerrs = append(rerrs, err)
		}
	}
	if len(rerrs) == 0 {
		return cause
	}
	return errors.Join(cause, fmt.Errorf("rolling back restore: %w", errors.Join(rerrs...)))
}

// checkSnapshot builds the in-memory state for snap, validating every
// account and transaction against it.
func checkSnapshot(snap Snapshot) (*accounts.Service, *journal.Ledger, *budget.Store, error) {
	accts := accounts.NewService(snap.Accounts)
	if accts.Len() != len(snap.Accounts) {
		return nil, nil, nil, errs.Invalid(accounts.InvariantID, "", "duplicate account ids")
	}
	var violations []errs.Violation
	for _, a := range accts.All() {
		var verr *errs.ValidationError
		if err := accts.Validate(a); errors.As(err, &verr) {
			violations = append(violations, verr.Violations...)
		}
	}
	if len(violations) > 0 {
		return nil, nil, nil, &errs.ValidationError{Violations: violations}
	}
	if _, err := accts.Hierarchy(""); err != nil {
		return nil, nil, nil, err
	}

	ledger := journal.NewLedger(snap.Transactions)
	if ledger.Len() != len(snap.Transactions) {
		return nil, nil, nil, errs.Invalid(journal.InvariantID, "", "duplicate transaction ids")
	}
	var txnErr error
	ledger.Each(func(t model.Transaction) {
		if txnErr == nil {
			txnErr = journal.Validate(t, accts)
		}
	})
	if txnErr != nil {
		return nil, nil, nil, txnErr
	}

	budgets, err := budget.FromMap(snap.Budgets)
	if err != nil {
		return nil, nil, nil, errs.Invalid(0, "", "%v", err)
	}
	return accts, ledger, budgets, nil
}
