package book

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/zenith-ledger/zenith/internal/budget"
	"github.com/zenith-ledger/zenith/internal/errs"
	"github.com/zenith-ledger/zenith/internal/id"
)

// SetBudget upserts the planned amount for an account in a fiscal year.
// Zero is kept as an explicit entry. Negative fiscal years are rejected.
func (b *Book) SetBudget(ctx context.Context, fiscalYear int, accountID string, amount decimal.Decimal) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if fiscalYear < 0 {
		return errs.Invalid(0, id.FormatBudgetKey(fiscalYear, accountID), "fiscal year %d is negative", fiscalYear)
	}
	next := b.budgets.Clone()
	next.Set(fiscalYear, accountID, amount)
	if err := b.backend.ReplaceBudgets(ctx, next.Map()); err != nil {
		return persistErr("save budgets", err)
	}
	b.budgets = next
	b.record("budget.set", id.FormatBudgetKey(fiscalYear, accountID), amount.String())
	return nil
}

// BudgetFor returns the planned amount, or zero when none is set.
func (b *Book) BudgetFor(fiscalYear int, accountID string) decimal.Decimal {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.budgets.For(fiscalYear, accountID)
}

// LookupBudget returns the planned amount and whether an entry exists.
func (b *Book) LookupBudget(fiscalYear int, accountID string) (decimal.Decimal, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.budgets.Lookup(fiscalYear, accountID)
}

// FiscalYearOf returns the fiscal year containing d.
func (b *Book) FiscalYearOf(d time.Time) int {
	return b.fiscal.YearOf(d)
}

// BudgetReport compares budgets with actual activity for every postable
// income and expense account in fiscal year fy.
func (b *Book) BudgetReport(fiscalYear int) ([]budget.Row, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return budget.Compare(b.budgets, b.accounts.All(), b.engine(), fiscalYear, b.fiscal)
}
