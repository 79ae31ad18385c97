package book

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/zenith-ledger/zenith/internal/balance"
)

// Balance returns the raw signed balance of an account and all its
// descendants over every transaction.
func (b *Book) Balance(accountID string) (decimal.Decimal, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.engine().Balance(accountID, balance.Unbounded)
}

// BalanceAsOf is Balance restricted to transactions dated on or before
// asOf.
func (b *Book) BalanceAsOf(accountID string, asOf time.Time) (decimal.Decimal, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.engine().Balance(accountID, balance.AsOf(asOf))
}

// Balances returns the balance of every account under cut.
func (b *Book) Balances(cut balance.Cutoff) (map[string]decimal.Decimal, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.engine().Balances(cut)
}

// Change returns how much an account moved between from and to,
// inclusive.
func (b *Book) Change(accountID string, from, to time.Time) (decimal.Decimal, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.engine().Change(accountID, from, to)
}
