package book

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/zenith-ledger/zenith/internal/model"
	"github.com/zenith-ledger/zenith/internal/opening"
)

// lockedLedger lets the synthesizer write through the book while the
// caller already holds the write lock.
type lockedLedger struct {
	b *Book
}

func (l lockedLedger) OpeningBalance(accountID string) (model.Transaction, bool) {
	return l.b.ledger.OpeningBalance(accountID)
}

func (l lockedLedger) Post(ctx context.Context, txn model.Transaction) error {
	return l.b.post(ctx, txn)
}

func (l lockedLedger) Delete(ctx context.Context, txnID string) error {
	return l.b.remove(ctx, txnID)
}

func (b *Book) synthesizer() *opening.Synthesizer {
	return opening.New(b.accounts, lockedLedger{b: b})
}

// SetOpeningBalance replaces the opening balance of an account. The
// amount is positive for an increase on the account's normal side; zero
// removes the opening balance.
func (b *Book) SetOpeningBalance(ctx context.Context, accountID string, amount decimal.Decimal, date time.Time) (opening.Balance, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.setOpening(ctx, accountID, amount, date)
}

func (b *Book) setOpening(ctx context.Context, accountID string, amount decimal.Decimal, date time.Time) (opening.Balance, bool, error) {
	return b.synthesizer().Set(ctx, accountID, amount, date)
}

// OpeningBalance returns the opening balance of an account, if any.
func (b *Book) OpeningBalance(accountID string) (opening.Balance, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.synthesizer().Get(accountID)
}
