// Package opening represents an account's starting balance as a
// balanced transaction against the Opening Balances equity account.
package opening

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/zenith-ledger/zenith/internal/accounts"
	"github.com/zenith-ledger/zenith/internal/errs"
	"github.com/zenith-ledger/zenith/internal/id"
	"github.com/zenith-ledger/zenith/internal/model"
)

// Accounts resolves account IDs.
type Accounts interface {
	Get(id string) (model.Account, bool)
}

// Ledger is the durable transaction store the synthesizer writes through.
type Ledger interface {
	OpeningBalance(accountID string) (model.Transaction, bool)
	Post(ctx context.Context, txn model.Transaction) error
	Delete(ctx context.Context, id string) error
}

// Balance is an account's opening balance as the user entered it.
type Balance struct {
	TransactionID string
	Amount        decimal.Decimal // positive increases the account on its normal side
	Date          time.Time
}

// Synthesizer creates, replaces and reads opening-balance transactions.
type Synthesizer struct {
	accounts Accounts
	ledger   Ledger
}

// New creates a Synthesizer.
func New(accts Accounts, ledger Ledger) *Synthesizer {
	return &Synthesizer{accounts: accts, ledger: ledger}
}

// Description returns the description given to an account's opening
// balance transaction.
func Description(accountName string) string {
	return "Opening Balance for " + accountName
}

// Get returns the opening balance of accountID, if it has one.
func (s *Synthesizer) Get(accountID string) (Balance, bool, error) {
	acct, ok := s.accounts.Get(accountID)
	if !ok {
		return Balance{}, false, errs.AccountNotFound(accountID)
	}
	txn, ok := s.ledger.OpeningBalance(accountID)
	if !ok {
		return Balance{}, false, nil
	}
	raw, _ := txn.AmountFor(accountID)
	return Balance{
		TransactionID: txn.ID,
		Amount:        acct.Type.Presented(raw),
		Date:          txn.Date,
	}, true, nil
}

// Set replaces the opening balance of accountID. A zero amount removes
// it. Placeholder accounts are left untouched.
//
// Nothing is changed when the Opening Balances account is missing. If
// the new transaction cannot be stored after the old one was deleted,
// the old one is put back.
func (s *Synthesizer) Set(ctx context.Context, accountID string, amount decimal.Decimal, date time.Time) (Balance, bool, error) {
	acct, ok := s.accounts.Get(accountID)
	if !ok {
		return Balance{}, false, errs.AccountNotFound(accountID)
	}
	if acct.Placeholder {
		return s.Get(accountID)
	}

	offset, ok := s.accounts.Get(accounts.OpeningBalancesID)
	if !ok {
		return Balance{}, false, &errs.ConfigurationError{AccountID: accounts.OpeningBalancesID, Reason: "opening balances account is missing"}
	}
	if offset.Placeholder {
		return Balance{}, false, &errs.ConfigurationError{AccountID: accounts.OpeningBalancesID, Reason: "opening balances account is a placeholder"}
	}
	if accountID == accounts.OpeningBalancesID {
		return Balance{}, false, errs.Invalid(0, accountID, "the opening balances account cannot have an opening balance")
	}

	signed := acct.Type.Presented(amount)

	prior, hadPrior := s.ledger.OpeningBalance(accountID)
	if hadPrior {
		if err := s.ledger.Delete(ctx, prior.ID); err != nil {
			return Balance{}, false, fmt.Errorf("removing previous opening balance: %w", err)
		}
	}

	if signed.IsZero() {
		return Balance{}, false, nil
	}

	txn := model.Transaction{
		ID:          id.NewOpeningBalance(accountID),
		Date:        model.Day(date),
		Description: Description(acct.Name),
		Kind:        model.KindOpeningBalance,
		Splits: []model.Split{
			{AccountID: accountID, Amount: signed},
			{AccountID: offset.ID, Amount: signed.Neg()},
		},
	}
	if err := s.ledger.Post(ctx, txn); err != nil {
		if hadPrior {
			if rerr := s.ledger.Post(ctx, prior); rerr != nil {
				return Balance{}, false, errors.Join(err, fmt.Errorf("restoring previous opening balance: %w", rerr))
			}
		}
		return Balance{}, false, err
	}

	return Balance{TransactionID: txn.ID, Amount: amount, Date: txn.Date}, true, nil
}
