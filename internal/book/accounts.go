package book

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/zenith-ledger/zenith/internal/accounts"
	"github.com/zenith-ledger/zenith/internal/errs"
	"github.com/zenith-ledger/zenith/internal/id"
	"github.com/zenith-ledger/zenith/internal/journal"
	"github.com/zenith-ledger/zenith/internal/model"
)

// OpeningInput is an opening balance entered alongside an account edit.
type OpeningInput struct {
	Amount decimal.Decimal
	Date   time.Time
}

// FindAccount returns the account with the given ID.
func (b *Book) FindAccount(accountID string) (model.Account, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.accounts.Find(accountID)
}

// Accounts returns every account in insertion order.
func (b *Book) Accounts() []model.Account {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.accounts.All()
}

// Children returns the direct children of an account.
func (b *Book) Children(accountID string) ([]model.Account, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.accounts.Exists(accountID) {
		return nil, errs.AccountNotFound(accountID)
	}
	return b.accounts.Children(accountID), nil
}

// Hierarchy returns the name-sorted tree under parentID, or the whole
// forest when parentID is empty.
func (b *Book) Hierarchy(parentID string) ([]accounts.Node, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if parentID != "" && !b.accounts.Exists(parentID) {
		return nil, errs.AccountNotFound(parentID)
	}
	return b.accounts.Hierarchy(parentID)
}

// needsOpening reports whether ob would create an opening balance for
// acct, failing early when the Opening Balances account is unusable.
func (b *Book) needsOpening(acct model.Account, ob *OpeningInput) (bool, error) {
	if ob == nil || acct.Placeholder {
		return false, nil
	}
	offset, ok := b.accounts.Get(accounts.OpeningBalancesID)
	switch {
	case !ok:
		if ob.Amount.IsZero() {
			return false, nil
		}
		return false, &errs.ConfigurationError{AccountID: accounts.OpeningBalancesID, Reason: "opening balances account is missing"}
	case offset.Placeholder && !ob.Amount.IsZero():
		return false, &errs.ConfigurationError{AccountID: accounts.OpeningBalancesID, Reason: "opening balances account is a placeholder"}
	}
	return true, nil
}

// AddAccount creates an account, assigning an ID when acct.ID is empty.
// When ob is non-nil and non-zero an opening balance is set for it.
//
// The account is stored before its opening balance. If the opening
// balance then fails, AddAccount returns the created account together
// with the error; the account exists and can be edited to retry.
func (b *Book) AddAccount(ctx context.Context, acct model.Account, ob *OpeningInput) (model.Account, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if acct.ID == "" {
		acct.ID = id.NewAccount()
	}
	if b.accounts.Exists(acct.ID) {
		return model.Account{}, errs.Invalid(accounts.InvariantID, acct.ID, "duplicate account id")
	}
	if err := b.accounts.Validate(acct); err != nil {
		return model.Account{}, err
	}
	withOpening, err := b.needsOpening(acct, ob)
	if err != nil {
		return model.Account{}, err
	}

	if err := b.backend.AddAccount(ctx, acct); err != nil {
		return model.Account{}, persistErr("add account", err)
	}
	if err := b.accounts.Put(acct); err != nil {
		return model.Account{}, err
	}
	b.record("account.add", acct.ID, acct.Name)

	if withOpening && !ob.Amount.IsZero() {
		if _, _, err := b.setOpening(ctx, acct.ID, ob.Amount, ob.Date); err != nil {
			return acct, fmt.Errorf("account %s created without opening balance: %w", acct.ID, err)
		}
	}
	return acct, nil
}

// UpdateAccount edits an existing account. The ID is the lookup key and
// cannot change. When ob is non-nil the opening balance is replaced with
// it (zero removes it).
//
// With a nil ob an existing opening balance keeps its amount and date.
// It is re-posted when a rename or a change of normal side would leave
// its description or sign stale.
//
// An account that has transactions other than its own opening balance
// cannot become a placeholder. Converting drops the opening balance.
//
// As with AddAccount, a failure re-posting the opening balance returns
// the updated account alongside the error.
func (b *Book) UpdateAccount(ctx context.Context, acct model.Account, ob *OpeningInput) (model.Account, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	old, ok := b.accounts.Get(acct.ID)
	if !ok {
		return model.Account{}, errs.AccountNotFound(acct.ID)
	}
	if err := b.accounts.Validate(acct); err != nil {
		return model.Account{}, err
	}
	// Read with the old type still in place so the amount is the one the
	// user entered.
	prior, hasPrior, err := b.synthesizer().Get(acct.ID)
	if err != nil {
		return model.Account{}, err
	}
	if acct.Placeholder && !old.Placeholder && b.hasPostings(acct.ID, prior.TransactionID) {
		return model.Account{}, errs.Invalid(journal.InvariantPlaceholder, acct.ID, "account has transactions and cannot become a placeholder")
	}
	if ob == nil && hasPrior && !acct.Placeholder && openingStale(old, acct) {
		ob = &OpeningInput{Amount: prior.Amount, Date: prior.Date}
	}
	withOpening, err := b.needsOpening(acct, ob)
	if err != nil {
		return model.Account{}, err
	}

	var dropped model.Transaction
	dropOpening := acct.Placeholder && hasPrior
	if dropOpening {
		dropped, _ = b.ledger.Get(prior.TransactionID)
		if err := b.remove(ctx, prior.TransactionID); err != nil {
			return model.Account{}, err
		}
	}
	if err := b.backend.UpdateAccount(ctx, acct); err != nil {
		err = persistErr("update account", err)
		if dropOpening {
			if rerr := b.post(ctx, dropped); rerr != nil {
				err = errors.Join(err, fmt.Errorf("restoring opening balance %s: %w", dropped.ID, rerr))
			}
		}
		return model.Account{}, err
	}
	if err := b.accounts.Put(acct); err != nil {
		return model.Account{}, err
	}
	b.record("account.update", acct.ID, acct.Name)

	if withOpening {
		if _, _, err := b.setOpening(ctx, acct.ID, ob.Amount, ob.Date); err != nil {
			return acct, err
		}
	}
	return acct, nil
}

// hasPostings reports whether any transaction other than skipID touches
// accountID.
func (b *Book) hasPostings(accountID, skipID string) bool {
	for _, t := range b.ledger.ForAccount(accountID) {
		if t.ID != skipID {
			return true
		}
	}
	return false
}

// openingStale reports whether an edit from old to acct changes how the
// opening balance is described or signed.
func openingStale(old, acct model.Account) bool {
	return old.Name != acct.Name || old.Type.DebitNormal() != acct.Type.DebitNormal()
}
