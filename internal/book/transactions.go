package book

import (
	"context"
	"fmt"
	"time"

	"github.com/zenith-ledger/zenith/internal/errs"
	"github.com/zenith-ledger/zenith/internal/id"
	"github.com/zenith-ledger/zenith/internal/journal"
	"github.com/zenith-ledger/zenith/internal/model"
)

// AddTransaction records a new transaction. Zero-amount splits are
// dropped before validation.
func (b *Book) AddTransaction(ctx context.Context, date time.Time, description string, splits []model.Split) (model.Transaction, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	txn := model.Transaction{
		ID:          id.NewTransaction(),
		Date:        model.Day(date),
		Description: description,
		Splits:      journal.NormalizeSplits(splits),
	}
	txn = b.ledger.Classify(txn)
	if err := b.post(ctx, txn); err != nil {
		return model.Transaction{}, err
	}
	return txn.Clone(), nil
}

// post validates, persists and commits txn. Callers hold the write lock.
func (b *Book) post(ctx context.Context, txn model.Transaction) error {
	if err := journal.Validate(txn, b.accounts); err != nil {
		return err
	}
	if err := b.ledger.CheckInsert(txn); err != nil {
		return err
	}
	if err := b.backend.AddTransaction(ctx, txn); err != nil {
		return persistErr("add transaction", err)
	}
	if err := b.ledger.Insert(txn); err != nil {
		return err
	}
	b.record("transaction.add", txn.ID, fmt.Sprintf("%s %s %q", model.FormatDate(txn.Date), txn.Kind, txn.Description))
	return nil
}

// DeleteTransaction removes a transaction.
func (b *Book) DeleteTransaction(ctx context.Context, txnID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.remove(ctx, txnID)
}

// remove persists and commits a deletion. Callers hold the write lock.
func (b *Book) remove(ctx context.Context, txnID string) error {
	if _, ok := b.ledger.Get(txnID); !ok {
		return errs.TransactionNotFound(txnID)
	}
	if err := b.backend.DeleteTransaction(ctx, txnID); err != nil {
		return persistErr("delete transaction", err)
	}
	removed, err := b.ledger.Remove(txnID)
	if err != nil {
		return err
	}
	b.record("transaction.delete", removed.ID, removed.Description)
	return nil
}

// UpdateTransaction replaces the date, description and splits of an
// existing transaction. Its kind cannot change.
func (b *Book) UpdateTransaction(ctx context.Context, txn model.Transaction) (model.Transaction, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	old, ok := b.ledger.Get(txn.ID)
	if !ok {
		return model.Transaction{}, errs.TransactionNotFound(txn.ID)
	}
	txn = txn.Clone()
	txn.Date = model.Day(txn.Date)
	txn.Splits = journal.NormalizeSplits(txn.Splits)
	if txn.Kind == model.KindOrdinary {
		txn.Kind = old.Kind
	}

	if err := journal.Validate(txn, b.accounts); err != nil {
		return model.Transaction{}, err
	}
	if err := b.ledger.CheckReplace(txn); err != nil {
		return model.Transaction{}, err
	}
	if err := b.backend.UpdateTransaction(ctx, txn); err != nil {
		return model.Transaction{}, persistErr("update transaction", err)
	}
	if err := b.ledger.Replace(txn); err != nil {
		return model.Transaction{}, err
	}
	b.record("transaction.update", txn.ID, txn.Description)
	return txn.Clone(), nil
}

// Transaction returns a transaction by ID.
func (b *Book) Transaction(txnID string) (model.Transaction, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	t, ok := b.ledger.Get(txnID)
	if !ok {
		return model.Transaction{}, errs.TransactionNotFound(txnID)
	}
	return t, nil
}

// TransactionsForAccount returns the transactions touching an account,
// newest first.
func (b *Book) TransactionsForAccount(accountID string) ([]model.Transaction, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.accounts.Exists(accountID) {
		return nil, errs.AccountNotFound(accountID)
	}
	return b.ledger.ForAccount(accountID), nil
}

// AllTransactions returns every transaction in insertion order.
func (b *Book) AllTransactions() []model.Transaction {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.ledger.All()
}

// TransactionsBetween returns the transactions dated within [from, to].
func (b *Book) TransactionsBetween(from, to time.Time) []model.Transaction {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.ledger.Between(from, to)
}
