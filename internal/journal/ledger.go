package journal

import (
	"slices"
	"time"

	"github.com/zenith-ledger/zenith/internal/accounts"
	"github.com/zenith-ledger/zenith/internal/errs"
	"github.com/zenith-ledger/zenith/internal/model"
)

// Ledger is the in-memory collection of transactions.
//
// Ledger does not validate against the chart of accounts and does not
// persist anything; the book does both before calling Insert or Remove.
// It is not safe for concurrent mutation.
type Ledger struct {
	txns    []model.Transaction
	byID    map[string]int
	opening map[string]string // account ID -> opening-balance transaction ID
}

// NewLedger creates a Ledger from previously stored transactions.
// Untagged transactions shaped like an opening balance (two splits, one
// against the Opening Balances account) are tagged as such.
func NewLedger(txns []model.Transaction) *Ledger {
	l := &Ledger{
		byID:    make(map[string]int, len(txns)),
		opening: make(map[string]string),
	}
	for _, t := range txns {
		if _, dup := l.byID[t.ID]; dup {
			continue
		}
		l.append(l.Classify(t.Clone()))
	}
	return l
}

// Classify tags an ordinary transaction shaped like an opening balance
// as one, unless its account already has an opening balance.
func (l *Ledger) Classify(t model.Transaction) model.Transaction {
	if t.Kind == model.KindOrdinary {
		if acct, ok := OpeningTarget(t); ok && l.opening[acct] == "" {
			t.Kind = model.KindOpeningBalance
		}
	}
	return t
}

// OpeningTarget returns the account an opening-balance shaped
// transaction belongs to.
func OpeningTarget(t model.Transaction) (string, bool) {
	if len(t.Splits) != 2 {
		return "", false
	}
	a, b := t.Splits[0].AccountID, t.Splits[1].AccountID
	switch {
	case a == accounts.OpeningBalancesID && b != accounts.OpeningBalancesID:
		return b, true
	case b == accounts.OpeningBalancesID && a != accounts.OpeningBalancesID:
		return a, true
	}
	return "", false
}

func (l *Ledger) append(t model.Transaction) {
	l.byID[t.ID] = len(l.txns)
	l.txns = append(l.txns, t)
	if t.Kind == model.KindOpeningBalance {
		if acct, ok := OpeningTarget(t); ok {
			l.opening[acct] = t.ID
		}
	}
}

// CheckInsert reports whether txn could be inserted: its ID must be new
// and an account may carry only one opening balance.
func (l *Ledger) CheckInsert(txn model.Transaction) error {
	if _, dup := l.byID[txn.ID]; dup {
		return errs.Invalid(InvariantID, txn.ID, "duplicate transaction id")
	}
	if txn.Kind == model.KindOpeningBalance {
		acct, ok := OpeningTarget(txn)
		if !ok {
			return errs.Invalid(InvariantOpening, txn.ID, "opening balance must have one split against %s and one other", accounts.OpeningBalancesID)
		}
		if prior := l.opening[acct]; prior != "" {
			return errs.Invalid(InvariantOpening, txn.ID, "account %q already has opening balance %s", acct, prior)
		}
	}
	return nil
}

// Insert appends a transaction.
func (l *Ledger) Insert(txn model.Transaction) error {
	if err := l.CheckInsert(txn); err != nil {
		return err
	}
	l.append(txn.Clone())
	return nil
}

// CheckReplace reports whether txn could replace the stored transaction
// with the same ID. The kind is fixed and an opening balance stays with
// its account.
func (l *Ledger) CheckReplace(txn model.Transaction) error {
	i, ok := l.byID[txn.ID]
	if !ok {
		return errs.TransactionNotFound(txn.ID)
	}
	old := l.txns[i]
	if old.Kind != txn.Kind {
		return errs.Invalid(InvariantOpening, txn.ID, "transaction kind cannot change")
	}
	if txn.Kind == model.KindOpeningBalance {
		oldAcct, _ := OpeningTarget(old)
		newAcct, ok := OpeningTarget(txn)
		if !ok || newAcct != oldAcct {
			return errs.Invalid(InvariantOpening, txn.ID, "opening balance must stay with account %q", oldAcct)
		}
	}
	return nil
}

// Replace swaps the stored transaction with the same ID.
func (l *Ledger) Replace(txn model.Transaction) error {
	if err := l.CheckReplace(txn); err != nil {
		return err
	}
	l.txns[l.byID[txn.ID]] = txn.Clone()
	return nil
}

// Remove deletes a transaction and returns it.
func (l *Ledger) Remove(id string) (model.Transaction, error) {
	i, ok := l.byID[id]
	if !ok {
		return model.Transaction{}, errs.TransactionNotFound(id)
	}
	removed := l.txns[i]
	l.txns = slices.Delete(l.txns, i, i+1)
	delete(l.byID, id)
	for j := i; j < len(l.txns); j++ {
		l.byID[l.txns[j].ID] = j
	}
	if removed.Kind == model.KindOpeningBalance {
		if acct, ok := OpeningTarget(removed); ok && l.opening[acct] == id {
			delete(l.opening, acct)
		}
	}
	return removed, nil
}

// Get returns a transaction by ID.
func (l *Ledger) Get(id string) (model.Transaction, bool) {
	i, ok := l.byID[id]
	if !ok {
		return model.Transaction{}, false
	}
	return l.txns[i].Clone(), true
}

// Len returns the number of transactions.
func (l *Ledger) Len() int {
	return len(l.txns)
}

// All returns every transaction in insertion order.
func (l *Ledger) All() []model.Transaction {
	out := make([]model.Transaction, len(l.txns))
	for i, t := range l.txns {
		out[i] = t.Clone()
	}
	return out
}

// Each calls fn for every stored transaction without copying.
// fn must not retain or modify the transaction.
func (l *Ledger) Each(fn func(model.Transaction)) {
	for _, t := range l.txns {
		fn(t)
	}
}

// ForAccount returns the transactions with a split against accountID,
// newest date first. Equal dates keep insertion order.
func (l *Ledger) ForAccount(accountID string) []model.Transaction {
	var out []model.Transaction
	for _, t := range l.txns {
		if t.Touches(accountID) {
			out = append(out, t.Clone())
		}
	}
	slices.SortStableFunc(out, func(a, b model.Transaction) int {
		return b.Date.Compare(a.Date)
	})
	return out
}

// Between returns transactions dated within [from, to], both inclusive
// at day granularity, in insertion order.
func (l *Ledger) Between(from, to time.Time) []model.Transaction {
	from, to = model.Day(from), model.Day(to)
	var out []model.Transaction
	for _, t := range l.txns {
		d := model.Day(t.Date)
		if d.Before(from) || d.After(to) {
			continue
		}
		out = append(out, t.Clone())
	}
	return out
}

// OpeningBalance returns the opening-balance transaction for accountID.
func (l *Ledger) OpeningBalance(accountID string) (model.Transaction, bool) {
	id, ok := l.opening[accountID]
	if !ok {
		return model.Transaction{}, false
	}
	return l.Get(id)
}
