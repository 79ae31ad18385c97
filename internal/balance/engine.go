// Package balance computes account balances from the ledger and the
// account hierarchy.
//
// A balance is the signed sum of an account's own splits plus the
// balances of all its descendants. Amounts are raw: positive is debit.
// Presenting them on an account's normal side is the caller's concern.
package balance

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/zenith-ledger/zenith/internal/errs"
	"github.com/zenith-ledger/zenith/internal/model"
)

// Accounts is the part of the account hierarchy the engine reads.
type Accounts interface {
	Get(id string) (model.Account, bool)
	All() []model.Account
}

// Transactions is the part of the ledger the engine reads.
type Transactions interface {
	Each(fn func(model.Transaction))
}

// Cutoff limits a computation to transactions dated on or before a day.
// The zero value includes every transaction.
type Cutoff struct {
	day time.Time
	set bool
}

// Unbounded includes every transaction.
var Unbounded = Cutoff{}

// AsOf includes transactions dated on or before day. The whole day
// counts, whatever time of day is passed.
func AsOf(day time.Time) Cutoff {
	return Cutoff{day: model.Day(day), set: true}
}

// Includes reports whether a transaction dated d falls within the cutoff.
func (c Cutoff) Includes(d time.Time) bool {
	return !c.set || !model.Day(d).After(c.day)
}

// Engine computes balances. It holds no state of its own, so results
// always reflect the current accounts and transactions.
type Engine struct {
	accounts Accounts
	txns     Transactions
}

// New creates an Engine over an account hierarchy and a ledger.
func New(accounts Accounts, txns Transactions) *Engine {
	return &Engine{accounts: accounts, txns: txns}
}

// SelfTotals sums split amounts per account in one pass, without
// rolling up children.
func (e *Engine) SelfTotals(cut Cutoff) map[string]decimal.Decimal {
	totals := make(map[string]decimal.Decimal)
	e.txns.Each(func(t model.Transaction) {
		if !cut.Includes(t.Date) {
			return
		}
		for _, s := range t.Splits {
			totals[s.AccountID] = totals[s.AccountID].Add(s.Amount)
		}
	})
	return totals
}

// Self returns the account's own balance, excluding descendants.
func (e *Engine) Self(accountID string, cut Cutoff) (decimal.Decimal, error) {
	if _, ok := e.accounts.Get(accountID); !ok {
		return decimal.Zero, errs.AccountNotFound(accountID)
	}
	return e.SelfTotals(cut)[accountID], nil
}

// Balance returns the rolled-up balance of one account.
func (e *Engine) Balance(accountID string, cut Cutoff) (decimal.Decimal, error) {
	if _, ok := e.accounts.Get(accountID); !ok {
		return decimal.Zero, errs.AccountNotFound(accountID)
	}
	f := e.newFold(cut)
	return f.total(accountID, []string{accountID})
}

// Balances returns the rolled-up balance of every account, folding the
// tree once.
func (e *Engine) Balances(cut Cutoff) (map[string]decimal.Decimal, error) {
	f := e.newFold(cut)
	for _, a := range e.accounts.All() {
		if _, err := f.total(a.ID, []string{a.ID}); err != nil {
			return nil, err
		}
	}
	return f.done, nil
}

// Change returns how much an account's balance moved over [from, to],
// both days inclusive.
func (e *Engine) Change(accountID string, from, to time.Time) (decimal.Decimal, error) {
	end, err := e.Balance(accountID, AsOf(to))
	if err != nil {
		return decimal.Zero, err
	}
	start, err := e.Balance(accountID, AsOf(model.Day(from).AddDate(0, 0, -1)))
	if err != nil {
		return decimal.Zero, err
	}
	return end.Sub(start), nil
}

type fold struct {
	self     map[string]decimal.Decimal
	children map[string][]string
	done     map[string]decimal.Decimal
	onPath   map[string]bool
}

func (e *Engine) newFold(cut Cutoff) *fold {
	children := make(map[string][]string)
	for _, a := range e.accounts.All() {
		if a.ParentID != "" {
			children[a.ParentID] = append(children[a.ParentID], a.ID)
		}
	}
	return &fold{
		self:     e.SelfTotals(cut),
		children: children,
		done:     make(map[string]decimal.Decimal),
		onPath:   make(map[string]bool),
	}
}

func (f *fold) total(id string, path []string) (decimal.Decimal, error) {
	if v, ok := f.done[id]; ok {
		return v, nil
	}
	if f.onPath[id] {
		return decimal.Zero, &errs.CycleError{Path: slices.Clone(path)}
	}
	f.onPath[id] = true
	defer delete(f.onPath, id)

	sum := f.self[id]
	for _, child := range f.children[id] {
		v, err := f.total(child, append(path, child))
		if err != nil {
			return decimal.Zero, err
		}
		sum = sum.Add(v)
	}
	f.done[id] = sum
	return sum, nil
}
