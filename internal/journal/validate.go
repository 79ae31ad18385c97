package journal

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/zenith-ledger/zenith/internal/errs"
	"github.com/zenith-ledger/zenith/internal/model"
)

// Epsilon is the largest split sum still considered balanced.
var Epsilon = decimal.RequireFromString("0.001")

// Invariants checked by Validate.
const (
	InvariantID          = 1
	InvariantDate        = 2
	InvariantSplitCount  = 3
	InvariantAccount     = 4
	InvariantPlaceholder = 5
	InvariantBalance     = 6
	InvariantOpening     = 7
)

// AccountLookup resolves account IDs against the chart of accounts.
type AccountLookup interface {
	Get(id string) (model.Account, bool)
}

// NormalizeSplits drops zero-amount splits.
func NormalizeSplits(splits []model.Split) []model.Split {
	out := make([]model.Split, 0, len(splits))
	for _, s := range splits {
		if s.Amount.IsZero() {
			continue
		}
		out = append(out, s)
	}
	return out
}

// Validate enforces the double-entry invariants on a single transaction.
// Splits are expected to be normalized already.
func Validate(txn model.Transaction, accounts AccountLookup) error {
	var verrs []errs.Violation
	add := func(inv int, format string, args ...any) {
		verrs = append(verrs, errs.Violation{
			Invariant:   inv,
			Subject:     txn.ID,
			Description: fmt.Sprintf(format, args...),
		})
	}

	// Invariant 1: identity.
	if txn.ID == "" {
		add(InvariantID, "transaction id is required")
	}

	// Invariant 2: a calendar date.
	if txn.Date.IsZero() {
		add(InvariantDate, "transaction date is required")
	}

	// Invariant 3: at least two splits.
	if len(txn.Splits) < 2 {
		add(InvariantSplitCount, "at least two splits are required, got %d", len(txn.Splits))
	}

	for _, s := range txn.Splits {
		acct, ok := accounts.Get(s.AccountID)
		// Invariant 4: valid account references.
		if !ok {
			add(InvariantAccount, "unknown account %q", s.AccountID)
			continue
		}
		// Invariant 5: no postings to grouping accounts.
		if acct.Placeholder {
			add(InvariantPlaceholder, "account %q is a placeholder", s.AccountID)
		}
	}

	// Invariant 6: debits equal credits.
	if sum := txn.Sum(); sum.Abs().GreaterThan(Epsilon) {
		add(InvariantBalance, "splits sum to %s, want 0", sum.String())
	}

	if len(verrs) > 0 {
		return &errs.ValidationError{Violations: verrs}
	}
	return nil
}
