package budget

import (
	"fmt"
	"maps"

	"github.com/shopspring/decimal"

	"github.com/zenith-ledger/zenith/internal/id"
	"github.com/zenith-ledger/zenith/internal/model"
)

// Store is a sparse map from (fiscal year, account) to a planned amount.
//
// An explicit zero is kept apart from a missing entry so the map
// round-trips unchanged. Entries are not checked against the chart of
// accounts.
type Store struct {
	entries map[model.BudgetKey]decimal.Decimal
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{entries: make(map[model.BudgetKey]decimal.Decimal)}
}

// FromMap builds a Store from the persisted "<fiscalYear>-<accountId>" map.
func FromMap(m map[string]decimal.Decimal) (*Store, error) {
	s := NewStore()
	for k, v := range m {
		fy, acct, err := id.ParseBudgetKey(k)
		if err != nil {
			return nil, fmt.Errorf("loading budgets: %w", err)
		}
		s.entries[model.BudgetKey{FiscalYear: fy, AccountID: acct}] = v
	}
	return s, nil
}

// Map returns the persisted form of the store.
func (s *Store) Map() map[string]decimal.Decimal {
	m := make(map[string]decimal.Decimal, len(s.entries))
	for k, v := range s.entries {
		m[id.FormatBudgetKey(k.FiscalYear, k.AccountID)] = v
	}
	return m
}

// Clone returns an independent copy.
func (s *Store) Clone() *Store {
	return &Store{entries: maps.Clone(s.entries)}
}

// Len returns the number of entries, explicit zeros included.
func (s *Store) Len() int {
	return len(s.entries)
}

// Set upserts the planned amount for an account in a fiscal year.
func (s *Store) Set(fiscalYear int, accountID string, amount decimal.Decimal) {
	s.entries[model.BudgetKey{FiscalYear: fiscalYear, AccountID: accountID}] = amount
}

// Lookup returns the planned amount and whether an entry exists.
func (s *Store) Lookup(fiscalYear int, accountID string) (decimal.Decimal, bool) {
	v, ok := s.entries[model.BudgetKey{FiscalYear: fiscalYear, AccountID: accountID}]
	return v, ok
}

// For returns the planned amount, or zero when there is no entry.
func (s *Store) For(fiscalYear int, accountID string) decimal.Decimal {
	v, _ := s.Lookup(fiscalYear, accountID)
	return v
}
