package budget

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/zenith-ledger/zenith/internal/model"
)

// Changer reports how much an account moved over a date range.
type Changer interface {
	Change(accountID string, from, to time.Time) (decimal.Decimal, error)
}

// Row compares one account's budget with what actually happened.
// Amounts are on the account's normal side.
type Row struct {
	Account   model.Account
	Budgeted  decimal.Decimal
	Actual    decimal.Decimal
	Remaining decimal.Decimal
}

// Budgetable reports whether an account takes part in budgeting:
// postable income and expense accounts.
func Budgetable(a model.Account) bool {
	return !a.Placeholder && (a.Type == model.AccountTypeIncome || a.Type == model.AccountTypeExpense)
}

// Compare builds budget-vs-actual rows for fiscal year fy, in the order
// of accts.
func Compare(store *Store, accts []model.Account, changes Changer, fy int, ys YearStart) ([]Row, error) {
	first, last := ys.Range(fy)
	var rows []Row
	for _, a := range accts {
		if !Budgetable(a) {
			continue
		}
		raw, err := changes.Change(a.ID, first, last)
		if err != nil {
			return nil, err
		}
		budgeted := store.For(fy, a.ID)
		actual := a.Type.Presented(raw)
		rows = append(rows, Row{
			Account:   a,
			Budgeted:  budgeted,
			Actual:    actual,
			Remaining: budgeted.Sub(actual),
		})
	}
	return rows, nil
}
