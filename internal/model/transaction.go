package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateFormat is the calendar-day layout used for transaction dates.
const DateFormat = "2006-01-02"

// TransactionKind tags transactions the core synthesizes itself.
type TransactionKind string

const (
	KindOrdinary       TransactionKind = ""
	KindOpeningBalance TransactionKind = "opening-balance"
)

// Split is a single signed posting against one account.
// Positive amounts are debits, negative amounts are credits.
type Split struct {
	AccountID string
	Amount    decimal.Decimal
}

// Transaction is a dated, balanced set of splits.
type Transaction struct {
	ID          string
	Date        time.Time //nolint:revive // calendar day, see Day
	Description string
	Kind        TransactionKind
	Splits      []Split
}

// Sum returns the total of all split amounts.
func (t Transaction) Sum() decimal.Decimal {
	total := decimal.Zero
	for _, s := range t.Splits {
		total = total.Add(s.Amount)
	}
	return total
}

// AmountFor returns the summed amount posted to accountID and whether
// any split references it.
func (t Transaction) AmountFor(accountID string) (decimal.Decimal, bool) {
	total := decimal.Zero
	found := false
	for _, s := range t.Splits {
		if s.AccountID == accountID {
			total = total.Add(s.Amount)
			found = true
		}
	}
	return total, found
}

// Touches reports whether any split references accountID.
func (t Transaction) Touches(accountID string) bool {
	_, ok := t.AmountFor(accountID)
	return ok
}

// Clone returns a copy that does not share the split slice.
func (t Transaction) Clone() Transaction {
	c := t
	c.Splits = append([]Split(nil), t.Splits...)
	return c
}

// Day truncates a time to its calendar day in UTC.
// Transaction dates carry no time-of-day meaning.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateFormat, s)
}

// FormatDate formats a calendar date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateFormat)
}
