// Package display formats amounts for people: balances on the account's
// normal side, in the ledger currency.
package display

import (
	"fmt"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/zenith-ledger/zenith/internal/model"
)

// Formatter renders amounts in one currency.
type Formatter struct {
	currency *money.Currency
}

// New returns a Formatter for the ISO 4217 currency code.
func New(code string) (*Formatter, error) {
	c := money.GetCurrency(code)
	if c == nil {
		return nil, fmt.Errorf("unknown currency %q", code)
	}
	return &Formatter{currency: c}, nil
}

// Currency returns the currency code.
func (f *Formatter) Currency() string { return f.currency.Code }

// Amount formats a signed amount, rounded to the currency's minor unit.
func (f *Formatter) Amount(amount decimal.Decimal) string {
	minor := amount.Shift(int32(f.currency.Fraction)).Round(0).IntPart()
	return money.New(minor, f.currency.Code).Display()
}

// Balance formats a raw (debit-positive) balance so that it reads
// positive when it sits on the account type's normal side.
func (f *Formatter) Balance(t model.AccountType, raw decimal.Decimal) string {
	return f.Amount(t.Presented(raw))
}

// Side labels a raw split amount as a debit or a credit.
func Side(amount decimal.Decimal) string {
	if amount.IsNegative() {
		return "Cr"
	}
	return "Dr"
}

// Split formats a split amount unsigned with its side, e.g. "$200.00 Cr".
func (f *Formatter) Split(amount decimal.Decimal) string {
	return f.Amount(amount.Abs()) + " " + Side(amount)
}
