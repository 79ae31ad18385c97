package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/zenith-ledger/zenith/internal/model"
)

func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid amount %q", s)
	}
	return d, nil
}

// parseDate accepts YYYY-MM-DD. Empty means today.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return model.Day(time.Now()), nil
	}
	d, err := model.ParseDate(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", s)
	}
	return d, nil
}

// parseSplits reads ACCOUNT=AMOUNT pairs.
func parseSplits(specs []string) ([]model.Split, error) {
	splits := make([]model.Split, 0, len(specs))
	for _, spec := range specs {
		acct, amt, ok := strings.Cut(spec, "=")
		if !ok || acct == "" {
			return nil, fmt.Errorf("invalid split %q (want ACCOUNT=AMOUNT)", spec)
		}
		amount, err := parseAmount(amt)
		if err != nil {
			return nil, fmt.Errorf("split %q: %w", spec, err)
		}
		splits = append(splits, model.Split{AccountID: acct, Amount: amount})
	}
	return splits, nil
}
