package id

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const (
	accountPrefix     = "acc_"
	transactionPrefix = "txn_"
	openingPrefix     = "txn_ob_"
)

// NewAccount returns a fresh account ID like "acc_5f1c...".
func NewAccount() string {
	return accountPrefix + uuid.NewString()
}

// NewTransaction returns a fresh transaction ID like "txn_5f1c...".
func NewTransaction() string {
	return transactionPrefix + uuid.NewString()
}

// NewOpeningBalance returns a fresh ID for an account's opening-balance
// transaction, like "txn_ob_bank_5f1c...".
func NewOpeningBalance(accountID string) string {
	return openingPrefix + accountID + "_" + uuid.NewString()
}

// FormatBudgetKey returns a budget map key like "2024-asset-bank".
func FormatBudgetKey(fiscalYear int, accountID string) string {
	return fmt.Sprintf("%d-%s", fiscalYear, accountID)
}

// ParseBudgetKey splits "2024-asset-bank" into 2024 and "asset-bank".
// Account IDs may contain dashes, so only the first one after the year
// separates. A leading minus belongs to the year.
func ParseBudgetKey(key string) (fiscalYear int, accountID string, err error) {
	sign := ""
	if strings.HasPrefix(key, "-") {
		sign, key = "-", key[1:]
	}
	year, acct, ok := strings.Cut(key, "-")
	if !ok || acct == "" {
		return 0, "", fmt.Errorf("invalid budget key format: %q", sign+key)
	}
	fiscalYear, err = strconv.Atoi(sign + year)
	if err != nil {
		return 0, "", fmt.Errorf("invalid fiscal year in budget key %q: %w", sign+key, err)
	}
	return fiscalYear, acct, nil
}
