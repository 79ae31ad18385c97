package commands_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(repo, name, content string) error {
	return os.WriteFile(filepath.Join(repo, name), []byte(content), 0o644)
}

func TestScenario_OpeningThenBill(t *testing.T) {
	dir := newLedger(t)

	out := zenith(t, dir, "opening", "set", "asset-bank", "1000", "--date", "2024-07-01")
	assert.Contains(t, out, "1,000.00 on 2024-07-01")

	id := strings.TrimSpace(zenith(t, dir, "tx", "add", "--date", "2024-07-15", "--desc", "Electricity",
		"--split", "expense-utilities-electricity=200", "--split", "asset-bank=-200"))
	require.NotEmpty(t, id)

	assert.Contains(t, zenith(t, dir, "balance", "asset-bank"), "800.00")
	assert.Contains(t, zenith(t, dir, "balance", "equity-opening"), "1,000.00")
	assert.Contains(t, zenith(t, dir, "balance", "expense-utilities"), "200.00")

	// Before the bill only the opening balance counts.
	assert.Contains(t, zenith(t, dir, "balance", "asset-bank", "--as-of", "2024-07-10"), "1,000.00")
	change := zenith(t, dir, "balance", "asset-bank", "--from", "2024-07-02", "--as-of", "2024-07-31")
	assert.Contains(t, change, "200.00")
	assert.NotContains(t, change, "1,000.00")

	list := zenith(t, dir, "tx", "list")
	assert.Contains(t, list, id)
	assert.Contains(t, list, "Electricity")
	assert.Contains(t, list, "[opening]")
}

func TestTxAdd_Rejected(t *testing.T) {
	tests := []struct {
		name   string
		splits []string
		want   string
	}{
		{"unbalanced", []string{"expense-rent=100", "asset-bank=-90"}, "validation failed"},
		{"single split", []string{"asset-bank=100"}, "validation failed"},
		{"placeholder", []string{"expense-utilities=50", "asset-bank=-50"}, "placeholder"},
		{"unknown account", []string{"expense-nope=50", "asset-bank=-50"}, "expense-nope"},
		{"malformed", []string{"asset-bank"}, "ACCOUNT=AMOUNT"},
	}
	dir := newLedger(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := []string{"--repo", dir, "tx", "add", "--date", "2024-08-01"}
			for _, s := range tt.splits {
				args = append(args, "--split", s)
			}
			_, errOut, err := runZenith(t, nil, args...)
			require.Error(t, err)
			assert.Contains(t, errOut, tt.want)
		})
	}
	assert.Contains(t, zenith(t, dir, "tx", "list"), "No transactions.")
}

func TestTxDelete(t *testing.T) {
	dir := newLedger(t)
	id := strings.TrimSpace(zenith(t, dir, "tx", "add", "--date", "2024-08-01", "--desc", "Rent",
		"--split", "expense-rent=300", "--split", "asset-cash=-300"))

	assert.Contains(t, zenith(t, dir, "tx", "delete", id), "Deleted "+id)
	assert.Contains(t, zenith(t, dir, "balance", "expense-rent"), "0.00")

	_, errOut, err := runZenith(t, nil, "--repo", dir, "tx", "delete", id)
	require.Error(t, err)
	assert.Contains(t, errOut, "not found")
}

func TestTxList_ForAccount(t *testing.T) {
	dir := newLedger(t)
	zenith(t, dir, "tx", "add", "--date", "2024-08-01", "--desc", "Fees",
		"--split", "asset-bank=500", "--split", "income-fees=-500")
	zenith(t, dir, "tx", "add", "--date", "2024-08-02", "--desc", "Rent",
		"--split", "expense-rent=300", "--split", "asset-cash=-300")

	out := zenith(t, dir, "tx", "list", "--account", "asset-bank")
	assert.Contains(t, out, "Fees")
	assert.Contains(t, out, "500.00 Dr")
	assert.NotContains(t, out, "Rent")

	out = zenith(t, dir, "tx", "list", "--from", "2024-08-02", "--to", "2024-08-31")
	assert.Contains(t, out, "Rent")
	assert.NotContains(t, out, "Fees")
}

func TestAccountsAdd_WithOpening(t *testing.T) {
	dir := newLedger(t)

	out := zenith(t, dir, "accounts", "add", "--id", "asset-savings", "--name", "Savings",
		"--type", "asset", "--parent", "asset-current", "--opening", "500", "--opening-date", "2024-07-01")
	assert.Equal(t, "asset-savings\n", out)

	show := zenith(t, dir, "accounts", "show", "asset-savings")
	assert.Contains(t, show, "Savings")
	assert.Contains(t, show, "Opening:")
	assert.Contains(t, show, "500.00 on 2024-07-01")

	assert.Contains(t, zenith(t, dir, "balance", "root-asset"), "500.00")
	assert.Contains(t, zenith(t, dir, "opening", "get", "asset-savings"), "500.00")
}

func TestAccountsAdd_Rejected(t *testing.T) {
	dir := newLedger(t)

	_, errOut, err := runZenith(t, nil, "--repo", dir, "accounts", "add", "--id", "asset-bank", "--name", "Again", "--type", "asset")
	require.Error(t, err)
	assert.Contains(t, errOut, "duplicate account id")

	_, errOut, err = runZenith(t, nil, "--repo", dir, "accounts", "add", "--name", "Orphan", "--type", "asset", "--parent", "missing")
	require.Error(t, err)
	assert.Contains(t, errOut, "missing")

	_, errOut, err = runZenith(t, nil, "--repo", dir, "accounts", "add", "--name", "Odd", "--type", "gadget")
	require.Error(t, err)
	assert.Contains(t, errOut, "gadget")
}

func TestAccountsEdit(t *testing.T) {
	dir := newLedger(t)
	zenith(t, dir, "tx", "add", "--date", "2024-08-01", "--desc", "Fees",
		"--split", "asset-bank=500", "--split", "income-fees=-500")

	zenith(t, dir, "accounts", "edit", "asset-bank", "--name", "Main Bank", "--description", "HBL current")
	show := zenith(t, dir, "accounts", "show", "asset-bank")
	assert.Contains(t, show, "Main Bank")
	assert.Contains(t, show, "HBL current")
	assert.Contains(t, show, "Fees")

	_, errOut, err := runZenith(t, nil, "--repo", dir, "accounts", "edit", "asset-bank", "--placeholder")
	require.Error(t, err)
	assert.Contains(t, errOut, "cannot become a placeholder")

	zenith(t, dir, "accounts", "edit", "asset-bank", "--opening", "250", "--opening-date", "2024-07-01")
	assert.Contains(t, zenith(t, dir, "balance", "asset-bank"), "750.00")
	zenith(t, dir, "accounts", "edit", "asset-bank", "--opening", "0")
	assert.Contains(t, zenith(t, dir, "opening", "get", "asset-bank"), "No opening balance")
}

func TestAccountsTree(t *testing.T) {
	dir := newLedger(t)
	zenith(t, dir, "opening", "set", "asset-bank", "1000", "--date", "2024-07-01")

	out := zenith(t, dir, "accounts", "tree")
	assert.Contains(t, out, "Assets *")
	assert.Contains(t, out, "  Current Assets *")
	assert.Contains(t, out, "    Bank Account")
	assert.Contains(t, out, "Opening Balances")

	sub := zenith(t, dir, "accounts", "tree", "expense-utilities")
	assert.Contains(t, sub, "Electricity Bill")
	assert.NotContains(t, sub, "Bank Account")

	_, errOut, err := runZenith(t, nil, "--repo", dir, "accounts", "tree", "nope")
	require.Error(t, err)
	assert.Contains(t, errOut, "nope")
}

func TestBudget(t *testing.T) {
	dir := newLedger(t)
	zenith(t, dir, "tx", "add", "--date", "2024-09-01", "--desc", "Rent",
		"--split", "expense-rent=4000", "--split", "asset-bank=-4000")

	assert.Contains(t, zenith(t, dir, "budget", "get", "expense-rent", "--year", "2024"), "No budget")
	assert.Contains(t, zenith(t, dir, "budget", "set", "expense-rent", "12000", "--year", "2024"), "FY2024")
	assert.Contains(t, zenith(t, dir, "budget", "get", "expense-rent", "--year", "2024"), "12,000.00")

	report := zenith(t, dir, "budget", "report", "--year", "2024")
	assert.Contains(t, report, "FY2024 (2024-07-01 to 2025-06-30)")
	var rent string
	for _, line := range strings.Split(report, "\n") {
		if strings.HasPrefix(line, "Rent") {
			rent = line
		}
	}
	require.NotEmpty(t, rent, report)
	assert.Contains(t, rent, "12,000.00")
	assert.Contains(t, rent, "4,000.00")
	assert.Contains(t, rent, "8,000.00")

	_, errOut, err := runZenith(t, nil, "--repo", dir, "budget", "set", "expense-nope", "1", "--year", "2024")
	require.Error(t, err)
	assert.Contains(t, errOut, "expense-nope")
}

func TestLog(t *testing.T) {
	dir := newLedger(t)
	assert.Contains(t, zenith(t, dir, "log"), "No activity.")

	zenith(t, dir, "opening", "set", "asset-bank", "1000", "--date", "2024-07-01")
	zenith(t, dir, "budget", "set", "expense-rent", "12000", "--year", "2024")

	out := zenith(t, dir, "log")
	assert.Contains(t, out, "transaction.add")
	assert.Contains(t, out, "budget.set")
	assert.Contains(t, out, "2024-expense-rent")

	last := zenith(t, dir, "log", "-n", "1")
	assert.NotContains(t, last, "transaction.add")
}

func TestAutoCommit(t *testing.T) {
	dir := newLedger(t)
	zenith(t, dir, "tx", "add", "--date", "2024-08-01", "--desc", "Fees",
		"--split", "asset-bank=500", "--split", "income-fees=-500")

	log := exec.Command("git", "log", "--format=%s")
	log.Dir = dir
	out, err := log.Output()
	require.NoError(t, err)
	assert.Contains(t, string(out), "tx: Add Fees")

	status := exec.Command("git", "status", "--porcelain")
	status.Dir = dir
	out, err = status.Output()
	require.NoError(t, err)
	assert.Empty(t, strings.TrimSpace(string(out)))
}

func TestEnvOverrides(t *testing.T) {
	dir := newLedger(t)
	zenith(t, dir, "opening", "set", "asset-bank", "1000", "--date", "2024-07-01")

	out, _, err := runZenith(t, []string{"ZENITH_CURRENCY=USD"}, "--repo", dir, "balance", "asset-bank")
	require.NoError(t, err)
	assert.Contains(t, out, "$1,000.00")

	// A memory backend starts empty on every run.
	out, _, err = runZenith(t, []string{"ZENITH_STORAGE_BACKEND=memory"}, "--repo", dir, "opening", "get", "asset-bank")
	require.NoError(t, err)
	assert.Contains(t, out, "No opening balance")
}

func TestMissingConfig(t *testing.T) {
	_, errOut, err := runZenith(t, nil, "--repo", t.TempDir(), "balance")
	require.Error(t, err)
	assert.Contains(t, errOut, "zenith init")
}

func TestCorruptJournalIsDegraded(t *testing.T) {
	dir := newLedger(t)
	require.NoError(t, writeFile(dir, "journal/transactions.csv", "not,a,journal\n"))

	out, errOut, err := runZenith(t, nil, "--repo", dir, "accounts", "tree")
	require.NoError(t, err)
	assert.Contains(t, errOut, "loading books failed")
	assert.Contains(t, out, "Bank Account")
}
