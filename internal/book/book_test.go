package book

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/zenith-ledger/zenith/internal/accounts"
	"github.com/zenith-ledger/zenith/internal/balance"
	"github.com/zenith-ledger/zenith/internal/errs"
	"github.com/zenith-ledger/zenith/internal/model"
	"github.com/zenith-ledger/zenith/internal/persist"
)

var errDisk = errors.New("disk full")

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func split(account, amount string) model.Split {
	return model.Split{AccountID: account, Amount: dec(amount)}
}

func assertDec(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), append([]any{"want %s, got %s", want, got.String()}, msgAndArgs...)...)
}

type recorder struct {
	mu    sync.Mutex
	lines []string
	err   error
}

func (r *recorder) Record(action, subject, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, action+" "+subject)
	return r.err
}

func openMemory(t *testing.T, opts ...Option) (*Book, *persist.Memory) {
	t.Helper()
	mem := persist.NewMemory()
	b := Open(context.Background(), mem, opts...)
	require.False(t, b.Degraded(), "load error: %v", b.LoadErr())
	return b, mem
}

func TestOpen_SeedsDefaultChart(t *testing.T) {
	b, mem := openMemory(t)

	stored, err := mem.LoadAccounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, accounts.DefaultChart(), stored)
	assert.Len(t, b.Accounts(), len(accounts.DefaultChart()))

	_, err = b.FindAccount(accounts.OpeningBalancesID)
	require.NoError(t, err)
}

func TestOpen_LoadFailureIsDegraded(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	mem := persist.NewMemory()
	mem.Fail(persist.OpLoadTransactions, errDisk)

	b := Open(context.Background(), mem, WithLogger(zap.New(core)))

	assert.True(t, b.Degraded())
	require.ErrorIs(t, b.LoadErr(), errs.ErrPersistence)
	assert.ErrorIs(t, b.LoadErr(), errDisk)
	assert.Len(t, b.Accounts(), len(accounts.DefaultChart()), "falls back to the default chart")
	assert.Empty(t, b.AllTransactions())
	assert.Equal(t, 1, logs.FilterMessage("loading books failed, starting from the default chart").Len())
}

func TestOpen_LoadsExistingState(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	fb, err := persist.NewFile(dir)
	require.NoError(t, err)
	b := Open(ctx, fb)
	_, err = b.AddTransaction(ctx, date(2024, 8, 1), "Rent", []model.Split{
		split("expense-rent", "500"), split("asset-bank", "-500"),
	})
	require.NoError(t, err)
	require.NoError(t, b.SetBudget(ctx, 2024, "expense-rent", dec("6000")))

	fb2, err := persist.NewFile(dir)
	require.NoError(t, err)
	reopened := Open(ctx, fb2)
	require.False(t, reopened.Degraded())

	got, err := reopened.Balance("expense-rent")
	require.NoError(t, err)
	assertDec(t, "500", got)
	assertDec(t, "6000", reopened.BudgetFor(2024, "expense-rent"))
}

func TestScenario_OpeningThenBill(t *testing.T) {
	b, _ := openMemory(t)
	ctx := context.Background()

	_, ok, err := b.SetOpeningBalance(ctx, "asset-bank", dec("1000"), date(2024, 7, 1))
	require.NoError(t, err)
	require.True(t, ok)

	txns := b.AllTransactions()
	require.Len(t, txns, 1)
	ob := txns[0]
	require.Len(t, ob.Splits, 2)
	bank, _ := ob.AmountFor("asset-bank")
	offset, _ := ob.AmountFor(accounts.OpeningBalancesID)
	assertDec(t, "1000", bank)
	assertDec(t, "-1000", offset)

	got, err := b.Balance("asset-bank")
	require.NoError(t, err)
	assertDec(t, "1000", got)
	got, err = b.Balance(accounts.OpeningBalancesID)
	require.NoError(t, err)
	assertDec(t, "-1000", got)

	_, err = b.AddTransaction(ctx, date(2024, 8, 15), "Electricity", []model.Split{
		split("expense-utilities-electricity", "200"),
		split("asset-bank", "-200"),
	})
	require.NoError(t, err)

	got, err = b.Balance("expense-utilities-electricity")
	require.NoError(t, err)
	assertDec(t, "200", got)
	got, err = b.Balance("expense-utilities")
	require.NoError(t, err)
	assertDec(t, "200", got, "parent includes child")
	got, err = b.Balance("asset-bank")
	require.NoError(t, err)
	assertDec(t, "800", got)

	got, err = b.BalanceAsOf("asset-bank", date(2024, 8, 14))
	require.NoError(t, err)
	assertDec(t, "1000", got)
}

func TestScenario_UnbalancedLeavesLedgerUnchanged(t *testing.T) {
	b, mem := openMemory(t)
	ctx := context.Background()

	before := len(b.AllTransactions())
	_, err := b.AddTransaction(ctx, date(2024, 8, 1), "Oops", []model.Split{
		split("expense-rent", "105"),
		split("asset-bank", "-100"),
	})
	require.ErrorIs(t, err, errs.ErrValidation)
	assert.Len(t, b.AllTransactions(), before)
	assert.NotContains(t, mem.Calls(), persist.OpAddTransaction, "nothing reaches the backend")
}

func TestAddTransaction_Validation(t *testing.T) {
	b, _ := openMemory(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		splits []model.Split
	}{
		{"one split", []model.Split{split("asset-bank", "0")}},
		{"zeros filtered to one", []model.Split{split("asset-bank", "10"), split("asset-cash", "0")}},
		{"unknown account", []model.Split{split("asset-bank", "10"), split("nope", "-10")}},
		{"placeholder", []model.Split{split("asset-current", "10"), split("asset-bank", "-10")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := b.AddTransaction(ctx, date(2024, 8, 1), tt.name, tt.splits)
			assert.ErrorIs(t, err, errs.ErrValidation)
		})
	}
	assert.Empty(t, b.AllTransactions())
}

func TestAddTransaction_WithinEpsilon(t *testing.T) {
	b, _ := openMemory(t)
	txn, err := b.AddTransaction(context.Background(), date(2024, 8, 1), "Rounding", []model.Split{
		split("expense-supplies", "33.3335"),
		split("asset-cash", "-33.333"),
		split("income-other", "0"),
	})
	require.NoError(t, err)
	assert.Len(t, txn.Splits, 2, "zero split dropped")
	assert.NotEmpty(t, txn.ID)
}

func TestAddTransaction_PersistFailureRollsBack(t *testing.T) {
	b, mem := openMemory(t)
	ctx := context.Background()
	mem.Fail(persist.OpAddTransaction, errDisk)

	_, err := b.AddTransaction(ctx, date(2024, 8, 1), "Rent", []model.Split{
		split("expense-rent", "500"), split("asset-bank", "-500"),
	})
	require.ErrorIs(t, err, errs.ErrPersistence)
	assert.ErrorIs(t, err, errDisk)
	assert.Empty(t, b.AllTransactions())

	got, err := b.Balance("expense-rent")
	require.NoError(t, err)
	assert.True(t, got.IsZero())
}

func TestDeleteTransaction(t *testing.T) {
	b, mem := openMemory(t)
	ctx := context.Background()

	txn, err := b.AddTransaction(ctx, date(2024, 8, 1), "Rent", []model.Split{
		split("expense-rent", "500"), split("asset-bank", "-500"),
	})
	require.NoError(t, err)

	mem.Fail(persist.OpDeleteTransaction, errDisk)
	require.ErrorIs(t, b.DeleteTransaction(ctx, txn.ID), errs.ErrPersistence)
	assert.Len(t, b.AllTransactions(), 1, "kept when the backend fails")

	mem.Heal()
	require.NoError(t, b.DeleteTransaction(ctx, txn.ID))
	assert.Empty(t, b.AllTransactions())

	assert.ErrorIs(t, b.DeleteTransaction(ctx, txn.ID), errs.ErrNotFound)
}

func TestUpdateTransaction(t *testing.T) {
	b, mem := openMemory(t)
	ctx := context.Background()

	txn, err := b.AddTransaction(ctx, date(2024, 8, 1), "Rent", []model.Split{
		split("expense-rent", "500"), split("asset-bank", "-500"),
	})
	require.NoError(t, err)

	txn.Description = "Rent, August"
	txn.Splits = []model.Split{split("expense-rent", "550"), split("asset-bank", "-550")}
	_, err = b.UpdateTransaction(ctx, txn)
	require.NoError(t, err)

	got, err := b.Transaction(txn.ID)
	require.NoError(t, err)
	assert.Equal(t, "Rent, August", got.Description)
	bal, err := b.Balance("expense-rent")
	require.NoError(t, err)
	assertDec(t, "550", bal)

	stored, err := mem.LoadTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "Rent, August", stored[0].Description)

	txn.Splits = []model.Split{split("expense-rent", "1"), split("asset-bank", "-2")}
	_, err = b.UpdateTransaction(ctx, txn)
	assert.ErrorIs(t, err, errs.ErrValidation)

	_, err = b.UpdateTransaction(ctx, model.Transaction{ID: "nope"})
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestTransactionsForAccount_NewestFirst(t *testing.T) {
	b, _ := openMemory(t)
	ctx := context.Background()

	for _, d := range []time.Time{date(2024, 8, 1), date(2024, 9, 1), date(2024, 7, 15)} {
		_, err := b.AddTransaction(ctx, d, "Supplies", []model.Split{
			split("expense-supplies", "10"), split("asset-cash", "-10"),
		})
		require.NoError(t, err)
	}

	got, err := b.TransactionsForAccount("asset-cash")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, date(2024, 9, 1), got[0].Date)
	assert.Equal(t, date(2024, 8, 1), got[1].Date)
	assert.Equal(t, date(2024, 7, 15), got[2].Date)

	_, err = b.TransactionsForAccount("nope")
	assert.ErrorIs(t, err, errs.ErrNotFound)

	assert.Len(t, b.TransactionsBetween(date(2024, 8, 1), date(2024, 9, 1)), 2)
}

func TestOpeningBalance_ReplaceAndZero(t *testing.T) {
	b, _ := openMemory(t)
	ctx := context.Background()

	_, _, err := b.SetOpeningBalance(ctx, "income-fees", dec("500"), date(2024, 7, 1))
	require.NoError(t, err)
	_, _, err = b.SetOpeningBalance(ctx, "income-fees", dec("800"), date(2024, 7, 2))
	require.NoError(t, err)

	assert.Len(t, b.AllTransactions(), 1)
	got, ok, err := b.OpeningBalance("income-fees")
	require.NoError(t, err)
	require.True(t, ok)
	assertDec(t, "800", got.Amount)
	assert.Equal(t, date(2024, 7, 2), got.Date)

	raw, err := b.Balance("income-fees")
	require.NoError(t, err)
	assertDec(t, "-800", raw, "credit-normal is stored negated")

	_, ok, err = b.SetOpeningBalance(ctx, "income-fees", decimal.Zero, date(2024, 7, 2))
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = b.OpeningBalance("income-fees")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, b.AllTransactions())
}

func TestOpeningBalance_MissingOffsetAccount(t *testing.T) {
	ctx := context.Background()
	mem := persist.NewMemory()
	var chart []model.Account
	for _, a := range accounts.DefaultChart() {
		if a.ID != accounts.OpeningBalancesID {
			chart = append(chart, a)
		}
	}
	require.NoError(t, mem.ReplaceAccounts(ctx, chart))
	b := Open(ctx, mem)

	_, _, err := b.SetOpeningBalance(ctx, "asset-bank", dec("100"), date(2024, 7, 1))
	var ce *errs.ConfigurationError
	require.ErrorAs(t, err, &ce)
	assert.Empty(t, b.AllTransactions())

	_, err = b.AddAccount(ctx, model.Account{Name: "Savings", Type: model.AccountTypeAsset, ParentID: "asset-current"},
		&OpeningInput{Amount: dec("100"), Date: date(2024, 7, 1)})
	require.ErrorIs(t, err, errs.ErrConfiguration)
	assert.Len(t, b.Accounts(), len(chart), "account not created either")
}

func TestOpeningBalance_PersistFailureKeepsPrior(t *testing.T) {
	b, mem := openMemory(t)
	ctx := context.Background()

	first, _, err := b.SetOpeningBalance(ctx, "asset-bank", dec("500"), date(2024, 7, 1))
	require.NoError(t, err)

	mem.FailOnce(persist.OpAddTransaction, errDisk)
	_, _, err = b.SetOpeningBalance(ctx, "asset-bank", dec("800"), date(2024, 7, 2))
	require.ErrorIs(t, err, errs.ErrPersistence)

	got, ok, err := b.OpeningBalance("asset-bank")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, first.TransactionID, got.TransactionID)
	assertDec(t, "500", got.Amount)

	stored, err := mem.LoadTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, first.TransactionID, stored[0].ID)
}

func TestOpeningBalance_RestoreFailureStaysConsistent(t *testing.T) {
	b, mem := openMemory(t)
	ctx := context.Background()

	_, _, err := b.SetOpeningBalance(ctx, "asset-bank", dec("500"), date(2024, 7, 1))
	require.NoError(t, err)

	mem.Fail(persist.OpAddTransaction, errDisk)
	_, _, err = b.SetOpeningBalance(ctx, "asset-bank", dec("800"), date(2024, 7, 2))
	require.ErrorIs(t, err, errs.ErrPersistence)

	mem.Heal()
	stored, err := mem.LoadTransactions(ctx)
	require.NoError(t, err)
	assert.Len(t, b.AllTransactions(), len(stored), "memory matches the backend")
}

func TestAddAccount(t *testing.T) {
	rec := &recorder{}
	b, mem := openMemory(t, WithRecorder(rec))
	ctx := context.Background()

	acct, err := b.AddAccount(ctx, model.Account{
		Name:     "Savings",
		Type:     model.AccountTypeAsset,
		ParentID: "asset-current",
	}, &OpeningInput{Amount: dec("2500"), Date: date(2024, 7, 1)})
	require.NoError(t, err)
	assert.NotEmpty(t, acct.ID)

	stored, err := mem.LoadAccounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, acct, stored[len(stored)-1])

	ob, ok, err := b.OpeningBalance(acct.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assertDec(t, "2500", ob.Amount)
	assert.Equal(t, "Opening Balance for Savings", b.AllTransactions()[0].Description)

	current, err := b.Balance("asset-current")
	require.NoError(t, err)
	assertDec(t, "2500", current)

	kids, err := b.Children("asset-current")
	require.NoError(t, err)
	assert.Len(t, kids, 3)

	assert.Contains(t, rec.lines, "account.add "+acct.ID)

	_, err = b.AddAccount(ctx, model.Account{ID: "asset-bank", Name: "Dup", Type: model.AccountTypeAsset}, nil)
	assert.ErrorIs(t, err, errs.ErrValidation)

	_, err = b.AddAccount(ctx, model.Account{Name: "Orphan", Type: model.AccountTypeAsset, ParentID: "nope"}, nil)
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestAddAccount_PlaceholderIgnoresOpening(t *testing.T) {
	b, _ := openMemory(t)
	_, err := b.AddAccount(context.Background(), model.Account{
		Name: "Fixed Assets", Type: model.AccountTypeAsset, ParentID: accounts.RootAssetID, Placeholder: true,
	}, &OpeningInput{Amount: dec("100"), Date: date(2024, 7, 1)})
	require.NoError(t, err)
	assert.Empty(t, b.AllTransactions())
}

func TestAddAccount_PersistFailure(t *testing.T) {
	b, mem := openMemory(t)
	mem.Fail(persist.OpAddAccount, errDisk)

	_, err := b.AddAccount(context.Background(), model.Account{Name: "Savings", Type: model.AccountTypeAsset}, nil)
	require.ErrorIs(t, err, errs.ErrPersistence)
	assert.Len(t, b.Accounts(), len(accounts.DefaultChart()))
}

func TestUpdateAccount(t *testing.T) {
	b, _ := openMemory(t)
	ctx := context.Background()

	bank, err := b.FindAccount("asset-bank")
	require.NoError(t, err)
	bank.Name = "Main Bank"
	_, err = b.UpdateAccount(ctx, bank, &OpeningInput{Amount: dec("300"), Date: date(2024, 7, 1)})
	require.NoError(t, err)

	got, err := b.FindAccount("asset-bank")
	require.NoError(t, err)
	assert.Equal(t, "Main Bank", got.Name)
	ob, ok, err := b.OpeningBalance("asset-bank")
	require.NoError(t, err)
	require.True(t, ok)
	assertDec(t, "300", ob.Amount)

	_, err = b.UpdateAccount(ctx, bank, nil)
	require.NoError(t, err)
	_, ok, err = b.OpeningBalance("asset-bank")
	require.NoError(t, err)
	assert.True(t, ok, "nil leaves the opening balance alone")

	_, err = b.AddTransaction(ctx, date(2024, 7, 5), "Rent", []model.Split{
		split("expense-rent", "100"),
		split("asset-bank", "-100"),
	})
	require.NoError(t, err)
	bank.Placeholder = true
	_, err = b.UpdateAccount(ctx, bank, nil)
	assert.ErrorIs(t, err, errs.ErrValidation, "has transactions")

	cur, err := b.FindAccount("asset-current")
	require.NoError(t, err)
	cur.ParentID = "asset-bank"
	_, err = b.UpdateAccount(ctx, cur, nil)
	assert.ErrorIs(t, err, errs.ErrValidation, "would create a cycle")

	_, err = b.UpdateAccount(ctx, model.Account{ID: "nope", Name: "x", Type: model.AccountTypeAsset}, nil)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestUpdateAccount_TypeChangeKeepsOpeningAmount(t *testing.T) {
	b, _ := openMemory(t)
	ctx := context.Background()

	card, err := b.AddAccount(ctx, model.Account{
		Name: "Card", Type: model.AccountTypeAsset, ParentID: accounts.RootAssetID,
	}, &OpeningInput{Amount: dec("100"), Date: date(2024, 7, 1)})
	require.NoError(t, err)
	raw, err := b.Balance(card.ID)
	require.NoError(t, err)
	assertDec(t, "100", raw)

	card.Type = model.AccountTypeLiability
	card.ParentID = accounts.RootLiabilityID
	_, err = b.UpdateAccount(ctx, card, nil)
	require.NoError(t, err)

	ob, ok, err := b.OpeningBalance(card.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assertDec(t, "100", ob.Amount)
	assert.True(t, date(2024, 7, 1).Equal(ob.Date))

	raw, err = b.Balance(card.ID)
	require.NoError(t, err)
	assertDec(t, "-100", raw, "a liability opening balance is a credit")
	assert.Len(t, b.AllTransactions(), 1)
}

func TestUpdateAccount_RenameUpdatesOpeningDescription(t *testing.T) {
	b, _ := openMemory(t)
	ctx := context.Background()

	acct, err := b.AddAccount(ctx, model.Account{
		Name: "Savings", Type: model.AccountTypeAsset, ParentID: "asset-current",
	}, &OpeningInput{Amount: dec("2500"), Date: date(2024, 7, 1)})
	require.NoError(t, err)

	acct.Name = "Emergency Fund"
	_, err = b.UpdateAccount(ctx, acct, nil)
	require.NoError(t, err)

	txns := b.AllTransactions()
	require.Len(t, txns, 1)
	assert.Equal(t, "Opening Balance for Emergency Fund", txns[0].Description)
	ob, ok, err := b.OpeningBalance(acct.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assertDec(t, "2500", ob.Amount)
}

func TestUpdateAccount_PlaceholderDropsOpening(t *testing.T) {
	b, mem := openMemory(t)
	ctx := context.Background()

	acct, err := b.AddAccount(ctx, model.Account{
		Name: "Investments", Type: model.AccountTypeAsset, ParentID: accounts.RootAssetID,
	}, &OpeningInput{Amount: dec("100"), Date: date(2024, 7, 1)})
	require.NoError(t, err)

	acct.Placeholder = true
	_, err = b.UpdateAccount(ctx, acct, &OpeningInput{Amount: decimal.Zero, Date: date(2024, 7, 1)})
	require.NoError(t, err)

	got, err := b.FindAccount(acct.ID)
	require.NoError(t, err)
	assert.True(t, got.Placeholder)
	_, ok, err := b.OpeningBalance(acct.ID)
	require.NoError(t, err)
	assert.False(t, ok)
	raw, err := b.Balance(acct.ID)
	require.NoError(t, err)
	assert.True(t, raw.IsZero())

	stored, err := mem.LoadTransactions(ctx)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestUpdateAccount_PlaceholderPersistFailureRestoresOpening(t *testing.T) {
	b, mem := openMemory(t)
	ctx := context.Background()

	acct, err := b.AddAccount(ctx, model.Account{
		Name: "Investments", Type: model.AccountTypeAsset, ParentID: accounts.RootAssetID,
	}, &OpeningInput{Amount: dec("100"), Date: date(2024, 7, 1)})
	require.NoError(t, err)

	mem.FailOnce(persist.OpUpdateAccount, errDisk)
	acct.Placeholder = true
	_, err = b.UpdateAccount(ctx, acct, nil)
	require.ErrorIs(t, err, errs.ErrPersistence)

	got, err := b.FindAccount(acct.ID)
	require.NoError(t, err)
	assert.False(t, got.Placeholder)
	ob, ok, err := b.OpeningBalance(acct.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assertDec(t, "100", ob.Amount)
}

func TestAddAccount_OpeningFailureKeepsAccount(t *testing.T) {
	b, mem := openMemory(t)
	mem.FailOnce(persist.OpAddTransaction, errDisk)

	acct, err := b.AddAccount(context.Background(), model.Account{
		Name: "Savings", Type: model.AccountTypeAsset, ParentID: "asset-current",
	}, &OpeningInput{Amount: dec("2500"), Date: date(2024, 7, 1)})
	require.ErrorIs(t, err, errs.ErrPersistence)
	assert.Contains(t, err.Error(), "created without opening balance")
	require.NotEmpty(t, acct.ID)

	got, err := b.FindAccount(acct.ID)
	require.NoError(t, err)
	assert.Equal(t, "Savings", got.Name)
	_, ok, err := b.OpeningBalance(acct.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHierarchy(t *testing.T) {
	b, _ := openMemory(t)
	roots, err := b.Hierarchy("")
	require.NoError(t, err)
	require.Len(t, roots, 5)
	for _, r := range roots {
		assert.Equal(t, 0, r.Depth)
		assert.True(t, r.Account.IsRoot())
	}

	_, err = b.Hierarchy("nope")
	assert.ErrorIs(t, err, errs.ErrNotFound)

	// A new account shows up right away.
	_, err = b.AddAccount(context.Background(), model.Account{
		ID: "asset-savings", Name: "Savings", Type: model.AccountTypeAsset, ParentID: "asset-current",
	}, nil)
	require.NoError(t, err)
	sub, err := b.Hierarchy("asset-current")
	require.NoError(t, err)
	names := make([]string, len(sub))
	for i, n := range sub {
		names[i] = n.Account.Name
	}
	assert.Contains(t, names, "Savings")
}

func TestBudgets(t *testing.T) {
	b, mem := openMemory(t)
	ctx := context.Background()

	require.NoError(t, b.SetBudget(ctx, 2024, "expense-rent", dec("12000")))
	require.NoError(t, b.SetBudget(ctx, 2024, "expense-supplies", decimal.Zero))
	assertDec(t, "12000", b.BudgetFor(2024, "expense-rent"))
	assert.True(t, b.BudgetFor(2025, "expense-rent").IsZero())

	_, ok := b.LookupBudget(2024, "expense-supplies")
	assert.True(t, ok, "explicit zero kept")
	_, ok = b.LookupBudget(2024, "expense-salaries")
	assert.False(t, ok)

	stored, err := mem.LoadBudgets(ctx)
	require.NoError(t, err)
	assert.Len(t, stored, 2)

	mem.Fail(persist.OpReplaceBudgets, errDisk)
	require.ErrorIs(t, b.SetBudget(ctx, 2024, "expense-rent", dec("1")), errs.ErrPersistence)
	assertDec(t, "12000", b.BudgetFor(2024, "expense-rent"), "unchanged on failure")

	mem.Heal()
	require.ErrorIs(t, b.SetBudget(ctx, -1, "expense-rent", dec("5")), errs.ErrValidation)
	_, ok = b.LookupBudget(-1, "expense-rent")
	assert.False(t, ok)
	stored, err = mem.LoadBudgets(ctx)
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestBudgetReport(t *testing.T) {
	b, _ := openMemory(t)
	ctx := context.Background()

	require.NoError(t, b.SetBudget(ctx, 2024, "expense-rent", dec("1200")))
	_, err := b.AddTransaction(ctx, date(2025, 3, 1), "Rent", []model.Split{
		split("expense-rent", "1000"), split("asset-bank", "-1000"),
	})
	require.NoError(t, err)

	assert.Equal(t, 2024, b.FiscalYearOf(date(2025, 3, 1)))

	rows, err := b.BudgetReport(2024)
	require.NoError(t, err)
	var found bool
	for _, r := range rows {
		if r.Account.ID == "expense-rent" {
			found = true
			assertDec(t, "1000", r.Actual)
			assertDec(t, "200", r.Remaining)
		}
	}
	assert.True(t, found)
}

func TestSnapshotRestore_RoundTrip(t *testing.T) {
	b, _ := openMemory(t)
	ctx := context.Background()

	_, _, err := b.SetOpeningBalance(ctx, "asset-bank", dec("1000"), date(2024, 7, 1))
	require.NoError(t, err)
	_, err = b.AddTransaction(ctx, date(2024, 8, 15), "Electricity", []model.Split{
		split("expense-utilities-electricity", "200"), split("asset-bank", "-200"),
	})
	require.NoError(t, err)
	_, err = b.AddTransaction(ctx, date(2024, 9, 10), "Fees", []model.Split{
		split("asset-bank", "3000"), split("income-fees", "-3000"),
	})
	require.NoError(t, err)
	require.NoError(t, b.SetBudget(ctx, 2024, "expense-rent", dec("100")))

	snap := b.Snapshot()
	cuts := []balance.Cutoff{balance.Unbounded, balance.AsOf(date(2024, 7, 1)), balance.AsOf(date(2024, 8, 31))}
	want := make([]map[string]decimal.Decimal, len(cuts))
	for i, c := range cuts {
		want[i], err = b.Balances(c)
		require.NoError(t, err)
	}

	other, _ := openMemory(t)
	require.NoError(t, other.Restore(ctx, snap))
	for i, c := range cuts {
		got, err := other.Balances(c)
		require.NoError(t, err)
		require.Len(t, got, len(want[i]))
		for id, v := range want[i] {
			assert.True(t, v.Equal(got[id]), "%s at cut %d", id, i)
		}
	}
	assertDec(t, "100", other.BudgetFor(2024, "expense-rent"))

	ob, ok, err := other.OpeningBalance("asset-bank")
	require.NoError(t, err)
	require.True(t, ok, "opening balance identity survives restore")
	assertDec(t, "1000", ob.Amount)
}

func TestRestore_RejectsInvalid(t *testing.T) {
	b, mem := openMemory(t)
	ctx := context.Background()

	snap := b.Snapshot()
	snap.Transactions = []model.Transaction{{
		ID: "bad", Date: date(2024, 1, 1),
		Splits: []model.Split{split("asset-bank", "5"), split("asset-cash", "-1")},
	}}
	require.ErrorIs(t, b.Restore(ctx, snap), errs.ErrValidation)
	var replaces int
	for _, c := range mem.Calls() {
		if c == persist.OpReplaceAccounts {
			replaces++
		}
	}
	assert.Equal(t, 1, replaces, "only the initial seed reached the backend")

	snap = b.Snapshot()
	snap.Accounts = append(snap.Accounts,
		model.Account{ID: "a", Name: "A", Type: model.AccountTypeAsset, ParentID: "b"},
		model.Account{ID: "b", Name: "B", Type: model.AccountTypeAsset, ParentID: "a"},
	)
	require.Error(t, b.Restore(ctx, snap))
	assert.Len(t, b.Accounts(), len(accounts.DefaultChart()))
}

func TestRestore_RollsBackOnFailure(t *testing.T) {
	b, mem := openMemory(t)
	ctx := context.Background()
	_, err := b.AddTransaction(ctx, date(2024, 8, 1), "Rent", []model.Split{
		split("expense-rent", "500"), split("asset-bank", "-500"),
	})
	require.NoError(t, err)

	snap := b.Snapshot()
	snap.Accounts = append(snap.Accounts, model.Account{ID: "asset-new", Name: "New", Type: model.AccountTypeAsset})
	snap.Transactions = nil

	mem.Fail(persist.OpReplaceBudgets, errDisk)
	require.ErrorIs(t, b.Restore(ctx, snap), errs.ErrPersistence)

	stored, err := mem.LoadAccounts(ctx)
	require.NoError(t, err)
	assert.Len(t, stored, len(accounts.DefaultChart()), "accounts rolled back")
	txns, err := mem.LoadTransactions(ctx)
	require.NoError(t, err)
	assert.Len(t, txns, 1, "transactions rolled back")
	assert.Len(t, b.AllTransactions(), 1)
}

func TestRestore_ClearsDegraded(t *testing.T) {
	ctx := context.Background()
	mem := persist.NewMemory()
	mem.Fail(persist.OpLoadBudgets, errDisk)
	b := Open(ctx, mem)
	require.True(t, b.Degraded())

	mem.Heal()
	require.NoError(t, b.Restore(ctx, b.Snapshot()))
	assert.False(t, b.Degraded())
	assert.NoError(t, b.LoadErr())
}

func TestRecorderFailureDoesNotUndo(t *testing.T) {
	rec := &recorder{err: errors.New("log unavailable")}
	b, _ := openMemory(t, WithRecorder(rec))

	_, err := b.AddTransaction(context.Background(), date(2024, 8, 1), "Rent", []model.Split{
		split("expense-rent", "500"), split("asset-bank", "-500"),
	})
	require.NoError(t, err)
	assert.Len(t, b.AllTransactions(), 1)
}

func TestConcurrentReadsAndWrites(t *testing.T) {
	b, _ := openMemory(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				_, err := b.AddTransaction(ctx, date(2024, 8, 1), "Supplies", []model.Split{
					split("expense-supplies", "1"), split("asset-cash", "-1"),
				})
				assert.NoError(t, err)
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				_, err := b.Balance(accounts.RootAssetID)
				assert.NoError(t, err)
				_, err = b.Hierarchy("")
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	got, err := b.Balance("expense-supplies")
	require.NoError(t, err)
	assertDec(t, "100", got)
}

func TestFileBackendEndToEnd(t *testing.T) {
	ctx := context.Background()
	fb, err := persist.Open(persist.KindFile, filepath.Join(t.TempDir(), "books"))
	require.NoError(t, err)
	b := Open(ctx, fb)
	defer b.Close()

	_, _, err = b.SetOpeningBalance(ctx, "liability-payable", dec("250"), date(2024, 7, 1))
	require.NoError(t, err)

	fb2, err := persist.Open(persist.KindFile, fb.(*persist.File).Root())
	require.NoError(t, err)
	again := Open(ctx, fb2)
	ob, ok, err := again.OpeningBalance("liability-payable")
	require.NoError(t, err)
	require.True(t, ok)
	assertDec(t, "250", ob.Amount)
}
