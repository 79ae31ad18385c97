package persist

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/zenith-ledger/zenith/internal/accounts"
	"github.com/zenith-ledger/zenith/internal/journal"
	"github.com/zenith-ledger/zenith/internal/model"
)

// Repo-relative paths used by the file backend.
const (
	AccountsFile     = "accounts/chart-of-accounts.csv"
	TransactionsFile = "journal/transactions.csv"
	BudgetsFile      = "budgets/budgets.yaml"
)

// File stores the book as plain files under a repo directory so it can
// be diffed and committed with git. Missing files load as empty.
type File struct {
	root string
}

type budgetsDoc struct {
	Budgets map[string]string `yaml:"budgets"`
}

// NewFile creates a file backend rooted at dir, creating it if needed.
func NewFile(dir string) (*File, error) {
	if dir == "" {
		return nil, errors.New("file backend needs a directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating repo dir: %w", err)
	}
	return &File{root: dir}, nil
}

// Root returns the repo directory.
func (f *File) Root() string {
	return f.root
}

func (f *File) path(rel string) string {
	return filepath.Join(f.root, filepath.FromSlash(rel))
}

// writeAtomic replaces rel with data via a temp file and rename.
func (f *File) writeAtomic(rel string, data []byte) error {
	path := f.path(rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", rel, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("writing %s: %w", rel, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", rel, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", rel, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("writing %s: %w", rel, err)
	}
	return nil
}

func (f *File) LoadAccounts(ctx context.Context) ([]model.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fh, err := os.Open(f.path(AccountsFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening chart of accounts: %w", err)
	}
	defer fh.Close()
	return accounts.ReadAccounts(fh)
}

func (f *File) ReplaceAccounts(ctx context.Context, accts []model.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := accounts.WriteAccounts(&buf, accts); err != nil {
		return err
	}
	return f.writeAtomic(AccountsFile, buf.Bytes())
}

func (f *File) AddAccount(ctx context.Context, acct model.Account) error {
	accts, err := f.LoadAccounts(ctx)
	if err != nil {
		return err
	}
	if slices.ContainsFunc(accts, func(a model.Account) bool { return a.ID == acct.ID }) {
		return fmt.Errorf("account %s already stored", acct.ID)
	}
	return f.ReplaceAccounts(ctx, append(accts, acct))
}

func (f *File) UpdateAccount(ctx context.Context, acct model.Account) error {
	accts, err := f.LoadAccounts(ctx)
	if err != nil {
		return err
	}
	i := slices.IndexFunc(accts, func(a model.Account) bool { return a.ID == acct.ID })
	if i < 0 {
		return fmt.Errorf("account %s: %w", acct.ID, ErrRecordNotFound)
	}
	accts[i] = acct
	return f.ReplaceAccounts(ctx, accts)
}

func (f *File) DeleteAccount(ctx context.Context, id string) error {
	accts, err := f.LoadAccounts(ctx)
	if err != nil {
		return err
	}
	i := slices.IndexFunc(accts, func(a model.Account) bool { return a.ID == id })
	if i < 0 {
		return fmt.Errorf("account %s: %w", id, ErrRecordNotFound)
	}
	return f.ReplaceAccounts(ctx, slices.Delete(accts, i, i+1))
}

func (f *File) LoadTransactions(ctx context.Context) ([]model.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fh, err := os.Open(f.path(TransactionsFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	defer fh.Close()
	return journal.ReadTransactions(fh)
}

func (f *File) ReplaceTransactions(ctx context.Context, txns []model.Transaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := journal.WriteTransactions(&buf, txns); err != nil {
		return err
	}
	return f.writeAtomic(TransactionsFile, buf.Bytes())
}

// AddTransaction appends the transaction's rows to the journal, writing
// the header first when the file is new.
func (f *File) AddTransaction(ctx context.Context, txn model.Transaction) error {
	txns, err := f.LoadTransactions(ctx)
	if err != nil {
		return err
	}
	if slices.ContainsFunc(txns, func(t model.Transaction) bool { return t.ID == txn.ID }) {
		return fmt.Errorf("transaction %s already stored", txn.ID)
	}
	if txns == nil {
		return f.ReplaceTransactions(ctx, []model.Transaction{txn})
	}

	path := f.path(TransactionsFile)
	fh, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening journal for append: %w", err)
	}
	cw := csv.NewWriter(fh)
	if err := cw.WriteAll(journal.MarshalTransaction(txn)); err != nil {
		fh.Close()
		return fmt.Errorf("appending to journal: %w", err)
	}
	return fh.Close()
}

func (f *File) UpdateTransaction(ctx context.Context, txn model.Transaction) error {
	txns, err := f.LoadTransactions(ctx)
	if err != nil {
		return err
	}
	i := slices.IndexFunc(txns, func(t model.Transaction) bool { return t.ID == txn.ID })
	if i < 0 {
		return fmt.Errorf("transaction %s: %w", txn.ID, ErrRecordNotFound)
	}
	txns[i] = txn
	return f.ReplaceTransactions(ctx, txns)
}

func (f *File) DeleteTransaction(ctx context.Context, id string) error {
	txns, err := f.LoadTransactions(ctx)
	if err != nil {
		return err
	}
	i := slices.IndexFunc(txns, func(t model.Transaction) bool { return t.ID == id })
	if i < 0 {
		return fmt.Errorf("transaction %s: %w", id, ErrRecordNotFound)
	}
	return f.ReplaceTransactions(ctx, slices.Delete(txns, i, i+1))
}

func (f *File) LoadBudgets(ctx context.Context) (map[string]decimal.Decimal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.path(BudgetsFile))
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]decimal.Decimal{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading budgets: %w", err)
	}
	var doc budgetsDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing budgets: %w", err)
	}
	out := make(map[string]decimal.Decimal, len(doc.Budgets))
	for k, v := range doc.Budgets {
		amt, err := decimal.NewFromString(v)
		if err != nil {
			return nil, fmt.Errorf("budget %s: %w", k, err)
		}
		out[k] = amt
	}
	return out, nil
}

func (f *File) ReplaceBudgets(ctx context.Context, budgets map[string]decimal.Decimal) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	doc := budgetsDoc{Budgets: make(map[string]string, len(budgets))}
	for k, v := range budgets {
		doc.Budgets[k] = v.String()
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshaling budgets: %w", err)
	}
	return f.writeAtomic(BudgetsFile, data)
}

func (f *File) Close() error { return nil }
