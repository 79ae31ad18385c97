package persist

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/shopspring/decimal"

	"github.com/zenith-ledger/zenith/internal/model"
)

// sqliteSchema creates the tables. Amounts are TEXT so decimals keep
// their exact form. seq preserves insertion order.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS accounts (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    id TEXT NOT NULL UNIQUE,
    name TEXT NOT NULL,
    type TEXT NOT NULL,
    parent_id TEXT NOT NULL DEFAULT '',
    placeholder INTEGER NOT NULL DEFAULT 0,
    description TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS transactions (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    id TEXT NOT NULL UNIQUE,
    date TEXT NOT NULL,              -- YYYY-MM-DD
    description TEXT NOT NULL DEFAULT '',
    kind TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS splits (
    transaction_id TEXT NOT NULL REFERENCES transactions(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    account_id TEXT NOT NULL,
    amount TEXT NOT NULL,
    PRIMARY KEY (transaction_id, position)
);

CREATE INDEX IF NOT EXISTS idx_splits_account
    ON splits(account_id);

CREATE TABLE IF NOT EXISTS budgets (
    key TEXT PRIMARY KEY,            -- <fiscalYear>-<accountId>
    amount TEXT NOT NULL
);
`

// SQLite stores the book in a SQLite database. Every write runs in its
// own SQL transaction.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens the database at path with WAL mode and foreign keys
// enabled and initializes the schema.
func NewSQLite(path string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	connStr := fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL", path)
	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

// inTx runs fn within a transaction, rolling back if it fails.
func (s *SQLite) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%v, rollback error: %w", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func mustAffect(res sql.Result, what, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", what, id, ErrRecordNotFound)
	}
	return nil
}

func (s *SQLite) LoadAccounts(ctx context.Context) ([]model.Account, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, type, parent_id, placeholder, description FROM accounts ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("querying accounts: %w", err)
	}
	defer rows.Close()

	var out []model.Account
	for rows.Next() {
		var rec accountRecord
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Type, &rec.ParentID, &rec.Placeholder, &rec.Description); err != nil {
			return nil, fmt.Errorf("scanning account: %w", err)
		}
		a, err := rec.account()
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

const insertAccount = `INSERT INTO accounts (id, name, type, parent_id, placeholder, description) VALUES (?, ?, ?, ?, ?, ?)`

func execInsertAccount(ctx context.Context, tx *sql.Tx, a model.Account) error {
	if _, err := tx.ExecContext(ctx, insertAccount,
		a.ID, a.Name, string(a.Type), a.ParentID, a.Placeholder, a.Description); err != nil {
		return fmt.Errorf("inserting account %s: %w", a.ID, err)
	}
	return nil
}

func (s *SQLite) ReplaceAccounts(ctx context.Context, accts []model.Account) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM accounts`); err != nil {
			return fmt.Errorf("clearing accounts: %w", err)
		}
		for _, a := range accts {
			if err := execInsertAccount(ctx, tx, a); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *SQLite) AddAccount(ctx context.Context, acct model.Account) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return execInsertAccount(ctx, tx, acct)
	})
}

func (s *SQLite) UpdateAccount(ctx context.Context, acct model.Account) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE accounts SET name = ?, type = ?, parent_id = ?, placeholder = ?, description = ? WHERE id = ?`,
			acct.Name, string(acct.Type), acct.ParentID, acct.Placeholder, acct.Description, acct.ID)
		if err != nil {
			return fmt.Errorf("updating account %s: %w", acct.ID, err)
		}
		return mustAffect(res, "account", acct.ID)
	})
}

func (s *SQLite) DeleteAccount(ctx context.Context, id string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("deleting account %s: %w", id, err)
		}
		return mustAffect(res, "account", id)
	})
}

func (s *SQLite) LoadTransactions(ctx context.Context) ([]model.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.date, t.description, t.kind, s.account_id, s.amount
		FROM transactions t
		JOIN splits s ON s.transaction_id = t.id
		ORDER BY t.seq, s.position`)
	if err != nil {
		return nil, fmt.Errorf("querying transactions: %w", err)
	}
	defer rows.Close()

	var (
		out []model.Transaction
		cur *transactionRecord
	)
	flush := func() error {
		if cur == nil {
			return nil
		}
		t, err := cur.transaction()
		if err != nil {
			return err
		}
		out = append(out, t)
		return nil
	}
	for rows.Next() {
		var rec transactionRecord
		var sp splitRecord
		if err := rows.Scan(&rec.ID, &rec.Date, &rec.Description, &rec.Kind, &sp.AccountID, &sp.Amount); err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}
		if cur != nil && cur.ID == rec.ID {
			cur.Splits = append(cur.Splits, sp)
			continue
		}
		if err := flush(); err != nil {
			return nil, err
		}
		rec.Splits = []splitRecord{sp}
		cur = &rec
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return out, nil
}

func execInsertSplits(ctx context.Context, tx *sql.Tx, t model.Transaction) error {
	for i, sp := range t.Splits {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO splits (transaction_id, position, account_id, amount) VALUES (?, ?, ?, ?)`,
			t.ID, i, sp.AccountID, sp.Amount.String()); err != nil {
			return fmt.Errorf("inserting split %d of %s: %w", i, t.ID, err)
		}
	}
	return nil
}

func execInsertTransaction(ctx context.Context, tx *sql.Tx, t model.Transaction) error {
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO transactions (id, date, description, kind) VALUES (?, ?, ?, ?)`,
		t.ID, model.FormatDate(t.Date), t.Description, string(t.Kind)); err != nil {
		return fmt.Errorf("inserting transaction %s: %w", t.ID, err)
	}
	return execInsertSplits(ctx, tx, t)
}

func (s *SQLite) ReplaceTransactions(ctx context.Context, txns []model.Transaction) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM transactions`); err != nil {
			return fmt.Errorf("clearing transactions: %w", err)
		}
		for _, t := range txns {
			if err := execInsertTransaction(ctx, tx, t); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *SQLite) AddTransaction(ctx context.Context, txn model.Transaction) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return execInsertTransaction(ctx, tx, txn)
	})
}

func (s *SQLite) UpdateTransaction(ctx context.Context, txn model.Transaction) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE transactions SET date = ?, description = ?, kind = ? WHERE id = ?`,
			model.FormatDate(txn.Date), txn.Description, string(txn.Kind), txn.ID)
		if err != nil {
			return fmt.Errorf("updating transaction %s: %w", txn.ID, err)
		}
		if err := mustAffect(res, "transaction", txn.ID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM splits WHERE transaction_id = ?`, txn.ID); err != nil {
			return fmt.Errorf("clearing splits of %s: %w", txn.ID, err)
		}
		return execInsertSplits(ctx, tx, txn)
	})
}

func (s *SQLite) DeleteTransaction(ctx context.Context, id string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("deleting transaction %s: %w", id, err)
		}
		return mustAffect(res, "transaction", id)
	})
}

func (s *SQLite) LoadBudgets(ctx context.Context) (map[string]decimal.Decimal, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, amount FROM budgets`)
	if err != nil {
		return nil, fmt.Errorf("querying budgets: %w", err)
	}
	defer rows.Close()

	out := make(map[string]decimal.Decimal)
	for rows.Next() {
		var key, amount string
		if err := rows.Scan(&key, &amount); err != nil {
			return nil, fmt.Errorf("scanning budget: %w", err)
		}
		amt, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("budget %s: %w", key, err)
		}
		out[key] = amt
	}
	return out, rows.Err()
}

func (s *SQLite) ReplaceBudgets(ctx context.Context, budgets map[string]decimal.Decimal) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM budgets`); err != nil {
			return fmt.Errorf("clearing budgets: %w", err)
		}
		for k, v := range budgets {
			if _, err := tx.ExecContext(ctx, `INSERT INTO budgets (key, amount) VALUES (?, ?)`, k, v.String()); err != nil {
				return fmt.Errorf("inserting budget %s: %w", k, err)
			}
		}
		return nil
	})
}
