package persist

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
	bolt "go.etcd.io/bbolt"

	"github.com/zenith-ledger/zenith/internal/model"
)

// Bucket names. Records live in the data buckets under a sequence key so
// they load in insertion order; the index buckets map record id to that
// key.
const (
	bucketAccounts     = "accounts"
	bucketAccountIndex = "accounts_by_id"
	bucketTxns         = "transactions"
	bucketTxnIndex     = "transactions_by_id"
	bucketBudgets      = "budgets"
)

// Bolt stores the book in a single bbolt database file.
type Bolt struct {
	db *bolt.DB
}

// NewBolt opens (or creates) the database at path and initializes buckets.
func NewBolt(path string) (*Bolt, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{bucketAccounts, bucketAccountIndex, bucketTxns, bucketTxnIndex, bucketBudgets} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("creating bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Bolt{db: db}, nil
}

func (b *Bolt) Close() error {
	return b.db.Close()
}

func itob(v uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return buf
}

// put writes value under id, reusing the record's sequence key when it
// already exists.
func put(tx *bolt.Tx, data, index, id string, value any, mustExist, mustNotExist bool) error {
	db := tx.Bucket([]byte(data))
	ib := tx.Bucket([]byte(index))

	key := bytes.Clone(ib.Get([]byte(id)))
	switch {
	case key == nil && mustExist:
		return fmt.Errorf("%s %s: %w", data, id, ErrRecordNotFound)
	case key != nil && mustNotExist:
		return fmt.Errorf("%s %s already stored", data, id)
	case key == nil:
		seq, err := db.NextSequence()
		if err != nil {
			return err
		}
		key = itob(seq)
		if err := ib.Put([]byte(id), key); err != nil {
			return err
		}
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshaling %s %s: %w", data, id, err)
	}
	return db.Put(key, raw)
}

func del(tx *bolt.Tx, data, index, id string) error {
	ib := tx.Bucket([]byte(index))
	key := bytes.Clone(ib.Get([]byte(id)))
	if key == nil {
		return fmt.Errorf("%s %s: %w", data, id, ErrRecordNotFound)
	}
	if err := tx.Bucket([]byte(data)).Delete(key); err != nil {
		return err
	}
	return ib.Delete([]byte(id))
}

// reset empties a data bucket and its index.
func reset(tx *bolt.Tx, names ...string) error {
	for _, name := range names {
		if err := tx.DeleteBucket([]byte(name)); err != nil {
			return fmt.Errorf("clearing bucket %s: %w", name, err)
		}
		if _, err := tx.CreateBucket([]byte(name)); err != nil {
			return fmt.Errorf("creating bucket %s: %w", name, err)
		}
	}
	return nil
}

func (b *Bolt) LoadAccounts(ctx context.Context) ([]model.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []model.Account
	err := b.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketAccounts)).ForEach(func(_, v []byte) error {
			var rec accountRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("decoding account: %w", err)
			}
			a, err := rec.account()
			if err != nil {
				return err
			}
			out = append(out, a)
			return nil
		})
	})
	return out, err
}

func (b *Bolt) ReplaceAccounts(ctx context.Context, accts []model.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		if err := reset(tx, bucketAccounts, bucketAccountIndex); err != nil {
			return err
		}
		for _, a := range accts {
			if err := put(tx, bucketAccounts, bucketAccountIndex, a.ID, toAccountRecord(a), false, true); err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *Bolt) AddAccount(ctx context.Context, acct model.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		return put(tx, bucketAccounts, bucketAccountIndex, acct.ID, toAccountRecord(acct), false, true)
	})
}

func (b *Bolt) UpdateAccount(ctx context.Context, acct model.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		return put(tx, bucketAccounts, bucketAccountIndex, acct.ID, toAccountRecord(acct), true, false)
	})
}

func (b *Bolt) DeleteAccount(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		return del(tx, bucketAccounts, bucketAccountIndex, id)
	})
}

func (b *Bolt) LoadTransactions(ctx context.Context) ([]model.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []model.Transaction
	err := b.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketTxns)).ForEach(func(_, v []byte) error {
			var rec transactionRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("decoding transaction: %w", err)
			}
			t, err := rec.transaction()
			if err != nil {
				return err
			}
			out = append(out, t)
			return nil
		})
	})
	return out, err
}

func (b *Bolt) ReplaceTransactions(ctx context.Context, txns []model.Transaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		if err := reset(tx, bucketTxns, bucketTxnIndex); err != nil {
			return err
		}
		for _, t := range txns {
			if err := put(tx, bucketTxns, bucketTxnIndex, t.ID, toTransactionRecord(t), false, true); err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *Bolt) AddTransaction(ctx context.Context, txn model.Transaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		return put(tx, bucketTxns, bucketTxnIndex, txn.ID, toTransactionRecord(txn), false, true)
	})
}

func (b *Bolt) UpdateTransaction(ctx context.Context, txn model.Transaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		return put(tx, bucketTxns, bucketTxnIndex, txn.ID, toTransactionRecord(txn), true, false)
	})
}

func (b *Bolt) DeleteTransaction(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		return del(tx, bucketTxns, bucketTxnIndex, id)
	})
}

func (b *Bolt) LoadBudgets(ctx context.Context) (map[string]decimal.Decimal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make(map[string]decimal.Decimal)
	err := b.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketBudgets)).ForEach(func(k, v []byte) error {
			amt, err := decimal.NewFromString(string(v))
			if err != nil {
				return fmt.Errorf("budget %s: %w", k, err)
			}
			out[string(k)] = amt
			return nil
		})
	})
	return out, err
}

func (b *Bolt) ReplaceBudgets(ctx context.Context, budgets map[string]decimal.Decimal) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		if err := reset(tx, bucketBudgets); err != nil {
			return err
		}
		bk := tx.Bucket([]byte(bucketBudgets))
		for k, v := range budgets {
			if err := bk.Put([]byte(k), []byte(v.String())); err != nil {
				return err
			}
		}
		return nil
	})
}
