package journal

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/zenith-ledger/zenith/internal/model"
)

// Header is the CSV header for transactions.csv. Each row is one split;
// consecutive rows sharing a transaction_id form one transaction.
const Header = "transaction_id,date,description,kind,account_id,amount"

const (
	numFields = 6
	colTxnID  = 0
	colDate   = 1
	colDesc   = 2
	colKind   = 3
	colAcctID = 4
	colAmount = 5
)

// ReadTransactions reads all transactions from a transactions.csv reader.
func ReadTransactions(r io.Reader) ([]model.Transaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading transactions CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	// Skip header row.
	var txns []model.Transaction
	for i, rec := range records[1:] {
		txn, split, err := UnmarshalRow(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		if n := len(txns); n > 0 && txns[n-1].ID == txn.ID {
			txns[n-1].Splits = append(txns[n-1].Splits, split)
			continue
		}
		txn.Splits = []model.Split{split}
		txns = append(txns, txn)
	}
	return txns, nil
}

// WriteTransactions writes transactions to a transactions.csv writer (including header).
func WriteTransactions(w io.Writer, txns []model.Transaction) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	row := 2
	for _, txn := range txns {
		for _, rec := range MarshalTransaction(txn) {
			if err := cw.Write(rec); err != nil {
				return fmt.Errorf("writing row %d: %w", row, err)
			}
			row++
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalTransaction converts a Transaction to one CSV row per split.
func MarshalTransaction(txn model.Transaction) [][]string {
	rows := make([][]string, 0, len(txn.Splits))
	for _, s := range txn.Splits {
		row := make([]string, numFields)
		row[colTxnID] = txn.ID
		row[colDate] = model.FormatDate(txn.Date)
		row[colDesc] = txn.Description
		row[colKind] = string(txn.Kind)
		row[colAcctID] = s.AccountID
		row[colAmount] = s.Amount.String()
		rows = append(rows, row)
	}
	return rows
}

// UnmarshalRow converts a CSV row to its transaction header and split.
func UnmarshalRow(record []string) (model.Transaction, model.Split, error) {
	if len(record) != numFields {
		return model.Transaction{}, model.Split{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	date, err := model.ParseDate(record[colDate])
	if err != nil {
		return model.Transaction{}, model.Split{}, fmt.Errorf("parsing date %q: %w", record[colDate], err)
	}

	amount, err := decimal.NewFromString(record[colAmount])
	if err != nil {
		return model.Transaction{}, model.Split{}, fmt.Errorf("parsing amount %q: %w", record[colAmount], err)
	}

	txn := model.Transaction{
		ID:          record[colTxnID],
		Date:        date,
		Description: record[colDesc],
		Kind:        model.TransactionKind(record[colKind]),
	}
	return txn, model.Split{AccountID: record[colAcctID], Amount: amount}, nil
}
