package accounts

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/zenith-ledger/zenith/internal/model"
)

const (
	numFields      = 6
	colID          = 0
	colName        = 1
	colType        = 2
	colParent      = 3
	colPlaceholder = 4
	colDesc        = 5
)

// ReadAccounts reads chart-of-accounts.csv.
func ReadAccounts(r io.Reader) ([]model.Account, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading accounts CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	var accounts []model.Account
	for i, rec := range records[1:] {
		acct, err := UnmarshalAccount(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		accounts = append(accounts, acct)
	}
	return accounts, nil
}

// WriteAccounts writes chart-of-accounts.csv.
func WriteAccounts(w io.Writer, accounts []model.Account) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write([]string{"account_id", "account_name", "account_type", "parent_id", "placeholder", "description"}); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, acct := range accounts {
		if err := cw.Write(MarshalAccount(acct)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalAccount converts an Account to a CSV row.
func MarshalAccount(acct model.Account) []string {
	row := make([]string, numFields)
	row[colID] = acct.ID
	row[colName] = acct.Name
	row[colType] = string(acct.Type)
	row[colParent] = acct.ParentID
	row[colPlaceholder] = strconv.FormatBool(acct.Placeholder)
	row[colDesc] = acct.Description
	return row
}

// UnmarshalAccount converts a CSV row to an Account.
func UnmarshalAccount(record []string) (model.Account, error) {
	if len(record) != numFields {
		return model.Account{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	if record[colID] == "" {
		return model.Account{}, fmt.Errorf("empty account_id")
	}

	typ, err := model.ParseAccountType(record[colType])
	if err != nil {
		return model.Account{}, fmt.Errorf("parsing account_type: %w", err)
	}

	var placeholder bool
	if record[colPlaceholder] != "" {
		placeholder, err = strconv.ParseBool(record[colPlaceholder])
		if err != nil {
			return model.Account{}, fmt.Errorf("parsing placeholder %q: %w", record[colPlaceholder], err)
		}
	}

	return model.Account{
		ID:          record[colID],
		Name:        record[colName],
		Type:        typ,
		ParentID:    record[colParent],
		Placeholder: placeholder,
		Description: record[colDesc],
	}, nil
}
