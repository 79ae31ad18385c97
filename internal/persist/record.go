package persist

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/zenith-ledger/zenith/internal/model"
)

// accountRecord and transactionRecord are the JSON shapes stored by the
// bolt backend. Amounts are strings to keep exact decimal text.
type accountRecord struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	ParentID    string `json:"parentId,omitempty"`
	Placeholder bool   `json:"placeholder"`
	Description string `json:"description,omitempty"`
}

type splitRecord struct {
	AccountID string `json:"accountId"`
	Amount    string `json:"amount"`
}

type transactionRecord struct {
	ID          string        `json:"id"`
	Date        string        `json:"date"`
	Description string        `json:"description"`
	Kind        string        `json:"kind,omitempty"`
	Splits      []splitRecord `json:"splits"`
}

func toAccountRecord(a model.Account) accountRecord {
	return accountRecord{
		ID:          a.ID,
		Name:        a.Name,
		Type:        string(a.Type),
		ParentID:    a.ParentID,
		Placeholder: a.Placeholder,
		Description: a.Description,
	}
}

func (r accountRecord) account() (model.Account, error) {
	t, err := model.ParseAccountType(r.Type)
	if err != nil {
		return model.Account{}, fmt.Errorf("account %s: %w", r.ID, err)
	}
	return model.Account{
		ID:          r.ID,
		Name:        r.Name,
		Type:        t,
		ParentID:    r.ParentID,
		Placeholder: r.Placeholder,
		Description: r.Description,
	}, nil
}

func toTransactionRecord(t model.Transaction) transactionRecord {
	r := transactionRecord{
		ID:          t.ID,
		Date:        model.FormatDate(t.Date),
		Description: t.Description,
		Kind:        string(t.Kind),
		Splits:      make([]splitRecord, len(t.Splits)),
	}
	for i, s := range t.Splits {
		r.Splits[i] = splitRecord{AccountID: s.AccountID, Amount: s.Amount.String()}
	}
	return r
}

func (r transactionRecord) transaction() (model.Transaction, error) {
	date, err := model.ParseDate(r.Date)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("transaction %s: %w", r.ID, err)
	}
	t := model.Transaction{
		ID:          r.ID,
		Date:        date,
		Description: r.Description,
		Kind:        model.TransactionKind(r.Kind),
		Splits:      make([]model.Split, len(r.Splits)),
	}
	for i, s := range r.Splits {
		amt, err := decimal.NewFromString(s.Amount)
		if err != nil {
			return model.Transaction{}, fmt.Errorf("transaction %s split %d: %w", r.ID, i, err)
		}
		t.Splits[i] = model.Split{AccountID: s.AccountID, Amount: amt}
	}
	return t, nil
}
