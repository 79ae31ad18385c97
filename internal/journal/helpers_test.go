package journal

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/zenith-ledger/zenith/internal/accounts"
	"github.com/zenith-ledger/zenith/internal/model"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func chart() *accounts.Service {
	return accounts.NewService(accounts.DefaultChart())
}

func txn(id string, d time.Time, splits ...model.Split) model.Transaction {
	return model.Transaction{ID: id, Date: d, Description: id, Splits: splits}
}

func split(account, amount string) model.Split {
	return model.Split{AccountID: account, Amount: dec(amount)}
}

func opening(id, account, amount string) model.Transaction {
	t := txn(id, date(2024, 7, 1), split(account, amount), split(accounts.OpeningBalancesID, dec(amount).Neg().String()))
	t.Kind = model.KindOpeningBalance
	return t
}
