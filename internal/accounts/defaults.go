package accounts

import "github.com/zenith-ledger/zenith/internal/model"

// Well-known account IDs the core depends on.
const (
	OpeningBalancesID = "equity-opening"

	RootAssetID     = "root-asset"
	RootLiabilityID = "root-liability"
	RootEquityID    = "root-equity"
	RootIncomeID    = "root-income"
	RootExpenseID   = "root-expense"
)

// RootID returns the placeholder root for an account type.
func RootID(t model.AccountType) string {
	switch t {
	case model.AccountTypeAsset:
		return RootAssetID
	case model.AccountTypeLiability:
		return RootLiabilityID
	case model.AccountTypeEquity:
		return RootEquityID
	case model.AccountTypeIncome:
		return RootIncomeID
	case model.AccountTypeExpense:
		return RootExpenseID
	}
	return ""
}

// DefaultChart returns the bootstrap chart of accounts: one placeholder
// root per account type and a starter set beneath them.
func DefaultChart() []model.Account {
	return []model.Account{
		{ID: RootAssetID, Name: "Assets", Type: model.AccountTypeAsset, Placeholder: true},
		{ID: RootLiabilityID, Name: "Liabilities", Type: model.AccountTypeLiability, Placeholder: true},
		{ID: RootEquityID, Name: "Equity", Type: model.AccountTypeEquity, Placeholder: true},
		{ID: RootIncomeID, Name: "Income", Type: model.AccountTypeIncome, Placeholder: true},
		{ID: RootExpenseID, Name: "Expenses", Type: model.AccountTypeExpense, Placeholder: true},

		{ID: "asset-current", Name: "Current Assets", Type: model.AccountTypeAsset, ParentID: RootAssetID, Placeholder: true},
		{ID: "asset-bank", Name: "Bank Account", Type: model.AccountTypeAsset, ParentID: "asset-current"},
		{ID: "asset-cash", Name: "Cash in Hand", Type: model.AccountTypeAsset, ParentID: "asset-current"},

		{ID: "liability-payable", Name: "Accounts Payable", Type: model.AccountTypeLiability, ParentID: RootLiabilityID},

		{ID: OpeningBalancesID, Name: "Opening Balances", Type: model.AccountTypeEquity, ParentID: RootEquityID, Description: "Offsets for account starting balances"},
		{ID: "equity-retained", Name: "Retained Earnings", Type: model.AccountTypeEquity, ParentID: RootEquityID},

		{ID: "income-fees", Name: "Tuition Fees", Type: model.AccountTypeIncome, ParentID: RootIncomeID},
		{ID: "income-donations", Name: "Donations", Type: model.AccountTypeIncome, ParentID: RootIncomeID},
		{ID: "income-other", Name: "Other Income", Type: model.AccountTypeIncome, ParentID: RootIncomeID},

		{ID: "expense-salaries", Name: "Salaries", Type: model.AccountTypeExpense, ParentID: RootExpenseID},
		{ID: "expense-rent", Name: "Rent", Type: model.AccountTypeExpense, ParentID: RootExpenseID},
		{ID: "expense-utilities", Name: "Utilities", Type: model.AccountTypeExpense, ParentID: RootExpenseID, Placeholder: true},
		{ID: "expense-utilities-electricity", Name: "Electricity Bill", Type: model.AccountTypeExpense, ParentID: "expense-utilities"},
		{ID: "expense-utilities-internet", Name: "Internet Bill", Type: model.AccountTypeExpense, ParentID: "expense-utilities"},
		{ID: "expense-supplies", Name: "Office & School Supplies", Type: model.AccountTypeExpense, ParentID: RootExpenseID},
		{ID: "expense-maintenance", Name: "Maintenance & Repairs", Type: model.AccountTypeExpense, ParentID: RootExpenseID},
	}
}
