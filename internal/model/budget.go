package model

// BudgetKey identifies a planned amount for one account in one fiscal year.
type BudgetKey struct {
	FiscalYear int
	AccountID  string
}
