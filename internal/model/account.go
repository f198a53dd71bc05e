package model

import "github.com/shopspring/decimal"

// Account is a company cash account (bank, till, wallet).
type Account struct {
	ID             int64
	CompanyID      string
	Name           string
	OpeningBalance decimal.Decimal
}

// AccountBalance pairs an account's opening balance with its whole-history balance.
type AccountBalance struct {
	AccountID      int64           `json:"account_id"`
	Name           string          `json:"name"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	CurrentBalance decimal.Decimal `json:"current_balance"`
}
