package model

import "github.com/shopspring/decimal"

// BalanceRecord represents a row in balances.csv: the current balance
// snapshot for one account, keyed by account name.
type BalanceRecord struct {
	Name    string
	Balance decimal.Decimal
}
