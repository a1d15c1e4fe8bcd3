package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind classifies a transaction record.
type Kind string

const (
	KindDeposit     Kind = "Deposit"
	KindWithdraw    Kind = "Withdraw"
	KindTransferOut Kind = "TransferOut"
	KindTransferIn  Kind = "TransferIn"
)

// TransactionRecord is one row in transactions.csv. Records are append-only:
// once written they are never mutated, only removed wholesale when their
// subject account is deleted.
type TransactionRecord struct {
	ID           uuid.UUID
	Name         string // subject account
	Kind         Kind
	Amount       decimal.Decimal // always positive
	Balance      decimal.Decimal // subject's balance immediately after this event
	Counterparty string          // set only for transfer kinds
	Timestamp    time.Time
}
