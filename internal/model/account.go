package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Account struct {
	ID             int64
	Name           string
	Currency       string
	OpeningBalance decimal.Decimal
	IsActive       bool
	IsBilling      bool
	CreatedAt      time.Time

	Cursors  BillingCursors
	SyncedAt *time.Time
}

// BillingCursors are the feed positions recorded for the billing account.
// A confirmed cursor never exceeds the checkpoint that produced it.
type BillingCursors struct {
	TransactionsCheckpoint *int64 `json:"transactions_checkpoint"`
	TransactionsConfirmed  *int64 `json:"transactions_confirmed"`
	ChangesCheckpoint      *int64 `json:"changes_checkpoint"`
	ChangesConfirmed       *int64 `json:"changes_confirmed"`
}

// AccountBalance is an account with its opening balance plus every posted amount.
type AccountBalance struct {
	Account *Account
	Balance decimal.Decimal
}
