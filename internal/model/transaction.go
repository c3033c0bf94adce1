package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Transaction struct {
	ID          int64
	AccountID   int64
	Date        time.Time
	Description string
	Amount      decimal.Decimal
	Notes       string
	CreatedAt   time.Time

	// BillingTransactionID is set only on rows imported from the billing feed.
	BillingTransactionID *int64
}

// IsBillingSourced reports whether the row is owned by the billing feed.
func (t *Transaction) IsBillingSourced() bool {
	return t.BillingTransactionID != nil
}
