package model

import "time"

type SyncStatus string

const (
	SyncStatusAvailable   SyncStatus = "available"
	SyncStatusUnavailable SyncStatus = "unavailable"
)

// BillingSyncState is what we last knew about one remote transaction. It
// outlives the local row, so replays of old events can be recognised.
type BillingSyncState struct {
	BillingTransactionID int64
	ExportableMovementID *int64
	IsCustomInkwell      bool
	Status               SyncStatus
	UpdatedAtEventID     int64

	// High-water marks per feed stream; the two streams number events independently.
	LastTransactionEventID *int64
	LastChangeEventID      *int64

	CreatedAt time.Time
	UpdatedAt time.Time
}
