package billing

import (
	"context"
	"encoding/json"
	"time"
)

// FeedClient talks to one generation of the billing feed protocol.
type FeedClient interface {
	Fetch(ctx context.Context, req FetchRequest) (*FeedPage, error)
	Acknowledge(ctx context.Context, req AckRequest) (*AckResult, error)
}

type FetchRequest struct {
	Limit        int
	ChangesSince *int64
}

type Stream string

const (
	StreamTransactions Stream = "transactions"
	StreamChanges      Stream = "changes"
)

// FeedPage is one fetched page. Event and snapshot payloads are still raw;
// NormalizeEvents turns them into ChangeEvents.
type FeedPage struct {
	TransactionEvents []RawEvent
	Changes           []RawEvent
	Snapshots         []RawSnapshot

	TransactionsCheckpoint *int64
	TransactionsConfirmed  *int64
	ChangesCheckpoint      *int64
	ChangesConfirmed       *int64
}

type RawEvent struct {
	ID            json.RawMessage `json:"id"`
	Event         string          `json:"event"`
	TransactionID json.RawMessage `json:"transaction_id"`
	Transaction   *RawSnapshot    `json:"transaction"`
}

type RawSnapshot struct {
	ID                   json.RawMessage `json:"id"`
	Date                 json.RawMessage `json:"date"`
	Amount               json.RawMessage `json:"amount"`
	Description          json.RawMessage `json:"description"`
	Notes                json.RawMessage `json:"notes"`
	ExportableMovementID json.RawMessage `json:"exportable_movement_id"`
	IsCustomInkwell      json.RawMessage `json:"is_custom_inkwell"`
}

type AckRequest struct {
	TransactionsCursor *int64
	ChangesCursor      *int64
}

// IsEmpty reports whether there is nothing to acknowledge.
func (r AckRequest) IsEmpty() bool {
	return r.TransactionsCursor == nil && r.ChangesCursor == nil
}

type AckResult struct {
	LastTransactionID     *int64
	LastChangeID          *int64
	TransactionsUpdatedAt *time.Time
	ChangesUpdatedAt      *time.Time
}

// UpdatedAt returns the latest timestamp reported by the acknowledgment.
func (r *AckResult) UpdatedAt() *time.Time {
	latest := r.TransactionsUpdatedAt
	if r.ChangesUpdatedAt != nil && (latest == nil || r.ChangesUpdatedAt.After(*latest)) {
		latest = r.ChangesUpdatedAt
	}
	return latest
}

type feedResponse struct {
	Transactions           []RawSnapshot   `json:"transactions"`
	TransactionEvents      []RawEvent      `json:"transaction_events"`
	TransactionsCheckpoint json.RawMessage `json:"transactions_checkpoint_id"`
	TransactionsConfirmed  json.RawMessage `json:"last_confirmed_transaction_id"`
	Changes                []RawEvent      `json:"changes"`
	ChangesCheckpoint      json.RawMessage `json:"changes_checkpoint_id"`
	ChangesConfirmed       json.RawMessage `json:"last_confirmed_change_id"`
}

type ackBody struct {
	MovementsCheckpointID *int64 `json:"movements_checkpoint_id,omitempty"`
	ChangesCheckpointID   *int64 `json:"changes_checkpoint_id,omitempty"`
}

type ackResponse struct {
	LastTransactionID     json.RawMessage `json:"last_transaction_id"`
	LastChangeID          json.RawMessage `json:"last_change_id"`
	TransactionsUpdatedAt json.RawMessage `json:"transactions_updated_at"`
	ChangesUpdatedAt      json.RawMessage `json:"changes_updated_at"`
}
