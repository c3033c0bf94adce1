package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hance08/keasync/internal/model"
)

func (s *Store) GetSyncState(billingID int64) (*model.BillingSyncState, error) {
	state := &model.BillingSyncState{}
	var (
		movementID, txEventID, changeEventID sql.NullInt64
		status                               string
	)

	err := s.db.QueryRow(`
        SELECT billing_transaction_id, exportable_movement_id, is_custom_inkwell, status,
               updated_at_event_id, last_transaction_event_id, last_change_event_id,
               created_at, updated_at
        FROM billing_transaction_sync_states
        WHERE billing_transaction_id = ?
    `, billingID).Scan(
		&state.BillingTransactionID, &movementID, &state.IsCustomInkwell, &status,
		&state.UpdatedAtEventID, &txEventID, &changeEventID,
		&state.CreatedAt, &state.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("sync state for billing ID %d: %w", billingID, ErrRecordNotFound)
		}
		return nil, fmt.Errorf("failed to query sync state: %w", err)
	}

	state.Status = model.SyncStatus(status)
	state.ExportableMovementID = nullableInt(movementID)
	state.LastTransactionEventID = nullableInt(txEventID)
	state.LastChangeEventID = nullableInt(changeEventID)

	return state, nil
}

// UpsertSyncState writes the state row, keeping the original created_at.
func (s *Store) UpsertSyncState(state *model.BillingSyncState) error {
	now := time.Now().UTC()

	_, err := s.db.Exec(`
        INSERT INTO billing_transaction_sync_states (
            billing_transaction_id, exportable_movement_id, is_custom_inkwell, status,
            updated_at_event_id, last_transaction_event_id, last_change_event_id,
            created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(billing_transaction_id) DO UPDATE SET
            exportable_movement_id = excluded.exportable_movement_id,
            is_custom_inkwell = excluded.is_custom_inkwell,
            status = excluded.status,
            updated_at_event_id = excluded.updated_at_event_id,
            last_transaction_event_id = excluded.last_transaction_event_id,
            last_change_event_id = excluded.last_change_event_id,
            updated_at = excluded.updated_at
    `,
		state.BillingTransactionID, state.ExportableMovementID, state.IsCustomInkwell, string(state.Status),
		state.UpdatedAtEventID, state.LastTransactionEventID, state.LastChangeEventID,
		now, now,
	)
	if err != nil {
		if isConstraintViolation(err) {
			return fmt.Errorf("sync state for billing ID %d: %w", state.BillingTransactionID, ErrConstraintViolation)
		}
		return fmt.Errorf("failed to upsert sync state for billing ID %d: %w", state.BillingTransactionID, err)
	}
	return nil
}

func (s *Store) CountSyncStates() (map[model.SyncStatus]int, error) {
	rows, err := s.db.Query(`
        SELECT status, COUNT(*)
        FROM billing_transaction_sync_states
        GROUP BY status
    `)
	if err != nil {
		return nil, fmt.Errorf("failed to count sync states: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	counts := make(map[model.SyncStatus]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan sync state count: %w", err)
		}
		counts[model.SyncStatus(status)] = n
	}
	return counts, rows.Err()
}
