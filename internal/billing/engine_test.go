package billing

import (
	"errors"
	"testing"

	"github.com/hance08/keasync/internal/model"
	"github.com/hance08/keasync/internal/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyUpdatesExistingRow(t *testing.T) {
	s := newTestStore(t)
	acc := createBillingAccount(t, s)
	seedTransaction(t, s, acc.ID, 600, "Factura 600", "100.00", "")

	counts, err := applyBatch(t, s, acc.ID, []ChangeEvent{
		change(901, EventUpdated, 600, snapshot(t, map[string]any{
			"id": 600, "date": "2024-02-10", "amount": "200.00", "description": "Factura 600 corregida",
			"exportable_movement_id": 44, "is_custom_inkwell": false,
		})),
	})
	require.NoError(t, err)
	assert.Equal(t, Counts{Updated: 1}, counts)

	row, err := s.GetTransactionByBillingID(600)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("200.00").Equal(row.Amount))
	assert.Equal(t, "Factura 600 corregida", row.Description)
	assert.Equal(t, "2024-02-10", row.Date.Format("2006-01-02"))

	state, err := s.GetSyncState(600)
	require.NoError(t, err)
	assert.Equal(t, int64(901), state.UpdatedAtEventID)
	assert.Equal(t, model.SyncStatusAvailable, state.Status)
	require.NotNil(t, state.ExportableMovementID)
	assert.Equal(t, int64(44), *state.ExportableMovementID)
}

func TestApplyCreateUpdateDeleteInOneBatch(t *testing.T) {
	s := newTestStore(t)
	acc := createBillingAccount(t, s)

	counts, err := applyBatch(t, s, acc.ID, []ChangeEvent{
		change(1, EventCreated, 700, snapshot(t, map[string]any{
			"id": 700, "date": "2024-01-01", "amount": "10.00", "description": "Nueva", "exportable_movement_id": 5,
		})),
		change(2, EventUpdated, 700, snapshot(t, map[string]any{
			"id": 700, "date": "2024-01-01", "amount": "12.00", "description": "Nueva",
		})),
		change(3, EventDeleted, 700, nil),
	})
	require.NoError(t, err)
	assert.Equal(t, Counts{Created: 1, Updated: 1, Deleted: 1}, counts)

	_, err = s.GetTransactionByBillingID(700)
	assert.ErrorIs(t, err, store.ErrRecordNotFound)

	state, err := s.GetSyncState(700)
	require.NoError(t, err)
	assert.Equal(t, model.SyncStatusUnavailable, state.Status)
	assert.Equal(t, int64(3), state.UpdatedAtEventID)
}

func TestApplyDeleteKeepsCrossReference(t *testing.T) {
	s := newTestStore(t)
	acc := createBillingAccount(t, s)
	seedTransaction(t, s, acc.ID, 600, "Factura 600", "100.00", "")

	_, err := applyBatch(t, s, acc.ID, []ChangeEvent{
		change(1, EventUpdated, 600, snapshot(t, map[string]any{
			"id": 600, "date": "2024-01-01", "amount": "100.00", "description": "Factura 600", "exportable_movement_id": 9,
		})),
	})
	require.NoError(t, err)

	counts, err := applyBatch(t, s, acc.ID, []ChangeEvent{change(2, EventDeleted, 600, nil)})
	require.NoError(t, err)
	assert.Equal(t, Counts{Deleted: 1}, counts)

	state, err := s.GetSyncState(600)
	require.NoError(t, err)
	assert.Equal(t, model.SyncStatusUnavailable, state.Status)
	require.NotNil(t, state.ExportableMovementID)
	assert.Equal(t, int64(9), *state.ExportableMovementID)
}

func TestApplyRejectsEventsForUnknownTransactions(t *testing.T) {
	for _, tc := range []struct {
		name string
		kind EventKind
		want error
	}{
		{"update", EventUpdated, ErrUpdateNonexistent},
		{"delete", EventDeleted, ErrDeleteNonexistent},
	} {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestStore(t)
			acc := createBillingAccount(t, s)

			_, err := applyBatch(t, s, acc.ID, []ChangeEvent{
				change(1, EventCreated, 800, snapshot(t, map[string]any{
					"id": 800, "date": "2024-01-01", "amount": "1.00", "description": "Primera",
				})),
				change(2, tc.kind, 999, snapshot(t, map[string]any{
					"id": 999, "date": "2024-01-01", "amount": "1.00", "description": "Fantasma",
				})),
			})
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.want)

			var pe *ProtocolError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, int64(999), pe.TransactionID)

			// Nothing from the batch survives the rollback.
			_, err = s.GetTransactionByBillingID(800)
			assert.ErrorIs(t, err, store.ErrRecordNotFound)
			_, err = s.GetSyncState(800)
			assert.ErrorIs(t, err, store.ErrRecordNotFound)
		})
	}
}

func TestApplyCreatedWithoutDescriptionFails(t *testing.T) {
	s := newTestStore(t)
	acc := createBillingAccount(t, s)

	_, err := applyBatch(t, s, acc.ID, []ChangeEvent{
		change(1, EventCreated, 800, snapshot(t, map[string]any{
			"id": 800, "date": "2024-01-01", "amount": "1.00", "description": "",
		})),
	})
	assert.ErrorIs(t, err, ErrMissingDescription)
}

func TestApplyUpdateKeepsPreviousDescriptionAndNotes(t *testing.T) {
	s := newTestStore(t)
	acc := createBillingAccount(t, s)
	seedTransaction(t, s, acc.ID, 600, "Factura 600", "100.00", "nota local")

	_, err := applyBatch(t, s, acc.ID, []ChangeEvent{
		change(5, EventUpdated, 600, snapshot(t, map[string]any{
			"id": 600, "date": "2024-01-01", "amount": "150.00", "description": nil, "notes": "",
		})),
	})
	require.NoError(t, err)

	row, err := s.GetTransactionByBillingID(600)
	require.NoError(t, err)
	assert.Equal(t, "Factura 600", row.Description)
	assert.Equal(t, "nota local", row.Notes)
	assert.True(t, decimal.RequireFromString("150").Equal(row.Amount))
}

func TestApplyAvailabilityFollowsLatestSnapshot(t *testing.T) {
	s := newTestStore(t)
	acc := createBillingAccount(t, s)

	_, err := applyBatch(t, s, acc.ID, []ChangeEvent{
		change(1, EventCreated, 900, snapshot(t, map[string]any{
			"id": 900, "date": "2024-01-01", "amount": "5.00", "description": "Con movimiento",
			"exportable_movement_id": 12, "is_custom_inkwell": false,
		})),
	})
	require.NoError(t, err)
	state, err := s.GetSyncState(900)
	require.NoError(t, err)
	assert.Equal(t, model.SyncStatusAvailable, state.Status)

	_, err = applyBatch(t, s, acc.ID, []ChangeEvent{
		change(2, EventUpdated, 900, snapshot(t, map[string]any{
			"id": 900, "date": "2024-01-01", "amount": "5.00", "description": "Con movimiento",
			"exportable_movement_id": 12, "is_custom_inkwell": true,
		})),
	})
	require.NoError(t, err)
	state, err = s.GetSyncState(900)
	require.NoError(t, err)
	assert.Equal(t, model.SyncStatusUnavailable, state.Status)
	assert.True(t, state.IsCustomInkwell)
}

func TestApplyIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	acc := createBillingAccount(t, s)
	seedTransaction(t, s, acc.ID, 600, "Factura 600", "100.00", "")

	batch := []ChangeEvent{
		{ID: 40, Stream: StreamTransactions, Kind: EventCreated, TransactionID: 601, Snapshot: snapshot(t, map[string]any{
			"id": 601, "date": "2024-01-03", "amount": "30.00", "description": "Factura 601",
		})},
		change(11, EventUpdated, 600, snapshot(t, map[string]any{
			"id": 600, "date": "2024-01-01", "amount": "110.00", "description": "Factura 600",
		})),
		change(12, EventUpdated, 601, snapshot(t, map[string]any{
			"id": 601, "date": "2024-01-03", "amount": "35.00", "description": "Factura 601",
		})),
	}

	first, err := applyBatch(t, s, acc.ID, batch)
	require.NoError(t, err)
	assert.Equal(t, Counts{Created: 1, Updated: 2}, first)

	rowsBefore, err := s.GetTransactionsByAccount(acc.ID, 10)
	require.NoError(t, err)
	stateBefore, err := s.GetSyncState(601)
	require.NoError(t, err)

	second, err := applyBatch(t, s, acc.ID, batch)
	require.NoError(t, err)
	assert.Equal(t, Counts{Skipped: 3}, second)

	rowsAfter, err := s.GetTransactionsByAccount(acc.ID, 10)
	require.NoError(t, err)
	require.Len(t, rowsAfter, len(rowsBefore))
	for i := range rowsBefore {
		assert.Equal(t, rowsBefore[i].ID, rowsAfter[i].ID)
		assert.True(t, rowsBefore[i].Amount.Equal(rowsAfter[i].Amount))
		assert.Equal(t, rowsBefore[i].Description, rowsAfter[i].Description)
	}

	stateAfter, err := s.GetSyncState(601)
	require.NoError(t, err)
	assert.Equal(t, stateBefore.UpdatedAtEventID, stateAfter.UpdatedAtEventID)
	assert.Equal(t, stateBefore.Status, stateAfter.Status)
}

func TestApplyIgnoresEventsAfterDelete(t *testing.T) {
	s := newTestStore(t)
	acc := createBillingAccount(t, s)
	seedTransaction(t, s, acc.ID, 600, "Factura 600", "100.00", "")

	counts, err := applyBatch(t, s, acc.ID, []ChangeEvent{
		change(20, EventDeleted, 600, nil),
		change(21, EventCreated, 600, snapshot(t, map[string]any{
			"id": 600, "date": "2024-01-01", "amount": "1.00", "description": "Revivida",
		})),
	})
	require.NoError(t, err)
	assert.Equal(t, Counts{Deleted: 1}, counts)

	_, err = s.GetTransactionByBillingID(600)
	assert.ErrorIs(t, err, store.ErrRecordNotFound)

	state, err := s.GetSyncState(600)
	require.NoError(t, err)
	assert.Equal(t, int64(21), state.UpdatedAtEventID)
	assert.Equal(t, model.SyncStatusUnavailable, state.Status)
}

func TestApplyCreatedForExistingRowOverwrites(t *testing.T) {
	s := newTestStore(t)
	acc := createBillingAccount(t, s)
	seeded := seedTransaction(t, s, acc.ID, 600, "Factura 600", "100.00", "")

	counts, err := applyBatch(t, s, acc.ID, []ChangeEvent{
		change(1, EventCreated, 600, snapshot(t, map[string]any{
			"id": 600, "date": "2024-04-01", "amount": "101.00", "description": "Factura 600 bis",
		})),
	})
	require.NoError(t, err)
	assert.Equal(t, Counts{Created: 1}, counts)

	row, err := s.GetTransactionByBillingID(600)
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, row.ID)
	assert.Equal(t, "Factura 600 bis", row.Description)
}

func TestApplyCreatedWithoutDescriptionFailsOnExistingRow(t *testing.T) {
	s := newTestStore(t)
	acc := createBillingAccount(t, s)
	seedTransaction(t, s, acc.ID, 600, "Factura 600", "100.00", "nota")

	counts, err := applyBatch(t, s, acc.ID, []ChangeEvent{
		change(1, EventCreated, 600, snapshot(t, map[string]any{
			"id": 600, "date": "2024-04-01", "amount": "101.00", "description": "  ",
		})),
	})
	assert.ErrorIs(t, err, ErrMissingDescription)
	assert.Equal(t, 0, counts.Created)

	row, err := s.GetTransactionByBillingID(600)
	require.NoError(t, err)
	assert.Equal(t, "Factura 600", row.Description)
	assert.True(t, decimal.RequireFromString("100.00").Equal(row.Amount))
}

func TestApplyRejectsRowOfAnotherAccount(t *testing.T) {
	s := newTestStore(t)
	acc := createBillingAccount(t, s)
	otherID, err := s.CreateAccount(&model.Account{Name: "Efectivo", Currency: "ARS", IsActive: true})
	require.NoError(t, err)
	seedTransaction(t, s, otherID, 650, "Ajeno", "5.00", "")

	for _, ev := range []ChangeEvent{
		change(1, EventUpdated, 650, snapshot(t, map[string]any{
			"id": 650, "date": "2024-04-01", "amount": "9.00", "description": "Ajeno",
		})),
		change(2, EventDeleted, 650, nil),
	} {
		_, err := applyBatch(t, s, acc.ID, []ChangeEvent{ev})
		var pe *ProtocolError
		require.True(t, errors.As(err, &pe), "got %v", err)
		assert.ErrorIs(t, err, ErrForeignTransaction)
		assert.Equal(t, int64(650), pe.TransactionID)
	}

	row, err := s.GetTransactionByBillingID(650)
	require.NoError(t, err)
	assert.Equal(t, otherID, row.AccountID)
	assert.True(t, decimal.RequireFromString("5.00").Equal(row.Amount))
}
