package store_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/hance08/keasync/internal/model"
	"github.com/hance08/keasync/internal/store"
	"github.com/hance08/keasync/migrations"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*store.Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "kea.db")
	s, err := store.NewStore(path, migrations.FS)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func ptr(v int64) *int64 { return &v }

func mustAccount(t *testing.T, s *store.Store, name string, billing bool, opening string) int64 {
	t.Helper()
	id, err := s.CreateAccount(&model.Account{
		Name:           name,
		Currency:       "USD",
		OpeningBalance: decimal.RequireFromString(opening),
		IsActive:       true,
		IsBilling:      billing,
	})
	require.NoError(t, err)
	return id
}

func TestNewStoreIsReentrant(t *testing.T) {
	_, path := newStore(t)

	again, err := store.NewStore(path, migrations.FS)
	require.NoError(t, err)
	assert.NoError(t, again.Close())
}

func TestCreateAccountRejectsDuplicateName(t *testing.T) {
	s, _ := newStore(t)
	mustAccount(t, s, "Cash", false, "0")

	_, err := s.CreateAccount(&model.Account{Name: "Cash", Currency: "USD", IsActive: true})
	assert.ErrorIs(t, err, store.ErrAccountExists)
}

func TestGetBillingAccount(t *testing.T) {
	s, _ := newStore(t)

	_, err := s.GetBillingAccount()
	assert.ErrorIs(t, err, store.ErrRecordNotFound)

	mustAccount(t, s, "Cash", false, "0")
	id := mustAccount(t, s, "Billing", true, "0")

	acc, err := s.GetBillingAccount()
	require.NoError(t, err)
	assert.Equal(t, id, acc.ID)
	assert.True(t, acc.IsBilling)
	assert.Nil(t, acc.Cursors.ChangesCheckpoint)
	assert.Nil(t, acc.SyncedAt)
}

func TestAccountBalancesAreExact(t *testing.T) {
	s, _ := newStore(t)
	id := mustAccount(t, s, "Cash", false, "10.10")

	for i, amount := range []string{"0.10", "0.20", "-0.05"} {
		_, err := s.InsertTransaction(&model.Transaction{
			AccountID:   id,
			Date:        time.Date(2024, 1, i+1, 0, 0, 0, 0, time.UTC),
			Description: "entry",
			Amount:      decimal.RequireFromString(amount),
		})
		require.NoError(t, err)
	}

	balances, err := s.GetAccountBalances(false)
	require.NoError(t, err)
	require.Len(t, balances, 1)
	assert.Equal(t, "10.35", balances[0].Balance.StringFixed(2))

	txs, err := s.GetTransactionsByAccount(id, 2)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, "2024-01-03", txs[0].Date.Format("2006-01-02"))
	assert.Nil(t, txs[0].BillingTransactionID)
}

func TestInsertTransactionConstraints(t *testing.T) {
	s, _ := newStore(t)
	id := mustAccount(t, s, "Billing", true, "0")

	tx := &model.Transaction{
		AccountID:            id,
		Date:                 time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Description:          "Factura",
		Amount:               decimal.RequireFromString("1"),
		BillingTransactionID: ptr(600),
	}
	_, err := s.InsertTransaction(tx)
	require.NoError(t, err)

	_, err = s.InsertTransaction(tx)
	assert.ErrorIs(t, err, store.ErrDuplicateBillingTransaction)

	orphan := *tx
	orphan.AccountID = 9999
	orphan.BillingTransactionID = ptr(601)
	_, err = s.InsertTransaction(&orphan)
	assert.ErrorIs(t, err, store.ErrConstraintViolation)
}

func TestUpdateAndDeleteMissingTransaction(t *testing.T) {
	s, _ := newStore(t)

	err := s.UpdateTransaction(&model.Transaction{ID: 42, Amount: decimal.Zero})
	assert.ErrorIs(t, err, store.ErrRecordNotFound)

	err = s.DeleteTransaction(42)
	assert.ErrorIs(t, err, store.ErrRecordNotFound)
}

func TestBillingCursorsKeepUnsetValues(t *testing.T) {
	s, _ := newStore(t)
	id := mustAccount(t, s, "Billing", true, "0")

	require.NoError(t, s.SaveBillingCheckpoints(id, ptr(3), nil))
	require.NoError(t, s.SaveBillingCheckpoints(id, nil, ptr(7)))

	syncedAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.SaveBillingConfirmation(id, nil, ptr(7), syncedAt))

	acc, err := s.GetAccountByID(id)
	require.NoError(t, err)
	assert.Equal(t, ptr(3), acc.Cursors.TransactionsCheckpoint)
	assert.Nil(t, acc.Cursors.TransactionsConfirmed)
	assert.Equal(t, ptr(7), acc.Cursors.ChangesCheckpoint)
	assert.Equal(t, ptr(7), acc.Cursors.ChangesConfirmed)
	require.NotNil(t, acc.SyncedAt)
	assert.True(t, syncedAt.Equal(*acc.SyncedAt))

	require.NoError(t, s.ResetBillingCursors(id))
	acc, err = s.GetAccountByID(id)
	require.NoError(t, err)
	assert.Equal(t, model.BillingCursors{}, acc.Cursors)
	assert.Nil(t, acc.SyncedAt)

	assert.ErrorIs(t, s.SaveBillingCheckpoints(9999, ptr(1), nil), store.ErrRecordNotFound)
}

func TestSyncStateUpsert(t *testing.T) {
	s, _ := newStore(t)

	_, err := s.GetSyncState(600)
	assert.ErrorIs(t, err, store.ErrRecordNotFound)

	state := &model.BillingSyncState{
		BillingTransactionID: 600,
		ExportableMovementID: ptr(44),
		Status:               model.SyncStatusAvailable,
		UpdatedAtEventID:     5,
		LastChangeEventID:    ptr(5),
	}
	require.NoError(t, s.UpsertSyncState(state))

	first, err := s.GetSyncState(600)
	require.NoError(t, err)

	state.Status = model.SyncStatusUnavailable
	state.UpdatedAtEventID = 9
	state.LastChangeEventID = ptr(9)
	state.LastTransactionEventID = ptr(2)
	require.NoError(t, s.UpsertSyncState(state))
	require.NoError(t, s.UpsertSyncState(&model.BillingSyncState{
		BillingTransactionID: 601, Status: model.SyncStatusUnavailable, UpdatedAtEventID: 1,
	}))

	got, err := s.GetSyncState(600)
	require.NoError(t, err)
	assert.Equal(t, model.SyncStatusUnavailable, got.Status)
	assert.Equal(t, int64(9), got.UpdatedAtEventID)
	assert.Equal(t, ptr(2), got.LastTransactionEventID)
	assert.Equal(t, ptr(44), got.ExportableMovementID)
	assert.True(t, first.CreatedAt.Equal(got.CreatedAt))

	counts, err := s.CountSyncStates()
	require.NoError(t, err)
	assert.Equal(t, map[model.SyncStatus]int{model.SyncStatusUnavailable: 2}, counts)

	err = s.UpsertSyncState(&model.BillingSyncState{BillingTransactionID: 700, Status: "pending"})
	assert.ErrorIs(t, err, store.ErrConstraintViolation)
}

func TestExecTxRollsBack(t *testing.T) {
	s, _ := newStore(t)
	id := mustAccount(t, s, "Billing", true, "0")
	boom := errors.New("boom")

	err := s.ExecTx(context.Background(), func(repo store.Repository) error {
		if err := repo.SaveBillingCheckpoints(id, ptr(10), ptr(10)); err != nil {
			return err
		}
		assert.ErrorIs(t, repo.ExecTx(context.Background(), func(store.Repository) error { return nil }), store.ErrNestedTx)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	acc, err := s.GetAccountByID(id)
	require.NoError(t, err)
	assert.Nil(t, acc.Cursors.ChangesCheckpoint)

	err = s.ExecTx(context.Background(), func(repo store.Repository) error {
		return repo.SaveBillingCheckpoints(id, ptr(10), ptr(11))
	})
	require.NoError(t, err)
	acc, err = s.GetAccountByID(id)
	require.NoError(t, err)
	assert.Equal(t, ptr(11), acc.Cursors.ChangesCheckpoint)
}
