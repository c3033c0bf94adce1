package billing

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/hance08/keasync/internal/logging"
	"github.com/hance08/keasync/internal/model"
	"github.com/hance08/keasync/internal/store"
	"github.com/hance08/keasync/migrations"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.NewStore(filepath.Join(t.TempDir(), "kea.db"), migrations.FS)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func createBillingAccount(t *testing.T, s *store.Store) *model.Account {
	t.Helper()
	id, err := s.CreateAccount(&model.Account{
		Name:      "Billing",
		Currency:  "ARS",
		IsActive:  true,
		IsBilling: true,
	})
	require.NoError(t, err)
	acc, err := s.GetAccountByID(id)
	require.NoError(t, err)
	return acc
}

func seedTransaction(t *testing.T, s *store.Store, accountID, billingID int64, description, amount, notes string) *model.Transaction {
	t.Helper()
	tx := &model.Transaction{
		AccountID:            accountID,
		Date:                 time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Description:          description,
		Amount:               decimal.RequireFromString(amount),
		Notes:                notes,
		BillingTransactionID: &billingID,
	}
	id, err := s.InsertTransaction(tx)
	require.NoError(t, err)
	tx.ID = id
	return tx
}

// snapshot builds a RawSnapshot the way it arrives off the wire.
func snapshot(t *testing.T, fields map[string]any) *RawSnapshot {
	t.Helper()
	b, err := json.Marshal(fields)
	require.NoError(t, err)
	var snap RawSnapshot
	require.NoError(t, json.Unmarshal(b, &snap))
	return &snap
}

func change(id int64, kind EventKind, txID int64, snap *RawSnapshot) ChangeEvent {
	return ChangeEvent{ID: id, Stream: StreamChanges, Kind: kind, TransactionID: txID, Snapshot: snap}
}

func applyBatch(t *testing.T, s *store.Store, accountID int64, events []ChangeEvent) (Counts, error) {
	t.Helper()
	var counts Counts
	err := s.ExecTx(context.Background(), func(repo store.Repository) error {
		var err error
		counts, err = NewEngine(repo, accountID, logging.Discard()).Apply(events)
		return err
	})
	return counts, err
}

func ptr(v int64) *int64 { return &v }

// fakeFeed is an in-memory FeedClient.
type fakeFeed struct {
	mu      sync.Mutex
	pages   []*FeedPage
	ackErr  error
	ackResp *AckResult

	fetches []FetchRequest
	acks    []AckRequest
}

func (f *fakeFeed) Fetch(_ context.Context, req FetchRequest) (*FeedPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches = append(f.fetches, req)
	if len(f.pages) == 0 {
		return &FeedPage{}, nil
	}
	page := f.pages[0]
	if len(f.pages) > 1 {
		f.pages = f.pages[1:]
	}
	return page, nil
}

func (f *fakeFeed) Acknowledge(_ context.Context, req AckRequest) (*AckResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acks = append(f.acks, req)
	if f.ackErr != nil {
		return nil, f.ackErr
	}
	if f.ackResp != nil {
		return f.ackResp, nil
	}
	return &AckResult{LastTransactionID: req.TransactionsCursor, LastChangeID: req.ChangesCursor}, nil
}

// failingStore fails every transaction after the first okTx ones.
type failingStore struct {
	store.Repository
	okTx  int
	calls int
}

var errDiskFull = errors.New("database or disk is full")

func (f *failingStore) ExecTx(ctx context.Context, fn func(store.Repository) error) error {
	f.calls++
	if f.calls > f.okTx {
		return errDiskFull
	}
	return f.Repository.ExecTx(ctx, fn)
}
