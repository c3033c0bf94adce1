package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/hance08/keasync/internal/billing"
	"github.com/hance08/keasync/internal/config"
	"github.com/hance08/keasync/internal/logging"
	"github.com/hance08/keasync/internal/store"
	"github.com/hance08/keasync/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	s, err := store.NewStore(filepath.Join(t.TempDir(), "kea.db"), migrations.FS)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	cfg := config.NewDefault()
	cfg.Billing.BaseURL = "http://billing.invalid/feed"
	cfg.Billing.APIKey = "k"
	return NewService(s, cfg, logging.Discard(), nil), s
}

// stubFeed blocks in Fetch until release is closed, when set.
type stubFeed struct {
	release chan struct{}
	started chan struct{}
	page    *billing.FeedPage
}

func (f *stubFeed) Fetch(ctx context.Context, _ billing.FetchRequest) (*billing.FeedPage, error) {
	if f.started != nil {
		close(f.started)
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.page == nil {
		return &billing.FeedPage{}, nil
	}
	return f.page, nil
}

func (f *stubFeed) Acknowledge(_ context.Context, req billing.AckRequest) (*billing.AckResult, error) {
	return &billing.AckResult{LastTransactionID: req.TransactionsCursor, LastChangeID: req.ChangesCursor}, nil
}

func TestCreateAccount(t *testing.T) {
	svc, _ := newTestService(t)

	acc, err := svc.Account.CreateAccount(CreateAccountInput{Name: " Billing ", OpeningBalance: "12.50", Billing: true})
	require.NoError(t, err)
	assert.Equal(t, "Billing", acc.Name)
	assert.Equal(t, "USD", acc.Currency)
	assert.Equal(t, "12.50", acc.OpeningBalance.StringFixed(2))

	_, err = svc.Account.CreateAccount(CreateAccountInput{Name: "Other", Billing: true})
	assert.ErrorIs(t, err, ErrBillingAccountExists)

	_, err = svc.Account.CreateAccount(CreateAccountInput{Name: "Cash", Currency: "us"})
	assert.Error(t, err)

	_, err = svc.Account.CreateAccount(CreateAccountInput{Name: "Cash", OpeningBalance: "1.005"})
	assert.Error(t, err)

	_, err = svc.Account.CreateAccount(CreateAccountInput{Name: "Billing"})
	assert.ErrorIs(t, err, store.ErrAccountExists)

	balances, err := svc.Account.ListAccounts(false)
	require.NoError(t, err)
	require.Len(t, balances, 1)
	assert.Equal(t, "12.50", balances[0].Balance.StringFixed(2))
}

func TestTransactionHistoryDefaultsToBillingAccount(t *testing.T) {
	svc, _ := newTestService(t)

	_, _, err := svc.Transaction.GetTransactionHistory("", 0)
	assert.ErrorIs(t, err, store.ErrRecordNotFound)

	_, err = svc.Account.CreateAccount(CreateAccountInput{Name: "Billing", Billing: true})
	require.NoError(t, err)

	acc, txs, err := svc.Transaction.GetTransactionHistory("", 0)
	require.NoError(t, err)
	assert.Equal(t, "Billing", acc.Name)
	assert.Empty(t, txs)
}

func TestBillingSyncStatusAndReset(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Billing.Status()
	assert.ErrorIs(t, err, billing.ErrNoBillingAccount)

	_, err = svc.Account.CreateAccount(CreateAccountInput{Name: "Billing", Billing: true})
	require.NoError(t, err)

	three := int64(3)
	svc.Billing.SetClientFactory(func(config.BillingConfig) (billing.FeedClient, error) {
		return &stubFeed{page: &billing.FeedPage{ChangesCheckpoint: &three}}, nil
	})

	report, err := svc.Billing.Sync(context.Background(), 0)
	require.NoError(t, err)
	assert.True(t, report.Acknowledged)

	status, err := svc.Billing.Status()
	require.NoError(t, err)
	assert.True(t, status.Configured)
	assert.False(t, status.Running)
	assert.Equal(t, &three, status.Cursors.ChangesConfirmed)
	assert.NotNil(t, status.SyncedAt)

	_, err = svc.Billing.Reset()
	require.NoError(t, err)
	status, err = svc.Billing.Status()
	require.NoError(t, err)
	assert.Nil(t, status.Cursors.ChangesConfirmed)
	assert.Nil(t, status.SyncedAt)
}

func TestBillingSyncRejectsConcurrentRuns(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Account.CreateAccount(CreateAccountInput{Name: "Billing", Billing: true})
	require.NoError(t, err)

	feed := &stubFeed{release: make(chan struct{}), started: make(chan struct{})}
	svc.Billing.SetClientFactory(func(config.BillingConfig) (billing.FeedClient, error) {
		return feed, nil
	})

	done := make(chan error, 1)
	go func() {
		_, err := svc.Billing.Sync(context.Background(), 0)
		done <- err
	}()

	select {
	case <-feed.started:
	case <-time.After(5 * time.Second):
		t.Fatal("first sync never reached the feed")
	}

	_, err = svc.Billing.Sync(context.Background(), 0)
	assert.ErrorIs(t, err, ErrSyncInProgress)
	_, err = svc.Billing.Reset()
	assert.ErrorIs(t, err, ErrSyncInProgress)

	close(feed.release)
	require.NoError(t, <-done)
}

func TestBillingSyncReportsMissingConfig(t *testing.T) {
	svc, _ := newTestService(t)
	svc.Billing.config.Billing.APIKey = ""

	_, err := svc.Billing.Sync(context.Background(), 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, billing.ErrConfig))
}
