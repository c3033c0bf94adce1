package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/hance08/keasync/internal/billing"
	"github.com/hance08/keasync/internal/config"
	"github.com/hance08/keasync/internal/model"
	"github.com/hance08/keasync/internal/store"
)

var ErrSyncInProgress = errors.New("a billing sync is already running")

// ClientFactory builds the feed client for one sync run.
type ClientFactory func(config.BillingConfig) (billing.FeedClient, error)

type BillingService struct {
	repo      store.Repository
	config    *config.Config
	logger    *slog.Logger
	metrics   *billing.Metrics
	newClient ClientFactory

	running atomic.Bool
}

func NewBillingService(repo store.Repository, cfg *config.Config, logger *slog.Logger, metrics *billing.Metrics) *BillingService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BillingService{
		repo:    repo,
		config:  cfg,
		logger:  logger,
		metrics: metrics,
		newClient: func(c config.BillingConfig) (billing.FeedClient, error) {
			return billing.NewHTTPClient(c, nil)
		},
	}
}

func (bs *BillingService) SetClientFactory(f ClientFactory) {
	bs.newClient = f
}

// Sync runs one synchronization. Concurrent calls fail fast with
// ErrSyncInProgress instead of queueing.
func (bs *BillingService) Sync(ctx context.Context, limit int) (*billing.Report, error) {
	if !bs.running.CompareAndSwap(false, true) {
		return nil, ErrSyncInProgress
	}
	defer bs.running.Store(false)

	if limit <= 0 {
		limit = bs.config.Billing.Limit
	}

	client, err := bs.newClient(bs.config.Billing)
	if err != nil {
		return nil, err
	}

	syncer := billing.NewSyncer(bs.repo, client,
		billing.WithLogger(bs.logger),
		billing.WithMetrics(bs.metrics),
	)
	return syncer.Sync(ctx, limit)
}

type BillingStatus struct {
	Configured  bool   `json:"configured"`
	BaseURL     string `json:"base_url,omitempty"`
	Running     bool   `json:"running"`
	AccountID   int64  `json:"account_id"`
	AccountName string `json:"account_name"`

	Cursors  model.BillingCursors `json:"cursors"`
	SyncedAt *time.Time           `json:"synced_at,omitempty"`

	Available   int `json:"available"`
	Unavailable int `json:"unavailable"`
}

func (bs *BillingService) Status() (*BillingStatus, error) {
	acc, err := bs.billingAccount()
	if err != nil {
		return nil, err
	}

	counts, err := bs.repo.CountSyncStates()
	if err != nil {
		return nil, err
	}

	return &BillingStatus{
		Configured:  bs.config.Billing.Validate() == nil,
		BaseURL:     bs.config.Billing.BaseURL,
		Running:     bs.running.Load(),
		AccountID:   acc.ID,
		AccountName: acc.Name,
		Cursors:     acc.Cursors,
		SyncedAt:    acc.SyncedAt,
		Available:   counts[model.SyncStatusAvailable],
		Unavailable: counts[model.SyncStatusUnavailable],
	}, nil
}

// Reset forgets every cursor so the next sync starts from the beginning of
// the feed. Per-transaction sync states are kept, so replayed events are
// still recognised.
func (bs *BillingService) Reset() (*model.Account, error) {
	if bs.running.Load() {
		return nil, ErrSyncInProgress
	}

	acc, err := bs.billingAccount()
	if err != nil {
		return nil, err
	}
	if err := bs.repo.ResetBillingCursors(acc.ID); err != nil {
		return nil, fmt.Errorf("failed to reset billing cursors: %w", err)
	}

	bs.logger.Info("billing cursors reset", "account_id", acc.ID)
	return acc, nil
}

func (bs *BillingService) billingAccount() (*model.Account, error) {
	acc, err := bs.repo.GetBillingAccount()
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, billing.ErrNoBillingAccount
		}
		return nil, err
	}
	return acc, nil
}
