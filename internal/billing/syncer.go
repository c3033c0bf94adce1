package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hance08/keasync/internal/config"
	"github.com/hance08/keasync/internal/model"
	"github.com/hance08/keasync/internal/store"
)

// Report describes one sync run. It is returned alongside an AckError, since
// the batch was already committed by then.
type Report struct {
	RunID     string `json:"run_id"`
	AccountID int64  `json:"account_id"`
	Counts    Counts `json:"counts"`

	Cursors      model.BillingCursors `json:"cursors"`
	Acknowledged bool                 `json:"acknowledged"`
	SyncedAt     *time.Time           `json:"synced_at,omitempty"`
}

// Summary is the one-line outcome shown to operators.
func (r *Report) Summary() string {
	return fmt.Sprintf("Synced %s, %s, %s.",
		plural(r.Counts.Created, "new transaction"),
		plural(r.Counts.Updated, "updated transaction"),
		plural(r.Counts.Deleted, "deleted transaction"))
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// Syncer runs the fetch, apply, commit, acknowledge, confirm sequence. Callers
// must not run two syncs for the same account concurrently.
type Syncer struct {
	repo    store.Repository
	client  FeedClient
	logger  *slog.Logger
	metrics *Metrics
	now     func() time.Time
}

type SyncerOption func(*Syncer)

func WithLogger(l *slog.Logger) SyncerOption {
	return func(s *Syncer) { s.logger = l }
}

func WithMetrics(m *Metrics) SyncerOption {
	return func(s *Syncer) { s.metrics = m }
}

func WithClock(now func() time.Time) SyncerOption {
	return func(s *Syncer) { s.now = now }
}

func NewSyncer(repo store.Repository, client FeedClient, opts ...SyncerOption) *Syncer {
	s := &Syncer{
		repo:   repo,
		client: client,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Syncer) Sync(ctx context.Context, limit int) (*Report, error) {
	start := time.Now()
	report := &Report{RunID: uuid.NewString()}
	logger := s.logger.With("run_id", report.RunID)

	err := s.sync(ctx, config.ClampLimit(limit), report, logger)

	s.metrics.observe(resultLabel(err), report.Counts, time.Since(start).Seconds())
	if err != nil {
		logger.Error("billing sync failed", "error", err)
		var ackErr *AckError
		if errors.As(err, &ackErr) {
			return report, err
		}
		return nil, err
	}

	logger.Info("billing sync finished",
		"created", report.Counts.Created,
		"updated", report.Counts.Updated,
		"deleted", report.Counts.Deleted,
		"skipped", report.Counts.Skipped,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return report, nil
}

func (s *Syncer) sync(ctx context.Context, limit int, report *Report, logger *slog.Logger) error {
	acc, err := s.repo.GetBillingAccount()
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return ErrNoBillingAccount
		}
		return &StorageError{Phase: "load", Err: err}
	}
	report.AccountID = acc.ID
	report.Cursors = acc.Cursors
	report.SyncedAt = acc.SyncedAt

	// Always resume from what the remote confirmed, never from the last
	// fetched checkpoint, so an unacknowledged page is fetched again.
	since := acc.Cursors.ChangesConfirmed
	page, err := s.client.Fetch(ctx, FetchRequest{Limit: limit, ChangesSince: since})
	if err != nil {
		return err
	}
	logRemoteConfirmation(logger, acc.Cursors, page)

	events, err := NormalizeEvents(page)
	if err != nil {
		return err
	}
	logger.Debug("fetched billing page",
		"transaction_events", len(page.TransactionEvents),
		"changes", len(page.Changes),
		"snapshots", len(page.Snapshots))

	err = s.repo.ExecTx(ctx, func(repo store.Repository) error {
		counts, err := NewEngine(repo, acc.ID, logger).Apply(events)
		if err != nil {
			return err
		}
		report.Counts = counts
		return repo.SaveBillingCheckpoints(acc.ID, page.TransactionsCheckpoint, page.ChangesCheckpoint)
	})
	if err != nil {
		report.Counts = Counts{}
		var protocolErr *ProtocolError
		if errors.As(err, &protocolErr) {
			return err
		}
		return &StorageError{Phase: "apply", Err: err}
	}
	if page.TransactionsCheckpoint != nil {
		report.Cursors.TransactionsCheckpoint = page.TransactionsCheckpoint
	}
	if page.ChangesCheckpoint != nil {
		report.Cursors.ChangesCheckpoint = page.ChangesCheckpoint
	}

	ack, err := s.client.Acknowledge(ctx, AckRequest{
		TransactionsCursor: page.TransactionsCheckpoint,
		ChangesCursor:      page.ChangesCheckpoint,
	})
	if err != nil {
		return &AckError{Err: err}
	}
	report.Acknowledged = true

	txConfirmed := confirmedCursor(acc.Cursors.TransactionsConfirmed, ack.LastTransactionID, page.TransactionsCheckpoint)
	changesConfirmed := confirmedCursor(acc.Cursors.ChangesConfirmed, ack.LastChangeID, page.ChangesCheckpoint)
	syncedAt := s.now().UTC()
	if at := ack.UpdatedAt(); at != nil {
		syncedAt = *at
	}

	err = s.repo.ExecTx(ctx, func(repo store.Repository) error {
		return repo.SaveBillingConfirmation(acc.ID, txConfirmed, changesConfirmed, syncedAt)
	})
	if err != nil {
		return &StorageError{Phase: "confirm", Err: err}
	}

	if txConfirmed != nil {
		report.Cursors.TransactionsConfirmed = txConfirmed
	}
	if changesConfirmed != nil {
		report.Cursors.ChangesConfirmed = changesConfirmed
	}
	report.SyncedAt = &syncedAt
	return nil
}

// confirmedCursor picks the cursor to record after a successful ack: what the
// remote reported (or what we sent), never past the checkpoint and never
// below the previous confirmation. nil leaves the stored value unchanged.
func confirmedCursor(previous, acked, sent *int64) *int64 {
	if sent == nil {
		return nil
	}
	v := *sent
	if acked != nil && *acked < v {
		v = *acked
	}
	if previous != nil && v < *previous {
		v = *previous
	}
	return &v
}

func logRemoteConfirmation(logger *slog.Logger, local model.BillingCursors, page *FeedPage) {
	if page.ChangesConfirmed != nil && !sameCursor(local.ChangesConfirmed, page.ChangesConfirmed) {
		logger.Warn("remote change confirmation differs from local",
			"local", cursorValue(local.ChangesConfirmed), "remote", *page.ChangesConfirmed)
	}
	if page.TransactionsConfirmed != nil && !sameCursor(local.TransactionsConfirmed, page.TransactionsConfirmed) {
		logger.Warn("remote transaction confirmation differs from local",
			"local", cursorValue(local.TransactionsConfirmed), "remote", *page.TransactionsConfirmed)
	}
}

func sameCursor(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func cursorValue(c *int64) any {
	if c == nil {
		return nil
	}
	return *c
}
