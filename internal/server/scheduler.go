package server

import (
	"context"
	"errors"
	"time"

	"github.com/hance08/keasync/internal/service"
)

// RunScheduler triggers a sync every interval until ctx is cancelled. Ticks
// that land while a sync is still running are skipped.
func (s *Server) RunScheduler(ctx context.Context, interval time.Duration, limit int) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("billing sync scheduler started", "interval", interval.String())
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			report, err := s.billing.Sync(ctx, limit)
			switch {
			case errors.Is(err, service.ErrSyncInProgress):
				s.logger.Debug("scheduled billing sync skipped, previous run still active")
			case err != nil:
				// The syncer already logged the failure with its run id.
				continue
			default:
				s.logger.Info("scheduled billing sync done", "run_id", report.RunID, "summary", report.Summary())
			}
		}
	}
}
