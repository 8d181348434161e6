package service

import (
	"context"
	"errors"
	"time"

	"github.com/finsible/sync-core/internal/logger"
)

// SyncJob periodically drains the pending queue while the app is
// running. It complements the event-driven triggers (enqueue,
// connectivity restore, post-auth) by catching anything they missed.
type SyncJob struct {
	driver       *Driver
	auth         Authenticator
	connectivity *ConnectivityObserver
	interval     time.Duration
	logger       *logger.Logger
}

func NewSyncJob(driver *Driver, auth Authenticator, connectivity *ConnectivityObserver, interval time.Duration, log *logger.Logger) *SyncJob {
	return &SyncJob{
		driver:       driver,
		auth:         auth,
		connectivity: connectivity,
		interval:     interval,
		logger:       log,
	}
}

// Run loops until ctx is cancelled. Ticks while signed out or offline
// are skipped silently; the queue is durable and loses nothing.
func (j *SyncJob) Run(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if !j.auth.IsAuthenticated() || !j.connectivity.IsOnline() {
				continue
			}
			if err := j.driver.Drain(ctx); err != nil && !errors.Is(err, context.Canceled) {
				j.logger.Warn().Err(err).Msg("periodic drain finished with errors")
			}
		}
	}
}
