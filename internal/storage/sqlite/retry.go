package sqlite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mattn/go-sqlite3"

	"yt_mirror/internal/config"
)

// ErrBusyTimeout is returned when the database stayed locked for the
// whole retry budget. Callers can distinguish it from a permanent
// store error with errors.Is.
var ErrBusyTimeout = errors.New("sqlite: database still locked after retries")

// Retryer executes a single write against the store, absorbing
// transient lock contention from concurrent processes. Only busy and
// locked errors are retried; constraint violations, corruption and
// I/O errors propagate immediately.
type Retryer struct {
	interval    time.Duration
	maxAttempts int
	logger      *slog.Logger
}

func NewRetryer(cfg config.RetryConfig, logger *slog.Logger) *Retryer {
	return &Retryer{
		interval:    cfg.Interval,
		maxAttempts: cfg.MaxAttempts,
		logger:      logger.With("component", "retryer"),
	}
}

// Do runs fn, retrying with a fixed delay while the database is
// locked by another writer. After maxAttempts the wrapped
// ErrBusyTimeout is returned instead of looping forever.
func (r *Retryer) Do(ctx context.Context, fn func() error) error {
	var lastErr error

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if !isBusy(err) {
			return err
		}
		lastErr = err

		r.logger.Debug("waiting for database lock",
			"attempt", attempt,
			"delay", r.interval,
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.interval):
		}
	}

	return fmt.Errorf("%d attempts exhausted (%v): %w", r.maxAttempts, lastErr, ErrBusyTimeout)
}

func isBusy(err error) bool {
	var serr sqlite3.Error
	if !errors.As(err, &serr) {
		return false
	}
	return serr.Code == sqlite3.ErrBusy || serr.Code == sqlite3.ErrLocked
}
