package sqlite

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yt_mirror/internal/config"
)

func testRetryer(maxAttempts int) *Retryer {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewRetryer(config.RetryConfig{Interval: time.Millisecond, MaxAttempts: maxAttempts}, logger)
}

func TestRetryer_SucceedsAfterContention(t *testing.T) {
	r := testRetryer(5)

	calls := 0
	err := r.Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return sqlite3.Error{Code: sqlite3.ErrBusy}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryer_BoundedBusyReturnsTimeout(t *testing.T) {
	r := testRetryer(4)

	calls := 0
	err := r.Do(context.Background(), func() error {
		calls++
		return sqlite3.Error{Code: sqlite3.ErrLocked}
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBusyTimeout)
	assert.Equal(t, 4, calls)
}

func TestRetryer_PermanentErrorNotRetried(t *testing.T) {
	r := testRetryer(5)

	permanent := sqlite3.Error{Code: sqlite3.ErrConstraint}
	calls := 0
	err := r.Do(context.Background(), func() error {
		calls++
		return permanent
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.NotErrorIs(t, err, ErrBusyTimeout)
}

func TestRetryer_PlainErrorNotRetried(t *testing.T) {
	r := testRetryer(5)

	calls := 0
	err := r.Do(context.Background(), func() error {
		calls++
		return errors.New("disk on fire")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryer_WrappedBusyIsRetried(t *testing.T) {
	r := testRetryer(3)

	calls := 0
	err := r.Do(context.Background(), func() error {
		calls++
		if calls == 1 {
			return errors.Join(errors.New("exec failed"), sqlite3.Error{Code: sqlite3.ErrBusy})
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestRetryer_ContextCancelAbortsWait(t *testing.T) {
	r := testRetryer(1000)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := r.Do(ctx, func() error {
		return sqlite3.Error{Code: sqlite3.ErrBusy}
	})

	assert.ErrorIs(t, err, context.Canceled)
}
