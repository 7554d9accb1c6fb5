package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"yt_mirror/internal/domain"
)

type SyncStateStore struct {
	db    *sqlx.DB
	retry *Retryer
	now   func() time.Time
}

func NewSyncStateStore(db *sqlx.DB, retry *Retryer) *SyncStateStore {
	return &SyncStateStore{db: db, retry: retry, now: time.Now}
}

// Get returns the comment sync status for the video, StatusNotStarted
// when the video has no state row yet.
func (s *SyncStateStore) Get(ctx context.Context, videoID string) (domain.CommentSyncStatus, error) {
	ex := GetExecutor(ctx, s.db)

	var status string
	err := ex.QueryRowxContext(ctx,
		"SELECT status FROM comment_sync_state WHERE video_id = ?", videoID,
	).Scan(&status)
	if err == sql.ErrNoRows {
		return domain.StatusNotStarted, nil
	}
	if err != nil {
		return "", fmt.Errorf("select sync state: %w", err)
	}

	return domain.CommentSyncStatus(status), nil
}

// Set records the status. Committed inside the caller's transaction
// when one is active, which is how StatusComplete lands atomically
// with the last comment write.
func (s *SyncStateStore) Set(ctx context.Context, videoID string, status domain.CommentSyncStatus) error {
	ex := GetExecutor(ctx, s.db)

	err := s.retry.Do(ctx, func() error {
		_, err := ex.ExecContext(ctx,
			"INSERT OR REPLACE INTO comment_sync_state (video_id, status, last_updated) VALUES (?, ?, ?)",
			videoID, string(status), formatTime(s.now()),
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("set sync state: %w", err)
	}
	return nil
}
