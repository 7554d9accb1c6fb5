package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"yt_mirror/internal/domain"
)

type VideoStore struct {
	db    *sqlx.DB
	retry *Retryer
	now   func() time.Time
}

func NewVideoStore(db *sqlx.DB, retry *Retryer) *VideoStore {
	return &VideoStore{db: db, retry: retry, now: time.Now}
}

// Save records one observed listing entry: insert-if-absent (the
// stored title is never refreshed for a known video), unconditional
// availability reset plus timestamp touch, and a replace of the title
// full-text entry. Returns true when the video was not known before.
func (s *VideoStore) Save(ctx context.Context, entry domain.ListingEntry) (bool, error) {
	ex := GetExecutor(ctx, s.db)
	ts := formatTime(s.now())

	var isNew bool
	err := s.retry.Do(ctx, func() error {
		res, err := ex.ExecContext(ctx,
			"INSERT OR IGNORE INTO videos (id, title, is_available, last_updated) VALUES (?, ?, 1, ?)",
			entry.VideoID, entry.Title, ts,
		)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		isNew = n > 0
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("insert video: %w", err)
	}

	// Re-observation implies the video is currently reachable, so a
	// previously cleared availability flag comes back on.
	err = s.retry.Do(ctx, func() error {
		_, err := ex.ExecContext(ctx,
			"UPDATE videos SET last_updated = ?, is_available = 1 WHERE id = ?",
			ts, entry.VideoID,
		)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("touch video: %w", err)
	}

	// fts5 has no uniqueness, so replace is delete plus insert.
	err = s.retry.Do(ctx, func() error {
		if _, err := ex.ExecContext(ctx,
			"DELETE FROM fts_videos WHERE id = ?", entry.VideoID,
		); err != nil {
			return err
		}
		_, err := ex.ExecContext(ctx,
			"INSERT INTO fts_videos (id, title) VALUES (?, ?)",
			entry.VideoID, entry.Title,
		)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("index video title: %w", err)
	}

	return isNew, nil
}

// AddMembership records that the video appears in the playlist.
// Duplicate observations only refresh the timestamp. Memberships are
// never removed when a video disappears from a remote listing.
func (s *VideoStore) AddMembership(ctx context.Context, playlistID int64, videoID string) error {
	ex := GetExecutor(ctx, s.db)
	ts := formatTime(s.now())

	err := s.retry.Do(ctx, func() error {
		_, err := ex.ExecContext(ctx,
			"INSERT OR IGNORE INTO playlist_videos (playlist_id, video_id, last_updated) VALUES (?, ?, ?)",
			playlistID, videoID, ts,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("insert membership: %w", err)
	}

	err = s.retry.Do(ctx, func() error {
		_, err := ex.ExecContext(ctx,
			"UPDATE playlist_videos SET last_updated = ? WHERE playlist_id = ? AND video_id = ?",
			ts, playlistID, videoID,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("touch membership: %w", err)
	}

	return nil
}

func (s *VideoStore) Get(ctx context.Context, id string) (*domain.Video, error) {
	ex := GetExecutor(ctx, s.db)

	var title string
	var available int
	var lastUpdated string
	err := ex.QueryRowxContext(ctx,
		"SELECT title, is_available, last_updated FROM videos WHERE id = ?", id,
	).Scan(&title, &available, &lastUpdated)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &domain.Video{
		ID:          id,
		Title:       title,
		Available:   available != 0,
		LastUpdated: parseTime(lastUpdated),
	}, nil
}

// MarkUnavailable clears the availability flag, e.g. when an external
// checker finds the video gone. A later re-observation in any listing
// resurrects it.
func (s *VideoStore) MarkUnavailable(ctx context.Context, id string) error {
	ex := GetExecutor(ctx, s.db)

	return s.retry.Do(ctx, func() error {
		_, err := ex.ExecContext(ctx,
			"UPDATE videos SET is_available = 0, last_updated = ? WHERE id = ?",
			formatTime(s.now()), id,
		)
		return err
	})
}
