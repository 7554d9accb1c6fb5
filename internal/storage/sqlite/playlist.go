package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"yt_mirror/internal/domain"
)

type PlaylistStore struct {
	db    *sqlx.DB
	retry *Retryer
	now   func() time.Time
}

func NewPlaylistStore(db *sqlx.DB, retry *Retryer) *PlaylistStore {
	return &PlaylistStore{db: db, retry: retry, now: time.Now}
}

// Upsert inserts the playlist row if absent and unconditionally
// refreshes its last-synchronized timestamp, returning the surrogate
// id. The timestamp refresh is not optional; if it fails the whole
// sync aborts.
func (s *PlaylistStore) Upsert(ctx context.Context, name string) (int64, error) {
	ex := GetExecutor(ctx, s.db)
	ts := formatTime(s.now())

	err := s.retry.Do(ctx, func() error {
		_, err := ex.ExecContext(ctx,
			"INSERT OR IGNORE INTO playlists (name, last_updated) VALUES (?, ?)",
			name, ts,
		)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("insert playlist: %w", err)
	}

	err = s.retry.Do(ctx, func() error {
		_, err := ex.ExecContext(ctx,
			"UPDATE playlists SET last_updated = ? WHERE name = ?",
			ts, name,
		)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("touch playlist: %w", err)
	}

	var id int64
	err = ex.QueryRowxContext(ctx, "SELECT id FROM playlists WHERE name = ?", name).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("select playlist id: %w", err)
	}

	return id, nil
}

func (s *PlaylistStore) GetByName(ctx context.Context, name string) (*domain.Playlist, error) {
	ex := GetExecutor(ctx, s.db)

	var id int64
	var lastUpdated string
	err := ex.QueryRowxContext(ctx,
		"SELECT id, last_updated FROM playlists WHERE name = ?", name,
	).Scan(&id, &lastUpdated)
	if err != nil {
		return nil, err
	}

	return &domain.Playlist{
		ID:          id,
		Name:        name,
		LastUpdated: parseTime(lastUpdated),
	}, nil
}
