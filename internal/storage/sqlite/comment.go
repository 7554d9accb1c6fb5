package sqlite

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"yt_mirror/internal/domain"
)

type CommentStore struct {
	db    *sqlx.DB
	retry *Retryer
}

func NewCommentStore(db *sqlx.DB, retry *Retryer) *CommentStore {
	return &CommentStore{db: db, retry: retry}
}

// HasAny reports whether at least one comment row references the
// video. This is the legacy completeness signal.
func (s *CommentStore) HasAny(ctx context.Context, videoID string) (bool, error) {
	ex := GetExecutor(ctx, s.db)

	var exists int
	err := ex.QueryRowxContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM comments WHERE video_id = ? LIMIT 1)", videoID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check comments: %w", err)
	}
	return exists != 0, nil
}

// Insert writes the comment if its id is not known yet and replaces
// the text full-text entry in the same call, so the index cannot be
// skipped by a call site. Comments are snapshots: an existing row is
// left untouched. Returns true when a row was actually inserted.
func (s *CommentStore) Insert(ctx context.Context, c *domain.Comment) (bool, error) {
	ex := GetExecutor(ctx, s.db)

	var inserted bool
	err := s.retry.Do(ctx, func() error {
		res, err := ex.ExecContext(ctx,
			"INSERT OR IGNORE INTO comments (id, video_id, text, author, votes, time_parsed) VALUES (?, ?, ?, ?, ?, ?)",
			c.ID, c.VideoID, c.Text, c.Author, c.Votes, c.TimeParsed,
		)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		inserted = n > 0
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("insert comment: %w", err)
	}

	// fts5 has no uniqueness, so replace is delete plus insert.
	err = s.retry.Do(ctx, func() error {
		if _, err := ex.ExecContext(ctx,
			"DELETE FROM fts_comments WHERE id = ?", c.ID,
		); err != nil {
			return err
		}
		_, err := ex.ExecContext(ctx,
			"INSERT INTO fts_comments (id, text) VALUES (?, ?)",
			c.ID, c.Text,
		)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("index comment text: %w", err)
	}

	return inserted, nil
}

func (s *CommentStore) CountByVideo(ctx context.Context, videoID string) (int, error) {
	ex := GetExecutor(ctx, s.db)

	var count int
	err := ex.QueryRowxContext(ctx,
		"SELECT COUNT(*) FROM comments WHERE video_id = ?", videoID,
	).Scan(&count)
	return count, err
}
