package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"yt_mirror/internal/config"
	"yt_mirror/internal/domain"
)

// CommentSyncer pulls the comment stream for videos that are not yet
// fully synced. The whole per-video batch plus the terminal status
// commit as one transaction, so an interrupted fetch re-runs instead
// of being mistaken for done.
type CommentSyncer struct {
	source   CommentSource
	comments CommentStore
	state    SyncStateStore
	tx       TransactionManager
	logger   *slog.Logger
	cfg      config.CommentsConfig
}

func NewCommentSyncer(
	source CommentSource,
	comments CommentStore,
	state SyncStateStore,
	tx TransactionManager,
	logger *slog.Logger,
	cfg config.CommentsConfig,
) *CommentSyncer {
	return &CommentSyncer{
		source:   source,
		comments: comments,
		state:    state,
		tx:       tx,
		logger:   logger.With("component", "comment_syncer"),
		cfg:      cfg,
	}
}

// Sync fetches and persists comments for one video. A video whose
// status is complete is terminal: repeated calls perform no fetch.
func (s *CommentSyncer) Sync(ctx context.Context, videoID string) (*domain.CommentSyncStats, error) {
	startTime := time.Now()
	stats := &domain.CommentSyncStats{VideoID: videoID}

	status, err := s.state.Get(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("get sync state: %w", err)
	}

	if status == domain.StatusComplete {
		stats.AlreadySynced = true
		return stats, nil
	}

	if s.cfg.LegacyCompletenessCheck {
		has, err := s.comments.HasAny(ctx, videoID)
		if err != nil {
			return nil, fmt.Errorf("check existing comments: %w", err)
		}
		if has {
			// Promote the coarse signal to an explicit status so
			// later runs short-circuit without the row probe.
			if err := s.state.Set(ctx, videoID, domain.StatusComplete); err != nil {
				return nil, err
			}
			stats.AlreadySynced = true
			return stats, nil
		}
	}

	if status == domain.StatusInProgress {
		s.logger.Info("redoing interrupted comment sync", "video_id", videoID)
	}

	if err := s.state.Set(ctx, videoID, domain.StatusInProgress); err != nil {
		return nil, err
	}

	it, err := s.source.Comments(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("open comment stream: %w", err)
	}
	defer it.Close()

	err = s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		for {
			if s.cfg.MaxPerVideo > 0 && stats.Fetched >= s.cfg.MaxPerVideo {
				break
			}

			raw, ok := it.Next()
			if !ok {
				break
			}
			stats.Fetched++

			comment := &domain.Comment{
				ID:         raw.ID,
				VideoID:    videoID,
				Text:       raw.Text,
				Author:     raw.Author,
				Votes:      coerceVotes(raw.Votes),
				TimeParsed: raw.TimeParsed,
			}

			inserted, err := s.comments.Insert(txCtx, comment)
			if err != nil {
				return fmt.Errorf("insert comment %s: %w", raw.ID, err)
			}
			if inserted {
				stats.Inserted++
			} else {
				stats.Duplicates++
			}
		}

		if err := it.Err(); err != nil {
			return fmt.Errorf("comment stream: %w", err)
		}

		return s.state.Set(txCtx, videoID, domain.StatusComplete)
	})
	if err != nil {
		return nil, err
	}

	stats.Duration = time.Since(startTime)

	s.logger.Info("comments synced",
		"video_id", videoID,
		"fetched", stats.Fetched,
		"inserted", stats.Inserted,
		"duplicates", stats.Duplicates,
		"duration", stats.Duration,
	)

	return stats, nil
}

// coerceVotes turns the source's vote field into an integer. Anything
// that does not parse as a plain decimal, including empty and
// abbreviated forms like "1.2K", counts as zero.
func coerceVotes(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0
	}
	return n
}
