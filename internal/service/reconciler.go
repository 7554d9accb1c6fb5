package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"yt_mirror/internal/domain"
)

// ListingReconciler brings the local playlist, video and membership
// rows in line with the remote listing as observed at fetch time.
type ListingReconciler struct {
	source    ListingSource
	playlists PlaylistStore
	videos    VideoStore
	publisher Publisher
	logger    *slog.Logger
}

func NewListingReconciler(
	source ListingSource,
	playlists PlaylistStore,
	videos VideoStore,
	publisher Publisher,
	logger *slog.Logger,
) *ListingReconciler {
	return &ListingReconciler{
		source:    source,
		playlists: playlists,
		videos:    videos,
		publisher: publisher,
		logger:    logger.With("component", "reconciler"),
	}
}

// Reconcile fetches the listing and upserts every observed entry in
// listing order. A store failure on one entry is logged and counted
// but does not stop the batch. The returned slice holds every pair
// the listing presented, known or new, for downstream consumption.
func (r *ListingReconciler) Reconcile(ctx context.Context, playlistURL string) ([]domain.ListingEntry, *domain.ReconcileStats, error) {
	startTime := time.Now()

	entries, lstats, err := r.source.Fetch(ctx, playlistURL)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch listing: %w", err)
	}

	// The playlist timestamp refresh is mandatory; if it fails the
	// whole sync aborts.
	playlistID, err := r.playlists.Upsert(ctx, playlistURL)
	if err != nil {
		return nil, nil, fmt.Errorf("upsert playlist: %w", err)
	}

	stats := &domain.ReconcileStats{
		Playlist:  playlistURL,
		Listed:    len(entries),
		Malformed: lstats.Malformed,
	}

	for _, entry := range entries {
		isNew, err := r.videos.Save(ctx, entry)
		if err != nil {
			stats.Errors++
			r.logger.Error("save video failed", "video_id", entry.VideoID, "error", err)
			continue
		}

		if err := r.videos.AddMembership(ctx, playlistID, entry.VideoID); err != nil {
			stats.Errors++
			r.logger.Error("save membership failed", "video_id", entry.VideoID, "error", err)
			continue
		}

		if isNew {
			stats.New++
		} else {
			stats.Known++
		}

		if r.publisher != nil && isNew {
			if err := r.publisher.PublishVideo(ctx, entry, playlistURL); err != nil {
				r.logger.Warn("publish video failed", "video_id", entry.VideoID, "error", err)
			} else {
				stats.Published++
			}
		}
	}

	stats.Duration = time.Since(startTime)

	r.logger.Info("playlist reconciled",
		"playlist", playlistURL,
		"listed", stats.Listed,
		"new", stats.New,
		"known", stats.Known,
		"errors", stats.Errors,
		"malformed", stats.Malformed,
		"duration", stats.Duration,
	)

	return entries, stats, nil
}
