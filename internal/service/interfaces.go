package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"yt_mirror/internal/domain"
)

// ListingSource produces the current remote listing of a playlist.
type ListingSource interface {
	Fetch(ctx context.Context, playlistURL string) ([]domain.ListingEntry, *domain.ListingStats, error)
}

// CommentIter is a lazy stream of comment records.
type CommentIter interface {
	Next() (domain.RawComment, bool)
	Err() error
	Close() error
}

// CommentSource opens a comment stream for one video.
type CommentSource interface {
	Comments(ctx context.Context, videoID string) (CommentIter, error)
}

type PlaylistStore interface {
	Upsert(ctx context.Context, name string) (int64, error)
}

type VideoStore interface {
	Save(ctx context.Context, entry domain.ListingEntry) (bool, error)
	AddMembership(ctx context.Context, playlistID int64, videoID string) error
}

type CommentStore interface {
	HasAny(ctx context.Context, videoID string) (bool, error)
	Insert(ctx context.Context, c *domain.Comment) (bool, error)
}

type SyncStateStore interface {
	Get(ctx context.Context, videoID string) (domain.CommentSyncStatus, error)
	Set(ctx context.Context, videoID string, status domain.CommentSyncStatus) error
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Publisher interface {
	PublishVideo(ctx context.Context, entry domain.ListingEntry, playlistURL string) error
	Close() error
}
