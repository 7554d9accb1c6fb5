package domain

import "time"

// CommentSyncStatus tracks how far comment ingestion for a video got.
// Only StatusComplete short-circuits a later run; an in-progress row
// means a previous fetch was interrupted and must be redone.
type CommentSyncStatus string

const (
	StatusNotStarted CommentSyncStatus = "not_started"
	StatusInProgress CommentSyncStatus = "in_progress"
	StatusComplete   CommentSyncStatus = "complete"
)

// ListingStats reports how the raw listing output parsed.
type ListingStats struct {
	Lines     int
	Malformed int
}

// ReconcileStats holds statistics about one playlist reconciliation pass.
type ReconcileStats struct {
	Playlist  string
	Listed    int
	New       int
	Known     int
	Errors    int
	Malformed int
	Published int
	Duration  time.Duration
}

// CommentSyncStats holds statistics about one video's comment sync.
type CommentSyncStats struct {
	VideoID       string
	AlreadySynced bool
	Fetched       int
	Inserted      int
	Duplicates    int
	Duration      time.Duration
}
