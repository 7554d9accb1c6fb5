package domain

import "time"

// Playlist is a remote playlist mirrored into the local store.
// Name is the playlist URL as given on the command line; it is the
// natural key, the numeric ID is a local surrogate.
type Playlist struct {
	ID          int64     `db:"id"`
	Name        string    `db:"name"`
	LastUpdated time.Time `db:"last_updated"`
}

// Video is a single playlist item keyed by its external video ID.
// Available flips back to true whenever the video is re-observed in
// any listing, regardless of who cleared it.
type Video struct {
	ID          string    `db:"id"`
	Title       string    `db:"title"`
	Available   bool      `db:"is_available"`
	LastUpdated time.Time `db:"last_updated"`
}

// ListingEntry is one (video id, title) pair as presented by the
// listing source, in listing order.
type ListingEntry struct {
	VideoID string
	Title   string
}
