// Package sqlite is the durable store: a single file-backed SQLite
// database shared by concurrent process invocations. Schema creation
// is idempotent and additive; every write path that feeds a full-text
// index writes the index entry in the same store call.
package sqlite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// DefaultFileName is the conventional database file name; the file is
// the sole interchange artifact between runs.
const DefaultFileName = "yt_data.db"

// Open opens (creating if needed) the database file at path.
func Open(path string) (*sqlx.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sqlx.Connect("sqlite3", path+"?_fk=1")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// One writer at a time anyway; a second in-process connection
	// would only contend with the first.
	db.SetMaxOpenConns(1)

	return db, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS playlists (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT UNIQUE,
		last_updated TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS videos (
		id TEXT PRIMARY KEY,
		title TEXT,
		is_available INTEGER,
		last_updated TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS playlist_videos (
		playlist_id INTEGER,
		video_id TEXT,
		last_updated TEXT,
		FOREIGN KEY (playlist_id) REFERENCES playlists(id),
		FOREIGN KEY (video_id) REFERENCES videos(id),
		UNIQUE (playlist_id, video_id)
	)`,
	`CREATE TABLE IF NOT EXISTS comments (
		id TEXT PRIMARY KEY,
		video_id TEXT,
		text TEXT,
		author TEXT,
		votes INTEGER,
		time_parsed INTEGER,
		FOREIGN KEY (video_id) REFERENCES videos(id)
	)`,
	`CREATE TABLE IF NOT EXISTS comment_sync_state (
		video_id TEXT PRIMARY KEY,
		status TEXT,
		last_updated TEXT
	)`,
	`CREATE VIRTUAL TABLE IF NOT EXISTS fts_videos USING fts5(id, title)`,
	`CREATE VIRTUAL TABLE IF NOT EXISTS fts_comments USING fts5(id, text)`,
}

// Migrate creates all tables and full-text indexes that do not exist
// yet. Safe to run on every startup and against files written by
// older versions.
func Migrate(ctx context.Context, db *sqlx.DB, retry *Retryer) error {
	for _, stmt := range schema {
		stmt := stmt
		err := retry.Do(ctx, func() error {
			_, err := db.ExecContext(ctx, stmt)
			return err
		})
		if err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
