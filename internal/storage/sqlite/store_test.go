package sqlite

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/suite"

	"yt_mirror/internal/config"
	"yt_mirror/internal/domain"
)

type StoreTestSuite struct {
	suite.Suite
	ctx   context.Context
	db    *sqlx.DB
	retry *Retryer

	playlists *PlaylistStore
	videos    *VideoStore
	comments  *CommentStore
	state     *SyncStateStore
}

func (s *StoreTestSuite) SetupTest() {
	s.ctx = context.Background()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	db, err := Open(filepath.Join(s.T().TempDir(), "yt_data.db"))
	s.Require().NoError(err)
	s.db = db

	s.retry = NewRetryer(config.RetryConfig{Interval: time.Millisecond, MaxAttempts: 3}, logger)
	s.Require().NoError(Migrate(s.ctx, db, s.retry))

	s.playlists = NewPlaylistStore(db, s.retry)
	s.videos = NewVideoStore(db, s.retry)
	s.comments = NewCommentStore(db, s.retry)
	s.state = NewSyncStateStore(db, s.retry)
}

func (s *StoreTestSuite) TearDownTest() {
	s.db.Close()
}

func TestStoreTestSuite(t *testing.T) {
	suite.Run(t, new(StoreTestSuite))
}

func (s *StoreTestSuite) count(query string, args ...any) int {
	var n int
	s.Require().NoError(s.db.QueryRowxContext(s.ctx, query, args...).Scan(&n))
	return n
}

func (s *StoreTestSuite) TestMigrate_Idempotent() {
	s.NoError(Migrate(s.ctx, s.db, s.retry))
	s.NoError(Migrate(s.ctx, s.db, s.retry))
}

func (s *StoreTestSuite) TestScenario_PlaylistWithTwoVideos() {
	id, err := s.playlists.Upsert(s.ctx, "P1")
	s.NoError(err)
	s.Greater(id, int64(0))

	for _, e := range []domain.ListingEntry{
		{VideoID: "v1", Title: "Title A"},
		{VideoID: "v2", Title: "Title B"},
	} {
		isNew, err := s.videos.Save(s.ctx, e)
		s.NoError(err)
		s.True(isNew)
		s.NoError(s.videos.AddMembership(s.ctx, id, e.VideoID))
	}

	s.Equal(1, s.count("SELECT COUNT(*) FROM playlists"))
	s.Equal(2, s.count("SELECT COUNT(*) FROM videos"))
	s.Equal(2, s.count("SELECT COUNT(*) FROM playlist_videos"))
	s.Equal(2, s.count("SELECT COUNT(*) FROM fts_videos"))
}

func (s *StoreTestSuite) TestIdempotence_DoubleRunIsStable() {
	run := func() {
		id, err := s.playlists.Upsert(s.ctx, "P1")
		s.Require().NoError(err)
		for _, e := range []domain.ListingEntry{
			{VideoID: "v1", Title: "Title A"},
			{VideoID: "v2", Title: "Title B"},
		} {
			_, err := s.videos.Save(s.ctx, e)
			s.Require().NoError(err)
			s.Require().NoError(s.videos.AddMembership(s.ctx, id, e.VideoID))
		}
	}

	run()
	run()

	s.Equal(1, s.count("SELECT COUNT(*) FROM playlists"))
	s.Equal(2, s.count("SELECT COUNT(*) FROM videos"))
	s.Equal(2, s.count("SELECT COUNT(*) FROM playlist_videos"))
	s.Equal(2, s.count("SELECT COUNT(*) FROM fts_videos"))
}

func (s *StoreTestSuite) TestPlaylistUpsert_RefreshesTimestamp() {
	id1, err := s.playlists.Upsert(s.ctx, "P1")
	s.NoError(err)

	first, err := s.playlists.GetByName(s.ctx, "P1")
	s.NoError(err)

	s.playlists.now = func() time.Time { return time.Now().Add(time.Hour) }

	id2, err := s.playlists.Upsert(s.ctx, "P1")
	s.NoError(err)
	s.Equal(id1, id2)

	second, err := s.playlists.GetByName(s.ctx, "P1")
	s.NoError(err)
	s.True(second.LastUpdated.After(first.LastUpdated))
}

func (s *StoreTestSuite) TestVideoSave_TitleNotRefreshed() {
	_, err := s.videos.Save(s.ctx, domain.ListingEntry{VideoID: "v1", Title: "Original"})
	s.NoError(err)

	isNew, err := s.videos.Save(s.ctx, domain.ListingEntry{VideoID: "v1", Title: "Renamed"})
	s.NoError(err)
	s.False(isNew)

	v, err := s.videos.Get(s.ctx, "v1")
	s.NoError(err)
	s.Equal("Original", v.Title)
}

func (s *StoreTestSuite) TestVideoSave_Resurrection() {
	_, err := s.videos.Save(s.ctx, domain.ListingEntry{VideoID: "v1", Title: "Title A"})
	s.NoError(err)

	s.NoError(s.videos.MarkUnavailable(s.ctx, "v1"))
	v, err := s.videos.Get(s.ctx, "v1")
	s.NoError(err)
	s.False(v.Available)

	_, err = s.videos.Save(s.ctx, domain.ListingEntry{VideoID: "v1", Title: "Title A"})
	s.NoError(err)

	v, err = s.videos.Get(s.ctx, "v1")
	s.NoError(err)
	s.True(v.Available)
}

func (s *StoreTestSuite) TestCommentInsert_Dedup() {
	_, err := s.videos.Save(s.ctx, domain.ListingEntry{VideoID: "v1", Title: "Title A"})
	s.Require().NoError(err)

	c := &domain.Comment{ID: "c1", VideoID: "v1", Text: "hello", Author: "a", Votes: 5, TimeParsed: 100}

	inserted, err := s.comments.Insert(s.ctx, c)
	s.NoError(err)
	s.True(inserted)

	inserted, err = s.comments.Insert(s.ctx, c)
	s.NoError(err)
	s.False(inserted)

	count, err := s.comments.CountByVideo(s.ctx, "v1")
	s.NoError(err)
	s.Equal(1, count)
	s.Equal(1, s.count("SELECT COUNT(*) FROM fts_comments WHERE id = ?", "c1"))
}

func (s *StoreTestSuite) TestCommentHasAny() {
	_, err := s.videos.Save(s.ctx, domain.ListingEntry{VideoID: "v1", Title: "Title A"})
	s.Require().NoError(err)

	has, err := s.comments.HasAny(s.ctx, "v1")
	s.NoError(err)
	s.False(has)

	_, err = s.comments.Insert(s.ctx, &domain.Comment{ID: "c1", VideoID: "v1", Text: "hi"})
	s.Require().NoError(err)

	has, err = s.comments.HasAny(s.ctx, "v1")
	s.NoError(err)
	s.True(has)
}

func (s *StoreTestSuite) TestFullTextSearch_FindsCommentText() {
	_, err := s.videos.Save(s.ctx, domain.ListingEntry{VideoID: "v1", Title: "Title A"})
	s.Require().NoError(err)
	_, err = s.comments.Insert(s.ctx, &domain.Comment{ID: "c1", VideoID: "v1", Text: "an unusual banana anecdote"})
	s.Require().NoError(err)

	s.Equal(1, s.count("SELECT COUNT(*) FROM fts_comments WHERE fts_comments MATCH ?", "banana"))
}

func (s *StoreTestSuite) TestSyncState_DefaultsToNotStarted() {
	status, err := s.state.Get(s.ctx, "v1")
	s.NoError(err)
	s.Equal(domain.StatusNotStarted, status)
}

func (s *StoreTestSuite) TestSyncState_SetAndGet() {
	s.NoError(s.state.Set(s.ctx, "v1", domain.StatusInProgress))

	status, err := s.state.Get(s.ctx, "v1")
	s.NoError(err)
	s.Equal(domain.StatusInProgress, status)

	s.NoError(s.state.Set(s.ctx, "v1", domain.StatusComplete))

	status, err = s.state.Get(s.ctx, "v1")
	s.NoError(err)
	s.Equal(domain.StatusComplete, status)

	s.Equal(1, s.count("SELECT COUNT(*) FROM comment_sync_state WHERE video_id = ?", "v1"))
}

func (s *StoreTestSuite) TestTransaction_RollbackDiscardsBatch() {
	tm := NewTransactionManager(s.db, s.retry)

	_, err := s.videos.Save(s.ctx, domain.ListingEntry{VideoID: "v1", Title: "Title A"})
	s.Require().NoError(err)

	err = tm.WithTransaction(s.ctx, func(txCtx context.Context) error {
		_, err := s.comments.Insert(txCtx, &domain.Comment{ID: "c1", VideoID: "v1", Text: "doomed"})
		s.Require().NoError(err)
		if err := s.state.Set(txCtx, "v1", domain.StatusComplete); err != nil {
			return err
		}
		return context.Canceled // force rollback
	})
	s.Error(err)

	count, err := s.comments.CountByVideo(s.ctx, "v1")
	s.NoError(err)
	s.Equal(0, count)

	status, err := s.state.Get(s.ctx, "v1")
	s.NoError(err)
	s.Equal(domain.StatusNotStarted, status)
}

func (s *StoreTestSuite) TestTransaction_CommitKeepsBatchAndStatus() {
	tm := NewTransactionManager(s.db, s.retry)

	_, err := s.videos.Save(s.ctx, domain.ListingEntry{VideoID: "v1", Title: "Title A"})
	s.Require().NoError(err)

	err = tm.WithTransaction(s.ctx, func(txCtx context.Context) error {
		if _, err := s.comments.Insert(txCtx, &domain.Comment{ID: "c1", VideoID: "v1", Text: "kept"}); err != nil {
			return err
		}
		return s.state.Set(txCtx, "v1", domain.StatusComplete)
	})
	s.NoError(err)

	count, err := s.comments.CountByVideo(s.ctx, "v1")
	s.NoError(err)
	s.Equal(1, count)

	status, err := s.state.Get(s.ctx, "v1")
	s.NoError(err)
	s.Equal(domain.StatusComplete, status)
}
