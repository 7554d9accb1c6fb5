package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"syscall"

	"yt_mirror/internal/config"
	"yt_mirror/internal/domain"
	"yt_mirror/internal/publisher"
	"yt_mirror/internal/report"
	"yt_mirror/internal/scheduler"
	"yt_mirror/internal/service"
	"yt_mirror/internal/source/ytcomments"
	"yt_mirror/internal/source/ytdlp"
	"yt_mirror/internal/storage/sqlite"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	outputFile := flag.String("output", "", "path to the HTML gallery output file")
	shuffle := flag.Bool("shuffle", false, "randomize the order videos' comments are synced")
	watch := flag.Duration("watch", 0, "re-run the sync on this interval (0 = run once)")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: mirror [flags] <playlist-url>")
		flag.PrintDefaults()
		os.Exit(1)
	}
	playlistURL := flag.Arg(0)

	logger := setupLogger("info")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel)

	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	retry := sqlite.NewRetryer(cfg.Retry, logger)

	if err := sqlite.Migrate(ctx, db, retry); err != nil {
		logger.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}
	logger.Info("database ready", "path", cfg.Database.Path)

	playlistStore := sqlite.NewPlaylistStore(db, retry)
	videoStore := sqlite.NewVideoStore(db, retry)
	commentStore := sqlite.NewCommentStore(db, retry)
	syncStateStore := sqlite.NewSyncStateStore(db, retry)
	txManager := sqlite.NewTransactionManager(db, retry)

	var pub service.Publisher
	if cfg.RabbitMQ.Enabled() {
		rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
			QueueName:  cfg.RabbitMQ.QueueName,
		}, logger)
		if err != nil {
			logger.Error("failed to connect to rabbitmq", "error", err)
			os.Exit(1)
		}
		defer rabbitMQ.Close()
		pub = rabbitMQ
	}

	listingSource := ytdlp.New(ytdlp.Config{
		Path:    cfg.Tools.YtdlpPath,
		Timeout: cfg.Tools.Timeout,
	}, logger)

	commentSource := ytcomments.New(ytcomments.Config{
		Path:      cfg.Tools.DownloaderPath,
		Timeout:   cfg.Tools.Timeout,
		SortOrder: cfg.Comments.SortOrder,
	}, logger)

	reconciler := service.NewListingReconciler(listingSource, playlistStore, videoStore, pub, logger)
	commentSyncer := service.NewCommentSyncer(
		commentSourceAdapter{commentSource},
		commentStore,
		syncStateStore,
		txManager,
		logger,
		cfg.Comments,
	)

	m := &mirror{
		reconciler:  reconciler,
		comments:    commentSyncer,
		gallery:     report.NewGalleryWriter(logger),
		logger:      logger,
		playlistURL: playlistURL,
		outputFile:  *outputFile,
		shuffle:     *shuffle,
	}

	if *watch > 0 {
		sched := scheduler.NewScheduler(m, *watch, cfg.Sync.RunTimeout, logger)
		err = sched.Start(ctx)
	} else {
		err = m.Run(ctx)
	}

	if errors.Is(err, context.Canceled) || (err != nil && ctx.Err() != nil) {
		logger.Info("interrupted by user")
		os.Exit(0)
	}
	if err != nil {
		logger.Error("mirror failed", "error", err)
		os.Exit(1)
	}
}

// mirror is one full pass: reconcile the playlist, emit the gallery,
// then sync comments video by video.
type mirror struct {
	reconciler  *service.ListingReconciler
	comments    *service.CommentSyncer
	gallery     *report.GalleryWriter
	logger      *slog.Logger
	playlistURL string
	outputFile  string
	shuffle     bool
}

func (m *mirror) Run(ctx context.Context) error {
	entries, _, err := m.reconciler.Reconcile(ctx, m.playlistURL)
	if err != nil {
		return err
	}

	if m.outputFile != "" {
		if err := m.gallery.Write(m.outputFile, entries); err != nil {
			return err
		}
	}

	order := entries
	if m.shuffle {
		order = append([]domain.ListingEntry(nil), entries...)
		rand.Shuffle(len(order), func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})
	}

	for _, entry := range order {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if _, err := m.comments.Sync(ctx, entry.VideoID); err != nil {
			return fmt.Errorf("sync comments for %s: %w", entry.VideoID, err)
		}
	}

	return nil
}

// commentSourceAdapter lifts the concrete iterator type into the
// service-level CommentSource interface.
type commentSourceAdapter struct {
	src *ytcomments.Source
}

func (a commentSourceAdapter) Comments(ctx context.Context, videoID string) (service.CommentIter, error) {
	return a.src.Comments(ctx, videoID)
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}
