// Package ytcomments streams comment records for a video from the
// youtube-comment-downloader CLI. Records arrive as one JSON object
// per stdout line, ranked by the tool's own sort order, and are
// consumed lazily so a cap costs nothing.
package ytcomments

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"time"
)

const (
	defaultPath    = "youtube-comment-downloader"
	defaultTimeout = 10 * time.Minute

	// SortBest is the downloader's "best first" ranking, SortNewest
	// its recency ranking.
	SortBest   = 0
	SortNewest = 1
)

// ErrNotInstalled is returned when the downloader executable cannot be found.
var ErrNotInstalled = errors.New("ytcomments: youtube-comment-downloader not installed")

// Config holds comment source configuration.
type Config struct {
	Path      string
	Timeout   time.Duration
	SortOrder int
}

// Source spawns one downloader process per video.
type Source struct {
	path    string
	timeout time.Duration
	sort    int
	logger  *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Source {
	if cfg.Path == "" {
		cfg.Path = defaultPath
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Source{
		path:    cfg.Path,
		timeout: cfg.Timeout,
		sort:    cfg.SortOrder,
		logger:  logger.With("source", "ytcomments"),
	}
}

// Comments starts the downloader for the video and returns a lazy
// iterator over its output. The caller must Close the iterator to
// reap the process.
func (s *Source) Comments(ctx context.Context, videoID string) (*Iter, error) {
	cmdCtx, cancel := context.WithTimeout(ctx, s.timeout)

	cmd := exec.CommandContext(cmdCtx, s.path,
		"--youtubeid", videoID,
		"--sort", strconv.Itoa(s.sort),
		"--output", "-",
	)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("open downloader stdout: %w", err)
	}

	if err := cmd.Start(); err != nil {
		cancel()
		if errors.Is(err, exec.ErrNotFound) {
			return nil, ErrNotInstalled
		}
		return nil, fmt.Errorf("start downloader: %w", err)
	}

	s.logger.Debug("downloading comments", "video_id", videoID)

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	return &Iter{
		cmd:     cmd,
		cancel:  cancel,
		scanner: scanner,
		logger:  s.logger.With("video_id", videoID),
	}, nil
}
