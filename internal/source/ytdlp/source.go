// Package ytdlp lists playlist entries by shelling out to yt-dlp.
package ytdlp

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"yt_mirror/internal/domain"
)

const (
	defaultPath    = "yt-dlp"
	defaultTimeout = 10 * time.Minute
)

// ErrNotInstalled is returned when the yt-dlp executable cannot be found.
var ErrNotInstalled = errors.New("ytdlp: yt-dlp not installed")

// Config holds listing source configuration.
type Config struct {
	Path      string
	Timeout   time.Duration
	ExtraArgs []string
}

// Source fetches the flat listing of a playlist: one line per entry,
// video id and title separated by a single tab.
type Source struct {
	path      string
	timeout   time.Duration
	extraArgs []string
	logger    *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Source {
	if cfg.Path == "" {
		cfg.Path = defaultPath
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Source{
		path:      cfg.Path,
		timeout:   cfg.Timeout,
		extraArgs: cfg.ExtraArgs,
		logger:    logger.With("source", "ytdlp"),
	}
}

// Fetch runs yt-dlp against the playlist URL and parses its output.
// Lines that do not split into exactly two tab-separated fields are
// reported and skipped; they never abort the batch.
func (s *Source) Fetch(ctx context.Context, playlistURL string) ([]domain.ListingEntry, *domain.ListingStats, error) {
	args := []string{
		"--flat-playlist",
		"--print", "%(id)s\t%(title)s",
	}
	args = append(args, s.extraArgs...)
	args = append(args, playlistURL)

	cmdCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, s.path, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	s.logger.Debug("listing playlist", "url", playlistURL)

	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, nil, ErrNotInstalled
		}
		return nil, nil, fmt.Errorf("run yt-dlp: %w (stderr: %s)", err, firstLine(&stderr))
	}

	entries, stats := s.parse(&stdout)

	s.logger.Info("playlist listed",
		"url", playlistURL,
		"entries", len(entries),
		"malformed", stats.Malformed,
	)

	return entries, stats, nil
}

func (s *Source) parse(r io.Reader) ([]domain.ListingEntry, *domain.ListingStats) {
	var entries []domain.ListingEntry
	stats := &domain.ListingStats{}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		stats.Lines++

		id, title, ok := strings.Cut(line, "\t")
		if !ok || id == "" {
			stats.Malformed++
			s.logger.Warn("malformed listing line", "line", line)
			continue
		}

		entries = append(entries, domain.ListingEntry{VideoID: id, Title: title})
	}

	return entries, stats
}

func firstLine(b *bytes.Buffer) string {
	line, _, _ := strings.Cut(strings.TrimSpace(b.String()), "\n")
	return line
}
