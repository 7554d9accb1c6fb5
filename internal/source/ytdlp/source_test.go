package ytdlp

import (
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yt_mirror/internal/domain"
)

func testSource() *Source {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	return New(Config{}, logger)
}

func TestParse_WellFormedLines(t *testing.T) {
	s := testSource()

	out := "v1\tTitle A\nv2\tTitle B\n"
	entries, stats := s.parse(strings.NewReader(out))

	require.Len(t, entries, 2)
	assert.Equal(t, domain.ListingEntry{VideoID: "v1", Title: "Title A"}, entries[0])
	assert.Equal(t, domain.ListingEntry{VideoID: "v2", Title: "Title B"}, entries[1])
	assert.Equal(t, 2, stats.Lines)
	assert.Equal(t, 0, stats.Malformed)
}

func TestParse_MalformedLineSkipped(t *testing.T) {
	s := testSource()

	out := "v1\tTitle A\nonlyoneid\nv2\tTitle B\n"
	entries, stats := s.parse(strings.NewReader(out))

	require.Len(t, entries, 2)
	assert.Equal(t, "v1", entries[0].VideoID)
	assert.Equal(t, "v2", entries[1].VideoID)
	assert.Equal(t, 3, stats.Lines)
	assert.Equal(t, 1, stats.Malformed)
}

func TestParse_TitleMayContainTabs(t *testing.T) {
	s := testSource()

	// Only the first tab separates id from title.
	entries, stats := s.parse(strings.NewReader("v1\tTitle\twith\ttabs\n"))

	require.Len(t, entries, 1)
	assert.Equal(t, "Title\twith\ttabs", entries[0].Title)
	assert.Equal(t, 0, stats.Malformed)
}

func TestParse_EmptyOutput(t *testing.T) {
	s := testSource()

	entries, stats := s.parse(strings.NewReader(""))

	assert.Empty(t, entries)
	assert.Equal(t, 0, stats.Lines)
}

func TestParse_BlankLinesIgnored(t *testing.T) {
	s := testSource()

	entries, stats := s.parse(strings.NewReader("\nv1\tTitle A\n\n"))

	require.Len(t, entries, 1)
	assert.Equal(t, 1, stats.Lines)
}
