package ytcomments

import (
	"bufio"
	"context"
	"encoding/json"
	"log/slog"
	"os/exec"
	"strings"

	"yt_mirror/internal/domain"
)

// record mirrors the downloader's wire format. Votes may be a JSON
// string, a number, null, or missing entirely.
type record struct {
	CID        string          `json:"cid"`
	Text       string          `json:"text"`
	Author     string          `json:"author"`
	Votes      json.RawMessage `json:"votes"`
	TimeParsed float64         `json:"time_parsed"`
}

// Iter walks the downloader's output one record at a time. A line
// that fails to decode is logged and skipped, not surfaced.
type Iter struct {
	cmd     *exec.Cmd
	cancel  context.CancelFunc
	scanner *bufio.Scanner
	logger  *slog.Logger
	err     error
	closed  bool
}

// Next returns the next comment record. The second return value is
// false when the stream is exhausted or failed; check Err afterwards.
func (it *Iter) Next() (domain.RawComment, bool) {
	for it.scanner.Scan() {
		line := it.scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var rec record
		if err := json.Unmarshal(line, &rec); err != nil {
			it.logger.Warn("undecodable comment record", "error", err)
			continue
		}
		if rec.CID == "" {
			continue
		}

		return domain.RawComment{
			ID:         rec.CID,
			Text:       rec.Text,
			Author:     rec.Author,
			Votes:      rawVotes(rec.Votes),
			TimeParsed: int64(rec.TimeParsed),
		}, true
	}

	it.err = it.scanner.Err()
	return domain.RawComment{}, false
}

// Err reports a stream read failure, nil on clean exhaustion.
func (it *Iter) Err() error {
	return it.err
}

// Close reaps the downloader process. Safe to call after partial
// consumption; the process is killed if still running.
func (it *Iter) Close() error {
	if it.closed {
		return nil
	}
	it.closed = true

	if it.cancel != nil {
		it.cancel()
	}
	if it.cmd != nil {
		// Wait returns the kill error when we tore the process down
		// mid-stream; that is the expected path for capped fetches.
		_ = it.cmd.Wait()
	}
	return nil
}

// rawVotes normalizes the wire value to a plain string: quoted
// strings are unquoted, numbers keep their literal form, null and
// absent collapse to the empty string. Coercion to an integer is the
// synchronizer's job.
func rawVotes(raw json.RawMessage) string {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return ""
	}
	if strings.HasPrefix(s, `"`) {
		var unquoted string
		if err := json.Unmarshal(raw, &unquoted); err == nil {
			return unquoted
		}
		return ""
	}
	return s
}
