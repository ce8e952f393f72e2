// ABOUTME: Raw record source boundary for fetching conversational data
// ABOUTME: Defines the Source interface, time windows, and failure sentinels
package source

import (
	"context"
	"errors"
	"time"

	"github.com/docweave/docweave/internal/models"
)

// Source-level failures abort the run for that source. Everything else in
// the pipeline degrades per-thread instead.
var (
	// ErrSourceUnavailable means the upstream platform could not be reached.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrNotAuthorized means the credentials are invalid or the bot is not
	// a member of the requested channel.
	ErrNotAuthorized = errors.New("not authorized")
)

// TimeWindow bounds a fetch request. A zero To means "now".
type TimeWindow struct {
	From time.Time
	To   time.Time
}

// LastDays returns a window covering the last n days ending now.
func LastDays(n int) TimeWindow {
	now := time.Now().UTC()
	return TimeWindow{From: now.AddDate(0, 0, -n), To: now}
}

// Contains reports whether ts falls inside the window.
func (w TimeWindow) Contains(ts time.Time) bool {
	if !w.From.IsZero() && ts.Before(w.From) {
		return false
	}
	if !w.To.IsZero() && ts.After(w.To) {
		return false
	}
	return true
}

// Source fetches raw records for a channel over a time window. Records are
// returned flat and unordered; thread reconstruction happens downstream.
type Source interface {
	// Name identifies the source in record metadata and summaries.
	Name() string

	// Fetch returns all records for the channel within the window. It fails
	// with ErrSourceUnavailable or ErrNotAuthorized; both are fatal for the
	// run on this source.
	Fetch(ctx context.Context, channel string, window TimeWindow) ([]models.RawRecord, error)
}
