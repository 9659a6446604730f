package dataprocessing

import (
	"context"
	"log/slog"
	"time"

	"flowcli/internal/errors"
	"flowcli/pkg/contracts/domain"
)

// Accepted timestamp layouts, tried in order. Day and month take one or
// two digits.
const (
	LayoutSeconds = "15:04:05 2/1/06"
	LayoutMinutes = "2/1/2006 15:04"
)

// LocalPrefix is the textual server prefix of internal traffic
const LocalPrefix = "192.168"

// ErrAlreadyEnriched is returned when Enrich is called on an enriched table
var ErrAlreadyEnriched = errors.NewStateError("table already enriched")

// ParseTimestamp parses cell with LayoutSeconds, then LayoutMinutes.
// Whitespace is significant. ok is false when neither layout matches.
func ParseTimestamp(cell string) (time.Time, bool) {
	if ts, err := time.Parse(LayoutSeconds, cell); err == nil {
		return ts, true
	}
	if ts, err := time.Parse(LayoutMinutes, cell); err == nil {
		return ts, true
	}
	return time.Time{}, false
}

// ParseTimestamps parses every cell of a column
func ParseTimestamps(cells []string) []domain.NullTime {
	out := make([]domain.NullTime, len(cells))
	for i, cell := range cells {
		ts, ok := ParseTimestamp(cell)
		out[i] = domain.NullTime{Time: ts, Valid: ok}
	}
	return out
}

// IsOutside reports whether server is outside the local network. The
// comparison is on the first seven characters of the text, not on addresses.
func IsOutside(server string) bool {
	return len(server) < len(LocalPrefix) || server[:len(LocalPrefix)] != LocalPrefix
}

// TotalBytes returns the bytes exchanged in both directions
func TotalBytes(clientBytes, serverBytes int64) int64 {
	return clientBytes + serverBytes
}

// EnrichStats summarizes one enrichment pass
type EnrichStats struct {
	Rows      int `json:"rows"`
	NullStart int `json:"null_start"`
	NullStop  int `json:"null_stop"`
	External  int `json:"external"`
}

// Transformer derives the computed columns of a table
type Transformer struct {
	logger *slog.Logger
}

// NewTransformer creates a transformer
func NewTransformer(logger *slog.Logger) *Transformer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Transformer{logger: logger.With(slog.String("component", "transformer"))}
}

// Enrich computes start_ts, stop_ts, is_outside, total_bytes and date for
// every row of t. A table can be enriched only once.
func (tr *Transformer) Enrich(ctx context.Context, t *Table) (EnrichStats, error) {
	if t.enriched {
		return EnrichStats{}, ErrAlreadyEnriched
	}

	stats := EnrichStats{Rows: len(t.records)}
	for i := range t.records {
		r := &t.records[i]

		start, ok := ParseTimestamp(r.Start)
		r.StartTS = domain.NullTime{Time: start, Valid: ok}
		if !ok {
			stats.NullStart++
		}

		stop, ok := ParseTimestamp(r.Stop)
		r.StopTS = domain.NullTime{Time: stop, Valid: ok}
		if !ok {
			stats.NullStop++
		}

		r.IsOutside = IsOutside(r.Server)
		if r.IsOutside {
			stats.External++
		}
		r.TotalBytes = TotalBytes(r.ClientBytes, r.ServerBytes)
		r.Date = r.StartTS.Format(domain.DateLayout)
	}
	t.enriched = true

	if stats.NullStart > 0 || stats.NullStop > 0 {
		tr.logger.WarnContext(ctx, "timestamps matched no layout",
			slog.Int("null_start", stats.NullStart),
			slog.Int("null_stop", stats.NullStop),
			slog.Int("rows", stats.Rows))
	}

	tr.logger.InfoContext(ctx, "flow records enriched",
		slog.Int("rows", stats.Rows),
		slog.Int("external", stats.External))

	return stats, nil
}
