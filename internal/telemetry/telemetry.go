// Package telemetry records local query statistics for `tagindex
// stats`. Everything stays in the tag database; nothing is reported
// anywhere.
package telemetry

import (
	"context"
	"log/slog"
	"time"

	"github.com/promptloom/tagindex/internal/store"
)

// Operation names recorded by the search service.
const (
	OpSearch  = "search"
	OpSuggest = "suggest"
	OpRelated = "related"
)

// Recorder upserts daily per-operation rollups. Recording is
// best-effort: a failed write is logged and swallowed so telemetry can
// never break a search.
type Recorder struct {
	db     store.DBTX
	logger *slog.Logger
	clock  func() time.Time
}

// NewRecorder creates a recorder writing through q.
func NewRecorder(q store.DBTX, logger *slog.Logger) *Recorder {
	return &Recorder{db: q, logger: logger, clock: time.Now}
}

// recordTimeout caps how long a telemetry write may wait on the
// writer connection while a sync holds it.
const recordTimeout = time.Second

// Record adds one observation for operation.
func (r *Recorder) Record(ctx context.Context, operation string, results int, dur time.Duration) {
	if r == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, recordTimeout)
	defer cancel()

	zero := 0
	if results == 0 {
		zero = 1
	}
	ms := dur.Milliseconds()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO query_metrics (date, operation, count, total_ms, max_ms, zero_results)
		VALUES (?, ?, 1, ?, ?, ?)
		ON CONFLICT(date, operation) DO UPDATE SET
			count        = count + 1,
			total_ms     = total_ms + excluded.total_ms,
			max_ms       = MAX(max_ms, excluded.max_ms),
			zero_results = zero_results + excluded.zero_results`,
		r.clock().UTC().Format("2006-01-02"), operation, ms, ms, zero)
	if err != nil {
		r.logger.Warn("telemetry_record_failed",
			slog.String("operation", operation),
			slog.Any("error", err))
	}
}

// OpSummary is the aggregated view of one operation across all days.
type OpSummary struct {
	Operation   string
	Count       int
	AvgMillis   float64
	MaxMillis   int64
	ZeroResults int
}

// Summary aggregates every recorded operation, alphabetically.
func Summary(ctx context.Context, q store.DBTX) ([]OpSummary, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT operation, SUM(count), SUM(total_ms), MAX(max_ms), SUM(zero_results)
		FROM query_metrics
		GROUP BY operation
		ORDER BY operation`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OpSummary
	for rows.Next() {
		var s OpSummary
		var totalMS int64
		if err := rows.Scan(&s.Operation, &s.Count, &totalMS, &s.MaxMillis, &s.ZeroResults); err != nil {
			return nil, err
		}
		if s.Count > 0 {
			s.AvgMillis = float64(totalMS) / float64(s.Count)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
