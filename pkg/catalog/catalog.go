// Package catalog discovers the physical chunks backing a TimescaleDB
// hypertable, along with their time ranges and compression state. It is the
// read-only input for every orchestration run; the orchestrator only ever
// toggles compression state through SQL, never the catalog itself.
package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/soarhq/chunkops/pkg/postgres"
	"github.com/soarhq/chunkops/pkg/utils"
)

// ErrUnavailable indicates chunks could not be enumerated for a hypertable.
// This is fatal to a run: without the chunk list no mutation can be scoped.
var ErrUnavailable = errors.New("segment catalog unavailable")

type (
	// Segment is one physical chunk of a hypertable. Ranges are half-open
	// [RangeStart, RangeEnd) and non-overlapping across the ordered chunk
	// list. Compressed reflects state at snapshot time and is treated as
	// immutable for the duration of one run.
	Segment struct {
		Schema     string
		Name       string
		RangeStart time.Time
		RangeEnd   time.Time
		Compressed bool
	}

	// Catalog lists segments through a SQL executor.
	Catalog struct {
		exec postgres.Executor
	}
)

// Qualified returns the schema-qualified chunk name, e.g.
// "_timescaledb_internal._hyper_1_3_chunk".
func (s Segment) Qualified() string {
	if s.Schema == "" {
		return s.Name
	}
	return s.Schema + "." + s.Name
}

// New creates a Catalog backed by the given executor.
func New(exec postgres.Executor) *Catalog {
	return &Catalog{exec: exec}
}

// ListSegments returns all chunks of the named hypertable ordered by
// RangeStart ascending. A hypertable with no chunks yields an empty slice,
// not an error. Executor failures are reported as ErrUnavailable.
func (c *Catalog) ListSegments(ctx context.Context, hypertable string) ([]Segment, error) {
	query := fmt.Sprintf(`
		SELECT chunk_schema, chunk_name, range_start::text, range_end::text, is_compressed::text
		FROM timescaledb_information.chunks
		WHERE hypertable_name = %s
		ORDER BY range_start`, utils.QuoteLiteral(hypertable))

	rows, err := c.exec.QueryRows(ctx, query)
	if err != nil {
		return nil, errors.Wrapf(ErrUnavailable, "listing chunks for %q: %v", hypertable, err)
	}

	segments := make([]Segment, 0, len(rows))
	for _, row := range rows {
		if len(row) != 5 {
			continue
		}

		start, err := parseTimestamp(row[2])
		if err != nil {
			return nil, errors.Wrapf(err, "invalid range_start for chunk %s", row[1])
		}

		end, err := parseTimestamp(row[3])
		if err != nil {
			return nil, errors.Wrapf(err, "invalid range_end for chunk %s", row[1])
		}

		segments = append(segments, Segment{
			Schema:     row[0],
			Name:       row[1],
			RangeStart: start,
			RangeEnd:   end,
			Compressed: isTrue(row[4]),
		})
	}

	return segments, nil
}

// Partition splits segments into compressed and uncompressed groups,
// preserving the catalog ordering within each.
func Partition(segments []Segment) (compressed, uncompressed []Segment) {
	for _, s := range segments {
		if s.Compressed {
			compressed = append(compressed, s)
		} else {
			uncompressed = append(uncompressed, s)
		}
	}
	return compressed, uncompressed
}

// ContiguousRuns groups range-ordered segments into runs where each segment's
// RangeEnd equals the next segment's RangeStart. The fast path issues one
// statement per run instead of one per segment.
func ContiguousRuns(segments []Segment) [][]Segment {
	var runs [][]Segment
	for _, s := range segments {
		last := len(runs) - 1
		if last >= 0 && runs[last][len(runs[last])-1].RangeEnd.Equal(s.RangeStart) {
			runs[last] = append(runs[last], s)
			continue
		}
		runs = append(runs, []Segment{s})
	}
	return runs
}

// Timestamp formats vary by executor: psql renders timestamptz as
// "2026-01-01 00:00:00+00" while driver scans yield RFC3339.
var timestampLayouts = []string{
	"2006-01-02 15:04:05.999999-07",
	"2006-01-02 15:04:05.999999-07:00",
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999-07",
}

func parseTimestamp(value string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.Errorf("unrecognized timestamp %q", value)
}

func isTrue(value string) bool {
	return strings.HasPrefix(strings.ToLower(value), "t")
}
