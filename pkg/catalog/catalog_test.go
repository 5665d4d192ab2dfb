package catalog_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/soarhq/chunkops/pkg/catalog"
	"github.com/soarhq/chunkops/pkg/postgres"
	"github.com/stretchr/testify/require"
)

type fakeExecutor struct {
	rows    [][]string
	err     error
	queries []string
}

func (f *fakeExecutor) Query(_ context.Context, stmt string) (string, error) {
	f.queries = append(f.queries, stmt)
	if f.err != nil {
		return "", f.err
	}
	return "", nil
}

func (f *fakeExecutor) QueryRows(_ context.Context, stmt string) ([][]string, error) {
	f.queries = append(f.queries, stmt)
	if f.err != nil {
		return nil, f.err
	}
	return f.rows, nil
}

func (f *fakeExecutor) Exec(_ context.Context, stmt string) (postgres.Result, error) {
	f.queries = append(f.queries, stmt)
	return postgres.Result{}, f.err
}

func TestListSegments(t *testing.T) {
	exec := &fakeExecutor{rows: [][]string{
		{"_timescaledb_internal", "_hyper_1_1_chunk", "2026-01-01 00:00:00+00", "2026-01-08 00:00:00+00", "true"},
		{"_timescaledb_internal", "_hyper_1_2_chunk", "2026-01-08 00:00:00+00", "2026-01-15 00:00:00+00", "t"},
		{"_timescaledb_internal", "_hyper_1_3_chunk", "2026-01-15 00:00:00+00", "2026-01-22 00:00:00+00", "false"},
	}}

	segments, err := catalog.New(exec).ListSegments(context.Background(), "fixes")
	require.NoError(t, err)
	require.Len(t, segments, 3)

	require.Equal(t, "_timescaledb_internal._hyper_1_1_chunk", segments[0].Qualified())
	require.True(t, segments[0].Compressed)
	require.True(t, segments[1].Compressed)
	require.False(t, segments[2].Compressed)

	// Invariants: start < end per segment, no overlap across the ordered list.
	for i, s := range segments {
		require.True(t, s.RangeStart.Before(s.RangeEnd), "segment %d", i)
		if i > 0 {
			require.False(t, segments[i-1].RangeEnd.After(s.RangeStart), "segments %d/%d overlap", i-1, i)
		}
	}

	// The hypertable name must be passed as a quoted literal.
	require.Contains(t, exec.queries[0], "'fixes'")
}

func TestListSegmentsEmpty(t *testing.T) {
	segments, err := catalog.New(&fakeExecutor{}).ListSegments(context.Background(), "fixes")
	require.NoError(t, err)
	require.Empty(t, segments)
}

func TestListSegmentsUnavailable(t *testing.T) {
	exec := &fakeExecutor{err: errors.New("connection refused")}
	_, err := catalog.New(exec).ListSegments(context.Background(), "fixes")
	require.ErrorIs(t, err, catalog.ErrUnavailable)
}

func TestListSegmentsBadTimestamp(t *testing.T) {
	exec := &fakeExecutor{rows: [][]string{
		{"s", "c1", "not-a-time", "2026-01-08 00:00:00+00", "t"},
	}}
	_, err := catalog.New(exec).ListSegments(context.Background(), "fixes")
	require.Error(t, err)
}

func seg(name string, start, end time.Time, compressed bool) catalog.Segment {
	return catalog.Segment{
		Schema:     "_timescaledb_internal",
		Name:       name,
		RangeStart: start,
		RangeEnd:   end,
		Compressed: compressed,
	}
}

func TestPartition(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	day := 24 * time.Hour

	segments := []catalog.Segment{
		seg("c1", t0, t0.Add(day), true),
		seg("c2", t0.Add(day), t0.Add(2*day), false),
		seg("c3", t0.Add(2*day), t0.Add(3*day), true),
	}

	compressed, uncompressed := catalog.Partition(segments)
	require.Len(t, compressed, 2)
	require.Len(t, uncompressed, 1)
	require.Equal(t, "c2", uncompressed[0].Name)
}

func TestContiguousRuns(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	day := 24 * time.Hour

	t.Run("adjacent segments form one run", func(t *testing.T) {
		runs := catalog.ContiguousRuns([]catalog.Segment{
			seg("c1", t0, t0.Add(day), false),
			seg("c2", t0.Add(day), t0.Add(2*day), false),
		})
		require.Len(t, runs, 1)
		require.Len(t, runs[0], 2)
	})

	t.Run("gap splits runs", func(t *testing.T) {
		runs := catalog.ContiguousRuns([]catalog.Segment{
			seg("c1", t0, t0.Add(day), false),
			seg("c3", t0.Add(2*day), t0.Add(3*day), false),
		})
		require.Len(t, runs, 2)
	})

	t.Run("empty input", func(t *testing.T) {
		require.Empty(t, catalog.ContiguousRuns(nil))
	})
}
