package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"github.com/soarhq/chunkops/pkg/catalog"
	"github.com/soarhq/chunkops/pkg/mutation"
	"github.com/soarhq/chunkops/pkg/postgres"
	"github.com/soarhq/chunkops/pkg/utils"
)

type (
	// Result is the outcome of mutating one chunk (or, on the fast path, one
	// contiguous run of uncompressed chunks).
	Result struct {
		// Segment is the qualified chunk name, or "first..last" for a
		// fast-path span covering multiple chunks
		Segment string

		// Segments is the number of chunks this result covers (1 for pool tasks)
		Segments int

		// Rows is the number of rows affected
		Rows int64

		// Duration is the wall time spent on this chunk's pipeline
		Duration time.Duration

		// Err is non-nil when the mutation step failed
		Err error
	}

	// Mutator runs the decompress/mutate/recompress pipeline for one chunk.
	Mutator struct {
		exec postgres.Executor
	}
)

// Failed reports whether the mutation step failed.
func (r Result) Failed() bool { return r.Err != nil }

// NewMutator creates a Mutator backed by the given executor.
func NewMutator(exec postgres.Executor) *Mutator {
	return &Mutator{exec: exec}
}

// MutateSegment runs the full pipeline for one compressed chunk:
//
//  1. decompress_chunk. Failure usually means another process already
//     decompressed it, so under the default "continue" policy the mutation is
//     attempted anyway; under "skip" the task fails without mutating.
//  2. the mutation statement scoped to the chunk's time range. Failure marks
//     the task failed but does not skip step 3: the chunk must not be left
//     decompressed.
//  3. compress_chunk, best-effort. Failure is logged, never escalated; a
//     later run recompresses it.
func (m *Mutator) MutateSegment(ctx context.Context, b *mutation.Bound, seg catalog.Segment) Result {
	start := time.Now()
	name := seg.Qualified()

	if _, err := m.exec.Exec(ctx, decompressStatement(seg)); err != nil {
		slog.Warn("decompress failed", "chunk", name, "error", err)

		if b.OnDecompressFailure() == mutation.OnDecompressFailureSkip {
			return Result{
				Segment:  name,
				Segments: 1,
				Duration: time.Since(start),
				Err:      errors.Wrap(err, "decompress failed"),
			}
		}
	}

	var (
		rows    int64
		taskErr error
	)

	stmt, err := b.StatementForRange(seg.RangeStart, seg.RangeEnd)
	if err != nil {
		taskErr = err
	} else if res, err := m.exec.Exec(ctx, stmt); err != nil {
		taskErr = errors.Wrap(err, "mutation failed")
	} else {
		rows = res.Rows
	}

	if _, err := m.exec.Exec(ctx, compressStatement(seg)); err != nil {
		slog.Warn("recompress failed", "chunk", name, "error", err)
	}

	return Result{
		Segment:  name,
		Segments: 1,
		Rows:     rows,
		Duration: time.Since(start),
		Err:      taskErr,
	}
}

func decompressStatement(seg catalog.Segment) string {
	return fmt.Sprintf("SELECT decompress_chunk(%s);", utils.QuoteLiteral(seg.Qualified()))
}

func compressStatement(seg catalog.Segment) string {
	return fmt.Sprintf("SELECT compress_chunk(%s);", utils.QuoteLiteral(seg.Qualified()))
}
