package orchestrator

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"github.com/soarhq/chunkops/pkg/catalog"
	"github.com/soarhq/chunkops/pkg/mutation"
	"github.com/soarhq/chunkops/pkg/postgres"
	"golang.org/x/sync/errgroup"
)

type (
	// Summary is the aggregate outcome of one orchestration run. Only the
	// summary is a stable contract; per-chunk completion order is not.
	Summary struct {
		// TotalRows is the total number of rows affected across all chunks
		TotalRows int64

		// SegmentsProcessed is the number of chunks the run attempted
		SegmentsProcessed int

		// SegmentsFailed is the number of chunks whose mutation step failed
		SegmentsFailed int

		// Elapsed is the wall time for the whole run
		Elapsed time.Duration
	}

	// Observer is invoked once per completed result, in completion order.
	// completed/total count results (fast-path spans count as one), which is
	// what progress lines display.
	Observer func(completed, total int, res Result)

	// Options controls a single orchestration run.
	Options struct {
		// Parallelism caps concurrent chunk pipelines (must be >= 1)
		Parallelism int

		// Strategy selects the per-chunk pipeline or the bulk
		// decompress-all/mutate/recompress-all flow; empty means the
		// mutation's configured strategy
		Strategy string

		// Observer receives per-result progress callbacks (may be nil)
		Observer Observer
	}

	// Orchestrator drives chunk-parallel mutation runs.
	Orchestrator struct {
		exec    postgres.Executor
		catalog *catalog.Catalog
		mutator *Mutator
	}
)

// New creates an Orchestrator backed by the given executor.
func New(exec postgres.Executor) *Orchestrator {
	return &Orchestrator{
		exec:    exec,
		catalog: catalog.New(exec),
		mutator: NewMutator(exec),
	}
}

// Run executes the bound mutation across all chunks of its hypertable and
// returns the aggregate summary.
//
// Only catalog-level failures abort the run; anything that goes wrong inside
// one chunk's pipeline is contained to that chunk's result. The pool never
// holds more than Parallelism chunks in flight: submission blocks until a
// worker frees up, which caps concurrent decompression pressure on the
// database.
func (o *Orchestrator) Run(ctx context.Context, b *mutation.Bound, opts Options) (*Summary, error) {
	if opts.Parallelism < 1 {
		return nil, errors.New("parallelism must be at least 1")
	}

	start := time.Now()
	summary := &Summary{}

	if b.Empty() {
		summary.Elapsed = time.Since(start)
		return summary, nil
	}

	segments, err := o.catalog.ListSegments(ctx, b.Table())
	if err != nil {
		return nil, err
	}

	if len(segments) == 0 {
		summary.Elapsed = time.Since(start)
		return summary, nil
	}

	strategy := opts.Strategy
	if strategy == "" {
		strategy = b.Strategy()
	}

	if strategy == mutation.StrategyBulk {
		err = o.runBulk(ctx, b, segments, opts, summary)
	} else {
		err = o.runChunked(ctx, b, segments, opts, summary)
	}
	if err != nil {
		return nil, err
	}

	summary.Elapsed = time.Since(start)
	return summary, nil
}

// runChunked is the default flow: direct statements over contiguous runs of
// uncompressed chunks first, then the bounded-parallel pipeline over
// compressed chunks.
func (o *Orchestrator) runChunked(ctx context.Context, b *mutation.Bound, segments []catalog.Segment, opts Options, summary *Summary) error {
	compressed, uncompressed := catalog.Partition(segments)
	runs := catalog.ContiguousRuns(uncompressed)

	var (
		completed int
		total     = len(runs) + len(compressed)
	)

	emit := func(res Result) {
		completed++
		summary.TotalRows += res.Rows
		summary.SegmentsProcessed += res.Segments
		if res.Failed() {
			summary.SegmentsFailed += res.Segments
			slog.Error("segment mutation failed", "segment", res.Segment, "error", res.Err)
		}
		if opts.Observer != nil {
			opts.Observer(completed, total, res)
		}
	}

	// Fast path: no decompress/recompress needed for uncompressed chunks.
	for _, run := range runs {
		emit(o.mutateSpan(ctx, b, run))
	}

	// Bounded-parallel path. Tasks never return errors; failures live in
	// their results so one chunk can never cancel its siblings.
	results := make(chan Result)

	go func() {
		defer close(results)

		g := new(errgroup.Group)
		g.SetLimit(opts.Parallelism)
		for _, seg := range compressed {
			g.Go(func() error {
				results <- o.mutator.MutateSegment(ctx, b, seg)
				return nil
			})
		}
		_ = g.Wait()
	}()

	for res := range results {
		emit(res)
	}

	return nil
}

// mutateSpan issues one range-scoped statement covering a contiguous run of
// uncompressed chunks.
func (o *Orchestrator) mutateSpan(ctx context.Context, b *mutation.Bound, run []catalog.Segment) Result {
	start := time.Now()

	name := run[0].Qualified()
	if len(run) > 1 {
		name += ".." + run[len(run)-1].Name
	}

	stmt, err := b.StatementForRange(run[0].RangeStart, run[len(run)-1].RangeEnd)
	if err != nil {
		return Result{Segment: name, Segments: len(run), Duration: time.Since(start), Err: err}
	}

	res, err := o.exec.Exec(ctx, stmt)
	if err != nil {
		return Result{
			Segment:  name,
			Segments: len(run),
			Duration: time.Since(start),
			Err:      errors.Wrap(err, "mutation failed"),
		}
	}

	return Result{Segment: name, Segments: len(run), Rows: res.Rows, Duration: time.Since(start)}
}

// runBulk decompresses every compressed chunk through the pool, applies one
// unscoped statement, then recompresses everything through the pool. Cheaper
// for mutations that touch most chunks anyway, at the cost of holding the
// whole table decompressed at once.
func (o *Orchestrator) runBulk(ctx context.Context, b *mutation.Bound, segments []catalog.Segment, opts Options, summary *Summary) error {
	compressed, _ := catalog.Partition(segments)

	forAll := func(verb string, stmt func(catalog.Segment) string) {
		g := new(errgroup.Group)
		g.SetLimit(opts.Parallelism)
		for _, seg := range compressed {
			g.Go(func() error {
				started := time.Now()
				if _, err := o.exec.Exec(ctx, stmt(seg)); err != nil {
					slog.Warn(verb+" failed", "chunk", seg.Qualified(), "error", err)
				} else {
					slog.Info(verb, "chunk", seg.Qualified(), "duration", time.Since(started).Round(time.Millisecond))
				}
				return nil
			})
		}
		_ = g.Wait()
	}

	forAll("decompress", decompressStatement)

	stmt, err := b.StatementUnscoped()
	if err != nil {
		return err
	}

	started := time.Now()
	res, mutateErr := o.exec.Exec(ctx, stmt)

	// Recompress even when the statement failed; nothing should stay
	// decompressed because of a bad mutation.
	forAll("recompress", compressStatement)

	result := Result{
		Segment:  b.Table(),
		Segments: len(segments),
		Rows:     res.Rows,
		Duration: time.Since(started),
	}
	if mutateErr != nil {
		result.Err = errors.Wrap(mutateErr, "bulk mutation failed")
	}

	summary.TotalRows += result.Rows
	summary.SegmentsProcessed += result.Segments
	if result.Failed() {
		summary.SegmentsFailed += result.Segments
		slog.Error("bulk mutation failed", "table", b.Table(), "error", result.Err)
	}
	if opts.Observer != nil {
		opts.Observer(1, 1, result)
	}

	return nil
}
