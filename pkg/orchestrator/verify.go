package orchestrator

import (
	"context"
	"strconv"

	"github.com/pkg/errors"
	"github.com/soarhq/chunkops/pkg/mutation"
	"github.com/soarhq/chunkops/pkg/postgres"
)

// ErrPartialConvergence indicates verification found rows the mutation still
// targets. The run is designed to be safely repeated until this clears.
var ErrPartialConvergence = errors.New("mutation has not fully converged")

// Verify re-runs the mutation's count predicate and returns the number of
// remaining target rows. Zero means the operation has converged. Counting
// works on compressed chunks, so no decompression happens here.
func Verify(ctx context.Context, exec postgres.Executor, b *mutation.Bound) (int64, error) {
	query, err := b.CountQuery()
	if err != nil {
		return 0, err
	}

	out, err := exec.Query(ctx, query)
	if err != nil {
		return 0, errors.Wrap(err, "verification query failed")
	}

	remaining, err := strconv.ParseInt(out, 10, 64)
	if err != nil {
		return 0, errors.Errorf("verification query returned non-numeric output %q", out)
	}

	return remaining, nil
}
