// Package orchestrator coordinates chunk-parallel mutations against a
// hypertable: it discovers chunks through the catalog, mutates uncompressed
// chunks directly (the fast path), drives a bounded worker pool through the
// decompress/mutate/recompress pipeline for compressed chunks, and verifies
// convergence afterwards.
//
// Failure containment is the central design point. One chunk's failure never
// cancels or blocks the others; the run always attempts every chunk and
// reports the failure set in its summary. Because every task is scoped to its
// chunk's disjoint time range and the mutation predicates exclude
// already-mutated rows, an interrupted or partially failed run is simply
// re-run until verification reports zero remaining rows.
package orchestrator
