package postgres

import "context"

type (
	// Executor defines the database operations required by the catalog and the
	// chunk mutation pipeline. Implementations must be safe for concurrent use;
	// the orchestrator issues calls from multiple workers at once.
	Executor interface {
		// Query runs a statement and returns its single trimmed text value.
		Query(ctx context.Context, stmt string) (string, error)

		// QueryRows runs a statement and returns one string slice per tuple,
		// one entry per column.
		QueryRows(ctx context.Context, stmt string) ([][]string, error)

		// Exec runs one or more mutating statements and returns the outcome of
		// the final one.
		Exec(ctx context.Context, stmt string) (Result, error)
	}

	// Result is the outcome of a mutating statement.
	Result struct {
		// Tag is the server's command tag (e.g. "DELETE 42"). Empty for
		// executors that report row counts directly.
		Tag string

		// Rows is the number of rows affected by the statement.
		Rows int64
	}
)
