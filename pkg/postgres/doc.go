// Package postgres provides the SQL execution boundary used by the chunk
// orchestration pipeline.
//
// Two executor implementations are available:
//
//   - Client shells out to psql, matching how these maintenance operations are
//     run by hand. Queries use `psql -tAc` (tuples-only, unaligned) and DML uses
//     `psql -c` so the server's command tag ("UPDATE 42") is available for
//     row-count reporting. Non-zero exits surface as *ExecError with the exit
//     code and captured stderr.
//
//   - Direct connects with database/sql and the lib/pq driver. Row counts come
//     from sql.Result instead of command-tag parsing. All statements of a call
//     run on a single pooled connection so session settings (SET ...) apply to
//     the statement that follows them.
//
// Both satisfy the Executor interface consumed by the catalog, mutation, and
// orchestrator packages.
package postgres
