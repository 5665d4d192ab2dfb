package postgres

import (
	"context"
	"database/sql"
	"strings"

	// Registers the "postgres" driver with database/sql.
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
)

// Direct executes statements over a database/sql connection using the lib/pq
// driver instead of a psql subprocess. Row counts come from sql.Result rather
// than command-tag parsing.
type Direct struct {
	db *sql.DB
}

// OpenDirect connects to the database identified by the given DSN
// (key=value form or a postgres:// URL).
//
// Example:
//
//	exec, err := postgres.OpenDirect("host=localhost dbname=soar_staging sslmode=disable")
//	if err != nil {
//		return err
//	}
//	defer exec.Close()
func OpenDirect(dsn string) (*Direct, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open postgres connection")
	}

	return &Direct{db: db}, nil
}

// Close releases the underlying connection pool.
func (d *Direct) Close() error {
	return d.db.Close()
}

// Ping verifies the connection is usable.
func (d *Direct) Ping(ctx context.Context) error {
	return errors.Wrap(d.db.PingContext(ctx), "failed to ping database")
}

// Query runs a statement and returns the first column of the first row as a
// trimmed string. A query with no rows returns "".
func (d *Direct) Query(ctx context.Context, stmt string) (string, error) {
	rows, err := d.QueryRows(ctx, stmt)
	if err != nil {
		return "", err
	}

	if len(rows) == 0 || len(rows[0]) == 0 {
		return "", nil
	}
	return rows[0][0], nil
}

// QueryRows runs a statement and returns all tuples with every column
// rendered as a trimmed string.
func (d *Direct) QueryRows(ctx context.Context, stmt string) ([][]string, error) {
	rows, err := d.db.QueryContext(ctx, stmt)
	if err != nil {
		return nil, errors.Wrap(err, "query failed")
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read result columns")
	}

	var result [][]string
	for rows.Next() {
		raw := make([]sql.NullString, len(cols))
		dest := make([]any, len(cols))
		for i := range raw {
			dest[i] = &raw[i]
		}

		if err := rows.Scan(dest...); err != nil {
			return nil, errors.Wrap(err, "failed to scan row")
		}

		tuple := make([]string, len(cols))
		for i, v := range raw {
			tuple[i] = strings.TrimSpace(v.String)
		}
		result = append(result, tuple)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read rows")
	}
	return result, nil
}

// Exec runs one or more semicolon-separated statements on a single pooled
// connection, so session settings (SET ...) apply to the statements that
// follow them. The result reflects the final statement.
func (d *Direct) Exec(ctx context.Context, stmt string) (Result, error) {
	conn, err := d.db.Conn(ctx)
	if err != nil {
		return Result{}, errors.Wrap(err, "failed to acquire connection")
	}
	defer func() { _ = conn.Close() }()

	var affected int64
	for _, s := range splitStatements(stmt) {
		res, err := conn.ExecContext(ctx, s)
		if err != nil {
			return Result{}, errors.Wrap(err, "exec failed")
		}

		// Not all statements report a count (SET and the timescale admin
		// functions do not); keep the last one that does.
		if n, err := res.RowsAffected(); err == nil {
			affected = n
		}
	}

	return Result{Rows: affected}, nil
}

// splitStatements breaks a multi-statement string at top-level semicolons.
// Semicolons inside single-quoted literals are preserved.
func splitStatements(stmt string) []string {
	var (
		out      []string
		current  strings.Builder
		inString bool
	)

	for _, r := range stmt {
		switch {
		case r == '\'':
			inString = !inString
			current.WriteRune(r)
		case r == ';' && !inString:
			if s := strings.TrimSpace(current.String()); s != "" {
				out = append(out, s)
			}
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}

	if s := strings.TrimSpace(current.String()); s != "" {
		out = append(out, s)
	}
	return out
}
