package postgres

import (
	"bytes"
	"context"
	"os/exec"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/soarhq/chunkops/pkg/consts"
)

type (
	// Client executes statements against a database by shelling out to psql.
	//
	// Connection parameters beyond the database name are optional; when unset,
	// psql falls back to its usual defaults (PG* environment variables,
	// ~/.pgpass, peer auth). This mirrors how the maintenance operations are
	// run by hand on the hosts that own the database.
	Client struct {
		database string
		binary   string
		connArgs []string
	}

	// ClientOptions contains optional connection settings for the psql client.
	ClientOptions struct {
		// Binary is the psql executable to invoke (default: "psql")
		Binary string

		// Host is the server host, passed as -h when set
		Host string

		// Port is the server port, passed as -p when set
		Port int

		// User is the role to connect as, passed as -U when set
		User string
	}
)

// NewClient creates a psql-backed executor for the named database.
//
// Example:
//
//	exec := postgres.NewClient("soar_staging", postgres.ClientOptions{})
//	out, err := exec.Query(ctx, "SELECT count(*) FROM fixes")
func NewClient(database string, opts ClientOptions) *Client {
	binary := opts.Binary
	if binary == "" {
		binary = consts.DefaultPSQLBinary
	}

	var connArgs []string
	if opts.Host != "" {
		connArgs = append(connArgs, "-h", opts.Host)
	}
	if opts.Port != 0 {
		connArgs = append(connArgs, "-p", strconv.Itoa(opts.Port))
	}
	if opts.User != "" {
		connArgs = append(connArgs, "-U", opts.User)
	}

	return &Client{
		database: database,
		binary:   binary,
		connArgs: connArgs,
	}
}

// Query runs a statement via `psql -tAc` and returns the trimmed output.
// With tuples-only unaligned mode a scalar query yields exactly its value.
func (c *Client) Query(ctx context.Context, stmt string) (string, error) {
	out, err := c.run(ctx, "-tAc", stmt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// QueryRows runs a statement via `psql -tAc` and splits the unaligned output
// into tuples (one per line) and pipe-delimited columns.
func (c *Client) QueryRows(ctx context.Context, stmt string) ([][]string, error) {
	out, err := c.run(ctx, "-tAc", stmt)
	if err != nil {
		return nil, err
	}

	var rows [][]string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		cols := strings.Split(line, "|")
		for i, col := range cols {
			cols[i] = strings.TrimSpace(col)
		}
		rows = append(rows, cols)
	}
	return rows, nil
}

// Exec runs one or more statements via `psql -c` and parses the affected-row
// count from the final command tag.
func (c *Client) Exec(ctx context.Context, stmt string) (Result, error) {
	out, err := c.run(ctx, "-c", stmt)
	if err != nil {
		return Result{}, err
	}

	tag := strings.TrimSpace(out)
	return Result{Tag: tag, Rows: ParseCommandTag(tag)}, nil
}

func (c *Client) run(ctx context.Context, mode, stmt string) (string, error) {
	args := append([]string{"-d", c.database}, c.connArgs...)
	args = append(args, mode, stmt)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.binary, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else {
			return "", errors.Wrapf(err, "failed to invoke %s", c.binary)
		}

		return "", &ExecError{
			ExitCode: exitCode,
			Stderr:   strings.TrimSpace(stderr.String()),
		}
	}

	return stdout.String(), nil
}
