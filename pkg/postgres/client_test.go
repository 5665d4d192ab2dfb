package postgres

import (
	"context"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExecErrorMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      *ExecError
		expected string
	}{
		{
			name:     "with stderr",
			err:      &ExecError{ExitCode: 2, Stderr: `ERROR:  relation "fixes" does not exist`},
			expected: `psql exited with code 2: ERROR:  relation "fixes" does not exist`,
		},
		{
			name:     "without stderr",
			err:      &ExecError{ExitCode: 1},
			expected: "psql exited with code 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

// The "psql" here is /bin/sh pretending to be psql, which is enough to
// exercise the subprocess plumbing without a database.
func TestClientRunsBinary(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("test shim requires a POSIX shell")
	}

	t.Run("query trims output", func(t *testing.T) {
		c := NewClient("testdb", ClientOptions{Binary: "testdata/fakepsql.sh"})
		out, err := c.Query(context.Background(), "SELECT 1")
		require.NoError(t, err)
		require.Equal(t, "ok|42", out)
	})

	t.Run("query rows splits tuples", func(t *testing.T) {
		c := NewClient("testdb", ClientOptions{Binary: "testdata/fakepsql.sh"})
		rows, err := c.QueryRows(context.Background(), "SELECT 1")
		require.NoError(t, err)
		require.Equal(t, [][]string{{"ok", "42"}}, rows)
	})

	t.Run("non-zero exit yields ExecError", func(t *testing.T) {
		c := NewClient("testdb", ClientOptions{Binary: "testdata/failpsql.sh"})
		_, err := c.Query(context.Background(), "SELECT 1")

		var execErr *ExecError
		require.ErrorAs(t, err, &execErr)
		require.Equal(t, 3, execErr.ExitCode)
		require.Equal(t, "ERROR:  boom", execErr.Stderr)
	})

	t.Run("exec parses command tag", func(t *testing.T) {
		c := NewClient("testdb", ClientOptions{Binary: "testdata/tagpsql.sh"})
		res, err := c.Exec(context.Background(), "DELETE FROM fixes")
		require.NoError(t, err)
		require.Equal(t, int64(42), res.Rows)
		require.Equal(t, "DELETE 42", res.Tag)
	})

	t.Run("missing binary", func(t *testing.T) {
		c := NewClient("testdb", ClientOptions{Binary: "testdata/no-such-psql"})
		_, err := c.Query(context.Background(), "SELECT 1")
		require.Error(t, err)
	})
}

func TestSplitStatements(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "single statement",
			input:    "DELETE FROM fixes",
			expected: []string{"DELETE FROM fixes"},
		},
		{
			name:     "session setting plus statement",
			input:    "SET x = 0;\nDELETE FROM fixes;",
			expected: []string{"SET x = 0", "DELETE FROM fixes"},
		},
		{
			name:     "semicolon inside literal survives",
			input:    "DELETE FROM fixes WHERE note = 'a;b'; SELECT 1",
			expected: []string{"DELETE FROM fixes WHERE note = 'a;b'", "SELECT 1"},
		},
		{
			name:     "empty",
			input:    " ; ;",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, splitStatements(tt.input))
		})
	}
}
