package postgres

import "fmt"

// ExecError is returned by the subprocess executor when psql exits non-zero.
// It carries the process exit code and whatever the server or psql wrote to
// stderr, which is the only diagnostic available at this boundary.
type ExecError struct {
	// ExitCode is the psql process exit code
	ExitCode int

	// Stderr is the trimmed stderr output from the failed invocation
	Stderr string
}

func (e *ExecError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("psql exited with code %d", e.ExitCode)
	}
	return fmt.Sprintf("psql exited with code %d: %s", e.ExitCode, e.Stderr)
}
