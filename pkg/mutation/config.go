package mutation

import (
	"github.com/pkg/errors"
)

// Decompress-failure policies. A failed decompress usually means another
// process already decompressed the chunk, so the default is to attempt the
// mutation anyway; "skip" marks the task failed without mutating.
const (
	OnDecompressFailureContinue = "continue"
	OnDecompressFailureSkip     = "skip"
)

// Run strategies. "chunk" is the per-chunk decompress/mutate/recompress
// pipeline; "bulk" decompresses everything, runs one statement, and
// recompresses everything.
const (
	StrategyChunk = "chunk"
	StrategyBulk  = "bulk"
)

type (
	// Config is the YAML-facing definition of one named mutation in
	// chunkops.yaml.
	Config struct {
		// Name identifies the mutation on the command line
		Name string `yaml:"name"`

		// Table is the hypertable whose chunks are mutated
		Table string `yaml:"table"`

		// TimeColumn is the partitioning column used for range scoping
		TimeColumn string `yaml:"time_column"`

		// Statement is the mutation template. It must reference
		// {{ .RangeFilter }} so each task only touches rows belonging to its
		// own chunk.
		Statement string `yaml:"statement"`

		// Predicate is a count-query template returning the number of rows the
		// mutation still targets; it drives preflight reporting and post-run
		// verification.
		Predicate string `yaml:"predicate"`

		// Discover lists queries run once per run; each result's first column
		// is quoted, comma-joined, and exposed to the templates under
		// .Bindings.<name>.
		Discover []Discover `yaml:"discover,omitempty"`

		// Preconditions must all hold before any mutation statement is issued
		Preconditions []Precondition `yaml:"preconditions,omitempty"`

		// SessionSettings are statements prefixed to every mutation statement
		// (e.g. SET timescaledb.max_tuples_decompressed_per_dml_transaction = 0)
		SessionSettings []string `yaml:"session_settings,omitempty"`

		// OnDecompressFailure is "continue" (default) or "skip"
		OnDecompressFailure string `yaml:"on_decompress_failure,omitempty"`

		// Parallelism overrides the config-level worker count for this mutation
		Parallelism int `yaml:"parallelism,omitempty"`

		// Strategy is "chunk" (default) or "bulk"
		Strategy string `yaml:"strategy,omitempty"`
	}

	// Discover names a discovery query.
	Discover struct {
		Name  string `yaml:"name"`
		Query string `yaml:"query"`
	}

	// Precondition pairs a scalar query with its expected trimmed output.
	Precondition struct {
		Query  string `yaml:"query"`
		Expect string `yaml:"expect"`
	}
)

// Validate checks the config for the problems that would otherwise surface
// mid-run.
func (c *Config) Validate() error {
	if c.Name == "" {
		return errors.New("mutation name is required")
	}
	if c.Table == "" {
		return errors.Errorf("mutation %q: table is required", c.Name)
	}
	if c.TimeColumn == "" {
		return errors.Errorf("mutation %q: time_column is required", c.Name)
	}
	if c.Statement == "" {
		return errors.Errorf("mutation %q: statement is required", c.Name)
	}
	if c.Predicate == "" {
		return errors.Errorf("mutation %q: predicate is required", c.Name)
	}

	switch c.OnDecompressFailure {
	case "", OnDecompressFailureContinue, OnDecompressFailureSkip:
	default:
		return errors.Errorf("mutation %q: on_decompress_failure must be %q or %q",
			c.Name, OnDecompressFailureContinue, OnDecompressFailureSkip)
	}

	switch c.Strategy {
	case "", StrategyChunk, StrategyBulk:
	default:
		return errors.Errorf("mutation %q: strategy must be %q or %q", c.Name, StrategyChunk, StrategyBulk)
	}

	if c.Parallelism < 0 {
		return errors.Errorf("mutation %q: parallelism must be at least 1", c.Name)
	}

	for i, d := range c.Discover {
		if d.Name == "" || d.Query == "" {
			return errors.Errorf("mutation %q: discover[%d] requires name and query", c.Name, i)
		}
	}

	for i, p := range c.Preconditions {
		if p.Query == "" {
			return errors.Errorf("mutation %q: preconditions[%d] requires a query", c.Name, i)
		}
	}

	return nil
}
