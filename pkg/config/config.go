package config

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/soarhq/chunkops/pkg/consts"
	"github.com/soarhq/chunkops/pkg/mutation"
	"gopkg.in/yaml.v3"
)

type (
	// Postgres holds connection settings shared by every command. All
	// fields are optional; empty values defer to psql's own defaults
	// (PGHOST, PGPORT, PGUSER and friends).
	Postgres struct {
		// Binary is the psql executable to invoke. Defaults to "psql"
		// resolved via PATH.
		Binary string `yaml:"binary,omitempty"`

		Host string `yaml:"host,omitempty"`
		Port int    `yaml:"port,omitempty"`
		User string `yaml:"user,omitempty"`

		// Password is only used for direct (driver-based) connections.
		// psql invocations rely on .pgpass or PGPASSWORD instead.
		Password string `yaml:"password,omitempty"`

		// SSLMode is passed through to direct connections, e.g. "disable"
		// or "require".
		SSLMode string `yaml:"sslmode,omitempty"`
	}

	// Config represents the project configuration for chunk mutation runs.
	Config struct {
		// Postgres contains connection settings for the target server.
		Postgres Postgres `yaml:"postgres"`

		// Parallelism is the default number of concurrent segment
		// pipelines. Individual mutations and the --parallelism flag can
		// override it.
		Parallelism int `yaml:"parallelism,omitempty"`

		// Mutations lists every mutation this project knows how to run.
		Mutations []mutation.Config `yaml:"mutations"`
	}
)

// LoadConfig parses a project configuration from the provided io.Reader.
//
// The function expects YAML-formatted configuration data listing connection
// settings and mutation definitions. Every mutation definition is validated
// on load so missing fields fail fast rather than mid-run.
func LoadConfig(r io.Reader) (*Config, error) {
	var cfg Config
	if err := yaml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	if cfg.Postgres.Binary == "" {
		cfg.Postgres.Binary = consts.DefaultPSQLBinary
	}
	if cfg.Parallelism == 0 {
		cfg.Parallelism = consts.DefaultParallelism
	}
	if cfg.Parallelism < 1 {
		return nil, errors.Errorf("parallelism must be at least 1, got %d", cfg.Parallelism)
	}

	seen := make(map[string]bool, len(cfg.Mutations))
	for i := range cfg.Mutations {
		m := &cfg.Mutations[i]
		if err := m.Validate(); err != nil {
			return nil, err
		}
		if seen[m.Name] {
			return nil, errors.Errorf("duplicate mutation %q", m.Name)
		}
		seen[m.Name] = true
	}

	return &cfg, nil
}

// LoadConfigFile loads a project configuration from the specified file path.
// This is a convenience function that opens the file and calls LoadConfig.
func LoadConfigFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open file: %s", path)
	}
	defer func() { _ = f.Close() }()

	return LoadConfig(f)
}

// Mutation returns the named mutation definition, or an error listing the
// available names when it does not exist.
func (c *Config) Mutation(name string) (mutation.Config, error) {
	for _, m := range c.Mutations {
		if m.Name == name {
			return m, nil
		}
	}

	names := make([]string, 0, len(c.Mutations))
	for _, m := range c.Mutations {
		names = append(names, m.Name)
	}
	return mutation.Config{}, errors.Errorf("unknown mutation %q (have %v)", name, names)
}

// DSN builds a lib/pq connection string for direct connections to the given
// database. Empty settings are omitted so driver defaults apply.
func (p Postgres) DSN(database string) string {
	dsn := fmt.Sprintf("dbname=%s", database)
	if p.Host != "" {
		dsn += fmt.Sprintf(" host=%s", p.Host)
	}
	if p.Port != 0 {
		dsn += fmt.Sprintf(" port=%d", p.Port)
	}
	if p.User != "" {
		dsn += fmt.Sprintf(" user=%s", p.User)
	}
	if p.Password != "" {
		dsn += fmt.Sprintf(" password=%s", p.Password)
	}
	if p.SSLMode != "" {
		dsn += fmt.Sprintf(" sslmode=%s", p.SSLMode)
	}
	return dsn
}
