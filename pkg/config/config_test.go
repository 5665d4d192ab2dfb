package config_test

import (
	"strings"
	"testing"

	"github.com/soarhq/chunkops/pkg/config"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
postgres:
  host: db.internal
  port: 5433
  user: ops

parallelism: 4

mutations:
  - name: cleanup_orphaned_fixes
    table: fixes
    time_column: received_at
    statement: >-
      DELETE FROM fixes
      WHERE aircraft_id IN ({{ .Bindings.bad_ids }}) AND {{ .RangeFilter }}
    predicate: >-
      SELECT count(*) FROM fixes
      WHERE aircraft_id IN ({{ .Bindings.bad_ids }}) AND {{ .RangeFilter }}
    discover:
      - name: bad_ids
        query: SELECT id FROM aircraft WHERE address = 0
`

func TestLoadConfig(t *testing.T) {
	cfg, err := config.LoadConfig(strings.NewReader(sampleConfig))
	require.NoError(t, err)

	require.Equal(t, "db.internal", cfg.Postgres.Host)
	require.Equal(t, 5433, cfg.Postgres.Port)
	require.Equal(t, "psql", cfg.Postgres.Binary)
	require.Equal(t, 4, cfg.Parallelism)
	require.Len(t, cfg.Mutations, 1)
	require.Equal(t, "cleanup_orphaned_fixes", cfg.Mutations[0].Name)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := config.LoadConfig(strings.NewReader("mutations: []"))
	require.NoError(t, err)

	require.Equal(t, "psql", cfg.Postgres.Binary)
	require.Equal(t, 2, cfg.Parallelism)
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		err  string
	}{
		{
			"invalid yaml",
			"mutations: [",
			"failed to unmarshal config",
		},
		{
			"negative parallelism",
			"parallelism: -1",
			"parallelism must be at least 1",
		},
		{
			"invalid mutation",
			"mutations:\n  - name: broken\n    time_column: received_at\n    statement: DELETE\n    predicate: SELECT 1",
			`mutation "broken": table is required`,
		},
		{
			"duplicate mutation",
			`
mutations:
  - name: dup
    table: fixes
    time_column: received_at
    statement: DELETE FROM fixes WHERE {{ .RangeFilter }}
    predicate: SELECT 0
  - name: dup
    table: fixes
    time_column: received_at
    statement: DELETE FROM fixes WHERE {{ .RangeFilter }}
    predicate: SELECT 0
`,
			`duplicate mutation "dup"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.LoadConfig(strings.NewReader(tt.yaml))
			require.ErrorContains(t, err, tt.err)
		})
	}
}

func TestLoadConfigFileMissing(t *testing.T) {
	_, err := config.LoadConfigFile("does/not/exist.yaml")
	require.ErrorContains(t, err, "failed to open file")
}

func TestMutationLookup(t *testing.T) {
	cfg, err := config.LoadConfig(strings.NewReader(sampleConfig))
	require.NoError(t, err)

	m, err := cfg.Mutation("cleanup_orphaned_fixes")
	require.NoError(t, err)
	require.Equal(t, "fixes", m.Table)

	_, err = cfg.Mutation("nope")
	require.ErrorContains(t, err, `unknown mutation "nope"`)
}

func TestDSN(t *testing.T) {
	tests := []struct {
		name     string
		pg       config.Postgres
		expected string
	}{
		{
			"defaults only",
			config.Postgres{},
			"dbname=soar",
		},
		{
			"all fields",
			config.Postgres{Host: "localhost", Port: 5432, User: "ops", Password: "s3cret", SSLMode: "disable"},
			"dbname=soar host=localhost port=5432 user=ops password=s3cret sslmode=disable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, tt.pg.DSN("soar"))
		})
	}
}
