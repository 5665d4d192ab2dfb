package cmd

import (
	"context"
	"testing"

	"github.com/soarhq/chunkops/pkg/cmd/testutil"
	"github.com/soarhq/chunkops/pkg/config"
	"github.com/soarhq/chunkops/pkg/mutation"
	"github.com/soarhq/chunkops/pkg/postgres"
	"github.com/stretchr/testify/require"
)

// TestRunCommand_Integration drives the run command end to end against a real
// TimescaleDB server: compressed chunks, discovery, per-chunk mutation, and
// convergence verification.
func TestRunCommand_Integration(t *testing.T) {
	testutil.SkipIfNoDocker(t)

	ctx := context.Background()
	container := testutil.StartTimescale(t)

	dsn, err := container.DSN(ctx)
	require.NoError(t, err)

	d, err := postgres.OpenDirect(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	setup := []string{
		`CREATE TABLE aircraft (id text PRIMARY KEY, address bigint NOT NULL)`,
		`CREATE TABLE fixes (received_at timestamptz NOT NULL, aircraft_id text NOT NULL, altitude int)`,
		`SELECT create_hypertable('fixes', 'received_at', chunk_time_interval => interval '1 day')`,
		`ALTER TABLE fixes SET (timescaledb.compress, timescaledb.compress_segmentby = 'aircraft_id')`,
		`INSERT INTO aircraft VALUES ('good-1', 4660), ('bad-1', 0), ('bad-2', 0)`,
		`INSERT INTO fixes
		 SELECT ts, id, 1000
		 FROM generate_series('2026-01-01'::timestamptz, '2026-01-03'::timestamptz, interval '6 hours') ts,
		      (VALUES ('good-1'), ('bad-1'), ('bad-2')) ids(id)`,
		`SELECT compress_chunk(i, true) FROM show_chunks('fixes') i`,
	}
	for _, stmt := range setup {
		_, err := d.Exec(ctx, stmt)
		require.NoError(t, err, stmt)
	}

	host, port, err := container.HostPort(ctx)
	require.NoError(t, err)

	cfg := &config.Config{
		Postgres: config.Postgres{
			Host:     host,
			Port:     port,
			User:     "postgres",
			Password: "postgres",
			SSLMode:  "disable",
		},
		Parallelism: 2,
		Mutations: []mutation.Config{{
			Name:       "cleanup_address_zero",
			Table:      "fixes",
			TimeColumn: "received_at",
			Statement: `DELETE FROM fixes
				WHERE aircraft_id IN ({{ .Bindings.bad_ids }}) AND {{ .RangeFilter }}`,
			Predicate: `SELECT count(*) FROM fixes
				WHERE aircraft_id IN ({{ .Bindings.bad_ids }})`,
			Discover: []mutation.Discover{
				{Name: "bad_ids", Query: "SELECT id FROM aircraft WHERE address = 0"},
			},
			SessionSettings: []string{
				"SET timescaledb.max_tuples_decompressed_per_dml_transaction = 0",
			},
		}},
	}

	require.NoError(t, invokeRun(t, cfg, "--direct", "chunkops"))

	remaining, err := d.Query(ctx, "SELECT count(*) FROM fixes WHERE aircraft_id IN ('bad-1', 'bad-2')")
	require.NoError(t, err)
	require.Equal(t, "0", remaining)

	kept, err := d.Query(ctx, "SELECT count(*) FROM fixes WHERE aircraft_id = 'good-1'")
	require.NoError(t, err)
	require.Equal(t, "9", kept)

	// A second run is a no-op and still exits clean.
	require.NoError(t, invokeRun(t, cfg, "--direct", "chunkops"))
}
