package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/soarhq/chunkops/pkg/consts"
	"github.com/urfave/cli/v3"
)

const starterConfig = `# chunkops project configuration.
#
# Connection settings beyond the database name are optional; psql falls back
# to PGHOST/PGPORT/PGUSER and ~/.pgpass when they are unset.
postgres:
  # binary: psql
  # host: localhost
  # port: 5432
  # user: postgres

# Default number of concurrent chunk pipelines.
parallelism: 2

mutations:
  - name: example_cleanup
    table: fixes
    time_column: received_at
    # {{ .RangeFilter }} scopes the statement to one chunk's time range.
    statement: >-
      DELETE FROM fixes
      WHERE aircraft_id IN ({{ .Bindings.bad_ids }}) AND {{ .RangeFilter }}
    predicate: >-
      SELECT count(*) FROM fixes
      WHERE aircraft_id IN ({{ .Bindings.bad_ids }})
    discover:
      - name: bad_ids
        query: SELECT id FROM aircraft WHERE address = 0
    session_settings:
      - SET timescaledb.max_tuples_decompressed_per_dml_transaction = 0
`

// initCmd returns the CLI command that scaffolds a starter chunkops.yaml.
func initCmd() *cli.Command {
	return &cli.Command{
		Name:      "init",
		Usage:     "Create a starter chunkops.yaml",
		ArgsUsage: "[dir]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			dir := cmd.Args().First()
			if dir == "" {
				dir = "."
			}

			if err := os.MkdirAll(dir, consts.ModeDir); err != nil {
				return errors.Wrapf(err, "failed to create directory: %s", dir)
			}

			path := filepath.Join(dir, consts.ConfigFile)
			if _, err := os.Stat(path); err == nil {
				return errors.Errorf("%s already exists", path)
			}

			if err := os.WriteFile(path, []byte(starterConfig), consts.ModeFile); err != nil {
				return errors.Wrapf(err, "failed to write %s", path)
			}

			fmt.Printf("Created %s\n", path)
			fmt.Println("Edit the mutation definitions, then preview with 'chunkops run <database> --dry-run'")
			return nil
		},
	}
}
