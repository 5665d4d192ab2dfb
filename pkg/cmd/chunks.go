package cmd

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/soarhq/chunkops/pkg/catalog"
	"github.com/soarhq/chunkops/pkg/config"
	"github.com/urfave/cli/v3"
	"go.uber.org/fx"
)

type chunksParams struct {
	fx.In

	Config *config.Config
}

// chunks returns the CLI command that lists a hypertable's chunks with their
// time ranges and compression state. It is the read-only preflight view of
// what a run would touch.
func chunks(p chunksParams) *cli.Command {
	return &cli.Command{
		Name:      "chunks",
		Usage:     "List a hypertable's chunks and their compression state",
		ArgsUsage: "<database>",
		Before:    requireConfig(p.Config),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "table",
				Aliases: []string{"t"},
				Usage:   "hypertable to inspect (defaults to the configured mutation's table)",
			},
			&cli.BoolFlag{
				Name:  "direct",
				Usage: "connect with the database driver instead of psql",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return listChunks(ctx, cmd, p.Config)
		},
	}
}

func listChunks(ctx context.Context, cmd *cli.Command, cfg *config.Config) error {
	database, err := requireDatabase(cmd)
	if err != nil {
		return err
	}

	table := cmd.String("table")
	if table == "" {
		m, err := resolveMutation(cfg, cmd)
		if err != nil {
			return errors.Wrap(err, "no --table given and no mutation to take it from")
		}
		table = m.Table
	}

	exec, closeExec, err := newExecutor(cmd, cfg.Postgres, database)
	if err != nil {
		return err
	}
	defer closeExec()

	segments, err := catalog.New(exec).ListSegments(ctx, table)
	if err != nil {
		return err
	}

	if len(segments) == 0 {
		fmt.Printf("Hypertable %s has no chunks\n", table)
		return nil
	}

	compressed, _ := catalog.Partition(segments)

	fmt.Printf("Hypertable %s: %d chunks (%d compressed)\n\n", table, len(segments), len(compressed))
	for _, seg := range segments {
		state := " "
		if seg.Compressed {
			state = "C"
		}
		fmt.Printf("  [%s] %-40s %s .. %s\n",
			state,
			seg.Qualified(),
			seg.RangeStart.Format("2006-01-02 15:04:05Z07"),
			seg.RangeEnd.Format("2006-01-02 15:04:05Z07"),
		)
	}

	return nil
}
