package cmd

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/soarhq/chunkops/pkg/catalog"
	"github.com/soarhq/chunkops/pkg/config"
	"github.com/soarhq/chunkops/pkg/mutation"
	"github.com/soarhq/chunkops/pkg/orchestrator"
	"github.com/soarhq/chunkops/pkg/postgres"
	"github.com/urfave/cli/v3"
	"go.uber.org/fx"
)

type runParams struct {
	fx.In

	Config *config.Config
}

// run returns the CLI command that executes a configured mutation across
// every chunk of its hypertable.
//
// The command binds the mutation (preconditions, discovery), reports how many
// rows the count predicate currently matches, runs the orchestrator with one
// progress line per completed segment, prints the summary, and verifies
// convergence. The exit code is non-zero unless verification reports zero
// remaining rows, so wrappers can loop `chunkops run` until it exits clean.
//
// Example usage:
//
//	# Single configured mutation, default parallelism
//	chunkops run soar_production
//
//	# Pick a mutation and raise parallelism
//	chunkops run soar_production 4 --mutation cleanup_orphaned_fixes
//
//	# Preview without touching data
//	chunkops run soar_production --dry-run
func run(p runParams) *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "Run a mutation across a hypertable's chunks",
		ArgsUsage: "<database> [parallelism]",
		Before:    requireConfig(p.Config),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "mutation",
				Aliases: []string{"m"},
				Usage:   "name of the mutation to run (optional when only one is configured)",
			},
			&cli.IntFlag{
				Name:    "parallelism",
				Aliases: []string{"p"},
				Usage:   "number of concurrent chunk pipelines",
			},
			&cli.StringFlag{
				Name:  "strategy",
				Usage: "override the run strategy (chunk or bulk)",
			},
			&cli.BoolFlag{
				Name:  "direct",
				Usage: "connect with the database driver instead of psql",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "print the statements that would run without executing them",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runMutation(ctx, cmd, p.Config)
		},
	}
}

func runMutation(ctx context.Context, cmd *cli.Command, cfg *config.Config) error {
	database, err := requireDatabase(cmd)
	if err != nil {
		return err
	}

	mcfg, err := resolveMutation(cfg, cmd)
	if err != nil {
		return err
	}

	parallelism, err := resolveParallelism(cmd, cfg, mcfg)
	if err != nil {
		return err
	}

	strategy := cmd.String("strategy")
	switch strategy {
	case "", mutation.StrategyChunk, mutation.StrategyBulk:
	default:
		return errors.Errorf("strategy must be %q or %q", mutation.StrategyChunk, mutation.StrategyBulk)
	}

	exec, closeExec, err := newExecutor(cmd, cfg.Postgres, database)
	if err != nil {
		return err
	}
	defer closeExec()

	m, err := mutation.New(mcfg)
	if err != nil {
		return err
	}

	bound, err := m.Bind(ctx, exec)
	if err != nil {
		return err
	}

	if bound.Empty() {
		fmt.Printf("Nothing to do: discovery for %q matched no values\n", bound.Name())
		return nil
	}

	pending, err := orchestrator.Verify(ctx, exec, bound)
	if err != nil {
		return err
	}

	fmt.Printf("Mutation %q targets %d rows in %s\n", bound.Name(), pending, bound.Table())
	if pending == 0 {
		fmt.Println("Already converged, nothing to mutate")
		return nil
	}

	if cmd.Bool("dry-run") {
		return dryRun(ctx, exec, bound)
	}

	summary, err := orchestrator.New(exec).Run(ctx, bound, orchestrator.Options{
		Parallelism: parallelism,
		Strategy:    strategy,
		Observer: func(completed, total int, res orchestrator.Result) {
			fmt.Println(orchestrator.ProgressLine(completed, total, res))
		},
	})
	if err != nil {
		return err
	}

	fmt.Print(orchestrator.FormatSummary(summary))

	remaining, err := orchestrator.Verify(ctx, exec, bound)
	if err != nil {
		return errors.Wrap(err, "post-run verification failed")
	}

	if remaining > 0 {
		fmt.Printf("\n%d rows remain, run again to converge\n", remaining)
		return errors.Wrapf(orchestrator.ErrPartialConvergence, "%d rows remain", remaining)
	}

	fmt.Println("\nVerification passed: 0 rows remain")
	return nil
}

// dryRun prints the statement each segment would receive. Binding has already
// happened, so discovery queries did run; only the mutation statements and
// the compression churn are skipped.
func dryRun(ctx context.Context, exec postgres.Executor, bound *mutation.Bound) error {
	segments, err := catalog.New(exec).ListSegments(ctx, bound.Table())
	if err != nil {
		return err
	}

	if len(segments) == 0 {
		fmt.Printf("Hypertable %s has no chunks\n", bound.Table())
		return nil
	}

	fmt.Printf("\nWould process %d chunks:\n", len(segments))
	for _, seg := range segments {
		stmt, err := bound.StatementForRange(seg.RangeStart, seg.RangeEnd)
		if err != nil {
			return err
		}

		state := "uncompressed"
		if seg.Compressed {
			state = "compressed"
		}
		fmt.Printf("\n-- %s (%s)\n%s\n", seg.Qualified(), state, stmt)
	}

	return nil
}
