package cmd

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/soarhq/chunkops/pkg/config"
	"github.com/soarhq/chunkops/pkg/mutation"
	"github.com/soarhq/chunkops/pkg/orchestrator"
	"github.com/urfave/cli/v3"
	"go.uber.org/fx"
)

type verifyParams struct {
	fx.In

	Config *config.Config
}

// verify returns the CLI command that runs a mutation's count predicate
// without mutating anything. The exit code is non-zero while rows remain, so
// it slots into the same wrapper loops as run.
func verify(p verifyParams) *cli.Command {
	return &cli.Command{
		Name:      "verify",
		Usage:     "Count the rows a mutation still targets",
		ArgsUsage: "<database>",
		Before:    requireConfig(p.Config),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "mutation",
				Aliases: []string{"m"},
				Usage:   "name of the mutation to verify (optional when only one is configured)",
			},
			&cli.BoolFlag{
				Name:  "direct",
				Usage: "connect with the database driver instead of psql",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return verifyMutation(ctx, cmd, p.Config)
		},
	}
}

func verifyMutation(ctx context.Context, cmd *cli.Command, cfg *config.Config) error {
	database, err := requireDatabase(cmd)
	if err != nil {
		return err
	}

	mcfg, err := resolveMutation(cfg, cmd)
	if err != nil {
		return err
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
		fmt.Printf("Mutation %q has nothing to target: discovery matched no values\n", bound.Name())
		return nil
	}

	remaining, err := orchestrator.Verify(ctx, exec, bound)
	if err != nil {
		return err
	}

	if remaining > 0 {
		fmt.Printf("Mutation %q still targets %d rows\n", bound.Name(), remaining)
		return errors.Wrapf(orchestrator.ErrPartialConvergence, "%d rows remain", remaining)
	}

	fmt.Printf("Mutation %q has converged: 0 rows remain\n", bound.Name())
	return nil
}
