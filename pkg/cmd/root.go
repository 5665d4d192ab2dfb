package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pkg/errors"
	"github.com/soarhq/chunkops/pkg/config"
	"github.com/urfave/cli/v3"
	"go.uber.org/fx"
)

type (
	Params struct {
		fx.In

		Args       []string
		Commands   []*cli.Command `group:"commands"`
		Ctx        context.Context
		Lifecycle  fx.Lifecycle
		Shutdowner fx.Shutdowner
		Version    *Version
	}

	Version struct {
		Version   string
		Commit    string
		Timestamp string
	}
)

// Run assembles and executes the chunkops CLI application. The command list
// comes from the fx value group so each command file stays self-contained.
// The application runs inside an fx start hook and drives the process exit
// code through the Shutdowner, so deferred lifecycle cleanup still happens
// on failure.
func Run(p Params) {
	cli.VersionPrinter = func(cmd *cli.Command) {
		fmt.Fprintln(cmd.Writer, "Version:", p.Version.Version)
		fmt.Fprintln(cmd.Writer, "Commit:", p.Version.Commit)
		fmt.Fprintln(cmd.Writer, "Date:", p.Version.Timestamp)
	}

	app := &cli.Command{
		Name:  "chunkops",
		Usage: "Apply row mutations across compressed TimescaleDB chunks",
		Description: `chunkops runs UPDATE/DELETE mutations against time-partitioned
TimescaleDB hypertables whose chunks are compressed. Each chunk is
decompressed, mutated with a range-scoped statement, and recompressed, with
bounded parallelism and per-chunk failure isolation. Runs are idempotent and
verified against a count predicate, so a partially failed run is repeated
until it converges.`,
		Version:  p.Version.Version,
		Commands: p.Commands,
	}

	p.Lifecycle.Append(fx.StartHook(func() {
		if err := app.Run(p.Ctx, p.Args); err != nil {
			slog.Error("Error running command", "err", err)
			_ = p.Shutdowner.Shutdown(fx.ExitCode(1))
			return
		}

		_ = p.Shutdowner.Shutdown(fx.ExitCode(0))
	}))
}

func requireConfig(cfg *config.Config) func(context.Context, *cli.Command) (context.Context, error) {
	return func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
		if cfg == nil {
			return ctx, errors.New("chunkops.yaml not found - run 'chunkops init' first")
		}

		return ctx, nil
	}
}
