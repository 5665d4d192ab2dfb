package cmd

import (
	"strconv"

	"github.com/pkg/errors"
	"github.com/soarhq/chunkops/pkg/config"
	"github.com/soarhq/chunkops/pkg/mutation"
	"github.com/soarhq/chunkops/pkg/postgres"
	"github.com/urfave/cli/v3"
)

// newExecutor builds the SQL executor for one command invocation. The default
// is the psql subprocess client; --direct opens a driver-based connection
// instead. The returned closer is a no-op for the subprocess client.
func newExecutor(cmd *cli.Command, pg config.Postgres, database string) (postgres.Executor, func(), error) {
	if cmd.Bool("direct") {
		d, err := postgres.OpenDirect(pg.DSN(database))
		if err != nil {
			return nil, nil, err
		}
		return d, func() { _ = d.Close() }, nil
	}

	client := postgres.NewClient(database, postgres.ClientOptions{
		Binary: pg.Binary,
		Host:   pg.Host,
		Port:   pg.Port,
		User:   pg.User,
	})
	return client, func() {}, nil
}

// resolveMutation picks the mutation definition for this invocation. With a
// single configured mutation the --mutation flag is optional.
func resolveMutation(cfg *config.Config, cmd *cli.Command) (mutation.Config, error) {
	if name := cmd.String("mutation"); name != "" {
		return cfg.Mutation(name)
	}

	switch len(cfg.Mutations) {
	case 0:
		return mutation.Config{}, errors.New("no mutations configured in chunkops.yaml")
	case 1:
		return cfg.Mutations[0], nil
	default:
		return mutation.Config{}, errors.Errorf("%d mutations configured, choose one with --mutation", len(cfg.Mutations))
	}
}

// resolveParallelism applies the precedence: --parallelism flag, positional
// argument, per-mutation override, project default.
func resolveParallelism(cmd *cli.Command, cfg *config.Config, m mutation.Config) (int, error) {
	if cmd.IsSet("parallelism") {
		return int(cmd.Int("parallelism")), nil
	}

	if arg := cmd.Args().Get(1); arg != "" {
		n, err := strconv.Atoi(arg)
		if err != nil {
			return 0, errors.Errorf("invalid parallelism %q", arg)
		}
		return n, nil
	}

	if m.Parallelism > 0 {
		return m.Parallelism, nil
	}

	return cfg.Parallelism, nil
}

// requireDatabase returns the first positional argument or an error naming
// the command's usage.
func requireDatabase(cmd *cli.Command) (string, error) {
	db := cmd.Args().First()
	if db == "" {
		return "", errors.Errorf("usage: chunkops %s <database>", cmd.Name)
	}
	return db, nil
}
