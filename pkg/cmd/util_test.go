package cmd

import (
	"context"
	"testing"

	"github.com/soarhq/chunkops/pkg/config"
	"github.com/soarhq/chunkops/pkg/mutation"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

// withParsedCommand runs fn inside a CLI invocation so flag and argument
// parsing behaves exactly as it does in production.
func withParsedCommand(t *testing.T, flags []cli.Flag, args []string, fn func(cmd *cli.Command)) {
	t.Helper()

	app := &cli.Command{
		Name:  "test",
		Flags: flags,
		Action: func(_ context.Context, cmd *cli.Command) error {
			fn(cmd)
			return nil
		},
	}

	require.NoError(t, app.Run(context.Background(), append([]string{"test"}, args...)))
}

func twoMutations() *config.Config {
	return &config.Config{
		Parallelism: 2,
		Mutations: []mutation.Config{
			{Name: "first", Table: "fixes"},
			{Name: "second", Table: "positions"},
		},
	}
}

func TestResolveMutation(t *testing.T) {
	flags := func() []cli.Flag { return []cli.Flag{&cli.StringFlag{Name: "mutation"}} }

	t.Run("by flag", func(t *testing.T) {
		withParsedCommand(t, flags(), []string{"--mutation", "second"}, func(cmd *cli.Command) {
			m, err := resolveMutation(twoMutations(), cmd)
			require.NoError(t, err)
			require.Equal(t, "positions", m.Table)
		})
	})

	t.Run("unknown name", func(t *testing.T) {
		withParsedCommand(t, flags(), []string{"--mutation", "nope"}, func(cmd *cli.Command) {
			_, err := resolveMutation(twoMutations(), cmd)
			require.ErrorContains(t, err, `unknown mutation "nope"`)
		})
	})

	t.Run("single mutation needs no flag", func(t *testing.T) {
		cfg := &config.Config{Mutations: []mutation.Config{{Name: "only", Table: "fixes"}}}
		withParsedCommand(t, flags(), nil, func(cmd *cli.Command) {
			m, err := resolveMutation(cfg, cmd)
			require.NoError(t, err)
			require.Equal(t, "only", m.Name)
		})
	})

	t.Run("multiple mutations require the flag", func(t *testing.T) {
		withParsedCommand(t, flags(), nil, func(cmd *cli.Command) {
			_, err := resolveMutation(twoMutations(), cmd)
			require.ErrorContains(t, err, "choose one with --mutation")
		})
	})

	t.Run("no mutations", func(t *testing.T) {
		withParsedCommand(t, flags(), nil, func(cmd *cli.Command) {
			_, err := resolveMutation(&config.Config{}, cmd)
			require.ErrorContains(t, err, "no mutations configured")
		})
	})
}

func TestResolveParallelism(t *testing.T) {
	// cli.Flag values are stateful (hasBeenSet persists across Run calls), so
	// each subtest needs a fresh instance.
	flags := func() []cli.Flag { return []cli.Flag{&cli.IntFlag{Name: "parallelism"}} }

	t.Run("flag wins", func(t *testing.T) {
		withParsedCommand(t, flags(), []string{"--parallelism", "8", "db", "4"}, func(cmd *cli.Command) {
			n, err := resolveParallelism(cmd, twoMutations(), mutation.Config{Parallelism: 3})
			require.NoError(t, err)
			require.Equal(t, 8, n)
		})
	})

	t.Run("positional argument", func(t *testing.T) {
		withParsedCommand(t, flags(), []string{"db", "4"}, func(cmd *cli.Command) {
			n, err := resolveParallelism(cmd, twoMutations(), mutation.Config{})
			require.NoError(t, err)
			require.Equal(t, 4, n)
		})
	})

	t.Run("mutation override", func(t *testing.T) {
		withParsedCommand(t, flags(), []string{"db"}, func(cmd *cli.Command) {
			n, err := resolveParallelism(cmd, twoMutations(), mutation.Config{Parallelism: 3})
			require.NoError(t, err)
			require.Equal(t, 3, n)
		})
	})

	t.Run("project default", func(t *testing.T) {
		withParsedCommand(t, flags(), []string{"db"}, func(cmd *cli.Command) {
			n, err := resolveParallelism(cmd, twoMutations(), mutation.Config{})
			require.NoError(t, err)
			require.Equal(t, 2, n)
		})
	})

	t.Run("invalid positional", func(t *testing.T) {
		withParsedCommand(t, flags(), []string{"db", "lots"}, func(cmd *cli.Command) {
			_, err := resolveParallelism(cmd, twoMutations(), mutation.Config{})
			require.ErrorContains(t, err, `invalid parallelism "lots"`)
		})
	})
}

func TestRequireDatabase(t *testing.T) {
	withParsedCommand(t, nil, []string{"soar_staging"}, func(cmd *cli.Command) {
		db, err := requireDatabase(cmd)
		require.NoError(t, err)
		require.Equal(t, "soar_staging", db)
	})

	withParsedCommand(t, nil, nil, func(cmd *cli.Command) {
		_, err := requireDatabase(cmd)
		require.ErrorContains(t, err, "usage: chunkops test <database>")
	})
}
