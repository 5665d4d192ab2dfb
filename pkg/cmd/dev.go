package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/docker/docker/client"
	"github.com/pkg/errors"
	"github.com/soarhq/chunkops/pkg/consts"
	"github.com/soarhq/chunkops/pkg/docker"
	"github.com/urfave/cli/v3"
)

const devContainerName = "chunkops-dev"

// dev returns the CLI command group that manages a throwaway local
// TimescaleDB server for trying mutations before pointing at real data.
func dev() *cli.Command {
	return &cli.Command{
		Name:  "dev",
		Usage: "Manage a local TimescaleDB development server",
		Commands: []*cli.Command{
			devUp(),
			devDown(),
		},
	}
}

func devUp() *cli.Command {
	return &cli.Command{
		Name:  "up",
		Usage: "Start a TimescaleDB development server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "version",
				Usage: "timescale/timescaledb image tag",
				Value: consts.DefaultTimescaleVersion,
			},
		},
		Action: runDevUpCommand,
	}
}

func devDown() *cli.Command {
	return &cli.Command{
		Name:   "down",
		Usage:  "Stop and remove the TimescaleDB development server",
		Action: runDevDownCommand,
	}
}

func runDevUpCommand(ctx context.Context, cmd *cli.Command) error {
	if isDevContainerRunning(ctx) {
		fmt.Println("TimescaleDB development server is already running")
		fmt.Println("Use 'chunkops dev down' to stop it first")
		return nil
	}

	version := cmd.String("version")
	fmt.Printf("Starting TimescaleDB %s container...\n", version)

	container := docker.NewWithOptions(docker.ContainerOptions{
		Version: version,
		Name:    devContainerName,
	})
	if err := container.Start(ctx); err != nil {
		return err
	}
	// The container intentionally keeps running after this process exits;
	// 'chunkops dev down' stops it through the Docker API.

	dsn, err := container.DSN(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get container DSN")
	}

	host, port, err := container.HostPort(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get container address")
	}

	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Println("TimescaleDB Development Server Started")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("DSN:    %s\n", dsn)
	fmt.Printf("psql:   psql -h %s -p %d -U postgres chunkops\n", host, port)
	fmt.Println("\nUse 'chunkops dev down' to stop the server")
	fmt.Println(strings.Repeat("=", 60))
	return nil
}

func runDevDownCommand(ctx context.Context, cmd *cli.Command) error {
	if !isDevContainerRunning(ctx) {
		fmt.Println("No TimescaleDB development server is currently running")
		return nil
	}

	if err := stopDevContainer(ctx); err != nil {
		fmt.Printf("Warning: failed to stop container: %v\n", err)
		fmt.Printf("You may need to stop it manually with: docker rm -f %s\n", devContainerName)
		return nil
	}

	fmt.Println("TimescaleDB development server stopped")
	return nil
}

func newDockerEngine() (*docker.Engine, error) {
	dockerClient, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Docker client")
	}

	return docker.NewEngine(dockerClient), nil
}

func isDevContainerRunning(ctx context.Context) bool {
	engine, err := newDockerEngine()
	if err != nil {
		return false
	}

	_, err = engine.Get(ctx, devContainerName)
	return err == nil
}

func stopDevContainer(ctx context.Context) error {
	engine, err := newDockerEngine()
	if err != nil {
		return err
	}

	return engine.Stop(ctx, devContainerName)
}
