package docker

import (
	"context"
	"fmt"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/pkg/errors"
	"github.com/soarhq/chunkops/pkg/consts"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// DefaultPostgresPort is the port TimescaleDB listens on inside the container.
const DefaultPostgresPort = 5432

type (
	// ContainerOptions represents options for running TimescaleDB in Docker.
	ContainerOptions struct {
		// Version is the timescale/timescaledb image tag to run, e.g.
		// "2.17.2-pg16". Defaults to consts.DefaultTimescaleVersion.
		Version string

		// Database is the database created on startup (default "chunkops")
		Database string

		// Name optionally pins the container name so a later process can
		// find and stop it
		Name string
	}

	// Container manages a TimescaleDB Docker container.
	Container struct {
		options   ContainerOptions
		container *postgres.PostgresContainer
	}
)

// New creates a new TimescaleDB container with default options.
func New() *Container {
	return NewWithOptions(ContainerOptions{})
}

// NewWithOptions creates a new TimescaleDB container with custom options.
//
// Example:
//
//	container := docker.NewWithOptions(docker.ContainerOptions{Version: "2.17.2-pg16"})
//	if err := container.Start(ctx); err != nil {
//		log.Fatal(err)
//	}
//	defer container.Stop(ctx)
func NewWithOptions(opts ContainerOptions) *Container {
	return &Container{options: opts}
}

// Start starts a TimescaleDB container with the configured version.
func (c *Container) Start(ctx context.Context) error {
	if c.container != nil {
		return errors.New("container is already running")
	}

	version := c.options.Version
	if version == "" {
		version = consts.DefaultTimescaleVersion
	}

	database := c.options.Database
	if database == "" {
		database = "chunkops"
	}

	customizers := []testcontainers.ContainerCustomizer{
		postgres.WithDatabase(database),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategyAndDeadline(
			5*time.Minute,
			wait.ForAll(
				// Postgres restarts once during init, so the ready line
				// appears twice before the server accepts connections.
				wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
				wait.ForListeningPort(nat.Port(fmt.Sprintf("%d/tcp", DefaultPostgresPort))),
			),
		),
	}

	if c.options.Name != "" {
		customizers = append(customizers, testcontainers.CustomizeRequest(testcontainers.GenericContainerRequest{
			ContainerRequest: testcontainers.ContainerRequest{Name: c.options.Name},
		}))
	}

	container, err := postgres.Run(ctx,
		fmt.Sprintf("timescale/timescaledb:%s", version),
		customizers...,
	)
	if err != nil {
		return errors.Wrap(err, "failed to start TimescaleDB container")
	}

	c.container = container
	return nil
}

// Stop stops and removes the TimescaleDB container.
func (c *Container) Stop(ctx context.Context) error {
	if c.container == nil {
		return nil
	}

	err := c.container.Terminate(ctx)
	c.container = nil

	if err != nil {
		return errors.Wrap(err, "failed to stop TimescaleDB container")
	}

	return nil
}

// DSN returns a lib/pq connection string for the running container.
func (c *Container) DSN(ctx context.Context) (string, error) {
	if c.container == nil {
		return "", errors.New("container is not running")
	}

	dsn, err := c.container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return "", errors.Wrap(err, "failed to get connection string")
	}

	return dsn, nil
}

// HostPort returns the host and mapped port for psql-style connections.
func (c *Container) HostPort(ctx context.Context) (string, int, error) {
	if c.container == nil {
		return "", 0, errors.New("container is not running")
	}

	host, err := c.container.Host(ctx)
	if err != nil {
		return "", 0, errors.Wrap(err, "failed to get container host")
	}

	port, err := c.container.MappedPort(ctx, nat.Port(fmt.Sprintf("%d/tcp", DefaultPostgresPort)))
	if err != nil {
		return "", 0, errors.Wrap(err, "failed to get container port")
	}

	return host, port.Int(), nil
}

// IsRunning returns true if the container is currently running.
func (c *Container) IsRunning() bool {
	return c.container != nil
}
