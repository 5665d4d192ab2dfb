// Package testutil provides helpers for command tests that need a real
// TimescaleDB server.
package testutil

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/soarhq/chunkops/pkg/docker"
	"github.com/stretchr/testify/require"
)

// SkipIfNoDocker skips the test if Docker is not available
func SkipIfNoDocker(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("docker"); err != nil {
		t.Skip("Docker not available")
	}

	cmd := exec.Command("docker", "ps")
	if err := cmd.Run(); err != nil {
		t.Skip("Docker daemon not running")
	}
}

// StartTimescale starts a throwaway TimescaleDB container and registers its
// teardown with the test. It returns the container so callers can ask for
// the DSN or host/port.
func StartTimescale(t *testing.T) *docker.Container {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	t.Cleanup(cancel)

	c := docker.New()
	require.NoError(t, c.Start(ctx))
	t.Cleanup(func() { _ = c.Stop(context.Background()) })

	return c
}
