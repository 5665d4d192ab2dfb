// Package docker manages TimescaleDB containers for local development and
// integration testing.
//
// Two layers are provided. Container wraps testcontainers-go's postgres
// module and runs the timescale/timescaledb image with a sane wait strategy;
// it is used by the dev command and by integration tests. Engine wraps a raw
// Docker API client for the operations testcontainers does not cover once
// the process that started a container has exited, like stopping the dev
// server from a later invocation.
package docker
