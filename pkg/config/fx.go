package config

import (
	"os"

	"github.com/soarhq/chunkops/pkg/consts"
	"go.uber.org/fx"
)

var Module = fx.Module("config", fx.Provide(
	// Function attempts to load the configuration from chunkops.yaml (or the
	// file named by CHUNKOPS_CONFIG) if it exists. Returns nil if the file
	// doesn't exist, allowing commands that don't require config (like init,
	// help, version) to function properly.
	func() (*Config, error) {
		path := os.Getenv("CHUNKOPS_CONFIG")
		if path == "" {
			path = consts.ConfigFile
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, nil
		}

		return LoadConfigFile(path)
	},
))
