package consts

import "os"

const (
	// ModeDir is the standard file mode for creating directories
	ModeDir = os.FileMode(0o755)

	// ModeFile is the standard file mode for creating files
	ModeFile = os.FileMode(0o644)

	// ConfigFile is the name of the project configuration file
	ConfigFile = "chunkops.yaml"

	// DefaultParallelism is the number of concurrent chunk pipelines used when
	// neither the config nor the command line specifies one
	DefaultParallelism = 2

	// DefaultPSQLBinary is the psql executable used by the subprocess executor
	DefaultPSQLBinary = "psql"

	// DefaultTimescaleVersion is the timescale/timescaledb image tag used for
	// the dev server and integration tests
	DefaultTimescaleVersion = "2.17.2-pg16"
)
