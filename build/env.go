package build

// Environment variable names the outer CLI surface may consult. The core
// itself never reads these (spec: the core consults no environment
// variables) — only cmd/streamcat does, to let an operator override where
// its config file and WAL directory live without touching a URL.
var (
	// EnvConfigPath points at a YAML config file understood by the config
	// package, overriding the CLI's --config flag default.
	EnvConfigPath = "ASYNCIO_CONFIG"

	// EnvWALDir overrides the directory the file back-end's write-ahead log
	// is journalled into.
	EnvWALDir = "ASYNCIO_WAL_DIR"
)
