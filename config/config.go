// Package config loads the YAML-sourced configuration that seeds a
// stream's cache thresholds and timeouts at construction.
package config

import (
	"os"
	"time"

	"gitlab.com/NebulousLabs/errors"
	"gopkg.in/yaml.v3"

	"gitlab.com/streamkit/asyncio/build"
)

// defaultOpenTimeout and defaultIdleTimeout are shortened under Dev/Testing
// releases so that local iteration and test suites touching Open/idle
// timeouts don't wait on production-sized windows.
var (
	defaultOpenTimeout = build.Select(build.Var{
		Standard: 10 * time.Second,
		Dev:      2 * time.Second,
		Testing:  50 * time.Millisecond,
	}).(time.Duration)
	defaultIdleTimeout = build.Select(build.Var{
		Standard: 2 * time.Minute,
		Dev:      10 * time.Second,
		Testing:  200 * time.Millisecond,
	}).(time.Duration)
)

// WAL configures the file back-end's write-ahead log.
type WAL struct {
	Directory string `yaml:"directory"`
}

// Config is the top-level configuration consumed by the URL dispatcher and
// cmd/streamcat.
type Config struct {
	// ReadCacheBytes and WriteCacheBytes seed rcache_maxn/wcache_maxn. Zero
	// disables the corresponding cache.
	ReadCacheBytes  int `yaml:"read_cache_bytes"`
	WriteCacheBytes int `yaml:"write_cache_bytes"`

	// Both are delivered as the back-end ctrl knob SET_TIMEOUT, never
	// enforced by the core itself. The dispatcher sends IdleTimeout to the
	// sock and http back-ends, which apply it per read/write or request,
	// and OpenTimeout to the file and data back-ends, which accept and
	// ignore it. Nothing bounds how long Open itself takes.
	OpenTimeout time.Duration `yaml:"open_timeout"`
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	WAL WAL `yaml:"wal"`
}

// Default returns the configuration used when no file is supplied: a 64KiB
// read-ahead cache, a 32KiB write-back cache, and conservative timeouts.
func Default() Config {
	return Config{
		ReadCacheBytes:  64 * 1024,
		WriteCacheBytes: 32 * 1024,
		OpenTimeout:     defaultOpenTimeout,
		IdleTimeout:     defaultIdleTimeout,
		WAL:             WAL{Directory: os.TempDir()},
	}
}

// Load reads and parses a YAML config file, filling any field the file
// omits from Default().
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.AddContext(err, "unable to read config file")
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, errors.AddContext(err, "unable to parse config file")
	}
	return cfg, nil
}
