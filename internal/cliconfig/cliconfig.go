// Package cliconfig loads the handful of tunables spec.md §6 allows to
// default from the environment without the core ever consuming them
// directly: the optimizer level a bare run starts from, and the
// allocator's initial GC threshold and growth factor. internal/clicmd
// reads these once at startup and passes the resolved values down as
// plain arguments, so lang/vm and lang/gc stay free of any env lookup
// of their own.
package cliconfig

import "github.com/caarlos0/env/v6"

// Config holds the VESPER_*-prefixed environment overrides. Every field
// has a default matching the core's own zero-config behaviour, so a
// host with no environment set up at all still gets vesper's normal
// defaults.
type Config struct {
	// OptLevel names a lang/optimizer.Level by its ToggleNames-style
	// lowercase spelling: none, repl, debug, release, extreme. -O on the
	// command line overrides this.
	OptLevel string `env:"VESPER_OPT_LEVEL" envDefault:"none"`

	// GCInitialThreshold is the allocator's starting next_gc, in bytes.
	GCInitialThreshold int64 `env:"VESPER_GC_INITIAL_THRESHOLD" envDefault:"1048576"`

	// GCGrowFactor multiplies bytes_allocated to compute the next
	// collection threshold after a cycle.
	GCGrowFactor float64 `env:"VESPER_GC_GROW_FACTOR" envDefault:"2.0"`
}

// Load parses Config from the current environment, applying the struct
// tag defaults for anything unset.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
