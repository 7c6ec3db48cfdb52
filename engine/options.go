package engine

import "github.com/rs/zerolog"

// ============================================================================
// ENGINE OPTIONS — functional options for Execute()
// ============================================================================

// Option configures engine behavior.
type Option func(*config)

type config struct {
	logger zerolog.Logger
}

// WithLogger routes engine debug events to logger. The default discards them.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

func applyOptions(opts []Option) *config {
	cfg := &config{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
