package kura

import "go.uber.org/zap"

type options struct {
	config Config
	logger *zap.Logger
}

// Option configures NewStore.
type Option func(*options)

// WithConfig replaces all settings with cfg.
func WithConfig(cfg Config) Option {
	return func(o *options) {
		o.config = cfg
	}
}

// WithChunkSize sets the number of rows per chunk. Must be a power of two >= 64.
func WithChunkSize(size int) Option {
	return func(o *options) {
		o.config.ChunkSize = size
	}
}

// WithPidType selects the pid mode of the store.
func WithPidType(t PidType) Option {
	return func(o *options) {
		o.config.PidType = t
	}
}

// WithInitialCapacity pre-allocates entity bookkeeping for n entities.
func WithInitialCapacity(n int) Option {
	return func(o *options) {
		o.config.InitialEntityCapacity = n
	}
}

// WithLogger sets the logger used for diagnostics. If nil is passed, logging
// is disabled.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l == nil {
			l = zap.NewNop()
		}
		o.logger = l
	}
}
