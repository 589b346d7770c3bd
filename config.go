package wal

import (
	"go.uber.org/zap"
)

const (
	// defaultBufferSize is the buffer_size default: 4 KB.
	defaultBufferSize = 4000
	// defaultSegmentSize is the segment_size default: 8 MB.
	defaultSegmentSize = 8 * 1000 * 1000
	// defaultStorageSize of 0 means unbounded.
	defaultStorageSize = 0
)

// Config is the validated, immutable-after-Open/New set of options for a
// WAL instance.
type Config struct {
	dir         string
	bufferSize  Size
	storageSize Size
	fsync       bool
	segmentSize Size
	logger      *zap.Logger
}

// Option configures a WAL at construction time.
type Option func(*Config)

// WithLocation sets the WAL directory. Required.
func WithLocation(path string) Option {
	return func(c *Config) { c.dir = path }
}

// WithBufferSize sets the write buffer's capacity.
func WithBufferSize(s Size) Option {
	return func(c *Config) { c.bufferSize = s }
}

// DisableBuffer bypasses buffering entirely: every record is written
// straight through.
func DisableBuffer() Option {
	return func(c *Config) { c.bufferSize = 0 }
}

// WithStorageSize sets the total on-disk cap across all segments. 0 (the
// default) means unbounded.
func WithStorageSize(s Size) Option {
	return func(c *Config) { c.storageSize = s }
}

// EnableFsync makes flush() call fsync on the active segment after every
// direct or batched write to disk.
func EnableFsync() Option {
	return func(c *Config) { c.fsync = true }
}

// WithSegmentSize overrides the default segment rotation threshold.
func WithSegmentSize(s Size) Option {
	return func(c *Config) { c.segmentSize = s }
}

// WithLogger sets the logger used for internal diagnostics (retention,
// rotation, recovered torn tails). Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Config) { c.logger = l }
}

func defaultConfig() Config {
	return Config{
		bufferSize:  Size(defaultBufferSize),
		storageSize: Size(defaultStorageSize),
		segmentSize: Size(defaultSegmentSize),
		logger:      zap.NewNop(),
	}
}

func buildConfig(opts ...Option) (Config, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.dir == "" {
		return Config{}, newError(ConfigInvalid, errEmptyLocation)
	}
	if cfg.segmentSize == 0 {
		return Config{}, newError(ConfigInvalid, errZeroSegmentSize)
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}
	return cfg, nil
}
