package pool

import (
	"fmt"
	"time"
)

// Config holds the immutable configuration of one resource pool. It is
// decoded from the `[pools]` section of the backend's TOML configuration;
// durations are expressed in milliseconds as plain integers.
type Config struct {
	// MaxSize bounds the number of concurrently checked-out connections.
	// Must be at least 1.
	MaxSize int `mapstructure:"maxSize"`

	// MinSize is the floor the eviction sweeper never shrinks below.
	MinSize int `mapstructure:"minSize"`

	// AcquireTimeoutMS bounds how long an Acquire call waits for admission.
	AcquireTimeoutMS int `mapstructure:"acquireTimeoutMS"`

	// HealthCheckIntervalMS is the period of the standalone health check over
	// available connections. Zero disables the periodic check.
	HealthCheckIntervalMS int `mapstructure:"healthCheckIntervalMS"`

	// CleanupIntervalMS is the period of the eviction sweeper. Zero disables
	// sweeping.
	CleanupIntervalMS int `mapstructure:"cleanupIntervalMS"`

	// ValidateOnAcquire runs the health verifier on every item dequeued for a
	// caller; failed items are destroyed and replaced transparently.
	ValidateOnAcquire bool `mapstructure:"validateOnAcquire"`

	// ValidateOnReturn runs the health verifier on every returned item before
	// it re-enters the available queue.
	ValidateOnReturn bool `mapstructure:"validateOnReturn"`

	// MaxIdleTimeMS evicts available connections unused for longer than this.
	// Zero means no idle limit.
	MaxIdleTimeMS int `mapstructure:"maxIdleTimeMS"`

	// MaxLifetimeMS evicts available connections older than this. Zero means
	// no lifetime limit.
	MaxLifetimeMS int `mapstructure:"maxLifetimeMS"`

	// ShutdownGraceMS bounds how long Shutdown waits for outstanding leases
	// to be returned before force-destroying active connections.
	ShutdownGraceMS int `mapstructure:"shutdownGraceMS"`
}

// DefaultConfig returns a configuration suitable for most protocol clients:
// a small pool with acquire validation and background eviction enabled.
func DefaultConfig() *Config {
	return &Config{
		MaxSize:               8,
		MinSize:               0,
		AcquireTimeoutMS:      5000,
		HealthCheckIntervalMS: 30000,
		CleanupIntervalMS:     10000,
		ValidateOnAcquire:     true,
		ValidateOnReturn:      false,
		MaxIdleTimeMS:         60000,
		MaxLifetimeMS:         0,
		ShutdownGraceMS:       5000,
	}
}

// Validate checks the configuration for consistency and fills defaulted
// fields. Called once at pool construction; the config is immutable after.
func (cfg *Config) Validate() error {
	if cfg.MaxSize < 1 {
		return fmt.Errorf("pool max size must be at least 1, got %d", cfg.MaxSize)
	}
	if cfg.MinSize < 0 || cfg.MinSize > cfg.MaxSize {
		return fmt.Errorf("pool min size must be between 0 and max size %d, got %d", cfg.MaxSize, cfg.MinSize)
	}
	if cfg.AcquireTimeoutMS <= 0 {
		return fmt.Errorf("acquire timeout must be positive, got %dms", cfg.AcquireTimeoutMS)
	}
	if cfg.HealthCheckIntervalMS < 0 {
		return fmt.Errorf("health check interval must be non-negative, got %dms", cfg.HealthCheckIntervalMS)
	}
	if cfg.CleanupIntervalMS < 0 {
		return fmt.Errorf("cleanup interval must be non-negative, got %dms", cfg.CleanupIntervalMS)
	}
	if cfg.MaxIdleTimeMS < 0 || cfg.MaxLifetimeMS < 0 {
		return fmt.Errorf("idle and lifetime limits must be non-negative")
	}
	if cfg.ShutdownGraceMS <= 0 {
		cfg.ShutdownGraceMS = 5000
	}
	return nil
}

// AcquireTimeout returns the acquire deadline as a duration.
func (cfg *Config) AcquireTimeout() time.Duration {
	return time.Duration(cfg.AcquireTimeoutMS) * time.Millisecond
}

// HealthCheckInterval returns the health check period as a duration.
func (cfg *Config) HealthCheckInterval() time.Duration {
	return time.Duration(cfg.HealthCheckIntervalMS) * time.Millisecond
}

// CleanupInterval returns the sweeper period as a duration.
func (cfg *Config) CleanupInterval() time.Duration {
	return time.Duration(cfg.CleanupIntervalMS) * time.Millisecond
}

// MaxIdleTime returns the idle limit as a duration; zero means unlimited.
func (cfg *Config) MaxIdleTime() time.Duration {
	return time.Duration(cfg.MaxIdleTimeMS) * time.Millisecond
}

// MaxLifetime returns the lifetime limit as a duration; zero means unlimited.
func (cfg *Config) MaxLifetime() time.Duration {
	return time.Duration(cfg.MaxLifetimeMS) * time.Millisecond
}

// ShutdownGrace returns the shutdown grace period as a duration.
func (cfg *Config) ShutdownGrace() time.Duration {
	return time.Duration(cfg.ShutdownGraceMS) * time.Millisecond
}
