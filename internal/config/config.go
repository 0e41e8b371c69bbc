// Package config defines the service configuration and how it is loaded.
package config

import "time"

// Store backends.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// Store selects the entity store: memory or redis.
	Store string `koanf:"store"`

	// RedisURL is the redis:// URL used by the redis store.
	RedisURL string `koanf:"redis_url"`

	// RedisPrefix namespaces the redis keys.
	RedisPrefix string `koanf:"redis_prefix"`

	// QueueCapacity bounds the animation queue; 0 means unbounded.
	QueueCapacity int `koanf:"queue_capacity"`

	// LedgerSize bounds each entity's consumed-trigger ledger; 0 means unbounded.
	LedgerSize int `koanf:"ledger_size"`

	// FadeStepMS and FadeStep shape the music fade on dismissal: the volume
	// drops by FadeStep every FadeStepMS milliseconds.
	FadeStepMS int     `koanf:"fade_step_ms"`
	FadeStep   float64 `koanf:"fade_step"`

	// DefaultVolume is the volume a sound channel is reset to.
	DefaultVolume float64 `koanf:"default_volume"`

	// DismissFadesMusic turns the dismissal fade on.
	DismissFadesMusic bool `koanf:"dismiss_fades_music"`

	// MaxRosterLimit caps GET /entities?limit.
	MaxRosterLimit int `koanf:"max_roster_limit"`
}

// New returns a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		Addr:              ":9080",
		Store:             StoreMemory,
		RedisPrefix:       "monopad",
		QueueCapacity:     0,
		LedgerSize:        0,
		FadeStepMS:        15,
		FadeStep:          0.05,
		DefaultVolume:     0.5,
		DismissFadesMusic: true,
		MaxRosterLimit:    500,
	}
}

// FadeInterval is FadeStepMS as a duration.
func (c *Config) FadeInterval() time.Duration {
	return time.Duration(c.FadeStepMS) * time.Millisecond
}
