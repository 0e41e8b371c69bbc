package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/okian/monopad/pkg/logger"
)

const (
	envPrefix     = "MONOPAD_"
	envConfigFile = "MONOPAD_CONFIG"
	envDotenvFile = "MONOPAD_DOTENV"
)

// Load builds a Config by layering, from low to high precedence:
//  1. defaults (New)
//  2. YAML file named by MONOPAD_CONFIG
//  3. dotenv file named by MONOPAD_DOTENV; it never overrides variables
//     already in the environment
//  4. environment (prefix MONOPAD_)
func Load(ctx context.Context) (*Config, error) {
	k := koanf.New(".")

	if path := os.Getenv(envConfigFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
		logger.Get().Debug(ctx, "config file loaded", logger.String("path", path))
	}

	if path := os.Getenv(envDotenvFile); path != "" {
		if err := godotenv.Load(path); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// MONOPAD_QUEUE_CAPACITY -> queue_capacity; keys are flat.
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := New()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.Store != StoreMemory && c.Store != StoreRedis:
		return fmt.Errorf("%w: store must be %q or %q, got %q", ErrInvalidConfig, StoreMemory, StoreRedis, c.Store)
	case c.Store == StoreRedis && strings.TrimSpace(c.RedisURL) == "":
		return fmt.Errorf("%w: redis_url is required for the redis store", ErrInvalidConfig)
	case c.QueueCapacity < 0:
		return fmt.Errorf("%w: queue_capacity must not be negative", ErrInvalidConfig)
	case c.LedgerSize < 0:
		return fmt.Errorf("%w: ledger_size must not be negative", ErrInvalidConfig)
	case c.FadeStepMS <= 0:
		return fmt.Errorf("%w: fade_step_ms must be positive", ErrInvalidConfig)
	case c.FadeStep <= 0 || c.FadeStep > 1:
		return fmt.Errorf("%w: fade_step must be in (0, 1]", ErrInvalidConfig)
	case c.DefaultVolume <= 0 || c.DefaultVolume > 1:
		return fmt.Errorf("%w: default_volume must be in (0, 1]", ErrInvalidConfig)
	case c.MaxRosterLimit <= 0:
		return fmt.Errorf("%w: max_roster_limit must be positive", ErrInvalidConfig)
	}
	return nil
}
