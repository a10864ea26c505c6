package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if MILESTONES_CONFIG is set
//  3. env (prefix MILESTONES_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("MILESTONES_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: MILESTONES_ADDR, MILESTONES_QUEUE_SIZE, ...
	// Keys map to flat koanf tags, underscores preserved.
	envProvider := env.Provider("MILESTONES_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "milestones_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if cfg.QueueSize < 1 {
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	}
	if cfg.PersistQuietPeriodMS < 0 {
		return fmt.Errorf("%w: persist_quiet_period_ms must not be negative", ErrInvalidConfig)
	}
	switch cfg.PersistenceBackend {
	case "file", "redis":
	default:
		return fmt.Errorf("%w: unknown persistence_backend %q", ErrInvalidConfig, cfg.PersistenceBackend)
	}
	if cfg.PersistenceBackend == "redis" && cfg.RedisAddr == "" {
		return fmt.Errorf("%w: redis_addr required for redis backend", ErrInvalidConfig)
	}
	return nil
}
