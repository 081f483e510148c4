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
//  2. file (YAML) if HIGHSTAKES_CONFIG is set
//  3. env (prefix HIGHSTAKES_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("HIGHSTAKES_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: HIGHSTAKES_ADDR, HIGHSTAKES_SHARD_COUNT, ...
	// Keys keep their underscores to match the koanf tags on the struct.
	envProvider := env.Provider("HIGHSTAKES_", ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), "highstakes_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.ShardCount < 1:
		return fmt.Errorf("%w: shard_count must be positive", ErrInvalidConfig)
	case c.BoardCapacity < 1 || c.BoardCapacity > 64:
		return fmt.Errorf("%w: board_capacity must be in 1..64", ErrInvalidConfig)
	case c.DefaultTopN < 0 || c.MaxTopLimit < 1:
		return fmt.Errorf("%w: top-N bounds must be positive", ErrInvalidConfig)
	case c.SessionTTLSeconds < 1 || c.SessionCleanupSeconds < 1:
		return fmt.Errorf("%w: session windows must be positive", ErrInvalidConfig)
	}
	return nil
}
