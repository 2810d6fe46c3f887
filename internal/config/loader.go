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
//  1. defaults (New)
//  2. file (YAML) if HERORANK_CONFIG is set
//  3. env (prefix HERORANK_)
func Load(ctx context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("HERORANK_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: HERORANK_ADDR, HERORANK_QUEUE_SIZE, ...
	// Map env keys like HERORANK_QUEUE_SIZE -> queue_size (flat keys,
	// underscores preserved to match koanf tags on the struct).
	envProvider := env.Provider("HERORANK_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "herorank_")
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
	switch {
	case cfg.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case cfg.KFactor <= 0:
		return fmt.Errorf("%w: k_factor must be positive", ErrInvalidConfig)
	case cfg.ProvisionalKFactor <= 0:
		return fmt.Errorf("%w: provisional_k_factor must be positive", ErrInvalidConfig)
	case cfg.ProvisionalThreshold < 0:
		return fmt.Errorf("%w: provisional_threshold must not be negative", ErrInvalidConfig)
	case cfg.ProvisionalFlagThreshold < 0:
		return fmt.Errorf("%w: provisional_flag_threshold must not be negative", ErrInvalidConfig)
	case cfg.InitialRating <= 0:
		return fmt.Errorf("%w: initial_rating must be positive", ErrInvalidConfig)
	case cfg.ConfidenceLevel <= 0 || cfg.ConfidenceLevel >= 1:
		return fmt.Errorf("%w: confidence_level must be in (0,1)", ErrInvalidConfig)
	case cfg.HighConfidenceGames <= cfg.MediumConfidenceGames:
		return fmt.Errorf("%w: high_confidence_games must exceed medium_confidence_games", ErrInvalidConfig)
	}
	return nil
}
