package config

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "AIMSYNC_"

// Load builds a Config by layering defaults, an optional file and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. YAML file at path, or at $AIMSYNC_CONFIG when path is empty
//  3. env (prefix AIMSYNC_)
func Load(ctx context.Context, path string) (*Config, error) {
	base := New(ctx)
	k := koanf.New(".")

	if path == "" {
		path = os.Getenv(EnvPrefix + "CONFIG")
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// AIMSYNC_RUN_MODE -> run_mode (flat keys, underscores preserved).
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() {
	c.Game = strings.ToLower(strings.TrimSpace(c.Game))
	c.RunMode = strings.ToLower(strings.TrimSpace(c.RunMode))
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
	if c.PollingIntervalSeconds < int(MinPollingInterval.Seconds()) {
		c.PollingIntervalSeconds = int(MinPollingInterval.Seconds())
	}
}

// Validate checks option values that do not depend on the environment.
func (c *Config) Validate() error {
	switch {
	case !slices.Contains([]string{GameKovaaks, GameAimlab}, c.Game):
		return fmt.Errorf("%w: unknown game %q", ErrInvalidConfig, c.Game)
	case !slices.Contains([]string{ModeOnce, ModeWatch, ModeInterval}, c.RunMode):
		return fmt.Errorf("%w: unknown run_mode %q", ErrInvalidConfig, c.RunMode)
	case !slices.Contains([]string{"text", "json"}, c.LogFormat):
		return fmt.Errorf("%w: unknown log_format %q", ErrInvalidConfig, c.LogFormat)
	case c.DebounceMS < 0:
		return fmt.Errorf("%w: debounce_ms must not be negative", ErrInvalidConfig)
	case c.CalculateAverages && c.NumOfRunsToAverage < 1:
		return fmt.Errorf("%w: num_of_runs_to_average must be at least 1", ErrInvalidConfig)
	}
	return nil
}

// ValidateSources checks that the selected trainer has a spreadsheet and a
// score source configured.
func (c *Config) ValidateSources() error {
	sheet := c.ActiveSheet()
	switch {
	case sheet.ID == "":
		return fmt.Errorf("%w: sheet_id_%s is required", ErrInvalidConfig, c.Game)
	case len(sheet.NameRanges) == 0 || len(sheet.ScoreRanges) == 0:
		return fmt.Errorf("%w: name and score ranges are required", ErrInvalidConfig)
	case c.CalculateAverages && len(sheet.AverageRanges) == 0:
		return fmt.Errorf("%w: average ranges are required when calculate_averages is set", ErrInvalidConfig)
	case c.WatchDir() == "":
		return fmt.Errorf("%w: score source path is required for %s", ErrInvalidConfig, c.Game)
	}
	return nil
}
