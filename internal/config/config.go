// Package config defines service configuration structures and loading hooks.
package config

import (
	"context"
	"time"

	"github.com/okian/aimsync/internal/adapters/blacklist"
)

// Supported trainers.
const (
	GameKovaaks = "kovaaks"
	GameAimlab  = "aimlab"
)

// Run modes.
const (
	ModeOnce     = "once"
	ModeWatch    = "watch"
	ModeInterval = "interval"
)

// MinPollingInterval is the shortest interval-mode period.
const MinPollingInterval = 30 * time.Second

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat is text or json.
	LogFormat string `koanf:"log_format"`

	// MetricsAddr serves /healthz, /stats, /scenarios and /sync when set.
	MetricsAddr string `koanf:"metrics_addr"`

	Game    string `koanf:"game"`
	RunMode string `koanf:"run_mode"`

	PollingIntervalSeconds int `koanf:"polling_interval_seconds"`
	DebounceMS             int `koanf:"debounce_ms"`

	CalculateAverages  bool `koanf:"calculate_averages"`
	NumOfRunsToAverage int  `koanf:"num_of_runs_to_average"`

	// ProcessExisting replays the stats directory on the first cycle.
	ProcessExisting bool `koanf:"process_existing"`

	StatsPath       string `koanf:"stats_path"`
	AimlabDBPath    string `koanf:"aimlab_db_path"`
	CredentialsFile string `koanf:"credentials_file"`

	SheetIDKovaaks string `koanf:"sheet_id_kovaaks"`
	SheetIDAimlab  string `koanf:"sheet_id_aimlab"`

	ScenarioNameRanges []string `koanf:"scenario_name_ranges"`
	HighscoreRanges    []string `koanf:"highscore_ranges"`
	AverageRanges      []string `koanf:"average_ranges"`

	AimlabNameRanges    []string `koanf:"aimlab_name_ranges"`
	AimlabScoreRanges   []string `koanf:"aimlab_score_ranges"`
	AimlabAverageRanges []string `koanf:"aimlab_average_ranges"`

	VersionBlacklistURL string `koanf:"version_blacklist_url"`
	CSLevelIDsURL       string `koanf:"cs_level_ids_url"`
}

// New creates a Config holding the defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:               "info",
		LogFormat:              "text",
		Game:                   GameKovaaks,
		RunMode:                ModeOnce,
		PollingIntervalSeconds: 30,
		DebounceMS:             5000,
		CalculateAverages:      true,
		NumOfRunsToAverage:     10,
		CredentialsFile:        "credentials.json",
		VersionBlacklistURL:    blacklist.DefaultVersionBlacklistURL,
		CSLevelIDsURL:          blacklist.DefaultLevelIDsURL,
	}
}

// Sheet describes the spreadsheet layout of the selected trainer.
type Sheet struct {
	ID            string
	NameRanges    []string
	ScoreRanges   []string
	AverageRanges []string
}

// ActiveSheet returns the layout for the configured game.
func (c *Config) ActiveSheet() Sheet {
	if c.Game == GameAimlab {
		return Sheet{
			ID:            c.SheetIDAimlab,
			NameRanges:    c.AimlabNameRanges,
			ScoreRanges:   c.AimlabScoreRanges,
			AverageRanges: c.AimlabAverageRanges,
		}
	}
	return Sheet{
		ID:            c.SheetIDKovaaks,
		NameRanges:    c.ScenarioNameRanges,
		ScoreRanges:   c.HighscoreRanges,
		AverageRanges: c.AverageRanges,
	}
}

// PollingInterval returns the interval-mode period, never below
// MinPollingInterval.
func (c *Config) PollingInterval() time.Duration {
	d := time.Duration(c.PollingIntervalSeconds) * time.Second
	if d < MinPollingInterval {
		return MinPollingInterval
	}
	return d
}

// Debounce returns the quiet period before a cycle.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// WatchDir returns the directory the watch driver observes.
func (c *Config) WatchDir() string {
	if c.Game == GameAimlab {
		return c.AimlabDBPath
	}
	return c.StatsPath
}
