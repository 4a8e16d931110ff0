// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Defaults come from New(); Load layers a YAML file and env vars on top.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"sort"
	"time"

	model "github.com/okian/salesboard/internal/domain/model"
)

// CompetitionConfig is one registered competition and its per-level tables.
type CompetitionConfig struct {
	Title       string            `koanf:"title"`
	Period      string            `koanf:"period"`
	Description string            `koanf:"description"`
	Tables      map[string]string `koanf:"tables"`
}

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the backend: "text" (slog) or "json" (zap).
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8000".
	Addr string `koanf:"addr"`

	// WarehouseDriver is "clickhouse" or "snowflake".
	WarehouseDriver string `koanf:"warehouse_driver"`
	WarehouseDSN    string `koanf:"warehouse_dsn"`

	LeaderboardTable string `koanf:"leaderboard_table"`
	CutoffTable      string `koanf:"cutoff_table"`
	ZoneTable        string `koanf:"zone_table"`

	// StaleCheckMinutes is the minimum gap between two cutoff checks.
	StaleCheckMinutes int `koanf:"stale_check_minutes"`
	// StaleRetrySeconds is the wait after a failed check.
	StaleRetrySeconds int `koanf:"stale_retry_seconds"`

	QueryTimeoutSeconds int `koanf:"query_timeout_seconds"`
	BreakerMaxFailures  int `koanf:"breaker_max_failures"`
	BreakerOpenSeconds  int `koanf:"breaker_open_seconds"`

	// RefreshSchedule is the cron spec of the background freshness trigger.
	RefreshSchedule string `koanf:"refresh_schedule"`

	CompetitionLimit   int                          `koanf:"competition_limit"`
	DefaultCompetition string                       `koanf:"default_competition"`
	SummaryDivisions   []string                     `koanf:"summary_divisions"`
	Competitions       map[string]CompetitionConfig `koanf:"competitions"`

	// PostgresDSN enables slot lookups. Empty resolves identities from the token only.
	PostgresDSN string `koanf:"postgres_dsn"`
	// RedisURL enables the shared identity cache. Empty uses process memory.
	RedisURL  string `koanf:"redis_url"`
	JWTSecret string `koanf:"jwt_secret"`

	IdentityCacheMinutes int `koanf:"identity_cache_minutes"`
	ZoneCacheHours       int `koanf:"zone_cache_hours"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		LogFormat:            "text",
		Addr:                 ":8000",
		WarehouseDriver:      "clickhouse",
		LeaderboardTable:     "leaderboard",
		CutoffTable:          "cut_off",
		ZoneTable:            "rank_ass",
		StaleCheckMinutes:    15,
		StaleRetrySeconds:    60,
		QueryTimeoutSeconds:  30,
		BreakerMaxFailures:   5,
		BreakerOpenSeconds:   30,
		RefreshSchedule:      "@every 1m",
		CompetitionLimit:     1000,
		DefaultCompetition:   "amo_jan_2026",
		SummaryDivisions:     []string{"AEGDA", "AEPDA"},
		IdentityCacheMinutes: 15,
		ZoneCacheHours:       24,
		Competitions: map[string]CompetitionConfig{
			"amo_jan_2026": {
				Title:       "MONITORING KOMPETISI AMO",
				Period:      "JANUARI 2026",
				Description: "Periode Januari - Juni 2026",
				Tables:      map[string]string{"ass": "rank_ass", "bm": "rank_bm", "rbm": "rank_rbm"},
			},
		},
	}
}

// Validate checks the settings the process cannot start without.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("addr must not be empty: %w", ErrInvalidConfig)
	case c.WarehouseDriver != "clickhouse" && c.WarehouseDriver != "snowflake":
		return fmt.Errorf("unknown warehouse_driver %q: %w", c.WarehouseDriver, ErrInvalidConfig)
	case c.WarehouseDSN == "":
		return fmt.Errorf("warehouse_dsn must not be empty: %w", ErrInvalidConfig)
	case c.JWTSecret == "":
		return fmt.Errorf("jwt_secret must not be empty: %w", ErrInvalidConfig)
	case c.StaleCheckMinutes < 1:
		return fmt.Errorf("stale_check_minutes must be positive: %w", ErrInvalidConfig)
	case c.QueryTimeoutSeconds < 1:
		return fmt.Errorf("query_timeout_seconds must be positive: %w", ErrInvalidConfig)
	}
	if _, ok := c.Competitions[c.DefaultCompetition]; !ok {
		return fmt.Errorf("default_competition %q is not configured: %w", c.DefaultCompetition, ErrInvalidConfig)
	}
	_, err := c.Registry()
	return err
}

// Registry builds the competition registry. Unknown levels are rejected.
func (c *Config) Registry() (*model.Registry, error) {
	ids := make([]string, 0, len(c.Competitions))
	for id := range c.Competitions {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	comps := make([]model.Competition, 0, len(ids))
	for _, id := range ids {
		cc := c.Competitions[id]
		tables := make(map[model.Level]string, len(cc.Tables))
		for raw, table := range cc.Tables {
			level, err := model.ParseLevel(raw)
			if err != nil {
				return nil, fmt.Errorf("competition %s: %w: %w", id, ErrInvalidConfig, err)
			}
			tables[level] = table
		}
		comps = append(comps, model.Competition{
			ID:          id,
			Title:       cc.Title,
			Period:      cc.Period,
			Description: cc.Description,
			Tables:      tables,
		})
	}
	return model.NewRegistry(comps...), nil
}

// StaleCheck is StaleCheckMinutes as a duration.
func (c *Config) StaleCheck() time.Duration {
	return time.Duration(c.StaleCheckMinutes) * time.Minute
}

// StaleRetry is StaleRetrySeconds as a duration.
func (c *Config) StaleRetry() time.Duration {
	return time.Duration(c.StaleRetrySeconds) * time.Second
}

// QueryTimeout is QueryTimeoutSeconds as a duration.
func (c *Config) QueryTimeout() time.Duration {
	return time.Duration(c.QueryTimeoutSeconds) * time.Second
}

// BreakerOpen is BreakerOpenSeconds as a duration.
func (c *Config) BreakerOpen() time.Duration {
	return time.Duration(c.BreakerOpenSeconds) * time.Second
}

// IdentityCacheTTL is IdentityCacheMinutes as a duration.
func (c *Config) IdentityCacheTTL() time.Duration {
	return time.Duration(c.IdentityCacheMinutes) * time.Minute
}

// ZoneCacheTTL is ZoneCacheHours as a duration.
func (c *Config) ZoneCacheTTL() time.Duration {
	return time.Duration(c.ZoneCacheHours) * time.Hour
}
