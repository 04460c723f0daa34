package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Environment string `toml:"environment"`
	Host        string `toml:"host"`
	Port        int    `toml:"port"`

	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`
	SentryEnabled bool   `toml:"sentry_enabled"`

	// postgres
	PostgresHost   string `toml:"postgres_host"`
	PostgresPort   string `toml:"postgres_port"`
	PostgresDBName string `toml:"postgres_db_name"`

	// redis
	RedisHost string `toml:"redis_host"`
	RedisPort string `toml:"redis_port"`

	// metrics
	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`

	AssessRateLimitAllowedPerMin int      `toml:"assess_rate_limit_allowed_per_min"`
	CorsAllowedOrigins           []string `toml:"cors_allowed_origins"`

	// engine tunables
	HistoryDays         int `toml:"history_days"`
	ModelCacheSizeMB    int `toml:"model_cache_size_mb"`
	ModelCacheTTLSecs   int `toml:"model_cache_ttl_secs"`
	SessionTTLMinutes   int `toml:"session_ttl_minutes"`
	SessionCleanupMins  int `toml:"session_cleanup_minutes"`
	DefaultPriorFatigue int `toml:"default_prior_fatigue"`
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	switch strings.ToLower(env) {
	case "dev", "development":
		return t.Development, nil
	case "prod", "production":
		return t.Production, nil
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
}

// Load reads the TOML file at path and returns the section for env, with
// unset tunables filled from defaults.
func Load(env, path string) (*Config, error) {
	var t Toml
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return nil, fmt.Errorf("decode config file [%s]: %w", path, err)
	}
	return fromToml(&t, env)
}

// Parse is Load for in-memory TOML.
func Parse(raw string, env string) (*Config, error) {
	var t Toml
	if _, err := toml.Decode(raw, &t); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return fromToml(&t, env)
}

func fromToml(t *Toml, env string) (*Config, error) {
	cfg, err := t.Get(env)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("no config section for env: %s", env)
	}
	cfg.setDefaults()
	return cfg, nil
}

func (c *Config) setDefaults() {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 9100
	}
	if c.AssessRateLimitAllowedPerMin <= 0 {
		c.AssessRateLimitAllowedPerMin = 120
	}
	if c.HistoryDays <= 0 {
		c.HistoryDays = 90
	}
	if c.ModelCacheSizeMB <= 0 {
		c.ModelCacheSizeMB = 16
	}
	if c.ModelCacheTTLSecs <= 0 {
		c.ModelCacheTTLSecs = 3600
	}
	if c.SessionTTLMinutes <= 0 {
		c.SessionTTLMinutes = 180
	}
	if c.SessionCleanupMins <= 0 {
		c.SessionCleanupMins = 15
	}
	if c.DefaultPriorFatigue <= 0 {
		c.DefaultPriorFatigue = 20
	}
}

func (c *Config) ModelCacheTTL() time.Duration {
	return time.Duration(c.ModelCacheTTLSecs) * time.Second
}

func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

func (c *Config) SessionCleanupInterval() time.Duration {
	return time.Duration(c.SessionCleanupMins) * time.Minute
}

// HistoryWindow is how far back daily loads are read for workload metrics.
// The personalization model always reads the full history.
func (c *Config) HistoryWindow() time.Duration {
	return time.Duration(c.HistoryDays) * 24 * time.Hour
}
