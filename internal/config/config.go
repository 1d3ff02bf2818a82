// Package config provides configuration management for the risk engine.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"

	apperrors "stock-risk-engine/internal/errors"
	"stock-risk-engine/internal/logging"
)

// EnvPrefix prefixes every environment override, e.g. RISKENGINE_ENGINE_MIN_BARS.
const EnvPrefix = "RISKENGINE"

// Config holds all application configuration.
type Config struct {
	Engine  EngineConfig  `mapstructure:"engine"`
	Store   StoreConfig   `mapstructure:"store"`
	Logging LoggingConfig `mapstructure:"logging"`
	Watch   WatchConfig   `mapstructure:"watch"`
	UI      UIConfig      `mapstructure:"ui"`

	// Path is the config file that was read, empty when defaults were used.
	Path string `mapstructure:"-"`
}

// EngineConfig holds analysis parameters.
type EngineConfig struct {
	MinBars               int    `mapstructure:"min_bars"`
	ChartBars             int    `mapstructure:"chart_bars"`
	BenchmarkSymbol       string `mapstructure:"benchmark_symbol"`
	MinBenchmarkOverlap   int    `mapstructure:"min_benchmark_overlap"`
	MinReturnObservations int    `mapstructure:"min_return_observations"`
	PrimaryTimeframe      string `mapstructure:"primary_timeframe"`
	HourlyTimeframe       string `mapstructure:"hourly_timeframe"`
	IntradayTimeframe     string `mapstructure:"intraday_timeframe"`
}

// StoreConfig holds the SQLite store location.
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig mirrors logging.LogConfig.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Console    bool   `mapstructure:"console"`
	File       bool   `mapstructure:"file"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
}

// WatchConfig holds the scheduled watchlist run settings.
type WatchConfig struct {
	Schedule  string `mapstructure:"schedule"`
	Workers   int    `mapstructure:"workers"`
	Watchlist string `mapstructure:"watchlist"`
}

// UIConfig holds CLI output settings.
type UIConfig struct {
	ColorEnabled bool   `mapstructure:"color_enabled"`
	DateFormat   string `mapstructure:"date_format"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/stock-risk-engine"
	}
	return filepath.Join(home, ".config", "stock-risk-engine")
}

func setDefaults(v *viper.Viper, configDir string) {
	v.SetDefault("engine.min_bars", 50)
	v.SetDefault("engine.chart_bars", 130)
	v.SetDefault("engine.benchmark_symbol", "NIFTY50")
	v.SetDefault("engine.min_benchmark_overlap", 30)
	v.SetDefault("engine.min_return_observations", 20)
	v.SetDefault("engine.primary_timeframe", "day")
	v.SetDefault("engine.hourly_timeframe", "60minute")
	v.SetDefault("engine.intraday_timeframe", "5minute")

	v.SetDefault("store.path", filepath.Join(configDir, "riskengine.db"))

	logDefaults := logging.DefaultLogConfig()
	v.SetDefault("logging.level", logDefaults.Level)
	v.SetDefault("logging.console", logDefaults.Console)
	v.SetDefault("logging.file", logDefaults.File)
	v.SetDefault("logging.file_path", filepath.Join(configDir, "logs", "riskengine.log"))
	v.SetDefault("logging.max_size", logDefaults.MaxSize)
	v.SetDefault("logging.max_backups", logDefaults.MaxBackups)
	v.SetDefault("logging.max_age", logDefaults.MaxAge)

	v.SetDefault("watch.schedule", "0 30 16 * * MON-FRI")
	v.SetDefault("watch.workers", 4)
	v.SetDefault("watch.watchlist", "default")

	v.SetDefault("ui.color_enabled", true)
	v.SetDefault("ui.date_format", "02-Jan-2006")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory. A missing
// config.toml is replaced by a commented template and the defaults apply.
// Values from a .env file in the working or config directory are exported
// before environment overrides are read.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	// Missing .env files are fine.
	_ = godotenv.Load()
	_ = godotenv.Load(filepath.Join(configDir, ".env"))

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v, configDir)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config.toml: %w", err)
		}
		if err := createTemplateConfig(configDir); err != nil {
			return nil, err
		}
	} else {
		cfg.Path = v.ConfigFileUsed()
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns the configuration used when no file or environment
// overrides exist.
func Default() *Config {
	v := viper.New()
	setDefaults(v, DefaultConfigDir())
	cfg := &Config{}
	_ = v.Unmarshal(cfg)
	return cfg
}

// ScheduleParser parses watch schedules. Schedules carry a leading seconds
// field.
var ScheduleParser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Validate validates the configuration.
func (c *Config) Validate() error {
	invalid := func(format string, args ...interface{}) error {
		return fmt.Errorf("%w: %s", apperrors.ErrConfigInvalid, fmt.Sprintf(format, args...))
	}

	e := c.Engine
	if e.MinBars < 2 {
		return invalid("engine.min_bars must be at least 2, got %d", e.MinBars)
	}
	if e.ChartBars < 1 {
		return invalid("engine.chart_bars must be positive, got %d", e.ChartBars)
	}
	if e.MinBenchmarkOverlap < 2 {
		return invalid("engine.min_benchmark_overlap must be at least 2, got %d", e.MinBenchmarkOverlap)
	}
	if e.MinReturnObservations < 2 || e.MinReturnObservations >= e.MinBenchmarkOverlap {
		return invalid("engine.min_return_observations must be in [2, min_benchmark_overlap), got %d", e.MinReturnObservations)
	}
	if e.PrimaryTimeframe == "" {
		return invalid("engine.primary_timeframe is required")
	}

	if c.Store.Path == "" {
		return invalid("store.path is required")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return invalid("logging.level must be one of debug, info, warn, error, got %q", c.Logging.Level)
	}

	if c.Watch.Workers < 1 {
		return invalid("watch.workers must be positive, got %d", c.Watch.Workers)
	}
	if _, err := ScheduleParser.Parse(c.Watch.Schedule); err != nil {
		return invalid("watch.schedule %q: %v", c.Watch.Schedule, err)
	}

	return nil
}

// LogConfig converts the logging section for the logging package.
func (c *Config) LogConfig() logging.LogConfig {
	return logging.LogConfig{
		Level:      c.Logging.Level,
		Console:    c.Logging.Console,
		Color:      c.UI.ColorEnabled,
		File:       c.Logging.File,
		FilePath:   c.Logging.FilePath,
		MaxSize:    c.Logging.MaxSize,
		MaxBackups: c.Logging.MaxBackups,
		MaxAge:     c.Logging.MaxAge,
	}
}
