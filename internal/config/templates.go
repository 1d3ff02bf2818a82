package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# Stock Risk Engine Configuration
# Every key can be overridden with RISKENGINE_<SECTION>_<KEY>,
# e.g. RISKENGINE_ENGINE_MIN_BARS=100.

[engine]
# Minimum number of valid bars before analysis runs
min_bars = 50
# Bars included in the chart payload
chart_bars = 130
# Benchmark used for beta analysis
benchmark_symbol = "NIFTY50"
# Minimum overlapping dates with the benchmark
min_benchmark_overlap = 30
# Minimum paired return observations for beta
min_return_observations = 20
# Timeframes read from the store
primary_timeframe = "day"
hourly_timeframe = "60minute"
intraday_timeframe = "5minute"

[store]
# SQLite database path (defaults to riskengine.db in the config directory)
# path = ""

[logging]
# debug, info, warn, error
level = "info"
console = true
file = true
# Log file path (defaults to logs/riskengine.log in the config directory)
# file_path = ""
# Rotation: size in MB, number of backups, age in days
max_size = 100
max_backups = 7
max_age = 30

[watch]
# Cron schedule with seconds field
schedule = "0 30 16 * * MON-FRI"
# Concurrent analyses per run
workers = 4
# Watchlist analysed by the scheduler
watchlist = "default"

[ui]
# Enable colored output
color_enabled = true
# Date format
date_format = "02-Jan-2006"
`

// TemplatePath returns where the config template is written.
func TemplatePath(configDir string) string {
	return filepath.Join(configDir, "config.toml")
}

func createTemplateConfig(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := TemplatePath(configDir)
	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}

	return nil
}
