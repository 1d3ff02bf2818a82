// Package cli provides the command-line interface for the risk engine.
package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"stock-risk-engine/internal/config"
	"stock-risk-engine/internal/logging"
	"stock-risk-engine/internal/store"
)

// Version information
const (
	Version   = "0.3.0"
	BuildDate = "2026-10-01"
)

// App holds the application dependencies.
type App struct {
	Config    *config.Config
	Logger    zerolog.Logger
	ConfigDir string

	store *store.SQLiteStore
}

// Store opens the SQLite store on first use.
func (a *App) Store() (store.DataStore, error) {
	if a.store != nil {
		return a.store, nil
	}
	s, err := store.NewSQLiteStore(a.Config.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("opening store %s: %w", a.Config.Store.Path, err)
	}
	a.store = s.WithLogger(a.Logger)
	a.Logger.Debug().Str("path", a.Config.Store.Path).Msg("SQLite store initialized")
	return a.store, nil
}

// Close releases the store if it was opened.
func (a *App) Close() error {
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	return err
}

// reload re-reads the configuration from dir and rebuilds the logger.
func (a *App) reload(dir string) error {
	cfg, err := config.Load(dir)
	if err != nil {
		return err
	}
	a.Config = cfg
	a.ConfigDir = dir
	a.Logger = logging.NewLoggerWithConfig(cfg.LogConfig())
	return nil
}

// NewRootCmd creates the root command for the CLI. configDir is the
// directory cfg was loaded from; a different --config flag reloads.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger, configDir string) *cobra.Command {
	app := &App{
		Config:    cfg,
		Logger:    logger,
		ConfigDir: configDir,
	}

	rootCmd := &cobra.Command{
		Use:   "riskengine",
		Short: "Stock Risk Engine - technical analysis and risk scoring CLI",
		Long: `Stock Risk Engine scores the technical risk of a stock from its OHLCV history.

It computes trend, momentum, volatility and volume indicators, support and
resistance levels, multi-timeframe alignment and beta against a benchmark,
then combines them into a composite signal, a 0-100 risk score and an
investment decision with a confidence.

Use 'riskengine help <command>' for more information about a command.
Use 'riskengine examples' to see common workflows.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if dir, _ := cmd.Flags().GetString("config"); dir != "" && dir != app.ConfigDir {
				if err := app.reload(dir); err != nil {
					return err
				}
			}

			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}

			noColor, _ := cmd.Flags().GetBool("no-color")
			if noColor || !app.Config.UI.ColorEnabled {
				color.NoColor = true
			}
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return app.Close()
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/stock-risk-engine)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable colored output")

	addCoreCommands(rootCmd, app)
	addAnalysisCommands(rootCmd, app)
	addDataCommands(rootCmd, app)
	addHistoryCommands(rootCmd, app)
	addMonitoringCommands(rootCmd, app)
	addHelpCommands(rootCmd, app)

	return rootCmd
}

// addCoreCommands adds core utility commands.
func addCoreCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			}
			output.Printf("Stock Risk Engine v%s\n", Version)
			output.Dim("Build date: %s", BuildDate)
			return nil
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and validate application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			showConfig(output, app.Config)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			path := config.TemplatePath(app.configDir())
			if output.IsJSON() {
				return output.JSON(map[string]string{"path": path})
			}
			output.Println(path)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]bool{"valid": true})
			}
			output.Success("✓ Configuration is valid")
			return nil
		},
	})

	return cmd
}

func (a *App) configDir() string {
	if a.ConfigDir != "" {
		return a.ConfigDir
	}
	return config.DefaultConfigDir()
}

func showConfig(output *Output, cfg *config.Config) {
	source := cfg.Path
	if source == "" {
		source = "defaults"
	}
	output.Dim("Source: %s", source)
	output.Println()

	output.Bold("Engine")
	output.Printf("  Min Bars:          %d\n", cfg.Engine.MinBars)
	output.Printf("  Chart Bars:        %d\n", cfg.Engine.ChartBars)
	output.Printf("  Benchmark:         %s\n", cfg.Engine.BenchmarkSymbol)
	output.Printf("  Benchmark Overlap: %d\n", cfg.Engine.MinBenchmarkOverlap)
	output.Printf("  Min Returns:       %d\n", cfg.Engine.MinReturnObservations)
	output.Printf("  Timeframes:        %s / %s / %s\n",
		cfg.Engine.PrimaryTimeframe, orDash(cfg.Engine.HourlyTimeframe), orDash(cfg.Engine.IntradayTimeframe))
	output.Println()

	output.Bold("Store")
	output.Printf("  Path:              %s\n", cfg.Store.Path)
	output.Println()

	output.Bold("Logging")
	output.Printf("  Level:             %s\n", cfg.Logging.Level)
	output.Printf("  Console:           %v\n", cfg.Logging.Console)
	output.Printf("  File:              %v\n", cfg.Logging.File)
	if cfg.Logging.File {
		output.Printf("  File Path:         %s\n", cfg.Logging.FilePath)
	}
	output.Println()

	output.Bold("Watch")
	output.Printf("  Schedule:          %s\n", cfg.Watch.Schedule)
	output.Printf("  Workers:           %d\n", cfg.Watch.Workers)
	output.Printf("  Watchlist:         %s\n", cfg.Watch.Watchlist)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
