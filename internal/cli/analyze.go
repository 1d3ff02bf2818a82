package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"stock-risk-engine/internal/analysis/series"
	"stock-risk-engine/internal/engine"
	apperrors "stock-risk-engine/internal/errors"
	"stock-risk-engine/internal/logging"
	"stock-risk-engine/internal/models"
	"stock-risk-engine/internal/runner"
	"stock-risk-engine/internal/store"
	"stock-risk-engine/pkg/utils"
)

// SourceCSV is the provenance source of results built from files.
const SourceCSV = "csv"

// addAnalysisCommands adds analysis commands.
func addAnalysisCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newAnalyzeCmd(app))
	rootCmd.AddCommand(newScanCmd(app))
}

func newAnalyzeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <symbol>",
		Short: "Full technical and risk analysis for a symbol",
		Long: `Analyze a symbol and print its composite signal, risk score and decision.

Candles are read from the store unless --csv is given, in which case the
primary series and the optional hourly, intraday and benchmark series are
read from CSV files with a date,open,high,low,close,volume header.`,
		Example: `  riskengine analyze INFY
  riskengine analyze INFY --csv infy_daily.csv --benchmark-csv nifty_daily.csv
  riskengine analyze TCS --growth 7.5 --save
  riskengine analyze RELIANCE --json --chart`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			defer cancel()
			ctx = logging.WithLogger(ctx, app.Logger)

			symbol := strings.ToUpper(args[0])
			csvPath, _ := cmd.Flags().GetString("csv")
			save, _ := cmd.Flags().GetBool("save")
			chart, _ := cmd.Flags().GetBool("chart")
			detailed, _ := cmd.Flags().GetBool("detailed")

			var growth *float64
			if cmd.Flags().Changed("growth") {
				g, _ := cmd.Flags().GetFloat64("growth")
				growth = &g
			}

			var (
				result *engine.Result
				err    error
			)
			if csvPath != "" {
				result, err = analyzeFiles(ctx, app, cmd, symbol, growth)
			} else {
				result, err = analyzeStored(ctx, app, symbol, growth)
			}
			if result == nil {
				output.Error("Analysis failed: %v", err)
				return err
			}
			if err != nil && !apperrors.Is(err, apperrors.ErrInsufficientData) {
				output.Error("Analysis failed: %v", err)
				return err
			}

			if save {
				id, saveErr := saveResult(ctx, app, result)
				if saveErr != nil {
					output.Error("Failed to save assessment: %v", saveErr)
					return saveErr
				}
				if !output.IsJSON() {
					defer output.Dim("Saved assessment %s", id)
				}
			}

			if !chart {
				result.ChartData = nil
			}
			if output.IsJSON() {
				return output.JSON(result)
			}
			displayResult(output, result, detailed)
			return nil
		},
	}

	cmd.Flags().String("csv", "", "primary series CSV file")
	cmd.Flags().String("hourly-csv", "", "hourly series CSV file")
	cmd.Flags().String("intraday-csv", "", "intraday series CSV file")
	cmd.Flags().String("benchmark-csv", "", "benchmark series CSV file")
	cmd.Flags().StringP("timeframe", "t", "day", "timeframe label of the primary CSV")
	cmd.Flags().Float64("growth", 0, "external 0-10 growth score that nudges confidence")
	cmd.Flags().Bool("save", false, "persist the assessment")
	cmd.Flags().Bool("chart", false, "include chart data in JSON output")
	cmd.Flags().BoolP("detailed", "d", false, "show every indicator and layer")

	return cmd
}

func analyzeStored(ctx context.Context, app *App, symbol string, growth *float64) (*engine.Result, error) {
	st, err := app.Store()
	if err != nil {
		return nil, err
	}
	r := runner.New(st, nil, app.Config.Engine, 1).WithLogger(app.Logger)
	if growth != nil {
		r.WithGrowthScore(symbol, *growth)
	}
	return r.AnalyzeSymbol(ctx, symbol)
}

func analyzeFiles(ctx context.Context, app *App, cmd *cobra.Command, symbol string, growth *float64) (*engine.Result, error) {
	cfg := app.Config.Engine
	timeframe, _ := cmd.Flags().GetString("timeframe")

	path, _ := cmd.Flags().GetString("csv")
	primary, err := readSeries(app, path, symbol, timeframe)
	if err != nil && !apperrors.Is(err, apperrors.ErrInsufficientData) {
		return nil, err
	}

	in := engine.Input{Primary: primary, GrowthScore: growth}
	optional := []struct {
		flag      string
		symbol    string
		timeframe string
		target    **models.PriceSeries
	}{
		{"hourly-csv", symbol, cfg.HourlyTimeframe, &in.Hourly},
		{"intraday-csv", symbol, cfg.IntradayTimeframe, &in.Intraday},
		{"benchmark-csv", cfg.BenchmarkSymbol, timeframe, &in.Benchmark},
	}
	for _, o := range optional {
		p, _ := cmd.Flags().GetString(o.flag)
		if p == "" {
			continue
		}
		s, err := readSeries(app, p, o.symbol, o.timeframe)
		if err != nil && !apperrors.Is(err, apperrors.ErrInsufficientData) {
			return nil, err
		}
		*o.target = s
	}

	result, err := engine.Analyze(ctx, in, engine.OptionsFromConfig(cfg))
	result.Provenance.Source = SourceCSV
	result.Provenance.Extra = map[string]string{"file": path}
	return result, err
}

// readSeries loads a CSV file into a series. A file with no valid rows
// yields an empty series so the engine reports insufficient data.
func readSeries(app *App, path, symbol, timeframe string) (*models.PriceSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	rows, err := series.LoadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	s, report, err := series.Prepare(symbol, timeframe, rows, series.Options{MinBars: 1})
	if err != nil {
		return &models.PriceSeries{Symbol: symbol, Timeframe: timeframe}, err
	}
	dropped := 0
	if report.Malformed != nil {
		dropped = report.Malformed.Dropped()
	}
	logging.LogImport(app.Logger, symbol, timeframe, report.Kept, dropped)
	return s, nil
}

func saveResult(ctx context.Context, app *App, result *engine.Result) (string, error) {
	st, err := app.Store()
	if err != nil {
		return "", err
	}
	record, err := runner.NewRecord(uuid.NewString(), result)
	if err != nil {
		return "", err
	}
	err = utils.Retry(ctx, utils.StoreRetryConfig(), func() error {
		return st.SaveAssessment(ctx, record)
	})
	return record.ID, err
}

func newScanCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [symbols...]",
		Short: "Analyze many symbols from the store",
		Long: `Analyze several symbols concurrently from stored candles and print a
summary table. Without arguments the configured watchlist is scanned.`,
		Example: `  riskengine scan INFY TCS WIPRO
  riskengine scan --watchlist momentum --save
  riskengine scan --workers 8 --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			defer cancel()
			ctx = logging.WithLogger(ctx, app.Logger)

			st, err := app.Store()
			if err != nil {
				output.Error("%v", err)
				return err
			}

			symbols := upper(args)
			if len(symbols) == 0 {
				listName, _ := cmd.Flags().GetString("watchlist")
				if listName == "" {
					listName = app.Config.Watch.Watchlist
				}
				symbols, err = st.GetWatchlist(ctx, listName)
				if err != nil {
					output.Error("Failed to get watchlist: %v", err)
					return err
				}
				if len(symbols) == 0 {
					output.Warning("Watchlist '%s' is empty", listName)
					output.Dim("Use 'riskengine watchlist add <symbol> %s' to add symbols", listName)
					return nil
				}
			}

			workers, _ := cmd.Flags().GetInt("workers")
			if workers <= 0 {
				workers = app.Config.Watch.Workers
			}
			save, _ := cmd.Flags().GetBool("save")

			var sink store.AssessmentWriter
			if save {
				sink = st
			}
			summary, err := runner.New(st, sink, app.Config.Engine, workers).WithLogger(app.Logger).Run(ctx, symbols)
			if err != nil {
				output.Error("Scan interrupted: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(summaryView(summary))
			}
			displaySummary(output, summary)
			return nil
		},
	}

	cmd.Flags().StringP("watchlist", "w", "", "watchlist to scan (default from config)")
	cmd.Flags().Int("workers", 0, "concurrent workers (default from config)")
	cmd.Flags().Bool("save", false, "persist the assessments")

	return cmd
}

func upper(symbols []string) []string {
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		out = append(out, strings.ToUpper(s))
	}
	return out
}
