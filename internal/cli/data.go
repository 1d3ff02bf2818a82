package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"stock-risk-engine/internal/analysis/series"
	"stock-risk-engine/internal/logging"
	"stock-risk-engine/pkg/utils"
)

// addDataCommands adds import, inventory and export commands.
func addDataCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newImportCmd(app))
	rootCmd.AddCommand(newSymbolsCmd(app))
	rootCmd.AddCommand(newExportCmd(app))
}

// importResult is the outcome of one CSV import.
type importResult struct {
	Symbol    string    `json:"symbol"`
	Timeframe string    `json:"timeframe"`
	File      string    `json:"file"`
	Rows      int       `json:"rows"`
	Kept      int       `json:"kept"`
	Dropped   int       `json:"dropped"`
	First     time.Time `json:"first"`
	Last      time.Time `json:"last"`
}

func newImportCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <symbol> <file>",
		Short: "Import OHLCV candles from a CSV file",
		Long: `Import candles from a CSV file with a date,open,high,low,close,volume
header into the store. Malformed rows are dropped and reported; rows for
timestamps already stored replace the existing bars.`,
		Example: `  riskengine import INFY infy_daily.csv
  riskengine import INFY infy_hourly.csv --timeframe 60minute
  riskengine import NIFTY50 nifty.csv`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()

			symbol := strings.ToUpper(args[0])
			path := args[1]
			timeframe, _ := cmd.Flags().GetString("timeframe")
			if timeframe == "" {
				timeframe = app.Config.Engine.PrimaryTimeframe
			}

			res, err := importFile(ctx, app, symbol, timeframe, path)
			if err != nil {
				output.Error("Import failed: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(res)
			}
			output.Success("✓ Imported %d %s bars for %s", res.Kept, res.Timeframe, res.Symbol)
			output.Printf("  Range: %s → %s\n", res.First.Format(displayDateFormat), res.Last.Format(displayDateFormat))
			if res.Dropped > 0 {
				output.Warning("  Dropped %d of %d rows as malformed", res.Dropped, res.Rows)
			}
			return nil
		},
	}

	cmd.Flags().StringP("timeframe", "t", "", "timeframe of the file (default: engine primary timeframe)")
	return cmd
}

func importFile(ctx context.Context, app *App, symbol, timeframe, path string) (*importResult, error) {
	st, err := app.Store()
	if err != nil {
		return nil, err
	}

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
		return nil, err
	}

	err = utils.Retry(ctx, utils.StoreRetryConfig(), func() error {
		return st.SaveCandles(ctx, symbol, timeframe, s.Bars)
	})
	if err != nil {
		return nil, err
	}

	res := &importResult{
		Symbol:    symbol,
		Timeframe: timeframe,
		File:      path,
		Rows:      report.Rows,
		Kept:      report.Kept,
		First:     s.Bars[0].Timestamp,
		Last:      s.Last().Timestamp,
	}
	if report.Malformed != nil {
		res.Dropped = report.Malformed.Dropped()
	}
	logging.LogImport(app.Logger, symbol, timeframe, res.Kept, res.Dropped)
	return res, nil
}

func newSymbolsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "symbols",
		Short: "List stored symbols and their freshness",
		Example: `  riskengine symbols
  riskengine symbols --timeframe 60minute`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			st, err := app.Store()
			if err != nil {
				output.Error("%v", err)
				return err
			}

			timeframe, _ := cmd.Flags().GetString("timeframe")
			if timeframe == "" {
				timeframe = app.Config.Engine.PrimaryTimeframe
			}

			symbols, err := st.ListSymbols(ctx, timeframe)
			if err != nil {
				output.Error("Failed to list symbols: %v", err)
				return err
			}

			type freshness struct {
				Symbol  string    `json:"symbol"`
				LastBar time.Time `json:"last_bar"`
			}
			list := make([]freshness, 0, len(symbols))
			for _, sym := range symbols {
				last, err := st.GetCandlesFreshness(ctx, sym, timeframe)
				if err != nil {
					output.Error("Failed to read freshness for %s: %v", sym, err)
					return err
				}
				list = append(list, freshness{Symbol: sym, LastBar: last})
			}

			if output.IsJSON() {
				return output.JSON(list)
			}
			if len(list) == 0 {
				output.Warning("No %s candles stored", timeframe)
				output.Dim("Use 'riskengine import <symbol> <file>' to add data")
				return nil
			}

			output.Bold("Stored Symbols (%s)", timeframe)
			table := NewTable(output, "Symbol", "Last Bar", "Age")
			now := time.Now()
			for _, f := range list {
				table.AddRow(f.Symbol, f.LastBar.Format(displayDateFormat), utils.FormatDuration(now.Sub(f.LastBar)))
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().StringP("timeframe", "t", "", "timeframe to list (default: engine primary timeframe)")
	return cmd
}
