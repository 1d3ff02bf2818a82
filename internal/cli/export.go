package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/spf13/cobra"

	"stock-risk-engine/internal/analysis/series"
	"stock-risk-engine/internal/models"
	"stock-risk-engine/internal/store"
)

const exportTimeLayout = "2006-01-02 15:04:05"

// assessmentRow is the CSV shape of a stored assessment.
type assessmentRow struct {
	ID         string  `csv:"id"`
	CreatedAt  string  `csv:"created_at"`
	RunID      string  `csv:"run_id"`
	Symbol     string  `csv:"symbol"`
	Timeframe  string  `csv:"timeframe"`
	AsOf       string  `csv:"as_of"`
	Status     string  `csv:"status"`
	Price      float64 `csv:"price"`
	Signal     string  `csv:"signal"`
	Composite  float64 `csv:"composite"`
	Decision   string  `csv:"decision"`
	Confidence float64 `csv:"confidence"`
	RiskScore  float64 `csv:"risk_score"`
	RiskLevel  string  `csv:"risk_level"`
}

func newExportCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export data to files",
		Long:  "Export stored candles or assessments to CSV or JSON files.",
	}

	candles := &cobra.Command{
		Use:   "candles <symbol>",
		Short: "Export candle data",
		Long:  "Export stored candles. The CSV layout is the one 'import' reads.",
		Example: `  riskengine export candles INFY
  riskengine export candles INFY --timeframe 60minute --days 30 -o infy_60.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			defer cancel()

			st, err := app.Store()
			if err != nil {
				output.Error("%v", err)
				return err
			}

			symbol := strings.ToUpper(args[0])
			timeframe, _ := cmd.Flags().GetString("timeframe")
			if timeframe == "" {
				timeframe = app.Config.Engine.PrimaryTimeframe
			}
			format, _ := cmd.Flags().GetString("format")
			outFile, _ := cmd.Flags().GetString("output")
			days, _ := cmd.Flags().GetInt("days")

			var from time.Time
			if days > 0 {
				from = time.Now().AddDate(0, 0, -days)
			}
			bars, err := st.GetCandles(ctx, symbol, timeframe, from, time.Time{})
			if err != nil {
				output.Error("Failed to load candles: %v", err)
				return err
			}
			if len(bars) == 0 {
				output.Warning("No %s candles stored for %s", timeframe, symbol)
				return nil
			}

			if outFile == "" {
				outFile = fmt.Sprintf("%s_%s.%s", symbol, timeframe, format)
			}
			if err := writeExport(outFile, format, candleRows(bars), bars); err != nil {
				output.Error("Export failed: %v", err)
				return err
			}

			output.Success("✓ Exported %d candles to %s", len(bars), outFile)
			return nil
		},
	}
	candles.Flags().StringP("timeframe", "t", "", "timeframe (default: engine primary timeframe)")
	candles.Flags().Int("days", 0, "only the last N days")
	addExportFlags(candles)
	cmd.AddCommand(candles)

	assessments := &cobra.Command{
		Use:   "assessments",
		Short: "Export saved assessments",
		Example: `  riskengine export assessments
  riskengine export assessments --symbol INFY --days 90 -f json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			defer cancel()

			st, err := app.Store()
			if err != nil {
				output.Error("%v", err)
				return err
			}

			symbol, _ := cmd.Flags().GetString("symbol")
			format, _ := cmd.Flags().GetString("format")
			outFile, _ := cmd.Flags().GetString("output")
			days, _ := cmd.Flags().GetInt("days")

			filter := store.AssessmentFilter{Symbol: strings.ToUpper(symbol), Limit: 100000}
			if days > 0 {
				filter.StartDate = time.Now().AddDate(0, 0, -days)
			}
			records, err := st.GetAssessments(ctx, filter)
			if err != nil {
				output.Error("Failed to load assessments: %v", err)
				return err
			}
			if len(records) == 0 {
				output.Warning("No assessments found")
				return nil
			}

			if outFile == "" {
				outFile = fmt.Sprintf("assessments.%s", format)
			}
			if err := writeExport(outFile, format, assessmentRows(records), records); err != nil {
				output.Error("Export failed: %v", err)
				return err
			}

			output.Success("✓ Exported %d assessments to %s", len(records), outFile)
			return nil
		},
	}
	assessments.Flags().StringP("symbol", "s", "", "filter by symbol")
	assessments.Flags().Int("days", 0, "only the last N days")
	addExportFlags(assessments)
	cmd.AddCommand(assessments)

	return cmd
}

func addExportFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("format", "f", "csv", "output format (csv, json)")
	cmd.Flags().StringP("output", "o", "", "output file")
}

// writeExport writes csvRows as CSV or full as indented JSON.
func writeExport(path, format string, csvRows, full interface{}) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer file.Close()

	switch format {
	case "csv":
		return gocsv.MarshalFile(csvRows, file)
	case "json":
		out := &Output{writer: file, jsonMode: true}
		return out.JSON(full)
	}
	return fmt.Errorf("unsupported format %q", format)
}

func candleRows(bars []models.Candle) *[]series.RawBar {
	rows := make([]series.RawBar, 0, len(bars))
	for _, c := range bars {
		rows = append(rows, series.RawBar{
			Date:   c.Timestamp.UTC().Format(exportTimeLayout),
			Open:   formatFloat(c.Open),
			High:   formatFloat(c.High),
			Low:    formatFloat(c.Low),
			Close:  formatFloat(c.Close),
			Volume: formatFloat(c.Volume),
		})
	}
	return &rows
}

func assessmentRows(records []models.AssessmentRecord) *[]assessmentRow {
	rows := make([]assessmentRow, 0, len(records))
	for _, r := range records {
		rows = append(rows, assessmentRow{
			ID:         r.ID,
			CreatedAt:  r.CreatedAt.UTC().Format(time.RFC3339),
			RunID:      r.RunID,
			Symbol:     r.Symbol,
			Timeframe:  r.Timeframe,
			AsOf:       r.AsOf.UTC().Format(exportTimeLayout),
			Status:     r.Status,
			Price:      r.Price,
			Signal:     r.Signal,
			Composite:  r.Composite,
			Decision:   r.Decision,
			Confidence: r.Confidence,
			RiskScore:  r.RiskScore,
			RiskLevel:  r.RiskLevel,
		})
	}
	return &rows
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
