package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"stock-risk-engine/internal/engine"
	"stock-risk-engine/internal/store"
	"stock-risk-engine/pkg/utils"
)

// addHistoryCommands adds commands over stored assessments.
func addHistoryCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Stored assessment history",
		Long:  "List, inspect and summarise saved assessments.",
	}

	cmd.AddCommand(newHistoryListCmd(app))
	cmd.AddCommand(newHistoryShowCmd(app))
	cmd.AddCommand(newHistoryStatsCmd(app))

	rootCmd.AddCommand(cmd)
}

func newHistoryListCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved assessments, newest first",
		Example: `  riskengine history list
  riskengine history list --symbol INFY --days 30
  riskengine history list --decision BUY --limit 10`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			st, err := app.Store()
			if err != nil {
				output.Error("%v", err)
				return err
			}

			symbol, _ := cmd.Flags().GetString("symbol")
			decision, _ := cmd.Flags().GetString("decision")
			runID, _ := cmd.Flags().GetString("run")
			days, _ := cmd.Flags().GetInt("days")
			limit, _ := cmd.Flags().GetInt("limit")

			filter := store.AssessmentFilter{
				Symbol:   strings.ToUpper(symbol),
				Decision: strings.ToUpper(decision),
				RunID:    runID,
				Limit:    limit,
			}
			if days > 0 {
				filter.StartDate = time.Now().AddDate(0, 0, -days)
			}

			records, err := st.GetAssessments(ctx, filter)
			if err != nil {
				output.Error("Failed to load assessments: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(records)
			}
			if len(records) == 0 {
				output.Warning("No assessments found")
				return nil
			}

			output.Bold("Assessments")
			table := NewTable(output, "ID", "Date", "Symbol", "Price", "Signal", "Decision", "Conf", "Risk")
			for _, r := range records {
				table.AddRow(
					shortID(r.ID),
					r.CreatedAt.Local().Format(displayDateFormat+" 15:04"),
					r.Symbol,
					utils.FormatPrice(r.Price),
					output.Signal(r.Signal),
					output.Decision(r.Decision),
					fmt.Sprintf("%.0f%%", r.Confidence),
					fmt.Sprintf("%.1f %s", r.RiskScore, output.RiskLevel(r.RiskLevel)),
				)
			}
			table.Render()
			output.Dim("%d assessments. Use 'riskengine history show <id>' for details", len(records))
			return nil
		},
	}

	cmd.Flags().StringP("symbol", "s", "", "filter by symbol")
	cmd.Flags().String("decision", "", "filter by decision (BUY, HOLD, AVOID, SELL)")
	cmd.Flags().String("run", "", "filter by run id")
	cmd.Flags().Int("days", 0, "only the last N days")
	cmd.Flags().IntP("limit", "n", 50, "maximum rows")
	return cmd
}

func newHistoryShowCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a saved assessment",
		Long:  "Show a saved assessment. A unique ID prefix from 'history list' is accepted.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			st, err := app.Store()
			if err != nil {
				output.Error("%v", err)
				return err
			}

			id, err := resolveAssessmentID(ctx, st, args[0])
			if err != nil {
				output.Error("%v", err)
				return err
			}
			record, err := st.GetAssessmentByID(ctx, id)
			if err != nil {
				output.Error("Failed to load assessment: %v", err)
				return err
			}

			var result engine.Result
			if len(record.Payload) > 0 {
				if err := json.Unmarshal(record.Payload, &result); err != nil {
					output.Error("Failed to decode assessment payload: %v", err)
					return err
				}
			}

			if output.IsJSON() {
				return output.JSON(record)
			}
			output.Dim("Assessment %s saved %s", record.ID, record.CreatedAt.Local().Format(time.RFC1123))
			if record.RunID != "" {
				output.Dim("Run %s", record.RunID)
			}
			output.Println()
			if result.Risk == nil || result.Score == nil {
				output.Printf("  %s %s  Risk: %.1f  Confidence: %.0f%%\n",
					record.Symbol, output.Decision(record.Decision), record.RiskScore, record.Confidence)
				return nil
			}
			detailed, _ := cmd.Flags().GetBool("detailed")
			displayResult(output, &result, detailed)
			return nil
		},
	}

	cmd.Flags().BoolP("detailed", "d", false, "show every indicator and layer")
	return cmd
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// resolveAssessmentID expands an ID prefix against recent assessments.
func resolveAssessmentID(ctx context.Context, st store.DataStore, prefix string) (string, error) {
	if len(prefix) >= 36 {
		return prefix, nil
	}
	records, err := st.GetAssessments(ctx, store.AssessmentFilter{Limit: 1000})
	if err != nil {
		return "", err
	}
	var matches []string
	for _, r := range records {
		if strings.HasPrefix(r.ID, prefix) {
			matches = append(matches, r.ID)
		}
	}
	switch len(matches) {
	case 0:
		return prefix, nil
	case 1:
		return matches[0], nil
	}
	return "", fmt.Errorf("ambiguous id prefix %q matches %d assessments", prefix, len(matches))
}

func newHistoryStatsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarise saved assessments",
		Example: `  riskengine history stats
  riskengine history stats --days 7`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			st, err := app.Store()
			if err != nil {
				output.Error("%v", err)
				return err
			}

			days, _ := cmd.Flags().GetInt("days")
			dateRange := store.DateRange{End: time.Now()}
			if days > 0 {
				dateRange.Start = dateRange.End.AddDate(0, 0, -days)
			}

			stats, err := st.GetAssessmentStats(ctx, dateRange)
			if err != nil {
				output.Error("Failed to compute stats: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(stats)
			}
			if stats.Total == 0 {
				output.Warning("No assessments in range")
				return nil
			}

			output.Bold("Assessment Statistics")
			output.Printf("  Total:          %d\n", stats.Total)
			output.Printf("  Avg Risk Score: %.1f\n", stats.AvgRiskScore)
			output.Printf("  Avg Confidence: %.1f%%\n", stats.AvgConfidence)
			output.Println()

			output.Bold("By Decision")
			for _, d := range []string{"BUY", "HOLD", "AVOID", "SELL"} {
				if n := stats.ByDecision[d]; n > 0 {
					output.Printf("  %-16s %d\n", output.Decision(d), n)
				}
			}
			output.Println()

			symbols := make([]string, 0, len(stats.BySymbol))
			for s := range stats.BySymbol {
				symbols = append(symbols, s)
			}
			sort.Strings(symbols)

			output.Bold("By Symbol")
			table := NewTable(output, "Symbol", "Count", "Last Decision", "Avg Risk")
			for _, s := range symbols {
				ss := stats.BySymbol[s]
				table.AddRow(ss.Symbol, fmt.Sprintf("%d", ss.Count), output.Decision(ss.LastDecision), fmt.Sprintf("%.1f", ss.AvgRiskScore))
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().Int("days", 0, "only the last N days")
	return cmd
}
