package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

// addHelpCommands adds help and documentation commands.
func addHelpCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newCommandsCmd(app))
	rootCmd.AddCommand(newExamplesCmd(app))
	rootCmd.AddCommand(newQuickstartCmd(app))
}

type commandHelp struct {
	cmd  string
	desc string
}

func newCommandsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "commands",
		Short: "List all commands by category",
		Long:  "Display all available commands organized by category.",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			output.Bold("Stock Risk Engine Commands")
			output.Println()

			categories := []struct {
				name     string
				commands []commandHelp
			}{
				{
					name: "Data",
					commands: []commandHelp{
						{"import <symbol> <file>", "Import OHLCV candles from CSV"},
						{"symbols", "Stored symbols and last bar"},
						{"export candles/assessments", "Export to CSV or JSON"},
					},
				},
				{
					name: "Analysis",
					commands: []commandHelp{
						{"analyze <symbol>", "Full technical and risk analysis"},
						{"analyze <symbol> --csv f", "Analyze straight from CSV files"},
						{"scan [symbols...]", "Analyze many symbols concurrently"},
					},
				},
				{
					name: "History",
					commands: []commandHelp{
						{"history list", "Saved assessments"},
						{"history show <id>", "One saved assessment"},
						{"history stats", "Assessment statistics"},
					},
				},
				{
					name: "Monitoring",
					commands: []commandHelp{
						{"watchlist add/remove/list", "Watchlist management"},
						{"watch", "Scheduled watchlist analysis"},
					},
				},
				{
					name: "Utilities",
					commands: []commandHelp{
						{"config show/path/validate", "Configuration"},
						{"version", "Version information"},
					},
				},
				{
					name: "Help",
					commands: []commandHelp{
						{"help <command>", "Detailed help"},
						{"commands", "List all commands"},
						{"examples", "Common workflows"},
						{"quickstart", "New user guide"},
					},
				},
			}

			for _, cat := range categories {
				output.Bold(cat.name)
				for _, c := range cat.commands {
					output.Printf("  %s%s %s\n", output.Cyan(c.cmd), strings.Repeat(" ", pad(c.cmd, 30)), c.desc)
				}
				output.Println()
			}

			output.Dim("Use 'riskengine help <command>' for detailed help on any command")
			return nil
		},
	}
}

func pad(s string, width int) int {
	if n := width - len([]rune(s)); n > 0 {
		return n
	}
	return 0
}

func newExamplesCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "examples",
		Short: "Show common workflow examples",
		Long:  "Display examples of common analysis workflows.",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			output.Bold("Common Workflow Examples")
			output.Println()

			examples := []struct {
				title    string
				commands []string
			}{
				{
					title: "Load History",
					commands: []string{
						"riskengine import INFY infy_daily.csv                     # Daily bars",
						"riskengine import INFY infy_hourly.csv -t 60minute        # Hourly bars",
						"riskengine import NIFTY50 nifty_daily.csv                 # Benchmark",
						"riskengine symbols                                        # Check freshness",
					},
				},
				{
					title: "Analyze a Stock",
					commands: []string{
						"riskengine analyze INFY                                   # From the store",
						"riskengine analyze INFY --detailed                        # Every indicator",
						"riskengine analyze INFY --growth 7.5 --save               # Nudge and persist",
						"riskengine analyze INFY --json --chart > infy.json        # Chart payload",
					},
				},
				{
					title: "Analyze Files Without Importing",
					commands: []string{
						"riskengine analyze TCS --csv tcs.csv --benchmark-csv nifty.csv",
						"riskengine analyze TCS --csv tcs.csv --hourly-csv tcs_60.csv --intraday-csv tcs_5.csv",
					},
				},
				{
					title: "Daily Watchlist",
					commands: []string{
						"riskengine watchlist add INFY                             # Build the list",
						"riskengine watchlist add TCS",
						"riskengine scan --save                                    # Analyze now",
						"riskengine watch --now                                    # Then on schedule",
					},
				},
				{
					title: "Review",
					commands: []string{
						"riskengine history list --days 7                          # Last week",
						"riskengine history list --decision BUY",
						"riskengine history stats --days 30",
					},
				},
			}

			for _, ex := range examples {
				output.Bold(ex.title)
				for _, c := range ex.commands {
					parts := strings.SplitN(c, "#", 2)
					if len(parts) == 2 {
						output.Printf("  %s %s\n", output.Cyan(strings.TrimSpace(parts[0])), output.DimText(strings.TrimSpace(parts[1])))
					} else {
						output.Printf("  %s\n", output.Cyan(c))
					}
				}
				output.Println()
			}

			return nil
		},
	}
}

func newQuickstartCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "quickstart",
		Short: "New user guide",
		Long:  "Step-by-step guide for new users.",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			output.Bold("Stock Risk Engine - Quick Start Guide")
			output.Println()

			steps := []struct {
				step  int
				title string
				desc  string
				cmd   string
			}{
				{1, "Review Configuration", "A commented config.toml is written on first run.", "riskengine config path"},
				{2, "Import Candles", "Load daily OHLCV history for a stock and the benchmark.", "riskengine import INFY infy.csv"},
				{3, "Analyze", "Score the stock and read the decision.", "riskengine analyze INFY"},
				{4, "Build a Watchlist", "Track the stocks you care about.", "riskengine watchlist add INFY"},
				{5, "Schedule", "Analyze the watchlist after every close.", "riskengine watch"},
			}

			for _, s := range steps {
				output.Printf("%s Step %d: %s\n", output.Cyan("→"), s.step, output.BoldText(s.title))
				output.Printf("  %s\n", s.desc)
				output.Printf("  %s\n\n", output.DimText(s.cmd))
			}

			output.Bold("Configuration")
			output.Println()
			output.Printf("  %s - engine, store, logging and watch settings\n", output.Cyan("config.toml"))
			output.Printf("  %s - RISKENGINE_* overrides, e.g. RISKENGINE_ENGINE_MIN_BARS=100\n", output.Cyan(".env"))
			output.Println()

			output.Bold("Important Notes")
			output.Println()
			output.Printf("  %s Scores describe technical risk only, not fundamentals\n", output.Yellow("⚠"))
			output.Printf("  %s At least %d daily bars are needed for a full analysis\n", output.Yellow("⚠"), app.Config.Engine.MinBars)
			output.Printf("  %s Import the benchmark to get beta and alpha\n", output.Yellow("⚠"))

			return nil
		},
	}
}
