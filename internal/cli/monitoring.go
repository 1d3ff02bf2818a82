package cli

import (
	"context"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"stock-risk-engine/internal/config"
	"stock-risk-engine/internal/logging"
	"stock-risk-engine/internal/runner"
	"stock-risk-engine/internal/scheduler"
)

// addMonitoringCommands adds watchlist and scheduled-run commands.
func addMonitoringCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newWatchCmd(app))
	rootCmd.AddCommand(newWatchlistCmd(app))
}

func newWatchCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Analyze a watchlist on a schedule",
		Long: `Run the watchlist analysis on a cron schedule and save every assessment.

The schedule has six fields with a leading seconds field, for example
"0 30 16 * * MON-FRI" runs at 16:30 on weekdays. Descriptors such as
"@hourly" and "@every 30m" are accepted too. Stop with Ctrl+C.`,
		Example: `  riskengine watch
  riskengine watch --watchlist momentum --now
  riskengine watch --schedule "@every 1h"
  riskengine watch --once`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			st, err := app.Store()
			if err != nil {
				output.Error("%v", err)
				return err
			}

			listName, _ := cmd.Flags().GetString("watchlist")
			if listName == "" {
				listName = app.Config.Watch.Watchlist
			}
			schedule, _ := cmd.Flags().GetString("schedule")
			if schedule == "" {
				schedule = app.Config.Watch.Schedule
			}
			now, _ := cmd.Flags().GetBool("now")
			once, _ := cmd.Flags().GetBool("once")

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			ctx = logging.WithLogger(ctx, app.Logger)

			r := runner.New(st, st, app.Config.Engine, app.Config.Watch.Workers).WithLogger(app.Logger)
			sched := scheduler.New(ctx, r, st, st, listName)
			sched.OnSummary = func(s *runner.Summary) {
				if output.IsJSON() {
					_ = output.JSON(summaryView(s))
					return
				}
				displaySummary(output, s)
				output.Println()
			}

			if once {
				summary, err := sched.RunNow(ctx)
				if err != nil {
					output.Error("Run failed: %v", err)
					return err
				}
				if summary == nil {
					output.Warning("Watchlist '%s' is empty", listName)
				}
				return nil
			}

			if err := sched.Register(schedule); err != nil {
				output.Error("Invalid schedule: %v", err)
				return err
			}

			if !output.IsJSON() {
				output.Bold("Watch Mode")
				output.Printf("  Watchlist: %s\n", listName)
				output.Printf("  Schedule:  %s\n", schedule)
				if last := st.GetLastRun(scheduler.JobName(listName)); !last.IsZero() {
					output.Printf("  Last run:  %s (%s ago)\n", last.Local().Format(time.RFC1123), formatAge(last))
				}
				output.Println()
			}

			if now {
				if _, err := sched.RunNow(ctx); err != nil {
					output.Warning("Initial run failed: %v", err)
				}
			}

			sched.Start()
			defer sched.Stop()
			if !output.IsJSON() {
				output.Dim("Next run: %s", sched.Next().Local().Format(time.RFC1123))
			}

			<-ctx.Done()
			if !output.IsJSON() {
				output.Info("Stopping watch mode...")
			}
			return nil
		},
	}

	cmd.Flags().StringP("watchlist", "w", "", "watchlist to analyze (default from config)")
	cmd.Flags().String("schedule", "", "cron schedule with seconds (default from config)")
	cmd.Flags().Bool("now", false, "run once immediately before waiting for the schedule")
	cmd.Flags().Bool("once", false, "run once and exit")
	return cmd
}

func formatAge(t time.Time) string {
	d := time.Since(t).Round(time.Second)
	if d < 0 {
		d = 0
	}
	return d.String()
}

func newWatchlistCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watchlist",
		Short: "Watchlist management",
		Long:  "Add, remove, and list symbols in watchlists.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add <symbol> [watchlist]",
		Short: "Add symbol to watchlist",
		Long:  "Add a symbol to a watchlist. The default watchlist comes from the config.",
		Example: `  riskengine watchlist add RELIANCE
  riskengine watchlist add INFY momentum`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			st, err := app.Store()
			if err != nil {
				output.Error("%v", err)
				return err
			}

			symbol := strings.ToUpper(args[0])
			listName := watchlistArg(app.Config, args)
			if err := st.AddToWatchlist(ctx, symbol, listName); err != nil {
				output.Error("Failed to add to watchlist: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]string{"added": symbol, "watchlist": listName})
			}
			output.Success("✓ Added %s to watchlist '%s'", symbol, listName)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <symbol> [watchlist]",
		Short: "Remove symbol from watchlist",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			st, err := app.Store()
			if err != nil {
				output.Error("%v", err)
				return err
			}

			symbol := strings.ToUpper(args[0])
			listName := watchlistArg(app.Config, args)
			if err := st.RemoveFromWatchlist(ctx, symbol, listName); err != nil {
				output.Error("Failed to remove from watchlist: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]string{"removed": symbol, "watchlist": listName})
			}
			output.Success("✓ Removed %s from watchlist '%s'", symbol, listName)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list [watchlist]",
		Short: "List watchlist symbols",
		Long:  "Display all symbols in a watchlist. Shows all watchlists if none specified.",
		Example: `  riskengine watchlist list
  riskengine watchlist list momentum`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			st, err := app.Store()
			if err != nil {
				output.Error("%v", err)
				return err
			}

			if len(args) > 0 {
				listName := args[0]
				symbols, err := st.GetWatchlist(ctx, listName)
				if err != nil {
					output.Error("Failed to get watchlist: %v", err)
					return err
				}

				if output.IsJSON() {
					return output.JSON(map[string]interface{}{
						"name":    listName,
						"symbols": symbols,
					})
				}

				output.Bold("Watchlist: %s", listName)
				output.Printf("  %d symbols\n\n", len(symbols))
				for _, s := range symbols {
					output.Printf("  • %s\n", s)
				}
				return nil
			}

			watchlists, err := st.GetAllWatchlists(ctx)
			if err != nil {
				output.Error("Failed to get watchlists: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(watchlists)
			}

			names := make([]string, 0, len(watchlists))
			for name := range watchlists {
				names = append(names, name)
			}
			sort.Strings(names)

			output.Bold("Watchlists")
			output.Printf("  %d watchlists\n\n", len(watchlists))
			for _, name := range names {
				symbols := watchlists[name]
				output.Printf("  %s (%d symbols)\n", output.Cyan(name), len(symbols))
				for _, s := range symbols {
					output.Printf("    • %s\n", s)
				}
				output.Println()
			}
			return nil
		},
	})

	return cmd
}

func watchlistArg(cfg *config.Config, args []string) string {
	if len(args) > 1 {
		return args[1]
	}
	if cfg.Watch.Watchlist != "" {
		return cfg.Watch.Watchlist
	}
	return "default"
}
