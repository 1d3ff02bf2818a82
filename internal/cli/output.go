package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"stock-risk-engine/internal/analysis"
	"stock-risk-engine/internal/analysis/risk"
)

// Output handles formatted output for the CLI.
type Output struct {
	writer       io.Writer
	jsonMode     bool
	colorEnabled bool
}

// NewOutput creates a new Output instance. Colour is off in JSON mode, when
// stdout is not a terminal, and when disabled in the config.
func NewOutput(cmd *cobra.Command) *Output {
	jsonMode, _ := cmd.Flags().GetBool("json")
	return &Output{
		writer:       cmd.OutOrStdout(),
		jsonMode:     jsonMode,
		colorEnabled: !jsonMode && !color.NoColor,
	}
}

// IsJSON returns true if JSON output mode is enabled.
func (o *Output) IsJSON() bool {
	return o.jsonMode
}

// JSON outputs data as JSON.
func (o *Output) JSON(data interface{}) error {
	encoder := json.NewEncoder(o.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// Println prints a message with newline.
func (o *Output) Println(args ...interface{}) {
	fmt.Fprintln(o.writer, args...)
}

// Printf prints a formatted message.
func (o *Output) Printf(format string, args ...interface{}) {
	fmt.Fprintf(o.writer, format, args...)
}

// Success prints a success message in green.
func (o *Output) Success(format string, args ...interface{}) {
	o.line(format, args, color.FgGreen)
}

// Error prints an error message in red.
func (o *Output) Error(format string, args ...interface{}) {
	o.line(format, args, color.FgRed)
}

// Warning prints a warning message in yellow.
func (o *Output) Warning(format string, args ...interface{}) {
	o.line(format, args, color.FgYellow)
}

// Info prints an info message in cyan.
func (o *Output) Info(format string, args ...interface{}) {
	o.line(format, args, color.FgCyan)
}

// Bold prints a bold message.
func (o *Output) Bold(format string, args ...interface{}) {
	o.line(format, args, color.Bold)
}

// Dim prints a dimmed message.
func (o *Output) Dim(format string, args ...interface{}) {
	o.line(format, args, color.Faint)
}

func (o *Output) line(format string, args []interface{}, attrs ...color.Attribute) {
	fmt.Fprintln(o.writer, o.paint(fmt.Sprintf(format, args...), attrs...))
}

// paint colours text when colour is enabled for this output.
func (o *Output) paint(text string, attrs ...color.Attribute) string {
	if !o.colorEnabled {
		return text
	}
	c := color.New(attrs...)
	c.EnableColor()
	return c.Sprint(text)
}

// Green returns green colored text.
func (o *Output) Green(text string) string {
	return o.paint(text, color.FgGreen)
}

// Red returns red colored text.
func (o *Output) Red(text string) string {
	return o.paint(text, color.FgRed)
}

// Yellow returns yellow colored text.
func (o *Output) Yellow(text string) string {
	return o.paint(text, color.FgYellow)
}

// Cyan returns cyan colored text.
func (o *Output) Cyan(text string) string {
	return o.paint(text, color.FgCyan)
}

// BoldText returns bold text.
func (o *Output) BoldText(text string) string {
	return o.paint(text, color.Bold)
}

// DimText returns dimmed text.
func (o *Output) DimText(text string) string {
	return o.paint(text, color.Faint)
}

// Decision colours an investment decision.
func (o *Output) Decision(d string) string {
	switch risk.Decision(d) {
	case risk.Buy:
		return o.paint("▲ "+d, color.FgGreen, color.Bold)
	case risk.Hold:
		return o.Yellow("● " + d)
	case risk.Avoid:
		return o.Red("▼ " + d)
	case risk.Sell:
		return o.paint("▼ "+d, color.FgRed, color.Bold)
	}
	return d
}

// Signal colours a composite signal.
func (o *Output) Signal(s string) string {
	label := strings.ToUpper(strings.ReplaceAll(s, "_", " "))
	switch analysis.Signal(s) {
	case analysis.StrongBuy, analysis.Buy:
		return o.Green(label)
	case analysis.StrongSell, analysis.Sell:
		return o.Red(label)
	case analysis.Neutral:
		return o.Yellow(label)
	}
	return s
}

// RiskLevel colours a risk level bucket label.
func (o *Output) RiskLevel(level string) string {
	switch level {
	case "low":
		return o.Green(level)
	case "medium":
		return o.Yellow(level)
	case "elevated", "high":
		return o.Red(level)
	}
	return level
}

// Direction colours a bullish/bearish/neutral label.
func (o *Output) Direction(dir string) string {
	switch dir {
	case "bullish", "aligned_bullish":
		return o.Green(dir)
	case "bearish", "aligned_bearish":
		return o.Red(dir)
	}
	return o.Yellow(dir)
}

// Table wraps a tablewriter table in the CLI's plain style.
type Table struct {
	table  *tablewriter.Table
	output *Output
}

// NewTable creates a new table.
func NewTable(output *Output, headers ...string) *Table {
	table := tablewriter.NewWriter(output.writer)
	table.SetHeader(headers)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	table.SetColumnSeparator("")
	table.SetCenterSeparator("")
	table.SetRowSeparator("─")
	table.SetHeaderLine(true)
	table.SetTablePadding("  ")
	if output.colorEnabled {
		colors := make([]tablewriter.Colors, len(headers))
		for i := range colors {
			colors[i] = tablewriter.Colors{tablewriter.Bold}
		}
		table.SetHeaderColor(colors...)
	}
	return &Table{table: table, output: output}
}

// AddRow adds a row to the table.
func (t *Table) AddRow(cells ...string) {
	t.table.Append(cells)
}

// Render renders the table.
func (t *Table) Render() {
	t.table.Render()
}
