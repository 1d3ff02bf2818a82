package cli

import (
	"fmt"
	"strings"
	"time"

	"stock-risk-engine/internal/engine"
	"stock-risk-engine/internal/runner"
	"stock-risk-engine/pkg/utils"
)

const displayDateFormat = "02-Jan-2006"

func displayResult(output *Output, r *engine.Result, detailed bool) {
	output.Bold("%s Risk Analysis", r.Symbol)
	if r.Status == engine.StatusInsufficientData {
		output.Warning("  Not enough history to analyze (%s)", r.Status)
		displayWarnings(output, r.Warnings)
		return
	}
	output.Printf("  Price: %s  Timeframe: %s  As of: %s  Bars: %d\n",
		output.BoldText(utils.FormatPrice(r.Price)), r.Timeframe, r.AsOf.Format(displayDateFormat), r.Bars)
	if r.Provenance.Source != "" {
		output.Dim("  Source: %s", r.Provenance.Source)
	}
	output.Println()

	rk := r.Risk
	output.Bold("Decision")
	output.Printf("  %s  Confidence: %.0f%%\n", output.Decision(string(rk.Decision)), rk.DecisionConfidence)
	output.Printf("  Risk Score: %.1f/100 (%s)  Alignment: %s\n",
		rk.RiskScore, output.RiskLevel(rk.RiskLevel), output.Direction(string(rk.Alignment)))
	output.Printf("  Signal: %s  Composite: %.2f/10  Agreement: %.0f%%\n",
		output.Signal(string(r.Score.Signal)), r.Score.Composite, r.Score.Agreement*100)
	if rk.Reasoning != "" {
		output.Dim("  %s", rk.Reasoning)
	}
	output.Println()

	scores := NewTable(output, "Trend", "Momentum", "Volatility", "Volume", "Price Action")
	scores.AddRow(
		fmt.Sprintf("%.1f", r.Score.Trend),
		fmt.Sprintf("%.1f", r.Score.Momentum),
		fmt.Sprintf("%.1f", r.Score.Volatility),
		fmt.Sprintf("%.1f", r.Score.Volume),
		fmt.Sprintf("%.1f", r.Score.PriceAction),
	)
	scores.Render()
	output.Println()

	if ind := r.Indicators; ind != nil {
		output.Bold("Indicators")
		output.Printf("  Trend:      %s  ADX: %s (%s)  Above SMAs: %d/%d\n",
			output.Direction(string(ind.Trend.Direction)), ptrf(ind.Trend.ADX, "%.1f"), ind.Trend.ADXStrength,
			ind.Trend.SMAsAbove, ind.Trend.SMAsAvailable)
		output.Printf("  Momentum:   RSI: %s (%s)  MACD: %s\n",
			ptrf(ind.Momentum.RSI, "%.1f"), ind.Momentum.Analysis.RSISignal, ind.Momentum.MACDCross)
		output.Printf("  Volatility: ATR: %s (%s%%, %s)  Band: %s\n",
			ptrf(ind.Volatility.ATR, "%.2f"), ptrf(ind.Volatility.ATRPercent, "%.2f"), ind.Volatility.ATRLevel,
			ind.Volatility.BandPosition)
		output.Printf("  Volume:     %s  Ratio: %sx (%s)  OBV: %s\n",
			utils.FormatVolume(ind.Volume.Current), ptrf(ind.Volume.Ratio, "%.2f"), ind.Volume.Level, ind.Volume.OBVTrend)
		if detailed {
			output.Printf("  SMA 20/50/200: %s / %s / %s\n",
				ptrf(ind.Trend.SMA20, "%.2f"), ptrf(ind.Trend.SMA50, "%.2f"), ptrf(ind.Trend.SMA200, "%.2f"))
			output.Printf("  EMA 12/20/26:  %s / %s / %s\n",
				ptrf(ind.Trend.EMA12, "%.2f"), ptrf(ind.Trend.EMA20, "%.2f"), ptrf(ind.Trend.EMA26, "%.2f"))
			output.Printf("  MACD: %s  Signal: %s  Hist: %s\n",
				ptrf(ind.Momentum.MACD, "%.3f"), ptrf(ind.Momentum.MACDSignal, "%.3f"), ptrf(ind.Momentum.MACDHistogram, "%.3f"))
			output.Printf("  Stoch %%K/%%D: %s / %s (%s)  ROC: %s\n",
				ptrf(ind.Momentum.StochK, "%.1f"), ptrf(ind.Momentum.StochD, "%.1f"), ind.Momentum.StochSignal,
				ptrf(ind.Momentum.ROC, "%.2f"))
			output.Printf("  Bollinger: %s / %s / %s  %%B: %s\n",
				ptrf(ind.Volatility.BBLower, "%.2f"), ptrf(ind.Volatility.BBMiddle, "%.2f"), ptrf(ind.Volatility.BBUpper, "%.2f"),
				ptrf(ind.Volatility.BBPercentB, "%.2f"))
		}
		output.Println()
	}

	lv := r.Levels
	output.Bold("Key Levels")
	output.Printf("  Support:    %s %s\n", output.Green(ptrPrice(lv.NearestSupport)), distance(lv.SupportDistancePct, lv.SupportSource))
	output.Printf("  Resistance: %s %s\n", output.Red(ptrPrice(lv.NearestResistance)), distance(lv.ResistanceDistancePct, lv.ResistanceSource))
	if detailed {
		output.Printf("  Pivot: %.2f  R1: %.2f  R2: %.2f  S1: %.2f  S2: %.2f\n", lv.Pivot, lv.R1, lv.R2, lv.S1, lv.S2)
	}
	if r.Structure.Detected {
		output.Printf("  Structure:  %s channel, %s/bar", r.Structure.Channel, utils.FormatPercent(r.Structure.SlopePctPerBar))
		if r.Structure.Consolidation {
			output.Printf(", consolidating")
		}
		if r.Structure.Breakout != "" && r.Structure.Breakout != "neutral" {
			output.Printf(", %s breakout", r.Structure.Breakout)
		}
		output.Println()
	}
	output.Println()

	if e := r.Entry; e != nil {
		output.Bold("Entry")
		output.Printf("  Zone: %s (%.0f%% of range)  Quality: %s (%.0f)\n", e.Zone, e.RangePositionPct, e.Quality, e.QualityScore)
		output.Printf("  Stop: %s (%s)  Target: %s (%s)  R:R %s (%s)\n",
			utils.FormatPrice(e.StopLoss), utils.FormatPercent(-e.StopDistancePct),
			utils.FormatPrice(e.Target), utils.FormatPercent(e.TargetDistancePct),
			utils.FormatRiskReward(e.RiskReward), e.RiskRewardRating)
		if e.WaitForPullback {
			output.Warning("  Wait for a pullback to %s - %s",
				utils.FormatPrice(e.SuggestedEntryLow), utils.FormatPrice(e.SuggestedEntryHigh))
		}
		output.Println()
	}

	if m := r.MTF; m != nil && len(m.Timeframes) > 0 {
		output.Bold("Timeframes")
		table := NewTable(output, "Timeframe", "Role", "Bars", "Trend", "Momentum", "RSI", "Entry")
		for _, tf := range m.Timeframes {
			table.AddRow(
				tf.Timeframe,
				string(tf.Role),
				fmt.Sprintf("%d", tf.Bars),
				output.Direction(string(tf.TrendDirection)),
				tf.MomentumSignal,
				fmt.Sprintf("%.1f", tf.RSI),
				tf.EntrySignal,
			)
		}
		table.Render()
		output.Printf("  Alignment: %s  Quality: %s  Action: %s\n",
			output.Direction(string(m.Alignment)), m.SignalQuality, m.RecommendedAction)
		output.Println()
	}

	if b := r.Beta; b != nil && b.Available {
		output.Bold("Beta vs %s", b.Benchmark)
		output.Printf("  Beta: %.2f (%s)  Correlation: %.2f  R²: %.2f\n", b.Beta, b.RiskProfile, b.Correlation, b.RSquared)
		output.Printf("  Annualized Alpha: %s  Volatility: %.1f%% vs %.1f%%\n",
			utils.FormatPercent(b.AnnualizedAlpha*100), b.StockVolatility*100, b.BenchmarkVolatility*100)
		output.Println()
	}

	displayFactors(output, "Bullish", rk.BullishFactors, output.Green)
	displayFactors(output, "Bearish", rk.BearishFactors, output.Red)
	displayFactors(output, "Risks", rk.RiskFactors, output.Yellow)
	if detailed {
		l := rk.Layers
		output.Bold("Risk Layers")
		output.Printf("  Structure: %.1f  Momentum: %.1f  Overextension: %.1f  Volatility: %.1f  Volume: %.1f\n",
			l.Structure, l.Momentum, l.Overextension, l.Volatility, l.Volume)
		output.Printf("  Pre-alignment: %.1f  Multiplier: %.2f\n", rk.PreMFTAScore, rk.MFTAMultiplier)
		output.Println()
	}
	displayWarnings(output, r.Warnings)
}

func displayFactors(output *Output, title string, factors []string, paint func(string) string) {
	if len(factors) == 0 {
		return
	}
	output.Bold(title)
	for _, f := range factors {
		output.Printf("  %s %s\n", paint("●"), f)
	}
	output.Println()
}

func displayWarnings(output *Output, warnings []string) {
	for _, w := range warnings {
		output.Warning("  ! %s", w)
	}
}

func ptrf(p *float64, format string) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprintf(format, *p)
}

func ptrPrice(p *float64) string {
	if p == nil {
		return "-"
	}
	return utils.FormatPrice(*p)
}

func distance(pct *float64, source string) string {
	if pct == nil {
		return ""
	}
	if source == "" {
		return fmt.Sprintf("(%.2f%% away)", *pct)
	}
	return fmt.Sprintf("(%.2f%% away, %s)", *pct, source)
}

// outcomeView is the JSON shape of one symbol in a batch.
type outcomeView struct {
	Symbol     string  `json:"symbol"`
	Status     string  `json:"status"`
	Signal     string  `json:"signal,omitempty"`
	Decision   string  `json:"decision,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
	RiskScore  float64 `json:"risk_score,omitempty"`
	RiskLevel  string  `json:"risk_level,omitempty"`
	Price      float64 `json:"price,omitempty"`
	ID         string  `json:"assessment_id,omitempty"`
	Error      string  `json:"error,omitempty"`
}

type summaryJSON struct {
	RunID        string        `json:"run_id"`
	StartedAt    time.Time     `json:"started_at"`
	DurationMS   int64         `json:"duration_ms"`
	Insufficient int           `json:"insufficient"`
	Failed       int           `json:"failed"`
	Results      []outcomeView `json:"results"`
}

func summaryView(s *runner.Summary) summaryJSON {
	view := summaryJSON{
		RunID:        s.RunID,
		StartedAt:    s.StartedAt,
		DurationMS:   s.Duration().Milliseconds(),
		Insufficient: s.Insufficient,
		Failed:       s.Failed,
		Results:      make([]outcomeView, 0, len(s.Outcomes)),
	}
	for _, o := range s.Outcomes {
		v := outcomeView{Symbol: o.Symbol}
		if o.Record != nil {
			v.Status = o.Record.Status
			v.Signal = o.Record.Signal
			v.Decision = o.Record.Decision
			v.Confidence = o.Record.Confidence
			v.RiskScore = o.Record.RiskScore
			v.RiskLevel = o.Record.RiskLevel
			v.Price = o.Record.Price
			v.ID = o.Record.ID
		}
		if o.Err != nil {
			v.Error = o.Err.Error()
			if o.Record == nil {
				v.Status = "failed"
			}
		}
		view.Results = append(view.Results, v)
	}
	return view
}

func displaySummary(output *Output, s *runner.Summary) {
	output.Bold("Scan %s", s.RunID)
	table := NewTable(output, "Symbol", "Price", "Signal", "Decision", "Conf", "Risk", "Level", "Status")
	for _, o := range s.Outcomes {
		rec := o.Record
		if rec == nil {
			table.AddRow(o.Symbol, "-", "-", "-", "-", "-", "-", output.Red(utils.TruncateString(errText(o.Err), 40)))
			continue
		}
		status := rec.Status
		if o.Failed() {
			status = output.Red(utils.TruncateString(errText(o.Err), 40))
		}
		table.AddRow(
			o.Symbol,
			utils.FormatPrice(rec.Price),
			output.Signal(rec.Signal),
			output.Decision(rec.Decision),
			fmt.Sprintf("%.0f%%", rec.Confidence),
			fmt.Sprintf("%.1f", rec.RiskScore),
			output.RiskLevel(rec.RiskLevel),
			status,
		)
	}
	table.Render()
	output.Println()

	analyzed := len(s.Outcomes) - s.Insufficient - s.Failed
	summary := fmt.Sprintf("%d analyzed, %d insufficient, %d failed in %s",
		analyzed, s.Insufficient, s.Failed, utils.FormatDuration(s.Duration()))
	if s.Failed > 0 {
		output.Warning("%s", summary)
	} else {
		output.Dim("%s", summary)
	}
}

func errText(err error) string {
	if err == nil {
		return "-"
	}
	return strings.TrimSpace(err.Error())
}
