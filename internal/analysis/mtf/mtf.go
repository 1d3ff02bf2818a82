// Package mtf provides multi-timeframe analysis functionality.
package mtf

import (
	"fmt"
	"strings"

	"stock-risk-engine/internal/models"
)

// Alignment describes how the analysed timeframes agree.
type Alignment string

const (
	AlignedBullish Alignment = "aligned_bullish"
	AlignedBearish Alignment = "aligned_bearish"
	Mixed          Alignment = "mixed"
	NeutralAlign   Alignment = "neutral"
)

// SignalQuality grades the alignment.
type SignalQuality string

const (
	QualityHigh   SignalQuality = "high"
	QualityMedium SignalQuality = "medium"
	QualityLow    SignalQuality = "low"
)

// Recommended actions.
const (
	ActionBuy         = "buy"
	ActionSell        = "sell"
	ActionHoldBullish = "hold_bullish"
	ActionHoldBearish = "hold_bearish"
	ActionHold        = "hold"
)

// MinAlignedTimeframes is how many timeframes must be present before an
// alignment is declared.
const MinAlignedTimeframes = 2

var multipliers = map[Alignment]float64{
	AlignedBullish: 1.2,
	AlignedBearish: 0.5,
	Mixed:          0.8,
	NeutralAlign:   1.0,
}

var qualityConfidence = map[SignalQuality]float64{
	QualityHigh:   85,
	QualityMedium: 65,
	QualityLow:    40,
}

// Multiplier returns the risk-score multiplier for an alignment.
func Multiplier(a Alignment) float64 {
	if m, ok := multipliers[a]; ok {
		return m
	}
	return 1.0
}

// Result contains the complete multi-timeframe analysis result.
type Result struct {
	Timeframes        []TimeframeSummary `json:"timeframes"`
	Alignment         Alignment          `json:"trend_alignment"`
	SignalQuality     SignalQuality      `json:"signal_quality"`
	Confidence        float64            `json:"confidence"`
	RecommendedAction string             `json:"recommended_action"`
	Multiplier        float64            `json:"mfta_multiplier"`
	BullishCount      int                `json:"bullish_count"`
	BearishCount      int                `json:"bearish_count"`
	NeutralCount      int                `json:"neutral_count"`
	Warnings          []string           `json:"warnings,omitempty"`
}

// NeutralResult is the fallback used when fewer than two timeframes could
// be analysed.
func NeutralResult() *Result {
	return &Result{
		Alignment:         NeutralAlign,
		SignalQuality:     QualityLow,
		Confidence:        qualityConfidence[QualityLow],
		RecommendedAction: ActionHold,
		Multiplier:        Multiplier(NeutralAlign),
	}
}

// Aggregate analyses every supplied timeframe and combines them. Missing
// roles are skipped; timeframes that fail are dropped with a warning.
func Aggregate(inputs map[Role]*models.PriceSeries) *Result {
	result := NeutralResult()

	for _, role := range AllRoles() {
		series, ok := inputs[role]
		if !ok || series == nil {
			continue
		}
		summary, err := AnalyzeTimeframe(series, role)
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s timeframe skipped: %v", role, err))
			continue
		}
		result.Timeframes = append(result.Timeframes, *summary)
	}

	calculateAlignment(result)
	return result
}

// calculateAlignment derives alignment, quality and action from the
// analysed timeframes.
func calculateAlignment(result *Result) {
	for _, tf := range result.Timeframes {
		switch tf.TrendDirection {
		case models.Bullish:
			result.BullishCount++
		case models.Bearish:
			result.BearishCount++
		default:
			result.NeutralCount++
		}
	}

	present := len(result.Timeframes)
	if present < MinAlignedTimeframes {
		return
	}

	switch {
	case result.BullishCount == present:
		result.Alignment = AlignedBullish
	case result.BearishCount == present:
		result.Alignment = AlignedBearish
	default:
		result.Alignment = Mixed
	}

	mixed := result.Alignment == Mixed
	switch {
	case present >= 3 && !mixed:
		result.SignalQuality = QualityHigh
	case present >= 2 && !mixed:
		result.SignalQuality = QualityMedium
	default:
		result.SignalQuality = QualityLow
	}
	result.Confidence = qualityConfidence[result.SignalQuality]
	result.Multiplier = Multiplier(result.Alignment)

	entry := EntryNone
	if exec := result.Timeframe(RoleExecution); exec != nil {
		entry = exec.EntrySignal
	}

	switch result.Alignment {
	case AlignedBullish:
		result.RecommendedAction = ActionHoldBullish
		if entry == EntryBuy {
			result.RecommendedAction = ActionBuy
		}
	case AlignedBearish:
		result.RecommendedAction = ActionHoldBearish
		if entry == EntrySell {
			result.RecommendedAction = ActionSell
		}
	default:
		result.RecommendedAction = ActionHold
	}
}

// Timeframe returns the summary for a role, or nil when it was not analysed.
func (r *Result) Timeframe(role Role) *TimeframeSummary {
	for i := range r.Timeframes {
		if r.Timeframes[i].Role == role {
			return &r.Timeframes[i]
		}
	}
	return nil
}

// IsAligned reports whether every analysed timeframe agrees.
func (r *Result) IsAligned() bool {
	return r.Alignment == AlignedBullish || r.Alignment == AlignedBearish
}

// FormatResult formats the MTF result for display.
func (r *Result) FormatResult() string {
	var sb strings.Builder

	sb.WriteString("Multi-Timeframe Analysis\n")
	sb.WriteString(strings.Repeat("─", 60) + "\n\n")

	sb.WriteString(fmt.Sprintf("%-14s %-10s %-10s %-8s %-12s %-6s\n",
		"Role", "Timeframe", "Trend", "Strength", "Momentum", "Entry"))
	sb.WriteString(strings.Repeat("-", 60) + "\n")

	for _, role := range AllRoles() {
		tf := r.Timeframe(role)
		if tf == nil {
			sb.WriteString(fmt.Sprintf("%-14s %-10s\n", role, "N/A"))
			continue
		}
		sb.WriteString(fmt.Sprintf("%-14s %-10s %-10s %-8.1f %-12s %-6s\n",
			role,
			tf.Timeframe,
			tf.TrendDirection,
			tf.TrendStrength,
			tf.MomentumSignal,
			tf.EntrySignal,
		))
	}

	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("  Alignment:   %s\n", r.Alignment))
	sb.WriteString(fmt.Sprintf("  Quality:     %s (%.0f%%)\n", r.SignalQuality, r.Confidence))
	sb.WriteString(fmt.Sprintf("  Action:      %s\n", r.RecommendedAction))
	sb.WriteString(fmt.Sprintf("  Multiplier:  %.2f\n", r.Multiplier))

	return sb.String()
}
