// Package scoring combines the indicator subscores into a composite score,
// a discrete signal and a confidence.
package scoring

import (
	"fmt"

	"stock-risk-engine/internal/analysis"
	"stock-risk-engine/internal/analysis/buckets"
	"stock-risk-engine/internal/analysis/indicators"
	"stock-risk-engine/internal/analysis/patterns"
	"stock-risk-engine/internal/models"
)

// Weights defines the weight of each subscore in the composite.
type Weights struct {
	Trend       float64
	Momentum    float64
	Volatility  float64
	Volume      float64
	PriceAction float64
}

// DefaultWeights returns the default subscore weights.
func DefaultWeights() Weights {
	return Weights{
		Trend:       0.25,
		Momentum:    0.30,
		Volatility:  0.10,
		Volume:      0.15,
		PriceAction: 0.20,
	}
}

// Confidence parameters.
const (
	BaseConfidence       = 50.0
	AgreementScale       = 45.0
	LevelProximityPct    = 3.0
	LevelConfirmBonus    = 5.0
	LevelConflictPenalty = 10.0
	NeutralComposite     = 5.0
)

// Votes are the four directional votes behind the confidence. Each is
// +1, 0 or -1.
type Votes struct {
	Trend       int `json:"trend"`
	Momentum    int `json:"momentum"`
	Volume      int `json:"volume"`
	PriceAction int `json:"price_action"`
}

func (v Votes) slice() []int {
	return []int{v.Trend, v.Momentum, v.Volume, v.PriceAction}
}

// CompositeScore is the weighted combination of the subscores.
type CompositeScore struct {
	Trend       float64 `json:"trend_score"`
	Momentum    float64 `json:"momentum_score"`
	Volatility  float64 `json:"volatility_score"`
	Volume      float64 `json:"volume_score"`
	PriceAction float64 `json:"price_action_score"`

	Composite  float64         `json:"composite_score"`
	Signal     analysis.Signal `json:"signal"`
	Confidence float64         `json:"confidence"`

	Votes     Votes    `json:"votes"`
	Majority  int      `json:"majority"`
	Agreement float64  `json:"agreement"`
	Notes     []string `json:"notes,omitempty"`
}

// NeutralScore is the composite reported when no analysis could run.
func NeutralScore() *CompositeScore {
	return &CompositeScore{
		Trend:       NeutralComposite,
		Momentum:    NeutralComposite,
		Volatility:  NeutralComposite,
		Volume:      NeutralComposite,
		PriceAction: NeutralComposite,
		Composite:   NeutralComposite,
		Signal:      analysis.Neutral,
	}
}

// Scorer combines subscores using a fixed set of weights.
type Scorer struct {
	weights Weights
}

// NewScorer creates a scorer with the default weights.
func NewScorer() *Scorer {
	return &Scorer{weights: DefaultWeights()}
}

// NewScorerWithWeights creates a scorer with custom weights.
func NewScorerWithWeights(weights Weights) *Scorer {
	return &Scorer{weights: weights}
}

// Score runs the default scorer.
func Score(ind *indicators.IndicatorSet, levels patterns.SupportResistance, priceAction float64) *CompositeScore {
	return NewScorer().Score(ind, levels, priceAction)
}

// Score combines the indicator subscores with the price-action score
// (0-10) into a composite, a signal and a confidence.
func (s *Scorer) Score(ind *indicators.IndicatorSet, levels patterns.SupportResistance, priceAction float64) *CompositeScore {
	cs := &CompositeScore{
		Trend:       ind.Trend.StrengthScore,
		Momentum:    ind.Momentum.Analysis.Score,
		Volatility:  ind.Volatility.Score,
		Volume:      ind.Volume.Score,
		PriceAction: clamp(priceAction, 0, 10),
	}

	cs.Composite = clamp(
		cs.Trend*s.weights.Trend+
			cs.Momentum*s.weights.Momentum+
			cs.Volatility*s.weights.Volatility+
			cs.Volume*s.weights.Volume+
			cs.PriceAction*s.weights.PriceAction,
		0, 10)
	cs.Signal = SignalFor(cs.Composite)

	cs.Votes = Votes{
		Trend:       ind.Trend.Direction.Vote(),
		Momentum:    buckets.SubscoreVote.Lookup(cs.Momentum),
		Volume:      obvVote(ind.Volume.OBVTrend),
		PriceAction: buckets.PriceActionVote.Lookup(cs.PriceAction),
	}
	cs.Majority, cs.Agreement = agreement(cs.Votes)

	confidence := BaseConfidence + AgreementScale*cs.Agreement
	confidence += s.levelNudge(cs, levels)
	cs.Confidence = clamp(confidence, 0, 100)

	return cs
}

// SignalFor maps a composite score onto the discrete signal.
func SignalFor(composite float64) analysis.Signal {
	return analysis.Signal(buckets.Signal.Lookup(composite))
}

func obvVote(trend string) int {
	switch trend {
	case indicators.OBVRising:
		return models.Bullish.Vote()
	case indicators.OBVFalling:
		return models.Bearish.Vote()
	default:
		return 0
	}
}

// agreement returns the majority direction (0 on a tie) and the fraction of
// votes equal to it.
func agreement(v Votes) (int, float64) {
	votes := v.slice()
	counts := map[int]int{}
	for _, vote := range votes {
		counts[vote]++
	}

	majority := 0
	switch {
	case counts[1] > counts[-1]:
		majority = 1
	case counts[-1] > counts[1]:
		majority = -1
	}

	return majority, float64(counts[majority]) / float64(len(votes))
}

// levelNudge rewards signals that sit on a confirming level and penalises
// signals pressed against an opposing one.
func (s *Scorer) levelNudge(cs *CompositeScore, levels patterns.SupportResistance) float64 {
	near := func(dist *float64) bool {
		return dist != nil && *dist <= LevelProximityPct
	}
	nearSupport := near(levels.SupportDistancePct)
	nearResistance := near(levels.ResistanceDistancePct)

	var nudge float64
	switch {
	case cs.Signal.IsBuySide():
		if nearSupport {
			nudge += LevelConfirmBonus
			cs.Notes = append(cs.Notes, fmt.Sprintf("%s signal confirmed by support %.2f%% below", cs.Signal, *levels.SupportDistancePct))
		}
		if nearResistance {
			nudge -= LevelConflictPenalty
			cs.Notes = append(cs.Notes, fmt.Sprintf("%s signal pressed against resistance %.2f%% above", cs.Signal, *levels.ResistanceDistancePct))
		}
	case cs.Signal.IsSellSide():
		if nearResistance {
			nudge += LevelConfirmBonus
			cs.Notes = append(cs.Notes, fmt.Sprintf("%s signal confirmed by resistance %.2f%% above", cs.Signal, *levels.ResistanceDistancePct))
		}
		if nearSupport {
			nudge -= LevelConflictPenalty
			cs.Notes = append(cs.Notes, fmt.Sprintf("%s signal sitting on support %.2f%% below", cs.Signal, *levels.SupportDistancePct))
		}
	}
	return nudge
}

// clamp restricts a value to the given range.
func clamp(value, minVal, maxVal float64) float64 {
	if value < minVal {
		return minVal
	}
	if value > maxVal {
		return maxVal
	}
	return value
}
