package buckets

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookupFirstMatchWins(t *testing.T) {
	cases := []struct {
		value float64
		want  string
	}{
		{9.0, "strong_buy"},
		{8.0, "strong_buy"},
		{7.99, "buy"},
		{6.5, "buy"},
		{5.0, "neutral"},
		{4.5, "neutral"},
		{3.0, "sell"},
		{2.99, "strong_sell"},
		{0, "strong_sell"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Signal.Lookup(tc.value), "composite %v", tc.value)
	}
}

func TestLookupBoundaryOps(t *testing.T) {
	assert.Equal(t, "strong", ADXStrength.Lookup(40))
	assert.Equal(t, "very_strong", ADXStrength.Lookup(40.01))
	assert.Equal(t, "moderate", ADXStrength.Lookup(15))
	assert.Equal(t, "weak", ADXStrength.Lookup(14.99))

	assert.Equal(t, "neutral", RSISignal.Lookup(75))
	assert.Equal(t, "overbought", RSISignal.Lookup(75.1))
	assert.Equal(t, "oversold", RSISignal.Lookup(24.9))
}

func TestLookupNaNReturnsDefault(t *testing.T) {
	assert.Equal(t, "high", RiskLevel.Lookup(math.NaN()))
	assert.Equal(t, 0.0, SupportProximity.Lookup(math.NaN()))
}

func TestRiskTables(t *testing.T) {
	assert.Equal(t, 40.0, SupportProximity.Lookup(1.5))
	assert.Equal(t, 10.0, SupportProximity.Lookup(12))
	assert.Equal(t, 0.0, SupportProximity.Lookup(12.5))

	assert.Equal(t, 40.0, ResistanceRoom.Lookup(15))
	assert.Equal(t, 0.0, ResistanceRoom.Lookup(1))

	assert.Equal(t, 5.0, VolumeConfirmation.Lookup(0.8))
	assert.Equal(t, 0.0, VolumeConfirmation.Lookup(0.79))
	assert.Equal(t, "elevated", RiskLevel.Lookup(40))

	assert.Equal(t, 60.0, BollingerOverextension.Lookup(1.05))
	assert.Equal(t, 30.0, BollingerOverextension.Lookup(1.0))
	assert.Equal(t, 0.0, BollingerOverextension.Lookup(0.5))
}

func TestEntryTables(t *testing.T) {
	assert.Equal(t, "discount", RangeZone.Lookup(30))
	assert.Equal(t, "neutral", RangeZone.Lookup(33.33))
	assert.Equal(t, "premium", RangeZone.Lookup(70))

	assert.Equal(t, 0.0, ConfluenceQuality.Lookup(2.5))
	assert.Equal(t, -15.0, ConfluenceQuality.Lookup(1.5))
	assert.Equal(t, -15.0, RiskRewardQuality.Lookup(1.2))
}
