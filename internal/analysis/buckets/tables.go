package buckets

// Indicator classification.
var (
	ADXStrength = New("adx_strength", "very_strong",
		Lt(15.0, "weak"),
		Lt(25.0, "moderate"),
		Le(40.0, "strong"),
	)
	ADXTrendWeight = New("adx_trend_weight", 0.0,
		Gt(40.0, 1.5),
		Ge(25.0, 1.0),
	)
	RSISignal = New("rsi_signal", "neutral",
		Lt(25.0, "oversold"),
		Gt(75.0, "overbought"),
	)
	StochasticSignal = New("stochastic_signal", "neutral",
		Lt(20.0, "oversold"),
		Gt(80.0, "overbought"),
	)
	ROCSignal = New("roc_signal", "neutral",
		Gt(10.0, "bullish"),
		Lt(-10.0, "bearish"),
	)
	ATRLevel = New("atr_level", "very_high",
		Lt(2.0, "low"),
		Lt(4.0, "moderate"),
		Lt(6.0, "high"),
	)
	VolumeLevel = New("volume_level", "normal",
		Gt(2.0, "very_high"),
		Gt(1.5, "high"),
		Lt(0.5, "low"),
	)
)

// Timeframe momentum buckets are narrower than the daily RSI signal.
var TimeframeMomentum = New("timeframe_momentum", "neutral",
	Lt(30.0, "oversold"),
	Lt(45.0, "bearish"),
	Gt(70.0, "overbought"),
	Gt(55.0, "bullish"),
)

var BetaProfile = New("beta_profile", "very_aggressive",
	Lt(0.5, "conservative"),
	Lt(1.0, "moderate"),
	Lt(1.5, "aggressive"),
)

// Composite scoring.
var (
	Signal = New("signal", "strong_sell",
		Ge(8.0, "strong_buy"),
		Ge(6.5, "buy"),
		Ge(4.5, "neutral"),
		Ge(3.0, "sell"),
	)
	SubscoreVote = New("subscore_vote", 0,
		Gt(6.0, 1),
		Lt(4.0, -1),
	)
	PriceActionVote = New("price_action_vote", 0,
		Ge(6.0, 1),
		Lt(4.0, -1),
	)
)

// Entry analysis.
var (
	RangeZone = New("range_zone", "neutral",
		Le(30.0, "discount"),
		Ge(70.0, "premium"),
	)
	RiskRewardRating = New("risk_reward_rating", "poor",
		Ge(3.0, "excellent"),
		Ge(2.0, "good"),
		Ge(1.5, "acceptable"),
	)
	SupportConfluence = New("support_confluence", 0.0,
		Le(2.0, 1.5),
		Le(5.0, 1.0),
	)
	VolumeConfluence = New("volume_confluence", 0.0,
		Gt(1.5, 1.0),
		Gt(1.0, 0.5),
	)
	ConfluenceQuality = New("confluence_quality", 0.0,
		Ge(5.0, 25.0),
		Ge(4.0, 20.0),
		Ge(3.0, 10.0),
		Lt(2.0, -15.0),
	)
	RiskRewardQuality = New("risk_reward_quality", -15.0,
		Ge(3.0, 25.0),
		Ge(2.0, 20.0),
		Ge(1.5, 10.0),
	)
	EntryQuality = New("entry_quality", "poor",
		Ge(80.0, "excellent"),
		Ge(60.0, "good"),
		Ge(40.0, "acceptable"),
	)
)

// Risk layers. Distances and ratios are percentages of price unless noted.
var (
	SupportProximity = New("support_proximity", 0.0,
		Le(2.0, 40.0),
		Le(5.0, 30.0),
		Le(8.0, 20.0),
		Le(12.0, 10.0),
	)
	ResistanceRoom = New("resistance_room", 0.0,
		Ge(12.0, 40.0),
		Ge(8.0, 30.0),
		Ge(5.0, 20.0),
		Ge(2.0, 10.0),
	)
	RSIOverextension = New("rsi_overextension", 0.0,
		Ge(80.0, 100.0),
		Ge(70.0, 60.0),
	)
	BollingerOverextension = New("bollinger_overextension", 0.0,
		Gt(1.0, 60.0),
		Ge(0.8, 30.0),
	)
	EMADistanceOverextension = New("ema_distance_overextension", 0.0,
		Ge(15.0, 100.0),
		Ge(10.0, 50.0),
		Ge(5.0, 20.0),
	)
	ATRPenalty = New("atr_penalty", 0.0,
		Ge(6.0, 100.0),
		Ge(4.0, 60.0),
		Ge(2.0, 30.0),
	)
	StopDistancePenalty = New("stop_distance_penalty", 0.0,
		Ge(12.0, 100.0),
		Ge(8.0, 60.0),
		Ge(4.0, 30.0),
	)
	VolumeConfirmation = New("volume_confirmation", 0.0,
		Ge(2.0, 20.0),
		Ge(1.5, 15.0),
		Ge(1.0, 10.0),
		Ge(0.8, 5.0),
	)
	RiskLevel = New("risk_level", "high",
		Ge(80.0, "low"),
		Ge(60.0, "medium"),
		Ge(40.0, "elevated"),
	)
)
