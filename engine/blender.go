package engine

// News scaling caps: stops widen by up to 15% with volatility impact,
// targets by up to 10% with trend impact magnitude. News never tightens a
// parameter; the heuristic models added uncertainty, not safety.
const (
	newsStopScale   = 0.15
	newsTargetScale = 0.10
)

// Target scalars for the historical performance trend.
var performanceTrendScalar = map[PerformanceTrend]float64{
	TrendStrongImproving: 1.10,
	TrendImproving:       1.05,
	TrendStable:          1.00,
	TrendDeclining:       0.95,
	TrendStrongDeclining: 0.90,
}

// Strong directional conviction stretches targets slightly.
const strongTrendTargetBias = 1.05

// conditionBaselines looks up the volatility-derived and session-derived
// multiplier sets for a condition. Missing table entries fall back to
// neutral so a partial config degrades instead of skewing.
func conditionBaselines(cfg Config, cond MarketCondition) (vol, session AdjustmentFactors) {
	vol, ok := cfg.VolatilityBaselines[cond.VolatilityCategory]
	if !ok {
		vol = NeutralFactors()
	}
	session, ok = cfg.SessionBaselines[cond.Session]
	if !ok {
		session = NeutralFactors()
	}
	return vol, session
}

// Blend combines backtest-derived multipliers with the condition baselines,
// the performance trend, the directional bias, and the news signal into the
// final factor set. The weighting is confidence-adaptive: thin historical
// samples shift trust toward the condition baselines. With no historical
// sample at all the backtest term is dropped and the baselines carry full
// weight. Every output field is clamped to the hard bounds as a
// post-condition.
func Blend(cfg Config, cond MarketCondition, backtest PerformanceSummary, perfTrend PerformanceTrend, news NewsImpact) AdjustmentFactors {
	weights, ok := cfg.BlendWeights[backtest.Confidence]
	if !ok {
		weights = cfg.BlendWeights[ConfidenceLow]
	}

	volBase, sesBase := conditionBaselines(cfg, cond)

	baseline := NeutralFactors()
	if secondary := weights.Volatility + weights.Session; secondary > 0 {
		baseline = AdjustmentFactors{
			StopLoss:     (weights.Volatility*volBase.StopLoss + weights.Session*sesBase.StopLoss) / secondary,
			Target:       (weights.Volatility*volBase.Target + weights.Session*sesBase.Target) / secondary,
			TrailingStop: (weights.Volatility*volBase.TrailingStop + weights.Session*sesBase.TrailingStop) / secondary,
		}
	}

	btWeight := weights.Backtest
	if backtest.SampleSize == 0 {
		btWeight = 0
	}

	out := AdjustmentFactors{
		StopLoss:     btWeight*backtest.Factors.StopLoss + (1-btWeight)*baseline.StopLoss,
		Target:       btWeight*backtest.Factors.Target + (1-btWeight)*baseline.Target,
		TrailingStop: btWeight*backtest.Factors.TrailingStop + (1-btWeight)*baseline.TrailingStop,
	}

	if s, ok := performanceTrendScalar[perfTrend]; ok {
		out.Target *= s
	}

	if cond.Trend == TrendStrongBullish || cond.Trend == TrendStrongBearish {
		out.Target *= strongTrendTargetBias
	}

	// News applies last and with lowest priority. Low confidence is a
	// non-signal: the numeric fields are ignored entirely.
	if news.Confidence != ConfidenceLow {
		if news.VolatilityImpact > 0 {
			out.StopLoss *= 1 + newsStopScale*news.VolatilityImpact
		}
		if news.Sentiment != SentimentNeutral {
			mag := news.TrendImpact
			if mag < 0 {
				mag = -mag
			}
			out.Target *= 1 + newsTargetScale*mag
		}
	}

	return out.Clamped()
}
