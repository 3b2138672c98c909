package engine

import (
	"testing"
)

func TestBlendNoSampleFallsBackToBaselines(t *testing.T) {
	cfg := DefaultConfig()
	cond := MarketCondition{Session: SessionUSOpen, VolatilityCategory: VolatilityHigh, Trend: TrendNeutral}
	summary := PerformanceSummary{Confidence: ConfidenceLow, Factors: NeutralFactors()}

	factors := Blend(cfg, cond, summary, TrendStable, NewsImpact{Confidence: ConfidenceLow})

	// With no sample the backtest term is dropped and the volatility and
	// session baselines are renormalized over their own weights.
	expectedStop := (0.4*1.30 + 0.3*1.15) / 0.7
	expectedTarget := (0.4*1.25 + 0.3*1.10) / 0.7
	expectedTrailing := (0.4*1.20 + 0.3*1.10) / 0.7

	if !almostEqual(factors.StopLoss, expectedStop) {
		t.Errorf("expected stop %.6f, got %.6f", expectedStop, factors.StopLoss)
	}
	if !almostEqual(factors.Target, expectedTarget) {
		t.Errorf("expected target %.6f, got %.6f", expectedTarget, factors.Target)
	}
	if !almostEqual(factors.TrailingStop, expectedTrailing) {
		t.Errorf("expected trailing %.6f, got %.6f", expectedTrailing, factors.TrailingStop)
	}
}

func TestBlendConfidenceShiftsWeight(t *testing.T) {
	cfg := DefaultConfig()
	// Neutral baselines so the backtest term is the only pull.
	cond := MarketCondition{Session: SessionEurope, VolatilityCategory: VolatilityMedium, Trend: TrendNeutral}
	backtestFactors := AdjustmentFactors{StopLoss: 1.2, Target: 1.3, TrailingStop: 1.15}

	tests := []struct {
		name           string
		confidence     ConfidenceLevel
		sampleSize     int
		expectedStop   float64
		expectedTarget float64
	}{
		{"high trusts the sample", ConfidenceHigh, 6, 0.7*1.2 + 0.3, 0.7*1.3 + 0.3},
		{"medium splits the difference", ConfidenceMedium, 4, 0.5*1.2 + 0.5, 0.5*1.3 + 0.5},
		{"low leans on baselines", ConfidenceLow, 1, 0.3*1.2 + 0.7, 0.3*1.3 + 0.7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			summary := PerformanceSummary{
				SampleSize: tt.sampleSize,
				Confidence: tt.confidence,
				Factors:    backtestFactors,
			}
			factors := Blend(cfg, cond, summary, TrendStable, NewsImpact{Confidence: ConfidenceLow})
			if !almostEqual(factors.StopLoss, tt.expectedStop) {
				t.Errorf("expected stop %.4f, got %.4f", tt.expectedStop, factors.StopLoss)
			}
			if !almostEqual(factors.Target, tt.expectedTarget) {
				t.Errorf("expected target %.4f, got %.4f", tt.expectedTarget, factors.Target)
			}
		})
	}
}

func TestBlendPerformanceTrendScalesTarget(t *testing.T) {
	cfg := DefaultConfig()
	cond := MarketCondition{Session: SessionEurope, VolatilityCategory: VolatilityMedium, Trend: TrendNeutral}
	summary := PerformanceSummary{Confidence: ConfidenceLow, Factors: NeutralFactors()}

	tests := []struct {
		name           string
		trend          PerformanceTrend
		expectedTarget float64
	}{
		{"strong improvement extends targets", TrendStrongImproving, 1.10},
		{"improvement extends targets", TrendImproving, 1.05},
		{"stable leaves targets alone", TrendStable, 1.00},
		{"decline trims targets", TrendDeclining, 0.95},
		{"strong decline trims harder", TrendStrongDeclining, 0.90},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			factors := Blend(cfg, cond, summary, tt.trend, NewsImpact{Confidence: ConfidenceLow})
			if !almostEqual(factors.Target, tt.expectedTarget) {
				t.Errorf("expected target %.2f, got %.4f", tt.expectedTarget, factors.Target)
			}
			// Only the target rides the performance trend.
			if !almostEqual(factors.StopLoss, 1.0) {
				t.Errorf("expected stop untouched at 1.0, got %.4f", factors.StopLoss)
			}
		})
	}
}

func TestBlendStrongMarketTrendBias(t *testing.T) {
	cfg := DefaultConfig()
	summary := PerformanceSummary{Confidence: ConfidenceLow, Factors: NeutralFactors()}
	news := NewsImpact{Confidence: ConfidenceLow}

	tests := []struct {
		name           string
		trend          Trend
		expectedTarget float64
	}{
		{"strong bullish stretches targets", TrendStrongBullish, 1.05},
		{"strong bearish stretches targets", TrendStrongBearish, 1.05},
		{"mild bias does nothing", TrendBullish, 1.00},
		{"neutral does nothing", TrendNeutral, 1.00},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cond := MarketCondition{Session: SessionEurope, VolatilityCategory: VolatilityMedium, Trend: tt.trend}
			factors := Blend(cfg, cond, summary, TrendStable, news)
			if !almostEqual(factors.Target, tt.expectedTarget) {
				t.Errorf("expected target %.2f, got %.4f", tt.expectedTarget, factors.Target)
			}
		})
	}
}

func TestBlendNewsApplication(t *testing.T) {
	cfg := DefaultConfig()
	cond := MarketCondition{Session: SessionEurope, VolatilityCategory: VolatilityMedium, Trend: TrendNeutral}
	summary := PerformanceSummary{Confidence: ConfidenceLow, Factors: NeutralFactors()}

	tests := []struct {
		name           string
		news           NewsImpact
		expectedStop   float64
		expectedTarget float64
	}{
		{
			name: "uncertainty widens stops, sentiment widens targets",
			news: NewsImpact{
				Sentiment:        SentimentPositive,
				VolatilityImpact: 0.6,
				TrendImpact:      0.5,
				Confidence:       ConfidenceMedium,
			},
			expectedStop:   1.09, // 1 + 0.15*0.6
			expectedTarget: 1.05, // 1 + 0.10*0.5
		},
		{
			name: "negative trend impact widens targets by magnitude",
			news: NewsImpact{
				Sentiment:        SentimentNegative,
				VolatilityImpact: 0,
				TrendImpact:      -0.8,
				Confidence:       ConfidenceHigh,
			},
			expectedStop:   1.00,
			expectedTarget: 1.08,
		},
		{
			name: "neutral sentiment leaves targets alone",
			news: NewsImpact{
				Sentiment:        SentimentNeutral,
				VolatilityImpact: 0.4,
				TrendImpact:      0.1,
				Confidence:       ConfidenceMedium,
			},
			expectedStop:   1.06,
			expectedTarget: 1.00,
		},
		{
			name: "low confidence news is a non-signal",
			news: NewsImpact{
				Sentiment:        SentimentPositive,
				VolatilityImpact: 1.0,
				TrendImpact:      1.0,
				Confidence:       ConfidenceLow,
			},
			expectedStop:   1.00,
			expectedTarget: 1.00,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			factors := Blend(cfg, cond, summary, TrendStable, tt.news)
			if !almostEqual(factors.StopLoss, tt.expectedStop) {
				t.Errorf("expected stop %.4f, got %.4f", tt.expectedStop, factors.StopLoss)
			}
			if !almostEqual(factors.Target, tt.expectedTarget) {
				t.Errorf("expected target %.4f, got %.4f", tt.expectedTarget, factors.Target)
			}
		})
	}
}

func TestBlendClampsStackedMultipliers(t *testing.T) {
	cfg := DefaultConfig()
	cond := MarketCondition{Session: SessionUSOpen, VolatilityCategory: VolatilityHigh, Trend: TrendStrongBullish}
	summary := PerformanceSummary{
		SampleSize: 10,
		Confidence: ConfidenceHigh,
		Factors:    AdjustmentFactors{StopLoss: 1.5, Target: 1.5, TrailingStop: 1.5},
	}
	news := NewsImpact{
		Sentiment:        SentimentPositive,
		VolatilityImpact: 1.0,
		TrendImpact:      1.0,
		Confidence:       ConfidenceHigh,
	}

	factors := Blend(cfg, cond, summary, TrendStrongImproving, news)

	if factors.StopLoss > MaxAdjustment || !almostEqual(factors.StopLoss, MaxAdjustment) {
		t.Errorf("expected stop clamped to %.1f, got %.4f", MaxAdjustment, factors.StopLoss)
	}
	if factors.Target > MaxAdjustment || !almostEqual(factors.Target, MaxAdjustment) {
		t.Errorf("expected target clamped to %.1f, got %.4f", MaxAdjustment, factors.Target)
	}
	// 0.7*1.5 + 0.3*(1.20+1.10)/2, with nothing else touching trailing.
	if !almostEqual(factors.TrailingStop, 1.395) {
		t.Errorf("expected trailing 1.395, got %.4f", factors.TrailingStop)
	}
}
