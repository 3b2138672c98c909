package engine

import (
	"fmt"
	"math"
)

// BlendWeights is one row of the confidence-adaptive weighting table. The
// backtest weight and the two baseline weights must sum to 1.0.
type BlendWeights struct {
	Backtest   float64 `json:"backtest"`
	Volatility float64 `json:"volatility"`
	Session    float64 `json:"session"`
}

// ConfidenceWeights are the factor weights used when combining component
// confidences into the overall label. Backtest evidence dominates.
type ConfidenceWeights struct {
	Parameter float64 `json:"parameter"`
	News      float64 `json:"news"`
	Backtest  float64 `json:"backtest"`
}

// Config carries every tunable table the engine consults. There is exactly
// one copy of each table; services share it and never mutate it after
// construction.
type Config struct {
	// BlendWeights keyed by backtest confidence tier.
	BlendWeights map[ConfidenceLevel]BlendWeights `json:"blend_weights"`

	// Baseline multipliers derived purely from classified conditions.
	VolatilityBaselines map[VolatilityCategory]AdjustmentFactors `json:"volatility_baselines"`
	SessionBaselines    map[Session]AdjustmentFactors            `json:"session_baselines"`

	ConfidenceWeights ConfidenceWeights `json:"confidence_weights"`

	// MinCombinedScore is the bar a candidate must clear on the
	// 0.7*similarity + 0.3*performance combined scale; below it the
	// orchestrator keeps the first available candidate instead.
	MinCombinedScore float64 `json:"min_combined_score"`

	// ReliabilitySamples is the effective sample size at which backtest
	// evidence counts at full weight in the performance score.
	ReliabilitySamples float64 `json:"reliability_samples"`
}

// DefaultConfig returns the canonical table set. Values are the tuned
// production defaults; operators override individual knobs through the
// service configuration, not by editing code.
func DefaultConfig() Config {
	return Config{
		BlendWeights: map[ConfidenceLevel]BlendWeights{
			ConfidenceHigh:   {Backtest: 0.70, Volatility: 0.15, Session: 0.15},
			ConfidenceMedium: {Backtest: 0.50, Volatility: 0.30, Session: 0.20},
			ConfidenceLow:    {Backtest: 0.30, Volatility: 0.40, Session: 0.30},
		},
		VolatilityBaselines: map[VolatilityCategory]AdjustmentFactors{
			VolatilityHigh:   {StopLoss: 1.30, Target: 1.25, TrailingStop: 1.20},
			VolatilityMedium: {StopLoss: 1.00, Target: 1.00, TrailingStop: 1.00},
			VolatilityLow:    {StopLoss: 0.85, Target: 0.90, TrailingStop: 0.90},
		},
		SessionBaselines: map[Session]AdjustmentFactors{
			SessionUSOpen:      {StopLoss: 1.15, Target: 1.10, TrailingStop: 1.10},
			SessionUSMidday:    {StopLoss: 0.90, Target: 0.90, TrailingStop: 0.95},
			SessionUSAfternoon: {StopLoss: 1.05, Target: 1.05, TrailingStop: 1.00},
			SessionEurope:      {StopLoss: 1.00, Target: 1.00, TrailingStop: 1.00},
			SessionAsia:        {StopLoss: 0.90, Target: 0.90, TrailingStop: 0.95},
			SessionOvernight:   {StopLoss: 0.85, Target: 0.85, TrailingStop: 0.90},
		},
		ConfidenceWeights: ConfidenceWeights{
			Parameter: 0.25,
			News:      0.15,
			Backtest:  0.60,
		},
		MinCombinedScore:   40,
		ReliabilitySamples: 20,
	}
}

// Validate checks the structural invariants of the tables. A failure here is
// a deployment defect, not a runtime condition to recover from.
func (c Config) Validate() error {
	for _, tier := range []ConfidenceLevel{ConfidenceLow, ConfidenceMedium, ConfidenceHigh} {
		w, ok := c.BlendWeights[tier]
		if !ok {
			return fmt.Errorf("blend weights missing tier %s", tier)
		}
		sum := w.Backtest + w.Volatility + w.Session
		if math.Abs(sum-1.0) > 1e-9 {
			return fmt.Errorf("blend weights for tier %s sum to %.4f, want 1.0", tier, sum)
		}
		if w.Backtest < 0 || w.Volatility < 0 || w.Session < 0 {
			return fmt.Errorf("blend weights for tier %s contain a negative weight", tier)
		}
	}
	for _, vol := range []VolatilityCategory{VolatilityLow, VolatilityMedium, VolatilityHigh} {
		if _, ok := c.VolatilityBaselines[vol]; !ok {
			return fmt.Errorf("volatility baselines missing category %s", vol)
		}
	}
	for _, s := range []Session{SessionAsia, SessionEurope, SessionUSOpen, SessionUSMidday, SessionUSAfternoon, SessionOvernight} {
		if _, ok := c.SessionBaselines[s]; !ok {
			return fmt.Errorf("session baselines missing session %s", s)
		}
	}
	cw := c.ConfidenceWeights
	if sum := cw.Parameter + cw.News + cw.Backtest; math.Abs(sum-1.0) > 1e-9 {
		return fmt.Errorf("confidence weights sum to %.4f, want 1.0", sum)
	}
	if c.MinCombinedScore < 0 || c.MinCombinedScore > 100 {
		return fmt.Errorf("min_combined_score %.1f outside [0,100]", c.MinCombinedScore)
	}
	if c.ReliabilitySamples <= 0 {
		return fmt.Errorf("reliability_samples must be positive, got %.1f", c.ReliabilitySamples)
	}
	return nil
}
