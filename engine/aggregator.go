package engine

import (
	"sort"
)

// Baselines the multiplier derivation measures deviation from. A profit
// factor of 1.5 with 1:1 reward:risk and a 50% win rate maps to neutral
// multipliers.
const (
	baselineProfitFactor = 1.5
	baselineAverageRR    = 1.0
	baselineWinRate      = 50.0
)

// Sensitivity of each derived multiplier to the performance deltas.
const (
	targetPFSlope   = 0.25
	targetRRSlope   = 0.10
	stopPFSlope     = 0.15
	stopWRSlope     = 0.05
	trailingPFSlope = 0.10
	trailingRRSlope = 0.05
)

// Confidence tier cutoffs. Effective trades are similarity-weighted, so 40
// trades at 50% similarity count the same as 20 at 100%.
const (
	highEffectiveTrades   = 20.0
	highMinRecords        = 5
	mediumEffectiveTrades = 8.0
	mediumMinRecords      = 3
)

// Aggregate computes the similarity-weighted performance summary over the
// records eligible against the current condition. Eligibility is deliberately
// permissive (any positive similarity); the weighting does the
// discriminating, so near-identical historical conditions dominate the
// estimate. The empty case returns a neutral summary with multipliers of 1.0
// and low confidence, never an error.
func Aggregate(current MarketCondition, records []BacktestRecord) PerformanceSummary {
	summary := PerformanceSummary{
		Confidence: ConfidenceLow,
		Factors:    NeutralFactors(),
	}

	var (
		weightSum float64
		wrSum     float64
		pfSum     float64
		rrSum     float64
		effective float64
		eligible  int
	)

	for _, rec := range records {
		sim := Score(current, rec.Conditions.Inferred())
		if sim <= 0 {
			continue
		}
		w := float64(sim)
		weightSum += w
		wrSum += w * rec.Performance.WinRate()
		pfSum += w * rec.Performance.ProfitFactor
		rrSum += w * rec.Performance.AverageRR
		effective += w / 100 * float64(rec.Performance.TotalTrades)
		eligible++
	}

	if eligible == 0 || weightSum <= 0 {
		return summary
	}

	summary.WinRate = wrSum / weightSum
	summary.ProfitFactor = pfSum / weightSum
	summary.AverageRR = rrSum / weightSum
	summary.SampleSize = eligible
	summary.EffectiveTrades = effective

	switch {
	case effective >= highEffectiveTrades && eligible >= highMinRecords:
		summary.Confidence = ConfidenceHigh
	case effective >= mediumEffectiveTrades && eligible >= mediumMinRecords:
		summary.Confidence = ConfidenceMedium
	}

	summary.Factors = deriveFactors(summary.WinRate, summary.ProfitFactor, summary.AverageRR)
	return summary
}

// deriveFactors maps aggregate performance onto adjustment multipliers. A
// proven edge widens targets and gives stops room; poor outcomes tighten
// both. Each multiplier is monotone in profit factor and lands in the hard
// [MinAdjustment, MaxAdjustment] bounds.
func deriveFactors(winRate, profitFactor, averageRR float64) AdjustmentFactors {
	pfDelta := (profitFactor - baselineProfitFactor) / baselineProfitFactor
	rrDelta := averageRR - baselineAverageRR
	wrDelta := (winRate - baselineWinRate) / baselineWinRate

	return AdjustmentFactors{
		StopLoss:     1.0 + stopPFSlope*pfDelta + stopWRSlope*wrDelta,
		Target:       1.0 + targetPFSlope*pfDelta + targetRRSlope*rrDelta,
		TrailingStop: 1.0 + trailingPFSlope*pfDelta + trailingRRSlope*rrDelta,
	}.Clamped()
}

// Trend analysis buckets and thresholds.
const (
	trendPeriods     = 3
	trendStrongDelta = 0.5
	trendMildDelta   = 0.15
)

// AnalyzeTrend splits the records into up to three time-ordered periods and
// labels the direction of profit factor across them. Fewer than two records
// is always stable: one data point has no direction.
func AnalyzeTrend(records []BacktestRecord) PerformanceTrend {
	if len(records) < 2 {
		return TrendStable
	}

	sorted := make([]BacktestRecord, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	periods := trendPeriods
	if len(sorted) < periods {
		periods = len(sorted)
	}

	pfs := make([]float64, 0, periods)
	for p := 0; p < periods; p++ {
		start := p * len(sorted) / periods
		end := (p + 1) * len(sorted) / periods
		if start == end {
			continue
		}
		sum := 0.0
		for _, r := range sorted[start:end] {
			sum += r.Performance.ProfitFactor
		}
		pfs = append(pfs, sum/float64(end-start))
	}
	if len(pfs) < 2 {
		return TrendStable
	}

	total := pfs[len(pfs)-1] - pfs[0]
	strictlyRising := true
	strictlyFalling := true
	for i := 1; i < len(pfs); i++ {
		if pfs[i] <= pfs[i-1] {
			strictlyRising = false
		}
		if pfs[i] >= pfs[i-1] {
			strictlyFalling = false
		}
	}

	switch {
	case strictlyRising && total >= trendStrongDelta:
		return TrendStrongImproving
	case total >= trendMildDelta:
		return TrendImproving
	case strictlyFalling && total <= -trendStrongDelta:
		return TrendStrongDeclining
	case total <= -trendMildDelta:
		return TrendDeclining
	}
	return TrendStable
}
