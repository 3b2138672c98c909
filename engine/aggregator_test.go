package engine

import (
	"math"
	"testing"
	"time"
)

func TestAggregateEmptyRecords(t *testing.T) {
	current := MarketCondition{Session: SessionUSOpen, VolatilityCategory: VolatilityHigh}

	summary := Aggregate(current, nil)

	if summary.SampleSize != 0 {
		t.Errorf("expected sample size 0, got %d", summary.SampleSize)
	}
	if summary.Confidence != ConfidenceLow {
		t.Errorf("expected low confidence, got %s", summary.Confidence)
	}
	if summary.Factors != NeutralFactors() {
		t.Errorf("expected neutral factors, got %+v", summary.Factors)
	}
}

func TestAggregateSkipsZeroSimilarity(t *testing.T) {
	current := MarketCondition{Session: SessionUSOpen, VolatilityCategory: VolatilityHigh}

	// Opposite half of day and two volatility steps away scores zero.
	records := []BacktestRecord{
		backtestRecord(SessionAsia, VolatilityLow, 20, 12, 2.0, 1.2, time.Now()),
	}
	summary := Aggregate(current, records)

	if summary.SampleSize != 0 {
		t.Errorf("expected zero eligible records, got %d", summary.SampleSize)
	}
}

func TestAggregateSimilarityWeighting(t *testing.T) {
	current := MarketCondition{Session: SessionUSOpen, VolatilityCategory: VolatilityHigh}

	now := time.Now()
	records := []BacktestRecord{
		// Exact condition match, similarity 100.
		backtestRecord(SessionUSOpen, VolatilityHigh, 20, 12, 2.0, 1.2, now),
		// Same half of day, adjacent volatility, similarity 50.
		backtestRecord(SessionUSMidday, VolatilityMedium, 20, 12, 1.0, 1.2, now),
	}
	summary := Aggregate(current, records)

	if summary.SampleSize != 2 {
		t.Fatalf("expected 2 eligible records, got %d", summary.SampleSize)
	}
	// (100*2.0 + 50*1.0) / 150
	if !almostEqual(summary.ProfitFactor, 250.0/150.0) {
		t.Errorf("expected weighted profit factor %.4f, got %.4f", 250.0/150.0, summary.ProfitFactor)
	}
	// 20 trades at weight 1.0 plus 20 trades at weight 0.5.
	if !almostEqual(summary.EffectiveTrades, 30) {
		t.Errorf("expected 30 effective trades, got %.1f", summary.EffectiveTrades)
	}
}

func TestAggregateConfidenceTiers(t *testing.T) {
	current := MarketCondition{Session: SessionUSOpen, VolatilityCategory: VolatilityHigh}
	now := time.Now()

	exact := func(trades, wins, n int) []BacktestRecord {
		records := make([]BacktestRecord, 0, n)
		for i := 0; i < n; i++ {
			records = append(records, backtestRecord(SessionUSOpen, VolatilityHigh, trades, wins, 1.5, 1.0, now.Add(time.Duration(i)*time.Hour)))
		}
		return records
	}

	tests := []struct {
		name     string
		records  []BacktestRecord
		expected ConfidenceLevel
	}{
		{
			// 5 records x 10 trades at full similarity = 50 effective.
			name:     "deep sample is high",
			records:  exact(10, 5, 5),
			expected: ConfidenceHigh,
		},
		{
			// 20 effective trades but only one record.
			name:     "one large record stays low",
			records:  exact(20, 10, 1),
			expected: ConfidenceLow,
		},
		{
			// 3 records x 3 trades = 9 effective, clears the medium bar.
			name:     "modest sample is medium",
			records:  exact(3, 2, 3),
			expected: ConfidenceMedium,
		},
		{
			// 2 records x 10 trades: enough trades, too few records.
			name:     "two records cap at low",
			records:  exact(10, 5, 2),
			expected: ConfidenceLow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			summary := Aggregate(current, tt.records)
			if summary.Confidence != tt.expected {
				t.Errorf("expected %s confidence, got %s (effective %.1f, records %d)",
					tt.expected, summary.Confidence, summary.EffectiveTrades, summary.SampleSize)
			}
		})
	}
}

func TestAggregateDerivedFactors(t *testing.T) {
	current := MarketCondition{Session: SessionUSOpen, VolatilityCategory: VolatilityHigh}
	now := time.Now()

	tests := []struct {
		name             string
		pf, rr           float64
		wins, trades     int
		expectedStop     float64
		expectedTarget   float64
		expectedTrailing float64
	}{
		{
			// pfDelta 0.5, rrDelta 0.5, wrDelta 0.2
			name: "strong edge widens targets",
			pf:   2.25, rr: 1.5, wins: 12, trades: 20,
			expectedStop:     1.085, // 1 + 0.15*0.5 + 0.05*0.2
			expectedTarget:   1.175, // 1 + 0.25*0.5 + 0.10*0.5
			expectedTrailing: 1.075, // 1 + 0.10*0.5 + 0.05*0.5
		},
		{
			// pfDelta -0.5, rrDelta -0.5, wrDelta -0.4
			name: "poor results tighten everything",
			pf:   0.75, rr: 0.5, wins: 6, trades: 20,
			expectedStop:     0.905,
			expectedTarget:   0.825,
			expectedTrailing: 0.925,
		},
		{
			name: "baseline performance is neutral",
			pf:   1.5, rr: 1.0, wins: 10, trades: 20,
			expectedStop:     1.0,
			expectedTarget:   1.0,
			expectedTrailing: 1.0,
		},
		{
			// pfDelta 3.0 would push the target to 1.85 without the clamp.
			name: "extreme edge clamps at the hard bound",
			pf:   6.0, rr: 2.0, wins: 20, trades: 20,
			expectedStop:     MaxAdjustment,
			expectedTarget:   MaxAdjustment,
			expectedTrailing: 1.35, // 1 + 0.10*3.0 + 0.05*1.0
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := []BacktestRecord{
				backtestRecord(SessionUSOpen, VolatilityHigh, tt.trades, tt.wins, tt.pf, tt.rr, now),
			}
			summary := Aggregate(current, records)
			if !almostEqual(summary.Factors.StopLoss, tt.expectedStop) {
				t.Errorf("expected stop factor %.4f, got %.4f", tt.expectedStop, summary.Factors.StopLoss)
			}
			if !almostEqual(summary.Factors.Target, tt.expectedTarget) {
				t.Errorf("expected target factor %.4f, got %.4f", tt.expectedTarget, summary.Factors.Target)
			}
			if !almostEqual(summary.Factors.TrailingStop, tt.expectedTrailing) {
				t.Errorf("expected trailing factor %.4f, got %.4f", tt.expectedTrailing, summary.Factors.TrailingStop)
			}
		})
	}
}

func TestAnalyzeTrend(t *testing.T) {
	base := time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)
	series := func(pfs ...float64) []BacktestRecord {
		records := make([]BacktestRecord, 0, len(pfs))
		for i, pf := range pfs {
			records = append(records, backtestRecord(SessionUSOpen, VolatilityHigh, 10, 5, pf, 1.0, base.Add(time.Duration(i)*24*time.Hour)))
		}
		return records
	}

	tests := []struct {
		name     string
		records  []BacktestRecord
		expected PerformanceTrend
	}{
		{"no records", nil, TrendStable},
		{"single record has no direction", series(2.0), TrendStable},
		{"steady strong rise", series(1.0, 1.3, 1.6), TrendStrongImproving},
		{"mild rise", series(1.0, 1.1, 1.2), TrendImproving},
		{"mild decline", series(1.6, 1.5, 1.4), TrendDeclining},
		{"steep decline", series(2.0, 1.5, 1.0), TrendStrongDeclining},
		{"flat with noise", series(1.5, 1.4, 1.55), TrendStable},
		{"two records split into two periods", series(1.0, 1.3), TrendImproving},
		{"large swing without monotonic rise is mild", series(1.0, 0.9, 1.7), TrendImproving},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AnalyzeTrend(tt.records); got != tt.expected {
				t.Errorf("expected trend %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestAnalyzeTrendSortsByCreation(t *testing.T) {
	base := time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)

	// Delivered newest-first; chronological order is a clean rise.
	records := []BacktestRecord{
		backtestRecord(SessionUSOpen, VolatilityHigh, 10, 5, 1.6, 1.0, base.Add(48*time.Hour)),
		backtestRecord(SessionUSOpen, VolatilityHigh, 10, 5, 1.0, 1.0, base),
		backtestRecord(SessionUSOpen, VolatilityHigh, 10, 5, 1.3, 1.0, base.Add(24*time.Hour)),
	}

	if got := AnalyzeTrend(records); got != TrendStrongImproving {
		t.Errorf("expected STRONG_IMPROVING after sorting, got %s", got)
	}
}

func backtestRecord(session Session, vol VolatilityCategory, trades, wins int, pf, rr float64, created time.Time) BacktestRecord {
	return BacktestRecord{
		TimeOfDay:   TimeOfDayFor(session),
		SessionType: session,
		Conditions: ConditionSnapshot{
			Session:            session,
			VolatilityCategory: vol,
		},
		Performance: BacktestPerformance{
			Wins:         wins,
			Losses:       trades - wins,
			TotalTrades:  trades,
			ProfitFactor: pf,
			AverageRR:    rr,
		},
		CreatedAt: created,
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
