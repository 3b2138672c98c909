package engine

import (
	"testing"
	"time"
)

func TestSessionFor(t *testing.T) {
	loc := referenceLocation()

	tests := []struct {
		name     string
		hour     int
		minute   int
		expected Session
	}{
		{"Asia evening side", 18, 30, SessionAsia},
		{"Asia start boundary", 18, 0, SessionAsia},
		{"Asia past midnight", 1, 30, SessionAsia},
		{"Europe start boundary", 2, 0, SessionEurope},
		{"Europe mid", 5, 0, SessionEurope},
		{"US open boundary", 8, 30, SessionUSOpen},
		{"US open mid", 9, 45, SessionUSOpen},
		{"Midday boundary", 10, 30, SessionUSMidday},
		{"Midday mid", 12, 0, SessionUSMidday},
		{"Afternoon boundary", 14, 0, SessionUSAfternoon},
		{"Afternoon end", 15, 59, SessionUSAfternoon},
		{"Overnight boundary", 16, 0, SessionOvernight},
		{"Overnight end", 17, 59, SessionOvernight},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := time.Date(2026, time.August, 24, tt.hour, tt.minute, 0, 0, loc)
			if got := SessionFor(ts); got != tt.expected {
				t.Errorf("expected session %s at %02d:%02d, got %s", tt.expected, tt.hour, tt.minute, got)
			}
		})
	}
}

func TestSessionForConvertsZones(t *testing.T) {
	// 14:30 UTC in late August is 09:30 in Chicago (CDT), inside the US open.
	ts := time.Date(2026, time.August, 24, 14, 30, 0, 0, time.UTC)
	if got := SessionFor(ts); got != SessionUSOpen {
		t.Errorf("expected US_OPEN for 14:30 UTC, got %s", got)
	}
}

func TestClassifyVolatility(t *testing.T) {
	loc := referenceLocation()
	now := time.Date(2026, time.August, 24, 9, 0, 0, 0, loc) // Monday, US open

	tests := []struct {
		name           string
		sample         TelemetrySample
		expectedVol    VolatilityCategory
		expectedVolume VolumeLevel
	}{
		{
			name: "strong ATR and elevated volume vote HIGH",
			sample: TelemetrySample{
				ATR: 15, ATRAverage: 10, // ratio 1.5 -> +2
				Volume: 1300, VolumeAverage: 1000, // ratio 1.3 -> +1
				LastPrice: 23500,
			},
			expectedVol:    VolatilityHigh,
			expectedVolume: VolumeHigh,
		},
		{
			name: "compressed ATR and thin volume vote LOW",
			sample: TelemetrySample{
				ATR: 6, ATRAverage: 10, // ratio 0.6 -> -2
				Volume: 650, VolumeAverage: 1000, // ratio 0.65 -> -2
				LastPrice: 23500,
			},
			expectedVol:    VolatilityLow,
			expectedVolume: VolumeLow,
		},
		{
			name: "single mild vote stays MEDIUM",
			sample: TelemetrySample{
				ATR: 11.5, ATRAverage: 10, // ratio 1.15 -> +1
				Volume: 1000, VolumeAverage: 1000, // ratio 1.0 -> 0
				LastPrice: 23500,
			},
			expectedVol:    VolatilityMedium,
			expectedVolume: VolumeNormal,
		},
		{
			name: "opposing votes cancel to MEDIUM",
			sample: TelemetrySample{
				ATR: 16, ATRAverage: 10, // +2
				Volume: 600, VolumeAverage: 1000, // -2
				LastPrice: 23500,
			},
			expectedVol:    VolatilityMedium,
			expectedVolume: VolumeLow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cond := Classify(now, &tt.sample)
			if cond.VolatilityCategory != tt.expectedVol {
				t.Errorf("expected volatility %s, got %s", tt.expectedVol, cond.VolatilityCategory)
			}
			if cond.VolumeLevel != tt.expectedVolume {
				t.Errorf("expected volume level %s, got %s", tt.expectedVolume, cond.VolumeLevel)
			}
			if cond.Session != SessionUSOpen {
				t.Errorf("expected US_OPEN session, got %s", cond.Session)
			}
			if cond.DayOfWeek != time.Monday {
				t.Errorf("expected Monday, got %s", cond.DayOfWeek)
			}
		})
	}
}

func TestClassifyTrend(t *testing.T) {
	loc := referenceLocation()
	now := time.Date(2026, time.August, 24, 12, 0, 0, 0, loc)

	tests := []struct {
		name      string
		changePct float64
		expected  Trend
	}{
		{"strong bullish", 2.0, TrendStrongBullish},
		{"strong bullish boundary", 1.5, TrendStrongBullish},
		{"bullish", 0.5, TrendBullish},
		{"neutral up", 0.1, TrendNeutral},
		{"neutral down", -0.2, TrendNeutral},
		{"bearish", -0.5, TrendBearish},
		{"strong bearish", -2.0, TrendStrongBearish},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sample := TelemetrySample{
				ATR: 10, ATRAverage: 10,
				Volume: 1000, VolumeAverage: 1000,
				LastPrice:      23500,
				PriceChangePct: tt.changePct,
			}
			cond := Classify(now, &sample)
			if cond.Trend != tt.expected {
				t.Errorf("expected trend %s for %.1f%%, got %s", tt.expected, tt.changePct, cond.Trend)
			}
		})
	}
}

func TestClassifyNilSampleDegrades(t *testing.T) {
	loc := referenceLocation()
	now := time.Date(2026, time.August, 24, 9, 0, 0, 0, loc)

	cond := Classify(now, nil)

	if cond.VolatilityCategory != VolatilityMedium {
		t.Errorf("expected MEDIUM volatility fallback, got %s", cond.VolatilityCategory)
	}
	if cond.Trend != TrendNeutral {
		t.Errorf("expected neutral trend fallback, got %s", cond.Trend)
	}
	if cond.VolumeLevel != VolumeNormal {
		t.Errorf("expected NORMAL volume fallback, got %s", cond.VolumeLevel)
	}
	if !cond.Degraded() {
		t.Error("expected degraded condition for nil telemetry")
	}
	if !containsFlag(cond.DataFlags, FlagMissingTelemetry) {
		t.Errorf("expected %s flag, got %v", FlagMissingTelemetry, cond.DataFlags)
	}
	// A degraded classification is still a complete one.
	if cond.Session != SessionUSOpen {
		t.Errorf("expected session to be classified anyway, got %s", cond.Session)
	}
}

func TestClassifyPartialSampleFlags(t *testing.T) {
	loc := referenceLocation()
	now := time.Date(2026, time.August, 24, 9, 0, 0, 0, loc)

	// No trailing averages and no price data: classification proceeds on
	// whatever is left, flags record what was missing.
	sample := TelemetrySample{ATR: 12, Volume: 900}
	cond := Classify(now, &sample)

	if cond.VolatilityCategory != VolatilityMedium {
		t.Errorf("expected MEDIUM with no usable ratios, got %s", cond.VolatilityCategory)
	}
	if !containsFlag(cond.DataFlags, FlagNoATRAverage) {
		t.Errorf("expected %s flag, got %v", FlagNoATRAverage, cond.DataFlags)
	}
	if !containsFlag(cond.DataFlags, FlagNoVolumeAverage) {
		t.Errorf("expected %s flag, got %v", FlagNoVolumeAverage, cond.DataFlags)
	}
	if !containsFlag(cond.DataFlags, FlagNoPriceChangeData) {
		t.Errorf("expected %s flag, got %v", FlagNoPriceChangeData, cond.DataFlags)
	}
}

func TestClassifyVolatilityScore(t *testing.T) {
	loc := referenceLocation()
	now := time.Date(2026, time.August, 24, 9, 0, 0, 0, loc)

	sample := TelemetrySample{
		ATR: 15, ATRAverage: 10, // ratio 1.5
		Volume: 1300, VolumeAverage: 1000, // ratio 1.3
		LastPrice: 23500,
	}
	cond := Classify(now, &sample)

	if !almostEqual(cond.VolatilityScore, 1.4) {
		t.Errorf("expected volatility score 1.4, got %v", cond.VolatilityScore)
	}
}

func TestClassifyStaleTelemetryFlagged(t *testing.T) {
	loc := referenceLocation()
	now := time.Date(2026, time.August, 24, 9, 0, 0, 0, loc)

	sample := TelemetrySample{
		ATR: 15, ATRAverage: 10,
		Volume: 1300, VolumeAverage: 1000,
		LastPrice:  23500,
		CapturedAt: now.Add(-10 * time.Minute),
	}
	cond := Classify(now, &sample)

	if !containsFlag(cond.DataFlags, FlagStaleTelemetry) {
		t.Errorf("expected %s flag, got %v", FlagStaleTelemetry, cond.DataFlags)
	}
	// Stale data is still classified, not discarded.
	if cond.VolatilityCategory != VolatilityHigh {
		t.Errorf("expected HIGH volatility from stale sample, got %s", cond.VolatilityCategory)
	}

	fresh := sample
	fresh.CapturedAt = now.Add(-time.Minute)
	if cond := Classify(now, &fresh); containsFlag(cond.DataFlags, FlagStaleTelemetry) {
		t.Errorf("fresh sample should not be flagged stale, got %v", cond.DataFlags)
	}
}

func containsFlag(flags []string, flag string) bool {
	for _, f := range flags {
		if f == flag {
			return true
		}
	}
	return false
}
