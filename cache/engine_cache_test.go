package cache

import (
	"testing"

	"github.com/Bam1010yod/TradingDashboard-sub000/engine"
)

func TestConditionHashStableForEqualConditions(t *testing.T) {
	a := engine.MarketCondition{
		Session:            engine.SessionUSOpen,
		VolatilityCategory: engine.VolatilityHigh,
		Trend:              engine.TrendBullish,
		VolumeLevel:        engine.VolumeHigh,
		VolatilityScore:    1.42,
	}
	b := a
	b.VolatilityScore = 1.38 // Raw score differences must not change the fingerprint

	if ConditionHash(a) != ConditionHash(b) {
		t.Errorf("equal regimes hashed differently: %s vs %s", ConditionHash(a), ConditionHash(b))
	}
}

func TestConditionHashChangesWithRegime(t *testing.T) {
	base := engine.MarketCondition{
		Session:            engine.SessionUSOpen,
		VolatilityCategory: engine.VolatilityMedium,
		Trend:              engine.TrendNeutral,
		VolumeLevel:        engine.VolumeNormal,
	}

	variants := []engine.MarketCondition{
		{Session: engine.SessionAsia, VolatilityCategory: engine.VolatilityMedium, Trend: engine.TrendNeutral, VolumeLevel: engine.VolumeNormal},
		{Session: engine.SessionUSOpen, VolatilityCategory: engine.VolatilityHigh, Trend: engine.TrendNeutral, VolumeLevel: engine.VolumeNormal},
		{Session: engine.SessionUSOpen, VolatilityCategory: engine.VolatilityMedium, Trend: engine.TrendBearish, VolumeLevel: engine.VolumeNormal},
		{Session: engine.SessionUSOpen, VolatilityCategory: engine.VolatilityMedium, Trend: engine.TrendNeutral, VolumeLevel: engine.VolumeLow},
	}

	baseHash := ConditionHash(base)
	for i, v := range variants {
		if ConditionHash(v) == baseHash {
			t.Errorf("variant %d hashed identically to base despite a regime difference", i)
		}
	}
}
