package app

import (
	"context"
	"testing"
	"time"

	"github.com/Bam1010yod/TradingDashboard-sub000/engine"
)

func testCondition(trend engine.Trend) engine.MarketCondition {
	return engine.MarketCondition{
		Session:            engine.SessionUSOpen,
		VolatilityCategory: engine.VolatilityMedium,
		Trend:              trend,
		VolumeLevel:        engine.VolumeNormal,
	}
}

func TestDetectRegimeChangeTracksLastCondition(t *testing.T) {
	// Nil delivery deps are fine: detection only touches the tracked map
	// and every broadcast path is guarded.
	rr := NewRecommendationRefresher(nil, nil, nil, nil, nil, "MES", time.Minute, time.Second)
	ctx := context.Background()

	first := testCondition(engine.TrendNeutral)
	rr.detectRegimeChange(ctx, engine.KindBracket, first)

	got, ok := rr.lastCond[engine.KindBracket]
	if !ok {
		t.Fatal("first sighting did not seed the tracked condition")
	}
	if got.Trend != engine.TrendNeutral {
		t.Errorf("tracked trend = %s, want %s", got.Trend, engine.TrendNeutral)
	}

	// Same regime again keeps the entry and must not fire or panic.
	rr.detectRegimeChange(ctx, engine.KindBracket, first)

	// A trend flip replaces the tracked condition.
	rr.detectRegimeChange(ctx, engine.KindBracket, testCondition(engine.TrendBearish))
	if rr.lastCond[engine.KindBracket].Trend != engine.TrendBearish {
		t.Errorf("tracked trend after regime change = %s, want %s",
			rr.lastCond[engine.KindBracket].Trend, engine.TrendBearish)
	}
}

func TestDetectRegimeChangeTracksKindsIndependently(t *testing.T) {
	rr := NewRecommendationRefresher(nil, nil, nil, nil, nil, "MES", time.Minute, time.Second)
	ctx := context.Background()

	rr.detectRegimeChange(ctx, engine.KindBracket, testCondition(engine.TrendBullish))
	rr.detectRegimeChange(ctx, engine.KindFilter, testCondition(engine.TrendBearish))

	if rr.lastCond[engine.KindBracket].Trend != engine.TrendBullish {
		t.Errorf("bracket trend = %s, want %s", rr.lastCond[engine.KindBracket].Trend, engine.TrendBullish)
	}
	if rr.lastCond[engine.KindFilter].Trend != engine.TrendBearish {
		t.Errorf("filter trend = %s, want %s", rr.lastCond[engine.KindFilter].Trend, engine.TrendBearish)
	}
}
