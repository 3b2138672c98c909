package marketdata

import (
	"context"
	"time"

	"github.com/Bam1010yod/TradingDashboard-sub000/cache"
	"github.com/Bam1010yod/TradingDashboard-sub000/database"
	"github.com/Bam1010yod/TradingDashboard-sub000/database/telemetry"
	"github.com/Bam1010yod/TradingDashboard-sub000/engine"
)

// Cached samples expire quickly so the stale-telemetry check still sees
// honest capture times.
const sampleCacheTTL = 30 * time.Second

// Provider serves the recommendation engine's market data lookups from
// the telemetry store, with a short Redis cache in front so repeated
// classifications inside one refresh window share a single
// trailing-average query.
type Provider struct {
	repo  *telemetry.Repository
	cache *cache.EngineCache
}

// NewProvider creates a new market data provider
func NewProvider(repo *telemetry.Repository, engineCache *cache.EngineCache) *Provider {
	return &Provider{
		repo:  repo,
		cache: engineCache,
	}
}

// GetLatest returns the freshest sample for an instrument. A nil sample
// with a nil error means no telemetry has arrived yet; the classifier
// falls back to session-only defaults in that case.
func (p *Provider) GetLatest(ctx context.Context, instrument string) (*engine.TelemetrySample, error) {
	if p.cache != nil {
		if sample, ok := p.cache.GetLatestTelemetry(ctx, instrument); ok {
			return sample, nil
		}
	}

	sample, err := p.repo.LatestSample(ctx, instrument)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	if p.cache != nil {
		_ = p.cache.SetLatestTelemetry(ctx, instrument, sample, sampleCacheTTL)
	}

	return sample, nil
}
