package news

import (
	"context"
	"time"

	"github.com/Bam1010yod/TradingDashboard-sub000/cache"
	newsrepo "github.com/Bam1010yod/TradingDashboard-sub000/database/news"
	"github.com/Bam1010yod/TradingDashboard-sub000/engine"
)

const recentCacheTTL = 5 * time.Minute

// Provider serves the recommendation engine's news lookups from stored
// articles, cached briefly so a burst of refreshes shares one query.
type Provider struct {
	repo  *newsrepo.Repository
	cache *cache.EngineCache
}

// NewProvider creates a new news provider
func NewProvider(repo *newsrepo.Repository, engineCache *cache.EngineCache) *Provider {
	return &Provider{
		repo:  repo,
		cache: engineCache,
	}
}

// GetRelevant returns the recent-window items. Relevance and instrument
// filtering happen in the scorer, which sees instrument mentions this
// lookup cannot.
func (p *Provider) GetRelevant(ctx context.Context, instrument string) ([]engine.NewsItem, error) {
	if p.cache != nil {
		if items, ok := p.cache.GetRecentNews(ctx); ok {
			return items, nil
		}
	}

	items, err := p.repo.RecentForEngine(ctx)
	if err != nil {
		return nil, err
	}

	if p.cache != nil {
		_ = p.cache.SetRecentNews(ctx, items, recentCacheTTL)
	}
	return items, nil
}
