package app

import (
	"context"
	"log"
	"time"

	"github.com/Bam1010yod/TradingDashboard-sub000/cache"
	newsrepo "github.com/Bam1010yod/TradingDashboard-sub000/database/news"
	"github.com/Bam1010yod/TradingDashboard-sub000/monitoring"
	"github.com/Bam1010yod/TradingDashboard-sub000/news"
	"github.com/Bam1010yod/TradingDashboard-sub000/realtime"
)

const newsPollTimeout = 2 * time.Minute

// NewsPoller periodically pulls the configured feeds, stores new articles,
// and invalidates the cached news the engine reads. Old articles are
// pruned on the same cadence so the table stays bounded.
type NewsPoller struct {
	fetcher     *news.Fetcher
	repo        *newsrepo.Repository
	engineCache *cache.EngineCache
	broker      *realtime.Broker
	interval    time.Duration
	retention   time.Duration
	done        chan bool
}

// NewNewsPoller creates a new news poller
func NewNewsPoller(
	fetcher *news.Fetcher,
	repo *newsrepo.Repository,
	engineCache *cache.EngineCache,
	broker *realtime.Broker,
	interval, retention time.Duration,
) *NewsPoller {
	return &NewsPoller{
		fetcher:     fetcher,
		repo:        repo,
		engineCache: engineCache,
		broker:      broker,
		interval:    interval,
		retention:   retention,
		done:        make(chan bool),
	}
}

// Start begins the polling loop
func (np *NewsPoller) Start() {
	log.Printf("🔄 News poller started (every %v)", np.interval)

	ticker := time.NewTicker(np.interval)
	defer ticker.Stop()

	// Initial run
	np.poll()

	for {
		select {
		case <-ticker.C:
			np.poll()
		case <-np.done:
			log.Println("🔄 News poller stopped")
			return
		}
	}
}

// Stop stops the polling loop
func (np *NewsPoller) Stop() {
	np.done <- true
}

func (np *NewsPoller) poll() {
	ctx, cancel := context.WithTimeout(context.Background(), newsPollTimeout)
	defer cancel()

	articles, err := np.fetcher.FetchAll(ctx)
	if err != nil {
		monitoring.RecordNewsFetch("error", 0)
		log.Printf("⚠️  News fetch failed: %v", err)
		return
	}

	stored, err := np.repo.SaveBatch(ctx, articles)
	if err != nil {
		monitoring.RecordNewsFetch("error", 0)
		log.Printf("⚠️  Failed to store news articles: %v", err)
		return
	}
	monitoring.RecordNewsFetch("ok", stored)

	if stored > 0 {
		log.Printf("📈 News poll stored %d of %d fetched articles", stored, len(articles))

		if np.engineCache != nil {
			if err := np.engineCache.ClearRecentNews(ctx); err != nil {
				log.Printf("⚠️  Failed to clear news cache: %v", err)
			}
		}
		if np.broker != nil {
			np.broker.Broadcast(realtime.EventNews, map[string]interface{}{
				"stored":  stored,
				"fetched": len(articles),
			})
		}
	}

	if pruned, err := np.repo.PruneOlderThan(ctx, np.retention); err != nil {
		log.Printf("⚠️  News prune failed: %v", err)
	} else if pruned > 0 {
		log.Printf("Pruned %d expired news articles", pruned)
	}
}
