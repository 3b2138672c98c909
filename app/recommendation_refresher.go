package app

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/Bam1010yod/TradingDashboard-sub000/cache"
	"github.com/Bam1010yod/TradingDashboard-sub000/database/recommendations"
	"github.com/Bam1010yod/TradingDashboard-sub000/engine"
	"github.com/Bam1010yod/TradingDashboard-sub000/helpers"
	"github.com/Bam1010yod/TradingDashboard-sub000/monitoring"
	"github.com/Bam1010yod/TradingDashboard-sub000/notifications"
	"github.com/Bam1010yod/TradingDashboard-sub000/realtime"
)

const refreshRunTimeout = 30 * time.Second

// RecommendationRefresher periodically reruns the engine for each template
// kind and fans the result out to every delivery surface: history table,
// cache, SSE stream, webhooks, and metrics. Scheduled ticks skip a kind
// whose refresh cooldown is still active so an operator-forced run is not
// immediately duplicated.
type RecommendationRefresher struct {
	eng         *engine.Engine
	recs        *recommendations.Repository
	engineCache *cache.EngineCache
	broker      *realtime.Broker
	webhookMq   *notifications.WebhookManager
	instrument  string
	interval    time.Duration
	cooldown    time.Duration

	mu       sync.Mutex
	lastCond map[engine.TemplateKind]engine.MarketCondition
	done     chan bool
}

// NewRecommendationRefresher creates a new recommendation refresher
func NewRecommendationRefresher(
	eng *engine.Engine,
	recs *recommendations.Repository,
	engineCache *cache.EngineCache,
	broker *realtime.Broker,
	webhookMq *notifications.WebhookManager,
	instrument string,
	interval, cooldown time.Duration,
) *RecommendationRefresher {
	return &RecommendationRefresher{
		eng:         eng,
		recs:        recs,
		engineCache: engineCache,
		broker:      broker,
		webhookMq:   webhookMq,
		instrument:  instrument,
		interval:    interval,
		cooldown:    cooldown,
		lastCond:    make(map[engine.TemplateKind]engine.MarketCondition),
		done:        make(chan bool),
	}
}

// Start begins the refresh loop
func (rr *RecommendationRefresher) Start() {
	log.Printf("🔄 Recommendation refresher started (every %v)", rr.interval)

	ticker := time.NewTicker(rr.interval)
	defer ticker.Stop()

	// Initial run so the cache is warm before the first tick
	rr.refreshAll("startup")

	for {
		select {
		case <-ticker.C:
			rr.refreshAll("scheduled")
		case <-rr.done:
			log.Println("🔄 Recommendation refresher stopped")
			return
		}
	}
}

// Stop stops the refresh loop
func (rr *RecommendationRefresher) Stop() {
	rr.done <- true
}

func (rr *RecommendationRefresher) refreshAll(reason string) {
	for _, kind := range []engine.TemplateKind{engine.KindBracket, engine.KindFilter} {
		ctx, cancel := context.WithTimeout(context.Background(), refreshRunTimeout)

		if reason != "startup" && rr.engineCache != nil && rr.engineCache.IsInRefreshCooldown(ctx, kind) {
			cancel()
			continue
		}

		if _, err := rr.RefreshNow(ctx, kind, reason); err != nil {
			log.Printf("⚠️  %s refresh failed: %v", kind, err)
		}
		cancel()
	}
}

// RefreshNow runs the full pipeline for one kind and distributes the
// result. This is also the API server's on-demand entry point.
func (rr *RecommendationRefresher) RefreshNow(ctx context.Context, kind engine.TemplateKind, reason string) (*engine.Recommendation, error) {
	started := time.Now()

	rec, err := rr.eng.Recommend(ctx, engine.Request{Kind: kind, Instrument: rr.instrument})
	if err != nil {
		return nil, err
	}

	monitoring.RecordRecommendation(string(kind), rec.Confidence.String(), time.Since(started).Seconds(), rec.Template.IsFallback)
	monitoring.UpdateVolatilityScore(rr.instrument, rec.Condition.VolatilityScore)

	// Persist first so the webhook payload can reference the stored row.
	var recordID int64
	if rr.recs != nil {
		if record, err := rr.recs.Save(ctx, *rec, rr.instrument); err != nil {
			log.Printf("⚠️  Failed to persist %s recommendation: %v", kind, err)
		} else {
			recordID = record.ID
		}
	}

	if rr.engineCache != nil {
		if err := rr.engineCache.SetLatestRecommendation(ctx, kind, rec, rr.interval); err != nil {
			log.Printf("⚠️  Failed to cache %s recommendation: %v", kind, err)
		}
		if err := rr.engineCache.SetRefreshCooldown(ctx, kind, rr.cooldown); err != nil {
			log.Printf("⚠️  Failed to set %s refresh cooldown: %v", kind, err)
		}
	}

	if rr.broker != nil {
		rr.broker.Broadcast(realtime.EventRecommendation, rec)
	}
	if rr.webhookMq != nil {
		rr.webhookMq.NotifyRecommendation(rec, recordID, rr.instrument)
	}
	if rr.engineCache != nil {
		if err := rr.engineCache.PublishEvent(ctx, realtime.EventRecommendation, rec); err != nil {
			log.Printf("⚠️  Failed to publish recommendation event: %v", err)
		}
	}

	rr.detectRegimeChange(ctx, kind, rec.Condition)

	log.Printf("📈 %s recommendation ready: %s (score %.1f, confidence %s, reason %s)",
		kind, rec.Template.Name, rec.CombinedScore, rec.Confidence, reason)
	return rec, nil
}

// detectRegimeChange compares the classified condition against the last
// one seen for this kind and alerts when the regime moved. The fingerprint
// covers session, volatility, trend, and volume, not the raw scores.
func (rr *RecommendationRefresher) detectRegimeChange(ctx context.Context, kind engine.TemplateKind, current engine.MarketCondition) {
	rr.mu.Lock()
	previous, seen := rr.lastCond[kind]
	rr.lastCond[kind] = current
	rr.mu.Unlock()

	if !seen || cache.ConditionHash(previous) == cache.ConditionHash(current) {
		return
	}

	log.Printf("📊 Regime change detected: %s -> %s",
		helpers.DescribeCondition(previous), helpers.DescribeCondition(current))

	change := map[string]interface{}{
		"instrument": rr.instrument,
		"previous":   previous,
		"current":    current,
	}

	if rr.broker != nil {
		rr.broker.Broadcast(realtime.EventRegimeChange, change)
	}
	if rr.webhookMq != nil {
		rr.webhookMq.NotifyRegimeChange(previous, current, rr.instrument)
	}
	if rr.engineCache != nil {
		if err := rr.engineCache.PublishEvent(ctx, realtime.EventRegimeChange, change); err != nil {
			log.Printf("⚠️  Failed to publish regime change event: %v", err)
		}
	}
}
