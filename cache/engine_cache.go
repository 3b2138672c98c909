package cache

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Bam1010yod/TradingDashboard-sub000/engine"
)

const eventsChannel = "dashboard:events"

// EngineCache provides caching for the hot engine inputs and outputs so a
// recommendation request normally never waits on Postgres.
type EngineCache struct {
	redis *RedisClient
}

// NewEngineCache creates a new engine cache instance
func NewEngineCache(redis *RedisClient) *EngineCache {
	return &EngineCache{
		redis: redis,
	}
}

// GetLatestTelemetry retrieves the cached telemetry reading for an instrument.
// Returns the sample and true if found, nil and false otherwise
func (c *EngineCache) GetLatestTelemetry(ctx context.Context, instrument string) (*engine.TelemetrySample, bool) {
	if c.redis == nil {
		return nil, false
	}

	cacheKey := fmt.Sprintf("telemetry:latest:%s", instrument)
	var sample engine.TelemetrySample

	if err := c.redis.Get(ctx, cacheKey, &sample); err != nil {
		return nil, false
	}

	return &sample, true
}

// SetLatestTelemetry caches the latest telemetry reading for an instrument
func (c *EngineCache) SetLatestTelemetry(ctx context.Context, instrument string, sample *engine.TelemetrySample, ttl time.Duration) error {
	if c.redis == nil {
		return fmt.Errorf("redis client not available")
	}

	cacheKey := fmt.Sprintf("telemetry:latest:%s", instrument)
	return c.redis.Set(ctx, cacheKey, sample, ttl)
}

// GetLatestRecommendation retrieves the cached recommendation for a kind
func (c *EngineCache) GetLatestRecommendation(ctx context.Context, kind engine.TemplateKind) (*engine.Recommendation, bool) {
	if c.redis == nil {
		return nil, false
	}

	cacheKey := fmt.Sprintf("recommendation:latest:%s", kind)
	var rec engine.Recommendation

	if err := c.redis.Get(ctx, cacheKey, &rec); err != nil {
		return nil, false
	}

	return &rec, true
}

// SetLatestRecommendation caches the most recently issued recommendation
func (c *EngineCache) SetLatestRecommendation(ctx context.Context, kind engine.TemplateKind, rec *engine.Recommendation, ttl time.Duration) error {
	if c.redis == nil {
		return fmt.Errorf("redis client not available")
	}

	cacheKey := fmt.Sprintf("recommendation:latest:%s", kind)
	return c.redis.Set(ctx, cacheKey, rec, ttl)
}

// GetRecentNews retrieves the cached recent news items
func (c *EngineCache) GetRecentNews(ctx context.Context) ([]engine.NewsItem, bool) {
	if c.redis == nil {
		return nil, false
	}

	var items []engine.NewsItem
	if err := c.redis.Get(ctx, "news:recent", &items); err != nil {
		return nil, false
	}

	return items, true
}

// SetRecentNews caches the recent news items served to the engine
func (c *EngineCache) SetRecentNews(ctx context.Context, items []engine.NewsItem, ttl time.Duration) error {
	if c.redis == nil {
		return fmt.Errorf("redis client not available")
	}

	return c.redis.Set(ctx, "news:recent", items, ttl)
}

// ClearRecentNews drops the cached news items so the next engine run reads
// freshly stored articles instead of waiting out the TTL
func (c *EngineCache) ClearRecentNews(ctx context.Context) error {
	if c.redis == nil {
		return fmt.Errorf("redis client not available")
	}

	return c.redis.Delete(ctx, "news:recent")
}

// SetRefreshCooldown sets a cooldown after a manual refresh to prevent
// hammering the full recommendation pipeline
func (c *EngineCache) SetRefreshCooldown(ctx context.Context, kind engine.TemplateKind, ttl time.Duration) error {
	if c.redis == nil {
		return fmt.Errorf("redis client not available")
	}

	cooldownKey := fmt.Sprintf("refresh:cooldown:%s", kind)
	return c.redis.Set(ctx, cooldownKey, time.Now().Unix(), ttl)
}

// IsInRefreshCooldown checks if a kind is in its refresh cooldown period
func (c *EngineCache) IsInRefreshCooldown(ctx context.Context, kind engine.TemplateKind) bool {
	if c.redis == nil {
		return false
	}

	cooldownKey := fmt.Sprintf("refresh:cooldown:%s", kind)
	return c.redis.Exists(ctx, cooldownKey)
}

// PublishEvent pushes an event onto the shared platform channel so sibling
// processes (the trading add-on bridge) can react without polling the API.
// No-op when caching is disabled.
func (c *EngineCache) PublishEvent(ctx context.Context, event string, payload interface{}) error {
	if c.redis == nil {
		return nil
	}

	return c.redis.Publish(ctx, eventsChannel, map[string]interface{}{
		"event":   event,
		"payload": payload,
		"at":      time.Now().UTC(),
	})
}

// ConditionHash fingerprints a market condition so the refresher can tell
// whether conditions actually changed since the last broadcast
func ConditionHash(cond engine.MarketCondition) string {
	fingerprint := struct {
		Session    engine.Session            `json:"session"`
		Volatility engine.VolatilityCategory `json:"volatility"`
		Trend      engine.Trend              `json:"trend"`
		Volume     engine.VolumeLevel        `json:"volume"`
	}{cond.Session, cond.VolatilityCategory, cond.Trend, cond.VolumeLevel}

	jsonData, _ := json.Marshal(fingerprint)
	hash := md5.Sum(jsonData)
	return fmt.Sprintf("%x", hash[:8]) // First 8 bytes are plenty for change detection
}
