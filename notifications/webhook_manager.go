package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/Bam1010yod/TradingDashboard-sub000/cache"
	"github.com/Bam1010yod/TradingDashboard-sub000/database"
	models "github.com/Bam1010yod/TradingDashboard-sub000/database/models_pkg"
	"github.com/Bam1010yod/TradingDashboard-sub000/database/webhooks"
	"github.com/Bam1010yod/TradingDashboard-sub000/engine"
	"github.com/Bam1010yod/TradingDashboard-sub000/helpers"
)

// Webhook event types
const (
	EventRecommendation = "RECOMMENDATION"
	EventRegimeChange   = "REGIME_CHANGE"
)

const webhookCacheKey = "active_webhooks"

// WebhookManager fans platform events out to registered HTTP endpoints
type WebhookManager struct {
	repo   *webhooks.Repository
	redis  *cache.RedisClient
	client *http.Client
}

// WebhookPayload represents the JSON payload sent to webhooks
type WebhookPayload struct {
	EventType      string                  `json:"EventType"`
	TriggeredAt    time.Time               `json:"TriggeredAt"`
	Instrument     string                  `json:"Instrument"`
	Confidence     string                  `json:"Confidence,omitempty"`
	Message        string                  `json:"Message"`
	Recommendation *engine.Recommendation  `json:"Recommendation,omitempty"`
	Condition      *engine.MarketCondition `json:"Condition,omitempty"`
	Metadata       map[string]interface{}  `json:"Metadata,omitempty"`
}

// NewWebhookManager creates a new webhook manager
func NewWebhookManager(repo *webhooks.Repository, redis *cache.RedisClient) *WebhookManager {
	return &WebhookManager{
		repo:  repo,
		redis: redis,
		// Per-request timeouts come from each endpoint's configuration.
		client: &http.Client{},
	}
}

// NotifyRecommendation sends a freshly generated recommendation to
// matching endpoints
func (wm *WebhookManager) NotifyRecommendation(rec *engine.Recommendation, recordID int64, instrument string) {
	if rec == nil {
		return
	}

	hooks, err := wm.getActiveWebhooks()
	if err != nil {
		log.Printf("⚠️  Failed to load webhooks: %v", err)
		return
	}
	if len(hooks) == 0 {
		return
	}

	payload := wm.createRecommendationPayload(rec, instrument)
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		log.Printf("⚠️  Failed to marshal webhook payload: %v", err)
		return
	}

	for _, hook := range hooks {
		if shouldSend(hook, EventRecommendation, instrument, rec.Confidence.String()) {
			go wm.deliverWebhook(hook, &recordID, payloadBytes)
		}
	}
}

// NotifyRegimeChange announces a market condition change to matching
// endpoints
func (wm *WebhookManager) NotifyRegimeChange(previous, current engine.MarketCondition, instrument string) {
	hooks, err := wm.getActiveWebhooks()
	if err != nil {
		log.Printf("⚠️  Failed to load webhooks: %v", err)
		return
	}
	if len(hooks) == 0 {
		return
	}

	payload := WebhookPayload{
		EventType:   EventRegimeChange,
		TriggeredAt: time.Now().UTC(),
		Instrument:  instrument,
		Message: fmt.Sprintf("📊 Regime change on %s: %s to %s",
			instrument, helpers.DescribeCondition(previous), helpers.DescribeCondition(current)),
		Condition: &current,
		Metadata: map[string]interface{}{
			"previous_session":    previous.Session,
			"previous_volatility": previous.VolatilityCategory,
			"previous_trend":      previous.Trend,
		},
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		log.Printf("⚠️  Failed to marshal webhook payload: %v", err)
		return
	}

	for _, hook := range hooks {
		if shouldSend(hook, EventRegimeChange, instrument, "") {
			go wm.deliverWebhook(hook, nil, payloadBytes)
		}
	}
}

func (wm *WebhookManager) getActiveWebhooks() ([]models.WebhookEndpoint, error) {
	// Try cache first
	if wm.redis != nil {
		var cached []models.WebhookEndpoint
		if err := wm.redis.Get(context.Background(), webhookCacheKey, &cached); err == nil {
			return cached, nil
		}
	}

	// Fetch from DB
	hooks, err := wm.repo.GetActive(context.Background())
	if err != nil {
		return nil, err
	}

	// Update cache (expire 1 hour)
	if wm.redis != nil {
		_ = wm.redis.Set(context.Background(), webhookCacheKey, hooks, 1*time.Hour)
	}

	return hooks, nil
}

// createRecommendationPayload generates the webhook payload for a
// recommendation event
func (wm *WebhookManager) createRecommendationPayload(rec *engine.Recommendation, instrument string) WebhookPayload {
	message := fmt.Sprintf("🔔 %s recommendation for %s: %s | %s | Score: %.1f | Win rate: %s | Confidence: %s",
		rec.Template.Kind,
		instrument,
		rec.Template.Name,
		helpers.DescribeTemplate(rec.Template),
		rec.CombinedScore,
		helpers.FormatPercent(rec.Performance.WinRate),
		rec.Confidence,
	)
	if rec.Template.IsFallback {
		message += " | FALLBACK"
	}

	return WebhookPayload{
		EventType:      EventRecommendation,
		TriggeredAt:    rec.GeneratedAt,
		Instrument:     instrument,
		Confidence:     rec.Confidence.String(),
		Message:        message,
		Recommendation: rec,
		Metadata: map[string]interface{}{
			"similarity_score": rec.SimilarityScore,
			"sample_size":      rec.Performance.SampleSize,
			"is_fallback":      rec.Template.IsFallback,
		},
	}
}

// shouldSend applies an endpoint's event, instrument, and confidence
// filters. Empty filters match everything.
func shouldSend(hook models.WebhookEndpoint, eventType, instrument, confidence string) bool {
	// Event type filter (lenient: matches JSON or CSV lists)
	if hook.EventTypes != "" && hook.EventTypes != "null" {
		if !strings.Contains(hook.EventTypes, eventType) {
			return false
		}
	}

	// Instrument filter
	if hook.Instruments != "" && hook.Instruments != "null" {
		if !strings.Contains(hook.Instruments, instrument) {
			return false
		}
	}

	// Confidence floor applies only to events that carry a confidence
	if hook.MinConfidence != nil && confidence != "" {
		floor, err := engine.ParseConfidence(*hook.MinConfidence)
		if err == nil {
			level, err := engine.ParseConfidence(confidence)
			if err == nil && level < floor {
				return false
			}
		}
	}

	return true
}

func (wm *WebhookManager) deliverWebhook(hook models.WebhookEndpoint, recommendationID *int64, payload []byte) {
	maxRetries := hook.RetryCount
	if maxRetries <= 0 {
		maxRetries = database.WebhookDefaultRetries
	}
	retryDelay := time.Duration(hook.RetryDelaySeconds) * time.Second
	if retryDelay <= 0 {
		retryDelay = 5 * time.Second
	}
	timeout := time.Duration(hook.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = time.Duration(database.WebhookDefaultTimeoutSec) * time.Second
	}
	method := hook.Method
	if method == "" {
		method = http.MethodPost
	}

	var lastStatusCode int
	var lastErr string

	for attempt := 1; attempt <= maxRetries; attempt++ {
		log.Printf("🔹 Sending webhook to %s (Attempt %d/%d)", hook.URL, attempt, maxRetries)

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		req, err := http.NewRequestWithContext(ctx, method, hook.URL, bytes.NewBuffer(payload))
		if err != nil {
			cancel()
			lastErr = err.Error()
			break
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", "trading-dashboard/1.0")

		// Auth headers
		if hook.AuthType == "BEARER" {
			req.Header.Set("Authorization", "Bearer "+hook.AuthValue)
		} else if hook.AuthHeader != "" {
			req.Header.Set(hook.AuthHeader, hook.AuthValue)
		}

		resp, err := wm.client.Do(req)
		cancel()

		if err == nil && resp.StatusCode >= 200 && resp.StatusCode < 300 {
			statusCode := resp.StatusCode
			resp.Body.Close()
			wm.logDelivery(hook.ID, recommendationID, "SUCCESS", statusCode, "", attempt)
			wm.recordResult(hook.ID, true, "")
			return
		}

		if err != nil {
			lastErr = err.Error()
			lastStatusCode = 0
		} else {
			lastStatusCode = resp.StatusCode
			lastErr = ""
			resp.Body.Close()
		}

		// Wait before retry
		if attempt < maxRetries {
			time.Sleep(retryDelay)
		}
	}

	if lastErr == "" && lastStatusCode != 0 {
		lastErr = fmt.Sprintf("HTTP %d", lastStatusCode)
	}
	wm.logDelivery(hook.ID, recommendationID, "FAILED", lastStatusCode, lastErr, maxRetries)
	wm.recordResult(hook.ID, false, lastErr)
}

func (wm *WebhookManager) logDelivery(webhookID int, recommendationID *int64, status string, code int, errMsg string, attempt int) {
	entry := &models.WebhookDeliveryLog{
		WebhookID:        webhookID,
		RecommendationID: recommendationID,
		TriggeredAt:      time.Now(),
		Status:           status,
		RetryAttempt:     attempt,
	}

	if code != 0 {
		entry.HTTPStatusCode = &code
	}
	if errMsg != "" {
		entry.ErrorMessage = errMsg
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if dbErr := wm.repo.SaveDeliveryLog(ctx, entry); dbErr != nil {
		log.Printf("⚠️  Failed to save webhook log: %v", dbErr)
	}
}

func (wm *WebhookManager) recordResult(webhookID int, success bool, errMsg string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := wm.repo.RecordDeliveryResult(ctx, webhookID, success, errMsg); err != nil {
		log.Printf("⚠️  Failed to update webhook counters: %v", err)
	}
}

// RefreshCache reloads webhook configurations
func (wm *WebhookManager) RefreshCache() {
	if wm.redis != nil {
		_ = wm.redis.Delete(context.Background(), webhookCacheKey)
		log.Println("🔄 Webhook cache invalidated")
	}
}
