package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Recommendation metrics
	recommendationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trading_dashboard_recommendations_total",
			Help: "Total number of recommendations generated",
		},
		[]string{"kind", "confidence"},
	)

	recommendationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trading_dashboard_recommendation_duration_seconds",
			Help:    "Time spent generating one recommendation",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	fallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trading_dashboard_engine_fallback_total",
			Help: "Recommendations that fell back to the default template",
		},
		[]string{"kind"},
	)

	// Market data feed metrics
	feedFramesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trading_dashboard_feed_messages_total",
			Help: "Frames received from the market data feed",
		},
		[]string{"type"},
	)

	feedReconnectsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "trading_dashboard_feed_reconnects_total",
			Help: "Market data feed reconnection attempts",
		},
	)

	volatilityScore = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "trading_dashboard_volatility_score",
			Help: "Latest classified volatility score per instrument",
		},
		[]string{"instrument"},
	)

	// News pipeline metrics
	newsFetchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trading_dashboard_news_fetch_total",
			Help: "News fetch cycles by outcome",
		},
		[]string{"status"},
	)

	newsArticlesStored = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "trading_dashboard_news_articles_stored_total",
			Help: "News articles persisted after deduplication",
		},
	)
)

func init() {
	// Register metrics
	prometheus.MustRegister(recommendationsTotal)
	prometheus.MustRegister(recommendationDuration)
	prometheus.MustRegister(fallbacksTotal)
	prometheus.MustRegister(feedFramesTotal)
	prometheus.MustRegister(feedReconnectsTotal)
	prometheus.MustRegister(volatilityScore)
	prometheus.MustRegister(newsFetchTotal)
	prometheus.MustRegister(newsArticlesStored)
}

// MetricsHandler handles Prometheus metrics endpoint
type MetricsHandler struct{}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler() *MetricsHandler {
	return &MetricsHandler{}
}

// ServeHTTP serves the Prometheus metrics endpoint
func (m *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// RecordRecommendation records one generated recommendation
func RecordRecommendation(kind, confidence string, seconds float64, fallback bool) {
	recommendationsTotal.WithLabelValues(kind, confidence).Inc()
	recommendationDuration.WithLabelValues(kind).Observe(seconds)
	if fallback {
		fallbacksTotal.WithLabelValues(kind).Inc()
	}
}

// RecordFeedFrame counts a received feed frame by type
func RecordFeedFrame(frameType string) {
	feedFramesTotal.WithLabelValues(frameType).Inc()
}

// RecordFeedReconnect counts a feed reconnection attempt
func RecordFeedReconnect() {
	feedReconnectsTotal.Inc()
}

// UpdateVolatilityScore updates the classified volatility gauge
func UpdateVolatilityScore(instrument string, score float64) {
	volatilityScore.WithLabelValues(instrument).Set(score)
}

// RecordNewsFetch records one fetch cycle and how many articles it stored
func RecordNewsFetch(status string, stored int) {
	newsFetchTotal.WithLabelValues(status).Inc()
	if stored > 0 {
		newsArticlesStored.Add(float64(stored))
	}
}
