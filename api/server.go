package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/Bam1010yod/TradingDashboard-sub000/cache"
	"github.com/Bam1010yod/TradingDashboard-sub000/database"
	"github.com/Bam1010yod/TradingDashboard-sub000/database/backtests"
	newsrepo "github.com/Bam1010yod/TradingDashboard-sub000/database/news"
	"github.com/Bam1010yod/TradingDashboard-sub000/database/recommendations"
	"github.com/Bam1010yod/TradingDashboard-sub000/database/templates"
	"github.com/Bam1010yod/TradingDashboard-sub000/database/webhooks"
	"github.com/Bam1010yod/TradingDashboard-sub000/engine"
	"github.com/Bam1010yod/TradingDashboard-sub000/marketdata"
	"github.com/Bam1010yod/TradingDashboard-sub000/monitoring"
	"github.com/Bam1010yod/TradingDashboard-sub000/notifications"
	"github.com/Bam1010yod/TradingDashboard-sub000/realtime"
)

// Server handles HTTP API requests
type Server struct {
	eng         *engine.Engine
	templates   *templates.Repository
	backtests   *backtests.Repository
	news        *newsrepo.Repository
	recs        *recommendations.Repository
	webhookRepo *webhooks.Repository
	reporting   *database.ReportingRepository
	engineCache *cache.EngineCache
	marketData  *marketdata.Provider
	webhookMq   *notifications.WebhookManager
	broker      *realtime.Broker
	instrument  string
	refresher   RefresherInterface // Use case for on-demand recommendation runs
}

// RefresherInterface defines the interface for triggering a full
// recommendation run that persists, caches, and broadcasts its result.
type RefresherInterface interface {
	RefreshNow(ctx context.Context, kind engine.TemplateKind, reason string) (*engine.Recommendation, error)
}

// Deps bundles everything the API server serves from.
type Deps struct {
	Engine     *engine.Engine
	Templates  *templates.Repository
	Backtests  *backtests.Repository
	News       *newsrepo.Repository
	Recs       *recommendations.Repository
	Webhooks   *webhooks.Repository
	Reporting  *database.ReportingRepository
	Cache      *cache.EngineCache
	MarketData *marketdata.Provider
	WebhookMq  *notifications.WebhookManager
	Broker     *realtime.Broker
	Instrument string
}

// NewServer creates a new API server instance
func NewServer(deps Deps) *Server {
	return &Server{
		eng:         deps.Engine,
		templates:   deps.Templates,
		backtests:   deps.Backtests,
		news:        deps.News,
		recs:        deps.Recs,
		webhookRepo: deps.Webhooks,
		reporting:   deps.Reporting,
		engineCache: deps.Cache,
		marketData:  deps.MarketData,
		webhookMq:   deps.WebhookMq,
		broker:      deps.Broker,
		instrument:  deps.Instrument,
	}
}

// SetRefresher sets the recommendation refresher use case
func (s *Server) SetRefresher(refresher RefresherInterface) {
	s.refresher = refresher
}

// Start starts the HTTP server on the specified port
func (s *Server) Start(port int) error {
	mux := http.NewServeMux()

	// Register routes
	mux.Handle("GET /api/events", s.broker) // SSE Endpoint

	// Recommendation Routes
	mux.HandleFunc("GET /api/recommendations/history", s.handleGetRecommendationHistory)
	mux.HandleFunc("GET /api/recommendations/{kind}", s.handleGetRecommendation)
	mux.HandleFunc("POST /api/recommendations/refresh", s.handleRefreshRecommendations)
	mux.HandleFunc("POST /api/recommendations/{id}/apply", s.handleApplyRecommendation)

	// Template Routes
	mux.HandleFunc("GET /api/templates", s.handleGetTemplates)
	mux.HandleFunc("POST /api/templates", s.handleCreateTemplate)
	mux.HandleFunc("GET /api/templates/export", s.handleExportTemplates)
	mux.HandleFunc("POST /api/templates/import", s.handleImportTemplates)
	mux.HandleFunc("GET /api/templates/{id}", s.handleGetTemplate)
	mux.HandleFunc("PUT /api/templates/{id}", s.handleUpdateTemplate)
	mux.HandleFunc("DELETE /api/templates/{id}", s.handleDeleteTemplate)

	// Backtest Routes
	mux.HandleFunc("GET /api/backtests", s.handleGetBacktests)
	mux.HandleFunc("POST /api/backtests", s.handleIngestBacktest)

	// News Routes
	mux.HandleFunc("GET /api/news", s.handleGetNews)
	mux.HandleFunc("GET /api/news/impact", s.handleGetNewsImpact)

	// Market Condition Route
	mux.HandleFunc("GET /api/market/condition", s.handleGetMarketCondition)

	// Dashboard Routes
	mux.HandleFunc("GET /api/dashboard/performance", s.handleGetSessionPerformance)
	mux.HandleFunc("GET /api/dashboard/activity", s.handleGetRecommendationActivity)
	mux.HandleFunc("GET /api/dashboard/leaderboard", s.handleGetTemplateLeaderboard)
	mux.HandleFunc("GET /api/dashboard/news", s.handleGetNewsBreakdown)

	// Engine Config Route
	mux.HandleFunc("GET /api/engine/config", s.handleGetEngineConfig)

	// Webhook Management Routes
	mux.HandleFunc("GET /api/config/webhooks", s.handleGetWebhooks)
	mux.HandleFunc("POST /api/config/webhooks", s.handleCreateWebhook)
	mux.HandleFunc("GET /api/config/webhooks/{id}", s.handleGetWebhook)
	mux.HandleFunc("PUT /api/config/webhooks/{id}", s.handleUpdateWebhook)
	mux.HandleFunc("DELETE /api/config/webhooks/{id}", s.handleDeleteWebhook)
	mux.HandleFunc("GET /api/config/webhooks/{id}/deliveries", s.handleGetWebhookDeliveries)

	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", monitoring.NewMetricsHandler())

	// Add middleware
	handler := s.corsMiddleware(s.loggingMiddleware(mux))

	serverAddr := fmt.Sprintf("0.0.0.0:%d", port)
	log.Printf("🚀 API Server starting on %s", serverAddr)
	return http.ListenAndServe(serverAddr, handler)
}

// Middleware
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %v", r.Method, r.URL.Path, time.Since(start))
	})
}

// Handlers are distributed across multiple files:
// - handlers_recommendations.go: Recommendation reads, refresh, apply
// - handlers_templates.go: Template CRUD, import/export
// - handlers_backtests.go: Backtest listing and ingest
// - handlers_news.go: News articles and live impact score
// - handlers_market.go: Market condition classification
// - handlers_dashboard.go: Reporting queries over the raw SQL pool
// - handlers_config.go: Engine config, webhooks, health check
