package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/Bam1010yod/TradingDashboard-sub000/api"
	"github.com/Bam1010yod/TradingDashboard-sub000/cache"
	"github.com/Bam1010yod/TradingDashboard-sub000/config"
	"github.com/Bam1010yod/TradingDashboard-sub000/database"
	"github.com/Bam1010yod/TradingDashboard-sub000/database/backtests"
	newsrepo "github.com/Bam1010yod/TradingDashboard-sub000/database/news"
	"github.com/Bam1010yod/TradingDashboard-sub000/database/recommendations"
	"github.com/Bam1010yod/TradingDashboard-sub000/database/telemetry"
	"github.com/Bam1010yod/TradingDashboard-sub000/database/templates"
	"github.com/Bam1010yod/TradingDashboard-sub000/database/webhooks"
	"github.com/Bam1010yod/TradingDashboard-sub000/engine"
	"github.com/Bam1010yod/TradingDashboard-sub000/marketdata"
	"github.com/Bam1010yod/TradingDashboard-sub000/monitoring"
	"github.com/Bam1010yod/TradingDashboard-sub000/news"
	"github.com/Bam1010yod/TradingDashboard-sub000/notifications"
	"github.com/Bam1010yod/TradingDashboard-sub000/realtime"
)

// App represents the main application
type App struct {
	config         *config.Config
	feedManager    *marketdata.ConnectionManager
	dispatcher     *marketdata.Dispatcher
	db             *database.Database
	reportingDB    *database.DB
	redis          *cache.RedisClient
	engineCache    *cache.EngineCache
	webhookManager *notifications.WebhookManager
	broker         *realtime.Broker
	eng            *engine.Engine
	refresher      *RecommendationRefresher
	newsPoller     *NewsPoller

	templateRepo *templates.Repository
	backtestRepo *backtests.Repository
	newsRepo     *newsrepo.Repository
	recRepo      *recommendations.Repository
	telemRepo    *telemetry.Repository
	webhookRepo  *webhooks.Repository
}

// New creates a new application instance
func New(cfg *config.Config) *App {
	return &App{
		config:      cfg,
		feedManager: marketdata.NewConnectionManager(cfg.Feed.URL, cfg.Feed.APIKey, cfg.Feed.Instruments),
		dispatcher:  marketdata.NewDispatcher(),
	}
}

// Start starts the application
func (a *App) Start() error {
	// Setup context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 1. Database Connections
	fmt.Println("🗄️  Connecting to database...")

	db, err := database.Connect(
		a.config.DatabaseHost,
		a.config.DatabasePort,
		a.config.DatabaseName,
		a.config.DatabaseUser,
		a.config.DatabasePassword,
	)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	a.db = db

	reportingDB, err := database.NewConnection(database.Config{
		Host:     a.config.DatabaseHost,
		Port:     strconv.Itoa(a.config.DatabasePort),
		User:     a.config.DatabaseUser,
		Password: a.config.DatabasePassword,
		DBName:   a.config.DatabaseName,
	})
	if err != nil {
		return fmt.Errorf("reporting database connection failed: %w", err)
	}
	a.reportingDB = reportingDB

	// 2. Redis Connection
	fmt.Println("🧠 Connecting to Redis...")
	redisClient := cache.NewRedisClient(
		a.config.RedisHost,
		a.config.RedisPort,
		a.config.RedisPassword,
	)

	if redisClient == nil {
		fmt.Println("⚠️  Redis connection failed. Caching disabled.")
	} else {
		a.redis = redisClient
	}
	a.engineCache = cache.NewEngineCache(a.redis)

	// 3. Initialize schema (AutoMigrate + TimescaleDB setup + seed templates)
	platformRepo := database.NewPlatformRepository(a.db)
	if err := platformRepo.InitSchema(); err != nil {
		return fmt.Errorf("schema initialization failed: %w", err)
	}

	// 4. Repositories
	gormDB := a.db.DB()
	a.templateRepo = templates.NewRepository(gormDB)
	a.backtestRepo = backtests.NewRepository(gormDB)
	a.newsRepo = newsrepo.NewRepository(gormDB)
	a.recRepo = recommendations.NewRepository(gormDB)
	a.telemRepo = telemetry.NewRepository(gormDB)
	a.webhookRepo = webhooks.NewRepository(gormDB)

	// Initialize Webhook Manager (with Redis)
	a.webhookManager = notifications.NewWebhookManager(a.webhookRepo, a.redis)

	// Initialize Realtime Broker
	a.broker = realtime.NewBroker()
	go a.broker.Run()

	// 5. Recommendation Engine
	marketProvider := marketdata.NewProvider(a.telemRepo, a.engineCache)
	newsProvider := news.NewProvider(a.newsRepo, a.engineCache)

	eng, err := engine.New(a.buildEngineConfig(), engine.Deps{
		MarketData: marketProvider,
		Templates:  a.templateRepo,
		Backtests:  a.backtestRepo,
		News:       newsProvider,
	})
	if err != nil {
		return fmt.Errorf("engine initialization failed: %w", err)
	}
	a.eng = eng
	log.Printf("✅ Recommendation engine ready (instrument %s)", a.config.Engine.Instrument)

	// 6. Connect Market Data Feed
	if err := a.feedManager.Connect(); err != nil {
		return fmt.Errorf("market data feed connection failed: %w", err)
	}
	a.feedManager.StartPing(time.Duration(a.config.Feed.PingIntervalSeconds) * time.Second)

	// 7. Setup frame handlers
	a.setupHandlers()

	// 8. Start Recommendation Refresher
	a.refresher = NewRecommendationRefresher(
		a.eng,
		a.recRepo,
		a.engineCache,
		a.broker,
		a.webhookManager,
		a.config.Engine.Instrument,
		time.Duration(a.config.Engine.RefreshIntervalMinutes)*time.Minute,
		time.Duration(a.config.Engine.RefreshCooldownSeconds)*time.Second,
	)
	go a.refresher.Start()

	// 9. Start News Poller
	if a.config.News.Enabled {
		fetcher := news.NewFetcher(a.loadNewsFeeds(), a.config.News.RequestsPerMinute)
		a.newsPoller = NewNewsPoller(
			fetcher,
			a.newsRepo,
			a.engineCache,
			a.broker,
			time.Duration(a.config.News.PollIntervalMinutes)*time.Minute,
			time.Duration(a.config.News.RetentionDays)*24*time.Hour,
		)
		go a.newsPoller.Start()
	} else {
		log.Println("ℹ️  News polling DISABLED")
	}

	// 10. Start API Server
	apiServer := api.NewServer(api.Deps{
		Engine:     a.eng,
		Templates:  a.templateRepo,
		Backtests:  a.backtestRepo,
		News:       a.newsRepo,
		Recs:       a.recRepo,
		Webhooks:   a.webhookRepo,
		Reporting:  database.NewReportingRepository(a.reportingDB),
		Cache:      a.engineCache,
		MarketData: marketProvider,
		WebhookMq:  a.webhookManager,
		Broker:     a.broker,
		Instrument: a.config.Engine.Instrument,
	})

	// Inject refresher into API server BEFORE starting the server
	apiServer.SetRefresher(a.refresher)

	go func() {
		if err := apiServer.Start(a.config.APIPort); err != nil {
			log.Printf("⚠️  API Server failed: %v", err)
		}
	}()

	// Setup WaitGroup for goroutines
	var wg sync.WaitGroup

	// 11. Start feed health monitoring
	wg.Add(1)
	go func() {
		defer wg.Done()
		a.feedManager.RunHealthMonitor(ctx)
	}()

	// 12. Start frame processing
	wg.Add(1)
	go func() {
		defer wg.Done()
		a.readAndProcessFrames(ctx)
	}()

	// 13. Wait for interrupt and perform graceful shutdown
	err = a.gracefulShutdown(cancel)
	wg.Wait()
	return err
}

// gracefulShutdown handles graceful shutdown with timeout
func (a *App) gracefulShutdown(cancel context.CancelFunc) error {
	// Setup signal handling
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	// Wait for interrupt signal
	<-interrupt
	fmt.Println("\n🛑 Shutdown signal received, initiating graceful shutdown...")

	// Cancel context to stop all goroutines
	cancel()

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	// Shutdown tasks with timeout
	shutdownComplete := make(chan struct{})
	go func() {
		if a.refresher != nil {
			fmt.Println("📊 Stopping recommendation refresher...")
			a.refresher.Stop()
		}
		if a.newsPoller != nil {
			fmt.Println("📊 Stopping news poller...")
			a.newsPoller.Stop()
		}

		// Close market data feed connection
		fmt.Println("📡 Closing market data feed connection...")
		if err := a.feedManager.Close(); err != nil {
			log.Printf("Error closing market data feed: %v", err)
		} else {
			fmt.Println("✅ Market data feed closed")
		}

		// Close database connections
		if a.db != nil {
			if err := a.db.Close(); err != nil {
				log.Printf("Error closing database: %v", err)
			} else {
				fmt.Println("✅ Database connection closed")
			}
		}
		if a.reportingDB != nil {
			if err := a.reportingDB.Close(); err != nil {
				log.Printf("Error closing reporting database: %v", err)
			}
		}

		// Close Redis connection
		if a.redis != nil {
			if err := a.redis.Close(); err != nil {
				log.Printf("Error closing redis: %v", err)
			} else {
				fmt.Println("✅ Redis connection closed")
			}
		}

		close(shutdownComplete)
	}()

	// Wait for shutdown to complete or timeout
	select {
	case <-shutdownComplete:
		fmt.Println("✅ Graceful shutdown completed")
		return nil
	case <-shutdownCtx.Done():
		fmt.Println("⚠️  Shutdown timeout exceeded, forcing exit")
		return fmt.Errorf("shutdown timeout")
	}
}

// readAndProcessFrames reads frames from the market data feed and routes
// them through the dispatcher
func (a *App) readAndProcessFrames(ctx context.Context) {
	reconnectDelay := 5 * time.Second
	maxReconnectDelay := 60 * time.Second

	for {
		select {
		case <-ctx.Done():
			return
		default:
			frame, err := a.feedManager.ReadFrame()
			if err != nil {
				select {
				case <-ctx.Done():
					return
				default:
					// Feed connection error - attempt reconnection
					log.Printf("⚠️  Feed error: %v", err)
					log.Printf("🔄 Attempting to reconnect in %v...", reconnectDelay)

					// Wait before reconnecting
					select {
					case <-ctx.Done():
						return
					case <-time.After(reconnectDelay):
					}

					// Try to reconnect via manager
					if err := a.feedManager.Reconnect(); err != nil {
						log.Printf("❌ Reconnection failed: %v", err)
						// Exponential backoff
						reconnectDelay = reconnectDelay * 2
						if reconnectDelay > maxReconnectDelay {
							reconnectDelay = maxReconnectDelay
						}
						continue
					}

					// Reset delay on successful reconnection
					reconnectDelay = 5 * time.Second
					continue
				}
			}

			monitoring.RecordFeedFrame(frame.Type)

			if err := a.dispatcher.Dispatch(frame); err != nil {
				log.Printf("Handler error: %v", err)
				// Don't terminate on handler errors, just log and continue
				continue
			}
		}
	}
}

// setupHandlers initializes and registers all frame handlers
func (a *App) setupHandlers() {
	telemetryHandler := marketdata.NewTelemetryHandler(a.telemRepo, a.broker)
	a.dispatcher.Register(telemetryHandler)
}

// buildEngineConfig starts from the built-in table set and applies the
// scalar overrides from the environment
func (a *App) buildEngineConfig() engine.Config {
	ec := engine.DefaultConfig()
	if a.config.Engine.MinCombinedScore > 0 {
		ec.MinCombinedScore = a.config.Engine.MinCombinedScore
	}
	if a.config.Engine.ReliabilitySamples > 0 {
		ec.ReliabilitySamples = a.config.Engine.ReliabilitySamples
	}
	return ec
}

// loadNewsFeeds reads the feed list from the configured JSON file, falling
// back to the built-in feeds when unset or unreadable
func (a *App) loadNewsFeeds() []news.Feed {
	path := a.config.News.FeedsFile
	if path == "" {
		return news.DefaultFeeds()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("⚠️  Failed to read news feeds file %s: %v, using defaults", path, err)
		return news.DefaultFeeds()
	}

	var feeds []news.Feed
	if err := json.Unmarshal(data, &feeds); err != nil || len(feeds) == 0 {
		log.Printf("⚠️  Invalid news feeds file %s, using defaults", path)
		return news.DefaultFeeds()
	}

	log.Printf("✅ Loaded %d news feeds from %s", len(feeds), path)
	return feeds
}
