package marketdata

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/Bam1010yod/TradingDashboard-sub000/monitoring"
)

// ConnectionManager handles feed connection lifecycle, health monitoring, and reconnection.
type ConnectionManager struct {
	client      *Client
	feedURL     string
	apiKey      string
	instruments []string
	lastMsgTime time.Time
}

// NewConnectionManager creates a new ConnectionManager.
func NewConnectionManager(feedURL, apiKey string, instruments []string) *ConnectionManager {
	return &ConnectionManager{
		feedURL:     feedURL,
		apiKey:      apiKey,
		instruments: instruments,
		lastMsgTime: time.Now(),
	}
}

// Connect establishes the initial feed connection and subscribes.
func (cm *ConnectionManager) Connect() error {
	fmt.Println("🔌 Connecting to market data feed...")
	cm.client = NewClient(cm.feedURL, cm.apiKey)

	if err := cm.client.Connect(); err != nil {
		return fmt.Errorf("market data feed connection failed: %w", err)
	}
	fmt.Println("✅ Market data feed connected!")

	return cm.client.Subscribe(cm.instruments)
}

// StartPing starts the keep-alive pinger.
func (cm *ConnectionManager) StartPing(interval time.Duration) {
	if cm.client != nil {
		cm.client.StartPing(interval)
	}
}

// ReadFrame reads a frame from the feed.
func (cm *ConnectionManager) ReadFrame() (*Frame, error) {
	if cm.client == nil {
		return nil, fmt.Errorf("client not connected")
	}
	frame, err := cm.client.ReadFrame()
	if err == nil {
		cm.lastMsgTime = time.Now()
	}
	return frame, err
}

// Close closes the connection.
func (cm *ConnectionManager) Close() error {
	if cm.client != nil {
		return cm.client.Close()
	}
	return nil
}

// Reconnect attempts to re-establish the feed connection with exponential backoff.
func (cm *ConnectionManager) Reconnect() error {
	monitoring.RecordFeedReconnect()

	// Close existing connection
	_ = cm.Close()

	operation := func() error {
		cm.client = NewClient(cm.feedURL, cm.apiKey)
		if err := cm.client.Connect(); err != nil {
			return err
		}
		return cm.client.Subscribe(cm.instruments)
	}

	backoffStrategy := backoff.NewExponentialBackOff()
	backoffStrategy.MaxElapsedTime = 2 * time.Minute

	if err := backoff.Retry(operation, backoffStrategy); err != nil {
		return fmt.Errorf("feed reconnection failed: %w", err)
	}

	cm.StartPing(25 * time.Second)
	log.Println("✅ Reconnection successful")
	return nil
}

// RunHealthMonitor starts a background loop to check connection health.
func (cm *ConnectionManager) RunHealthMonitor(ctx context.Context) {
	ticker := time.NewTicker(60 * time.Second) // Check every 60 seconds
	defer ticker.Stop()

	log.Println("💓 Market data feed health monitoring started")

	for {
		select {
		case <-ctx.Done():
			log.Println("🛑 Market data feed health monitoring stopped")
			return
		case <-ticker.C:
			timeSinceLastFrame := time.Since(cm.lastMsgTime)

			// If no frame received in 5 minutes, consider connection unhealthy
			if timeSinceLastFrame > 5*time.Minute {
				log.Printf("⚠️  No feed frame received for %v, reconnecting...", timeSinceLastFrame.Round(time.Second))

				if err := cm.Reconnect(); err != nil {
					log.Printf("❌ Feed reconnection failed: %v", err)
				} else {
					log.Println("✅ Feed reconnected successfully")
					cm.lastMsgTime = time.Now()
				}
			} else {
				log.Printf("💓 Market data feed healthy, last frame %v ago", timeSinceLastFrame.Round(time.Second))
			}
		}
	}
}
