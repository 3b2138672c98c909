package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Constants for subscription
const (
	allInstrumentsWildcard = "*" // Subscribe to all instruments
)

// Client represents a WebSocket client for the market data bridge
type Client struct {
	url        string
	conn       *websocket.Conn
	header     http.Header
	writeMu    sync.Mutex
	pingCancel context.CancelFunc // Cancel function for ping goroutine
}

// NewClient creates a new WebSocket client
func NewClient(url string, apiKey string) *Client {
	header := make(http.Header)
	if apiKey != "" {
		header.Set("X-API-Key", apiKey)
	}
	header.Set("User-Agent", "trading-dashboard/1.0")

	return &Client{
		url:    url,
		header: header,
	}
}

// Connect establishes WebSocket connection
func (c *Client) Connect() error {
	conn, _, err := websocket.DefaultDialer.Dial(c.url, c.header)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", c.url, err)
	}

	c.conn = conn
	log.Printf("✅ Connected to %s", c.url)
	return nil
}

// Subscribe sends the subscription request for the given instruments.
// An empty list subscribes to all instruments via the wildcard.
func (c *Client) Subscribe(instruments []string) error {
	if len(instruments) == 0 {
		instruments = []string{allInstrumentsWildcard}
	}

	subReq := subscribeRequest{
		Type:        "subscribe",
		Instruments: instruments,
	}

	if err := c.WriteJSON(subReq); err != nil {
		return fmt.Errorf("failed to send subscription: %w", err)
	}

	log.Printf("📡 Subscribed to instruments: %v", instruments)
	return nil
}

// StartPing starts periodic ping to keep connection alive
// Returns a context cancel function that can be used to stop the ping loop
func (c *Client) StartPing(interval time.Duration) {
	ctx, cancel := context.WithCancel(context.Background())
	c.pingCancel = cancel

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				// Context canceled, exit goroutine
				return
			case <-ticker.C:
				pingMsg := pingRequest{
					Type:      "ping",
					Timestamp: time.Now().UTC(),
				}

				if err := c.WriteJSON(pingMsg); err != nil {
					log.Println("Failed to send ping:", err)
					return
				}
			}
		}
	}()
}

// WriteJSON sends a JSON message to the WebSocket connection thread-safely
func (c *Client) WriteJSON(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.conn == nil {
		return fmt.Errorf("connection is nil")
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// ReadFrame reads and decodes a JSON frame from the WebSocket
func (c *Client) ReadFrame() (*Frame, error) {
	if c.conn == nil {
		return nil, fmt.Errorf("connection is nil")
	}

	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return nil, err
	}

	frame := &Frame{}
	if err := json.Unmarshal(data, frame); err != nil {
		return nil, fmt.Errorf("failed to unmarshal frame: %w", err)
	}

	if frame.Type == "" {
		return nil, fmt.Errorf("frame missing type field")
	}

	return frame, nil
}

// Close closes the WebSocket connection
func (c *Client) Close() error {
	// Cancel ping goroutine if it's running
	if c.pingCancel != nil {
		c.pingCancel()
	}

	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
