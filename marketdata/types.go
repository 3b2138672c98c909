package marketdata

import "time"

// Frame types pushed by the market data bridge.
const (
	FrameTypeTelemetry = "telemetry"
	FrameTypeHeartbeat = "heartbeat"
)

// Frame is one JSON message from the bridge feed.
//
// Key Fields:
// - Type: frame type ("telemetry", "heartbeat")
// - Instrument: futures symbol the reading belongs to (e.g. "NQ", "ES")
// - ATR: current Average True Range in points
// - Volume: contracts traded in the current bar
// - PriceChangePct: percent move over the bridge's trend window
// - Timestamp: when the bridge captured the reading
type Frame struct {
	Type           string    `json:"type"`
	Instrument     string    `json:"instrument"`
	ATR            float64   `json:"atr"`
	Volume         float64   `json:"volume"`
	LastPrice      float64   `json:"last_price"`
	PriceChangePct float64   `json:"price_change_pct"`
	Timestamp      time.Time `json:"timestamp"`
}

// subscribeRequest asks the bridge to stream frames for a set of instruments.
type subscribeRequest struct {
	Type        string   `json:"type"`
	Instruments []string `json:"instruments"`
}

// pingRequest keeps the feed connection alive.
type pingRequest struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}
