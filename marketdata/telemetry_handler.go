package marketdata

import (
	"context"
	"fmt"
	"time"

	models "github.com/Bam1010yod/TradingDashboard-sub000/database/models_pkg"
	"github.com/Bam1010yod/TradingDashboard-sub000/database/telemetry"
	"github.com/Bam1010yod/TradingDashboard-sub000/realtime"
)

const persistTimeout = 5 * time.Second

// TelemetryHandler persists telemetry frames and pushes them to live
// dashboard subscribers. Trailing averages are computed on read, so the
// write path stays a single insert.
type TelemetryHandler struct {
	repo   *telemetry.Repository
	broker *realtime.Broker
}

// NewTelemetryHandler creates a new telemetry frame handler
func NewTelemetryHandler(repo *telemetry.Repository, broker *realtime.Broker) *TelemetryHandler {
	return &TelemetryHandler{
		repo:   repo,
		broker: broker,
	}
}

// GetFrameType returns the frame type this handler consumes
func (h *TelemetryHandler) GetFrameType() string {
	return FrameTypeTelemetry
}

// HandleFrame validates and persists one telemetry frame
func (h *TelemetryHandler) HandleFrame(frame *Frame) error {
	if frame.Instrument == "" {
		return fmt.Errorf("telemetry frame missing instrument")
	}
	if frame.ATR < 0 || frame.Volume < 0 {
		return fmt.Errorf("telemetry frame for %s has negative readings", frame.Instrument)
	}

	capturedAt := frame.Timestamp
	if capturedAt.IsZero() {
		capturedAt = time.Now().UTC()
	}

	row := &models.TelemetrySnapshot{
		Instrument:     frame.Instrument,
		CapturedAt:     capturedAt,
		ATR:            frame.ATR,
		Volume:         frame.Volume,
		LastPrice:      frame.LastPrice,
		PriceChangePct: frame.PriceChangePct,
	}

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if err := h.repo.Save(ctx, row); err != nil {
		return fmt.Errorf("HandleFrame: %w", err)
	}

	if h.broker != nil {
		h.broker.Broadcast(realtime.EventTelemetry, row)
	}

	return nil
}
