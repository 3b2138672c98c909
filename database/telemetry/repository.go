package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Bam1010yod/TradingDashboard-sub000/database"
	models "github.com/Bam1010yod/TradingDashboard-sub000/database/models_pkg"
	"github.com/Bam1010yod/TradingDashboard-sub000/engine"
)

// Repository handles database operations for telemetry snapshots
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new telemetry repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Save stores one snapshot from the market data feed
func (r *Repository) Save(ctx context.Context, row *models.TelemetrySnapshot) error {
	if row.Instrument == "" {
		return database.NewValidationError("instrument", "must not be empty")
	}
	if row.CapturedAt.IsZero() {
		row.CapturedAt = time.Now()
	}

	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("Save: %w", err)
	}
	return nil
}

// Latest returns the newest snapshot for an instrument
func (r *Repository) Latest(ctx context.Context, instrument string) (*models.TelemetrySnapshot, error) {
	var row models.TelemetrySnapshot
	err := r.db.WithContext(ctx).
		Where("instrument = ?", instrument).
		Order("captured_at DESC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, database.NewNotFoundErrorWithID("telemetry snapshot", instrument)
	}
	if err != nil {
		return nil, fmt.Errorf("Latest: %w", err)
	}
	return &row, nil
}

// TrailingAverages computes mean ATR and volume over the trailing window
func (r *Repository) TrailingAverages(ctx context.Context, instrument string, window time.Duration) (float64, float64, error) {
	var result struct {
		ATRAvg    float64
		VolumeAvg float64
	}

	query := `
		SELECT
			COALESCE(AVG(atr), 0) as atr_avg,
			COALESCE(AVG(volume), 0) as volume_avg
		FROM telemetry_snapshots
		WHERE instrument = ?
		AND captured_at >= ?
	`

	cutoff := time.Now().Add(-window)
	err := r.db.WithContext(ctx).Raw(query, instrument, cutoff).Scan(&result).Error
	if err != nil {
		return 0, 0, fmt.Errorf("TrailingAverages: %w", err)
	}

	return result.ATRAvg, result.VolumeAvg, nil
}

// LatestSample assembles the engine-shaped reading: the newest snapshot
// plus trailing averages for the classifier's ratio votes. Rows older than
// the staleness window are treated as missing so a dead feed degrades
// classification instead of feeding it hours-old numbers.
func (r *Repository) LatestSample(ctx context.Context, instrument string) (*engine.TelemetrySample, error) {
	row, err := r.Latest(ctx, instrument)
	if err != nil {
		return nil, err
	}
	if time.Since(row.CapturedAt) > database.TelemetryStaleAfter {
		return nil, database.NewNotFoundErrorWithID("telemetry snapshot", instrument)
	}

	atrAvg, volumeAvg, err := r.TrailingAverages(ctx, instrument, database.TelemetryAverageWindow)
	if err != nil {
		return nil, err
	}

	return &engine.TelemetrySample{
		Instrument:     row.Instrument,
		ATR:            row.ATR,
		ATRAverage:     atrAvg,
		Volume:         row.Volume,
		VolumeAverage:  volumeAvg,
		LastPrice:      row.LastPrice,
		PriceChangePct: row.PriceChangePct,
		CapturedAt:     row.CapturedAt,
	}, nil
}
