package recommendations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Bam1010yod/TradingDashboard-sub000/database"
	models "github.com/Bam1010yod/TradingDashboard-sub000/database/models_pkg"
	"github.com/Bam1010yod/TradingDashboard-sub000/engine"
)

// Repository handles database operations for recommendation history
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new recommendation repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Save stores one issued recommendation with its full payload
func (r *Repository) Save(ctx context.Context, rec engine.Recommendation, instrument string) (*models.RecommendationRecord, error) {
	payload, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("Save: %w", err)
	}

	row := models.RecommendationRecord{
		GeneratedAt:        rec.GeneratedAt,
		Kind:               string(rec.Template.Kind),
		Instrument:         instrument,
		TemplateName:       rec.Template.Name,
		Payload:            string(payload),
		Confidence:         rec.Confidence.String(),
		SimilarityScore:    rec.SimilarityScore,
		CombinedScore:      rec.CombinedScore,
		IsFallback:         rec.Template.IsFallback,
		Session:            string(rec.Condition.Session),
		VolatilityCategory: string(rec.Condition.VolatilityCategory),
	}

	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, fmt.Errorf("Save: %w", err)
	}
	return &row, nil
}

// History retrieves issued recommendations newest first
func (r *Repository) History(ctx context.Context, kind string, limit int) ([]models.RecommendationRecord, error) {
	if limit <= 0 || limit > database.MaxLimit {
		limit = database.HistoryLimit
	}

	query := r.db.WithContext(ctx).Order("generated_at DESC").Limit(limit)

	if kind != "" {
		query = query.Where("kind = ?", kind)
	}

	var rows []models.RecommendationRecord
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("History: %w", err)
	}
	return rows, nil
}

// Latest returns the most recently issued recommendation of one kind
func (r *Repository) Latest(ctx context.Context, kind string) (*models.RecommendationRecord, error) {
	var row models.RecommendationRecord
	err := r.db.WithContext(ctx).
		Where("kind = ?", kind).
		Order("generated_at DESC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, database.NewNotFoundError("recommendation")
	}
	if err != nil {
		return nil, fmt.Errorf("Latest: %w", err)
	}
	return &row, nil
}

// MarkApplied records that an operator pushed the recommendation to the
// trading rig
func (r *Repository) MarkApplied(ctx context.Context, id int64) error {
	now := time.Now()
	result := r.db.WithContext(ctx).Model(&models.RecommendationRecord{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"applied": true, "applied_at": now})
	if result.Error != nil {
		return fmt.Errorf("MarkApplied: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return database.NewNotFoundErrorWithID("recommendation", id)
	}
	return nil
}

// Payload unmarshals the stored recommendation document from a row
func Payload(row models.RecommendationRecord) (*engine.Recommendation, error) {
	var rec engine.Recommendation
	if err := json.Unmarshal([]byte(row.Payload), &rec); err != nil {
		return nil, fmt.Errorf("Payload: %w", err)
	}
	return &rec, nil
}
