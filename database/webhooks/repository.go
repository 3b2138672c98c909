package webhooks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Bam1010yod/TradingDashboard-sub000/database"
	models "github.com/Bam1010yod/TradingDashboard-sub000/database/models_pkg"
)

// Repository handles database operations for webhook endpoints and their
// delivery logs
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new webhook repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetActive retrieves all active webhook endpoints
func (r *Repository) GetActive(ctx context.Context) ([]models.WebhookEndpoint, error) {
	var endpoints []models.WebhookEndpoint
	err := r.db.WithContext(ctx).Where("is_active = ?", true).Find(&endpoints).Error
	if err != nil {
		return nil, fmt.Errorf("GetActive: %w", err)
	}
	return endpoints, nil
}

// GetAll retrieves all webhook endpoints (active and inactive)
func (r *Repository) GetAll(ctx context.Context) ([]models.WebhookEndpoint, error) {
	var endpoints []models.WebhookEndpoint
	err := r.db.WithContext(ctx).Order("id ASC").Find(&endpoints).Error
	if err != nil {
		return nil, fmt.Errorf("GetAll: %w", err)
	}
	return endpoints, nil
}

// GetByID retrieves a specific webhook endpoint
func (r *Repository) GetByID(ctx context.Context, id int) (*models.WebhookEndpoint, error) {
	var endpoint models.WebhookEndpoint
	err := r.db.WithContext(ctx).First(&endpoint, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, database.NewNotFoundErrorWithID("webhook", id)
	}
	if err != nil {
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return &endpoint, nil
}

// Save creates or updates a webhook endpoint
func (r *Repository) Save(ctx context.Context, endpoint *models.WebhookEndpoint) error {
	if strings.TrimSpace(endpoint.Name) == "" {
		return database.NewValidationError("name", "must not be empty")
	}
	if strings.TrimSpace(endpoint.URL) == "" {
		return database.NewValidationError("url", "must not be empty")
	}
	if endpoint.Method == "" {
		endpoint.Method = "POST"
	}

	if err := r.db.WithContext(ctx).Save(endpoint).Error; err != nil {
		return fmt.Errorf("Save: %w", err)
	}
	return nil
}

// Delete removes a webhook endpoint
func (r *Repository) Delete(ctx context.Context, id int) error {
	result := r.db.WithContext(ctx).Delete(&models.WebhookEndpoint{}, id)
	if result.Error != nil {
		return fmt.Errorf("Delete: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return database.NewNotFoundErrorWithID("webhook", id)
	}
	return nil
}

// SaveDeliveryLog records one delivery attempt
func (r *Repository) SaveDeliveryLog(ctx context.Context, log *models.WebhookDeliveryLog) error {
	if log.TriggeredAt.IsZero() {
		log.TriggeredAt = time.Now()
	}
	if err := r.db.WithContext(ctx).Create(log).Error; err != nil {
		return fmt.Errorf("SaveDeliveryLog: %w", err)
	}
	return nil
}

// RecordDeliveryResult updates an endpoint's delivery counters and
// last-attempt columns after a delivery completes or fails for good
func (r *Repository) RecordDeliveryResult(ctx context.Context, webhookID int, success bool, errMsg string) error {
	now := time.Now()

	updates := map[string]interface{}{
		"last_triggered_at": now,
	}
	if success {
		updates["last_success_at"] = now
		updates["last_error"] = ""
		updates["total_sent"] = gorm.Expr("total_sent + 1")
	} else {
		updates["last_error"] = errMsg
		updates["total_failed"] = gorm.Expr("total_failed + 1")
	}

	result := r.db.WithContext(ctx).Model(&models.WebhookEndpoint{}).
		Where("id = ?", webhookID).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("RecordDeliveryResult: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return database.NewNotFoundErrorWithID("webhook", webhookID)
	}
	return nil
}

// RecentDeliveries retrieves the newest delivery logs for one endpoint
func (r *Repository) RecentDeliveries(ctx context.Context, webhookID, limit int) ([]models.WebhookDeliveryLog, error) {
	if limit <= 0 || limit > database.MaxLimit {
		limit = database.DefaultLimit
	}

	var logs []models.WebhookDeliveryLog
	err := r.db.WithContext(ctx).
		Where("webhook_id = ?", webhookID).
		Order("triggered_at DESC").
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, fmt.Errorf("RecentDeliveries: %w", err)
	}
	return logs, nil
}
