package news

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Bam1010yod/TradingDashboard-sub000/database"
	models "github.com/Bam1010yod/TradingDashboard-sub000/database/models_pkg"
	"github.com/Bam1010yod/TradingDashboard-sub000/engine"
)

// Repository handles database operations for news articles
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new news repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// SaveBatch stores fetched articles, skipping URLs already present.
// Returns the number of articles actually inserted.
func (r *Repository) SaveBatch(ctx context.Context, articles []models.NewsArticle) (int, error) {
	inserted := 0
	for i := range articles {
		article := articles[i]
		if strings.TrimSpace(article.Title) == "" || strings.TrimSpace(article.URL) == "" {
			continue
		}

		err := r.db.WithContext(ctx).Create(&article).Error
		if err != nil {
			if strings.Contains(err.Error(), "duplicate key value violates unique constraint") {
				continue // Already fetched this article, skip silently
			}
			return inserted, fmt.Errorf("SaveBatch: %w", err)
		}
		inserted++
	}
	return inserted, nil
}

// Recent retrieves the newest articles, optionally filtered by category
func (r *Repository) Recent(ctx context.Context, category string, hoursBack, limit int) ([]models.NewsArticle, error) {
	if hoursBack <= 0 {
		hoursBack = int(database.NewsRecentWindow / time.Hour)
	}
	if limit <= 0 || limit > database.MaxLimit {
		limit = database.DefaultLimit
	}

	cutoff := time.Now().Add(-time.Duration(hoursBack) * time.Hour)
	query := r.db.WithContext(ctx).
		Where("published_at >= ?", cutoff).
		Order("published_at DESC").
		Limit(limit)

	if category != "" {
		query = query.Where("category = ?", category)
	}

	var rows []models.NewsArticle
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("Recent: %w", err)
	}
	return rows, nil
}

// RecentForEngine returns articles from the impact-scoring window in
// engine form, newest first
func (r *Repository) RecentForEngine(ctx context.Context) ([]engine.NewsItem, error) {
	cutoff := time.Now().Add(-database.NewsRecentWindow)

	var rows []models.NewsArticle
	err := r.db.WithContext(ctx).
		Where("published_at >= ?", cutoff).
		Order("published_at DESC").
		Limit(database.HistoryLimit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("RecentForEngine: %w", err)
	}

	items := make([]engine.NewsItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, toEngineItem(row))
	}
	return items, nil
}

// PruneOlderThan removes articles past the retention horizon. Returns the
// number of rows deleted.
func (r *Repository) PruneOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	cutoff := time.Now().Add(-age)

	result := r.db.WithContext(ctx).
		Where("published_at < ?", cutoff).
		Delete(&models.NewsArticle{})
	if result.Error != nil {
		return 0, fmt.Errorf("PruneOlderThan: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func toEngineItem(row models.NewsArticle) engine.NewsItem {
	return engine.NewsItem{
		Title:       row.Title,
		Body:        row.Body,
		Source:      row.Source,
		Category:    row.Category,
		Sentiment:   row.Sentiment,
		PublishedAt: row.PublishedAt,
	}
}
