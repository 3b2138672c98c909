// Package database provides database connection management for the adaptive parameter recommendation platform.
//
// This package includes:
//   - Database connection management using GORM and PostgreSQL
//   - Schema initialization and default template seeding
//   - Comprehensive error handling and validation
//
// Key Concepts:
//   - Parameter templates as the unit the engine adjusts and serves
//   - Append-only backtest sessions aggregated with similarity weighting
//   - Recommendation history for outcome review
//   - Telemetry snapshots backing the market condition classifier
//
// Data Models:
//
//	All data models (ParameterTemplate, BacktestSession, RecommendationRecord, etc.)
//	are defined in the models_pkg package to avoid circular import dependencies.
package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	models "github.com/Bam1010yod/TradingDashboard-sub000/database/models_pkg"
)

// Database holds the GORM database connection and provides access to the underlying DB instance.
// It serves as the central connection point for all database operations in the application.
type Database struct {
	db *gorm.DB
}

// DB returns the underlying GORM database instance for direct access when needed.
// This method provides access to the raw GORM DB for advanced operations.
func (d *Database) DB() *gorm.DB {
	return d.db
}

// Connect establishes database connection using GORM
func Connect(host string, port int, dbname, user, password string) (*Database, error) {
	dsn := fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=disable",
		host, port, dbname, user, password)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent), // Silent logging for production
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &Database{db: db}, nil
}

// Close closes the database connection
func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ============================================================================
// Backward Compatibility Type Aliases
// ============================================================================

// These type aliases maintain backward compatibility with existing code
// that imports types from the database package directly.

// Core data models - type aliases for backward compatibility
type ParameterTemplate = models.ParameterTemplate
type BacktestSession = models.BacktestSession
type NewsArticle = models.NewsArticle
type RecommendationRecord = models.RecommendationRecord
type TelemetrySnapshot = models.TelemetrySnapshot
type WebhookEndpoint = models.WebhookEndpoint
type WebhookDeliveryLog = models.WebhookDeliveryLog
