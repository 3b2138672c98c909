package backtests

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Bam1010yod/TradingDashboard-sub000/database"
	models "github.com/Bam1010yod/TradingDashboard-sub000/database/models_pkg"
	"github.com/Bam1010yod/TradingDashboard-sub000/engine"
)

// Repository handles database operations for backtest sessions
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new backtest repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Save stores one backtest session after validation
func (r *Repository) Save(ctx context.Context, row *models.BacktestSession) error {
	if err := validateRow(row); err != nil {
		return err
	}

	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("Save: %w", err)
	}
	return nil
}

// Query returns engine-shaped records whose coarse bucket or session matches
// the requested condition, newest first, within the default lookback window.
// This satisfies the engine's backtest store contract; similarity weighting
// downstream discards records from genuinely different conditions.
func (r *Repository) Query(ctx context.Context, timeOfDay string, session engine.Session) ([]engine.BacktestRecord, error) {
	cutoff := time.Now().AddDate(0, 0, -database.BacktestLookbackDaysDefault)

	var rows []models.BacktestSession
	err := r.db.WithContext(ctx).
		Where("created_at >= ?", cutoff).
		Where("time_of_day = ? OR session_type = ?", timeOfDay, string(session)).
		Order("created_at DESC").
		Limit(database.MaxLimit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("Query: %w", err)
	}

	records := make([]engine.BacktestRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, toEngineRecord(row))
	}
	return records, nil
}

// List retrieves stored sessions with optional filters for the API
func (r *Repository) List(ctx context.Context, sessionType, volatility, templateName string, limit int) ([]models.BacktestSession, error) {
	if limit <= 0 || limit > database.MaxLimit {
		limit = database.DefaultLimit
	}

	query := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit)

	if sessionType != "" {
		query = query.Where("session_type = ?", sessionType)
	}

	if volatility != "" {
		query = query.Where("volatility_category = ?", volatility)
	}

	if templateName != "" {
		query = query.Where("template_name = ?", templateName)
	}

	var rows []models.BacktestSession
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	return rows, nil
}

// Count returns the number of stored sessions in the lookback window
func (r *Repository) Count(ctx context.Context, daysBack int) (int64, error) {
	if daysBack <= 0 {
		daysBack = database.BacktestLookbackDaysDefault
	}
	if daysBack > database.BacktestLookbackDaysMax {
		daysBack = database.BacktestLookbackDaysMax
	}
	cutoff := time.Now().AddDate(0, 0, -daysBack)

	var count int64
	err := r.db.WithContext(ctx).Model(&models.BacktestSession{}).
		Where("created_at >= ?", cutoff).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("Count: %w", err)
	}
	return count, nil
}

func validateRow(row *models.BacktestSession) error {
	if row.TimeOfDay != database.TimeOfDayMorning && row.TimeOfDay != database.TimeOfDayAfternoon {
		return database.NewValidationErrorWithValue("time_of_day", "must be MORNING or AFTERNOON", row.TimeOfDay)
	}
	if row.SessionType == "" {
		return database.NewValidationError("session_type", "must not be empty")
	}
	if row.Wins < 0 || row.Losses < 0 {
		return database.NewValidationError("wins", "outcome counts must not be negative")
	}
	if row.TotalTrades < row.Wins+row.Losses {
		return database.NewValidationErrorWithValue("total_trades", "must cover wins plus losses", row.TotalTrades)
	}
	if row.ProfitFactor < 0 {
		return database.NewValidationErrorWithValue("profit_factor", "must not be negative", row.ProfitFactor)
	}
	if row.AverageRR < 0 {
		return database.NewValidationErrorWithValue("average_rr", "must not be negative", row.AverageRR)
	}
	return nil
}

func toEngineRecord(row models.BacktestSession) engine.BacktestRecord {
	snap := engine.ConditionSnapshot{
		Session:            engine.Session(row.SessionType),
		VolatilityCategory: engine.VolatilityCategory(row.VolatilityCategory),
	}
	if row.DayOfWeek != nil {
		d := time.Weekday(*row.DayOfWeek)
		snap.DayOfWeek = &d
	}
	if row.VolumeLevel != nil {
		v := engine.VolumeLevel(*row.VolumeLevel)
		snap.VolumeLevel = &v
	}

	return engine.BacktestRecord{
		TimeOfDay:   row.TimeOfDay,
		SessionType: engine.Session(row.SessionType),
		Conditions:  snap,
		Performance: engine.BacktestPerformance{
			Wins:         row.Wins,
			Losses:       row.Losses,
			TotalTrades:  row.TotalTrades,
			ProfitFactor: row.ProfitFactor,
			AverageRR:    row.AverageRR,
		},
		CreatedAt: row.CreatedAt,
	}
}
