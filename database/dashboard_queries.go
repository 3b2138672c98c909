package database

import (
	"context"
	"fmt"
	"time"
)

// Dashboard-specific data structures

// SessionPerformanceCell is one cell of the session-by-volatility
// performance matrix shown on the dashboard
type SessionPerformanceCell struct {
	SessionType        string  `json:"session_type"`
	VolatilityCategory string  `json:"volatility_category"`
	TotalSessions      int     `json:"total_sessions"`
	TotalTrades        int     `json:"total_trades"`
	Wins               int     `json:"wins"`
	Losses             int     `json:"losses"`
	WinRatePct         float64 `json:"win_rate_pct"`
	AvgProfitFactor    float64 `json:"avg_profit_factor"`
	AvgRR              float64 `json:"avg_rr"`
	Label              string  `json:"label"` // STRONG, NEUTRAL, WEAK
}

// RecommendationActivity is a per-day roll-up of issued recommendations
type RecommendationActivity struct {
	Day              time.Time `json:"day"`
	Kind             string    `json:"kind"`
	Total            int       `json:"total"`
	Applied          int       `json:"applied"`
	Fallbacks        int       `json:"fallbacks"`
	AvgCombinedScore float64   `json:"avg_combined_score"`
}

// TemplateLeader is one row of the template leaderboard, derived from
// the template_performance_daily materialized view
type TemplateLeader struct {
	TemplateName    string  `json:"template_name"`
	TotalSessions   int     `json:"total_sessions"`
	TotalTrades     int     `json:"total_trades"`
	WinRatePct      float64 `json:"win_rate_pct"`
	AvgProfitFactor float64 `json:"avg_profit_factor"`
}

// NewsCategoryBreakdown summarizes recent news volume per category
type NewsCategoryBreakdown struct {
	Category     string  `json:"category"`
	ArticleCount int     `json:"article_count"`
	AvgSentiment float64 `json:"avg_sentiment"`
}

// ReportingRepository runs dashboard aggregations on the dedicated
// reporting pool
type ReportingRepository struct {
	db *DB
}

// NewReportingRepository creates a new reporting repository
func NewReportingRepository(db *DB) *ReportingRepository {
	return &ReportingRepository{db: db}
}

// Dashboard Query Methods

// GetSessionPerformanceMatrix aggregates backtest outcomes per session and
// volatility category over the lookback window
func (r *ReportingRepository) GetSessionPerformanceMatrix(ctx context.Context, daysBack int) ([]SessionPerformanceCell, error) {
	if daysBack <= 0 {
		daysBack = BacktestLookbackDaysDefault
	}
	if daysBack > BacktestLookbackDaysMax {
		daysBack = BacktestLookbackDaysMax
	}

	query := `
		SELECT
			session_type,
			COALESCE(volatility_category, 'MEDIUM') as volatility_category,
			COUNT(*) as total_sessions,
			COALESCE(SUM(total_trades), 0) as total_trades,
			COALESCE(SUM(wins), 0) as wins,
			COALESCE(SUM(losses), 0) as losses,
			COALESCE(SUM(wins)::float / NULLIF(SUM(wins) + SUM(losses), 0) * 100, 0) as win_rate_pct,
			COALESCE(AVG(profit_factor), 0) as avg_profit_factor,
			COALESCE(AVG(average_rr), 0) as avg_rr
		FROM backtest_sessions
		WHERE created_at >= NOW() - INTERVAL '1 day' * $1
		GROUP BY session_type, COALESCE(volatility_category, 'MEDIUM')
		ORDER BY session_type, volatility_category
	`

	rows, err := r.db.conn.QueryContext(ctx, query, daysBack)
	if err != nil {
		return nil, fmt.Errorf("GetSessionPerformanceMatrix: %w", err)
	}
	defer rows.Close()

	var cells []SessionPerformanceCell
	for rows.Next() {
		var c SessionPerformanceCell
		if err := rows.Scan(&c.SessionType, &c.VolatilityCategory, &c.TotalSessions, &c.TotalTrades,
			&c.Wins, &c.Losses, &c.WinRatePct, &c.AvgProfitFactor, &c.AvgRR); err != nil {
			return nil, fmt.Errorf("GetSessionPerformanceMatrix scan: %w", err)
		}

		c.Label = "NEUTRAL"
		if c.WinRatePct > DashboardStrongWinRate {
			c.Label = "STRONG"
		} else if c.WinRatePct < DashboardWeakWinRate {
			c.Label = "WEAK"
		}

		cells = append(cells, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetSessionPerformanceMatrix rows: %w", err)
	}

	return cells, nil
}

// GetRecommendationActivity returns per-day issuance counts by kind
func (r *ReportingRepository) GetRecommendationActivity(ctx context.Context, daysBack int) ([]RecommendationActivity, error) {
	if daysBack <= 0 {
		daysBack = 7
	}

	query := `
		SELECT
			date_trunc('day', generated_at) as day,
			kind,
			COUNT(*) as total,
			SUM(CASE WHEN applied THEN 1 ELSE 0 END) as applied,
			SUM(CASE WHEN is_fallback THEN 1 ELSE 0 END) as fallbacks,
			COALESCE(AVG(combined_score), 0) as avg_combined_score
		FROM recommendations
		WHERE generated_at >= NOW() - INTERVAL '1 day' * $1
		GROUP BY day, kind
		ORDER BY day DESC, kind
	`

	rows, err := r.db.conn.QueryContext(ctx, query, daysBack)
	if err != nil {
		return nil, fmt.Errorf("GetRecommendationActivity: %w", err)
	}
	defer rows.Close()

	var activity []RecommendationActivity
	for rows.Next() {
		var a RecommendationActivity
		if err := rows.Scan(&a.Day, &a.Kind, &a.Total, &a.Applied, &a.Fallbacks, &a.AvgCombinedScore); err != nil {
			return nil, fmt.Errorf("GetRecommendationActivity scan: %w", err)
		}
		activity = append(activity, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetRecommendationActivity rows: %w", err)
	}

	return activity, nil
}

// GetTemplateLeaderboard ranks templates by win rate using the
// template_performance_daily materialized view
func (r *ReportingRepository) GetTemplateLeaderboard(ctx context.Context, daysBack, limit int) ([]TemplateLeader, error) {
	if daysBack <= 0 {
		daysBack = BacktestLookbackDaysDefault
	}
	if daysBack > BacktestLookbackDaysMax {
		daysBack = BacktestLookbackDaysMax
	}
	if limit <= 0 || limit > MaxLimit {
		limit = DefaultLimit
	}

	query := `
		SELECT
			template_name,
			COALESCE(SUM(total_sessions), 0) as total_sessions,
			COALESCE(SUM(total_trades), 0) as total_trades,
			COALESCE(SUM(wins)::float / NULLIF(SUM(wins) + SUM(losses), 0) * 100, 0) as win_rate_pct,
			COALESCE(AVG(avg_profit_factor), 0) as avg_profit_factor
		FROM template_performance_daily
		WHERE day >= NOW() - INTERVAL '1 day' * $1
		AND template_name <> ''
		GROUP BY template_name
		HAVING COALESCE(SUM(total_trades), 0) > 0
		ORDER BY win_rate_pct DESC, total_trades DESC
		LIMIT $2
	`

	rows, err := r.db.conn.QueryContext(ctx, query, daysBack, limit)
	if err != nil {
		return nil, fmt.Errorf("GetTemplateLeaderboard: %w", err)
	}
	defer rows.Close()

	var leaders []TemplateLeader
	for rows.Next() {
		var l TemplateLeader
		if err := rows.Scan(&l.TemplateName, &l.TotalSessions, &l.TotalTrades, &l.WinRatePct, &l.AvgProfitFactor); err != nil {
			return nil, fmt.Errorf("GetTemplateLeaderboard scan: %w", err)
		}
		leaders = append(leaders, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetTemplateLeaderboard rows: %w", err)
	}

	return leaders, nil
}

// GetNewsCategoryBreakdown summarizes recent news flow per category
func (r *ReportingRepository) GetNewsCategoryBreakdown(ctx context.Context, hoursBack int) ([]NewsCategoryBreakdown, error) {
	if hoursBack <= 0 {
		hoursBack = int(NewsRecentWindow / time.Hour)
	}

	query := `
		SELECT
			COALESCE(NULLIF(category, ''), 'uncategorized') as category,
			COUNT(*) as article_count,
			COALESCE(AVG(sentiment), 0) as avg_sentiment
		FROM news_articles
		WHERE published_at >= NOW() - INTERVAL '1 hour' * $1
		GROUP BY COALESCE(NULLIF(category, ''), 'uncategorized')
		ORDER BY article_count DESC
	`

	rows, err := r.db.conn.QueryContext(ctx, query, hoursBack)
	if err != nil {
		return nil, fmt.Errorf("GetNewsCategoryBreakdown: %w", err)
	}
	defer rows.Close()

	var breakdown []NewsCategoryBreakdown
	for rows.Next() {
		var b NewsCategoryBreakdown
		if err := rows.Scan(&b.Category, &b.ArticleCount, &b.AvgSentiment); err != nil {
			return nil, fmt.Errorf("GetNewsCategoryBreakdown scan: %w", err)
		}
		breakdown = append(breakdown, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetNewsCategoryBreakdown rows: %w", err)
	}

	return breakdown, nil
}
