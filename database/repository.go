package database

import (
	"fmt"
	"time"
)

// PlatformRepository handles schema management for the recommendation platform
type PlatformRepository struct {
	db *Database
}

// NewPlatformRepository creates a new platform repository
func NewPlatformRepository(db *Database) *PlatformRepository {
	return &PlatformRepository{db: db}
}

// InitSchema performs auto-migration and TimescaleDB setup
func (r *PlatformRepository) InitSchema() error {
	fmt.Println("🔄 Starting database schema initialization...")

	// Create telemetry_snapshots table manually if not exists (before converting to hypertable)
	// GORM AutoMigrate fails on Hypertables, so we manage this schema manually
	if err := r.db.db.Exec(`
		CREATE TABLE IF NOT EXISTS telemetry_snapshots (
			id BIGSERIAL,
			instrument VARCHAR(20) NOT NULL,
			captured_at TIMESTAMPTZ NOT NULL,
			atr DOUBLE PRECISION,
			volume DOUBLE PRECISION,
			last_price DOUBLE PRECISION,
			price_change_pct DOUBLE PRECISION,
			PRIMARY KEY (id, captured_at)
		)
	`).Error; err != nil {
		return fmt.Errorf("failed to create telemetry_snapshots table: %w", err)
	}

	// Composite index for the latest-snapshot and trailing-average lookups
	r.db.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_telemetry_instrument_time
		ON telemetry_snapshots (instrument, captured_at DESC)
	`)

	// Auto-migrate other tables
	err := r.db.db.AutoMigrate(
		// &TelemetrySnapshot{}, // Managed manually above
		&ParameterTemplate{},
		&BacktestSession{},
		&NewsArticle{},
		&RecommendationRecord{},
		&WebhookEndpoint{},
		&WebhookDeliveryLog{},
	)
	if err != nil {
		return fmt.Errorf("auto-migration failed: %w", err)
	}

	// Create template_performance_daily view immediately after AutoMigrate
	fmt.Println("📊 Creating template_performance_daily materialized view...")
	if err := r.db.db.Exec(`
		CREATE MATERIALIZED VIEW IF NOT EXISTS template_performance_daily AS
		SELECT
			date_trunc('day', bs.created_at) AS day,
			bs.template_name,
			bs.session_type,
			bs.volatility_category,
			COUNT(*) AS total_sessions,
			SUM(bs.wins) AS wins,
			SUM(bs.losses) AS losses,
			SUM(bs.total_trades) AS total_trades,
			AVG(bs.profit_factor) AS avg_profit_factor,
			AVG(bs.average_rr) AS avg_rr
		FROM backtest_sessions bs
		GROUP BY day, bs.template_name, bs.session_type, bs.volatility_category
	`).Error; err != nil {
		fmt.Printf("⚠️ Warning: Failed to create view template_performance_daily: %v\n", err)
	} else {
		fmt.Println("✅ template_performance_daily view created successfully")
	}

	// Create TimescaleDB extension and hypertables
	if err := r.setupTimescaleDB(); err != nil {
		return WrapDBError("setupTimescaleDB", err)
	}

	// Seed the safe default templates on a fresh database
	if err := r.seedDefaultTemplates(); err != nil {
		return WrapDBError("seedDefaultTemplates", err)
	}

	fmt.Println("✅ Database schema initialization completed successfully")
	return nil
}

// setupTimescaleDB creates hypertables and policies
func (r *PlatformRepository) setupTimescaleDB() error {
	fmt.Println("⏰ Setting up TimescaleDB extension and hypertables...")

	// Enable TimescaleDB extension
	if err := r.db.db.Exec("CREATE EXTENSION IF NOT EXISTS timescaledb CASCADE").Error; err != nil {
		return fmt.Errorf("failed to create TimescaleDB extension: %w", err)
	}
	fmt.Println("✅ TimescaleDB extension enabled")

	// Create hypertable for telemetry_snapshots
	r.db.db.Exec(fmt.Sprintf(`
		SELECT create_hypertable('telemetry_snapshots', 'captured_at',
			chunk_time_interval => %s,
			if_not_exists => TRUE
		)
	`, pgInterval(ChunkInterval1Day)))

	// Retention: 30 days of raw telemetry is plenty for trailing averages
	r.db.db.Exec(fmt.Sprintf(`
		SELECT add_retention_policy('telemetry_snapshots', %s, if_not_exists => TRUE)
	`, pgInterval(RetentionTelemetry)))

	// Create hypertable for webhook_delivery_logs
	r.db.db.Exec(fmt.Sprintf(`
		SELECT create_hypertable('webhook_delivery_logs', 'triggered_at',
			chunk_time_interval => %s,
			if_not_exists => TRUE
		)
	`, pgInterval(ChunkInterval7Days)))

	r.db.db.Exec(fmt.Sprintf(`
		SELECT add_retention_policy('webhook_delivery_logs', %s, if_not_exists => TRUE)
	`, pgInterval(RetentionWebhookLogs)))

	return nil
}

// pgInterval renders a duration as a Postgres interval literal
func pgInterval(d time.Duration) string {
	return fmt.Sprintf("INTERVAL '%d hours'", int(d/time.Hour))
}

// seedDefaultTemplates inserts the safe default bracket and filter templates
// on a fresh database so the engine always has a fallback to serve.
func (r *PlatformRepository) seedDefaultTemplates() error {
	var count int64
	if err := r.db.db.Model(&ParameterTemplate{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count parameter templates: %w", err)
	}
	if count > 0 {
		return nil
	}

	fmt.Println("💾 Seeding default parameter templates...")
	defaults := []ParameterTemplate{
		{
			Name:             "Default Bracket",
			Kind:             TemplateKindBracket,
			StopLoss:         intPtr(16),
			Target:           intPtr(32),
			BreakEvenTrigger: intPtr(12),
			BreakEvenPlus:    intPtr(4),
			Source:           TemplateSourceSeed,
			IsActive:         true,
		},
		{
			Name:             "Default Filter",
			Kind:             TemplateKindFilter,
			FastPeriod:       intPtr(21),
			FastRange:        intPtr(3),
			MediumPeriod:     intPtr(34),
			MediumRange:      intPtr(4),
			SlowPeriod:       intPtr(55),
			SlowRange:        intPtr(5),
			FilterMultiplier: floatPtr(1.25),
			Source:           TemplateSourceSeed,
			IsActive:         true,
		},
	}
	if err := r.db.db.Create(&defaults).Error; err != nil {
		return fmt.Errorf("failed to seed default templates: %w", err)
	}
	fmt.Printf("✅ Seeded %d default templates\n", len(defaults))
	return nil
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }
