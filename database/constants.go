package database

import "time"

// Time interval constants for TimescaleDB operations
const (
	// Hypertable chunk intervals
	ChunkInterval1Day  = 1 * 24 * time.Hour
	ChunkInterval7Days = 7 * 24 * time.Hour

	// Data retention policies
	RetentionTelemetry   = 30 * 24 * time.Hour
	RetentionWebhookLogs = 30 * 24 * time.Hour
)

// Template source labels stored in parameter_templates.source
const (
	TemplateSourceSeed   = "SEED"
	TemplateSourceImport = "IMPORT"
	TemplateSourceAPI    = "API"
)

// Template kind labels stored in parameter_templates.kind
const (
	TemplateKindBracket = "BRACKET"
	TemplateKindFilter  = "FILTER"
)

// Time-of-day buckets stored on backtest sessions
const (
	TimeOfDayMorning   = "MORNING"
	TimeOfDayAfternoon = "AFTERNOON"
)

// Backtest aggregation windows
const (
	BacktestLookbackDaysDefault = 90
	BacktestLookbackDaysMax     = 365
)

// Telemetry windows for the condition classifier
const (
	// Trailing window for ATR and volume averages
	TelemetryAverageWindow = 2 * time.Hour

	// Snapshots older than this are not served as the latest reading
	TelemetryStaleAfter = 5 * time.Minute
)

// News query windows
const (
	NewsRecentWindow = 24 * time.Hour
)

// Recommendation serving
const (
	// Stored rows older than this are not served in place of a fresh run
	RecommendationStaleAfter = 10 * time.Minute
)

// Query limits
const (
	DefaultLimit = 50
	MaxLimit     = 500
	HistoryLimit = 100
)

// Webhook delivery fallbacks when an endpoint leaves them unset
const (
	WebhookDefaultRetries    = 3
	WebhookDefaultTimeoutSec = 10
)

// Dashboard win-rate classification thresholds
const (
	DashboardStrongWinRate = 55.0
	DashboardWeakWinRate   = 45.0
)
