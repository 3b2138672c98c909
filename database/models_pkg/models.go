package models

import "time"

// ParameterTemplate is a stored strategy parameter set the recommendation
// engine adjusts and serves. Bracket and filter templates share one table
// with a kind discriminator; the columns of the other family stay NULL.
//
// Key Fields:
//   - Name: Unique template name; condition tokens in the name (MO, MID,
//     EA, ASIA, EU, ON, LOW, MED, HIGH) drive similarity matching
//   - Kind: BRACKET (stop/target brackets) or FILTER (multi-period filters)
//   - StopLoss/Target/BreakEvenTrigger/BreakEvenPlus: Bracket fields, ticks
//   - FastPeriod..SlowRange/FilterMultiplier: Filter fields
//   - Source: Where the template came from (SEED, IMPORT, API)
//   - IsActive: Inactive templates are excluded from recommendation runs
type ParameterTemplate struct {
	ID   int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"size:120;uniqueIndex;not null" json:"name"`
	Kind string `gorm:"size:10;index;not null" json:"kind"` // BRACKET, FILTER

	// Bracket family, integer ticks.
	StopLoss         *int `json:"stop_loss,omitempty"`
	Target           *int `json:"target,omitempty"`
	BreakEvenTrigger *int `json:"break_even_trigger,omitempty"`
	BreakEvenPlus    *int `json:"break_even_plus,omitempty"`

	// Filter family, period/range pairs fast to slow.
	FastPeriod       *int     `json:"fast_period,omitempty"`
	FastRange        *int     `json:"fast_range,omitempty"`
	MediumPeriod     *int     `json:"medium_period,omitempty"`
	MediumRange      *int     `json:"medium_range,omitempty"`
	SlowPeriod       *int     `json:"slow_period,omitempty"`
	SlowRange        *int     `json:"slow_range,omitempty"`
	FilterMultiplier *float64 `gorm:"type:decimal(6,2)" json:"filter_multiplier,omitempty"`

	Source    string    `gorm:"size:20;default:API" json:"source"` // SEED, IMPORT, API
	IsActive  bool      `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for ParameterTemplate
func (ParameterTemplate) TableName() string {
	return "parameter_templates"
}

// BacktestSession is one stored backtest result under a recorded market
// condition. Sessions are append-only; the engine aggregates them with
// similarity weighting to derive adjustment multipliers.
//
// Key Fields:
//   - TimeOfDay: Coarse bucket (MORNING, AFTERNOON) used for fast lookups
//   - SessionType: The named trading session the run covered
//   - VolatilityCategory: LOW/MEDIUM/HIGH condition at run time
//   - Wins/Losses/TotalTrades: Outcome counts
//   - ProfitFactor: Gross profit over gross loss for the run
//   - AverageRR: Mean realized reward:risk per trade
type BacktestSession struct {
	ID           int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	TemplateName string `gorm:"size:120;index" json:"template_name"`

	TimeOfDay          string  `gorm:"size:20;index:idx_backtests_bucket,priority:1;not null" json:"time_of_day"`
	SessionType        string  `gorm:"size:20;index:idx_backtests_bucket,priority:2;not null" json:"session_type"`
	VolatilityCategory string  `gorm:"size:10" json:"volatility_category"`
	DayOfWeek          *int    `json:"day_of_week,omitempty"` // 0=Sunday .. 6=Saturday
	VolumeLevel        *string `gorm:"size:10" json:"volume_level,omitempty"`

	Wins         int     `gorm:"not null" json:"wins"`
	Losses       int     `gorm:"not null" json:"losses"`
	TotalTrades  int     `gorm:"not null" json:"total_trades"`
	ProfitFactor float64 `gorm:"type:decimal(10,4)" json:"profit_factor"`
	AverageRR    float64 `gorm:"type:decimal(10,4)" json:"average_rr"`

	Notes     string    `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt time.Time `gorm:"index;autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for BacktestSession
func (BacktestSession) TableName() string {
	return "backtest_sessions"
}

// NewsArticle is a fetched news item scored for market impact. The URL is
// unique so repeated polls of the same source do not duplicate rows.
type NewsArticle struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Title       string    `gorm:"type:text;not null" json:"title"`
	Body        string    `gorm:"type:text" json:"body"`
	Source      string    `gorm:"size:60;index" json:"source"`
	Category    string    `gorm:"size:40;index" json:"category"`
	URL         string    `gorm:"size:500;uniqueIndex" json:"url"`
	Sentiment   *float64  `gorm:"type:decimal(5,4)" json:"sentiment,omitempty"` // provider score in [-1,1]
	PublishedAt time.Time `gorm:"index" json:"published_at"`
	FetchedAt   time.Time `gorm:"autoCreateTime" json:"fetched_at"`
}

// TableName specifies the table name for NewsArticle
func (NewsArticle) TableName() string {
	return "news_articles"
}

// RecommendationRecord is one issued recommendation, kept for history and
// outcome review.
//
// Key Fields:
//   - Kind/Instrument: What was recommended and for which contract
//   - TemplateName: The selected (pre-adjustment) template
//   - Payload: The full recommendation document as JSON
//   - Confidence/SimilarityScore/CombinedScore: Selection metrics at issue
//   - Session/VolatilityCategory: Market condition at issue time
//   - Applied/AppliedAt: Whether an operator pushed it to the trading rig
type RecommendationRecord struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	GeneratedAt time.Time `gorm:"index;not null" json:"generated_at"`
	Kind        string    `gorm:"size:10;index:idx_recommendations_kind_time,priority:1;not null" json:"kind"`
	Instrument  string    `gorm:"size:20" json:"instrument"`

	TemplateName    string  `gorm:"size:120" json:"template_name"`
	Payload         string  `gorm:"type:jsonb;not null" json:"payload"`
	Confidence      string  `gorm:"size:10" json:"confidence"` // low, medium, high
	SimilarityScore int     `json:"similarity_score"`
	CombinedScore   float64 `gorm:"type:decimal(6,2)" json:"combined_score"`
	IsFallback      bool    `gorm:"default:false" json:"is_fallback"`

	Session            string `gorm:"size:20" json:"session"`
	VolatilityCategory string `gorm:"size:10" json:"volatility_category"`

	Applied   bool       `gorm:"default:false" json:"applied"`
	AppliedAt *time.Time `json:"applied_at,omitempty"`
}

// TableName specifies the table name for RecommendationRecord
func (RecommendationRecord) TableName() string {
	return "recommendations"
}

// TelemetrySnapshot is one market data reading persisted from the feed.
// The classifier reads the latest snapshot plus trailing averages from
// this table when the cache is cold.
type TelemetrySnapshot struct {
	ID             int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Instrument     string    `gorm:"size:20;index:idx_telemetry_instrument_time,priority:1;not null" json:"instrument"`
	CapturedAt     time.Time `gorm:"index:idx_telemetry_instrument_time,priority:2;not null" json:"captured_at"`
	ATR            float64   `gorm:"type:decimal(15,4)" json:"atr"`
	Volume         float64   `gorm:"type:decimal(20,2)" json:"volume"`
	LastPrice      float64   `gorm:"type:decimal(15,2)" json:"last_price"`
	PriceChangePct float64   `gorm:"type:decimal(10,4)" json:"price_change_pct"`
}

// TableName specifies the table name for TelemetrySnapshot
func (TelemetrySnapshot) TableName() string {
	return "telemetry_snapshots"
}

// WebhookEndpoint holds a webhook registration for recommendation and
// market-condition alerts.
type WebhookEndpoint struct {
	ID            int     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name          string  `gorm:"size:100;not null" json:"name"`
	URL           string  `gorm:"not null" json:"url"`
	Method        string  `gorm:"size:10;default:POST" json:"method"`
	AuthType      string  `gorm:"size:20" json:"auth_type"`
	AuthHeader    string  `gorm:"size:100" json:"auth_header"`
	AuthValue     string  `json:"auth_value"`
	EventTypes    string  `json:"event_types"` // Stored as JSON array
	Instruments   string  `json:"instruments"` // Stored as JSON array
	MinConfidence *string `gorm:"size:10" json:"min_confidence,omitempty"`

	IsActive          bool `gorm:"default:true" json:"is_active"`
	RetryCount        int  `gorm:"default:3" json:"retry_count"`
	RetryDelaySeconds int  `gorm:"default:5" json:"retry_delay_seconds"`
	TimeoutSeconds    int  `gorm:"default:10" json:"timeout_seconds"`

	LastTriggeredAt *time.Time `json:"last_triggered_at,omitempty"`
	LastSuccessAt   *time.Time `json:"last_success_at,omitempty"`
	LastError       string     `json:"last_error,omitempty"`
	TotalSent       int        `gorm:"default:0" json:"total_sent"`
	TotalFailed     int        `gorm:"default:0" json:"total_failed"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for WebhookEndpoint
func (WebhookEndpoint) TableName() string {
	return "recommendation_webhooks"
}

// WebhookDeliveryLog holds webhook delivery attempts and outcomes
type WebhookDeliveryLog struct {
	ID               int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	WebhookID        int       `gorm:"index;not null" json:"webhook_id"`
	RecommendationID *int64    `json:"recommendation_id,omitempty"`
	TriggeredAt      time.Time `gorm:"index;not null" json:"triggered_at"`
	Status           string    `gorm:"type:text" json:"status"` // SUCCESS, FAILED, TIMEOUT
	HTTPStatusCode   *int      `json:"http_status_code,omitempty"`
	ResponseBody     string    `json:"response_body,omitempty"`
	ErrorMessage     string    `json:"error_message,omitempty"`
	RetryAttempt     int       `gorm:"default:0" json:"retry_attempt"`
}

// TableName specifies the table name for WebhookDeliveryLog
func (WebhookDeliveryLog) TableName() string {
	return "webhook_delivery_logs"
}
