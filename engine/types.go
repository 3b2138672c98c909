package engine

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Session identifies a named trading-hours window in the reference time zone
// (CME floor time, America/Chicago).
type Session string

const (
	SessionAsia        Session = "ASIA"
	SessionEurope      Session = "EUROPE"
	SessionUSOpen      Session = "US_OPEN"
	SessionUSMidday    Session = "US_MIDDAY"
	SessionUSAfternoon Session = "US_AFTERNOON"
	SessionOvernight   Session = "OVERNIGHT"
)

// Coarse halves of the trading day, used for backtest lookups and for
// partial-credit session matching.
const (
	TimeOfDayMorning   = "MORNING"
	TimeOfDayAfternoon = "AFTERNOON"
)

// TimeOfDayFor returns the coarse bucket a session belongs to.
func TimeOfDayFor(s Session) string {
	switch s {
	case SessionEurope, SessionUSOpen, SessionUSMidday:
		return TimeOfDayMorning
	default:
		return TimeOfDayAfternoon
	}
}

// VolatilityCategory is the LOW/MEDIUM/HIGH classification of current
// market turbulence.
type VolatilityCategory string

const (
	VolatilityLow    VolatilityCategory = "LOW"
	VolatilityMedium VolatilityCategory = "MEDIUM"
	VolatilityHigh   VolatilityCategory = "HIGH"
)

// rank places categories on the ordered scale LOW < MEDIUM < HIGH.
// Unknown categories rank -1 and never match anything.
func (v VolatilityCategory) rank() int {
	switch v {
	case VolatilityLow:
		return 0
	case VolatilityMedium:
		return 1
	case VolatilityHigh:
		return 2
	}
	return -1
}

// Trend labels the directional bias read from recent price action.
type Trend string

const (
	TrendStrongBullish Trend = "strong_bullish"
	TrendBullish       Trend = "bullish"
	TrendNeutral       Trend = "neutral"
	TrendBearish       Trend = "bearish"
	TrendStrongBearish Trend = "strong_bearish"
)

// VolumeLevel is the coarse volume label used as a low-weight similarity
// factor.
type VolumeLevel string

const (
	VolumeLow    VolumeLevel = "LOW"
	VolumeNormal VolumeLevel = "NORMAL"
	VolumeHigh   VolumeLevel = "HIGH"
)

// PerformanceTrend labels the direction of profit factor across the most
// recent backtest periods.
type PerformanceTrend string

const (
	TrendStrongImproving PerformanceTrend = "STRONG_IMPROVING"
	TrendImproving       PerformanceTrend = "IMPROVING"
	TrendStable          PerformanceTrend = "STABLE"
	TrendDeclining       PerformanceTrend = "DECLINING"
	TrendStrongDeclining PerformanceTrend = "STRONG_DECLINING"
)

// ConfidenceLevel is an ordinal label summarizing how much evidence backs a
// signal. It serializes as its label, never as a bare number.
type ConfidenceLevel int

const (
	ConfidenceLow ConfidenceLevel = iota + 1
	ConfidenceMedium
	ConfidenceHigh
)

func (c ConfidenceLevel) String() string {
	switch c {
	case ConfidenceHigh:
		return "high"
	case ConfidenceMedium:
		return "medium"
	}
	return "low"
}

// MarshalJSON emits the label.
func (c ConfidenceLevel) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON accepts a label.
func (c *ConfidenceLevel) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseConfidence(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseConfidence maps a low/medium/high label to its ordinal level.
func ParseConfidence(s string) (ConfidenceLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return ConfidenceLow, nil
	case "medium":
		return ConfidenceMedium, nil
	case "high":
		return ConfidenceHigh, nil
	}
	return 0, fmt.Errorf("unknown confidence level %q", s)
}

// Data-quality flags set by the classifier when inputs are degraded.
// Flags are informational for callers and rationale text, never errors.
const (
	FlagMissingTelemetry  = "telemetry_missing"
	FlagNoATRAverage      = "atr_average_unavailable"
	FlagNoVolumeAverage   = "volume_average_unavailable"
	FlagStaleTelemetry    = "telemetry_stale"
	FlagNoPriceChangeData = "price_change_unavailable"
)

// MarketCondition is the classifier's snapshot of the market at one instant.
// It is an immutable value constructed fresh per recommendation request.
type MarketCondition struct {
	Session            Session            `json:"session"`
	VolatilityCategory VolatilityCategory `json:"volatility_category"`
	VolatilityScore    float64            `json:"volatility_score"`
	Trend              Trend              `json:"trend"`
	VolumeLevel        VolumeLevel        `json:"volume_level"`
	DayOfWeek          time.Weekday       `json:"day_of_week"`
	Timestamp          time.Time          `json:"timestamp"`
	DataFlags          []string           `json:"data_flags,omitempty"`
}

// Degraded reports whether any data-quality flag was raised during
// classification.
func (m MarketCondition) Degraded() bool {
	return len(m.DataFlags) > 0
}

// TemplateKind tags the two parameter-template families.
type TemplateKind string

const (
	// KindBracket is the stop/target bracket family (ATM strategies in
	// NinjaTrader terms). All fields are integer ticks.
	KindBracket TemplateKind = "BRACKET"
	// KindFilter is the multi-period filter family (Flazh-style trend
	// filters).
	KindFilter TemplateKind = "FILTER"
)

// ParseTemplateKind maps a kind string, tolerating the legacy ATM/Flazh
// spellings still present in older template exports.
func ParseTemplateKind(s string) (TemplateKind, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BRACKET", "ATM":
		return KindBracket, nil
	case "FILTER", "FLAZH":
		return KindFilter, nil
	}
	return "", fmt.Errorf("unknown template kind %q", s)
}

// BracketParams are the bracket-family fields, all in integer ticks.
type BracketParams struct {
	StopLoss         int `json:"stop_loss"`
	Target           int `json:"target"`
	BreakEvenTrigger int `json:"break_even_trigger"`
	BreakEvenPlus    int `json:"break_even_plus"`
}

// FilterParams are the multi-period-filter fields: three period/range pairs
// plus the signal filter multiplier.
type FilterParams struct {
	FastPeriod       int     `json:"fast_period"`
	FastRange        int     `json:"fast_range"`
	MediumPeriod     int     `json:"medium_period"`
	MediumRange      int     `json:"medium_range"`
	SlowPeriod       int     `json:"slow_period"`
	SlowRange        int     `json:"slow_range"`
	FilterMultiplier float64 `json:"filter_multiplier"`
}

// Template is a named strategy parameter set. Exactly one of Bracket or
// Filter is populated, matching Kind; Kind never changes after construction.
type Template struct {
	Name       string         `json:"name"`
	Kind       TemplateKind   `json:"kind"`
	Bracket    *BracketParams `json:"bracket,omitempty"`
	Filter     *FilterParams  `json:"filter,omitempty"`
	IsFallback bool           `json:"is_fallback,omitempty"`
}

// Clone returns a deep copy. Adjustments always operate on a clone so the
// source template is never aliased or mutated.
func (t Template) Clone() Template {
	out := t
	if t.Bracket != nil {
		b := *t.Bracket
		out.Bracket = &b
	}
	if t.Filter != nil {
		f := *t.Filter
		out.Filter = &f
	}
	return out
}

// Validate checks the kind-specific invariant: the variant matching Kind is
// present and every numeric field is positive.
func (t Template) Validate() error {
	switch t.Kind {
	case KindBracket:
		if t.Bracket == nil {
			return fmt.Errorf("template %q: bracket fields missing", t.Name)
		}
		b := t.Bracket
		for _, f := range []struct {
			name  string
			value int
		}{
			{"stop_loss", b.StopLoss},
			{"target", b.Target},
			{"break_even_trigger", b.BreakEvenTrigger},
			{"break_even_plus", b.BreakEvenPlus},
		} {
			if f.value <= 0 {
				return fmt.Errorf("template %q: %s must be positive, got %d", t.Name, f.name, f.value)
			}
		}
	case KindFilter:
		if t.Filter == nil {
			return fmt.Errorf("template %q: filter fields missing", t.Name)
		}
		f := t.Filter
		for _, p := range []struct {
			name  string
			value int
		}{
			{"fast_period", f.FastPeriod},
			{"fast_range", f.FastRange},
			{"medium_period", f.MediumPeriod},
			{"medium_range", f.MediumRange},
			{"slow_period", f.SlowPeriod},
			{"slow_range", f.SlowRange},
		} {
			if p.value <= 0 {
				return fmt.Errorf("template %q: %s must be positive, got %d", t.Name, p.name, p.value)
			}
		}
		if f.FilterMultiplier <= 0 {
			return fmt.Errorf("template %q: filter_multiplier must be positive, got %v", t.Name, f.FilterMultiplier)
		}
	default:
		return fmt.Errorf("template %q: unknown kind %q", t.Name, t.Kind)
	}
	return nil
}

// InferredCondition is the partial market condition extracted from a
// template name or a backtest snapshot. A nil field means "no evidence",
// not "match anything".
type InferredCondition struct {
	Session     *Session
	Volatility  *VolatilityCategory
	DayOfWeek   *time.Weekday
	VolumeLevel *VolumeLevel
}

// ConditionSnapshot is the market condition a backtest ran under.
type ConditionSnapshot struct {
	Session            Session            `json:"session"`
	VolatilityCategory VolatilityCategory `json:"volatility_category"`
	DayOfWeek          *time.Weekday      `json:"day_of_week,omitempty"`
	VolumeLevel        *VolumeLevel       `json:"volume_level,omitempty"`
}

// Inferred converts the snapshot into the partial-condition form consumed
// by the similarity scorer.
func (c ConditionSnapshot) Inferred() InferredCondition {
	inf := InferredCondition{DayOfWeek: c.DayOfWeek, VolumeLevel: c.VolumeLevel}
	if c.Session != "" {
		s := c.Session
		inf.Session = &s
	}
	if c.VolatilityCategory != "" {
		v := c.VolatilityCategory
		inf.Volatility = &v
	}
	return inf
}

// BacktestPerformance is the outcome summary of one backtest run.
type BacktestPerformance struct {
	Wins         int     `json:"wins"`
	Losses       int     `json:"losses"`
	TotalTrades  int     `json:"total_trades"`
	ProfitFactor float64 `json:"profit_factor"`
	AverageRR    float64 `json:"average_rr"`
}

// WinRate returns the win percentage, 0 when no trades were taken.
func (p BacktestPerformance) WinRate() float64 {
	if p.TotalTrades <= 0 {
		return 0
	}
	return float64(p.Wins) / float64(p.TotalTrades) * 100
}

// BacktestRecord is one stored backtest result. Records are append-only and
// the engine never mutates them.
type BacktestRecord struct {
	TimeOfDay   string              `json:"time_of_day"`
	SessionType Session             `json:"session_type"`
	Conditions  ConditionSnapshot   `json:"conditions"`
	Performance BacktestPerformance `json:"performance"`
	CreatedAt   time.Time           `json:"created_at"`
}

// Hard bounds on any composed multiplier, enforced as a post-condition
// wherever adjustment factors are produced.
const (
	MinAdjustment = 0.7
	MaxAdjustment = 1.5
)

func clampFactor(v float64) float64 {
	if v < MinAdjustment {
		return MinAdjustment
	}
	if v > MaxAdjustment {
		return MaxAdjustment
	}
	return v
}

// AdjustmentFactors are the per-field multipliers applied to a template's
// numeric fields.
type AdjustmentFactors struct {
	StopLoss     float64 `json:"stop_loss"`
	Target       float64 `json:"target"`
	TrailingStop float64 `json:"trailing_stop"`
}

// NeutralFactors returns the no-op multiplier set.
func NeutralFactors() AdjustmentFactors {
	return AdjustmentFactors{StopLoss: 1.0, Target: 1.0, TrailingStop: 1.0}
}

// Clamped forces every field into [MinAdjustment, MaxAdjustment].
func (f AdjustmentFactors) Clamped() AdjustmentFactors {
	return AdjustmentFactors{
		StopLoss:     clampFactor(f.StopLoss),
		Target:       clampFactor(f.Target),
		TrailingStop: clampFactor(f.TrailingStop),
	}
}

// PerformanceSummary is the similarity-weighted aggregate of eligible
// backtest records plus the adjustment multipliers derived from it.
type PerformanceSummary struct {
	WinRate         float64           `json:"win_rate"`
	ProfitFactor    float64           `json:"profit_factor"`
	AverageRR       float64           `json:"average_rr"`
	SampleSize      int               `json:"sample_size"`
	EffectiveTrades float64           `json:"effective_trades"`
	Confidence      ConfidenceLevel   `json:"confidence"`
	Factors         AdjustmentFactors `json:"factors"`
}

// NewsItem is a raw news item supplied by the news provider. Sentiment is
// the provider's own score in [-1,1] when it has one; the scorer falls back
// to keyword heuristics otherwise.
type NewsItem struct {
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	Source      string    `json:"source"`
	Category    string    `json:"category"`
	Sentiment   *float64  `json:"sentiment,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}

// SentimentLabel is the coarse polarity label the news scorer emits.
type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "positive"
	SentimentNeutral  SentimentLabel = "neutral"
	SentimentNegative SentimentLabel = "negative"
)

// NewsImpact is the scored news signal consumed by the blender. When
// Confidence is low the numeric fields carry no signal and must be ignored.
type NewsImpact struct {
	Sentiment        SentimentLabel  `json:"sentiment"`
	VolatilityImpact float64         `json:"volatility_impact"`
	TrendImpact      float64         `json:"trend_impact"`
	Confidence       ConfidenceLevel `json:"confidence"`
	RelevantItems    int             `json:"relevant_items"`
}

// TelemetrySample is the market data provider's latest reading for an
// instrument. Zero-valued averages mean no trailing window was available.
type TelemetrySample struct {
	Instrument     string    `json:"instrument"`
	ATR            float64   `json:"atr"`
	ATRAverage     float64   `json:"atr_average"`
	Volume         float64   `json:"volume"`
	VolumeAverage  float64   `json:"volume_average"`
	LastPrice      float64   `json:"last_price"`
	PriceChangePct float64   `json:"price_change_pct"`
	CapturedAt     time.Time `json:"captured_at"`
}

// Recommendation is the engine's final output for one template kind.
type Recommendation struct {
	Template        Template           `json:"template"`
	Performance     PerformanceSummary `json:"performance"`
	Condition       MarketCondition    `json:"condition"`
	News            NewsImpact         `json:"news"`
	Confidence      ConfidenceLevel    `json:"confidence"`
	SimilarityScore int                `json:"similarity_score"`
	CombinedScore   float64            `json:"combined_score"`
	Factors         AdjustmentFactors  `json:"factors"`
	Rationale       string             `json:"rationale"`
	GeneratedAt     time.Time          `json:"generated_at"`
}
