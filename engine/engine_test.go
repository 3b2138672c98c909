package engine

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"
)

type stubMarketData struct {
	sample *TelemetrySample
	err    error
}

func (s *stubMarketData) GetLatest(ctx context.Context, instrument string) (*TelemetrySample, error) {
	return s.sample, s.err
}

type stubTemplates struct {
	templates []Template
	err       error
}

func (s *stubTemplates) ListByKind(ctx context.Context, kind TemplateKind) ([]Template, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]Template, 0, len(s.templates))
	for _, t := range s.templates {
		if t.Kind == kind {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *stubTemplates) Persist(ctx context.Context, t Template) error {
	return nil
}

type stubBacktests struct {
	records []BacktestRecord
	err     error
}

func (s *stubBacktests) Query(ctx context.Context, timeOfDay string, session Session) ([]BacktestRecord, error) {
	return s.records, s.err
}

type stubNews struct {
	items []NewsItem
	err   error
}

func (s *stubNews) GetRelevant(ctx context.Context, instrument string) ([]NewsItem, error) {
	return s.items, s.err
}

// mondayOpen is a Monday 09:00 in the reference zone, inside the US open.
func mondayOpen() time.Time {
	return time.Date(2026, time.August, 24, 9, 0, 0, 0, referenceLocation())
}

func highVolSample() *TelemetrySample {
	return &TelemetrySample{
		Instrument: "MNQ",
		ATR:        15, ATRAverage: 10,
		Volume: 1300, VolumeAverage: 1000,
		LastPrice:      23500,
		PriceChangePct: 0.1,
		CapturedAt:     mondayOpen(),
	}
}

func newTestEngine(t *testing.T, deps Deps) *Engine {
	t.Helper()
	eng, err := New(DefaultConfig(), deps)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	eng.now = mondayOpen
	return eng
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	if _, err := New(Config{}, Deps{}); err == nil {
		t.Error("expected error for empty config")
	}
}

func TestRecommendSelectsMatchingTemplate(t *testing.T) {
	deps := Deps{
		MarketData: &stubMarketData{sample: highVolSample()},
		Templates: &stubTemplates{templates: []Template{
			{
				Name:    "ASIA_LOW_Scalp",
				Kind:    KindBracket,
				Bracket: &BracketParams{StopLoss: 8, Target: 16, BreakEvenTrigger: 6, BreakEvenPlus: 2},
			},
			{
				Name:    "MO_HIGH_Breakout",
				Kind:    KindBracket,
				Bracket: &BracketParams{StopLoss: 16, Target: 32, BreakEvenTrigger: 12, BreakEvenPlus: 4},
			},
		}},
		Backtests: &stubBacktests{},
		News:      &stubNews{},
	}
	eng := newTestEngine(t, deps)

	rec, err := eng.Recommend(context.Background(), Request{Kind: KindBracket, Instrument: "MNQ"})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}

	if rec.Template.Name != "MO_HIGH_Breakout" {
		t.Errorf("expected MO_HIGH_Breakout selected, got %s", rec.Template.Name)
	}
	if rec.SimilarityScore != 100 {
		t.Errorf("expected similarity 100, got %d", rec.SimilarityScore)
	}
	if rec.Template.IsFallback {
		t.Error("expected a stored template, not the fallback")
	}
	if rec.Condition.Session != SessionUSOpen || rec.Condition.VolatilityCategory != VolatilityHigh {
		t.Errorf("unexpected condition %s/%s", rec.Condition.Session, rec.Condition.VolatilityCategory)
	}
	if !rec.GeneratedAt.Equal(mondayOpen()) {
		t.Errorf("expected injected clock timestamp, got %v", rec.GeneratedAt)
	}

	// High volatility at the open widens the bracket: every adjusted field
	// sits within the bounded multiple of its original.
	b := rec.Template.Bracket
	if b.StopLoss <= 16 || b.StopLoss > 24 {
		t.Errorf("expected widened stop in (16, 24], got %d", b.StopLoss)
	}
	if b.Target <= 32 || b.Target > 48 {
		t.Errorf("expected widened target in (32, 48], got %d", b.Target)
	}
}

func TestRecommendFallsBackWithoutTemplates(t *testing.T) {
	deps := Deps{
		MarketData: &stubMarketData{sample: highVolSample()},
		Templates:  &stubTemplates{},
		Backtests:  &stubBacktests{},
		News:       &stubNews{},
	}
	eng := newTestEngine(t, deps)

	rec, err := eng.Recommend(context.Background(), Request{Kind: KindBracket, Instrument: "MNQ"})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}

	if !rec.Template.IsFallback {
		t.Error("expected fallback template")
	}
	if rec.Template.Kind != KindBracket || rec.Template.Bracket == nil {
		t.Fatalf("expected bracket fallback, got %+v", rec.Template)
	}
	if rec.Confidence != ConfidenceLow {
		t.Errorf("expected low confidence, got %s", rec.Confidence)
	}
	if err := rec.Template.Validate(); err != nil {
		t.Errorf("fallback template invalid: %v", err)
	}
	if !strings.Contains(rec.Rationale, "No stored") {
		t.Errorf("expected fallback rationale, got %q", rec.Rationale)
	}
}

func TestRecommendFilterFallback(t *testing.T) {
	eng := newTestEngine(t, Deps{})

	rec, err := eng.Recommend(context.Background(), Request{Kind: KindFilter, Instrument: "MNQ"})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if rec.Template.Kind != KindFilter || rec.Template.Filter == nil {
		t.Fatalf("expected filter fallback, got %+v", rec.Template)
	}
	if err := rec.Template.Validate(); err != nil {
		t.Errorf("fallback template invalid: %v", err)
	}
}

func TestRecommendRejectsUnknownKind(t *testing.T) {
	eng := newTestEngine(t, Deps{})

	if _, err := eng.Recommend(context.Background(), Request{Kind: "PIVOT"}); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestRecommendBelowBarKeepsFirstCandidate(t *testing.T) {
	deps := Deps{
		// No telemetry: MEDIUM volatility, and the template names carry no
		// condition tokens, so every candidate floors at 20 similarity.
		Templates: &stubTemplates{templates: []Template{
			{Name: "Plain A", Kind: KindBracket, Bracket: &BracketParams{StopLoss: 10, Target: 20, BreakEvenTrigger: 8, BreakEvenPlus: 2}},
			{Name: "Plain B", Kind: KindBracket, Bracket: &BracketParams{StopLoss: 12, Target: 24, BreakEvenTrigger: 9, BreakEvenPlus: 3}},
		}},
	}
	eng := newTestEngine(t, deps)

	rec, err := eng.Recommend(context.Background(), Request{Kind: KindBracket, Instrument: "MNQ"})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}

	if rec.Template.Name != "Plain A" {
		t.Errorf("expected first candidate kept below the bar, got %s", rec.Template.Name)
	}
	if rec.SimilarityScore != SimilarityFloor {
		t.Errorf("expected floor similarity %d, got %d", SimilarityFloor, rec.SimilarityScore)
	}
	if !strings.Contains(rec.Rationale, "matching bar") {
		t.Errorf("expected below-bar rationale, got %q", rec.Rationale)
	}
}

func TestRecommendDegradesOnCollaboratorErrors(t *testing.T) {
	deps := Deps{
		MarketData: &stubMarketData{err: errors.New("feed down")},
		Templates: &stubTemplates{templates: []Template{
			{Name: "MO_HIGH_Breakout", Kind: KindBracket, Bracket: &BracketParams{StopLoss: 16, Target: 32, BreakEvenTrigger: 12, BreakEvenPlus: 4}},
		}},
		Backtests: &stubBacktests{err: errors.New("db down")},
		News:      &stubNews{err: errors.New("scraper down")},
	}
	eng := newTestEngine(t, deps)

	rec, err := eng.Recommend(context.Background(), Request{Kind: KindBracket, Instrument: "MNQ"})
	if err != nil {
		t.Fatalf("expected degraded recommendation, got error: %v", err)
	}

	if !rec.Condition.Degraded() {
		t.Error("expected degraded condition flags")
	}
	if rec.Performance.SampleSize != 0 {
		t.Errorf("expected empty performance sample, got %d", rec.Performance.SampleSize)
	}
	if rec.News.Confidence != ConfidenceLow {
		t.Errorf("expected low news confidence, got %s", rec.News.Confidence)
	}
}

func TestRecommendUsesBacktestEvidence(t *testing.T) {
	created := time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)
	records := make([]BacktestRecord, 0, 5)
	for i := 0; i < 5; i++ {
		records = append(records, backtestRecord(SessionUSOpen, VolatilityHigh, 10, 6, 2.25, 1.5, created.Add(time.Duration(i)*24*time.Hour)))
	}

	deps := Deps{
		MarketData: &stubMarketData{sample: highVolSample()},
		Templates: &stubTemplates{templates: []Template{
			{Name: "MO_HIGH_Breakout", Kind: KindBracket, Bracket: &BracketParams{StopLoss: 16, Target: 32, BreakEvenTrigger: 12, BreakEvenPlus: 4}},
		}},
		Backtests: &stubBacktests{records: records},
		News:      &stubNews{},
	}
	eng := newTestEngine(t, deps)

	rec, err := eng.Recommend(context.Background(), Request{Kind: KindBracket, Instrument: "MNQ"})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}

	if rec.Performance.Confidence != ConfidenceHigh {
		t.Fatalf("expected high backtest confidence, got %s (effective %.1f)",
			rec.Performance.Confidence, rec.Performance.EffectiveTrades)
	}
	if rec.Confidence != ConfidenceHigh {
		t.Errorf("expected high overall confidence, got %s", rec.Confidence)
	}
	// perf score: 1.0 * (0.4*60 + 0.4*75 + 0.2*75) = 69; combined = 0.7*100 + 0.3*69.
	if !almostEqual(rec.CombinedScore, 90.7) {
		t.Errorf("expected combined score 90.7, got %.2f", rec.CombinedScore)
	}

	// High tier: 0.7 on the derived factors, 0.3 on the averaged baselines.
	wantStop := 0.7*1.085 + 0.3*(1.30+1.15)/2
	wantTarget := 0.7*1.175 + 0.3*(1.25+1.10)/2
	wantTrailing := 0.7*1.075 + 0.3*(1.20+1.10)/2
	if !almostEqual(rec.Factors.StopLoss, wantStop) {
		t.Errorf("expected stop factor %.4f, got %.4f", wantStop, rec.Factors.StopLoss)
	}
	if !almostEqual(rec.Factors.Target, wantTarget) {
		t.Errorf("expected target factor %.4f, got %.4f", wantTarget, rec.Factors.Target)
	}
	if !almostEqual(rec.Factors.TrailingStop, wantTrailing) {
		t.Errorf("expected trailing factor %.4f, got %.4f", wantTrailing, rec.Factors.TrailingStop)
	}
	if !strings.Contains(rec.Rationale, "Historical evidence dominated") {
		t.Errorf("expected evidence-led rationale, got %q", rec.Rationale)
	}
}

func TestRecommendIsDeterministic(t *testing.T) {
	deps := Deps{
		MarketData: &stubMarketData{sample: highVolSample()},
		Templates: &stubTemplates{templates: []Template{
			{Name: "MO_HIGH_Breakout", Kind: KindBracket, Bracket: &BracketParams{StopLoss: 16, Target: 32, BreakEvenTrigger: 12, BreakEvenPlus: 4}},
			{Name: "EU_MED_Fade", Kind: KindBracket, Bracket: &BracketParams{StopLoss: 10, Target: 20, BreakEvenTrigger: 8, BreakEvenPlus: 2}},
		}},
		Backtests: &stubBacktests{records: []BacktestRecord{
			backtestRecord(SessionUSOpen, VolatilityHigh, 10, 6, 2.0, 1.2, time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)),
		}},
		News: &stubNews{items: []NewsItem{
			{Title: "Volatility jumps after surprise rate decision", Category: "central-bank"},
		}},
	}
	eng := newTestEngine(t, deps)

	first, err := eng.Recommend(context.Background(), Request{Kind: KindBracket, Instrument: "MNQ"})
	if err != nil {
		t.Fatalf("first Recommend: %v", err)
	}
	second, err := eng.Recommend(context.Background(), Request{Kind: KindBracket, Instrument: "MNQ"})
	if err != nil {
		t.Fatalf("second Recommend: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("expected identical recommendations for identical inputs:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestRecommendHonorsCancelledContext(t *testing.T) {
	eng := newTestEngine(t, Deps{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := eng.Recommend(ctx, Request{Kind: KindBracket, Instrument: "MNQ"}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestPerformanceScore(t *testing.T) {
	eng := newTestEngine(t, Deps{})

	tests := []struct {
		name     string
		summary  PerformanceSummary
		expected float64
	}{
		{"empty sample scores zero", PerformanceSummary{}, 0},
		{
			name: "full reliability",
			summary: PerformanceSummary{
				WinRate: 60, ProfitFactor: 2.25, AverageRR: 1.5,
				SampleSize: 5, EffectiveTrades: 50,
			},
			expected: 69, // 0.4*60 + 0.4*75 + 0.2*75
		},
		{
			name: "thin sample halves the score",
			summary: PerformanceSummary{
				WinRate: 60, ProfitFactor: 2.25, AverageRR: 1.5,
				SampleSize: 2, EffectiveTrades: 10,
			},
			expected: 34.5,
		},
		{
			name: "ratios cap at full marks",
			summary: PerformanceSummary{
				WinRate: 100, ProfitFactor: 9, AverageRR: 8,
				SampleSize: 5, EffectiveTrades: 40,
			},
			expected: 100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := eng.performanceScore(tt.summary); !almostEqual(got, tt.expected) {
				t.Errorf("expected score %.1f, got %.4f", tt.expected, got)
			}
		})
	}
}
