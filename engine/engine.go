// Package engine implements the adaptive parameter recommendation engine.
// It classifies current market state, scores candidate templates against
// it, weighs similarity-weighted backtest evidence, folds in a news
// signal, and produces an adjusted template with an explainable confidence
// level. The engine is pure computation over plain values: all I/O happens
// behind the four collaborator interfaces, and no state survives a call.
package engine

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"
)

// MarketDataProvider supplies the latest volatility/volume telemetry for an
// instrument. Returning (nil, nil) means no data is available.
type MarketDataProvider interface {
	GetLatest(ctx context.Context, instrument string) (*TelemetrySample, error)
}

// TemplateStore supplies named parameter templates by kind and persists
// adjusted ones. Persist is called by the engine's callers, never by the
// engine itself.
type TemplateStore interface {
	ListByKind(ctx context.Context, kind TemplateKind) ([]Template, error)
	Persist(ctx context.Context, t Template) error
}

// BacktestStore supplies historical backtest records for a time-of-day
// bucket and session.
type BacktestStore interface {
	Query(ctx context.Context, timeOfDay string, session Session) ([]BacktestRecord, error)
}

// NewsProvider supplies raw news items for an instrument. Relevance and
// sentiment heuristics live in this package, not in the provider.
type NewsProvider interface {
	GetRelevant(ctx context.Context, instrument string) ([]NewsItem, error)
}

// Deps bundles the collaborators an engine consults.
type Deps struct {
	MarketData MarketDataProvider
	Templates  TemplateStore
	Backtests  BacktestStore
	News       NewsProvider
}

// Request asks for a recommendation for one template kind.
type Request struct {
	Kind       TemplateKind `json:"kind"`
	Instrument string       `json:"instrument"`
}

// Engine sequences the recommendation pipeline. It holds only immutable
// configuration and collaborator references: two calls with identical
// inputs and identical collaborator responses produce identical
// recommendations.
type Engine struct {
	cfg  Config
	deps Deps
	now  func() time.Time
}

// New builds an engine. The config tables are validated up front; an
// invalid table set is a deployment defect, not a runtime condition.
func New(cfg Config, deps Deps) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}
	return &Engine{cfg: cfg, deps: deps, now: time.Now}, nil
}

// Config exposes the active table set for the config API. Callers must
// treat it as read-only.
func (e *Engine) Config() Config {
	return e.cfg
}

// Candidate selection weighting: similarity dominates, historical
// performance breaks ties and gates weak regimes.
const (
	combinedSimilarityWeight  = 0.7
	combinedPerformanceWeight = 0.3

	perfWinRateWeight = 0.4
	perfPFWeight      = 0.4
	perfRRWeight      = 0.2

	// Normalization ceilings: a 3.0 profit factor or 2:1 reward:risk
	// already earns full marks.
	perfPFCeiling = 3.0
	perfRRCeiling = 2.0
)

// performanceScore converts the aggregate summary into a 0-100 score,
// scaled by sample-size reliability so thin evidence cannot dominate
// selection.
func (e *Engine) performanceScore(summary PerformanceSummary) float64 {
	if summary.SampleSize == 0 {
		return 0
	}
	wr := math.Max(0, math.Min(summary.WinRate, 100))
	pf := math.Max(0, math.Min(summary.ProfitFactor/perfPFCeiling, 1)) * 100
	rr := math.Max(0, math.Min(summary.AverageRR/perfRRCeiling, 1)) * 100
	reliability := math.Min(summary.EffectiveTrades/e.cfg.ReliabilitySamples, 1)
	return reliability * (perfWinRateWeight*wr + perfPFWeight*pf + perfRRWeight*rr)
}

type scoredCandidate struct {
	template   Template
	similarity int
	combined   float64
}

// Recommend runs the full pipeline for one template kind. Collaborator
// failures degrade to the documented neutral inputs; the only errors
// returned are context cancellation and an unknown kind.
func (e *Engine) Recommend(ctx context.Context, req Request) (*Recommendation, error) {
	if req.Kind != KindBracket && req.Kind != KindFilter {
		return nil, fmt.Errorf("recommend: unknown template kind %q", req.Kind)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := e.now()

	var sample *TelemetrySample
	if e.deps.MarketData != nil {
		if s, err := e.deps.MarketData.GetLatest(ctx, req.Instrument); err == nil {
			sample = s
		}
	}
	cond := Classify(now, sample)

	var candidates []Template
	if e.deps.Templates != nil {
		if list, err := e.deps.Templates.ListByKind(ctx, req.Kind); err == nil {
			candidates = list
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return e.fallbackRecommendation(req, cond, now), nil
	}

	var records []BacktestRecord
	if e.deps.Backtests != nil {
		if recs, err := e.deps.Backtests.Query(ctx, TimeOfDayFor(cond.Session), cond.Session); err == nil {
			records = recs
		}
	}
	summary := Aggregate(cond, records)
	perfTrend := AnalyzeTrend(records)
	perfScore := e.performanceScore(summary)

	// Candidates are independent; score them in parallel with
	// index-addressed results so nothing is shared.
	scored := make([]scoredCandidate, len(candidates))
	var wg sync.WaitGroup
	for i, tpl := range candidates {
		wg.Add(1)
		go func(i int, tpl Template) {
			defer wg.Done()
			sim := Score(cond, InferCondition(tpl.Name))
			scored[i] = scoredCandidate{
				template:   tpl,
				similarity: sim,
				combined:   combinedSimilarityWeight*float64(sim) + combinedPerformanceWeight*perfScore,
			}
		}(i, tpl)
	}
	wg.Wait()

	best := scored[0]
	for _, c := range scored[1:] {
		if c.combined > best.combined {
			best = c
		}
	}

	belowBar := best.combined < e.cfg.MinCombinedScore
	if belowBar {
		// Nothing matched well. Keep the first available template rather
		// than returning no recommendation.
		best = scored[0]
	}

	var items []NewsItem
	if e.deps.News != nil {
		if list, err := e.deps.News.GetRelevant(ctx, req.Instrument); err == nil {
			items = list
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	news := ScoreImpact(items, req.Instrument)

	factors := Blend(e.cfg, cond, summary, perfTrend, news)
	adjusted := Apply(best.template, factors, cond.VolatilityCategory)

	confidence := CombineConfidence(
		e.cfg.ConfidenceWeights,
		ParameterConfidence(best.similarity),
		news.Confidence,
		summary.Confidence,
	)

	rec := &Recommendation{
		Template:        adjusted,
		Performance:     summary,
		Condition:       cond,
		News:            news,
		Confidence:      confidence,
		SimilarityScore: best.similarity,
		CombinedScore:   math.Round(best.combined*10) / 10,
		Factors:         factors,
		GeneratedAt:     now,
	}
	rec.Rationale = e.rationale(rec, perfTrend, belowBar)
	return rec, nil
}

// Safe defaults issued when the store has no templates of the requested
// kind. Values are the desk's baseline micro-futures parameters.
func defaultTemplate(kind TemplateKind) Template {
	switch kind {
	case KindFilter:
		return Template{
			Name: "Default Filter",
			Kind: KindFilter,
			Filter: &FilterParams{
				FastPeriod:       21,
				FastRange:        3,
				MediumPeriod:     34,
				MediumRange:      4,
				SlowPeriod:       55,
				SlowRange:        5,
				FilterMultiplier: 1.25,
			},
			IsFallback: true,
		}
	default:
		return Template{
			Name: "Default Bracket",
			Kind: KindBracket,
			Bracket: &BracketParams{
				StopLoss:         16,
				Target:           32,
				BreakEvenTrigger: 12,
				BreakEvenPlus:    4,
			},
			IsFallback: true,
		}
	}
}

func (e *Engine) fallbackRecommendation(req Request, cond MarketCondition, now time.Time) *Recommendation {
	return &Recommendation{
		Template: defaultTemplate(req.Kind),
		Performance: PerformanceSummary{
			Confidence: ConfidenceLow,
			Factors:    NeutralFactors(),
		},
		Condition:  cond,
		News:       NewsImpact{Sentiment: SentimentNeutral, Confidence: ConfidenceLow},
		Confidence: ConfidenceLow,
		Factors:    NeutralFactors(),
		Rationale: fmt.Sprintf("No stored %s templates were available; issuing the safe default parameter set for the %s session.",
			req.Kind, cond.Session),
		GeneratedAt: now,
	}
}

// rationale renders the operator-facing explanation from the same values
// that drove the decision, so the text cannot drift from the numbers.
func (e *Engine) rationale(rec *Recommendation, perfTrend PerformanceTrend, belowBar bool) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s session with %s volatility", rec.Condition.Session, rec.Condition.VolatilityCategory)
	if rec.Condition.Trend != TrendNeutral {
		fmt.Fprintf(&b, ", %s bias", strings.ReplaceAll(string(rec.Condition.Trend), "_", " "))
	}
	b.WriteString(". ")

	if belowBar {
		fmt.Fprintf(&b, "No candidate cleared the %.0f-point matching bar; defaulting to %q. ",
			e.cfg.MinCombinedScore, rec.Template.Name)
	} else {
		fmt.Fprintf(&b, "Template %q matched conditions at %d/100. ", rec.Template.Name, rec.SimilarityScore)
	}

	switch rec.Performance.Confidence {
	case ConfidenceHigh:
		fmt.Fprintf(&b, "Historical evidence dominated the adjustment: %d similar sessions, weighted win rate %.1f%%, profit factor %.2f. ",
			rec.Performance.SampleSize, rec.Performance.WinRate, rec.Performance.ProfitFactor)
	case ConfidenceMedium:
		fmt.Fprintf(&b, "Adjustments balanced %d historical sessions against the condition baselines. ",
			rec.Performance.SampleSize)
	default:
		if rec.Performance.SampleSize == 0 {
			b.WriteString("No comparable backtests; condition baselines drove the adjustment. ")
		} else {
			fmt.Fprintf(&b, "Historical sample too thin (%d sessions); condition baselines drove the adjustment. ",
				rec.Performance.SampleSize)
		}
	}

	switch perfTrend {
	case TrendStrongImproving, TrendImproving:
		b.WriteString("Recent results are improving; targets extended. ")
	case TrendStrongDeclining, TrendDeclining:
		b.WriteString("Recent results are declining; targets trimmed. ")
	}

	if rec.News.Confidence != ConfidenceLow {
		switch {
		case rec.News.VolatilityImpact > 0 && rec.News.Sentiment != SentimentNeutral:
			fmt.Fprintf(&b, "News flow (%d relevant items, %s) signals added uncertainty; stops and targets widened. ",
				rec.News.RelevantItems, rec.News.Sentiment)
		case rec.News.VolatilityImpact > 0:
			fmt.Fprintf(&b, "News flow (%d relevant items) signals added uncertainty; stops widened. ",
				rec.News.RelevantItems)
		case rec.News.Sentiment != SentimentNeutral:
			fmt.Fprintf(&b, "News sentiment is %s; targets widened. ", rec.News.Sentiment)
		}
	}

	if rec.Condition.Degraded() {
		fmt.Fprintf(&b, "Degraded inputs: %s. ", strings.Join(rec.Condition.DataFlags, ", "))
	}

	fmt.Fprintf(&b, "Confidence: %s.", rec.Confidence)
	return b.String()
}
