package engine

import (
	"strings"
)

// Macro categories that make an item relevant regardless of the instrument.
var macroCategories = map[string]bool{
	"volatility":    true,
	"futures":       true,
	"central-bank":  true,
	"economic-data": true,
}

// Phrases that flag macro relevance when no category metadata is present.
var macroKeywords = []string{
	"federal reserve", "fomc", "rate decision", "rate hike", "rate cut",
	"interest rate", "cpi", "inflation", "nonfarm payroll", "jobs report",
	"gdp", "treasury yield", "futures", "volatility", "vix",
}

var positiveKeywords = []string{
	"rally", "surge", "gain", "upbeat", "beat expectations", "record high",
	"optimism", "strong growth", "soft landing", "upgrade", "recovery",
}

var negativeKeywords = []string{
	"selloff", "sell-off", "plunge", "tumble", "slump", "recession",
	"downgrade", "missed expectations", "crisis", "default", "fears",
	"contagion",
}

// Uncertainty/shock vocabulary driving the volatility impact signal.
var uncertaintyKeywords = []string{
	"volatility", "uncertainty", "shock", "surprise", "emergency",
	"geopolitical", "escalation", "crash", "turmoil", "panic", "halted",
}

const (
	// Each keyword hit moves an item's polarity by this much.
	keywordPolarityStep = 0.2
	// Mean polarity must clear this magnitude before the label leaves
	// neutral.
	sentimentLabelBar = 0.3
	// Each uncertainty hit adds this much volatility impact, capped at 1.
	volatilityImpactStep = 0.2
)

func clampUnit(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

func countHits(text string, keywords []string) int {
	hits := 0
	for _, kw := range keywords {
		hits += strings.Count(text, kw)
	}
	return hits
}

func newsText(item NewsItem) string {
	return strings.ToLower(item.Title + " " + item.Body)
}

// isRelevant reports whether an item speaks to the instrument or to the
// macro backdrop the desk trades against.
func isRelevant(item NewsItem, instrument string) bool {
	text := newsText(item)
	if instrument != "" && strings.Contains(text, strings.ToLower(instrument)) {
		return true
	}
	if macroCategories[strings.ToLower(strings.TrimSpace(item.Category))] {
		return true
	}
	for _, kw := range macroKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// itemPolarity scores one item in [-1,1]. A provider-supplied sentiment
// score wins; otherwise the keyword bag decides.
func itemPolarity(item NewsItem) float64 {
	if item.Sentiment != nil {
		return clampUnit(*item.Sentiment)
	}
	text := newsText(item)
	diff := countHits(text, positiveKeywords) - countHits(text, negativeKeywords)
	return clampUnit(keywordPolarityStep * float64(diff))
}

// ScoreImpact reduces a batch of news items to the signal the blender
// consumes. With no relevant items the confidence is low and every numeric
// output is a non-signal the caller must ignore, not a zero-valued signal.
func ScoreImpact(items []NewsItem, instrument string) NewsImpact {
	impact := NewsImpact{
		Sentiment:  SentimentNeutral,
		Confidence: ConfidenceLow,
	}

	relevant := make([]NewsItem, 0, len(items))
	for _, item := range items {
		if isRelevant(item, instrument) {
			relevant = append(relevant, item)
		}
	}
	impact.RelevantItems = len(relevant)
	if len(relevant) == 0 {
		return impact
	}

	polaritySum := 0.0
	uncertaintyHits := 0
	for _, item := range relevant {
		polaritySum += itemPolarity(item)
		uncertaintyHits += countHits(newsText(item), uncertaintyKeywords)
	}

	mean := clampUnit(polaritySum / float64(len(relevant)))
	impact.TrendImpact = mean
	switch {
	case mean > sentimentLabelBar:
		impact.Sentiment = SentimentPositive
	case mean < -sentimentLabelBar:
		impact.Sentiment = SentimentNegative
	}

	vol := volatilityImpactStep * float64(uncertaintyHits)
	if vol > 1 {
		vol = 1
	}
	impact.VolatilityImpact = vol

	if len(relevant) >= 3 {
		impact.Confidence = ConfidenceHigh
	} else {
		impact.Confidence = ConfidenceMedium
	}
	return impact
}
