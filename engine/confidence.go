package engine

// Similarity cutoffs mapping a candidate's match quality to the parameter
// confidence input.
const (
	similarityHighBar   = 75
	similarityMediumBar = 45
)

// ParameterConfidence labels how well the chosen template matched current
// conditions.
func ParameterConfidence(similarity int) ConfidenceLevel {
	switch {
	case similarity >= similarityHighBar:
		return ConfidenceHigh
	case similarity >= similarityMediumBar:
		return ConfidenceMedium
	}
	return ConfidenceLow
}

// Label thresholds on the weighted ordinal mean.
const (
	confidenceHighBar   = 2.5
	confidenceMediumBar = 1.7
)

func ordinal(c ConfidenceLevel) float64 {
	if c < ConfidenceLow || c > ConfidenceHigh {
		return float64(ConfidenceLow)
	}
	return float64(c)
}

// CombineConfidence reduces the component confidences to the overall label.
// Backtest evidence dominates per the configured weights.
func CombineConfidence(w ConfidenceWeights, parameter, news, backtest ConfidenceLevel) ConfidenceLevel {
	total := w.Parameter + w.News + w.Backtest
	if total <= 0 {
		return ConfidenceLow
	}
	score := (w.Parameter*ordinal(parameter) + w.News*ordinal(news) + w.Backtest*ordinal(backtest)) / total
	switch {
	case score >= confidenceHighBar:
		return ConfidenceHigh
	case score >= confidenceMediumBar:
		return ConfidenceMedium
	}
	return ConfidenceLow
}
