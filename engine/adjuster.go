package engine

import (
	"math"
)

// FILTER-family condition multipliers: HIGH volatility widens the three
// range fields, LOW volatility lengthens the three period fields. Both are
// monotonic, fast to slow.
var (
	highVolRangeWiden  = [3]float64{1.2, 1.15, 1.1}
	lowVolPeriodLength = [3]float64{1.1, 1.05, 1.05}
)

// adjustInt multiplies an integer field, rounds to the native tick
// resolution, and clamps to the bounded multiple of the original value.
// The clamp bounds are snapped inward to integers so the invariant holds
// after rounding. Non-positive fields are returned untouched: a partial
// template degrades instead of erroring.
func adjustInt(original int, factor float64) int {
	if original <= 0 {
		return original
	}
	v := int(math.Round(float64(original) * factor))
	lo := int(math.Ceil(float64(original) * MinAdjustment))
	hi := int(math.Floor(float64(original) * MaxAdjustment))
	if lo < 1 {
		lo = 1
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// adjustFloat is the float-field counterpart, rounded to two decimals.
func adjustFloat(original, factor float64) float64 {
	if original <= 0 {
		return original
	}
	v := original * factor
	if lo := original * MinAdjustment; v < lo {
		v = lo
	}
	if hi := original * MaxAdjustment; v > hi {
		v = hi
	}
	return math.Round(v*100) / 100
}

// widenInt applies a monotonic widening multiplier: the result never drops
// below the pre-adjustment value.
func widenInt(original int, factor float64) int {
	v := adjustInt(original, factor)
	if v < original {
		return original
	}
	return v
}

// Apply maps the blended factors onto a template's fields by kind and
// returns a new instance; the input is never mutated. Bracket stops and
// targets take their own factors, the break-even pair rides the trailing
// factor. Filter templates treat the stop factor as a volatility proxy on
// the signal multiplier and additionally widen ranges or lengthen periods
// under HIGH or LOW volatility. Fields missing from a partial template are
// skipped.
func Apply(t Template, f AdjustmentFactors, vol VolatilityCategory) Template {
	out := t.Clone()

	switch t.Kind {
	case KindBracket:
		if out.Bracket == nil {
			return out
		}
		b := out.Bracket
		b.StopLoss = adjustInt(b.StopLoss, f.StopLoss)
		b.Target = adjustInt(b.Target, f.Target)
		b.BreakEvenTrigger = adjustInt(b.BreakEvenTrigger, f.TrailingStop)
		b.BreakEvenPlus = adjustInt(b.BreakEvenPlus, f.TrailingStop)

	case KindFilter:
		if out.Filter == nil {
			return out
		}
		fl := out.Filter
		fl.FilterMultiplier = adjustFloat(fl.FilterMultiplier, f.StopLoss)
		switch vol {
		case VolatilityHigh:
			fl.FastRange = widenInt(fl.FastRange, highVolRangeWiden[0])
			fl.MediumRange = widenInt(fl.MediumRange, highVolRangeWiden[1])
			fl.SlowRange = widenInt(fl.SlowRange, highVolRangeWiden[2])
		case VolatilityLow:
			fl.FastPeriod = widenInt(fl.FastPeriod, lowVolPeriodLength[0])
			fl.MediumPeriod = widenInt(fl.MediumPeriod, lowVolPeriodLength[1])
			fl.SlowPeriod = widenInt(fl.SlowPeriod, lowVolPeriodLength[2])
		}
	}

	return out
}
