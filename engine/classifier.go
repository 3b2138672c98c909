package engine

import (
	"sync"
	"time"
)

// Session boundaries in CME floor time. The table covers the full 24 hours;
// the Asia window wraps midnight.
type sessionWindow struct {
	session   Session
	startHour int
	startMin  int
	endHour   int
	endMin    int
}

var sessionTable = []sessionWindow{
	{SessionAsia, 18, 0, 2, 0},
	{SessionEurope, 2, 0, 8, 30},
	{SessionUSOpen, 8, 30, 10, 30},
	{SessionUSMidday, 10, 30, 14, 0},
	{SessionUSAfternoon, 14, 0, 16, 0},
	{SessionOvernight, 16, 0, 18, 0},
}

var (
	chicagoOnce sync.Once
	chicagoLoc  *time.Location
)

// referenceLocation returns CME floor time, falling back to a fixed CST
// offset when the tz database is not available in the container.
func referenceLocation() *time.Location {
	chicagoOnce.Do(func() {
		loc, err := time.LoadLocation("America/Chicago")
		if err != nil {
			loc = time.FixedZone("CST", -6*60*60)
		}
		chicagoLoc = loc
	})
	return chicagoLoc
}

// SessionFor maps an instant to its trading session. The lookup is total:
// every minute of the day belongs to exactly one window, and anything that
// slips through (it should not) lands in the overnight session.
func SessionFor(t time.Time) Session {
	local := t.In(referenceLocation())
	minutes := local.Hour()*60 + local.Minute()

	for _, w := range sessionTable {
		start := w.startHour*60 + w.startMin
		end := w.endHour*60 + w.endMin
		if start > end {
			// Window wraps midnight.
			if minutes >= start || minutes < end {
				return w.session
			}
			continue
		}
		if minutes >= start && minutes < end {
			return w.session
		}
	}
	return SessionOvernight
}

// Ratio thresholds for the volatility vote. A reading far above its trailing
// average votes +2, moderately above votes +1, and the mirror ratios vote
// the negative amounts.
const (
	volRatioStrong = 1.5
	volRatioMild   = 1.1
)

// ratioVote scores one current/average ratio. A non-positive average is
// treated as no evidence and votes 0.
func ratioVote(current, average float64) int {
	if average <= 0 || current <= 0 {
		return 0
	}
	ratio := current / average
	switch {
	case ratio >= volRatioStrong:
		return 2
	case ratio >= volRatioMild:
		return 1
	case ratio <= 1/volRatioStrong:
		return -2
	case ratio <= 1/volRatioMild:
		return -1
	}
	return 0
}

// Price-change thresholds (percent) for the trend label.
const (
	trendStrongPct = 1.5
	trendMildPct   = 0.3
)

// Telemetry older than this gets the stale flag but is still classified.
const telemetryStaleAfter = 5 * time.Minute

func trendFor(changePct float64) Trend {
	switch {
	case changePct >= trendStrongPct:
		return TrendStrongBullish
	case changePct >= trendMildPct:
		return TrendBullish
	case changePct <= -trendStrongPct:
		return TrendStrongBearish
	case changePct <= -trendMildPct:
		return TrendBearish
	}
	return TrendNeutral
}

// volumeLevelFor labels current volume against its trailing average.
func volumeLevelFor(volume, average float64) VolumeLevel {
	if average <= 0 || volume <= 0 {
		return VolumeNormal
	}
	ratio := volume / average
	switch {
	case ratio >= 1.3:
		return VolumeHigh
	case ratio <= 0.7:
		return VolumeLow
	}
	return VolumeNormal
}

// Classify builds a MarketCondition from the clock and the latest telemetry.
// A nil sample degrades to MEDIUM volatility and a neutral trend with the
// appropriate data-quality flags set; it is never an error.
func Classify(now time.Time, sample *TelemetrySample) MarketCondition {
	local := now.In(referenceLocation())
	cond := MarketCondition{
		Session:            SessionFor(now),
		VolatilityCategory: VolatilityMedium,
		VolatilityScore:    1.0,
		Trend:              TrendNeutral,
		VolumeLevel:        VolumeNormal,
		DayOfWeek:          local.Weekday(),
		Timestamp:          now,
	}

	if sample == nil {
		cond.DataFlags = append(cond.DataFlags, FlagMissingTelemetry)
		return cond
	}

	if !sample.CapturedAt.IsZero() && now.Sub(sample.CapturedAt) > telemetryStaleAfter {
		cond.DataFlags = append(cond.DataFlags, FlagStaleTelemetry)
	}

	score := 0
	ratios := make([]float64, 0, 2)

	if sample.ATRAverage > 0 && sample.ATR > 0 {
		score += ratioVote(sample.ATR, sample.ATRAverage)
		ratios = append(ratios, sample.ATR/sample.ATRAverage)
	} else {
		cond.DataFlags = append(cond.DataFlags, FlagNoATRAverage)
	}

	if sample.VolumeAverage > 0 && sample.Volume > 0 {
		score += ratioVote(sample.Volume, sample.VolumeAverage)
		ratios = append(ratios, sample.Volume/sample.VolumeAverage)
	} else {
		cond.DataFlags = append(cond.DataFlags, FlagNoVolumeAverage)
	}

	switch {
	case score >= 2:
		cond.VolatilityCategory = VolatilityHigh
	case score <= -2:
		cond.VolatilityCategory = VolatilityLow
	}

	if len(ratios) > 0 {
		sum := 0.0
		for _, r := range ratios {
			sum += r
		}
		cond.VolatilityScore = sum / float64(len(ratios))
	}

	if sample.PriceChangePct != 0 || sample.LastPrice > 0 {
		cond.Trend = trendFor(sample.PriceChangePct)
	} else {
		cond.DataFlags = append(cond.DataFlags, FlagNoPriceChangeData)
	}

	cond.VolumeLevel = volumeLevelFor(sample.Volume, sample.VolumeAverage)

	return cond
}
