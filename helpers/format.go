package helpers

import (
	"fmt"

	"github.com/Bam1010yod/TradingDashboard-sub000/engine"
)

// FormatTicks renders a tick distance for alert and log text
func FormatTicks(ticks int) string {
	return fmt.Sprintf("%dt", ticks)
}

// FormatPercent renders a 0-100 percentage with one decimal
func FormatPercent(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}

// DescribeTemplate summarizes a template's numbers for alert text
func DescribeTemplate(t engine.Template) string {
	switch t.Kind {
	case engine.KindBracket:
		if t.Bracket == nil {
			return t.Name
		}
		b := t.Bracket
		return fmt.Sprintf("Stop %s / Target %s / BE %s+%s",
			FormatTicks(b.StopLoss), FormatTicks(b.Target),
			FormatTicks(b.BreakEvenTrigger), FormatTicks(b.BreakEvenPlus))
	case engine.KindFilter:
		if t.Filter == nil {
			return t.Name
		}
		f := t.Filter
		return fmt.Sprintf("Periods %d/%d %d/%d %d/%d x%.2f",
			f.FastPeriod, f.FastRange, f.MediumPeriod, f.MediumRange,
			f.SlowPeriod, f.SlowRange, f.FilterMultiplier)
	}
	return t.Name
}

// DescribeCondition renders a market condition as a compact token for
// messages and logs
func DescribeCondition(c engine.MarketCondition) string {
	return fmt.Sprintf("%s/%s/%s/%s", c.Session, c.VolatilityCategory, c.Trend, c.VolumeLevel)
}
