package helpers

import (
	"testing"

	"github.com/Bam1010yod/TradingDashboard-sub000/engine"
)

func TestDescribeTemplate(t *testing.T) {
	tests := []struct {
		name     string
		template engine.Template
		want     string
	}{
		{
			name: "bracket template",
			template: engine.Template{
				Name: "MO_HIGH_Breakout",
				Kind: engine.KindBracket,
				Bracket: &engine.BracketParams{
					StopLoss:         18,
					Target:           36,
					BreakEvenTrigger: 14,
					BreakEvenPlus:    4,
				},
			},
			want: "Stop 18t / Target 36t / BE 14t+4t",
		},
		{
			name: "filter template",
			template: engine.Template{
				Name: "MID_MED_Filter",
				Kind: engine.KindFilter,
				Filter: &engine.FilterParams{
					FastPeriod:       21,
					FastRange:        3,
					MediumPeriod:     34,
					MediumRange:      4,
					SlowPeriod:       55,
					SlowRange:        5,
					FilterMultiplier: 1.25,
				},
			},
			want: "Periods 21/3 34/4 55/5 x1.25",
		},
		{
			name:     "template without params falls back to name",
			template: engine.Template{Name: "Broken", Kind: engine.KindBracket},
			want:     "Broken",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DescribeTemplate(tt.template); got != tt.want {
				t.Errorf("DescribeTemplate() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDescribeCondition(t *testing.T) {
	cond := engine.MarketCondition{
		Session:            engine.SessionUSOpen,
		VolatilityCategory: engine.VolatilityHigh,
		Trend:              engine.TrendBullish,
		VolumeLevel:        engine.VolumeHigh,
	}

	want := "US_OPEN/HIGH/bullish/HIGH"
	if got := DescribeCondition(cond); got != want {
		t.Errorf("DescribeCondition() = %q, want %q", got, want)
	}
}

func TestFormatPercent(t *testing.T) {
	if got := FormatPercent(57.529); got != "57.5%" {
		t.Errorf("FormatPercent(57.529) = %q, want %q", got, "57.5%")
	}
	if got := FormatPercent(0); got != "0.0%" {
		t.Errorf("FormatPercent(0) = %q, want %q", got, "0.0%")
	}
}

func TestFormatTicks(t *testing.T) {
	if got := FormatTicks(16); got != "16t" {
		t.Errorf("FormatTicks(16) = %q, want %q", got, "16t")
	}
}
