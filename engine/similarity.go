package engine

import (
	"math"
	"strings"
)

// Similarity factor weights. Session and volatility carry the signal; day
// of week and volume are tie-breakers.
const (
	weightSession    = 40.0
	weightVolatility = 40.0
	weightDayOfWeek  = 10.0
	weightVolume     = 10.0

	// minEvidenceWeight is the available-weight floor below which the
	// scorer refuses to extrapolate from sparse evidence.
	minEvidenceWeight = 50.0

	// SimilarityFloor is the flat score returned when evidence is
	// insufficient.
	SimilarityFloor = 20
)

// Session codes recognized in template names. Both the short codes the
// desk uses when naming templates and the full session words resolve.
var sessionCodes = map[string]Session{
	"MO":        SessionUSOpen,
	"OPEN":      SessionUSOpen,
	"MID":       SessionUSMidday,
	"MD":        SessionUSMidday,
	"MIDDAY":    SessionUSMidday,
	"EA":        SessionUSAfternoon,
	"AFTERNOON": SessionUSAfternoon,
	"AS":        SessionAsia,
	"ASIA":      SessionAsia,
	"EU":        SessionEurope,
	"EUROPE":    SessionEurope,
	"ON":        SessionOvernight,
	"OVERNIGHT": SessionOvernight,
}

var volatilityCodes = map[string]VolatilityCategory{
	"LOW":    VolatilityLow,
	"LV":     VolatilityLow,
	"MED":    VolatilityMedium,
	"MEDIUM": VolatilityMedium,
	"HIGH":   VolatilityHigh,
	"HV":     VolatilityHigh,
}

func splitNameTokens(name string) []string {
	return strings.FieldsFunc(name, func(r rune) bool {
		return r == ' ' || r == '_' || r == '-' || r == '.'
	})
}

// InferCondition extracts the partial market condition encoded in a
// template name. The first recognized session token and the first
// recognized volatility token win; everything else is ignored.
func InferCondition(name string) InferredCondition {
	var inf InferredCondition
	for _, token := range splitNameTokens(name) {
		upper := strings.ToUpper(token)
		if inf.Session == nil {
			if s, ok := sessionCodes[upper]; ok {
				session := s
				inf.Session = &session
				continue
			}
		}
		if inf.Volatility == nil {
			if v, ok := volatilityCodes[upper]; ok {
				vol := v
				inf.Volatility = &vol
			}
		}
	}
	return inf
}

// Score compares the current market condition to an inferred one and
// returns a similarity in [0,100]. Factors only count toward the available
// weight when the inferred side actually has evidence for them; the earned
// weight is pro-rated over the available total. Sparse evidence (available
// weight under minEvidenceWeight) returns the flat SimilarityFloor instead
// of an extrapolated score.
func Score(current MarketCondition, inferred InferredCondition) int {
	available := 0.0
	earned := 0.0

	if inferred.Session != nil {
		available += weightSession
		switch {
		case *inferred.Session == current.Session:
			earned += weightSession
		case TimeOfDayFor(*inferred.Session) == TimeOfDayFor(current.Session):
			// Same half of the day still tells us something.
			earned += weightSession / 2
		}
	}

	if inferred.Volatility != nil {
		available += weightVolatility
		ir := inferred.Volatility.rank()
		cr := current.VolatilityCategory.rank()
		if ir >= 0 && cr >= 0 {
			switch absInt(ir - cr) {
			case 0:
				earned += weightVolatility
			case 1:
				earned += weightVolatility / 2
			}
		}
	}

	if inferred.DayOfWeek != nil {
		available += weightDayOfWeek
		if *inferred.DayOfWeek == current.DayOfWeek {
			earned += weightDayOfWeek
		}
	}

	if inferred.VolumeLevel != nil {
		available += weightVolume
		if *inferred.VolumeLevel == current.VolumeLevel {
			earned += weightVolume
		}
	}

	if available < minEvidenceWeight {
		return SimilarityFloor
	}
	return int(math.Round(earned / available * 100))
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
