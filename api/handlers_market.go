package api

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/Bam1010yod/TradingDashboard-sub000/engine"
)

// Market Condition Handlers

// handleGetMarketCondition classifies the current market state from the
// latest telemetry. Telemetry read failures degrade to a session-only
// classification with the data flags naming what was missing, the same
// behavior a recommendation run has.
func (s *Server) handleGetMarketCondition(w http.ResponseWriter, r *http.Request) {
	instrument := r.URL.Query().Get("instrument")
	if instrument == "" {
		instrument = s.instrument
	}

	var sample *engine.TelemetrySample
	if s.marketData != nil {
		latest, err := s.marketData.GetLatest(r.Context(), instrument)
		if err != nil {
			log.Printf("⚠️  Telemetry read failed for %s: %v", instrument, err)
		} else {
			sample = latest
		}
	}

	cond := engine.Classify(time.Now(), sample)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"instrument":  instrument,
		"condition":   cond,
		"time_of_day": engine.TimeOfDayFor(cond.Session),
		"telemetry":   sample,
	})
}
