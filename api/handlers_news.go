package api

import (
	"encoding/json"
	"net/http"

	"github.com/Bam1010yod/TradingDashboard-sub000/engine"
)

// News Handlers

func (s *Server) handleGetNews(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")

	minHours, maxHours := 1, 168
	hoursBack := getIntParam(r, "hours", 24, &minHours, &maxHours)

	minLimit, maxLimit := 1, 200
	limit := getIntParam(r, "limit", 50, &minLimit, &maxLimit)

	rows, err := s.news.Recent(r.Context(), category, hoursBack, limit)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load news articles", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"data":  rows,
		"count": len(rows),
		"hours": hoursBack,
	})
}

// handleGetNewsImpact scores the stored recent articles the same way a
// recommendation run would, so operators can inspect the news input on
// its own.
func (s *Server) handleGetNewsImpact(w http.ResponseWriter, r *http.Request) {
	instrument := r.URL.Query().Get("instrument")
	if instrument == "" {
		instrument = s.instrument
	}

	items, err := s.news.RecentForEngine(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load news articles", err)
		return
	}

	impact := engine.ScoreImpact(items, instrument)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"instrument":  instrument,
		"impact":      impact,
		"items_total": len(items),
	})
}
