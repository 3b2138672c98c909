package api

import (
	"encoding/json"
	"net/http"
)

// Dashboard Handlers
//
// These run against the raw SQL reporting pool, not the GORM connection,
// so a slow aggregate cannot block recommendation writes.

func (s *Server) handleGetSessionPerformance(w http.ResponseWriter, r *http.Request) {
	minDays, maxDays := 1, 365
	daysBack := getIntParam(r, "days", 30, &minDays, &maxDays)

	cells, err := s.reporting.GetSessionPerformanceMatrix(r.Context(), daysBack)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load session performance", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"data": cells,
		"days": daysBack,
	})
}

func (s *Server) handleGetRecommendationActivity(w http.ResponseWriter, r *http.Request) {
	minDays, maxDays := 1, 90
	daysBack := getIntParam(r, "days", 7, &minDays, &maxDays)

	activity, err := s.reporting.GetRecommendationActivity(r.Context(), daysBack)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load recommendation activity", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"data": activity,
		"days": daysBack,
	})
}

func (s *Server) handleGetTemplateLeaderboard(w http.ResponseWriter, r *http.Request) {
	minDays, maxDays := 1, 365
	daysBack := getIntParam(r, "days", 30, &minDays, &maxDays)

	minLimit, maxLimit := 1, 50
	limit := getIntParam(r, "limit", 10, &minLimit, &maxLimit)

	leaders, err := s.reporting.GetTemplateLeaderboard(r.Context(), daysBack, limit)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load template leaderboard", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"data":  leaders,
		"days":  daysBack,
		"limit": limit,
	})
}

func (s *Server) handleGetNewsBreakdown(w http.ResponseWriter, r *http.Request) {
	minHours, maxHours := 1, 168
	hoursBack := getIntParam(r, "hours", 24, &minHours, &maxHours)

	breakdown, err := s.reporting.GetNewsCategoryBreakdown(r.Context(), hoursBack)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load news breakdown", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"data":  breakdown,
		"hours": hoursBack,
	})
}
