package api

import (
	"encoding/json"
	"net/http"
	"strings"

	models "github.com/Bam1010yod/TradingDashboard-sub000/database/models_pkg"
)

// Backtest Handlers

func (s *Server) handleGetBacktests(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	sessionType := strings.ToUpper(query.Get("session_type"))
	volatility := strings.ToUpper(query.Get("volatility"))
	templateName := query.Get("template")

	minLimit, maxLimit := 1, 500
	limit := getIntParam(r, "limit", 50, &minLimit, &maxLimit)

	rows, err := s.backtests.List(r.Context(), sessionType, volatility, templateName, limit)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load backtest sessions", err)
		return
	}

	// Window total tells the caller how much evidence the engine sees,
	// independent of the page filters.
	total, err := s.backtests.Count(r.Context(), 0)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to count backtest sessions", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"data":            rows,
		"count":           len(rows),
		"limit":           limit,
		"total_in_window": total,
	})
}

// handleIngestBacktest stores one backtest result. Uppercasing the bucket
// fields here keeps external runners from creating case-split buckets.
func (s *Server) handleIngestBacktest(w http.ResponseWriter, r *http.Request) {
	var row models.BacktestSession
	if err := json.NewDecoder(r.Body).Decode(&row); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	// Reset ID to let DB assign it
	row.ID = 0
	row.TimeOfDay = strings.ToUpper(strings.TrimSpace(row.TimeOfDay))
	row.SessionType = strings.ToUpper(strings.TrimSpace(row.SessionType))
	row.VolatilityCategory = strings.ToUpper(strings.TrimSpace(row.VolatilityCategory))

	if err := s.backtests.Save(r.Context(), &row); err != nil {
		respondWithError(w, statusForError(err), "Failed to save backtest session", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(row)
}
