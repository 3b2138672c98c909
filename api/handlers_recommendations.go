package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Bam1010yod/TradingDashboard-sub000/database"
	"github.com/Bam1010yod/TradingDashboard-sub000/database/recommendations"
	"github.com/Bam1010yod/TradingDashboard-sub000/engine"
)

// Recommendation Handlers

// handleGetRecommendation serves the current recommendation for one
// template kind. The cached copy is returned when fresh, then a recent
// stored row, then a full engine run. Passing ?refresh=true skips both
// shortcuts, and passing a non-default ?instrument= runs the engine
// directly without touching the cached stream.
func (s *Server) handleGetRecommendation(w http.ResponseWriter, r *http.Request) {
	kind, err := parseKind(r.PathValue("kind"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Unknown template kind", err)
		return
	}

	instrument := r.URL.Query().Get("instrument")
	adHoc := instrument != "" && instrument != s.instrument
	if instrument == "" {
		instrument = s.instrument
	}

	if adHoc {
		rec, err := s.eng.Recommend(r.Context(), engine.Request{Kind: kind, Instrument: instrument})
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "Recommendation run failed", err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(rec)
		return
	}

	skipCache := r.URL.Query().Get("refresh") == "true"
	if !skipCache && s.engineCache != nil {
		if rec, ok := s.engineCache.GetLatestRecommendation(r.Context(), kind); ok {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(rec)
			return
		}
	}

	// With the cache cold (or Redis down) a fresh stored row still beats
	// rerunning the whole pipeline per GET.
	if !skipCache {
		if row, err := s.recs.Latest(r.Context(), string(kind)); err == nil &&
			time.Since(row.GeneratedAt) < database.RecommendationStaleAfter {
			if rec, err := recommendations.Payload(*row); err == nil {
				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(rec)
				return
			}
		}
	}

	rec, err := s.runRecommendation(r.Context(), kind, instrument)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Recommendation run failed", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rec)
}

// runRecommendation prefers the refresher so on-demand runs persist and
// broadcast like scheduled ones. Before the refresher is wired the engine
// is consulted directly.
func (s *Server) runRecommendation(ctx context.Context, kind engine.TemplateKind, instrument string) (*engine.Recommendation, error) {
	if s.refresher != nil {
		return s.refresher.RefreshNow(ctx, kind, "api_request")
	}
	return s.eng.Recommend(ctx, engine.Request{Kind: kind, Instrument: instrument})
}

func (s *Server) handleRefreshRecommendations(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Kind string `json:"kind,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	kinds := []engine.TemplateKind{engine.KindBracket, engine.KindFilter}
	if req.Kind != "" {
		kind, err := parseKind(req.Kind)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Unknown template kind", err)
			return
		}
		kinds = []engine.TemplateKind{kind}
	}

	results := make(map[string]*engine.Recommendation, len(kinds))
	for _, kind := range kinds {
		rec, err := s.runRecommendation(r.Context(), kind, s.instrument)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "Recommendation refresh failed", err)
			return
		}
		results[strings.ToLower(string(kind))] = rec
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"data":         results,
		"refreshed_at": time.Now().UTC(),
	})
}

func (s *Server) handleGetRecommendationHistory(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	kindFilter := ""
	if raw := query.Get("kind"); raw != "" {
		kind, err := parseKind(raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Unknown template kind", err)
			return
		}
		kindFilter = string(kind)
	}

	minLimit, maxLimit := 1, 200
	limit := getIntParam(r, "limit", 50, &minLimit, &maxLimit)

	rows, err := s.recs.History(r.Context(), kindFilter, limit)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load recommendation history", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"data":  rows,
		"count": len(rows),
		"limit": limit,
	})
}

func (s *Server) handleApplyRecommendation(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return
	}

	if err := s.recs.MarkApplied(r.Context(), id); err != nil {
		respondWithError(w, statusForError(err), "Failed to mark recommendation applied", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"id":      id,
		"applied": true,
	})
}
