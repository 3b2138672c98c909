package api

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/Bam1010yod/TradingDashboard-sub000/database"
	"github.com/Bam1010yod/TradingDashboard-sub000/engine"
)

// getIntParam retrieves an integer query parameter with default value and optional range validation
func getIntParam(r *http.Request, key string, defaultVal int, minVal, maxVal *int) int {
	valStr := r.URL.Query().Get(key)
	if valStr == "" {
		return defaultVal
	}

	val, err := strconv.Atoi(valStr)
	if err != nil {
		return defaultVal
	}

	if minVal != nil && val < *minVal {
		return defaultVal
	}
	if maxVal != nil && val > *maxVal {
		return defaultVal
	}

	return val
}

// getFloatParam retrieves a float query parameter with default value
func getFloatParam(r *http.Request, key string, defaultVal float64) float64 {
	valStr := r.URL.Query().Get(key)
	if valStr == "" {
		return defaultVal
	}

	val, err := strconv.ParseFloat(valStr, 64)
	if err != nil {
		return defaultVal
	}

	return val
}

// parseKind maps a path or query value onto a template kind. Matching is
// case-insensitive so /api/recommendations/bracket and /BRACKET both work.
func parseKind(raw string) (engine.TemplateKind, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case string(engine.KindBracket):
		return engine.KindBracket, nil
	case string(engine.KindFilter):
		return engine.KindFilter, nil
	default:
		return "", fmt.Errorf("unknown template kind %q", raw)
	}
}

// statusForError maps repository errors onto HTTP status codes
func statusForError(err error) int {
	switch {
	case database.IsNotFound(err):
		return http.StatusNotFound
	case database.IsValidation(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondWithError logs the error and sends a JSON error response
// Use this to avoid exposing internal errors while still logging them
func respondWithError(w http.ResponseWriter, code int, message string, err error) {
	if err != nil {
		log.Printf("API Error [%d]: %s - %v", code, message, err)
	} else {
		log.Printf("API Error [%d]: %s", code, message)
	}
	http.Error(w, message, code)
}
