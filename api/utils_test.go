package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Bam1010yod/TradingDashboard-sub000/database"
	"github.com/Bam1010yod/TradingDashboard-sub000/engine"
)

func TestGetIntParam(t *testing.T) {
	min, max := 1, 200

	tests := []struct {
		name     string
		url      string
		key      string
		defVal   int
		min, max *int
		want     int
	}{
		{"missing param returns default", "/api/news", "limit", 50, &min, &max, 50},
		{"valid value", "/api/news?limit=25", "limit", 50, &min, &max, 25},
		{"non-numeric returns default", "/api/news?limit=abc", "limit", 50, &min, &max, 50},
		{"below min returns default", "/api/news?limit=0", "limit", 50, &min, &max, 50},
		{"above max returns default", "/api/news?limit=9999", "limit", 50, &min, &max, 50},
		{"boundary value accepted", "/api/news?limit=200", "limit", 50, &min, &max, 200},
		{"no bounds accepts negative", "/api/news?offset=-3", "offset", 0, nil, nil, -3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, tt.url, nil)
			got := getIntParam(r, tt.key, tt.defVal, tt.min, tt.max)
			if got != tt.want {
				t.Errorf("getIntParam(%q) = %d, want %d", tt.url, got, tt.want)
			}
		})
	}
}

func TestGetFloatParam(t *testing.T) {
	tests := []struct {
		name   string
		url    string
		key    string
		defVal float64
		want   float64
	}{
		{"missing param returns default", "/api/x", "threshold", 1.5, 1.5},
		{"valid value", "/api/x?threshold=2.25", "threshold", 1.5, 2.25},
		{"non-numeric returns default", "/api/x?threshold=high", "threshold", 1.5, 1.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, tt.url, nil)
			got := getFloatParam(r, tt.key, tt.defVal)
			if got != tt.want {
				t.Errorf("getFloatParam(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		raw     string
		want    engine.TemplateKind
		wantErr bool
	}{
		{"BRACKET", engine.KindBracket, false},
		{"bracket", engine.KindBracket, false},
		{" Filter ", engine.KindFilter, false},
		{"FILTER", engine.KindFilter, false},
		{"", "", true},
		{"straddle", "", true},
	}

	for _, tt := range tests {
		got, err := parseKind(tt.raw)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseKind(%q) expected error, got %q", tt.raw, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseKind(%q) unexpected error: %v", tt.raw, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseKind(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found maps to 404", database.NewNotFoundErrorWithID("template", 7), http.StatusNotFound},
		{"validation maps to 400", database.NewValidationError("name", "must not be empty"), http.StatusBadRequest},
		{"anything else maps to 500", errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := statusForError(tt.err); got != tt.want {
				t.Errorf("statusForError(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
