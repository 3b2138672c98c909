package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	models "github.com/Bam1010yod/TradingDashboard-sub000/database/models_pkg"
)

// Template Handlers

func (s *Server) handleGetTemplates(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	kind := ""
	if raw := query.Get("kind"); raw != "" {
		parsed, err := parseKind(raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Unknown template kind", err)
			return
		}
		kind = string(parsed)
	}
	includeInactive := query.Get("include_inactive") == "true"

	rows, err := s.templates.List(r.Context(), kind, includeInactive)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load templates", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"data":  rows,
		"count": len(rows),
	})
}

// handleGetTemplate looks a template up by numeric ID, or by its unique
// name when the path segment is not a number.
func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	raw := r.PathValue("id")

	var row *models.ParameterTemplate
	if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
		row, err = s.templates.GetByID(r.Context(), id)
		if err != nil {
			respondWithError(w, statusForError(err), "Failed to load template", err)
			return
		}
	} else {
		row, err = s.templates.GetByName(r.Context(), raw)
		if err != nil {
			respondWithError(w, statusForError(err), "Failed to load template", err)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(row)
}

func (s *Server) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	var row models.ParameterTemplate
	if err := json.NewDecoder(r.Body).Decode(&row); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	// Reset ID to let DB assign it
	row.ID = 0

	if err := s.templates.Create(r.Context(), &row); err != nil {
		respondWithError(w, statusForError(err), "Failed to create template", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(row)
}

func (s *Server) handleUpdateTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return
	}

	var row models.ParameterTemplate
	if err := json.NewDecoder(r.Body).Decode(&row); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	row.ID = id // Ensure ID matches path
	if err := s.templates.Update(r.Context(), &row); err != nil {
		respondWithError(w, statusForError(err), "Failed to update template", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(row)
}

func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return
	}

	if err := s.templates.Delete(r.Context(), id); err != nil {
		respondWithError(w, statusForError(err), "Failed to delete template", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// templateExport is the document shape shared by export and import so a
// downloaded file can be re-imported unchanged.
type templateExport struct {
	ExportedAt time.Time                  `json:"exported_at"`
	Count      int                        `json:"count"`
	Templates  []models.ParameterTemplate `json:"templates"`
}

// handleExportTemplates returns every stored template as a downloadable
// JSON document, inactive ones included so exports are complete backups.
func (s *Server) handleExportTemplates(w http.ResponseWriter, r *http.Request) {
	rows, err := s.templates.List(r.Context(), "", true)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to export templates", err)
		return
	}

	doc := templateExport{
		ExportedAt: time.Now().UTC(),
		Count:      len(rows),
		Templates:  rows,
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment;filename=templates_%d.json", time.Now().Unix()))
	json.NewEncoder(w).Encode(doc)
}

// handleImportTemplates ingests a template document or a bare template
// array. Rows whose names already exist are skipped, so re-importing an
// export is safe.
func (s *Server) handleImportTemplates(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var doc templateExport
	if err := json.Unmarshal(body, &doc); err != nil || len(doc.Templates) == 0 {
		// Fall back to a bare array of templates
		var rows []models.ParameterTemplate
		if err := json.Unmarshal(body, &rows); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		doc.Templates = rows
	}

	if len(doc.Templates) == 0 {
		http.Error(w, "No templates in request body", http.StatusBadRequest)
		return
	}

	imported, err := s.templates.BulkImport(r.Context(), doc.Templates)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Template import failed", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"imported": imported,
		"skipped":  len(doc.Templates) - imported,
	})
}
