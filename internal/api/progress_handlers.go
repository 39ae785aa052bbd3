package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/rating-ladder/internal/progress"
)

type solvedResponse struct {
	ID     string `json:"id"`
	Solved bool   `json:"solved"`
}

// prefsRequest is a partial update; absent fields are left unchanged
type prefsRequest struct {
	ShowTags              *bool `json:"showTags"`
	DarkMode              *bool `json:"darkMode"`
	DistributionCollapsed *bool `json:"distributionCollapsed"`
}

// problemID validates the {id} URL parameter
func problemID(r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if _, err := strconv.Atoi(id); err != nil {
		return "", false
	}
	return id, true
}

func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	store := s.progressStore(r.Context())

	raw := r.URL.Query().Get("ids")
	if raw == "" {
		solved, err := store.Solved(r.Context())
		if err != nil {
			slog.Error("failed to read progress", "error", err)
			respondError(w, http.StatusInternalServerError, "internal_error", "failed to read progress")
			return
		}
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"solved": solved,
			"count":  len(solved),
		})
		return
	}

	ids := parseIDs(raw)
	count, err := store.CountSolved(r.Context(), ids)
	if err != nil {
		slog.Error("failed to count progress", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to read progress")
		return
	}

	all, err := store.Solved(r.Context())
	if err != nil {
		slog.Error("failed to read progress", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to read progress")
		return
	}
	requested := make(map[string]bool, len(ids))
	for _, id := range ids {
		requested[id] = true
	}
	solved := []string{}
	for _, id := range all {
		if requested[id] {
			solved = append(solved, id)
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"solved": solved,
		"count":  count,
		"total":  len(ids),
	})
}

// parseIDs splits a comma separated id list, dropping blanks and duplicates
func parseIDs(raw string) []string {
	var ids []string
	seen := make(map[string]bool)
	for _, id := range strings.Split(raw, ",") {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

func (s *Server) handleGetSolved(w http.ResponseWriter, r *http.Request) {
	id, ok := problemID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "validation_error", "problem id must be a number")
		return
	}

	solved, err := s.progressStore(r.Context()).IsSolved(r.Context(), id)
	if err != nil {
		slog.Error("failed to read progress", "error", err, "id", id)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to read progress")
		return
	}

	respondJSON(w, http.StatusOK, solvedResponse{ID: id, Solved: solved})
}

func (s *Server) handleMarkSolved(w http.ResponseWriter, r *http.Request) {
	s.setSolved(w, r, true)
}

func (s *Server) handleUnmarkSolved(w http.ResponseWriter, r *http.Request) {
	s.setSolved(w, r, false)
}

func (s *Server) setSolved(w http.ResponseWriter, r *http.Request, value bool) {
	id, ok := problemID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "validation_error", "problem id must be a number")
		return
	}

	if err := s.progressStore(r.Context()).SetSolved(r.Context(), id, value); err != nil {
		slog.Error("failed to update progress", "error", err, "id", id)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to update progress")
		return
	}

	respondJSON(w, http.StatusOK, solvedResponse{ID: id, Solved: value})
}

func (s *Server) handleToggleSolved(w http.ResponseWriter, r *http.Request) {
	id, ok := problemID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "validation_error", "problem id must be a number")
		return
	}

	solved, err := s.progressStore(r.Context()).Toggle(r.Context(), id)
	if err != nil {
		slog.Error("failed to toggle progress", "error", err, "id", id)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to update progress")
		return
	}

	respondJSON(w, http.StatusOK, solvedResponse{ID: id, Solved: solved})
}

func (s *Server) handleResetProgress(w http.ResponseWriter, r *http.Request) {
	if err := s.progressStore(r.Context()).ResetAll(r.Context()); err != nil {
		slog.Error("failed to reset progress", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to reset progress")
		return
	}

	slog.Info("progress reset", "client_id", ClientIDFromContext(r.Context()))
	respondJSON(w, http.StatusOK, map[string]string{
		"message": "progress reset",
	})
}

// Preference handlers

func (s *Server) handleGetPrefs(w http.ResponseWriter, r *http.Request) {
	prefs, err := s.progressStore(r.Context()).Preferences(r.Context())
	if err != nil {
		slog.Error("failed to read preferences", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to read preferences")
		return
	}

	respondJSON(w, http.StatusOK, prefs)
}

func (s *Server) handlePutPrefs(w http.ResponseWriter, r *http.Request) {
	var req prefsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	store := s.progressStore(r.Context())
	prefs, err := store.Preferences(r.Context())
	if err != nil {
		slog.Error("failed to read preferences", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to read preferences")
		return
	}

	prefs = req.apply(prefs)
	if err := store.SavePreferences(r.Context(), prefs); err != nil {
		slog.Error("failed to save preferences", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to save preferences")
		return
	}

	respondJSON(w, http.StatusOK, prefs)
}

func (req prefsRequest) apply(p progress.Preferences) progress.Preferences {
	if req.ShowTags != nil {
		p.ShowTags = *req.ShowTags
	}
	if req.DarkMode != nil {
		p.DarkMode = *req.DarkMode
	}
	if req.DistributionCollapsed != nil {
		p.DistributionCollapsed = *req.DistributionCollapsed
	}
	return p
}
