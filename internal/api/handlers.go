package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/terra-clan/rating-ladder/internal/rating"
)

// Response helpers

type apiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *apiError   `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: false,
		Error: &apiError{
			Code:    code,
			Message: message,
		},
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// Health handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.storage.Ping(r.Context()); err != nil {
		slog.Error("storage not ready", "error", err)
		respondError(w, http.StatusServiceUnavailable, "not_ready", "service not ready")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}

// Rating handlers

type recommendationResponse struct {
	Rating  float64 `json:"rating"`
	Bucket  string  `json:"bucket"`
	Display string  `json:"display"`
	Header  string  `json:"header"`
	Color   string  `json:"color"`
	Label   string  `json:"label"`
}

func (s *Server) handleTiers(w http.ResponseWriter, r *http.Request) {
	tiers := rating.Tiers()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"tiers": tiers,
		"total": len(tiers),
	})
}

func (s *Server) handleBuckets(w http.ResponseWriter, r *http.Request) {
	if s.dist == nil {
		respondError(w, http.StatusServiceUnavailable, "distribution_unavailable", "distribution is not configured")
		return
	}

	dist, err := s.dist.Current(r.Context())
	if err != nil {
		slog.Error("failed to get distribution", "error", err)
		respondError(w, http.StatusServiceUnavailable, "distribution_unavailable", "failed to load distribution")
		return
	}

	respondJSON(w, http.StatusOK, dist)
}

func (s *Server) handleRecommendation(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("rating")
	if raw == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "rating is required")
		return
	}

	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || value <= 0 {
		respondError(w, http.StatusBadRequest, "validation_error", "rating must be a positive number")
		return
	}

	rec := rating.Recommend(value)
	_, tier := rating.Classify(rec.Lower)

	respondJSON(w, http.StatusOK, recommendationResponse{
		Rating:  value,
		Bucket:  rec.String(),
		Display: rec.Display(),
		Header:  "Problems With Rating " + rec.Display(),
		Color:   string(tier.Color),
		Label:   string(tier.Label),
	})
}
