package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/studybuddy/studybuddy-hub/internal/application/command"
	"github.com/studybuddy/studybuddy-hub/internal/application/query"
	"github.com/studybuddy/studybuddy-hub/internal/domain/shared"
	"github.com/studybuddy/studybuddy-hub/pkg/logger"
)

// maxBodyBytes limits request bodies of the write endpoints.
const maxBodyBytes = 64 << 10

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot serves the root endpoint with basic API information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"name":    "StudyBuddy Hub API",
		"version": s.config.Version,
		"endpoints": map[string]string{
			"health":   "/health",
			"levels":   "/api/v1/levels",
			"resolve":  "/api/v1/levels/resolve?xp={experience}",
			"profile":  "/api/v1/users/{id}/profile",
			"progress": "/api/v1/users/{id}/resources/{resourceID}/progress",
			"badge":    "/api/v1/users/{id}/badge",
		},
	})
}

// handleHealth handles the health check endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker == nil {
		writeJSON(w, r, http.StatusOK, map[string]interface{}{
			"status":  "healthy",
			"uptime":  s.Uptime().String(),
			"version": s.config.Version,
		})
		return
	}

	status := s.deps.HealthChecker.Check(r.Context())
	code := http.StatusOK
	if !status.Healthy {
		code = http.StatusServiceUnavailable
	}
	writeResponse(w, r, code, JSONResponse{Success: status.Healthy, Data: status})
}

// handleReady handles the readiness probe endpoint (for Kubernetes).
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Ready {
			writeJSONError(w, r, http.StatusServiceUnavailable, "not_ready", status.Message)
			return
		}
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ready"})
}

// handleLive handles the liveness probe endpoint (for Kubernetes).
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// LEVEL HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleListLevels handles GET /api/v1/levels
func (s *Server) handleListLevels(w http.ResponseWriter, r *http.Request) {
	if s.deps.ResolveLevel == nil {
		writeNotConfigured(w, r, "Level")
		return
	}
	writeJSON(w, r, http.StatusOK, s.deps.ResolveLevel.Table())
}

// handleResolveLevel handles GET /api/v1/levels/resolve?xp=142
func (s *Server) handleResolveLevel(w http.ResponseWriter, r *http.Request) {
	if s.deps.ResolveLevel == nil {
		writeNotConfigured(w, r, "Level")
		return
	}

	raw := r.URL.Query().Get("xp")
	if raw == "" {
		writeJSONError(w, r, http.StatusBadRequest, "invalid_request", "Query parameter xp is required")
		return
	}
	xp, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		writeJSONError(w, r, http.StatusBadRequest, "invalid_request", "Query parameter xp must be a number")
		return
	}

	level, err := s.deps.ResolveLevel.Handle(query.ResolveLevelQuery{Experience: xp})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, level)
}

// ══════════════════════════════════════════════════════════════════════════════
// USER HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetProfile handles GET /api/v1/users/{id}/profile
func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetProfileCard == nil {
		writeNotConfigured(w, r, "Profile")
		return
	}

	card, err := s.deps.GetProfileCard.Handle(r.Context(), query.GetProfileCardQuery{
		UserID:    r.PathValue("id"),
		SkipCache: getQueryParamBool(r, "fresh"),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSONWithMeta(w, r, http.StatusOK, card, &ResponseMeta{Cached: card.FromCache})
}

// recordProgressRequest is the body of the progress endpoint.
type recordProgressRequest struct {
	QuizScore        *int `json:"quiz_score"`
	FlashcardScore   *int `json:"flashcard_score"`
	SummaryCompleted bool `json:"summary_completed"`
}

// handleRecordProgress handles PUT /api/v1/users/{id}/resources/{resourceID}/progress
func (s *Server) handleRecordProgress(w http.ResponseWriter, r *http.Request) {
	if s.deps.RecordProgress == nil {
		writeNotConfigured(w, r, "Progress")
		return
	}

	var req recordProgressRequest
	if !decodeBody(w, r, &req) {
		return
	}

	res, err := s.deps.RecordProgress.Handle(r.Context(), command.RecordProgressCommand{
		UserID:           r.PathValue("id"),
		ResourceID:       r.PathValue("resourceID"),
		QuizScore:        req.QuizScore,
		FlashcardScore:   req.FlashcardScore,
		SummaryCompleted: req.SummaryCompleted,
		CorrelationID:    getRequestID(r.Context()),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}

// equipBadgeRequest is the body of the badge endpoint. An empty category clears the slot.
type equipBadgeRequest struct {
	Category string `json:"category"`
}

// handleEquipBadge handles PUT /api/v1/users/{id}/badge
func (s *Server) handleEquipBadge(w http.ResponseWriter, r *http.Request) {
	if s.deps.EquipBadge == nil {
		writeNotConfigured(w, r, "Badge")
		return
	}

	var req equipBadgeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	res, err := s.deps.EquipBadge.Handle(r.Context(), command.EquipBadgeCommand{
		UserID:   r.PathValue("id"),
		Category: req.Category,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}

// ══════════════════════════════════════════════════════════════════════════════
// ERROR MAPPING
// ══════════════════════════════════════════════════════════════════════════════

// writeDomainError maps application errors to HTTP statuses.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case shared.IsValidation(err):
		writeJSONError(w, r, http.StatusBadRequest, "validation_error", errorMessage(err))
	case shared.IsNotFound(err):
		writeJSONError(w, r, http.StatusNotFound, "not_found", errorMessage(err))
	case shared.IsConflict(err):
		writeJSONError(w, r, http.StatusConflict, "conflict", errorMessage(err))
	case shared.IsExternalService(err):
		logger.FromContext(r.Context()).Error("dependency failure", logger.Err(err), logger.UserID(r.PathValue("id")))
		writeJSONError(w, r, http.StatusServiceUnavailable, "service_unavailable", "A dependency is unavailable, try again later")
	default:
		logger.FromContext(r.Context()).Error("request failed", logger.Err(err), logger.UserID(r.PathValue("id")))
		writeJSONError(w, r, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}

// errorMessage prefers the user-facing message of a DomainError.
func errorMessage(err error) string {
	var de *shared.DomainError
	if errors.As(err, &de) && de.Message != "" {
		return de.Message
	}
	return err.Error()
}

func writeNotConfigured(w http.ResponseWriter, r *http.Request, what string) {
	writeJSONError(w, r, http.StatusNotImplemented, "not_implemented", what+" handler not configured")
}

// decodeBody reads a JSON body into dst. It writes the error response itself.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeJSONError(w, r, http.StatusBadRequest, "invalid_request", "Failed to read request body")
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		writeJSONError(w, r, http.StatusBadRequest, "invalid_request", "Request body must be valid JSON")
		return false
	}
	return true
}
