// Package http implements the REST API of the EduSmart progress engine.
package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/edusmart/progress-engine/internal/application/command"
	"github.com/edusmart/progress-engine/internal/application/query"
	"github.com/edusmart/progress-engine/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot serves the root endpoint with basic API information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	info := map[string]interface{}{
		"name":        "EduSmart Progress Engine API",
		"version":     "v1",
		"description": "Learning progress, XP, and achievement tracking",
		"endpoints": map[string]string{
			"health":       "/health",
			"completions":  "/api/v1/completions",
			"stats":        "/api/v1/stats/me",
			"achievements": "/api/v1/achievements",
		},
	}

	writeJSON(w, http.StatusOK, info)
}

// handleHealth handles the health check endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Healthy {
			writeJSON(w, http.StatusServiceUnavailable, status)
			return
		}
		writeJSON(w, http.StatusOK, status)
		return
	}

	// Default health response
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"uptime":  s.Uptime().String(),
		"version": "v1",
	})
}

// handleReady handles the readiness probe endpoint (for Kubernetes).
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Ready {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not_ready",
				"reason": status.Message,
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleLive handles the liveness probe endpoint (for Kubernetes).
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// AUTH HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type registerRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
}

// handleRegister handles POST /api/v1/auth/register
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if !s.config.RegistrationOpen {
		writeJSONError(w, http.StatusForbidden, "registration_closed", "Self-registration is disabled")
		return
	}

	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Malformed JSON body")
		return
	}

	result, err := s.deps.RegisterHandler.Handle(r.Context(), command.RegisterCommand{
		Email:       req.Email,
		DisplayName: req.DisplayName,
		Password:    req.Password,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"user_id": result.UserID})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// handleLogin handles POST /api/v1/auth/login
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Malformed JSON body")
		return
	}

	result, err := s.deps.LoginHandler.Handle(r.Context(), command.LoginCommand{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token":      result.Token,
		"user_id":    result.UserID,
		"expires_at": result.ExpiresAt,
	})
}

// handleLogout handles POST /api/v1/auth/logout
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromContext(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "unauthenticated", "No active session")
		return
	}

	if err := s.deps.Sessions.Delete(r.Context(), session.Token); err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

// ══════════════════════════════════════════════════════════════════════════════
// COMPLETION INGESTION
// ══════════════════════════════════════════════════════════════════════════════

// completionRequest is the wire format of a completion submission. The user
// is always taken from the session, never from the body.
type completionRequest struct {
	ResourceID      string    `json:"resource_id"`
	ResourceType    string    `json:"resource_type"`
	Domain          string    `json:"domain"`
	Platform        string    `json:"platform,omitempty"`
	CourseID        string    `json:"course_id,omitempty"`
	ModuleID        string    `json:"module_id,omitempty"`
	CompletedAt     time.Time `json:"completed_at,omitempty"`
	DurationSeconds int       `json:"duration_seconds,omitempty"`
}

// completionResponse is the ingestion outcome returned to the client.
type completionResponse struct {
	Success              bool                    `json:"success"`
	Duplicate            bool                    `json:"duplicate"`
	EventID              string                  `json:"event_id"`
	XPAwarded            int                     `json:"xp_awarded"`
	TotalXP              int                     `json:"total_xp"`
	Level                string                  `json:"level"`
	LeveledUp            bool                    `json:"leveled_up"`
	StreakDays           int                     `json:"streak_days"`
	CourseCompleted      bool                    `json:"course_completed,omitempty"`
	UnlockedAchievements []unlockedAchievementVM `json:"unlocked_achievements,omitempty"`
	RecordedAt           time.Time               `json:"recorded_at"`
}

type unlockedAchievementVM struct {
	Type      string `json:"type"`
	Title     string `json:"title"`
	XPAwarded int    `json:"xp_awarded"`
}

// handleIngestCompletion handles POST /api/v1/completions
//
// Повторная отправка того же события возвращает 200 с duplicate=true,
// а не ошибку: клиенты ретраят доставку и не должны отличать успех
// от идемпотентного повтора.
func (s *Server) handleIngestCompletion(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromContext(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "unauthenticated", "No active session")
		return
	}

	var req completionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Malformed JSON body")
		return
	}

	cmd := command.IngestCompletionCommand{
		UserID:          session.UserID.String(),
		ResourceID:      req.ResourceID,
		ResourceType:    req.ResourceType,
		Domain:          req.Domain,
		Platform:        req.Platform,
		CourseID:        req.CourseID,
		ModuleID:        req.ModuleID,
		CompletedAt:     req.CompletedAt,
		DurationSeconds: req.DurationSeconds,
		CorrelationID:   getRequestID(r.Context()),
	}

	result, err := s.deps.IngestCompletionHandler.Handle(r.Context(), cmd)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	resp := completionResponse{
		Success:         result.Success,
		Duplicate:       result.Duplicate,
		EventID:         result.EventID,
		XPAwarded:       result.XPAwarded,
		TotalXP:         result.TotalXP,
		Level:           result.Level,
		LeveledUp:       result.LeveledUp,
		StreakDays:      result.StreakDays,
		CourseCompleted: result.CourseCompleted,
		RecordedAt:      result.RecordedAt,
	}
	for _, a := range result.UnlockedAchievements {
		resp.UnlockedAchievements = append(resp.UnlockedAchievements, unlockedAchievementVM{
			Type:      string(a.Type),
			Title:     a.Title,
			XPAwarded: int(a.XPAwarded),
		})
	}

	status := http.StatusCreated
	if result.Duplicate {
		status = http.StatusOK
	}

	s.logger.Info("completion ingested",
		logger.UserID(cmd.UserID),
		logger.ResourceID(cmd.ResourceID),
		logger.String("request_id", getRequestID(r.Context())),
	)

	writeJSON(w, status, resp)
}

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS PROJECTION HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetCourseProgress handles GET /api/v1/progress/courses/{id}
func (s *Server) handleGetCourseProgress(w http.ResponseWriter, r *http.Request) {
	session, _ := sessionFromContext(r.Context())
	courseID := r.PathValue("id")
	if courseID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Course ID is required")
		return
	}

	result, err := s.deps.GetCourseProgressHandler.Handle(r.Context(), query.GetCourseProgressQuery{
		UserID:   session.UserID.String(),
		CourseID: courseID,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleGetUserStats handles GET /api/v1/stats/me
func (s *Server) handleGetUserStats(w http.ResponseWriter, r *http.Request) {
	session, _ := sessionFromContext(r.Context())

	result, err := s.deps.GetUserStatsHandler.Handle(r.Context(), query.GetUserStatsQuery{
		UserID: session.UserID.String(),
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleGetDomainStats handles GET /api/v1/stats/domains
func (s *Server) handleGetDomainStats(w http.ResponseWriter, r *http.Request) {
	session, _ := sessionFromContext(r.Context())

	result, err := s.deps.GetDomainStatsHandler.Handle(r.Context(), query.GetDomainStatsQuery{
		UserID: session.UserID.String(),
		Domain: getQueryParam(r, "domain", ""),
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleGetAchievements handles GET /api/v1/achievements
func (s *Server) handleGetAchievements(w http.ResponseWriter, r *http.Request) {
	session, _ := sessionFromContext(r.Context())

	result, err := s.deps.GetAchievementsHandler.Handle(r.Context(), query.GetAchievementsQuery{
		UserID: session.UserID.String(),
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleGetHeatmap handles GET /api/v1/activity/heatmap
func (s *Server) handleGetHeatmap(w http.ResponseWriter, r *http.Request) {
	session, _ := sessionFromContext(r.Context())

	result, err := s.deps.GetActivityHeatmapHandler.Handle(r.Context(), query.GetActivityHeatmapQuery{
		UserID:     session.UserID.String(),
		WindowDays: getQueryParamInt(r, "days", 0),
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleGetTimeline handles GET /api/v1/activity/timeline
func (s *Server) handleGetTimeline(w http.ResponseWriter, r *http.Request) {
	session, _ := sessionFromContext(r.Context())

	result, err := s.deps.GetTimelineHandler.Handle(r.Context(), query.GetTimelineQuery{
		UserID: session.UserID.String(),
		Limit:  getQueryParamInt(r, "limit", 0),
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST DECODING
// ══════════════════════════════════════════════════════════════════════════════

// decodeJSON decodes a JSON request body, rejecting unknown fields.
func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
