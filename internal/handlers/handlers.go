package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/XavierBriggs/fortuna/services/football-dashboard/internal/dashboard"
	"github.com/XavierBriggs/fortuna/services/football-dashboard/internal/export"
	"github.com/XavierBriggs/fortuna/services/football-dashboard/internal/hub"
	"github.com/XavierBriggs/fortuna/services/football-dashboard/internal/providers/apifootball"
	"github.com/XavierBriggs/fortuna/services/football-dashboard/internal/session"
	"github.com/XavierBriggs/fortuna/services/football-dashboard/internal/table"
	"github.com/XavierBriggs/fortuna/services/football-dashboard/internal/topics"
	"github.com/XavierBriggs/fortuna/services/football-dashboard/pkg/models"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// Dashboard is the stateless side of the API
type Dashboard interface {
	session.Dashboard
	Topics() []dashboard.TopicInfo
}

// Handler manages HTTP endpoints
type Handler struct {
	dashboard Dashboard
	hub       *hub.Hub
	ctx       context.Context
}

// NewHandler creates a new handler instance.
// ctx bounds WebSocket connections, which outlive the upgrade request.
func NewHandler(d Dashboard, h *hub.Hub, ctx context.Context) *Handler {
	return &Handler{
		dashboard: d,
		hub:       h,
		ctx:       ctx,
	}
}

// Register mounts the WebSocket endpoint and the v1 API on r
func (h *Handler) Register(r chi.Router) {
	r.Get("/health", h.HandleHealth)
	r.Get("/ws", h.HandleWebSocket)

	r.Route("/api/v1", func(r chi.Router) {
		// Stateless
		r.Get("/topics", h.GetTopics)
		r.Get("/topics/{topic}/options", h.GetSubOptions)
		r.Get("/topics/{topic}/table", h.GetTable)
		r.Post("/export/{format}", h.ExportSnapshot)

		// Sessions
		r.Post("/sessions", h.CreateSession)
		r.Get("/sessions/{id}", h.GetSession)
		r.Delete("/sessions/{id}", h.DeleteSession)
		r.Post("/sessions/{id}/events", h.PostEvent)
		r.Get("/sessions/{id}/table", h.GetSessionTable)
		r.Get("/sessions/{id}/export/{format}", h.ExportSession)
	})
}

// HandleHealth returns service health
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":          "healthy",
		"service":         "football-dashboard",
		"active_sessions": h.hub.GetSessionCount(),
		"active_clients":  h.hub.GetClientCount(),
	})
}

// statusFor maps a domain error to an HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, hub.ErrSessionNotFound):
		return http.StatusNotFound
	case session.IsInvalidEvent(err),
		errors.Is(err, topics.ErrSubFilterRequired),
		errors.Is(err, topics.ErrInvalidSubFilter),
		errors.Is(err, table.ErrUnknownColumn),
		errors.Is(err, table.ErrUnknownOperator):
		return http.StatusBadRequest
	case apifootball.IsUpstreamError(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func respondDomainError(w http.ResponseWriter, message string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError || status == http.StatusBadGateway {
		respondError(w, status, message, err)
		return
	}
	respondError(w, status, err.Error(), nil)
}

func parseBoolParam(r *http.Request, param string, defaultValue bool) bool {
	valueStr := r.URL.Query().Get(param)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("error encoding response")
	}
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	errResp := models.ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	}

	if err != nil {
		log.Error().Err(err).Int("status", status).Msg(message)
	}

	if err := json.NewEncoder(w).Encode(errResp); err != nil {
		log.Error().Err(err).Msg("error encoding error response")
	}
}

// respondArtifact streams an export as an attachment. An empty table yields 204.
func respondArtifact(w http.ResponseWriter, artifact *export.Artifact, err error) {
	if errors.Is(err, export.ErrEmptyTable) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to render export", err)
		return
	}

	w.Header().Set("Content-Type", artifact.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+artifact.FileName+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(artifact.Data)))
	w.WriteHeader(http.StatusOK)
	w.Write(artifact.Data)
}
