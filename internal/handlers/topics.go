package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/XavierBriggs/fortuna/services/football-dashboard/pkg/models"
	"github.com/go-chi/chi/v5"
)

// upstreamTimeout bounds one stateless request against the football API
const upstreamTimeout = 20 * time.Second

// GetTopics lists the topics in dropdown order
func (h *Handler) GetTopics(w http.ResponseWriter, r *http.Request) {
	topics := h.dashboard.Topics()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"topics": topics,
		"count":  len(topics),
	})
}

// GetSubOptions returns the second-level dropdown for a topic
func (h *Handler) GetSubOptions(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), upstreamTimeout)
	defer cancel()

	topic, err := models.ParseTopic(chi.URLParam(r, "topic"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	options, err := h.dashboard.GetSubOptions(ctx, topic)
	if err != nil {
		respondDomainError(w, "failed to load options", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"topic":   topic,
		"options": options,
		"count":   len(options),
	})
}

// GetTable loads a table without touching any session
func (h *Handler) GetTable(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), upstreamTimeout)
	defer cancel()

	topic, err := models.ParseTopic(chi.URLParam(r, "topic"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	result, err := h.dashboard.LoadTable(ctx, topic, r.URL.Query().Get("filter"))
	if err != nil {
		respondDomainError(w, "failed to load table", err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}
