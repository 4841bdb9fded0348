package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/XavierBriggs/fortuna/services/football-dashboard/internal/export"
	"github.com/XavierBriggs/fortuna/services/football-dashboard/internal/session"
	"github.com/XavierBriggs/fortuna/services/football-dashboard/internal/table"
	"github.com/XavierBriggs/fortuna/services/football-dashboard/pkg/models"
	"github.com/go-chi/chi/v5"
)

// filterParamPrefix marks per-column filter query parameters, e.g. filter.name=premier
const filterParamPrefix = "filter."

// eventResponse is the body returned after an event is applied
type eventResponse struct {
	State     models.SessionState `json:"state"`
	Clipboard *string             `json:"clipboard,omitempty"`
	Download  *export.Artifact    `json:"download,omitempty"`
}

// CreateSession starts a new empty session
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	s := h.hub.CreateSession()
	respondJSON(w, http.StatusCreated, s.State())
}

// GetSession returns the current state of a session
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookupSession(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, s.State())
}

// DeleteSession drops a session
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.hub.RemoveSession(chi.URLParam(r, "id")); err != nil {
		respondDomainError(w, "failed to remove session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PostEvent applies one tagged event, e.g. {"type":"topic_changed","payload":{"topic":"leagues"}}
func (h *Handler) PostEvent(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*upstreamTimeout)
	defer cancel()

	s, ok := h.lookupSession(w, r)
	if !ok {
		return
	}

	var msg models.ClientMessage
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	ev, err := session.DecodeEvent(msg)
	if err != nil {
		respondDomainError(w, "invalid event", err)
		return
	}

	update, err := s.Handle(ctx, ev)
	if err != nil {
		respondDomainError(w, "failed to apply event", err)
		return
	}

	respondJSON(w, http.StatusOK, eventResponse{
		State:     update.State,
		Clipboard: update.Clipboard,
		Download:  update.Download,
	})
}

// GetSessionTable returns a sorted and filtered view of the session table.
// Query: sort=<column>&desc=true&filter.<column>=<expr>
func (h *Handler) GetSessionTable(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookupSession(w, r)
	if !ok {
		return
	}

	view, err := s.View(parseQuery(r))
	if err != nil {
		respondDomainError(w, "failed to build view", err)
		return
	}

	respondJSON(w, http.StatusOK, view)
}

// ExportSession downloads the session table; 204 when it is empty
func (h *Handler) ExportSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookupSession(w, r)
	if !ok {
		return
	}

	format, err := export.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	update, err := s.Handle(r.Context(), session.ExportRequested{Format: format})
	if err != nil {
		respondDomainError(w, "failed to export", err)
		return
	}
	if update.Download == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	respondArtifact(w, update.Download, nil)
}

func (h *Handler) lookupSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s, err := h.hub.GetSession(chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, "session not found", err)
		return nil, false
	}
	return s, true
}

// parseQuery reads the sort and filter parameters of a table view
func parseQuery(r *http.Request) table.Query {
	var q table.Query

	values := r.URL.Query()
	if col := values.Get("sort"); col != "" {
		q.Sort = &table.SortSpec{
			Column:     col,
			Descending: parseBoolParam(r, "desc", false),
		}
	}

	for key, vals := range values {
		if !strings.HasPrefix(key, filterParamPrefix) || len(vals) == 0 {
			continue
		}
		column := strings.TrimPrefix(key, filterParamPrefix)
		for _, expr := range vals {
			if strings.TrimSpace(expr) == "" {
				continue
			}
			q.Filters = append(q.Filters, table.ParseFilter(column, expr))
		}
	}
	return q
}
