package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/XavierBriggs/fortuna/services/football-dashboard/internal/export"
	"github.com/XavierBriggs/fortuna/services/football-dashboard/pkg/models"
	"github.com/go-chi/chi/v5"
)

// maxSnapshotBytes caps a posted table snapshot
const maxSnapshotBytes = 8 << 20

// ExportSnapshot renders a table posted in the request body
func (h *Handler) ExportSnapshot(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	var snapshot models.Table
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSnapshotBytes))
	dec.UseNumber()
	if err := dec.Decode(&snapshot); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	snapshot.Normalize()

	artifact, err := h.dashboard.ExportAs(format, &snapshot)
	respondArtifact(w, artifact, err)
}
