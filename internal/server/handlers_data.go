package server

import (
	"errors"
	"net/http"

	"github.com/ashita-ai/hospitalops/internal/dataset"
	"github.com/ashita-ai/hospitalops/internal/model"
	"github.com/ashita-ai/hospitalops/internal/service/analytics"
	"github.com/ashita-ai/hospitalops/internal/storage"
)

// HandleTable handles GET /v1/tables/{table}.
func (h *Handlers) HandleTable(w http.ResponseWriter, r *http.Request) {
	table := r.PathValue("table")
	rows, err := dataset.Rows(r.Context(), h.source, table)
	if err != nil {
		if errors.Is(err, dataset.ErrUnknownTable) {
			writeError(w, r, http.StatusNotFound, model.ErrCodeNotFound, err.Error())
			return
		}
		h.logger.Error("read table failed", "table", table, "error", err)
		writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, "failed to read table")
		return
	}
	writeJSON(w, r, http.StatusOK, rows)
}

// HandleSchema handles GET /v1/schema.
func (h *Handlers) HandleSchema(w http.ResponseWriter, r *http.Request) {
	defs := storage.Definitions()
	writeList(w, r, defs, len(defs))
}

// HandleAnalytics handles GET /v1/analytics.
func (h *Handlers) HandleAnalytics(w http.ResponseWriter, r *http.Request) {
	summary, err := analytics.Summarize(r.Context(), h.source)
	if err != nil {
		h.logger.Error("analytics failed", "error", err)
		writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, "failed to compute analytics")
		return
	}
	writeJSON(w, r, http.StatusOK, summary)
}
