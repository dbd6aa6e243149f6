package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/ashita-ai/hospitalops/internal/integrity"
	"github.com/ashita-ai/hospitalops/internal/model"
	"github.com/ashita-ai/hospitalops/internal/storage"
)

// HandleAuditLog handles GET /v1/audit.
// order is asc (storage order, default) or desc; limit keeps the most recent
// n records in either order.
func (h *Handlers) HandleAuditLog(w http.ResponseWriter, r *http.Request) {
	order := r.URL.Query().Get("order")
	if order != "" && order != "asc" && order != "desc" {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "order must be asc or desc")
		return
	}
	limit, err := queryLimit(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, err.Error())
		return
	}

	recs := h.log.Recent(limit)
	if order != "desc" {
		slices.Reverse(recs)
	}
	writeList(w, r, recs, h.log.Len())
}

// HandleAuditRecord handles GET /v1/audit/{log_id}: one record from the
// durable mirror with its hash re-verified.
func (h *Handlers) HandleAuditRecord(w http.ResponseWriter, r *http.Request) {
	logID, err := strconv.ParseInt(r.PathValue("log_id"), 10, 64)
	if err != nil || logID <= 0 {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "log_id must be a positive integer")
		return
	}
	if h.mirror == nil {
		writeError(w, r, http.StatusServiceUnavailable, model.ErrCodeUnavailable, "audit mirror not configured")
		return
	}

	row, err := h.mirror.GetControlLog(r.Context(), logID)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, model.ErrCodeNotFound, fmt.Sprintf("control log %d not found", logID))
		return
	}
	if err != nil {
		h.logger.Error("audit record lookup failed", "log_id", logID, "error", err)
		writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, "failed to read audit record")
		return
	}

	writeJSON(w, r, http.StatusOK, model.AuditRecordResponse{
		ControlLog: row.ControlLog,
		RecordHash: row.RecordHash,
		Verified:   integrity.VerifyRecordHash(row.RecordHash, row.ControlLog),
	})
}

// HandleAuditIntegrity handles GET /v1/audit/integrity.
func (h *Handlers) HandleAuditIntegrity(w http.ResponseWriter, r *http.Request) {
	recs := h.log.All()
	resp := model.IntegrityResponse{
		RecordCount: len(recs),
		MerkleRoot:  integrity.TrailRoot(recs),
	}
	if len(recs) > 0 {
		resp.FirstLogID = recs[0].LogID
		resp.LastLogID = recs[len(recs)-1].LogID
	}

	if h.mirror != nil {
		report, err := h.mirror.VerifyMirror(r.Context())
		if err != nil {
			h.logger.Error("audit integrity: verify mirror", "error", err)
			writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, "failed to verify audit mirror")
			return
		}
		resp.Mirror = &model.MirrorStatus{
			RecordCount: report.Checked,
			MerkleRoot:  report.RootHash,
			Mismatched:  report.Mismatched,
			InSync: report.Checked == resp.RecordCount &&
				len(report.Mismatched) == 0 &&
				report.RootHash == resp.MerkleRoot,
		}
	}

	writeJSON(w, r, http.StatusOK, resp)
}

// HandleAuditExport handles GET /v1/audit/export.
// Streams the durable CONTROL_LOG mirror as NDJSON (one record per line),
// each with the hash written at insert time.
func (h *Handlers) HandleAuditExport(w http.ResponseWriter, r *http.Request) {
	if h.mirror == nil {
		writeError(w, r, http.StatusServiceUnavailable, model.ErrCodeUnavailable, "audit mirror not configured")
		return
	}

	rows, err := h.mirror.ListControlLogs(r.Context(), 0)
	if err != nil {
		h.logger.Error("audit export failed", "error", err)
		writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, "export failed")
		return
	}

	// Filename with timestamp.
	filename := fmt.Sprintf("control-log-%s.ndjson", time.Now().UTC().Format("20060102-150405"))

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.Header().Set("Cache-Control", "no-cache")

	encoder := json.NewEncoder(w)
	for _, row := range rows {
		if err := encoder.Encode(row); err != nil {
			return // Client disconnected.
		}
	}
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
}
