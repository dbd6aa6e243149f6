package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ashita-ai/hospitalops/internal/audit"
	"github.com/ashita-ai/hospitalops/internal/dataset"
	"github.com/ashita-ai/hospitalops/internal/dispatch"
	"github.com/ashita-ai/hospitalops/internal/model"
	"github.com/ashita-ai/hospitalops/internal/service/orchestrator"
	"github.com/ashita-ai/hospitalops/internal/storage"
)

// Handlers holds HTTP handler dependencies.
type Handlers struct {
	orchestrator        *orchestrator.Service
	dispatcher          *dispatch.Dispatcher
	log                 *audit.Log
	source              dataset.Source
	mirror              *storage.DB
	broker              *Broker
	logger              *slog.Logger
	startedAt           time.Time
	version             string
	maxRequestBodyBytes int64
	openapiSpec         []byte
}

// HandlersDeps holds all dependencies for constructing Handlers.
// Optional (nil-safe): Mirror, Broker, OpenAPISpec.
type HandlersDeps struct {
	Orchestrator        *orchestrator.Service
	Dispatcher          *dispatch.Dispatcher
	Log                 *audit.Log
	Source              dataset.Source
	Mirror              *storage.DB
	Broker              *Broker
	Logger              *slog.Logger
	Version             string
	MaxRequestBodyBytes int64
	OpenAPISpec         []byte
}

// NewHandlers creates a new Handlers with all dependencies.
func NewHandlers(d HandlersDeps) *Handlers {
	return &Handlers{
		orchestrator:        d.Orchestrator,
		dispatcher:          d.Dispatcher,
		log:                 d.Log,
		source:              d.Source,
		mirror:              d.Mirror,
		broker:              d.Broker,
		logger:              d.Logger,
		startedAt:           time.Now(),
		version:             d.Version,
		maxRequestBodyBytes: d.MaxRequestBodyBytes,
		openapiSpec:         d.OpenAPISpec,
	}
}

// HandleHealth handles GET /health.
// A missing model key leaves the service healthy: turns reply with the
// missing-key message, and direct dispatch still works. A disconnected
// mirror degrades it.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"

	resp := model.HealthResponse{
		Version:    h.version,
		AuditDepth: h.log.Len(),
		ModelReady: h.orchestrator != nil && h.orchestrator.ModelReady(),
		Uptime:     int64(time.Since(h.startedAt).Seconds()),
	}

	if h.mirror != nil {
		if err := h.mirror.Ping(r.Context()); err == nil {
			resp.Mirror = "connected"
		} else {
			h.logger.Warn("health: mirror ping failed", "error", err)
			resp.Mirror = "disconnected"
			status = "degraded"
		}
	}

	resp.Status = status
	writeJSON(w, r, http.StatusOK, resp)
}

// HandleOpenAPISpec serves the embedded OpenAPI specification.
func (h *Handlers) HandleOpenAPISpec(w http.ResponseWriter, r *http.Request) {
	if len(h.openapiSpec) == 0 {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(h.openapiSpec)
}

// --- Shared helpers ---

// maxQueryLimit is the maximum allowed value for limit query parameters.
const maxQueryLimit = 1000

// queryLimit parses an optional limit parameter. Absent means 0 (no limit);
// present values must be in [1, maxQueryLimit].
func queryLimit(r *http.Request) (int, error) {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 || n > maxQueryLimit {
		return 0, fmt.Errorf("limit must be an integer between 1 and %d", maxQueryLimit)
	}
	return n, nil
}
