package server

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/ashita-ai/hospitalops/internal/audit"
	"github.com/ashita-ai/hospitalops/internal/dataset"
	"github.com/ashita-ai/hospitalops/internal/dispatch"
	"github.com/ashita-ai/hospitalops/internal/ratelimit"
	"github.com/ashita-ai/hospitalops/internal/service/orchestrator"
	"github.com/ashita-ai/hospitalops/internal/storage"
)

// Server is the hospitalops HTTP server.
type Server struct {
	httpServer *http.Server
	handler    http.Handler
	handlers   *Handlers
	logger     *slog.Logger
}

// Handler returns the root HTTP handler for use in tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ServerConfig holds all dependencies and configuration for creating a Server.
// Optional fields (nil-safe): Mirror, Broker, Limiter, MCPServer, UIFS, OpenAPISpec.
type ServerConfig struct {
	// Required dependencies.
	Orchestrator *orchestrator.Service
	Dispatcher   *dispatch.Dispatcher
	Log          *audit.Log
	Source       dataset.Source
	Logger       *slog.Logger

	// Optional dependencies (nil = disabled).
	Mirror    *storage.DB
	Broker    *Broker
	Limiter   ratelimit.Limiter
	MCPServer *mcpserver.MCPServer

	// HTTP server settings.
	Port                int
	ReadTimeout         time.Duration
	WriteTimeout        time.Duration
	Version             string
	MaxRequestBodyBytes int64

	// Optional embedded assets.
	UIFS        fs.FS  // Embedded dashboard filesystem (SPA).
	OpenAPISpec []byte // Embedded OpenAPI YAML.

	// Extension points set by embedders.
	ExtraRoutes []func(*http.ServeMux)
	Middlewares []func(http.Handler) http.Handler // First entry is outermost.
}

// New creates a new HTTP server with all routes configured.
func New(cfg ServerConfig) *Server {
	h := NewHandlers(HandlersDeps{
		Orchestrator:        cfg.Orchestrator,
		Dispatcher:          cfg.Dispatcher,
		Log:                 cfg.Log,
		Source:              cfg.Source,
		Mirror:              cfg.Mirror,
		Broker:              cfg.Broker,
		Logger:              cfg.Logger,
		Version:             cfg.Version,
		MaxRequestBodyBytes: cfg.MaxRequestBodyBytes,
		OpenAPISpec:         cfg.OpenAPISpec,
	})

	// Only chat turns reach the remote model, so only they are limited.
	chatRL := ratelimit.Middleware(ratelimit.Guard{
		Limiter:   cfg.Limiter,
		RequestID: func(r *http.Request) string { return RequestIDFromContext(r.Context()) },
		Logger:    cfg.Logger,
	})

	mux := http.NewServeMux()

	// Conversation.
	mux.Handle("POST /v1/chat", chatRL(http.HandlerFunc(h.HandleChat)))
	mux.HandleFunc("GET /v1/chat/messages", h.HandleChatMessages)

	// Direct delegation and the tool catalog.
	mux.HandleFunc("POST /v1/dispatch", h.HandleDispatch)
	mux.HandleFunc("GET /v1/tools", h.HandleTools)

	// Audit trail.
	mux.HandleFunc("GET /v1/audit", h.HandleAuditLog)
	mux.HandleFunc("GET /v1/audit/integrity", h.HandleAuditIntegrity)
	mux.HandleFunc("GET /v1/audit/export", h.HandleAuditExport)
	mux.HandleFunc("GET /v1/audit/stream", h.HandleAuditStream)
	mux.HandleFunc("GET /v1/audit/{log_id}", h.HandleAuditRecord)

	// Read-only data views.
	mux.HandleFunc("GET /v1/tables/{table}", h.HandleTable)
	mux.HandleFunc("GET /v1/schema", h.HandleSchema)
	mux.HandleFunc("GET /v1/analytics", h.HandleAnalytics)

	// MCP StreamableHTTP transport.
	if cfg.MCPServer != nil {
		mux.Handle("/mcp", mcpserver.NewStreamableHTTPServer(cfg.MCPServer))
	}

	// OpenAPI spec (no rate limit).
	mux.HandleFunc("GET /openapi.yaml", h.HandleOpenAPISpec)

	// Health (no rate limit).
	mux.HandleFunc("GET /health", h.HandleHealth)

	for _, register := range cfg.ExtraRoutes {
		register(mux)
	}

	// SPA: serve the embedded dashboard at the root path.
	// Registered last so all API routes take priority via the mux's longest-match rule.
	if cfg.UIFS != nil {
		mux.Handle("/", newDashboardHandler(cfg.UIFS))
		cfg.Logger.Info("ui enabled, serving dashboard at /")
	}

	// Middleware chain (outermost executes first):
	// request ID → security headers → tracing → logging → recovery → handler.
	var handler http.Handler = mux
	handler = recoveryMiddleware(cfg.Logger, handler)
	handler = loggingMiddleware(cfg.Logger, handler)
	handler = tracingMiddleware(handler)
	handler = securityHeadersMiddleware(handler)
	handler = requestIDMiddleware(handler)
	for i := len(cfg.Middlewares) - 1; i >= 0; i-- {
		handler = cfg.Middlewares[i](handler)
	}

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		handler:  handler,
		handlers: h,
		logger:   cfg.Logger,
	}
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server shutting down")
	return s.httpServer.Shutdown(ctx)
}
