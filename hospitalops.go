// Package hospitalops is the public API for embedding the hospital operations
// assistant server.
//
// Consumers import this package to construct and extend the server without
// forking it:
//
//	app, err := hospitalops.New(
//	    hospitalops.WithVersion(version),
//	    hospitalops.WithLogger(logger),
//	    hospitalops.WithAuditHook(mySIEMForwarder{}),
//	)
//	if err != nil { ... }
//	if err := app.Run(ctx); err != nil { ... }
//
// The root package imports internal/*, but internal/* never imports the root.
// Public types (ControlLog, AgentName) are standalone; the conversion helper
// lives here because this is the only file that sees both sides of the boundary.
package hospitalops

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/joho/godotenv"

	"github.com/ashita-ai/hospitalops/api"
	"github.com/ashita-ai/hospitalops/internal/audit"
	"github.com/ashita-ai/hospitalops/internal/config"
	"github.com/ashita-ai/hospitalops/internal/dataset"
	"github.com/ashita-ai/hospitalops/internal/dispatch"
	"github.com/ashita-ai/hospitalops/internal/llm"
	"github.com/ashita-ai/hospitalops/internal/mcp"
	"github.com/ashita-ai/hospitalops/internal/model"
	"github.com/ashita-ai/hospitalops/internal/ratelimit"
	"github.com/ashita-ai/hospitalops/internal/server"
	"github.com/ashita-ai/hospitalops/internal/service/orchestrator"
	"github.com/ashita-ai/hospitalops/internal/storage"
	"github.com/ashita-ai/hospitalops/internal/telemetry"
	"github.com/ashita-ai/hospitalops/migrations"
	"github.com/ashita-ai/hospitalops/ui"
)

// shutdownHTTPTimeout bounds the drain of in-flight requests.
const shutdownHTTPTimeout = 10 * time.Second

// App is the server lifecycle. Construct with New(), run with Run().
// App is configured only through New options.
type App struct {
	cfg          config.Config
	db           *storage.DB
	log          *audit.Log
	srv          *server.Server
	limiter      ratelimit.Limiter
	otelShutdown telemetry.Shutdown
	logger       *slog.Logger
	version      string
}

// New initialises the server. It opens the CONTROL_LOG mirror, runs
// migrations, restores or seeds the audit trail, wires all subsystems and
// returns a ready-to-run App.
// It does not accept HTTP connections until Run is called.
func New(opts ...Option) (*App, error) {
	o := resolvedOptions{}
	for _, fn := range opts {
		fn(&o)
	}

	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}

	// Load .env file if present (non-fatal; production won't have one).
	_ = godotenv.Load()

	// Load configuration (env vars), then apply option overrides.
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if o.port != 0 {
		cfg.Port = o.port
	}
	if o.auditDSN != "" {
		cfg.AuditDSN = o.auditDSN
	}
	if o.datasetPath != "" {
		cfg.DatasetPath = o.datasetPath
	}
	version := o.version
	if version == "" {
		version = "dev"
	}

	logger.Info("hospitalops starting", "version", version, "port", cfg.Port)

	ctx := context.Background()

	otelShutdown, err := telemetry.Init(ctx, telemetry.Options{
		Endpoint:    cfg.OTELEndpoint,
		ServiceName: cfg.ServiceName,
		Version:     version,
		Insecure:    cfg.OTELInsecure,
	})
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}

	// Durable CONTROL_LOG mirror.
	db, err := storage.New(ctx, cfg.AuditDSN, logger)
	if err != nil {
		_ = otelShutdown(ctx)
		return nil, fmt.Errorf("storage: %w", err)
	}
	cleanup := func() {
		_ = db.Close()
		_ = otelShutdown(context.Background())
	}

	if err := db.RunMigrations(ctx, migrations.FS); err != nil {
		cleanup()
		return nil, fmt.Errorf("migrations: %w", err)
	}
	for _, extra := range o.extraMigrations {
		if err := db.RunMigrations(ctx, extra); err != nil {
			cleanup()
			return nil, fmt.Errorf("extra migrations: %w", err)
		}
	}

	source, err := loadDataset(cfg.DatasetPath, logger)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("dataset: %w", err)
	}

	seed, err := loadSeed(ctx, db, logger)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("audit seed: %w", err)
	}

	// The mirror is the first sink so the stream never announces a record
	// the export cannot return.
	broker := server.NewBroker(logger)
	sinks := []audit.Option{audit.WithSink(db), audit.WithSink(broker)}
	for _, h := range o.auditHooks {
		sinks = append(sinks, audit.WithSink(&auditHookAdapter{hook: h}))
	}
	auditLog := audit.New(logger, seed, sinks...)
	auditLog.RegisterMetrics()

	dispatcher := dispatch.New(dispatch.Config{
		Source:   source,
		Log:      auditLog,
		Logger:   logger,
		Latency:  cfg.SimulatedLatency,
		Parallel: cfg.ParallelToolCalls,
	})

	client := llm.NewClient(llm.ClientConfig{
		BaseURL: cfg.ModelBaseURL,
		APIKey:  cfg.ModelAPIKey,
		Model:   cfg.ModelName,
	})
	if client.HasAPIKey() {
		logger.Info("model: configured", "model", cfg.ModelName)
	} else {
		logger.Warn("model: no API key configured, chat turns reply with the missing-key message")
	}

	orch := orchestrator.New(orchestrator.Config{
		Provider:   client,
		Dispatcher: dispatcher,
		Logger:     logger,
		Timeout:    cfg.ModelTimeout,
	})

	mcpSrv := mcp.New(mcp.Config{
		Dispatcher: dispatcher,
		Log:        auditLog,
		Source:     source,
		Logger:     logger,
		Version:    version,
	})

	uiFS, err := ui.DistFS()
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("ui: %w", err)
	}
	if uiFS != nil {
		logger.Info("ui: embedded SPA loaded")
	}

	var limiter ratelimit.Limiter
	if cfg.RateLimitEnabled {
		limiter = ratelimit.NewMemoryLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
		logger.Info("rate limiting: memory (in-process token bucket)",
			"rps", cfg.RateLimitRPS, "burst", cfg.RateLimitBurst)
	} else {
		limiter = ratelimit.NoopLimiter{}
		logger.Info("rate limiting: disabled")
	}

	var extraRoutes []func(*http.ServeMux)
	for _, fn := range o.routeRegistrars {
		extraRoutes = append(extraRoutes, fn)
	}
	var middlewares []func(http.Handler) http.Handler
	for _, mw := range o.middlewares {
		middlewares = append(middlewares, mw)
	}

	srv := server.New(server.ServerConfig{
		Orchestrator:        orch,
		Dispatcher:          dispatcher,
		Log:                 auditLog,
		Source:              source,
		Logger:              logger,
		Mirror:              db,
		Broker:              broker,
		Limiter:             limiter,
		MCPServer:           mcpSrv.MCPServer(),
		Port:                cfg.Port,
		ReadTimeout:         cfg.ReadTimeout,
		WriteTimeout:        cfg.WriteTimeout,
		Version:             version,
		MaxRequestBodyBytes: cfg.MaxRequestBodyBytes,
		UIFS:                uiFS,
		OpenAPISpec:         api.OpenAPISpec,
		ExtraRoutes:         extraRoutes,
		Middlewares:         middlewares,
	})

	return &App{
		cfg:          cfg,
		db:           db,
		log:          auditLog,
		srv:          srv,
		limiter:      limiter,
		otelShutdown: otelShutdown,
		logger:       logger,
		version:      version,
	}, nil
}

// Handler returns the root HTTP handler, for tests and for callers that
// serve the App on their own listener.
func (a *App) Handler() http.Handler {
	return a.srv.Handler()
}

// Run starts the HTTP server, then blocks until ctx is cancelled or a fatal
// server error occurs. On return, Shutdown has already been called, so callers
// should not call Shutdown separately.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := a.srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
	}

	if err := a.Shutdown(context.Background()); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// Shutdown stops accepting HTTP requests and drains in-flight ones, then
// closes the mirror and the OTEL providers. In-flight dispatches still
// append to the log and its sinks, so the mirror closes last.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("hospitalops shutting down")

	httpCtx, httpCancel := context.WithTimeout(ctx, shutdownHTTPTimeout)
	if err := a.srv.Shutdown(httpCtx); err != nil {
		a.logger.Error("http shutdown error", "error", err)
	}
	httpCancel()

	_ = a.limiter.Close()
	_ = a.otelShutdown(context.Background())
	if err := a.db.Close(); err != nil {
		return fmt.Errorf("close mirror: %w", err)
	}

	a.logger.Info("hospitalops stopped", "audit_depth", a.log.Len())
	return nil
}

// ── Adapters (defined here because this file imports both sides) ───────────────

// auditHookAdapter wraps a hospitalops.AuditHook to satisfy audit.Sink.
// It converts the internal record to the public type at the boundary.
type auditHookAdapter struct {
	hook AuditHook
}

func (a *auditHookAdapter) WriteControlLog(ctx context.Context, rec model.ControlLog) error {
	return a.hook.OnDelegation(ctx, toPublicControlLog(rec))
}

func toPublicControlLog(rec model.ControlLog) ControlLog {
	return ControlLog{
		LogID:             rec.LogID,
		Timestamp:         rec.Timestamp,
		UserRequestText:   rec.UserRequestText,
		DelegatedAgent:    AgentName(rec.DelegatedAgent),
		TransactionID:     rec.TransactionID,
		DelegationSuccess: rec.DelegationSuccess,
	}
}

// ── Helpers ────────────────────────────────────────────────────────────────────

// loadDataset returns the built-in records, or the fixture at path when set.
func loadDataset(path string, logger *slog.Logger) (dataset.Source, error) {
	if path == "" {
		return dataset.Default(), nil
	}
	ds, err := dataset.LoadFile(path)
	if err != nil {
		return nil, err
	}
	logger.Info("dataset: loaded fixture", "path", path, "counts", ds.Counts())
	return ds, nil
}

// loadSeed restores the trail from the mirror after a restart. A fresh mirror
// gets the two control entries written through so its IDs line up with the
// in-memory log.
func loadSeed(ctx context.Context, db *storage.DB, logger *slog.Logger) ([]model.ControlLog, error) {
	n, err := db.CountControlLogs(ctx)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		rows, err := db.ListControlLogs(ctx, 0)
		if err != nil {
			return nil, err
		}
		logger.Info("audit: restored from mirror", "records", len(rows))
		return storage.Records(rows), nil
	}

	seed := dataset.SeedControlLogs(time.Now())
	for _, rec := range seed {
		if err := db.WriteControlLog(ctx, rec); err != nil {
			return nil, err
		}
	}
	return seed, nil
}
