package hospitalops

import (
	"io/fs"
	"log/slog"
)

// Option configures an App.
type Option func(*resolvedOptions)

// resolvedOptions holds all extension points after applying defaults.
// Populated by the With* functions.
type resolvedOptions struct {
	port            int
	auditDSN        string
	datasetPath     string
	logger          *slog.Logger
	version         string
	auditHooks      []AuditHook
	routeRegistrars []RouteRegistrar
	middlewares     []Middleware
	extraMigrations []fs.FS
}

// WithPort overrides the TCP port from config (HOSPITALOPS_PORT env var).
func WithPort(port int) Option {
	return func(o *resolvedOptions) { o.port = port }
}

// WithAuditDSN overrides the SQLite DSN of the CONTROL_LOG mirror
// (HOSPITALOPS_AUDIT_DB_DSN env var). Point it at a file to keep the trail
// across restarts.
func WithAuditDSN(dsn string) Option {
	return func(o *resolvedOptions) { o.auditDSN = dsn }
}

// WithDatasetPath loads the four data partitions from a TOML or YAML fixture
// instead of the built-in records (HOSPITALOPS_DATASET_PATH env var).
func WithDatasetPath(path string) Option {
	return func(o *resolvedOptions) { o.datasetPath = path }
}

// WithLogger sets the structured logger for the App.
// If not set, the default slog logger is used.
func WithLogger(logger *slog.Logger) Option {
	return func(o *resolvedOptions) { o.logger = logger }
}

// WithVersion sets the version string reported in the health endpoint and logs.
func WithVersion(version string) Option {
	return func(o *resolvedOptions) { o.version = version }
}

// WithAuditHook registers a hook that receives every appended CONTROL_LOG record.
func WithAuditHook(hook AuditHook) Option {
	return func(o *resolvedOptions) { o.auditHooks = append(o.auditHooks, hook) }
}

// WithExtraRoutes registers additional routes on the shared HTTP mux.
// Multiple registrars may be registered; all are called in registration order.
func WithExtraRoutes(fn RouteRegistrar) Option {
	return func(o *resolvedOptions) { o.routeRegistrars = append(o.routeRegistrars, fn) }
}

// WithMiddleware registers an outermost HTTP middleware.
// Multiple middlewares may be registered. Applied in registration order:
// the first-registered middleware is outermost (called first by every request).
func WithMiddleware(mw Middleware) Option {
	return func(o *resolvedOptions) { o.middlewares = append(o.middlewares, mw) }
}

// WithExtraMigrations adds an SQL migration filesystem applied to the mirror
// after the built-in migrations. File names share one schema_migrations
// table, so they must not collide with the built-in ones.
func WithExtraMigrations(dir fs.FS) Option {
	return func(o *resolvedOptions) { o.extraMigrations = append(o.extraMigrations, dir) }
}
