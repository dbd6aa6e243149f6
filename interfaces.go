package hospitalops

import (
	"context"
	"net/http"
)

// AuditHook receives every CONTROL_LOG record after it is appended.
// Multiple hooks may be registered via multiple WithAuditHook calls.
// Hooks run on the dispatching goroutine and must not block indefinitely.
// Failures are logged but do not fail the delegation.
type AuditHook interface {
	OnDelegation(ctx context.Context, rec ControlLog) error
}

// RouteRegistrar registers additional routes on the shared HTTP mux.
// Extra routes share the mux and OTEL instrumentation with the built-in ones.
// The function is called once during New() after all built-in routes are registered.
type RouteRegistrar func(mux *http.ServeMux)

// Middleware wraps the root HTTP handler.
// Applied outermost (before routing), so it sees all requests including /health.
// Multiple middlewares are applied in registration order (first-registered = outermost).
type Middleware func(http.Handler) http.Handler
