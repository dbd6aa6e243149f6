package ratelimit

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/ashita-ai/hospitalops/internal/model"
)

// Guard configures Middleware.
type Guard struct {
	Limiter Limiter
	// Key maps a request to its bucket. An empty key bypasses the limiter.
	// Defaults to ClientIP.
	Key func(*http.Request) string
	// RequestID stamps the 429 envelope. Optional.
	RequestID func(*http.Request) string
	Logger    *slog.Logger
}

// Middleware rejects requests over the limit with 429 and a Retry-After
// header. A limiter error lets the request through.
func Middleware(g Guard) func(http.Handler) http.Handler {
	if g.Key == nil {
		g.Key = ClientIP
	}
	if g.Logger == nil {
		g.Logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		if g.Limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key := g.Key(r); key != "" && !g.admit(r, key) {
				g.reject(w, r, key)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (g Guard) admit(r *http.Request, key string) bool {
	ok, err := g.Limiter.Allow(r.Context(), key)
	if err != nil {
		g.Logger.Warn("ratelimit: limiter failed, admitting request", "key", key, "error", err)
		return true
	}
	return ok
}

func (g Guard) reject(w http.ResponseWriter, r *http.Request, key string) {
	wait := time.Second
	if ra, ok := g.Limiter.(RetryAfterer); ok {
		wait = ra.RetryAfter(key)
	}
	g.Logger.Info("ratelimit: request rejected", "key", key, "path", r.URL.Path, "retry_after", wait)

	body := model.APIError{
		Error: model.ErrorDetail{Code: model.ErrCodeRateLimited, Message: "too many requests"},
		Meta:  model.ResponseMeta{Timestamp: time.Now().UTC()},
	}
	if g.RequestID != nil {
		body.Meta.RequestID = g.RequestID(r)
	}
	w.Header().Set("Retry-After", strconv.Itoa(int(wait/time.Second)))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(body)
}

// ClientIP keys requests by the connection's remote host. X-Forwarded-For
// is ignored since clients control it.
func ClientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
