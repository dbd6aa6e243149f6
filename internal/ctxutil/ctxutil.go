// Package ctxutil provides shared context key accessors.
//
// The HTTP server and the MCP server stamp each request with its origin, and
// the dispatcher logs that origin with every delegation. All three import
// ctxutil instead of each other.
package ctxutil

import "context"

type contextKey string

const (
	keyRequestID contextKey = "request_id"
	keyChannel   contextKey = "channel"
)

// WithRequestID returns a new context carrying the given request ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, keyRequestID, id)
}

// RequestIDFromContext extracts the request ID from the context.
func RequestIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(keyRequestID).(string); ok {
		return v
	}
	return ""
}

// WithChannel returns a new context carrying the surface a request arrived through.
func WithChannel(ctx context.Context, ch Channel) context.Context {
	return context.WithValue(ctx, keyChannel, ch)
}

// ChannelFromContext extracts the channel, or "" when none was set.
func ChannelFromContext(ctx context.Context) Channel {
	if v, ok := ctx.Value(keyChannel).(Channel); ok {
		return v
	}
	return ""
}
