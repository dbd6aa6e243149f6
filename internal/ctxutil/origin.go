package ctxutil

import "context"

// Channel names the surface a delegation was requested through.
type Channel string

const (
	ChannelChat Channel = "chat" // model tool call during a conversational turn
	ChannelHTTP Channel = "http" // POST /v1/dispatch
	ChannelMCP  Channel = "mcp"  // MCP tools/call
)

// Origin is what the dispatcher records about who asked for a delegation.
type Origin struct {
	RequestID string
	Channel   Channel
}

// OriginFromContext collects the origin fields set on ctx.
func OriginFromContext(ctx context.Context) Origin {
	return Origin{
		RequestID: RequestIDFromContext(ctx),
		Channel:   ChannelFromContext(ctx),
	}
}

// LogAttrs returns slog key/value pairs for the fields that are set.
func (o Origin) LogAttrs() []any {
	var attrs []any
	if o.Channel != "" {
		attrs = append(attrs, "channel", string(o.Channel))
	}
	if o.RequestID != "" {
		attrs = append(attrs, "request_id", o.RequestID)
	}
	return attrs
}
