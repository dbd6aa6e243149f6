package ctxutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-42")
	assert.Equal(t, "req-42", RequestIDFromContext(ctx))
	assert.Empty(t, RequestIDFromContext(context.Background()))
}

func TestChannelRoundTrip(t *testing.T) {
	ctx := WithChannel(context.Background(), ChannelMCP)
	assert.Equal(t, ChannelMCP, ChannelFromContext(ctx))
	assert.Equal(t, Channel(""), ChannelFromContext(context.Background()))
}

func TestOriginLogAttrs(t *testing.T) {
	assert.Empty(t, OriginFromContext(context.Background()).LogAttrs())

	ctx := WithChannel(WithRequestID(context.Background(), "req-1"), ChannelHTTP)
	o := OriginFromContext(ctx)
	assert.Equal(t, Origin{RequestID: "req-1", Channel: ChannelHTTP}, o)
	assert.Equal(t, []any{"channel", "http", "request_id", "req-1"}, o.LogAttrs())

	chatOnly := OriginFromContext(WithChannel(context.Background(), ChannelChat))
	assert.Equal(t, []any{"channel", "chat"}, chatOnly.LogAttrs())
}
