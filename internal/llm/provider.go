// Package llm is the boundary to the remote language model that plays the
// hospital operations manager. The rest of the system sees only the Provider
// interface: a transcript and tool declarations go in, text and tool calls
// come out.
package llm

import (
	"context"
	"errors"

	"github.com/ashita-ai/hospitalops/internal/model"
)

// ErrMissingAPIKey is returned when no API key is configured. No request is sent.
var ErrMissingAPIKey = errors.New("llm: API key is missing")

// ErrTimeout is returned when the model does not answer within the
// configured bound.
var ErrTimeout = errors.New("llm: model did not respond in time")

// Role is the author of a message sent to the model.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one entry of the conversation sent to the model.
type Message struct {
	Role    Role
	Content string
	// ToolCalls is set on assistant messages that requested tools.
	ToolCalls []ToolCall
	// ToolCallID and Name are set on tool-result messages.
	ToolCallID string
	Name       string
}

// ToolCall is a function call requested by the model.
type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]string
	// ArgumentsErr is set when the model's arguments were not a JSON
	// object. Arguments is then empty.
	ArgumentsErr error
}

// Request is one completion call.
type Request struct {
	SystemPrompt string
	Messages     []Message
	Tools        []model.ToolDeclaration
}

// Response is the model's reply: text, tool calls, or both.
type Response struct {
	Text      string
	ToolCalls []ToolCall
}

// Provider sends a completion request to a model.
type Provider interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}
