package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// MaxChatTextLen bounds a single chat message. The full transcript is resent
// to the remote model on every turn, so one oversized message costs every
// later turn too.
const MaxChatTextLen = 8 * 1024

// APIResponse is the standard response envelope for all HTTP API responses.
type APIResponse struct {
	Data any          `json:"data,omitempty"`
	Meta ResponseMeta `json:"meta"`
}

// ListResponse is the standard envelope for list endpoints.
type ListResponse struct {
	Data  any          `json:"data"`
	Total int          `json:"total"`
	Meta  ResponseMeta `json:"meta"`
}

// APIError is the standard error response envelope.
type APIError struct {
	Error ErrorDetail  `json:"error"`
	Meta  ResponseMeta `json:"meta"`
}

// ResponseMeta contains request metadata included in every response.
type ResponseMeta struct {
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorDetail describes an API error.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorCode constants for standard API error codes.
const (
	ErrCodeInvalidInput  = "INVALID_INPUT"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeInternalError = "INTERNAL_ERROR"
	ErrCodeRateLimited   = "RATE_LIMITED"
	ErrCodeUnavailable   = "UNAVAILABLE"
)

// ChatRequest is the request body for POST /v1/chat.
type ChatRequest struct {
	Text string `json:"text"`
}

// Validate checks the chat text is present and bounded.
func (r ChatRequest) Validate() error {
	if strings.TrimSpace(r.Text) == "" {
		return fmt.Errorf("text is required")
	}
	if len(r.Text) > MaxChatTextLen {
		return fmt.Errorf("text exceeds maximum length of %d bytes", MaxChatTextLen)
	}
	return nil
}

// ChatResponse is the response for POST /v1/chat.
type ChatResponse struct {
	Message   ChatMessage      `json:"message"`
	Reply     ChatMessage      `json:"reply"`
	ToolCalls []ToolInvocation `json:"tool_calls"`
	Degraded  bool             `json:"degraded"`
}

// ToolInvocation pairs a tool call the model made with what the dispatcher returned.
type ToolInvocation struct {
	Request ToolRequest `json:"request"`
	Result  ToolResult  `json:"result"`
}

// DispatchRequest is the request body for POST /v1/dispatch.
type DispatchRequest struct {
	Name string `json:"name"`
	// Arguments is decoded with DecodeArguments; a value that is not an
	// object is dispatched as a malformed call.
	Arguments   json.RawMessage `json:"arguments,omitempty"`
	RequestText string          `json:"request_text,omitempty"`
}

// DispatchResponse is the response for POST /v1/dispatch.
type DispatchResponse struct {
	Result ToolResult `json:"result"`
	Log    ControlLog `json:"log"`
}

// IntegrityResponse is the response for GET /v1/audit/integrity.
type IntegrityResponse struct {
	RecordCount int           `json:"record_count"`
	FirstLogID  int64         `json:"first_log_id,omitempty"`
	LastLogID   int64         `json:"last_log_id,omitempty"`
	MerkleRoot  string        `json:"merkle_root"`
	Mirror      *MirrorStatus `json:"mirror,omitempty"`
}

// MirrorStatus compares the durable CONTROL_LOG mirror with the in-memory log.
type MirrorStatus struct {
	RecordCount int     `json:"record_count"`
	MerkleRoot  string  `json:"merkle_root"`
	Mismatched  []int64 `json:"mismatched,omitempty"`
	// InSync is true when the mirror holds the same records with the same root.
	InSync bool `json:"in_sync"`
}

// AuditRecordResponse is the response for GET /v1/audit/{log_id}: one
// mirrored record, its stored hash, and whether the hash still matches.
type AuditRecordResponse struct {
	ControlLog
	RecordHash string `json:"record_hash"`
	Verified   bool   `json:"verified"`
}

// HealthResponse is the response for GET /health.
type HealthResponse struct {
	Status     string `json:"status"`
	Version    string `json:"version"`
	AuditDepth int    `json:"audit_depth"`
	Mirror     string `json:"mirror,omitempty"`
	ModelReady bool   `json:"model_ready"`
	Uptime     int64  `json:"uptime_seconds"`
}
