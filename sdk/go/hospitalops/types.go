package hospitalops

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Tool names the model and direct callers can dispatch.
const (
	ToolQueryPatient  = "query_patient_db"
	ToolQueryClinical = "query_clinical_db"
	ToolQueryStaff    = "query_staff_db"
	ToolQueryBilling  = "query_billing_db"
)

// ChatMessage is one entry in the conversation transcript.
type ChatMessage struct {
	ID        uuid.UUID `json:"id"`
	Role      string    `json:"role"` // "user" or "model"
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// ToolRequest is a tool invocation.
type ToolRequest struct {
	Name      string            `json:"name"`
	Arguments map[string]string `json:"arguments"`
}

// ToolError is the failure variant of a ToolResult.
type ToolError struct {
	Kind   string `json:"kind"` // validation, unknown_tool, backend_fault
	Reason string `json:"reason"`
}

// ToolResult holds either matched rows or an error. Rows are left raw
// because each sub-agent returns its own row shape.
type ToolResult struct {
	Records []json.RawMessage `json:"records,omitempty"`
	Error   *ToolError        `json:"error,omitempty"`
}

// OK reports whether the dispatch succeeded.
func (r ToolResult) OK() bool { return r.Error == nil }

// ToolInvocation pairs one model tool call with its outcome.
type ToolInvocation struct {
	Request ToolRequest `json:"request"`
	Result  ToolResult  `json:"result"`
}

// ChatResponse is the outcome of one conversational turn.
type ChatResponse struct {
	Message   ChatMessage      `json:"message"`
	Reply     ChatMessage      `json:"reply"`
	ToolCalls []ToolInvocation `json:"tool_calls"`
	// Degraded is true when the model round trip failed; Reply explains why.
	Degraded bool `json:"degraded"`
}

// ControlLog is one delegation record in the audit trail.
type ControlLog struct {
	LogID             int64     `json:"log_id"`
	Timestamp         time.Time `json:"timestamp"`
	UserRequestText   string    `json:"user_request_text"`
	DelegatedAgent    string    `json:"delegated_agent"`
	TransactionID     string    `json:"transaction_id"`
	DelegationSuccess bool      `json:"delegation_success"`
}

// DispatchRequest is the body of a direct delegation.
type DispatchRequest struct {
	Name      string            `json:"name"`
	Arguments map[string]string `json:"arguments,omitempty"`
	// RequestText is recorded in the audit trail. Empty means the server
	// records "Automated System Check".
	RequestText string `json:"request_text,omitempty"`
}

// DispatchResponse is the result of a direct delegation and its audit record.
type DispatchResponse struct {
	Result ToolResult `json:"result"`
	Log    ControlLog `json:"log"`
}

// ToolDeclaration describes one tool as the model sees it.
type ToolDeclaration struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

// MirrorStatus compares the durable mirror with the in-memory trail.
type MirrorStatus struct {
	RecordCount int     `json:"record_count"`
	MerkleRoot  string  `json:"merkle_root"`
	Mismatched  []int64 `json:"mismatched,omitempty"`
	InSync      bool    `json:"in_sync"`
}

// IntegrityReport is the response of GET /v1/audit/integrity.
type IntegrityReport struct {
	RecordCount int           `json:"record_count"`
	FirstLogID  int64         `json:"first_log_id,omitempty"`
	LastLogID   int64         `json:"last_log_id,omitempty"`
	MerkleRoot  string        `json:"merkle_root"`
	Mirror      *MirrorStatus `json:"mirror,omitempty"`
}

// Health is the response of GET /health.
type Health struct {
	Status     string `json:"status"`
	Version    string `json:"version"`
	AuditDepth int    `json:"audit_depth"`
	Mirror     string `json:"mirror,omitempty"`
	ModelReady bool   `json:"model_ready"`
	Uptime     int64  `json:"uptime_seconds"`
}
