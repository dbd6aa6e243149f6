// Package model defines the core data types shared across hospitalops packages.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ToolName identifies one of the four delegation tools the operations agent may call.
type ToolName string

const (
	ToolQueryPatient  ToolName = "query_patient_db"
	ToolQueryClinical ToolName = "query_clinical_db"
	ToolQueryStaff    ToolName = "query_staff_db"
	ToolQueryBilling  ToolName = "query_billing_db"
)

// AllTools returns every valid tool name in declaration order.
func AllTools() []ToolName {
	return []ToolName{ToolQueryPatient, ToolQueryClinical, ToolQueryStaff, ToolQueryBilling}
}

// ParseToolName validates a raw tool name.
func ParseToolName(s string) (ToolName, error) {
	for _, t := range AllTools() {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown tool %q", s)
}

// AgentName identifies the sub-agent a delegation was routed to.
type AgentName string

const (
	AgentPatientAdmin   AgentName = "PatientAdmin"
	AgentMedicalRecords AgentName = "MedicalRecords"
	AgentStaffMgmt      AgentName = "StaffMgmt"
	AgentBillingFinance AgentName = "BillingFinance"
	AgentUnknown        AgentName = "Unknown"
)

// ToolRequest is a single tool call: a name plus named string arguments.
// The name is not validated here so unknown names can reach the dispatcher
// and be audited.
type ToolRequest struct {
	Name      ToolName          `json:"name"`
	Arguments map[string]string `json:"arguments"`
	// Malformed holds the decode error when the caller's arguments were not
	// a JSON object. The dispatcher still runs and audits the call.
	Malformed string `json:"-"`
}

// DecodeArguments turns a JSON argument object into string arguments.
// Numbers and booleans keep their JSON text, so a numeric patient reference
// still reaches the sub-agent; null drops the key. Empty input is an empty
// object.
func DecodeArguments(raw []byte) (map[string]string, error) {
	args := map[string]string{}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return args, nil
	}
	var parsed map[string]any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return args, fmt.Errorf("arguments are not a JSON object: %w", err)
	}
	for k, v := range parsed {
		if text, ok := ArgumentText(v); ok {
			args[k] = text
		}
	}
	return args, nil
}

// ToolErrorKind classifies a failed dispatch or a failed model round trip.
// Timeout and RemoteModel are turn-level faults; the dispatcher never
// produces them.
type ToolErrorKind string

const (
	ToolErrValidation   ToolErrorKind = "validation"
	ToolErrUnknownTool  ToolErrorKind = "unknown_tool"
	ToolErrBackendFault ToolErrorKind = "backend_fault"
	ToolErrTimeout      ToolErrorKind = "timeout"
	ToolErrRemoteModel  ToolErrorKind = "remote_model"
)

// BackendFaultReason is the reason reported to the model when a sub-agent's
// backing store fails.
const BackendFaultReason = "Database Connection Failed"

// ToolError is the failure variant of a ToolResult.
type ToolError struct {
	Kind   ToolErrorKind `json:"kind"`
	Reason string        `json:"reason"`
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

// Record is a row returned by a sub-agent. TransactionKey is the value
// recorded as the delegation's transaction_id when the row comes first.
type Record interface {
	TransactionKey() string
}

// ToolResult is either a list of records (possibly empty) or an error.
type ToolResult struct {
	Records []Record
	Err     *ToolError
}

// Success wraps rows as a successful result. A nil slice becomes empty.
func Success(records []Record) ToolResult {
	if records == nil {
		records = []Record{}
	}
	return ToolResult{Records: records}
}

// Failure builds an error result.
func Failure(kind ToolErrorKind, reason string) ToolResult {
	return ToolResult{Err: &ToolError{Kind: kind, Reason: reason}}
}

// OK reports whether the result is the records variant.
func (r ToolResult) OK() bool { return r.Err == nil }

// MarshalJSON renders {"records": [...]} or {"error": {...}}.
func (r ToolResult) MarshalJSON() ([]byte, error) {
	if r.Err != nil {
		return json.Marshal(struct {
			Error *ToolError `json:"error"`
		}{r.Err})
	}
	records := r.Records
	if records == nil {
		records = []Record{}
	}
	return json.Marshal(struct {
		Records []Record `json:"records"`
	}{records})
}

// ToolDeclaration describes a tool to the remote model.
type ToolDeclaration struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  ParameterSchema `json:"parameters"`
}

// ParameterSchema is the JSON-schema object describing a tool's arguments.
type ParameterSchema struct {
	Type       string                       `json:"type"`
	Properties map[string]ParameterProperty `json:"properties"`
	Required   []string                     `json:"required"`
}

// ParameterProperty describes one tool argument.
type ParameterProperty struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

// ArgumentText renders one decoded JSON argument value as the string a
// sub-agent filters on. Scalars keep their JSON text form. It reports
// false for null.
func ArgumentText(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		return val, true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(val), true
	case int:
		return strconv.Itoa(val), true
	default:
		b, _ := json.Marshal(val)
		return string(b), true
	}
}
