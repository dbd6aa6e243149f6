package model

import "time"

// DefaultRequestText is recorded when a delegation has no user utterance,
// e.g. a direct operator dispatch.
const DefaultRequestText = "Automated System Check"

// TransactionNA is the transaction ID recorded for unknown tools.
const TransactionNA = "N/A"

// ControlLog is one delegation record in the CONTROL_LOG audit trail.
// Values are immutable once appended.
type ControlLog struct {
	LogID             int64     `json:"log_id"`
	Timestamp         time.Time `json:"timestamp"`
	UserRequestText   string    `json:"user_request_text"`
	DelegatedAgent    AgentName `json:"delegated_agent"`
	TransactionID     string    `json:"transaction_id"`
	DelegationSuccess bool      `json:"delegation_success"`
}
