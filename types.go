package hospitalops

import "time"

// AgentName identifies the sub-agent a delegation was routed to.
type AgentName string

const (
	AgentPatientAdmin   AgentName = "PatientAdmin"
	AgentMedicalRecords AgentName = "MedicalRecords"
	AgentStaffMgmt      AgentName = "StaffMgmt"
	AgentBillingFinance AgentName = "BillingFinance"
	AgentUnknown        AgentName = "Unknown"
)

// ControlLog is the public representation of one CONTROL_LOG record.
// It is a copy of the internal record for use in extension interfaces.
// These types import no internal packages.
type ControlLog struct {
	LogID             int64
	Timestamp         time.Time
	UserRequestText   string
	DelegatedAgent    AgentName
	TransactionID     string
	DelegationSuccess bool
}
