package model

import (
	"strconv"
	"time"
)

// PatientAdmin is a row of the PATIENT_ADMIN partition.
type PatientAdmin struct {
	PatientID        string    `json:"patient_id" toml:"patient_id" yaml:"patient_id"`
	NIK              string    `json:"nik" toml:"nik" yaml:"nik"`
	FullName         string    `json:"full_name" toml:"full_name" yaml:"full_name"`
	RegistrationDate string    `json:"registration_date" toml:"registration_date" yaml:"registration_date"`
	ContactNumber    string    `json:"contact_number" toml:"contact_number" yaml:"contact_number"`
	AppointmentDate  time.Time `json:"appointment_date" toml:"appointment_date" yaml:"appointment_date"`
}

// TransactionKey returns the patient ID.
func (p PatientAdmin) TransactionKey() string { return p.PatientID }

// ClinicalRecord is a row of the RME_CLINICAL_DATA partition.
type ClinicalRecord struct {
	RecordID          int64     `json:"record_id" toml:"record_id" yaml:"record_id"`
	PatientID         string    `json:"patient_id" toml:"patient_id" yaml:"patient_id"`
	EncounterDate     time.Time `json:"encounter_date" toml:"encounter_date" yaml:"encounter_date"`
	DiagnosisCodeICD  string    `json:"diagnosis_code_icd" toml:"diagnosis_code_icd" yaml:"diagnosis_code_icd"`
	ClinicalSummary   string    `json:"clinical_summary" toml:"clinical_summary" yaml:"clinical_summary"`
	HealthDataHash    string    `json:"health_data_hash" toml:"health_data_hash" yaml:"health_data_hash"`
	RecordedByStaffID string    `json:"recorded_by_staff_id" toml:"recorded_by_staff_id" yaml:"recorded_by_staff_id"`
}

// TransactionKey returns the patient ID rather than the record ID: clinical
// delegations are audited against the patient whose chart was read.
func (c ClinicalRecord) TransactionKey() string { return c.PatientID }

// StaffSchedule is a row of the HR_STAFF_SCHEDULE partition.
type StaffSchedule struct {
	StaffID        string `json:"staff_id" toml:"staff_id" yaml:"staff_id"`
	StaffName      string `json:"staff_name" toml:"staff_name" yaml:"staff_name"`
	RoleOrPosition string `json:"role_or_position" toml:"role_or_position" yaml:"role_or_position"`
	AssignedShift  string `json:"assigned_shift" toml:"assigned_shift" yaml:"assigned_shift"`
	TaskAssignment string `json:"task_assignment" toml:"task_assignment" yaml:"task_assignment"`
	DepartmentID   string `json:"department_id" toml:"department_id" yaml:"department_id"`
	OnDutyStatus   bool   `json:"on_duty_status" toml:"on_duty_status" yaml:"on_duty_status"`
}

// TransactionKey returns the staff ID.
func (s StaffSchedule) TransactionKey() string { return s.StaffID }

// ClaimStatus is the insurance claim state of a bill.
type ClaimStatus string

const (
	ClaimProcessing ClaimStatus = "Processing"
	ClaimPaid       ClaimStatus = "Paid"
	ClaimDenied     ClaimStatus = "Denied"
)

// BillingRecord is a row of the BILLING_FINANCE partition. Amounts are in IDR.
type BillingRecord struct {
	BillingID            int64       `json:"billing_id" toml:"billing_id" yaml:"billing_id"`
	PatientID            string      `json:"patient_id" toml:"patient_id" yaml:"patient_id"`
	ServiceDate          string      `json:"service_date" toml:"service_date" yaml:"service_date"`
	TotalCharge          float64     `json:"total_charge" toml:"total_charge" yaml:"total_charge"`
	InsuranceClaimStatus ClaimStatus `json:"insurance_claim_status" toml:"insurance_claim_status" yaml:"insurance_claim_status"`
	InsuranceVerified    bool        `json:"insurance_verified" toml:"insurance_verified" yaml:"insurance_verified"`
	UnitCostABC          float64     `json:"unit_cost_abc" toml:"unit_cost_abc" yaml:"unit_cost_abc"`
	PaymentReceivedDate  *string     `json:"payment_received_date" toml:"payment_received_date" yaml:"payment_received_date"`
}

// TransactionKey returns the billing ID in decimal.
func (b BillingRecord) TransactionKey() string { return strconv.FormatInt(b.BillingID, 10) }
