package dataset

import (
	"time"

	"github.com/ashita-ai/hospitalops/internal/model"
)

// Default returns the built-in hospital dataset.
func Default() *Dataset {
	paid := "2024-05-20"
	return New(
		[]model.PatientAdmin{
			{PatientID: "P-2024-001", NIK: "3171012001900001", FullName: "Ahmad Santoso", RegistrationDate: "2024-01-15", ContactNumber: "+6281234567890", AppointmentDate: mustTime("2024-05-20T09:00:00Z")},
			{PatientID: "P-2024-002", NIK: "3174051505850002", FullName: "Siti Aminah", RegistrationDate: "2024-02-10", ContactNumber: "+6281398765432", AppointmentDate: mustTime("2024-05-21T14:30:00Z")},
			{PatientID: "P-2024-003", NIK: "3201010101800003", FullName: "Budi Pratama", RegistrationDate: "2024-03-05", ContactNumber: "+628111222333", AppointmentDate: mustTime("2024-05-22T10:00:00Z")},
			{PatientID: "P-2024-004", NIK: "3276010101950004", FullName: "Citra Dewi", RegistrationDate: "2024-04-12", ContactNumber: "+628567890123", AppointmentDate: mustTime("2024-05-23T11:00:00Z")},
		},
		[]model.ClinicalRecord{
			{RecordID: 50001, PatientID: "P-2024-001", EncounterDate: mustTime("2024-05-20T09:30:00Z"), DiagnosisCodeICD: "J00", ClinicalSummary: "Acute nasopharyngitis. Prescribed antipyretics and rest.", HealthDataHash: "a1b2c3d4e5f6...", RecordedByStaffID: "DR-001"},
			{RecordID: 50002, PatientID: "P-2024-002", EncounterDate: mustTime("2024-05-21T15:00:00Z"), DiagnosisCodeICD: "E11", ClinicalSummary: "Type 2 Diabetes Mellitus checkup. Blood sugar stable.", HealthDataHash: "f6e5d4c3b2a1...", RecordedByStaffID: "DR-002"},
		},
		[]model.StaffSchedule{
			{StaffID: "DR-001", StaffName: "Dr. Setiawan", RoleOrPosition: "General Practitioner", AssignedShift: "Morning (07:00 - 15:00)", TaskAssignment: "Outpatient Clinic A", DepartmentID: "DEPT-GP", OnDutyStatus: true},
			{StaffID: "DR-002", StaffName: "Dr. Linda", RoleOrPosition: "Specialist - Internal Medicine", AssignedShift: "Afternoon (14:00 - 21:00)", TaskAssignment: "Specialist Clinic B", DepartmentID: "DEPT-IM", OnDutyStatus: false},
			{StaffID: "NS-001", StaffName: "Nurse Rina", RoleOrPosition: "Head Nurse", AssignedShift: "Morning (07:00 - 15:00)", TaskAssignment: "Triage", DepartmentID: "DEPT-ER", OnDutyStatus: true},
		},
		[]model.BillingRecord{
			{BillingID: 9001, PatientID: "P-2024-001", ServiceDate: "2024-05-20", TotalCharge: 450000, InsuranceClaimStatus: model.ClaimPaid, InsuranceVerified: true, UnitCostABC: 320000, PaymentReceivedDate: &paid},
			{BillingID: 9002, PatientID: "P-2024-002", ServiceDate: "2024-05-21", TotalCharge: 1200000, InsuranceClaimStatus: model.ClaimProcessing, InsuranceVerified: true, UnitCostABC: 950000, PaymentReceivedDate: nil},
		},
	)
}

// SeedControlLogs returns the two historical delegations the audit trail
// starts with, timestamped relative to now.
func SeedControlLogs(now time.Time) []model.ControlLog {
	now = now.UTC()
	return []model.ControlLog{
		{
			LogID:             1001,
			Timestamp:         now.Add(-24 * time.Hour),
			UserRequestText:   "Register new patient John Doe",
			DelegatedAgent:    model.AgentPatientAdmin,
			TransactionID:     "P-2024-001",
			DelegationSuccess: true,
		},
		{
			LogID:             1002,
			Timestamp:         now.Add(-12 * time.Hour),
			UserRequestText:   "Process billing for P-2024-001",
			DelegatedAgent:    model.AgentBillingFinance,
			TransactionID:     "B-5001",
			DelegationSuccess: true,
		},
	}
}

func mustTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}
