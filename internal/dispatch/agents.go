package dispatch

import (
	"context"
	"strings"

	"github.com/ashita-ai/hospitalops/internal/dataset"
	"github.com/ashita-ai/hospitalops/internal/model"
)

// queryFunc runs one sub-agent's filter against its partition.
type queryFunc func(ctx context.Context, src dataset.Source, arg string) ([]model.Record, error)

// subAgent is one row of the dispatch table.
type subAgent struct {
	agent       model.AgentName
	param       string
	sentinel    string
	description string
	paramDesc   string
	query       queryFunc
}

// subAgents maps every tool to the sub-agent that owns its partition.
// Segregation of duties: each tool reads exactly one partition.
func subAgents() map[model.ToolName]subAgent {
	return map[model.ToolName]subAgent{
		model.ToolQueryPatient: {
			agent:       model.AgentPatientAdmin,
			param:       "query",
			sentinel:    "SEARCH-OP",
			description: "Query the Patient Administration Database. Use this to find patient details, NIK, contact info, or appointments.",
			paramDesc:   "The search term (name or patient_id)",
			query:       queryPatients,
		},
		model.ToolQueryClinical: {
			agent:       model.AgentMedicalRecords,
			param:       "patient_id",
			sentinel:    "CLINICAL-OP",
			description: "Query the RME/Clinical Data Database. Use this to retrieve medical records, diagnosis (ICD), or clinical summaries.",
			paramDesc:   "The patient ID to look up",
			query:       queryClinical,
		},
		model.ToolQueryStaff: {
			agent:       model.AgentStaffMgmt,
			param:       "role_or_name",
			sentinel:    "STAFF-OP",
			description: "Query the HR Staff Schedule. Use this to check staff availability, shifts, or roles.",
			paramDesc:   "Role or name of the staff member",
			query:       queryStaff,
		},
		model.ToolQueryBilling: {
			agent:       model.AgentBillingFinance,
			param:       "patient_id",
			sentinel:    "BILL-OP",
			description: "Query the Billing and Finance Database. Use this to check insurance status, total charges, or ABC unit costs.",
			paramDesc:   "The patient ID",
			query:       queryBilling,
		},
	}
}

// queryPatients matches a case-insensitive substring of full_name or patient_id.
func queryPatients(ctx context.Context, src dataset.Source, arg string) ([]model.Record, error) {
	rows, err := src.Patients(ctx)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(arg)
	out := []model.Record{}
	for _, p := range rows {
		if strings.Contains(strings.ToLower(p.FullName), needle) ||
			strings.Contains(strings.ToLower(p.PatientID), needle) {
			out = append(out, p)
		}
	}
	return out, nil
}

// queryClinical matches patient_id exactly.
func queryClinical(ctx context.Context, src dataset.Source, arg string) ([]model.Record, error) {
	rows, err := src.ClinicalRecords(ctx)
	if err != nil {
		return nil, err
	}
	out := []model.Record{}
	for _, c := range rows {
		if c.PatientID == arg {
			out = append(out, c)
		}
	}
	return out, nil
}

// queryStaff matches a case-insensitive substring of staff_name or role_or_position.
func queryStaff(ctx context.Context, src dataset.Source, arg string) ([]model.Record, error) {
	rows, err := src.StaffSchedules(ctx)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(arg)
	out := []model.Record{}
	for _, s := range rows {
		if strings.Contains(strings.ToLower(s.StaffName), needle) ||
			strings.Contains(strings.ToLower(s.RoleOrPosition), needle) {
			out = append(out, s)
		}
	}
	return out, nil
}

// queryBilling matches patient_id exactly.
func queryBilling(ctx context.Context, src dataset.Source, arg string) ([]model.Record, error) {
	rows, err := src.Billing(ctx)
	if err != nil {
		return nil, err
	}
	out := []model.Record{}
	for _, b := range rows {
		if b.PatientID == arg {
			out = append(out, b)
		}
	}
	return out, nil
}
