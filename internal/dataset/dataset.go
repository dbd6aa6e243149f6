// Package dataset holds the four read-only partitions the sub-agents query:
// patient administration, clinical records, staff schedules and billing.
//
// A Dataset is fully populated before any dispatcher is built and is never
// mutated afterwards. Accessors return copies so callers cannot alter the
// shared rows.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/ashita-ai/hospitalops/internal/model"
)

// ErrUnknownTable is returned for a table name outside the four partitions.
var ErrUnknownTable = errors.New("dataset: unknown table")

// Table names as exposed by the read API.
const (
	TablePatients = "patients"
	TableClinical = "clinical"
	TableStaff    = "staff"
	TableBilling  = "billing"
)

// Tables lists every table name in display order.
func Tables() []string {
	return []string{TablePatients, TableClinical, TableStaff, TableBilling}
}

// Source is the read interface the sub-agents query. Each accessor may fail;
// the in-memory Dataset never does, but a Source backed by a real store can.
type Source interface {
	Patients(ctx context.Context) ([]model.PatientAdmin, error)
	ClinicalRecords(ctx context.Context) ([]model.ClinicalRecord, error)
	StaffSchedules(ctx context.Context) ([]model.StaffSchedule, error)
	Billing(ctx context.Context) ([]model.BillingRecord, error)
}

// Dataset is an immutable in-memory Source.
type Dataset struct {
	patients []model.PatientAdmin
	clinical []model.ClinicalRecord
	staff    []model.StaffSchedule
	billing  []model.BillingRecord
}

// New builds a Dataset from the given partitions. The slices are copied.
func New(patients []model.PatientAdmin, clinical []model.ClinicalRecord, staff []model.StaffSchedule, billing []model.BillingRecord) *Dataset {
	return &Dataset{
		patients: slices.Clone(patients),
		clinical: slices.Clone(clinical),
		staff:    slices.Clone(staff),
		billing:  slices.Clone(billing),
	}
}

// Patients returns the PATIENT_ADMIN rows in source order.
func (d *Dataset) Patients(context.Context) ([]model.PatientAdmin, error) {
	return slices.Clone(d.patients), nil
}

// ClinicalRecords returns the RME_CLINICAL_DATA rows in source order.
func (d *Dataset) ClinicalRecords(context.Context) ([]model.ClinicalRecord, error) {
	return slices.Clone(d.clinical), nil
}

// StaffSchedules returns the HR_STAFF_SCHEDULE rows in source order.
func (d *Dataset) StaffSchedules(context.Context) ([]model.StaffSchedule, error) {
	return slices.Clone(d.staff), nil
}

// Billing returns the BILLING_FINANCE rows in source order.
func (d *Dataset) Billing(context.Context) ([]model.BillingRecord, error) {
	out := make([]model.BillingRecord, len(d.billing))
	for i, b := range d.billing {
		if b.PaymentReceivedDate != nil {
			v := *b.PaymentReceivedDate
			b.PaymentReceivedDate = &v
		}
		out[i] = b
	}
	return out, nil
}

// Counts returns the row count per table.
func (d *Dataset) Counts() map[string]int {
	return map[string]int{
		TablePatients: len(d.patients),
		TableClinical: len(d.clinical),
		TableStaff:    len(d.staff),
		TableBilling:  len(d.billing),
	}
}

// Rows returns the rows of a named table from any Source.
func Rows(ctx context.Context, src Source, table string) (any, error) {
	switch table {
	case TablePatients:
		return src.Patients(ctx)
	case TableClinical:
		return src.ClinicalRecords(ctx)
	case TableStaff:
		return src.StaffSchedules(ctx)
	case TableBilling:
		return src.Billing(ctx)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTable, table)
	}
}
