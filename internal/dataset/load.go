package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/ashita-ai/hospitalops/internal/model"
)

// fixture is the on-disk layout of a dataset file. TOML files use
// [[patients]] / [[clinical]] / [[staff]] / [[billing]] arrays of tables;
// YAML files use top-level lists with the same keys.
type fixture struct {
	Patients []model.PatientAdmin   `toml:"patients" yaml:"patients"`
	Clinical []model.ClinicalRecord `toml:"clinical" yaml:"clinical"`
	Staff    []model.StaffSchedule  `toml:"staff" yaml:"staff"`
	Billing  []model.BillingRecord  `toml:"billing" yaml:"billing"`
}

// LoadFile reads a dataset fixture. The format is chosen by extension:
// .toml, or .yaml/.yml.
func LoadFile(path string) (*Dataset, error) {
	var fx fixture
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if _, err := toml.DecodeFile(path, &fx); err != nil {
			return nil, fmt.Errorf("dataset: decode %s: %w", path, err)
		}
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("dataset: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &fx); err != nil {
			return nil, fmt.Errorf("dataset: decode %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("dataset: unsupported fixture extension %q (want .toml, .yaml or .yml)", ext)
	}

	if err := fx.validate(); err != nil {
		return nil, fmt.Errorf("dataset: %s: %w", path, err)
	}
	return New(fx.Patients, fx.Clinical, fx.Staff, fx.Billing), nil
}

// validate enforces the primary and foreign keys declared by the table DDL.
func (fx fixture) validate() error {
	patients := make(map[string]bool, len(fx.Patients))
	for i, p := range fx.Patients {
		if p.PatientID == "" {
			return fmt.Errorf("patients[%d]: patient_id is required", i)
		}
		if p.NIK == "" || p.FullName == "" {
			return fmt.Errorf("patients[%d]: nik and full_name are required", i)
		}
		if patients[p.PatientID] {
			return fmt.Errorf("patients[%d]: duplicate patient_id %q", i, p.PatientID)
		}
		patients[p.PatientID] = true
	}

	records := make(map[int64]bool, len(fx.Clinical))
	for i, c := range fx.Clinical {
		if records[c.RecordID] {
			return fmt.Errorf("clinical[%d]: duplicate record_id %d", i, c.RecordID)
		}
		records[c.RecordID] = true
		if !patients[c.PatientID] {
			return fmt.Errorf("clinical[%d]: unknown patient_id %q", i, c.PatientID)
		}
	}

	staff := make(map[string]bool, len(fx.Staff))
	for i, s := range fx.Staff {
		if s.StaffID == "" || s.StaffName == "" {
			return fmt.Errorf("staff[%d]: staff_id and staff_name are required", i)
		}
		if staff[s.StaffID] {
			return fmt.Errorf("staff[%d]: duplicate staff_id %q", i, s.StaffID)
		}
		staff[s.StaffID] = true
	}

	bills := make(map[int64]bool, len(fx.Billing))
	for i, b := range fx.Billing {
		if bills[b.BillingID] {
			return fmt.Errorf("billing[%d]: duplicate billing_id %d", i, b.BillingID)
		}
		bills[b.BillingID] = true
		if !patients[b.PatientID] {
			return fmt.Errorf("billing[%d]: unknown patient_id %q", i, b.PatientID)
		}
		switch b.InsuranceClaimStatus {
		case model.ClaimProcessing, model.ClaimPaid, model.ClaimDenied:
		default:
			return fmt.Errorf("billing[%d]: invalid insurance_claim_status %q", i, b.InsuranceClaimStatus)
		}
	}
	return nil
}
