package storage

// TableDefinition documents one table of the operations schema.
type TableDefinition struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	SQL         string `json:"sql"`
}

// Definitions returns the reference DDL for the audit table and the four
// sub-agent partitions, in the order the dashboard lists them. The DDL is
// written for BigQuery/PostgreSQL; the SQLite mirror uses migrations/.
func Definitions() []TableDefinition {
	return []TableDefinition{
		{
			Name:        "CONTROL_LOG",
			Description: "Audit and Delegation Agent",
			SQL: `CREATE TABLE IF NOT EXISTS control_log (
    log_id INT64 PRIMARY KEY,
    timestamp TIMESTAMP NOT NULL,
    user_request_text STRING,
    delegated_agent STRING,
    transaction_id STRING,
    delegation_success BOOL
);`,
		},
		{
			Name:        "PATIENT_ADMIN",
			Description: "Patient Management Subagent",
			SQL: `CREATE TABLE IF NOT EXISTS patient_admin (
    patient_id STRING PRIMARY KEY,
    nik STRING NOT NULL, -- Important for RME compliance
    full_name STRING NOT NULL,
    registration_date DATE,
    contact_number STRING,
    appointment_date TIMESTAMP
);`,
		},
		{
			Name:        "RME_CLINICAL_DATA",
			Description: "Medical Records Subagent",
			SQL: `CREATE TABLE IF NOT EXISTS rme_clinical_data (
    record_id INT64 PRIMARY KEY,
    patient_id STRING NOT NULL,
    encounter_date TIMESTAMP NOT NULL,
    diagnosis_code_icd STRING,
    clinical_summary STRING,
    health_data_hash STRING, -- Data integrity
    recorded_by_staff_id STRING,
    FOREIGN KEY (patient_id) REFERENCES patient_admin(patient_id)
);`,
		},
		{
			Name:        "HR_STAFF_SCHEDULE",
			Description: "Staff Management Subagent",
			SQL: `CREATE TABLE IF NOT EXISTS hr_staff_schedule (
    staff_id STRING PRIMARY KEY,
    staff_name STRING NOT NULL,
    role_or_position STRING,
    assigned_shift STRING,
    task_assignment STRING,
    department_id STRING,
    on_duty_status BOOL
);`,
		},
		{
			Name:        "BILLING_FINANCE",
			Description: "Billing And Insurance Subagent",
			SQL: `CREATE TABLE IF NOT EXISTS billing_finance (
    billing_id INT64 PRIMARY KEY,
    patient_id STRING NOT NULL,
    service_date DATE NOT NULL,
    total_charge NUMERIC(10, 2),
    insurance_claim_status STRING,
    insurance_verified BOOL,
    unit_cost_abc NUMERIC(10, 2), -- ABC Costing
    payment_received_date DATE,
    FOREIGN KEY (patient_id) REFERENCES patient_admin(patient_id)
);`,
		},
	}
}
