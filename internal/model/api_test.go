package model_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashita-ai/hospitalops/internal/model"
)

// ---- ChatRequest ---------------------------------------------------------

func TestChatRequestValidate(t *testing.T) {
	assert.NoError(t, model.ChatRequest{Text: "Find patient Ahmad"}.Validate())

	err := model.ChatRequest{Text: "   "}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required")

	err = model.ChatRequest{Text: strings.Repeat("x", model.MaxChatTextLen+1)}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "maximum length")
}

func TestChatRequestValidate_AtExactMax(t *testing.T) {
	assert.NoError(t, model.ChatRequest{Text: strings.Repeat("x", model.MaxChatTextLen)}.Validate())
}

// ---- ToolName ------------------------------------------------------------

func TestParseToolName(t *testing.T) {
	for _, name := range model.AllTools() {
		got, err := model.ParseToolName(string(name))
		require.NoError(t, err)
		assert.Equal(t, name, got)
	}

	_, err := model.ParseToolName("query_weather_db")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query_weather_db")
}

func TestAllToolsIsClosed(t *testing.T) {
	assert.Len(t, model.AllTools(), 4)
}

// ---- ToolResult ----------------------------------------------------------

func TestToolResultJSON_EmptySuccessKeepsRecordsArray(t *testing.T) {
	data, err := json.Marshal(model.Success(nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"records":[]}`, string(data))
}

func TestToolResultJSON_Failure(t *testing.T) {
	data, err := json.Marshal(model.Failure(model.ToolErrBackendFault, model.BackendFaultReason))
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":{"kind":"backend_fault","reason":"Database Connection Failed"}}`, string(data))
}

func TestToolResultOK(t *testing.T) {
	assert.True(t, model.Success(nil).OK())
	assert.False(t, model.Failure(model.ToolErrValidation, "missing").OK())
}

// ---- TransactionKey ------------------------------------------------------

func TestTransactionKeys(t *testing.T) {
	assert.Equal(t, "P-2024-001", model.PatientAdmin{PatientID: "P-2024-001"}.TransactionKey())
	assert.Equal(t, "P-2024-002", model.ClinicalRecord{RecordID: 50002, PatientID: "P-2024-002"}.TransactionKey(),
		"clinical rows are keyed by patient, not record")
	assert.Equal(t, "NS-001", model.StaffSchedule{StaffID: "NS-001"}.TransactionKey())
	assert.Equal(t, "9001", model.BillingRecord{BillingID: 9001}.TransactionKey())
}

// ---- DecodeArguments -----------------------------------------------------

func TestDecodeArguments(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want map[string]string
	}{
		{"empty", "", map[string]string{}},
		{"null", "null", map[string]string{}},
		{"strings", `{"query":"Ahmad"}`, map[string]string{"query": "Ahmad"}},
		{"blank value kept", `{"query":""}`, map[string]string{"query": ""}},
		{"scalars as text", `{"patient_id":123,"verbose":true,"note":null}`, map[string]string{"patient_id": "123", "verbose": "true"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := model.DecodeArguments([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeArguments_NotAnObject(t *testing.T) {
	for _, raw := range []string{`{"query": Ahmad`, `"oops"`, `[1,2]`} {
		got, err := model.DecodeArguments([]byte(raw))
		require.Error(t, err, raw)
		assert.Contains(t, err.Error(), "not a JSON object")
		assert.NotNil(t, got, "callers still get a usable empty map")
		assert.Empty(t, got)
	}
}
