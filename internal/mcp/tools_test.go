package mcp

import (
	"context"
	"encoding/json"
	"testing"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashita-ai/hospitalops/internal/model"
)

type dispatchPayload struct {
	Result struct {
		Records []map[string]any `json:"records"`
		Error   *model.ToolError `json:"error"`
	} `json:"result"`
	Log model.ControlLog `json:"log"`
}

func callTool(t *testing.T, s *Server, name model.ToolName, args map[string]any) (*mcplib.CallToolResult, dispatchPayload) {
	t.Helper()
	param, ok := s.dispatcher.ArgumentName(name)
	require.True(t, ok)
	result, err := s.handleDispatch(name, param)(context.Background(), mcplib.CallToolRequest{
		Params: mcplib.CallToolParams{Name: string(name), Arguments: args},
	})
	require.NoError(t, err)

	var payload dispatchPayload
	require.NoError(t, json.Unmarshal([]byte(parseToolText(t, result)), &payload))
	return result, payload
}

func TestHandleDispatchPatient(t *testing.T) {
	s, log := newTestServer(t)

	result, payload := callTool(t, s, model.ToolQueryPatient, map[string]any{
		"query":        "Ahmad",
		"request_text": "Find Ahmad",
	})
	assert.False(t, result.IsError)
	require.Len(t, payload.Result.Records, 1)
	assert.Equal(t, "P-2024-001", payload.Result.Records[0]["patient_id"])

	assert.Equal(t, int64(1003), payload.Log.LogID)
	assert.Equal(t, model.AgentPatientAdmin, payload.Log.DelegatedAgent)
	assert.Equal(t, "P-2024-001", payload.Log.TransactionID)
	assert.Equal(t, "Find Ahmad", payload.Log.UserRequestText)
	assert.Equal(t, 3, log.Len())
}

func TestHandleDispatchDefaultsRequestText(t *testing.T) {
	s, _ := newTestServer(t)

	_, payload := callTool(t, s, model.ToolQueryStaff, map[string]any{"role_or_name": "nurse"})
	assert.Equal(t, model.DefaultRequestText, payload.Log.UserRequestText)
	assert.Equal(t, model.AgentStaffMgmt, payload.Log.DelegatedAgent)
}

func TestHandleDispatchMissingArgument(t *testing.T) {
	s, log := newTestServer(t)

	result, payload := callTool(t, s, model.ToolQueryBilling, map[string]any{})
	assert.True(t, result.IsError)
	require.NotNil(t, payload.Result.Error)
	assert.Equal(t, model.ToolErrValidation, payload.Result.Error.Kind)
	assert.False(t, payload.Log.DelegationSuccess)
	assert.Equal(t, "BILL-OP", payload.Log.TransactionID)
	assert.Equal(t, 3, log.Len(), "a failed delegation is still audited")
}

func TestHandleDispatchBlankArgumentIsForwarded(t *testing.T) {
	s, _ := newTestServer(t)

	result, payload := callTool(t, s, model.ToolQueryPatient, map[string]any{"query": ""})
	assert.False(t, result.IsError)
	assert.Len(t, payload.Result.Records, 4)
	assert.Equal(t, "P-2024-001", payload.Log.TransactionID)
	assert.True(t, payload.Log.DelegationSuccess)
}

func TestHandleDispatchNumericArgument(t *testing.T) {
	s, log := newTestServer(t)

	result, payload := callTool(t, s, model.ToolQueryBilling, map[string]any{"patient_id": 42})
	assert.False(t, result.IsError)
	assert.Empty(t, payload.Result.Records)
	assert.Equal(t, "BILL-OP", payload.Log.TransactionID)
	assert.True(t, payload.Log.DelegationSuccess)
	assert.Equal(t, 3, log.Len())
}

func TestHandleDispatchNoMatch(t *testing.T) {
	s, _ := newTestServer(t)

	result, payload := callTool(t, s, model.ToolQueryClinical, map[string]any{"patient_id": "P-9999-999"})
	assert.False(t, result.IsError)
	assert.Empty(t, payload.Result.Records)
	assert.Equal(t, "CLINICAL-OP", payload.Log.TransactionID)
	assert.True(t, payload.Log.DelegationSuccess)
}

func TestHandleAuditRecent(t *testing.T) {
	s, _ := newTestServer(t)
	callTool(t, s, model.ToolQueryPatient, map[string]any{"query": "Ahmad"})

	result, err := s.handleAuditRecent(context.Background(), mcplib.CallToolRequest{
		Params: mcplib.CallToolParams{Name: "hospitalops_audit_recent", Arguments: map[string]any{"limit": float64(2)}},
	})
	require.NoError(t, err)
	require.False(t, result.IsError, parseToolText(t, result))

	var resp struct {
		Records []model.ControlLog `json:"records"`
		Total   int                `json:"total"`
	}
	require.NoError(t, json.Unmarshal([]byte(parseToolText(t, result)), &resp))
	assert.Equal(t, 3, resp.Total)
	require.Len(t, resp.Records, 2)
	assert.Equal(t, int64(1003), resp.Records[0].LogID, "newest first")
	assert.Equal(t, int64(1002), resp.Records[1].LogID)
}

func TestHandleAuditRecentRejectsBadLimit(t *testing.T) {
	s, _ := newTestServer(t)

	for _, limit := range []float64{0, 101} {
		result, err := s.handleAuditRecent(context.Background(), mcplib.CallToolRequest{
			Params: mcplib.CallToolParams{Arguments: map[string]any{"limit": limit}},
		})
		require.NoError(t, err)
		assert.True(t, result.IsError)
		assert.Contains(t, parseToolText(t, result), "limit must be between")
	}
}
