package mcp

import (
	"context"
	"testing"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashita-ai/hospitalops/internal/service/orchestrator"
)

func promptText(t *testing.T, result *mcplib.GetPromptResult) string {
	t.Helper()
	require.Len(t, result.Messages, 1)
	assert.Equal(t, mcplib.RoleUser, result.Messages[0].Role)
	tc, ok := result.Messages[0].Content.(mcplib.TextContent)
	require.True(t, ok, "expected TextContent")
	return tc.Text
}

func TestOperationsManagerPrompt(t *testing.T) {
	s, _ := newTestServer(t)

	result, err := s.handleOperationsManagerPrompt(context.Background(), mcplib.GetPromptRequest{
		Params: mcplib.GetPromptParams{Name: "operations-manager"},
	})
	require.NoError(t, err)
	assert.Equal(t, orchestrator.SystemPrompt, promptText(t, result))
}

func TestPatientBriefingPrompt(t *testing.T) {
	s, _ := newTestServer(t)

	result, err := s.handlePatientBriefingPrompt(context.Background(), mcplib.GetPromptRequest{
		Params: mcplib.GetPromptParams{
			Name:      "patient-briefing",
			Arguments: map[string]string{"patient_id": "P-2024-002"},
		},
	})
	require.NoError(t, err)
	assert.Contains(t, result.Description, "P-2024-002")

	text := promptText(t, result)
	assert.Contains(t, text, `query_clinical_db with patient_id="P-2024-002"`)
	assert.Contains(t, text, `query_billing_db with patient_id="P-2024-002"`)
}

func TestPatientBriefingPromptRequiresPatientID(t *testing.T) {
	s, _ := newTestServer(t)

	for _, args := range []map[string]string{nil, {"patient_id": "  "}} {
		_, err := s.handlePatientBriefingPrompt(context.Background(), mcplib.GetPromptRequest{
			Params: mcplib.GetPromptParams{Name: "patient-briefing", Arguments: args},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "patient_id")
	}
}
