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

func TestParseTableURI(t *testing.T) {
	tests := []struct {
		name      string
		uri       string
		want      string
		wantError bool
	}{
		{name: "patients", uri: "hospitalops://tables/patients", want: "patients"},
		{name: "billing", uri: "hospitalops://tables/billing", want: "billing"},
		{name: "empty table", uri: "hospitalops://tables/", wantError: true},
		{name: "nested path", uri: "hospitalops://tables/billing/9001", wantError: true},
		{name: "wrong scheme", uri: "other://tables/patients", wantError: true},
		{name: "empty string", uri: "", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseTableURI(tt.uri)
			if tt.wantError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "invalid table URI")
				assert.Empty(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func resourceText(t *testing.T, contents []mcplib.ResourceContents) string {
	t.Helper()
	require.Len(t, contents, 1)
	tc, ok := contents[0].(mcplib.TextResourceContents)
	require.True(t, ok, "expected TextResourceContents")
	assert.Equal(t, "application/json", tc.MIMEType)
	return tc.Text
}

func TestHandleAuditLogResource(t *testing.T) {
	s, _ := newTestServer(t)

	contents, err := s.handleAuditLog(context.Background(), mcplib.ReadResourceRequest{
		Params: mcplib.ReadResourceParams{URI: auditLogURI},
	})
	require.NoError(t, err)

	var recs []model.ControlLog
	require.NoError(t, json.Unmarshal([]byte(resourceText(t, contents)), &recs))
	require.Len(t, recs, 2)
	assert.Equal(t, int64(1001), recs[0].LogID, "oldest first")
}

func TestHandleSchemaResource(t *testing.T) {
	s, _ := newTestServer(t)

	contents, err := s.handleSchema(context.Background(), mcplib.ReadResourceRequest{
		Params: mcplib.ReadResourceParams{URI: schemaURI},
	})
	require.NoError(t, err)
	text := resourceText(t, contents)
	assert.Contains(t, text, "CONTROL_LOG")
	assert.Contains(t, text, "BILLING_FINANCE")
}

func TestHandleTableResource(t *testing.T) {
	s, _ := newTestServer(t)

	contents, err := s.handleTable(context.Background(), mcplib.ReadResourceRequest{
		Params: mcplib.ReadResourceParams{URI: "hospitalops://tables/staff"},
	})
	require.NoError(t, err)

	var resp struct {
		Table string           `json:"table"`
		Rows  []map[string]any `json:"rows"`
	}
	require.NoError(t, json.Unmarshal([]byte(resourceText(t, contents)), &resp))
	assert.Equal(t, "staff", resp.Table)
	assert.NotEmpty(t, resp.Rows)
}

func TestHandleTableResourceUnknownTable(t *testing.T) {
	s, _ := newTestServer(t)

	_, err := s.handleTable(context.Background(), mcplib.ReadResourceRequest{
		Params: mcplib.ReadResourceParams{URI: "hospitalops://tables/payroll"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "payroll")
}
