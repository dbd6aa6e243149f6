package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestOpenAPISpecDocumentsRoutes(t *testing.T) {
	var doc struct {
		OpenAPI string         `yaml:"openapi"`
		Paths   map[string]any `yaml:"paths"`
	}
	require.NoError(t, yaml.Unmarshal(OpenAPISpec, &doc))
	assert.Equal(t, "3.1.0", doc.OpenAPI)

	for _, path := range []string{
		"/v1/chat",
		"/v1/chat/messages",
		"/v1/dispatch",
		"/v1/tools",
		"/v1/audit",
		"/v1/audit/integrity",
		"/v1/audit/export",
		"/v1/audit/stream",
		"/v1/audit/{log_id}",
		"/v1/tables/{table}",
		"/v1/schema",
		"/v1/analytics",
		"/health",
		"/mcp",
	} {
		assert.Contains(t, doc.Paths, path)
	}
}
