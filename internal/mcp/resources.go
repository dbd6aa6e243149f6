package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	mcplib "github.com/mark3labs/mcp-go/mcp"

	"github.com/ashita-ai/hospitalops/internal/dataset"
	"github.com/ashita-ai/hospitalops/internal/storage"
)

const (
	auditLogURI    = "hospitalops://audit/log"
	schemaURI      = "hospitalops://schema"
	tablesURIStart = "hospitalops://tables/"
)

func (s *Server) registerResources() {
	// hospitalops://audit/log: the full CONTROL_LOG trail in storage order.
	s.mcpServer.AddResource(
		mcplib.NewResource(
			auditLogURI,
			"Control Log",
			mcplib.WithResourceDescription("Append-only audit trail of every delegation, oldest first"),
			mcplib.WithMIMEType("application/json"),
		),
		s.handleAuditLog,
	)

	// hospitalops://schema: reference DDL for the audit table and partitions.
	s.mcpServer.AddResource(
		mcplib.NewResource(
			schemaURI,
			"Schema",
			mcplib.WithResourceDescription("Table definitions for CONTROL_LOG and the four sub-agent partitions"),
			mcplib.WithMIMEType("application/json"),
		),
		s.handleSchema,
	)

	// hospitalops://tables/{table}: raw rows of one partition.
	s.mcpServer.AddResourceTemplate(
		mcplib.NewResourceTemplate(
			tablesURIStart+"{table}",
			"Partition Rows",
			mcplib.WithTemplateDescription("Rows of one partition: patients, clinical, staff or billing"),
			mcplib.WithTemplateMIMEType("application/json"),
		),
		s.handleTable,
	)
}

func (s *Server) handleAuditLog(_ context.Context, request mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
	return jsonContents(auditLogURI, s.log.All())
}

func (s *Server) handleSchema(_ context.Context, _ mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
	return jsonContents(schemaURI, storage.Definitions())
}

func (s *Server) handleTable(ctx context.Context, request mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
	uri := request.Params.URI
	table, err := parseTableURI(uri)
	if err != nil {
		return nil, err
	}
	rows, err := dataset.Rows(ctx, s.source, table)
	if err != nil {
		return nil, fmt.Errorf("mcp: read table: %w", err)
	}
	return jsonContents(uri, map[string]any{
		"table": table,
		"rows":  rows,
	})
}

// parseTableURI extracts the table name from hospitalops://tables/{table}.
func parseTableURI(uri string) (string, error) {
	table, ok := strings.CutPrefix(uri, tablesURIStart)
	if !ok {
		return "", fmt.Errorf("mcp: invalid table URI: %s", uri)
	}
	if table == "" || strings.Contains(table, "/") {
		return "", fmt.Errorf("mcp: invalid table URI: %s", uri)
	}
	return table, nil
}

func jsonContents(uri string, v any) ([]mcplib.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("mcp: marshal %s: %w", uri, err)
	}
	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
