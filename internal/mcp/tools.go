package mcp

import (
	"context"
	"fmt"

	mcplib "github.com/mark3labs/mcp-go/mcp"

	"github.com/ashita-ai/hospitalops/internal/ctxutil"
	"github.com/ashita-ai/hospitalops/internal/model"
)

// maxRecentAudit caps hospitalops_audit_recent.
const maxRecentAudit = 100

func (s *Server) registerTools() {
	// One tool per sub-agent, described exactly as the chat model sees them.
	for _, decl := range s.dispatcher.Declarations() {
		name := model.ToolName(decl.Name)
		param, _ := s.dispatcher.ArgumentName(name)
		prop := decl.Parameters.Properties[param]

		s.mcpServer.AddTool(
			mcplib.NewTool(decl.Name,
				mcplib.WithDescription(decl.Description),
				mcplib.WithDestructiveHintAnnotation(false),
				mcplib.WithOpenWorldHintAnnotation(false),
				mcplib.WithString(param,
					mcplib.Description(prop.Description),
					mcplib.Required(),
				),
				mcplib.WithString("request_text",
					mcplib.Description("The user request that led to this call. Recorded in the audit trail; defaults to an automated system check."),
				),
			),
			s.handleDispatch(name, param),
		)
	}

	// hospitalops_audit_recent: newest delegations first.
	s.mcpServer.AddTool(
		mcplib.NewTool("hospitalops_audit_recent",
			mcplib.WithDescription("List the most recent delegations from the CONTROL_LOG audit trail, newest first."),
			mcplib.WithReadOnlyHintAnnotation(true),
			mcplib.WithIdempotentHintAnnotation(true),
			mcplib.WithOpenWorldHintAnnotation(false),
			mcplib.WithNumber("limit",
				mcplib.Description("Maximum number of records to return"),
				mcplib.Min(1),
				mcplib.Max(maxRecentAudit),
				mcplib.DefaultNumber(10),
			),
		),
		s.handleAuditRecent,
	)
}

// handleDispatch returns the handler for one sub-agent tool. Only the
// sub-agent's own argument is forwarded. A blank string is forwarded as
// is and numbers keep their text form. Tool failures come back as
// IsError results carrying the structured error.
func (s *Server) handleDispatch(name model.ToolName, param string) func(context.Context, mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	return func(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		args := map[string]string{}
		if text, ok := model.ArgumentText(request.GetArguments()[param]); ok {
			args[param] = text
		}
		requestText := request.GetString("request_text", "")

		ctx = ctxutil.WithChannel(ctx, ctxutil.ChannelMCP)
		result, rec := s.dispatcher.DispatchRecord(ctx, model.ToolRequest{Name: name, Arguments: args}, requestText)
		return jsonResult(model.DispatchResponse{Result: result, Log: rec}, !result.OK()), nil
	}
}

func (s *Server) handleAuditRecent(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	limit := request.GetInt("limit", 10)
	if limit < 1 || limit > maxRecentAudit {
		return errorResult(fmt.Sprintf("limit must be between 1 and %d", maxRecentAudit)), nil
	}
	recs := s.log.Recent(limit)
	return jsonResult(map[string]any{
		"records": recs,
		"total":   s.log.Len(),
	}, false), nil
}
