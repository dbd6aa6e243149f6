// Package mcp implements the Model Context Protocol server for hospitalops.
//
// The MCP server exposes the four sub-agent tools, the audit trail and the
// dataset partitions, so an external MCP client can play the operations
// manager role. Tool calls go through the same Dispatcher as chat turns and
// are audited the same way.
package mcp

import (
	"encoding/json"
	"log/slog"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/ashita-ai/hospitalops/internal/audit"
	"github.com/ashita-ai/hospitalops/internal/dataset"
	"github.com/ashita-ai/hospitalops/internal/dispatch"
)

// Config holds the MCP server's dependencies.
type Config struct {
	Dispatcher *dispatch.Dispatcher
	Log        *audit.Log
	Source     dataset.Source
	Logger     *slog.Logger
	Version    string
}

// Server wraps the MCP server with the dispatch and audit layers.
type Server struct {
	mcpServer  *mcpserver.MCPServer
	dispatcher *dispatch.Dispatcher
	log        *audit.Log
	source     dataset.Source
	logger     *slog.Logger
}

// New creates and configures a new MCP server with all resources, tools and prompts.
func New(cfg Config) *Server {
	s := &Server{
		dispatcher: cfg.Dispatcher,
		log:        cfg.Log,
		source:     cfg.Source,
		logger:     cfg.Logger,
	}

	version := cfg.Version
	if version == "" {
		version = "dev"
	}
	s.mcpServer = mcpserver.NewMCPServer(
		"hospitalops",
		version,
		mcpserver.WithResourceCapabilities(true, true),
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithPromptCapabilities(true),
	)

	s.registerResources()
	s.registerTools()
	s.registerPrompts()

	return s
}

// MCPServer returns the underlying mcp-go server for transport setup.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcpServer
}

func errorResult(msg string) *mcplib.CallToolResult {
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{
			mcplib.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}

func jsonResult(v any, isError bool) *mcplib.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult("failed to encode result: " + err.Error())
	}
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{
			mcplib.TextContent{Type: "text", Text: string(data)},
		},
		IsError: isError,
	}
}
