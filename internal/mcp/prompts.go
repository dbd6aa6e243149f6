package mcp

import (
	"context"
	"fmt"
	"strings"

	mcplib "github.com/mark3labs/mcp-go/mcp"

	"github.com/ashita-ai/hospitalops/internal/service/orchestrator"
)

func (s *Server) registerPrompts() {
	// operations-manager: the system instruction chat turns run under.
	s.mcpServer.AddPrompt(
		mcplib.NewPrompt("operations-manager",
			mcplib.WithPromptDescription("System prompt for acting as the Hospital Operations Manager that delegates to sub-agents"),
		),
		s.handleOperationsManagerPrompt,
	)

	// patient-briefing: walks the caller through a full cross-partition lookup.
	s.mcpServer.AddPrompt(
		mcplib.NewPrompt("patient-briefing",
			mcplib.WithPromptDescription("Assemble registration, clinical and billing information for one patient"),
			mcplib.WithArgument("patient_id",
				mcplib.ArgumentDescription("Patient ID, e.g. P-2024-001"),
				mcplib.RequiredArgument(),
			),
		),
		s.handlePatientBriefingPrompt,
	)
}

func (s *Server) handleOperationsManagerPrompt(_ context.Context, _ mcplib.GetPromptRequest) (*mcplib.GetPromptResult, error) {
	return &mcplib.GetPromptResult{
		Description: "Hospital Operations Manager instruction",
		Messages: []mcplib.PromptMessage{
			{
				Role:    mcplib.RoleUser,
				Content: mcplib.TextContent{Type: "text", Text: orchestrator.SystemPrompt},
			},
		},
	}, nil
}

func (s *Server) handlePatientBriefingPrompt(_ context.Context, request mcplib.GetPromptRequest) (*mcplib.GetPromptResult, error) {
	patientID := strings.TrimSpace(request.Params.Arguments["patient_id"])
	if patientID == "" {
		return nil, fmt.Errorf("patient_id argument is required")
	}

	return &mcplib.GetPromptResult{
		Description: fmt.Sprintf("Briefing for patient %s", patientID),
		Messages: []mcplib.PromptMessage{
			{
				Role: mcplib.RoleUser,
				Content: mcplib.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Prepare an operational briefing for patient %[1]s. You have no direct data access; delegate each step:

1. CALL query_patient_db with query="%[1]s" for registration and the next appointment.
2. CALL query_clinical_db with patient_id="%[1]s" for encounters and ICD codes.
3. CALL query_billing_db with patient_id="%[1]s" for charges, claim status and ABC unit cost.

Summarize the results in a professional tone. If any delegation fails, say which sub-agent failed rather than guessing its data.`, patientID),
				},
			},
		},
	}, nil
}
