// Package orchestrator runs the conversational turn loop: it sends the
// transcript and tool declarations to the remote model, delegates every
// requested tool call to the dispatcher, and feeds the results back for the
// final answer.
//
// Both the HTTP API and the CLI drive turns through this service, so there is
// exactly one place that talks to the model.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"github.com/ashita-ai/hospitalops/internal/dispatch"
	"github.com/ashita-ai/hospitalops/internal/llm"
	"github.com/ashita-ai/hospitalops/internal/model"
	"github.com/ashita-ai/hospitalops/internal/telemetry"
)

// User-visible replies for turns that could not be completed normally.
const (
	MsgRemoteFault   = "System Error: Unable to communicate with the Operations Agent."
	MsgTimeout       = "System Error: The Operations Agent did not respond in time."
	MsgMissingAPIKey = "Error: API Key is missing. Please set it in the environment variables."

	FallbackAfterTools = "Processed request."
	FallbackNoTools    = "I understand, but I couldn't process that request."
)

// DefaultTimeout bounds each round trip to the remote model.
const DefaultTimeout = 30 * time.Second

// SystemPrompt instructs the model to act as the operations manager that
// only reaches data through its sub-agents.
const SystemPrompt = `You are the "Hospital Operations Manager" (Main Agent) in a Multi-Agent AIS (Accounting Information System).
Your role is to orchestrate hospital functions by strictly adhering to the "Segregation of Duties" principle.
You do NOT have direct access to raw data. You MUST delegate tasks to the specialized sub-agents by calling their respective tools.

The Sub-Agents are:
1. Patient Admin Agent (Table: PATIENT_ADMIN) - Registration and scheduling.
2. Medical Records Agent (Table: RME_CLINICAL_DATA) - Clinical history and ICD codes.
3. Staff Management Agent (Table: HR_STAFF_SCHEDULE) - Shift management.
4. Billing & Finance Agent (Table: BILLING_FINANCE) - Invoicing, Insurance, Unit Cost (ABC).

When a user makes a request:
1. Identify the intent.
2. Call the appropriate tool(s) to get the data.
3. Formulate a professional response based on the tool output.

Always maintain a professional, academic, yet operational tone suitable for a Hospital Information System interface.
If the user asks about the system architecture, mention "Segregation of Duties" and "Internal Controls".`

var tracer = telemetry.Tracer("hospitalops/orchestrator")

// Config holds the orchestrator's dependencies.
type Config struct {
	Provider   llm.Provider
	Dispatcher *dispatch.Dispatcher
	Logger     *slog.Logger

	// Timeout bounds each model round trip. Zero means DefaultTimeout.
	Timeout time.Duration
	// SystemPrompt overrides the default instruction.
	SystemPrompt string
	// Now replaces time.Now, for tests.
	Now func() time.Time
}

// Turn is the outcome of one user message.
type Turn struct {
	Message   model.ChatMessage
	Reply     model.ChatMessage
	ToolCalls []model.ToolInvocation
	// Fault is set when the model round trip failed; Reply then carries the
	// user-visible error text. Kind is timeout or remote_model.
	Fault *model.ToolError
}

// Service runs conversational turns. Turns are serialized: the transcript
// is a single conversation.
type Service struct {
	provider   llm.Provider
	dispatcher *dispatch.Dispatcher
	logger     *slog.Logger
	timeout    time.Duration
	prompt     string
	now        func() time.Time

	turnMu     sync.Mutex
	mu         sync.RWMutex
	transcript []model.ChatMessage

	turnCount    metric.Int64Counter
	turnDuration metric.Float64Histogram
}

// New creates an orchestrator Service.
func New(cfg Config) *Service {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	prompt := cfg.SystemPrompt
	if prompt == "" {
		prompt = SystemPrompt
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	meter := telemetry.Meter("hospitalops/orchestrator")
	turnCount, _ := meter.Int64Counter("hospitalops.turn.count",
		metric.WithDescription("Conversational turns handled"),
	)
	turnDuration, _ := meter.Float64Histogram("hospitalops.turn.duration",
		metric.WithDescription("Time to complete a conversational turn (ms)"),
		metric.WithUnit("ms"),
	)

	return &Service{
		provider:     cfg.Provider,
		dispatcher:   cfg.Dispatcher,
		logger:       cfg.Logger,
		timeout:      timeout,
		prompt:       prompt,
		now:          now,
		turnCount:    turnCount,
		turnDuration: turnDuration,
	}
}

// ModelReady reports whether the provider has credentials, when it can tell.
func (s *Service) ModelReady() bool {
	if k, ok := s.provider.(interface{ HasAPIKey() bool }); ok {
		return k.HasAPIKey()
	}
	return s.provider != nil
}

// Messages returns a snapshot of the transcript, oldest first.
func (s *Service) Messages() []model.ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.ChatMessage, len(s.transcript))
	copy(out, s.transcript)
	return out
}

// HandleTurn appends text to the transcript, runs one model exchange and
// records the reply. The only error is invalid input; model and tool
// failures become the turn's reply.
func (s *Service) HandleTurn(ctx context.Context, text string) (Turn, error) {
	if err := (model.ChatRequest{Text: text}).Validate(); err != nil {
		return Turn{}, err
	}

	s.turnMu.Lock()
	defer s.turnMu.Unlock()

	start := time.Now()
	ctx, span := tracer.Start(ctx, "orchestrator.turn")
	defer span.End()

	history := s.history()
	turn := Turn{Message: s.appendMessage(model.RoleUser, text)}

	replyText, calls, fault := s.exchange(ctx, history, text)
	turn.ToolCalls = calls
	turn.Fault = fault
	turn.Reply = s.appendMessage(model.RoleModel, replyText)

	span.SetAttributes(attribute.Int("hospitalops.tool_calls", len(calls)))
	outcome := "ok"
	if fault != nil {
		outcome = string(fault.Kind)
		span.SetStatus(codes.Error, fault.Reason)
	}
	s.turnCount.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	s.turnDuration.Record(ctx, float64(time.Since(start).Milliseconds()))

	s.logger.InfoContext(ctx, "turn complete",
		"tool_calls", len(calls),
		"outcome", outcome,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return turn, nil
}

// exchange performs the model round trips for one turn.
func (s *Service) exchange(ctx context.Context, history []llm.Message, text string) (string, []model.ToolInvocation, *model.ToolError) {
	messages := append(history, llm.Message{Role: llm.RoleUser, Content: text})
	tools := s.dispatcher.Declarations()

	resp, err := s.complete(ctx, llm.Request{SystemPrompt: s.prompt, Messages: messages, Tools: tools})
	if err != nil {
		reply, fault := s.classify(err)
		return reply, nil, fault
	}

	if len(resp.ToolCalls) == 0 {
		if resp.Text == "" {
			return FallbackNoTools, nil, nil
		}
		return resp.Text, nil, nil
	}

	calls := make([]llm.ToolCall, len(resp.ToolCalls))
	reqs := make([]model.ToolRequest, len(resp.ToolCalls))
	for i, tc := range resp.ToolCalls {
		if tc.ID == "" {
			tc.ID = fmt.Sprintf("call_%d", i+1)
		}
		calls[i] = tc
		reqs[i] = model.ToolRequest{Name: model.ToolName(tc.Name), Arguments: tc.Arguments}
		if tc.ArgumentsErr != nil {
			reqs[i].Malformed = tc.ArgumentsErr.Error()
		}
	}

	results := s.dispatcher.DispatchAll(ctx, reqs, text)

	invocations := make([]model.ToolInvocation, len(reqs))
	messages = append(messages, llm.Message{Role: llm.RoleAssistant, Content: resp.Text, ToolCalls: calls})
	for i, result := range results {
		invocations[i] = model.ToolInvocation{Request: reqs[i], Result: result}
		payload, err := json.Marshal(result)
		if err != nil {
			// ToolResult always marshals; keep the turn alive regardless.
			payload = []byte(`{"error":{"kind":"backend_fault","reason":"unencodable result"}}`)
		}
		messages = append(messages, llm.Message{
			Role:       llm.RoleTool,
			Content:    string(payload),
			ToolCallID: calls[i].ID,
			Name:       calls[i].Name,
		})
	}

	final, err := s.complete(ctx, llm.Request{SystemPrompt: s.prompt, Messages: messages, Tools: tools})
	if err != nil {
		reply, fault := s.classify(err)
		return reply, invocations, fault
	}
	if final.Text == "" {
		return FallbackAfterTools, invocations, nil
	}
	return final.Text, invocations, nil
}

// complete runs one bounded model call. A deadline hit by the bound itself
// is reported as llm.ErrTimeout.
func (s *Service) complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.provider.Complete(callCtx, req)
	if err != nil {
		if ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s: %v", llm.ErrTimeout, s.timeout, err)
		}
		return nil, err
	}
	if resp == nil {
		return nil, fmt.Errorf("orchestrator: provider returned no response")
	}
	return resp, nil
}

// classify maps a model failure to its reply text and fault.
func (s *Service) classify(err error) (string, *model.ToolError) {
	switch {
	case errors.Is(err, llm.ErrMissingAPIKey):
		s.logger.Warn("orchestrator: model not configured", "error", err)
		return MsgMissingAPIKey, &model.ToolError{Kind: model.ToolErrRemoteModel, Reason: err.Error()}
	case errors.Is(err, llm.ErrTimeout):
		s.logger.Warn("orchestrator: model timed out", "error", err)
		return MsgTimeout, &model.ToolError{Kind: model.ToolErrTimeout, Reason: err.Error()}
	default:
		s.logger.Error("orchestrator: model call failed", "error", err)
		return MsgRemoteFault, &model.ToolError{Kind: model.ToolErrRemoteModel, Reason: err.Error()}
	}
}

// history converts the transcript into model messages.
func (s *Service) history() []llm.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]llm.Message, 0, len(s.transcript)+1)
	for _, m := range s.transcript {
		role := llm.RoleUser
		if m.Role == model.RoleModel {
			role = llm.RoleAssistant
		}
		out = append(out, llm.Message{Role: role, Content: m.Text})
	}
	return out
}

func (s *Service) appendMessage(role model.ChatRole, text string) model.ChatMessage {
	msg := model.ChatMessage{
		ID:        uuid.New(),
		Role:      role,
		Text:      text,
		Timestamp: s.now().UTC(),
	}
	s.mu.Lock()
	s.transcript = append(s.transcript, msg)
	s.mu.Unlock()
	return msg
}
