// Package testutil provides shared test infrastructure: a quiet logger and a
// scripted model provider that replays canned replies instead of calling a
// remote endpoint.
//
// Usage:
//
//	p := testutil.NewScriptedProvider(
//	    testutil.ToolCallReply(llm.ToolCall{ID: "c1", Name: "query_patient_db", Arguments: map[string]string{"query": "Ahmad"}}),
//	    testutil.TextReply("Ahmad Santoso is registered."),
//	)
package testutil

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/ashita-ai/hospitalops/internal/llm"
)

// TestLogger returns a logger configured for test output (warns only).
func TestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

// Step is one scripted provider outcome.
type Step struct {
	Response *llm.Response
	Err      error
	// Block makes the step wait for ctx to end and return its error.
	Block bool
}

// TextReply scripts a plain text answer.
func TextReply(text string) Step {
	return Step{Response: &llm.Response{Text: text}}
}

// ToolCallReply scripts an answer that requests tools.
func ToolCallReply(calls ...llm.ToolCall) Step {
	return Step{Response: &llm.Response{ToolCalls: calls}}
}

// ErrorReply scripts a provider failure.
func ErrorReply(err error) Step {
	return Step{Err: err}
}

// BlockReply scripts a call that never answers before its deadline.
func BlockReply() Step {
	return Step{Block: true}
}

// ScriptedProvider is a deterministic llm.Provider. Each Complete call
// consumes the next step and records the request it was given.
type ScriptedProvider struct {
	mu       sync.Mutex
	steps    []Step
	requests []llm.Request
}

// NewScriptedProvider creates a provider that replays steps in order.
func NewScriptedProvider(steps ...Step) *ScriptedProvider {
	return &ScriptedProvider{steps: steps}
}

// Enqueue appends more steps.
func (p *ScriptedProvider) Enqueue(steps ...Step) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.steps = append(p.steps, steps...)
}

// Complete implements llm.Provider. Running out of steps is an error.
func (p *ScriptedProvider) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	p.mu.Lock()
	p.requests = append(p.requests, cloneRequest(req))
	if len(p.steps) == 0 {
		p.mu.Unlock()
		return nil, fmt.Errorf("testutil: scripted provider has no step for call %d", len(p.requests))
	}
	step := p.steps[0]
	p.steps = p.steps[1:]
	p.mu.Unlock()

	if step.Block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if step.Err != nil {
		return nil, step.Err
	}
	return step.Response, nil
}

// Requests returns the requests received so far.
func (p *ScriptedProvider) Requests() []llm.Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]llm.Request, len(p.requests))
	copy(out, p.requests)
	return out
}

// Remaining returns the number of unconsumed steps.
func (p *ScriptedProvider) Remaining() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.steps)
}

func cloneRequest(req llm.Request) llm.Request {
	out := req
	out.Messages = append([]llm.Message(nil), req.Messages...)
	return out
}
