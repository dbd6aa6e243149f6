// Package dispatch routes tool requests from the operations agent to the
// sub-agent that owns the relevant data partition and records every
// delegation in the audit log.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/ashita-ai/hospitalops/internal/audit"
	"github.com/ashita-ai/hospitalops/internal/ctxutil"
	"github.com/ashita-ai/hospitalops/internal/dataset"
	"github.com/ashita-ai/hospitalops/internal/model"
	"github.com/ashita-ai/hospitalops/internal/telemetry"
)

// DefaultLatency is the simulated backend latency applied to every dispatch.
const DefaultLatency = 800 * time.Millisecond

// maxParallel caps concurrent dispatches within one turn.
const maxParallel = 4

var (
	tracer        = telemetry.Tracer("hospitalops/dispatch")
	dispatchMeter = telemetry.Meter("hospitalops/dispatch")
)

// Config holds the dispatcher's dependencies.
type Config struct {
	Source dataset.Source
	Log    *audit.Log
	Logger *slog.Logger

	// Latency is waited before every dispatch. Negative means zero.
	Latency time.Duration
	// Parallel lets DispatchAll run a turn's calls concurrently.
	Parallel bool
	// Sleep replaces time.Sleep, for tests.
	Sleep func(time.Duration)
	// Meter overrides the global meter the dispatch instruments come from.
	Meter otelmetric.Meter
}

// Dispatcher executes tool requests against the dataset. It is safe for
// concurrent use; the audit log is the only shared mutable state.
type Dispatcher struct {
	source   dataset.Source
	log      *audit.Log
	logger   *slog.Logger
	latency  time.Duration
	parallel bool
	sleep    func(time.Duration)
	agents   map[model.ToolName]subAgent

	dispatchCount    otelmetric.Int64Counter
	dispatchDuration otelmetric.Float64Histogram
}

// New creates a Dispatcher.
func New(cfg Config) *Dispatcher {
	sleep := cfg.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	latency := cfg.Latency
	if latency < 0 {
		latency = 0
	}
	meter := cfg.Meter
	if meter == nil {
		meter = dispatchMeter
	}
	dispatchCount, _ := meter.Int64Counter("hospitalops.dispatch.count",
		otelmetric.WithDescription("Delegations appended to the audit log"),
	)
	dispatchDuration, _ := meter.Float64Histogram("hospitalops.dispatch.duration",
		otelmetric.WithDescription("Time from dispatch to audit append (ms)"),
		otelmetric.WithUnit("ms"),
	)
	return &Dispatcher{
		source:   cfg.Source,
		log:      cfg.Log,
		logger:   cfg.Logger,
		latency:  latency,
		parallel: cfg.Parallel,
		sleep:    sleep,
		agents:   subAgents(),

		dispatchCount:    dispatchCount,
		dispatchDuration: dispatchDuration,
	}
}

// Dispatch runs one tool request and appends exactly one record to the
// audit log before returning. It never panics and never returns a Go error:
// every failure is reported as a ToolResult error.
//
// userRequest is the user utterance that led to the call; empty means the
// call was not user-initiated.
//
// The simulated latency is not cancellable, and the audit append happens even
// if ctx is cancelled mid-dispatch.
func (d *Dispatcher) Dispatch(ctx context.Context, req model.ToolRequest, userRequest string) model.ToolResult {
	result, _ := d.DispatchRecord(ctx, req, userRequest)
	return result
}

// DispatchRecord is Dispatch that also returns the audit record it appended.
func (d *Dispatcher) DispatchRecord(ctx context.Context, req model.ToolRequest, userRequest string) (model.ToolResult, model.ControlLog) {
	ctx = context.WithoutCancel(ctx)
	start := time.Now()

	ctx, span := tracer.Start(ctx, "dispatch "+string(req.Name),
		trace.WithAttributes(attribute.String("hospitalops.tool", string(req.Name))),
	)
	defer span.End()

	d.sleep(d.latency)

	sa, ok := d.agents[req.Name]
	if !ok {
		rec := d.log.Append(ctx, audit.Entry{
			UserRequestText: userRequest,
			Agent:           model.AgentUnknown,
			TransactionID:   model.TransactionNA,
			Success:         false,
		})
		result := model.Failure(model.ToolErrUnknownTool, fmt.Sprintf("unknown tool %q", req.Name))
		d.finish(ctx, span, req, rec, result, start)
		return result, rec
	}

	// Only an absent key is invalid. A blank value is passed through: an
	// empty substring matches every row, an empty id matches none.
	arg, present := req.Arguments[sa.param]
	if req.Malformed != "" || !present {
		reason := fmt.Sprintf("missing required argument %q", sa.param)
		if req.Malformed != "" {
			reason = "malformed arguments: " + req.Malformed
		}
		rec := d.log.Append(ctx, audit.Entry{
			UserRequestText: userRequest,
			Agent:           sa.agent,
			TransactionID:   sa.sentinel,
			Success:         false,
		})
		result := model.Failure(model.ToolErrValidation, reason)
		d.finish(ctx, span, req, rec, result, start)
		return result, rec
	}

	records, err := d.runQuery(ctx, sa, arg)
	if err != nil {
		d.logger.Warn("dispatch: backend fault", "tool", req.Name, "agent", sa.agent, "error", err)
		span.RecordError(err)
		rec := d.log.Append(ctx, audit.Entry{
			UserRequestText: userRequest,
			Agent:           sa.agent,
			TransactionID:   sa.sentinel,
			Success:         false,
		})
		result := model.Failure(model.ToolErrBackendFault, model.BackendFaultReason)
		d.finish(ctx, span, req, rec, result, start)
		return result, rec
	}

	txID := sa.sentinel
	if len(records) > 0 {
		txID = records[0].TransactionKey()
	}
	rec := d.log.Append(ctx, audit.Entry{
		UserRequestText: userRequest,
		Agent:           sa.agent,
		TransactionID:   txID,
		Success:         true,
	})
	result := model.Success(records)
	d.finish(ctx, span, req, rec, result, start)
	return result, rec
}

// runQuery executes a sub-agent filter, converting panics into errors.
func (d *Dispatcher) runQuery(ctx context.Context, sa subAgent, arg string) (records []model.Record, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("dispatch: %s query panicked: %v", sa.agent, r)
		}
	}()
	return sa.query(ctx, d.source, arg)
}

// DispatchAll runs a turn's tool requests and returns results in request
// order. Requests run one at a time unless the dispatcher was built with
// Parallel, in which case up to maxParallel run concurrently.
func (d *Dispatcher) DispatchAll(ctx context.Context, reqs []model.ToolRequest, userRequest string) []model.ToolResult {
	results := make([]model.ToolResult, len(reqs))
	if !d.parallel || len(reqs) < 2 {
		for i, req := range reqs {
			results[i] = d.Dispatch(ctx, req, userRequest)
		}
		return results
	}

	var g errgroup.Group
	g.SetLimit(maxParallel)
	for i, req := range reqs {
		g.Go(func() error {
			results[i] = d.Dispatch(ctx, req, userRequest)
			return nil
		})
	}
	_ = g.Wait() // Dispatch never fails
	return results
}

// Declarations describes the four tools for the remote model, in
// AllTools order.
func (d *Dispatcher) Declarations() []model.ToolDeclaration {
	out := make([]model.ToolDeclaration, 0, len(d.agents))
	for _, name := range model.AllTools() {
		sa := d.agents[name]
		out = append(out, model.ToolDeclaration{
			Name:        string(name),
			Description: sa.description,
			Parameters: model.ParameterSchema{
				Type: "object",
				Properties: map[string]model.ParameterProperty{
					sa.param: {Type: "string", Description: sa.paramDesc},
				},
				Required: []string{sa.param},
			},
		})
	}
	return out
}

// ArgumentName returns the required argument for a tool.
func (d *Dispatcher) ArgumentName(name model.ToolName) (string, bool) {
	sa, ok := d.agents[name]
	return sa.param, ok
}

// finish logs the delegation and records span attributes and metrics.
func (d *Dispatcher) finish(ctx context.Context, span trace.Span, req model.ToolRequest, rec model.ControlLog, result model.ToolResult, start time.Time) {
	duration := time.Since(start)

	origin := ctxutil.OriginFromContext(ctx)
	span.SetAttributes(
		attribute.String("hospitalops.channel", string(origin.Channel)),
		attribute.String("hospitalops.agent", string(rec.DelegatedAgent)),
		attribute.String("hospitalops.transaction_id", rec.TransactionID),
		attribute.Int64("hospitalops.log_id", rec.LogID),
		attribute.Bool("hospitalops.success", rec.DelegationSuccess),
	)

	attrs := []any{
		"tool", req.Name,
		"agent", rec.DelegatedAgent,
		"transaction_id", rec.TransactionID,
		"log_id", rec.LogID,
		"success", rec.DelegationSuccess,
		"duration_ms", duration.Milliseconds(),
	}
	attrs = append(attrs, origin.LogAttrs()...)
	if result.OK() {
		attrs = append(attrs, "records", len(result.Records))
		d.logger.InfoContext(ctx, "delegation", attrs...)
	} else {
		span.SetStatus(codes.Error, result.Err.Reason)
		attrs = append(attrs, "error_kind", result.Err.Kind, "error", result.Err.Reason)
		d.logger.WarnContext(ctx, "delegation failed", attrs...)
	}

	metricAttrs := otelmetric.WithAttributes(
		attribute.String("agent", string(rec.DelegatedAgent)),
		attribute.Bool("success", rec.DelegationSuccess),
	)
	d.dispatchCount.Add(ctx, 1, metricAttrs)
	d.dispatchDuration.Record(ctx, float64(duration.Milliseconds()), metricAttrs)
}
