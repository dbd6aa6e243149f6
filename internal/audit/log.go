// Package audit implements the CONTROL_LOG: an append-only, strictly ordered
// record of every delegation the dispatcher performs.
package audit

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/ashita-ai/hospitalops/internal/model"
	"github.com/ashita-ai/hospitalops/internal/telemetry"
)

// firstLogID is the first ID handed out when the log starts empty.
const firstLogID int64 = 1001

// Entry is what a caller supplies when recording a delegation. The log
// assigns the ID and timestamp.
type Entry struct {
	UserRequestText string
	Agent           model.AgentName
	TransactionID   string
	Success         bool
}

// Sink receives a copy of every appended record, after the append is
// committed. Sinks see records one at a time in log_id order and must not
// call Append themselves. Sink errors are logged and never reach the caller.
type Sink interface {
	WriteControlLog(ctx context.Context, rec model.ControlLog) error
}

// Option configures a Log.
type Option func(*Log)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(l *Log) { l.now = now }
}

// WithSink registers a mirror that receives each appended record.
func WithSink(s Sink) Option {
	return func(l *Log) { l.sinks = append(l.sinks, s) }
}

// Log is the in-memory audit trail. All methods are safe for concurrent use.
type Log struct {
	logger *slog.Logger
	now    func() time.Time
	sinks  []Sink

	// delivery serializes appends from ID assignment through the last
	// sink, so sinks observe log_id order. Readers only take mu.
	delivery sync.Mutex

	mu      sync.RWMutex
	records []model.ControlLog
	nextID  int64
}

// New creates a log holding the given pre-existing records. Seeds are kept
// in the order given; the ID counter starts above the largest seeded ID.
func New(logger *slog.Logger, seed []model.ControlLog, opts ...Option) *Log {
	l := &Log{
		logger:  logger,
		now:     time.Now,
		records: slices.Clone(seed),
		nextID:  firstLogID,
	}
	for _, r := range seed {
		if r.LogID >= l.nextID {
			l.nextID = r.LogID + 1
		}
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Append records a delegation and returns the stored record. It never fails.
// ID assignment and timestamping happen under the same lock, so storage
// order, ID order and timestamp order agree. A concurrent Append waits
// until this record has reached every sink.
func (l *Log) Append(ctx context.Context, e Entry) model.ControlLog {
	if e.UserRequestText == "" {
		e.UserRequestText = model.DefaultRequestText
	}

	l.delivery.Lock()
	defer l.delivery.Unlock()

	l.mu.Lock()
	rec := model.ControlLog{
		LogID:             l.nextID,
		Timestamp:         l.now().UTC(),
		UserRequestText:   e.UserRequestText,
		DelegatedAgent:    e.Agent,
		TransactionID:     e.TransactionID,
		DelegationSuccess: e.Success,
	}
	if n := len(l.records); n > 0 && rec.Timestamp.Before(l.records[n-1].Timestamp) {
		// Clock stepped backwards; keep the trail monotonic.
		rec.Timestamp = l.records[n-1].Timestamp
	}
	l.nextID++
	l.records = append(l.records, rec)
	l.mu.Unlock()

	for _, s := range l.sinks {
		if err := s.WriteControlLog(ctx, rec); err != nil {
			l.logger.Warn("audit: mirror write failed", "log_id", rec.LogID, "error", err)
		}
	}
	return rec
}

// All returns a snapshot of every record in storage order.
func (l *Log) All() []model.ControlLog {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.records)
}

// Recent returns up to n records, newest first. n <= 0 returns all.
func (l *Log) Recent(n int) []model.ControlLog {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if n <= 0 || n > len(l.records) {
		n = len(l.records)
	}
	out := make([]model.ControlLog, 0, n)
	for i := len(l.records) - 1; i >= len(l.records)-n; i-- {
		out = append(out, l.records[i])
	}
	return out
}

// IsEmpty reports whether the log holds no records.
func (l *Log) IsEmpty() bool {
	return l.Len() == 0
}

// Len returns the number of records.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// RegisterMetrics exposes the log depth as an OTEL gauge.
func (l *Log) RegisterMetrics() {
	meter := telemetry.Meter("hospitalops/audit")

	_, _ = meter.Int64ObservableGauge("hospitalops.audit.depth",
		metric.WithDescription("Number of delegation records in the control log"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(int64(l.Len()))
			return nil
		}),
	)
}
