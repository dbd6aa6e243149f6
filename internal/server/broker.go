package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ashita-ai/hospitalops/internal/model"
)

const (
	auditEventType    = "control_log"
	subscriberBacklog = 64
	streamKeepalive   = 15 * time.Second
)

// Broker is the audit sink behind GET /v1/audit/stream. Each committed
// CONTROL_LOG record is offered to every open stream.
type Broker struct {
	logger *slog.Logger

	mu   sync.RWMutex
	subs map[*Subscription]struct{}
}

// Subscription is one open stream's queue. A stream that falls more than
// subscriberBacklog records behind misses records rather than stalling
// the audit log.
type Subscription struct {
	records chan model.ControlLog
	dropped atomic.Int64
}

// Records yields records in append order. Closed by Unsubscribe.
func (s *Subscription) Records() <-chan model.ControlLog { return s.records }

// Dropped counts records this subscriber missed.
func (s *Subscription) Dropped() int64 { return s.dropped.Load() }

// NewBroker creates a broker with no subscribers. Register it on the audit
// log with audit.WithSink.
func NewBroker(logger *slog.Logger) *Broker {
	return &Broker{logger: logger, subs: make(map[*Subscription]struct{})}
}

// WriteControlLog implements audit.Sink.
func (b *Broker) WriteControlLog(_ context.Context, rec model.ControlLog) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for sub := range b.subs {
		select {
		case sub.records <- rec:
		default:
			n := sub.dropped.Add(1)
			b.logger.Debug("audit stream: subscriber behind, record skipped", "log_id", rec.LogID, "dropped", n)
		}
	}
	return nil
}

// Subscribe opens a queue that receives every record appended from now on.
// Callers must release it with Unsubscribe.
func (b *Broker) Subscribe() *Subscription {
	sub := &Subscription{records: make(chan model.ControlLog, subscriberBacklog)}
	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()
	return sub
}

// Unsubscribe removes sub and closes its Records channel. Calling it more
// than once is safe.
func (b *Broker) Unsubscribe(sub *Subscription) {
	b.mu.Lock()
	_, ok := b.subs[sub]
	delete(b.subs, sub)
	b.mu.Unlock()
	if ok {
		close(sub.records)
	}
}

// Subscribers reports the number of open streams.
func (b *Broker) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// writeAuditEvent writes rec as one SSE message. The log_id doubles as the
// event id so a reconnecting client can resume with Last-Event-ID.
func writeAuditEvent(w io.Writer, rec model.ControlLog) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record %d: %w", rec.LogID, err)
	}
	_, err = fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", rec.LogID, auditEventType, payload)
	return err
}

// HandleAuditStream handles GET /v1/audit/stream. With a Last-Event-ID
// header the stream first replays every record after that log_id. Records
// the subscription skipped are replayed from the log before the next live
// one, so clients see a gapless, ascending sequence.
func (h *Handlers) HandleAuditStream(w http.ResponseWriter, r *http.Request) {
	if h.broker == nil {
		writeError(w, r, http.StatusServiceUnavailable, model.ErrCodeUnavailable, "audit stream not configured")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, "streaming not supported")
		return
	}

	var resumeAfter int64
	if v := r.Header.Get("Last-Event-ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "Last-Event-ID must be a log_id")
			return
		}
		resumeAfter = id
	}

	// A fresh stream starts at the current tail. Anything appended before
	// the subscription is live is recovered by the gap replay below.
	sent := resumeAfter
	if resumeAfter == 0 && h.log != nil {
		if all := h.log.All(); len(all) > 0 {
			sent = all[len(all)-1].LogID
		}
	}

	// Subscribe before replaying so nothing appended in between is lost.
	sub := h.broker.Subscribe()
	defer h.broker.Unsubscribe(sub)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	if resumeAfter > 0 && h.log != nil {
		var err error
		if sent, err = h.replay(w, sent, 0); err != nil {
			return
		}
	}
	flusher.Flush()

	ticker := time.NewTicker(streamKeepalive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if _, err := io.WriteString(w, ":keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case rec, ok := <-sub.Records():
			if !ok {
				return
			}
			if rec.LogID <= sent {
				continue
			}
			if rec.LogID > sent+1 && h.log != nil {
				var err error
				if sent, err = h.replay(w, sent, rec.LogID); err != nil {
					return
				}
			}
			if err := writeAuditEvent(w, rec); err != nil {
				h.logger.Debug("audit stream: client gone", "error", err)
				return
			}
			sent = rec.LogID
			flusher.Flush()
		}
	}
}

// replay writes the logged records with after < log_id < before, or every
// record after after when before is zero. It returns the last id written.
func (h *Handlers) replay(w io.Writer, after, before int64) (int64, error) {
	for _, rec := range h.log.All() {
		if rec.LogID <= after {
			continue
		}
		if before > 0 && rec.LogID >= before {
			break
		}
		if err := writeAuditEvent(w, rec); err != nil {
			return after, err
		}
		after = rec.LogID
	}
	return after, nil
}
