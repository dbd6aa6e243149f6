package hospitalops

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
)

// mockServer creates an httptest server that mimics the API.
func mockServer(t *testing.T, handlers map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	for pattern, handler := range handlers {
		mux.HandleFunc(pattern, handler)
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	c, err := NewClient(Config{BaseURL: serverURL, Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return c
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Fatal("expected error for empty BaseURL")
	}
}

func TestChatReturnsReplyAndToolCalls(t *testing.T) {
	replyID := uuid.New()
	srv := mockServer(t, map[string]http.HandlerFunc{
		"POST /v1/chat": func(w http.ResponseWriter, r *http.Request) {
			var body map[string]string
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body["text"] != "Who is on triage?" {
				writeJSON(w, http.StatusBadRequest, map[string]any{
					"error": map[string]any{"code": "INVALID_INPUT", "message": "bad body"},
				})
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"data": map[string]any{
					"message": map[string]any{"id": uuid.New(), "role": "user", "text": body["text"]},
					"reply":   map[string]any{"id": replyID, "role": "model", "text": "Nurse Rina is on triage."},
					"tool_calls": []any{
						map[string]any{
							"request": map[string]any{"name": ToolQueryStaff, "arguments": map[string]string{"role_or_name": "Nurse"}},
							"result":  map[string]any{"records": []any{map[string]any{"staff_id": "NS-001"}}},
						},
					},
					"degraded": false,
				},
			})
		},
	})

	resp, err := newTestClient(t, srv.URL).Chat(context.Background(), "Who is on triage?")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.Reply.ID != replyID || resp.Reply.Role != "model" {
		t.Errorf("unexpected reply: %+v", resp.Reply)
	}
	if len(resp.ToolCalls) != 1 || resp.ToolCalls[0].Request.Name != ToolQueryStaff {
		t.Fatalf("unexpected tool calls: %+v", resp.ToolCalls)
	}
	if !resp.ToolCalls[0].Result.OK() || len(resp.ToolCalls[0].Result.Records) != 1 {
		t.Errorf("expected one record, got %+v", resp.ToolCalls[0].Result)
	}
	if resp.Degraded {
		t.Error("expected non-degraded turn")
	}
}

func TestDispatchReportsToolError(t *testing.T) {
	srv := mockServer(t, map[string]http.HandlerFunc{
		"POST /v1/dispatch": func(w http.ResponseWriter, r *http.Request) {
			var req DispatchRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			writeJSON(w, http.StatusOK, map[string]any{
				"data": map[string]any{
					"result": map[string]any{"error": map[string]any{"kind": "unknown_tool", "reason": "Unknown tool: " + req.Name}},
					"log": map[string]any{
						"log_id":             1003,
						"user_request_text":  "Automated System Check",
						"delegated_agent":    "Unknown",
						"transaction_id":     "N/A",
						"delegation_success": false,
					},
				},
			})
		},
	})

	resp, err := newTestClient(t, srv.URL).Dispatch(context.Background(), DispatchRequest{Name: "drop_tables"})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if resp.Result.OK() || resp.Result.Error.Kind != "unknown_tool" {
		t.Errorf("expected unknown_tool error, got %+v", resp.Result)
	}
	if resp.Log.LogID != 1003 || resp.Log.TransactionID != "N/A" || resp.Log.DelegationSuccess {
		t.Errorf("unexpected audit record: %+v", resp.Log)
	}
}

func TestAuditLogSendsOptions(t *testing.T) {
	var gotQuery string
	srv := mockServer(t, map[string]http.HandlerFunc{
		"GET /v1/audit": func(w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.RawQuery
			writeJSON(w, http.StatusOK, map[string]any{
				"data":  []any{map[string]any{"log_id": 1002}, map[string]any{"log_id": 1001}},
				"total": 2,
			})
		},
	})

	recs, err := newTestClient(t, srv.URL).AuditLog(context.Background(), &AuditOptions{Limit: 2, Descending: true})
	if err != nil {
		t.Fatalf("AuditLog: %v", err)
	}
	if gotQuery != "limit=2&order=desc" {
		t.Errorf("query = %q", gotQuery)
	}
	if len(recs) != 2 || recs[0].LogID != 1002 {
		t.Errorf("unexpected records: %+v", recs)
	}
}

func TestIntegrityAndHealth(t *testing.T) {
	srv := mockServer(t, map[string]http.HandlerFunc{
		"GET /v1/audit/integrity": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{
				"record_count": 2, "first_log_id": 1001, "last_log_id": 1002, "merkle_root": "abc",
				"mirror": map[string]any{"record_count": 2, "merkle_root": "abc", "in_sync": true},
			}})
		},
		"GET /health": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{
				"status": "healthy", "version": "1.0.0", "audit_depth": 2, "mirror": "connected",
			}})
		},
	})
	c := newTestClient(t, srv.URL)

	rep, err := c.Integrity(context.Background())
	if err != nil {
		t.Fatalf("Integrity: %v", err)
	}
	if rep.Mirror == nil || !rep.Mirror.InSync || rep.LastLogID != 1002 {
		t.Errorf("unexpected report: %+v", rep)
	}

	h, err := c.Health(context.Background())
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if h.Status != "healthy" || h.AuditDepth != 2 {
		t.Errorf("unexpected health: %+v", h)
	}
}

func TestErrorTypes(t *testing.T) {
	srv := mockServer(t, map[string]http.HandlerFunc{
		"POST /v1/chat": func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", "1")
			writeJSON(w, http.StatusTooManyRequests, map[string]any{
				"error": map[string]any{"code": "RATE_LIMITED", "message": "rate limit exceeded"},
			})
		},
		"POST /v1/dispatch": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"error": map[string]any{"code": "INVALID_INPUT", "message": "name is required"},
			})
		},
		"GET /v1/audit": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "upstream down", http.StatusServiceUnavailable)
		},
	})
	c := newTestClient(t, srv.URL)

	_, err := c.Chat(context.Background(), "hello")
	if !IsRateLimited(err) {
		t.Errorf("expected rate limited, got %v", err)
	}

	_, err = c.Dispatch(context.Background(), DispatchRequest{})
	if !IsInvalidInput(err) {
		t.Errorf("expected invalid input, got %v", err)
	}
	var apiErr *Error
	if e, ok := err.(*Error); ok {
		apiErr = e
	}
	if apiErr == nil || apiErr.Code != "INVALID_INPUT" || apiErr.Message != "name is required" {
		t.Errorf("unexpected error detail: %v", err)
	}

	_, err = c.AuditLog(context.Background(), nil)
	if !IsUnavailable(err) {
		t.Errorf("expected unavailable, got %v", err)
	}
	if IsNotFound(err) {
		t.Error("503 must not report as not found")
	}
}

func TestTimeout(t *testing.T) {
	block := make(chan struct{})
	srv := mockServer(t, map[string]http.HandlerFunc{
		"GET /v1/tools": func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-block:
			case <-r.Context().Done():
			}
		},
	})
	defer close(block)

	c, err := NewClient(Config{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Tools(context.Background()); err == nil {
		t.Fatal("expected timeout error")
	}
}
