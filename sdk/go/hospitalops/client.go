package hospitalops

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Config holds the settings needed to construct a Client.
type Config struct {
	// BaseURL is the root URL of the server (e.g. "http://localhost:8080").
	BaseURL string

	// HTTPClient is an optional custom HTTP client. If nil, a default client
	// with a 60-second timeout is used.
	HTTPClient *http.Client

	// Timeout applies to individual API requests. Defaults to 60 seconds,
	// enough for a chat turn with several delegations.
	Timeout time.Duration
}

// Client is an HTTP client for the hospital operations API.
// All methods are safe for concurrent use.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a Client from the given configuration.
// Returns an error if BaseURL is empty.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("hospitalops: BaseURL is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 60 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  httpClient,
	}, nil
}

// Chat sends one message to the operations assistant and returns its reply
// with the delegations it made. A failed model round trip is not an error:
// the response is marked Degraded and the reply explains the fault.
func (c *Client) Chat(ctx context.Context, text string) (*ChatResponse, error) {
	var resp ChatResponse
	if err := c.post(ctx, "/v1/chat", map[string]string{"text": text}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Messages returns the conversation transcript, oldest first.
func (c *Client) Messages(ctx context.Context) ([]ChatMessage, error) {
	var msgs []ChatMessage
	if err := c.get(ctx, "/v1/chat/messages", &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// Dispatch delegates one tool call directly, outside a chat turn. Tool
// failures are reported in Result.Error, not as a Go error.
func (c *Client) Dispatch(ctx context.Context, req DispatchRequest) (*DispatchResponse, error) {
	var resp DispatchResponse
	if err := c.post(ctx, "/v1/dispatch", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Tools returns the tool declarations the model is offered.
func (c *Client) Tools(ctx context.Context) ([]ToolDeclaration, error) {
	var decls []ToolDeclaration
	if err := c.get(ctx, "/v1/tools", &decls); err != nil {
		return nil, err
	}
	return decls, nil
}

// AuditOptions are optional parameters for AuditLog.
type AuditOptions struct {
	// Limit keeps only the most recent n records. Zero means all.
	Limit int
	// Descending returns newest first.
	Descending bool
}

// AuditLog returns the CONTROL_LOG trail.
func (c *Client) AuditLog(ctx context.Context, opts *AuditOptions) ([]ControlLog, error) {
	params := url.Values{}
	if opts != nil {
		if opts.Limit > 0 {
			params.Set("limit", strconv.Itoa(opts.Limit))
		}
		if opts.Descending {
			params.Set("order", "desc")
		}
	}

	path := "/v1/audit"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}
	var recs []ControlLog
	if err := c.get(ctx, path, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

// Integrity returns the trail's Merkle root and its comparison with the
// durable mirror.
func (c *Client) Integrity(ctx context.Context) (*IntegrityReport, error) {
	var resp IntegrityReport
	if err := c.get(ctx, "/v1/audit/integrity", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Health returns the server's health report. No envelope errors are
// expected here; the endpoint always answers 200.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var resp Health
	if err := c.get(ctx, "/health", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ---------------------------------------------------------------------------
// HTTP transport
// ---------------------------------------------------------------------------

// apiEnvelope is the server's standard response wrapper.
type apiEnvelope struct {
	Data json.RawMessage `json:"data"`
}

// apiErrorEnvelope is the server's standard error response wrapper.
type apiErrorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) post(ctx context.Context, path string, body any, dest any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("hospitalops: marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("hospitalops: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.doRequest(req, dest)
}

func (c *Client) get(ctx context.Context, path string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("hospitalops: create request: %w", err)
	}

	return c.doRequest(req, dest)
}

func (c *Client) doRequest(req *http.Request, dest any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("hospitalops: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	return handleResponse(resp, dest)
}

func handleResponse(resp *http.Response, dest any) error {
	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("hospitalops: read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return parseErrorResponse(resp.StatusCode, bodyBytes)
	}

	if resp.StatusCode == http.StatusNoContent || dest == nil {
		return nil
	}

	// Unwrap the server's { "data": ... } envelope.
	var envelope apiEnvelope
	if err := json.Unmarshal(bodyBytes, &envelope); err != nil {
		return fmt.Errorf("hospitalops: decode response envelope: %w", err)
	}
	if envelope.Data == nil {
		return json.Unmarshal(bodyBytes, dest)
	}
	return json.Unmarshal(envelope.Data, dest)
}

func parseErrorResponse(statusCode int, body []byte) *Error {
	apiErr := &Error{StatusCode: statusCode}

	var envelope apiErrorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		apiErr.Code = envelope.Error.Code
		apiErr.Message = envelope.Error.Message
	} else {
		apiErr.Code = http.StatusText(statusCode)
		apiErr.Message = string(body)
	}

	return apiErr
}
