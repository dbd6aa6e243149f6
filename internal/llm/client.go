package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/ashita-ai/hospitalops/internal/model"
)

// Defaults target Gemini through its OpenAI-compatible endpoint.
const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"
	DefaultModel   = "gemini-2.5-flash"
)

// ClientConfig configures an OpenAI-compatible chat completions client.
type ClientConfig struct {
	BaseURL    string
	APIKey     string
	Model      string
	HTTPClient *http.Client
}

// Client calls an OpenAI-compatible chat completions endpoint.
type Client struct {
	api    openai.Client
	apiKey string
	model  string
}

// NewClient creates a client. Empty fields fall back to the defaults.
// The SDK's own retries are disabled: the orchestrator bounds each call
// through the context and reports a failed call as one model fault.
func NewClient(cfg ClientConfig) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	m := cfg.Model
	if m == "" {
		m = DefaultModel
	}
	opts := []option.RequestOption{
		option.WithBaseURL(base),
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
		option.WithMiddleware(injectTrace),
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}
	return &Client{
		api:    openai.NewClient(opts...),
		apiKey: cfg.APIKey,
		model:  m,
	}
}

// injectTrace propagates the caller's span to the model endpoint.
func injectTrace(req *http.Request, next option.MiddlewareNext) (*http.Response, error) {
	otel.GetTextMapPropagator().Inject(req.Context(), propagation.HeaderCarrier(req.Header))
	return next(req)
}

// HasAPIKey reports whether the client can make requests.
func (c *Client) HasAPIKey() bool { return c.apiKey != "" }

// Complete sends one chat completion request.
//
// A tool call whose arguments are not a JSON object is still returned,
// with ArgumentsErr set, so the caller can audit it as a rejected call
// instead of losing the whole reply.
func (c *Client) Complete(ctx context.Context, req Request) (*Response, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	params, err := c.buildParams(req)
	if err != nil {
		return nil, err
	}

	completion, err := c.api.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return nil, fmt.Errorf("llm: status %d: %w", apiErr.StatusCode, err)
		}
		return nil, fmt.Errorf("llm: send request: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("llm: response has no choices")
	}

	msg := completion.Choices[0].Message
	result := &Response{Text: msg.Content}
	for _, tc := range msg.ToolCalls {
		args, argErr := model.DecodeArguments([]byte(tc.Function.Arguments))
		result.ToolCalls = append(result.ToolCalls, ToolCall{
			ID:           tc.ID,
			Name:         tc.Function.Name,
			Arguments:    args,
			ArgumentsErr: argErr,
		})
	}
	return result, nil
}

func (c *Client) buildParams(req Request) (openai.ChatCompletionNewParams, error) {
	params := openai.ChatCompletionNewParams{Model: openai.ChatModel(c.model)}

	if req.SystemPrompt != "" {
		params.Messages = append(params.Messages, openai.SystemMessage(req.SystemPrompt))
	}
	for _, m := range req.Messages {
		switch m.Role {
		case RoleUser:
			params.Messages = append(params.Messages, openai.UserMessage(m.Content))
		case RoleTool:
			params.Messages = append(params.Messages, openai.ToolMessage(m.Content, m.ToolCallID))
		case RoleAssistant:
			params.Messages = append(params.Messages, assistantMessage(m))
		default:
			return params, fmt.Errorf("llm: unknown message role %q", m.Role)
		}
	}

	for _, t := range req.Tools {
		schema, err := toFunctionParameters(t.Parameters)
		if err != nil {
			return params, fmt.Errorf("llm: tool %s: %w", t.Name, err)
		}
		params.Tools = append(params.Tools, openai.ChatCompletionToolParam{
			Function: openai.FunctionDefinitionParam{
				Name:        t.Name,
				Description: openai.String(t.Description),
				Parameters:  schema,
			},
		})
	}
	return params, nil
}

func assistantMessage(m Message) openai.ChatCompletionMessageParamUnion {
	msg := openai.ChatCompletionAssistantMessageParam{}
	if m.Content != "" || len(m.ToolCalls) == 0 {
		msg.Content.OfString = openai.String(m.Content)
	}
	for _, tc := range m.ToolCalls {
		args, _ := json.Marshal(tc.Arguments) // map[string]string always marshals
		msg.ToolCalls = append(msg.ToolCalls, openai.ChatCompletionMessageToolCallParam{
			ID: tc.ID,
			Function: openai.ChatCompletionMessageToolCallFunctionParam{
				Name:      tc.Name,
				Arguments: string(args),
			},
		})
	}
	return openai.ChatCompletionMessageParamUnion{OfAssistant: &msg}
}

// toFunctionParameters converts a declared parameter schema into the
// SDK's free-form JSON schema object.
func toFunctionParameters(schema model.ParameterSchema) (openai.FunctionParameters, error) {
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("marshal parameters: %w", err)
	}
	var out openai.FunctionParameters
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("unmarshal parameters: %w", err)
	}
	return out, nil
}
