// Package anthropic implements the llm.Provider contract against the
// Anthropic messages API.
//
// The API differs from OpenAI in two ways that matter here:
//  1. authentication uses the x-api-key header rather than a bearer token
//  2. system messages are passed in a dedicated top-level field
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/trustgate-ai/trustgate/llm"
	"github.com/trustgate-ai/trustgate/providers"
	"go.uber.org/zap"
)

const (
	defaultModel     = "claude-3-sonnet-20240229"
	anthropicVersion = "2023-06-01"
	defaultMaxTokens = 4096
)

// Provider calls the Anthropic messages endpoint.
type Provider struct {
	cfg    providers.AnthropicConfig
	client *http.Client
	logger *zap.Logger
}

// New creates an Anthropic provider.
func New(cfg providers.AnthropicConfig, logger *zap.Logger) *Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.anthropic.com"
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}

	return &Provider{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		logger: logger.With(zap.String("component", "anthropic_provider")),
	}
}

// Name returns the provider identifier used in attempt records.
func (p *Provider) Name() string { return "anthropic" }

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	Messages    []anthropicMessage `json:"messages"`
	System      string             `json:"system,omitempty"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float32            `json:"temperature,omitempty"`
}

type anthropicContent struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type anthropicResponse struct {
	ID         string             `json:"id"`
	Model      string             `json:"model"`
	Content    []anthropicContent `json:"content"`
	StopReason string             `json:"stop_reason"`
}

type anthropicErrorResp struct {
	Type  string `json:"type"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Generate implements llm.Provider.
func (p *Provider) Generate(ctx context.Context, req *llm.GenerateRequest) (*llm.GenerateResponse, error) {
	system, messages := convertMessages(req.Messages)
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		// The messages API rejects requests without max_tokens.
		maxTokens = defaultMaxTokens
	}

	body := anthropicRequest{
		Model:       providers.ChooseModel(req.Model, p.cfg.Model, defaultModel),
		Messages:    messages,
		System:      system,
		MaxTokens:   maxTokens,
		Temperature: req.Temperature,
	}

	payload, _ := json.Marshal(body)
	endpoint := fmt.Sprintf("%s/v1/messages", strings.TrimRight(p.cfg.BaseURL, "/"))

	httpReq, _ := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	httpReq.Header.Set("x-api-key", p.cfg.APIKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, providers.MapTransportError(err, p.Name())
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, mapAnthropicError(resp.StatusCode, readErrMsg(resp.Body), p.Name())
	}

	var aResp anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&aResp); err != nil {
		return nil, &llm.Error{
			Code:       llm.ErrUpstreamError,
			Message:    err.Error(),
			HTTPStatus: http.StatusBadGateway,
			Retryable:  true,
			Provider:   p.Name(),
		}
	}

	var text strings.Builder
	for _, c := range aResp.Content {
		if c.Type == "text" {
			text.WriteString(c.Text)
		}
	}

	return &llm.GenerateResponse{
		Provider:  p.Name(),
		Model:     aResp.Model,
		Content:   text.String(),
		CreatedAt: time.Now(),
	}, nil
}

// convertMessages extracts the system prompt and maps the remaining
// conversation into the alternating user/assistant shape the API expects.
func convertMessages(msgs []llm.Message) (string, []anthropicMessage) {
	var system string
	out := make([]anthropicMessage, 0, len(msgs))
	for _, m := range msgs {
		if m.Role == llm.RoleSystem {
			system = m.Content
			continue
		}
		out = append(out, anthropicMessage{Role: string(m.Role), Content: m.Content})
	}
	return system, out
}

func readErrMsg(body io.Reader) string {
	data, _ := io.ReadAll(body)
	var errResp anthropicErrorResp
	if err := json.Unmarshal(data, &errResp); err == nil && errResp.Error.Message != "" {
		return fmt.Sprintf("%s (type: %s)", errResp.Error.Message, errResp.Error.Type)
	}
	return string(data)
}

func mapAnthropicError(status int, msg string, provider string) *llm.Error {
	if status == http.StatusBadRequest && (strings.Contains(msg, "credit") || strings.Contains(msg, "quota")) {
		return &llm.Error{Code: llm.ErrQuotaExceeded, Message: msg, HTTPStatus: status, Provider: provider}
	}
	if status == 529 { // anthropic-specific overloaded status
		return &llm.Error{Code: llm.ErrUpstreamError, Message: msg, HTTPStatus: status, Retryable: true, Provider: provider}
	}
	return providers.MapStatusError(status, msg, provider)
}
