package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trustgate-ai/trustgate/llm"
	"github.com/trustgate-ai/trustgate/providers"
	"go.uber.org/zap"
)

func TestProvider_Name(t *testing.T) {
	p := New(providers.AnthropicConfig{}, zap.NewNop())
	assert.Equal(t, "anthropic", p.Name())
}

func TestConvertMessages_SystemExtraction(t *testing.T) {
	system, msgs := convertMessages([]llm.Message{
		llm.NewSystemMessage("You are terse."),
		llm.NewUserMessage("hi"),
		llm.NewAssistantMessage("hello"),
	})
	assert.Equal(t, "You are terse.", system)
	require.Len(t, msgs, 2)
	assert.Equal(t, "user", msgs[0].Role)
	assert.Equal(t, "assistant", msgs[1].Role)
}

func TestProvider_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/messages", r.URL.Path)
		require.Equal(t, "test-key", r.Header.Get("x-api-key"))
		require.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))

		var req anthropicRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "You are terse.", req.System)
		require.NotZero(t, req.MaxTokens)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_1",
			"model": "claude-3-sonnet-20240229",
			"content": [{"type": "text", "text": "Hello "}, {"type": "text", "text": "there."}],
			"stop_reason": "end_turn"
		}`))
	}))
	defer srv.Close()

	p := New(providers.AnthropicConfig{BaseURL: srv.URL, APIKey: "test-key"}, zap.NewNop())

	resp, err := p.Generate(context.Background(), &llm.GenerateRequest{
		Messages: []llm.Message{
			llm.NewSystemMessage("You are terse."),
			llm.NewUserMessage("hi"),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello there.", resp.Content)
	assert.Equal(t, "claude-3-sonnet-20240229", resp.Model)
	assert.Equal(t, "anthropic", resp.Provider)
}

func TestMapAnthropicError(t *testing.T) {
	err := mapAnthropicError(http.StatusBadRequest, "insufficient credit balance", "anthropic")
	assert.Equal(t, llm.ErrQuotaExceeded, err.Code)

	err = mapAnthropicError(529, "overloaded", "anthropic")
	assert.Equal(t, llm.ErrUpstreamError, err.Code)
	assert.True(t, err.Retryable)

	err = mapAnthropicError(http.StatusUnauthorized, "nope", "anthropic")
	assert.Equal(t, llm.ErrUnauthorized, err.Code)
}
