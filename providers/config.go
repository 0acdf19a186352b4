// Package providers holds the shared configuration and helpers for the
// vendor adapters under providers/openai and providers/anthropic.
package providers

import "time"

// OpenAIConfig configures an OpenAI chat-completions adapter.
type OpenAIConfig struct {
	BaseURL string        `yaml:"base_url" json:"base_url,omitempty"`
	APIKey  string        `yaml:"api_key" json:"-"`
	Model   string        `yaml:"model" json:"model,omitempty"`
	Timeout time.Duration `yaml:"timeout" json:"timeout,omitempty"`
}

// AnthropicConfig configures an Anthropic messages adapter.
type AnthropicConfig struct {
	BaseURL string        `yaml:"base_url" json:"base_url,omitempty"`
	APIKey  string        `yaml:"api_key" json:"-"`
	Model   string        `yaml:"model" json:"model,omitempty"`
	Timeout time.Duration `yaml:"timeout" json:"timeout,omitempty"`
}
