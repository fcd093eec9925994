// Package explain answers follow-up questions locally, grounded only in the
// evidence of the verdict being discussed.
//
// It stands in for the backend chat endpoint when explain.provider is set.
// Answers come from an LLM provider (OpenAI-compatible, Anthropic or Ollama)
// and are checked so they never cite a URL outside the verdict's evidence.
package explain

import (
	"context"
	"time"

	"github.com/ppiankov/verdict/internal/model"
)

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Complete generates a reply for the request
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// CompletionRequest contains the input for one grounded completion
type CompletionRequest struct {
	// System carries the explanation rules
	System string

	// Prompt carries the decision, the selected evidence and the question
	Prompt string

	// Model is the specific model to use (provider-specific)
	Model string

	// MaxTokens limits the response length
	MaxTokens int

	// Temperature is kept low; answers explain, they do not invent
	Temperature float32
}

// CompletionResponse contains the provider output
type CompletionResponse struct {
	Text       string
	Model      string
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "groq", "anthropic", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Groq/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// StrictEvidence rejects answers citing URLs outside the verdict's evidence
	StrictEvidence bool

	// MaxTokens for response generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:       "", // Disabled by default
		Timeout:        30,
		StrictEvidence: true,
		MaxTokens:      1024,
	}
}

// ConfigFromModel converts the explain section of the config. Proxy settings
// are shared with the backend.
func ConfigFromModel(explain model.ExplainConfig, backend model.BackendConfig) Config {
	return Config{
		Provider:       explain.Provider,
		Model:          explain.Model,
		APIKey:         explain.APIKey,
		BaseURL:        explain.BaseURL,
		Timeout:        explain.Timeout,
		StrictEvidence: explain.StrictEvidence,
		MaxTokens:      explain.MaxTokens,
		HTTPProxy:      backend.HTTPProxy,
		HTTPSProxy:     backend.HTTPSProxy,
		NoProxy:        backend.NoProxy,
	}
}

func (c Config) timeout(fallback time.Duration) time.Duration {
	if c.Timeout <= 0 {
		return fallback
	}
	return time.Duration(c.Timeout) * time.Second
}

func (c Config) maxTokens(req CompletionRequest) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	if c.MaxTokens > 0 {
		return c.MaxTokens
	}
	return 1024
}

func (c Config) model(req CompletionRequest, fallback string) string {
	if req.Model != "" {
		return req.Model
	}
	if c.Model != "" {
		return c.Model
	}
	return fallback
}
