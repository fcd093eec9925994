package explain

import (
	"fmt"
	"strings"
)

// GroqBaseURL is the OpenAI-compatible Groq endpoint
const GroqBaseURL = "https://api.groq.com/openai/v1"

// NewProvider creates a new LLM provider based on configuration
func NewProvider(config Config) (Provider, error) {
	provider := strings.ToLower(config.Provider)

	switch provider {
	case "openai":
		return NewOpenAIProvider(config)

	case "groq":
		if config.BaseURL == "" {
			config.BaseURL = GroqBaseURL
		}
		if config.Model == "" {
			config.Model = "llama-3.1-8b-instant"
		}
		return NewOpenAIProvider(config)

	case "anthropic", "claude":
		return NewAnthropicProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	case "":
		// No provider configured: questions go to the backend
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown explain provider: %s (supported: openai, groq, anthropic, ollama)", config.Provider)
	}
}
