package llm

import (
	"context"
	"fmt"
	"strings"
)

// NewToolCaller creates the function-calling model named by config.Provider
func NewToolCaller(config Config) (ToolCaller, error) {
	switch strings.ToLower(config.Provider) {
	case "openai", "grok", "xai":
		return NewOpenAIProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	default:
		return nil, fmt.Errorf("unknown tool-calling provider: %s (supported: openai, ollama)", config.Provider)
	}
}

// NewGenerator creates the long-form writer named by config.Provider
func NewGenerator(ctx context.Context, config Config) (Generator, error) {
	switch strings.ToLower(config.Provider) {
	case "gemini", "google":
		return NewGeminiProvider(ctx, config)

	case "openai", "grok", "xai":
		return NewOpenAIProvider(config)

	case "anthropic", "claude":
		return NewAnthropicProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: gemini, openai, anthropic, ollama)", config.Provider)
	}
}
