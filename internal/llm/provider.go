package llm

import (
	"context"
	"errors"
	"os"

	"github.com/ppiankov/geoagent/internal/model"
)

// ErrEmptyResponse is returned when a provider answers without any usable content
var ErrEmptyResponse = errors.New("empty response from model")

// Role is the author of a conversation message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one entry of a tool-calling conversation
type Message struct {
	Role       Role
	Content    string
	ToolCalls  []ToolCall // assistant messages only
	ToolCallID string     // tool messages only
}

// ToolCall is a model request to invoke a named tool with JSON arguments
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// ToolSpec describes a tool offered to the model. Parameters is a JSON schema.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// ChatRequest is one turn of a tool-calling conversation
type ChatRequest struct {
	System   string
	Messages []Message
	Tools    []ToolSpec

	// ForceTool names a tool the model must call; empty lets the model choose
	ForceTool string
}

// ChatResponse is the model's reply to a ChatRequest
type ChatResponse struct {
	Content      string
	ToolCalls    []ToolCall
	FinishReason string
}

// ToolCaller is a model that supports function calling
type ToolCaller interface {
	// Name returns the provider name
	Name() string

	// Chat sends the conversation and returns the assistant reply
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// Generator is a model used for long-form JSON output
type Generator interface {
	Name() string

	// Generate returns the raw text completion of prompt; providers request JSON output where supported
	Generate(ctx context.Context, prompt string) (string, error)
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "gemini", "anthropic", "ollama"
	Provider string

	// Model name (provider-specific)
	Model string

	APIKey string

	// BaseURL for custom endpoints (xAI, Ollama, proxies)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	MaxTokens   int
	Temperature float32

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
}

// ConfigFromModel converts model.LLMConfig to llm.Config, reading the API key
// from APIKeyEnv when no key is set directly
func ConfigFromModel(m model.LLMConfig) Config {
	key := m.APIKey
	if key == "" && m.APIKeyEnv != "" {
		key = os.Getenv(m.APIKeyEnv)
	}
	return Config{
		Provider:    m.Provider,
		Model:       m.Model,
		APIKey:      key,
		BaseURL:     m.BaseURL,
		Timeout:     m.Timeout,
		MaxTokens:   m.MaxTokens,
		Temperature: m.Temperature,
	}
}

func (c Config) maxTokens(fallback int) int {
	if c.MaxTokens > 0 {
		return c.MaxTokens
	}
	return fallback
}
