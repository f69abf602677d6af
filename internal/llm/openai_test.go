package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
)

func newTestOpenAIProvider(t *testing.T, handler http.HandlerFunc) *OpenAIProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	provider, err := NewOpenAIProvider(Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "grok-3-fast",
		Timeout: 5,
	})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}
	return provider
}

func TestOpenAIProvider_Chat_ToolCalls(t *testing.T) {
	var body map[string]any
	provider := newTestOpenAIProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Expected path /chat/completions, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Expected Authorization header Bearer test-key, got %s", r.Header.Get("Authorization"))
		}
		_ = json.NewDecoder(r.Body).Decode(&body)

		resp := openai.ChatCompletionResponse{
			ID:    "chatcmpl-1",
			Model: "grok-3-fast",
			Choices: []openai.ChatCompletionChoice{
				{
					Message: openai.ChatCompletionMessage{
						Role: "assistant",
						ToolCalls: []openai.ToolCall{
							{
								ID:   "call_1",
								Type: openai.ToolTypeFunction,
								Function: openai.FunctionCall{
									Name:      "query_knowledge_graph",
									Arguments: `{"location":"Austin, TX","queryType":"full_context"}`,
								},
							},
						},
					},
					FinishReason: openai.FinishReasonToolCalls,
				},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	})

	resp, err := provider.Chat(context.Background(), ChatRequest{
		System:   "system prompt",
		Messages: []Message{{Role: RoleUser, Content: "go"}},
		Tools: []ToolSpec{{
			Name:        "query_knowledge_graph",
			Description: "Query the graph",
			Parameters:  map[string]any{"type": "object"},
		}},
	})
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}

	if len(resp.ToolCalls) != 1 || resp.ToolCalls[0].Name != "query_knowledge_graph" || resp.ToolCalls[0].ID != "call_1" {
		t.Fatalf("Unexpected tool calls: %+v", resp.ToolCalls)
	}
	if resp.FinishReason != "tool_calls" {
		t.Errorf("FinishReason = %q, want tool_calls", resp.FinishReason)
	}

	if body["tool_choice"] != "auto" {
		t.Errorf("tool_choice = %v, want auto", body["tool_choice"])
	}
	msgs, _ := body["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("Expected system + user messages, got %d", len(msgs))
	}
	first, _ := msgs[0].(map[string]any)
	if first["role"] != "system" {
		t.Errorf("first message role = %v, want system", first["role"])
	}
}

func TestOpenAIProvider_Chat_ForceTool(t *testing.T) {
	var body map[string]any
	provider := newTestOpenAIProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Role: "assistant", Content: "ok"}, FinishReason: "stop"}},
		})
	})

	_, err := provider.Chat(context.Background(), ChatRequest{
		Messages:  []Message{{Role: RoleUser, Content: "go"}},
		Tools:     []ToolSpec{{Name: "generate_content_brief", Parameters: map[string]any{"type": "object"}}},
		ForceTool: "generate_content_brief",
	})
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}

	choice, ok := body["tool_choice"].(map[string]any)
	if !ok {
		t.Fatalf("tool_choice = %v, want object", body["tool_choice"])
	}
	fn, _ := choice["function"].(map[string]any)
	if fn["name"] != "generate_content_brief" {
		t.Errorf("forced tool = %v, want generate_content_brief", fn["name"])
	}
}

func TestOpenAIProvider_Chat_ToolMessages(t *testing.T) {
	var body map[string]any
	provider := newTestOpenAIProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Role: "assistant", Content: "done"}, FinishReason: "stop"}},
		})
	})

	_, err := provider.Chat(context.Background(), ChatRequest{
		Messages: []Message{
			{Role: RoleUser, Content: "go"},
			{Role: RoleAssistant, ToolCalls: []ToolCall{{ID: "c1", Name: "search_market_data", Arguments: "not json"}}},
			{Role: RoleTool, ToolCallID: "c1", Content: `{"results":[]}`},
		},
	})
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}

	msgs, _ := body["messages"].([]any)
	if len(msgs) != 3 {
		t.Fatalf("Expected 3 messages, got %d", len(msgs))
	}
	assistant, _ := msgs[1].(map[string]any)
	calls, _ := assistant["tool_calls"].([]any)
	call, _ := calls[0].(map[string]any)
	fn, _ := call["function"].(map[string]any)
	if fn["arguments"] != "{}" {
		t.Errorf("invalid arguments should be replaced with {}, got %v", fn["arguments"])
	}
	tool, _ := msgs[2].(map[string]any)
	if tool["tool_call_id"] != "c1" {
		t.Errorf("tool_call_id = %v, want c1", tool["tool_call_id"])
	}
}

func TestOpenAIProvider_Generate(t *testing.T) {
	var body map[string]any
	provider := newTestOpenAIProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Role: "assistant", Content: ` {"title":"x"} `}}},
		})
	})

	text, err := provider.Generate(context.Background(), "write")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if text != `{"title":"x"}` {
		t.Errorf("Generate() = %q", text)
	}
	format, _ := body["response_format"].(map[string]any)
	if format["type"] != "json_object" {
		t.Errorf("response_format = %v, want json_object", body["response_format"])
	}
}

func TestOpenAIProvider_Generate_Empty(t *testing.T) {
	provider := newTestOpenAIProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{})
	})

	_, err := provider.Generate(context.Background(), "write")
	if !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("Expected ErrEmptyResponse, got %v", err)
	}
}

func TestOpenAIProvider_Chat_APIError(t *testing.T) {
	provider := newTestOpenAIProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": {"message": "bad request", "type": "invalid_request_error"}}`))
	})

	_, err := provider.Chat(context.Background(), ChatRequest{Messages: []Message{{Role: RoleUser, Content: "go"}}})
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
}

func TestOpenAIProvider_Chat_ContextDeadline(t *testing.T) {
	provider := newTestOpenAIProvider(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := provider.Chat(ctx, ChatRequest{Messages: []Message{{Role: RoleUser, Content: "go"}}})
	if err == nil {
		t.Fatal("Expected timeout error, got nil")
	}
}

func TestNewOpenAIProvider_RequiresKey(t *testing.T) {
	if _, err := NewOpenAIProvider(Config{}); err == nil {
		t.Fatal("Expected error for missing API key")
	}
}
