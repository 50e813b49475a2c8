package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const messageResponse = `{
  "id": "msg_1",
  "type": "message",
  "role": "assistant",
  "model": "claude-3-5-haiku-20241022",
  "content": [
    {"type": "text", "text": "{\"files\": "},
    {"type": "text", "text": "{\"a.js\": \"x\"}}"}
  ],
  "stop_reason": "end_turn",
  "stop_sequence": null,
  "usage": {"input_tokens": 12, "output_tokens": 8}
}`

func TestAnthropicGeneratorJoinsTextBlocks(t *testing.T) {
	t.Parallel()
	var captured map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if !strings.HasSuffix(request.URL.Path, "/v1/messages") {
			t.Errorf("unexpected path %s", request.URL.Path)
		}
		if request.Header.Get("X-Api-Key") != "test-key" {
			t.Errorf("expected api key header, got %q", request.Header.Get("X-Api-Key"))
		}
		body, _ := io.ReadAll(request.Body)
		_ = json.Unmarshal(body, &captured)
		writer.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(writer, messageResponse)
	}))
	defer server.Close()

	generator, err := NewAnthropicGenerator(AnthropicConfig{APIKey: "test-key", BaseURL: server.URL, HTTPClient: server.Client()})
	if err != nil {
		t.Fatalf("NewAnthropicGenerator error: %v", err)
	}
	completion, generateErr := generator.Generate(context.Background(), "system text", "user text")
	if generateErr != nil {
		t.Fatalf("Generate error: %v", generateErr)
	}
	if completion != `{"files": {"a.js": "x"}}` {
		t.Fatalf("unexpected completion %q", completion)
	}
	if captured["model"] != DefaultModel {
		t.Fatalf("expected default model, got %v", captured["model"])
	}
	if maxTokens, ok := captured["max_tokens"].(float64); !ok || int(maxTokens) != DefaultMaxTokens {
		t.Fatalf("expected default max tokens, got %v", captured["max_tokens"])
	}
}

func TestAnthropicGeneratorWrapsAPIErrors(t *testing.T) {
	t.Parallel()
	var requestCount int
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		requestCount++
		writer.Header().Set("Content-Type", "application/json")
		writer.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(writer, `{"type":"error","error":{"type":"api_error","message":"boom"}}`)
	}))
	defer server.Close()

	generator, err := NewAnthropicGenerator(AnthropicConfig{APIKey: "test-key", BaseURL: server.URL, HTTPClient: server.Client()})
	if err != nil {
		t.Fatalf("NewAnthropicGenerator error: %v", err)
	}
	if _, generateErr := generator.Generate(context.Background(), "", "user"); generateErr == nil || !strings.Contains(generateErr.Error(), "500") {
		t.Fatalf("expected wrapped status error, got %v", generateErr)
	}
	if requestCount != 1 {
		t.Fatalf("expected a single attempt, got %d", requestCount)
	}
}

func TestNewAnthropicGeneratorRequiresKey(t *testing.T) {
	t.Parallel()
	if _, err := NewAnthropicGenerator(AnthropicConfig{APIKey: "  "}); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
}
