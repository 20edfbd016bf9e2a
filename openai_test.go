package topicquiz

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newChatServer(t *testing.T, handler func(w http.ResponseWriter, body map[string]interface{})) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		handler(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func writeToolCall(t *testing.T, w http.ResponseWriter, name, arguments string) {
	t.Helper()
	resp := map[string]interface{}{
		"id":     "chatcmpl-1",
		"object": "chat.completion",
		"model":  "gpt-4o",
		"choices": []interface{}{
			map[string]interface{}{
				"index": 0,
				"message": map[string]interface{}{
					"role": "assistant",
					"tool_calls": []interface{}{
						map[string]interface{}{
							"id":   "call_1",
							"type": "function",
							"function": map[string]interface{}{
								"name":      name,
								"arguments": arguments,
							},
						},
					},
				},
				"finish_reason": "tool_calls",
			},
		},
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		t.Errorf("failed to write response: %v", err)
	}
}

func TestOpenAIProviderForcesToolCall(t *testing.T) {
	arguments := toolArguments(t, testQuestions(QuestionsPerQuiz))

	var toolChoice interface{}
	srv := newChatServer(t, func(w http.ResponseWriter, body map[string]interface{}) {
		toolChoice = body["tool_choice"]
		writeToolCall(t, w, QuizSetSchema.Name, arguments)
	})

	provider := NewOpenAIProvider("test-key", srv.URL+"/v1", "")
	raw, err := provider.GenerateStructured(context.Background(), "quiz me", QuizSetSchema)
	if err != nil {
		t.Fatalf("GenerateStructured failed: %v", err)
	}
	if raw != arguments {
		t.Fatalf("GenerateStructured = %s, want %s", raw, arguments)
	}

	choice, ok := toolChoice.(map[string]interface{})
	if !ok {
		t.Fatalf("tool_choice = %#v, want an object", toolChoice)
	}
	function, _ := choice["function"].(map[string]interface{})
	if function["name"] != QuizSetSchema.Name {
		t.Fatalf("tool_choice function = %v, want %s", function["name"], QuizSetSchema.Name)
	}
}

func TestOpenAIProviderWrongTool(t *testing.T) {
	srv := newChatServer(t, func(w http.ResponseWriter, body map[string]interface{}) {
		writeToolCall(t, w, "something_else", "{}")
	})

	provider := NewOpenAIProvider("test-key", srv.URL+"/v1", "")
	_, err := provider.GenerateStructured(context.Background(), "quiz me", QuizSetSchema)
	assertProviderError(t, err, KindSchema)
}

func TestOpenAIProviderNoToolCalls(t *testing.T) {
	srv := newChatServer(t, func(w http.ResponseWriter, body map[string]interface{}) {
		_, _ = w.Write([]byte(`{"id":"chatcmpl-1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"no"},"finish_reason":"stop"}]}`))
	})

	provider := NewOpenAIProvider("test-key", srv.URL+"/v1", "")
	_, err := provider.GenerateStructured(context.Background(), "quiz me", QuizSetSchema)
	assertProviderError(t, err, KindSchema)
}

func TestOpenAIProviderTransportError(t *testing.T) {
	srv := newChatServer(t, func(w http.ResponseWriter, body map[string]interface{}) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
	})

	provider := NewOpenAIProvider("test-key", srv.URL+"/v1", "")
	_, err := provider.GenerateStructured(context.Background(), "quiz me", QuizSetSchema)
	assertProviderError(t, err, KindTransport)
}
