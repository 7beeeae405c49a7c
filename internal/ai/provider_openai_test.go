package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func openaiServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("unexpected auth header: %s", r.Header.Get("Authorization"))
		}

		json.NewEncoder(w).Encode(map[string]any{
			"model": "gpt-4o-mini",
			"choices": []map[string]any{
				{"message": map[string]any{"content": content}},
			},
		})
	}))
}

func TestOpenAIProvider_GenerateText(t *testing.T) {
	server := openaiServer(t, "Here is your lesson!")
	defer server.Close()

	provider := NewOpenAIProvider("test-key", WithBaseURL(server.URL))

	text, err := provider.GenerateText(context.Background(), "write a lesson", "you are a teacher")
	if err != nil {
		t.Fatalf("GenerateText() error = %v", err)
	}
	if text != "Here is your lesson!" {
		t.Errorf("text = %q, want %q", text, "Here is your lesson!")
	}
}

func TestOpenAIProvider_GenerateText_SystemPromptSent(t *testing.T) {
	var received openaiRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&received)
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]any{"content": "ok"}}},
		})
	}))
	defer server.Close()

	provider := NewOpenAIProvider("test-key", WithBaseURL(server.URL))
	_, err := provider.GenerateText(context.Background(), "hello", "be brief")
	if err != nil {
		t.Fatalf("GenerateText() error = %v", err)
	}

	if len(received.Messages) != 2 {
		t.Fatalf("messages = %d, want 2", len(received.Messages))
	}
	if received.Messages[0].Role != "system" || received.Messages[0].Content != "be brief" {
		t.Errorf("unexpected system message: %+v", received.Messages[0])
	}
}

func TestOpenAIProvider_GenerateJSON(t *testing.T) {
	server := openaiServer(t, stubQuestions)
	defer server.Close()

	provider := NewOpenAIProvider("test-key", WithBaseURL(server.URL))

	raw, err := provider.GenerateJSON(context.Background(), "make a quiz", QuizSchema)
	if err != nil {
		t.Fatalf("GenerateJSON() error = %v", err)
	}

	var quiz QuizDraft
	if err := json.Unmarshal(raw, &quiz); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(quiz.Questions) != 2 {
		t.Errorf("questions = %d, want 2", len(quiz.Questions))
	}
}

func TestOpenAIProvider_GenerateJSON_SchemaMismatch(t *testing.T) {
	server := openaiServer(t, `{"questions": "not an array"}`)
	defer server.Close()

	provider := NewOpenAIProvider("test-key", WithBaseURL(server.URL))

	_, err := provider.GenerateJSON(context.Background(), "make a quiz", QuizSchema)
	if !errors.Is(err, ErrMalformedGeneration) {
		t.Fatalf("error = %v, want ErrMalformedGeneration", err)
	}
}

func TestOpenAIProvider_GenerateJSON_RequestsJSONMode(t *testing.T) {
	var received openaiRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&received)
		w.Write([]byte(`{"choices":[{"message":{"content":"` + `{\"chapters\":[{\"title\":\"t\",\"description\":\"d\"}]}` + `"}}]}`))
	}))
	defer server.Close()

	provider := NewOpenAIProvider("test-key", WithBaseURL(server.URL))
	_, err := provider.GenerateJSON(context.Background(), "make chapters", CurriculumSchema)
	if err != nil {
		t.Fatalf("GenerateJSON() error = %v", err)
	}

	if received.ResponseFormat == nil || received.ResponseFormat.Type != "json_object" {
		t.Errorf("response_format = %+v, want json_object", received.ResponseFormat)
	}
}

func TestOpenAIProvider_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": "rate limited"}`))
	}))
	defer server.Close()

	provider := NewOpenAIProvider("test-key", WithBaseURL(server.URL))

	_, err := provider.GenerateText(context.Background(), "hello", "")
	if err == nil {
		t.Fatal("GenerateText() should return error on API error")
	}
}

func TestOpenAIProvider_HealthCheck(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		wantErr    bool
	}{
		{"healthy", http.StatusOK, false},
		{"unhealthy", http.StatusUnauthorized, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/models" {
					t.Errorf("unexpected path: %s", r.URL.Path)
				}
				w.WriteHeader(tt.statusCode)
			}))
			defer server.Close()

			provider := NewOpenAIProvider("test-key", WithBaseURL(server.URL))
			err := provider.HealthCheck(context.Background())

			if (err != nil) != tt.wantErr {
				t.Errorf("HealthCheck() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
