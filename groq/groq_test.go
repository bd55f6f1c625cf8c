package groq

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/xostack/xosymptom/config"
)

var testGeneration = config.GenerationConfig{Temperature: 0.2, MaxOutputTokens: 1000}

// newTestClient points a client at a mock server.
func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	client, err := NewClient("test-api-key", "", testGeneration, 10, false)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	client.endpoint = url
	return client
}

func TestNewClient_Success(t *testing.T) {
	client, err := NewClient("test-api-key", "", testGeneration, 30, false)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if client.ProviderName() != "groq" {
		t.Errorf("Expected provider name 'groq', got '%s'", client.ProviderName())
	}
	if client.ModelName() != defaultGroqModel {
		t.Errorf("Expected default model '%s', got '%s'", defaultGroqModel, client.ModelName())
	}
	if client.httpClient.Timeout != 30*time.Second {
		t.Errorf("Expected timeout 30s, got %v", client.httpClient.Timeout)
	}
	if client.endpoint != groqAPIEndpoint {
		t.Errorf("Expected default endpoint, got '%s'", client.endpoint)
	}
}

func TestNewClient_EmptyAPIKey(t *testing.T) {
	client, err := NewClient("", "", testGeneration, 30, false)
	if err == nil {
		t.Fatal("Expected error for empty API key")
	}
	if client != nil {
		t.Error("Expected client to be nil when error occurs")
	}

	expectedErrMsg := "groq API key is required"
	if err.Error() != expectedErrMsg {
		t.Errorf("Expected error message '%s', got '%s'", expectedErrMsg, err.Error())
	}
}

func TestNewClient_WithCustomModelAndDefaultTimeout(t *testing.T) {
	client, err := NewClient("test-api-key", "llama-3.1-8b-instant", testGeneration, 0, true)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if client.ModelName() != "llama-3.1-8b-instant" {
		t.Errorf("Expected custom model, got '%s'", client.ModelName())
	}
	if client.httpClient.Timeout != 60*time.Second {
		t.Errorf("Expected default timeout 60s, got %v", client.httpClient.Timeout)
	}
}

func TestGroqClient_Generate_MockServer_Success(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			t.Errorf("Expected POST request, got %s", r.Method)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-api-key" {
			t.Errorf("Expected bearer token, got '%s'", got)
		}

		var payload chatRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("Failed to decode request: %v", err)
			return
		}
		if payload.Temperature == nil || *payload.Temperature != 0.2 {
			t.Errorf("Expected temperature 0.2, got %v", payload.Temperature)
		}
		if payload.MaxTokens == nil || *payload.MaxTokens != 1000 {
			t.Errorf("Expected max_tokens 1000, got %v", payload.MaxTokens)
		}
		if payload.ResponseFormat == nil || payload.ResponseFormat.Type != "json_object" {
			t.Errorf("Expected JSON mode, got %+v", payload.ResponseFormat)
		}
		if len(payload.Messages) != 1 || payload.Messages[0].Role != "user" || payload.Messages[0].Content != "Hello, world!" {
			t.Errorf("Unexpected messages: %+v", payload.Messages)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "chatcmpl-1",
			"model": "gemma2-9b-it",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "  {\"conditions\": []}  "}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 8, "total_tokens": 18}
		}`))
	}))
	defer mockServer.Close()

	client := newTestClient(t, mockServer.URL)

	response, err := client.Generate(context.Background(), "Hello, world!")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if response != `{"conditions": []}` {
		t.Errorf("Expected trimmed content, got '%s'", response)
	}
}

func TestGroqClient_Generate_APIErrorBody(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": {"message": "Invalid API Key", "type": "invalid_request_error", "code": "invalid_api_key"}}`))
	}))
	defer mockServer.Close()

	_, err := newTestClient(t, mockServer.URL).Generate(context.Background(), "prompt")
	if err == nil {
		t.Fatal("Expected error from API")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected *APIError, got %T: %v", err, err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized || apiErr.Code != "invalid_api_key" || apiErr.Message != "Invalid API Key" {
		t.Errorf("Unexpected API error: %+v", apiErr)
	}
	if !strings.Contains(err.Error(), "status 401") {
		t.Errorf("Expected status in message, got: %v", err)
	}
}

func TestGroqClient_Generate_StatusWithoutErrorBody(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{}`))
	}))
	defer mockServer.Close()

	_, err := newTestClient(t, mockServer.URL).Generate(context.Background(), "prompt")
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Errorf("Expected status error mentioning 429, got: %v", err)
	}
}

func TestGroqClient_Generate_NoRetry(t *testing.T) {
	var calls int32
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`not json`))
	}))
	defer mockServer.Close()

	_, err := newTestClient(t, mockServer.URL).Generate(context.Background(), "prompt")
	if err == nil || !strings.Contains(err.Error(), "503") || !strings.Contains(err.Error(), "not json") {
		t.Errorf("Expected status error with body snippet, got: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("Expected exactly one request, got %d", got)
	}
}

func TestGroqClient_Generate_EmptyChoices(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id": "x", "choices": []}`))
	}))
	defer mockServer.Close()

	_, err := newTestClient(t, mockServer.URL).Generate(context.Background(), "prompt")
	if err == nil || !strings.Contains(err.Error(), "no choices") {
		t.Errorf("Expected empty choices error, got: %v", err)
	}
}

func TestGroqClient_Generate_EmptyContent(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id": "x", "choices": [{"message": {"role": "assistant", "content": "  "}, "finish_reason": "length"}]}`))
	}))
	defer mockServer.Close()

	_, err := newTestClient(t, mockServer.URL).Generate(context.Background(), "prompt")
	if err == nil || !strings.Contains(err.Error(), "finish_reason=length") {
		t.Errorf("Expected empty content error, got: %v", err)
	}
}

func TestGroqClient_Generate_NilClient(t *testing.T) {
	client := &Client{apiKey: "test-key", modelName: "test-model"}

	_, err := client.Generate(context.Background(), "test prompt")
	if err == nil {
		t.Fatal("Expected error for nil HTTP client")
	}

	expectedErrMsg := "groq client not initialized"
	if err.Error() != expectedErrMsg {
		t.Errorf("Expected error message '%s', got '%s'", expectedErrMsg, err.Error())
	}
}

func TestGroqClient_Generate_ContextCancellation(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer mockServer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(t, mockServer.URL).Generate(ctx, "test prompt")
	if err == nil {
		t.Fatal("Expected error for cancelled context")
	}
	if !strings.Contains(err.Error(), "canceled") {
		t.Errorf("Expected context cancellation error, got: %v", err)
	}
}

func TestGroqClient_Close(t *testing.T) {
	client := &Client{httpClient: &http.Client{}}

	if err := client.Close(); err != nil {
		t.Errorf("Expected no error from Close(), got: %v", err)
	}
}

func TestGroqConstants(t *testing.T) {
	if providerName != "groq" {
		t.Errorf("Expected provider name 'groq', got '%s'", providerName)
	}

	if !strings.Contains(groqAPIEndpoint, "groq.com") {
		t.Errorf("API endpoint should contain 'groq.com', got '%s'", groqAPIEndpoint)
	}
}
