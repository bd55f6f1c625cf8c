package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/xostack/xosymptom/config"
)

var testGeneration = config.GenerationConfig{Temperature: 0.2, MaxOutputTokens: 1000}

// serve starts a mock Ollama server answering every request with status and body.
func serve(t *testing.T, status int, body string) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(context.Background(), srv.URL, "", testGeneration, 10, false)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	return client
}

func TestNewClient_Defaults(t *testing.T) {
	client, err := NewClient(context.Background(), "http://localhost:11434/", "", testGeneration, 30, false)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if client.ProviderName() != "ollama" {
		t.Errorf("Expected provider name 'ollama', got '%s'", client.ProviderName())
	}
	if client.baseURL != "http://localhost:11434" {
		t.Errorf("Expected trailing slash trimmed, got '%s'", client.baseURL)
	}
	if client.ModelName() != defaultOllamaModel {
		t.Errorf("Expected default model '%s', got '%s'", defaultOllamaModel, client.ModelName())
	}
	if client.httpClient.Timeout != 30*time.Second {
		t.Errorf("Expected 30s timeout, got %v", client.httpClient.Timeout)
	}
	if client.options != (modelOptions{Temperature: 0.2, NumPredict: 1000}) {
		t.Errorf("Unexpected options: %+v", client.options)
	}
}

func TestNewClient_Timeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	fromDeadline, err := NewClient(ctx, "http://localhost:11434", "llama3.2", testGeneration, 0, true)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if got := fromDeadline.httpClient.Timeout; got <= 0 || got > 5*time.Second {
		t.Errorf("Expected timeout derived from context deadline, got %v", got)
	}
	if fromDeadline.ModelName() != "llama3.2" {
		t.Errorf("Expected model 'llama3.2', got '%s'", fromDeadline.ModelName())
	}

	fallback, err := NewClient(context.Background(), "http://localhost:11434", "", testGeneration, 0, false)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if fallback.httpClient.Timeout != config.DefaultTimeoutSeconds*time.Second {
		t.Errorf("Expected default timeout, got %v", fallback.httpClient.Timeout)
	}
}

func TestNewClient_BadBaseURL(t *testing.T) {
	tests := []struct {
		baseURL string
		wantErr string
	}{
		{baseURL: "", wantErr: "Ollama base URL is required"},
		{baseURL: "ftp://localhost:11434", wantErr: "scheme must be http or https"},
		{baseURL: "not-a-url", wantErr: "scheme must be http or https"},
		{baseURL: "localhost:11434", wantErr: "scheme must be http or https"},
	}

	for _, tt := range tests {
		t.Run(tt.baseURL, func(t *testing.T) {
			client, err := NewClient(context.Background(), tt.baseURL, "", testGeneration, 30, false)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got: %v", tt.wantErr, err)
			}
			if client != nil {
				t.Error("Expected client to be nil when error occurs")
			}
		})
	}
}

func TestGenerate_Request(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != generateAPIPath {
			t.Errorf("Unexpected request %s %s", r.Method, r.URL.Path)
		}

		var payload generateRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("Failed to decode request: %v", err)
			return
		}
		if payload.Format != "json" || payload.Stream {
			t.Errorf("Expected non-streaming JSON request, got %+v", payload)
		}
		if payload.Prompt != "describe symptoms" || payload.Model != defaultOllamaModel {
			t.Errorf("Unexpected prompt or model: %+v", payload)
		}
		if payload.Options.Temperature != 0.2 || payload.Options.NumPredict != 1000 {
			t.Errorf("Unexpected options: %+v", payload.Options)
		}

		w.Write([]byte(`{"model": "gemma:2b", "created_at": "2024-01-01T12:00:00Z", "response": " {\"conditions\": [\"a\"]} ", "done": true}`))
	}))
	defer srv.Close()

	client, err := NewClient(context.Background(), srv.URL, "", testGeneration, 10, false)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	got, err := client.Generate(context.Background(), "describe symptoms")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if got != `{"conditions": ["a"]}` {
		t.Errorf("Expected trimmed response, got '%s'", got)
	}
}

func TestGenerate_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr []string
	}{
		{
			name:    "error body with status",
			status:  http.StatusNotFound,
			body:    `{"error": "model 'gemma:2b' not found"}`,
			wantErr: []string{"404", "not found"},
		},
		{
			name:    "plain text error status",
			status:  http.StatusBadGateway,
			body:    "upstream down",
			wantErr: []string{"502", "upstream down"},
		},
		{
			name:    "error field on 200",
			status:  http.StatusOK,
			body:    `{"model": "gemma:2b", "response": "", "done": true, "error": "Something went wrong"}`,
			wantErr: []string{"Something went wrong"},
		},
		{
			name:    "blank response",
			status:  http.StatusOK,
			body:    `{"model": "gemma:2b", "response": "   ", "done": true}`,
			wantErr: []string{"no text"},
		},
		{
			name:    "malformed JSON",
			status:  http.StatusOK,
			body:    `{"response": `,
			wantErr: []string{"decode response"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := serve(t, tt.status, tt.body).Generate(context.Background(), "prompt")
			if err == nil {
				t.Fatal("Expected error")
			}
			for _, want := range tt.wantErr {
				if !strings.Contains(err.Error(), want) {
					t.Errorf("Expected error to contain %q, got: %v", want, err)
				}
			}
		})
	}
}

func TestGenerate_ContextCancellation(t *testing.T) {
	client := serve(t, http.StatusOK, `{}`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Generate(ctx, "prompt")
	if err == nil || !strings.Contains(err.Error(), "canceled") {
		t.Errorf("Expected cancellation error, got: %v", err)
	}
}

func TestGenerate_NotInitialized(t *testing.T) {
	client := &Client{baseURL: "http://localhost:11434", modelName: "test-model"}

	_, err := client.Generate(context.Background(), "prompt")
	if err == nil || err.Error() != "Ollama client not initialized" {
		t.Errorf("Expected not-initialized error, got: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Errorf("Expected no error from Close(), got: %v", err)
	}
}
