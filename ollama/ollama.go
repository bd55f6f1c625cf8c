// Package ollama provides a candidate-model client for a self-hosted Ollama
// server.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/xostack/xosymptom/config"
)

const (
	defaultOllamaModel = "gemma:2b"
	providerName       = "ollama"
	generateAPIPath    = "/api/generate"
)

// Client implements the xosymptom.Client interface for one Ollama model.
type Client struct {
	httpClient *http.Client
	baseURL    string // without trailing slash, e.g. "http://localhost:11434"
	modelName  string
	options    modelOptions
}

// modelOptions carries the generation parameters in Ollama's option names.
type modelOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type generateRequest struct {
	Model   string       `json:"model"`
	Prompt  string       `json:"prompt"`
	Stream  bool         `json:"stream"`
	Format  string       `json:"format,omitempty"`
	Options modelOptions `json:"options"`
}

type generateResponse struct {
	Model     string    `json:"model"`
	CreatedAt time.Time `json:"created_at"`
	Response  string    `json:"response"`
	Done      bool      `json:"done"`
	Error     string    `json:"error,omitempty"`
}

// NewClient creates a client for one model on the Ollama server at baseURL.
// When requestTimeoutSeconds is not positive the HTTP timeout comes from
// ctx's deadline, or the config default if ctx has none.
func NewClient(ctx context.Context, baseURL string, modelOverride string, gen config.GenerationConfig, requestTimeoutSeconds int, debugMode bool) (*Client, error) {
	cleaned, err := normalizeBaseURL(baseURL)
	if err != nil {
		return nil, err
	}

	modelName := defaultOllamaModel
	if modelOverride != "" {
		modelName = modelOverride
	}

	timeout := time.Duration(requestTimeoutSeconds) * time.Second
	if requestTimeoutSeconds <= 0 {
		timeout = config.DefaultTimeoutSeconds * time.Second
		if deadline, ok := ctx.Deadline(); ok {
			timeout = time.Until(deadline)
		}
	}

	if debugMode {
		log.Printf("Ollama candidate %s at %s ready (timeout=%v)", modelName, cleaned, timeout)
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cleaned,
		modelName:  modelName,
		options: modelOptions{
			Temperature: gen.Temperature,
			NumPredict:  gen.MaxOutputTokens,
		},
	}, nil
}

func normalizeBaseURL(raw string) (string, error) {
	if raw == "" {
		return "", fmt.Errorf("Ollama base URL is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid Ollama base URL '%s': %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("Ollama base URL scheme must be http or https, got '%s'", u.Scheme)
	}
	return strings.TrimSuffix(u.String(), "/"), nil
}

// Generate runs a non-streaming generation in JSON format and returns the
// trimmed response text.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if c.httpClient == nil {
		return "", fmt.Errorf("Ollama client not initialized")
	}

	data, err := json.Marshal(generateRequest{
		Model:   c.modelName,
		Prompt:  prompt,
		Format:  "json",
		Options: c.options,
	})
	if err != nil {
		return "", fmt.Errorf("ollama: marshal request: %w", err)
	}

	endpoint := c.baseURL + generateAPIPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("ollama: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		switch {
		case errors.Is(ctx.Err(), context.Canceled):
			return "", fmt.Errorf("Ollama request canceled: %w", ctx.Err())
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			return "", fmt.Errorf("Ollama request timed out: %w", ctx.Err())
		}
		return "", fmt.Errorf("ollama %s: request to %s failed: %w", c.modelName, endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("ollama %s: read response: %w", c.modelName, err)
	}

	return c.decode(resp.StatusCode, resp.Status, body)
}

func (c *Client) decode(statusCode int, status string, body []byte) (string, error) {
	var parsed generateResponse
	jsonErr := json.Unmarshal(body, &parsed)

	if statusCode != http.StatusOK {
		if jsonErr == nil && parsed.Error != "" {
			return "", fmt.Errorf("Ollama API error (status %d): %s", statusCode, parsed.Error)
		}
		return "", fmt.Errorf("Ollama API request failed with status %s: %s", status, strings.TrimSpace(string(body)))
	}
	if jsonErr != nil {
		return "", fmt.Errorf("ollama %s: decode response: %w", c.modelName, jsonErr)
	}
	if parsed.Error != "" {
		return "", fmt.Errorf("Ollama returned an error: %s", parsed.Error)
	}

	text := strings.TrimSpace(parsed.Response)
	if text == "" {
		return "", fmt.Errorf("Ollama response contained no text (done=%t)", parsed.Done)
	}
	return text, nil
}

// ProviderName returns "ollama".
func (c *Client) ProviderName() string {
	return providerName
}

// ModelName returns the Ollama model this client calls.
func (c *Client) ModelName() string {
	return c.modelName
}

// Close is a no-op.
func (c *Client) Close() error {
	return nil
}
