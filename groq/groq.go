// Package groq provides a candidate-model client for Groq's OpenAI-compatible
// chat completions API.
package groq

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/xostack/xosymptom/config"
)

const (
	defaultGroqModel = "gemma2-9b-it"
	providerName     = "groq"
	groqAPIEndpoint  = "https://api.groq.com/openai/v1/chat/completions"

	maxErrorBody = 512
)

// Client implements the xosymptom.Client interface for one Groq model.
type Client struct {
	httpClient  *http.Client
	endpoint    string
	apiKey      string
	modelName   string
	temperature float64
	maxTokens   int
	debugMode   bool
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    *float64        `json:"temperature,omitempty"`
	MaxTokens      *int            `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
	Stream         bool            `json:"stream"`
}

type chatChoice struct {
	Message      chatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type chatResponse struct {
	ID      string       `json:"id"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
	Error   *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error,omitempty"`
}

// APIError is a non-success reply from the Groq API.
type APIError struct {
	StatusCode int
	Type       string
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("groq API error (status %d, %s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("groq API error (status %d): %s", e.StatusCode, e.Message)
}

// NewClient creates a client for one Groq model. modelOverride replaces the
// default model; a non-positive timeout uses the config default.
func NewClient(apiKey string, modelOverride string, gen config.GenerationConfig, requestTimeoutSeconds int, debugMode bool) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("groq API key is required")
	}

	modelName := defaultGroqModel
	if modelOverride != "" {
		modelName = modelOverride
	}

	if requestTimeoutSeconds <= 0 {
		requestTimeoutSeconds = config.DefaultTimeoutSeconds
	}
	if debugMode {
		log.Printf("Groq candidate %s ready (timeout=%ds)", modelName, requestTimeoutSeconds)
	}

	return &Client{
		httpClient:  &http.Client{Timeout: time.Duration(requestTimeoutSeconds) * time.Second},
		endpoint:    groqAPIEndpoint,
		apiKey:      apiKey,
		modelName:   modelName,
		temperature: gen.Temperature,
		maxTokens:   gen.MaxOutputTokens,
		debugMode:   debugMode,
	}, nil
}

// Generate sends prompt as a single user message in JSON mode and returns the
// assistant's reply. Failures are not retried.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if c.httpClient == nil {
		return "", fmt.Errorf("groq client not initialized")
	}

	req, err := c.newRequest(ctx, prompt)
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("groq %s: request failed: %w", c.modelName, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("groq %s: read response: %w", c.modelName, err)
	}

	return c.decode(resp.StatusCode, body)
}

func (c *Client) newRequest(ctx context.Context, prompt string) (*http.Request, error) {
	temperature := c.temperature
	payload := chatRequest{
		Model:          c.modelName,
		Messages:       []chatMessage{{Role: "user", Content: prompt}},
		Temperature:    &temperature,
		ResponseFormat: &responseFormat{Type: "json_object"},
	}
	if c.maxTokens > 0 {
		maxTokens := c.maxTokens
		payload.MaxTokens = &maxTokens
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("groq: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("groq: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// decode turns a response into text or an error. A JSON error object wins
// over the status line.
func (c *Client) decode(status int, body []byte) (string, error) {
	var parsed chatResponse
	jsonErr := json.Unmarshal(body, &parsed)

	if jsonErr == nil && parsed.Error != nil {
		return "", &APIError{
			StatusCode: status,
			Type:       parsed.Error.Type,
			Code:       parsed.Error.Code,
			Message:    parsed.Error.Message,
		}
	}
	if status != http.StatusOK {
		return "", &APIError{StatusCode: status, Message: snippet(body, http.StatusText(status))}
	}
	if jsonErr != nil {
		return "", fmt.Errorf("groq %s: decode response: %w", c.modelName, jsonErr)
	}

	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("groq %s: response contained no choices", c.modelName)
	}
	text := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if text == "" {
		if c.debugMode {
			log.Printf("Groq response %s finished with %q and no content", parsed.ID, parsed.Choices[0].FinishReason)
		}
		return "", fmt.Errorf("groq %s: empty message content (finish_reason=%s)", c.modelName, parsed.Choices[0].FinishReason)
	}
	return text, nil
}

func snippet(body []byte, fallback string) string {
	s := strings.TrimSpace(string(body))
	if s == "" || s == "{}" {
		return fallback
	}
	if len(s) > maxErrorBody {
		s = s[:maxErrorBody] + "..."
	}
	return s
}

// ProviderName returns "groq".
func (c *Client) ProviderName() string {
	return providerName
}

// ModelName returns the Groq model this client calls.
func (c *Client) ModelName() string {
	return c.modelName
}

// Close is a no-op.
func (c *Client) Close() error {
	return nil
}
