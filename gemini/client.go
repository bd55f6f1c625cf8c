// Package gemini provides a candidate-model client for Google's Gemini models.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/xostack/xosymptom/config"
)

const (
	defaultGeminiModel = "gemini-1.5-flash"
	providerName       = "gemini"
	jsonMIMEType       = "application/json"
)

var (
	// ErrBlocked is returned when Gemini refuses the prompt or withholds the answer.
	ErrBlocked = errors.New("gemini response blocked")
	// ErrNoText is returned when a response carries no text parts.
	ErrNoText = errors.New("gemini response contained no text")
)

// Client implements the xosymptom.Client interface for one Gemini model.
// The model handle is configured once and only read afterwards.
type Client struct {
	genaiClient *genai.Client
	model       *genai.GenerativeModel
	modelName   string
	debugMode   bool
}

// NewClient creates a client bound to a single Gemini model. modelOverride
// replaces the default gemini-1.5-flash; gen sets temperature and output
// budget. The returned client asks for JSON output on every request.
func NewClient(ctx context.Context, apiKey string, modelOverride string, gen config.GenerationConfig, debugMode bool) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}

	genaiClient, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	modelName := defaultGeminiModel
	if modelOverride != "" {
		modelName = modelOverride
	}

	model := genaiClient.GenerativeModel(modelName)
	configureModel(model, gen)

	if debugMode {
		log.Printf("Gemini candidate %s ready (temperature=%.2f, max_output_tokens=%d, mime=%s)",
			modelName, gen.Temperature, gen.MaxOutputTokens, jsonMIMEType)
	}

	return &Client{
		genaiClient: genaiClient,
		model:       model,
		modelName:   modelName,
		debugMode:   debugMode,
	}, nil
}

// configureModel applies the generation parameters. A zero token budget
// leaves the model default in place.
func configureModel(model *genai.GenerativeModel, gen config.GenerationConfig) {
	model.SetTemperature(float32(gen.Temperature))
	if gen.MaxOutputTokens > 0 {
		model.SetMaxOutputTokens(int32(gen.MaxOutputTokens))
	}
	model.ResponseMIMEType = jsonMIMEType
}

// Generate sends prompt to the model and returns the concatenated text of the
// first candidate.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if c.model == nil {
		return "", fmt.Errorf("Gemini client not initialized")
	}

	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini %s: generate content: %w", c.modelName, err)
	}

	text, err := responseText(resp, c.debugMode)
	if err != nil {
		return "", fmt.Errorf("gemini %s: %w", c.modelName, err)
	}
	return text, nil
}

// responseText pulls the text out of a response, distinguishing safety and
// prompt blocks from empty answers.
func responseText(resp *genai.GenerateContentResponse, debugMode bool) (string, error) {
	if resp == nil {
		return "", ErrNoText
	}
	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != genai.BlockReasonUnspecified {
		return "", fmt.Errorf("%w: prompt %s", ErrBlocked, fb.BlockReason)
	}
	if len(resp.Candidates) == 0 {
		return "", ErrNoText
	}

	cand := resp.Candidates[0]
	if cand.FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: safety settings", ErrBlocked)
	}
	if cand.Content == nil {
		return "", ErrNoText
	}

	var sb strings.Builder
	for _, part := range cand.Content.Parts {
		txt, ok := part.(genai.Text)
		if !ok {
			if debugMode {
				log.Printf("Gemini: ignoring non-text part %T", part)
			}
			continue
		}
		sb.WriteString(string(txt))
	}

	if sb.Len() == 0 {
		return "", ErrNoText
	}
	return sb.String(), nil
}

// ProviderName returns "gemini".
func (c *Client) ProviderName() string {
	return providerName
}

// ModelName returns the Gemini model this client calls.
func (c *Client) ModelName() string {
	return c.modelName
}

// Close releases the underlying genai client. It is safe to call more than once.
func (c *Client) Close() error {
	if c.genaiClient == nil {
		return nil
	}
	err := c.genaiClient.Close()
	c.genaiClient = nil
	return err
}
