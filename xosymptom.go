// Package xosymptom turns free-text symptom descriptions into educational
// guidance using a generative language model, with a deterministic keyword
// fallback when no model is reachable.
//
// Providers supported as candidate models:
//   - Google Gemini (cloud-based)
//   - Groq (cloud-based)
//   - Ollama (self-hosted)
//
// Example usage:
//
//	cfg, err := config.Load(false)
//	if err != nil {
//		log.Fatal(err)
//	}
//	analyzer, err := xosymptom.NewAnalyzer(context.Background(), cfg, slog.Default(), false)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer analyzer.Close()
//
//	result, err := analyzer.Analyze(ctx, "headache and mild fever since yesterday")
//	if err != nil {
//		// Only a missing provider credential is reported here.
//		log.Fatal(err)
//	}
//	fmt.Println(result.Conditions)
//
// The analysis types live in package symptom; this package wires
// configuration to provider clients.
package xosymptom

import (
	"context"
)

// Client is the interface that all LLM provider clients implement.
//
// All methods are safe for concurrent use.
type Client interface {
	// Generate takes a context and a prompt string and returns the model's
	// response text. Implementations respect context cancellation and wrap
	// network, authentication and content-filtering failures in descriptive
	// errors.
	Generate(ctx context.Context, prompt string) (string, error)

	// ProviderName returns the lowercase provider identifier ("gemini",
	// "groq", "ollama"), matching the provider's configuration key.
	ProviderName() string

	// ModelName returns the model the client calls.
	ModelName() string

	// Close releases resources held by the client.
	Close() error
}
