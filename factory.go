package xosymptom

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/xostack/xosymptom/config"
	"github.com/xostack/xosymptom/gemini"
	"github.com/xostack/xosymptom/groq"
	"github.com/xostack/xosymptom/ollama"
	"github.com/xostack/xosymptom/symptom"
)

// GetClient is a factory function that returns a client for one candidate
// model, using the provider settings from cfg.
//
// Supported providers:
//   - "gemini": Google Gemini (requires APIKey)
//   - "groq": Groq (requires APIKey)
//   - "ollama": Ollama (requires BaseURL)
//
// Making it a variable to allow for easy mocking in tests.
var GetClient func(ctx context.Context, cfg config.Config, candidate config.Candidate, debugMode bool) (Client, error) = func(ctx context.Context, cfg config.Config, candidate config.Candidate, debugMode bool) (Client, error) {
	providerName := candidate.Provider
	if providerName == "" {
		providerName = cfg.DefaultProvider
	}
	if providerName == "" {
		return nil, fmt.Errorf("no LLM provider specified for candidate model '%s'", candidate.Model)
	}

	llmCfg, exists := cfg.LLMs[providerName]
	if !exists {
		return nil, fmt.Errorf("configuration for provider '%s' not found", providerName)
	}

	requestTimeout := cfg.RequestTimeoutSeconds
	if requestTimeout <= 0 {
		requestTimeout = config.DefaultTimeoutSeconds
	}

	switch providerName {
	case "gemini":
		if llmCfg.APIKey == "" {
			return nil, fmt.Errorf("API key for Gemini not found in configuration")
		}
		return gemini.NewClient(ctx, llmCfg.APIKey, candidate.Model, cfg.Generation, debugMode)
	case "ollama":
		if llmCfg.BaseURL == "" {
			return nil, fmt.Errorf("base URL for Ollama not found in configuration")
		}
		return ollama.NewClient(ctx, llmCfg.BaseURL, candidate.Model, cfg.Generation, requestTimeout, debugMode)
	case "groq":
		if llmCfg.APIKey == "" {
			return nil, fmt.Errorf("API key for Groq not found in configuration")
		}
		return groq.NewClient(llmCfg.APIKey, candidate.Model, cfg.Generation, requestTimeout, debugMode)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerName)
	}
}

// GetCandidates builds a client for every configured candidate, in order.
// Candidates whose provider has no credential are skipped; an empty result
// means no provider is configured. Any other construction failure closes the
// clients built so far and is returned.
func GetCandidates(ctx context.Context, cfg config.Config, logger *slog.Logger, debugMode bool) ([]Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var clients []Client
	for _, candidate := range cfg.ResolvedCandidates() {
		if !cfg.HasCredentials(candidate.Provider) {
			logger.DebugContext(ctx, "skipping candidate without credentials",
				"provider", candidate.Provider,
				"model", candidate.Model)
			continue
		}

		client, err := GetClient(ctx, cfg, candidate, debugMode)
		if err != nil {
			closeAll(clients)
			return nil, fmt.Errorf("failed to create client for %s: %w", candidate, err)
		}
		clients = append(clients, client)
	}

	return clients, nil
}

// NewAnalyzer wires the configured candidates into a symptom.Analyzer with
// the configured per-attempt timeout. Extra options are applied last.
func NewAnalyzer(ctx context.Context, cfg config.Config, logger *slog.Logger, debugMode bool, opts ...symptom.Option) (*symptom.Analyzer, error) {
	if logger == nil {
		logger = slog.Default()
	}

	clients, err := GetCandidates(ctx, cfg, logger, debugMode)
	if err != nil {
		return nil, err
	}

	generators := make([]symptom.Generator, 0, len(clients))
	for _, client := range clients {
		generators = append(generators, client)
	}

	if len(generators) == 0 {
		logger.WarnContext(ctx, "no candidate model has credentials configured",
			"hint", "set "+config.EnvGoogleAPIKey+" or add api keys under [llms] in the config file")
	}

	options := append([]symptom.Option{
		symptom.WithLogger(logger),
		symptom.WithAttemptTimeout(cfg.RequestTimeout()),
	}, opts...)

	return symptom.New(generators, options...), nil
}

func closeAll(clients []Client) error {
	var errs []error
	for _, c := range clients {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
