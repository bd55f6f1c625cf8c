package symptom

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"
)

// Generator is the capability the analyzer needs from a candidate model.
// Every provider client in this module satisfies it.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	ProviderName() string
	ModelName() string
}

// Outcome of a single candidate attempt.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeError   Outcome = "error"
	OutcomeEmpty   Outcome = "empty"
)

// Attempt records one candidate call.
type Attempt struct {
	Provider string
	Model    string
	Outcome  Outcome
	Duration time.Duration
	Err      error
}

// AttemptObserver receives every attempt as it finishes. It is called on the
// goroutine running Analyze.
type AttemptObserver func(Attempt)

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithLogger sets the structured logger. The default discards output.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Analyzer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithAttemptTimeout bounds each candidate call. Zero means no bound beyond
// the caller's context.
func WithAttemptTimeout(d time.Duration) Option {
	return func(a *Analyzer) {
		a.attemptTimeout = d
	}
}

// WithFallbackOnly makes an analyzer without candidates answer from the
// fallback rules instead of returning a configuration error.
func WithFallbackOnly() Option {
	return func(a *Analyzer) {
		a.fallbackOnly = true
	}
}

// WithAttemptObserver registers fn to receive per-attempt diagnostics.
func WithAttemptObserver(fn AttemptObserver) Option {
	return func(a *Analyzer) {
		a.observer = fn
	}
}

// Analyzer is safe for concurrent use; nothing is mutated after New.
type Analyzer struct {
	candidates     []Generator
	logger         *slog.Logger
	attemptTimeout time.Duration
	fallbackOnly   bool
	observer       AttemptObserver
}

// New builds an Analyzer over candidates, tried in the given order.
func New(candidates []Generator, opts ...Option) *Analyzer {
	a := &Analyzer{
		candidates: append([]Generator(nil), candidates...),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Configured reports whether at least one candidate model is available.
func (a *Analyzer) Configured() bool {
	return len(a.candidates) > 0
}

// FallbackOnly reports whether the analyzer answers from the rules when unconfigured.
func (a *Analyzer) FallbackOnly() bool {
	return a.fallbackOnly
}

// Analyze returns guidance for symptoms.
//
// Empty symptoms yield a KindInvalidRequest error. With no candidates the call
// fails with KindConfiguration, unless the analyzer was built WithFallbackOnly.
// Otherwise the remote candidates are tried and any failure, including a
// cancelled ctx, degrades to Fallback: a configured analyzer never returns an
// error for valid input.
func (a *Analyzer) Analyze(ctx context.Context, symptoms string) (Result, error) {
	if err := (Request{Symptoms: symptoms}).Validate(); err != nil {
		return Result{}, err
	}

	if !a.Configured() {
		if a.fallbackOnly {
			a.logger.InfoContext(ctx, "no provider configured, answering from fallback rules",
				"matched_rules", MatchedRules(symptoms))
			return Fallback(symptoms), nil
		}
		return Result{}, &Error{Kind: KindConfiguration, Op: "analyze", Err: ErrNotConfigured}
	}

	prompt, err := BuildPrompt(symptoms)
	if err != nil {
		a.logger.ErrorContext(ctx, "failed to build prompt, answering from fallback rules", "error", err)
		return Fallback(symptoms), nil
	}

	text, err := a.remote(ctx, prompt)
	if err != nil {
		a.logger.WarnContext(ctx, "remote analysis failed, answering from fallback rules",
			"error", err,
			"matched_rules", MatchedRules(symptoms))
		return Fallback(symptoms), nil
	}

	result, err := ParseResponse(text)
	if err != nil {
		a.logger.WarnContext(ctx, "provider response was not usable JSON",
			"error", err,
			"raw_preview", preview(text, 200))
	}
	return result, nil
}

// AnalyzeRequest is Analyze for a decoded Request.
func (a *Analyzer) AnalyzeRequest(ctx context.Context, req Request) (Result, error) {
	return a.Analyze(ctx, req.Symptoms)
}

// remote tries each candidate in order and returns the first non-empty text.
// Candidates are never called concurrently and none is called twice.
func (a *Analyzer) remote(ctx context.Context, prompt string) (string, error) {
	var errs []error

	for _, candidate := range a.candidates {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		attempt, text := a.try(ctx, candidate, prompt)
		a.report(ctx, attempt, text)

		if attempt.Outcome == OutcomeSuccess {
			return text, nil
		}
		errs = append(errs, attempt.Err)
	}

	return "", &Error{
		Kind: KindProvider,
		Op:   "remote",
		Err:  errors.Join(append([]error{ErrAllCandidatesFailed}, errs...)...),
	}
}

func (a *Analyzer) try(ctx context.Context, candidate Generator, prompt string) (Attempt, string) {
	attemptCtx := ctx
	if a.attemptTimeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, a.attemptTimeout)
		defer cancel()
	}

	start := time.Now()
	text, err := candidate.Generate(attemptCtx, prompt)
	attempt := Attempt{
		Provider: candidate.ProviderName(),
		Model:    candidate.ModelName(),
		Duration: time.Since(start),
	}

	switch {
	case err != nil:
		attempt.Outcome = OutcomeError
		attempt.Err = err
	case strings.TrimSpace(text) == "":
		attempt.Outcome = OutcomeEmpty
		attempt.Err = errors.New(attempt.Provider + "/" + attempt.Model + " returned empty text")
	default:
		attempt.Outcome = OutcomeSuccess
	}
	return attempt, text
}

func (a *Analyzer) report(ctx context.Context, attempt Attempt, text string) {
	attrs := []any{
		"provider", attempt.Provider,
		"model", attempt.Model,
		"outcome", string(attempt.Outcome),
		"duration_ms", attempt.Duration.Milliseconds(),
	}

	if attempt.Outcome == OutcomeSuccess {
		a.logger.InfoContext(ctx, "candidate model responded", attrs...)
		a.logger.DebugContext(ctx, "candidate response preview", "model", attempt.Model, "preview", preview(text, 100))
	} else {
		a.logger.WarnContext(ctx, "candidate model failed, trying next", append(attrs, "error", attempt.Err)...)
	}

	if a.observer != nil {
		a.observer(attempt)
	}
}

// Close closes every candidate that holds resources.
func (a *Analyzer) Close() error {
	var errs []error
	for _, candidate := range a.candidates {
		if closer, ok := candidate.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// preview truncates s to at most n bytes without splitting a rune.
func preview(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
