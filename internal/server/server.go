// Package server exposes the symptom analyzer over a small JSON HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/xostack/xosymptom/symptom"
)

const (
	maxBodyBytes    = 64 << 10
	shutdownTimeout = 10 * time.Second
)

// Analyzer is the subset of *symptom.Analyzer the server needs.
type Analyzer interface {
	Analyze(ctx context.Context, symptoms string) (symptom.Result, error)
	Configured() bool
	FallbackOnly() bool
}

// HealthResponse is returned by GET /api/health.
type HealthResponse struct {
	Status   string `json:"status"`
	Provider string `json:"provider"`
}

// Server serves the analysis API.
type Server struct {
	analyzer Analyzer
	logger   *slog.Logger
	router   chi.Router
}

// New builds a Server and its routes. A nil logger uses slog.Default().
func New(analyzer Analyzer, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{analyzer: analyzer, logger: logger}

	r := chi.NewRouter()
	r.Use(s.requestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.recoverer)
	r.Use(s.logRequests)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Post("/analyze", s.handleAnalyze)
	})

	s.router = r
	return s
}

// Handler returns the HTTP handler for the API.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	provider := "unconfigured"
	if s.analyzer.Configured() {
		provider = "configured"
	} else if s.analyzer.FallbackOnly() {
		provider = "fallback-only"
	}
	RespondWithJSON(w, http.StatusOK, HealthResponse{Status: "ok", Provider: provider})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req symptom.Request
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "symptoms are required")
		return
	}

	result, err := s.analyzer.Analyze(r.Context(), req.Symptoms)
	if err != nil {
		status, message := statusFor(err)
		s.logger.LogAttrs(r.Context(), levelFor(status), "analysis failed",
			slog.String("request_id", GetRequestID(r.Context())),
			slog.Int("status_code", status),
			slog.String("kind", symptom.KindOf(err).String()),
			slog.String("error", err.Error()))
		RespondWithError(w, r, status, message)
		return
	}

	RespondWithJSON(w, http.StatusOK, result)
}

func statusFor(err error) (int, string) {
	switch symptom.KindOf(err) {
	case symptom.KindInvalidRequest:
		return http.StatusBadRequest, "symptoms are required"
	case symptom.KindConfiguration:
		return http.StatusServiceUnavailable, "no AI provider is configured; set GOOGLE_API_KEY or enable demo mode"
	default:
		return http.StatusInternalServerError, "analysis failed"
	}
}

func levelFor(status int) slog.Level {
	if status >= http.StatusInternalServerError {
		return slog.LevelError
	}
	return slog.LevelWarn
}

// requestID reuses an incoming X-Request-Id or assigns a new UUID.
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// recoverer turns a handler panic into a 500 ErrorResponse. http.ErrAbortHandler
// is re-raised so net/http can abort the connection.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			s.logger.ErrorContext(r.Context(), "panic while handling request",
				"request_id", GetRequestID(r.Context()),
				"path", r.URL.Path,
				"panic", rec,
				"stack", string(debug.Stack()))

			if ww.Status() == 0 {
				RespondWithError(ww, r, http.StatusInternalServerError, "analysis failed")
			}
		}()
		next.ServeHTTP(ww, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request handled",
			"request_id", GetRequestID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds())
	})
}
