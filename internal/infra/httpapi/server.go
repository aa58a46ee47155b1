package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"voice-relay/internal/application"
	"voice-relay/internal/infra"
)

// Relay is the voice pipeline served over HTTP.
type Relay interface {
	Process(ctx context.Context, req application.ProcessRequest) (*application.ProcessResult, error)
	Transcribe(ctx context.Context, req application.TranscribeRequest) (*application.TranscribeResult, error)
	Configured() bool
}

type Options struct {
	Addr           string
	AllowedOrigins []string
	// BodyLimit caps request bodies in bytes; 0 disables the cap.
	BodyLimit int64
	// RateLimit is requests per minute per client IP on voice routes; 0 disables it.
	RateLimit      int
	Development    bool
	MetricsPath    string
	MetricsHandler http.Handler
	Observer       RequestObserver
}

type Server struct {
	opts     Options
	relay    Relay
	logger   *slog.Logger
	observer RequestObserver
	server   *http.Server
	mux      *http.ServeMux
	handler  http.Handler
	mu       sync.Mutex
	running  bool
}

func NewServer(relay Relay, opts Options, logger *slog.Logger) *Server {
	s := &Server{
		opts:     opts,
		relay:    relay,
		logger:   logger,
		observer: opts.Observer,
		mux:      http.NewServeMux(),
	}
	if s.observer == nil {
		s.observer = noopObserver{}
	}

	limit := func(h http.HandlerFunc) http.HandlerFunc { return h }
	if opts.RateLimit > 0 {
		limit = NewRateLimiter(opts.RateLimit, time.Minute).Middleware
	}

	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("POST /api/voice/process", limit(s.handleProcess))
	s.mux.HandleFunc("POST /api/voice/transcribe", limit(s.handleTranscribe))
	if opts.MetricsHandler != nil {
		path := opts.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		s.mux.Handle("GET "+path, opts.MetricsHandler)
	}
	s.mux.HandleFunc("/", s.handleNotFound)

	s.handler = s.withRequestContext(s.withCORS(s.withBodyLimit(s.mux)))
	return s
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) Start(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	s.server = &http.Server{
		Addr:         s.opts.Addr,
		Handler:      s.handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		s.logger.Info("HTTP server starting", "addr", s.opts.Addr)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP server error", "error", err)
		}
	}()

	s.running = true
	return nil
}

func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.server.Shutdown(ctx); err != nil {
			s.logger.Warn("graceful shutdown failed, forcing close", "error", err)
			if err := s.server.Close(); err != nil {
				return fmt.Errorf("closing server: %w", err)
			}
		}
	}

	s.running = false
	return nil
}

type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Path    string `json:"path,omitempty"`
}

type healthBody struct {
	Status     string `json:"status"`
	Message    string `json:"message"`
	Running    bool   `json:"running"`
	Configured bool   `json:"configured"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, healthBody{
		Status:     "ok",
		Message:    "voice relay is running",
		Running:    running,
		Configured: s.relay.Configured(),
	})
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	var req application.ProcessRequest
	if !s.decode(w, r, &req) {
		return
	}

	res, err := s.relay.Process(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err, "Processing failed")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	var req application.TranscribeRequest
	if !s.decode(w, r, &req) {
		return
	}

	res, err := s.relay.Transcribe(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err, "Transcription failed")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, errorBody{Error: "Not found", Path: r.URL.Path})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{Error: "Request body too large"})
			return false
		}
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "Invalid JSON body"})
		return false
	}
	return true
}

// writeError maps pipeline errors onto status codes: client mistakes are 400,
// missing configuration and upstream failures are 500.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error, fallbackMsg string) {
	logger := application.LoggerFrom(r.Context(), s.logger)

	status := http.StatusInternalServerError
	msg := fallbackMsg

	var userErr *application.UserError
	var upstream *infra.UpstreamError
	switch {
	case errors.As(err, &userErr):
		msg = userErr.Message
		if !errors.Is(err, application.ErrNotConfigured) {
			status = http.StatusBadRequest
		}
	case errors.As(err, &upstream):
		msg = upstream.Error()
	case err.Error() != "":
		msg = err.Error()
	}

	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "path", r.URL.Path, "error", err)
	} else {
		logger.Warn("request rejected", "path", r.URL.Path, "error", msg)
	}

	body := errorBody{Error: msg}
	if s.opts.Development {
		body.Details = err.Error()
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
