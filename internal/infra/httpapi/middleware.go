package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"voice-relay/internal/application"
)

const requestIDHeader = "X-Request-ID"

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.wroteHeader {
		return
	}
	s.status = code
	s.wroteHeader = true
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if !s.wroteHeader {
		s.WriteHeader(http.StatusOK)
	}
	return s.ResponseWriter.Write(b)
}

// withRequestContext tags each request with an id, a scoped logger and an
// access log line, and turns panics into 500s.
func (s *Server) withRequestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)

		logger := s.logger.With("request_id", requestID)
		r = r.WithContext(application.WithLogger(r.Context(), logger))

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		defer func() {
			if p := recover(); p != nil {
				logger.Error("unhandled panic", "panic", p, "path", r.URL.Path)
				if !rec.wroteHeader {
					writeJSON(rec, http.StatusInternalServerError, errorBody{Error: "Internal server error"})
				}
			}

			elapsed := time.Since(start)
			s.observer.ObserveRequest(routeLabel(r), rec.status, elapsed)
			logger.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration", elapsed,
			)
		}()

		next.ServeHTTP(rec, r)
	})
}

// withCORS allows browser clients from the configured origins; "*" allows any.
func (s *Server) withCORS(next http.Handler) http.Handler {
	allowAll := len(s.opts.AllowedOrigins) == 0
	allowed := make(map[string]bool, len(s.opts.AllowedOrigins))
	for _, o := range s.opts.AllowedOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[strings.TrimRight(o, "/")] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		switch {
		case allowAll:
			w.Header().Set("Access-Control-Allow-Origin", "*")
		case origin != "" && allowed[origin]:
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
		}

		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			w.Header().Set("Access-Control-Allow-Methods", "GET,HEAD,PUT,PATCH,POST,DELETE")
			if reqHeaders := r.Header.Get("Access-Control-Request-Headers"); reqHeaders != "" {
				w.Header().Set("Access-Control-Allow-Headers", reqHeaders)
			}
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) withBodyLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.opts.BodyLimit > 0 && r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, s.opts.BodyLimit)
		}
		next.ServeHTTP(w, r)
	})
}

// routeLabel keeps metric cardinality bounded by collapsing unknown paths.
func routeLabel(r *http.Request) string {
	switch r.URL.Path {
	case "/health", "/api/voice/process", "/api/voice/transcribe", "/metrics":
		return r.URL.Path
	default:
		return "other"
	}
}

type RequestObserver interface {
	ObserveRequest(route string, status int, elapsed time.Duration)
}

type noopObserver struct{}

func (noopObserver) ObserveRequest(string, int, time.Duration) {}
