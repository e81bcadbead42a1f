// Package http exposes the dispatcher over a small JSON API.
package http

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"finbot/internal/bot"
	"finbot/internal/log"
	"finbot/internal/middleware/ratelimit"
	"finbot/internal/middleware/security"
	"finbot/internal/middleware/trace"
)

// EventHandler answers one user event.
type EventHandler interface {
	Handle(ctx context.Context, ev bot.Event) bot.Reply
}

type Server struct {
	http.Server
	events   EventHandler
	ready    func(context.Context) error
	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
	logger   *log.Logger

	shutdownOnce sync.Once
}

type Option func(*Server)

// WithLimiter rate limits events per user. The caller owns the limiter.
func WithLimiter(l *ratelimit.Limiter) Option {
	return func(s *Server) { s.limiter = l }
}

// WithReadiness sets the check behind /readyz.
func WithReadiness(check func(context.Context) error) Option {
	return func(s *Server) { s.ready = check }
}

func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l.WithComponent(log.ComponentHTTP)
		}
	}
}

// NewServer wires the routes and middleware and returns a server ready for
// ListenAndServe.
func NewServer(addr string, events EventHandler, opts ...Option) *Server {
	s := &Server{
		events:   events,
		detector: security.NewDetector(),
		logger:   log.New(log.Config{Component: log.ComponentHTTP}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/events", s.handleEvent)
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	var handler http.Handler = mux
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.withDetection(handler)
	handler = log.Middleware(s.logger, trace.GetRequestID)(handler)
	handler = s.tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// Metrics returns the request counters collected by the trace middleware.
func (s *Server) Metrics() trace.Metrics {
	return s.tracer.GetMetrics()
}

func (s *Server) withDetection(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.detector.DetectSuspiciousRequest(r) {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Suspicious request",
				log.FieldPath, r.URL.Path,
				log.FieldMethod, r.Method,
				log.FieldClientIP, s.detector.ExtractClientIP(r))
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.FromContext(ctx)

	ev, err := parseEvent(w, r)
	if err != nil {
		logger.WarnContext(ctx, "Rejected event", log.FieldError, err.Error())
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if s.limiter != nil && !s.limiter.Allow("user:"+strconv.FormatInt(ev.UserID, 10)) {
		logger.WarnContext(ctx, "Rate limit exceeded", log.FieldUserID, ev.UserID)
		w.Header().Set("Retry-After", "60")
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	reply := s.events.Handle(ctx, ev)
	writeJSON(w, http.StatusOK, reply)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			log.FromContext(ctx).Failure(ctx, "Readiness check failed", log.OpRead, err)
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("not ready"))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
