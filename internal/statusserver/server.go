package statusserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"zoomrender/internal/dispatch"
	"zoomrender/internal/logging"
	"zoomrender/internal/metrics"
)

const shutdownTimeout = 5 * time.Second

// SnapshotSource reports the current dispatcher state.
type SnapshotSource interface {
	Snapshot() dispatch.Snapshot
}

// Server exposes render status over HTTP.
type Server struct {
	bind    string
	logger  *slog.Logger
	source  SnapshotSource
	metrics *metrics.Metrics
	started time.Time

	listener net.Listener
	server   *http.Server
}

// New builds a server. It returns nil when bind is empty.
func New(bind string, source SnapshotSource, m *metrics.Metrics, logger *slog.Logger) *Server {
	bind = strings.TrimSpace(bind)
	if bind == "" || source == nil {
		return nil
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		bind:    bind,
		logger:  logging.NewComponentLogger(logger, "status-server"),
		source:  source,
		metrics: m,
		started: time.Now(),
	}
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler returns the chi router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.logger))
	r.Get("/healthz", s.handleHealth)
	r.Get("/status", s.handleStatus)
	r.Get("/metrics", func(w http.ResponseWriter, req *http.Request) {
		s.metrics.Handler(func() {
			snap := s.source.Snapshot()
			s.metrics.SetProgress(snap.RenderedFrames, snap.TotalFrames)
		}).ServeHTTP(w, req)
	})
	return r
}

// Start listens on the bind address and serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("status server listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("status server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("status server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Addr returns the bound address once started.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down, waiting briefly for in-flight requests.
func (s *Server) Stop() {
	if s == nil || s.server == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
}

type healthResponse struct {
	Status string  `json:"status"`
	Uptime float64 `json:"uptime_seconds"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, healthResponse{
		Status: "ok",
		Uptime: time.Since(s.started).Seconds(),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.source.Snapshot())
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func requestLogger(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Debug("request",
				logging.String("method", r.Method),
				logging.String("path", r.URL.Path),
				logging.Int("status", ww.Status()),
				logging.Duration("duration", time.Since(start)),
				logging.Int("size", ww.BytesWritten()),
			)
		})
	}
}
