// Package server hosts verification sessions over HTTP.
//
// Each session is created by POST /v1/sessions and driven by claim and question
// intents. Intents are accepted asynchronously; clients read the resulting
// snapshots with GET /v1/sessions/:id or follow them as server-sent events.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ppiankov/verdict/internal/logging"
	"github.com/ppiankov/verdict/internal/metrics"
	"github.com/ppiankov/verdict/internal/model"
	"github.com/ppiankov/verdict/internal/session"
)

// SessionFactory creates a new idle session wired to the backend
type SessionFactory func() *session.Session

// Server is the HTTP session host
type Server struct {
	cfg      model.ServerConfig
	factory  SessionFactory
	registry *Registry
	engine   *gin.Engine
	logger   *slog.Logger
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer

	// heartbeat is the interval of keep-alive comments on event streams
	heartbeat time.Duration
}

// Option configures a Server
type Option func(*Server)

// WithLogger sets the structured logger
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics records session counts on m and serves g at /metrics
func WithMetrics(m *metrics.Metrics, g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = m
		s.gatherer = g
	}
}

// New creates a server. Routes are attached immediately.
func New(cfg model.ServerConfig, factory SessionFactory, opts ...Option) *Server {
	s := &Server{
		cfg:       cfg,
		factory:   factory,
		logger:    logging.Discard(),
		heartbeat: 15 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.registry = NewRegistry(cfg.SessionTTL, s.metrics, s.logger)

	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	s.attachRoutes(r)
	s.engine = r

	return s
}

// Handler returns the HTTP handler of the server
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Registry returns the session registry
func (s *Server) Registry() *Registry {
	return s.registry
}

// Run serves on cfg.Addr until ctx is cancelled
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("session host listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) attachRoutes(r *gin.Engine) {
	if len(s.cfg.AllowOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:  s.cfg.AllowOrigins,
			AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Last-Event-ID"},
			ExposeHeaders: []string{"Content-Length"},
			MaxAge:        12 * time.Hour,
		}))
	}

	r.GET("/healthz", s.health)
	if s.gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}

	v1 := r.Group("/v1")
	{
		v1.POST("/sessions", s.createSession)
		v1.GET("/sessions/:id", s.getSession)
		v1.DELETE("/sessions/:id", s.deleteSession)
		v1.POST("/sessions/:id/claim", s.submitClaim)
		v1.POST("/sessions/:id/question", s.askQuestion)
		v1.GET("/sessions/:id/events", s.streamEvents)
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"elapsed", time.Since(start))
	}
}
