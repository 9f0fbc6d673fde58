// Package httpapi exposes triage over HTTP for dashboards and integrations.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"DisasterTriage/internal/ports"
	"DisasterTriage/internal/triage"
	"DisasterTriage/internal/usecase"
)

// Deps wires the server. Repository and Ingestor are optional; the routes
// that need them answer 503 when absent.
type Deps struct {
	Pipeline   *triage.Pipeline
	Ingestor   *usecase.Ingestor
	Repository ports.RecordRepository
	Metrics    http.Handler
	Logger     *slog.Logger
	Now        func() time.Time

	// MaxBodyBytes caps request bodies; zero selects defaultMaxBodyBytes.
	MaxBodyBytes int64
}

const defaultMaxBodyBytes = 32 << 20

// Server owns the gin router.
type Server struct {
	router     *gin.Engine
	pipeline   *triage.Pipeline
	ingestor   *usecase.Ingestor
	repository ports.RecordRepository
	metrics    http.Handler
	logger     *slog.Logger
	now        func() time.Time
	maxBody    int64
}

// NewServer builds the router with every route registered.
func NewServer(deps Deps) (*Server, error) {
	if deps.Pipeline == nil {
		return nil, errors.New("httpapi: triage pipeline is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	maxBody := deps.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}

	s := &Server{
		router:     gin.New(),
		pipeline:   deps.Pipeline,
		ingestor:   deps.Ingestor,
		repository: deps.Repository,
		metrics:    deps.Metrics,
		logger:     logger.With("component", "http"),
		now:        now,
		maxBody:    maxBody,
	}
	s.router.Use(gin.Recovery(), s.requestLogger())
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	s.router.GET("/healthz", s.health)
	if s.metrics != nil {
		s.router.GET("/metrics", gin.WrapH(s.metrics))
	}

	v1 := s.router.Group("/v1")
	{
		v1.POST("/triage", s.triageOne)
		v1.POST("/messages", s.ingestBatch)
		v1.GET("/records", s.listRecords)
		v1.GET("/summary", s.summary)
	}
}

// Handler exposes the router, e.g. for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen %s: %w", addr, err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"took", time.Since(start),
		)
	}
}
