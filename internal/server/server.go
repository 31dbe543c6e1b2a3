// Package server exposes the auditor over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/dshills/contentaudit/internal/audit"
	"github.com/dshills/contentaudit/internal/observability"
	"github.com/dshills/contentaudit/internal/schema"
)

const shutdownTimeout = 10 * time.Second

// Options configures a Server. Zero values select defaults.
type Options struct {
	// HistoryLimit is the default page size of GET /audit/history.
	HistoryLimit int
	// Workers bounds the POST /audit/batch worker pool.
	Workers int
	// DefaultPlatform is used when a request omits platform.
	DefaultPlatform schema.Platform
	// Metrics, when set, is served on GET /metrics.
	Metrics *observability.Metrics
	Logger  *zap.SugaredLogger
}

// Server wires the HTTP routes to an Auditor.
type Server struct {
	auditor *audit.Auditor
	opts    Options
	log     *zap.SugaredLogger
	router  *gin.Engine
}

// New builds the router. Call Handler for tests or Run to serve.
func New(a *audit.Auditor, opts Options) *Server {
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = defaultHistoryLimit
	}
	if opts.DefaultPlatform == "" {
		opts.DefaultPlatform = schema.PlatformInstagram
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	router := gin.New()
	router.Use(gin.Recovery(), otelgin.Middleware(observability.ServiceName), requestLogger(log))

	s := &Server{auditor: a, opts: opts, log: log, router: router}
	s.setupRoutes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infow("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Infow("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
