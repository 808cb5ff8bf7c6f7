package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzhttp"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/scrapegoat/internal/config"
	"github.com/GriffinCanCode/scrapegoat/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/scrapegoat/internal/interpreter"
	"github.com/GriffinCanCode/scrapegoat/internal/logging"
)

// Server exposes the query language over HTTP.
type Server struct {
	cfg     config.ServerConfig
	router  *gin.Engine
	handler http.Handler
	log     *logging.Logger
	metrics *monitoring.Metrics
	fetcher interpreter.DocumentFetcher
}

// New creates a server. fetcher is shared by every request; metrics may
// be nil.
func New(cfg config.ServerConfig, fetcher interpreter.DocumentFetcher, log *logging.Logger, metrics *monitoring.Metrics) *Server {
	if log == nil {
		log = logging.NewNop()
	}
	s := &Server{
		cfg:     cfg,
		log:     log,
		metrics: metrics,
		fetcher: fetcher,
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestID())
	router.Use(requestLogger(log))
	router.Use(CORS(DefaultCORSConfig()))
	if metrics != nil {
		router.Use(monitoring.Middleware(metrics))
		router.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	router.GET("/health", s.Health)

	v1 := router.Group("/v1")
	v1.Use(RateLimit(RateLimitConfig{
		RequestsPerSecond: cfg.RequestsPerSecond,
		Burst:             cfg.Burst,
	}))
	v1.POST("/parse", s.Parse)
	v1.POST("/run", s.Run)

	s.router = router
	s.handler = gzhttp.GzipHandler(router)
	return s
}

// Handler returns the compressed root handler.
func (s *Server) Handler() http.Handler { return s.handler }

// Addr is the listen address.
func (s *Server) Addr() string { return net.JoinHostPort(s.cfg.Host, s.cfg.Port) }

// ListenAndServe serves until ctx is cancelled and then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Addr(),
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("starting HTTP server", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
