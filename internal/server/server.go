package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/hance08/dtl/internal/auth"
	"github.com/hance08/dtl/internal/metrics"
	"github.com/hance08/dtl/internal/service"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type Options struct {
	Addr            string
	TransferRate    float64
	TransferBurst   int
	ShutdownTimeout time.Duration
	AuthRequired    bool
}

// Pinger reports whether the ledger cache is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Service *service.Service
	Store   Pinger
	Issuer  *auth.Issuer
	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

type Server struct {
	opts    Options
	deps    Deps
	engine  *gin.Engine
	logger  *zap.Logger
	limiter *rate.Limiter
}

func init() {
	gin.SetMode(gin.ReleaseMode)
}

// New builds the submitter's HTTP surface.
func New(opts Options, deps Deps) *Server {
	s := newServer(opts, deps)

	api := s.engine.Group("/")
	if opts.AuthRequired && deps.Issuer != nil {
		api.Use(requireToken(deps.Issuer))
	}

	api.GET("/accounts", s.listAccounts)
	api.POST("/seed", s.seed)
	api.POST("/transfer", s.rateLimit(), s.submitTransfer)
	api.GET("/transfers", s.listTransfers)
	api.GET("/transfers/:id", s.getTransfer)
	api.GET("/transfers/:id/metadata", s.getTransferMetadata)

	return s
}

// NewOps builds the health and metrics listener the confirmer exposes.
func NewOps(opts Options, deps Deps) *Server {
	return newServer(opts, deps)
}

func newServer(opts Options, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("http")

	limit := rate.Inf
	if opts.TransferRate > 0 {
		limit = rate.Limit(opts.TransferRate)
	}
	burst := opts.TransferBurst
	if burst <= 0 {
		burst = 1
	}

	s := &Server{
		opts:    opts,
		deps:    deps,
		engine:  gin.New(),
		logger:  logger,
		limiter: rate.NewLimiter(limit, burst),
	}

	s.engine.Use(gin.Recovery(), requestLogger(logger))
	s.engine.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:    []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:          12 * time.Hour,
	}))

	s.engine.GET("/health", s.health)
	s.engine.GET("/ready", s.ready)
	if deps.Metrics != nil {
		s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Metrics.Registry, promhttp.HandlerOpts{})))
	}

	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then drains in-flight requests for up
// to the shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", s.opts.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server on %s: %w", s.opts.Addr, err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	timeout := s.opts.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	s.logger.Info("shutting down", zap.String("addr", s.opts.Addr))
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}
