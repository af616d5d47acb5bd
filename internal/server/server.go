// Package server exposes the screening engine over HTTP.
package server

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/cognicore/meiyo/internal/logging"
	"github.com/cognicore/meiyo/internal/sentiment"
	"github.com/cognicore/meiyo/pkg/meiyo"
	"github.com/cognicore/meiyo/pkg/meiyo/dictionary"
	"github.com/cognicore/meiyo/pkg/meiyo/history"
)

// DefaultMaxTextLen bounds the characters accepted by /check.
const DefaultMaxTextLen = 2000

// Evaluator is the engine surface the server needs.
type Evaluator interface {
	Evaluate(text string) meiyo.Result
	Snapshot() *dictionary.Snapshot
	Reload(l meiyo.SourceLoader) error
}

// Classifier returns an advisory sentiment label.
type Classifier interface {
	Classify(ctx context.Context, text string) (sentiment.Label, error)
}

// Options configure a Server. Engine is required; the rest is optional.
type Options struct {
	Engine     Evaluator
	History    history.Store
	Sentiment  Classifier
	Loader     meiyo.SourceLoader
	MaxTextLen int
	// AdminToken is the bearer token the admin routes require. Empty keeps
	// them locked.
	AdminToken string
	Logger     *slog.Logger
}

// Server is the HTTP host.
type Server struct {
	echo       *echo.Echo
	engine     Evaluator
	history    history.Store
	sentiment  Classifier
	loader     meiyo.SourceLoader
	maxTextLen int
	adminToken string
	metrics    *Metrics
	logger     *slog.Logger
}

// New builds the router.
func New(opts Options) (*Server, error) {
	if opts.Engine == nil {
		return nil, errors.New("server: engine required")
	}
	s := &Server{
		echo:       echo.New(),
		engine:     opts.Engine,
		history:    opts.History,
		sentiment:  opts.Sentiment,
		loader:     opts.Loader,
		maxTextLen: opts.MaxTextLen,
		adminToken: opts.AdminToken,
		metrics:    NewMetrics(),
		logger:     opts.Logger,
	}
	if s.maxTextLen <= 0 {
		s.maxTextLen = DefaultMaxTextLen
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	e := s.echo
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
		RequestIDHandler: func(c echo.Context, id string) {
			ctx := logging.WithLogger(c.Request().Context(), s.logger.With("request_id", id))
			c.SetRequest(c.Request().WithContext(ctx))
		},
	}))
	e.Use(middleware.BodyLimit("256K"))
	e.Use(s.metrics.Middleware())

	e.GET("/healthz", s.handleHealth)
	e.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))

	api := e.Group("/api/v1")
	api.POST("/check", s.handleCheck)
	api.POST("/reports", s.handleAddReport)
	api.GET("/reports", s.handleListReports)
	api.GET("/queries/top", s.handleTopQueries)

	admin := api.Group("/admin", middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
		Validator: s.validAdminToken,
		ErrorHandler: func(err error, c echo.Context) error {
			return echo.NewHTTPError(http.StatusUnauthorized, "admin token required")
		},
	}))
	admin.POST("/reload", s.handleReload)

	return s, nil
}

func (s *Server) validAdminToken(key string, c echo.Context) (bool, error) {
	if s.adminToken == "" {
		return false, nil
	}
	return subtle.ConstantTimeCompare([]byte(key), []byte(s.adminToken)) == 1, nil
}

// Handler returns the router as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Metrics exposes the server's collectors.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Start listens on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.logger.Info("http server listening", "addr", addr)
	srv := &http.Server{
		Addr:              addr,
		ReadHeaderTimeout: 10 * time.Second,
	}
	err := s.echo.StartServer(srv)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
