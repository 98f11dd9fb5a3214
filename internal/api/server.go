// Package api provides the HTTP JSON interface of chatinsight.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/edgard/chatinsight/internal/config"
	"github.com/edgard/chatinsight/internal/logger"
	"github.com/edgard/chatinsight/internal/service"
)

// Server is the HTTP server of chatinsight.
type Server struct {
	echo    *echo.Echo
	svc     *service.Service
	store   Pinger
	log     *slog.Logger
	cfg     config.HTTPConfig
	metrics http.Handler
}

// Pinger reports whether the storage backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps groups the collaborators of the server.
type Deps struct {
	Service *service.Service
	Store   Pinger
	Metrics http.Handler
	Logger  *slog.Logger
}

type requestValidator struct {
	validate *validator.Validate
}

func (v *requestValidator) Validate(i any) error {
	return v.validate.Struct(i)
}

// NewServer creates the server and registers its routes.
func NewServer(deps Deps, cfg config.HTTPConfig) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = &requestValidator{validate: validator.New(validator.WithRequiredStructEnabled())}
	e.Server.ReadTimeout = cfg.ReadTimeout
	e.Server.WriteTimeout = cfg.WriteTimeout

	log := deps.Logger.With("component", "http_server")

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(logger.EchoMiddleware(log))
	e.Use(middleware.Recover())
	if cfg.MaxUploadBytes > 0 {
		e.Use(middleware.BodyLimit(bodyLimit(cfg.MaxUploadBytes)))
	}

	s := &Server{
		echo:    e,
		svc:     deps.Service,
		store:   deps.Store,
		log:     log,
		cfg:     cfg,
		metrics: deps.Metrics,
	}

	e.GET("/healthz", s.handleHealth)
	if s.metrics != nil {
		e.GET("/metrics", echo.WrapHandler(s.metrics))
	}

	g := e.Group("/api")
	g.GET("/groups", s.handleListGroups)
	g.GET("/groups/:name/dates", s.handleGroupDates)
	g.POST("/groups/:name/upload", s.handleUpload)
	g.POST("/upload", s.handleUpload)
	g.DELETE("/groups/:name", s.handleDeleteGroup)
	g.POST("/ask", s.handleAsk)
	g.POST("/summarize", s.handleSummarize)
	g.POST("/activity", s.handleActivity)
	g.POST("/sentiment", s.handleSentiment)
	g.GET("/example-questions", s.handleExampleQuestions)

	return s
}

// Start starts the HTTP server. It returns nil after a graceful shutdown.
func (s *Server) Start(addr string) error {
	s.log.Info("HTTP server listening", "addr", addr)
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// ServeHTTP lets the server be driven directly, as in tests.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

func (s *Server) handleHealth(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	if s.store != nil {
		if err := s.store.Ping(ctx); err != nil {
			s.log.WarnContext(ctx, "Health check failed", "error", err)
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "error": err.Error()})
		}
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
}

// bodyLimit renders a byte count in the notation of the body limit middleware.
func bodyLimit(n int64) string {
	return strconv.FormatInt(n, 10) + "B"
}
