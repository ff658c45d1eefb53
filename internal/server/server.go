package server

import (
	"context"
	"fmt"

	"github.com/grachmannico95/rex-docs-be/internal/config"
	"github.com/grachmannico95/rex-docs-be/internal/handler"
	"github.com/grachmannico95/rex-docs-be/internal/middleware"
	"github.com/grachmannico95/rex-docs-be/pkg/logger"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
)

type Server struct {
	echo           *echo.Echo
	cfg            *config.Config
	logger         *logger.Logger
	rexHandler     *handler.RexHandler
	historyHandler *handler.HistoryHandler
	healthHandler  *handler.HealthHandler
}

func New(
	cfg *config.Config,
	log *logger.Logger,
	rexHandler *handler.RexHandler,
	historyHandler *handler.HistoryHandler,
	healthHandler *handler.HealthHandler,
) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:           e,
		cfg:            cfg,
		logger:         log,
		rexHandler:     rexHandler,
		historyHandler: historyHandler,
		healthHandler:  healthHandler,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%s", s.cfg.Server.Host, s.cfg.Server.Port)
	s.logger.Info(context.Background(), "Starting HTTP server",
		"address", addr,
	)

	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info(ctx, "Shutting down HTTP server")
	return s.echo.Shutdown(ctx)
}

func (s *Server) setupMiddleware() {
	s.echo.Use(echoMiddleware.Recover())
	s.echo.Use(echoMiddleware.CORS())
	if s.cfg.Server.BodyLimit != "" {
		s.echo.Use(echoMiddleware.BodyLimit(s.cfg.Server.BodyLimit))
	}
	s.echo.Use(middleware.RequestID())
	s.echo.Use(middleware.Logging(s.logger))
}

func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthHandler.Check)

	rex := s.echo.Group("/rex")
	rex.POST("/sessions", s.rexHandler.CreateSession)
	rex.POST("/sessions/:id/records", s.rexHandler.AttachRecords)
	rex.POST("/sessions/:id/match", s.rexHandler.Match)
	rex.POST("/sessions/:id/submit", s.rexHandler.Submit)
	rex.DELETE("/sessions/:id", s.rexHandler.DiscardSession)

	rex.GET("/submissions", s.rexHandler.ListSubmissions)
	rex.GET("/submissions/:id", s.rexHandler.GetSubmission)
	rex.DELETE("/submissions/:id", s.rexHandler.DeleteSubmission)
	rex.GET("/documents/:id/download", s.rexHandler.DownloadDocument)

	s.echo.POST("/history/sync", s.historyHandler.Sync)
}

func (s *Server) Handler() *echo.Echo {
	return s.echo
}
