package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/panuavakul/v-video-compressor-sub001/internal/config"
	appMiddleware "github.com/panuavakul/v-video-compressor-sub001/internal/middleware"
	"github.com/panuavakul/v-video-compressor-sub001/pkg/logger"
)

const (
	maxHeaderBytes = 1 << 20
	ctxTimeout     = 5
)

type Server struct {
	echo   *echo.Echo
	cfg    *config.Config
	db     *sqlx.DB
	logger logger.Logger
}

func NewServer(cfg *config.Config, db *sqlx.DB, logger logger.Logger) *Server {
	return &Server{
		echo:   echo.New(),
		cfg:    cfg,
		db:     db,
		logger: logger,
	}
}

func (s *Server) Run() error {
	if err := s.MapHandlers(s.echo); err != nil {
		return err
	}
	mw := appMiddleware.NewMiddlewareManager(s.cfg, s.logger)

	s.echo.Server.MaxHeaderBytes = maxHeaderBytes
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestID())
	s.echo.Use(mw.RequestLoggerMiddleware)

	server := &http.Server{
		Addr:         s.cfg.Server.Port,
		ReadTimeout:  time.Second * time.Duration(s.cfg.Server.ReadTimeout),
		WriteTimeout: time.Second * time.Duration(s.cfg.Server.WriteTimeout),
	}
	go func() {
		if err := s.echo.StartServer(server); err != nil {
			s.logger.Fatal("error starting Server: ", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, os.Interrupt)
	<-quit

	ctx, shutdown := context.WithTimeout(context.Background(), time.Second*ctxTimeout)
	defer shutdown()
	s.logger.Infof("shutting down server")
	return s.echo.Server.Shutdown(ctx)
}
