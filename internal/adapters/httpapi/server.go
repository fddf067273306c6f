// Package httpapi serves indicator analyses over HTTP with echo.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"indicatorEngine/internal/ports"
)

// ServerConfig holds server configuration.
type ServerConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	Logger          ports.Logger
	Metrics         http.Handler // served on /metrics when set
}

// Server wraps an echo instance.
type Server struct {
	echo   *echo.Echo
	config ServerConfig
}

// NewServer builds the server and mounts the handler routes.
func NewServer(handler *Handler, cfg ServerConfig) (*Server, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for HTTP server")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 10 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 60 * time.Second
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.ReadTimeout
	e.Server.WriteTimeout = cfg.WriteTimeout

	e.Use(Recover(cfg.Logger))
	e.Use(RequestLogging(cfg.Logger))

	if handler != nil {
		handler.RegisterRoutes(e)
	}
	if cfg.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(cfg.Metrics))
	}
	return &Server{echo: e, config: cfg}, nil
}

// Start serves until Stop is called. It returns nil after a graceful stop.
func (s *Server) Start() error {
	s.config.Logger.Info(context.Background(), "HTTP server listening", map[string]interface{}{"addr": s.config.Addr})
	if err := s.echo.Start(s.config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	s.config.Logger.Info(ctx, "HTTP server stopped gracefully")
	return nil
}

// Echo returns the underlying echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}
