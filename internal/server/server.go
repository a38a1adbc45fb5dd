// Package server exposes the analytics platform over an HTTP API.
package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/quantdesk/internal/config"
	"github.com/yourusername/quantdesk/internal/metrics"
)

// Server wraps the echo HTTP server
type Server struct {
	echo *echo.Echo
	cfg  *config.Config
	log  *logrus.Logger
}

// New builds the server with middleware and all routes registered
func New(cfg *config.Config, handler *Handler, log *logrus.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.Server.AllowedOrigins,
		AllowMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
		},
	}))
	e.Use(requestLogger(log))

	handler.RegisterRoutes(e)
	if cfg.Metrics.Enabled {
		e.GET(cfg.Metrics.Path, echo.WrapHandler(metrics.Handler()))
	}

	return &Server{echo: e, cfg: cfg, log: log}
}

// requestLogger logs each request and feeds the request metrics
func requestLogger(log *logrus.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			status := c.Response().Status
			route := c.Path()
			duration := time.Since(start)

			metrics.RecordRequest(route, strconv.Itoa(status), duration.Seconds())
			entry := log.WithFields(logrus.Fields{
				"method":   c.Request().Method,
				"route":    route,
				"status":   status,
				"duration": duration.String(),
			})
			if status >= 500 {
				entry.Error("Request failed")
			} else {
				entry.Info("Request handled")
			}
			return nil
		}
	}
}

// Start blocks serving HTTP until the listener fails or is shut down
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Server.Port)
	s.log.WithField("addr", addr).Info("HTTP API listening")

	s.echo.Server.ReadTimeout = time.Duration(s.cfg.Server.TimeoutSeconds) * time.Second
	s.echo.Server.WriteTimeout = 2 * time.Duration(s.cfg.Server.TimeoutSeconds) * time.Second
	return s.echo.Start(addr)
}

// Shutdown drains in-flight requests and stops the listener
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
