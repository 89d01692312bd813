package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/dharmasatrya/flightscrape/internal/config"
	"github.com/dharmasatrya/flightscrape/internal/handler"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := cfg.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	s, err := cfg.NewScraper(logger)
	if err != nil {
		logger.Error("failed to initialize scraper", "error", err)
		os.Exit(1)
	}
	defer s.Close()

	logger.Info("scraper initialized",
		"mode", cfg.Mode,
		"cache", cfg.Cache.Backend,
		"cache_ttl", cfg.Cache.TTL.String(),
		"rate_limit", cfg.RateLimit.MaxRequests,
		"rate_window", cfg.RateLimit.Window.String(),
		"retry_attempts", cfg.Retry.MaxAttempts,
	)

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency.String(),
				"request_id", v.RequestID,
			}
			if v.Error != nil {
				attrs = append(attrs, "error", v.Error.Error())
			}
			logger.InfoContext(c.Request().Context(), "request", attrs...)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestID())

	handler.NewSearchHandler(s, cfg.Currency).Register(e)

	go func() {
		logger.Info("starting flight scrape server", "port", cfg.Port)
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", "error", err)
			os.Exit(1)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
}
