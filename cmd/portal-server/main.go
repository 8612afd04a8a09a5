package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mimedicina/portal/internal/clinicapi"
	"github.com/mimedicina/portal/internal/config"
	"github.com/mimedicina/portal/internal/dashboard"
	"github.com/mimedicina/portal/internal/gateway"
	"github.com/mimedicina/portal/internal/platform/middleware"
	"github.com/mimedicina/portal/internal/platform/querycache"
	"github.com/mimedicina/portal/internal/platform/rest"
	"github.com/mimedicina/portal/internal/platform/session"
	"github.com/mimedicina/portal/internal/roster"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "portal-server",
		Short: "Patient portal API gateway",
	}

	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the portal gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	// Clinic API client, shared across sessions; each request carries its
	// own backend token through the context.
	restClient := rest.NewClient(rest.Options{
		BaseURL:   cfg.ClinicAPIURL,
		Timeout:   time.Duration(cfg.HTTPTimeoutSecs) * time.Second,
		ReadRetry: cfg.ReadRetryCount,
		TokenFrom: session.ContextTokenSource{},
		Logger:    logger,
	})
	api := clinicapi.NewClient(restClient)

	cache := querycache.New(time.Duration(cfg.CacheStaleSecs) * time.Second)
	sessions := session.NewStore(time.Duration(cfg.SessionTTLMinutes) * time.Minute)

	handler := gateway.NewHandler(
		api,
		sessions,
		gateway.NewScreenRegistry(api, cache, logger),
		roster.NewService(api, cache, logger),
		dashboard.NewService(api, cache, logger),
		cache,
		logger,
	)

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.RequestTimeout(time.Duration(cfg.HTTPTimeoutSecs) * time.Second))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})

	handler.RegisterRoutes(e.Group("/api"))

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
