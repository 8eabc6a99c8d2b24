// Package main provides the entrypoint for the nightwalk API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/nightwalk/nightwalk/internal/api"
	"github.com/nightwalk/nightwalk/internal/api/middleware"
	"github.com/nightwalk/nightwalk/internal/crime"
	"github.com/nightwalk/nightwalk/internal/crime/police"
	"github.com/nightwalk/nightwalk/internal/geodata"
	"github.com/nightwalk/nightwalk/internal/geodata/overpass"
	"github.com/nightwalk/nightwalk/internal/routes"
	"github.com/nightwalk/nightwalk/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "nightwalk-api"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting nightwalk API")

	// Get configuration from environment
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	otlpEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otlpEndpoint == "" {
		otlpEndpoint = "localhost:4317"
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	maxDistanceKm := 20.0
	if raw := os.Getenv("MAX_ROUTE_DISTANCE_KM"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			log.Fatal().Str("value", raw).Msg("MAX_ROUTE_DISTANCE_KM must be a number")
		}
		maxDistanceKm = parsed
	}

	// Initialize OpenTelemetry
	ctx := context.Background()
	telemetryEnabled := os.Getenv("OTEL_ENABLED") == "true"

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    env,
		OTLPEndpoint:   otlpEndpoint,
		Enabled:        telemetryEnabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if telemetryEnabled {
		log.Info().
			Str("otlp_endpoint", otlpEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	// Initialize geodata client and service
	overpassClient := overpass.NewClient(overpass.ClientConfig{
		Logger: log,
	})
	geodataService := geodata.NewService(geodata.ServiceConfig{
		Provider: overpassClient,
		Logger:   log,
	})
	log.Info().Str("provider", geodataService.ProviderName()).Msg("geodata service initialized")

	// Initialize crime client and service
	policeClient := police.NewClient(police.ClientConfig{})
	crimeService := crime.NewService(crime.ServiceConfig{
		Provider: policeClient,
		Logger:   log,
	})
	log.Info().Str("provider", crimeService.ProviderName()).Msg("crime service initialized")

	// Initialize route orchestrator
	routeService := routes.NewService(routes.ServiceConfig{
		Geodata:           geodataService,
		Crime:             crimeService,
		Logger:            log,
		MaxStraightLineKm: maxDistanceKm,
	})
	log.Info().Float64("max_distance_km", maxDistanceKm).Msg("route service initialized")

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:      Version,
		BuildTime:    BuildTime,
		Logger:       log,
		ServiceName:  serviceName,
		Metrics:      metrics,
		RouteService: routeService,
	})

	// Create HTTP server. The write timeout leaves room for a slow upstream
	// geodata fetch, which can take most of its 105s abort window.
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}
