package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	api "ai-browser-assistant-service/internal/api/http"
	"ai-browser-assistant-service/internal/app"
	"ai-browser-assistant-service/internal/config"
	"ai-browser-assistant-service/internal/observability"
)

func main() {
	cfg := config.Load()

	ctx := context.Background()
	application, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("application setup failed: %v", err)
	}
	if err := application.Start(); err != nil {
		log.Fatalf("application start failed: %v", err)
	}

	// Metrics and health endpoints on their own port
	obs := observability.NewServer(":" + cfg.Service.MetricsPort)
	obs.Start()

	server := &http.Server{
		Addr:              ":" + cfg.Service.HTTPPort,
		Handler:           api.NewRouter(application),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		application.Logger.Info().
			Str("port", cfg.Service.HTTPPort).
			Msg("AI browser assistant service listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http serve failed: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	application.Logger.Info().Msg("Shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		application.Logger.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		application.Logger.Error().Err(err).Msg("Observability server shutdown failed")
	}
	application.Shutdown()
}
