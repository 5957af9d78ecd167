package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"syscall"

	"github.com/arbakker/pdok-services/internal/config"
	"github.com/arbakker/pdok-services/internal/services"

	"github.com/oklog/run"
)

func main() {
	// Load configuration, PDOK_SERVICES_CONFIG points at an explicit file
	cfg, err := config.Load(os.Getenv("PDOK_SERVICES_CONFIG"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger := cfg.NewLogger()
	slog.SetDefault(logger) // Set as default logger for the application

	svc, err := services.New(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}

	app := NewApp(cfg, logger, svc)

	var g run.Group
	g.Add(app.Run, func(error) { app.Shutdown() })
	g.Add(run.SignalHandler(context.Background(), os.Interrupt, syscall.SIGTERM))

	if err := g.Run(); err != nil {
		var sigErr run.SignalError
		if errors.As(err, &sigErr) {
			logger.Info("server stopped", "signal", sigErr.Signal.String())
			return
		}
		logger.Error("server failed", "error", err)
		log.Fatal(err)
	}
}
