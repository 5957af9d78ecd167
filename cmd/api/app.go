package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/arbakker/pdok-services/internal/config"
	"github.com/arbakker/pdok-services/internal/location"
	"github.com/arbakker/pdok-services/internal/services"
	"github.com/arbakker/pdok-services/internal/version"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humagin"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 10 * time.Second

// App encapsulates application dependencies
type App struct {
	router          *gin.Engine
	api             huma.API
	logger          *slog.Logger
	services        *services.Services
	locationService location.Service
	server          *http.Server
}

// NewApp creates a new application with injected dependencies
func NewApp(cfg *config.Config, logger *slog.Logger, svc *services.Services) *App {
	// Set Gin mode from configuration
	gin.SetMode(cfg.Server.GinMode)

	router := gin.New()
	router.Use(gin.Recovery())

	// Create Huma API on top of gin
	humaConfig := huma.DefaultConfig("PDOK Services API", version.VERSION)
	humaConfig.Info.Description = "Geocoding and elevation lookups against the PDOK Locatieserver and AHN coverages"
	humaConfig.Servers = []*huma.Server{
		{URL: "http://localhost" + cfg.GetServerAddr(), Description: "Development server"},
	}

	toCoverageCRS := func(src, dst int) (location.Transformer, error) {
		return svc.Transformers(src, dst)
	}

	app := &App{
		router:          router,
		api:             humagin.New(router, humaConfig),
		logger:          logger.With("component", "api"),
		services:        svc,
		locationService: location.NewLocationService(svc.Geocoder, svc.Elevation, toCoverageCRS, logger),
		server: &http.Server{
			Addr:              cfg.GetServerAddr(),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}

	// Prometheus metrics
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(svc.Registry, promhttp.HandlerOpts{})))

	// Register routes
	app.registerRoutes()

	app.logger.Info("application initialized")
	return app
}

// Run starts the HTTP server and blocks until Shutdown is called
func (app *App) Run() error {
	app.logger.Info("starting server", "addr", app.server.Addr)
	if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for running ones
func (app *App) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("server shutdown failed", "error", err)
	}
}
