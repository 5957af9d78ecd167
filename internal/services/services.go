// Package services builds the PDOK clients and services from configuration.
package services

import (
	"fmt"
	"log/slog"

	"github.com/arbakker/pdok-services/internal/batch"
	"github.com/arbakker/pdok-services/internal/config"
	"github.com/arbakker/pdok-services/internal/crs"
	"github.com/arbakker/pdok-services/internal/elevation"
	"github.com/arbakker/pdok-services/internal/geocoding"
	"github.com/arbakker/pdok-services/internal/geotiff"
	"github.com/arbakker/pdok-services/internal/httpclient"
	"github.com/arbakker/pdok-services/internal/metrics"
	"github.com/arbakker/pdok-services/internal/providers/ahn"
	"github.com/arbakker/pdok-services/internal/providers/locatieserver"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Services holds everything the CLI and the API share
type Services struct {
	Geocoder     geocoding.Service
	Elevation    elevation.Service
	Transformers batch.TransformerFactory
	Metrics      *metrics.Metrics
	Registry     *prometheus.Registry
}

// New wires the Locatieserver and AHN clients into the geocoding and
// elevation services
func New(cfg *config.Config, logger *slog.Logger) (*Services, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	opts := func() httpclient.Options {
		return httpclient.Options{
			UserAgent:  cfg.PDOK.UserAgent,
			Timeout:    cfg.PDOK.Timeout,
			MaxRetries: cfg.PDOK.MaxRetries,
			Metrics:    m,
		}
	}

	lsClient := locatieserver.NewClient(
		cfg.PDOK.LocatieserverURL,
		httpclient.New("locatieserver", logger, opts()),
		logger,
	)
	ahnClient := ahn.NewClient(
		cfg.PDOK.AHNURL,
		httpclient.New("ahn", logger, opts()),
		logger,
	)

	decoder, err := geotiff.NewDecoder(logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize coverage decoder: %w", err)
	}

	return &Services{
		Geocoder:     geocoding.NewGeocodingService(lsClient, logger),
		Elevation:    elevation.NewElevationService(ahnClient, decoder, logger),
		Transformers: Transformers,
		Metrics:      m,
		Registry:     registry,
	}, nil
}

// Tools returns the processing tools running with the configured concurrency
func (s *Services) Tools(concurrency int, logger *slog.Logger) *batch.Tools {
	runner := batch.NewRunner(concurrency, s.Metrics, logger)
	return batch.NewTools(runner, s.Geocoder, s.Elevation, s.Transformers)
}

// Transformers creates GDAL-backed coordinate transformers
func Transformers(src, dst int) (batch.Transformer, error) {
	t, err := crs.NewTransformer(src, dst)
	if err != nil {
		return nil, err
	}
	return t, nil
}
