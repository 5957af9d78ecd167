// Package elevation samples AHN coverages at single points.
package elevation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/arbakker/pdok-services/internal/coverage"
	"github.com/arbakker/pdok-services/internal/mimeparts"
	"github.com/arbakker/pdok-services/internal/providers/ahn"
	"github.com/arbakker/pdok-services/internal/serviceerr"
	"github.com/arbakker/pdok-services/internal/types"

	"golang.org/x/sync/singleflight"
)

// Service provides elevation data from the AHN coverages
type Service interface {
	// Elevation samples coverageID at x, y given in the coverage's native CRS
	Elevation(ctx context.Context, coverageID string, x, y float64) (*types.Elevation, error)
	CoverageIDs(ctx context.Context) ([]string, error)
	Describe(ctx context.Context, coverageID string) (*ahn.CoverageDescription, error)
}

// CoverageProvider defines the interface for WCS coverage providers
type CoverageProvider interface {
	CoverageIDs(ctx context.Context) ([]string, error)
	DescribeCoverage(ctx context.Context, id string) (*ahn.CoverageDescription, error)
	GetCoverage(ctx context.Context, id string, window coverage.Window) (*ahn.CoverageResponse, error)
}

type elevationService struct {
	provider CoverageProvider
	decoder  coverage.Decoder
	logger   *slog.Logger

	mu           sync.Mutex
	descriptions map[string]*ahn.CoverageDescription
	describing   singleflight.Group
}

// NewElevationService creates a service backed by the AHN client
func NewElevationService(client *ahn.Client, decoder coverage.Decoder, logger *slog.Logger) Service {
	return NewElevationServiceWithProviders(client, decoder, logger)
}

// NewElevationServiceWithProviders creates a new elevation service with a custom provider
// This is useful for testing with mock providers
func NewElevationServiceWithProviders(provider CoverageProvider, decoder coverage.Decoder, logger *slog.Logger) Service {
	return &elevationService{
		provider:     provider,
		decoder:      decoder,
		logger:       logger.With("component", "elevation"),
		descriptions: make(map[string]*ahn.CoverageDescription),
	}
}

func (s *elevationService) CoverageIDs(ctx context.Context) ([]string, error) {
	ids, err := s.provider.CoverageIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list coverages: %w", err)
	}
	return ids, nil
}

// Describe returns the grid description of coverageID. Descriptions are
// fetched once per coverage, also when rows are processed concurrently. A
// canceled caller stops waiting but does not cancel the shared request.
func (s *elevationService) Describe(ctx context.Context, coverageID string) (*ahn.CoverageDescription, error) {
	s.mu.Lock()
	desc, ok := s.descriptions[coverageID]
	s.mu.Unlock()
	if ok {
		return desc, nil
	}

	flightCtx := context.WithoutCancel(ctx)
	ch := s.describing.DoChan(coverageID, func() (any, error) {
		desc, err := s.provider.DescribeCoverage(flightCtx, coverageID)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.descriptions[coverageID] = desc
		s.mu.Unlock()
		return desc, nil
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("failed to describe coverage %s: %w", coverageID, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, fmt.Errorf("failed to describe coverage %s: %w", coverageID, res.Err)
		}
		return res.Val.(*ahn.CoverageDescription), nil
	}
}

func (s *elevationService) Elevation(ctx context.Context, coverageID string, x, y float64) (*types.Elevation, error) {
	desc, err := s.Describe(ctx, coverageID)
	if err != nil {
		return nil, err
	}

	window := coverage.NewWindow(desc.OriginX, desc.OriginY, desc.CellSize, x, y)
	resp, err := s.provider.GetCoverage(ctx, coverageID, window)
	if err != nil {
		return nil, fmt.Errorf("failed to get coverage %s: %w", coverageID, err)
	}

	content, err := s.extract(coverageID, resp)
	if err != nil {
		return nil, err
	}

	grid, err := s.decoder.Decode(content)
	if err != nil {
		return nil, fmt.Errorf("failed to decode coverage %s: %w", coverageID, err)
	}
	defer func() {
		if err := grid.Close(); err != nil {
			s.logger.Warn("failed to close coverage", "coverage", coverageID, "error", err)
		}
	}()

	v, err := coverage.Sample(grid, x, y)
	if err != nil {
		return nil, fmt.Errorf("failed to sample coverage %s at (%g, %g): %w", coverageID, x, y, err)
	}

	elevation := types.NewElevation(coverageID, types.NewCoords(x, y, desc.EPSG), coverage.Value(v))
	return &elevation, nil
}

// extract returns the GeoTIFF bytes of a GetCoverage response, which is
// either a multipart document or a bare image/tiff body.
func (s *elevationService) extract(coverageID string, resp *ahn.CoverageResponse) ([]byte, error) {
	switch {
	case strings.HasPrefix(resp.MediaType, "multipart/"):
		parts := mimeparts.Parse(resp.Body)
		s.logger.Debug("parsed coverage response", "coverage", coverageID, "parts", len(parts))

		content, err := coverage.Extract(parts)
		var missing *serviceerr.MissingCoverageError
		if errors.As(err, &missing) {
			missing.CoverageID = coverageID
		}
		return content, err
	case resp.MediaType == coverage.MediaTypeTIFF:
		return resp.Body, nil
	default:
		return nil, &serviceerr.UnexpectedContentTypeError{
			URL:      resp.URL,
			Got:      resp.ContentType,
			Expected: "multipart/related or " + coverage.MediaTypeTIFF,
		}
	}
}
