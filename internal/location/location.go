// Package location answers "what is here" for a single coordinate by
// combining reverse geocoding with an elevation sample.
package location

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/arbakker/pdok-services/internal/elevation"
	"github.com/arbakker/pdok-services/internal/geocoding"
	"github.com/arbakker/pdok-services/internal/providers/locatieserver"
	"github.com/arbakker/pdok-services/internal/types"

	"github.com/paulmach/orb"
)

const wgs84 = 4326

// Service provides location and elevation data for a point
type Service interface {
	// GetPointInfo retrieves the nearest record and the elevation at a WGS84 coordinate
	GetPointInfo(ctx context.Context, req PointRequest) (*types.PointInfo, error)
}

type PointRequest struct {
	Lon float64
	Lat float64
	// CoverageID is the AHN coverage to sample
	CoverageID string
	// ResultType of the nearest record; empty leaves it to the Locatieserver
	ResultType locatieserver.ResultType
}

// Transformer reprojects points into the CRS of a coverage
type Transformer interface {
	Point(p orb.Point) (orb.Point, error)
	Close()
}

// TransformerFactory creates a Transformer from src to dst EPSG codes
type TransformerFactory func(src, dst int) (Transformer, error)

// locationService implements the Service interface
type locationService struct {
	geocoder     geocoding.Service
	elevation    elevation.Service
	transformers TransformerFactory
	logger       *slog.Logger
}

// NewLocationService creates a new location service on top of the geocoding
// and elevation services
func NewLocationService(
	geocoder geocoding.Service,
	elevation elevation.Service,
	transformers TransformerFactory,
	logger *slog.Logger,
) Service {
	return &locationService{
		geocoder:     geocoder,
		elevation:    elevation,
		transformers: transformers,
		logger:       logger.With("component", "location"),
	}
}

// GetPointInfo calls the Locatieserver and the coverage in parallel
func (s *locationService) GetPointInfo(ctx context.Context, req PointRequest) (*types.PointInfo, error) {
	var (
		wg           sync.WaitGroup
		elev         *types.Elevation
		loc          *types.LocationInfo
		elevationErr error
		locationErr  error
	)

	// Launch both lookups in parallel
	wg.Add(2)

	// Get elevation data
	go func() {
		defer wg.Done()
		elev, elevationErr = s.sample(ctx, req)
		if elevationErr != nil {
			elevationErr = fmt.Errorf("failed to get elevation: %w", elevationErr)
		}
	}()

	// Get location data
	go func() {
		defer wg.Done()
		loc, locationErr = s.geocoder.ReverseGeocode(ctx, geocoding.ReverseRequest{
			Lon:        req.Lon,
			Lat:        req.Lat,
			ResultType: req.ResultType,
		})
		if locationErr != nil {
			locationErr = fmt.Errorf("failed to get location: %w", locationErr)
		}
	}()

	// Wait for both calls to complete
	wg.Wait()

	if err := errors.Join(elevationErr, locationErr); err != nil {
		s.logger.Error("failed to get point info", "lon", req.Lon, "lat", req.Lat, "error", err)
		return nil, err
	}

	return &types.PointInfo{
		Coordinates: types.NewCoords(req.Lon, req.Lat, wgs84),
		Elevation:   *elev,
		Location:    loc,
	}, nil
}

// sample reprojects the point to the coverage CRS and reads the elevation there
func (s *locationService) sample(ctx context.Context, req PointRequest) (*types.Elevation, error) {
	desc, err := s.elevation.Describe(ctx, req.CoverageID)
	if err != nil {
		return nil, err
	}

	trn, err := s.transformers(wgs84, desc.EPSG)
	if err != nil {
		return nil, err
	}
	defer trn.Close()

	native, err := trn.Point(orb.Point{req.Lon, req.Lat})
	if err != nil {
		return nil, err
	}
	return s.elevation.Elevation(ctx, req.CoverageID, native.X(), native.Y())
}
