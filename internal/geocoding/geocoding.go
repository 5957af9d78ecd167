package geocoding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/arbakker/pdok-services/internal/providers/locatieserver"
	"github.com/arbakker/pdok-services/internal/types"

	"github.com/paulmach/orb"
)

// ErrEmptyQuery is returned by Geocode for a blank query.
var ErrEmptyQuery = errors.New("query is empty")

// Service resolves addresses and place names to locations and back
type Service interface {
	// Geocode returns the best match for a free text query, nil when there is none
	Geocode(ctx context.Context, req GeocodeRequest) (*types.LocationInfo, error)
	// ReverseGeocode returns the record nearest to a WGS84 point, nil when there is none
	ReverseGeocode(ctx context.Context, req ReverseRequest) (*types.LocationInfo, error)
	Search(ctx context.Context, query string, filter locatieserver.TypeFilter, rows int) ([]locatieserver.Doc, error)
	Suggest(ctx context.Context, query string, filter locatieserver.TypeFilter, rows int) ([]locatieserver.Doc, error)
	Lookup(ctx context.Context, id string, proj locatieserver.Projection) (*locatieserver.Doc, error)
}

// SearchProvider defines the interface for forward geocoding providers
type SearchProvider interface {
	Free(ctx context.Context, query string, filter locatieserver.TypeFilter, rows int) ([]locatieserver.Doc, error)
	Suggest(ctx context.Context, query string, filter locatieserver.TypeFilter, rows int) ([]locatieserver.Doc, error)
	Lookup(ctx context.Context, id string, proj locatieserver.Projection) (*locatieserver.Doc, error)
}

// ReverseGeocodeProvider defines the interface for reverse geocoding providers
type ReverseGeocodeProvider interface {
	Reverse(ctx context.Context, lon, lat float64, filter locatieserver.TypeFilter, rows int) ([]locatieserver.Doc, error)
}

type GeocodeRequest struct {
	Query string
	// ResultType restricts the search; empty searches every type.
	ResultType locatieserver.ResultType
	// ActualGeometry replaces the centroid with the full geometry from a
	// lookup. Ignored for point types.
	ActualGeometry bool
	// ScoreThreshold rejects a best match scoring at or below it.
	ScoreThreshold *float64
}

type ReverseRequest struct {
	Lon float64
	Lat float64
	// ResultType restricts the search; empty leaves it to the service.
	ResultType locatieserver.ResultType
	// DistanceThreshold rejects a nearest record further away, in metres.
	DistanceThreshold *float64
}

// geocodingService implements the Service interface
type geocodingService struct {
	searchProvider  SearchProvider
	reverseProvider ReverseGeocodeProvider
	logger          *slog.Logger
}

// NewGeocodingService creates a service backed by the Locatieserver client
func NewGeocodingService(client *locatieserver.Client, logger *slog.Logger) Service {
	return NewGeocodingServiceWithProviders(client, client, logger)
}

// NewGeocodingServiceWithProviders creates a new geocoding service with custom providers
// This is useful for testing with mock providers
func NewGeocodingServiceWithProviders(
	searchProvider SearchProvider,
	reverseProvider ReverseGeocodeProvider,
	logger *slog.Logger,
) Service {
	return &geocodingService{
		searchProvider:  searchProvider,
		reverseProvider: reverseProvider,
		logger:          logger.With("component", "geocoding"),
	}
}

func (s *geocodingService) Geocode(ctx context.Context, req GeocodeRequest) (*types.LocationInfo, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, ErrEmptyQuery
	}

	docs, err := s.searchProvider.Free(ctx, req.Query, filterFor(req.ResultType), locatieserver.DefaultRows)
	if err != nil {
		return nil, fmt.Errorf("failed to search %q: %w", req.Query, err)
	}
	if len(docs) == 0 {
		s.logger.Debug("no results", "query", req.Query)
		return nil, nil
	}

	best := docs[0]
	if req.ScoreThreshold != nil && best.Score <= *req.ScoreThreshold {
		s.logger.Debug("best match below score threshold",
			"query", req.Query,
			"score", best.Score,
			"threshold", *req.ScoreThreshold,
		)
		return nil, nil
	}

	geom, err := s.geometry(ctx, req, best)
	if err != nil {
		return nil, err
	}

	return &types.LocationInfo{
		ID:       best.ID,
		Type:     string(best.Type),
		Name:     best.Weergavenaam,
		Score:    best.Score,
		Geometry: geom,
	}, nil
}

// geometry returns the centroid of doc, or its full geometry in EPSG:4326
// when requested for a non-point type.
func (s *geocodingService) geometry(ctx context.Context, req GeocodeRequest, doc locatieserver.Doc) (orb.Geometry, error) {
	if !req.ActualGeometry || req.ResultType.PointLike() {
		return doc.CentroidLL()
	}

	full, err := s.searchProvider.Lookup(ctx, doc.ID, locatieserver.ProjectionWGS84)
	if err != nil {
		return nil, fmt.Errorf("failed to lookup object with id %s: %w", doc.ID, err)
	}
	return full.Geometry(locatieserver.ProjectionWGS84)
}

func (s *geocodingService) ReverseGeocode(ctx context.Context, req ReverseRequest) (*types.LocationInfo, error) {
	docs, err := s.reverseProvider.Reverse(ctx, req.Lon, req.Lat, filterFor(req.ResultType), 0)
	if err != nil {
		return nil, fmt.Errorf("failed to reverse geocode (%g, %g): %w", req.Lon, req.Lat, err)
	}
	if len(docs) == 0 {
		return nil, nil
	}

	nearest := docs[0]
	if req.DistanceThreshold != nil && nearest.Afstand > *req.DistanceThreshold {
		s.logger.Debug("nearest record beyond distance threshold",
			"id", nearest.ID,
			"distance", nearest.Afstand,
			"threshold", *req.DistanceThreshold,
		)
		return nil, nil
	}

	return &types.LocationInfo{
		ID:       nearest.ID,
		Type:     string(nearest.Type),
		Name:     nearest.Weergavenaam,
		Score:    nearest.Score,
		Distance: nearest.Afstand,
	}, nil
}

func (s *geocodingService) Search(ctx context.Context, query string, filter locatieserver.TypeFilter, rows int) ([]locatieserver.Doc, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	return s.searchProvider.Free(ctx, query, filter, rows)
}

func (s *geocodingService) Suggest(ctx context.Context, query string, filter locatieserver.TypeFilter, rows int) ([]locatieserver.Doc, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	return s.searchProvider.Suggest(ctx, query, filter, rows)
}

func (s *geocodingService) Lookup(ctx context.Context, id string, proj locatieserver.Projection) (*locatieserver.Doc, error) {
	return s.searchProvider.Lookup(ctx, id, proj)
}

func filterFor(t locatieserver.ResultType) locatieserver.TypeFilter {
	if t == "" {
		return locatieserver.TypeFilter{}
	}
	return locatieserver.NewTypeFilter(t)
}
