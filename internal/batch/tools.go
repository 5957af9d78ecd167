package batch

import (
	"context"
	"fmt"
	"strings"

	"github.com/arbakker/pdok-services/internal/elevation"
	"github.com/arbakker/pdok-services/internal/geocoding"
	"github.com/arbakker/pdok-services/internal/providers/locatieserver"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/spf13/cast"
)

const (
	wgs84 = 4326

	ToolGeocoder        = "geocoder"
	ToolReverseGeocoder = "reverse-geocoder"
	ToolElevation       = "elevation"

	displayNameField      = "weergavenaam"
	defaultElevationField = "elevation"
	xField, yField        = "x", "y"
)

// Transformer reprojects coordinates between two fixed CRSs.
type Transformer interface {
	Point(p orb.Point) (orb.Point, error)
	Geometry(g orb.Geometry) (orb.Geometry, error)
	Close()
}

// TransformerFactory creates a Transformer from src to dst EPSG codes.
type TransformerFactory func(src, dst int) (Transformer, error)

type GeocoderParams struct {
	SourceField    string
	ResultType     locatieserver.ResultType
	TargetEPSG     int
	ActualGeometry bool
	AddXY          bool
	AddDisplayName bool
	ScoreThreshold *float64
}

func (p GeocoderParams) Validate() error {
	if p.SourceField == "" {
		return fmt.Errorf("source field is required")
	}
	for _, t := range locatieserver.GeocoderResultTypes() {
		if p.ResultType == t {
			return nil
		}
	}
	return fmt.Errorf("result type %q is not supported by the geocoder", p.ResultType)
}

type ReverseGeocoderParams struct {
	ResultType        locatieserver.ResultType
	DistanceThreshold *float64
	// AttributeName defaults to the result type.
	AttributeName string
}

type ElevationParams struct {
	CoverageID string
	// AttributeName defaults to "elevation".
	AttributeName string
	TargetEPSG    int
}

// Tools runs the processing tools against the geocoding and elevation
// services.
type Tools struct {
	runner       *Runner
	geocoder     geocoding.Service
	elevation    elevation.Service
	transformers TransformerFactory
}

func NewTools(runner *Runner, geocoder geocoding.Service, elevation elevation.Service, transformers TransformerFactory) *Tools {
	return &Tools{
		runner:       runner,
		geocoder:     geocoder,
		elevation:    elevation,
		transformers: transformers,
	}
}

// Geocode looks up the value of the source field of every row and writes the
// best match as a feature in the target CRS. Rows with an empty source value
// or without an acceptable match are left out.
func (t *Tools) Geocode(ctx context.Context, in *Layer, params GeocoderParams) (*Layer, error) {
	if err := params.Validate(); err != nil {
		return nil, &ProcessingError{Tool: ToolGeocoder, Err: err}
	}
	if !in.HasField(params.SourceField) {
		return nil, &ProcessingError{Tool: ToolGeocoder, Err: fmt.Errorf("source field %q not found in input layer", params.SourceField)}
	}

	target := epsgOrDefault(params.TargetEPSG)
	toTarget, err := t.transformers(wgs84, target)
	if err != nil {
		return nil, &ProcessingError{Tool: ToolGeocoder, Err: err}
	}
	defer toTarget.Close()

	// Added fields that already exist in the input are overwritten in place.
	out := &Layer{Fields: append([]string{}, in.Fields...), EPSG: target}
	if params.AddXY {
		out.addField(xField)
		out.addField(yField)
	}
	if params.AddDisplayName {
		out.addField(displayNameField)
	}

	features, err := t.runner.Run(ctx, ToolGeocoder, in.Features, func(ctx context.Context, _ int, f Feature) (*Feature, error) {
		query, err := cast.ToStringE(f.Properties[params.SourceField])
		if err != nil || strings.TrimSpace(query) == "" {
			return nil, nil
		}

		loc, err := t.geocoder.Geocode(ctx, geocoding.GeocodeRequest{
			Query:          query,
			ResultType:     params.ResultType,
			ActualGeometry: params.ActualGeometry,
			ScoreThreshold: params.ScoreThreshold,
		})
		if err != nil || loc == nil {
			return nil, err
		}

		geom, err := toTarget.Geometry(loc.Geometry)
		if err != nil {
			return nil, err
		}

		props := copyProperties(f.Properties)
		if params.AddXY {
			centroid, _ := planar.CentroidArea(geom)
			props[xField] = centroid.X()
			props[yField] = centroid.Y()
		}
		if params.AddDisplayName {
			props[displayNameField] = loc.Name
		}
		return &Feature{Geometry: geom, Properties: props}, nil
	})
	if err != nil {
		return nil, err
	}
	out.Features = features
	return out, nil
}

// ReverseGeocode adds the name of the nearest record to every point. The
// output keeps the input geometry and CRS.
func (t *Tools) ReverseGeocode(ctx context.Context, in *Layer, params ReverseGeocoderParams) (*Layer, error) {
	rt, err := locatieserver.ParseResultType(string(params.ResultType))
	if err != nil {
		return nil, &ProcessingError{Tool: ToolReverseGeocoder, Err: err}
	}
	params.ResultType = rt
	attr := params.AttributeName
	if attr == "" {
		attr = string(params.ResultType)
	}
	if in.HasField(attr) {
		return nil, &ProcessingError{Tool: ToolReverseGeocoder, Err: fmt.Errorf(
			"target attribute name %s already exists in input layer, supply a different target attribute name", attr)}
	}

	toWGS84, err := t.transformers(epsgOrDefault(in.EPSG), wgs84)
	if err != nil {
		return nil, &ProcessingError{Tool: ToolReverseGeocoder, Err: err}
	}
	defer toWGS84.Close()

	out := &Layer{Fields: append(append([]string{}, in.Fields...), attr), EPSG: in.EPSG}

	features, err := t.runner.Run(ctx, ToolReverseGeocoder, in.Features, func(ctx context.Context, _ int, f Feature) (*Feature, error) {
		p, err := pointOf(f)
		if err != nil {
			return nil, err
		}
		ll, err := toWGS84.Point(p)
		if err != nil {
			return nil, err
		}

		loc, err := t.geocoder.ReverseGeocode(ctx, geocoding.ReverseRequest{
			Lon:               ll.X(),
			Lat:               ll.Y(),
			ResultType:        params.ResultType,
			DistanceThreshold: params.DistanceThreshold,
		})
		if err != nil {
			return nil, err
		}

		props := copyProperties(f.Properties)
		props[attr] = ""
		if loc != nil {
			props[attr] = loc.Name
		}
		return &Feature{Geometry: f.Geometry, Properties: props}, nil
	})
	if err != nil {
		return nil, err
	}
	out.Features = features
	return out, nil
}

// Elevation samples the coverage at every point. Points are reprojected to
// the coverage's native CRS for sampling and written in the target CRS;
// cells without data give a null attribute.
func (t *Tools) Elevation(ctx context.Context, in *Layer, params ElevationParams) (*Layer, error) {
	if params.CoverageID == "" {
		return nil, &ProcessingError{Tool: ToolElevation, Err: fmt.Errorf("coverage id is required")}
	}
	attr := params.AttributeName
	if attr == "" {
		attr = defaultElevationField
	}
	if in.HasField(attr) {
		return nil, &ProcessingError{Tool: ToolElevation, Err: fmt.Errorf(
			"target attribute name %s already exists in input layer, supply a different target attribute name", attr)}
	}

	desc, err := t.elevation.Describe(ctx, params.CoverageID)
	if err != nil {
		return nil, &ProcessingError{Tool: ToolElevation, Err: err}
	}

	toNative, err := t.transformers(epsgOrDefault(in.EPSG), desc.EPSG)
	if err != nil {
		return nil, &ProcessingError{Tool: ToolElevation, Err: err}
	}
	defer toNative.Close()

	target := epsgOrDefault(params.TargetEPSG)
	toTarget, err := t.transformers(desc.EPSG, target)
	if err != nil {
		return nil, &ProcessingError{Tool: ToolElevation, Err: err}
	}
	defer toTarget.Close()

	out := &Layer{Fields: append(append([]string{}, in.Fields...), attr), EPSG: target}

	features, err := t.runner.Run(ctx, ToolElevation, in.Features, func(ctx context.Context, _ int, f Feature) (*Feature, error) {
		p, err := pointOf(f)
		if err != nil {
			return nil, err
		}
		native, err := toNative.Point(p)
		if err != nil {
			return nil, err
		}

		elev, err := t.elevation.Elevation(ctx, params.CoverageID, native.X(), native.Y())
		if err != nil {
			return nil, err
		}

		geom, err := toTarget.Point(native)
		if err != nil {
			return nil, err
		}

		props := copyProperties(f.Properties)
		props[attr] = nil
		if elev.HasData() {
			props[attr] = *elev.Meters
		}
		return &Feature{Geometry: geom, Properties: props}, nil
	})
	if err != nil {
		return nil, err
	}
	out.Features = features
	return out, nil
}

func pointOf(f Feature) (orb.Point, error) {
	switch g := f.Geometry.(type) {
	case orb.Point:
		return g, nil
	case orb.MultiPoint:
		if len(g) == 1 {
			return g[0], nil
		}
	case nil:
		return orb.Point{}, fmt.Errorf("feature has no geometry")
	}
	return orb.Point{}, fmt.Errorf("feature geometry is %s, expected Point", f.Geometry.GeoJSONType())
}

func copyProperties(props map[string]any) map[string]any {
	out := make(map[string]any, len(props)+3)
	for k, v := range props {
		out[k] = v
	}
	return out
}
