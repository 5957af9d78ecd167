package main

import (
	"context"

	"github.com/arbakker/pdok-services/internal/geocoding"
	"github.com/arbakker/pdok-services/internal/providers/locatieserver"
	"github.com/arbakker/pdok-services/internal/types"

	"github.com/danielgtaylor/huma/v2"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/orb/geojson"
)

// GeocodeInput defines the query parameters for the geocode endpoint
type GeocodeInput struct {
	Query          string  `query:"q" required:"true" doc:"Free text query" example:"Damrak 1 Amsterdam"`
	Type           string  `query:"type" enum:"adres,gemeente,postcode,weg,woonplaats" doc:"Result type, empty searches every type"`
	ActualGeometry bool    `query:"actual_geometry" doc:"Return the full geometry instead of the centroid"`
	ScoreThreshold float64 `query:"score_threshold" minimum:"0" doc:"Reject a best match scoring at or below this value, 0 disables"`
}

// ReverseGeocodeInput defines the query parameters for the reverse geocode endpoint
type ReverseGeocodeInput struct {
	Lon               float64 `query:"lon" required:"true" minimum:"-180" maximum:"180" doc:"Longitude in decimal degrees" example:"5.1214"`
	Lat               float64 `query:"lat" required:"true" minimum:"-90" maximum:"90" doc:"Latitude in decimal degrees" example:"52.0907"`
	Type              string  `query:"type" doc:"Result type, empty leaves the choice to the Locatieserver"`
	DistanceThreshold float64 `query:"distance_threshold" minimum:"0" doc:"Reject a nearest record further away in metres, 0 disables"`
}

// Location is the API representation of a resolved Locatieserver record
type Location struct {
	ID       string  `json:"id" doc:"Locatieserver record id"`
	Type     string  `json:"type" doc:"Record type"`
	Name     string  `json:"weergavenaam" doc:"Display name"`
	Score    float64 `json:"score,omitempty" doc:"Search score"`
	Distance float64 `json:"afstand,omitempty" doc:"Distance to the query point in metres"`
	Geometry any     `json:"geometry,omitempty" doc:"GeoJSON geometry in EPSG:4326"`
	WKT      string  `json:"wkt,omitempty" doc:"WKT geometry in EPSG:4326"`
}

// LocationOutput represents the result of a (reverse) geocode; Location is
// null when nothing matched
type LocationOutput struct {
	Body struct {
		Location *Location `json:"location"`
	}
}

func (app *App) handleGeocode(ctx context.Context, input *GeocodeInput) (*LocationOutput, error) {
	req := geocoding.GeocodeRequest{
		Query:          input.Query,
		ActualGeometry: input.ActualGeometry,
	}
	if input.Type != "" {
		t, err := locatieserver.ParseResultType(input.Type)
		if err != nil {
			return nil, huma.Error400BadRequest(err.Error())
		}
		req.ResultType = t
	}
	if input.ScoreThreshold > 0 {
		req.ScoreThreshold = &input.ScoreThreshold
	}

	loc, err := app.services.Geocoder.Geocode(ctx, req)
	if err != nil {
		return nil, app.apiError("geocode", err, "query", input.Query)
	}

	resp := &LocationOutput{}
	resp.Body.Location = toLocation(loc)
	return resp, nil
}

func (app *App) handleReverseGeocode(ctx context.Context, input *ReverseGeocodeInput) (*LocationOutput, error) {
	req := geocoding.ReverseRequest{Lon: input.Lon, Lat: input.Lat}
	if input.Type != "" {
		t, err := locatieserver.ParseResultType(input.Type)
		if err != nil {
			return nil, huma.Error400BadRequest(err.Error())
		}
		req.ResultType = t
	}
	if input.DistanceThreshold > 0 {
		req.DistanceThreshold = &input.DistanceThreshold
	}

	loc, err := app.services.Geocoder.ReverseGeocode(ctx, req)
	if err != nil {
		return nil, app.apiError("reverse geocode", err, "lon", input.Lon, "lat", input.Lat)
	}

	resp := &LocationOutput{}
	resp.Body.Location = toLocation(loc)
	return resp, nil
}

func toLocation(info *types.LocationInfo) *Location {
	if info == nil {
		return nil
	}
	loc := &Location{
		ID:       info.ID,
		Type:     info.Type,
		Name:     info.Name,
		Score:    info.Score,
		Distance: info.Distance,
	}
	if info.Geometry != nil {
		loc.Geometry = geojson.NewGeometry(info.Geometry)
		loc.WKT = wkt.MarshalString(info.Geometry)
	}
	return loc
}
