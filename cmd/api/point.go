package main

import (
	"context"

	"github.com/arbakker/pdok-services/internal/crs"
	"github.com/arbakker/pdok-services/internal/location"
	"github.com/arbakker/pdok-services/internal/providers/locatieserver"

	"github.com/danielgtaylor/huma/v2"
)

// PointInput defines the query parameters for the point endpoint
type PointInput struct {
	Lon      float64 `query:"lon" required:"true" minimum:"-180" maximum:"180" doc:"Longitude in decimal degrees" example:"5.1214"`
	Lat      float64 `query:"lat" required:"true" minimum:"-90" maximum:"90" doc:"Latitude in decimal degrees" example:"52.0907"`
	Coverage string  `query:"coverage" default:"dtm_05m" doc:"AHN coverage id"`
	Type     string  `query:"type" default:"adres" doc:"Result type of the nearest record"`
}

// PointOutput represents everything known about a single point
type PointOutput struct {
	Body struct {
		Lon       float64   `json:"lon"`
		Lat       float64   `json:"lat"`
		Location  *Location `json:"location" doc:"Nearest record, null when there is none"`
		Coverage  string    `json:"coverage"`
		CRS       string    `json:"crs" doc:"Native CRS of the coverage"`
		X         float64   `json:"x"`
		Y         float64   `json:"y"`
		Elevation *float64  `json:"elevation" doc:"Elevation in metres, null where the coverage has no data"`
	}
}

func (app *App) handlePoint(ctx context.Context, input *PointInput) (*PointOutput, error) {
	rt, err := locatieserver.ParseResultType(input.Type)
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}

	info, err := app.locationService.GetPointInfo(ctx, location.PointRequest{
		Lon:        input.Lon,
		Lat:        input.Lat,
		CoverageID: input.Coverage,
		ResultType: rt,
	})
	if err != nil {
		return nil, app.apiError("get point info", err, "lon", input.Lon, "lat", input.Lat)
	}

	resp := &PointOutput{}
	resp.Body.Lon = info.Coordinates.X
	resp.Body.Lat = info.Coordinates.Y
	resp.Body.Location = toLocation(info.Location)
	resp.Body.Coverage = info.Elevation.Coverage
	resp.Body.CRS = crs.Name(info.Elevation.Coordinates.EPSG)
	resp.Body.X = info.Elevation.Coordinates.X
	resp.Body.Y = info.Elevation.Coordinates.Y
	resp.Body.Elevation = info.Elevation.Meters
	return resp, nil
}
