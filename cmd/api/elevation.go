package main

import (
	"context"

	"github.com/arbakker/pdok-services/internal/crs"

	"github.com/danielgtaylor/huma/v2"
	"github.com/paulmach/orb"
)

// ElevationInput defines the query parameters for the elevation endpoint
type ElevationInput struct {
	Coverage string  `query:"coverage" default:"dtm_05m" doc:"AHN coverage id" example:"dsm_05m"`
	X        float64 `query:"x" required:"true" doc:"X coordinate (easting or longitude)" example:"155000"`
	Y        float64 `query:"y" required:"true" doc:"Y coordinate (northing or latitude)" example:"463000"`
	CRS      string  `query:"crs" default:"EPSG:28992" doc:"CRS of x and y"`
}

// ElevationOutput represents an elevation sample
type ElevationOutput struct {
	Body struct {
		Coverage  string   `json:"coverage" doc:"Sampled coverage"`
		X         float64  `json:"x" doc:"X in the coverage's native CRS"`
		Y         float64  `json:"y" doc:"Y in the coverage's native CRS"`
		CRS       string   `json:"crs" doc:"Native CRS of the coverage"`
		Elevation *float64 `json:"elevation" doc:"Elevation in metres, null where the coverage has no data"`
	}
}

// CoveragesOutput represents the list of available coverages
type CoveragesOutput struct {
	Body struct {
		Coverages []string `json:"coverages" doc:"Coverage ids"`
	}
}

func (app *App) handleElevation(ctx context.Context, input *ElevationInput) (*ElevationOutput, error) {
	src, err := crs.ParseEPSG(input.CRS)
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}

	desc, err := app.services.Elevation.Describe(ctx, input.Coverage)
	if err != nil {
		return nil, app.apiError("describe coverage", err, "coverage", input.Coverage)
	}

	trn, err := app.services.Transformers(src, desc.EPSG)
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}
	defer trn.Close()

	native, err := trn.Point(orb.Point{input.X, input.Y})
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}

	elev, err := app.services.Elevation.Elevation(ctx, input.Coverage, native.X(), native.Y())
	if err != nil {
		return nil, app.apiError("get elevation", err, "coverage", input.Coverage, "x", native.X(), "y", native.Y())
	}

	resp := &ElevationOutput{}
	resp.Body.Coverage = elev.Coverage
	resp.Body.X = elev.Coordinates.X
	resp.Body.Y = elev.Coordinates.Y
	resp.Body.CRS = crs.Name(elev.Coordinates.EPSG)
	resp.Body.Elevation = elev.Meters
	return resp, nil
}

func (app *App) handleCoverages(ctx context.Context, input *struct{}) (*CoveragesOutput, error) {
	ids, err := app.services.Elevation.CoverageIDs(ctx)
	if err != nil {
		return nil, app.apiError("list coverages", err)
	}

	resp := &CoveragesOutput{}
	resp.Body.Coverages = ids
	return resp, nil
}
