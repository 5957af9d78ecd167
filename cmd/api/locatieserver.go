package main

import (
	"context"
	"strings"

	"github.com/arbakker/pdok-services/internal/providers/locatieserver"

	"github.com/danielgtaylor/huma/v2"
)

// SearchInput defines the query parameters of the free and suggest endpoints
type SearchInput struct {
	Query string `query:"q" required:"true" doc:"Search query" example:"Damrak 1 Amsterdam"`
	Types string `query:"type" doc:"Comma separated result types, empty selects every type" example:"adres,woonplaats"`
	Rows  int    `query:"rows" default:"10" minimum:"1" maximum:"100" doc:"Maximum number of records"`
}

// DocsOutput represents a list of Locatieserver records
type DocsOutput struct {
	Body struct {
		Docs []locatieserver.Doc `json:"docs" doc:"Matching records, best match first"`
	}
}

// LookupInput defines the parameters of the lookup endpoint
type LookupInput struct {
	ID  string `path:"id" doc:"Locatieserver record id" example:"adr-bf54db721969487ed33ba84d9973c702"`
	CRS string `query:"crs" default:"EPSG:4326" enum:"EPSG:4326,EPSG:28992" doc:"CRS of the returned geometry"`
}

// DocOutput represents a single Locatieserver record
type DocOutput struct {
	Body *locatieserver.Doc
}

func (app *App) handleFree(ctx context.Context, input *SearchInput) (*DocsOutput, error) {
	filter, err := parseTypeFilter(input.Types)
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}

	docs, err := app.services.Geocoder.Search(ctx, input.Query, filter, input.Rows)
	if err != nil {
		return nil, app.apiError("search", err, "query", input.Query)
	}

	resp := &DocsOutput{}
	resp.Body.Docs = docs
	return resp, nil
}

func (app *App) handleSuggest(ctx context.Context, input *SearchInput) (*DocsOutput, error) {
	filter, err := parseTypeFilter(input.Types)
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}

	docs, err := app.services.Geocoder.Suggest(ctx, input.Query, filter, input.Rows)
	if err != nil {
		return nil, app.apiError("suggest", err, "query", input.Query)
	}

	resp := &DocsOutput{}
	resp.Body.Docs = docs
	return resp, nil
}

func (app *App) handleLookup(ctx context.Context, input *LookupInput) (*DocOutput, error) {
	proj := locatieserver.ProjectionWGS84
	if input.CRS == "EPSG:28992" {
		proj = locatieserver.ProjectionRD
	}

	doc, err := app.services.Geocoder.Lookup(ctx, input.ID, proj)
	if err != nil {
		return nil, app.apiError("lookup", err, "id", input.ID)
	}
	return &DocOutput{Body: doc}, nil
}

// parseTypeFilter parses a comma separated list of result types
func parseTypeFilter(s string) (locatieserver.TypeFilter, error) {
	var types []locatieserver.ResultType
	for _, name := range strings.Split(s, ",") {
		if strings.TrimSpace(name) == "" {
			continue
		}
		t, err := locatieserver.ParseResultType(name)
		if err != nil {
			return locatieserver.TypeFilter{}, err
		}
		types = append(types, t)
	}
	return locatieserver.NewTypeFilter(types...), nil
}
