package main

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// registerRoutes sets up all API endpoints
func (app *App) registerRoutes() {
	// Health check endpoint
	huma.Register(app.api, huma.Operation{
		OperationID: "ping",
		Method:      http.MethodGet,
		Path:        "/ping",
		Summary:     "Ping health check",
		Description: "Check if the API is running",
		Tags:        []string{"health"},
	}, app.handlePing)

	// Locatieserver passthrough endpoints
	huma.Register(app.api, huma.Operation{
		OperationID: "locatieserver-free",
		Method:      http.MethodGet,
		Path:        "/locatieserver/free",
		Summary:     "Free text search",
		Description: "Search the Locatieserver for records matching a free text query",
		Tags:        []string{"locatieserver"},
	}, app.handleFree)

	huma.Register(app.api, huma.Operation{
		OperationID: "locatieserver-suggest",
		Method:      http.MethodGet,
		Path:        "/locatieserver/suggest",
		Summary:     "Suggest records",
		Description: "Autocomplete suggestions for a partial query",
		Tags:        []string{"locatieserver"},
	}, app.handleSuggest)

	huma.Register(app.api, huma.Operation{
		OperationID: "locatieserver-lookup",
		Method:      http.MethodGet,
		Path:        "/locatieserver/lookup/{id}",
		Summary:     "Lookup a record",
		Description: "Fetch a single Locatieserver record including its full geometry",
		Tags:        []string{"locatieserver"},
	}, app.handleLookup)

	// Geocoding endpoints
	huma.Register(app.api, huma.Operation{
		OperationID: "geocode",
		Method:      http.MethodGet,
		Path:        "/geocode",
		Summary:     "Geocode a query",
		Description: "Return the best matching location for a free text query",
		Tags:        []string{"geocoding"},
	}, app.handleGeocode)

	huma.Register(app.api, huma.Operation{
		OperationID: "reverse-geocode",
		Method:      http.MethodGet,
		Path:        "/reverse-geocode",
		Summary:     "Reverse geocode a point",
		Description: "Return the record nearest to a WGS84 point",
		Tags:        []string{"geocoding"},
	}, app.handleReverseGeocode)

	// Elevation endpoints
	huma.Register(app.api, huma.Operation{
		OperationID: "elevation",
		Method:      http.MethodGet,
		Path:        "/elevation",
		Summary:     "Elevation at a point",
		Description: "Sample an AHN coverage at a point",
		Tags:        []string{"elevation"},
	}, app.handleElevation)

	huma.Register(app.api, huma.Operation{
		OperationID: "coverages",
		Method:      http.MethodGet,
		Path:        "/coverages",
		Summary:     "List coverages",
		Description: "List the AHN coverages that can be sampled",
		Tags:        []string{"elevation"},
	}, app.handleCoverages)

	// Point info endpoint
	huma.Register(app.api, huma.Operation{
		OperationID: "point",
		Method:      http.MethodGet,
		Path:        "/point",
		Summary:     "Describe a point",
		Description: "Return the nearest record and the elevation at a WGS84 point",
		Tags:        []string{"location"},
	}, app.handlePoint)
}
