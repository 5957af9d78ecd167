package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/arbakker/pdok-services/internal/batch"
	"github.com/arbakker/pdok-services/internal/config"
	"github.com/arbakker/pdok-services/internal/geocoding"
	"github.com/arbakker/pdok-services/internal/metrics"
	"github.com/arbakker/pdok-services/internal/providers/ahn"
	"github.com/arbakker/pdok-services/internal/providers/locatieserver"
	"github.com/arbakker/pdok-services/internal/serviceerr"
	"github.com/arbakker/pdok-services/internal/services"
	"github.com/arbakker/pdok-services/internal/types"

	"github.com/paulmach/orb"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockGeocoder struct {
	loc       *types.LocationInfo
	docs      []locatieserver.Doc
	err       error
	geocodeRq geocoding.GeocodeRequest
	reverseRq geocoding.ReverseRequest
	filter    locatieserver.TypeFilter
	proj      locatieserver.Projection
}

func (m *mockGeocoder) Geocode(_ context.Context, req geocoding.GeocodeRequest) (*types.LocationInfo, error) {
	m.geocodeRq = req
	return m.loc, m.err
}

func (m *mockGeocoder) ReverseGeocode(_ context.Context, req geocoding.ReverseRequest) (*types.LocationInfo, error) {
	m.reverseRq = req
	return m.loc, m.err
}

func (m *mockGeocoder) Search(_ context.Context, _ string, filter locatieserver.TypeFilter, _ int) ([]locatieserver.Doc, error) {
	m.filter = filter
	return m.docs, m.err
}

func (m *mockGeocoder) Suggest(_ context.Context, _ string, filter locatieserver.TypeFilter, _ int) ([]locatieserver.Doc, error) {
	m.filter = filter
	return m.docs, m.err
}

func (m *mockGeocoder) Lookup(_ context.Context, id string, proj locatieserver.Projection) (*locatieserver.Doc, error) {
	m.proj = proj
	if m.err != nil {
		return nil, m.err
	}
	return &locatieserver.Doc{ID: id}, nil
}

type mockElevation struct {
	meters      *float64
	err         error
	describeErr error
}

func (m *mockElevation) Elevation(_ context.Context, coverageID string, x, y float64) (*types.Elevation, error) {
	if m.err != nil {
		return nil, m.err
	}
	e := types.NewElevation(coverageID, types.NewCoords(x, y, 28992), m.meters)
	return &e, nil
}

func (m *mockElevation) CoverageIDs(context.Context) ([]string, error) {
	return []string{"dsm_05m", "dtm_05m"}, m.err
}

func (m *mockElevation) Describe(_ context.Context, id string) (*ahn.CoverageDescription, error) {
	if m.describeErr != nil {
		return nil, m.describeErr
	}
	return &ahn.CoverageDescription{ID: id, EPSG: 28992}, nil
}

type identity struct{}

func (identity) Point(p orb.Point) (orb.Point, error)          { return p, nil }
func (identity) Geometry(g orb.Geometry) (orb.Geometry, error) { return g, nil }
func (identity) Close()                                        {}

func newTestApp(t *testing.T, g *mockGeocoder, e *mockElevation) *App {
	t.Helper()
	reg := prometheus.NewRegistry()
	cfg := &config.Config{Server: config.ServerConfig{Port: 8080, GinMode: "test"}}
	svc := &services.Services{
		Geocoder:  g,
		Elevation: e,
		Transformers: func(src, dst int) (batch.Transformer, error) {
			return identity{}, nil
		},
		Metrics:  metrics.New(reg),
		Registry: reg,
	}
	return NewApp(cfg, slog.Default(), svc)
}

func get(t *testing.T, app *App, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	app.router.ServeHTTP(rec, req)
	return rec
}

func TestPing(t *testing.T) {
	app := newTestApp(t, &mockGeocoder{}, &mockElevation{})

	rec := get(t, app, "/ping")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"message":"pong"`)
	assert.Contains(t, rec.Body.String(), `"version":"dev"`)
}

func TestGeocode(t *testing.T) {
	geocoder := &mockGeocoder{loc: &types.LocationInfo{
		ID:       "wpl-1",
		Type:     "woonplaats",
		Name:     "Utrecht, Utrecht, Utrecht",
		Score:    9.5,
		Geometry: orb.Point{5.1, 52.1},
	}}
	app := newTestApp(t, geocoder, &mockElevation{})

	rec := get(t, app, "/geocode?q=Utrecht&type=woonplaats&score_threshold=2")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Location struct {
			Name     string         `json:"weergavenaam"`
			WKT      string         `json:"wkt"`
			Geometry map[string]any `json:"geometry"`
		} `json:"location"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Utrecht, Utrecht, Utrecht", body.Location.Name)
	assert.Equal(t, "POINT(5.1 52.1)", body.Location.WKT)
	assert.Equal(t, "Point", body.Location.Geometry["type"])

	assert.Equal(t, locatieserver.Woonplaats, geocoder.geocodeRq.ResultType)
	require.NotNil(t, geocoder.geocodeRq.ScoreThreshold)
	assert.Equal(t, 2.0, *geocoder.geocodeRq.ScoreThreshold)
}

func TestGeocode_NoMatch(t *testing.T) {
	app := newTestApp(t, &mockGeocoder{}, &mockElevation{})

	rec := get(t, app, "/geocode?q=nowhere")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"location":null`)
}

func TestReverseGeocode(t *testing.T) {
	geocoder := &mockGeocoder{loc: &types.LocationInfo{ID: "adr-1", Type: "adres", Name: "Domplein 1", Distance: 12.5}}
	app := newTestApp(t, geocoder, &mockElevation{})

	rec := get(t, app, "/reverse-geocode?lon=5.12&lat=52.09&type=adres&distance_threshold=50")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"weergavenaam":"Domplein 1"`)

	assert.Equal(t, 5.12, geocoder.reverseRq.Lon)
	assert.Equal(t, 52.09, geocoder.reverseRq.Lat)
	assert.Equal(t, locatieserver.Adres, geocoder.reverseRq.ResultType)
	require.NotNil(t, geocoder.reverseRq.DistanceThreshold)
	assert.Equal(t, 50.0, *geocoder.reverseRq.DistanceThreshold)
}

func TestLocatieserverEndpoints(t *testing.T) {
	geocoder := &mockGeocoder{docs: []locatieserver.Doc{{ID: "wpl-1", Weergavenaam: "Utrecht"}}}
	app := newTestApp(t, geocoder, &mockElevation{})

	rec := get(t, app, "/locatieserver/free?q=utrecht&type=gemeente,woonplaats")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"weergavenaam":"Utrecht"`)
	assert.Equal(t, "type:(gemeente OR woonplaats)", geocoder.filter.String())

	rec = get(t, app, "/locatieserver/suggest?q=utr")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, locatieserver.TypeFilter{}.String(), geocoder.filter.String())

	rec = get(t, app, "/locatieserver/lookup/adr-1?crs=EPSG:28992")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"id":"adr-1"`)
	assert.Equal(t, locatieserver.ProjectionRD, geocoder.proj)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		err        error
		wantStatus int
	}{
		{
			name:       "lookup not found",
			target:     "/locatieserver/lookup/unknown",
			err:        &serviceerr.LookupNotFoundError{ID: "unknown"},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "upstream status",
			target:     "/locatieserver/free?q=utrecht",
			err:        &serviceerr.UnexpectedStatusError{URL: "https://api.pdok.nl", StatusCode: 503},
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "network failure",
			target:     "/geocode?q=utrecht",
			err:        &serviceerr.NetworkError{URL: "https://api.pdok.nl", Err: context.DeadlineExceeded},
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "empty query",
			target:     "/locatieserver/suggest?q=%20",
			err:        geocoding.ErrEmptyQuery,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown result type",
			target:     "/reverse-geocode?lon=5&lat=52&type=land",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown type in filter",
			target:     "/locatieserver/free?q=utrecht&type=adres,land",
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t, &mockGeocoder{err: tt.err}, &mockElevation{})
			rec := get(t, app, tt.target)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
		})
	}
}

func TestElevation(t *testing.T) {
	meters := 3.25
	app := newTestApp(t, &mockGeocoder{}, &mockElevation{meters: &meters})

	rec := get(t, app, "/elevation?coverage=dsm_05m&x=155000&y=463000")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Coverage  string   `json:"coverage"`
		X         float64  `json:"x"`
		Y         float64  `json:"y"`
		CRS       string   `json:"crs"`
		Elevation *float64 `json:"elevation"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "dsm_05m", body.Coverage)
	assert.Equal(t, 155000.0, body.X)
	assert.Equal(t, 463000.0, body.Y)
	assert.Equal(t, "EPSG:28992", body.CRS)
	require.NotNil(t, body.Elevation)
	assert.Equal(t, 3.25, *body.Elevation)
}

func TestElevation_NoData(t *testing.T) {
	app := newTestApp(t, &mockGeocoder{}, &mockElevation{})

	rec := get(t, app, "/elevation?x=155000&y=463000")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"elevation":null`)
	assert.Contains(t, rec.Body.String(), `"coverage":"dtm_05m"`)
}

func TestElevation_Errors(t *testing.T) {
	app := newTestApp(t, &mockGeocoder{}, &mockElevation{err: &serviceerr.MissingCoverageError{CoverageID: "dtm_05m", Parts: 1}})

	rec := get(t, app, "/elevation?x=155000&y=463000")
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	rec = get(t, app, "/elevation?x=155000&y=463000&crs=RD")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestElevation_UnknownCoverage(t *testing.T) {
	upstream := &serviceerr.UnexpectedStatusError{URL: "https://service.pdok.nl/rws/ahn/wcs/v1_0", StatusCode: http.StatusNotFound}
	tests := []struct {
		name string
		err  error
	}{
		{name: "not in description", err: &serviceerr.UnknownCoverageError{CoverageID: "dtm_1m"}},
		{name: "upstream not found", err: fmt.Errorf("failed to describe coverage dtm_1m: %w",
			&serviceerr.UnknownCoverageError{CoverageID: "dtm_1m", Err: upstream})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t, &mockGeocoder{}, &mockElevation{describeErr: tt.err})

			rec := get(t, app, "/elevation?coverage=dtm_1m&x=155000&y=463000")
			assert.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())
			assert.Contains(t, rec.Body.String(), "unknown coverage dtm_1m")
		})
	}
}

func TestCoverages(t *testing.T) {
	app := newTestApp(t, &mockGeocoder{}, &mockElevation{})

	rec := get(t, app, "/coverages")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"coverages":["dsm_05m","dtm_05m"]`)
}

func TestMetricsEndpoint(t *testing.T) {
	app := newTestApp(t, &mockGeocoder{}, &mockElevation{})

	rec := get(t, app, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPoint(t *testing.T) {
	meters := 0.5
	geocoder := &mockGeocoder{loc: &types.LocationInfo{ID: "adr-1", Type: "adres", Name: "Domplein 29"}}
	app := newTestApp(t, geocoder, &mockElevation{meters: &meters})

	rec := get(t, app, "/point?lon=5.1214&lat=52.0907&type=adres")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := rec.Body.String()
	assert.Contains(t, body, `"weergavenaam":"Domplein 29"`)
	assert.Contains(t, body, `"coverage":"dtm_05m"`)
	assert.Contains(t, body, `"crs":"EPSG:28992"`)
	assert.Contains(t, body, `"elevation":0.5`)
	assert.Equal(t, locatieserver.Adres, geocoder.reverseRq.ResultType)
}

func TestPoint_UpstreamError(t *testing.T) {
	geocoder := &mockGeocoder{err: &serviceerr.NetworkError{URL: "https://api.pdok.nl", Err: context.DeadlineExceeded}}
	app := newTestApp(t, geocoder, &mockElevation{})

	rec := get(t, app, "/point?lon=5.1214&lat=52.0907")
	assert.Equal(t, http.StatusBadGateway, rec.Code, rec.Body.String())
}
