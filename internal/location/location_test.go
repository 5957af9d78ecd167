package location

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/arbakker/pdok-services/internal/geocoding"
	"github.com/arbakker/pdok-services/internal/providers/ahn"
	"github.com/arbakker/pdok-services/internal/providers/locatieserver"
	"github.com/arbakker/pdok-services/internal/serviceerr"
	"github.com/arbakker/pdok-services/internal/types"

	"github.com/paulmach/orb"
)

// Mock services for testing

type mockGeocoder struct {
	geocoding.Service
	loc *types.LocationInfo
	err error
	req geocoding.ReverseRequest
}

func (m *mockGeocoder) ReverseGeocode(_ context.Context, req geocoding.ReverseRequest) (*types.LocationInfo, error) {
	m.req = req
	return m.loc, m.err
}

type mockElevation struct {
	meters *float64
	err    error
	x, y   float64
}

func (m *mockElevation) Elevation(_ context.Context, coverageID string, x, y float64) (*types.Elevation, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.x, m.y = x, y
	e := types.NewElevation(coverageID, types.NewCoords(x, y, 28992), m.meters)
	return &e, nil
}

func (m *mockElevation) CoverageIDs(context.Context) ([]string, error) { return nil, nil }

func (m *mockElevation) Describe(_ context.Context, id string) (*ahn.CoverageDescription, error) {
	return &ahn.CoverageDescription{ID: id, EPSG: 28992}, nil
}

// swap exchanges the axes, so a reprojected point is easy to recognise
type swap struct{}

func (swap) Point(p orb.Point) (orb.Point, error) { return orb.Point{p[1], p[0]}, nil }
func (swap) Close()                               {}

func swapFactory(src, dst int) (Transformer, error) {
	if src != 4326 || dst != 28992 {
		return nil, errors.New("unexpected transformation")
	}
	return swap{}, nil
}

func ptr(f float64) *float64 { return &f }

func TestLocationService_GetPointInfo(t *testing.T) {
	tests := []struct {
		name         string
		location     *types.LocationInfo
		locationErr  error
		meters       *float64
		elevationErr error
		wantErr      bool
		errContains  []string
		validate     func(*testing.T, *types.PointInfo, *mockElevation)
	}{
		{
			name:     "successful point info retrieval",
			location: &types.LocationInfo{ID: "adr-1", Type: "adres", Name: "Domplein 29, 3512JE Utrecht", Distance: 3.2},
			meters:   ptr(4.75),
			validate: func(t *testing.T, info *types.PointInfo, elev *mockElevation) {
				if info.Coordinates.X != 5.1214 || info.Coordinates.Y != 52.0907 || info.Coordinates.EPSG != 4326 {
					t.Errorf("Coordinates = %+v, want (5.1214, 52.0907) in EPSG:4326", info.Coordinates)
				}
				if info.Location == nil || info.Location.Name != "Domplein 29, 3512JE Utrecht" {
					t.Errorf("Location = %+v, want Domplein 29", info.Location)
				}
				if !info.Elevation.HasData() || *info.Elevation.Meters != 4.75 {
					t.Errorf("Elevation = %+v, want 4.75", info.Elevation)
				}
				if elev.x != 52.0907 || elev.y != 5.1214 {
					t.Errorf("sampled at (%v, %v), want the reprojected point", elev.x, elev.y)
				}
			},
		},
		{
			name:   "no record and no data",
			meters: nil,
			validate: func(t *testing.T, info *types.PointInfo, _ *mockElevation) {
				if info.Location != nil {
					t.Errorf("Location = %+v, want nil", info.Location)
				}
				if info.Elevation.HasData() {
					t.Errorf("Elevation.HasData() = true, want false")
				}
			},
		},
		{
			name:         "elevation error",
			location:     &types.LocationInfo{Name: "Utrecht"},
			elevationErr: &serviceerr.UnexpectedStatusError{StatusCode: 500},
			wantErr:      true,
			errContains:  []string{"failed to get elevation"},
		},
		{
			name:        "location error",
			meters:      ptr(1),
			locationErr: errors.New("connection refused"),
			wantErr:     true,
			errContains: []string{"failed to get location"},
		},
		{
			name:         "both errors",
			elevationErr: errors.New("elevation down"),
			locationErr:  errors.New("locatieserver down"),
			wantErr:      true,
			errContains:  []string{"elevation down", "locatieserver down"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			geocoder := &mockGeocoder{loc: tt.location, err: tt.locationErr}
			elev := &mockElevation{meters: tt.meters, err: tt.elevationErr}
			service := NewLocationService(geocoder, elev, swapFactory, slog.Default())

			info, err := service.GetPointInfo(context.Background(), PointRequest{
				Lon:        5.1214,
				Lat:        52.0907,
				CoverageID: "dtm_05m",
				ResultType: locatieserver.Adres,
			})

			if tt.wantErr {
				if err == nil {
					t.Fatal("GetPointInfo() expected error, got nil")
				}
				for _, want := range tt.errContains {
					if !strings.Contains(err.Error(), want) {
						t.Errorf("GetPointInfo() error = %v, want to contain %q", err, want)
					}
				}
				return
			}

			if err != nil {
				t.Fatalf("GetPointInfo() unexpected error = %v", err)
			}
			if geocoder.req.ResultType != locatieserver.Adres {
				t.Errorf("ReverseGeocode() type = %q, want adres", geocoder.req.ResultType)
			}
			tt.validate(t, info, elev)
		})
	}
}

func TestLocationService_ErrorsAreTyped(t *testing.T) {
	geocoder := &mockGeocoder{}
	elev := &mockElevation{err: &serviceerr.MissingCoverageError{CoverageID: "dtm_05m"}}
	service := NewLocationService(geocoder, elev, swapFactory, slog.Default())

	_, err := service.GetPointInfo(context.Background(), PointRequest{Lon: 5, Lat: 52, CoverageID: "dtm_05m"})

	var missing *serviceerr.MissingCoverageError
	if !errors.As(err, &missing) {
		t.Errorf("GetPointInfo() error = %v, want MissingCoverageError", err)
	}
}
