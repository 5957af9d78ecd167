package crs

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEPSG(t *testing.T) {
	tests := []struct {
		input   string
		want    int
		wantErr bool
	}{
		{"EPSG:28992", 28992, false},
		{"epsg:4326", 4326, false},
		{" 3857 ", 3857, false},
		{"EPSG:", 0, true},
		{"EPSG:abc", 0, true},
		{"-1", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseEPSG(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestName(t *testing.T) {
	assert.Equal(t, "EPSG:28992", Name(RDNew))
}

func TestTransformer_Identity(t *testing.T) {
	tr, err := NewTransformer(RDNew, RDNew)
	require.NoError(t, err)
	defer tr.Close()

	assert.True(t, tr.Identity())
	p, err := tr.Point(orb.Point{155000, 463000})
	require.NoError(t, err)
	assert.Equal(t, orb.Point{155000, 463000}, p)
}

func TestTransformer_Point(t *testing.T) {
	tr, err := NewTransformer(WGS84, RDNew)
	require.NoError(t, err)
	defer tr.Close()

	// Amersfoort, the origin of the RD grid definition
	p, err := tr.Point(orb.Point{5.38720621, 52.15517440})
	require.NoError(t, err)
	assert.InDelta(t, 155000, p.X(), 1)
	assert.InDelta(t, 463000, p.Y(), 1)
}

func TestTransformer_Geometry(t *testing.T) {
	tr, err := NewTransformer(RDNew, WGS84)
	require.NoError(t, err)
	defer tr.Close()

	in := orb.LineString{{155000, 463000}, {155100, 463000}}
	out, err := tr.Geometry(in)
	require.NoError(t, err)

	ls, ok := out.(orb.LineString)
	require.True(t, ok)
	require.Len(t, ls, 2)
	assert.InDelta(t, 5.3872, ls[0].X(), 1e-3)
	assert.InDelta(t, 52.1552, ls[0].Y(), 1e-3)
	assert.Greater(t, ls[1].X(), ls[0].X())

	// input untouched
	assert.Equal(t, orb.Point{155000, 463000}, in[0])
}
