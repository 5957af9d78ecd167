package geotiff

import (
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/arbakker/pdok-services/internal/coverage"

	"github.com/airbusgeo/godal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestTIFF(t *testing.T, gt [6]float64, width, height int, values []float32) []byte {
	t.Helper()
	path := filepath.Join(t.TempDir(), "coverage.tif")

	ds, err := godal.Create(godal.GTiff, path, 1, godal.Float32, width, height)
	require.NoError(t, err)
	require.NoError(t, ds.SetGeoTransform(gt))
	require.NoError(t, ds.Bands()[0].Write(0, 0, values, width, height))
	require.NoError(t, ds.Close())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	return content
}

func TestDecoder_Decode(t *testing.T) {
	decoder, err := NewDecoder(slog.Default())
	require.NoError(t, err)

	gt := [6]float64{100000, 0.5, 0, 500000, 0, -0.5}
	content := writeTestTIFF(t, gt, 3, 3, []float32{
		1, 2, 3,
		4, 5, 6,
		7, 8, math.MaxFloat32,
	})

	grid, err := decoder.Decode(content)
	require.NoError(t, err)
	assert.Equal(t, 1, buffers.len())

	got, err := grid.GeoTransform()
	require.NoError(t, err)
	assert.Equal(t, coverage.GeoTransform(gt), got)

	v, err := coverage.Sample(grid, 100000.7, 499999.3)
	require.NoError(t, err)
	assert.Equal(t, float32(5), v)

	v, err = coverage.Sample(grid, 100001.2, 499998.7)
	require.NoError(t, err)
	assert.Nil(t, coverage.Value(v))

	_, err = coverage.Sample(grid, 100010, 500000)
	assert.Error(t, err)

	require.NoError(t, grid.Close())
	assert.Equal(t, 0, buffers.len())
}

func TestDecoder_DecodeInvalid(t *testing.T) {
	decoder, err := NewDecoder(slog.Default())
	require.NoError(t, err)

	_, err = decoder.Decode([]byte("<ows:ExceptionReport/>"))
	assert.ErrorContains(t, err, "failed to open coverage")
	assert.Equal(t, 0, buffers.len())
}
