// Package coverage locates the raster in a WCS GetCoverage response and
// samples it at a point in the coverage's native CRS.
package coverage

import (
	"fmt"
	"math"
	"strconv"

	"github.com/arbakker/pdok-services/internal/mimeparts"
	"github.com/arbakker/pdok-services/internal/serviceerr"
)

const (
	// NoData is the value the AHN coverages use for cells without elevation,
	// the largest finite float32.
	NoData = 3.4028234663852886e38

	MediaTypeTIFF = "image/tiff"
)

// GeoTransform is the six parameter affine transform of a raster:
// origin x, pixel width, row rotation, origin y, column rotation, pixel height.
type GeoTransform [6]float64

// PixelIndex returns the column and row of the cell containing (x, y).
// Rotation terms are ignored. The result is not checked against the raster
// extent.
func (gt GeoTransform) PixelIndex(x, y float64) (px, py int) {
	px = int(math.Floor((x - gt[0]) / gt[1]))
	py = int(math.Floor((y - gt[3]) / gt[5]))
	return px, py
}

// Grid is a decoded single band raster.
type Grid interface {
	GeoTransform() (GeoTransform, error)
	// ReadFloat32 reads the 1x1 window at column px, row py.
	ReadFloat32(px, py int) (float32, error)
	Close() error
}

// Decoder turns the bytes of a raster file into a Grid.
type Decoder interface {
	Decode(content []byte) (Grid, error)
}

// Sample returns the raw value of grid at (x, y). The sentinel is not
// translated; see Value.
func Sample(grid Grid, x, y float64) (float32, error) {
	gt, err := grid.GeoTransform()
	if err != nil {
		return 0, fmt.Errorf("failed to get geotransform: %w", err)
	}
	px, py := gt.PixelIndex(x, y)
	v, err := grid.ReadFloat32(px, py)
	if err != nil {
		return 0, fmt.Errorf("failed to read pixel (%d, %d): %w", px, py, err)
	}
	return v, nil
}

// Value converts a sampled value to an elevation, nil for NoData.
func Value(v float32) *float64 {
	f := float64(v)
	if f == NoData {
		return nil
	}
	return &f
}

// Extract returns the content of the image/tiff part. When several parts
// match, the last one is returned.
func Extract(parts []mimeparts.Part) ([]byte, error) {
	var content []byte
	found := false
	for _, p := range parts {
		if p.ContentType() == MediaTypeTIFF {
			content = p.Content
			found = true
		}
	}
	if !found {
		return nil, &serviceerr.MissingCoverageError{Parts: len(parts)}
	}
	return content, nil
}

// Window is the bounding box requested from the coverage service around a
// point: the containing cell plus one cell of margin on the upper side.
type Window struct {
	MinX, MaxX float64
	MinY, MaxY float64
}

// NewWindow aligns (x, y) to the grid defined by origin and cellSize.
func NewWindow(originX, originY, cellSize, x, y float64) Window {
	minX, maxX := axisRange(originX, cellSize, x)
	minY, maxY := axisRange(originY, cellSize, y)
	return Window{MinX: minX, MaxX: maxX, MinY: minY, MaxY: maxY}
}

func axisRange(origin, cellSize, p float64) (lower, upper float64) {
	lower = origin + math.Floor((p-origin)/cellSize)*cellSize
	upper = lower + 2*cellSize
	return lower, upper
}

// Subsets renders the window as WCS 2.0 subset parameters for the x and y axes.
func (w Window) Subsets() []string {
	return []string{
		fmt.Sprintf("x(%s,%s)", formatCoord(w.MinX), formatCoord(w.MaxX)),
		fmt.Sprintf("y(%s,%s)", formatCoord(w.MinY), formatCoord(w.MaxY)),
	}
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
