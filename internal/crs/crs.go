// Package crs reprojects coordinates between EPSG coordinate reference systems.
package crs

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/airbusgeo/godal"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

const (
	// WGS84 is the CRS of Locatieserver queries and *_ll geometries.
	WGS84 = 4326
	// RDNew is the Dutch national grid, the native CRS of the AHN coverages.
	RDNew = 28992
)

// ParseEPSG accepts "EPSG:28992", "epsg:28992" or "28992".
func ParseEPSG(s string) (int, error) {
	code := strings.TrimSpace(s)
	if len(code) > 5 && strings.EqualFold(code[:5], "EPSG:") {
		code = code[5:]
	}
	n, err := strconv.Atoi(code)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid EPSG code %q", s)
	}
	return n, nil
}

// Name formats code as "EPSG:<code>".
func Name(code int) string {
	return "EPSG:" + strconv.Itoa(code)
}

// Transformer converts x/y coordinates from one CRS to another using
// traditional GIS axis order (longitude/easting first). It is safe for
// concurrent use.
type Transformer struct {
	src, dst int

	mu    sync.Mutex
	srcSR *godal.SpatialRef
	dstSR *godal.SpatialRef
	trn   *godal.Transform
}

// NewTransformer creates a transformer from src to dst. When both codes are
// equal no GDAL objects are created and points pass through unchanged.
func NewTransformer(src, dst int) (*Transformer, error) {
	t := &Transformer{src: src, dst: dst}
	if src == dst {
		return t, nil
	}

	var err error
	if t.srcSR, err = godal.NewSpatialRefFromEPSG(src); err != nil {
		return nil, fmt.Errorf("failed to create spatial reference %s: %w", Name(src), err)
	}
	if t.dstSR, err = godal.NewSpatialRefFromEPSG(dst); err != nil {
		t.srcSR.Close()
		return nil, fmt.Errorf("failed to create spatial reference %s: %w", Name(dst), err)
	}
	if t.trn, err = godal.NewTransform(t.srcSR, t.dstSR); err != nil {
		t.srcSR.Close()
		t.dstSR.Close()
		return nil, fmt.Errorf("failed to create transform %s -> %s: %w", Name(src), Name(dst), err)
	}
	return t, nil
}

func (t *Transformer) Source() int { return t.src }
func (t *Transformer) Target() int { return t.dst }

// Identity reports whether the transformer leaves coordinates unchanged.
func (t *Transformer) Identity() bool { return t.trn == nil }

// Point transforms a single point.
func (t *Transformer) Point(p orb.Point) (orb.Point, error) {
	if t.Identity() {
		return p, nil
	}

	x, y := []float64{p.X()}, []float64{p.Y()}
	ok := []bool{false}

	t.mu.Lock()
	err := t.trn.TransformEx(x, y, nil, ok)
	t.mu.Unlock()

	if err != nil {
		return orb.Point{}, fmt.Errorf("failed to transform %v from %s to %s: %w", p, Name(t.src), Name(t.dst), err)
	}
	if !ok[0] {
		return orb.Point{}, fmt.Errorf("failed to transform %v from %s to %s", p, Name(t.src), Name(t.dst))
	}
	return orb.Point{x[0], y[0]}, nil
}

// Geometry transforms every vertex of g. The input is not modified.
func (t *Transformer) Geometry(g orb.Geometry) (orb.Geometry, error) {
	if g == nil || t.Identity() {
		return g, nil
	}

	var errs []error
	out := project.Geometry(orb.Clone(g), func(p orb.Point) orb.Point {
		q, err := t.Point(p)
		if err != nil {
			errs = append(errs, err)
			return p
		}
		return q
	})
	if len(errs) > 0 {
		return nil, errs[0]
	}
	return out, nil
}

// Close releases the GDAL objects.
func (t *Transformer) Close() {
	if t.trn == nil {
		return
	}
	t.trn.Close()
	t.srcSR.Close()
	t.dstSR.Close()
}
