// Package geotiff decodes coverage bytes with GDAL. Buffers are served to GDAL
// from memory through a VSI handler, one key per decoded coverage.
package geotiff

import (
	"bytes"
	"fmt"
	"log/slog"
	"sync"

	"github.com/arbakker/pdok-services/internal/coverage"

	"github.com/airbusgeo/godal"
	"github.com/google/uuid"
)

const vsiPrefix = "/vsipdok/"

var (
	registerOnce sync.Once
	registerErr  error
	buffers      = &bufferStore{buffers: make(map[string][]byte)}
)

// bufferStore implements godal.VSIKeyReader over in-memory coverages.
type bufferStore struct {
	mu      sync.RWMutex
	buffers map[string][]byte
}

func (s *bufferStore) VSIReader(key string) (godal.VSIReader, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.buffers[key]
	if !ok {
		return nil, fmt.Errorf("no coverage buffer %q", key)
	}
	return bytes.NewReader(b), nil
}

func (s *bufferStore) put(key string, b []byte) {
	s.mu.Lock()
	s.buffers[key] = b
	s.mu.Unlock()
}

func (s *bufferStore) drop(key string) {
	s.mu.Lock()
	delete(s.buffers, key)
	s.mu.Unlock()
}

func (s *bufferStore) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.buffers)
}

// Decoder is a coverage.Decoder backed by GDAL.
type Decoder struct {
	logger *slog.Logger
}

// NewDecoder registers the GDAL drivers and the in-memory VSI handler on
// first use.
func NewDecoder(logger *slog.Logger) (*Decoder, error) {
	registerOnce.Do(func() {
		godal.RegisterAll()
		registerErr = godal.RegisterVSIHandler(vsiPrefix, buffers)
	})
	if registerErr != nil {
		return nil, fmt.Errorf("failed to register GDAL handler %s: %w", vsiPrefix, registerErr)
	}
	return &Decoder{logger: logger.With("component", "geotiff")}, nil
}

// Decode opens content as a raster and returns a grid over its first band.
// The grid owns the buffer until Close.
func (d *Decoder) Decode(content []byte) (coverage.Grid, error) {
	key := uuid.NewString() + ".tif"
	buffers.put(key, content)

	ds, err := godal.Open(vsiPrefix+key, godal.RasterOnly())
	if err != nil {
		buffers.drop(key)
		return nil, fmt.Errorf("failed to open coverage (%d bytes): %w", len(content), err)
	}

	bands := ds.Bands()
	if len(bands) == 0 {
		_ = ds.Close()
		buffers.drop(key)
		return nil, fmt.Errorf("coverage has no bands")
	}

	st := ds.Structure()
	d.logger.Debug("decoded coverage", "key", key, "size_x", st.SizeX, "size_y", st.SizeY, "bands", st.NBands)

	return &grid{ds: ds, band: bands[0], key: key}, nil
}

type grid struct {
	ds   *godal.Dataset
	band godal.Band
	key  string
}

func (g *grid) GeoTransform() (coverage.GeoTransform, error) {
	gt, err := g.ds.GeoTransform()
	if err != nil {
		return coverage.GeoTransform{}, err
	}
	return coverage.GeoTransform(gt), nil
}

func (g *grid) ReadFloat32(px, py int) (float32, error) {
	buf := make([]float32, 1)
	if err := g.band.Read(px, py, buf, 1, 1); err != nil {
		return 0, err
	}
	return buf[0], nil
}

func (g *grid) Close() error {
	defer buffers.drop(g.key)
	return g.ds.Close()
}
