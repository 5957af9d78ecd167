package batch

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/orb/geojson"
	"github.com/spf13/afero"
	"github.com/spf13/cast"
)

const (
	defaultEPSG = 4326
	wktField    = "wkt"
)

// Feature is one row of a layer.
type Feature struct {
	Geometry   orb.Geometry
	Properties map[string]any
}

// Layer is an ordered set of features sharing a field list and a CRS.
type Layer struct {
	Fields   []string
	Features []Feature
	EPSG     int
}

func (l *Layer) HasField(name string) bool {
	for _, f := range l.Fields {
		if f == name {
			return true
		}
	}
	return false
}

func (l *Layer) addField(name string) {
	if !l.HasField(name) {
		l.Fields = append(l.Fields, name)
	}
}

// ReadOptions controls how layers are read. XField and YField name the CSV
// columns holding point coordinates, EPSG is their CRS.
type ReadOptions struct {
	XField    string
	YField    string
	Delimiter rune
	EPSG      int
}

// ReadLayer reads a CSV (.csv) or GeoJSON (.geojson, .json) layer from fs.
func ReadLayer(fs afero.Fs, path string, opts ReadOptions) (*Layer, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var layer *Layer
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv", ".txt":
		layer, err = readCSV(bytes.NewReader(data), opts)
	case ".geojson", ".json":
		layer, err = readGeoJSON(data, opts.EPSG)
	default:
		return nil, fmt.Errorf("unsupported input format %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return layer, nil
}

func readCSV(r io.Reader, opts ReadOptions) (*Layer, error) {
	cr := csv.NewReader(r)
	if opts.Delimiter != 0 {
		cr.Comma = opts.Delimiter
	}
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty file")
	}
	if err != nil {
		return nil, err
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	xCol, yCol := indexOf(header, opts.XField), indexOf(header, opts.YField)
	wktCol := indexOf(header, wktField)

	layer := &Layer{EPSG: epsgOrDefault(opts.EPSG)}
	for i, name := range header {
		if i == wktCol {
			continue
		}
		layer.Fields = append(layer.Fields, name)
	}

	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		f := Feature{Properties: make(map[string]any, len(header))}
		for i, name := range header {
			if i == wktCol {
				continue
			}
			if i < len(record) {
				f.Properties[name] = record[i]
			} else {
				f.Properties[name] = nil
			}
		}

		switch {
		case wktCol >= 0 && wktCol < len(record) && record[wktCol] != "":
			if f.Geometry, err = wkt.Unmarshal(record[wktCol]); err != nil {
				return nil, fmt.Errorf("line %d: invalid %s: %w", line, wktField, err)
			}
		case xCol >= 0 && yCol >= 0 && xCol < len(record) && yCol < len(record):
			x, errX := cast.ToFloat64E(strings.TrimSpace(record[xCol]))
			y, errY := cast.ToFloat64E(strings.TrimSpace(record[yCol]))
			if errX != nil || errY != nil {
				return nil, fmt.Errorf("line %d: invalid coordinates (%q, %q)", line, record[xCol], record[yCol])
			}
			f.Geometry = orb.Point{x, y}
		}
		layer.Features = append(layer.Features, f)
	}
	return layer, nil
}

func readGeoJSON(data []byte, epsg int) (*Layer, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, err
	}

	layer := &Layer{EPSG: epsgOrDefault(epsg)}
	if code, ok := crsMember(fc.ExtraMembers); ok {
		layer.EPSG = code
	}

	seen := make(map[string]bool)
	for _, gf := range fc.Features {
		keys := make([]string, 0, len(gf.Properties))
		for k := range gf.Properties {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if !seen[k] {
				seen[k] = true
				layer.Fields = append(layer.Fields, k)
			}
		}

		props := make(map[string]any, len(gf.Properties))
		for k, v := range gf.Properties {
			props[k] = v
		}
		layer.Features = append(layer.Features, Feature{Geometry: gf.Geometry, Properties: props})
	}
	return layer, nil
}

// crsMember reads a named CRS member such as
// {"type":"name","properties":{"name":"urn:ogc:def:crs:EPSG::28992"}}.
func crsMember(members geojson.Properties) (int, bool) {
	raw, ok := members["crs"]
	if !ok {
		return 0, false
	}
	var named struct {
		Properties struct {
			Name string `json:"name"`
		} `json:"properties"`
	}
	b, err := json.Marshal(raw)
	if err != nil || json.Unmarshal(b, &named) != nil {
		return 0, false
	}
	name := named.Properties.Name
	if i := strings.LastIndex(name, ":"); i >= 0 {
		name = name[i+1:]
	}
	code, err := cast.ToIntE(name)
	if err != nil || code <= 0 {
		return 0, false
	}
	return code, true
}

// WriteLayer writes layer as GeoJSON (.geojson, .json) or as CSV with a wkt
// geometry column (.csv).
func WriteLayer(fs afero.Fs, path string, layer *Layer) error {
	var (
		data []byte
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".geojson", ".json":
		data, err = marshalGeoJSON(layer)
	case ".csv":
		data, err = marshalCSV(layer)
	default:
		return fmt.Errorf("unsupported output format %q", ext)
	}
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	if err := afero.WriteFile(fs, path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func marshalGeoJSON(layer *Layer) ([]byte, error) {
	fc := geojson.NewFeatureCollection()
	if epsg := epsgOrDefault(layer.EPSG); epsg != defaultEPSG {
		fc.ExtraMembers = geojson.Properties{
			"crs": map[string]any{
				"type": "name",
				"properties": map[string]any{
					"name": fmt.Sprintf("urn:ogc:def:crs:EPSG::%d", epsg),
				},
			},
		}
	}
	for _, f := range layer.Features {
		gf := geojson.NewFeature(f.Geometry)
		for _, name := range layer.Fields {
			gf.Properties[name] = f.Properties[name]
		}
		fc.Append(gf)
	}
	return json.MarshalIndent(fc, "", "  ")
}

func marshalCSV(layer *Layer) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := append(append([]string{}, layer.Fields...), wktField)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, f := range layer.Features {
		record := make([]string, 0, len(header))
		for _, name := range layer.Fields {
			record = append(record, cast.ToString(f.Properties[name]))
		}
		if f.Geometry != nil {
			record = append(record, wkt.MarshalString(f.Geometry))
		} else {
			record = append(record, "")
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func indexOf(header []string, name string) int {
	if name == "" {
		return -1
	}
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}

func epsgOrDefault(epsg int) int {
	if epsg <= 0 {
		return defaultEPSG
	}
	return epsg
}
