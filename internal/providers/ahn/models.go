package ahn

import (
	"encoding/xml"
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/arbakker/pdok-services/internal/serviceerr"
)

// CapabilitiesAPIResponse is the part of a WCS 2.0 GetCapabilities document
// that lists the coverages.
type CapabilitiesAPIResponse struct {
	XMLName           xml.Name `xml:"Capabilities"`
	CoverageSummaries []struct {
		CoverageID string `xml:"CoverageId"`
		Subtype    string `xml:"CoverageSubtype"`
	} `xml:"Contents>CoverageSummary"`
}

// DescribeCoverageAPIResponse is the part of a WCS 2.0 DescribeCoverage
// document describing the grid of each coverage.
type DescribeCoverageAPIResponse struct {
	XMLName      xml.Name `xml:"CoverageDescriptions"`
	Descriptions []struct {
		CoverageID string `xml:"CoverageId"`
		Envelope   struct {
			SrsName     string `xml:"srsName,attr"`
			AxisLabels  string `xml:"axisLabels,attr"`
			LowerCorner string `xml:"lowerCorner"`
			UpperCorner string `xml:"upperCorner"`
		} `xml:"boundedBy>Envelope"`
		Grid struct {
			Origin        string   `xml:"origin>Point>pos"`
			OffsetVectors []string `xml:"offsetVector"`
		} `xml:"domainSet>RectifiedGrid"`
	} `xml:"CoverageDescription"`
}

// CoverageDescription is the grid geometry of one coverage.
type CoverageDescription struct {
	ID string
	// EPSG is the code of the native CRS, parsed from the srsName URI.
	EPSG     int
	OriginX  float64
	OriginY  float64
	CellSize float64
	MinX     float64
	MinY     float64
	MaxX     float64
	MaxY     float64
}

func (r *DescribeCoverageAPIResponse) description(id string) (*CoverageDescription, error) {
	for _, d := range r.Descriptions {
		if d.CoverageID != id {
			continue
		}

		origin, err := parseFloats(d.Grid.Origin, 2)
		if err != nil {
			return nil, fmt.Errorf("invalid grid origin of %s: %w", id, err)
		}
		if len(d.Grid.OffsetVectors) == 0 {
			return nil, fmt.Errorf("coverage %s has no offset vectors", id)
		}
		offset, err := parseFloats(d.Grid.OffsetVectors[0], 2)
		if err != nil {
			return nil, fmt.Errorf("invalid offset vector of %s: %w", id, err)
		}
		if offset[0] == 0 {
			return nil, fmt.Errorf("coverage %s has a zero cell size", id)
		}
		epsg, err := parseSrsName(d.Envelope.SrsName)
		if err != nil {
			return nil, fmt.Errorf("invalid native CRS of %s: %w", id, err)
		}

		desc := &CoverageDescription{
			ID:       id,
			EPSG:     epsg,
			OriginX:  origin[0],
			OriginY:  origin[1],
			CellSize: offset[0],
		}
		if lower, err := parseFloats(d.Envelope.LowerCorner, 2); err == nil {
			desc.MinX, desc.MinY = lower[0], lower[1]
		}
		if upper, err := parseFloats(d.Envelope.UpperCorner, 2); err == nil {
			desc.MaxX, desc.MaxY = upper[0], upper[1]
		}
		return desc, nil
	}
	return nil, &serviceerr.UnknownCoverageError{CoverageID: id}
}

// parseSrsName accepts http://www.opengis.net/def/crs/EPSG/0/28992 and
// urn:ogc:def:crs:EPSG::28992.
func parseSrsName(s string) (int, error) {
	s = strings.TrimSpace(s)
	var code string
	switch {
	case strings.HasPrefix(s, "urn:"):
		code = s[strings.LastIndex(s, ":")+1:]
	default:
		code = path.Base(s)
	}
	n, err := strconv.Atoi(code)
	if err != nil {
		return 0, fmt.Errorf("unrecognized srsName %q", s)
	}
	return n, nil
}

func parseFloats(s string, n int) ([]float64, error) {
	fields := strings.Fields(s)
	if len(fields) < n {
		return nil, fmt.Errorf("expected %d values, got %q", n, s)
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
