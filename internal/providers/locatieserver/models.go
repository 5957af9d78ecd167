package locatieserver

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
)

// SearchAPIResponse is the envelope shared by the free, suggest, lookup and
// reverse endpoints.
type SearchAPIResponse struct {
	Response struct {
		NumFound int     `json:"numFound"`
		Start    int     `json:"start"`
		MaxScore float64 `json:"maxScore"`
		Docs     []Doc   `json:"docs"`
	} `json:"response"`
}

// Doc is a single Locatieserver record. Which fields are present depends on
// the endpoint, the record type and the fl parameter.
type Doc struct {
	ID           string     `json:"id"`
	Type         ResultType `json:"type"`
	Weergavenaam string     `json:"weergavenaam"`
	Score        float64    `json:"score"`
	Afstand      float64    `json:"afstand"`

	CentroideLL string `json:"centroide_ll"`
	CentroideRD string `json:"centroide_rd"`
	GeometrieLL string `json:"geometrie_ll"`
	GeometrieRD string `json:"geometrie_rd"`

	Straatnaam     string `json:"straatnaam"`
	Huisnummer     int    `json:"huisnummer"`
	Huisletter     string `json:"huisletter"`
	Postcode       string `json:"postcode"`
	Woonplaatsnaam string `json:"woonplaatsnaam"`
	Gemeentenaam   string `json:"gemeentenaam"`
	Gemeentecode   string `json:"gemeentecode"`
	Provincienaam  string `json:"provincienaam"`
	Provinciecode  string `json:"provinciecode"`
}

// CentroidLL parses centroide_ll.
func (d Doc) CentroidLL() (orb.Point, error) {
	if d.CentroideLL == "" {
		return orb.Point{}, fmt.Errorf("record %s has no centroide_ll", d.ID)
	}
	p, err := wkt.UnmarshalPoint(d.CentroideLL)
	if err != nil {
		return orb.Point{}, fmt.Errorf("failed to parse centroide_ll of %s: %w", d.ID, err)
	}
	return p, nil
}

// Geometry parses the geometry field belonging to proj.
func (d Doc) Geometry(proj Projection) (orb.Geometry, error) {
	field, err := proj.GeometryField()
	if err != nil {
		return nil, err
	}
	raw := d.GeometrieLL
	if proj == ProjectionRD {
		raw = d.GeometrieRD
	}
	if raw == "" {
		return nil, fmt.Errorf("record %s has no %s", d.ID, field)
	}
	g, err := wkt.Unmarshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s of %s: %w", field, d.ID, err)
	}
	return g, nil
}
