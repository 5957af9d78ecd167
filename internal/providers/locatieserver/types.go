package locatieserver

import (
	"fmt"
	"strings"
)

// ResultType is a Locatieserver record type.
type ResultType string

const (
	Provincie         ResultType = "provincie"
	Gemeente          ResultType = "gemeente"
	Woonplaats        ResultType = "woonplaats"
	Weg               ResultType = "weg"
	Postcode          ResultType = "postcode"
	Adres             ResultType = "adres"
	Perceel           ResultType = "perceel"
	Hectometerpaal    ResultType = "hectometerpaal"
	Wijk              ResultType = "wijk"
	Buurt             ResultType = "buurt"
	Waterschapsgrens  ResultType = "waterschapsgrens"
	Appartementsrecht ResultType = "appartementsrecht"
)

// AllResultTypes lists every type in the order the service documents them.
func AllResultTypes() []ResultType {
	return []ResultType{
		Provincie, Gemeente, Woonplaats, Weg, Postcode, Adres,
		Perceel, Hectometerpaal, Wijk, Buurt, Waterschapsgrens, Appartementsrecht,
	}
}

// GeocoderResultTypes are the types the geocoder tool can search for.
func GeocoderResultTypes() []ResultType {
	return []ResultType{Adres, Gemeente, Postcode, Weg, Woonplaats}
}

// ParseResultType parses s case-insensitively.
func ParseResultType(s string) (ResultType, error) {
	t := ResultType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllResultTypes() {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown result type %q", s)
}

// PointLike reports whether records of this type are points, so their
// centroid is their geometry.
func (t ResultType) PointLike() bool {
	return t == Adres || t == Postcode
}

// TypeFilter restricts a query to a set of result types. The zero value
// selects every type.
type TypeFilter struct {
	types []ResultType
}

func NewTypeFilter(types ...ResultType) TypeFilter {
	return TypeFilter{types: append([]ResultType(nil), types...)}
}

// Types returns the selected types.
func (f TypeFilter) Types() []ResultType {
	if len(f.types) == 0 {
		return AllResultTypes()
	}
	return append([]ResultType(nil), f.types...)
}

// String renders the filter as a Solr filter query: type:(a OR b).
func (f TypeFilter) String() string {
	types := f.Types()
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return "type:(" + strings.Join(names, " OR ") + ")"
}

// Projection selects which geometry field a lookup returns.
type Projection int

const (
	ProjectionWGS84 Projection = 4326
	ProjectionRD    Projection = 28992
)

// GeometryField is the Locatieserver field holding geometries in p.
func (p Projection) GeometryField() (string, error) {
	switch p {
	case ProjectionWGS84:
		return "geometrie_ll", nil
	case ProjectionRD:
		return "geometrie_rd", nil
	default:
		return "", fmt.Errorf("unsupported projection EPSG:%d", int(p))
	}
}

func (p Projection) String() string {
	return fmt.Sprintf("EPSG:%d", int(p))
}
