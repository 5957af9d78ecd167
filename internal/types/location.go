package types

import "github.com/paulmach/orb"

// LocationInfo is a Locatieserver record resolved by the geocoders
type LocationInfo struct {
	ID       string
	Type     string
	Name     string
	Score    float64
	Distance float64
	// Geometry is in EPSG:4326; nil for reverse geocoding results.
	Geometry orb.Geometry
}
