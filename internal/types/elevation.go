package types

// Elevation is a height sampled from an AHN coverage.
type Elevation struct {
	Coverage    string
	Coordinates Coords
	// Meters is nil where the coverage has no data.
	Meters *float64
}

func NewElevation(coverage string, coords Coords, meters *float64) Elevation {
	return Elevation{
		Coverage:    coverage,
		Coordinates: coords,
		Meters:      meters,
	}
}

func (e Elevation) HasData() bool {
	return e.Meters != nil
}
