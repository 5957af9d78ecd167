package types

// PointInfo describes a single WGS84 coordinate: the nearest Locatieserver
// record and the elevation at that spot
type PointInfo struct {
	Coordinates Coords
	Elevation   Elevation
	// Location is nil when no record was found
	Location *LocationInfo
}
