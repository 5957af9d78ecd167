package types

import "github.com/paulmach/orb"

// Coords is a point in the coordinate reference system identified by EPSG.
type Coords struct {
	X    float64
	Y    float64
	EPSG int
}

func NewCoords(x, y float64, epsg int) Coords {
	return Coords{
		X:    x,
		Y:    y,
		EPSG: epsg,
	}
}

func (c Coords) Point() orb.Point {
	return orb.Point{c.X, c.Y}
}
