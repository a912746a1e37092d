// Package domain contains the core value objects shared by the services and
// adapters: coordinates, CRS definitions and the error taxonomy.
package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Coordinate is a position in a catalog coordinate reference system. The
// ordinates follow the axis order of the system: X is longitude or easting
// for every system built into the catalog.
type Coordinate struct {
	X    float64 // Longitude or Easting
	Y    float64 // Latitude or Northing
	Z    float64 // Height, or the third geocentric ordinate
	SRID int     // Catalog code
}

// NewWGS84Coordinate creates a WGS84 (EPSG:4326) coordinate.
func NewWGS84Coordinate(lon, lat float64) Coordinate {
	return Coordinate{X: lon, Y: lat, SRID: SRIDWGS84}
}

// NewCoordinate creates a coordinate with the specified SRID.
func NewCoordinate(x, y float64, srid int) Coordinate {
	return Coordinate{X: x, Y: y, SRID: srid}
}

// CoordinateFromOrdinates builds a coordinate from the first two or three
// values of ordinates.
func CoordinateFromOrdinates(ordinates []float64, srid int) Coordinate {
	c := Coordinate{SRID: srid}
	switch {
	case len(ordinates) >= 3:
		c.Z = ordinates[2]
		fallthrough
	case len(ordinates) == 2:
		c.X, c.Y = ordinates[0], ordinates[1]
	case len(ordinates) == 1:
		c.X = ordinates[0]
	}
	return c
}

// Ordinates returns the first dim ordinates of c, at most three.
func (c Coordinate) Ordinates(dim int) []float64 {
	all := []float64{c.X, c.Y, c.Z}
	if dim < 0 {
		dim = 0
	}
	if dim > len(all) {
		dim = len(all)
	}
	return all[:dim]
}

// IsFinite reports whether no ordinate is NaN or infinite.
func (c Coordinate) IsFinite() bool {
	for _, v := range [3]float64{c.X, c.Y, c.Z} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// String returns the coordinate in extended WKT, e.g. "SRID=4326;POINT(13.4 52.5)".
func (c Coordinate) String() string {
	return fmt.Sprintf("SRID=%d;%s", c.SRID, c.WKT())
}

// WKT returns the Well-Known Text representation. A point with a non-zero
// Z is written as POINT Z.
func (c Coordinate) WKT() string {
	if c.Z != 0 {
		return "POINT Z(" + formatOrdinates(c.X, c.Y, c.Z) + ")"
	}
	return "POINT(" + formatOrdinates(c.X, c.Y) + ")"
}

func formatOrdinates(values ...float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strings.Join(parts, " ")
}

// Catalog codes referred to by name.
const (
	SRIDWGS84       = 4326 // WGS 84
	SRIDWebMercator = 3857 // WGS 84 / Pseudo-Mercator
)

// Extent is the bounding box of a set of positions in one system. The zero
// value is empty.
type Extent struct {
	MinX, MinY float64
	MaxX, MaxY float64
	SRID       int
	nonEmpty   bool
}

// NewExtent returns an empty extent in the given system.
func NewExtent(srid int) Extent {
	return Extent{SRID: srid}
}

// ExtentOf returns the bounding box of the given coordinates. The system is
// taken from the first coordinate.
func ExtentOf(coords []Coordinate) Extent {
	if len(coords) == 0 {
		return Extent{}
	}
	e := NewExtent(coords[0].SRID)
	for _, c := range coords {
		e.Extend(c.X, c.Y)
	}
	return e
}

// Extend grows the extent to include (x, y). Non-finite values are
// ignored.
func (e *Extent) Extend(x, y float64) {
	if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
		return
	}
	if !e.nonEmpty {
		e.MinX, e.MaxX, e.MinY, e.MaxY = x, x, y, y
		e.nonEmpty = true
		return
	}
	e.MinX = math.Min(e.MinX, x)
	e.MinY = math.Min(e.MinY, y)
	e.MaxX = math.Max(e.MaxX, x)
	e.MaxY = math.Max(e.MaxY, y)
}

// Union grows the extent to include o.
func (e *Extent) Union(o Extent) {
	if o.IsEmpty() {
		return
	}
	e.Extend(o.MinX, o.MinY)
	e.Extend(o.MaxX, o.MaxY)
}

// IsEmpty reports whether no position has been added.
func (e Extent) IsEmpty() bool {
	return !e.nonEmpty
}

// Contains checks if a coordinate is within the extent.
func (e Extent) Contains(c Coordinate) bool {
	return !e.IsEmpty() && c.X >= e.MinX && c.X <= e.MaxX && c.Y >= e.MinY && c.Y <= e.MaxY
}

// Width returns the width of the extent.
func (e Extent) Width() float64 {
	return e.MaxX - e.MinX
}

// Height returns the height of the extent.
func (e Extent) Height() float64 {
	return e.MaxY - e.MinY
}

// String returns the extent as "minx miny, maxx maxy".
func (e Extent) String() string {
	if e.IsEmpty() {
		return "EMPTY"
	}
	return formatOrdinates(e.MinX, e.MinY) + ", " + formatOrdinates(e.MaxX, e.MaxY)
}
