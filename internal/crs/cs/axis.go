// Package cs models coordinate systems: their axes, units and the datum
// they are tied to. All values are immutable after construction.
package cs

import (
	"strings"

	"github.com/jobrunner/gauss/internal/domain"
)

// Direction is the orientation of a coordinate system axis.
type Direction int

// Axis directions.
const (
	Other Direction = iota
	North
	South
	East
	West
	Up
	Down
	GeocentricX
	GeocentricY
	GeocentricZ
)

var directionNames = map[Direction]string{
	Other:       "OTHER",
	North:       "NORTH",
	South:       "SOUTH",
	East:        "EAST",
	West:        "WEST",
	Up:          "UP",
	Down:        "DOWN",
	GeocentricX: "GEOCENTRIC_X",
	GeocentricY: "GEOCENTRIC_Y",
	GeocentricZ: "GEOCENTRIC_Z",
}

func (d Direction) String() string {
	if s, ok := directionNames[d]; ok {
		return s
	}
	return directionNames[Other]
}

// ParseDirection parses a direction name such as "north" or "EAST".
func ParseDirection(s string) (Direction, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for d, name := range directionNames {
		if name == s {
			return d, nil
		}
	}
	return Other, domain.NewError(domain.IllegalArgument, "direction", s)
}

// Absolute returns the positive direction of the axis and the sign that
// maps values along d onto it: South is North with sign -1.
func (d Direction) Absolute() (Direction, float64) {
	switch d {
	case South:
		return North, -1
	case West:
		return East, -1
	case Down:
		return Up, -1
	default:
		return d, 1
	}
}

// IsHorizontal reports whether d is one of the four compass directions.
func (d Direction) IsHorizontal() bool {
	abs, _ := d.Absolute()
	return abs == North || abs == East
}

// IsVertical reports whether d is up or down.
func (d Direction) IsVertical() bool {
	abs, _ := d.Absolute()
	return abs == Up
}

// AxisInfo names an axis and gives its direction.
type AxisInfo struct {
	Name      string    // Axis name, informative only
	Direction Direction // Axis orientation
}

// Common axes.
var (
	Longitude         = AxisInfo{Name: "Lon", Direction: East}
	Latitude          = AxisInfo{Name: "Lat", Direction: North}
	Easting           = AxisInfo{Name: "E", Direction: East}
	Northing          = AxisInfo{Name: "N", Direction: North}
	EllipsoidalHeight = AxisInfo{Name: "h", Direction: Up}
	GravityHeight     = AxisInfo{Name: "H", Direction: Up}
	X                 = AxisInfo{Name: "X", Direction: GeocentricX}
	Y                 = AxisInfo{Name: "Y", Direction: GeocentricY}
	Z                 = AxisInfo{Name: "Z", Direction: GeocentricZ}
)

func (a AxisInfo) String() string {
	return a.Name + " " + a.Direction.String()
}

// checkAxes fails with ColinearAxis when two axes share the same absolute
// direction.
func checkAxes(axes []AxisInfo) error {
	for i := range axes {
		di, _ := axes[i].Direction.Absolute()
		if di == Other {
			continue
		}
		for j := i + 1; j < len(axes); j++ {
			if dj, _ := axes[j].Direction.Absolute(); di == dj {
				return domain.NewError(domain.ColinearAxis, axes[i].Name, axes[j].Name)
			}
		}
	}
	return nil
}

func sameDirections(a, b []AxisInfo) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Direction != b[i].Direction {
			return false
		}
	}
	return true
}

func directionsKey(axes []AxisInfo) string {
	names := make([]string, len(axes))
	for i, a := range axes {
		names[i] = a.Direction.String()
	}
	return strings.Join(names, ",")
}
