// Package datum models ellipsoids, prime meridians, datums and the
// Bursa-Wolf parameters relating a datum to WGS84.
package datum

import (
	"fmt"
	"math"

	"github.com/jobrunner/gauss/internal/domain"
)

// axisTolerance is the relative tolerance used when comparing semi-axes.
const axisTolerance = 1e-10

// Ellipsoid is an oblate ellipsoid of revolution.
type Ellipsoid struct {
	name          string
	a             float64
	b             float64
	invFlattening float64 // +Inf for a sphere
	ivfDefinitive bool
}

// Predefined ellipsoids.
var (
	WGS84             = mustEllipsoid("WGS 84", 6378137, 298.257223563)
	GRS80             = mustEllipsoid("GRS 1980", 6378137, 298.257222101)
	WGS72             = mustEllipsoid("WGS 72", 6378135, 298.26)
	Bessel1841        = mustEllipsoid("Bessel 1841", 6377397.155, 299.1528128)
	Clarke1866        = mustAxes("Clarke 1866", 6378206.4, 6356583.8)
	International1924 = mustEllipsoid("International 1924", 6378388, 297)
	Airy1830          = mustEllipsoid("Airy 1830", 6377563.396, 299.3249646)
	Krassowsky1940    = mustEllipsoid("Krassowsky 1940", 6378245, 298.3)
)

// NewEllipsoid creates an ellipsoid from its semi-major axis and inverse
// flattening. An inverse flattening of 0 or +Inf yields a sphere.
func NewEllipsoid(name string, a, invFlattening float64) (Ellipsoid, error) {
	if !(a > 0) || math.IsInf(a, 0) {
		return Ellipsoid{}, domain.NewError(domain.ParameterOutOfRange, "semi_major", a)
	}
	if invFlattening == 0 || math.IsInf(invFlattening, 1) {
		return NewSphere(name, a)
	}
	if !(invFlattening > 1) {
		return Ellipsoid{}, domain.NewError(domain.ParameterOutOfRange, "inverse_flattening", invFlattening)
	}
	return Ellipsoid{
		name:          name,
		a:             a,
		b:             a * (1 - 1/invFlattening),
		invFlattening: invFlattening,
		ivfDefinitive: true,
	}, nil
}

// NewEllipsoidFromAxes creates an ellipsoid from both semi-axes.
func NewEllipsoidFromAxes(name string, a, b float64) (Ellipsoid, error) {
	if !(a > 0) || math.IsInf(a, 0) {
		return Ellipsoid{}, domain.NewError(domain.ParameterOutOfRange, "semi_major", a)
	}
	if !(b > 0) || b > a {
		return Ellipsoid{}, domain.NewError(domain.ParameterOutOfRange, "semi_minor", b)
	}
	ivf := math.Inf(1)
	if a != b {
		ivf = a / (a - b)
	}
	return Ellipsoid{name: name, a: a, b: b, invFlattening: ivf}, nil
}

// NewSphere creates a sphere of the given radius.
func NewSphere(name string, radius float64) (Ellipsoid, error) {
	if !(radius > 0) || math.IsInf(radius, 0) {
		return Ellipsoid{}, domain.NewError(domain.ParameterOutOfRange, "radius", radius)
	}
	return Ellipsoid{name: name, a: radius, b: radius, invFlattening: math.Inf(1)}, nil
}

func mustEllipsoid(name string, a, ivf float64) Ellipsoid {
	e, err := NewEllipsoid(name, a, ivf)
	if err != nil {
		panic(err)
	}
	return e
}

func mustAxes(name string, a, b float64) Ellipsoid {
	e, err := NewEllipsoidFromAxes(name, a, b)
	if err != nil {
		panic(err)
	}
	return e
}

// Name returns the ellipsoid name.
func (e Ellipsoid) Name() string { return e.name }

// SemiMajorAxis returns a in metres.
func (e Ellipsoid) SemiMajorAxis() float64 { return e.a }

// SemiMinorAxis returns b in metres.
func (e Ellipsoid) SemiMinorAxis() float64 { return e.b }

// InverseFlattening returns 1/f, +Inf for a sphere.
func (e Ellipsoid) InverseFlattening() float64 { return e.invFlattening }

// IsIvfDefinitive reports whether the inverse flattening, rather than the
// semi-minor axis, is the defining parameter.
func (e Ellipsoid) IsIvfDefinitive() bool { return e.ivfDefinitive }

// Flattening returns f = (a-b)/a.
func (e Ellipsoid) Flattening() float64 {
	if math.IsInf(e.invFlattening, 1) {
		return 0
	}
	return 1 / e.invFlattening
}

// EccentricitySquared returns e² = 2f - f².
func (e Ellipsoid) EccentricitySquared() float64 {
	f := e.Flattening()
	return 2*f - f*f
}

// Eccentricity returns the first eccentricity.
func (e Ellipsoid) Eccentricity() float64 {
	return math.Sqrt(e.EccentricitySquared())
}

// IsSphere reports whether both semi-axes are equal.
func (e Ellipsoid) IsSphere() bool {
	return e.a == e.b
}

// Equal reports whether both ellipsoids have the same semi-axes within a
// relative tolerance. Names are not compared.
func (e Ellipsoid) Equal(o Ellipsoid) bool {
	return math.Abs(e.a-o.a) <= axisTolerance*e.a &&
		math.Abs(e.b-o.b) <= axisTolerance*e.a
}

// Key returns a canonical string of the defining parameters.
func (e Ellipsoid) Key() string {
	return fmt.Sprintf("ellps(%.4f,%.4f)", e.a, e.b)
}

func (e Ellipsoid) String() string {
	return fmt.Sprintf("%s (a=%g, 1/f=%g)", e.name, e.a, e.invFlattening)
}
