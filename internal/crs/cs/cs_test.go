package cs

import (
	"errors"
	"testing"

	"github.com/jobrunner/gauss/internal/crs/datum"
	"github.com/jobrunner/gauss/internal/crs/projection"
	"github.com/jobrunner/gauss/internal/crs/units"
	"github.com/jobrunner/gauss/internal/domain"
)

func utm32(t *testing.T) projection.Projection {
	t.Helper()
	p, err := projection.NewBuilder("UTM 32N", projection.TransverseMercator).
		Set(projection.CentralMeridian, 9).
		Set(projection.ScaleFactor, 0.9996).
		Set(projection.FalseEasting, 500000).
		Build(projection.Default())
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	return p
}

func TestNewGeographic(t *testing.T) {
	tests := []struct {
		name    string
		unit    units.Unit
		axis0   AxisInfo
		axis1   AxisInfo
		wantErr error
	}{
		{name: "lon lat", unit: units.Degree, axis0: Longitude, axis1: Latitude},
		{name: "lat lon", unit: units.Degree, axis0: Latitude, axis1: Longitude},
		{name: "south west", unit: units.Grad, axis0: AxisInfo{"S", South}, axis1: AxisInfo{"W", West}},
		{name: "linear unit", unit: units.Metre, axis0: Longitude, axis1: Latitude, wantErr: domain.NonAngularUnit},
		{name: "colinear", unit: units.Degree, axis0: Latitude, axis1: AxisInfo{"S", South}, wantErr: domain.ColinearAxis},
		{name: "vertical axis", unit: units.Degree, axis0: Longitude, axis1: EllipsoidalHeight, wantErr: domain.IllegalArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := NewGeographic("g", tt.unit, datum.WGS84Datum, datum.Greenwich, tt.axis0, tt.axis1)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("NewGeographic() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewGeographic() error: %v", err)
			}
			if g.Dimension() != 2 || g.Kind() != KindGeographic {
				t.Errorf("NewGeographic() = %d %v, want 2 geographic", g.Dimension(), g.Kind())
			}
		})
	}
}

func TestGeographic3D(t *testing.T) {
	g, err := NewGeographic3D("WGS 84 3D", units.Degree, datum.WGS84Datum, datum.Greenwich,
		Longitude, Latitude, EllipsoidalHeight, units.Metre)
	if err != nil {
		t.Fatalf("NewGeographic3D() error: %v", err)
	}
	if g.Dimension() != 3 || !g.Is3D() {
		t.Errorf("Dimension() = %d, want 3", g.Dimension())
	}
	if g.Unit(2) != units.Metre || g.Unit(0) != units.Degree {
		t.Errorf("Unit() = %v, %v", g.Unit(0), g.Unit(2))
	}
	if !g.Horizontal().Equal(WGS84) {
		t.Error("Horizontal() should equal the 2D WGS 84 system")
	}
	if g.Equal(WGS84) {
		t.Error("3D system should not equal 2D system")
	}

	if _, err := NewGeographic3D("bad", units.Degree, datum.WGS84Datum, datum.Greenwich,
		Longitude, Latitude, EllipsoidalHeight, units.Degree); !errors.Is(err, domain.NonLinearUnit) {
		t.Errorf("NewGeographic3D() error = %v, want NonLinearUnit", err)
	}
}

func TestEqualIgnoresNames(t *testing.T) {
	a, _ := NewGeographic("a", units.Degree, datum.WGS84Datum, datum.Greenwich, Longitude, Latitude)
	b, _ := NewGeographic("b", units.Degree,
		datum.NewHorizontalDatum("renamed", datum.Classic, datum.WGS84, &datum.BursaWolf{}),
		datum.Greenwich, AxisInfo{"x", East}, AxisInfo{"y", North})
	swapped, _ := NewGeographic("a", units.Degree, datum.WGS84Datum, datum.Greenwich, Latitude, Longitude)
	paris, _ := NewGeographic("a", units.Degree, datum.WGS84Datum, datum.Paris, Longitude, Latitude)

	tests := []struct {
		name string
		a, b CoordinateSystem
		want bool
	}{
		{name: "different names", a: a, b: b, want: true},
		{name: "swapped axes", a: a, b: swapped, want: false},
		{name: "prime meridian", a: a, b: paris, want: false},
		{name: "different kind", a: a, b: mustGeocentric(t), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
			if got := tt.a.Key() == tt.b.Key(); got != tt.want {
				t.Errorf("Key() equal = %v, want %v (%s vs %s)", got, tt.want, tt.a.Key(), tt.b.Key())
			}
		})
	}
}

func mustGeocentric(t *testing.T) *Geocentric {
	t.Helper()
	g, err := NewGeocentric("WGS 84 geocentric", datum.WGS84Datum, units.Metre)
	if err != nil {
		t.Fatalf("NewGeocentric() error: %v", err)
	}
	return g
}

func TestNewProjected(t *testing.T) {
	p, err := NewProjected("WGS 84 / UTM zone 32N", WGS84, utm32(t), units.Metre, Easting, Northing)
	if err != nil {
		t.Fatalf("NewProjected() error: %v", err)
	}
	if p.Dimension() != 2 || p.Base() != WGS84 || p.Kind() != KindProjected {
		t.Errorf("NewProjected() = %+v", p)
	}

	feet, _ := NewProjected("feet", WGS84, utm32(t), units.Foot, Easting, Northing)
	if p.Equal(feet) {
		t.Error("systems with different units should differ")
	}

	g3, _ := NewGeographic3D("3d", units.Degree, datum.WGS84Datum, datum.Greenwich,
		Longitude, Latitude, EllipsoidalHeight, units.Metre)

	tests := []struct {
		name    string
		base    *Geographic
		unit    units.Unit
		axis1   AxisInfo
		wantErr error
	}{
		{name: "angular unit", base: WGS84, unit: units.Degree, axis1: Northing, wantErr: domain.NonLinearUnit},
		{name: "3d base", base: g3, unit: units.Metre, axis1: Northing, wantErr: domain.IllegalCsDimension},
		{name: "colinear", base: WGS84, unit: units.Metre, axis1: AxisInfo{"W", West}, wantErr: domain.ColinearAxis},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProjected("p", tt.base, utm32(t), tt.unit, Easting, tt.axis1)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("NewProjected() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewCompound(t *testing.T) {
	v, err := NewVertical("DHHN2016 height", datum.VerticalDatum{Name: "DHHN2016"}, units.Metre, GravityHeight)
	if err != nil {
		t.Fatalf("NewVertical() error: %v", err)
	}
	p, _ := NewProjected("UTM", WGS84, utm32(t), units.Metre, Easting, Northing)

	c, err := NewCompound("UTM + height", p, v)
	if err != nil {
		t.Fatalf("NewCompound() error: %v", err)
	}
	if c.Dimension() != 3 {
		t.Errorf("Dimension() = %d, want 3", c.Dimension())
	}
	if c.Axis(2).Direction != Up || c.Unit(2) != units.Metre {
		t.Errorf("Axis(2) = %v", c.Axis(2))
	}

	nested, err := NewCompound("nested", c)
	if err == nil {
		if !nested.Equal(c) || nested.Key() != c.Key() {
			t.Error("flattened compound should equal its source")
		}
	} else {
		t.Errorf("NewCompound() error: %v", err)
	}

	if _, err := NewCompound("single", p); !errors.Is(err, domain.IllegalCsDimension) {
		t.Errorf("NewCompound(single) error = %v, want IllegalCsDimension", err)
	}

	g3, _ := NewGeographic3D("3d", units.Degree, datum.WGS84Datum, datum.Greenwich,
		Longitude, Latitude, EllipsoidalHeight, units.Metre)
	if _, err := NewCompound("two heights", g3, v); !errors.Is(err, domain.ColinearAxis) {
		t.Errorf("NewCompound(two heights) error = %v, want ColinearAxis", err)
	}
}

func TestNewVertical(t *testing.T) {
	if _, err := NewVertical("v", datum.VerticalDatum{Name: "x"}, units.Metre, Northing); !errors.Is(err, domain.IllegalArgument) {
		t.Errorf("NewVertical() error = %v, want IllegalArgument", err)
	}
	if _, err := NewVertical("v", datum.VerticalDatum{Name: "x"}, units.Degree, GravityHeight); !errors.Is(err, domain.NonLinearUnit) {
		t.Errorf("NewVertical() error = %v, want NonLinearUnit", err)
	}
}

func TestDirection(t *testing.T) {
	tests := []struct {
		in       string
		want     Direction
		wantAbs  Direction
		wantSign float64
	}{
		{in: "north", want: North, wantAbs: North, wantSign: 1},
		{in: "SOUTH", want: South, wantAbs: North, wantSign: -1},
		{in: " west ", want: West, wantAbs: East, wantSign: -1},
		{in: "down", want: Down, wantAbs: Up, wantSign: -1},
		{in: "geocentric_x", want: GeocentricX, wantAbs: GeocentricX, wantSign: 1},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDirection(tt.in)
			if err != nil || got != tt.want {
				t.Fatalf("ParseDirection(%q) = %v, %v, want %v", tt.in, got, err, tt.want)
			}
			abs, sign := got.Absolute()
			if abs != tt.wantAbs || sign != tt.wantSign {
				t.Errorf("Absolute() = %v, %v, want %v, %v", abs, sign, tt.wantAbs, tt.wantSign)
			}
		})
	}

	if _, err := ParseDirection("sideways"); err == nil {
		t.Error("ParseDirection(sideways) should fail")
	}
}
