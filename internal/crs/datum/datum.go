package datum

import (
	"fmt"
	"math"
	"strconv"

	"github.com/jobrunner/gauss/internal/crs/matrix"
	"github.com/jobrunner/gauss/internal/crs/units"
	"github.com/jobrunner/gauss/internal/domain"
)

// BursaWolfTolerance is the absolute tolerance used when comparing
// Bursa-Wolf parameters, applied to each parameter in its own unit
// (metres, arc-seconds, parts per million).
const BursaWolfTolerance = 1e-9

// BursaWolf holds the seven parameters of a similarity transform from a
// datum's geocentric frame to WGS84, position vector convention.
type BursaWolf struct {
	DX, DY, DZ float64 // Translations in metres
	EX, EY, EZ float64 // Rotations in arc-seconds
	PPM        float64 // Scale difference in parts per million
}

// NewBursaWolf builds parameters from a TOWGS84 list of 3 or 7 values.
func NewBursaWolf(values []float64) (BursaWolf, error) {
	switch len(values) {
	case 3:
		return BursaWolf{DX: values[0], DY: values[1], DZ: values[2]}, nil
	case 7:
		return BursaWolf{
			DX: values[0], DY: values[1], DZ: values[2],
			EX: values[3], EY: values[4], EZ: values[5],
			PPM: values[6],
		}, nil
	default:
		return BursaWolf{}, domain.NewError(domain.IllegalArgument, "towgs84", values)
	}
}

func (bw BursaWolf) values() [7]float64 {
	return [7]float64{bw.DX, bw.DY, bw.DZ, bw.EX, bw.EY, bw.EZ, bw.PPM}
}

// IsZero reports whether all parameters are zero within tolerance.
func (bw BursaWolf) IsZero() bool {
	return bw.Equal(BursaWolf{})
}

// IsTranslationOnly reports whether rotations and scale are zero.
func (bw BursaWolf) IsTranslationOnly() bool {
	v := bw.values()
	for _, x := range v[3:] {
		if math.Abs(x) > BursaWolfTolerance {
			return false
		}
	}
	return true
}

// Equal compares the parameters field by field within BursaWolfTolerance.
func (bw BursaWolf) Equal(o BursaWolf) bool {
	a, b := bw.values(), o.values()
	for i := range a {
		if math.Abs(a[i]-b[i]) > BursaWolfTolerance {
			return false
		}
	}
	return true
}

// Minus returns the parameter-wise difference, used by translation-only
// shifts between two datums through WGS84.
func (bw BursaWolf) Minus(o BursaWolf) BursaWolf {
	return BursaWolf{
		DX: bw.DX - o.DX, DY: bw.DY - o.DY, DZ: bw.DZ - o.DZ,
		EX: bw.EX - o.EX, EY: bw.EY - o.EY, EZ: bw.EZ - o.EZ,
		PPM: bw.PPM - o.PPM,
	}
}

// Matrix returns the 4×4 affine matrix acting on geocentric coordinates.
func (bw BursaWolf) Matrix() *matrix.Matrix {
	s := 1 + bw.PPM*units.PartsPerMillion.ToBase
	rx := bw.EX * units.ArcSecond.ToBase
	ry := bw.EY * units.ArcSecond.ToBase
	rz := bw.EZ * units.ArcSecond.ToBase
	return matrix.New(4, 4, []float64{
		s, -rz * s, ry * s, bw.DX,
		rz * s, s, -rx * s, bw.DY,
		-ry * s, rx * s, s, bw.DZ,
		0, 0, 0, 1,
	})
}

// Key returns a canonical string of the parameters rounded to the
// comparison tolerance, with negative zero folded to zero.
func (bw BursaWolf) Key() string {
	buf := []byte("bw(")
	for i, v := range bw.values() {
		if i > 0 {
			buf = append(buf, ',')
		}
		r := math.Round(v/BursaWolfTolerance) * BursaWolfTolerance
		if r == 0 {
			r = 0
		}
		buf = strconv.AppendFloat(buf, r, 'g', 12, 64)
	}
	return string(append(buf, ')'))
}

// DatumType classifies a horizontal datum.
type DatumType int

// Datum types.
const (
	Classic DatumType = iota
	Geocentric
	Other
)

func (t DatumType) String() string {
	switch t {
	case Geocentric:
		return "geocentric"
	case Other:
		return "other"
	default:
		return "classic"
	}
}

// PrimeMeridian is the origin of longitudes.
type PrimeMeridian struct {
	name      string
	longitude float64
	unit      units.Unit
}

// Predefined prime meridians.
var (
	Greenwich = PrimeMeridian{name: "Greenwich", unit: units.Degree}
	Paris     = PrimeMeridian{name: "Paris", longitude: 2.5969213, unit: units.Grad}
)

// NewPrimeMeridian creates a prime meridian at the given longitude east of
// Greenwich, expressed in an angular unit.
func NewPrimeMeridian(name string, longitude float64, unit units.Unit) (PrimeMeridian, error) {
	if err := units.RequireAngular(unit); err != nil {
		return PrimeMeridian{}, err
	}
	deg := longitude * unit.ToBase / units.Degree.ToBase
	if err := units.CheckLongitude(deg); err != nil {
		return PrimeMeridian{}, err
	}
	return PrimeMeridian{name: name, longitude: longitude, unit: unit}, nil
}

// Name returns the meridian name.
func (p PrimeMeridian) Name() string { return p.name }

// Unit returns the angular unit of the longitude.
func (p PrimeMeridian) Unit() units.Unit { return p.unit }

// GreenwichLongitude returns the offset from Greenwich in degrees.
func (p PrimeMeridian) GreenwichLongitude() float64 {
	return p.longitude * p.unit.ToBase / units.Degree.ToBase
}

// Equal compares the Greenwich offsets.
func (p PrimeMeridian) Equal(o PrimeMeridian) bool {
	return math.Abs(p.GreenwichLongitude()-o.GreenwichLongitude()) <= 1e-12
}

// HorizontalDatum is an ellipsoid positioned on the earth, optionally with
// the parameters that relate it to WGS84.
type HorizontalDatum struct {
	name      string
	typ       DatumType
	ellipsoid Ellipsoid
	toWGS84   *BursaWolf
}

// WGS84Datum is the hub datum all shifts are routed through.
var WGS84Datum = NewHorizontalDatum("World Geodetic System 1984", Geocentric, WGS84, &BursaWolf{})

// NewHorizontalDatum creates a datum. toWGS84 may be nil when the
// relationship to WGS84 is unknown.
func NewHorizontalDatum(name string, typ DatumType, e Ellipsoid, toWGS84 *BursaWolf) HorizontalDatum {
	d := HorizontalDatum{name: name, typ: typ, ellipsoid: e}
	if toWGS84 != nil {
		bw := *toWGS84
		d.toWGS84 = &bw
	}
	return d
}

// Name returns the datum name.
func (d HorizontalDatum) Name() string { return d.name }

// Type returns the datum classification.
func (d HorizontalDatum) Type() DatumType { return d.typ }

// Ellipsoid returns the datum's ellipsoid.
func (d HorizontalDatum) Ellipsoid() Ellipsoid { return d.ellipsoid }

// ToWGS84 returns the Bursa-Wolf parameters, if known.
func (d HorizontalDatum) ToWGS84() (BursaWolf, bool) {
	if d.toWGS84 == nil {
		return BursaWolf{}, false
	}
	return *d.toWGS84, true
}

// Equal reports structural equality: same ellipsoid and same Bursa-Wolf
// parameters (both absent or equal within tolerance). Names and types are
// metadata and are not compared.
func (d HorizontalDatum) Equal(o HorizontalDatum) bool {
	if !d.ellipsoid.Equal(o.ellipsoid) {
		return false
	}
	if (d.toWGS84 == nil) != (o.toWGS84 == nil) {
		return false
	}
	return d.toWGS84 == nil || d.toWGS84.Equal(*o.toWGS84)
}

// Key returns a canonical string of the defining parameters.
func (d HorizontalDatum) Key() string {
	bw := "bw(?)"
	if d.toWGS84 != nil {
		bw = d.toWGS84.Key()
	}
	return fmt.Sprintf("datum(%s,%s)", d.ellipsoid.Key(), bw)
}

// VerticalDatum is the reference surface of heights.
type VerticalDatum struct {
	Name string
}

// Equal compares vertical datums by name, which is their only definition.
func (v VerticalDatum) Equal(o VerticalDatum) bool {
	return v.Name == o.Name
}
