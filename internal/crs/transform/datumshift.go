package transform

import (
	"fmt"
	"math"
	"sync"

	"github.com/jobrunner/gauss/internal/crs/datum"
	"github.com/jobrunner/gauss/internal/crs/matrix"
	"github.com/jobrunner/gauss/internal/crs/units"
	"github.com/jobrunner/gauss/internal/domain"
)

// Method selects the datum shift algorithm.
type Method int

// Datum shift methods.
const (
	// GeocentricTranslation shifts geocentric coordinates by three
	// translations.
	GeocentricTranslation Method = iota
	// BursaWolfMethod applies the seven-parameter similarity transform to
	// geocentric coordinates.
	BursaWolfMethod
	// AbridgedMolodensky shifts geographic coordinates directly between
	// two ellipsoids.
	AbridgedMolodensky
)

func (m Method) String() string {
	switch m {
	case GeocentricTranslation:
		return "Geocentric translation"
	case BursaWolfMethod:
		return "Bursa-Wolf"
	case AbridgedMolodensky:
		return "Abridged Molodensky"
	default:
		return "unknown"
	}
}

// Accuracy returns the nominal accuracy of the method in metres.
func (m Method) Accuracy() float64 {
	if m == AbridgedMolodensky {
		return 5
	}
	return 1
}

// DatumShift changes the datum of a point. The geocentric methods work on
// (X, Y, Z) in metres, the Molodensky method on (longitude°, latitude°,
// height m).
type DatumShift struct {
	method Method

	// geocentric methods: row-major 3×4 affine part
	m []float64

	// abridged Molodensky
	dim        int
	a, f, es   float64
	da, df     float64
	dx, dy, dz float64
	source     datum.Ellipsoid
	target     datum.Ellipsoid

	once   sync.Once
	inv    *DatumShift
	invErr error
}

// NewGeocentricTranslation creates a three-parameter shift.
func NewGeocentricTranslation(dx, dy, dz float64) *DatumShift {
	return &DatumShift{method: GeocentricTranslation, m: []float64{
		1, 0, 0, dx,
		0, 1, 0, dy,
		0, 0, 1, dz,
	}}
}

// NewBursaWolf creates the seven-parameter shift. Translation-only
// parameters produce a geocentric translation.
func NewBursaWolf(bw datum.BursaWolf) *DatumShift {
	if bw.IsTranslationOnly() {
		return NewGeocentricTranslation(bw.DX, bw.DY, bw.DZ)
	}
	return &DatumShift{method: BursaWolfMethod, m: bw.Matrix().Data()[:12]}
}

// NewAbridgedMolodensky creates a direct geographic shift from source to
// target ellipsoid. Only the translations of bw are used; rotations or
// scale fail with IllegalArgument. Without height the shift maps
// (longitude°, latitude°) pairs and assumes points on the ellipsoid.
func NewAbridgedMolodensky(source, target datum.Ellipsoid, bw datum.BursaWolf, hasHeight bool) (*DatumShift, error) {
	if !bw.IsTranslationOnly() {
		return nil, domain.NewError(domain.IllegalArgument, "Molodensky parameters", "rotations and scale are not supported")
	}
	dim := 2
	if hasHeight {
		dim = 3
	}
	return &DatumShift{
		method: AbridgedMolodensky,
		dim:    dim,
		a:      source.SemiMajorAxis(),
		f:      source.Flattening(),
		es:     source.EccentricitySquared(),
		da:     target.SemiMajorAxis() - source.SemiMajorAxis(),
		df:     target.Flattening() - source.Flattening(),
		dx:     bw.DX, dy: bw.DY, dz: bw.DZ,
		source: source,
		target: target,
	}, nil
}

// NewDatumShift returns the geocentric shift from the frame of source to
// the frame of target, routed through WGS84. Both datums must carry
// Bursa-Wolf parameters, otherwise the call fails with
// BursaWolfParametersRequired. The result is an identity when both
// parameter sets are equal.
func NewDatumShift(source, target datum.HorizontalDatum) (MathTransform, error) {
	toWGS84, ok1 := source.ToWGS84()
	fromWGS84, ok2 := target.ToWGS84()
	if !ok1 || !ok2 {
		return nil, domain.NewError(domain.BursaWolfParametersRequired, source.Name(), target.Name())
	}
	if toWGS84.Equal(fromWGS84) {
		return NewIdentity(3), nil
	}
	steps := make([]MathTransform, 0, 2)
	if !toWGS84.IsZero() {
		steps = append(steps, NewBursaWolf(toWGS84))
	}
	if !fromWGS84.IsZero() {
		inv, err := NewBursaWolf(fromWGS84).Inverse()
		if err != nil {
			return nil, err
		}
		steps = append(steps, inv)
	}
	return Concatenate(steps...)
}

// Method returns the shift method.
func (t *DatumShift) Method() Method { return t.method }

func (t *DatumShift) SourceDimensions() int { return t.dimension() }
func (t *DatumShift) TargetDimensions() int { return t.dimension() }
func (t *DatumShift) IsIdentity() bool      { return false }
func (t *DatumShift) Kind() Kind            { return KindDatumShift }

func (t *DatumShift) String() string {
	if t.method == AbridgedMolodensky {
		return fmt.Sprintf("DatumShift[%s %s→%s]", t.method, t.source.Name(), t.target.Name())
	}
	return fmt.Sprintf("DatumShift[%s]", t.method)
}

func (t *DatumShift) Transform(point []float64) ([]float64, error) {
	return transformPoint(t, point)
}

func (t *DatumShift) TransformPoints(points []float64) ([]float64, error) {
	return transformPoints(t, points)
}

// Derivative is exact for the geocentric methods.
func (t *DatumShift) Derivative(point []float64) (*matrix.Matrix, error) {
	if t.method == AbridgedMolodensky {
		return numericalDerivative(t, point)
	}
	if len(point) != 3 {
		return nil, mismatched("point", len(point), 3)
	}
	return matrix.New(3, 3, []float64{
		t.m[0], t.m[1], t.m[2],
		t.m[4], t.m[5], t.m[6],
		t.m[8], t.m[9], t.m[10],
	}), nil
}

// Inverse inverts the geocentric matrix exactly. The Molodensky inverse
// swaps the ellipsoids and negates the translations.
func (t *DatumShift) Inverse() (MathTransform, error) {
	t.once.Do(func() {
		if t.inv != nil {
			return
		}
		switch t.method {
		case AbridgedMolodensky:
			inv, err := NewAbridgedMolodensky(t.target, t.source, datum.BursaWolf{DX: -t.dx, DY: -t.dy, DZ: -t.dz}, t.dim == 3)
			if err != nil {
				t.invErr = domain.WrapError(domain.NonInvertibleTransform, err)
				return
			}
			inv.inv = t
			t.inv = inv
		default:
			full := append(append([]float64{}, t.m...), 0, 0, 0, 1)
			m, err := matrix.New(4, 4, full).Invert()
			if err != nil {
				t.invErr = domain.WrapError(domain.NonInvertibleTransform, err)
				return
			}
			t.inv = &DatumShift{method: t.method, m: m.Data()[:12], inv: t}
		}
	})
	if t.invErr != nil {
		return nil, t.invErr
	}
	return t.inv, nil
}

func (t *DatumShift) apply(dst, src []float64) error {
	if t.method == AbridgedMolodensky {
		return t.molodensky(dst, src)
	}
	for i := 0; i < 3; i++ {
		row := t.m[i*4 : i*4+4]
		dst[i] = row[0]*src[0] + row[1]*src[1] + row[2]*src[2] + row[3]
	}
	return nil
}

func (t *DatumShift) dimension() int {
	if t.method == AbridgedMolodensky {
		return t.dim
	}
	return 3
}

func (t *DatumShift) molodensky(dst, src []float64) error {
	h := 0.0
	if t.dim == 3 {
		h = src[2]
	}
	if math.IsNaN(src[0]) || math.IsNaN(src[1]) || math.IsNaN(h) {
		for i := range dst {
			dst[i] = math.NaN()
		}
		return nil
	}
	if err := units.CheckLatitude(src[1]); err != nil {
		return err
	}
	lam, phi := units.ToRadians(src[0]), units.ToRadians(src[1])
	sinphi, cosphi := math.Sincos(phi)
	sinlam, coslam := math.Sincos(lam)
	w := 1 - t.es*sinphi*sinphi
	rn := t.a / math.Sqrt(w)
	rm := t.a * (1 - t.es) / (w * math.Sqrt(w))
	adf := t.a*t.df + t.f*t.da

	dphi := (-t.dx*sinphi*coslam - t.dy*sinphi*sinlam + t.dz*cosphi + adf*math.Sin(2*phi)) / rm
	dlam := 0.0
	if math.Abs(cosphi) > 1e-12 {
		dlam = (-t.dx*sinlam + t.dy*coslam) / (rn * cosphi)
	}
	dh := t.dx*cosphi*coslam + t.dy*cosphi*sinlam + t.dz*sinphi + adf*sinphi*sinphi - t.da

	lat := units.ToDegrees(phi + dphi)
	dst[0] = units.NormalizeLongitude(units.ToDegrees(lam + dlam))
	dst[1] = math.Max(-90, math.Min(90, lat))
	if t.dim == 3 {
		dst[2] = h + dh
	}
	return nil
}
