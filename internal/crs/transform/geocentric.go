package transform

import (
	"fmt"
	"math"
	"sync"

	"github.com/jobrunner/gauss/internal/crs/datum"
	"github.com/jobrunner/gauss/internal/crs/matrix"
	"github.com/jobrunner/gauss/internal/crs/projection"
	"github.com/jobrunner/gauss/internal/crs/units"
	"github.com/jobrunner/gauss/internal/domain"
)

// Geocentric converts (longitude°, latitude°, height m) on an ellipsoid to
// earth-centred (X, Y, Z) in metres. Without height the source is
// (longitude°, latitude°) on the ellipsoid surface and the inverse drops
// the computed height. The inverse is iterative and bounded by the
// iteration options.
type Geocentric struct {
	ellipsoid datum.Ellipsoid
	a, b, es  float64
	dim       int
	opts      projection.Options

	once sync.Once
	inv  *Inverse
}

// NewGeocentric creates the conversion for an ellipsoid. Zero options
// select the defaults.
func NewGeocentric(e datum.Ellipsoid, hasHeight bool, o projection.Options) *Geocentric {
	d := projection.DefaultOptions()
	if !(o.Tolerance > 0) {
		o.Tolerance = d.Tolerance
	}
	if o.MaxIterations <= 0 {
		o.MaxIterations = d.MaxIterations
	}
	dim := 2
	if hasHeight {
		dim = 3
	}
	return &Geocentric{
		ellipsoid: e,
		a:         e.SemiMajorAxis(),
		b:         e.SemiMinorAxis(),
		es:        e.EccentricitySquared(),
		dim:       dim,
		opts:      o,
	}
}

// Ellipsoid returns the ellipsoid of the conversion.
func (t *Geocentric) Ellipsoid() datum.Ellipsoid { return t.ellipsoid }

func (t *Geocentric) SourceDimensions() int { return t.dim }
func (t *Geocentric) TargetDimensions() int { return 3 }
func (t *Geocentric) IsIdentity() bool      { return false }
func (t *Geocentric) Kind() Kind            { return KindGeocentric }

func (t *Geocentric) String() string {
	return fmt.Sprintf("Geocentric[%s, %dD]", t.ellipsoid.Name(), t.dim)
}

func (t *Geocentric) Transform(point []float64) ([]float64, error) {
	return transformPoint(t, point)
}

func (t *Geocentric) TransformPoints(points []float64) ([]float64, error) {
	return transformPoints(t, points)
}

func (t *Geocentric) Derivative(point []float64) (*matrix.Matrix, error) {
	return numericalDerivative(t, point)
}

// Inverse returns the lazy inverse wrapper, created once.
func (t *Geocentric) Inverse() (MathTransform, error) {
	t.once.Do(func() { t.inv = &Inverse{wrapped: t} })
	return t.inv, nil
}

func (t *Geocentric) apply(dst, src []float64) error {
	h := 0.0
	if t.dim == 3 {
		h = src[2]
	}
	if math.IsNaN(src[0]) || math.IsNaN(src[1]) || math.IsNaN(h) {
		dst[0], dst[1], dst[2] = math.NaN(), math.NaN(), math.NaN()
		return nil
	}
	if err := units.CheckLatitude(src[1]); err != nil {
		return err
	}
	lam, phi := units.ToRadians(src[0]), units.ToRadians(src[1])
	sinphi, cosphi := math.Sincos(phi)
	sinlam, coslam := math.Sincos(lam)
	n := t.a / math.Sqrt(1-t.es*sinphi*sinphi)
	dst[0] = (n + h) * cosphi * coslam
	dst[1] = (n + h) * cosphi * sinlam
	dst[2] = (n*(1-t.es) + h) * sinphi
	return nil
}

func (t *Geocentric) applyInverse(dst, src []float64) error {
	x, y, z := src[0], src[1], src[2]
	if math.IsNaN(x) || math.IsNaN(y) || math.IsNaN(z) {
		t.store(dst, math.NaN(), math.NaN(), math.NaN())
		return nil
	}
	if math.IsInf(x, 0) || math.IsInf(y, 0) || math.IsInf(z, 0) {
		return domain.NewError(domain.NonFiniteCoordinate, []float64{x, y, z})
	}

	p := math.Hypot(x, y)
	if p < 1e-12*t.a {
		lat := 90.0
		if z < 0 {
			lat = -90
		}
		t.store(dst, 0, lat, math.Abs(z)-t.b)
		return nil
	}

	lam := math.Atan2(y, x)
	phi := math.Atan2(z, p*(1-t.es))
	for i := 0; i < t.opts.MaxIterations; i++ {
		sinphi := math.Sin(phi)
		n := t.a / math.Sqrt(1-t.es*sinphi*sinphi)
		next := math.Atan2(z+t.es*n*sinphi, p)
		if math.Abs(next-phi) <= t.opts.Tolerance {
			sinphi, cosphi := math.Sincos(next)
			h := p*cosphi + z*sinphi - t.a*math.Sqrt(1-t.es*sinphi*sinphi)
			t.store(dst, units.ToDegrees(lam), units.ToDegrees(next), h)
			return nil
		}
		phi = next
	}
	return domain.NewError(domain.NoConvergence, t.opts.MaxIterations)
}

func (t *Geocentric) store(dst []float64, lon, lat, h float64) {
	dst[0], dst[1] = lon, lat
	if t.dim == 3 {
		dst[2] = h
	}
}
