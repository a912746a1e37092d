package projection

import (
	"math"

	"github.com/jobrunner/gauss/internal/crs/datum"
	"github.com/jobrunner/gauss/internal/crs/units"
	"github.com/jobrunner/gauss/internal/domain"
)

// mercator is the ellipsoidal normal-aspect Mercator projection.
type mercator struct {
	a, e, ak0 float64
	opts      Options
}

func newMercator1SP(p Parameters, e datum.Ellipsoid, o Options) (Formula, error) {
	return &mercator{
		a:    e.SemiMajorAxis(),
		e:    e.Eccentricity(),
		ak0:  e.SemiMajorAxis() * p[ScaleFactor],
		opts: o,
	}, nil
}

func newMercator2SP(p Parameters, e datum.Ellipsoid, o Options) (Formula, error) {
	phi1 := units.ToRadians(math.Abs(p[StandardParallel1]))
	k0 := msfn(math.Sin(phi1), math.Cos(phi1), e.EccentricitySquared())
	return &mercator{
		a:    e.SemiMajorAxis(),
		e:    e.Eccentricity(),
		ak0:  e.SemiMajorAxis() * k0,
		opts: o,
	}, nil
}

func (m *mercator) Forward(lam, phi float64) (float64, float64, error) {
	if math.Abs(math.Abs(phi)-halfPi) <= eps10 {
		return 0, 0, poleError(phi)
	}
	return m.ak0 * lam, m.ak0 * (math.Asinh(math.Tan(phi)) - m.e*math.Atanh(m.e*math.Sin(phi))), nil
}

func (m *mercator) Inverse(x, y float64) (float64, float64, error) {
	phi, err := phi2(math.Exp(-y/m.ak0), m.e, m.opts)
	if err != nil {
		return 0, 0, err
	}
	return x / m.ak0, phi, nil
}

// pseudoMercator is the spherical Mercator applied to ellipsoidal
// coordinates, as used by web map tiles.
type pseudoMercator struct {
	a float64
}

func newPseudoMercator(_ Parameters, e datum.Ellipsoid, _ Options) (Formula, error) {
	return &pseudoMercator{a: e.SemiMajorAxis()}, nil
}

func (m *pseudoMercator) Forward(lam, phi float64) (float64, float64, error) {
	if math.Abs(math.Abs(phi)-halfPi) <= eps10 {
		return 0, 0, poleError(phi)
	}
	return m.a * lam, m.a * math.Asinh(math.Tan(phi)), nil
}

func (m *pseudoMercator) Inverse(x, y float64) (float64, float64, error) {
	return x / m.a, halfPi - 2*math.Atan(math.Exp(-y/m.a)), nil
}

func checkEquatorialOrigin(p Parameters) error {
	if p[LatitudeOfOrigin] != 0 {
		return domain.NewError(domain.ParameterOutOfRange, LatitudeOfOrigin, p[LatitudeOfOrigin])
	}
	return nil
}

func checkStandardParallel(p Parameters) error {
	if math.Abs(p[StandardParallel1]) >= 90 {
		return domain.NewError(domain.ParameterOutOfRange, StandardParallel1, p[StandardParallel1])
	}
	return checkEquatorialOrigin(p)
}
