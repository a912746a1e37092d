package projection

import (
	"math"

	"github.com/jobrunner/gauss/internal/crs/datum"
	"github.com/jobrunner/gauss/internal/crs/units"
	"github.com/jobrunner/gauss/internal/domain"
)

// lambertConic is the Lambert conformal conic projection with one or two
// standard parallels.
type lambertConic struct {
	a, e, n, c, rho0, k0 float64
	opts                 Options
}

func newLambertConic1SP(p Parameters, e datum.Ellipsoid, o Options) (Formula, error) {
	phi0 := units.ToRadians(p[LatitudeOfOrigin])
	return newLambertConic(e, phi0, phi0, phi0, p[ScaleFactor], o)
}

func newLambertConic2SP(p Parameters, e datum.Ellipsoid, o Options) (Formula, error) {
	return newLambertConic(e,
		units.ToRadians(p[LatitudeOfOrigin]),
		units.ToRadians(p[StandardParallel1]),
		units.ToRadians(p[StandardParallel2]),
		1, o)
}

func newLambertConic(el datum.Ellipsoid, lat0, lat1, lat2 float64, k0 float64, o Options) (Formula, error) {
	if math.Abs(lat1+lat2) < eps10 {
		return nil, domain.NewError(domain.IllegalArgument, StandardParallel2, "standard parallels are symmetric about the equator")
	}
	es := el.EccentricitySquared()
	e := el.Eccentricity()

	sinphi, cosphi := math.Sincos(lat1)
	n := sinphi
	m1 := msfn(sinphi, cosphi, es)
	ml1 := tsfn(lat1, sinphi, e)
	if math.Abs(lat1-lat2) >= eps10 {
		sin2, cos2 := math.Sincos(lat2)
		n = math.Log(m1/msfn(sin2, cos2, es)) / math.Log(ml1/tsfn(lat2, sin2, e))
	}
	c := m1 * math.Pow(ml1, -n) / n
	rho0 := 0.0
	if math.Abs(math.Abs(lat0)-halfPi) >= eps10 {
		rho0 = c * math.Pow(tsfn(lat0, math.Sin(lat0), e), n)
	}
	return &lambertConic{a: el.SemiMajorAxis(), e: e, n: n, c: c, rho0: rho0, k0: k0, opts: o}, nil
}

func (l *lambertConic) Forward(lam, phi float64) (float64, float64, error) {
	var rho float64
	if math.Abs(math.Abs(phi)-halfPi) < eps10 {
		if phi*l.n <= 0 {
			return 0, 0, poleError(phi)
		}
	} else {
		rho = l.c * math.Pow(tsfn(phi, math.Sin(phi), l.e), l.n)
	}
	lam *= l.n
	ak0 := l.a * l.k0
	return ak0 * rho * math.Sin(lam), ak0 * (l.rho0 - rho*math.Cos(lam)), nil
}

func (l *lambertConic) Inverse(x, y float64) (float64, float64, error) {
	ak0 := l.a * l.k0
	x /= ak0
	y = l.rho0 - y/ak0
	rho := math.Hypot(x, y)
	if rho == 0 {
		if l.n > 0 {
			return 0, halfPi, nil
		}
		return 0, -halfPi, nil
	}
	if l.n < 0 {
		rho, x, y = -rho, -x, -y
	}
	phi, err := phi2(math.Pow(rho/l.c, 1/l.n), l.e, l.opts)
	if err != nil {
		return 0, 0, err
	}
	return math.Atan2(x, y) / l.n, phi, nil
}

func checkLambert2SP(p Parameters) error {
	sp1, sp2 := p[StandardParallel1], p[StandardParallel2]
	if math.Abs(sp1) >= 90 || math.Abs(sp2) >= 90 {
		return domain.NewError(domain.ParameterOutOfRange, StandardParallel1, sp1)
	}
	if math.Abs(sp1+sp2) < 1e-8 {
		return domain.NewError(domain.IllegalArgument, StandardParallel2, "standard parallels are symmetric about the equator")
	}
	return nil
}

func checkLambert1SP(p Parameters) error {
	if lat := p[LatitudeOfOrigin]; lat == 0 || math.Abs(lat) >= 90 {
		return domain.NewError(domain.ParameterOutOfRange, LatitudeOfOrigin, lat)
	}
	return nil
}
