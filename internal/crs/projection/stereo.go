package projection

import (
	"math"

	"github.com/jobrunner/gauss/internal/crs/datum"
	"github.com/jobrunner/gauss/internal/crs/units"
	"github.com/jobrunner/gauss/internal/domain"
)

// polarStereographic is the ellipsoidal stereographic projection centred on
// a pole. The point at the opposite pole cannot be projected, and the
// projection centre has no defined longitude.
type polarStereographic struct {
	akm1  float64
	e     float64
	north bool
	opts  Options
}

// newPolarStereographicA uses the scale factor at the pole.
func newPolarStereographicA(p Parameters, el datum.Ellipsoid, o Options) (Formula, error) {
	e := el.Eccentricity()
	k0 := p[ScaleFactor]
	akm1 := el.SemiMajorAxis() * 2 * k0 / math.Sqrt(math.Pow(1+e, 1+e)*math.Pow(1-e, 1-e))
	return &polarStereographic{akm1: akm1, e: e, north: p[LatitudeOfOrigin] > 0, opts: o}, nil
}

// newPolarStereographicB uses the latitude of true scale.
func newPolarStereographicB(p Parameters, el datum.Ellipsoid, o Options) (Formula, error) {
	e := el.Eccentricity()
	phic := units.ToRadians(math.Abs(p[StandardParallel1]))
	sinc, cosc := math.Sincos(phic)
	akm1 := el.SemiMajorAxis() * msfn(sinc, cosc, el.EccentricitySquared()) / tsfn(phic, sinc, e)
	return &polarStereographic{akm1: akm1, e: e, north: p[StandardParallel1] > 0, opts: o}, nil
}

func (s *polarStereographic) Forward(lam, phi float64) (float64, float64, error) {
	sinlam, coslam := math.Sincos(lam)
	if s.north {
		if math.Abs(phi+halfPi) < eps10 {
			return 0, 0, poleError(phi)
		}
		rho := s.akm1 * tsfn(phi, math.Sin(phi), s.e)
		return rho * sinlam, -rho * coslam, nil
	}
	if math.Abs(phi-halfPi) < eps10 {
		return 0, 0, poleError(phi)
	}
	rho := s.akm1 * tsfn(-phi, -math.Sin(phi), s.e)
	return rho * sinlam, rho * coslam, nil
}

func (s *polarStereographic) Inverse(x, y float64) (float64, float64, error) {
	rho := math.Hypot(x, y)
	if rho == 0 {
		pole := halfPi
		if !s.north {
			pole = -halfPi
		}
		return 0, 0, poleError(pole)
	}
	phi, err := phi2(rho/s.akm1, s.e, s.opts)
	if err != nil {
		return 0, 0, err
	}
	if s.north {
		return math.Atan2(x, -y), phi, nil
	}
	return math.Atan2(x, y), -phi, nil
}

func checkPolarOrigin(p Parameters) error {
	if lat := p[LatitudeOfOrigin]; math.Abs(lat) != 90 {
		return domain.NewError(domain.ParameterOutOfRange, LatitudeOfOrigin, lat)
	}
	return nil
}

func checkPolarStandardParallel(p Parameters) error {
	if lat := p[StandardParallel1]; lat == 0 {
		return domain.NewError(domain.ParameterOutOfRange, StandardParallel1, lat)
	}
	return nil
}

// obliqueStereographic is the double stereographic projection: a conformal
// mapping onto a sphere followed by a spherical stereographic projection.
type obliqueStereographic struct {
	e, es   float64
	n, c    float64
	chi0    float64
	sinChi0 float64
	cosChi0 float64
	twoRk0  float64
	lat0    float64
	g, h    float64
	opts    Options
}

func newObliqueStereographic(p Parameters, el datum.Ellipsoid, o Options) (Formula, error) {
	a := el.SemiMajorAxis()
	es := el.EccentricitySquared()
	e := el.Eccentricity()
	phi0 := units.ToRadians(p[LatitudeOfOrigin])
	sin0, cos0 := math.Sincos(phi0)

	rho0 := a * (1 - es) / math.Pow(1-es*sin0*sin0, 1.5)
	nu0 := a / math.Sqrt(1-es*sin0*sin0)
	r := math.Sqrt(rho0 * nu0)
	n := math.Sqrt(1 + es*math.Pow(cos0, 4)/(1-es))
	s1 := (1 + sin0) / (1 - sin0)
	s2 := (1 - e*sin0) / (1 + e*sin0)
	w1 := math.Pow(s1*math.Pow(s2, e), n)
	sinChi00 := (w1 - 1) / (w1 + 1)
	c := (n + sin0) * (1 - sinChi00) / ((n - sin0) * (1 + sinChi00))
	w2 := c * w1
	chi0 := math.Asin((w2 - 1) / (w2 + 1))

	twoRk0 := 2 * r * p[ScaleFactor]
	g := twoRk0 * math.Tan(math.Pi/4-chi0/2)
	sinChi0, cosChi0 := math.Sincos(chi0)
	return &obliqueStereographic{
		e: e, es: es, n: n, c: c,
		chi0: chi0, sinChi0: sinChi0, cosChi0: cosChi0,
		twoRk0: twoRk0,
		lat0:   phi0,
		g:      g,
		h:      2*twoRk0*math.Tan(chi0) + g,
		opts:   o,
	}, nil
}

// conformalLatitude maps a geodetic latitude onto the conformal sphere.
func (s *obliqueStereographic) conformalLatitude(phi float64) float64 {
	if math.Abs(math.Abs(phi)-halfPi) < eps10 {
		return math.Copysign(halfPi, phi)
	}
	sinphi := math.Sin(phi)
	sa := (1 + sinphi) / (1 - sinphi)
	sb := (1 - s.e*sinphi) / (1 + s.e*sinphi)
	w := s.c * math.Pow(sa*math.Pow(sb, s.e), s.n)
	return math.Asin((w - 1) / (w + 1))
}

func (s *obliqueStereographic) Forward(lam, phi float64) (float64, float64, error) {
	chi := s.conformalLatitude(phi)
	sinChi, cosChi := math.Sincos(chi)
	dl := s.n * lam
	sindl, cosdl := math.Sincos(dl)
	b := 1 + sinChi*s.sinChi0 + cosChi*s.cosChi0*cosdl
	if b < eps10 {
		return 0, 0, domain.NewError(domain.AntipodeLatitudes,
			units.ToDegrees(lam), units.ToDegrees(phi), 0.0, units.ToDegrees(s.lat0))
	}
	x := s.twoRk0 * cosChi * sindl / b
	y := s.twoRk0 * (sinChi*s.cosChi0 - cosChi*s.sinChi0*cosdl) / b
	return x, y, nil
}

func (s *obliqueStereographic) Inverse(x, y float64) (float64, float64, error) {
	i := math.Atan(x / (s.h + y))
	j := math.Atan(x/(s.g-y)) - i
	chi := s.chi0 + 2*math.Atan((y-x*math.Tan(j/2))/s.twoRk0)
	lam := (j + 2*i) / s.n

	sinChi := math.Sin(chi)
	if math.Abs(math.Abs(sinChi)-1) < 1e-15 {
		return 0, math.Copysign(halfPi, chi), nil
	}
	psi := 0.5 * math.Log((1+sinChi)/(s.c*(1-sinChi))) / s.n
	phi := 2*math.Atan(math.Exp(psi)) - halfPi
	for it := 0; it < s.opts.MaxIterations; it++ {
		sinphi, cosphi := math.Sincos(phi)
		psii := math.Log(math.Tan(phi/2+math.Pi/4) * math.Pow((1-s.e*sinphi)/(1+s.e*sinphi), s.e/2))
		d := (psii - psi) * cosphi * (1 - s.es*sinphi*sinphi) / (1 - s.es)
		phi -= d
		if math.Abs(d) <= s.opts.Tolerance {
			return lam, phi, nil
		}
	}
	return 0, 0, domain.NewError(domain.NoConvergence, s.opts.MaxIterations)
}

func checkObliqueOrigin(p Parameters) error {
	if lat := p[LatitudeOfOrigin]; math.Abs(lat) >= 90 {
		return domain.NewError(domain.ParameterOutOfRange, LatitudeOfOrigin, lat)
	}
	return nil
}
