package projection

import (
	"math"

	"github.com/jobrunner/gauss/internal/crs/datum"
	"github.com/jobrunner/gauss/internal/crs/units"
	"github.com/jobrunner/gauss/internal/domain"
)

// maxComplexEasting bounds the complex easting of the Gauss-Krüger series.
// Beyond it the series diverges.
const maxComplexEasting = 2.623395162778

// transverseMercator is the ellipsoidal Gauss-Krüger projection evaluated
// with Krüger's series in the third flattening n to sixth order (Poder and
// Engsager). It stays sub-millimetre well beyond a 6° zone.
type transverseMercator struct {
	a   float64
	qn  float64    // Meridian quadrant scaled by k0, unit ellipsoid
	zb  float64    // Northing of the latitude of origin
	cgb [6]float64 // Gaussian to geodetic latitude
	cbg [6]float64 // Geodetic to Gaussian latitude
	utg [6]float64 // Projected to spherical Gauss-Krüger
	gtu [6]float64 // Spherical Gauss-Krüger to projected
}

func newTransverseMercator(p Parameters, e datum.Ellipsoid, _ Options) (Formula, error) {
	t := &transverseMercator{a: e.SemiMajorAxis()}

	f := e.Flattening()
	n := f / (2 - f)
	np := n

	t.cgb[0] = n * (2 + n*(-2.0/3+n*(-2+n*(116.0/45+n*(26.0/45+n*(-2854.0/675))))))
	t.cbg[0] = n * (-2 + n*(2.0/3+n*(4.0/3+n*(-82.0/45+n*(32.0/45+n*(4642.0/4725))))))
	np *= n
	t.cgb[1] = np * (7.0/3 + n*(-8.0/5+n*(-227.0/45+n*(2704.0/315+n*(2323.0/945)))))
	t.cbg[1] = np * (5.0/3 + n*(-16.0/15+n*(-13.0/9+n*(904.0/315+n*(-1522.0/945)))))
	np *= n
	t.cgb[2] = np * (56.0/15 + n*(-136.0/35+n*(-1262.0/105+n*(73814.0/2835))))
	t.cbg[2] = np * (-26.0/15 + n*(34.0/21+n*(8.0/5+n*(-12686.0/2835))))
	np *= n
	t.cgb[3] = np * (4279.0/630 + n*(-332.0/35+n*(-399572.0/14175)))
	t.cbg[3] = np * (1237.0/630 + n*(-12.0/5+n*(-24832.0/14175)))
	np *= n
	t.cgb[4] = np * (4174.0/315 + n*(-144838.0/6237))
	t.cbg[4] = np * (-734.0/315 + n*(109598.0/31185))
	np *= n
	t.cgb[5] = np * (601676.0 / 22275)
	t.cbg[5] = np * (444337.0 / 155925)

	np = n * n
	t.qn = p[ScaleFactor] / (1 + n) * (1 + np*(1.0/4+np*(1.0/64+np/256)))

	t.utg[0] = n * (-0.5 + n*(2.0/3+n*(-37.0/96+n*(1.0/360+n*(81.0/512+n*(-96199.0/604800))))))
	t.gtu[0] = n * (0.5 + n*(-2.0/3+n*(5.0/16+n*(41.0/180+n*(-127.0/288+n*(7891.0/37800))))))
	t.utg[1] = np * (-1.0/48 + n*(-1.0/15+n*(437.0/1440+n*(-46.0/105+n*(1118711.0/3870720)))))
	t.gtu[1] = np * (13.0/48 + n*(-3.0/5+n*(557.0/1440+n*(281.0/630+n*(-1983433.0/1935360)))))
	np *= n
	t.utg[2] = np * (-17.0/480 + n*(37.0/840+n*(209.0/4480+n*(-5569.0/90720))))
	t.gtu[2] = np * (61.0/240 + n*(-103.0/140+n*(15061.0/26880+n*(167603.0/181440))))
	np *= n
	t.utg[3] = np * (-4397.0/161280 + n*(11.0/504+n*(830251.0/7257600)))
	t.gtu[3] = np * (49561.0/161280 + n*(-179.0/168+n*(6601661.0/7257600)))
	np *= n
	t.utg[4] = np * (-4583.0/161280 + n*(108847.0/3991680))
	t.gtu[4] = np * (34729.0/80640 + n*(-3418889.0/1995840))
	np *= n
	t.utg[5] = np * (-20648693.0 / 638668800)
	t.gtu[5] = np * (212378941.0 / 319334400)

	phi0 := units.ToRadians(p[LatitudeOfOrigin])
	z := gaussLatitude(t.cbg[:], phi0)
	t.zb = -t.qn * (z + clenshaw(t.gtu[:], 2*z))
	return t, nil
}

func (t *transverseMercator) Forward(lam, phi float64) (float64, float64, error) {
	if lam < -halfPi || lam > halfPi {
		return 0, 0, domain.WrapError(domain.LongitudeOutOfRange,
			errTooFarFromCentralMeridian, units.ToDegrees(lam))
	}

	cn := gaussLatitude(t.cbg[:], phi)
	sinCn, cosCn := math.Sincos(cn)
	sinCe, cosCe := math.Sincos(lam)

	// Gaussian latitude and longitude to complex spherical N, E.
	cn = math.Atan2(sinCn, cosCe*cosCn)
	ce := math.Asinh(math.Tan(math.Atan2(sinCe*cosCn, math.Hypot(sinCn, cosCn*cosCe))))

	dCn, dCe := clenshawComplex(t.gtu[:], 2*cn, 2*ce)
	cn += dCn
	ce += dCe
	if math.Abs(ce) > maxComplexEasting {
		return 0, 0, domain.WrapError(domain.LongitudeOutOfRange,
			errTooFarFromCentralMeridian, units.ToDegrees(lam))
	}
	return t.a * t.qn * ce, t.a * (t.qn*cn + t.zb), nil
}

func (t *transverseMercator) Inverse(x, y float64) (float64, float64, error) {
	cn := (y/t.a - t.zb) / t.qn
	ce := x / t.a / t.qn
	if math.Abs(ce) > maxComplexEasting {
		return 0, 0, domain.NewError(domain.IllegalArgument, "transverse mercator inverse", []float64{x, y})
	}

	dCn, dCe := clenshawComplex(t.utg[:], 2*cn, 2*ce)
	cn += dCn
	ce += dCe
	ce = math.Atan(math.Sinh(ce))

	// Complex spherical N, E to Gaussian latitude and longitude.
	sinCn, cosCn := math.Sincos(cn)
	sinCe, cosCe := math.Sincos(ce)
	lam := math.Atan2(sinCe, cosCe*cosCn)
	cn = math.Atan2(sinCn*cosCe, math.Hypot(sinCe, cosCe*cosCn))
	return lam, gaussLatitude(t.cgb[:], cn), nil
}

// gaussLatitude converts between geodetic and Gaussian latitude, depending
// on the coefficients given.
func gaussLatitude(c []float64, b float64) float64 {
	sin2B, cos2B := math.Sincos(2 * b)
	twoCos2B := 2 * cos2B
	var h, h1, h2 float64
	h1 = c[len(c)-1]
	for i := len(c) - 2; i >= 0; i-- {
		h = -h2 + twoCos2B*h1 + c[i]
		h2, h1 = h1, h
	}
	if len(c) == 1 {
		h = h1
	}
	return b + h*sin2B
}

// clenshaw sums the real sine series Σ c[k]·sin(2(k+1)·arg/2).
func clenshaw(c []float64, arg float64) float64 {
	r := 2 * math.Cos(arg)
	var hr, hr1, hr2 float64
	hr = c[len(c)-1]
	for i := len(c) - 2; i >= 0; i-- {
		hr2, hr1 = hr1, hr
		hr = -hr2 + r*hr1 + c[i]
	}
	return math.Sin(arg) * hr
}

// clenshawComplex sums the sine series of c for the complex argument
// argR + i·argI and returns its real and imaginary parts.
func clenshawComplex(c []float64, argR, argI float64) (float64, float64) {
	sinR, cosR := math.Sincos(argR)
	sinhI, coshI := math.Sinh(argI), math.Cosh(argI)

	r := 2 * cosR * coshI
	i := -2 * sinR * sinhI
	var hr, hr1, hr2, hi, hi1, hi2 float64
	hr = c[len(c)-1]
	for k := len(c) - 2; k >= 0; k-- {
		hr2, hi2 = hr1, hi1
		hr1, hi1 = hr, hi
		hr = -hr2 + r*hr1 - i*hi1 + c[k]
		hi = -hi2 + i*hr1 + r*hi1
	}

	r = sinR * coshI
	i = cosR * sinhI
	return r*hr - i*hi, r*hi + i*hr
}
