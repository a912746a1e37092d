package units

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/jobrunner/gauss/internal/domain"
)

const dmsEpsilon = 1e-9

// ToRadians converts degrees to radians.
func ToRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// ToDegrees converts radians to degrees.
func ToDegrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

// Longitudes this close to the antimeridian are taken to be on it, so
// that rounding in a round trip does not flip 180° to -180°.
const (
	antimeridianEpsilon        = 1e-10
	antimeridianEpsilonRadians = 1e-12
)

// NormalizeLongitude wraps a longitude in degrees into (-180, 180].
func NormalizeLongitude(deg float64) float64 {
	if math.Abs(math.Abs(deg)-180) <= antimeridianEpsilon {
		return 180
	}
	if deg > -180 && deg <= 180 {
		return deg
	}
	deg = math.Mod(deg, 360)
	switch {
	case deg <= -180:
		deg += 360
	case deg > 180:
		deg -= 360
	}
	if math.Abs(math.Abs(deg)-180) <= antimeridianEpsilon {
		return 180
	}
	return deg
}

// NormalizeLongitudeRadians wraps a longitude in radians into (-π, π].
func NormalizeLongitudeRadians(rad float64) float64 {
	if math.Abs(math.Abs(rad)-math.Pi) <= antimeridianEpsilonRadians {
		return math.Pi
	}
	if rad > -math.Pi && rad <= math.Pi {
		return rad
	}
	rad = math.Mod(rad, 2*math.Pi)
	switch {
	case rad <= -math.Pi:
		rad += 2 * math.Pi
	case rad > math.Pi:
		rad -= 2 * math.Pi
	}
	if math.Abs(math.Abs(rad)-math.Pi) <= antimeridianEpsilonRadians {
		return math.Pi
	}
	return rad
}

// CheckLatitude fails with LatitudeOutOfRange outside [-90, 90] degrees.
func CheckLatitude(deg float64) error {
	if !(deg >= -90 && deg <= 90) {
		return domain.NewError(domain.LatitudeOutOfRange, deg)
	}
	return nil
}

// CheckLongitude fails with LongitudeOutOfRange outside [-180, 180] degrees.
func CheckLongitude(deg float64) error {
	if !(deg >= -180 && deg <= 180) {
		return domain.NewError(domain.LongitudeOutOfRange, deg)
	}
	return nil
}

// DMSToDegrees decodes the packed sexagesimal form D.MMSSsss, so that
// 12.3045 means 12°30'45".
func DMSToDegrees(dms float64) (float64, error) {
	if math.IsNaN(dms) || math.IsInf(dms, 0) {
		return 0, domain.NewError(domain.AngleOverflow, dms)
	}
	v := math.Abs(dms)
	d := math.Floor(v)
	f := (v - d) * 100
	m := math.Floor(f + dmsEpsilon)
	s := (f - m) * 100
	if s < dmsEpsilon {
		s = 0
	}
	if m >= 60 || s >= 60+dmsEpsilon {
		return 0, domain.NewError(domain.AngleOverflow, dms)
	}
	deg := d + m/60 + s/3600
	if dms < 0 {
		deg = -deg
	}
	return deg, nil
}

// DegreesToDMS encodes decimal degrees in the packed D.MMSSsss form.
func DegreesToDMS(deg float64) float64 {
	d, m, s := split(math.Abs(deg))
	v := d + m/100 + s/10000
	if deg < 0 {
		return -v
	}
	return v
}

// split breaks a non-negative angle into degrees, minutes and seconds,
// carrying rounded seconds into minutes and degrees.
func split(v float64) (d, m, s float64) {
	d = math.Floor(v)
	mf := (v - d) * 60
	m = math.Floor(mf)
	s = (mf - m) * 60
	if s >= 60-1e-7 {
		s = 0
		m++
	}
	if m >= 60 {
		m = 0
		d++
	}
	return d, m, s
}

// FormatDMS renders an angle such as 52°30'15.000"N using the given
// hemisphere letters for positive and negative values.
func FormatDMS(deg float64, pos, neg rune) string {
	h := pos
	if deg < 0 {
		h = neg
	}
	d, m, s := split(math.Abs(deg))
	var b strings.Builder
	b.WriteString(strconv.FormatFloat(d, 'f', 0, 64))
	b.WriteString("°")
	b.WriteString(strconv.FormatFloat(m, 'f', 0, 64))
	b.WriteString("'")
	b.WriteString(strconv.FormatFloat(s, 'f', 3, 64))
	b.WriteString("\"")
	b.WriteRune(h)
	return b.String()
}

// ParseAngle parses decimal degrees ("-12.5") or a sexagesimal form such as
// 52°30'15"N, 52 30 15 N, 52d30m15s or 52:30:15. An uppercase hemisphere
// letter S or W makes the angle negative.
func ParseAngle(s string) (float64, error) {
	in := strings.TrimSpace(s)
	if in == "" {
		return 0, domain.NewError(domain.IllegalArgument, "angle", s)
	}
	sign := 1.0
	if r := rune(in[len(in)-1]); strings.ContainsRune("NSEW", r) {
		if r == 'S' || r == 'W' {
			sign = -1
		}
		in = strings.TrimSpace(in[:len(in)-1])
	} else if r := rune(in[0]); strings.ContainsRune("NSEW", r) {
		if r == 'S' || r == 'W' {
			sign = -1
		}
		in = strings.TrimSpace(in[1:])
	}

	fields := strings.FieldsFunc(in, func(r rune) bool {
		return unicode.IsSpace(r) || strings.ContainsRune("°'\"′″:dms", r)
	})
	if len(fields) == 0 || len(fields) > 3 {
		return 0, domain.NewError(domain.IllegalArgument, "angle", s)
	}

	var parts [3]float64
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return 0, domain.WrapError(domain.IllegalArgument, err, "angle", s)
		}
		if i > 0 && (v < 0 || v >= 60) {
			return 0, domain.NewError(domain.AngleOverflow, v)
		}
		parts[i] = v
	}
	if parts[0] < 0 {
		sign = -sign
		parts[0] = -parts[0]
	}
	deg := sign * (parts[0] + parts[1]/60 + parts[2]/3600)
	if math.IsInf(deg, 0) || math.IsNaN(deg) {
		return 0, domain.NewError(domain.AngleOverflow, s)
	}
	return deg, nil
}
