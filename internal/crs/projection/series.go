package projection

import (
	"math"

	"github.com/jobrunner/gauss/internal/domain"
)

const (
	halfPi = math.Pi / 2
	eps10  = 1e-10
)

// tsfn is the function t(φ) of the conformal projections.
func tsfn(phi, sinphi, e float64) float64 {
	sinphi *= e
	return math.Tan(0.5*(halfPi-phi)) / math.Pow((1-sinphi)/(1+sinphi), 0.5*e)
}

// msfn is the function m(φ) of the conformal projections.
func msfn(sinphi, cosphi, es float64) float64 {
	return cosphi / math.Sqrt(1-es*sinphi*sinphi)
}

// phi2 recovers the latitude from t(φ) by fixed-point iteration.
func phi2(ts, e float64, o Options) (float64, error) {
	eccnth := 0.5 * e
	phi := halfPi - 2*math.Atan(ts)
	for i := 0; i < o.MaxIterations; i++ {
		con := e * math.Sin(phi)
		dphi := halfPi - 2*math.Atan(ts*math.Pow((1-con)/(1+con), eccnth)) - phi
		phi += dphi
		if math.Abs(dphi) <= o.Tolerance {
			return phi, nil
		}
	}
	return 0, domain.NewError(domain.NoConvergence, o.MaxIterations)
}

func poleError(phi float64) error {
	return domain.NewError(domain.PoleProjection, phi*180/math.Pi)
}
