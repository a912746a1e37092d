package datum

import (
	"math"

	"github.com/tidwall/geodesic"

	"github.com/jobrunner/gauss/internal/crs/units"
	"github.com/jobrunner/gauss/internal/domain"
)

const antipodeTolerance = 1e-10 // degrees

// Geodesic solves the direct and inverse geodesic problems on an ellipsoid.
type Geodesic struct {
	ellipsoid Ellipsoid
	g         *geodesic.Ellipsoid
}

// NewGeodesic returns a geodesic calculator for e.
func NewGeodesic(e Ellipsoid) *Geodesic {
	return &Geodesic{ellipsoid: e, g: geodesic.NewEllipsoid(e.SemiMajorAxis(), e.Flattening())}
}

// Ellipsoid returns the ellipsoid the calculator works on.
func (g *Geodesic) Ellipsoid() Ellipsoid { return g.ellipsoid }

// Inverse returns the distance in metres and the forward azimuths in degrees
// at both points. Antipodal points have no unique azimuth and fail with
// AntipodeLatitudes.
func (g *Geodesic) Inverse(lon1, lat1, lon2, lat2 float64) (distance, azimuth1, azimuth2 float64, err error) {
	for _, lat := range []float64{lat1, lat2} {
		if err := units.CheckLatitude(lat); err != nil {
			return 0, 0, 0, err
		}
	}
	if areAntipodal(lon1, lat1, lon2, lat2) {
		return 0, 0, 0, domain.NewError(domain.AntipodeLatitudes, lon1, lat1, lon2, lat2)
	}
	g.g.Inverse(lat1, lon1, lat2, lon2, &distance, &azimuth1, &azimuth2)
	return distance, azimuth1, azimuth2, nil
}

// Direct returns the point reached from (lon, lat) after travelling
// distance metres along azimuth degrees.
func (g *Geodesic) Direct(lon, lat, azimuth, distance float64) (lon2, lat2 float64, err error) {
	if err := units.CheckLatitude(lat); err != nil {
		return 0, 0, err
	}
	if math.IsNaN(azimuth) || math.IsInf(azimuth, 0) || math.IsNaN(distance) || math.IsInf(distance, 0) {
		return 0, 0, domain.NewError(domain.IllegalArgument, "direct", []float64{azimuth, distance})
	}
	var azi2 float64
	g.g.Direct(lat, lon, azimuth, distance, &lat2, &lon2, &azi2)
	return units.NormalizeLongitude(lon2), lat2, nil
}

func areAntipodal(lon1, lat1, lon2, lat2 float64) bool {
	if math.Abs(lat1+lat2) > antipodeTolerance {
		return false
	}
	if math.Abs(math.Abs(lat1)-90) <= antipodeTolerance {
		// Opposite poles.
		return true
	}
	dlon := math.Abs(units.NormalizeLongitude(lon2 - lon1))
	return math.Abs(dlon-180) <= antipodeTolerance
}
