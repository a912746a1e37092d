package projection

import (
	"errors"
	"math"

	"github.com/jobrunner/gauss/internal/crs/datum"
	"github.com/jobrunner/gauss/internal/crs/units"
	"github.com/jobrunner/gauss/internal/domain"
)

var errTooFarFromCentralMeridian = errors.New("more than 90° from the central meridian")

// Canonical classification names.
const (
	Mercator1SP                = "Mercator_1SP"
	Mercator2SP                = "Mercator_2SP"
	PseudoMercator             = "Popular_Visualisation_Pseudo_Mercator"
	TransverseMercator         = "Transverse_Mercator"
	LambertConformalConic1SP   = "Lambert_Conformal_Conic_1SP"
	LambertConformalConic2SP   = "Lambert_Conformal_Conic_2SP"
	PolarStereographic         = "Polar_Stereographic"
	PolarStereographicVariantB = "Polar_Stereographic_Variant_B"
	ObliqueStereographic       = "Oblique_Stereographic"
	EquidistantCylindrical     = "Equidistant_Cylindrical"
)

func required(name string, kind ParameterKind) ParameterDescriptor {
	return ParameterDescriptor{Name: name, Kind: kind, Required: true}
}

func optional(name string, kind ParameterKind, def float64) ParameterDescriptor {
	return ParameterDescriptor{Name: name, Kind: kind, Default: def}
}

var falseOrigin = []ParameterDescriptor{
	optional(FalseEasting, Length, 0),
	optional(FalseNorthing, Length, 0),
}

func params(d ...ParameterDescriptor) []ParameterDescriptor {
	return append(d, falseOrigin...)
}

func builtinProviders() []Provider {
	return []Provider{
		{
			Classification: Mercator1SP,
			Aliases:        []string{"Mercator", "merc"},
			Parameters: params(
				required(CentralMeridian, Longitude),
				optional(LatitudeOfOrigin, Latitude, 0),
				optional(ScaleFactor, ScaleKind, 1),
			),
			Check: checkEquatorialOrigin,
			New:   newMercator1SP,
		},
		{
			Classification: Mercator2SP,
			Aliases:        []string{"Mercator_Variant_B"},
			Parameters: params(
				required(CentralMeridian, Longitude),
				optional(LatitudeOfOrigin, Latitude, 0),
				required(StandardParallel1, Latitude),
			),
			Check: checkStandardParallel,
			New:   newMercator2SP,
		},
		{
			Classification: PseudoMercator,
			Aliases:        []string{"Mercator_Auxiliary_Sphere", "webmerc"},
			Parameters: params(
				required(CentralMeridian, Longitude),
				optional(LatitudeOfOrigin, Latitude, 0),
			),
			Check: checkEquatorialOrigin,
			New:   newPseudoMercator,
		},
		{
			Classification: TransverseMercator,
			Aliases:        []string{"Gauss_Kruger", "tmerc"},
			Parameters: params(
				required(CentralMeridian, Longitude),
				optional(LatitudeOfOrigin, Latitude, 0),
				optional(ScaleFactor, ScaleKind, 1),
			),
			New: newTransverseMercator,
		},
		{
			Classification: LambertConformalConic1SP,
			Parameters: params(
				required(CentralMeridian, Longitude),
				required(LatitudeOfOrigin, Latitude),
				optional(ScaleFactor, ScaleKind, 1),
			),
			Check: checkLambert1SP,
			New:   newLambertConic1SP,
		},
		{
			Classification: LambertConformalConic2SP,
			Aliases:        []string{"Lambert_Conformal_Conic", "lcc"},
			Parameters: params(
				required(CentralMeridian, Longitude),
				optional(LatitudeOfOrigin, Latitude, 0),
				required(StandardParallel1, Latitude),
				required(StandardParallel2, Latitude),
			),
			Check: checkLambert2SP,
			New:   newLambertConic2SP,
		},
		{
			Classification: PolarStereographic,
			Aliases:        []string{"Polar_Stereographic_Variant_A", "ups"},
			Parameters: params(
				required(CentralMeridian, Longitude),
				required(LatitudeOfOrigin, Latitude),
				optional(ScaleFactor, ScaleKind, 1),
			),
			Check: checkPolarOrigin,
			New:   newPolarStereographicA,
		},
		{
			Classification: PolarStereographicVariantB,
			Parameters: params(
				required(CentralMeridian, Longitude),
				required(StandardParallel1, Latitude),
			),
			Check: checkPolarStandardParallel,
			New:   newPolarStereographicB,
		},
		{
			Classification: ObliqueStereographic,
			Aliases:        []string{"Double_Stereographic", "sterea"},
			Parameters: params(
				required(CentralMeridian, Longitude),
				required(LatitudeOfOrigin, Latitude),
				optional(ScaleFactor, ScaleKind, 1),
			),
			Check: checkObliqueOrigin,
			New:   newObliqueStereographic,
		},
		{
			Classification: EquidistantCylindrical,
			Aliases:        []string{"Plate_Carree", "Equirectangular", "eqc"},
			Parameters: params(
				required(CentralMeridian, Longitude),
				optional(LatitudeOfOrigin, Latitude, 0),
				optional(StandardParallel1, Latitude, 0),
			),
			Check: func(p Parameters) error {
				if math.Abs(p[StandardParallel1]) >= 90 {
					return domain.NewError(domain.ParameterOutOfRange, StandardParallel1, p[StandardParallel1])
				}
				return nil
			},
			New: newEquidistantCylindrical,
		},
	}
}

// equidistantCylindrical is the spherical plate carrée with a latitude of
// true scale, evaluated on a sphere of radius a.
type equidistantCylindrical struct {
	a, cosphi1, phi0 float64
}

func newEquidistantCylindrical(p Parameters, e datum.Ellipsoid, _ Options) (Formula, error) {
	return &equidistantCylindrical{
		a:       e.SemiMajorAxis(),
		cosphi1: math.Cos(units.ToRadians(p[StandardParallel1])),
		phi0:    units.ToRadians(p[LatitudeOfOrigin]),
	}, nil
}

func (q *equidistantCylindrical) Forward(lam, phi float64) (float64, float64, error) {
	return q.a * lam * q.cosphi1, q.a * (phi - q.phi0), nil
}

func (q *equidistantCylindrical) Inverse(x, y float64) (float64, float64, error) {
	phi := y/q.a + q.phi0
	if math.Abs(phi) > halfPi+eps10 {
		return 0, 0, domain.NewError(domain.LatitudeOutOfRange, units.ToDegrees(phi))
	}
	return x / (q.a * q.cosphi1), math.Max(-halfPi, math.Min(halfPi, phi)), nil
}
