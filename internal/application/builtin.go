package application

import (
	"github.com/jobrunner/gauss/internal/crs/projection"
	"github.com/jobrunner/gauss/internal/domain"
)

var (
	wgs84Ellipsoid  = domain.EllipsoidDefinition{Name: "WGS 84", SemiMajorAxis: 6378137, InverseFlattening: 298.257223563}
	grs80Ellipsoid  = domain.EllipsoidDefinition{Name: "GRS 1980", SemiMajorAxis: 6378137, InverseFlattening: 298.257222101}
	besselEllipsoid = domain.EllipsoidDefinition{Name: "Bessel 1841", SemiMajorAxis: 6377397.155, InverseFlattening: 299.1528128}

	wgs84Datum  = &domain.DatumDefinition{Name: "World Geodetic System 1984", Ellipsoid: wgs84Ellipsoid, ToWGS84: []float64{0, 0, 0}}
	etrs89Datum = &domain.DatumDefinition{Name: "European Terrestrial Reference System 1989", Ellipsoid: grs80Ellipsoid, ToWGS84: []float64{0, 0, 0}}
)

// BuiltinDefinitions returns the definitions the catalog is seeded with.
// Geographic systems use longitude, latitude axis order.
func BuiltinDefinitions() []domain.CRSDefinition {
	return []domain.CRSDefinition{
		{Code: 4326, Name: "WGS 84", Kind: domain.KindGeographic, Datum: wgs84Datum},
		{Code: 4979, Name: "WGS 84 (3D)", Kind: domain.KindGeographic3D, Datum: wgs84Datum},
		{Code: 4978, Name: "WGS 84 (geocentric)", Kind: domain.KindGeocentric, Datum: wgs84Datum},
		{Code: 4258, Name: "ETRS89", Kind: domain.KindGeographic, Datum: etrs89Datum},
		{Code: 4269, Name: "NAD83", Kind: domain.KindGeographic, Datum: &domain.DatumDefinition{
			Name: "North American Datum 1983", Ellipsoid: grs80Ellipsoid, ToWGS84: []float64{0, 0, 0},
		}},
		{Code: 4267, Name: "NAD27", Kind: domain.KindGeographic, Datum: &domain.DatumDefinition{
			Name:      "North American Datum 1927",
			Ellipsoid: domain.EllipsoidDefinition{Name: "Clarke 1866", SemiMajorAxis: 6378206.4, SemiMinorAxis: 6356583.8},
			ToWGS84:   []float64{-8, 160, 176},
		}},
		{Code: 4314, Name: "DHDN", Kind: domain.KindGeographic, Datum: &domain.DatumDefinition{
			Name:      "Deutsches Hauptdreiecksnetz",
			Ellipsoid: besselEllipsoid,
			ToWGS84:   []float64{598.1, 73.7, 418.2, 0.202, 0.045, -2.455, 6.7},
		}},
		{Code: 4277, Name: "OSGB36", Kind: domain.KindGeographic, Datum: &domain.DatumDefinition{
			Name:      "Ordnance Survey of Great Britain 1936",
			Ellipsoid: domain.EllipsoidDefinition{Name: "Airy 1830", SemiMajorAxis: 6377563.396, InverseFlattening: 299.3249646},
			ToWGS84:   []float64{446.448, -125.157, 542.06, 0.15, 0.247, 0.842, -20.489},
		}},
		{Code: 4171, Name: "RGF93", Kind: domain.KindGeographic, Datum: &domain.DatumDefinition{
			Name: "Reseau Geodesique Francais 1993", Ellipsoid: grs80Ellipsoid, ToWGS84: []float64{0, 0, 0},
		}},
		{Code: 4289, Name: "Amersfoort", Kind: domain.KindGeographic, Datum: &domain.DatumDefinition{
			Name:      "Amersfoort",
			Ellipsoid: besselEllipsoid,
			ToWGS84:   []float64{565.417, 50.3319, 465.552, -0.398957, 0.343988, -1.8774, 4.0725},
		}},

		{Code: 3857, Name: "WGS 84 / Pseudo-Mercator", Kind: domain.KindProjected, Base: 4326,
			Projection: &domain.ProjectionDefinition{Name: "Popular Visualisation Pseudo-Mercator", Classification: projection.PseudoMercator,
				Parameters: map[string]float64{projection.CentralMeridian: 0}}},
		{Code: 3395, Name: "WGS 84 / World Mercator", Kind: domain.KindProjected, Base: 4326,
			Projection: &domain.ProjectionDefinition{Name: "World Mercator", Classification: projection.Mercator1SP,
				Parameters: map[string]float64{projection.CentralMeridian: 0, projection.ScaleFactor: 1}}},
		utm(25832, "ETRS89 / UTM zone 32N", 4258, 9),
		utm(25833, "ETRS89 / UTM zone 33N", 4258, 15),
		utm(32632, "WGS 84 / UTM zone 32N", 4326, 9),
		utm(32633, "WGS 84 / UTM zone 33N", 4326, 15),
		{Code: 31467, Name: "DHDN / 3-degree Gauss-Kruger zone 3", Kind: domain.KindProjected, Base: 4314,
			Projection: &domain.ProjectionDefinition{Name: "3-degree Gauss-Kruger zone 3", Classification: projection.TransverseMercator,
				Parameters: map[string]float64{
					projection.CentralMeridian: 9,
					projection.ScaleFactor:     1,
					projection.FalseEasting:    3500000,
				}}},
		{Code: 27700, Name: "OSGB36 / British National Grid", Kind: domain.KindProjected, Base: 4277,
			Projection: &domain.ProjectionDefinition{Name: "British National Grid", Classification: projection.TransverseMercator,
				Parameters: map[string]float64{
					projection.LatitudeOfOrigin: 49,
					projection.CentralMeridian:  -2,
					projection.ScaleFactor:      0.9996012717,
					projection.FalseEasting:     400000,
					projection.FalseNorthing:    -100000,
				}}},
		{Code: 2154, Name: "RGF93 / Lambert-93", Kind: domain.KindProjected, Base: 4171,
			Projection: &domain.ProjectionDefinition{Name: "Lambert-93", Classification: projection.LambertConformalConic2SP,
				Parameters: map[string]float64{
					projection.LatitudeOfOrigin:  46.5,
					projection.CentralMeridian:   3,
					projection.StandardParallel1: 49,
					projection.StandardParallel2: 44,
					projection.FalseEasting:      700000,
					projection.FalseNorthing:     6600000,
				}}},
		{Code: 28992, Name: "Amersfoort / RD New", Kind: domain.KindProjected, Base: 4289,
			Projection: &domain.ProjectionDefinition{Name: "RD New", Classification: projection.ObliqueStereographic,
				Parameters: map[string]float64{
					projection.LatitudeOfOrigin: 52.15616055555555,
					projection.CentralMeridian:  5.38763888888889,
					projection.ScaleFactor:      0.9999079,
					projection.FalseEasting:     155000,
					projection.FalseNorthing:    463000,
				}}},
		{Code: 32661, Name: "WGS 84 / UPS North (E,N)", Kind: domain.KindProjected, Base: 4326,
			Projection: &domain.ProjectionDefinition{Name: "Universal Polar Stereographic North", Classification: projection.PolarStereographic,
				Parameters: map[string]float64{
					projection.LatitudeOfOrigin: 90,
					projection.CentralMeridian:  0,
					projection.ScaleFactor:      0.994,
					projection.FalseEasting:     2000000,
					projection.FalseNorthing:    2000000,
				}}},
		{Code: 3413, Name: "WGS 84 / NSIDC Sea Ice Polar Stereographic North", Kind: domain.KindProjected, Base: 4326,
			Projection: &domain.ProjectionDefinition{Name: "US NSIDC Sea Ice polar stereographic north", Classification: projection.PolarStereographicVariantB,
				Parameters: map[string]float64{
					projection.StandardParallel1: 70,
					projection.CentralMeridian:   -45,
				}}},

		{Code: 5703, Name: "NAVD88 height", Kind: domain.KindVertical, VerticalDatum: "North American Vertical Datum 1988"},
		{Code: 3855, Name: "EGM2008 height", Kind: domain.KindVertical, VerticalDatum: "EGM2008 geoid"},
		{Code: 9518, Name: "WGS 84 + EGM2008 height", Kind: domain.KindCompound, Components: []int{4326, 3855}},
	}
}

func utm(code int, name string, base int, centralMeridian float64) domain.CRSDefinition {
	return domain.CRSDefinition{
		Code: code,
		Name: name,
		Kind: domain.KindProjected,
		Base: base,
		Projection: &domain.ProjectionDefinition{
			Name:           "Transverse Mercator",
			Classification: projection.TransverseMercator,
			Parameters: map[string]float64{
				projection.CentralMeridian: centralMeridian,
				projection.ScaleFactor:     0.9996,
				projection.FalseEasting:    500000,
			},
		},
	}
}
