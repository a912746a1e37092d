package domain

import (
	"fmt"
	"strings"
)

// CRS kinds accepted in definitions.
const (
	KindGeographic   = "geographic"
	KindGeographic3D = "geographic3d"
	KindProjected    = "projected"
	KindGeocentric   = "geocentric"
	KindVertical     = "vertical"
	KindCompound     = "compound"
)

// CRSDefinition is the declarative description of a coordinate reference
// system as read from a catalog file.
type CRSDefinition struct {
	Code          int                   `yaml:"code"`
	Name          string                `yaml:"name"`
	Kind          string                `yaml:"kind"`
	Datum         *DatumDefinition      `yaml:"datum,omitempty"`
	VerticalDatum string                `yaml:"vertical_datum,omitempty"`
	PrimeMeridian float64               `yaml:"prime_meridian,omitempty"` // Degrees east of Greenwich
	Unit          string                `yaml:"unit,omitempty"`
	Axes          []AxisDefinition      `yaml:"axes,omitempty"`
	Base          int                   `yaml:"base,omitempty"` // Base geographic CRS of a projected CRS
	Projection    *ProjectionDefinition `yaml:"projection,omitempty"`
	Components    []int                 `yaml:"components,omitempty"` // Component CRS codes of a compound CRS
}

// DatumDefinition describes a horizontal datum.
type DatumDefinition struct {
	Name      string              `yaml:"name"`
	Ellipsoid EllipsoidDefinition `yaml:"ellipsoid"`
	ToWGS84   []float64           `yaml:"towgs84,omitempty"` // 3 or 7 Bursa-Wolf parameters
}

// EllipsoidDefinition describes an ellipsoid by its semi-major axis and
// either inverse flattening or semi-minor axis.
type EllipsoidDefinition struct {
	Name              string  `yaml:"name"`
	SemiMajorAxis     float64 `yaml:"a"`
	InverseFlattening float64 `yaml:"rf,omitempty"`
	SemiMinorAxis     float64 `yaml:"b,omitempty"`
}

// AxisDefinition describes one axis.
type AxisDefinition struct {
	Name      string `yaml:"name"`
	Direction string `yaml:"direction"`
}

// ProjectionDefinition describes a map projection.
type ProjectionDefinition struct {
	Name           string             `yaml:"name,omitempty"`
	Classification string             `yaml:"classification"`
	Parameters     map[string]float64 `yaml:"parameters,omitempty"`
}

// Validate checks the structural completeness of the definition. Numeric
// validation happens when the coordinate system is built.
func (d CRSDefinition) Validate() error {
	fail := func(msg string, args ...any) error {
		return &DefinitionError{Code: d.Code, Err: fmt.Errorf(msg, args...)}
	}
	if d.Code <= 0 {
		return fail("code must be positive")
	}
	if strings.TrimSpace(d.Name) == "" {
		return fail("name is required")
	}
	switch d.Kind {
	case KindGeographic, KindGeographic3D, KindGeocentric:
		if d.Datum == nil {
			return fail("%s crs needs a datum", d.Kind)
		}
		if d.Datum.Ellipsoid.SemiMajorAxis <= 0 {
			return fail("ellipsoid %q needs a positive semi-major axis", d.Datum.Ellipsoid.Name)
		}
		if n := len(d.Datum.ToWGS84); n != 0 && n != 3 && n != 7 {
			return fail("towgs84 needs 3 or 7 values, got %d", n)
		}
	case KindProjected:
		if d.Base <= 0 {
			return fail("projected crs needs a base crs")
		}
		if d.Projection == nil || d.Projection.Classification == "" {
			return fail("projected crs needs a projection classification")
		}
	case KindVertical:
		if d.VerticalDatum == "" {
			return fail("vertical crs needs a vertical datum")
		}
	case KindCompound:
		if len(d.Components) < 2 {
			return fail("compound crs needs at least two components")
		}
	default:
		return fail("unknown kind %q", d.Kind)
	}
	return nil
}

// Reserved srs_id values of GeoPackage files.
const (
	SRSUndefinedCartesian  = -1
	SRSUndefinedGeographic = 0
)

// SpatialRefSys is a row of a GeoPackage gpkg_spatial_ref_sys table.
type SpatialRefSys struct {
	Name           string // srs_name
	ID             int    // srs_id
	Organization   string // organization, e.g. "EPSG"
	OrganizationID int    // organization_coordsys_id
	Definition     string // WKT definition
	Description    string
}

// EPSGCode returns the EPSG code of the row, if it declares one.
func (s SpatialRefSys) EPSGCode() (int, bool) {
	if strings.EqualFold(s.Organization, "EPSG") && s.OrganizationID > 0 {
		return s.OrganizationID, true
	}
	return 0, false
}
