package application

import (
	"fmt"

	"github.com/jobrunner/gauss/internal/crs/cs"
	"github.com/jobrunner/gauss/internal/crs/datum"
	"github.com/jobrunner/gauss/internal/crs/projection"
	"github.com/jobrunner/gauss/internal/crs/units"
	"github.com/jobrunner/gauss/internal/domain"
)

// resolver builds coordinate systems from definitions. Systems referring
// to other codes (projected base, compound components) are resolved
// recursively and memoized.
type resolver struct {
	factory  *Factory
	defs     map[int]domain.CRSDefinition
	built    map[int]cs.CoordinateSystem
	visiting map[int]bool
}

func newResolver(factory *Factory, defs map[int]domain.CRSDefinition) *resolver {
	return &resolver{
		factory:  factory,
		defs:     defs,
		built:    make(map[int]cs.CoordinateSystem, len(defs)),
		visiting: make(map[int]bool),
	}
}

func (r *resolver) resolve(code int) (cs.CoordinateSystem, error) {
	if c, ok := r.built[code]; ok {
		return c, nil
	}
	def, ok := r.defs[code]
	if !ok {
		return nil, fmt.Errorf("%w: %d", domain.ErrUnknownCRS, code)
	}
	if r.visiting[code] {
		return nil, &domain.DefinitionError{Code: code, Err: fmt.Errorf("cyclic reference")}
	}
	r.visiting[code] = true
	defer delete(r.visiting, code)

	c, err := r.build(def)
	if err != nil {
		return nil, &domain.DefinitionError{Code: code, Err: err}
	}
	r.built[code] = c
	return c, nil
}

func (r *resolver) build(def domain.CRSDefinition) (cs.CoordinateSystem, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	switch def.Kind {
	case domain.KindGeographic, domain.KindGeographic3D:
		return buildGeographic(def)
	case domain.KindGeocentric:
		return buildGeocentric(def)
	case domain.KindVertical:
		return buildVertical(def)
	case domain.KindProjected:
		return r.buildProjected(def)
	default:
		return r.buildCompound(def)
	}
}

func buildGeographic(def domain.CRSDefinition) (*cs.Geographic, error) {
	unit, err := unitOf(def, units.Degree)
	if err != nil {
		return nil, err
	}
	d, err := horizontalDatum(def.Datum)
	if err != nil {
		return nil, err
	}
	pm := datum.Greenwich
	if def.PrimeMeridian != 0 {
		if pm, err = datum.NewPrimeMeridian("prime meridian", def.PrimeMeridian, units.Degree); err != nil {
			return nil, err
		}
	}

	if def.Kind == domain.KindGeographic {
		axes, err := axesOf(def, cs.Longitude, cs.Latitude)
		if err != nil {
			return nil, err
		}
		return cs.NewGeographic(def.Name, unit, d, pm, axes[0], axes[1])
	}
	axes, err := axesOf(def, cs.Longitude, cs.Latitude, cs.EllipsoidalHeight)
	if err != nil {
		return nil, err
	}
	return cs.NewGeographic3D(def.Name, unit, d, pm, axes[0], axes[1], axes[2], units.Metre)
}

func buildGeocentric(def domain.CRSDefinition) (*cs.Geocentric, error) {
	unit, err := unitOf(def, units.Metre)
	if err != nil {
		return nil, err
	}
	d, err := horizontalDatum(def.Datum)
	if err != nil {
		return nil, err
	}
	return cs.NewGeocentric(def.Name, d, unit)
}

func buildVertical(def domain.CRSDefinition) (*cs.Vertical, error) {
	unit, err := unitOf(def, units.Metre)
	if err != nil {
		return nil, err
	}
	axes, err := axesOf(def, cs.GravityHeight)
	if err != nil {
		return nil, err
	}
	return cs.NewVertical(def.Name, datum.VerticalDatum{Name: def.VerticalDatum}, unit, axes[0])
}

func (r *resolver) buildProjected(def domain.CRSDefinition) (*cs.Projected, error) {
	base, err := r.resolve(def.Base)
	if err != nil {
		return nil, err
	}
	geographic, ok := base.(*cs.Geographic)
	if !ok || geographic.Is3D() {
		return nil, fmt.Errorf("base crs %d is not a 2D geographic crs", def.Base)
	}
	unit, err := unitOf(def, units.Metre)
	if err != nil {
		return nil, err
	}
	axes, err := axesOf(def, cs.Easting, cs.Northing)
	if err != nil {
		return nil, err
	}

	name := def.Projection.Name
	if name == "" {
		name = def.Projection.Classification
	}
	p, err := projection.NewBuilder(name, def.Projection.Classification).
		SetAll(def.Projection.Parameters).
		Build(r.factory.Registry())
	if err != nil {
		return nil, err
	}
	return r.factory.CreateProjectedCoordinateSystem(def.Name, geographic, p, unit, axes[0], axes[1])
}

func (r *resolver) buildCompound(def domain.CRSDefinition) (*cs.Compound, error) {
	parts := make([]cs.CoordinateSystem, 0, len(def.Components))
	for _, code := range def.Components {
		c, err := r.resolve(code)
		if err != nil {
			return nil, err
		}
		parts = append(parts, c)
	}
	return cs.NewCompound(def.Name, parts...)
}

func horizontalDatum(def *domain.DatumDefinition) (datum.HorizontalDatum, error) {
	e, err := ellipsoid(def.Ellipsoid)
	if err != nil {
		return datum.HorizontalDatum{}, err
	}
	var toWGS84 *datum.BursaWolf
	if len(def.ToWGS84) > 0 {
		bw, err := datum.NewBursaWolf(def.ToWGS84)
		if err != nil {
			return datum.HorizontalDatum{}, err
		}
		toWGS84 = &bw
	}
	typ := datum.Classic
	if toWGS84 != nil && toWGS84.IsZero() {
		typ = datum.Geocentric
	}
	return datum.NewHorizontalDatum(def.Name, typ, e, toWGS84), nil
}

func ellipsoid(def domain.EllipsoidDefinition) (datum.Ellipsoid, error) {
	switch {
	case def.InverseFlattening > 0:
		return datum.NewEllipsoid(def.Name, def.SemiMajorAxis, def.InverseFlattening)
	case def.SemiMinorAxis > 0:
		return datum.NewEllipsoidFromAxes(def.Name, def.SemiMajorAxis, def.SemiMinorAxis)
	default:
		return datum.NewSphere(def.Name, def.SemiMajorAxis)
	}
}

// unitOf returns the unit named by the definition, or def when unset.
func unitOf(d domain.CRSDefinition, def units.Unit) (units.Unit, error) {
	if d.Unit == "" {
		return def, nil
	}
	u, ok := units.ByName(d.Unit)
	if !ok {
		return units.Unit{}, fmt.Errorf("unknown unit %q", d.Unit)
	}
	return u, nil
}

// axesOf returns the axes of the definition, or defaults when none are
// given. The number of axes must match the defaults.
func axesOf(d domain.CRSDefinition, defaults ...cs.AxisInfo) ([]cs.AxisInfo, error) {
	if len(d.Axes) == 0 {
		return defaults, nil
	}
	if len(d.Axes) != len(defaults) {
		return nil, domain.NewError(domain.IllegalCsDimension, d.Name, len(d.Axes))
	}
	axes := make([]cs.AxisInfo, len(d.Axes))
	for i, a := range d.Axes {
		dir, err := cs.ParseDirection(a.Direction)
		if err != nil {
			return nil, err
		}
		name := a.Name
		if name == "" {
			name = defaults[i].Name
		}
		axes[i] = cs.AxisInfo{Name: name, Direction: dir}
	}
	return axes, nil
}
