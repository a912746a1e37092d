package cs

import (
	"fmt"
	"strings"

	"github.com/jobrunner/gauss/internal/crs/datum"
	"github.com/jobrunner/gauss/internal/crs/projection"
	"github.com/jobrunner/gauss/internal/crs/units"
	"github.com/jobrunner/gauss/internal/domain"
)

// Kind identifies the coordinate system variant.
type Kind int

// Coordinate system kinds.
const (
	KindGeographic Kind = iota
	KindProjected
	KindGeocentric
	KindVertical
	KindCompound
)

func (k Kind) String() string {
	switch k {
	case KindGeographic:
		return "geographic"
	case KindProjected:
		return "projected"
	case KindGeocentric:
		return "geocentric"
	case KindVertical:
		return "vertical"
	case KindCompound:
		return "compound"
	default:
		return "unknown"
	}
}

// CoordinateSystem is implemented by Geographic, Projected, Geocentric,
// Vertical and Compound. The set is closed.
type CoordinateSystem interface {
	// Name returns the descriptive name. It takes no part in equality.
	Name() string

	// Kind returns the variant.
	Kind() Kind

	// Dimension returns the number of axes.
	Dimension() int

	// Axis returns the i-th axis.
	Axis(i int) AxisInfo

	// Unit returns the unit of values along the i-th axis.
	Unit(i int) units.Unit

	// Equal reports structural equality of all defining parameters.
	Equal(o CoordinateSystem) bool

	// Key returns a canonical string of the defining parameters. Equal
	// systems have equal keys.
	Key() string

	coordinateSystem()
}

// Geographic is an ellipsoidal coordinate system: longitude and latitude
// in an angular unit, optionally with an ellipsoidal height.
type Geographic struct {
	name          string
	datum         datum.HorizontalDatum
	primeMeridian datum.PrimeMeridian
	unit          units.Unit
	heightUnit    units.Unit
	axes          []AxisInfo
}

// WGS84 is the geographic system of WGS 84 in degrees, longitude first.
var WGS84 = mustGeographic(NewGeographic("WGS 84", units.Degree, datum.WGS84Datum, datum.Greenwich, Longitude, Latitude))

func mustGeographic(g *Geographic, err error) *Geographic {
	if err != nil {
		panic(err)
	}
	return g
}

// NewGeographic creates a two-dimensional geographic system. One axis must
// point north or south, the other east or west, in any order.
func NewGeographic(name string, unit units.Unit, d datum.HorizontalDatum, pm datum.PrimeMeridian, axis0, axis1 AxisInfo) (*Geographic, error) {
	if err := units.RequireAngular(unit); err != nil {
		return nil, err
	}
	axes := []AxisInfo{axis0, axis1}
	if err := checkHorizontal(name, axes); err != nil {
		return nil, err
	}
	return &Geographic{name: name, datum: d, primeMeridian: pm, unit: unit, axes: axes}, nil
}

// NewGeographic3D creates a geographic system with an ellipsoidal height
// as third axis.
func NewGeographic3D(name string, unit units.Unit, d datum.HorizontalDatum, pm datum.PrimeMeridian,
	axis0, axis1, axis2 AxisInfo, heightUnit units.Unit) (*Geographic, error) {
	g, err := NewGeographic(name, unit, d, pm, axis0, axis1)
	if err != nil {
		return nil, err
	}
	if err := units.RequireLinear(heightUnit); err != nil {
		return nil, err
	}
	if !axis2.Direction.IsVertical() {
		return nil, domain.NewError(domain.IllegalArgument, "height axis", axis2.Direction)
	}
	g.axes = append(g.axes, axis2)
	g.heightUnit = heightUnit
	return g, nil
}

func checkHorizontal(name string, axes []AxisInfo) error {
	for _, a := range axes {
		if !a.Direction.IsHorizontal() {
			return domain.WrapError(domain.IllegalArgument, fmt.Errorf("coordinate system %q", name), "axis", a)
		}
	}
	return checkAxes(axes)
}

func (g *Geographic) coordinateSystem() {}

// Name returns the system name.
func (g *Geographic) Name() string { return g.name }

// Kind returns KindGeographic.
func (g *Geographic) Kind() Kind { return KindGeographic }

// Dimension returns 2, or 3 with an ellipsoidal height.
func (g *Geographic) Dimension() int { return len(g.axes) }

// Axis returns the i-th axis.
func (g *Geographic) Axis(i int) AxisInfo { return g.axes[i] }

// Unit returns the angular unit for the horizontal axes and the height
// unit for the third.
func (g *Geographic) Unit(i int) units.Unit {
	if i == 2 {
		return g.heightUnit
	}
	return g.unit
}

// Datum returns the horizontal datum.
func (g *Geographic) Datum() datum.HorizontalDatum { return g.datum }

// PrimeMeridian returns the origin of longitudes.
func (g *Geographic) PrimeMeridian() datum.PrimeMeridian { return g.primeMeridian }

// AngularUnit returns the unit of longitude and latitude.
func (g *Geographic) AngularUnit() units.Unit { return g.unit }

// HeightUnit returns the unit of the height axis of a 3D system.
func (g *Geographic) HeightUnit() units.Unit { return g.heightUnit }

// Is3D reports whether the system carries an ellipsoidal height.
func (g *Geographic) Is3D() bool { return len(g.axes) == 3 }

// Horizontal returns the two-dimensional part of the system.
func (g *Geographic) Horizontal() *Geographic {
	if !g.Is3D() {
		return g
	}
	h := *g
	h.axes = g.axes[:2:2]
	h.heightUnit = units.Unit{}
	return &h
}

// Equal compares datum, prime meridian, units and axis directions.
func (g *Geographic) Equal(o CoordinateSystem) bool {
	og, ok := o.(*Geographic)
	if !ok {
		return false
	}
	return g.datum.Equal(og.datum) &&
		g.primeMeridian.Equal(og.primeMeridian) &&
		g.unit.Equal(og.unit) &&
		(!g.Is3D() || g.heightUnit.Equal(og.heightUnit)) &&
		sameDirections(g.axes, og.axes)
}

// Key implements CoordinateSystem.
func (g *Geographic) Key() string {
	var b strings.Builder
	fmt.Fprintf(&b, "geog(%s,pm=%.12g,unit=%.15g,axes=%s", g.datum.Key(),
		g.primeMeridian.GreenwichLongitude(), g.unit.ToBase, directionsKey(g.axes))
	if g.Is3D() {
		fmt.Fprintf(&b, ",h=%.15g", g.heightUnit.ToBase)
	}
	b.WriteString(")")
	return b.String()
}

func (g *Geographic) String() string { return g.name }

// Projected is a map projection of a base geographic system.
type Projected struct {
	name       string
	base       *Geographic
	projection projection.Projection
	unit       units.Unit
	axes       []AxisInfo
}

// NewProjected creates a projected system. The base must be two
// dimensional.
func NewProjected(name string, base *Geographic, p projection.Projection, unit units.Unit, axis0, axis1 AxisInfo) (*Projected, error) {
	if base == nil {
		return nil, domain.NewError(domain.IllegalArgument, "base", nil)
	}
	if base.Is3D() {
		return nil, domain.NewError(domain.IllegalCsDimension, base.Name(), base.Dimension())
	}
	if err := units.RequireLinear(unit); err != nil {
		return nil, err
	}
	axes := []AxisInfo{axis0, axis1}
	if err := checkHorizontal(name, axes); err != nil {
		return nil, err
	}
	return &Projected{name: name, base: base, projection: p, unit: unit, axes: axes}, nil
}

func (p *Projected) coordinateSystem() {}

// Name returns the system name.
func (p *Projected) Name() string { return p.name }

// Kind returns KindProjected.
func (p *Projected) Kind() Kind { return KindProjected }

// Dimension returns 2.
func (p *Projected) Dimension() int { return 2 }

// Axis returns the i-th axis.
func (p *Projected) Axis(i int) AxisInfo { return p.axes[i] }

// Unit returns the linear unit.
func (p *Projected) Unit(int) units.Unit { return p.unit }

// Base returns the geographic system that is projected.
func (p *Projected) Base() *Geographic { return p.base }

// Projection returns the map projection.
func (p *Projected) Projection() projection.Projection { return p.projection }

// LinearUnit returns the unit of easting and northing.
func (p *Projected) LinearUnit() units.Unit { return p.unit }

// Equal compares base, projection, unit and axis directions.
func (p *Projected) Equal(o CoordinateSystem) bool {
	op, ok := o.(*Projected)
	if !ok {
		return false
	}
	return p.base.Equal(op.base) &&
		p.projection.Equal(op.projection) &&
		p.unit.Equal(op.unit) &&
		sameDirections(p.axes, op.axes)
}

// Key implements CoordinateSystem.
func (p *Projected) Key() string {
	return fmt.Sprintf("proj(%s,%s,unit=%.15g,axes=%s)", p.base.Key(), p.projection.Key(), p.unit.ToBase, directionsKey(p.axes))
}

func (p *Projected) String() string { return p.name }

// Geocentric is an earth-centred cartesian system.
type Geocentric struct {
	name  string
	datum datum.HorizontalDatum
	unit  units.Unit
}

// NewGeocentric creates a geocentric system with the standard X, Y, Z axes.
func NewGeocentric(name string, d datum.HorizontalDatum, unit units.Unit) (*Geocentric, error) {
	if err := units.RequireLinear(unit); err != nil {
		return nil, err
	}
	return &Geocentric{name: name, datum: d, unit: unit}, nil
}

var geocentricAxes = []AxisInfo{X, Y, Z}

func (g *Geocentric) coordinateSystem() {}

// Name returns the system name.
func (g *Geocentric) Name() string { return g.name }

// Kind returns KindGeocentric.
func (g *Geocentric) Kind() Kind { return KindGeocentric }

// Dimension returns 3.
func (g *Geocentric) Dimension() int { return 3 }

// Axis returns the i-th axis.
func (g *Geocentric) Axis(i int) AxisInfo { return geocentricAxes[i] }

// Unit returns the linear unit.
func (g *Geocentric) Unit(int) units.Unit { return g.unit }

// Datum returns the horizontal datum.
func (g *Geocentric) Datum() datum.HorizontalDatum { return g.datum }

// Equal compares datum and unit.
func (g *Geocentric) Equal(o CoordinateSystem) bool {
	og, ok := o.(*Geocentric)
	return ok && g.datum.Equal(og.datum) && g.unit.Equal(og.unit)
}

// Key implements CoordinateSystem.
func (g *Geocentric) Key() string {
	return fmt.Sprintf("geocent(%s,unit=%.15g)", g.datum.Key(), g.unit.ToBase)
}

func (g *Geocentric) String() string { return g.name }

// Vertical is a one-dimensional height or depth system.
type Vertical struct {
	name  string
	datum datum.VerticalDatum
	unit  units.Unit
	axis  AxisInfo
}

// NewVertical creates a vertical system. The axis must point up or down.
func NewVertical(name string, d datum.VerticalDatum, unit units.Unit, axis AxisInfo) (*Vertical, error) {
	if err := units.RequireLinear(unit); err != nil {
		return nil, err
	}
	if !axis.Direction.IsVertical() {
		return nil, domain.NewError(domain.IllegalArgument, "vertical axis", axis.Direction)
	}
	return &Vertical{name: name, datum: d, unit: unit, axis: axis}, nil
}

func (v *Vertical) coordinateSystem() {}

// Name returns the system name.
func (v *Vertical) Name() string { return v.name }

// Kind returns KindVertical.
func (v *Vertical) Kind() Kind { return KindVertical }

// Dimension returns 1.
func (v *Vertical) Dimension() int { return 1 }

// Axis returns the height axis.
func (v *Vertical) Axis(int) AxisInfo { return v.axis }

// Unit returns the linear unit.
func (v *Vertical) Unit(int) units.Unit { return v.unit }

// Datum returns the vertical datum.
func (v *Vertical) Datum() datum.VerticalDatum { return v.datum }

// Equal compares datum, unit and axis direction.
func (v *Vertical) Equal(o CoordinateSystem) bool {
	ov, ok := o.(*Vertical)
	return ok && v.datum.Equal(ov.datum) && v.unit.Equal(ov.unit) && v.axis.Direction == ov.axis.Direction
}

// Key implements CoordinateSystem.
func (v *Vertical) Key() string {
	return fmt.Sprintf("vert(%s,unit=%.15g,%s)", v.datum.Name, v.unit.ToBase, v.axis.Direction)
}

func (v *Vertical) String() string { return v.name }

// Compound concatenates the axes of two or more systems, typically a
// horizontal and a vertical one.
type Compound struct {
	name       string
	components []CoordinateSystem
	axes       []AxisInfo
	units      []units.Unit
}

// NewCompound creates a compound system. Nested compound systems are
// flattened into their components.
func NewCompound(name string, components ...CoordinateSystem) (*Compound, error) {
	flat := make([]CoordinateSystem, 0, len(components))
	for _, c := range components {
		if c == nil {
			return nil, domain.NewError(domain.IllegalArgument, "component", nil)
		}
		if cc, ok := c.(*Compound); ok {
			flat = append(flat, cc.components...)
			continue
		}
		flat = append(flat, c)
	}
	if len(flat) < 2 {
		return nil, domain.NewError(domain.IllegalCsDimension, name, len(flat))
	}
	c := &Compound{name: name, components: flat}
	for _, comp := range flat {
		for i := 0; i < comp.Dimension(); i++ {
			c.axes = append(c.axes, comp.Axis(i))
			c.units = append(c.units, comp.Unit(i))
		}
	}
	if err := checkAxes(c.axes); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Compound) coordinateSystem() {}

// Name returns the system name.
func (c *Compound) Name() string { return c.name }

// Kind returns KindCompound.
func (c *Compound) Kind() Kind { return KindCompound }

// Dimension returns the sum of the component dimensions.
func (c *Compound) Dimension() int { return len(c.axes) }

// Axis returns the i-th axis over all components.
func (c *Compound) Axis(i int) AxisInfo { return c.axes[i] }

// Unit returns the unit of the i-th axis over all components.
func (c *Compound) Unit(i int) units.Unit { return c.units[i] }

// Components returns the component systems in order.
func (c *Compound) Components() []CoordinateSystem {
	out := make([]CoordinateSystem, len(c.components))
	copy(out, c.components)
	return out
}

// Equal compares the components pairwise.
func (c *Compound) Equal(o CoordinateSystem) bool {
	oc, ok := o.(*Compound)
	if !ok || len(c.components) != len(oc.components) {
		return false
	}
	for i := range c.components {
		if !c.components[i].Equal(oc.components[i]) {
			return false
		}
	}
	return true
}

// Key implements CoordinateSystem.
func (c *Compound) Key() string {
	keys := make([]string, len(c.components))
	for i, comp := range c.components {
		keys[i] = comp.Key()
	}
	return "compd(" + strings.Join(keys, ";") + ")"
}

func (c *Compound) String() string { return c.name }
