package application

import (
	"github.com/jobrunner/gauss/internal/crs/cs"
	"github.com/jobrunner/gauss/internal/crs/datum"
	"github.com/jobrunner/gauss/internal/crs/matrix"
	"github.com/jobrunner/gauss/internal/crs/operation"
	"github.com/jobrunner/gauss/internal/crs/transform"
	"github.com/jobrunner/gauss/internal/crs/units"
	"github.com/jobrunner/gauss/internal/domain"
)

// leg is the part of a path between a coordinate system and its geodetic
// form: longitude and latitude in degrees east of Greenwich with an
// optional ellipsoidal height in metres, or geocentric X, Y, Z in metres.
type leg struct {
	steps      []transform.MathTransform
	datum      datum.HorizontalDatum
	dim        int  // Geodetic ordinates, 2 or 3
	geocentric bool // Leg ends in geocentric coordinates
}

func (f *Factory) createPath(source, target cs.CoordinateSystem) (cachedPath, error) {
	if source.Equal(target) {
		return cachedPath{transform: transform.NewIdentity(source.Dimension()), typ: operation.Conversion}, nil
	}

	sk, tk := source.Kind(), target.Kind()
	switch {
	case sk == cs.KindCompound || tk == cs.KindCompound:
		return f.compoundPath(source, target)
	case sk == cs.KindVertical && tk == cs.KindVertical:
		mt, err := verticalPath(source.(*cs.Vertical), target.(*cs.Vertical))
		if err != nil {
			return cachedPath{}, err
		}
		return cachedPath{transform: mt, typ: operation.Conversion}, nil
	case sk == cs.KindVertical || tk == cs.KindVertical:
		return cachedPath{}, noPath(source, target)
	}
	return f.horizontalPath(source, target)
}

func noPath(source, target cs.CoordinateSystem) error {
	return domain.NewError(domain.NoTransformationPath, source.Name(), target.Name())
}

// horizontalPath routes source → geodetic → (datum shift) → geodetic →
// target. The target leg is built forward and inverted as a whole.
func (f *Factory) horizontalPath(source, target cs.CoordinateSystem) (cachedPath, error) {
	if mt, ok, err := sameProjection(source, target); ok || err != nil {
		return cachedPath{transform: mt, typ: operation.Conversion}, err
	}

	src, err := f.leg(source)
	if err != nil {
		return cachedPath{}, err
	}
	tgt, err := f.leg(target)
	if err != nil {
		return cachedPath{}, err
	}
	if src.dim == 3 && tgt.dim == 2 && !src.geocentric && !f.cfg.AllowDimensionReduction {
		return cachedPath{}, domain.NewError(domain.CantReduceToTwoDimensions, source.Dimension(), source.Name())
	}

	middle, method, shifted, err := f.middle(src, tgt)
	if err != nil {
		return cachedPath{}, err
	}

	toTarget, err := transform.Concatenate(tgt.steps...)
	if err != nil {
		return cachedPath{}, err
	}
	fromTarget, err := toTarget.Inverse()
	if err != nil {
		return cachedPath{}, err
	}

	steps := make([]transform.MathTransform, 0, len(src.steps)+len(middle)+1)
	steps = append(steps, src.steps...)
	steps = append(steps, middle...)
	steps = append(steps, fromTarget)
	mt, err := transform.Concatenate(steps...)
	if err != nil {
		return cachedPath{}, err
	}

	path := cachedPath{transform: mt, typ: operation.Conversion}
	if shifted {
		path.accuracy = method.Accuracy()
		path.typ = operation.ConversionAndTransformation
		if sk := source.Kind(); sk == target.Kind() && (sk == cs.KindGeographic || sk == cs.KindGeocentric) {
			path.typ = operation.Transformation
		}
	}
	return path, nil
}

// sameProjection returns the axis conversion between two projected systems
// that differ only in axis order or unit.
func sameProjection(source, target cs.CoordinateSystem) (transform.MathTransform, bool, error) {
	sp, ok1 := source.(*cs.Projected)
	tp, ok2 := target.(*cs.Projected)
	if !ok1 || !ok2 || !sp.Base().Equal(tp.Base()) || !sp.Projection().Equal(tp.Projection()) {
		return nil, false, nil
	}
	from, err := planarAxes(sp.Axis(0), sp.Axis(1), sp.LinearUnit())
	if err != nil {
		return nil, true, err
	}
	to, err := planarAxes(tp.Axis(0), tp.Axis(1), tp.LinearUnit())
	if err != nil {
		return nil, true, err
	}
	inv, err := to.Inverse()
	if err != nil {
		return nil, true, err
	}
	mt, err := transform.Concatenate(from, inv)
	return mt, true, err
}

func (f *Factory) leg(c cs.CoordinateSystem) (leg, error) {
	switch v := c.(type) {
	case *cs.Geographic:
		norm, err := geographicAxes(v)
		if err != nil {
			return leg{}, err
		}
		return leg{steps: []transform.MathTransform{norm}, datum: v.Datum(), dim: v.Dimension()}, nil

	case *cs.Projected:
		norm, err := planarAxes(v.Axis(0), v.Axis(1), v.LinearUnit())
		if err != nil {
			return leg{}, err
		}
		base := v.Base()
		projector, err := f.registry.Projector(v.Projection(), base.Datum().Ellipsoid(), f.cfg.Options)
		if err != nil {
			return leg{}, err
		}
		unproject, err := transform.NewProjection(projector).Inverse()
		if err != nil {
			return leg{}, err
		}
		pm, err := newAffine(3, 3,
			1, 0, base.PrimeMeridian().GreenwichLongitude(),
			0, 1, 0,
			0, 0, 1)
		if err != nil {
			return leg{}, err
		}
		return leg{steps: []transform.MathTransform{norm, unproject, pm}, datum: base.Datum(), dim: 2}, nil

	case *cs.Geocentric:
		k := v.Unit(0).ToBase
		scale, err := newAffine(4, 4,
			k, 0, 0, 0,
			0, k, 0, 0,
			0, 0, k, 0,
			0, 0, 0, 1)
		if err != nil {
			return leg{}, err
		}
		return leg{steps: []transform.MathTransform{scale}, datum: v.Datum(), dim: 3, geocentric: true}, nil
	}
	return leg{}, domain.NewError(domain.NoTransformationPath, c.Name(), "geodetic coordinates")
}

// middle connects two legs, shifting the datum when needed. It reports the
// shift method and whether a shift takes place.
func (f *Factory) middle(src, tgt leg) ([]transform.MathTransform, transform.Method, bool, error) {
	shift, err := f.needsShift(src.datum, tgt.datum)
	if err != nil {
		return nil, 0, false, err
	}
	if !shift {
		steps, err := f.convert(src, tgt)
		return steps, 0, false, err
	}

	toWGS84, _ := src.datum.ToWGS84()
	fromWGS84, _ := tgt.datum.ToWGS84()
	if f.cfg.DatumShift == transform.AbridgedMolodensky && !src.geocentric && !tgt.geocentric &&
		toWGS84.IsTranslationOnly() && fromWGS84.IsTranslationOnly() {
		steps, err := f.molodensky(src, tgt, toWGS84.Minus(fromWGS84))
		return steps, transform.AbridgedMolodensky, true, err
	}

	shiftStep, err := transform.NewDatumShift(src.datum, tgt.datum)
	if err != nil {
		return nil, 0, false, err
	}
	steps := make([]transform.MathTransform, 0, 3)
	if !src.geocentric {
		steps = append(steps, f.geocentric(src))
	}
	steps = append(steps, shiftStep)
	if !tgt.geocentric {
		inv, err := f.geocentric(tgt).Inverse()
		if err != nil {
			return nil, 0, false, err
		}
		steps = append(steps, inv)
	}
	return steps, transform.BursaWolfMethod, true, nil
}

// needsShift decides whether two datums need a shift. A datum without
// Bursa-Wolf parameters on the same ellipsoid is treated as the same
// datum; on a different ellipsoid it is an error.
func (f *Factory) needsShift(src, tgt datum.HorizontalDatum) (bool, error) {
	if src.Equal(tgt) {
		return false, nil
	}
	_, srcOK := src.ToWGS84()
	_, tgtOK := tgt.ToWGS84()
	if srcOK && tgtOK {
		return true, nil
	}
	if src.Ellipsoid().Equal(tgt.Ellipsoid()) {
		f.logger.Warn("datum shift parameters missing, assuming equal datums",
			"source", src.Name(),
			"target", tgt.Name(),
		)
		return false, nil
	}
	if !srcOK {
		return false, domain.NewError(domain.BursaWolfParametersRequired, src.Name(), tgt.Name())
	}
	return false, domain.NewError(domain.BursaWolfParametersRequired, tgt.Name(), src.Name())
}

// convert connects two legs on the same datum.
func (f *Factory) convert(src, tgt leg) ([]transform.MathTransform, error) {
	switch {
	case src.geocentric && tgt.geocentric:
		return nil, nil
	case src.geocentric:
		inv, err := f.geocentric(tgt).Inverse()
		if err != nil {
			return nil, err
		}
		return []transform.MathTransform{inv}, nil
	case tgt.geocentric:
		return []transform.MathTransform{f.geocentric(src)}, nil
	case src.dim == tgt.dim:
		return nil, nil
	case src.dim == 2:
		lift, err := liftHeight()
		return []transform.MathTransform{lift}, err
	default:
		drop, err := dropHeight()
		return []transform.MathTransform{drop}, err
	}
}

func (f *Factory) molodensky(src, tgt leg, bw datum.BursaWolf) ([]transform.MathTransform, error) {
	hasHeight := src.dim == 3 || tgt.dim == 3
	shift, err := transform.NewAbridgedMolodensky(src.datum.Ellipsoid(), tgt.datum.Ellipsoid(), bw, hasHeight)
	if err != nil {
		return nil, err
	}
	steps := make([]transform.MathTransform, 0, 3)
	if hasHeight && src.dim == 2 {
		lift, err := liftHeight()
		if err != nil {
			return nil, err
		}
		steps = append(steps, lift)
	}
	steps = append(steps, shift)
	if hasHeight && tgt.dim == 2 {
		drop, err := dropHeight()
		if err != nil {
			return nil, err
		}
		steps = append(steps, drop)
	}
	return steps, nil
}

func (f *Factory) geocentric(l leg) *transform.Geocentric {
	return transform.NewGeocentric(l.datum.Ellipsoid(), l.dim == 3, f.cfg.Options)
}

// compoundPath handles horizontal + vertical systems. The horizontal part
// follows the regular path, the vertical part passes through unless the
// vertical datums differ.
func (f *Factory) compoundPath(source, target cs.CoordinateSystem) (cachedPath, error) {
	sh, sv, sok := splitCompound(source)
	th, tv, tok := splitCompound(target)

	switch {
	case sok && tok:
		horizontal, err := f.createPath(sh, th)
		if err != nil {
			return cachedPath{}, err
		}
		vertical, err := verticalPath(sv, tv)
		if err != nil {
			return cachedPath{}, err
		}
		first, err := transform.NewPassThrough(0, horizontal.transform, 1)
		if err != nil {
			return cachedPath{}, err
		}
		second, err := transform.NewPassThrough(horizontal.transform.TargetDimensions(), vertical, 0)
		if err != nil {
			return cachedPath{}, err
		}
		mt, err := transform.Concatenate(first, second)
		if err != nil {
			return cachedPath{}, err
		}
		horizontal.transform = mt
		return horizontal, nil

	case sok && target.Dimension() == 2:
		if !f.cfg.AllowDimensionReduction {
			return cachedPath{}, domain.NewError(domain.CantReduceToTwoDimensions, source.Dimension(), source.Name())
		}
		drop, err := dropHeight()
		if err != nil {
			return cachedPath{}, err
		}
		horizontal, err := f.createPath(sh, target)
		if err != nil {
			return cachedPath{}, err
		}
		mt, err := transform.Concatenate(drop, horizontal.transform)
		if err != nil {
			return cachedPath{}, err
		}
		horizontal.transform = mt
		return horizontal, nil
	}
	return cachedPath{}, noPath(source, target)
}

// splitCompound returns the horizontal and vertical parts of a compound
// system made of a 2D horizontal system followed by a vertical one.
func splitCompound(c cs.CoordinateSystem) (cs.CoordinateSystem, *cs.Vertical, bool) {
	cc, ok := c.(*cs.Compound)
	if !ok {
		return nil, nil, false
	}
	parts := cc.Components()
	if len(parts) != 2 || parts[0].Dimension() != 2 {
		return nil, nil, false
	}
	v, ok := parts[1].(*cs.Vertical)
	if !ok {
		return nil, nil, false
	}
	switch parts[0].Kind() {
	case cs.KindGeographic, cs.KindProjected:
		return parts[0], v, true
	}
	return nil, nil, false
}

func verticalPath(a, b *cs.Vertical) (transform.MathTransform, error) {
	if !a.Datum().Equal(b.Datum()) {
		return nil, noPath(a, b)
	}
	from, err := verticalAxis(a)
	if err != nil {
		return nil, err
	}
	to, err := verticalAxis(b)
	if err != nil {
		return nil, err
	}
	inv, err := to.Inverse()
	if err != nil {
		return nil, err
	}
	return transform.Concatenate(from, inv)
}

// verticalAxis maps a height or depth to an upward height in metres.
func verticalAxis(v *cs.Vertical) (*transform.Affine, error) {
	_, sign := v.Axis(0).Direction.Absolute()
	return newAffine(2, 2,
		sign*v.Unit(0).ToBase, 0,
		0, 1)
}

// geographicAxes maps the axes of a geographic system to longitude and
// latitude in degrees east of Greenwich, and height in metres.
func geographicAxes(g *cs.Geographic) (*transform.Affine, error) {
	dim := g.Dimension()
	n := dim + 1
	data := make([]float64, n*n)
	angular := g.AngularUnit().ToBase / units.Degree.ToBase
	for i := 0; i < dim; i++ {
		dir, sign := g.Axis(i).Direction.Absolute()
		switch dir {
		case cs.East:
			data[0*n+i] = sign * angular
		case cs.North:
			data[1*n+i] = sign * angular
		case cs.Up:
			data[2*n+i] = sign * g.HeightUnit().ToBase
		}
	}
	data[0*n+dim] = g.PrimeMeridian().GreenwichLongitude()
	data[dim*n+dim] = 1
	return transform.NewAffine(matrix.New(n, n, data))
}

// planarAxes maps two projected axes to easting and northing in metres.
func planarAxes(axis0, axis1 cs.AxisInfo, unit units.Unit) (*transform.Affine, error) {
	data := make([]float64, 9)
	for i, a := range []cs.AxisInfo{axis0, axis1} {
		dir, sign := a.Direction.Absolute()
		row := 0
		if dir == cs.North {
			row = 1
		}
		data[row*3+i] = sign * unit.ToBase
	}
	data[8] = 1
	return transform.NewAffine(matrix.New(3, 3, data))
}

func liftHeight() (*transform.Affine, error) {
	return newAffine(4, 3,
		1, 0, 0,
		0, 1, 0,
		0, 0, 0,
		0, 0, 1)
}

func dropHeight() (*transform.Affine, error) {
	return newAffine(3, 4,
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 0, 1)
}

func newAffine(rows, cols int, data ...float64) (*transform.Affine, error) {
	return transform.NewAffine(matrix.New(rows, cols, data))
}
