// Package operation pairs a math transform with the coordinate systems it
// converts between.
package operation

import (
	"fmt"
	"math"

	"github.com/jobrunner/gauss/internal/crs/cs"
	"github.com/jobrunner/gauss/internal/crs/transform"
	"github.com/jobrunner/gauss/internal/domain"
)

// Type classifies a coordinate operation.
type Type int

// Operation types.
const (
	// Conversion changes the representation without a datum change.
	Conversion Type = iota
	// Transformation changes the datum.
	Transformation
	// ConversionAndTransformation changes both.
	ConversionAndTransformation
)

func (t Type) String() string {
	switch t {
	case Conversion:
		return "CONVERSION"
	case Transformation:
		return "TRANSFORMATION"
	case ConversionAndTransformation:
		return "CONVERSION_AND_TRANSFORMATION"
	default:
		return "UNKNOWN"
	}
}

// CoordinateTransformation is an immutable operation from a source to a
// target coordinate system.
type CoordinateTransformation struct {
	source    cs.CoordinateSystem
	target    cs.CoordinateSystem
	transform transform.MathTransform
	typ       Type
	accuracy  float64
}

// New creates a coordinate transformation. accuracy is in metres; zero or
// a negative value means unknown. The transform dimensions must match the
// coordinate systems.
func New(source, target cs.CoordinateSystem, mt transform.MathTransform, typ Type, accuracy float64) (*CoordinateTransformation, error) {
	if mt.SourceDimensions() != source.Dimension() {
		return nil, domain.NewError(domain.MismatchedDimension, source.Name(), mt.SourceDimensions(), source.Dimension())
	}
	if mt.TargetDimensions() != target.Dimension() {
		return nil, domain.NewError(domain.MismatchedDimension, target.Name(), mt.TargetDimensions(), target.Dimension())
	}
	return &CoordinateTransformation{
		source:    source,
		target:    target,
		transform: mt,
		typ:       typ,
		accuracy:  accuracy,
	}, nil
}

// Source returns the source coordinate system.
func (c *CoordinateTransformation) Source() cs.CoordinateSystem { return c.source }

// Target returns the target coordinate system.
func (c *CoordinateTransformation) Target() cs.CoordinateSystem { return c.target }

// MathTransform returns the transform that does the work.
func (c *CoordinateTransformation) MathTransform() transform.MathTransform { return c.transform }

// Type returns the operation classification.
func (c *CoordinateTransformation) Type() Type { return c.typ }

// Accuracy returns the estimated accuracy in metres, if known.
func (c *CoordinateTransformation) Accuracy() (float64, bool) {
	return c.accuracy, c.accuracy > 0
}

func (c *CoordinateTransformation) String() string {
	return fmt.Sprintf("%s → %s (%s)", c.source.Name(), c.target.Name(), c.typ)
}

// Transform maps one point. A non-finite input or result is returned
// together with a NonFiniteCoordinate error so that callers can tell
// propagated NaN values from real coordinates. Transforms that drop an
// ordinate would otherwise hide a NaN in it.
func (c *CoordinateTransformation) Transform(point []float64) ([]float64, error) {
	out, err := c.transform.Transform(point)
	if err != nil {
		if !finite(point) {
			return nil, domain.WrapError(domain.NonFiniteCoordinate, err, point)
		}
		return nil, err
	}
	if !finite(point) {
		return out, domain.NewError(domain.NonFiniteCoordinate, point)
	}
	if !finite(out) {
		return out, domain.NewError(domain.NonFiniteCoordinate, out)
	}
	return out, nil
}

// TransformPoints maps a packed array of points. The first point with a
// non-finite input or result is reported the same way as in Transform,
// with the whole result returned.
func (c *CoordinateTransformation) TransformPoints(points []float64) ([]float64, error) {
	out, err := c.transform.TransformPoints(points)
	if err != nil {
		if !finite(points) {
			return nil, domain.WrapError(domain.NonFiniteCoordinate, err, points)
		}
		return nil, err
	}
	srcDim := c.transform.SourceDimensions()
	dim := c.transform.TargetDimensions()
	for i, j := 0, 0; i < len(points) && j < len(out); i, j = i+srcDim, j+dim {
		if p := points[i : i+srcDim]; !finite(p) {
			return out, fmt.Errorf("point %d: %w", i/srcDim, domain.NewError(domain.NonFiniteCoordinate, p))
		}
		if p := out[j : j+dim]; !finite(p) {
			return out, fmt.Errorf("point %d: %w", j/dim, domain.NewError(domain.NonFiniteCoordinate, p))
		}
	}
	return out, nil
}

// Inverse returns the operation from target to source.
func (c *CoordinateTransformation) Inverse() (*CoordinateTransformation, error) {
	inv, err := c.transform.Inverse()
	if err != nil {
		return nil, err
	}
	return &CoordinateTransformation{
		source:    c.target,
		target:    c.source,
		transform: inv,
		typ:       c.typ,
		accuracy:  c.accuracy,
	}, nil
}

func finite(p []float64) bool {
	for _, v := range p {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
