package transform

import (
	"errors"
	"strings"
	"sync"

	"github.com/jobrunner/gauss/internal/crs/matrix"
	"github.com/jobrunner/gauss/internal/domain"
)

// Concatenated applies its steps in order: the output of step i is the
// input of step i+1.
type Concatenated struct {
	steps []MathTransform

	once   sync.Once
	inv    *Concatenated
	invErr error
}

// Concatenate composes transforms left to right. Nested concatenations are
// flattened, identity steps are dropped and adjacent affine steps are merged
// into one matrix. Adjacent steps must agree on dimension, otherwise the
// call fails with IllegalMismatchedDimension.
func Concatenate(transforms ...MathTransform) (MathTransform, error) {
	if len(transforms) == 0 {
		return nil, domain.NewError(domain.IllegalArgument, "transforms", "empty")
	}
	for i := 0; i+1 < len(transforms); i++ {
		if transforms[i].TargetDimensions() != transforms[i+1].SourceDimensions() {
			return nil, domain.NewError(domain.IllegalMismatchedDimension,
				i, transforms[i].TargetDimensions(), i+1, transforms[i+1].SourceDimensions())
		}
	}

	flat := make([]MathTransform, 0, len(transforms))
	for _, t := range transforms {
		if c, ok := t.(*Concatenated); ok {
			flat = append(flat, c.steps...)
		} else {
			flat = append(flat, t)
		}
	}

	steps := make([]MathTransform, 0, len(flat))
	for _, t := range flat {
		if t.IsIdentity() {
			continue
		}
		if next, ok := t.(*Affine); ok && len(steps) > 0 {
			if prev, ok := steps[len(steps)-1].(*Affine); ok {
				merged, err := mergeAffine(prev, next)
				if err != nil {
					return nil, err
				}
				steps = steps[:len(steps)-1]
				if !merged.IsIdentity() {
					steps = append(steps, merged)
				}
				continue
			}
		}
		steps = append(steps, t)
	}

	switch len(steps) {
	case 0:
		return NewIdentity(transforms[0].SourceDimensions()), nil
	case 1:
		return steps[0], nil
	default:
		return &Concatenated{steps: steps}, nil
	}
}

// mergeAffine returns the single affine transform equivalent to first
// followed by second.
func mergeAffine(first, second *Affine) (*Affine, error) {
	m, err := second.m.Multiply(first.m)
	if err != nil {
		return nil, err
	}
	return NewAffine(m)
}

// Steps returns the composed transforms in application order.
func (t *Concatenated) Steps() []MathTransform {
	out := make([]MathTransform, len(t.steps))
	copy(out, t.steps)
	return out
}

func (t *Concatenated) SourceDimensions() int { return t.steps[0].SourceDimensions() }
func (t *Concatenated) TargetDimensions() int { return t.steps[len(t.steps)-1].TargetDimensions() }
func (t *Concatenated) IsIdentity() bool      { return false }
func (t *Concatenated) Kind() Kind            { return KindConcatenated }

func (t *Concatenated) String() string {
	names := make([]string, len(t.steps))
	for i, s := range t.steps {
		names[i] = s.String()
	}
	return "Concatenated[" + strings.Join(names, " → ") + "]"
}

func (t *Concatenated) Transform(point []float64) ([]float64, error) {
	return transformPoint(t, point)
}

// TransformPoints runs each step over the whole array before the next.
func (t *Concatenated) TransformPoints(points []float64) ([]float64, error) {
	if len(points)%t.SourceDimensions() != 0 {
		return nil, mismatched("points", len(points), t.SourceDimensions())
	}
	var err error
	for _, s := range t.steps {
		if points, err = s.TransformPoints(points); err != nil {
			return nil, err
		}
	}
	return points, nil
}

// Derivative applies the chain rule over all steps.
func (t *Concatenated) Derivative(point []float64) (*matrix.Matrix, error) {
	if len(point) != t.SourceDimensions() {
		return nil, mismatched("point", len(point), t.SourceDimensions())
	}
	var d *matrix.Matrix
	p := point
	for _, s := range t.steps {
		ds, err := s.Derivative(p)
		if err != nil {
			return nil, err
		}
		if d == nil {
			d = ds
		} else if d, err = ds.Multiply(d); err != nil {
			return nil, err
		}
		if p, err = s.Transform(p); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Inverse returns the concatenation of the step inverses in reverse order.
// If any step is not invertible the whole call fails.
func (t *Concatenated) Inverse() (MathTransform, error) {
	t.once.Do(func() {
		if t.inv != nil {
			return
		}
		steps := make([]MathTransform, len(t.steps))
		for i, s := range t.steps {
			inv, err := s.Inverse()
			if err != nil {
				if !errors.Is(err, domain.NonInvertibleTransform) {
					err = domain.WrapError(domain.NonInvertibleTransform, err)
				}
				t.invErr = err
				return
			}
			steps[len(t.steps)-1-i] = inv
		}
		t.inv = &Concatenated{steps: steps, inv: t}
	})
	if t.invErr != nil {
		return nil, t.invErr
	}
	return t.inv, nil
}

func (t *Concatenated) apply(dst, src []float64) error {
	in := src
	for i, s := range t.steps {
		var out []float64
		if i == len(t.steps)-1 {
			out = dst
		} else {
			out = make([]float64, s.TargetDimensions())
		}
		if err := s.apply(out, in); err != nil {
			return err
		}
		in = out
	}
	return nil
}
