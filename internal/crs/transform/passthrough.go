package transform

import (
	"fmt"
	"sync"

	"github.com/jobrunner/gauss/internal/crs/matrix"
	"github.com/jobrunner/gauss/internal/domain"
)

// PassThrough applies a sub-transform to a contiguous range of ordinates
// and copies the ordinates before and after it unchanged.
type PassThrough struct {
	first    int
	sub      MathTransform
	trailing int

	once   sync.Once
	inv    *PassThrough
	invErr error
}

// NewPassThrough applies sub to the ordinates starting at index first,
// leaving first leading and trailing ordinates untouched.
func NewPassThrough(first int, sub MathTransform, trailing int) (MathTransform, error) {
	if first < 0 || trailing < 0 {
		return nil, domain.NewError(domain.IllegalArgument, "pass-through range", fmt.Sprintf("%d,%d", first, trailing))
	}
	if first == 0 && trailing == 0 {
		return sub, nil
	}
	if sub.IsIdentity() {
		return NewIdentity(first + sub.SourceDimensions() + trailing), nil
	}
	return &PassThrough{first: first, sub: sub, trailing: trailing}, nil
}

// SubTransform returns the wrapped transform.
func (t *PassThrough) SubTransform() MathTransform { return t.sub }

func (t *PassThrough) SourceDimensions() int { return t.first + t.sub.SourceDimensions() + t.trailing }
func (t *PassThrough) TargetDimensions() int { return t.first + t.sub.TargetDimensions() + t.trailing }
func (t *PassThrough) IsIdentity() bool      { return false }
func (t *PassThrough) Kind() Kind            { return KindPassThrough }

func (t *PassThrough) String() string {
	return fmt.Sprintf("PassThrough[%d,%s,%d]", t.first, t.sub, t.trailing)
}

func (t *PassThrough) Transform(point []float64) ([]float64, error) {
	return transformPoint(t, point)
}

func (t *PassThrough) TransformPoints(points []float64) ([]float64, error) {
	return transformPoints(t, points)
}

// Derivative is block diagonal: identity around the sub-transform's
// Jacobian.
func (t *PassThrough) Derivative(point []float64) (*matrix.Matrix, error) {
	src, tgt := t.SourceDimensions(), t.TargetDimensions()
	if len(point) != src {
		return nil, mismatched("point", len(point), src)
	}
	ss, st := t.sub.SourceDimensions(), t.sub.TargetDimensions()
	sd, err := t.sub.Derivative(point[t.first : t.first+ss])
	if err != nil {
		return nil, err
	}
	data := make([]float64, tgt*src)
	for i := 0; i < t.first; i++ {
		data[i*src+i] = 1
	}
	for i := 0; i < st; i++ {
		for j := 0; j < ss; j++ {
			data[(t.first+i)*src+t.first+j] = sd.At(i, j)
		}
	}
	for k := 0; k < t.trailing; k++ {
		data[(t.first+st+k)*src+t.first+ss+k] = 1
	}
	return matrix.New(tgt, src, data), nil
}

// Inverse passes through the inverse of the sub-transform.
func (t *PassThrough) Inverse() (MathTransform, error) {
	t.once.Do(func() {
		if t.inv != nil {
			return
		}
		sub, err := t.sub.Inverse()
		if err != nil {
			t.invErr = err
			return
		}
		t.inv = &PassThrough{first: t.first, sub: sub, trailing: t.trailing, inv: t}
	})
	if t.invErr != nil {
		return nil, t.invErr
	}
	return t.inv, nil
}

func (t *PassThrough) apply(dst, src []float64) error {
	ss, st := t.sub.SourceDimensions(), t.sub.TargetDimensions()
	copy(dst[:t.first], src[:t.first])
	if err := t.sub.apply(dst[t.first:t.first+st], src[t.first:t.first+ss]); err != nil {
		return err
	}
	copy(dst[t.first+st:], src[t.first+ss:])
	return nil
}
