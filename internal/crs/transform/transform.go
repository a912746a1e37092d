// Package transform implements math transforms: pure functions from one
// coordinate tuple to another that can be composed, inverted and
// differentiated. The set of variants is closed.
package transform

import (
	"fmt"
	"math"
	"sync"

	"github.com/jobrunner/gauss/internal/crs/matrix"
	"github.com/jobrunner/gauss/internal/domain"
)

// Kind tags the variant of a MathTransform.
type Kind int

// Transform variants.
const (
	KindIdentity Kind = iota
	KindAffine
	KindConcatenated
	KindProjection
	KindDatumShift
	KindGeocentric
	KindPassThrough
	KindInverse
)

func (k Kind) String() string {
	switch k {
	case KindIdentity:
		return "Identity"
	case KindAffine:
		return "Affine"
	case KindConcatenated:
		return "Concatenated"
	case KindProjection:
		return "Projection"
	case KindDatumShift:
		return "DatumShift"
	case KindGeocentric:
		return "Geocentric"
	case KindPassThrough:
		return "PassThrough"
	case KindInverse:
		return "Inverse"
	default:
		return "Unknown"
	}
}

// MathTransform maps points of SourceDimensions coordinates to points of
// TargetDimensions coordinates. Implementations are immutable and safe for
// concurrent use. NaN coordinates propagate without error.
type MathTransform interface {
	fmt.Stringer

	// SourceDimensions returns the dimension of input points.
	SourceDimensions() int

	// TargetDimensions returns the dimension of output points.
	TargetDimensions() int

	// Transform maps a single point.
	Transform(point []float64) ([]float64, error)

	// TransformPoints maps a packed array of points, SourceDimensions
	// values per point, and returns them packed by TargetDimensions.
	TransformPoints(points []float64) ([]float64, error)

	// Derivative returns the Jacobian at point, a TargetDimensions ×
	// SourceDimensions matrix.
	Derivative(point []float64) (*matrix.Matrix, error)

	// Inverse returns the inverse transform. Calling Inverse on the result
	// returns the receiver.
	Inverse() (MathTransform, error)

	// IsIdentity reports whether the transform returns its input unchanged.
	IsIdentity() bool

	// Kind returns the variant tag.
	Kind() Kind

	// apply maps src into dst. dst has TargetDimensions elements and does
	// not alias src.
	apply(dst, src []float64) error
}

// invertible is implemented by transforms whose inverse is computed by
// the lazy Inverse wrapper.
type invertible interface {
	MathTransform
	applyInverse(dst, src []float64) error
}

func mismatched(what string, got, want int) error {
	return domain.NewError(domain.MismatchedDimension, what, got, want)
}

func transformPoint(t MathTransform, point []float64) ([]float64, error) {
	if len(point) != t.SourceDimensions() {
		return nil, mismatched("point", len(point), t.SourceDimensions())
	}
	dst := make([]float64, t.TargetDimensions())
	if err := t.apply(dst, point); err != nil {
		return nil, err
	}
	return dst, nil
}

func transformPoints(t MathTransform, points []float64) ([]float64, error) {
	src, tgt := t.SourceDimensions(), t.TargetDimensions()
	if len(points)%src != 0 {
		return nil, mismatched("points", len(points), src)
	}
	n := len(points) / src
	out := make([]float64, n*tgt)
	for i := 0; i < n; i++ {
		if err := t.apply(out[i*tgt:(i+1)*tgt], points[i*src:(i+1)*src]); err != nil {
			return nil, fmt.Errorf("point %d: %w", i, err)
		}
	}
	return out, nil
}

// numericalDerivative approximates the Jacobian with central differences.
func numericalDerivative(t MathTransform, point []float64) (*matrix.Matrix, error) {
	src, tgt := t.SourceDimensions(), t.TargetDimensions()
	if len(point) != src {
		return nil, mismatched("point", len(point), src)
	}
	data := make([]float64, tgt*src)
	p := make([]float64, src)
	lo := make([]float64, tgt)
	hi := make([]float64, tgt)
	for j := 0; j < src; j++ {
		h := 1e-7 * math.Max(1, math.Abs(point[j]))
		copy(p, point)
		p[j] = point[j] - h
		if err := t.apply(lo, p); err != nil {
			return nil, err
		}
		p[j] = point[j] + h
		if err := t.apply(hi, p); err != nil {
			return nil, err
		}
		for i := 0; i < tgt; i++ {
			data[i*src+j] = (hi[i] - lo[i]) / (2 * h)
		}
	}
	return matrix.New(tgt, src, data), nil
}

// Identity returns its input unchanged.
type Identity struct {
	dim int
}

// NewIdentity returns the identity transform of the given dimension.
func NewIdentity(dim int) *Identity {
	if dim <= 0 {
		panic(fmt.Sprintf("transform: illegal identity dimension %d", dim))
	}
	return &Identity{dim: dim}
}

func (t *Identity) SourceDimensions() int { return t.dim }
func (t *Identity) TargetDimensions() int { return t.dim }
func (t *Identity) IsIdentity() bool      { return true }
func (t *Identity) Kind() Kind            { return KindIdentity }
func (t *Identity) String() string        { return fmt.Sprintf("Identity[%d]", t.dim) }

func (t *Identity) Transform(point []float64) ([]float64, error) { return transformPoint(t, point) }

func (t *Identity) TransformPoints(points []float64) ([]float64, error) {
	if len(points)%t.dim != 0 {
		return nil, mismatched("points", len(points), t.dim)
	}
	out := make([]float64, len(points))
	copy(out, points)
	return out, nil
}

func (t *Identity) Derivative(point []float64) (*matrix.Matrix, error) {
	if len(point) != t.dim {
		return nil, mismatched("point", len(point), t.dim)
	}
	return matrix.Identity(t.dim), nil
}

func (t *Identity) Inverse() (MathTransform, error) { return t, nil }

func (t *Identity) apply(dst, src []float64) error {
	copy(dst, src)
	return nil
}

// Affine applies a matrix in homogeneous coordinates: a (m+1)×(n+1)
// matrix maps n source to m target dimensions.
type Affine struct {
	m        *matrix.Matrix
	data     []float64
	src, tgt int

	once   sync.Once
	inv    *Affine
	invErr error
}

// NewAffine wraps a matrix whose last row is (0, ..., 0, 1).
func NewAffine(m *matrix.Matrix) (*Affine, error) {
	if m == nil || m.Rows() < 2 || m.Cols() < 2 || !m.IsAffine() {
		return nil, domain.NewError(domain.NotAnAffineTransform)
	}
	return &Affine{m: m, data: m.Data(), src: m.Cols() - 1, tgt: m.Rows() - 1}, nil
}

// Matrix returns the homogeneous matrix.
func (t *Affine) Matrix() *matrix.Matrix { return t.m }

func (t *Affine) SourceDimensions() int { return t.src }
func (t *Affine) TargetDimensions() int { return t.tgt }
func (t *Affine) Kind() Kind            { return KindAffine }

// IsIdentity reports whether the matrix is exactly the identity.
func (t *Affine) IsIdentity() bool {
	return t.src == t.tgt && t.m.IsIdentity(0)
}

func (t *Affine) String() string {
	return fmt.Sprintf("Affine[%d→%d]%s", t.src, t.tgt, t.m)
}

func (t *Affine) Transform(point []float64) ([]float64, error) { return transformPoint(t, point) }

func (t *Affine) TransformPoints(points []float64) ([]float64, error) {
	return transformPoints(t, points)
}

// Derivative returns the linear part of the matrix, independent of point.
func (t *Affine) Derivative(point []float64) (*matrix.Matrix, error) {
	if len(point) != t.src {
		return nil, mismatched("point", len(point), t.src)
	}
	cols := t.src + 1
	data := make([]float64, t.tgt*t.src)
	for i := 0; i < t.tgt; i++ {
		copy(data[i*t.src:(i+1)*t.src], t.data[i*cols:i*cols+t.src])
	}
	return matrix.New(t.tgt, t.src, data), nil
}

// Inverse inverts the matrix once and caches the result. A singular or
// non-square matrix fails with NonInvertibleTransform.
func (t *Affine) Inverse() (MathTransform, error) {
	t.once.Do(func() {
		if t.inv != nil {
			return
		}
		if t.src != t.tgt {
			t.invErr = domain.WrapError(domain.NonInvertibleTransform,
				domain.NewError(domain.MismatchedDimension, "affine", t.src, t.tgt))
			return
		}
		m, err := t.m.Invert()
		if err != nil {
			t.invErr = domain.WrapError(domain.NonInvertibleTransform, err)
			return
		}
		t.inv = &Affine{m: m, data: m.Data(), src: t.tgt, tgt: t.src, inv: t}
	})
	if t.invErr != nil {
		return nil, t.invErr
	}
	return t.inv, nil
}

func (t *Affine) apply(dst, src []float64) error {
	cols := t.src + 1
	for i := 0; i < t.tgt; i++ {
		row := t.data[i*cols : (i+1)*cols]
		sum := row[t.src]
		for j := 0; j < t.src; j++ {
			// Zero coefficients are skipped: an ordinate a row ignores,
			// such as a dropped height, never turns its output into NaN.
			// Non-finite input is reported by the coordinate operation.
			if row[j] != 0 {
				sum += row[j] * src[j]
			}
		}
		dst[i] = sum
	}
	return nil
}
