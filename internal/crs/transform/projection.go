package transform

import (
	"fmt"
	"sync"

	"github.com/jobrunner/gauss/internal/crs/matrix"
	"github.com/jobrunner/gauss/internal/crs/projection"
)

// Projection maps (longitude, latitude) in degrees to (easting, northing)
// in metres with a map projection.
type Projection struct {
	projector *projection.Projector

	once sync.Once
	inv  *Inverse
}

// NewProjection wraps a projector.
func NewProjection(p *projection.Projector) *Projection {
	return &Projection{projector: p}
}

// Projector returns the wrapped projector.
func (t *Projection) Projector() *projection.Projector { return t.projector }

func (t *Projection) SourceDimensions() int { return 2 }
func (t *Projection) TargetDimensions() int { return 2 }
func (t *Projection) IsIdentity() bool      { return false }
func (t *Projection) Kind() Kind            { return KindProjection }

func (t *Projection) String() string {
	return fmt.Sprintf("Projection[%s]", t.projector.Projection().Classification())
}

func (t *Projection) Transform(point []float64) ([]float64, error) {
	return transformPoint(t, point)
}

func (t *Projection) TransformPoints(points []float64) ([]float64, error) {
	return transformPoints(t, points)
}

func (t *Projection) Derivative(point []float64) (*matrix.Matrix, error) {
	return numericalDerivative(t, point)
}

// Inverse returns the lazy inverse wrapper, created once.
func (t *Projection) Inverse() (MathTransform, error) {
	t.once.Do(func() { t.inv = &Inverse{wrapped: t} })
	return t.inv, nil
}

func (t *Projection) apply(dst, src []float64) error {
	x, y, err := t.projector.Forward(src[0], src[1])
	if err != nil {
		return err
	}
	dst[0], dst[1] = x, y
	return nil
}

func (t *Projection) applyInverse(dst, src []float64) error {
	lon, lat, err := t.projector.Inverse(src[0], src[1])
	if err != nil {
		return err
	}
	dst[0], dst[1] = lon, lat
	return nil
}

// Inverse swaps the forward and inverse formulas of the wrapped transform.
type Inverse struct {
	wrapped invertible
}

func (t *Inverse) SourceDimensions() int { return t.wrapped.TargetDimensions() }
func (t *Inverse) TargetDimensions() int { return t.wrapped.SourceDimensions() }
func (t *Inverse) IsIdentity() bool      { return false }
func (t *Inverse) Kind() Kind            { return KindInverse }
func (t *Inverse) String() string        { return "Inverse[" + t.wrapped.String() + "]" }

func (t *Inverse) Transform(point []float64) ([]float64, error) {
	return transformPoint(t, point)
}

func (t *Inverse) TransformPoints(points []float64) ([]float64, error) {
	return transformPoints(t, points)
}

func (t *Inverse) Derivative(point []float64) (*matrix.Matrix, error) {
	return numericalDerivative(t, point)
}

// Inverse returns the wrapped transform.
func (t *Inverse) Inverse() (MathTransform, error) { return t.wrapped, nil }

func (t *Inverse) apply(dst, src []float64) error {
	return t.wrapped.applyInverse(dst, src)
}
