// Package matrix implements the dense matrices used by affine transforms.
// Storage and factorization are delegated to gonum.
package matrix

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/jobrunner/gauss/internal/domain"
)

// SingularityTolerance bounds the reciprocal condition number below which a
// matrix is treated as singular. The test is relative to the matrix norm, so
// it does not depend on the scale of the entries.
const SingularityTolerance = 1e-12

// Matrix is an immutable dense matrix.
type Matrix struct {
	d *mat.Dense
}

// New creates a rows×cols matrix from row-major data. The slice is copied.
func New(rows, cols int, data []float64) *Matrix {
	if rows <= 0 || cols <= 0 {
		panic(fmt.Sprintf("matrix: illegal size %dx%d", rows, cols))
	}
	cp := make([]float64, rows*cols)
	if data != nil {
		copy(cp, data)
	}
	return &Matrix{d: mat.NewDense(rows, cols, cp)}
}

// Identity returns the n×n identity matrix.
func Identity(n int) *Matrix {
	m := New(n, n, nil)
	for i := 0; i < n; i++ {
		m.d.Set(i, i, 1)
	}
	return m
}

// Rows returns the number of rows.
func (m *Matrix) Rows() int {
	r, _ := m.d.Dims()
	return r
}

// Cols returns the number of columns.
func (m *Matrix) Cols() int {
	_, c := m.d.Dims()
	return c
}

// At returns the element at row i, column j.
func (m *Matrix) At(i, j int) float64 {
	return m.d.At(i, j)
}

// Data returns a row-major copy of the elements.
func (m *Matrix) Data() []float64 {
	r, c := m.d.Dims()
	out := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		out = append(out, m.d.RawRowView(i)...)
	}
	return out
}

// With returns a copy of m with element (i, j) set to v.
func (m *Matrix) With(i, j int, v float64) *Matrix {
	cp := mat.DenseCopyOf(m.d)
	cp.Set(i, j, v)
	return &Matrix{d: cp}
}

// Multiply returns m × o.
func (m *Matrix) Multiply(o *Matrix) (*Matrix, error) {
	if m.Cols() != o.Rows() {
		return nil, domain.NewError(domain.MismatchedDimension, "matrix", o.Rows(), m.Cols())
	}
	var out mat.Dense
	out.Mul(m.d, o.d)
	return &Matrix{d: &out}, nil
}

// MulVec returns m × v. NaN and infinite entries propagate unchanged.
func (m *Matrix) MulVec(v []float64) ([]float64, error) {
	r, c := m.d.Dims()
	if len(v) != c {
		return nil, domain.NewError(domain.MismatchedDimension, "vector", len(v), c)
	}
	out := make([]float64, r)
	for i := 0; i < r; i++ {
		row := m.d.RawRowView(i)
		var sum float64
		for j, x := range row {
			sum += x * v[j]
		}
		out[i] = sum
	}
	return out, nil
}

// Invert returns the inverse of a square matrix. It fails with
// MatrixNotRegular when the matrix is singular or so badly conditioned that
// its reciprocal condition number falls below SingularityTolerance.
func (m *Matrix) Invert() (*Matrix, error) {
	r, c := m.d.Dims()
	if r != c {
		return nil, domain.NewError(domain.MismatchedDimension, "matrix", c, r)
	}
	if !m.isFinite() {
		return nil, domain.NewError(domain.MatrixNotRegular)
	}
	var lu mat.LU
	lu.Factorize(m.d)
	if cond := lu.Cond(); math.IsInf(cond, 1) || math.IsNaN(cond) || 1/cond < SingularityTolerance {
		return nil, domain.NewError(domain.MatrixNotRegular)
	}
	var inv mat.Dense
	if err := lu.SolveTo(&inv, false, Identity(r).d); err != nil {
		return nil, domain.WrapError(domain.MatrixNotRegular, err)
	}
	return &Matrix{d: &inv}, nil
}

// Determinant returns the determinant of a square matrix.
func (m *Matrix) Determinant() float64 {
	return mat.Det(m.d)
}

// IsIdentity reports whether m is an identity matrix within tol.
func (m *Matrix) IsIdentity(tol float64) bool {
	r, c := m.d.Dims()
	if r != c {
		return false
	}
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			want := 0.0
			if i == j {
				want = 1
			}
			if math.Abs(m.d.At(i, j)-want) > tol {
				return false
			}
		}
	}
	return true
}

// IsAffine reports whether the last row is (0, ..., 0, 1).
func (m *Matrix) IsAffine() bool {
	r, c := m.d.Dims()
	for j := 0; j < c; j++ {
		want := 0.0
		if j == c-1 {
			want = 1
		}
		if m.d.At(r-1, j) != want {
			return false
		}
	}
	return true
}

// Equal reports whether both matrices have the same size and all elements
// agree within tol.
func (m *Matrix) Equal(o *Matrix, tol float64) bool {
	if o == nil {
		return false
	}
	r1, c1 := m.d.Dims()
	r2, c2 := o.d.Dims()
	if r1 != r2 || c1 != c2 {
		return false
	}
	return mat.EqualApprox(m.d, o.d, tol)
}

func (m *Matrix) isFinite() bool {
	for _, v := range m.d.RawMatrix().Data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// String formats the matrix row by row.
func (m *Matrix) String() string {
	r, _ := m.d.Dims()
	var b strings.Builder
	b.WriteString("[")
	for i := 0; i < r; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		for j, v := range m.d.RawRowView(i) {
			if j > 0 {
				b.WriteString(" ")
			}
			fmt.Fprintf(&b, "%g", v)
		}
	}
	b.WriteString("]")
	return b.String()
}
