// Package qubit implements the quantum-tomography MHWalker: a
// T-parameterised proposal over density-matrix purifications, the
// independent-measurement log-likelihood used as its target, and the
// ValueCalculator family (fidelity, trace distance, purified distance,
// observable expectation) evaluated against a fixed reference state.
package qubit

import (
	"math"

	"github.com/causalgo/tomomc/internal/errs"
)

// Matrix is a dense square complex matrix, row-major. It is deliberately
// minimal: just the handful of operations the T-parameterisation walker
// and its value calculators need, since gonum's mat.CDense does not carry
// a complex eigendecomposition this package could otherwise lean on (see
// linalg.go for how the Hermitian spectral operations are instead built on
// gonum's real mat.EigenSym via a standard complex-to-real doubling).
type Matrix struct {
	Dim  int
	Data []complex128 // row-major, length Dim*Dim
}

// NewMatrix returns a zero dim x dim matrix.
func NewMatrix(dim int) *Matrix {
	return &Matrix{Dim: dim, Data: make([]complex128, dim*dim)}
}

// NewMatrixFromRowMajor wraps an existing row-major data slice.
func NewMatrixFromRowMajor(dim int, data []complex128) (*Matrix, error) {
	if len(data) != dim*dim {
		return nil, errs.New(errs.InvalidArgument, "matrix data has %d entries, want %d for dim %d", len(data), dim*dim, dim)
	}
	return &Matrix{Dim: dim, Data: data}, nil
}

// Identity returns the dim x dim identity matrix.
func Identity(dim int) *Matrix {
	m := NewMatrix(dim)
	for i := 0; i < dim; i++ {
		m.Set(i, i, 1)
	}
	return m
}

func (m *Matrix) At(i, j int) complex128 { return m.Data[i*m.Dim+j] }
func (m *Matrix) Set(i, j int, v complex128) { m.Data[i*m.Dim+j] = v }

// Clone returns an independent copy.
func (m *Matrix) Clone() *Matrix {
	out := NewMatrix(m.Dim)
	copy(out.Data, m.Data)
	return out
}

// ConjTranspose returns m*.
func (m *Matrix) ConjTranspose() *Matrix {
	out := NewMatrix(m.Dim)
	for i := 0; i < m.Dim; i++ {
		for j := 0; j < m.Dim; j++ {
			out.Set(j, i, cmplx128Conj(m.At(i, j)))
		}
	}
	return out
}

func cmplx128Conj(z complex128) complex128 { return complex(real(z), -imag(z)) }

// MatMul returns a*b; both must be square of the same dimension.
func MatMul(a, b *Matrix) (*Matrix, error) {
	if a.Dim != b.Dim {
		return nil, errs.New(errs.InvalidArgument, "MatMul: dimension mismatch %d vs %d", a.Dim, b.Dim)
	}
	n := a.Dim
	out := NewMatrix(n)
	for i := 0; i < n; i++ {
		for k := 0; k < n; k++ {
			aik := a.At(i, k)
			if aik == 0 {
				continue
			}
			for j := 0; j < n; j++ {
				out.Data[i*n+j] += aik * b.At(k, j)
			}
		}
	}
	return out, nil
}

// Add returns a+b.
func (m *Matrix) Add(b *Matrix) (*Matrix, error) {
	if m.Dim != b.Dim {
		return nil, errs.New(errs.InvalidArgument, "Add: dimension mismatch %d vs %d", m.Dim, b.Dim)
	}
	out := NewMatrix(m.Dim)
	for i := range out.Data {
		out.Data[i] = m.Data[i] + b.Data[i]
	}
	return out, nil
}

// Sub returns a-b.
func (m *Matrix) Sub(b *Matrix) (*Matrix, error) {
	if m.Dim != b.Dim {
		return nil, errs.New(errs.InvalidArgument, "Sub: dimension mismatch %d vs %d", m.Dim, b.Dim)
	}
	out := NewMatrix(m.Dim)
	for i := range out.Data {
		out.Data[i] = m.Data[i] - b.Data[i]
	}
	return out, nil
}

// Scale returns c*m.
func (m *Matrix) Scale(c complex128) *Matrix {
	out := NewMatrix(m.Dim)
	for i, v := range m.Data {
		out.Data[i] = c * v
	}
	return out
}

// Trace returns Tr(m).
func (m *Matrix) Trace() complex128 {
	var s complex128
	for i := 0; i < m.Dim; i++ {
		s += m.At(i, i)
	}
	return s
}

// IsHermitian reports whether m equals its own conjugate transpose within
// tol (absolute, per entry).
func (m *Matrix) IsHermitian(tol float64) bool {
	for i := 0; i < m.Dim; i++ {
		for j := 0; j < m.Dim; j++ {
			d := m.At(i, j) - cmplx128Conj(m.At(j, i))
			if math.Hypot(real(d), imag(d)) > tol {
				return false
			}
		}
	}
	return true
}

// FrobeniusNorm returns sqrt(Tr(m* m)), the Hilbert-Schmidt norm.
func (m *Matrix) FrobeniusNorm() float64 {
	var s float64
	for _, v := range m.Data {
		s += real(v)*real(v) + imag(v)*imag(v)
	}
	return math.Sqrt(s)
}
