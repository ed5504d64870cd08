package qubit

import "github.com/causalgo/tomomc/internal/errs"

// Point is the T-parameterisation of a density matrix: a dim x dim complex
// purification T with rho = T T* / Tr(T T*). Every walk point is a Point
// value (not a raw *Matrix) so the proposal kernel and the value
// calculators share one normalized-rho computation.
type Point struct {
	T *Matrix
}

// Rho returns the normalized density matrix rho = T T* / Tr(T T*).
func (p Point) Rho() (*Matrix, error) {
	raw, err := MatMul(p.T, p.T.ConjTranspose())
	if err != nil {
		return nil, err
	}
	tr := real(raw.Trace())
	if tr <= 0 {
		return nil, errs.New(errs.NumericAssertion, "purification has non-positive trace %v", tr)
	}
	return raw.Scale(complex(1/tr, 0)), nil
}

// Clone returns a Point with an independently-owned T.
func (p Point) Clone() Point {
	return Point{T: p.T.Clone()}
}
