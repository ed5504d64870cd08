package qubit

import (
	"math"

	"github.com/causalgo/tomomc/internal/errs"
)

// FidelityToRef computes the Uhlmann fidelity F(rho, ref) = ||sqrt(rho)
// sqrt(ref)||_1 between the walk's current state and a fixed reference
// state, precomputing sqrt(ref) once at construction since ref never
// changes across a walk.
type FidelityToRef struct {
	sqrtRef *Matrix
}

// NewFidelityToRef precomputes sqrt(ref) for a Hermitian positive
// semidefinite reference density matrix.
func NewFidelityToRef(ref *Matrix) (*FidelityToRef, error) {
	sqrtRef, err := Sqrt(ref)
	if err != nil {
		return nil, err
	}
	return &FidelityToRef{sqrtRef: sqrtRef}, nil
}

func (f *FidelityToRef) GetValue(p Point) (float64, error) {
	rho, err := p.Rho()
	if err != nil {
		return 0, err
	}
	sqrtRho, err := Sqrt(rho)
	if err != nil {
		return 0, err
	}
	m, err := MatMul(sqrtRho, f.sqrtRef)
	if err != nil {
		return 0, err
	}
	return TraceNorm(m)
}

// PurifDistToRef computes the purified distance sqrt(1 - F^2) to the same
// reference state as an underlying FidelityToRef.
type PurifDistToRef struct {
	fid *FidelityToRef
}

// NewPurifDistToRef builds a PurifDistToRef against ref.
func NewPurifDistToRef(ref *Matrix) (*PurifDistToRef, error) {
	fid, err := NewFidelityToRef(ref)
	if err != nil {
		return nil, err
	}
	return &PurifDistToRef{fid: fid}, nil
}

func (d *PurifDistToRef) GetValue(p Point) (float64, error) {
	f, err := d.fid.GetValue(p)
	if err != nil {
		return 0, err
	}
	arg := 1 - f*f
	if arg < 0 {
		arg = 0
	}
	return math.Sqrt(arg), nil
}

// TrDistToRef computes the trace distance 1/2 ||rho - ref||_1 to a fixed
// reference density matrix. Since rho-ref is Hermitian, its singular
// values are the absolute values of its own (real) eigenvalues, so this
// skips the general SingularValues machinery FidelityToRef needs.
type TrDistToRef struct {
	ref *Matrix
}

// NewTrDistToRef builds a TrDistToRef against ref.
func NewTrDistToRef(ref *Matrix) *TrDistToRef { return &TrDistToRef{ref: ref} }

func (d *TrDistToRef) GetValue(p Point) (float64, error) {
	rho, err := p.Rho()
	if err != nil {
		return 0, err
	}
	diff, err := rho.Sub(d.ref)
	if err != nil {
		return 0, err
	}
	eig, err := HermitianEigenvalues(diff)
	if err != nil {
		return 0, err
	}
	var s float64
	for _, v := range eig {
		s += math.Abs(v)
	}
	return 0.5 * s, nil
}

// ObservableValue computes Tr(A rho) for a fixed Hermitian observable A.
// The result is taken to be the real part, since a Hermitian A against a
// Hermitian rho always yields a real expectation value up to floating
// point noise in the imaginary part.
type ObservableValue struct {
	A *Matrix
}

// NewObservableValue builds an ObservableValue over a Hermitian A.
func NewObservableValue(a *Matrix) (*ObservableValue, error) {
	if !a.IsHermitian(1e-9) {
		return nil, errs.New(errs.InvalidArgument, "observable matrix is not Hermitian")
	}
	return &ObservableValue{A: a}, nil
}

func (o *ObservableValue) GetValue(p Point) (float64, error) {
	rho, err := p.Rho()
	if err != nil {
		return 0, err
	}
	tr, err := TraceProduct(o.A, rho)
	if err != nil {
		return 0, err
	}
	return real(tr), nil
}

// Calculator is the value-calculator interface every member of this
// package's family satisfies; it mirrors valuehist.ValueCalculator[Point]
// without importing that package, so this file has no dependency on the
// estimator core beyond Point itself.
type Calculator interface {
	GetValue(p Point) (float64, error)
}

// Multiplexor selects among several named calculators, resolved once when
// a task's CData is built rather than per sample: the figure of merit a
// task reports never changes mid-walk.
type Multiplexor struct {
	calcs map[string]Calculator
}

// NewMultiplexor builds a Multiplexor over the given name -> calculator
// table.
func NewMultiplexor(calcs map[string]Calculator) *Multiplexor {
	return &Multiplexor{calcs: calcs}
}

// Select resolves a named calculator, the one the resulting task will use
// for every sample.
func (m *Multiplexor) Select(name string) (Calculator, error) {
	c, ok := m.calcs[name]
	if !ok {
		return nil, errs.New(errs.InvalidArgument, "multiplexor has no calculator named %q", name)
	}
	return c, nil
}

// Callable adapts an arbitrary Go function to the Calculator interface,
// covering the "host callback" value-calculator kind for figures of merit
// that do not fit the precomputed matrix forms above.
type Callable struct {
	Fn func(p Point) (float64, error)
}

func (c Callable) GetValue(p Point) (float64, error) { return c.Fn(p) }
