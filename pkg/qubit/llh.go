package qubit

import (
	"math"

	"github.com/causalgo/tomomc/internal/errs"
)

// TraceProduct returns Tr(a*b) without materializing the full product
// matrix.
func TraceProduct(a, b *Matrix) (complex128, error) {
	if a.Dim != b.Dim {
		return 0, errs.New(errs.InvalidArgument, "TraceProduct: dimension mismatch %d vs %d", a.Dim, b.Dim)
	}
	n := a.Dim
	var s complex128
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			s += a.At(i, j) * b.At(j, i)
		}
	}
	return s, nil
}

// IndepMeasLLH is the log-likelihood of a density matrix rho against a set
// of independent POVM measurement settings: logL(rho) = sum_k N_k * ln
// Tr(E_k rho), where Effects[k] is the k-th POVM effect matrix and
// Counts[k] is the number of times it was observed.
type IndepMeasLLH struct {
	Effects []*Matrix
	Counts  []float64
}

// NewIndepMeasLLH validates that effects and counts line up and that every
// effect shares the state-space dimension.
func NewIndepMeasLLH(effects []*Matrix, counts []float64) (*IndepMeasLLH, error) {
	if len(effects) != len(counts) {
		return nil, errs.New(errs.InvalidArgument, "IndepMeasLLH: %d effects but %d counts", len(effects), len(counts))
	}
	if len(effects) == 0 {
		return nil, errs.New(errs.InvalidArgument, "IndepMeasLLH: no measurement effects given")
	}
	dim := effects[0].Dim
	for i, e := range effects {
		if e.Dim != dim {
			return nil, errs.New(errs.InvalidArgument, "IndepMeasLLH: effect %d has dim %d, want %d", i, e.Dim, dim)
		}
	}
	return &IndepMeasLLH{Effects: effects, Counts: counts}, nil
}

// LogLikelihood evaluates logL(rho). An effect with zero observed counts
// contributes nothing regardless of Tr(E_k rho); an effect with nonzero
// counts but non-positive probability is a NumericAssertion, since it means
// rho has stepped somewhere the model assigns zero probability to an event
// that was actually observed.
func (l *IndepMeasLLH) LogLikelihood(rho *Matrix) (float64, error) {
	var sum float64
	for k, e := range l.Effects {
		if l.Counts[k] == 0 {
			continue
		}
		tr, err := TraceProduct(e, rho)
		if err != nil {
			return 0, err
		}
		p := real(tr)
		if p <= 0 || math.IsNaN(p) {
			return 0, errs.New(errs.NumericAssertion, "measurement %d has non-positive probability %v under current state", k, p)
		}
		sum += l.Counts[k] * math.Log(p)
	}
	return sum, nil
}
