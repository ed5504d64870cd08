package qubit

import (
	"math"
	"math/rand"

	"github.com/causalgo/tomomc/internal/errs"
	"github.com/causalgo/tomomc/internal/mhwalk"
)

// JumpsMethod selects how the proposal kernel perturbs a purification.
type JumpsMethod int

const (
	// JumpFull perturbs every entry of T by an independent complex
	// Gaussian step, the thorough (and more expensive) proposal.
	JumpFull JumpsMethod = iota
	// JumpLight perturbs a single randomly-chosen entry of T per
	// iteration, a cheaper proposal that still explores every degree of
	// freedom over many iterations.
	JumpLight
)

// ParseJumpsMethod maps a jumps_method selector name ("full" or "light")
// to a JumpsMethod.
func ParseJumpsMethod(name string) (JumpsMethod, error) {
	switch name {
	case "full":
		return JumpFull, nil
	case "light":
		return JumpLight, nil
	default:
		return 0, errs.New(errs.InvalidArgument, "unknown jumps_method %q, want \"full\" or \"light\"", name)
	}
}

// Walker is the T-parameterisation MHWalker: it proposes new purifications
// by Gaussian perturbation and evaluates the target log-likelihood via an
// IndepMeasLLH, satisfying mhwalk.Walker[Point] and
// mhwalk.LogValueWalker[Point].
type Walker struct {
	dim    int
	method JumpsMethod
	start  Point
	llh    *IndepMeasLLH
}

// NewWalker builds a Walker over dim x dim purifications, starting from
// startT, whose target distribution is llh's likelihood.
func NewWalker(dim int, method JumpsMethod, startT *Matrix, llh *IndepMeasLLH) (*Walker, error) {
	if startT.Dim != dim {
		return nil, errs.New(errs.InvalidArgument, "start purification has dim %d, want %d", startT.Dim, dim)
	}
	return &Walker{dim: dim, method: method, start: Point{T: startT}, llh: llh}, nil
}

func (w *Walker) StartPoint() Point { return w.start.Clone() }

// JumpFn proposes a new purification by perturbing the current one; the
// perturbation scale is params.StepSize.
func (w *Walker) JumpFn(rng *rand.Rand, cur Point, params mhwalk.Params) Point {
	next := cur.Clone()
	switch w.method {
	case JumpLight:
		i := rng.Intn(w.dim)
		j := rng.Intn(w.dim)
		next.T.Set(i, j, next.T.At(i, j)+gaussianStep(rng, params.StepSize))
	default: // JumpFull
		for i := 0; i < w.dim; i++ {
			for j := 0; j < w.dim; j++ {
				next.T.Set(i, j, next.T.At(i, j)+gaussianStep(rng, params.StepSize))
			}
		}
	}
	return next
}

// gaussianStep draws a complex step with independent real/imaginary
// components of standard deviation scale/sqrt(2), so |step| has
// root-mean-square magnitude scale.
func gaussianStep(rng *rand.Rand, scale float64) complex128 {
	s := scale / math.Sqrt2
	return complex(rng.NormFloat64()*s, rng.NormFloat64()*s)
}

func (w *Walker) Init()             {}
func (w *Walker) ThermalizingDone() {}
func (w *Walker) Done()             {}

// FnLogValue is the T-parameterisation walker's target: the IndepMeasLLH
// log-likelihood of the point's density matrix.
func (w *Walker) FnLogValue(p Point) (float64, error) {
	rho, err := p.Rho()
	if err != nil {
		return 0, err
	}
	return w.llh.LogLikelihood(rho)
}
