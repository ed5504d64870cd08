package qubit

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/causalgo/tomomc/internal/errs"
)

// realEmbed maps a Hermitian m into the real symmetric 2n x 2n matrix
//
//	S = [[Re(m), -Im(m)], [Im(m), Re(m)]]
//
// This doubling is a ring homomorphism on Hermitian matrices under the
// operations this package needs: S(a+b) = S(a)+S(b) and, for Hermitian m,
// S(m^2) = S(m)^2, which extends by the spectral theorem to S(f(m)) =
// f(S(m)) for any function f applied via m's eigendecomposition. That lets
// every Hermitian spectral computation here (matrix square root, singular
// values) go through gonum's real mat.EigenSym instead of a hand-rolled
// complex eigensolver.
func realEmbed(m *Matrix) *mat.SymDense {
	n := m.Dim
	data := make([]float64, (2*n)*(2*n))
	set := func(i, j int, v float64) { data[i*(2*n)+j] = v }
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			z := m.At(i, j)
			set(i, j, real(z))
			set(i, n+j, -imag(z))
			set(n+i, j, imag(z))
			set(n+i, n+j, real(z))
		}
	}
	return mat.NewSymDense(2*n, data)
}

// eigSymFunc diagonalizes the real embedding of Hermitian m, applies f to
// each doubled eigenvalue, and reads the complex Hermitian result back out
// of the reconstructed embedding's top-left and bottom-left n x n blocks.
func eigSymFunc(m *Matrix, f func(float64) float64) (*Matrix, error) {
	n := m.Dim
	s := realEmbed(m)

	var es mat.EigenSym
	if ok := es.Factorize(s, true); !ok {
		return nil, errs.New(errs.NumericAssertion, "eigendecomposition of real embedding failed")
	}
	vals := es.Values(nil)
	var vecs mat.Dense
	es.VectorsTo(&vecs)

	fvals := make([]float64, len(vals))
	for i, v := range vals {
		fvals[i] = f(v)
	}

	// R = V * diag(f(vals)) * V^T
	var diag mat.Dense
	diag.Mul(&vecs, diagMat(fvals))
	var r mat.Dense
	r.Mul(&diag, vecs.T())

	out := NewMatrix(n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			out.Set(i, j, complex(r.At(i, j), r.At(n+i, j)))
		}
	}
	return out, nil
}

func diagMat(d []float64) *mat.Dense {
	n := len(d)
	m := mat.NewDense(n, n, nil)
	for i, v := range d {
		m.Set(i, i, v)
	}
	return m
}

// Sqrt returns the principal Hermitian positive-semidefinite square root of
// a Hermitian positive-semidefinite m, clamping away numerical noise that
// would otherwise send a near-zero eigenvalue slightly negative.
func Sqrt(m *Matrix) (*Matrix, error) {
	return eigSymFunc(m, func(x float64) float64 {
		if x < 0 {
			return 0
		}
		return math.Sqrt(x)
	})
}

// HermitianEigenvalues returns the n real eigenvalues of a Hermitian m,
// ascending.
func HermitianEigenvalues(m *Matrix) ([]float64, error) {
	s := realEmbed(m)
	var es mat.EigenSym
	if ok := es.Factorize(s, false); !ok {
		return nil, errs.New(errs.NumericAssertion, "eigendecomposition of real embedding failed")
	}
	doubled := es.Values(nil)
	sort.Float64s(doubled)
	// Each eigenvalue of m appears twice (adjacent after sorting); average
	// each pair to cancel the tiny asymmetry floating point leaves between
	// the two copies.
	if len(doubled)%2 != 0 {
		return nil, errs.New(errs.NumericAssertion, "real embedding produced an odd eigenvalue count")
	}
	out := make([]float64, len(doubled)/2)
	for i := range out {
		out[i] = 0.5 * (doubled[2*i] + doubled[2*i+1])
	}
	return out, nil
}

// SingularValues returns the singular values of a general (not necessarily
// Hermitian) square complex m, computed as sqrt(eig(m* m)) since m*m is
// always Hermitian positive-semidefinite.
func SingularValues(m *Matrix) ([]float64, error) {
	mhm, err := MatMul(m.ConjTranspose(), m)
	if err != nil {
		return nil, err
	}
	eig, err := HermitianEigenvalues(mhm)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(eig))
	for i, v := range eig {
		if v < 0 {
			v = 0
		}
		out[i] = math.Sqrt(v)
	}
	return out, nil
}

// TraceNorm returns the sum of the singular values of m, i.e. ||m||_1.
func TraceNorm(m *Matrix) (float64, error) {
	sv, err := SingularValues(m)
	if err != nil {
		return 0, err
	}
	var s float64
	for _, v := range sv {
		s += v
	}
	return s, nil
}
