// Package matdata loads a tomography experiment record (state-space
// dimension, POVM effects, observed counts, and a default reference
// state) out of a MATLAB .mat file, using github.com/scigolib/matlab for
// native Go parsing of MAT-files without a CGo dependency.
//
// Supports:
//   - MATLAB v5 MAT-files (including compressed data elements)
//   - MATLAB v7.3 HDF5-based MAT-files
package matdata

import (
	"fmt"
	"os"

	"github.com/scigolib/matlab"

	"github.com/causalgo/tomomc/internal/errs"
	"github.com/causalgo/tomomc/pkg/qubit"
)

// MatFile wraps a MATLAB file for convenient data extraction.
type MatFile struct {
	file    *matlab.MatFile
	closeFn func() error
}

// Open opens a MATLAB .mat file for reading. Supports both v5 (MATLAB
// 5-7.2) and v7.3 (HDF5) formats.
func Open(path string) (*MatFile, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path is user-provided intentionally
	if err != nil {
		return nil, errs.Wrap(errs.InvalidInput, err, "matdata: failed to open file")
	}

	matFile, err := matlab.Open(f)
	if err != nil {
		_ = f.Close()
		return nil, errs.Wrap(errs.InvalidInput, err, "matdata: failed to parse MAT file")
	}

	return &MatFile{file: matFile, closeFn: f.Close}, nil
}

// Close releases resources associated with the MAT file.
func (m *MatFile) Close() error {
	if m.closeFn != nil {
		return m.closeFn()
	}
	return nil
}

// Variables returns the names of all variables in the file.
func (m *MatFile) Variables() []string { return m.file.GetVariableNames() }

// HasVariable checks if a variable exists in the file.
func (m *MatFile) HasVariable(name string) bool { return m.file.HasVariable(name) }

// GetFloat64 returns a variable as a []float64 slice.
func (m *MatFile) GetFloat64(name string) ([]float64, error) {
	v := m.file.GetVariable(name)
	if v == nil {
		return nil, errs.New(errs.InvalidInput, "matdata: variable %q not found", name)
	}
	data, err := v.GetFloat64Array()
	if err != nil {
		return nil, errs.Wrap(errs.InvalidInput, err, "matdata: cannot convert %q to float64", name)
	}
	return data, nil
}

// GetScalarInt returns a 1x1 variable as an int, for dimension-like
// scalars such as "dim".
func (m *MatFile) GetScalarInt(name string) (int, error) {
	data, err := m.GetFloat64(name)
	if err != nil {
		return 0, err
	}
	if len(data) != 1 {
		return 0, errs.New(errs.InvalidInput, "matdata: %q has %d elements, want a scalar", name, len(data))
	}
	return int(data[0]), nil
}

// GetComplex128WithDims returns a variable's raw complex data in MATLAB's
// column-major order along with its dimensions. A complex MAT-file array
// is stored as paired real and imaginary components; GetComplex128Array
// assembles them into native Go complex128 values.
func (m *MatFile) GetComplex128WithDims(name string) ([]complex128, []int, error) {
	v := m.file.GetVariable(name)
	if v == nil {
		return nil, nil, errs.New(errs.InvalidInput, "matdata: variable %q not found", name)
	}
	data, err := v.GetComplex128Array()
	if err != nil {
		return nil, nil, errs.Wrap(errs.InvalidInput, err, "matdata: cannot convert %q to complex128", name)
	}
	return data, v.Dimensions, nil
}

// GetSquareMatrix reads a dim x dim complex variable and returns it as a
// row-major *qubit.Matrix, converting out of MATLAB's column-major layout.
func (m *MatFile) GetSquareMatrix(name string) (*qubit.Matrix, error) {
	data, dims, err := m.GetComplex128WithDims(name)
	if err != nil {
		return nil, err
	}
	if len(dims) != 2 || dims[0] != dims[1] {
		return nil, errs.New(errs.InvalidInput, "matdata: %q is not a square matrix (dims=%v)", name, dims)
	}
	dim := dims[0]
	out := qubit.NewMatrix(dim)
	for i := 0; i < dim; i++ {
		for j := 0; j < dim; j++ {
			out.Set(i, j, data[j*dim+i]) // column-major -> row-major
		}
	}
	return out, nil
}

// GetEffectStack reads a dim x dim x K complex variable as K separate
// dim x dim POVM effect matrices, MATLAB's third dimension indexing the
// measurement outcome.
func (m *MatFile) GetEffectStack(name string) ([]*qubit.Matrix, error) {
	data, dims, err := m.GetComplex128WithDims(name)
	if err != nil {
		return nil, err
	}
	if len(dims) != 3 || dims[0] != dims[1] {
		return nil, errs.New(errs.InvalidInput, "matdata: %q is not a dim x dim x K stack (dims=%v)", name, dims)
	}
	dim, k := dims[0], dims[2]
	stride := dim * dim
	out := make([]*qubit.Matrix, k)
	for idx := 0; idx < k; idx++ {
		effect := qubit.NewMatrix(dim)
		base := idx * stride
		for i := 0; i < dim; i++ {
			for j := 0; j < dim; j++ {
				effect.Set(i, j, data[base+j*dim+i])
			}
		}
		out[idx] = effect
	}
	return out, nil
}

// ExperimentData is the tomography record this package resolves a .mat
// file into: a state-space dimension, the POVM effects that were
// measured, how many times each outcome was observed, and a default
// reference state (typically an existing maximum-likelihood point
// estimate) to compare figures of merit against.
type ExperimentData struct {
	Dim     int
	Effects []*qubit.Matrix
	Counts  []float64
	RhoMLE  *qubit.Matrix
}

// LoadExperimentData reads the "dim", "Emn", "Nm" and "rho_MLE" variables
// out of a .mat file and validates their shapes against each other.
func LoadExperimentData(path string) (*ExperimentData, error) {
	mf, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = mf.Close() }()

	dim, err := mf.GetScalarInt("dim")
	if err != nil {
		return nil, err
	}
	effects, err := mf.GetEffectStack("Emn")
	if err != nil {
		return nil, err
	}
	counts, err := mf.GetFloat64("Nm")
	if err != nil {
		return nil, err
	}
	rhoMLE, err := mf.GetSquareMatrix("rho_MLE")
	if err != nil {
		return nil, err
	}

	if len(effects) != len(counts) {
		return nil, errs.New(errs.InvalidInput, "matdata: Emn has %d effects but Nm has %d counts", len(effects), len(counts))
	}
	for i, e := range effects {
		if e.Dim != dim {
			return nil, errs.New(errs.InvalidInput, "matdata: effect %d has dim %d, want dim=%d", i, e.Dim, dim)
		}
	}
	if rhoMLE.Dim != dim {
		return nil, errs.New(errs.InvalidInput, "matdata: rho_MLE has dim %d, want dim=%d", rhoMLE.Dim, dim)
	}

	return &ExperimentData{Dim: dim, Effects: effects, Counts: counts, RhoMLE: rhoMLE}, nil
}

// GetNamedObservable reads an optional dim x dim Hermitian observable
// variable (e.g. a user-supplied operator for --value-type=observable),
// returning a descriptive error if the file doesn't define it.
func (m *MatFile) GetNamedObservable(name string) (*qubit.Matrix, error) {
	if !m.HasVariable(name) {
		return nil, errs.New(errs.InvalidInput, "matdata: observable %q not present in file", name)
	}
	mtx, err := m.GetSquareMatrix(name)
	if err != nil {
		return nil, fmt.Errorf("matdata: reading observable %q: %w", name, err)
	}
	return mtx, nil
}
