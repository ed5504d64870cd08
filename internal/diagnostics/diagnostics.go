// Package diagnostics provides supplementary checks on a finalized
// histogram and across a dispatch run's per-task histograms: a Shannon
// entropy / perplexity summary of how spread out the final distribution
// is, and a Gelman-Rubin-style potential scale reduction factor (PSRF)
// comparing each task's histogram to the others as if they were
// independent Markov chains sampling the same distribution.
package diagnostics

import (
	"math"

	"github.com/causalgo/tomomc/internal/errs"
)

// Log2Safe is the base-2 logarithm of x, or 0 for x <= 0, NaN or Inf, so
// that a zero-probability bin contributes 0 to an entropy sum instead of
// -Inf.
func Log2Safe(x float64) float64 {
	if x <= 0 || math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return math.Log2(x)
}

// Entropy computes the Shannon entropy (in bits) of a discrete
// distribution: H(p) = -sum p_i log2(p_i). p need not already be
// normalized to sum to 1; callers that pass raw bin counts get the
// entropy of the corresponding normalized distribution only if they
// normalize first.
func Entropy(p []float64) float64 {
	var h float64
	for _, pi := range p {
		if pi > 0 {
			h -= pi * Log2Safe(pi)
		}
	}
	return h
}

// Perplexity is 2^Entropy(p): the "effective number of bins" the
// distribution spreads its mass over. A distribution concentrated in one
// bin has perplexity 1; a uniform distribution over N bins has
// perplexity N.
func Perplexity(p []float64) float64 {
	return math.Exp2(Entropy(p))
}

// DispersionSummary bundles the entropy-based diagnostics of one
// normalized histogram.
type DispersionSummary struct {
	EntropyBits float64
	Perplexity  float64
}

// Summarize computes a DispersionSummary for a normalized bin-probability
// vector.
func Summarize(probs []float64) DispersionSummary {
	h := Entropy(probs)
	return DispersionSummary{EntropyBits: h, Perplexity: math.Exp2(h)}
}

// GelmanRubinPSRF estimates, per histogram bin, a potential scale
// reduction factor across K >= 2 independent tasks' bin-probability
// estimates: taskMeans[k][i] is task k's estimate of bin i's probability,
// taskSE[k][i] is that task's own standard error on the estimate (e.g.
// from its binning error analysis), and nEffPerTask[k] is the effective
// sample size behind task k's estimate. Values close to 1 indicate the
// tasks agree well; values well above 1 indicate they have not converged
// to the same distribution (or one task is still thermalizing).
//
// This follows the same within/between-chain decomposition as a
// Gelman-Rubin R-hat: W is the average within-task variance, B is the
// variance of the task means scaled by the average sample size, and
// PSRF = sqrt(((n-1)/n * W + B/n) / W).
func GelmanRubinPSRF(taskMeans, taskSE [][]float64, nEffPerTask []int) ([]float64, error) {
	k := len(taskMeans)
	if k < 2 {
		return nil, errs.New(errs.InvalidArgument, "PSRF requires at least 2 tasks, got %d", k)
	}
	if len(taskSE) != k || len(nEffPerTask) != k {
		return nil, errs.New(errs.InvalidArgument, "taskMeans, taskSE and nEffPerTask must have matching task counts")
	}
	numBins := len(taskMeans[0])
	for t := 0; t < k; t++ {
		if len(taskMeans[t]) != numBins || len(taskSE[t]) != numBins {
			return nil, errs.New(errs.InvalidArgument, "task %d has mismatched bin count", t)
		}
	}

	var nBar float64
	for _, n := range nEffPerTask {
		nBar += float64(n)
	}
	nBar /= float64(k)
	if nBar < 2 {
		return nil, errs.New(errs.InvalidArgument, "average effective sample size must be >= 2, got %v", nBar)
	}

	psrf := make([]float64, numBins)
	for i := 0; i < numBins; i++ {
		var w float64
		var mu float64
		for t := 0; t < k; t++ {
			w += taskSE[t][i] * taskSE[t][i]
			mu += taskMeans[t][i]
		}
		w /= float64(k)
		mu /= float64(k)

		var betweenVar float64
		for t := 0; t < k; t++ {
			d := taskMeans[t][i] - mu
			betweenVar += d * d
		}
		betweenVar /= float64(k - 1)
		b := nBar * betweenVar

		if w <= 0 {
			psrf[i] = 1.0
			continue
		}
		vhat := ((nBar-1)/nBar)*w + b/nBar
		psrf[i] = math.Sqrt(vhat / w)
	}
	return psrf, nil
}
