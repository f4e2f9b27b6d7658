package calculator

import (
	"errors"
	"math"
	"sort"
)

var (
	errNoWeights      = errors.New("no weights provided")
	errNegativeWeight = errors.New("negative weight")
	errZeroTotal      = errors.New("weights sum to zero")
	errNonFinite      = errors.New("non-finite value")
)

func allFinite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// CalculateHHI returns the Herfindahl-Hirschman index Σw² of fractional weights.
func CalculateHHI(weights []float64) (float64, error) {
	if len(weights) == 0 {
		return 0, errNoWeights
	}
	if !allFinite(weights...) {
		return 0, errNonFinite
	}
	sum := 0.0
	for _, w := range weights {
		sum += w * w
	}
	if !allFinite(sum) {
		return 0, errNonFinite
	}
	return sum, nil
}

// CalculateEntropy returns −Σ w·ln(w) over the weights as given. The weights
// are not renormalized to sum to one, so for a top-N slice of a fund the
// result is not bounded by ln(N). Zero weights contribute nothing.
func CalculateEntropy(weights []float64) (float64, error) {
	if len(weights) == 0 {
		return 0, errNoWeights
	}
	if !allFinite(weights...) {
		return 0, errNonFinite
	}
	h := 0.0
	for _, w := range weights {
		if w < 0 {
			return 0, errNegativeWeight
		}
		if w == 0 {
			continue
		}
		h -= w * math.Log(w)
	}
	return h, nil
}

// CalculateGini returns the discrete Lorenz-curve Gini coefficient
// (n + 1 − 2·Σc/c[n−1]) / n, where c is the cumulative sum of the
// ascending-sorted weights.
func CalculateGini(weights []float64) (float64, error) {
	n := len(weights)
	if n == 0 {
		return 0, errNoWeights
	}
	if !allFinite(weights...) {
		return 0, errNonFinite
	}
	sorted := make([]float64, n)
	copy(sorted, weights)
	sort.Float64s(sorted)

	if sorted[0] < 0 {
		return 0, errNegativeWeight
	}

	cum, cumSum := 0.0, 0.0
	for _, w := range sorted {
		cum += w
		cumSum += cum
	}
	if cum == 0 {
		return 0, errZeroTotal
	}
	if !allFinite(cumSum) {
		return 0, errNonFinite
	}
	return (float64(n) + 1 - 2*cumSum/cum) / float64(n), nil
}
