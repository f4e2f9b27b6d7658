package regression

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// rankTolerance is the smallest singular value, relative to the largest, that
// the column-scaled design matrix may have before it is treated as singular.
const rankTolerance = 1e-8

// olsFit is the result of an ordinary least squares fit.
type olsFit struct {
	beta     []float64
	pValues  []float64
	rSquared float64
}

// fitOLS regresses y on the columns of x (rows = observations). Columns are
// scaled to unit norm before the rank test and the solve; coefficients and
// standard errors are mapped back to the original scale.
func fitOLS(x [][]float64, y []float64) (*olsFit, error) {
	n := len(y)
	if n == 0 || len(x) != n {
		return nil, fmt.Errorf("need matching non-empty x and y, got %d rows and %d responses", len(x), n)
	}
	p := len(x[0])
	if n < p+1 {
		return nil, fmt.Errorf("%d observations for %d regressors", n, p)
	}

	design := mat.NewDense(n, p, nil)
	for i, row := range x {
		if !finite(row) || !finite(y[i:i+1]) {
			return nil, fmt.Errorf("observation %d has a non-finite value", i)
		}
		design.SetRow(i, row)
	}

	norms := make([]float64, p)
	for j := 0; j < p; j++ {
		norms[j] = floats.Norm(mat.Col(nil, j, design), 2)
		if norms[j] == 0 {
			return nil, fmt.Errorf("regressor %d is identically zero", j)
		}
		if math.IsInf(norms[j], 0) {
			return nil, fmt.Errorf("regressor %d overflows", j)
		}
	}
	scaled := mat.NewDense(n, p, nil)
	scaled.Apply(func(_, j int, v float64) float64 { return v / norms[j] }, design)

	var svd mat.SVD
	if !svd.Factorize(scaled, mat.SVDNone) {
		return nil, fmt.Errorf("singular value decomposition failed")
	}
	sv := svd.Values(nil)
	if sv[len(sv)-1] <= rankTolerance*sv[0] {
		return nil, fmt.Errorf("design matrix is rank-deficient (condition %.3g)", sv[0]/sv[len(sv)-1])
	}

	var xtx, xtxInv mat.Dense
	xtx.Mul(scaled.T(), scaled)
	if err := xtxInv.Inverse(&xtx); err != nil {
		return nil, fmt.Errorf("invert normal equations: %w", err)
	}

	yv := mat.NewVecDense(n, y)
	var xty, bScaled, fitted mat.VecDense
	xty.MulVec(scaled.T(), yv)
	bScaled.MulVec(&xtxInv, &xty)
	fitted.MulVec(scaled, &bScaled)

	mean := floats.Sum(y) / float64(n)
	var ssr, sst float64
	for i := 0; i < n; i++ {
		r := y[i] - fitted.AtVec(i)
		ssr += r * r
		d := y[i] - mean
		sst += d * d
	}
	if !finite([]float64{ssr, sst}) {
		return nil, fmt.Errorf("sums of squares overflow")
	}
	if sst == 0 {
		return nil, fmt.Errorf("response has zero variance")
	}

	df := float64(n - p)
	sigma2 := ssr / df
	tdist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}

	fit := &olsFit{
		beta:     make([]float64, p),
		pValues:  make([]float64, p),
		rSquared: 1 - ssr/sst,
	}
	for j := 0; j < p; j++ {
		fit.beta[j] = bScaled.AtVec(j) / norms[j]
		se := math.Sqrt(sigma2*xtxInv.At(j, j)) / norms[j]
		fit.pValues[j] = twoSidedP(fit.beta[j], se, tdist)
	}
	return fit, nil
}

func finite(vs []float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func twoSidedP(beta, se float64, t distuv.StudentsT) float64 {
	if se == 0 {
		if beta == 0 {
			return 1
		}
		return 0
	}
	return 2 * t.CDF(-math.Abs(beta/se))
}
