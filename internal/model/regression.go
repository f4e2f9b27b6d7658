package model

// RegressionResult is the OLS fit of log_return on [intercept, factor, fund_size].
// Coefficients and PValues are keyed by regressor name: RegressorIntercept,
// the factor name and RegressorFundSize.
type RegressionResult struct {
	Factor       string
	RSquared     float64
	Coefficients map[string]float64
	PValues      map[string]float64
	NObs         int
}

// Regressors returns the regressor names of the fit in design-matrix order.
func (r RegressionResult) Regressors() []string {
	return []string{RegressorIntercept, r.Factor, RegressorFundSize}
}
