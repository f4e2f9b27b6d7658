// Package regression fits one OLS model per concentration factor:
// log_return ~ intercept + factor + fund_size.
package regression

import (
	"fmt"

	"ConcentrationPanel/internal/model"
)

// Fit regresses log_return on [1, factor, fund_size] across the panel rows
// that carry a fund size. Degenerate input is reported as an
// *model.InsufficientDataError, never as NaN coefficients.
func Fit(panel []model.MergedObservation, factor string) (*model.RegressionResult, error) {
	if _, ok := (model.MergedObservation{}).Factor(factor); !ok {
		return nil, fmt.Errorf("unknown factor %q", factor)
	}

	var x [][]float64
	var y []float64
	for _, obs := range panel {
		if obs.FundSize == nil {
			continue
		}
		v, _ := obs.Factor(factor)
		x = append(x, []float64{1, v, *obs.FundSize})
		y = append(y, obs.LogReturn)
	}

	const regressors = 3
	if len(y) < regressors+1 {
		return nil, &model.InsufficientDataError{
			Scope:  factor,
			Reason: fmt.Sprintf("%d usable observations, need at least %d", len(y), regressors+1),
		}
	}

	fit, err := fitOLS(x, y)
	if err != nil {
		return nil, &model.InsufficientDataError{Scope: factor, Reason: err.Error()}
	}

	names := []string{model.RegressorIntercept, factor, model.RegressorFundSize}
	res := &model.RegressionResult{
		Factor:       factor,
		RSquared:     fit.rSquared,
		Coefficients: make(map[string]float64, regressors),
		PValues:      make(map[string]float64, regressors),
		NObs:         len(y),
	}
	for i, name := range names {
		res.Coefficients[name] = fit.beta[i]
		res.PValues[name] = fit.pValues[i]
	}
	return res, nil
}

// FitAll fits every factor in model.Factors. Factors that fail are returned
// in the error map; the others still produce results.
func FitAll(panel []model.MergedObservation) (map[string]model.RegressionResult, map[string]error) {
	results := make(map[string]model.RegressionResult, len(model.Factors))
	failures := make(map[string]error)
	for _, f := range model.Factors {
		res, err := Fit(panel, f)
		if err != nil {
			failures[f] = err
			continue
		}
		results[f] = *res
	}
	return results, failures
}
