package model

// Factor names, in the order regressions are fitted and reported.
const (
	FactorHHI     = "HHI"
	FactorGini    = "Gini"
	FactorEntropy = "Entropy"

	RegressorIntercept = "intercept"
	RegressorFundSize  = "fund_size"
)

// Factors lists the concentration factors in reporting order.
var Factors = []string{FactorHHI, FactorGini, FactorEntropy}

// ConcentrationRecord holds the concentration indices of one qualifying period.
type ConcentrationRecord struct {
	Period   Period
	HHI      float64
	Gini     float64
	Entropy  float64
	FundSize *float64 // nil when the period has no fund-size row
}

// ReturnRecord is the log return from Period to the next priced period.
type ReturnRecord struct {
	Period    Period
	LogReturn float64
}

// MergedObservation is one panel row present on both sides of the join.
type MergedObservation struct {
	Period    Period
	HHI       float64
	Gini      float64
	Entropy   float64
	FundSize  *float64
	LogReturn float64
}

// Factor returns the value of the named concentration factor.
func (m MergedObservation) Factor(name string) (float64, bool) {
	switch name {
	case FactorHHI:
		return m.HHI, true
	case FactorGini:
		return m.Gini, true
	case FactorEntropy:
		return m.Entropy, true
	}
	return 0, false
}

// FundSizePoint is one entry of the fund-size series.
type FundSizePoint struct {
	Period   Period
	FundSize float64
}
