// Package concentration computes per-period concentration indices from
// normalized holdings observations.
package concentration

import (
	"fmt"
	"sort"

	"ConcentrationPanel/internal/calculator"
	"ConcentrationPanel/internal/model"
	"ConcentrationPanel/internal/normalizer"
)

const (
	DefaultTopN         = 10
	DefaultSentinelCode = "TT99"
)

// Engine selects the top holdings of each period and computes HHI, Gini and
// Entropy over them.
type Engine struct {
	TopN         int
	SentinelCode string
}

// NewEngine creates an Engine, falling back to defaults for zero values.
func NewEngine(topN int, sentinel string) *Engine {
	if topN <= 0 {
		topN = DefaultTopN
	}
	if sentinel == "" {
		sentinel = DefaultSentinelCode
	}
	return &Engine{TopN: topN, SentinelCode: sentinel}
}

// Compute returns one record per qualifying period in ascending period order,
// plus the periods that were skipped and why.
func (e *Engine) Compute(obs []model.HoldingObservation) ([]model.ConcentrationRecord, []model.PeriodSkip) {
	periods, groups := groupByPeriod(obs)

	var records []model.ConcentrationRecord
	var skips []model.PeriodSkip
	for _, p := range periods {
		rec, err := e.computePeriod(p, groups[p])
		if err != nil {
			skips = append(skips, model.PeriodSkip{Period: p, Reason: err})
			continue
		}
		records = append(records, rec)
	}
	return records, skips
}

// FundSizeSeries returns the fund size of every period that has a sentinel
// row with an amount, in ascending period order.
func (e *Engine) FundSizeSeries(obs []model.HoldingObservation) []model.FundSizePoint {
	periods, groups := groupByPeriod(obs)
	var series []model.FundSizePoint
	for _, p := range periods {
		if size, ok := e.fundSize(groups[p]); ok {
			series = append(series, model.FundSizePoint{Period: p, FundSize: size})
		}
	}
	return series
}

// TopHoldings applies the selection policy to one period's rows: security
// positions only, stable sort by weight descending, keep the first occurrence
// of each code, truncate to TopN. The result may be shorter than TopN.
func (e *Engine) TopHoldings(rows []model.HoldingObservation) []model.HoldingObservation {
	candidates := make([]model.HoldingObservation, 0, len(rows))
	for _, r := range rows {
		if r.Code == e.SentinelCode || !normalizer.IsSecurityCode(r.Code) {
			continue
		}
		candidates = append(candidates, r)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].WeightPercent > candidates[j].WeightPercent
	})

	seen := make(map[string]bool, len(candidates))
	top := make([]model.HoldingObservation, 0, e.TopN)
	for _, c := range candidates {
		if seen[c.Code] {
			continue
		}
		seen[c.Code] = true
		top = append(top, c)
		if len(top) == e.TopN {
			break
		}
	}
	return top
}

func (e *Engine) computePeriod(p model.Period, rows []model.HoldingObservation) (model.ConcentrationRecord, error) {
	top := e.TopHoldings(rows)
	if len(top) < e.TopN {
		return model.ConcentrationRecord{}, fmt.Errorf("%d of %d: %w", len(top), e.TopN, model.ErrTooFewHoldings)
	}

	weights := make([]float64, len(top))
	for i, h := range top {
		weights[i] = h.WeightPercent / 100
	}

	hhi, err := calculator.CalculateHHI(weights)
	if err != nil {
		return model.ConcentrationRecord{}, &model.DataQualityError{Period: p, Reason: "hhi: " + err.Error()}
	}
	gini, err := calculator.CalculateGini(weights)
	if err != nil {
		return model.ConcentrationRecord{}, &model.DataQualityError{Period: p, Reason: "gini: " + err.Error()}
	}
	entropy, err := calculator.CalculateEntropy(weights)
	if err != nil {
		return model.ConcentrationRecord{}, &model.DataQualityError{Period: p, Reason: "entropy: " + err.Error()}
	}

	rec := model.ConcentrationRecord{Period: p, HHI: hhi, Gini: gini, Entropy: entropy}
	if size, ok := e.fundSize(rows); ok {
		rec.FundSize = &size
	}
	return rec, nil
}

// fundSize returns the amount of the first sentinel row that carries one.
func (e *Engine) fundSize(rows []model.HoldingObservation) (float64, bool) {
	for _, r := range rows {
		if r.Code == e.SentinelCode && r.HasAmount {
			return r.Amount, true
		}
	}
	return 0, false
}

func groupByPeriod(obs []model.HoldingObservation) ([]model.Period, map[model.Period][]model.HoldingObservation) {
	groups := make(map[model.Period][]model.HoldingObservation)
	var periods []model.Period
	for _, o := range obs {
		if _, ok := groups[o.Period]; !ok {
			periods = append(periods, o.Period)
		}
		groups[o.Period] = append(groups[o.Period], o)
	}
	sort.Slice(periods, func(i, j int) bool { return periods[i] < periods[j] })
	return periods, groups
}
