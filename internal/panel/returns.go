// Package panel builds the return series and joins it with concentration records.
package panel

import (
	"sort"

	"ConcentrationPanel/internal/calculator"
	"ConcentrationPanel/internal/model"
)

// BuildReturns converts a price series into log returns keyed by the earlier
// period of each consecutive pair. The last period has no successor and
// produces no record. A pairing with a non-positive price is reported as a
// DataQualityError skip. When a period is priced twice the first price wins.
func BuildReturns(prices []model.PriceObservation) ([]model.ReturnRecord, []model.PeriodSkip) {
	sorted := make([]model.PriceObservation, len(prices))
	copy(sorted, prices)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Period < sorted[j].Period })

	series := make([]model.PriceObservation, 0, len(sorted))
	for _, p := range sorted {
		if n := len(series); n > 0 && series[n-1].Period == p.Period {
			continue
		}
		series = append(series, p)
	}

	var returns []model.ReturnRecord
	var skips []model.PeriodSkip
	for i := 0; i+1 < len(series); i++ {
		cur, next := series[i], series[i+1]
		r, err := calculator.CalculateLogReturn(cur.Price, next.Price)
		if err != nil {
			skips = append(skips, model.PeriodSkip{
				Period: cur.Period,
				Reason: &model.DataQualityError{Period: cur.Period, Reason: "log return: " + err.Error()},
			})
			continue
		}
		returns = append(returns, model.ReturnRecord{Period: cur.Period, LogReturn: r})
	}
	return returns, skips
}
