package panel

import "ConcentrationPanel/internal/model"

// Merge inner-joins concentration records with returns on period, keeping
// the order of records. Periods present on one side only are dropped.
func Merge(records []model.ConcentrationRecord, returns []model.ReturnRecord) []model.MergedObservation {
	byPeriod := make(map[model.Period]float64, len(returns))
	for _, r := range returns {
		if _, dup := byPeriod[r.Period]; !dup {
			byPeriod[r.Period] = r.LogReturn
		}
	}

	merged := make([]model.MergedObservation, 0, len(records))
	for _, c := range records {
		ret, ok := byPeriod[c.Period]
		if !ok {
			continue
		}
		merged = append(merged, model.MergedObservation{
			Period:    c.Period,
			HHI:       c.HHI,
			Gini:      c.Gini,
			Entropy:   c.Entropy,
			FundSize:  c.FundSize,
			LogReturn: ret,
		})
	}
	return merged
}
