// Package pipeline runs one fund end to end: period filtering, normalization,
// concentration indices, returns, the merged panel and the regressions.
package pipeline

import (
	"log"

	"github.com/dustin/go-humanize"

	"ConcentrationPanel/internal/concentration"
	"ConcentrationPanel/internal/model"
	"ConcentrationPanel/internal/normalizer"
	"ConcentrationPanel/internal/panel"
	"ConcentrationPanel/internal/regression"
)

// Options configures a pipeline run.
type Options struct {
	Range        model.PeriodRange
	TopN         int
	SentinelCode string
	HasAmount    bool
}

// Result carries every intermediate and final product of a run. Regressions
// holds the fitted factors in model.Factors order; FactorErrors the others.
type Result struct {
	Fund           string
	Records        []model.ConcentrationRecord
	FundSizes      []model.FundSizePoint
	Returns        []model.ReturnRecord
	Panel          []model.MergedObservation
	Regressions    []model.RegressionResult
	FactorErrors   map[string]error
	HoldingRejects []model.Reject
	PriceRejects   []model.Reject
	PeriodSkips    []model.PeriodSkip
	ReturnSkips    []model.PeriodSkip
	OutOfRange     int
}

// Run computes the concentration panel of one fund. It is a pure function of
// its inputs. A fund with no qualifying period fails with an
// InsufficientDataError; per-row, per-period and per-factor problems are
// reported in the Result instead.
func Run(fund string, holdings []model.RawHoldingRow, prices []model.RawPriceRow, opts Options) (*Result, error) {
	res := &Result{Fund: fund}

	hObs, hRejects := normalizer.Holdings(holdings, normalizer.Schema{HasAmount: opts.HasAmount})
	pObs, pRejects := normalizer.Prices(prices)
	res.HoldingRejects, res.PriceRejects = hRejects, pRejects

	hObs = filterHoldings(hObs, opts.Range, &res.OutOfRange)
	for _, o := range pObs {
		if !opts.Range.Contains(o.Period) {
			res.OutOfRange++
		}
	}

	engine := concentration.NewEngine(opts.TopN, opts.SentinelCode)
	res.Records, res.PeriodSkips = engine.Compute(hObs)
	res.FundSizes = engine.FundSizeSeries(hObs)

	log.Printf("[INFO] %s: %s holdings rows, %s rejected, %s out of range; %s periods qualified, %s skipped",
		fund,
		humanize.Comma(int64(len(holdings))),
		humanize.Comma(int64(len(hRejects))),
		humanize.Comma(int64(res.OutOfRange)),
		humanize.Comma(int64(len(res.Records))),
		humanize.Comma(int64(len(res.PeriodSkips))))
	for _, s := range res.PeriodSkips {
		log.Printf("[WARN] %s: period %s skipped: %v", fund, s.Period, s.Reason)
	}

	if len(res.Records) == 0 {
		return nil, &model.InsufficientDataError{Scope: "panel", Reason: fund + ": no qualifying period"}
	}

	// Returns are built on the full price series, then filtered by key.
	returns, skips := panel.BuildReturns(pObs)
	res.Returns = filterReturns(returns, opts.Range)
	res.ReturnSkips = filterSkips(skips, opts.Range)
	for _, s := range res.ReturnSkips {
		log.Printf("[WARN] %s: return from %s skipped: %v", fund, s.Period, s.Reason)
	}
	res.Panel = panel.Merge(res.Records, res.Returns)
	log.Printf("[INFO] %s: %d returns, %d merged observations", fund, len(res.Returns), len(res.Panel))

	fits, failures := regression.FitAll(res.Panel)
	for _, f := range model.Factors {
		if r, ok := fits[f]; ok {
			res.Regressions = append(res.Regressions, r)
		}
	}
	res.FactorErrors = failures
	for f, err := range failures {
		log.Printf("[WARN] %s: regression on %s failed: %v", fund, f, err)
	}
	return res, nil
}

func filterHoldings(obs []model.HoldingObservation, r model.PeriodRange, dropped *int) []model.HoldingObservation {
	kept := make([]model.HoldingObservation, 0, len(obs))
	for _, o := range obs {
		if !r.Contains(o.Period) {
			*dropped++
			continue
		}
		kept = append(kept, o)
	}
	return kept
}

func filterReturns(returns []model.ReturnRecord, r model.PeriodRange) []model.ReturnRecord {
	kept := make([]model.ReturnRecord, 0, len(returns))
	for _, rr := range returns {
		if r.Contains(rr.Period) {
			kept = append(kept, rr)
		}
	}
	return kept
}

func filterSkips(skips []model.PeriodSkip, r model.PeriodRange) []model.PeriodSkip {
	var kept []model.PeriodSkip
	for _, s := range skips {
		if r.Contains(s.Period) {
			kept = append(kept, s)
		}
	}
	return kept
}
