// Package normalizer turns text-typed holdings and price rows into typed
// observations. Rows that cannot be parsed are returned as rejects.
package normalizer

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"ConcentrationPanel/internal/model"
)

var (
	errMissing   = errors.New("missing value")
	errNonFinite = errors.New("not a finite number")
	errPeriod    = errors.New("period is not YYYY/MM")
)

// Schema describes which optional columns the source provides.
type Schema struct {
	HasAmount bool
}

// ParseNumber parses a disclosure number: thousands separators are stripped
// and a lone dash means zero. NaN and infinities are rejected.
func ParseNumber(s string) (float64, error) {
	raw := strings.TrimSpace(s)
	raw = strings.ReplaceAll(raw, ",", "")
	if raw == "" {
		return 0, errMissing
	}
	if raw == "-" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errNonFinite
	}
	return v, nil
}

func parsePeriod(line int, s string) (model.Period, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return "", &model.RowParseError{Line: line, Field: "period"}
	}
	p := model.Period(raw)
	if !p.Valid() {
		return "", &model.RowParseError{Line: line, Field: "period", Value: s, Err: errPeriod}
	}
	return p, nil
}

// IsSecurityCode reports whether code identifies an individual security
// position, i.e. it is non-empty and entirely ASCII digits.
func IsSecurityCode(code string) bool {
	if code == "" {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}

// Holdings normalizes raw holdings rows. The amount column is parsed only
// when the schema declares it.
func Holdings(rows []model.RawHoldingRow, schema Schema) ([]model.HoldingObservation, []model.Reject) {
	obs := make([]model.HoldingObservation, 0, len(rows))
	var rejects []model.Reject
	for _, r := range rows {
		o, err := holding(r, schema)
		if err != nil {
			rejects = append(rejects, model.Reject{Line: r.Line, Reason: err})
			continue
		}
		obs = append(obs, o)
	}
	return obs, rejects
}

func holding(r model.RawHoldingRow, schema Schema) (model.HoldingObservation, error) {
	period, err := parsePeriod(r.Line, r.Period)
	if err != nil {
		return model.HoldingObservation{}, err
	}
	code := strings.TrimSpace(r.Code)
	if code == "" {
		return model.HoldingObservation{}, &model.RowParseError{Line: r.Line, Field: "instrument_code"}
	}
	weight, err := ParseNumber(r.Weight)
	if err != nil {
		return model.HoldingObservation{}, parseError(r.Line, "weight_percent", r.Weight, err)
	}
	o := model.HoldingObservation{
		Period:        period,
		Code:          code,
		WeightPercent: weight,
	}
	if schema.HasAmount {
		amount, err := ParseNumber(r.Amount)
		if err != nil {
			return model.HoldingObservation{}, parseError(r.Line, "amount", r.Amount, err)
		}
		o.Amount = amount
		o.HasAmount = true
	}
	return o, nil
}

// Prices normalizes raw price rows.
func Prices(rows []model.RawPriceRow) ([]model.PriceObservation, []model.Reject) {
	obs := make([]model.PriceObservation, 0, len(rows))
	var rejects []model.Reject
	for _, r := range rows {
		period, err := parsePeriod(r.Line, r.Period)
		if err != nil {
			rejects = append(rejects, model.Reject{Line: r.Line, Reason: err})
			continue
		}
		price, err := ParseNumber(r.Price)
		if err != nil {
			rejects = append(rejects, model.Reject{Line: r.Line, Reason: parseError(r.Line, "price", r.Price, err)})
			continue
		}
		obs = append(obs, model.PriceObservation{Period: period, Price: price})
	}
	return obs, rejects
}

func parseError(line int, field, value string, err error) *model.RowParseError {
	if errors.Is(err, errMissing) {
		return &model.RowParseError{Line: line, Field: field}
	}
	return &model.RowParseError{Line: line, Field: field, Value: value, Err: err}
}
