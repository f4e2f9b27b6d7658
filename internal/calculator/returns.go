package calculator

import (
	"errors"
	"math"
)

// CalculateLogReturn returns ln(next/prev). Both prices must be positive and finite.
func CalculateLogReturn(prev, next float64) (float64, error) {
	if !allFinite(prev, next) {
		return 0, errNonFinite
	}
	if prev <= 0 || next <= 0 {
		return 0, errors.New("prices must be positive")
	}
	r := math.Log(next / prev)
	if !allFinite(r) {
		return 0, errNonFinite
	}
	return r, nil
}
