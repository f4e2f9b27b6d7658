package model

import "fmt"

// Period identifies one monthly reporting snapshot in "YYYY/MM" form.
// String comparison equals chronological comparison.
type Period string

// PeriodRange is an inclusive pair of period bounds.
type PeriodRange struct {
	Start Period
	End   Period
}

// Contains reports whether p lies within the inclusive range.
func (r PeriodRange) Contains(p Period) bool {
	return p >= r.Start && p <= r.End
}

// Validate checks that both bounds have the YYYY/MM shape and are ordered.
func (r PeriodRange) Validate() error {
	if !r.Start.Valid() {
		return fmt.Errorf("invalid start period %q", r.Start)
	}
	if !r.End.Valid() {
		return fmt.Errorf("invalid end period %q", r.End)
	}
	if r.Start > r.End {
		return fmt.Errorf("start period %s is after end period %s", r.Start, r.End)
	}
	return nil
}

// Valid reports whether p has the fixed YYYY/MM lexical shape.
func (p Period) Valid() bool {
	if len(p) != 7 || p[4] != '/' {
		return false
	}
	for i, c := range []byte(p) {
		if i == 4 {
			continue
		}
		if c < '0' || c > '9' {
			return false
		}
	}
	month := (p[5]-'0')*10 + (p[6] - '0')
	return month >= 1 && month <= 12
}
