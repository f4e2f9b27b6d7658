package model

// RawHoldingRow is one holdings table row as handed over by the ingestion layer.
// Line is the 1-based line (or sheet row) in the source, used in rejects.
type RawHoldingRow struct {
	Line   int
	Period string
	Code   string
	Weight string
	Amount string
}

// RawPriceRow is one price table row in text form.
type RawPriceRow struct {
	Line   int
	Period string
	Price  string
}

// HoldingObservation is a typed holdings row. Duplicate (Period, Code) pairs
// are allowed; the concentration engine resolves them.
type HoldingObservation struct {
	Period        Period
	Code          string
	WeightPercent float64 // 0..100, not clamped
	Amount        float64
	HasAmount     bool
}

// PriceObservation is a typed closing price for one period.
type PriceObservation struct {
	Period Period
	Price  float64
}

// Reject records one input row discarded during normalization.
type Reject struct {
	Line   int
	Reason error
}

// PeriodSkip records a period (or price pairing) that produced no output.
type PeriodSkip struct {
	Period Period
	Reason error
}
