package source

import (
	"context"

	"ConcentrationPanel/internal/model"
)

// PriceFetcher defines the interface for fetching a monthly price series.
type PriceFetcher interface {
	FetchMonthlyCloses(ctx context.Context, symbol string) ([]model.RawPriceRow, error)
	Name() string
}
