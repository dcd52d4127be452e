// Package pricefeed retrieves daily closing prices for the backtester. The
// Alpaca market-data API is the upstream source; a Parquet-backed cache
// avoids refetching series that are already on disk.
package pricefeed

import (
	"context"
	"time"

	"fundlock/internal/domain"
)

// Source fetches daily closes for a set of tickers. The returned map holds
// one entry per ticker that had any data; tickers entirely absent from the
// map were unavailable upstream.
type Source interface {
	FetchDaily(ctx context.Context, tickers []string, start, end time.Time) (map[string][]domain.PricePoint, error)
}
