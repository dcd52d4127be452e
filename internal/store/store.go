// Package store defines storage for the fundlock backtester: a Parquet
// price cache for daily closes and a SQLite store for completed backtest
// runs.
package store

import (
	"context"
	"time"

	"fundlock/internal/domain"
	"fundlock/internal/sim"
)

// Run modes.
const (
	ModeSingle     = "single"
	ModeContinuous = "continuous"
)

// Run is one persisted backtest: its parameters, the daily log, and — in
// continuous mode — round summaries and aggregate stats.
type Run struct {
	ID        int64
	CreatedAt time.Time
	Mode      string
	Params    sim.Params
	// Triggered is the single-pass stop-profit flag; false in continuous
	// mode (see Stats instead).
	Triggered bool
	Stats     domain.ContinuousStats
	Records   []domain.DailyRecord
	Summaries []domain.RoundSummary
}

// PriceCache persists and retrieves per-ticker daily price series.
type PriceCache interface {
	// WritePrices persists a batch of daily closes for a ticker, merging
	// with any existing data.
	WritePrices(ctx context.Context, ticker string, points []domain.PricePoint) error

	// ReadPrices returns the cached closes for a ticker within [start, end],
	// in date order. A ticker with no cached data yields an empty slice.
	ReadPrices(ctx context.Context, ticker string, start, end time.Time) ([]domain.PricePoint, error)

	// ListTickers returns all tickers with cached data.
	ListTickers(ctx context.Context) ([]string, error)
}

// RunStore persists and retrieves backtest runs.
type RunStore interface {
	// SaveRun inserts a run with its records and summaries, returning the
	// assigned run ID.
	SaveRun(ctx context.Context, run *Run) (int64, error)

	// ListRuns returns all runs newest-first, without their records.
	ListRuns(ctx context.Context) ([]Run, error)

	// GetRun retrieves a single run with records and summaries.
	GetRun(ctx context.Context, id int64) (*Run, error)
}
