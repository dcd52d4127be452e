// Package domain defines the core types shared across the fundlock
// backtester: daily valuation records, round summaries, and price points.
package domain

import (
	"errors"
	"time"
)

// Action tags what the simulator did on a given trading day.
type Action string

const (
	// ActionHold marks a day with no transfer and no trigger.
	ActionHold Action = "Hold"
	// ActionTransfer marks a day where at least one mother→child transfer
	// succeeded.
	ActionTransfer Action = "Transfer"
	// ActionInsufficientFunds marks a scheduled transfer day where the mother
	// balance could not fund the first attempted child.
	ActionInsufficientFunds Action = "InsufficientFunds"
	// ActionStopProfit marks the day the round's ROI first reached the target.
	ActionStopProfit Action = "StopProfit"
	// ActionStart marks a continuous-mode re-entry day.
	ActionStart Action = "Start"
)

// Sentinel errors for unusable price input.
var (
	// ErrMissingMotherData is returned when the mother ticker has no usable
	// price data. Fatal: the engine refuses to simulate on partial data.
	ErrMissingMotherData = errors.New("missing mother fund price data")

	// ErrInsufficientData is returned when the aligned price table contains
	// no trading days.
	ErrInsufficientData = errors.New("insufficient price data")
)

// PricePoint is one daily closing price for a single instrument.
type PricePoint struct {
	Date  time.Time
	Close float64
}

// DailyRecord is one row of the simulation log. Records are appended in date
// order and never mutated after creation.
type DailyRecord struct {
	Date        time.Time
	TotalValue  float64
	MotherValue float64
	ChildTotal  float64
	// ChildValues maps child ticker to its market value on this day.
	ChildValues map[string]float64
	// BenchmarkValue is the buy-and-hold benchmark leg, zero when no
	// benchmark ticker is configured. Single-pass mode only.
	BenchmarkValue float64
	// ROI is (TotalValue - capital) / capital against the round's original
	// pre-fee capital.
	ROI    float64
	Action Action
	// Round is the 1-based cycle index in continuous mode, 0 in single-pass.
	Round int
}

// RoundSummary describes one completed profit-lock cycle in continuous mode.
// Immutable once the round's stop-profit fires.
type RoundSummary struct {
	Round     int
	StartDate time.Time
	EndDate   time.Time
	// Days is the round duration in calendar days.
	Days   int
	ROI    float64
	Profit float64
}

// ContinuousStats aggregates a continuous-cycle run.
type ContinuousStats struct {
	CompletedRounds int
	Running         bool
	// CurrentROI is the open round's ROI as of the last trading day; only
	// meaningful when Running is true.
	CurrentROI  float64
	TotalProfit float64
	// MeanDays is the mean duration of completed rounds, 0 when none
	// completed.
	MeanDays float64
}
