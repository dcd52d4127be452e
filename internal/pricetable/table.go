// Package pricetable builds the aligned daily price matrix consumed by the
// simulation engines. Alignment mirrors a forward-fill followed by dropping
// any date that still lacks a price for one of the usable tickers, so every
// ticker in the table has a price on every date.
package pricetable

import (
	"sort"
	"strings"
	"time"

	"fundlock/internal/domain"
)

// Table is an immutable date×ticker price matrix. Dates are ascending and
// every ticker has a strictly positive price on every date.
type Table struct {
	dates  []time.Time
	prices map[string][]float64 // ticker → per-date closes, len == len(dates)
}

// Normalize upper-cases and trims a ticker symbol for table lookup.
func Normalize(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// Build aligns per-ticker daily series into a Table. Tickers with no data at
// all are excluded. Individual missing days are forward-filled from the
// prior trading day; dates before a ticker's first observation cannot be
// filled and are dropped for all tickers. Non-positive prices are treated as
// missing.
func Build(series map[string][]domain.PricePoint) *Table {
	// Per-ticker date→price maps with normalized symbols, plus the union of
	// all observed dates.
	byTicker := make(map[string]map[time.Time]float64, len(series))
	dateSet := make(map[time.Time]struct{})
	for ticker, points := range series {
		sym := Normalize(ticker)
		if sym == "" {
			continue
		}
		m := byTicker[sym]
		if m == nil {
			m = make(map[time.Time]float64, len(points))
			byTicker[sym] = m
		}
		for _, p := range points {
			// The date stays in the union even when the close is unusable,
			// so the row forward-fills instead of vanishing.
			d := midnightUTC(p.Date)
			dateSet[d] = struct{}{}
			if p.Close <= 0 {
				continue
			}
			m[d] = p.Close
		}
	}
	for sym, m := range byTicker {
		if len(m) == 0 {
			delete(byTicker, sym)
		}
	}

	allDates := make([]time.Time, 0, len(dateSet))
	for d := range dateSet {
		allDates = append(allDates, d)
	}
	sort.Slice(allDates, func(i, j int) bool { return allDates[i].Before(allDates[j]) })

	// Forward-fill each ticker across the union of dates.
	filled := make(map[string][]float64, len(byTicker))
	for sym, m := range byTicker {
		col := make([]float64, len(allDates))
		last := 0.0
		for i, d := range allDates {
			if p, ok := m[d]; ok {
				last = p
			}
			col[i] = last // 0 until the ticker's first observation
		}
		filled[sym] = col
	}

	// Keep only dates where every ticker has a filled price.
	t := &Table{prices: make(map[string][]float64, len(filled))}
	if len(filled) == 0 {
		return t
	}
	for sym := range filled {
		t.prices[sym] = nil
	}
	for i, d := range allDates {
		complete := true
		for _, col := range filled {
			if col[i] <= 0 {
				complete = false
				break
			}
		}
		if !complete {
			continue
		}
		t.dates = append(t.dates, d)
		for sym, col := range filled {
			t.prices[sym] = append(t.prices[sym], col[i])
		}
	}
	return t
}

// Len returns the number of trading days in the table.
func (t *Table) Len() int { return len(t.dates) }

// Date returns the i-th trading date.
func (t *Table) Date(i int) time.Time { return t.dates[i] }

// Has reports whether the table carries prices for the given (normalized)
// ticker.
func (t *Table) Has(ticker string) bool {
	_, ok := t.prices[Normalize(ticker)]
	return ok
}

// Price returns the price of the given ticker on the i-th trading date.
// Panics on unknown tickers; callers filter with Has first.
func (t *Table) Price(ticker string, i int) float64 {
	return t.prices[Normalize(ticker)][i]
}

// Tickers returns the sorted ticker set covered by the table.
func (t *Table) Tickers() []string {
	out := make([]string, 0, len(t.prices))
	for sym := range t.prices {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

func midnightUTC(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
