// Package sim implements the mother–child profit-lock simulation engines.
// Both engines are pure functions over an immutable price table: they share
// no state between invocations and produce deterministic output for a given
// table and parameter set.
package sim

import (
	"fundlock/internal/domain"
	"fundlock/internal/pricetable"
)

// Params configures one simulation run.
type Params struct {
	// MotherTicker is the conservative fund holding the idle capital.
	MotherTicker string
	// ChildTickers are the aggressive funds, in transfer order.
	ChildTickers []string
	// BenchmarkTicker, when set, adds a buy-and-hold comparison leg. It does
	// not participate in transfers or stop-profit. Single-pass mode only.
	BenchmarkTicker string
	// Capital is the original invested amount; ROI is always computed
	// against this pre-fee figure.
	Capital float64
	// EntryFeeRate is deducted from Capital before the initial mother
	// purchase. Ignored by the continuous engine.
	EntryFeeRate float64
	// TransferAmount is moved from mother to each child on a transfer day.
	TransferAmount float64
	// TransferDays are the calendar days-of-month on which transfers run.
	TransferDays []int
	// TargetROI triggers stop-profit when reached, e.g. 0.10 for 10%.
	TargetROI float64
}

// Result is the outcome of a single-pass run.
type Result struct {
	Records []domain.DailyRecord
	// Triggered reports whether stop-profit fired. A run that exhausts the
	// price table without triggering is a valid non-terminal outcome.
	Triggered bool
	// Children is the active child set after dropping tickers absent from
	// the table, in configured order.
	Children []string
}

// holdings is the per-round mutable unit state.
type holdings struct {
	motherUnits float64
	childUnits  map[string]float64
}

func newHoldings(children []string) *holdings {
	h := &holdings{childUnits: make(map[string]float64, len(children))}
	for _, c := range children {
		h.childUnits[c] = 0
	}
	return h
}

// valuation prices the holdings on day i and returns the per-leg breakdown.
// The returned total is exactly mother + sum of children.
func (h *holdings) valuation(t *pricetable.Table, mother string, children []string, i int) (motherVal, childTotal, total float64, childVals map[string]float64) {
	motherVal = h.motherUnits * t.Price(mother, i)
	childVals = make(map[string]float64, len(children))
	for _, c := range children {
		v := h.childUnits[c] * t.Price(c, i)
		childVals[c] = v
		childTotal += v
	}
	total = motherVal + childTotal
	return
}

// transfer runs the scheduled transfer pass for day i: each child in order
// receives TransferAmount worth of mother units while the running mother
// balance allows it. The first shortfall aborts the remaining children for
// the day. Returns the day's action tag.
func (h *holdings) transfer(t *pricetable.Table, mother string, children []string, i int, amount float64) domain.Action {
	motherPrice := t.Price(mother, i)
	scratch := h.motherUnits * motherPrice

	action := domain.ActionHold
	transferred := false
	for _, c := range children {
		if scratch < amount {
			action = domain.ActionInsufficientFunds
			break
		}
		h.motherUnits -= amount / motherPrice
		h.childUnits[c] += amount / t.Price(c, i)
		scratch -= amount
		transferred = true
	}
	if transferred {
		action = domain.ActionTransfer
	}
	return action
}

// prepare normalizes and validates the ticker set against the table. Missing
// child tickers are silently dropped; a missing mother ticker is fatal.
func prepare(t *pricetable.Table, p Params) (mother string, children []string, err error) {
	if t == nil || t.Len() == 0 {
		return "", nil, domain.ErrInsufficientData
	}
	mother = pricetable.Normalize(p.MotherTicker)
	if !t.Has(mother) {
		return "", nil, domain.ErrMissingMotherData
	}
	for _, c := range p.ChildTickers {
		sym := pricetable.Normalize(c)
		if t.Has(sym) {
			children = append(children, sym)
		}
	}
	return mother, children, nil
}

// Run executes one mother→child cycle over the full table until stop-profit
// fires or the data ends.
func Run(t *pricetable.Table, p Params) (*Result, error) {
	mother, children, err := prepare(t, p)
	if err != nil {
		return nil, err
	}

	transferDays := daySet(p.TransferDays)
	netCapital := p.Capital * (1 - p.EntryFeeRate)

	h := newHoldings(children)
	h.motherUnits = netCapital / t.Price(mother, 0)

	// Optional buy-and-hold benchmark leg.
	bench := pricetable.Normalize(p.BenchmarkTicker)
	benchUnits := 0.0
	if bench != "" && t.Has(bench) {
		benchUnits = netCapital / t.Price(bench, 0)
	} else {
		bench = ""
	}

	res := &Result{Children: children}
	for i := 0; i < t.Len(); i++ {
		date := t.Date(i)
		motherVal, childTotal, total, childVals := h.valuation(t, mother, children, i)
		roi := (total - p.Capital) / p.Capital

		benchVal := 0.0
		if bench != "" {
			benchVal = benchUnits * t.Price(bench, i)
		}

		if roi >= p.TargetROI {
			res.Records = append(res.Records, domain.DailyRecord{
				Date:           date,
				TotalValue:     total,
				MotherValue:    motherVal,
				ChildTotal:     childTotal,
				ChildValues:    childVals,
				BenchmarkValue: benchVal,
				ROI:            roi,
				Action:         domain.ActionStopProfit,
			})
			res.Triggered = true
			break
		}

		action := domain.ActionHold
		if transferDays[date.Day()] && len(children) > 0 {
			action = h.transfer(t, mother, children, i, p.TransferAmount)
			// Reprice after the transfer so the recorded breakdown sums
			// exactly; the transfer itself is value-neutral.
			motherVal, childTotal, total, childVals = h.valuation(t, mother, children, i)
			roi = (total - p.Capital) / p.Capital
		}

		res.Records = append(res.Records, domain.DailyRecord{
			Date:           date,
			TotalValue:     total,
			MotherValue:    motherVal,
			ChildTotal:     childTotal,
			ChildValues:    childVals,
			BenchmarkValue: benchVal,
			ROI:            roi,
			Action:         action,
		})
	}
	return res, nil
}

func daySet(days []int) map[int]bool {
	set := make(map[int]bool, len(days))
	for _, d := range days {
		set[d] = true
	}
	return set
}
