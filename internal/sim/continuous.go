package sim

import (
	"fundlock/internal/domain"
	"fundlock/internal/pricetable"
)

// ContinuousResult is the outcome of a continuous-cycle run: the full daily
// log across all rounds, one summary per completed round, and aggregate
// statistics.
type ContinuousResult struct {
	Records   []domain.DailyRecord
	Summaries []domain.RoundSummary
	Stats     domain.ContinuousStats
	Children  []string
}

// RunContinuous repeatedly restarts the single-pass cycle each time
// stop-profit fires, until the price table is exhausted. The full capital is
// reinvested into the mother fund on the first trading day after each exit;
// no entry fee applies in this variant. A round left open at the end of the
// data is excluded from the completed-round statistics but contributes the
// current ROI.
func RunContinuous(t *pricetable.Table, p Params) (*ContinuousResult, error) {
	mother, children, err := prepare(t, p)
	if err != nil {
		return nil, err
	}

	transferDays := daySet(p.TransferDays)

	res := &ContinuousResult{Children: children}
	var (
		h          *holdings
		running    bool
		round      int
		roundStart = t.Date(0)
		lastROI    float64
	)

	for i := 0; i < t.Len(); i++ {
		date := t.Date(i)

		if !running {
			// Re-entry: buy the mother fund with the full capital at this
			// day's price. The entry day never also processes a transfer.
			round++
			roundStart = date
			h = newHoldings(children)
			h.motherUnits = p.Capital / t.Price(mother, i)
			running = true

			motherVal, childTotal, total, childVals := h.valuation(t, mother, children, i)
			lastROI = (total - p.Capital) / p.Capital
			res.Records = append(res.Records, domain.DailyRecord{
				Date:        date,
				TotalValue:  total,
				MotherValue: motherVal,
				ChildTotal:  childTotal,
				ChildValues: childVals,
				ROI:         lastROI,
				Action:      domain.ActionStart,
				Round:       round,
			})
			continue
		}

		motherVal, childTotal, total, childVals := h.valuation(t, mother, children, i)
		roi := (total - p.Capital) / p.Capital

		if roi >= p.TargetROI {
			res.Records = append(res.Records, domain.DailyRecord{
				Date:        date,
				TotalValue:  total,
				MotherValue: motherVal,
				ChildTotal:  childTotal,
				ChildValues: childVals,
				ROI:         roi,
				Action:      domain.ActionStopProfit,
				Round:       round,
			})
			res.Summaries = append(res.Summaries, domain.RoundSummary{
				Round:     round,
				StartDate: roundStart,
				EndDate:   date,
				Days:      int(date.Sub(roundStart).Hours() / 24),
				ROI:       roi,
				Profit:    total - p.Capital,
			})
			// Liquidate; the next date re-enters.
			h = nil
			running = false
			continue
		}

		action := domain.ActionHold
		if transferDays[date.Day()] && len(children) > 0 {
			action = h.transfer(t, mother, children, i, p.TransferAmount)
			motherVal, childTotal, total, childVals = h.valuation(t, mother, children, i)
			roi = (total - p.Capital) / p.Capital
		}
		lastROI = roi

		res.Records = append(res.Records, domain.DailyRecord{
			Date:        date,
			TotalValue:  total,
			MotherValue: motherVal,
			ChildTotal:  childTotal,
			ChildValues: childVals,
			ROI:         roi,
			Action:      action,
			Round:       round,
		})
	}

	res.Stats = summarize(res.Summaries, running, lastROI)
	return res, nil
}

// summarize aggregates completed rounds plus the open-round state.
func summarize(rounds []domain.RoundSummary, running bool, currentROI float64) domain.ContinuousStats {
	stats := domain.ContinuousStats{
		CompletedRounds: len(rounds),
		Running:         running,
	}
	if running {
		stats.CurrentROI = currentROI
	}
	totalDays := 0
	for _, r := range rounds {
		stats.TotalProfit += r.Profit
		totalDays += r.Days
	}
	if len(rounds) > 0 {
		stats.MeanDays = float64(totalDays) / float64(len(rounds))
	}
	return stats
}
