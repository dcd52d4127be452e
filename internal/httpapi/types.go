// Package httpapi provides the HTTP REST API for running and retrieving
// fundlock backtests. The JSON wire types live in pkg/fundlock so SDK
// consumers can name them.
package httpapi

import (
	"time"

	"fundlock/internal/domain"
	"fundlock/internal/sim"
	"fundlock/internal/store"
	api "fundlock/pkg/fundlock"
)

const dateLayout = "2006-01-02"

func toParams(p api.Params) sim.Params {
	return sim.Params{
		MotherTicker:    p.MotherTicker,
		ChildTickers:    p.ChildTickers,
		BenchmarkTicker: p.BenchmarkTicker,
		Capital:         p.Capital,
		EntryFeeRate:    p.EntryFeeRate,
		TransferAmount:  p.TransferAmount,
		TransferDays:    p.TransferDays,
		TargetROI:       p.TargetROI,
	}
}

func fromParams(p sim.Params) api.Params {
	return api.Params{
		MotherTicker:    p.MotherTicker,
		ChildTickers:    p.ChildTickers,
		BenchmarkTicker: p.BenchmarkTicker,
		Capital:         p.Capital,
		EntryFeeRate:    p.EntryFeeRate,
		TransferAmount:  p.TransferAmount,
		TransferDays:    p.TransferDays,
		TargetROI:       p.TargetROI,
	}
}

func toRecords(records []domain.DailyRecord) []api.Record {
	out := make([]api.Record, len(records))
	for i, r := range records {
		out[i] = api.Record{
			Date:        r.Date.Format(dateLayout),
			Total:       r.TotalValue,
			Mother:      r.MotherValue,
			ChildTotal:  r.ChildTotal,
			ChildValues: r.ChildValues,
			Benchmark:   r.BenchmarkValue,
			ROI:         r.ROI,
			Action:      string(r.Action),
			Round:       r.Round,
		}
	}
	return out
}

func toSummaries(summaries []domain.RoundSummary) []api.Summary {
	out := make([]api.Summary, len(summaries))
	for i, s := range summaries {
		out[i] = api.Summary{
			Round:  s.Round,
			Start:  s.StartDate.Format(dateLayout),
			End:    s.EndDate.Format(dateLayout),
			Days:   s.Days,
			ROI:    s.ROI,
			Profit: s.Profit,
		}
	}
	return out
}

func toStats(s domain.ContinuousStats) *api.Stats {
	return &api.Stats{
		CompletedRounds: s.CompletedRounds,
		Running:         s.Running,
		CurrentROI:      s.CurrentROI,
		TotalProfit:     s.TotalProfit,
		MeanDays:        s.MeanDays,
	}
}

func toRunMeta(r *store.Run) api.RunMeta {
	meta := api.RunMeta{
		ID:        r.ID,
		CreatedAt: r.CreatedAt.Format(time.RFC3339),
		Mode:      r.Mode,
		Params:    fromParams(r.Params),
		Triggered: r.Triggered,
	}
	if r.Mode == store.ModeContinuous {
		meta.Stats = toStats(r.Stats)
	}
	return meta
}
