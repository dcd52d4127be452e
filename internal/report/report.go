// Package report renders backtest results as plain-text tables and KPI
// blocks for the CLI and the terminal viewer.
package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"fundlock/internal/domain"
	"fundlock/internal/sim"
)

const dateLayout = "2006-01-02"

// Single writes the KPI block and daily table for a single-pass run.
func Single(w io.Writer, res *sim.Result, p sim.Params) error {
	if len(res.Records) == 0 {
		_, err := fmt.Fprintln(w, "no trading days simulated")
		return err
	}
	last := res.Records[len(res.Records)-1]

	status := "still running"
	if res.Triggered {
		status = "stop-profit reached"
	}
	fmt.Fprintf(w, "Final value:      %s\n", money(last.TotalValue))
	fmt.Fprintf(w, "ROI:              %s\n", percent(last.ROI))
	fmt.Fprintf(w, "Mother remainder: %s\n", money(last.MotherValue))
	fmt.Fprintf(w, "Status:           %s\n", status)
	if last.BenchmarkValue > 0 {
		benchROI := (last.BenchmarkValue - p.Capital) / p.Capital
		fmt.Fprintf(w, "Benchmark ROI:    %s\n", percent(benchROI))
	}
	fmt.Fprintln(w)

	return Records(w, res.Records, res.Children)
}

// Continuous writes the aggregate stats, round table, and daily table for a
// continuous-cycle run.
func Continuous(w io.Writer, res *sim.ContinuousResult, p sim.Params) error {
	stats := res.Stats
	fmt.Fprintf(w, "Capital per round: %s\n", money(p.Capital))
	fmt.Fprintf(w, "Completed rounds: %d\n", stats.CompletedRounds)
	fmt.Fprintf(w, "Total profit:     %s\n", money(stats.TotalProfit))
	if stats.CompletedRounds > 0 {
		fmt.Fprintf(w, "Mean duration:    %.1f days\n", stats.MeanDays)
	}
	if stats.Running {
		fmt.Fprintf(w, "Open round ROI:   %s\n", percent(stats.CurrentROI))
	}
	fmt.Fprintln(w)

	if len(res.Summaries) > 0 {
		if err := Summaries(w, res.Summaries); err != nil {
			return err
		}
		fmt.Fprintln(w)
	}
	return Records(w, res.Records, res.Children)
}

// Records writes the daily log as a table, one column per child ticker.
func Records(w io.Writer, records []domain.DailyRecord, children []string) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprint(tw, "DATE\tTOTAL\tMOTHER")
	for _, c := range children {
		fmt.Fprintf(tw, "\t%s", c)
	}
	fmt.Fprint(tw, "\tROI\tACTION")
	hasRounds := len(records) > 0 && records[0].Round > 0
	if hasRounds {
		fmt.Fprint(tw, "\tROUND")
	}
	fmt.Fprintln(tw)

	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s", r.Date.Format(dateLayout), money(r.TotalValue), money(r.MotherValue))
		for _, c := range children {
			fmt.Fprintf(tw, "\t%s", money(r.ChildValues[c]))
		}
		fmt.Fprintf(tw, "\t%s\t%s", percent(r.ROI), r.Action)
		if hasRounds {
			fmt.Fprintf(tw, "\t%d", r.Round)
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

// Summaries writes the completed-round table.
func Summaries(w io.Writer, summaries []domain.RoundSummary) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ROUND\tSTART\tEND\tDAYS\tROI\tPROFIT")
	for _, s := range summaries {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\t%s\n",
			s.Round, s.StartDate.Format(dateLayout), s.EndDate.Format(dateLayout),
			s.Days, percent(s.ROI), money(s.Profit))
	}
	return tw.Flush()
}

func money(v float64) string {
	return fmt.Sprintf("%.0f", v)
}

func percent(v float64) string {
	return fmt.Sprintf("%.2f%%", v*100)
}
