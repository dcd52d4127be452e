package store

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"fundlock/internal/domain"
	"fundlock/internal/sim"
)

func TestParquetCachePath(t *testing.T) {
	c := NewParquetCache("/data")

	got := c.pricePath("BND", 2024)
	want := filepath.Join("/data", "prices", "BND", "2024.parquet")
	if got != want {
		t.Errorf("pricePath mismatch:\n  got  %s\n  want %s", got, want)
	}
}

func TestParquetCacheWriteReadPrices(t *testing.T) {
	c := NewParquetCache(t.TempDir())
	ctx := context.Background()

	points := []domain.PricePoint{
		{Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Close: 72.5},
		{Date: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), Close: 72.8},
	}
	if err := c.WritePrices(ctx, "bnd", points); err != nil {
		t.Fatalf("WritePrices: %v", err)
	}

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
	got, err := c.ReadPrices(ctx, "BND", start, end)
	if err != nil {
		t.Fatalf("ReadPrices: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ReadPrices returned %d points, want 2", len(got))
	}
	if got[0].Close != 72.5 || got[1].Close != 72.8 {
		t.Errorf("closes = %v, %v; want 72.5, 72.8", got[0].Close, got[1].Close)
	}

	tickers, err := c.ListTickers(ctx)
	if err != nil {
		t.Fatalf("ListTickers: %v", err)
	}
	if len(tickers) != 1 || tickers[0] != "BND" {
		t.Errorf("ListTickers = %v, want [BND] (normalized)", tickers)
	}
}

func TestParquetCacheMergeOnRewrite(t *testing.T) {
	c := NewParquetCache(t.TempDir())
	ctx := context.Background()

	d1 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)

	if err := c.WritePrices(ctx, "QQQ", []domain.PricePoint{{Date: d1, Close: 400}}); err != nil {
		t.Fatalf("first WritePrices: %v", err)
	}
	// Second write overlaps d1 with a corrected close and adds d2.
	if err := c.WritePrices(ctx, "QQQ", []domain.PricePoint{
		{Date: d1, Close: 401},
		{Date: d2, Close: 405},
	}); err != nil {
		t.Fatalf("second WritePrices: %v", err)
	}

	got, err := c.ReadPrices(ctx, "QQQ", d1, d2)
	if err != nil {
		t.Fatalf("ReadPrices: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d points, want 2 (merged, deduped)", len(got))
	}
	if got[0].Close != 401 {
		t.Errorf("overlapping point close = %v, want 401 (incoming wins)", got[0].Close)
	}
}

func TestParquetCacheMissingTicker(t *testing.T) {
	c := NewParquetCache(t.TempDir())

	got, err := c.ReadPrices(context.Background(), "NOPE",
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ReadPrices on missing ticker: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d points for an uncached ticker, want 0", len(got))
	}
}

func TestSQLiteStoreSaveGetRun(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "fundlock.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer s.Close()
	ctx := context.Background()

	run := &Run{
		Mode: ModeContinuous,
		Params: sim.Params{
			MotherTicker:   "BND",
			ChildTickers:   []string{"QQQ"},
			Capital:        300000,
			TransferAmount: 3000,
			TransferDays:   []int{6, 16, 26},
			TargetROI:      0.10,
		},
		Stats: domain.ContinuousStats{
			CompletedRounds: 1,
			Running:         true,
			CurrentROI:      0.02,
			TotalProfit:     30000,
			MeanDays:        120,
		},
		Records: []domain.DailyRecord{
			{
				Date:        time.Date(2021, 1, 4, 0, 0, 0, 0, time.UTC),
				TotalValue:  300000,
				MotherValue: 300000,
				ChildValues: map[string]float64{"QQQ": 0},
				Action:      domain.ActionStart,
				Round:       1,
			},
			{
				Date:        time.Date(2021, 1, 6, 0, 0, 0, 0, time.UTC),
				TotalValue:  300000,
				MotherValue: 297000,
				ChildTotal:  3000,
				ChildValues: map[string]float64{"QQQ": 3000},
				Action:      domain.ActionTransfer,
				Round:       1,
			},
		},
		Summaries: []domain.RoundSummary{
			{
				Round:     1,
				StartDate: time.Date(2021, 1, 4, 0, 0, 0, 0, time.UTC),
				EndDate:   time.Date(2021, 5, 4, 0, 0, 0, 0, time.UTC),
				Days:      120,
				ROI:       0.10,
				Profit:    30000,
			},
		},
	}

	id, err := s.SaveRun(ctx, run)
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	if id == 0 {
		t.Fatal("SaveRun returned zero ID")
	}

	got, err := s.GetRun(ctx, id)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got == nil {
		t.Fatal("GetRun returned nil for a saved run")
	}
	if got.Mode != ModeContinuous {
		t.Errorf("Mode = %q, want %q", got.Mode, ModeContinuous)
	}
	if got.Params.MotherTicker != "BND" || got.Params.Capital != 300000 {
		t.Errorf("Params roundtrip mismatch: %+v", got.Params)
	}
	if got.Stats.CompletedRounds != 1 || !got.Stats.Running {
		t.Errorf("Stats roundtrip mismatch: %+v", got.Stats)
	}
	if len(got.Records) != 2 {
		t.Fatalf("got %d records, want 2", len(got.Records))
	}
	r := got.Records[1]
	if r.Action != domain.ActionTransfer {
		t.Errorf("record action = %q, want %q", r.Action, domain.ActionTransfer)
	}
	if math.Abs(r.ChildValues["QQQ"]-3000) > 1e-9 {
		t.Errorf("child value = %v, want 3000", r.ChildValues["QQQ"])
	}
	if !r.Date.Equal(time.Date(2021, 1, 6, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("record date = %v, want 2021-01-06", r.Date)
	}
	if len(got.Summaries) != 1 {
		t.Fatalf("got %d summaries, want 1", len(got.Summaries))
	}
	if got.Summaries[0].Days != 120 {
		t.Errorf("summary days = %d, want 120", got.Summaries[0].Days)
	}
}

func TestSQLiteStoreListRuns(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "fundlock.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer s.Close()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := s.SaveRun(ctx, &Run{Mode: ModeSingle, Params: sim.Params{MotherTicker: "BND"}}); err != nil {
			t.Fatalf("SaveRun %d: %v", i, err)
		}
	}

	runs, err := s.ListRuns(ctx)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("ListRuns returned %d runs, want 3", len(runs))
	}
	// Newest first.
	if runs[0].ID <= runs[1].ID || runs[1].ID <= runs[2].ID {
		t.Errorf("runs not ordered newest-first: %d, %d, %d", runs[0].ID, runs[1].ID, runs[2].ID)
	}
	if len(runs[0].Records) != 0 {
		t.Errorf("ListRuns should not load records, got %d", len(runs[0].Records))
	}
}

func TestSQLiteStoreGetRunMissing(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "fundlock.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer s.Close()

	got, err := s.GetRun(context.Background(), 12345)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got != nil {
		t.Errorf("GetRun on missing ID = %+v, want nil", got)
	}
}
