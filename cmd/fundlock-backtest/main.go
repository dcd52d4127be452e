package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"fundlock/internal/config"
	"fundlock/internal/pricefeed"
	"fundlock/internal/pricetable"
	"fundlock/internal/report"
	"fundlock/internal/sim"
	"fundlock/internal/store"
	"fundlock/internal/util"
)

const rateLimitPerMin = 200

func main() {
	mode := flag.String("mode", store.ModeSingle, "engine mode: single or continuous")
	save := flag.Bool("save", false, "persist the run to the SQLite store")
	flag.Parse()

	cfgPath := "config/fundlock.yaml"
	if p := os.Getenv("FUNDLOCK_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Backtest.Validate(); err != nil {
		log.Fatalf("invalid backtest config: %v", err)
	}
	if *mode != store.ModeSingle && *mode != store.ModeContinuous {
		log.Fatalf("unknown mode %q: want single or continuous", *mode)
	}

	logger := util.NewLogger(cfg.Logging.Level)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	table, err := buildTable(ctx, cfg)
	if err != nil {
		log.Fatalf("loading prices: %v", err)
	}

	params := sim.Params{
		MotherTicker:    cfg.Backtest.MotherTicker,
		ChildTickers:    cfg.Backtest.ChildTickers,
		BenchmarkTicker: cfg.Backtest.BenchmarkTicker,
		Capital:         cfg.Backtest.Capital,
		EntryFeeRate:    cfg.Backtest.EntryFeeRate,
		TransferAmount:  cfg.Backtest.TransferAmount,
		TransferDays:    cfg.Backtest.TransferDays,
		TargetROI:       cfg.Backtest.TargetROI,
	}

	run := &store.Run{Mode: *mode, Params: params}
	switch *mode {
	case store.ModeSingle:
		res, err := sim.Run(table, params)
		if err != nil {
			log.Fatalf("simulation error: %v", err)
		}
		run.Triggered = res.Triggered
		run.Records = res.Records
		if err := report.Single(os.Stdout, res, params); err != nil {
			log.Fatalf("writing report: %v", err)
		}

	case store.ModeContinuous:
		res, err := sim.RunContinuous(table, params)
		if err != nil {
			log.Fatalf("simulation error: %v", err)
		}
		run.Records = res.Records
		run.Summaries = res.Summaries
		run.Stats = res.Stats
		if err := report.Continuous(os.Stdout, res, params); err != nil {
			log.Fatalf("writing report: %v", err)
		}
	}

	if *save {
		runs, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
		if err != nil {
			log.Fatalf("opening run store: %v", err)
		}
		defer runs.Close()

		id, err := runs.SaveRun(ctx, run)
		if err != nil {
			log.Fatalf("saving run: %v", err)
		}
		logger.Info("run saved", "id", id, "mode", *mode)
		fmt.Printf("\nSaved as run %d\n", id)
	}
}

// buildTable loads price series for all configured tickers, cache-first with
// Alpaca as the fallback source when credentials are present.
func buildTable(ctx context.Context, cfg *config.Config) (*pricetable.Table, error) {
	dates, err := cfg.Backtest.Range()
	if err != nil {
		return nil, err
	}

	cache := store.NewParquetCache(cfg.Storage.DataDir)
	var source pricefeed.Source
	if cfg.Alpaca.APIKey != "" && cfg.Alpaca.APISecret != "" {
		source = pricefeed.NewAlpacaSource(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.DataURL, rateLimitPerMin)
	}
	loader := pricefeed.NewCachedLoader(cache, source)

	series, err := loader.Load(ctx, cfg.Backtest.Tickers(), dates.Start, dates.End)
	if err != nil {
		return nil, err
	}
	return pricetable.Build(series), nil
}
