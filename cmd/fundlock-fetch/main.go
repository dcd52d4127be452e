package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"fundlock/internal/config"
	"fundlock/internal/pricefeed"
	"fundlock/internal/store"
)

// Alpaca allows 200 data requests per minute on the free tier.
const rateLimitPerMin = 200

func main() {
	tickersFlag := flag.String("tickers", "", "comma-separated tickers to fetch (default: backtest tickers from config)")
	flag.Parse()

	cfgPath := "config/fundlock.yaml"
	if p := os.Getenv("FUNDLOCK_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Dual logger: stdout + /tmp log file.
	logFileName := fmt.Sprintf("/tmp/fundlock-fetch-%s.log", time.Now().Format("2006-01-02"))
	logFile, err := os.Create(logFileName)
	if err != nil {
		log.Fatalf("failed to create log file: %v", err)
	}
	defer logFile.Close()

	w := io.MultiWriter(os.Stdout, logFile)
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	tickers := cfg.Backtest.Tickers()
	if *tickersFlag != "" {
		tickers = strings.Split(*tickersFlag, ",")
	}
	dates, err := cfg.Backtest.Range()
	if err != nil {
		log.Fatalf("invalid date range: %v", err)
	}

	if cfg.Alpaca.APIKey == "" || cfg.Alpaca.APISecret == "" {
		log.Fatal("Alpaca credentials missing: set alpaca.api_key/api_secret or APCA_API_KEY_ID/APCA_API_SECRET_KEY")
	}

	cache := store.NewParquetCache(cfg.Storage.DataDir)
	source := pricefeed.NewAlpacaSource(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.DataURL, rateLimitPerMin)
	loader := pricefeed.NewCachedLoader(cache, source)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	slog.Info("fetching daily closes",
		"tickers", tickers,
		"start", dates.Start.Format("2006-01-02"),
		"end", dates.End.Format("2006-01-02"),
		"logFile", logFileName)

	series, err := loader.Load(ctx, tickers, dates.Start, dates.End)
	if err != nil {
		log.Fatalf("fetch error: %v", err)
	}

	for sym, points := range series {
		slog.Info("cached", "ticker", sym, "days", len(points))
	}
	for _, t := range tickers {
		sym := strings.ToUpper(strings.TrimSpace(t))
		if _, ok := series[sym]; !ok {
			slog.Warn("no data available", "ticker", sym)
		}
	}
}
