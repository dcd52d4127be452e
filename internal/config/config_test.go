package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fundlock.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing temp config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
storage:
  data_dir: "/tmp/fundlock/data"
  sqlite_path: "/tmp/fundlock/fundlock.db"
server:
  host: "0.0.0.0"
  port: 8080
alpaca:
  api_key: "test-key"
  api_secret: "test-secret"
  base_url: "https://paper-api.alpaca.markets"
  data_url: "https://data.alpaca.markets"
logging:
  level: "info"
  format: "json"
backtest:
  mother_ticker: "BND"
  child_tickers: ["QQQ", "VGT"]
  benchmark_ticker: "SPY"
  capital: 300000
  entry_fee_rate: 0.03
  transfer_amount: 3000
  transfer_days: [6, 16, 26]
  target_roi: 0.10
  start_date: "2021-01-01"
  end_date: "2023-12-31"
`)

	// Clear any environment overrides that might interfere.
	os.Unsetenv("ALPACA_API_KEY")
	os.Unsetenv("ALPACA_API_SECRET")
	os.Unsetenv("APCA_API_KEY_ID")
	os.Unsetenv("APCA_API_SECRET_KEY")
	os.Unsetenv("DATA_DIR")
	os.Unsetenv("SQLITE_PATH")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Storage.DataDir != "/tmp/fundlock/data" {
		t.Errorf("Storage.DataDir = %q, want %q", cfg.Storage.DataDir, "/tmp/fundlock/data")
	}
	if cfg.Storage.SQLitePath != "/tmp/fundlock/fundlock.db" {
		t.Errorf("Storage.SQLitePath = %q, want %q", cfg.Storage.SQLitePath, "/tmp/fundlock/fundlock.db")
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Alpaca.APIKey != "test-key" {
		t.Errorf("Alpaca.APIKey = %q, want %q", cfg.Alpaca.APIKey, "test-key")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "info")
	}

	b := cfg.Backtest
	if b.MotherTicker != "BND" {
		t.Errorf("Backtest.MotherTicker = %q, want %q", b.MotherTicker, "BND")
	}
	if len(b.ChildTickers) != 2 || b.ChildTickers[0] != "QQQ" || b.ChildTickers[1] != "VGT" {
		t.Errorf("Backtest.ChildTickers = %v, want [QQQ VGT]", b.ChildTickers)
	}
	if b.Capital != 300000 {
		t.Errorf("Backtest.Capital = %v, want 300000", b.Capital)
	}
	if b.EntryFeeRate != 0.03 {
		t.Errorf("Backtest.EntryFeeRate = %v, want 0.03", b.EntryFeeRate)
	}
	if len(b.TransferDays) != 3 || b.TransferDays[0] != 6 {
		t.Errorf("Backtest.TransferDays = %v, want [6 16 26]", b.TransferDays)
	}
	if b.TargetROI != 0.10 {
		t.Errorf("Backtest.TargetROI = %v, want 0.10", b.TargetROI)
	}
	if err := b.Validate(); err != nil {
		t.Errorf("Validate() on a well-formed config: %v", err)
	}

	tickers := b.Tickers()
	if len(tickers) != 4 {
		t.Errorf("Tickers() = %v, want mother + 2 children + benchmark", tickers)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
alpaca:
  api_key: "yaml-key"
  api_secret: "yaml-secret"
storage:
  data_dir: "/original/data"
`)

	os.Setenv("ALPACA_API_KEY", "env-key")
	os.Setenv("DATA_DIR", "/env/data")
	os.Unsetenv("APCA_API_KEY_ID")
	os.Unsetenv("APCA_API_SECRET_KEY")
	defer os.Unsetenv("ALPACA_API_KEY")
	defer os.Unsetenv("DATA_DIR")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Alpaca.APIKey != "env-key" {
		t.Errorf("Alpaca.APIKey = %q, want %q (env override)", cfg.Alpaca.APIKey, "env-key")
	}
	// api_secret should remain from YAML since no env override was set.
	if cfg.Alpaca.APISecret != "yaml-secret" {
		t.Errorf("Alpaca.APISecret = %q, want %q (from YAML)", cfg.Alpaca.APISecret, "yaml-secret")
	}
	if cfg.Storage.DataDir != "/env/data" {
		t.Errorf("Storage.DataDir = %q, want %q (env override)", cfg.Storage.DataDir, "/env/data")
	}
}

func TestBacktestValidate(t *testing.T) {
	valid := Backtest{
		MotherTicker:   "BND",
		ChildTickers:   []string{"QQQ"},
		Capital:        300000,
		TransferAmount: 3000,
		TransferDays:   []int{6, 16, 26},
		TargetROI:      0.10,
		StartDate:      "2021-01-01",
		EndDate:        "2022-01-01",
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Backtest)
	}{
		{"missing mother", func(b *Backtest) { b.MotherTicker = "" }},
		{"no children", func(b *Backtest) { b.ChildTickers = nil }},
		{"too many children", func(b *Backtest) { b.ChildTickers = []string{"A", "B", "C", "D"} }},
		{"zero capital", func(b *Backtest) { b.Capital = 0 }},
		{"negative fee", func(b *Backtest) { b.EntryFeeRate = -0.01 }},
		{"fee of one", func(b *Backtest) { b.EntryFeeRate = 1 }},
		{"zero transfer amount", func(b *Backtest) { b.TransferAmount = 0 }},
		{"empty transfer days", func(b *Backtest) { b.TransferDays = nil }},
		{"day out of range", func(b *Backtest) { b.TransferDays = []int{0} }},
		{"day too large", func(b *Backtest) { b.TransferDays = []int{32} }},
		{"zero target", func(b *Backtest) { b.TargetROI = 0 }},
		{"bad start date", func(b *Backtest) { b.StartDate = "not-a-date" }},
		{"inverted range", func(b *Backtest) { b.StartDate, b.EndDate = b.EndDate, b.StartDate }},
	}
	for _, tc := range cases {
		b := valid
		b.ChildTickers = append([]string(nil), valid.ChildTickers...)
		b.TransferDays = append([]int(nil), valid.TransferDays...)
		tc.mutate(&b)
		if err := b.Validate(); err == nil {
			t.Errorf("%s: Validate() accepted an invalid config", tc.name)
		}
	}
}
