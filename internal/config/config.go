package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the fundlock backtester.
type Config struct {
	Storage  Storage  `yaml:"storage"`
	Server   Server   `yaml:"server"`
	Alpaca   Alpaca   `yaml:"alpaca"`
	Logging  Logging  `yaml:"logging"`
	Backtest Backtest `yaml:"backtest"`
}

// Storage holds paths for data persistence.
type Storage struct {
	DataDir    string `yaml:"data_dir"`
	SQLitePath string `yaml:"sqlite_path"`
}

// Server holds network listener configuration.
type Server struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Alpaca holds credentials and endpoints for the Alpaca market-data API.
type Alpaca struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	BaseURL   string `yaml:"base_url"`
	DataURL   string `yaml:"data_url"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Backtest holds the mother–child strategy parameters.
type Backtest struct {
	// MotherTicker is the conservative fund.
	MotherTicker string `yaml:"mother_ticker"`
	// ChildTickers are the aggressive funds in transfer order, 1 to 3.
	ChildTickers []string `yaml:"child_tickers"`
	// BenchmarkTicker is an optional buy-and-hold comparison leg.
	BenchmarkTicker string `yaml:"benchmark_ticker"`
	// Capital is the original invested amount.
	Capital float64 `yaml:"capital"`
	// EntryFeeRate is the flat entry fee fraction, default 0.
	EntryFeeRate float64 `yaml:"entry_fee_rate"`
	// TransferAmount is moved to each child on every transfer day.
	TransferAmount float64 `yaml:"transfer_amount"`
	// TransferDays are calendar days-of-month, each 1-31.
	TransferDays []int `yaml:"transfer_days"`
	// TargetROI is the stop-profit threshold, e.g. 0.10.
	TargetROI float64 `yaml:"target_roi"`
	// StartDate and EndDate bound the backtest, formatted 2006-01-02.
	StartDate string `yaml:"start_date"`
	EndDate   string `yaml:"end_date"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path, parses it into a
// Config struct, and then applies environment variable overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}

	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}

	if v := os.Getenv("ALPACA_API_KEY"); v != "" {
		cfg.Alpaca.APIKey = v
	}

	if v := os.Getenv("ALPACA_API_SECRET"); v != "" {
		cfg.Alpaca.APISecret = v
	}

	if v := os.Getenv("ALPACA_BASE_URL"); v != "" {
		cfg.Alpaca.BaseURL = v
	}

	if v := os.Getenv("ALPACA_DATA_URL"); v != "" {
		cfg.Alpaca.DataURL = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	// Standard Alpaca env vars (highest priority — canonical names used by SDK).
	if v := os.Getenv("APCA_API_KEY_ID"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("APCA_API_SECRET_KEY"); v != "" {
		cfg.Alpaca.APISecret = v
	}
}

// ---------------------------------------------------------------------------
// Validation
// ---------------------------------------------------------------------------

// Validate checks the backtest parameter block against its allowed ranges.
func (b *Backtest) Validate() error {
	if b.MotherTicker == "" {
		return fmt.Errorf("mother_ticker is required")
	}
	if len(b.ChildTickers) < 1 || len(b.ChildTickers) > 3 {
		return fmt.Errorf("child_tickers must have 1 to 3 entries, got %d", len(b.ChildTickers))
	}
	if b.Capital <= 0 {
		return fmt.Errorf("capital must be positive, got %v", b.Capital)
	}
	if b.EntryFeeRate < 0 || b.EntryFeeRate >= 1 {
		return fmt.Errorf("entry_fee_rate must be in [0, 1), got %v", b.EntryFeeRate)
	}
	if b.TransferAmount <= 0 {
		return fmt.Errorf("transfer_amount must be positive, got %v", b.TransferAmount)
	}
	if len(b.TransferDays) == 0 {
		return fmt.Errorf("transfer_days must not be empty")
	}
	for _, d := range b.TransferDays {
		if d < 1 || d > 31 {
			return fmt.Errorf("transfer_days entries must be 1-31, got %d", d)
		}
	}
	if b.TargetROI <= 0 {
		return fmt.Errorf("target_roi must be positive, got %v", b.TargetROI)
	}
	if _, err := b.Range(); err != nil {
		return err
	}
	return nil
}

// DateRange is a parsed start/end date pair.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Range parses and validates the configured date bounds.
func (b *Backtest) Range() (DateRange, error) {
	start, err := time.Parse("2006-01-02", b.StartDate)
	if err != nil {
		return DateRange{}, fmt.Errorf("parsing start_date %q: %w", b.StartDate, err)
	}
	end, err := time.Parse("2006-01-02", b.EndDate)
	if err != nil {
		return DateRange{}, fmt.Errorf("parsing end_date %q: %w", b.EndDate, err)
	}
	if end.Before(start) {
		return DateRange{}, fmt.Errorf("end_date %s is before start_date %s", b.EndDate, b.StartDate)
	}
	return DateRange{Start: start, End: end}, nil
}

// Tickers returns every ticker the backtest needs price data for: mother,
// children, and the optional benchmark.
func (b *Backtest) Tickers() []string {
	out := make([]string, 0, len(b.ChildTickers)+2)
	out = append(out, b.MotherTicker)
	out = append(out, b.ChildTickers...)
	if b.BenchmarkTicker != "" {
		out = append(out, b.BenchmarkTicker)
	}
	return out
}
