package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/parquet-go/parquet-go"

	"fundlock/internal/domain"
	"fundlock/internal/pricetable"
)

// Compile-time interface check.
var _ PriceCache = (*ParquetCache)(nil)

// ParquetCache implements PriceCache using Parquet files on disk.
type ParquetCache struct {
	DataDir string
}

// NewParquetCache creates a ParquetCache rooted at the given data directory.
func NewParquetCache(dataDir string) *ParquetCache {
	return &ParquetCache{DataDir: dataDir}
}

// PriceRecord is the Parquet schema for cached daily closes.
type PriceRecord struct {
	Ticker    string  `parquet:"ticker"`
	Timestamp int64   `parquet:"timestamp,timestamp(millisecond)"` // Unix ms
	Close     float64 `parquet:"close"`
}

// WritePrices writes daily closes to Parquet files organized by ticker and
// year. Each ticker+year combination produces a separate file at:
//
//	<DataDir>/prices/<TICKER>/<YYYY>.parquet
func (c *ParquetCache) WritePrices(_ context.Context, ticker string, points []domain.PricePoint) error {
	if len(points) == 0 {
		return nil
	}
	sym := pricetable.Normalize(ticker)

	// Group by year.
	groups := make(map[int][]PriceRecord)
	for _, p := range points {
		y := p.Date.UTC().Year()
		groups[y] = append(groups[y], PriceRecord{
			Ticker:    sym,
			Timestamp: p.Date.UTC().UnixMilli(),
			Close:     p.Close,
		})
	}

	for year, records := range groups {
		path := c.pricePath(sym, year)

		// Read existing records to merge.
		existing, _ := readParquetFile[PriceRecord](path)
		merged := mergePriceRecords(existing, records)

		if err := writeParquetFile(path, merged); err != nil {
			return fmt.Errorf("writing prices for %s/%d: %w", sym, year, err)
		}
	}
	return nil
}

// ReadPrices reads cached closes for the given ticker and date range.
func (c *ParquetCache) ReadPrices(_ context.Context, ticker string, start, end time.Time) ([]domain.PricePoint, error) {
	sym := pricetable.Normalize(ticker)

	var points []domain.PricePoint
	for year := start.Year(); year <= end.Year(); year++ {
		records, err := readParquetFile[PriceRecord](c.pricePath(sym, year))
		if err != nil {
			// No file for this year — skip.
			continue
		}
		for _, r := range records {
			ts := time.UnixMilli(r.Timestamp).UTC()
			if (ts.Equal(start) || ts.After(start)) && (ts.Equal(end) || ts.Before(end)) {
				points = append(points, domain.PricePoint{Date: ts, Close: r.Close})
			}
		}
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points, nil
}

// ListTickers lists all tickers with cached price data.
func (c *ParquetCache) ListTickers(_ context.Context) ([]string, error) {
	dir := filepath.Join(c.DataDir, "prices")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var tickers []string
	for _, e := range entries {
		if e.IsDir() {
			tickers = append(tickers, e.Name())
		}
	}
	sort.Strings(tickers)
	return tickers, nil
}

// pricePath returns the filesystem path for a price Parquet file.
// Layout: <dataDir>/prices/<TICKER>/<YYYY>.parquet
func (c *ParquetCache) pricePath(ticker string, year int) string {
	return filepath.Join(c.DataDir, "prices", ticker, fmt.Sprintf("%d.parquet", year))
}

// ---------------------------------------------------------------------------
// Parquet file helpers
// ---------------------------------------------------------------------------

func writeParquetFile[T any](path string, records []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return parquet.WriteFile(path, records)
}

func readParquetFile[T any](path string) ([]T, error) {
	rows, err := parquet.ReadFile[T](path)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// mergePriceRecords deduplicates records by timestamp, preferring new records
// over existing ones. Results are sorted by timestamp.
func mergePriceRecords(existing, incoming []PriceRecord) []PriceRecord {
	seen := make(map[int64]PriceRecord, len(existing)+len(incoming))
	for _, r := range existing {
		seen[r.Timestamp] = r
	}
	for _, r := range incoming {
		seen[r.Timestamp] = r
	}

	merged := make([]PriceRecord, 0, len(seen))
	for _, r := range seen {
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Timestamp < merged[j].Timestamp
	})
	return merged
}
