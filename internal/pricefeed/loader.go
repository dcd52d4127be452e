package pricefeed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fundlock/internal/domain"
	"fundlock/internal/pricetable"
	"fundlock/internal/store"
	"fundlock/internal/util"
)

// CachedLoader serves price series from the Parquet cache, fetching only the
// tickers that have no cached data and writing the fetched series back.
type CachedLoader struct {
	cache  store.PriceCache
	source Source
	log    *slog.Logger
}

// NewCachedLoader creates a CachedLoader over the given cache and source.
// A nil source makes the loader cache-only: tickers absent from the cache
// are simply reported as unavailable.
func NewCachedLoader(cache store.PriceCache, source Source) *CachedLoader {
	return &CachedLoader{
		cache:  cache,
		source: source,
		log:    slog.Default().With("component", "priceloader"),
	}
}

// Load returns daily closes for the requested tickers within [start, end].
// Tickers with no data from either the cache or the source are omitted from
// the result; the caller decides whether a missing ticker is fatal.
func (l *CachedLoader) Load(ctx context.Context, tickers []string, start, end time.Time) (map[string][]domain.PricePoint, error) {
	result := make(map[string][]domain.PricePoint, len(tickers))
	var missing []string

	for _, t := range tickers {
		sym := pricetable.Normalize(t)
		if sym == "" {
			continue
		}
		if _, ok := result[sym]; ok {
			continue
		}
		cached, err := l.cache.ReadPrices(ctx, sym, start, end)
		if err != nil {
			return nil, fmt.Errorf("reading cache for %s: %w", sym, err)
		}
		if len(cached) > 0 {
			result[sym] = cached
			continue
		}
		missing = append(missing, sym)
	}

	if len(missing) == 0 || l.source == nil {
		return result, nil
	}

	l.log.Info("fetching uncached tickers", "tickers", missing)

	var fetched map[string][]domain.PricePoint
	err := util.Retry(ctx, 3, time.Second, func() error {
		var ferr error
		fetched, ferr = l.source.FetchDaily(ctx, missing, start, end)
		return ferr
	})
	if err != nil {
		return nil, fmt.Errorf("fetching %v: %w", missing, err)
	}

	for sym, points := range fetched {
		if err := l.cache.WritePrices(ctx, sym, points); err != nil {
			return nil, fmt.Errorf("caching %s: %w", sym, err)
		}
		result[sym] = points
	}
	return result, nil
}
