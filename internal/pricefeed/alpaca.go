package pricefeed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"fundlock/internal/domain"
	"fundlock/internal/pricetable"
	"fundlock/internal/util"
)

// Compile-time interface check.
var _ Source = (*AlpacaSource)(nil)

// AlpacaSource fetches daily bars from the Alpaca market-data API. Closes
// are requested with full (split + dividend) adjustment so the backtest
// works on total-return prices.
type AlpacaSource struct {
	client  *marketdata.Client
	limiter *util.RateLimiter
	log     *slog.Logger
}

// NewAlpacaSource creates an AlpacaSource with the given credentials and a
// per-minute rate limit for API calls.
func NewAlpacaSource(apiKey, apiSecret, dataURL string, rateLimitPerMin int) *AlpacaSource {
	opts := marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	}
	if dataURL != "" {
		opts.BaseURL = dataURL
	}

	return &AlpacaSource{
		client:  marketdata.NewClient(opts),
		limiter: util.NewRateLimiter(rateLimitPerMin),
		log:     slog.Default().With("source", "alpaca"),
	}
}

// FetchDaily fetches daily adjusted closes for the given tickers in a single
// multi-bar request. Tickers with no bars in the range are omitted from the
// result.
func (s *AlpacaSource) FetchDaily(ctx context.Context, tickers []string, start, end time.Time) (map[string][]domain.PricePoint, error) {
	symbols := make([]string, 0, len(tickers))
	for _, t := range tickers {
		if sym := pricetable.Normalize(t); sym != "" {
			symbols = append(symbols, sym)
		}
	}
	if len(symbols) == 0 {
		return map[string][]domain.PricePoint{}, nil
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	multiBars, err := s.client.GetMultiBars(symbols, marketdata.GetBarsRequest{
		TimeFrame:  marketdata.OneDay,
		Adjustment: marketdata.All,
		Start:      start,
		End:        end,
		Feed:       "sip",
	})
	if err != nil {
		return nil, fmt.Errorf("GetMultiBars: %w", err)
	}

	result := make(map[string][]domain.PricePoint, len(multiBars))
	for symbol, bars := range multiBars {
		sym := pricetable.Normalize(symbol)
		points := make([]domain.PricePoint, 0, len(bars))
		for _, b := range bars {
			points = append(points, domain.PricePoint{
				Date:  b.Timestamp.UTC(),
				Close: b.Close,
			})
		}
		if len(points) > 0 {
			result[sym] = points
		}
	}

	for _, sym := range symbols {
		if _, ok := result[sym]; !ok {
			s.log.Warn("no price data", "ticker", sym)
		}
	}
	return result, nil
}
