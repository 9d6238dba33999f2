package extraction

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/optifolio/optifolio/internal/clients/yahoo"
	"github.com/optifolio/optifolio/internal/domain"
	"github.com/optifolio/optifolio/pkg/formulas"
)

// QuoteProvider fetches daily bars for one symbol over a date window.
type QuoteProvider interface {
	GetDailyHistory(ctx context.Context, symbol string, start, end time.Time) ([]yahoo.HistoricalPrice, error)
}

// Cache is an optional local store of previously fetched bars.
type Cache interface {
	Put(symbol string, bars []yahoo.HistoricalPrice) error
	Get(symbol string, start, end time.Time) ([]yahoo.HistoricalPrice, error)
}

// Service extracts per-ticker price series from the market-data provider.
type Service struct {
	provider QuoteProvider
	cache    Cache // nil disables caching
	log      zerolog.Logger
}

// NewService creates a new extraction service. cache may be nil.
func NewService(provider QuoteProvider, cache Cache, log zerolog.Logger) *Service {
	return &Service{
		provider: provider,
		cache:    cache,
		log:      log.With().Str("component", "extraction").Logger(),
	}
}

// Extract fetches daily closes for each ticker over [start, end) and builds
// its price/return series. A ticker whose fetch fails or comes back empty is
// logged and omitted; the run proceeds with whatever succeeded. The caller
// must treat an empty result as terminal.
func (s *Service) Extract(ctx context.Context, tickers []string, start, end time.Time) domain.Dataset {
	dataset := make(domain.Dataset)

	for _, ticker := range tickers {
		series, err := s.extractOne(ctx, ticker, start, end)
		if err != nil {
			s.log.Error().Err(err).Str("ticker", ticker).Msg("Failed to extract data, skipping ticker")
			continue
		}
		if len(series) == 0 {
			s.log.Warn().Str("ticker", ticker).Msg("No data available for ticker, skipping")
			continue
		}
		dataset[ticker] = series
	}

	return dataset
}

func (s *Service) extractOne(ctx context.Context, ticker string, start, end time.Time) (domain.Series, error) {
	bars, err := s.provider.GetDailyHistory(ctx, ticker, start, end)
	if err != nil {
		if s.cache == nil {
			return nil, err
		}
		cached, cacheErr := s.cache.Get(ticker, start, end)
		if cacheErr != nil || len(cached) == 0 {
			return nil, err
		}
		s.log.Warn().Err(err).Str("ticker", ticker).Int("bars", len(cached)).
			Msg("Provider fetch failed, using cached prices")
		bars = cached
	} else if s.cache != nil && len(bars) > 0 {
		if err := s.cache.Put(ticker, bars); err != nil {
			s.log.Warn().Err(err).Str("ticker", ticker).Msg("Failed to cache prices")
		}
	}

	return buildSeries(bars), nil
}

// buildSeries keeps only the close, computes simple returns, and drops the
// leading row whose return is undefined. Dates are normalized to calendar
// days.
func buildSeries(bars []yahoo.HistoricalPrice) domain.Series {
	if len(bars) < 2 {
		return nil
	}

	prices := make([]float64, len(bars))
	for i, bar := range bars {
		prices[i] = bar.Close
	}
	returns := formulas.SimpleReturns(prices)

	series := make(domain.Series, 0, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		series = append(series, domain.Point{
			Date:   domain.Date(bars[i].Date),
			Price:  bars[i].Close,
			Return: returns[i-1],
		})
	}

	return series
}
