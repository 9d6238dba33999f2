package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/optifolio/optifolio/internal/config"
	"github.com/optifolio/optifolio/internal/domain"
	"github.com/optifolio/optifolio/internal/modules/alignment"
	"github.com/optifolio/optifolio/internal/modules/allocation"
	"github.com/optifolio/optifolio/internal/modules/augmentation"
	"github.com/optifolio/optifolio/internal/modules/reporting"
	"github.com/optifolio/optifolio/pkg/formulas"
)

const tradingDaysPerYear = 252

// ErrNoData means extraction produced nothing for any ticker. The caller
// treats this as terminal; downstream stages are never invoked.
var ErrNoData = errors.New("no data extracted for any ticker")

// Extractor pulls per-ticker price series for a date window.
type Extractor interface {
	Extract(ctx context.Context, tickers []string, start, end time.Time) domain.Dataset
}

// Forecaster produces next-day price and return forecasts per ticker.
type Forecaster interface {
	PredictAll(dataset domain.Dataset) (map[string]float64, map[string]float64, error)
}

// Allocator solves for portfolio weights.
type Allocator interface {
	Optimize(dataset domain.Dataset, opts allocation.Options) (map[string]float64, error)
}

// Pipeline wires the six stages in their fixed order: extraction, alignment,
// forecasting, augmentation, allocation, reporting. Execution is strictly
// sequential; nothing runs concurrently across tickers.
type Pipeline struct {
	extractor  Extractor
	forecaster Forecaster
	allocator  Allocator
	cfg        *config.Config
	log        zerolog.Logger
}

// New creates a pipeline.
func New(extractor Extractor, forecaster Forecaster, allocator Allocator, cfg *config.Config, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		extractor:  extractor,
		forecaster: forecaster,
		allocator:  allocator,
		cfg:        cfg,
		log:        log.With().Str("component", "pipeline").Logger(),
	}
}

// Run executes one full forecast-and-allocate pass and returns the report.
func (p *Pipeline) Run(ctx context.Context) (*reporting.Report, error) {
	start, err := time.Parse("2006-01-02", p.cfg.StartDate)
	if err != nil {
		return nil, fmt.Errorf("invalid start date: %w", err)
	}
	end, err := time.Parse("2006-01-02", p.cfg.EndDate)
	if err != nil {
		return nil, fmt.Errorf("invalid end date: %w", err)
	}

	p.log.Info().
		Strs("tickers", p.cfg.Tickers).
		Str("start", p.cfg.StartDate).
		Str("end", p.cfg.EndDate).
		Msg("Starting portfolio optimization")

	raw := p.extractor.Extract(ctx, p.cfg.Tickers, start, end)
	if len(raw) == 0 {
		return nil, ErrNoData
	}
	if len(raw) < len(p.cfg.Tickers) {
		p.log.Warn().
			Int("requested", len(p.cfg.Tickers)).
			Int("extracted", len(raw)).
			Msg("Proceeding with partial ticker set")
	}

	aligned := alignment.Align(raw)

	predictions, predictedReturns, err := p.forecaster.PredictAll(aligned)
	if err != nil {
		return nil, fmt.Errorf("forecasting: %w", err)
	}

	recentPrices := augmentation.RecentPrices(aligned, p.cfg.RecentPriceDays)

	augmented, err := augmentation.AppendForecasts(aligned, predictions, predictedReturns)
	if err != nil {
		return nil, fmt.Errorf("augmentation: %w", err)
	}

	weights, err := p.allocator.Optimize(augmented, allocation.Options{
		MinAllocation: p.cfg.MinAllocation,
		MaxAllocation: p.cfg.MaxAllocation,
		RiskAversion:  p.cfg.RiskAversion,
		LookbackDays:  p.cfg.LookbackDays,
	})
	if err != nil {
		return nil, fmt.Errorf("allocation: %w", err)
	}

	portfolioReturns := weightedReturns(aligned, weights)

	return &reporting.Report{
		AsOfDate:         end,
		PredictionDate:   predictionDate(aligned, end),
		Predictions:      predictions,
		PredictedReturns: predictedReturns,
		Weights:          weights,
		RecentPrices:     recentPrices,
		Sharpe:           formulas.SharpeRatio(portfolioReturns, 0, tradingDaysPerYear),
		MaxDrawdown:      formulas.MaxDrawdown(formulas.WealthCurve(portfolioReturns)),
	}, nil
}

// weightedReturns collapses the aligned per-ticker return series into one
// historical portfolio return series under the solved weights. Tickers the
// optimizer never saw contribute nothing.
func weightedReturns(dataset domain.Dataset, weights map[string]float64) []float64 {
	n := 0
	for _, series := range dataset {
		n = len(series)
		break
	}
	if n == 0 {
		return nil
	}

	portfolio := make([]float64, n)
	for ticker, series := range dataset {
		w, ok := weights[ticker]
		if !ok {
			continue
		}
		for i, point := range series {
			portfolio[i] += w * point.Return
		}
	}
	return portfolio
}

// predictionDate is one calendar day after the last aligned date, falling
// back to the day after the window end when the intersection was empty.
func predictionDate(dataset domain.Dataset, end time.Time) time.Time {
	for _, series := range dataset {
		if last, ok := series.Last(); ok {
			return last.Date.AddDate(0, 0, 1)
		}
	}
	return end.AddDate(0, 0, 1)
}
