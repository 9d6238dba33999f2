package augmentation

import (
	"fmt"

	"github.com/optifolio/optifolio/internal/domain"
)

// ErrMissingForecast is returned when a ticker in the dataset has no entry in
// one of the forecast maps.
var ErrMissingForecast = fmt.Errorf("missing forecast for ticker")

// AppendForecasts returns a new dataset where each series carries one extra
// row dated one calendar day after its last historical date, holding the
// forecast price and return. Input series are never mutated.
func AppendForecasts(
	dataset domain.Dataset,
	predictions map[string]float64,
	predictedReturns map[string]float64,
) (domain.Dataset, error) {
	augmented := make(domain.Dataset, len(dataset))

	for ticker, series := range dataset {
		price, ok := predictions[ticker]
		if !ok {
			return nil, fmt.Errorf("%w: %s (price)", ErrMissingForecast, ticker)
		}
		ret, ok := predictedReturns[ticker]
		if !ok {
			return nil, fmt.Errorf("%w: %s (return)", ErrMissingForecast, ticker)
		}

		last, ok := series.Last()
		if !ok {
			return nil, fmt.Errorf("ticker %s has an empty series", ticker)
		}

		out := series.Clone()
		out = append(out, domain.Point{
			Date:   last.Date.AddDate(0, 0, 1), // next calendar day, not next trading day
			Price:  price,
			Return: ret,
		})
		augmented[ticker] = out
	}

	return augmented, nil
}

// RecentPrices collects each ticker's actual prices over the trailing window
// of the given number of calendar days, inclusive of the cutoff, ordered by
// date.
func RecentPrices(dataset domain.Dataset, days int) map[string][]float64 {
	recent := make(map[string][]float64, len(dataset))

	for ticker, series := range dataset {
		if len(series) == 0 {
			recent[ticker] = []float64{}
			continue
		}

		last, _ := series.Last()
		cutoff := last.Date.AddDate(0, 0, -days)

		var prices []float64
		for _, p := range series {
			if p.Date.Before(cutoff) {
				continue
			}
			prices = append(prices, p.Price)
		}
		recent[ticker] = prices
	}

	return recent
}
