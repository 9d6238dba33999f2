package forecasting

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/optifolio/optifolio/internal/domain"
)

// Predictor produces a next-day point estimate from a price series.
type Predictor interface {
	PredictNext(series domain.Series) (float64, error)
}

// Service runs next-day forecasts independently per ticker. There is no
// cross-ticker joint model.
type Service struct {
	model Predictor
	log   zerolog.Logger
}

// NewService creates a forecasting service around the given model.
func NewService(model Predictor, log zerolog.Logger) *Service {
	return &Service{
		model: model,
		log:   log.With().Str("component", "forecasting").Logger(),
	}
}

// PredictAll forecasts next-day prices for every ticker in the dataset and
// derives the predicted return from the last actual price. Unlike extraction,
// failures here are not isolated per ticker: the first fit or predict error
// aborts the whole pass.
func (s *Service) PredictAll(dataset domain.Dataset) (map[string]float64, map[string]float64, error) {
	predictions := make(map[string]float64, len(dataset))
	predictedReturns := make(map[string]float64, len(dataset))

	for _, ticker := range dataset.Tickers() {
		series := dataset[ticker]

		last, ok := series.Last()
		if !ok {
			return nil, nil, fmt.Errorf("ticker %s has an empty series", ticker)
		}

		predicted, err := s.model.PredictNext(series)
		if err != nil {
			return nil, nil, fmt.Errorf("forecast failed for %s: %w", ticker, err)
		}

		predictions[ticker] = predicted
		predictedReturns[ticker] = (predicted - last.Price) / last.Price

		s.log.Info().
			Str("ticker", ticker).
			Float64("current_price", last.Price).
			Float64("predicted_price", predicted).
			Float64("predicted_return", predictedReturns[ticker]).
			Msg("Forecast complete")
	}

	return predictions, predictedReturns, nil
}
