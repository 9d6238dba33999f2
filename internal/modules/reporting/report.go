package reporting

import (
	"sort"
	"time"

	"github.com/rs/zerolog"
)

// Report is the structured outcome of one pipeline run.
type Report struct {
	AsOfDate         time.Time
	PredictionDate   time.Time
	Predictions      map[string]float64 // ticker -> predicted next-day price
	PredictedReturns map[string]float64 // ticker -> predicted fractional return
	Weights          map[string]float64 // ticker -> portfolio weight
	RecentPrices     map[string][]float64
	Sharpe           float64 // annualized, on the historical weighted portfolio
	MaxDrawdown      float64 // positive fraction, on the historical wealth curve
}

// Tickers returns the report's tickers in sorted order.
func (r *Report) Tickers() []string {
	tickers := make([]string, 0, len(r.Predictions))
	for t := range r.Predictions {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)
	return tickers
}

// Log renders the human-readable run summary.
func (r *Report) Log(log zerolog.Logger) {
	log.Info().
		Str("as_of", r.AsOfDate.Format("2006-01-02")).
		Str("prediction_date", r.PredictionDate.Format("2006-01-02")).
		Float64("sharpe", r.Sharpe).
		Float64("max_drawdown_pct", r.MaxDrawdown*100).
		Msg("Portfolio optimization results")

	for _, ticker := range r.Tickers() {
		log.Info().
			Str("ticker", ticker).
			Float64("predicted_price", r.Predictions[ticker]).
			Float64("predicted_return_pct", r.PredictedReturns[ticker]*100).
			Float64("weight_pct", r.Weights[ticker]*100).
			Msg("Allocation")
	}
}
