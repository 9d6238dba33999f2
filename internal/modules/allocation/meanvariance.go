package allocation

import (
	"gonum.org/v1/gonum/mat"

	"github.com/optifolio/optifolio/internal/domain"
	"github.com/optifolio/optifolio/pkg/formulas"
)

// MeanVariance computes the sample mean vector and covariance matrix of the
// Returns columns, restricted to the trailing lookback rows per ticker. If
// the restriction leaves no usable series the full dataset is used instead.
// Tickers are ordered alphabetically and the returned slice fixes the row
// order of mu and sigma.
func MeanVariance(dataset domain.Dataset, lookback int) ([]string, []float64, *mat.SymDense) {
	filtered := make(domain.Dataset, len(dataset))
	for ticker, series := range dataset {
		tail := series.Tail(lookback)
		if len(tail) > 0 {
			filtered[ticker] = tail
		}
	}
	if len(filtered) == 0 {
		filtered = dataset
	}

	tickers := filtered.Tickers()
	n := len(tickers)

	returns := make([][]float64, n)
	for i, ticker := range tickers {
		returns[i] = filtered[ticker].Returns()
	}

	mu := make([]float64, n)
	for i := range tickers {
		mu[i] = formulas.Mean(returns[i])
	}

	sigma := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			sigma.SetSym(i, j, formulas.Covariance(returns[i], returns[j]))
		}
	}

	return tickers, mu, sigma
}
