package formulas

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// SharpeRatio returns the annualized Sharpe ratio of a periodic return
// series. riskFreeRate is annual and periodsPerYear is 252 for daily data.
// A series that is too short or has zero variance yields 0.
func SharpeRatio(returns []float64, riskFreeRate float64, periodsPerYear int) float64 {
	if len(returns) < 2 {
		return 0
	}

	sd := stat.StdDev(returns, nil)
	if sd == 0 {
		return 0
	}

	excess := Mean(returns) - riskFreeRate/float64(periodsPerYear)
	return excess / sd * math.Sqrt(float64(periodsPerYear))
}

// MaxDrawdown returns the largest peak-to-trough loss of a price or wealth
// series as a positive fraction (0.25 means a 25% loss from the peak).
func MaxDrawdown(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}

	maxDD := 0.0
	peak := values[0]
	for _, v := range values {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			if dd := (peak - v) / peak; dd > maxDD {
				maxDD = dd
			}
		}
	}

	return maxDD
}

// WealthCurve compounds a return series into a wealth index starting at 1.
func WealthCurve(returns []float64) []float64 {
	curve := make([]float64, len(returns)+1)
	curve[0] = 1
	for i, r := range returns {
		curve[i+1] = curve[i] * (1 + r)
	}
	return curve
}
