package allocation

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/optifolio/optifolio/internal/domain"
	"github.com/optifolio/optifolio/pkg/logger"
)

// syntheticSeries builds a series whose return column cycles through the
// given values.
func syntheticSeries(n int, returns ...float64) domain.Series {
	s := make(domain.Series, 0, n)
	price := 100.0
	for i := 0; i < n; i++ {
		r := returns[i%len(returns)]
		price *= 1 + r
		s = append(s, domain.Point{
			Date:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
			Price:  price,
			Return: r,
		})
	}
	return s
}

func TestOptimize_WeightsSumToOneWithinBounds(t *testing.T) {
	log := logger.New(logger.Config{Level: "error", Pretty: false})
	opt := NewOptimizer(log)

	dataset := domain.Dataset{
		"AAA": syntheticSeries(300, 0.001, 0.004, -0.002),
		"BBB": syntheticSeries(300, 0.002, -0.001, 0.003),
		"CCC": syntheticSeries(300, -0.001, 0.002, 0.001),
	}

	opts := Options{MinAllocation: 0.05, MaxAllocation: 0.9, RiskAversion: 3, LookbackDays: 252}
	weights, err := opt.Optimize(dataset, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sum := 0.0
	for ticker, w := range weights {
		if w < opts.MinAllocation-1e-9 || w > opts.MaxAllocation+1e-9 {
			t.Errorf("%s: weight %.6f outside [%.2f, %.2f]", ticker, w, opts.MinAllocation, opts.MaxAllocation)
		}
		sum += w
	}
	if math.Abs(sum-1) > 1e-5 {
		t.Errorf("weights sum to %.8f, want 1.0 within 1e-5", sum)
	}
}

func TestOptimize_TwoAssetsMinTenPercent(t *testing.T) {
	log := logger.New(logger.Config{Level: "error", Pretty: false})
	opt := NewOptimizer(log)

	dataset := domain.Dataset{
		"AAA": syntheticSeries(100, 0.003, -0.001),
		"BBB": syntheticSeries(100, -0.002, 0.001),
	}

	weights, err := opt.Optimize(dataset, Options{
		MinAllocation: 0.1,
		MaxAllocation: 1.0,
		RiskAversion:  3,
		LookbackDays:  252,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sum := 0.0
	for ticker, w := range weights {
		if w < 0.1-1e-9 {
			t.Errorf("%s: weight %.6f below minimum 0.1", ticker, w)
		}
		sum += w
	}
	if math.Abs(sum-1) > 1e-5 {
		t.Errorf("pair sums to %.8f, want 1.0", sum)
	}
}

func TestOptimize_ProductionDefaults(t *testing.T) {
	log := logger.New(logger.Config{Level: "error", Pretty: false})
	opt := NewOptimizer(log)

	// Six tickers under the default configuration (min 0.01, max 1.0,
	// risk aversion 3, lookback 252)
	dataset := domain.Dataset{
		"AMD":  syntheticSeries(300, 0.004, -0.002, 0.003),
		"MSFT": syntheticSeries(300, 0.001, 0.002, -0.001),
		"AAPL": syntheticSeries(300, 0.002, -0.001, 0.001),
		"TSLA": syntheticSeries(300, -0.003, 0.005, -0.001),
		"AMZN": syntheticSeries(300, 0.001, -0.002, 0.002),
		"NVDA": syntheticSeries(300, 0.005, 0.001, 0.002),
	}

	opts := DefaultOptions()
	weights, err := opt.Optimize(dataset, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(weights) != 6 {
		t.Fatalf("expected 6 weights, got %d", len(weights))
	}

	sum := 0.0
	for ticker, w := range weights {
		if w < opts.MinAllocation-1e-9 || w > opts.MaxAllocation+1e-9 {
			t.Errorf("%s: weight %.6f outside [%.2f, %.2f]", ticker, w, opts.MinAllocation, opts.MaxAllocation)
		}
		sum += w
	}
	if math.Abs(sum-1) > 1e-5 {
		t.Errorf("weights sum to %.8f, want 1.0 within 1e-5", sum)
	}

	// NVDA has the clearly highest mean return, TSLA the lowest
	if weights["NVDA"] <= weights["TSLA"] {
		t.Errorf("expected NVDA (w=%.4f) to outweigh TSLA (w=%.4f)", weights["NVDA"], weights["TSLA"])
	}
}

func TestOptimize_EqualBoundsYieldUniformWeights(t *testing.T) {
	log := logger.New(logger.Config{Level: "error", Pretty: false})
	opt := NewOptimizer(log)

	dataset := domain.Dataset{
		"AAA": syntheticSeries(100, 0.003, -0.001),
		"BBB": syntheticSeries(100, -0.002, 0.001),
	}

	// min == max == 0.5 leaves exactly one feasible point
	weights, err := opt.Optimize(dataset, Options{
		MinAllocation: 0.5,
		MaxAllocation: 0.5,
		RiskAversion:  3,
		LookbackDays:  252,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for ticker, w := range weights {
		if math.Abs(w-0.5) > 1e-12 {
			t.Errorf("%s: weight %.6f, want exactly 0.5", ticker, w)
		}
	}
}

func TestOptimize_InfeasibleBounds(t *testing.T) {
	log := logger.New(logger.Config{Level: "error", Pretty: false})
	opt := NewOptimizer(log)

	dataset := domain.Dataset{
		"AAA": syntheticSeries(50, 0.001),
		"BBB": syntheticSeries(50, 0.002),
	}

	// 2 assets capped at 0.4 each can never sum to 1
	_, err := opt.Optimize(dataset, Options{MinAllocation: 0.1, MaxAllocation: 0.4, RiskAversion: 3, LookbackDays: 252})
	if !errors.Is(err, ErrInfeasibleBounds) {
		t.Fatalf("expected ErrInfeasibleBounds, got %v", err)
	}

	// minimum 0.6 each needs at least 1.2 total
	_, err = opt.Optimize(dataset, Options{MinAllocation: 0.6, MaxAllocation: 1.0, RiskAversion: 3, LookbackDays: 252})
	if !errors.Is(err, ErrInfeasibleBounds) {
		t.Fatalf("expected ErrInfeasibleBounds, got %v", err)
	}
}

func TestOptimize_EmptyDataset(t *testing.T) {
	log := logger.New(logger.Config{Level: "error", Pretty: false})
	opt := NewOptimizer(log)

	_, err := opt.Optimize(domain.Dataset{}, DefaultOptions())
	if !errors.Is(err, ErrEmptyDataset) {
		t.Fatalf("expected ErrEmptyDataset, got %v", err)
	}
}

func TestOptimize_HigherMeanGetsMoreWeight(t *testing.T) {
	log := logger.New(logger.Config{Level: "error", Pretty: false})
	opt := NewOptimizer(log)

	// Same variance profile, clearly different means
	dataset := domain.Dataset{
		"HIGH": syntheticSeries(200, 0.005, 0.003),
		"LOW":  syntheticSeries(200, -0.004, -0.002),
	}

	weights, err := opt.Optimize(dataset, Options{MinAllocation: 0.05, MaxAllocation: 0.95, RiskAversion: 1, LookbackDays: 252})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if weights["HIGH"] <= weights["LOW"] {
		t.Errorf("expected HIGH (w=%.4f) to outweigh LOW (w=%.4f)", weights["HIGH"], weights["LOW"])
	}
}

func TestMeanVariance_LookbackRestriction(t *testing.T) {
	// Returns flip from 0.01 to 0.03 halfway; a lookback covering only the
	// second half must report the second-half mean
	s := make(domain.Series, 0, 100)
	for i := 0; i < 100; i++ {
		r := 0.01
		if i >= 50 {
			r = 0.03
		}
		s = append(s, domain.Point{
			Date:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
			Price:  100,
			Return: r,
		})
	}
	dataset := domain.Dataset{"AAA": s}

	_, mu, _ := MeanVariance(dataset, 50)
	if math.Abs(mu[0]-0.03) > 1e-12 {
		t.Errorf("lookback mean = %.6f, want 0.03", mu[0])
	}

	_, muFull, _ := MeanVariance(dataset, 1000)
	if math.Abs(muFull[0]-0.02) > 1e-12 {
		t.Errorf("full mean = %.6f, want 0.02", muFull[0])
	}
}

func TestMeanVariance_TickerOrderIsStable(t *testing.T) {
	dataset := domain.Dataset{
		"ZZZ": syntheticSeries(10, 0.01),
		"AAA": syntheticSeries(10, 0.02),
	}

	tickers, mu, sigma := MeanVariance(dataset, 252)
	if tickers[0] != "AAA" || tickers[1] != "ZZZ" {
		t.Fatalf("expected alphabetical ticker order, got %v", tickers)
	}
	if mu[0] < mu[1] {
		t.Errorf("mu rows do not follow ticker order: %v", mu)
	}
	if r, c := sigma.Dims(); r != 2 || c != 2 {
		t.Errorf("sigma dims = %dx%d, want 2x2", r, c)
	}
}
