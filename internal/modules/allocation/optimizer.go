package allocation

import (
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/optifolio/optifolio/internal/domain"
)

// Sentinel errors for allocation failures.
var (
	ErrNotConverged     = errors.New("optimization did not converge")
	ErrInfeasibleBounds = errors.New("infeasible allocation bounds")
	ErrEmptyDataset     = errors.New("dataset has no tickers")
)

const (
	// Budget constraint tolerance for the solved weights.
	sumTolerance = 1e-5

	maxIterations        = 10000
	projectionIterations = 200
	moveTolerance        = 1e-12
)

// Options configures the mean-variance optimization.
type Options struct {
	MinAllocation float64 // per-asset lower bound
	MaxAllocation float64 // per-asset upper bound
	RiskAversion  float64 // lambda in the mean-variance objective
	LookbackDays  int     // trailing rows used for mu and sigma
}

// DefaultOptions mirrors the production risk parameters.
func DefaultOptions() Options {
	return Options{
		MinAllocation: 0.01,
		MaxAllocation: 1.0,
		RiskAversion:  3.0,
		LookbackDays:  252,
	}
}

// Optimizer solves the bounded, fully-invested mean-variance problem.
type Optimizer struct {
	log zerolog.Logger
}

// NewOptimizer creates an optimizer.
func NewOptimizer(log zerolog.Logger) *Optimizer {
	return &Optimizer{log: log.With().Str("component", "allocation").Logger()}
}

// Optimize minimizes -(w'mu - 0.5*lambda*w'Sigma*w) subject to sum(w) = 1
// and MinAllocation <= w_i <= MaxAllocation, starting from uniform weights.
// The solve is projected gradient descent over the bounded simplex: every
// iterate is re-projected onto the constraint set, so the bounds and the
// budget hold at the returned point by construction rather than through a
// penalty. The objective is convex (Sigma is a covariance matrix), so the
// method reaches the global optimum.
func (o *Optimizer) Optimize(dataset domain.Dataset, opts Options) (map[string]float64, error) {
	n := len(dataset)
	if n == 0 {
		return nil, ErrEmptyDataset
	}

	// Feasibility: min*n <= 1 <= max*n, otherwise no weight vector can both
	// respect the bounds and sum to one.
	if opts.MinAllocation*float64(n) > 1+sumTolerance || opts.MaxAllocation*float64(n) < 1-sumTolerance {
		return nil, fmt.Errorf("%w: n=%d min=%.4f max=%.4f", ErrInfeasibleBounds, n, opts.MinAllocation, opts.MaxAllocation)
	}

	tickers, mu, sigma := MeanVariance(dataset, opts.LookbackDays)

	lo, hi := opts.MinAllocation, opts.MaxAllocation
	lambda := opts.RiskAversion

	var w []float64
	if hi-lo < 1e-12 {
		// The box collapses to a single point; the feasibility check already
		// guaranteed the uniform vector is it.
		w = uniform(n)
	} else {
		w = minimize(mu, sigma, lambda, lo, hi)
	}

	if sum := floats.Sum(w); math.Abs(sum-1) > sumTolerance {
		return nil, fmt.Errorf("%w: weights sum to %.8f", ErrNotConverged, sum)
	}

	allocation := make(map[string]float64, n)
	for i, ticker := range tickers {
		allocation[ticker] = w[i]
	}

	o.log.Info().
		Int("assets", n).
		Float64("risk_aversion", lambda).
		Msg("Portfolio optimization converged")

	return allocation, nil
}

// minimize runs projected gradient descent with backtracking on the
// mean-variance objective. The step shrinks until the standard sufficient
// decrease condition holds, then the iterate is accepted; iteration stops
// when the projected step no longer moves the weights.
func minimize(mu []float64, sigma *mat.SymDense, lambda, lo, hi float64) []float64 {
	n := len(mu)

	objective := func(w []float64) float64 {
		wVec := mat.NewVecDense(n, w)
		var sw mat.VecDense
		sw.MulVec(sigma, wVec)
		return -(floats.Dot(w, mu) - 0.5*lambda*mat.Dot(wVec, &sw))
	}
	gradient := func(w []float64) []float64 {
		wVec := mat.NewVecDense(n, w)
		var sw mat.VecDense
		sw.MulVec(sigma, wVec)
		g := make([]float64, n)
		for i := range g {
			g[i] = -(mu[i] - lambda*sw.AtVec(i))
		}
		return g
	}

	w := projectBounded(uniform(n), lo, hi)

	step := 1.0
	for iter := 0; iter < maxIterations; iter++ {
		g := gradient(w)
		fw := objective(w)

		var next []float64
		for {
			trial := make([]float64, n)
			for i := range trial {
				trial[i] = w[i] - step*g[i]
			}
			trial = projectBounded(trial, lo, hi)

			diff := make([]float64, n)
			floats.SubTo(diff, trial, w)

			bound := fw + floats.Dot(g, diff) + floats.Dot(diff, diff)/(2*step)
			if objective(trial) <= bound+1e-18 || step < 1e-14 {
				next = trial
				break
			}
			step *= 0.5
		}

		moved := 0.0
		for i := range w {
			moved = math.Max(moved, math.Abs(next[i]-w[i]))
		}
		w = next
		if moved < moveTolerance {
			break
		}

		step = math.Min(step*2, 1.0)
	}

	return w
}

// projectBounded maps v onto {w : sum(w) = 1, lo <= w_i <= hi} by bisecting
// the shift tau in clip(v - tau, lo, hi). The clipped sum is monotone
// non-increasing in tau and the feasibility precheck brackets the budget, so
// the bisection always closes in on it.
func projectBounded(v []float64, lo, hi float64) []float64 {
	tauLo := floats.Min(v) - hi // everything clips to hi: sum >= 1
	tauHi := floats.Max(v) - lo // everything clips to lo: sum <= 1

	w := make([]float64, len(v))
	for iter := 0; iter < projectionIterations; iter++ {
		tau := (tauLo + tauHi) / 2
		sum := 0.0
		for i, vi := range v {
			w[i] = math.Min(math.Max(vi-tau, lo), hi)
			sum += w[i]
		}

		switch {
		case math.Abs(sum-1) <= 1e-12:
			return w
		case sum > 1:
			tauLo = tau
		default:
			tauHi = tau
		}
	}
	return w
}

func uniform(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 1 / float64(n)
	}
	return w
}
