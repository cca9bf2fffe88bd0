// Package scenario generates the equity-price paths the path engine
// consumes: either Monte Carlo geometric Brownian motion paths or a single
// historical path sampled from a provided price series.
package scenario

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
)

// MonteCarloDt is the per-step time increment used for Monte Carlo paths:
// 120 steps per year.
const MonteCarloDt = 1.0 / 120

// HistoricalDt is the per-step time increment of a historical monthly
// series: 12 steps per year.
const HistoricalDt = 1.0 / 12

// PricePath is one realized equity-price trajectory, sampled at a fixed
// Dt, together with the path identifier the engine tags every emitted row
// with.
type PricePath struct {
	ID     int
	Prices []float64
	Dt     float64
}

// MCParams are the assumptions behind a Monte Carlo GBM scenario set.
type MCParams struct {
	Horizon    float64 // years
	Return     float64 // annualized drift, mu
	Volatility float64 // annualized sigma
	Paths      int
	S0         float64
}

// GenerateMonteCarlo draws Paths independent GBM trajectories over
// [0, Horizon] at MonteCarloDt resolution. Paths are generated one at a
// time, each path's full draw sequence completing before the next path
// starts, so fixing rng's seed makes the whole batch bit-reproducible
// regardless of how the caller later parallelizes the path engine over the
// returned slice.
func GenerateMonteCarlo(p MCParams, rng *rand.Rand) []PricePath {
	n := int(math.Round(p.Horizon / MonteCarloDt))
	paths := make([]PricePath, p.Paths)

	for pathIdx := 0; pathIdx < p.Paths; pathIdx++ {
		prices := make([]float64, n)
		cumNormal := 0.0
		for i := 0; i < n; i++ {
			z := rng.NormFloat64()
			cumNormal += z
			t := float64(i) * p.Horizon / float64(n-1)
			w := cumNormal * math.Sqrt(MonteCarloDt)
			x := (p.Return-0.5*p.Volatility*p.Volatility)*t + p.Volatility*w
			prices[i] = p.S0 * math.Exp(x)
		}
		paths[pathIdx] = PricePath{ID: pathIdx, Prices: prices, Dt: MonteCarloDt}
	}
	return paths
}

// FromHistorical builds the single historical path of length 12*years
// starting at offset within prices, at HistoricalDt resolution.
func FromHistorical(prices []float64, offset, years int) (PricePath, error) {
	need := 12 * years
	if offset < 0 || offset+need > len(prices) {
		return PricePath{}, fmt.Errorf("scenario: historical series has %d points, need %d starting at offset %d", len(prices), need, offset)
	}
	window := make([]float64, need)
	copy(window, prices[offset:offset+need])
	return PricePath{ID: 0, Prices: window, Dt: HistoricalDt}, nil
}
