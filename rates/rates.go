// Package rates supplies the per-quarter short rate the path engine uses
// to accrue loan interest: either a constant assumption or a historical
// monthly series indexed by quarter.
package rates

import "gonum.org/v1/gonum/stat"

// Source is a per-quarter short-rate series. Index maps a quarter t >= 1
// to the preceding monthly rate via QuarterIndex.
type Source interface {
	// Rate returns the rate at the given series index (already converted
	// from a quarter via QuarterIndex).
	Rate(index int) float64
	// Geometric is r̄, the geometric mean of the per-period rates used to
	// discount the initial reinvestment account. For a constant source
	// this is just the constant.
	Geometric() float64
	// Len reports how many monthly entries back this source, or -1 for a
	// constant source (unbounded).
	Len() int
}

// QuarterIndex converts an engine quarter t (t >= 1) into the rate-series
// index that precedes it, given the price path's dt. For Monte Carlo
// dt=1/120 this is k = 30t - 1; for historical monthly dt=1/12 it is
// k = 3t - 1.
func QuarterIndex(t int, dt float64) int {
	return int(float64(t)/(dt*4)) - 1
}

// constantSource is a flat short-rate assumption applied to every quarter.
type constantSource struct {
	r float64
}

// Constant builds a Source that returns r for every quarter.
func Constant(r float64) Source {
	return constantSource{r: r}
}

func (c constantSource) Rate(int) float64   { return c.r }
func (c constantSource) Geometric() float64 { return c.r }
func (c constantSource) Len() int           { return -1 }

// monthlySource is a historical monthly rate series, long enough to cover
// the run's horizon.
type monthlySource struct {
	series []float64
	geo    float64
}

// NewMonthly builds a Source backed by a monthly rate series. The
// geometric mean over the whole series is precomputed once since it is
// used repeatedly to discount the initial reinvestment account.
func NewMonthly(series []float64) Source {
	weights := make([]float64, len(series))
	for i := range weights {
		weights[i] = 1
	}
	ratios := make([]float64, len(series))
	for i, r := range series {
		ratios[i] = 1 + r
	}
	geo := stat.GeometricMean(ratios, weights) - 1
	return monthlySource{series: series, geo: geo}
}

func (m monthlySource) Rate(index int) float64 {
	return m.series[index]
}

func (m monthlySource) Geometric() float64 { return m.geo }
func (m monthlySource) Len() int           { return len(m.series) }
