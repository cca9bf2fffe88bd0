package numeric

import "sort"

// Bound is an inclusive box constraint on one dimension of the simplex.
type Bound struct {
	Lo, Hi float64
}

func (b Bound) clamp(x float64) float64 {
	if x < b.Lo {
		return b.Lo
	}
	if x > b.Hi {
		return b.Hi
	}
	return x
}

// NelderMeadConfig mirrors the knobs exposed by scipy's
// minimize(method='nelder-mead', bounds=...), restricted to what the
// parameter optimizer needs: a starting point, per-dimension bounds, and a
// function-evaluation budget.
type NelderMeadConfig struct {
	Start    []float64
	Bounds   []Bound
	MaxFev   int
	Reflect  float64 // alpha, default 1.0
	Expand   float64 // gamma, default 2.0
	Contract float64 // rho, default 0.5
	Shrink   float64 // sigma, default 0.5
}

// NelderMeadResult is the best point found, its objective value, and the
// number of function evaluations spent reaching it.
type NelderMeadResult struct {
	X     []float64
	FX    float64
	Evals int
	// Bounded is not set by NelderMead and is always false; every
	// candidate is clamped into Bounds before evaluation, so X always lies
	// within Bounds.
	Bounded bool
}

// InfeasibleError reports a Nelder-Mead search that exhausted its
// evaluation budget without satisfying the caller's feasibility predicate.
// It always carries the best point found so the caller can decide whether
// "close enough" is good enough.
type InfeasibleError struct {
	Best NelderMeadResult
}

func (e *InfeasibleError) Error() string {
	return "nelder-mead: exhausted evaluation budget without a feasible point"
}

type vertex struct {
	x []float64
	f float64
}

func defaults(cfg *NelderMeadConfig) {
	if cfg.Reflect == 0 {
		cfg.Reflect = 1.0
	}
	if cfg.Expand == 0 {
		cfg.Expand = 2.0
	}
	if cfg.Contract == 0 {
		cfg.Contract = 0.5
	}
	if cfg.Shrink == 0 {
		cfg.Shrink = 0.5
	}
}

// NelderMead minimizes f over a box-bounded domain using the classic
// reflect/expand/contract/shrink simplex update rules, clamping every
// candidate vertex back into Bounds before evaluating it (the same
// strategy scipy's bounded Nelder-Mead uses). It stops after MaxFev
// function evaluations; there is no separate convergence tolerance because
// the insurance/ROI objective this wraps is cheap to re-run and the caller
// (the parameter optimizer) treats "ran out of budget" as a normal exit,
// not a failure, as long as feasible points returns true for the result.
func NelderMead(f func([]float64) float64, cfg NelderMeadConfig, feasible func([]float64, float64) bool) (NelderMeadResult, error) {
	defaults(&cfg)
	n := len(cfg.Start)
	evals := 0

	clampAll := func(x []float64) []float64 {
		out := make([]float64, n)
		for i, v := range x {
			out[i] = cfg.Bounds[i].clamp(v)
		}
		return out
	}

	eval := func(x []float64) vertex {
		cx := clampAll(x)
		evals++
		return vertex{x: cx, f: f(cx)}
	}

	simplex := make([]vertex, n+1)
	simplex[0] = eval(cfg.Start)
	for i := 0; i < n; i++ {
		step := 0.05 * (cfg.Bounds[i].Hi - cfg.Bounds[i].Lo)
		if step == 0 {
			step = 0.00025
		}
		x := append([]float64(nil), cfg.Start...)
		x[i] += step
		simplex[i+1] = eval(x)
	}

	sortSimplex := func() {
		sort.Slice(simplex, func(i, j int) bool { return simplex[i].f < simplex[j].f })
	}
	sortSimplex()

	centroid := func(excludeWorst bool) []float64 {
		c := make([]float64, n)
		m := n + 1
		if excludeWorst {
			m = n
		}
		for i := 0; i < m; i++ {
			for d := 0; d < n; d++ {
				c[d] += simplex[i].x[d]
			}
		}
		for d := range c {
			c[d] /= float64(m)
		}
		return c
	}

	combine := func(a, b []float64, scaleB float64) []float64 {
		out := make([]float64, n)
		for i := range out {
			out[i] = a[i] + scaleB*(a[i]-b[i])
		}
		return out
	}

	var last NelderMeadResult
	for evals < cfg.MaxFev {
		best, worst, second := simplex[0], simplex[n], simplex[n-1]
		cen := centroid(true)

		reflected := eval(combine(cen, worst.x, cfg.Reflect))
		switch {
		case reflected.f < best.f:
			expanded := eval(combine(cen, worst.x, cfg.Expand))
			if expanded.f < reflected.f {
				simplex[n] = expanded
			} else {
				simplex[n] = reflected
			}
		case reflected.f < second.f:
			simplex[n] = reflected
		default:
			var contracted vertex
			accept := false
			if reflected.f < worst.f {
				// Outside contraction: between the centroid and the reflected point.
				contracted = eval(combine(cen, worst.x, cfg.Reflect*cfg.Contract))
				accept = contracted.f <= reflected.f
			} else {
				// Inside contraction: between the centroid and the worst vertex.
				contracted = eval(combine(cen, worst.x, -cfg.Contract))
				accept = contracted.f < worst.f
			}
			if accept {
				simplex[n] = contracted
			} else {
				for i := 1; i <= n; i++ {
					shrunk := make([]float64, n)
					for d := 0; d < n; d++ {
						shrunk[d] = best.x[d] + cfg.Shrink*(simplex[i].x[d]-best.x[d])
					}
					simplex[i] = eval(shrunk)
					if evals >= cfg.MaxFev {
						break
					}
				}
			}
		}
		sortSimplex()
		last = NelderMeadResult{X: simplex[0].x, FX: simplex[0].f, Evals: evals}
	}

	if feasible != nil && !feasible(last.X, last.FX) {
		return last, &InfeasibleError{Best: last}
	}
	return last, nil
}
