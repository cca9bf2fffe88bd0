// Package insurance wraps the path engine and aggregator in a univariate
// root-finder: it searches for the insurance premium I such that the
// expected insurer payout equals I, spec.md §4.5.
package insurance

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"equityrelease/aggregate"
	"equityrelease/engine"
	"equityrelease/internal/numeric"
	"equityrelease/internal/runid"
	"equityrelease/rates"
	"equityrelease/scenario"
)

// ErrSecantNoConverge is spec.md's SECANT_NO_CONVERGE error kind: the
// secant search exhausted its iteration cap with the residual still above
// tolerance.
var ErrSecantNoConverge = errors.New("insurance: secant search did not converge")

// DefaultBracket and OptimizerBracket are the two secant starting brackets
// spec.md §4.5 names: the first for a standalone insurance solve, the
// second for solves nested inside the parameter optimizer (which re-runs
// the solver at every Nelder-Mead evaluation and benefits from starting
// closer to the typical fair premium for that search space).
var (
	DefaultBracket   = [2]float64{10000, 50000}
	OptimizerBracket = [2]float64{50000, 100000}
)

// Config is one insurance-solver invocation: the paths/rates/parameters to
// run the engine under, the repayment and at-risk-capital terms that close
// out the payout formula, and the secant tuning.
type Config struct {
	Ctx    context.Context
	Paths  []scenario.PricePath
	Rates  rates.Source
	Params engine.Parameters

	Repayment     float64 // C
	AtRiskCapital float64 // ARC

	Bracket   [2]float64
	Tolerance float64 // typical 250-1000

	Logger *logrus.Logger
}

// Result is the solved premium plus the engine/aggregate outputs produced
// at that premium, so a caller doesn't need to re-run the engine to see
// the path that converged.
type Result struct {
	Premium    float64
	Residual   float64
	Iterations int
	Results    []engine.Result
}

// Solve searches for the insurance premium I such that
// E[max(L0 + D_T - R_T - C - ARC, 0)] - I == 0, via the secant method.
func Solve(cfg Config) (Result, error) {
	if cfg.Ctx == nil {
		cfg.Ctx = context.Background()
	}
	if cfg.Bracket == ([2]float64{}) {
		cfg.Bracket = DefaultBracket
	}

	run := runid.New()
	var last []engine.Result

	evaluate := func(insuranceCost float64) float64 {
		p := cfg.Params
		p.InsuranceCost = insuranceCost
		results, err := engine.RunAll(cfg.Ctx, cfg.Paths, cfg.Rates, p)
		if err != nil {
			// Propagated as a panic so the secant loop (which has no error
			// return of its own) unwinds cleanly; Solve recovers it below.
			panic(err)
		}
		last = results
		payouts := aggregate.InsurancePayout(results, p.TotalLoan, cfg.Repayment, cfg.AtRiskCapital)
		payout := aggregate.Mean(payouts)
		if cfg.Logger != nil {
			cfg.Logger.WithFields(logrus.Fields{
				"run":            run,
				"insurance_cost": insuranceCost,
				"expected_payout": payout,
			}).Debug("insurance: evaluated premium")
		}
		return payout - insuranceCost
	}

	var res numeric.SecantResult
	var solveErr error
	func() {
		defer func() {
			if r := recover(); r != nil {
				if err, ok := r.(error); ok {
					solveErr = err
					return
				}
				solveErr = fmt.Errorf("insurance: %v", r)
			}
		}()
		res, solveErr = numeric.Secant(evaluate, cfg.Bracket[0], cfg.Bracket[1], cfg.Tolerance)
	}()
	if solveErr != nil {
		var nc *numeric.NoConvergeError
		if errors.As(solveErr, &nc) {
			return Result{Premium: res.X, Residual: res.FX, Iterations: res.Iterations, Results: last},
				fmt.Errorf("%w: %v", ErrSecantNoConverge, nc)
		}
		return Result{}, solveErr
	}

	if cfg.Logger != nil {
		cfg.Logger.WithFields(logrus.Fields{
			"run":        run,
			"premium":    res.X,
			"iterations": res.Iterations,
		}).Info("insurance: solved")
	}

	return Result{Premium: res.X, Residual: res.FX, Iterations: res.Iterations, Results: last}, nil
}

// SolveWithPooling implements spec.md §4.5's optional pooling two-pass
// protocol: an unpooled pass establishes the mean reinvestment curve E_t
// (normalized to a ratio of the unpooled run's initial reinvestment, so it
// can be rescaled against a different InsuranceCost on the pooled pass)
// and the expected surviving unit count, then a second, independently
// solved pooled pass consumes both.
func SolveWithPooling(cfg Config) (Result, error) {
	unpooled := cfg.Params
	unpooled.EnablePool = false
	unpooledCfg := cfg
	unpooledCfg.Params = unpooled

	first, err := Solve(unpooledCfg)
	if err != nil {
		return Result{}, fmt.Errorf("insurance: unpooled pass: %w", err)
	}

	means := aggregate.Means(first.Results)
	firstParams := unpooled
	firstParams.InsuranceCost = first.Premium
	avgCashRate := cfg.Rates.Geometric()
	r0 := firstParams.TotalLoan*firstParams.ReinvestFraction -
		firstParams.InsuranceProfitMargin*firstParams.InsuranceCost/math.Pow(1+avgCashRate, firstParams.Horizon)

	ratio := make([]float64, len(means))
	for i, m := range means {
		if r0 != 0 {
			ratio[i] = m.Reinvestment / r0
		}
	}

	pooled := cfg.Params
	pooled.EnablePool = true
	pooled.InsuredUnits = meanEndOfTermUnits(first.Results)
	pooled.ExpectedReinvestmentRatio = ratio

	pooledCfg := cfg
	pooledCfg.Params = pooled
	return Solve(pooledCfg)
}

// meanEndOfTermUnits is insured_units (pyrainy.py's get_pool_parameters,
// final_units): the mean holdings across paths at period 4T only. Holdings
// decay through the run as interest is paid, so averaging Units across
// every period instead of just the last would overstate what survives to
// term.
func meanEndOfTermUnits(results []engine.Result) float64 {
	endOfTerm := aggregate.EndOfTerm(results)
	sum := 0.0
	for _, row := range endOfTerm {
		sum += row.Units
	}
	return sum / float64(len(endOfTerm))
}
