// Package optimize wraps the insurance solver in a bounded Nelder-Mead
// search over product levers (holiday thresholds, super-pay parameters,
// annuity amount) subject to penalty constraints on ROI, holiday
// frequency, and premium, spec.md §4.6.
package optimize

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"equityrelease/aggregate"
	"equityrelease/engine"
	"equityrelease/insurance"
	"equityrelease/internal/numeric"
	"equityrelease/internal/runid"
	"equityrelease/rates"
	"equityrelease/scenario"
)

// ErrInfeasible is spec.md's OPTIMIZER_INFEASIBLE error kind: Nelder-Mead
// exhausted its evaluation budget without a point satisfying every
// penalty; the best-so-far point is still returned to the caller.
var ErrInfeasible = errors.New("optimize: no feasible point found")

// Goal selects which of the five objective terms the search maximizes or
// minimizes, spec.md §4.6.
type Goal int

const (
	MaximizeFunderROI Goal = iota
	MaximizeAnnualIncome
	MaximizeReinvestment
	MinimizeDeficit
	MinimizeHolidayRate
)

// sentinelPenalty is returned from the objective whenever the inner
// engine/insurance stack fails for any reason, matching the Python
// optimizer's `except ValueError: return 1000`.
const sentinelPenalty = 1000.0

// Constraints are the three penalty thresholds spec.md §4.6 scales
// violations against.
type Constraints struct {
	ROILowerLimit      float64
	HolidayUpperLimit  float64
	PremiumUpperLimit  float64 // insurance_pa upper limit, premium / (L0 * T)
}

// Config is one parameter-optimizer run.
type Config struct {
	Ctx   context.Context
	Paths []scenario.PricePath
	Rates rates.Source

	Base          engine.Parameters // everything except the 5 levers being searched
	Repayment     func(annualIncome float64) float64
	AtRiskCapital float64

	Bounds      [5]numeric.Bound // (h_in, h_out-h_in, sigma_m, sigma_s, A)
	Start       [5]float64
	MaxFunEvals int

	Goal        Goal
	Constraints Constraints

	Logger *logrus.Logger
}

// Result is the best lever vector found and its resolved premium/ROI/holiday
// statistics. Whether the search ended feasible is reported by Run's error
// (ErrInfeasible).
type Result struct {
	Levers     [5]float64
	Premium    float64
	ROI        float64
	HolidayPct float64
	Objective  float64
	Evals      int
}

// Run minimizes penalty(x) - omega*goal(x) over the 5-vector
// x = (h_in, h_out-h_in, sigma_m, sigma_s, A).
func Run(cfg Config) (Result, error) {
	if cfg.Ctx == nil {
		cfg.Ctx = context.Background()
	}

	run := runid.New()

	var best struct {
		set                          bool
		fx, premium, roi, holidayPct float64
	}

	objective := func(x []float64) (out float64) {
		defer func() {
			if r := recover(); r != nil {
				if cfg.Logger != nil {
					cfg.Logger.WithFields(logrus.Fields{"run": run, "panic": r}).Warn("optimize: objective panicked, using sentinel")
				}
				out = sentinelPenalty
			}
		}()

		hIn, hOutDelta, sigmaM, sigmaS, annualIncome := x[0], x[1], x[2], x[3], x[4]
		hOut := hIn + hOutDelta

		p := cfg.Base
		p.HolidayEnterFraction = hIn
		p.HolidayExitFraction = hOut
		p.MaxSuperpayFactor = sigmaM
		p.SuperpayStartFactor = sigmaS
		p.AnnualIncome = annualIncome
		p.ReinvestFraction = 1 - (p.AnnuityDuration*annualIncome)/p.TotalLoan

		repayment := 0.0
		if cfg.Repayment != nil {
			repayment = cfg.Repayment(annualIncome)
		}

		solved, err := insurance.Solve(insurance.Config{
			Ctx:           cfg.Ctx,
			Paths:         cfg.Paths,
			Rates:         cfg.Rates,
			Params:        p,
			Repayment:     repayment,
			AtRiskCapital: cfg.AtRiskCapital,
			Bracket:       insurance.OptimizerBracket,
			Tolerance:     1000,
			Logger:        cfg.Logger,
		})
		if err != nil {
			return sentinelPenalty
		}

		endOfTerm := aggregate.EndOfTerm(solved.Results)
		lenderShares := make([]float64, len(endOfTerm))
		for i, row := range endOfTerm {
			profit := row.Reinvestment - p.TotalLoan - row.InterestDeficit
			if profit < 0 {
				profit = 0
			}
			lenderShares[i] = engine.LenderProfitShare * profit
		}
		funderEarned := make([]float64, len(endOfTerm))
		interestDeficit := make([]float64, len(endOfTerm))
		for i, row := range endOfTerm {
			funderEarned[i] = row.FunderEarned
			interestDeficit[i] = row.InterestDeficit
		}
		roi := (aggregate.Mean(funderEarned) + aggregate.Mean(lenderShares) + aggregate.Mean(interestDeficit)) / p.TotalLoan

		holidayPct := aggregate.Mean(holidayRatePerPath(solved.Results))
		insurancePA := solved.Premium / p.TotalLoan / p.Horizon

		penalty := 0.0
		if roi < cfg.Constraints.ROILowerLimit {
			penalty += (cfg.Constraints.ROILowerLimit - roi) / 10
		}
		if holidayPct > cfg.Constraints.HolidayUpperLimit {
			penalty += (holidayPct - cfg.Constraints.HolidayUpperLimit) * 10
		}
		if insurancePA > cfg.Constraints.PremiumUpperLimit {
			penalty += (insurancePA - cfg.Constraints.PremiumUpperLimit) * 100
		}
		penalty *= 1000

		value := objectiveValue(cfg.Goal, penalty, roi, annualIncome, endOfTerm, holidayPct, p.TotalLoan)

		if cfg.Logger != nil {
			cfg.Logger.WithFields(logrus.Fields{
				"run": run, "roi": roi, "holiday_pct": holidayPct, "insurance_pa": insurancePA,
				"penalty": penalty,
			}).Debug("optimize: evaluated objective")
		}

		if !best.set || value < best.fx {
			best.set, best.fx = true, value
			best.premium, best.roi, best.holidayPct = solved.Premium, roi, holidayPct
		}

		return value
	}

	feasible := func(_ []float64, fx float64) bool {
		return fx < sentinelPenalty
	}

	nm, err := numeric.NelderMead(objective, numeric.NelderMeadConfig{
		Start:  cfg.Start[:],
		Bounds: cfg.Bounds[:],
		MaxFev: cfg.MaxFunEvals,
	}, feasible)

	res := Result{
		Levers:     [5]float64{nm.X[0], nm.X[0] + nm.X[1], nm.X[2], nm.X[3], nm.X[4]},
		Premium:    best.premium,
		ROI:        best.roi,
		HolidayPct: best.holidayPct,
		Objective:  nm.FX,
		Evals:      nm.Evals,
	}

	if err != nil {
		var infeasible *numeric.InfeasibleError
		if errors.As(err, &infeasible) {
			return res, fmt.Errorf("%w: best objective %.2f after %d evaluations", ErrInfeasible, nm.FX, nm.Evals)
		}
		return res, err
	}
	return res, nil
}

// objectiveValue combines the constraint penalty with the selected goal
// term into the final value Nelder-Mead minimizes, matching optimise.py's
// per-goal formulas exactly rather than a single "penalty - goal" shape:
// ROI and annual income are subtracted from the penalty, but reinvestment,
// deficit, and holiday rate each have their own scale and sign in the
// original.
func objectiveValue(g Goal, penalty, roi, annualIncome float64, endOfTerm []engine.PathRow, holidayPct, totalLoan float64) float64 {
	switch g {
	case MaximizeFunderROI:
		return penalty - roi
	case MaximizeAnnualIncome:
		return penalty - annualIncome/10000
	case MaximizeReinvestment:
		sum := 0.0
		for _, row := range endOfTerm {
			sum += row.Reinvestment
		}
		meanReinvestment := sum / float64(len(endOfTerm))
		return penalty - meanReinvestment/totalLoan/2
	case MinimizeDeficit:
		sum := 0.0
		for _, row := range endOfTerm {
			sum += row.InterestDeficit
		}
		meanDeficit := sum / float64(len(endOfTerm))
		return penalty + 10*meanDeficit/totalLoan - 5
	case MinimizeHolidayRate:
		return penalty + holidayPct*10 - 5
	default:
		return penalty
	}
}

func holidayRatePerPath(results []engine.Result) []float64 {
	out := make([]float64, len(results))
	for i, r := range results {
		holidays := 0
		for _, h := range r.InHoliday {
			if h {
				holidays++
			}
		}
		out[i] = float64(holidays) / float64(len(r.InHoliday))
	}
	return out
}
