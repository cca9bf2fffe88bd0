// Package engine implements the path engine (PE): the deterministic
// per-scenario quarterly simulation at the core of the model. Given one
// equity price path, a rate source, and a set of product parameters, Run
// produces the full per-quarter row sequence of balances, unit holdings,
// holiday state, and cumulative aggregates described by spec.md §4.3.
package engine

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sync"

	"equityrelease/rates"
	"equityrelease/scenario"
)

const quarterDiv = 0.25

// Run simulates one price path to completion and returns its full
// per-quarter row sequence. The engine never errors mid-simulation on
// numeric edge cases (division always assumes Price > 0, which
// Validate and the input checks below guarantee on the way in);
// it only fails fast on invalid inputs.
func Run(path scenario.PricePath, rs rates.Source, p Parameters) (Result, error) {
	if err := p.Validate(); err != nil {
		return Result{}, err
	}

	need := int(math.Ceil(p.Horizon / path.Dt))
	if len(path.Prices) < need {
		return Result{}, fmt.Errorf("%w: price path has %d points, need >= %d", ErrInsufficientSeries, len(path.Prices), need)
	}
	for i, s := range path.Prices {
		if s <= 0 {
			return Result{}, fmt.Errorf("%w: price path has non-positive price %v at index %d", ErrInvalidParameters, s, i)
		}
	}
	if n := rs.Len(); n >= 0 && n < need {
		return Result{}, fmt.Errorf("%w: rate series has %d points, need >= %d", ErrInsufficientSeries, n, need)
	}

	avgCashRate := rs.Geometric()
	initialReinvestment := p.TotalLoan*p.ReinvestFraction -
		p.InsuranceProfitMargin*p.InsuranceCost/math.Pow(1+avgCashRate, p.Horizon)

	holidayEnter := initialReinvestment * p.HolidayEnterFraction
	holidayExit := initialReinvestment * p.HolidayExitFraction

	annualIncomeQuarter := p.AnnualIncome * quarterDiv
	annuityDurationQuarters := p.annuityDurationQuarters()
	totalPeriods := p.quarters()
	progressive := p.progressiveRepayment()

	result := newResult(path.ID, totalPeriods)

	holdings := initialReinvestment / p.S0
	loanSize := p.TotalLoan*p.ReinvestFraction + annualIncomeQuarter
	initUnitsToPrincipal := 0.0
	if progressive {
		initUnitsToPrincipal = annualIncomeQuarter / p.S0
		loanSize -= annualIncomeQuarter
		holdings -= initUnitsToPrincipal
	}

	inHoliday := p.HolidayEnterFraction > 1
	holidayQuarters := 0
	cumUnitsToPool := 0.0
	cumInterestPaid := 0.0
	cumUnitsSold := 0.0
	deferred := 0.0
	funderEarned := 0.0

	holdingsS0 := holdings * p.S0
	result.set(0, PathRow{
		Period:           0,
		Year:             p.YearOffset,
		Quarter:          0,
		Price:            p.S0,
		Interest:         0,
		LoanSize:         p.TotalLoan * p.ReinvestFraction,
		Units:            holdings,
		Reinvestment:     holdingsS0,
		InterestDeficit:  0,
		CapitalDeficit:   math.Max(loanSize-holdingsS0, 0),
		Surplus:          holdingsS0 - loanSize - deferred,
		InHoliday:        inHoliday,
		FunderEarned:     0,
		AnnuityIncome:    annualIncomeQuarter,
		HolidayQuarters:  0,
		SubPerform:       false,
		UnitsToPrincipal: initUnitsToPrincipal,
	})

	lastYearlyHedgePrice := p.S0
	last5YearlyHedgePrice := p.S0

	for t := 1; t < totalPeriods; t++ {
		idx := rates.QuarterIndex(t, path.Dt)
		s := path.Prices[idx]
		cashRate := rs.Rate(idx)
		loanInterestRate := cashRate + p.WholesaleMargin + p.AdditionalMargin
		interestDue := loanSize * loanInterestRate * quarterDiv

		interestPaid := 0.0
		interestPaidToFunder := 0.0
		deferredDelta := 0.0
		unitsSoldNow := 0.0
		unitsToPool := 0.0
		unitsToPrincipal := 0.0

		interestDuePerShare := interestDue / s
		holdingsValue := holdings * s

		poolActive := p.EnablePool && holdings <= p.InsuredUnits

		switch {
		case inHoliday && holdingsValue > holidayExit:
			inHoliday = false
			if poolActive {
				unitsToPool -= interestDuePerShare
			} else {
				holdings -= interestDuePerShare
				unitsSoldNow += interestDuePerShare
			}
			interestPaid = interestDue
			interestPaidToFunder = loanSize * (p.WholesaleMargin + cashRate) * quarterDiv
			holidayQuarters = 0

		case inHoliday:
			if poolActive {
				unitsToPool -= interestDuePerShare
			} else {
				holidayQuarters++
				deferred += interestDue
				deferredDelta += interestDue
			}

		case holdingsValue < holidayEnter:
			if poolActive {
				unitsToPool -= interestDuePerShare
			} else {
				deferred += interestDue
				deferredDelta += interestDue
				inHoliday = true
				holidayQuarters++
			}

		default:
			holidayQuarters = 0
			if poolActive {
				unitsToPool -= interestDuePerShare
			} else {
				holdings -= interestDuePerShare
				unitsSoldNow += interestDuePerShare
			}
			interestPaid = interestDue
			interestPaidToFunder = loanSize * (p.WholesaleMargin + cashRate) * quarterDiv

			if holdingsValue > holidayExit*p.SuperpayStartFactor && deferred > 0 && holdings > p.InsuredUnits {
				surplusPay := math.Min(p.MaxSuperpayFactor*interestDue, deferred)
				surplusPayPerShare := surplusPay / s
				holdings -= surplusPayPerShare
				deferred -= surplusPay
				deferredDelta -= surplusPay
				unitsSoldNow += surplusPayPerShare
				interestPaid += surplusPay
				interestPaidToFunder += surplusPay * (p.WholesaleMargin + cashRate) / loanInterestRate
			}
		}

		if p.EnablePool && !inHoliday && deferred < 1 && p.ExpectedReinvestmentRatio != nil &&
			holdingsValue > p.ExpectedReinvestmentRatio[t]*initialReinvestment && holdings > p.InsuredUnits {
			excessUnits := (holdingsValue - p.ExpectedReinvestmentRatio[t]*initialReinvestment) / s
			holdings -= excessUnits
			unitsToPool = excessUnits
		}

		hedgeUnitsDelta := 0.0
		if p.Hedge.Enabled {
			if t%4 == 0 {
				holdings -= holdings * p.Hedge.CostPA
				yearMove := (s - lastYearlyHedgePrice) / lastYearlyHedgePrice
				if yearMove < -p.Hedge.MaxLoss {
					buyUnits := ((lastYearlyHedgePrice/s)*(1-p.Hedge.MaxLoss) - 1) * holdings
					hedgeUnitsDelta = buyUnits
					holdings += buyUnits
				}
				lastYearlyHedgePrice = s
			}
			if t%20 == 0 {
				adjHoldings := holdings * (last5YearlyHedgePrice / s) * (1 + p.Hedge.Cap*5)
				if holdings > adjHoldings {
					sellUnits := holdings - adjHoldings
					hedgeUnitsDelta -= sellUnits
					holdings -= sellUnits
				}
				last5YearlyHedgePrice = s
			}
		}

		cumUnitsToPool += unitsToPool
		funderEarned += interestPaidToFunder
		cumUnitsSold += unitsSoldNow
		cumInterestPaid += interestPaid

		yearlyAnnuityIncome := 0.0
		if t < annuityDurationQuarters {
			yearlyAnnuityIncome = annualIncomeQuarter
			if progressive {
				unitsToPrincipal = annualIncomeQuarter / s
			}
		}

		subperform := holidayQuarters >= p.SubperformThresholdQuarters

		year := ((t - 1) >> 2) + 1
		quarter := t - (year-1)*4

		holdingsValue = holdings * s

		result.set(t, PathRow{
			Period:               t,
			Year:                 p.YearOffset + year,
			Quarter:              quarter,
			Price:                s,
			Interest:             interestDue,
			LoanSize:             loanSize,
			Units:                holdings,
			Reinvestment:         holdingsValue,
			InterestDeficit:      deferred,
			CapitalDeficit:       math.Max(loanSize-holdingsValue, 0),
			Surplus:              holdingsValue - loanSize - deferred + cumUnitsToPool*s,
			InHoliday:            inHoliday,
			FunderEarned:         funderEarned,
			AnnuityIncome:        yearlyAnnuityIncome,
			HolidayQuarters:      holidayQuarters,
			SubPerform:           subperform,
			InterestPaid:         interestPaid,
			InterestPaidToFunder: interestPaidToFunder,
			InterestRate:         loanInterestRate,
			UnitsSold:            unitsSoldNow,
			CumUnitsSold:         cumUnitsSold,
			InterestDeficitDelta: deferredDelta,
			UnitsToPool:          unitsToPool,
			CumUnitsToPool:       cumUnitsToPool,
			CumInterestPaid:      cumInterestPaid,
			UnitsToPrincipal:     unitsToPrincipal,
			TotalUnitsSold:       unitsSoldNow + unitsToPrincipal,
			HedgeUnitsDelta:      hedgeUnitsDelta,
		})

		if t < annuityDurationQuarters {
			if progressive {
				holdings -= unitsToPrincipal
			} else {
				loanSize += annualIncomeQuarter
			}
		}
	}

	return result, nil
}

// RunAll fans Run out across paths on a bounded worker pool, the natural
// parallelism axis spec.md §5 describes: paths are independent given a
// shared, read-only Parameters and rates.Source. ctx is checked at each
// path boundary; there is no mid-path cancellation. Results are returned
// in the same order as paths regardless of completion order, so
// downstream aggregation never needs to re-sort by path id.
func RunAll(ctx context.Context, paths []scenario.PricePath, rs rates.Source, p Parameters) ([]Result, error) {
	results := make([]Result, len(paths))
	errs := make([]error, len(paths))

	workers := runtime.GOMAXPROCS(0)
	if workers > len(paths) {
		workers = len(paths)
	}
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range jobs {
				select {
				case <-ctx.Done():
					errs[i] = ctx.Err()
					continue
				default:
				}
				res, err := Run(paths[i], rs, p)
				results[i] = res
				errs[i] = err
			}
		}()
	}
	for i := range paths {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}
