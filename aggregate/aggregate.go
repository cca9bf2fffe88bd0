// Package aggregate folds path-engine outputs across paths: per-period
// means, quantile paths selected by terminal price, end-of-term rows, the
// coverage-probability statistic, and the per-path insurer payout the
// insurance solver averages. This is
// the in-scope half of spec.md §4.4; the pretty-printed reporting tables
// the original builds on top of these numbers are an external,
// out-of-scope concern.
package aggregate

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"equityrelease/engine"
)

// PeriodMean is one row of the per-period mean trajectory across all
// paths: every numeric PathRow column averaged at a fixed period.
type PeriodMean struct {
	Period               int     `json:"period"`
	Price                float64 `json:"price"`
	Interest             float64 `json:"interest"`
	LoanSize             float64 `json:"loan_size"`
	Units                float64 `json:"units"`
	Reinvestment         float64 `json:"reinvestment"`
	InterestDeficit      float64 `json:"interest_deficit"`
	CapitalDeficit       float64 `json:"capital_deficit"`
	Surplus              float64 `json:"surplus"`
	FunderEarned         float64 `json:"funder_earned"`
	AnnuityIncome        float64 `json:"annuity_income"`
	InterestPaid         float64 `json:"interest_paid"`
	InterestPaidToFunder float64 `json:"interest_paid_to_funder"`
	CumUnitsSold         float64 `json:"cum_units_sold"`
	CumUnitsToPool       float64 `json:"cum_units_to_pool"`
	CumInterestPaid      float64 `json:"cum_interest_paid"`
	HolidayRate          float64 `json:"holiday_rate"` // mean of the boolean InHoliday column
}

// Means groups engine.Result rows by period across all paths and averages
// every numeric column, the Aggregator's "per-period means" operation.
func Means(results []engine.Result) []PeriodMean {
	if len(results) == 0 {
		return nil
	}
	periods := len(results[0].Period)
	means := make([]PeriodMean, periods)
	n := float64(len(results))

	for t := 0; t < periods; t++ {
		m := PeriodMean{Period: results[0].Period[t]}
		for _, r := range results {
			m.Price += r.Price[t]
			m.Interest += r.Interest[t]
			m.LoanSize += r.LoanSize[t]
			m.Units += r.Units[t]
			m.Reinvestment += r.Reinvestment[t]
			m.InterestDeficit += r.InterestDeficit[t]
			m.CapitalDeficit += r.CapitalDeficit[t]
			m.Surplus += r.Surplus[t]
			m.FunderEarned += r.FunderEarned[t]
			m.AnnuityIncome += r.AnnuityIncome[t]
			m.InterestPaid += r.InterestPaid[t]
			m.InterestPaidToFunder += r.InterestPaidToFunder[t]
			m.CumUnitsSold += r.CumUnitsSold[t]
			m.CumUnitsToPool += r.CumUnitsToPool[t]
			m.CumInterestPaid += r.CumInterestPaid[t]
			if r.InHoliday[t] {
				m.HolidayRate++
			}
		}
		m.Price /= n
		m.Interest /= n
		m.LoanSize /= n
		m.Units /= n
		m.Reinvestment /= n
		m.InterestDeficit /= n
		m.CapitalDeficit /= n
		m.Surplus /= n
		m.FunderEarned /= n
		m.AnnuityIncome /= n
		m.InterestPaid /= n
		m.InterestPaidToFunder /= n
		m.CumUnitsSold /= n
		m.CumUnitsToPool /= n
		m.CumInterestPaid /= n
		m.HolidayRate /= n
		means[t] = m
	}
	return means
}

// QuantilePaths is the set of whole paths selected at the 2%, 25%,
// median, and 75% ranks of terminal price, the "worse/bad/median/good"
// scenario set the original reporting layer quotes results against.
type QuantilePaths struct {
	Worse  engine.Result
	Bad    engine.Result
	Median engine.Result
	Good   engine.Result
}

// Quantiles sorts paths by terminal price S_T and selects the ranks
// ceil(p*P) for p in {0.02, 0.25, 0.50, 0.75}.
func Quantiles(results []engine.Result) QuantilePaths {
	sorted := append([]engine.Result(nil), results...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Price[len(sorted[i].Price)-1] < sorted[j].Price[len(sorted[j].Price)-1]
	})

	rank := func(p float64) engine.Result {
		i := int(math.Ceil(p * float64(len(sorted))))
		if i >= len(sorted) {
			i = len(sorted) - 1
		}
		if i < 0 {
			i = 0
		}
		return sorted[i]
	}

	return QuantilePaths{
		Worse:  rank(0.02),
		Bad:    rank(0.25),
		Median: rank(0.50),
		Good:   rank(0.75),
	}
}

// EndOfTerm returns the final (period = 4T) row of every path.
func EndOfTerm(results []engine.Result) []engine.PathRow {
	rows := make([]engine.PathRow, len(results))
	for i, r := range results {
		rows[i] = r.EndOfTerm()
	}
	return rows
}

// CumulativeInterestPaid returns, per path, the cumulative interest paid
// over the life of the loan (the end-of-term CumInterestPaid column).
func CumulativeInterestPaid(results []engine.Result) []float64 {
	out := make([]float64, len(results))
	for i, r := range results {
		out[i] = r.CumInterestPaid[len(r.CumInterestPaid)-1]
	}
	return out
}

// CumulativeAnnuityIncome returns, per path, the sum of annuity income
// paid across every quarter of the run.
func CumulativeAnnuityIncome(results []engine.Result) []float64 {
	out := make([]float64, len(results))
	for i, r := range results {
		sum := 0.0
		for _, v := range r.AnnuityIncome {
			sum += v
		}
		out[i] = sum
	}
	return out
}

// ProbabilityFullyCovered computes P(R_T + C >= L0 + D_T): the share of
// paths whose end-of-term reinvestment account plus the scheduled
// repayment lump sum covers the outstanding loan plus deferred interest.
func ProbabilityFullyCovered(results []engine.Result, totalLoan, repayment float64) float64 {
	if len(results) == 0 {
		return 0
	}
	covered := 0
	for _, r := range results {
		row := r.EndOfTerm()
		if row.Reinvestment+repayment >= totalLoan+row.InterestDeficit {
			covered++
		}
	}
	return float64(covered) / float64(len(results))
}

// InsurancePayout computes, per path, max(L0 + D_T - R_T - C - ARC, 0):
// the insurer's exposure at term, the quantity the insurance solver
// (package insurance) takes the mean of when searching for a fair
// premium.
func InsurancePayout(results []engine.Result, totalLoan, repayment, atRiskCapital float64) []float64 {
	out := make([]float64, len(results))
	for i, r := range results {
		row := r.EndOfTerm()
		payout := totalLoan + row.InterestDeficit - row.Reinvestment - repayment - atRiskCapital
		if payout < 0 {
			payout = 0
		}
		out[i] = payout
	}
	return out
}

// Mean is a thin wrapper over gonum/stat.Mean; the Aggregator needs an
// unweighted mean often enough (ROI, holiday rate, insurance payout) that
// callers shouldn't have to build a weights slice at every call site.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return stat.Mean(xs, nil)
}
