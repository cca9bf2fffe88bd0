package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"equityrelease/engine"
)

func flatResult(pathID int, periods int, reinvestment, deficit float64) engine.Result {
	p := make([]int, periods)
	for i := range p {
		p[i] = i
	}
	fill := func(v float64) []float64 {
		out := make([]float64, periods)
		for i := range out {
			out[i] = v
		}
		return out
	}
	fillInt := func(v int) []int {
		out := make([]int, periods)
		for i := range out {
			out[i] = v
		}
		return out
	}
	return engine.Result{
		PathID:               pathID,
		Period:               p,
		Year:                 fillInt(1),
		Quarter:              fillInt(1),
		Price:                fill(100),
		Interest:             fill(0),
		LoanSize:             fill(0),
		Units:                fill(1),
		Reinvestment:         fill(reinvestment),
		InterestDeficit:      fill(deficit),
		CapitalDeficit:       fill(0),
		Surplus:              fill(0),
		InHoliday:            make([]bool, periods),
		FunderEarned:         fill(0),
		AnnuityIncome:        fill(10),
		HolidayQuarters:      fillInt(0),
		SubPerform:           make([]bool, periods),
		InterestPaid:         fill(0),
		InterestPaidToFunder: fill(0),
		InterestRate:         fill(0),
		UnitsSold:            fill(0),
		CumUnitsSold:         fill(0),
		InterestDeficitDelta: fill(0),
		UnitsToPool:          fill(0),
		CumUnitsToPool:       fill(0),
		CumInterestPaid:      fill(500),
		UnitsToPrincipal:     fill(0),
		TotalUnitsSold:       fill(0),
		HedgeUnitsDelta:      fill(0),
	}
}

func TestMeansAveragesAcrossPaths(t *testing.T) {
	results := []engine.Result{
		flatResult(0, 3, 100, 0),
		flatResult(1, 3, 200, 10),
	}

	means := Means(results)
	assert.Len(t, means, 3)
	for _, m := range means {
		assert.InDelta(t, 150, m.Reinvestment, 1e-9)
		assert.InDelta(t, 5, m.InterestDeficit, 1e-9)
	}
}

func TestEndOfTermReturnsLastRowPerPath(t *testing.T) {
	results := []engine.Result{flatResult(0, 4, 100, 0), flatResult(1, 4, 200, 0)}
	rows := EndOfTerm(results)

	assert.Len(t, rows, 2)
	assert.Equal(t, 100.0, rows[0].Reinvestment)
	assert.Equal(t, 200.0, rows[1].Reinvestment)
}

func TestInsurancePayoutFloorsAtZero(t *testing.T) {
	results := []engine.Result{
		flatResult(0, 2, 50, 0),  // loan 100 - reinvestment 50 => exposed
		flatResult(1, 2, 150, 0), // loan 100 - reinvestment 150 => covered
	}

	payouts := InsurancePayout(results, 100, 0, 0)
	assert.Equal(t, []float64{50, 0}, payouts)
}

func TestProbabilityFullyCoveredCountsCoveredPaths(t *testing.T) {
	results := []engine.Result{
		flatResult(0, 2, 50, 0),
		flatResult(1, 2, 150, 0),
	}

	prob := ProbabilityFullyCovered(results, 100, 0)
	assert.Equal(t, 0.5, prob)
}

func TestMeanOfEmptySliceIsZero(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
}
