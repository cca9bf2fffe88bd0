package optimize

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equityrelease/engine"
	"equityrelease/internal/numeric"
	"equityrelease/rates"
	"equityrelease/scenario"
)

func flatPath(id int, years int, price float64) scenario.PricePath {
	prices := make([]float64, 12*years)
	for i := range prices {
		prices[i] = price
	}
	return scenario.PricePath{ID: id, Prices: prices, Dt: scenario.HistoricalDt}
}

// baseConfig mirrors insurance's zero-payout trick: an oversized repayment
// callback keeps the insurer's expected payout at zero for every lever
// combination the search tries, so the objective never panics or returns
// the sentinel penalty through a solver failure.
func baseConfig() Config {
	base := engine.Parameters{
		Variant:                     engine.InterestOnly,
		Horizon:                     3,
		AnnuityDuration:             3,
		TotalLoan:                   100000,
		WholesaleMargin:             0.02,
		AdditionalMargin:            0.0125,
		InsuranceProfitMargin:       1.5,
		SubperformThresholdQuarters: 6,
		S0:                          100,
	}

	return Config{
		Ctx:       context.Background(),
		Paths:     []scenario.PricePath{flatPath(0, 3, 100), flatPath(1, 3, 100)},
		Rates:     rates.Constant(0.04),
		Base:      base,
		Repayment: func(float64) float64 { return 1_000_000 },
		Bounds: [5]numeric.Bound{
			{Lo: 1.1, Hi: 1.5},
			{Lo: 0.3, Hi: 1.0},
			{Lo: 0.5, Hi: 1.0},
			{Lo: 1.0, Hi: 1.2},
			{Lo: 5000, Hi: 15000},
		},
		Start:       [5]float64{1.35, 0.6, 1.0, 1.0, 10000},
		MaxFunEvals: 60,
		Goal:        MaximizeFunderROI,
		Constraints: Constraints{
			ROILowerLimit:     -1000,
			HolidayUpperLimit: 10,
			PremiumUpperLimit: 100,
		},
	}
}

func TestRunFindsFeasiblePoint(t *testing.T) {
	res, err := Run(baseConfig())
	require.NoError(t, err)

	assert.GreaterOrEqual(t, res.Levers[0], 1.1)
	assert.LessOrEqual(t, res.Levers[0], 1.5)
	assert.Greater(t, res.Evals, 0)
}

func TestObjectiveValueMatchesPerGoalFormula(t *testing.T) {
	rows := []engine.PathRow{
		{Reinvestment: 100, InterestDeficit: 10},
		{Reinvestment: 200, InterestDeficit: 20},
	}
	totalLoan := 1000.0

	// ROI and annual income are subtracted straight from the penalty.
	assert.Equal(t, 2.0-0.5, objectiveValue(MaximizeFunderROI, 2.0, 0.5, 0, nil, 0, totalLoan))
	assert.Equal(t, 2.0-1.0, objectiveValue(MaximizeAnnualIncome, 2.0, 0, 10000, nil, 0, totalLoan))

	// Reinvestment: penalty - mean(Reinvestment)/totalLoan/2.
	meanReinvestment := 150.0
	assert.Equal(t, 2.0-meanReinvestment/totalLoan/2, objectiveValue(MaximizeReinvestment, 2.0, 0, 0, rows, 0, totalLoan))

	// Deficit and holiday rate are additive terms on top of the penalty,
	// not "penalty - goal".
	meanDeficit := 15.0
	assert.Equal(t, 2.0+10*meanDeficit/totalLoan-5, objectiveValue(MinimizeDeficit, 2.0, 0, 0, rows, 0, totalLoan))
	assert.Equal(t, 2.0+0.2*10-5, objectiveValue(MinimizeHolidayRate, 2.0, 0, 0, nil, 0.2, totalLoan))
}
