package insurance

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equityrelease/engine"
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

// solveConfig builds a scenario where the repayment lump sum alone dwarfs
// the loan, so the insurer's expected payout is always exactly zero no
// matter what the engine does internally: the secant search then reduces
// to finding the root of f(I) = 0 - I, a known-exact case.
func solveConfig() Config {
	p := engine.Parameters{
		Variant:                     engine.InterestOnly,
		Horizon:                     3,
		AnnuityDuration:             3,
		TotalLoan:                   100000,
		ReinvestFraction:            1.0,
		AnnualIncome:                0,
		WholesaleMargin:             0.02,
		AdditionalMargin:            0.0125,
		InsuranceProfitMargin:       1.5,
		HolidayEnterFraction:        1.35,
		HolidayExitFraction:         1.95,
		SuperpayStartFactor:         1.0,
		MaxSuperpayFactor:           1.0,
		SubperformThresholdQuarters: 6,
		S0:                          100,
	}

	return Config{
		Ctx:           context.Background(),
		Paths:         []scenario.PricePath{flatPath(0, 3, 100), flatPath(1, 3, 100)},
		Rates:         rates.Constant(0.04),
		Params:        p,
		Repayment:     1_000_000,
		AtRiskCapital: 0,
		Bracket:       DefaultBracket,
		Tolerance:     1,
	}
}

func TestSolveConvergesWhenPayoutIsAlwaysZero(t *testing.T) {
	res, err := Solve(solveConfig())
	require.NoError(t, err)
	assert.InDelta(t, 0, res.Premium, 1e-6)
	assert.InDelta(t, 0, res.Residual, 1e-6)
	assert.Len(t, res.Results, 2)
}

func TestSolveDefaultsBracketWhenZeroValue(t *testing.T) {
	cfg := solveConfig()
	cfg.Bracket = [2]float64{}

	res, err := Solve(cfg)
	require.NoError(t, err)
	assert.InDelta(t, 0, res.Premium, 1e-6)
}

func TestSolveWithPoolingRunsBothPasses(t *testing.T) {
	cfg := solveConfig()
	res, err := SolveWithPooling(cfg)
	require.NoError(t, err)
	assert.InDelta(t, 0, res.Premium, 1e-6)
}

// TestMeanEndOfTermUnitsUsesLastPeriodOnly grounds the meanEndOfTermUnits fix:
// with no holiday band, every quarter's interest is paid by selling units,
// so Units strictly decays over the run and an all-period average would
// overstate what survives to term relative to the end-of-term mean
// pyrainy.py's get_pool_parameters actually computes.
func TestMeanEndOfTermUnitsUsesLastPeriodOnly(t *testing.T) {
	p := engine.Parameters{
		Variant:                     engine.InterestOnly,
		Horizon:                     5,
		AnnuityDuration:             0,
		TotalLoan:                   1_200_000,
		ReinvestFraction:            1,
		WholesaleMargin:             0.02,
		AdditionalMargin:            0.015,
		InsuranceProfitMargin:       1.5,
		HolidayEnterFraction:        0,
		HolidayExitFraction:         0,
		SuperpayStartFactor:         1,
		MaxSuperpayFactor:           1,
		SubperformThresholdQuarters: 1000,
		S0:                          100,
	}

	r0, err := engine.Run(flatPath(0, 5, 100), rates.Constant(0.04), p)
	require.NoError(t, err)
	r1, err := engine.Run(flatPath(1, 5, 120), rates.Constant(0.04), p)
	require.NoError(t, err)
	results := []engine.Result{r0, r1}

	got := meanEndOfTermUnits(results)
	want := (r0.EndOfTerm().Units + r1.EndOfTerm().Units) / 2
	assert.InDelta(t, want, got, 1e-9)

	allPeriodsMean := 0.0
	for _, r := range results {
		sum := 0.0
		for _, u := range r.Units {
			sum += u
		}
		allPeriodsMean += sum / float64(len(r.Units))
	}
	allPeriodsMean /= float64(len(results))

	assert.Greater(t, allPeriodsMean, got, "averaging over every period overstates units surviving to term")
}
