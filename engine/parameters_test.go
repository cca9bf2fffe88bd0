package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func baseParameters() Parameters {
	return Parameters{
		Variant:                     InterestOnly,
		Horizon:                     10,
		AnnuityDuration:             10,
		TotalLoan:                   1_000_000,
		ReinvestFraction:            0.8,
		AnnualIncome:                20000,
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
}

func TestValidateAcceptsBaseParameters(t *testing.T) {
	assert.NoError(t, baseParameters().Validate())
}

func TestValidateRejectsOutOfRangeReinvestFraction(t *testing.T) {
	p := baseParameters()
	p.ReinvestFraction = 1.2

	err := p.Validate()
	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidParameters))
}

func TestValidateRejectsNegativeReinvestFraction(t *testing.T) {
	p := baseParameters()
	p.ReinvestFraction = -0.1

	assert.True(t, errors.Is(p.Validate(), ErrInvalidParameters))
}

func TestValidateRejectsNonPositiveS0(t *testing.T) {
	p := baseParameters()
	p.S0 = 0

	assert.True(t, errors.Is(p.Validate(), ErrInvalidParameters))
}

func TestValidateRejectsHolidayExitBelowEnter(t *testing.T) {
	p := baseParameters()
	p.HolidayEnterFraction = 2.0
	p.HolidayExitFraction = 1.0

	assert.True(t, errors.Is(p.Validate(), ErrInvalidParameters))
}

func TestValidateRejectsAnnuityDurationLongerThanHorizon(t *testing.T) {
	p := baseParameters()
	p.AnnuityDuration = p.Horizon + 1

	assert.True(t, errors.Is(p.Validate(), ErrInvalidParameters))
}

func TestRepaymentByVariant(t *testing.T) {
	annualIncome, duration := 20000.0, 10.0

	assert.Equal(t, 200000.0, InterestOnly.Repayment(annualIncome, duration, 0))
	assert.Equal(t, 0.0, PrincipalPlusInterest.Repayment(annualIncome, duration, 0))

	// Hybrid credits the borrower's profit share against the lump sum,
	// floored at zero rather than going negative.
	assert.Equal(t, 200000.0-BorrowerProfitShare*50000, Hybrid.Repayment(annualIncome, duration, 50000))
	assert.Equal(t, 0.0, Hybrid.Repayment(annualIncome, duration, 10_000_000))
}
