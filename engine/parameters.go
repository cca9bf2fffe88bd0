package engine

import "fmt"

// Variant is the repayment structure of the product, fixing how the
// at-term repayment lump sum C and the principal-plus-interest progressive
// paydown behave.
type Variant int

const (
	InterestOnly Variant = iota
	PrincipalPlusInterest
	Hybrid
)

func (v Variant) String() string {
	switch v {
	case InterestOnly:
		return "INTEREST_ONLY"
	case PrincipalPlusInterest:
		return "PRINCIPAL_PLUS_INTEREST"
	case Hybrid:
		return "HYBRID"
	default:
		return fmt.Sprintf("Variant(%d)", int(v))
	}
}

// ProgressiveRepayment reports whether the annuity draw funds principal
// paydown via unit sales each quarter rather than increasing the loan.
func (v Variant) ProgressiveRepayment() bool {
	return v == PrincipalPlusInterest
}

// BorrowerProfitShare is the fixed fraction of scheme profit a Hybrid
// variant credits back to the borrower against the repayment lump sum.
const BorrowerProfitShare = 0.3

// LenderProfitShare is the fixed fraction of scheme profit the funder
// retains on top of the interest it has already earned.
const LenderProfitShare = 0.5

// Repayment computes C, the at-term repayment lump sum, for the variant.
// schemeProfit is max(R_T - L0 - D_T, 0), only meaningful for Hybrid.
func (v Variant) Repayment(annualIncome, annuityDuration, schemeProfit float64) float64 {
	switch v {
	case InterestOnly:
		return annualIncome * annuityDuration
	case PrincipalPlusInterest:
		return 0
	case Hybrid:
		c := annualIncome*annuityDuration - BorrowerProfitShare*schemeProfit
		if c < 0 {
			return 0
		}
		return c
	default:
		return 0
	}
}

// Hedge carries the optional overlay that trims tail risk on the
// reinvestment account at the cost of a running premium.
type Hedge struct {
	Enabled bool
	MaxLoss float64 // lambda
	Cap     float64 // kappa
	CostPA  float64 // c_h, charged every 4th quarter
}

// Parameters is the full set of product assumptions a single path-engine
// run is evaluated under. It is immutable for the duration of a run; the
// same value is shared read-only across paths run in parallel.
type Parameters struct {
	Variant Variant

	Horizon               float64 // T, years
	AnnuityDuration       float64 // T_a, years, <= Horizon
	TotalLoan             float64 // L0
	ReinvestFraction      float64 // phi, in [0,1]
	AnnualIncome          float64 // A
	WholesaleMargin       float64 // m_w
	AdditionalMargin      float64 // m_a
	InsuranceProfitMargin float64 // pi = 1 + mu
	InsuranceCost         float64 // I

	HolidayEnterFraction float64 // h_in
	HolidayExitFraction  float64 // h_out >= h_in

	SuperpayStartFactor float64 // sigma_s >= 1
	MaxSuperpayFactor   float64 // sigma_m in (0,1]

	SubperformThresholdQuarters int

	EnablePool               bool
	InsuredUnits             float64
	ExpectedReinvestmentRatio []float64 // E_t/R0 curve from an unpooled pass; nil skips step 5

	ProgressiveRepaymentOverride *bool // nil: derive from Variant

	Hedge Hedge

	S0         float64
	YearOffset int
}

// progressiveRepayment resolves whether principal is progressively repaid,
// honoring an explicit override (used by callers constructing Parameters
// directly rather than through a Variant) before falling back to Variant.
func (p Parameters) progressiveRepayment() bool {
	if p.ProgressiveRepaymentOverride != nil {
		return *p.ProgressiveRepaymentOverride
	}
	return p.Variant.ProgressiveRepayment()
}

func (p Parameters) quarters() int {
	return int(4*p.Horizon + 1)
}

func (p Parameters) annuityDurationQuarters() int {
	return int(p.AnnuityDuration * 4)
}

// Validate rejects parameter combinations the engine refuses to run,
// matching spec.md's INVALID_PARAMETERS error kind.
func (p Parameters) Validate() error {
	if p.S0 <= 0 {
		return fmt.Errorf("%w: S0 must be positive, got %v", ErrInvalidParameters, p.S0)
	}
	if p.ReinvestFraction < 0 || p.ReinvestFraction > 1 {
		return fmt.Errorf("%w: reinvest fraction must be in [0,1], got %v", ErrInvalidParameters, p.ReinvestFraction)
	}
	if p.HolidayExitFraction < p.HolidayEnterFraction {
		return fmt.Errorf("%w: holiday exit fraction (%v) must be >= enter fraction (%v)", ErrInvalidParameters, p.HolidayExitFraction, p.HolidayEnterFraction)
	}
	if p.InsuranceCost < 0 {
		return fmt.Errorf("%w: insurance cost must be >= 0, got %v", ErrInvalidParameters, p.InsuranceCost)
	}
	if p.MaxSuperpayFactor <= 0 || p.MaxSuperpayFactor > 1 {
		return fmt.Errorf("%w: max superpay factor must be in (0,1], got %v", ErrInvalidParameters, p.MaxSuperpayFactor)
	}
	if p.SuperpayStartFactor < 1 {
		return fmt.Errorf("%w: superpay start factor must be >= 1, got %v", ErrInvalidParameters, p.SuperpayStartFactor)
	}
	if p.AnnuityDuration > p.Horizon {
		return fmt.Errorf("%w: annuity duration (%v) must be <= horizon (%v)", ErrInvalidParameters, p.AnnuityDuration, p.Horizon)
	}
	return nil
}
