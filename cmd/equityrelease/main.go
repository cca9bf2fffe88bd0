// Command equityrelease runs a single hardcoded equity-release scenario
// and prints a summary. It exists to exercise the library end to end, the
// way the teacher's own main.go drives ProjectProcess.Lsm — it is not the
// CSV/JSON request-response glue spec.md excludes from scope.
package main

import (
	"context"
	"os"

	"github.com/leekchan/accounting"
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/rand"

	"equityrelease/aggregate"
	"equityrelease/engine"
	"equityrelease/insurance"
	"equityrelease/rates"
	"equityrelease/scenario"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if err := run(log); err != nil {
		log.WithError(err).Error("equityrelease: run failed")
		os.Exit(1)
	}
}

func run(log *logrus.Logger) error {
	rng := rand.New(rand.NewSource(0))

	houseValue := 1_500_000.0
	loanToValue := 0.8
	totalLoan := houseValue * loanToValue

	horizon := 30.0
	annuityDuration := 15.0
	annualIncome := 30000.0
	reinvestFraction := 1 - (annuityDuration*annualIncome)/totalLoan

	mc := scenario.MCParams{
		Horizon:    horizon,
		Return:     0.0975,
		Volatility: 0.15,
		Paths:      200,
		S0:         100,
	}
	paths := scenario.GenerateMonteCarlo(mc, rng)

	rs := rates.Constant(0.04)

	params := engine.Parameters{
		Variant:                     engine.InterestOnly,
		Horizon:                     horizon,
		AnnuityDuration:             annuityDuration,
		TotalLoan:                   totalLoan,
		ReinvestFraction:            reinvestFraction,
		AnnualIncome:                annualIncome,
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

	solved, err := insurance.Solve(insurance.Config{
		Ctx:       context.Background(),
		Paths:     paths,
		Rates:     rs,
		Params:    params,
		Repayment: annualIncome * annuityDuration,
		Bracket:   insurance.DefaultBracket,
		Tolerance: 1000,
		Logger:    log,
	})
	if err != nil {
		return err
	}

	endOfTerm := aggregate.EndOfTerm(solved.Results)
	funderEarned := make([]float64, len(endOfTerm))
	for i, row := range endOfTerm {
		funderEarned[i] = row.FunderEarned
	}

	ac := accounting.Accounting{Symbol: "$", Precision: 0}
	log.WithFields(logrus.Fields{
		"premium":       ac.FormatMoney(solved.Premium),
		"iterations":    solved.Iterations,
		"funder_earned": ac.FormatMoney(aggregate.Mean(funderEarned)),
	}).Info("equityrelease: solved fair insurance premium")

	return nil
}
