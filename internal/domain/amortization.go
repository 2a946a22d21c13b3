package domain

import (
	"github.com/shopspring/decimal"

	apperrors "github.com/credisol/lending-engine/pkg/errors"
)

// Intermediate divisions keep 28 significant digits so the final cent rounding
// is the only lossy step in any monetary calculation.
const divisionPrecision = 28

var one = decimal.NewFromInt(1)

// AmortizationTerms is the output of the annuity calculation: the fixed
// periodic installment and the total amount repayable over the loan.
type AmortizationTerms struct {
	InstallmentAmount decimal.Decimal `json:"installment_amount"`
	TotalRepayable    decimal.Decimal `json:"total_repayable"`
}

// Amortize computes the fixed installment under the French (constant
// installment) annuity method:
//
//	A = P * r * (1+r)^n / ((1+r)^n - 1)
//
// with A rounded to cents half-up and T = A * n. A zero rate degenerates to an
// even capital-only split where T = P. The rate is the periodic (monthly)
// rate as a fraction, e.g. 0.025 for 2.5% per month.
func Amortize(principal, monthlyRate decimal.Decimal, termMonths int) (AmortizationTerms, error) {
	if !principal.IsPositive() {
		return AmortizationTerms{}, apperrors.WrapInvalidArgument("principal must be greater than zero")
	}
	if monthlyRate.IsNegative() {
		return AmortizationTerms{}, apperrors.WrapInvalidArgument("monthly rate must not be negative")
	}
	if termMonths < 1 {
		return AmortizationTerms{}, apperrors.WrapInvalidArgument("term must be at least one month")
	}

	months := decimal.NewFromInt(int64(termMonths))

	if monthlyRate.IsZero() {
		return AmortizationTerms{
			InstallmentAmount: principal.DivRound(months, 2),
			TotalRepayable:    principal,
		}, nil
	}

	factor := compound(monthlyRate, termMonths)
	installment := principal.Mul(monthlyRate).Mul(factor).
		DivRound(factor.Sub(one), divisionPrecision).
		Round(2)

	return AmortizationTerms{
		InstallmentAmount: installment,
		TotalRepayable:    installment.Mul(months),
	}, nil
}

// compound returns (1+r)^n by repeated decimal multiplication, keeping the
// whole annuity formula in exact decimal arithmetic.
func compound(rate decimal.Decimal, n int) decimal.Decimal {
	base := one.Add(rate)
	result := one
	for i := 0; i < n; i++ {
		result = result.Mul(base)
	}
	return result
}
