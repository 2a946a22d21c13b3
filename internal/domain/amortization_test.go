package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/credisol/lending-engine/pkg/errors"
)

func TestAmortize(t *testing.T) {
	tests := []struct {
		name                string
		principal           decimal.Decimal
		monthlyRate         decimal.Decimal
		termMonths          int
		expectedInstallment decimal.Decimal
		expectedTotal       decimal.Decimal
	}{
		{
			name:                "standard twelve month loan",
			principal:           decimal.NewFromInt(10000),
			monthlyRate:         decimal.NewFromFloat(0.025),
			termMonths:          12,
			expectedInstallment: decimal.NewFromFloat(974.87),
			expectedTotal:       decimal.NewFromFloat(11698.44),
		},
		{
			name:                "zero rate splits principal evenly",
			principal:           decimal.NewFromInt(10000),
			monthlyRate:         decimal.Zero,
			termMonths:          10,
			expectedInstallment: decimal.NewFromInt(1000),
			expectedTotal:       decimal.NewFromInt(10000),
		},
		{
			name:                "single month loan",
			principal:           decimal.NewFromInt(500),
			monthlyRate:         decimal.NewFromFloat(0.025),
			termMonths:          1,
			expectedInstallment: decimal.NewFromFloat(512.50),
			expectedTotal:       decimal.NewFromFloat(512.50),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			terms, err := Amortize(tt.principal, tt.monthlyRate, tt.termMonths)

			require.NoError(t, err)
			assert.True(t, terms.InstallmentAmount.Equal(tt.expectedInstallment),
				"Expected installment %v, but got %v", tt.expectedInstallment, terms.InstallmentAmount)
			assert.True(t, terms.TotalRepayable.Equal(tt.expectedTotal),
				"Expected total %v, but got %v", tt.expectedTotal, terms.TotalRepayable)
		})
	}
}

func TestAmortizeRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name        string
		principal   decimal.Decimal
		monthlyRate decimal.Decimal
		termMonths  int
	}{
		{"zero principal", decimal.Zero, decimal.NewFromFloat(0.02), 12},
		{"negative principal", decimal.NewFromInt(-100), decimal.NewFromFloat(0.02), 12},
		{"negative rate", decimal.NewFromInt(1000), decimal.NewFromFloat(-0.01), 12},
		{"zero term", decimal.NewFromInt(1000), decimal.NewFromFloat(0.02), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Amortize(tt.principal, tt.monthlyRate, tt.termMonths)

			assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
		})
	}
}

func TestAmortizeTotalMatchesInstallments(t *testing.T) {
	cases := []struct {
		principal   decimal.Decimal
		monthlyRate decimal.Decimal
		termMonths  int
	}{
		{decimal.NewFromInt(10000), decimal.NewFromFloat(0.025), 12},
		{decimal.NewFromFloat(9999.99), decimal.NewFromFloat(0.0175), 36},
		{decimal.NewFromInt(250000), decimal.NewFromFloat(0.009), 240},
		{decimal.NewFromInt(1000), decimal.Zero, 7},
	}

	for _, c := range cases {
		terms, err := Amortize(c.principal, c.monthlyRate, c.termMonths)
		require.NoError(t, err)

		product := terms.InstallmentAmount.Mul(decimal.NewFromInt(int64(c.termMonths)))
		diff := product.Sub(terms.TotalRepayable).Abs()
		assert.True(t, diff.LessThanOrEqual(decimal.NewFromFloat(0.01)),
			"A*n (%v) drifts from T (%v) by more than a cent", product, terms.TotalRepayable)

		if c.monthlyRate.IsZero() {
			// with no interest the total is the principal, so the even split
			// may only miss the principal by the accumulated rounding unit
			tolerance := decimal.NewFromFloat(0.005).Mul(decimal.NewFromInt(int64(c.termMonths)))
			assert.True(t, product.Sub(c.principal).Abs().LessThanOrEqual(tolerance),
				"zero-rate A*n (%v) too far from principal %v", product, c.principal)
		}
	}
}
