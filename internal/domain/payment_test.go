package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/credisol/lending-engine/pkg/errors"
)

func TestNewPayment(t *testing.T) {
	loanID := uuid.New()
	recordedBy := uuid.New()
	paymentDate := time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)

	payment, err := NewPayment("REC-0001", loanID, 1, decimal.NewFromFloat(974.87), paymentDate, PaymentMethodCash, "", recordedBy, "")

	require.NoError(t, err)
	assert.Equal(t, "REC-0001", payment.ReceiptNumber)
	assert.Equal(t, loanID, payment.LoanID)
	assert.Equal(t, 1, payment.InstallmentNumber)
	assert.NotEqual(t, uuid.Nil, payment.ID)
}

func TestNewPaymentNonCashRequiresOperationRef(t *testing.T) {
	loanID := uuid.New()
	recordedBy := uuid.New()
	paymentDate := time.Now()
	amount := decimal.NewFromInt(100)

	for _, method := range []string{PaymentMethodTransfer, PaymentMethodCheck, PaymentMethodDeposit} {
		_, err := NewPayment("REC-0002", loanID, 1, amount, paymentDate, method, "", recordedBy, "")
		assert.ErrorIs(t, err, apperrors.ErrInvalidArgument, "method %s must require an operation reference", method)

		_, err = NewPayment("REC-0002", loanID, 1, amount, paymentDate, method, "OP-778899", recordedBy, "")
		assert.NoError(t, err)
	}
}

func TestNewPaymentValidation(t *testing.T) {
	loanID := uuid.New()
	recordedBy := uuid.New()
	paymentDate := time.Now()
	amount := decimal.NewFromInt(100)

	tests := []struct {
		name  string
		build func() (*Payment, error)
	}{
		{
			name: "missing receipt number",
			build: func() (*Payment, error) {
				return NewPayment("", loanID, 1, amount, paymentDate, PaymentMethodCash, "", recordedBy, "")
			},
		},
		{
			name: "missing loan reference",
			build: func() (*Payment, error) {
				return NewPayment("REC-1", uuid.Nil, 1, amount, paymentDate, PaymentMethodCash, "", recordedBy, "")
			},
		},
		{
			name: "installment number below one",
			build: func() (*Payment, error) {
				return NewPayment("REC-1", loanID, 0, amount, paymentDate, PaymentMethodCash, "", recordedBy, "")
			},
		},
		{
			name: "zero amount",
			build: func() (*Payment, error) {
				return NewPayment("REC-1", loanID, 1, decimal.Zero, paymentDate, PaymentMethodCash, "", recordedBy, "")
			},
		},
		{
			name: "negative amount",
			build: func() (*Payment, error) {
				return NewPayment("REC-1", loanID, 1, decimal.NewFromInt(-50), paymentDate, PaymentMethodCash, "", recordedBy, "")
			},
		},
		{
			name: "unknown method",
			build: func() (*Payment, error) {
				return NewPayment("REC-1", loanID, 1, amount, paymentDate, "crypto", "", recordedBy, "")
			},
		},
		{
			name: "missing recording user",
			build: func() (*Payment, error) {
				return NewPayment("REC-1", loanID, 1, amount, paymentDate, PaymentMethodCash, "", uuid.Nil, "")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.build()
			assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
		})
	}
}
