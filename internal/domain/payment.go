package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	apperrors "github.com/credisol/lending-engine/pkg/errors"
)

// Payment methods
const (
	PaymentMethodCash     = "cash"
	PaymentMethodTransfer = "transfer"
	PaymentMethodCheck    = "check"
	PaymentMethodDeposit  = "deposit"
)

// Payment is a single payment event against one installment of a loan (pago).
// Payments are immutable once created; a correction is a new compensating
// record, never an edit.
type Payment struct {
	ID                uuid.UUID       `json:"id" db:"id"`
	ReceiptNumber     string          `json:"receipt_number" db:"receipt_number"`
	LoanID            uuid.UUID       `json:"loan_id" db:"loan_id"`
	InstallmentNumber int             `json:"installment_number" db:"installment_number"`
	Amount            decimal.Decimal `json:"amount" db:"amount"`
	PaymentDate       time.Time       `json:"payment_date" db:"payment_date"`
	Method            string          `json:"method" db:"method"`
	OperationRef      string          `json:"operation_ref" db:"operation_ref"`
	RecordedBy        uuid.UUID       `json:"recorded_by" db:"recorded_by"`
	Notes             string          `json:"notes" db:"notes"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
}

// NewPayment validates and builds a payment record. Methods other than cash
// must carry the external operation reference of the transfer, check or
// deposit slip.
func NewPayment(receiptNumber string, loanID uuid.UUID, installmentNumber int, amount decimal.Decimal, paymentDate time.Time, method, operationRef string, recordedBy uuid.UUID, notes string) (*Payment, error) {
	if receiptNumber == "" {
		return nil, apperrors.WrapInvalidArgument("receipt number is required")
	}
	if loanID == uuid.Nil {
		return nil, apperrors.WrapInvalidArgument("loan reference is required")
	}
	if installmentNumber < 1 {
		return nil, apperrors.WrapInvalidArgument("installment number must be at least 1")
	}
	if !amount.IsPositive() {
		return nil, apperrors.WrapInvalidArgument("payment amount must be greater than zero")
	}
	if !ValidPaymentMethod(method) {
		return nil, apperrors.WrapInvalidArgument(fmt.Sprintf("unknown payment method %q", method))
	}
	if method != PaymentMethodCash && operationRef == "" {
		return nil, apperrors.WrapInvalidArgument(fmt.Sprintf("operation reference is required for %s payments", method))
	}
	if recordedBy == uuid.Nil {
		return nil, apperrors.WrapInvalidArgument("recording user reference is required")
	}

	return &Payment{
		ID:                uuid.New(),
		ReceiptNumber:     receiptNumber,
		LoanID:            loanID,
		InstallmentNumber: installmentNumber,
		Amount:            amount,
		PaymentDate:       paymentDate,
		Method:            method,
		OperationRef:      operationRef,
		RecordedBy:        recordedBy,
		Notes:             notes,
	}, nil
}

// ValidPaymentMethod reports whether method is one of the accepted payment
// methods.
func ValidPaymentMethod(method string) bool {
	switch method {
	case PaymentMethodCash, PaymentMethodTransfer, PaymentMethodCheck, PaymentMethodDeposit:
		return true
	}
	return false
}

// DTOs for requests

type RecordPaymentRequest struct {
	ReceiptNumber     string          `json:"receipt_number" validate:"required"`
	InstallmentNumber int             `json:"installment_number" validate:"required,gt=0"`
	Amount            decimal.Decimal `json:"amount" validate:"required,decimal_gt=0"`
	PaymentDate       time.Time       `json:"payment_date" validate:"required"`
	Method            string          `json:"method" validate:"required,oneof=cash transfer check deposit"`
	OperationRef      string          `json:"operation_ref"`
	RecordedBy        uuid.UUID       `json:"recorded_by" validate:"required"`
	Notes             string          `json:"notes"`
}
