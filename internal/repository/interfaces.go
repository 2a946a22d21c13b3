package repository

import (
	"context"

	"github.com/credisol/lending-engine/internal/domain"
)

// ApplicationRepository defines the interface for loan application data operations
type ApplicationRepository interface {
	// Create persists a new application
	Create(ctx context.Context, app *domain.LoanApplication) error

	// GetByApplicationID retrieves an application by its business ID
	GetByApplicationID(ctx context.Context, applicationID string) (*domain.LoanApplication, error)

	// Update persists the mutable fields of an application after a transition
	Update(ctx context.Context, app *domain.LoanApplication) error
}

// LoanRepository defines the interface for loan and installment data operations
type LoanRepository interface {
	// Create persists a new loan together with its installment schedule
	Create(ctx context.Context, loan *domain.Loan) error

	// GetByLoanNumber retrieves a loan with its full installment collection
	GetByLoanNumber(ctx context.Context, loanNumber string) (*domain.Loan, error)

	// GetByApplicationID retrieves the loan funded from an application, if any
	GetByApplicationID(ctx context.Context, applicationID string) (*domain.Loan, error)

	// UpdateStatus persists a re-derived loan status
	UpdateStatus(ctx context.Context, loanID string, status string) error

	// UpdateInstallment persists the payment-related fields of one installment
	UpdateInstallment(ctx context.Context, installment *domain.Installment) error

	// ListNumbersByStatus lists loan numbers currently in any of the given statuses
	ListNumbersByStatus(ctx context.Context, statuses ...string) ([]string, error)
}

// PaymentRepository defines the interface for payment data operations
type PaymentRepository interface {
	// Create persists a new payment record
	Create(ctx context.Context, payment *domain.Payment) error

	// GetByLoanID retrieves all payments for a loan, oldest first
	GetByLoanID(ctx context.Context, loanID string) ([]*domain.Payment, error)

	// GetByReceiptNumber retrieves a payment by its receipt number
	GetByReceiptNumber(ctx context.Context, receiptNumber string) (*domain.Payment, error)
}
