package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/credisol/lending-engine/internal/domain"
	apperrors "github.com/credisol/lending-engine/pkg/errors"
	"github.com/credisol/lending-engine/tests/mocks"
)

func pendingApplication(t *testing.T) *domain.LoanApplication {
	t.Helper()
	app, err := domain.NewLoanApplication(
		"SOL-2024-0001",
		uuid.New(),
		"Maria Quispe",
		"45678912",
		"maria@example.com",
		"working capital",
		decimal.NewFromInt(2500),
		decimal.NewFromInt(10000),
		decimal.NewFromFloat(0.025),
		12,
		time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	return app
}

func fundedLoan(t *testing.T, disbursementDate time.Time) *domain.Loan {
	t.Helper()
	app := pendingApplication(t)
	require.NoError(t, app.Approve(uuid.New(), "", disbursementDate))

	loan, err := domain.NewLoan(app, "PRE-2024-0001", uuid.New(), disbursementDate)
	require.NoError(t, err)
	return loan
}

func TestStartReview(t *testing.T) {
	t.Run("Success - stamps the review timestamp", func(t *testing.T) {
		app := pendingApplication(t)
		appRepo := &mocks.MockApplicationRepository{}
		service := &CreditService{ApplicationRepo: appRepo}

		appRepo.On("GetByApplicationID", mock.Anything, app.ApplicationID).Return(app, nil)
		appRepo.On("Update", mock.Anything, mock.MatchedBy(func(updated *domain.LoanApplication) bool {
			return updated.Status == domain.ApplicationStatusInReview && updated.ReviewedAt != nil
		})).Return(nil)

		result, err := service.StartReview(context.Background(), app.ApplicationID)

		require.NoError(t, err)
		assert.Equal(t, domain.ApplicationStatusInReview, result.Status)
		appRepo.AssertExpectations(t)
	})

	t.Run("Failure - application not found", func(t *testing.T) {
		appRepo := &mocks.MockApplicationRepository{}
		service := &CreditService{ApplicationRepo: appRepo}

		appRepo.On("GetByApplicationID", mock.Anything, "SOL-missing").Return(nil, sql.ErrNoRows)

		result, err := service.StartReview(context.Background(), "SOL-missing")

		assert.ErrorIs(t, err, apperrors.ErrApplicationNotFound)
		assert.Nil(t, result)
		appRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})
}

func TestApproveApplication(t *testing.T) {
	decision := &domain.DecisionRequest{ReviewerID: uuid.New(), Notes: "income verified"}

	t.Run("Success - pending application is approved", func(t *testing.T) {
		app := pendingApplication(t)
		appRepo := &mocks.MockApplicationRepository{}
		service := &CreditService{ApplicationRepo: appRepo}

		appRepo.On("GetByApplicationID", mock.Anything, app.ApplicationID).Return(app, nil)
		appRepo.On("Update", mock.Anything, mock.MatchedBy(func(updated *domain.LoanApplication) bool {
			return updated.Status == domain.ApplicationStatusApproved && updated.DecidedAt != nil
		})).Return(nil)

		result, err := service.ApproveApplication(context.Background(), app.ApplicationID, decision)

		require.NoError(t, err)
		assert.Equal(t, domain.ApplicationStatusApproved, result.Status)
		appRepo.AssertExpectations(t)
	})

	t.Run("Failure - rejected application cannot be approved", func(t *testing.T) {
		app := pendingApplication(t)
		require.NoError(t, app.Reject(uuid.New(), "insufficient income", time.Now()))

		appRepo := &mocks.MockApplicationRepository{}
		service := &CreditService{ApplicationRepo: appRepo}

		appRepo.On("GetByApplicationID", mock.Anything, app.ApplicationID).Return(app, nil)

		result, err := service.ApproveApplication(context.Background(), app.ApplicationID, decision)

		assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
		assert.Contains(t, err.Error(), domain.ApplicationStatusRejected)
		assert.Nil(t, result)
		appRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})
}

func TestCancelApplication(t *testing.T) {
	t.Run("Success - open application is withdrawn", func(t *testing.T) {
		app := pendingApplication(t)
		appRepo := &mocks.MockApplicationRepository{}
		service := &CreditService{ApplicationRepo: appRepo}

		appRepo.On("GetByApplicationID", mock.Anything, app.ApplicationID).Return(app, nil)
		appRepo.On("Update", mock.Anything, mock.Anything).Return(nil)

		result, err := service.CancelApplication(context.Background(), app.ApplicationID, "client withdrew")

		require.NoError(t, err)
		assert.Equal(t, domain.ApplicationStatusCancelled, result.Status)
		appRepo.AssertExpectations(t)
	})

	t.Run("Failure - decided application cannot be cancelled", func(t *testing.T) {
		app := pendingApplication(t)
		require.NoError(t, app.Approve(uuid.New(), "", time.Now()))

		appRepo := &mocks.MockApplicationRepository{}
		service := &CreditService{ApplicationRepo: appRepo}

		appRepo.On("GetByApplicationID", mock.Anything, app.ApplicationID).Return(app, nil)

		result, err := service.CancelApplication(context.Background(), app.ApplicationID, "too late")

		assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
		assert.Nil(t, result)
		appRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})
}

func TestRecordPayment(t *testing.T) {
	recordedBy := uuid.New()

	t.Run("Success - full payment settles the installment", func(t *testing.T) {
		loan := fundedLoan(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))
		first := loan.Installments[0]

		loanRepo := &mocks.MockLoanRepository{}
		paymentRepo := &mocks.MockPaymentRepository{}
		service := &CreditService{LoanRepo: loanRepo, PaymentRepo: paymentRepo}

		loanRepo.On("GetByLoanNumber", mock.Anything, loan.LoanNumber).Return(loan, nil)
		paymentRepo.On("GetByLoanID", mock.Anything, loan.ID.String()).Return(nil, sql.ErrNoRows)
		paymentRepo.On("GetByReceiptNumber", mock.Anything, "REC-0001").Return(nil, sql.ErrNoRows)
		paymentRepo.On("Create", mock.Anything, mock.MatchedBy(func(payment *domain.Payment) bool {
			return payment.ReceiptNumber == "REC-0001" && payment.InstallmentNumber == 1
		})).Return(nil)
		loanRepo.On("UpdateInstallment", mock.Anything, mock.MatchedBy(func(installment *domain.Installment) bool {
			return installment.Number == 1 && installment.Paid
		})).Return(nil)
		loanRepo.On("UpdateStatus", mock.Anything, loan.ID.String(), mock.AnythingOfType("string")).Return(nil)

		payment, err := service.RecordPayment(context.Background(), loan.LoanNumber, &domain.RecordPaymentRequest{
			ReceiptNumber:     "REC-0001",
			InstallmentNumber: 1,
			Amount:            first.TotalAmount,
			PaymentDate:       first.DueDate,
			Method:            domain.PaymentMethodCash,
			RecordedBy:        recordedBy,
		})

		require.NoError(t, err)
		require.NotNil(t, payment)
		assert.True(t, first.Paid)
		loanRepo.AssertExpectations(t)
		paymentRepo.AssertExpectations(t)
	})

	t.Run("Failure - duplicate receipt number", func(t *testing.T) {
		loan := fundedLoan(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))
		first := loan.Installments[0]
		existing := &domain.Payment{ReceiptNumber: "REC-0001"}

		loanRepo := &mocks.MockLoanRepository{}
		paymentRepo := &mocks.MockPaymentRepository{}
		service := &CreditService{LoanRepo: loanRepo, PaymentRepo: paymentRepo}

		loanRepo.On("GetByLoanNumber", mock.Anything, loan.LoanNumber).Return(loan, nil)
		paymentRepo.On("GetByLoanID", mock.Anything, loan.ID.String()).Return(nil, sql.ErrNoRows)
		paymentRepo.On("GetByReceiptNumber", mock.Anything, "REC-0001").Return(existing, nil)

		payment, err := service.RecordPayment(context.Background(), loan.LoanNumber, &domain.RecordPaymentRequest{
			ReceiptNumber:     "REC-0001",
			InstallmentNumber: 1,
			Amount:            first.TotalAmount,
			PaymentDate:       first.DueDate,
			Method:            domain.PaymentMethodCash,
			RecordedBy:        recordedBy,
		})

		assert.ErrorIs(t, err, apperrors.ErrPaymentAlreadyExists)
		assert.Nil(t, payment)
		assert.False(t, first.Paid, "rejected duplicate must not mutate the loan")
		paymentRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		loanRepo.AssertNotCalled(t, "UpdateInstallment", mock.Anything, mock.Anything)
	})

	t.Run("Failure - transfer without an operation reference", func(t *testing.T) {
		loan := fundedLoan(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))

		loanRepo := &mocks.MockLoanRepository{}
		paymentRepo := &mocks.MockPaymentRepository{}
		service := &CreditService{LoanRepo: loanRepo, PaymentRepo: paymentRepo}

		loanRepo.On("GetByLoanNumber", mock.Anything, loan.LoanNumber).Return(loan, nil)
		paymentRepo.On("GetByLoanID", mock.Anything, loan.ID.String()).Return(nil, sql.ErrNoRows)
		paymentRepo.On("GetByReceiptNumber", mock.Anything, "REC-0002").Return(nil, sql.ErrNoRows)

		payment, err := service.RecordPayment(context.Background(), loan.LoanNumber, &domain.RecordPaymentRequest{
			ReceiptNumber:     "REC-0002",
			InstallmentNumber: 1,
			Amount:            decimal.NewFromInt(100),
			PaymentDate:       time.Now(),
			Method:            domain.PaymentMethodTransfer,
			RecordedBy:        recordedBy,
		})

		assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
		assert.Nil(t, payment)
		paymentRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		loanRepo.AssertNotCalled(t, "UpdateInstallment", mock.Anything, mock.Anything)
	})

	t.Run("Failure - installment number outside the schedule", func(t *testing.T) {
		loan := fundedLoan(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))

		loanRepo := &mocks.MockLoanRepository{}
		paymentRepo := &mocks.MockPaymentRepository{}
		service := &CreditService{LoanRepo: loanRepo, PaymentRepo: paymentRepo}

		loanRepo.On("GetByLoanNumber", mock.Anything, loan.LoanNumber).Return(loan, nil)
		paymentRepo.On("GetByLoanID", mock.Anything, loan.ID.String()).Return(nil, sql.ErrNoRows)
		paymentRepo.On("GetByReceiptNumber", mock.Anything, "REC-0003").Return(nil, sql.ErrNoRows)

		payment, err := service.RecordPayment(context.Background(), loan.LoanNumber, &domain.RecordPaymentRequest{
			ReceiptNumber:     "REC-0003",
			InstallmentNumber: 99,
			Amount:            decimal.NewFromInt(100),
			PaymentDate:       time.Now(),
			Method:            domain.PaymentMethodCash,
			RecordedBy:        recordedBy,
		})

		assert.ErrorIs(t, err, apperrors.ErrInconsistentAggregate)
		assert.Nil(t, payment)
		paymentRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("Failure - loan not found", func(t *testing.T) {
		loanRepo := &mocks.MockLoanRepository{}
		service := &CreditService{LoanRepo: loanRepo}

		loanRepo.On("GetByLoanNumber", mock.Anything, "PRE-missing").Return(nil, sql.ErrNoRows)

		payment, err := service.RecordPayment(context.Background(), "PRE-missing", &domain.RecordPaymentRequest{})

		assert.ErrorIs(t, err, apperrors.ErrLoanNotFound)
		assert.Nil(t, payment)
	})
}

func TestRefreshLoanStatuses(t *testing.T) {
	t.Run("Overdue loan gets its new status persisted", func(t *testing.T) {
		// funded long enough ago that its installments are past due
		loan := fundedLoan(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))
		require.Equal(t, domain.LoanStatusActive, loan.Status)

		loanRepo := &mocks.MockLoanRepository{}
		paymentRepo := &mocks.MockPaymentRepository{}
		service := &CreditService{LoanRepo: loanRepo, PaymentRepo: paymentRepo}

		loanRepo.On("ListNumbersByStatus", mock.Anything, domain.LoanStatusActive, domain.LoanStatusOverdue).
			Return([]string{loan.LoanNumber}, nil)
		loanRepo.On("GetByLoanNumber", mock.Anything, loan.LoanNumber).Return(loan, nil)
		paymentRepo.On("GetByLoanID", mock.Anything, loan.ID.String()).Return(nil, sql.ErrNoRows)
		loanRepo.On("UpdateStatus", mock.Anything, loan.ID.String(), domain.LoanStatusOverdue).Return(nil)

		changed, err := service.RefreshLoanStatuses(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 1, changed)
		assert.Equal(t, domain.LoanStatusOverdue, loan.Status)
		loanRepo.AssertExpectations(t)
	})

	t.Run("Loan with nothing due yet is left alone", func(t *testing.T) {
		// funded today, first installment due next month
		loan := fundedLoan(t, time.Now())

		loanRepo := &mocks.MockLoanRepository{}
		paymentRepo := &mocks.MockPaymentRepository{}
		service := &CreditService{LoanRepo: loanRepo, PaymentRepo: paymentRepo}

		loanRepo.On("ListNumbersByStatus", mock.Anything, domain.LoanStatusActive, domain.LoanStatusOverdue).
			Return([]string{loan.LoanNumber}, nil)
		loanRepo.On("GetByLoanNumber", mock.Anything, loan.LoanNumber).Return(loan, nil)
		paymentRepo.On("GetByLoanID", mock.Anything, loan.ID.String()).Return(nil, sql.ErrNoRows)

		changed, err := service.RefreshLoanStatuses(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 0, changed)
		loanRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Empty result set is a no-op", func(t *testing.T) {
		loanRepo := &mocks.MockLoanRepository{}
		service := &CreditService{LoanRepo: loanRepo}

		loanRepo.On("ListNumbersByStatus", mock.Anything, domain.LoanStatusActive, domain.LoanStatusOverdue).
			Return([]string{}, nil)

		changed, err := service.RefreshLoanStatuses(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 0, changed)
	})
}
