package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/credisol/lending-engine/internal/config"
	"github.com/credisol/lending-engine/internal/domain"
	"github.com/credisol/lending-engine/internal/repository"
	customError "github.com/credisol/lending-engine/pkg/errors"
)

// CreditService orchestrates the credit lifecycle: application intake and
// review, funding an approved application into a loan with its schedule, and
// payment application. The engine itself lives in the domain package; the
// service's job is loading aggregates, invoking it and persisting the result.
//
// Callers must serialize mutations to a given loan; the service assumes at
// most one in-flight mutation per loan and is safe across different loans.
type CreditService struct {
	ApplicationRepo repository.ApplicationRepository
	LoanRepo        repository.LoanRepository
	PaymentRepo     repository.PaymentRepository
	redis           *redis.Client
	config          *config.Config
}

func NewCreditService(
	applicationRepo repository.ApplicationRepository,
	loanRepo repository.LoanRepository,
	paymentRepo repository.PaymentRepository,
	redis *redis.Client,
	config *config.Config,
) *CreditService {
	return &CreditService{
		ApplicationRepo: applicationRepo,
		LoanRepo:        loanRepo,
		PaymentRepo:     paymentRepo,
		redis:           redis,
		config:          config,
	}
}

// SubmitApplication registers a new pending loan application.
func (s *CreditService) SubmitApplication(ctx context.Context, request *domain.SubmitApplicationRequest) (*domain.LoanApplication, error) {
	existing, err := s.ApplicationRepo.GetByApplicationID(ctx, request.ApplicationID)
	if err == nil && existing != nil {
		return nil, customError.WrapApplicationAlreadyExists(request.ApplicationID)
	}
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, customError.WrapDatabaseError(err)
	}

	if s.config != nil && request.TermMonths > s.config.Business.MaxTermMonths {
		return nil, customError.WrapInvalidArgument(
			fmt.Sprintf("term of %d months exceeds the maximum of %d", request.TermMonths, s.config.Business.MaxTermMonths))
	}

	app, err := domain.NewLoanApplication(
		request.ApplicationID,
		request.AgentID,
		request.ApplicantName,
		request.ApplicantDocument,
		request.ApplicantContact,
		request.Purpose,
		request.DeclaredIncome,
		request.Principal,
		request.MonthlyRate,
		request.TermMonths,
		time.Now(),
	)
	if err != nil {
		return nil, err
	}

	if err := s.ApplicationRepo.Create(ctx, app); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return app, nil
}

// StartReview moves an application into review.
func (s *CreditService) StartReview(ctx context.Context, applicationID string) (*domain.LoanApplication, error) {
	return s.transitionApplication(ctx, applicationID, func(app *domain.LoanApplication) error {
		return app.MarkInReview(time.Now())
	})
}

// ApproveApplication records a favourable decision.
func (s *CreditService) ApproveApplication(ctx context.Context, applicationID string, request *domain.DecisionRequest) (*domain.LoanApplication, error) {
	return s.transitionApplication(ctx, applicationID, func(app *domain.LoanApplication) error {
		return app.Approve(request.ReviewerID, request.Notes, time.Now())
	})
}

// RejectApplication records an unfavourable decision.
func (s *CreditService) RejectApplication(ctx context.Context, applicationID string, request *domain.DecisionRequest) (*domain.LoanApplication, error) {
	return s.transitionApplication(ctx, applicationID, func(app *domain.LoanApplication) error {
		return app.Reject(request.ReviewerID, request.Notes, time.Now())
	})
}

// CancelApplication withdraws an undecided application.
func (s *CreditService) CancelApplication(ctx context.Context, applicationID string, notes string) (*domain.LoanApplication, error) {
	return s.transitionApplication(ctx, applicationID, func(app *domain.LoanApplication) error {
		return app.Cancel(notes, time.Now())
	})
}

func (s *CreditService) transitionApplication(ctx context.Context, applicationID string, transition func(*domain.LoanApplication) error) (*domain.LoanApplication, error) {
	app, err := s.ApplicationRepo.GetByApplicationID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapApplicationNotFound(applicationID)
		}
		return nil, customError.WrapDatabaseError(err)
	}

	if err := transition(app); err != nil {
		return nil, err
	}

	if err := s.ApplicationRepo.Update(ctx, app); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return app, nil
}

// FundLoan turns an approved application into an active loan with its full
// installment schedule. Funding is one-way and happens at most once per
// application.
func (s *CreditService) FundLoan(ctx context.Context, applicationID string, request *domain.FundLoanRequest) (*domain.Loan, error) {
	app, err := s.ApplicationRepo.GetByApplicationID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapApplicationNotFound(applicationID)
		}
		return nil, customError.WrapDatabaseError(err)
	}

	existing, err := s.LoanRepo.GetByApplicationID(ctx, app.ID.String())
	if err == nil && existing != nil {
		return nil, customError.WrapLoanAlreadyExists(existing.LoanNumber)
	}
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, customError.WrapDatabaseError(err)
	}

	loan, err := domain.NewLoan(app, request.LoanNumber, request.ClientID, request.DisbursementDate)
	if err != nil {
		return nil, err
	}

	if err := s.LoanRepo.Create(ctx, loan); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return loan, nil
}

// RecordPayment applies a payment to one installment of a loan, persists the
// mutation and writes back the re-derived loan status. The payment is not
// complete until the status write-back succeeds. Receipt numbers are unique
// across all loans; a duplicate is rejected before anything is mutated.
func (s *CreditService) RecordPayment(ctx context.Context, loanNumber string, request *domain.RecordPaymentRequest) (*domain.Payment, error) {
	loan, err := s.loadLoan(ctx, loanNumber)
	if err != nil {
		return nil, err
	}

	duplicate, err := s.PaymentRepo.GetByReceiptNumber(ctx, request.ReceiptNumber)
	if err == nil && duplicate != nil {
		return nil, customError.WrapPaymentAlreadyExists(request.ReceiptNumber)
	}
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, customError.WrapDatabaseError(err)
	}

	payment, err := domain.NewPayment(
		request.ReceiptNumber,
		loan.ID,
		request.InstallmentNumber,
		request.Amount,
		request.PaymentDate,
		request.Method,
		request.OperationRef,
		request.RecordedBy,
		request.Notes,
	)
	if err != nil {
		return nil, err
	}

	if err := loan.ApplyPayment(payment, time.Now()); err != nil {
		return nil, err
	}

	installment := loan.Installment(payment.InstallmentNumber)

	if err := s.PaymentRepo.Create(ctx, payment); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	if err := s.LoanRepo.UpdateInstallment(ctx, installment); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	if err := s.LoanRepo.UpdateStatus(ctx, loan.ID.String(), loan.Status); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	s.invalidateSummary(ctx, loanNumber)

	return payment, nil
}

// GetSchedule returns the loan's amortization table with each installment's
// status derived for the current instant.
func (s *CreditService) GetSchedule(ctx context.Context, loanNumber string) (*domain.ScheduleResponse, error) {
	loan, err := s.loadLoan(ctx, loanNumber)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	entries := make([]domain.ScheduleEntry, 0, len(loan.Installments))
	for _, installment := range loan.Installments {
		entries = append(entries, domain.ScheduleEntry{
			Number:          installment.Number,
			DueDate:         installment.DueDate,
			TotalAmount:     installment.TotalAmount,
			CapitalPortion:  installment.CapitalPortion,
			InterestPortion: installment.InterestPortion,
			Balance:         installment.Balance,
			AmountPaid:      installment.AmountPaid,
			Status:          installment.StatusAt(now),
			DaysLate:        installment.DaysLateAt(now),
		})
	}

	return &domain.ScheduleResponse{
		LoanNumber: loanNumber,
		Entries:    entries,
	}, nil
}

// GetLoanSummary returns the derived aggregate view of a loan, read through a
// short-lived cache. A cache miss or failure falls back to recomputation.
func (s *CreditService) GetLoanSummary(ctx context.Context, loanNumber string) (*domain.LoanSummary, error) {
	if summary := s.cachedSummary(ctx, loanNumber); summary != nil {
		return summary, nil
	}

	loan, err := s.loadLoan(ctx, loanNumber)
	if err != nil {
		return nil, err
	}

	summary := loan.Summary(time.Now())
	s.cacheSummary(ctx, loanNumber, summary)

	return summary, nil
}

// RefreshLoanStatuses re-derives and persists the status of every open loan.
// Run nightly by the scheduler so a loan that went overdue overnight is
// reflected without waiting for a read. Returns the number of loans whose
// status changed.
func (s *CreditService) RefreshLoanStatuses(ctx context.Context) (int, error) {
	numbers, err := s.LoanRepo.ListNumbersByStatus(ctx, domain.LoanStatusActive, domain.LoanStatusOverdue)
	if err != nil {
		return 0, customError.WrapDatabaseError(err)
	}

	changed := 0
	now := time.Now()
	for _, number := range numbers {
		loan, err := s.loadLoan(ctx, number)
		if err != nil {
			return changed, err
		}

		previous := loan.Status
		if loan.RefreshStatus(now) == previous {
			continue
		}

		if err := s.LoanRepo.UpdateStatus(ctx, loan.ID.String(), loan.Status); err != nil {
			return changed, customError.WrapDatabaseError(err)
		}
		s.invalidateSummary(ctx, number)
		changed++
	}

	return changed, nil
}

// loadLoan hydrates a loan with its installments and payments.
func (s *CreditService) loadLoan(ctx context.Context, loanNumber string) (*domain.Loan, error) {
	loan, err := s.LoanRepo.GetByLoanNumber(ctx, loanNumber)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapLoanNotFound(loanNumber)
		}
		return nil, customError.WrapDatabaseError(err)
	}

	payments, err := s.PaymentRepo.GetByLoanID(ctx, loan.ID.String())
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, customError.WrapDatabaseError(err)
	}
	loan.Payments = payments

	return loan, nil
}

func summaryCacheKey(loanNumber string) string {
	return fmt.Sprintf("loan:summary:%s", loanNumber)
}

func (s *CreditService) cachedSummary(ctx context.Context, loanNumber string) *domain.LoanSummary {
	if s.redis == nil {
		return nil
	}

	raw, err := s.redis.Get(ctx, summaryCacheKey(loanNumber)).Result()
	if err != nil {
		return nil
	}

	var summary domain.LoanSummary
	if err := json.Unmarshal([]byte(raw), &summary); err != nil {
		return nil
	}

	return &summary
}

func (s *CreditService) cacheSummary(ctx context.Context, loanNumber string, summary *domain.LoanSummary) {
	if s.redis == nil {
		return
	}

	raw, err := json.Marshal(summary)
	if err != nil {
		return
	}

	ttl := 10 * time.Minute
	if s.config != nil {
		ttl = s.config.GetSummaryCacheTTL()
	}
	s.redis.Set(ctx, summaryCacheKey(loanNumber), raw, ttl)
}

func (s *CreditService) invalidateSummary(ctx context.Context, loanNumber string) {
	if s.redis == nil {
		return
	}
	s.redis.Del(ctx, summaryCacheKey(loanNumber))
}
