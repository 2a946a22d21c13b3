package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	apperrors "github.com/credisol/lending-engine/pkg/errors"
)

// Application statuses. Approved, rejected and cancelled are terminal.
const (
	ApplicationStatusPending   = "pending"
	ApplicationStatusInReview  = "in_review"
	ApplicationStatusApproved  = "approved"
	ApplicationStatusRejected  = "rejected"
	ApplicationStatusCancelled = "cancelled"
)

// LoanApplication is a pre-funding loan request (solicitud). The applicant
// fields are a snapshot captured at submission time, not a live reference to
// a client record.
type LoanApplication struct {
	ID                uuid.UUID       `json:"id" db:"id"`
	ApplicationID     string          `json:"application_id" db:"application_id"`
	ApplicantName     string          `json:"applicant_name" db:"applicant_name"`
	ApplicantDocument string          `json:"applicant_document" db:"applicant_document"`
	ApplicantContact  string          `json:"applicant_contact" db:"applicant_contact"`
	AgentID           uuid.UUID       `json:"agent_id" db:"agent_id"`
	Purpose           string          `json:"purpose" db:"purpose"`
	DeclaredIncome    decimal.Decimal `json:"declared_income" db:"declared_income"`
	Principal         decimal.Decimal `json:"principal" db:"principal"`
	TermMonths        int             `json:"term_months" db:"term_months"`
	MonthlyRate       decimal.Decimal `json:"monthly_rate" db:"monthly_rate"`
	Status            string          `json:"status" db:"status"`
	SubmittedAt       time.Time       `json:"submitted_at" db:"submitted_at"`
	ReviewedAt        *time.Time      `json:"reviewed_at,omitempty" db:"reviewed_at"`
	DecidedAt         *time.Time      `json:"decided_at,omitempty" db:"decided_at"`
	ReviewerID        *uuid.UUID      `json:"reviewer_id,omitempty" db:"reviewer_id"`
	DecisionNotes     string          `json:"decision_notes" db:"decision_notes"`
}

// NewLoanApplication builds a pending application submitted by an agent. The
// agent reference is assumed to exist; the engine only requires it to be
// present.
func NewLoanApplication(applicationID string, agentID uuid.UUID, applicantName, applicantDocument, applicantContact, purpose string, declaredIncome, principal, monthlyRate decimal.Decimal, termMonths int, submittedAt time.Time) (*LoanApplication, error) {
	if applicationID == "" {
		return nil, apperrors.WrapInvalidArgument("application ID is required")
	}
	if agentID == uuid.Nil {
		return nil, apperrors.WrapInvalidArgument("requesting agent reference is required")
	}
	if applicantName == "" || applicantDocument == "" {
		return nil, apperrors.WrapInvalidArgument("applicant name and document are required")
	}
	if !principal.IsPositive() {
		return nil, apperrors.WrapInvalidArgument("requested principal must be greater than zero")
	}
	if monthlyRate.IsNegative() {
		return nil, apperrors.WrapInvalidArgument("monthly rate must not be negative")
	}
	if termMonths < 1 {
		return nil, apperrors.WrapInvalidArgument("term must be at least one month")
	}
	if declaredIncome.IsNegative() {
		return nil, apperrors.WrapInvalidArgument("declared income must not be negative")
	}

	return &LoanApplication{
		ID:                uuid.New(),
		ApplicationID:     applicationID,
		ApplicantName:     applicantName,
		ApplicantDocument: applicantDocument,
		ApplicantContact:  applicantContact,
		AgentID:           agentID,
		Purpose:           purpose,
		DeclaredIncome:    declaredIncome,
		Principal:         principal,
		TermMonths:        termMonths,
		MonthlyRate:       monthlyRate,
		Status:            ApplicationStatusPending,
		SubmittedAt:       submittedAt,
	}, nil
}

// IsTerminal reports whether the application has reached a final decision.
func (a *LoanApplication) IsTerminal() bool {
	switch a.Status {
	case ApplicationStatusApproved, ApplicationStatusRejected, ApplicationStatusCancelled:
		return true
	}
	return false
}

func (a *LoanApplication) open() bool {
	return a.Status == ApplicationStatusPending || a.Status == ApplicationStatusInReview
}

// MarkInReview moves a pending application into review. Re-entry from
// in_review is allowed and keeps the original review timestamp.
func (a *LoanApplication) MarkInReview(at time.Time) error {
	if !a.open() {
		return apperrors.WrapInvalidTransition("mark in review", a.Status)
	}
	if a.ReviewedAt == nil {
		a.ReviewedAt = &at
	}
	a.Status = ApplicationStatusInReview
	return nil
}

// Approve decides the application favourably. It is the sole trigger that may
// construct a loan from the application's terms.
func (a *LoanApplication) Approve(reviewerID uuid.UUID, notes string, at time.Time) error {
	return a.decide(ApplicationStatusApproved, "approve", reviewerID, notes, at)
}

// Reject decides the application unfavourably.
func (a *LoanApplication) Reject(reviewerID uuid.UUID, notes string, at time.Time) error {
	return a.decide(ApplicationStatusRejected, "reject", reviewerID, notes, at)
}

func (a *LoanApplication) decide(status, operation string, reviewerID uuid.UUID, notes string, at time.Time) error {
	if reviewerID == uuid.Nil {
		return apperrors.WrapInvalidArgument("reviewer reference is required")
	}
	if !a.open() {
		return apperrors.WrapInvalidTransition(operation, a.Status)
	}
	a.Status = status
	a.ReviewerID = &reviewerID
	a.DecidedAt = &at
	a.DecisionNotes = notes
	return nil
}

// Cancel withdraws an application that has not been decided yet.
func (a *LoanApplication) Cancel(notes string, at time.Time) error {
	if !a.open() {
		return apperrors.WrapInvalidTransition("cancel", a.Status)
	}
	a.Status = ApplicationStatusCancelled
	a.DecidedAt = &at
	a.DecisionNotes = notes
	return nil
}

// DTOs for requests

type SubmitApplicationRequest struct {
	ApplicationID     string          `json:"application_id" validate:"required"`
	AgentID           uuid.UUID       `json:"agent_id" validate:"required"`
	ApplicantName     string          `json:"applicant_name" validate:"required"`
	ApplicantDocument string          `json:"applicant_document" validate:"required"`
	ApplicantContact  string          `json:"applicant_contact"`
	Purpose           string          `json:"purpose"`
	DeclaredIncome    decimal.Decimal `json:"declared_income" validate:"decimal_gte=0"`
	Principal         decimal.Decimal `json:"principal" validate:"required,decimal_gt=0"`
	TermMonths        int             `json:"term_months" validate:"required,gt=0"`
	MonthlyRate       decimal.Decimal `json:"monthly_rate" validate:"decimal_gte=0"`
}

type DecisionRequest struct {
	ReviewerID uuid.UUID `json:"reviewer_id" validate:"required"`
	Notes      string    `json:"notes"`
}

type CancelApplicationRequest struct {
	Notes string `json:"notes"`
}
