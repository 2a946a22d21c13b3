package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	apperrors "github.com/credisol/lending-engine/pkg/errors"
	"github.com/credisol/lending-engine/pkg/utils"
)

// Loan statuses. Paid and cancelled are terminal.
const (
	LoanStatusActive    = "active"
	LoanStatusOverdue   = "overdue"
	LoanStatusPaid      = "paid"
	LoanStatusCancelled = "cancelled"
)

// Loan is a funded credit (prestamo). It owns its installments and payments;
// a payment targets an installment by sequence number, never by embedded
// reference. InstallmentAmount and TotalRepayable are derived from
// (principal, rate, term) at construction time and are never edited
// independently.
type Loan struct {
	ID                uuid.UUID       `json:"id" db:"id"`
	LoanNumber        string          `json:"loan_number" db:"loan_number"`
	ApplicationID     uuid.UUID       `json:"application_id" db:"application_id"`
	ClientID          uuid.UUID       `json:"client_id" db:"client_id"`
	AgentID           uuid.UUID       `json:"agent_id" db:"agent_id"`
	Principal         decimal.Decimal `json:"principal" db:"principal"`
	MonthlyRate       decimal.Decimal `json:"monthly_rate" db:"monthly_rate"`
	TermMonths        int             `json:"term_months" db:"term_months"`
	InstallmentAmount decimal.Decimal `json:"installment_amount" db:"installment_amount"`
	TotalRepayable    decimal.Decimal `json:"total_repayable" db:"total_repayable"`
	Status            string          `json:"status" db:"status"`
	DisbursementDate  time.Time       `json:"disbursement_date" db:"disbursement_date"`
	FirstDueDate      time.Time       `json:"first_due_date" db:"first_due_date"`
	LastDueDate       time.Time       `json:"last_due_date" db:"last_due_date"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at" db:"updated_at"`

	Installments []*Installment `json:"installments,omitempty" db:"-"`
	Payments     []*Payment     `json:"payments,omitempty" db:"-"`
}

// NewLoan funds an approved application: it computes the annuity terms,
// generates the full installment schedule and returns an active loan. This is
// the only path that constructs a loan; any application state other than
// approved is rejected.
func NewLoan(app *LoanApplication, loanNumber string, clientID uuid.UUID, disbursementDate time.Time) (*Loan, error) {
	if app == nil {
		return nil, apperrors.WrapInvalidArgument("application is required")
	}
	if app.Status != ApplicationStatusApproved {
		return nil, apperrors.WrapInvalidTransition("fund", app.Status)
	}
	if loanNumber == "" {
		return nil, apperrors.WrapInvalidArgument("loan number is required")
	}
	if clientID == uuid.Nil {
		return nil, apperrors.WrapInvalidArgument("client reference is required")
	}

	terms, err := Amortize(app.Principal, app.MonthlyRate, app.TermMonths)
	if err != nil {
		return nil, err
	}

	loan := &Loan{
		ID:                uuid.New(),
		LoanNumber:        loanNumber,
		ApplicationID:     app.ID,
		ClientID:          clientID,
		AgentID:           app.AgentID,
		Principal:         app.Principal,
		MonthlyRate:       app.MonthlyRate,
		TermMonths:        app.TermMonths,
		InstallmentAmount: terms.InstallmentAmount,
		TotalRepayable:    terms.TotalRepayable,
		Status:            LoanStatusActive,
		DisbursementDate:  disbursementDate,
	}

	installments, err := GenerateSchedule(loan.ID, app.Principal, app.MonthlyRate, app.TermMonths, disbursementDate)
	if err != nil {
		return nil, err
	}
	loan.Installments = installments
	loan.FirstDueDate = installments[0].DueDate
	loan.LastDueDate = installments[len(installments)-1].DueDate

	return loan, nil
}

// Installment returns the installment with the given sequence number, or nil.
func (l *Loan) Installment(number int) *Installment {
	for _, installment := range l.Installments {
		if installment.Number == number {
			return installment
		}
	}
	return nil
}

// ApplyPayment applies a payment to the installment it targets and re-derives
// the loan status. The whole operation is all-or-nothing: every check runs
// before the first field changes.
//
// The cumulative amount paid may exceed the installment total; the excess
// stays on the installment and is not cascaded to later ones. Days late are
// recomputed from each payment's date until the installment is fully paid, so
// the recorded value reflects the completing payment, not the first partial.
func (l *Loan) ApplyPayment(payment *Payment, now time.Time) error {
	if payment == nil {
		return apperrors.WrapInvalidArgument("payment is required")
	}
	if !payment.Amount.IsPositive() {
		return apperrors.WrapInvalidArgument("payment amount must be greater than zero")
	}
	if payment.LoanID != l.ID {
		return apperrors.WrapInconsistentAggregate(
			fmt.Sprintf("payment %s targets loan %s, not loan %s", payment.ReceiptNumber, payment.LoanID, l.ID))
	}
	installment := l.Installment(payment.InstallmentNumber)
	if installment == nil {
		return apperrors.WrapInconsistentAggregate(
			fmt.Sprintf("payment %s targets installment %d, which does not belong to loan %s", payment.ReceiptNumber, payment.InstallmentNumber, l.LoanNumber))
	}

	installment.AmountPaid = installment.AmountPaid.Add(payment.Amount)
	if !installment.Paid {
		installment.DaysLate = utils.DaysLate(installment.DueDate, payment.PaymentDate)
		if installment.AmountPaid.GreaterThanOrEqual(installment.TotalAmount) {
			installment.Paid = true
			paidAt := payment.PaymentDate
			installment.PaymentDate = &paidAt
		}
	}

	l.Payments = append(l.Payments, payment)
	l.RefreshStatus(now)
	return nil
}

// TotalPaid sums every payment recorded against the loan.
func (l *Loan) TotalPaid() decimal.Decimal {
	total := decimal.Zero
	for _, payment := range l.Payments {
		total = total.Add(payment.Amount)
	}
	return total
}

// CurrentDebt is the total repayable minus everything paid so far.
func (l *Loan) CurrentDebt() decimal.Decimal {
	return l.TotalRepayable.Sub(l.TotalPaid())
}

// PercentAdvanced is the repaid fraction of the total, as a 4-decimal value
// between 0 and 1. Zero when the total repayable is zero.
func (l *Loan) PercentAdvanced() decimal.Decimal {
	if l.TotalRepayable.IsZero() {
		return decimal.Zero
	}
	advanced := l.TotalRepayable.Sub(l.CurrentDebt())
	return advanced.DivRound(l.TotalRepayable, 4)
}

// PendingCount counts installments not yet fully paid.
func (l *Loan) PendingCount() int {
	count := 0
	for _, installment := range l.Installments {
		if !installment.Paid {
			count++
		}
	}
	return count
}

// OverdueCount counts unpaid installments past their due date at the given
// instant.
func (l *Loan) OverdueCount(now time.Time) int {
	count := 0
	for _, installment := range l.Installments {
		if installment.IsOverdueAt(now) {
			count++
		}
	}
	return count
}

// NextDue returns the unpaid installment with the earliest due date, or nil
// when everything is paid.
func (l *Loan) NextDue() *Installment {
	var next *Installment
	for _, installment := range l.Installments {
		if installment.Paid {
			continue
		}
		if next == nil || installment.DueDate.Before(next.DueDate) {
			next = installment
		}
	}
	return next
}

// RefreshStatus re-derives the loan status from its installments: paid when
// nothing is pending, overdue when any pending installment is past due,
// active otherwise. Idempotent; must run after every payment application. A
// cancelled loan stays cancelled.
func (l *Loan) RefreshStatus(now time.Time) string {
	if l.Status == LoanStatusCancelled {
		return l.Status
	}
	switch {
	case l.PendingCount() == 0:
		l.Status = LoanStatusPaid
	case l.OverdueCount(now) > 0:
		l.Status = LoanStatusOverdue
	default:
		l.Status = LoanStatusActive
	}
	return l.Status
}

// Cancel moves the loan to its cancelled terminal status. Paid and cancelled
// loans reject the transition.
func (l *Loan) Cancel() error {
	if l.Status == LoanStatusPaid || l.Status == LoanStatusCancelled {
		return apperrors.WrapInvalidTransition("cancel", l.Status)
	}
	l.Status = LoanStatusCancelled
	return nil
}

// DTOs for requests and responses

type FundLoanRequest struct {
	LoanNumber       string    `json:"loan_number" validate:"required"`
	ClientID         uuid.UUID `json:"client_id" validate:"required"`
	DisbursementDate time.Time `json:"disbursement_date" validate:"required"`
}

type FundLoanResponse struct {
	Loan     *Loan          `json:"loan"`
	Schedule []*Installment `json:"schedule"`
}

type ScheduleEntry struct {
	Number          int             `json:"number"`
	DueDate         time.Time       `json:"due_date"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	CapitalPortion  decimal.Decimal `json:"capital_portion"`
	InterestPortion decimal.Decimal `json:"interest_portion"`
	Balance         decimal.Decimal `json:"balance"`
	AmountPaid      decimal.Decimal `json:"amount_paid"`
	Status          string          `json:"status"`
	DaysLate        int             `json:"days_late"`
}

type ScheduleResponse struct {
	LoanNumber string          `json:"loan_number"`
	Entries    []ScheduleEntry `json:"entries"`
}

type LoanSummary struct {
	LoanNumber      string          `json:"loan_number"`
	Status          string          `json:"status"`
	CurrentDebt     decimal.Decimal `json:"current_debt"`
	PercentAdvanced decimal.Decimal `json:"percent_advanced"`
	PendingCount    int             `json:"pending_count"`
	OverdueCount    int             `json:"overdue_count"`
	NextDueNumber   int             `json:"next_due_number,omitempty"`
	NextDueDate     *time.Time      `json:"next_due_date,omitempty"`
}

// Summary derives the aggregate view of the loan at the given instant.
// Nothing here is cached; every number is recomputed from the installments
// and payments.
func (l *Loan) Summary(now time.Time) *LoanSummary {
	summary := &LoanSummary{
		LoanNumber:      l.LoanNumber,
		Status:          l.Status,
		CurrentDebt:     l.CurrentDebt(),
		PercentAdvanced: l.PercentAdvanced(),
		PendingCount:    l.PendingCount(),
		OverdueCount:    l.OverdueCount(now),
	}
	if next := l.NextDue(); next != nil {
		summary.NextDueNumber = next.Number
		due := next.DueDate
		summary.NextDueDate = &due
	}
	return summary
}
