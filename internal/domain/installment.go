package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/credisol/lending-engine/pkg/utils"
)

// Installment statuses, derived from (paid, days late) on every read
const (
	InstallmentStatusPaid         = "paid"
	InstallmentStatusOnTime       = "on_time"
	InstallmentStatusLate         = "late"
	InstallmentStatusSeverelyLate = "severely_late"
)

// SevereLateThresholdDays is the last day an unpaid installment counts as
// merely late; one day beyond it is severely late.
const SevereLateThresholdDays = 7

// Installment is one scheduled repayment of a loan (cuota). It is owned by its
// loan, created in a batch at schedule-generation time and mutated only by
// payment application.
type Installment struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	LoanID          uuid.UUID       `json:"loan_id" db:"loan_id"`
	Number          int             `json:"number" db:"number"`
	DueDate         time.Time       `json:"due_date" db:"due_date"`
	TotalAmount     decimal.Decimal `json:"total_amount" db:"total_amount"`
	CapitalPortion  decimal.Decimal `json:"capital_portion" db:"capital_portion"`
	InterestPortion decimal.Decimal `json:"interest_portion" db:"interest_portion"`
	Balance         decimal.Decimal `json:"balance" db:"balance"`
	Paid            bool            `json:"paid" db:"paid"`
	AmountPaid      decimal.Decimal `json:"amount_paid" db:"amount_paid"`
	PaymentDate     *time.Time      `json:"payment_date,omitempty" db:"payment_date"`
	DaysLate        int             `json:"days_late" db:"days_late"`
	Notes           string          `json:"notes" db:"notes"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
}

// InstallmentStatus derives the status of an installment from its paid flag
// and days past due. Paid is terminal; an installment never regresses out of
// it no matter how late it was settled.
func InstallmentStatus(paid bool, daysLate int) string {
	switch {
	case paid:
		return InstallmentStatusPaid
	case daysLate == 0:
		return InstallmentStatusOnTime
	case daysLate <= SevereLateThresholdDays:
		return InstallmentStatusLate
	default:
		return InstallmentStatusSeverelyLate
	}
}

// DaysLateAt returns whole days past the due date at the given instant,
// floored at zero.
func (i *Installment) DaysLateAt(now time.Time) int {
	return utils.DaysLate(i.DueDate, now)
}

// StatusAt recomputes the installment status for the given instant. The
// result is never persisted; storing it would let it go stale overnight.
func (i *Installment) StatusAt(now time.Time) string {
	return InstallmentStatus(i.Paid, i.DaysLateAt(now))
}

// IsOverdueAt reports whether the installment is unpaid and past due.
func (i *Installment) IsOverdueAt(now time.Time) bool {
	return !i.Paid && i.DaysLateAt(now) > 0
}

// Outstanding returns the amount still owed on this installment, floored at
// zero when overpaid.
func (i *Installment) Outstanding() decimal.Decimal {
	remaining := i.TotalAmount.Sub(i.AmountPaid)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}
