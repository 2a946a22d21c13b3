package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GenerateSchedule builds the full amortization table for a loan: n
// installments with their interest/capital split, running balance and
// business-day-adjusted due dates.
//
// Each row charges round2(balance * r) of interest; the capital portion is
// the fixed installment minus that interest, except for the last row, whose
// capital portion is the remaining balance exactly. That absorption is the
// tie-break for accumulated cent rounding: the capital portions always sum to
// the principal and the balance reaches exactly zero.
func GenerateSchedule(loanID uuid.UUID, principal, monthlyRate decimal.Decimal, termMonths int, disbursementDate time.Time) ([]*Installment, error) {
	terms, err := Amortize(principal, monthlyRate, termMonths)
	if err != nil {
		return nil, err
	}

	installments := make([]*Installment, 0, termMonths)
	balance := principal

	for number := 1; number <= termMonths; number++ {
		interest := balance.Mul(monthlyRate).Round(2)
		capital := terms.InstallmentAmount.Sub(interest)
		if number == termMonths {
			capital = balance
		}
		balance = balance.Sub(capital)

		installments = append(installments, &Installment{
			ID:              uuid.New(),
			LoanID:          loanID,
			Number:          number,
			DueDate:         InstallmentDueDate(disbursementDate, number),
			TotalAmount:     capital.Add(interest),
			CapitalPortion:  capital,
			InterestPortion: interest,
			Balance:         balance,
			AmountPaid:      decimal.Zero,
		})
	}

	return installments, nil
}

// InstallmentDueDate advances the disbursement date by the installment number
// in months, then applies the business-day rule: a date landing on Sunday
// moves forward to Monday. The shift is applied once to the month-advanced
// date and not re-checked.
//
// A day-of-month beyond the target month's length is clamped to its last day,
// so a loan disbursed on the 31st still falls due every month (Jan 31 -> Feb
// 29 -> Mar 31), never skipping February the way naive date addition would.
func InstallmentDueDate(disbursementDate time.Time, number int) time.Time {
	year, month, day := disbursementDate.Date()
	firstOfTarget := time.Date(year, month+time.Month(number), 1, 0, 0, 0, 0, disbursementDate.Location())
	if lastDay := firstOfTarget.AddDate(0, 1, -1).Day(); day > lastDay {
		day = lastDay
	}

	due := time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day, 0, 0, 0, 0, disbursementDate.Location())
	if due.Weekday() == time.Sunday {
		due = due.AddDate(0, 0, 1)
	}
	return due
}
