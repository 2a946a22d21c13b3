package utils

import (
	"time"

	"github.com/shopspring/decimal"
)

// WholeDaysBetween returns the number of whole calendar days from one date to
// another, ignoring the time-of-day component. Negative when to precedes from.
func WholeDaysBetween(from, to time.Time) int {
	fromDay := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	toDay := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(toDay.Sub(fromDay).Hours() / 24)
}

// DaysLate returns whole days elapsed past the due date, floored at zero.
func DaysLate(dueDate, at time.Time) int {
	days := WholeDaysBetween(dueDate, at)
	if days < 0 {
		return 0
	}
	return days
}

// DecimalFromFloat converts float64 to decimal.Decimal
func DecimalFromFloat(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

// DecimalFromString converts string to decimal.Decimal
func DecimalFromString(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}
