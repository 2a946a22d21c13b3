package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWholeDaysBetween(t *testing.T) {
	base := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		from     time.Time
		to       time.Time
		expected int
	}{
		{"same day", base, base, 0},
		{"one day apart", base, base.AddDate(0, 0, 1), 1},
		{"reversed is negative", base.AddDate(0, 0, 3), base, -3},
		{"time of day is ignored", base.Add(23 * time.Hour), base.AddDate(0, 0, 1), 1},
		{"across a month boundary", time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, WholeDaysBetween(tt.from, tt.to))
		})
	}
}

func TestDaysLate(t *testing.T) {
	dueDate := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		at       time.Time
		expected int
	}{
		{"before the due date floors at zero", dueDate.AddDate(0, 0, -10), 0},
		{"on the due date", dueDate, 0},
		{"one day after", dueDate.AddDate(0, 0, 1), 1},
		{"ten days after", dueDate.AddDate(0, 0, 10), 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DaysLate(dueDate, tt.at))
		})
	}
}

func TestDecimalFromString(t *testing.T) {
	value, err := DecimalFromString("974.87")
	require.NoError(t, err)
	assert.Equal(t, "974.87", value.StringFixed(2))

	_, err = DecimalFromString("not-a-number")
	assert.Error(t, err)
}
