package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func int64Ptr(v int64) *int64 { return &v }

func TestParseDate(t *testing.T) {
	t.Run("Valid date", func(t *testing.T) {
		date, err := ParseDate("2024-01-15")
		assert.NoError(t, err)
		assert.Equal(t, 2024, date.Year())
		assert.Equal(t, time.January, date.Month())
		assert.Equal(t, 15, date.Day())
		assert.Equal(t, time.UTC, date.Location())
	})

	t.Run("Invalid format", func(t *testing.T) {
		_, err := ParseDate("2024/01/15")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "expected yyyy-mm-dd")
	})

	t.Run("Invalid month", func(t *testing.T) {
		_, err := ParseDate("2024-13-15")
		assert.Error(t, err)
	})
}

func TestRentalDays(t *testing.T) {
	tests := []struct {
		name     string
		start    string
		end      string
		expected int
	}{
		{"Same day", "2024-01-15", "2024-01-15", 1},
		{"Same month", "2024-01-15", "2024-01-20", 6},
		{"Cross month boundary", "2024-01-25", "2024-02-05", 12},
		{"Leap day included", "2024-02-28", "2024-03-01", 3},
		{"Year boundary", "2023-12-25", "2024-01-10", 17},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, _ := ParseDate(tt.start)
			end, _ := ParseDate(tt.end)
			days, err := RentalDays(start, end)
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, days)
		})
	}

	t.Run("End before start", func(t *testing.T) {
		start, _ := ParseDate("2024-01-20")
		end, _ := ParseDate("2024-01-15")
		_, err := RentalDays(start, end)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "end date must be >= start date")
	})

	t.Run("Time of day is ignored", func(t *testing.T) {
		start := time.Date(2024, 6, 1, 23, 30, 0, 0, time.UTC)
		end := time.Date(2024, 6, 2, 0, 15, 0, 0, time.UTC)
		days, err := RentalDays(start, end)
		assert.NoError(t, err)
		assert.Equal(t, 2, days)
	})
}

func TestCalculateRentalPrice(t *testing.T) {
	t.Run("Weekly rate applies from seven days", func(t *testing.T) {
		// 10 days = 1 week + 3 days
		cost, err := CalculateRentalPrice(15000, int64Ptr(90000), 10)
		require.NoError(t, err)
		assert.Equal(t, int64(135000), cost)
	})

	t.Run("Exactly one week", func(t *testing.T) {
		cost, err := CalculateRentalPrice(15000, int64Ptr(90000), 7)
		require.NoError(t, err)
		assert.Equal(t, int64(90000), cost)
	})

	t.Run("Short rental uses daily rate", func(t *testing.T) {
		cost, err := CalculateRentalPrice(15000, int64Ptr(90000), 6)
		require.NoError(t, err)
		assert.Equal(t, int64(90000), cost) // 6 * 15000
	})

	t.Run("No weekly rate", func(t *testing.T) {
		cost, err := CalculateRentalPrice(15000, nil, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(150000), cost)
	})

	t.Run("Zero weekly rate is ignored", func(t *testing.T) {
		cost, err := CalculateRentalPrice(15000, int64Ptr(0), 14)
		require.NoError(t, err)
		assert.Equal(t, int64(210000), cost)
	})

	t.Run("Rejects non-positive days", func(t *testing.T) {
		_, err := CalculateRentalPrice(15000, nil, 0)
		assert.Error(t, err)
		_, err = CalculateRentalPrice(15000, nil, -3)
		assert.Error(t, err)
	})
}

func TestCalculateRentalPriceWithBreakdown(t *testing.T) {
	breakdown, err := CalculateRentalPriceWithBreakdown(15000, int64Ptr(90000), 17)
	require.NoError(t, err)
	assert.Equal(t, 17, breakdown.Days)
	assert.Equal(t, 2, breakdown.Weeks)
	assert.Equal(t, 3, breakdown.ExtraDays)
	assert.Equal(t, int64(180000), breakdown.WeeksCost)
	assert.Equal(t, int64(45000), breakdown.DaysCost)
	assert.Equal(t, int64(225000), breakdown.TotalCost)
}
