package utils

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire format for booking dates.
const DateLayout = "2006-01-02"

const daysPerWeek = 7

// RentalCostBreakdown provides detailed cost breakdown
type RentalCostBreakdown struct {
	Days      int   `json:"days"`
	Weeks     int   `json:"weeks"`
	ExtraDays int   `json:"extra_days"`
	WeeksCost int64 `json:"weeks_cost"`
	DaysCost  int64 `json:"days_cost"`
	TotalCost int64 `json:"total_cost"`
}

// ParseDate converts a yyyy-mm-dd string into a UTC midnight time.
func ParseDate(dateStr string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(dateStr))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected yyyy-mm-dd", dateStr)
	}
	return d, nil
}

// TruncateDay drops the time of day, keeping the calendar date in UTC.
func TruncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// RentalDays returns the inclusive number of days between start and end.
// A same-day rental counts as one day.
func RentalDays(start, end time.Time) (int, error) {
	start, end = TruncateDay(start), TruncateDay(end)
	if end.Before(start) {
		return 0, fmt.Errorf("end date must be >= start date")
	}
	// Hours/24 on UTC midnights is exact; no DST in UTC.
	return int(end.Sub(start).Hours()/24) + 1, nil
}

// CalculateRentalPrice applies the weekly rate to whole weeks when the rental
// lasts at least a week and a weekly rate exists; otherwise every day is
// charged at the daily rate.
func CalculateRentalPrice(dailyPrice int64, weeklyPrice *int64, days int) (int64, error) {
	b, err := CalculateRentalPriceWithBreakdown(dailyPrice, weeklyPrice, days)
	if err != nil {
		return 0, err
	}
	return b.TotalCost, nil
}

// CalculateRentalPriceWithBreakdown provides detailed breakdown of rental cost
func CalculateRentalPriceWithBreakdown(dailyPrice int64, weeklyPrice *int64, days int) (RentalCostBreakdown, error) {
	if days <= 0 {
		return RentalCostBreakdown{}, fmt.Errorf("rental days must be positive, got %d", days)
	}
	if dailyPrice < 0 {
		return RentalCostBreakdown{}, fmt.Errorf("daily price must not be negative")
	}

	if days < daysPerWeek || weeklyPrice == nil || *weeklyPrice <= 0 {
		cost := int64(days) * dailyPrice
		return RentalCostBreakdown{
			Days:      days,
			ExtraDays: days,
			DaysCost:  cost,
			TotalCost: cost,
		}, nil
	}

	weeks := days / daysPerWeek
	extra := days % daysPerWeek
	weeksCost := int64(weeks) * *weeklyPrice
	daysCost := int64(extra) * dailyPrice
	return RentalCostBreakdown{
		Days:      days,
		Weeks:     weeks,
		ExtraDays: extra,
		WeeksCost: weeksCost,
		DaysCost:  daysCost,
		TotalCost: weeksCost + daysCost,
	}, nil
}
