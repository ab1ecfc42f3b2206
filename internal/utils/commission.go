package utils

import (
	"fmt"

	"threewloc-backend/internal/domain"
)

const (
	// CommissionPercent is retained from the owner's gross proceeds.
	CommissionPercent = 5
	// PlatformFeePercent is added on top of the renter's charge.
	PlatformFeePercent = 2
	// DefaultMinimumAmount is the smallest accepted recharge or payout, in FCFA.
	DefaultMinimumAmount = 1000
)

// MinimumAmountCheck is the outcome of ValidateMinimumAmount.
type MinimumAmountCheck struct {
	IsValid bool   `json:"is_valid"`
	Message string `json:"message,omitempty"`
}

// CalculateCommission splits a subtotal. It is the only place commission
// amounts are computed: quotes and settlement both call it.
func CalculateCommission(subtotal int64) domain.CommissionCalculation {
	commission := percentRounded(subtotal, CommissionPercent)
	fee := percentRounded(subtotal, PlatformFeePercent)
	return domain.CommissionCalculation{
		Subtotal:    subtotal,
		Commission:  commission,
		PlatformFee: fee,
		OwnerAmount: subtotal - commission,
		Total:       subtotal + fee,
	}
}

// ValidateMinimumAmount never fails; a non-positive threshold means the default.
func ValidateMinimumAmount(amount, threshold int64) MinimumAmountCheck {
	if threshold <= 0 {
		threshold = DefaultMinimumAmount
	}
	if amount < threshold {
		return MinimumAmountCheck{
			IsValid: false,
			Message: fmt.Sprintf("minimum amount is %d FCFA, got %d FCFA", threshold, amount),
		}
	}
	return MinimumAmountCheck{IsValid: true}
}

// percentRounded computes round(amount * pct / 100) with halves rounded up,
// using integer math only.
func percentRounded(amount, pct int64) int64 {
	return floorDiv(amount*pct+50, 100)
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
