package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound              = errors.New("not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrInvalidInput          = errors.New("invalid input")
	ErrInvalidTransition     = errors.New("invalid booking status transition")
	ErrBelowMinimum          = errors.New("amount below minimum")
	ErrWalletExists          = errors.New("wallet already exists")
	ErrWalletFrozen          = errors.New("wallet is frozen")
	ErrUnknownProvider       = errors.New("unknown payment provider")
	ErrChangeFeedUnavailable = errors.New("availability change feed not configured")

	ErrProviderTransactionInUse = errors.New("provider transaction already belongs to another payment")
)

// DateConflictError means the requested range overlaps an active booking.
type DateConflictError struct {
	EquipmentID uuid.UUID
	StartDate   time.Time
	EndDate     time.Time
}

func (e *DateConflictError) Error() string {
	return fmt.Sprintf("equipment %s is already booked between %s and %s",
		e.EquipmentID, e.StartDate.Format("2006-01-02"), e.EndDate.Format("2006-01-02"))
}

// InsufficientFundsError is returned by debits that would take a wallet below zero.
type InsufficientFundsError struct {
	WalletID  uuid.UUID
	Balance   int64
	Requested int64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient balance: wallet %s has %d FCFA, %d FCFA required", e.WalletID, e.Balance, e.Requested)
}

// PaymentGatewayError wraps a failed provider call. Retryable is set for
// transport failures and 5xx/429 responses.
type PaymentGatewayError struct {
	Provider   PaymentProvider
	Operation  string
	StatusCode int
	Retryable  bool
	Err        error
}

func (e *PaymentGatewayError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("payment gateway %s %s failed with status %d: %v", e.Provider, e.Operation, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("payment gateway %s %s failed: %v", e.Provider, e.Operation, e.Err)
}

func (e *PaymentGatewayError) Unwrap() error {
	return e.Err
}

// RefundFailedError is logged for operator follow-up; it never blocks a rejection.
type RefundFailedError struct {
	BookingID uuid.UUID
	PaymentID uuid.UUID
	Amount    int64
	Err       error
}

func (e *RefundFailedError) Error() string {
	return fmt.Sprintf("refund of %d FCFA for booking %s (payment %s) failed: %v", e.Amount, e.BookingID, e.PaymentID, e.Err)
}

func (e *RefundFailedError) Unwrap() error {
	return e.Err
}

// InvariantViolationError halts wallet operations for the affected account.
type InvariantViolationError struct {
	WalletID uuid.UUID
	Detail   string
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("ledger invariant violated for wallet %s: %s", e.WalletID, e.Detail)
}
