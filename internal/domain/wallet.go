package domain

import (
	"time"

	"github.com/google/uuid"
)

type TransactionType string

const (
	TransactionTypeCredit     TransactionType = "credit"
	TransactionTypeDebit      TransactionType = "debit"
	TransactionTypeCommission TransactionType = "commission"
	TransactionTypeRefund     TransactionType = "refund"
)

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
)

// WalletAccount balance always equals the sum of its completed transactions.
type WalletAccount struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"user_id"`
	Balance      int64     `json:"balance"`
	Frozen       bool      `json:"frozen"`
	FrozenReason string    `json:"frozen_reason,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type WalletTransaction struct {
	ID          uuid.UUID         `json:"id"`
	WalletID    uuid.UUID         `json:"wallet_id"`
	Amount      int64             `json:"amount"` // positive for credit, negative for debit
	Type        TransactionType   `json:"type"`
	Status      TransactionStatus `json:"status"`
	Description string            `json:"description"`
	BookingID   *uuid.UUID        `json:"booking_id,omitempty"`
	Reference   *string           `json:"reference,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// LedgerCheck is the result of comparing a wallet's balance with its ledger.
type LedgerCheck struct {
	WalletID  uuid.UUID `json:"wallet_id"`
	UserID    uuid.UUID `json:"user_id"`
	Balance   int64     `json:"balance"`
	LedgerSum int64     `json:"ledger_sum"`
	Frozen    bool      `json:"frozen"`
}

func (c LedgerCheck) Consistent() bool {
	return c.Balance == c.LedgerSum
}
