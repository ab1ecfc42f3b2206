package domain

import (
	"time"

	"github.com/google/uuid"
)

// CurrencyXOF is the only settlement currency. Amounts are whole FCFA.
const CurrencyXOF = "XOF"

type PaymentMethod string

const (
	PaymentMethodWallet  PaymentMethod = "wallet"
	PaymentMethodGateway PaymentMethod = "gateway"
)

// PaymentProvider names a payment.Gateway implementation. "wallet" is the
// internal ledger and never reaches a gateway.
type PaymentProvider string

const (
	ProviderWallet   PaymentProvider = "wallet"
	ProviderMidtrans PaymentProvider = "midtrans"
	ProviderKkiapay  PaymentProvider = "kkiapay"
	ProviderSandbox  PaymentProvider = "sandbox"
)

type PaymentPurpose string

const (
	PaymentPurposeBooking        PaymentPurpose = "booking"
	PaymentPurposeWalletRecharge PaymentPurpose = "wallet_recharge"
)

type ChargeStatus string

const (
	ChargeStatusPending   ChargeStatus = "pending"
	ChargeStatusCompleted ChargeStatus = "completed"
	ChargeStatusFailed    ChargeStatus = "failed"
)

type RefundStatus string

const (
	RefundStatusNone      RefundStatus = "none"
	RefundStatusInitiated RefundStatus = "initiated"
	RefundStatusCompleted RefundStatus = "completed"
	RefundStatusFailed    RefundStatus = "failed"
)

// Payment records one charge attempt with a provider, for a booking or a
// wallet recharge.
type Payment struct {
	ID                    uuid.UUID       `json:"id"`
	Reference             string          `json:"reference"`
	Provider              PaymentProvider `json:"provider"`
	ProviderTransactionID string          `json:"provider_transaction_id,omitempty"`
	Purpose               PaymentPurpose  `json:"purpose"`
	BookingID             *uuid.UUID      `json:"booking_id,omitempty"`
	UserID                uuid.UUID       `json:"user_id"`
	Amount                int64           `json:"amount"`
	Currency              string          `json:"currency"`
	Status                ChargeStatus    `json:"status"`
	CheckoutURL           string          `json:"checkout_url,omitempty"`
	VerifyAttempts        int             `json:"verify_attempts"`
	NextVerifyAt          *time.Time      `json:"next_verify_at,omitempty"`
	RefundStatus          RefundStatus    `json:"refund_status"`
	RefundReason          string          `json:"refund_reason,omitempty"`
	FailureReason         string          `json:"failure_reason,omitempty"`
	NeedsAttention        bool            `json:"needs_attention"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

// Checkout is returned to the client, which redirects to CheckoutURL. The
// outcome is only known after verification.
type Checkout struct {
	PaymentID   uuid.UUID       `json:"payment_id"`
	Reference   string          `json:"reference"`
	Provider    PaymentProvider `json:"provider"`
	CheckoutURL string          `json:"checkout_url"`
	Amount      int64           `json:"amount"`
	Currency    string          `json:"currency"`
}
