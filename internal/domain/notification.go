package domain

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationBookingRequested NotificationType = "booking_requested"
	NotificationBookingPaid      NotificationType = "booking_paid"
	NotificationBookingApproved  NotificationType = "booking_approved"
	NotificationBookingRejected  NotificationType = "booking_rejected"
	NotificationBookingCompleted NotificationType = "booking_completed"
	NotificationBookingExpired   NotificationType = "booking_expired"
	NotificationRefundPending    NotificationType = "refund_pending"
	NotificationRefundCompleted  NotificationType = "refund_completed"
	NotificationDisputeOpened    NotificationType = "dispute_opened"
	NotificationWalletRecharged  NotificationType = "wallet_recharged"
	NotificationLedgerAlert      NotificationType = "ledger_alert"
)

type Notification struct {
	ID        uuid.UUID        `json:"id"`
	UserID    uuid.UUID        `json:"user_id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	BookingID *uuid.UUID       `json:"booking_id,omitempty"`
	IsRead    bool             `json:"is_read"`
	CreatedAt time.Time        `json:"created_at"`
}
