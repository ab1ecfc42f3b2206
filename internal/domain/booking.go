package domain

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusRequested     BookingStatus = "requested"
	BookingStatusPaid          BookingStatus = "paid"
	BookingStatusOwnerApproved BookingStatus = "owner_approved"
	BookingStatusOwnerRejected BookingStatus = "owner_rejected"
	BookingStatusCompleted     BookingStatus = "completed"
	BookingStatusRefunded      BookingStatus = "refunded"
	// BookingStatusExpired releases the dates of a request nobody paid for.
	BookingStatusExpired BookingStatus = "expired"
)

// ActiveBookingStatuses hold their date range reserved.
var ActiveBookingStatuses = []BookingStatus{
	BookingStatusRequested,
	BookingStatusPaid,
	BookingStatusOwnerApproved,
}

type PaymentStatus string

const (
	PaymentStatusUnpaid   PaymentStatus = "unpaid"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

type ReturnCondition string

const (
	ReturnConditionGood    ReturnCondition = "good"
	ReturnConditionDamaged ReturnCondition = "damaged"
)

// Booking dates are calendar days in UTC; both ends are inclusive.
type Booking struct {
	ID              uuid.UUID     `json:"id"`
	EquipmentID     uuid.UUID     `json:"equipment_id"`
	RenterID        uuid.UUID     `json:"renter_id"`
	OwnerID         uuid.UUID     `json:"owner_id"`
	StartDate       time.Time     `json:"start_date"`
	EndDate         time.Time     `json:"end_date"`
	TotalPrice      int64         `json:"total_price"`
	DepositAmount   int64         `json:"deposit_amount"`
	Status          BookingStatus `json:"status"`
	PaymentStatus   PaymentStatus `json:"payment_status"`
	PaymentMethod   PaymentMethod `json:"payment_method,omitempty"`
	RejectionReason string        `json:"rejection_reason,omitempty"`
	// Legacy contract flags, carried but not driven by the lifecycle.
	OwnerSigned  bool      `json:"owner_signed"`
	RenterSigned bool      `json:"renter_signed"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (s BookingStatus) IsActive() bool {
	for _, active := range ActiveBookingStatuses {
		if s == active {
			return true
		}
	}
	return false
}

func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusCompleted || s == BookingStatusRefunded || s == BookingStatusExpired
}

// Overlaps reports whether the closed interval [start, end] intersects the booking.
func (b *Booking) Overlaps(start, end time.Time) bool {
	return !start.After(b.EndDate) && !end.Before(b.StartDate)
}

// Covers reports whether date falls inside the booking's inclusive interval.
func (b *Booking) Covers(date time.Time) bool {
	return b.Overlaps(date, date)
}

// BookingQuote is a preview only; settlement always recomputes.
type BookingQuote struct {
	EquipmentID uuid.UUID             `json:"equipment_id"`
	StartDate   time.Time             `json:"start_date"`
	EndDate     time.Time             `json:"end_date"`
	Days        int                   `json:"days"`
	Weeks       int                   `json:"weeks"`
	Commission  CommissionCalculation `json:"commission"`
	Deposit     int64                 `json:"deposit"`
}

// CommissionCalculation is derived from a subtotal and never persisted.
type CommissionCalculation struct {
	Subtotal    int64 `json:"subtotal"`
	Commission  int64 `json:"commission"`
	PlatformFee int64 `json:"platform_fee"`
	OwnerAmount int64 `json:"owner_amount"`
	Total       int64 `json:"total"`
}

type DisputeStatus string

const (
	DisputeStatusOpen DisputeStatus = "open"
)

type Dispute struct {
	ID        uuid.UUID       `json:"id"`
	BookingID uuid.UUID       `json:"booking_id"`
	OpenedBy  uuid.UUID       `json:"opened_by"`
	Condition ReturnCondition `json:"condition"`
	Notes     string          `json:"notes"`
	Status    DisputeStatus   `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}

// BookingChanged is published on every booking state transition. Consumers
// treat it as a hint and re-query.
type BookingChanged struct {
	BookingID     uuid.UUID     `json:"booking_id"`
	EquipmentID   uuid.UUID     `json:"equipment_id"`
	Status        BookingStatus `json:"status"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	OccurredAt    time.Time     `json:"occurred_at"`
}
