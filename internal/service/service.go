package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"threewloc-backend/internal/domain"
)

// DateState is the availability of a single calendar day.
type DateState string

const (
	DateAvailable DateState = "available"
	DateBooked    DateState = "booked"
	// DateUnknown is returned when the store could not be read. Callers must
	// treat it as not selectable.
	DateUnknown DateState = "unknown"
)

// DateRange is an inclusive span of calendar days.
type DateRange struct {
	BookingID uuid.UUID            `json:"booking_id"`
	StartDate time.Time            `json:"start_date"`
	EndDate   time.Time            `json:"end_date"`
	Status    domain.BookingStatus `json:"status"`
}

type AvailabilityService interface {
	CheckDate(ctx context.Context, equipmentID uuid.UUID, date time.Time) (DateState, error)
	// IsDateBooked and HasOverlap report true together with the error when
	// the store cannot be read.
	IsDateBooked(ctx context.Context, equipmentID uuid.UUID, date time.Time) (bool, error)
	HasOverlap(ctx context.Context, equipmentID uuid.UUID, start, end time.Time) (bool, error)
	// NextAvailableDate returns nil when every day in the next year is booked.
	NextAvailableDate(ctx context.Context, equipmentID uuid.UUID, from time.Time) (*time.Time, error)
	BookedRanges(ctx context.Context, equipmentID uuid.UUID, from time.Time) ([]DateRange, error)
	Subscribe(ctx context.Context, equipmentID uuid.UUID, onChange func(domain.BookingChanged)) (unsubscribe func(), err error)
}

type WalletService interface {
	EnsureWallet(ctx context.Context, userID uuid.UUID) (*domain.WalletAccount, error)
	RecordTransaction(ctx context.Context, walletID uuid.UUID, amount int64, txType domain.TransactionType, description string, bookingID *uuid.UUID) (*domain.WalletTransaction, error)
	HasSufficientBalance(ctx context.Context, userID uuid.UUID, amount int64) (bool, error)
	GetWallet(ctx context.Context, userID uuid.UUID) (*domain.WalletAccount, error)
	ListTransactions(ctx context.Context, userID uuid.UUID, page, pageSize int32) ([]domain.WalletTransaction, int32, error)
	Reconcile(ctx context.Context) ([]domain.LedgerCheck, error)
}

type BookingService interface {
	Quote(ctx context.Context, equipmentID uuid.UUID, startDate, endDate string) (*domain.BookingQuote, error)
	CreateBooking(ctx context.Context, renterID, equipmentID uuid.UUID, startDate, endDate string) (*domain.Booking, error)
	PayWithWallet(ctx context.Context, renterID, bookingID uuid.UUID) (*domain.Booking, error)
	CapturePayment(ctx context.Context, bookingID uuid.UUID, method domain.PaymentMethod) (*domain.Booking, error)
	OwnerApprove(ctx context.Context, ownerID, bookingID uuid.UUID) (*domain.Booking, error)
	OwnerReject(ctx context.Context, ownerID, bookingID uuid.UUID, reason string) (*domain.Booking, error)
	Finalize(ctx context.Context, ownerID, bookingID uuid.UUID, condition domain.ReturnCondition, notes string) (*domain.Booking, error)
	RetryFailedRefunds(ctx context.Context, limit int) (int, error)
	ExpireUnpaidRequests(ctx context.Context, limit int) (int, error)
	GetBooking(ctx context.Context, userID, bookingID uuid.UUID) (*domain.Booking, error)
	ListRentals(ctx context.Context, userID uuid.UUID, status string, page, pageSize int32) ([]domain.Booking, int32, error)
	ListLendings(ctx context.Context, userID uuid.UUID, status string, page, pageSize int32) ([]domain.Booking, int32, error)
}

type PaymentService interface {
	StartBookingCheckout(ctx context.Context, renterID, bookingID uuid.UUID, provider domain.PaymentProvider) (*domain.Checkout, error)
	StartWalletRecharge(ctx context.Context, userID uuid.UUID, amount int64, provider domain.PaymentProvider) (*domain.Checkout, error)
	HandleCallback(ctx context.Context, provider domain.PaymentProvider, body []byte) (*domain.Payment, error)
	VerifyPayment(ctx context.Context, reference string) (*domain.Payment, error)
	// GetPayment returns a payment owned by userID.
	GetPayment(ctx context.Context, userID uuid.UUID, reference string) (*domain.Payment, error)
	VerifyDuePayments(ctx context.Context, limit int) (int, error)
}

type NotificationService interface {
	GetNotifications(ctx context.Context, userID uuid.UUID, page, pageSize int32) ([]domain.Notification, int32, error)
	MarkAsRead(ctx context.Context, userID, notificationID uuid.UUID) error
}

// Notifier is a fire-and-forget sink. Failures never undo the caller's work.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, kind domain.NotificationType, title, message string, bookingID *uuid.UUID)
}

// EventPublisher announces booking transitions to other processes.
type EventPublisher interface {
	PublishBookingChanged(ctx context.Context, event domain.BookingChanged) error
}

// ChangeFeed delivers BookingChanged hints for one equipment item.
// Deliveries may be duplicated or reordered.
type ChangeFeed interface {
	Subscribe(ctx context.Context, equipmentID uuid.UUID, onChange func(domain.BookingChanged)) (unsubscribe func(), err error)
}
