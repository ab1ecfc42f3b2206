package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"threewloc-backend/internal/domain"
)

type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

type EquipmentRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Equipment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.EquipmentStatus) error
}

type BookingRepository interface {
	// Create fails with *domain.DateConflictError when the range overlaps an
	// active booking on the same equipment.
	Create(ctx context.Context, b *domain.Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
	// GetForUpdate locks the row until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
	Update(ctx context.Context, b *domain.Booking) error
	// ListActiveByEquipment returns active bookings ending on or after from,
	// ordered by start date.
	ListActiveByEquipment(ctx context.Context, equipmentID uuid.UUID, from time.Time) ([]domain.Booking, error)
	ListByRenter(ctx context.Context, renterID uuid.UUID, status string, page, pageSize int32) ([]domain.Booking, int32, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, status string, page, pageSize int32) ([]domain.Booking, int32, error)
	// ListUnpaidRequestedBefore returns requested, unpaid bookings created
	// before the cutoff, oldest first.
	ListUnpaidRequestedBefore(ctx context.Context, before time.Time, limit int) ([]domain.Booking, error)
}

type WalletRepository interface {
	Create(ctx context.Context, w *domain.WalletAccount) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.WalletAccount, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.WalletAccount, error)
	// ApplyTransaction inserts a completed transaction and moves the balance
	// by the same amount in one statement.
	ApplyTransaction(ctx context.Context, tx *domain.WalletTransaction) error
	// InsertPending records a transaction without touching the balance.
	InsertPending(ctx context.Context, tx *domain.WalletTransaction) error
	// CompletePending must run inside a transaction. It reports false when the
	// transaction was not pending.
	CompletePending(ctx context.Context, txID uuid.UUID) (bool, error)
	FailPending(ctx context.Context, txID uuid.UUID) error
	GetTransactionByReference(ctx context.Context, reference string) (*domain.WalletTransaction, error)
	ListTransactions(ctx context.Context, walletID uuid.UUID, page, pageSize int32) ([]domain.WalletTransaction, int32, error)
	LedgerChecks(ctx context.Context) ([]domain.LedgerCheck, error)
	Freeze(ctx context.Context, walletID uuid.UUID, reason string) error
}

type PaymentRepository interface {
	Create(ctx context.Context, p *domain.Payment) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error)
	GetByReference(ctx context.Context, reference string) (*domain.Payment, error)
	// GetSettledForBooking returns the completed payment that paid the booking.
	GetSettledForBooking(ctx context.Context, bookingID uuid.UUID) (*domain.Payment, error)
	Update(ctx context.Context, p *domain.Payment) error
	ListDueForVerification(ctx context.Context, now time.Time, limit int) ([]domain.Payment, error)
	ListFailedRefunds(ctx context.Context, limit int) ([]domain.Payment, error)
	HasPendingForBooking(ctx context.Context, bookingID uuid.UUID) (bool, error)
}

type DisputeRepository interface {
	Create(ctx context.Context, d *domain.Dispute) error
	ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]domain.Dispute, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, note *domain.Notification) error
	List(ctx context.Context, userID uuid.UUID, limit, offset int32) ([]domain.Notification, int32, error)
	MarkAsRead(ctx context.Context, id, userID uuid.UUID) error
}

// Repositories groups every repository bound to the same connection or
// transaction.
type Repositories struct {
	Users         UserRepository
	Equipment     EquipmentRepository
	Bookings      BookingRepository
	Wallets       WalletRepository
	Payments      PaymentRepository
	Disputes      DisputeRepository
	Notifications NotificationRepository
}

// Transactor runs fn with repositories bound to a single database
// transaction. The transaction commits when fn returns nil.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}
