package http

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"threewloc-backend/internal/domain"
	"threewloc-backend/internal/service"
)

type MockBookingService struct {
	mock.Mock
}

func (m *MockBookingService) booking(args mock.Arguments) (*domain.Booking, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingService) Quote(ctx context.Context, equipmentID uuid.UUID, startDate, endDate string) (*domain.BookingQuote, error) {
	args := m.Called(ctx, equipmentID, startDate, endDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BookingQuote), args.Error(1)
}

func (m *MockBookingService) CreateBooking(ctx context.Context, renterID, equipmentID uuid.UUID, startDate, endDate string) (*domain.Booking, error) {
	return m.booking(m.Called(ctx, renterID, equipmentID, startDate, endDate))
}

func (m *MockBookingService) PayWithWallet(ctx context.Context, renterID, bookingID uuid.UUID) (*domain.Booking, error) {
	return m.booking(m.Called(ctx, renterID, bookingID))
}

func (m *MockBookingService) CapturePayment(ctx context.Context, bookingID uuid.UUID, method domain.PaymentMethod) (*domain.Booking, error) {
	return m.booking(m.Called(ctx, bookingID, method))
}

func (m *MockBookingService) OwnerApprove(ctx context.Context, ownerID, bookingID uuid.UUID) (*domain.Booking, error) {
	return m.booking(m.Called(ctx, ownerID, bookingID))
}

func (m *MockBookingService) OwnerReject(ctx context.Context, ownerID, bookingID uuid.UUID, reason string) (*domain.Booking, error) {
	return m.booking(m.Called(ctx, ownerID, bookingID, reason))
}

func (m *MockBookingService) Finalize(ctx context.Context, ownerID, bookingID uuid.UUID, condition domain.ReturnCondition, notes string) (*domain.Booking, error) {
	return m.booking(m.Called(ctx, ownerID, bookingID, condition, notes))
}

func (m *MockBookingService) RetryFailedRefunds(ctx context.Context, limit int) (int, error) {
	args := m.Called(ctx, limit)
	return args.Int(0), args.Error(1)
}

func (m *MockBookingService) ExpireUnpaidRequests(ctx context.Context, limit int) (int, error) {
	args := m.Called(ctx, limit)
	return args.Int(0), args.Error(1)
}

func (m *MockBookingService) GetBooking(ctx context.Context, userID, bookingID uuid.UUID) (*domain.Booking, error) {
	return m.booking(m.Called(ctx, userID, bookingID))
}

func (m *MockBookingService) ListRentals(ctx context.Context, userID uuid.UUID, status string, page, pageSize int32) ([]domain.Booking, int32, error) {
	args := m.Called(ctx, userID, status, page, pageSize)
	return args.Get(0).([]domain.Booking), args.Get(1).(int32), args.Error(2)
}

func (m *MockBookingService) ListLendings(ctx context.Context, userID uuid.UUID, status string, page, pageSize int32) ([]domain.Booking, int32, error) {
	args := m.Called(ctx, userID, status, page, pageSize)
	return args.Get(0).([]domain.Booking), args.Get(1).(int32), args.Error(2)
}

type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) checkout(args mock.Arguments) (*domain.Checkout, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Checkout), args.Error(1)
}

func (m *MockPaymentService) payment(args mock.Arguments) (*domain.Payment, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentService) StartBookingCheckout(ctx context.Context, renterID, bookingID uuid.UUID, provider domain.PaymentProvider) (*domain.Checkout, error) {
	return m.checkout(m.Called(ctx, renterID, bookingID, provider))
}

func (m *MockPaymentService) StartWalletRecharge(ctx context.Context, userID uuid.UUID, amount int64, provider domain.PaymentProvider) (*domain.Checkout, error) {
	return m.checkout(m.Called(ctx, userID, amount, provider))
}

func (m *MockPaymentService) HandleCallback(ctx context.Context, provider domain.PaymentProvider, body []byte) (*domain.Payment, error) {
	return m.payment(m.Called(ctx, provider, body))
}

func (m *MockPaymentService) VerifyPayment(ctx context.Context, reference string) (*domain.Payment, error) {
	return m.payment(m.Called(ctx, reference))
}

func (m *MockPaymentService) GetPayment(ctx context.Context, userID uuid.UUID, reference string) (*domain.Payment, error) {
	return m.payment(m.Called(ctx, userID, reference))
}

func (m *MockPaymentService) VerifyDuePayments(ctx context.Context, limit int) (int, error) {
	args := m.Called(ctx, limit)
	return args.Int(0), args.Error(1)
}

type MockWalletService struct {
	mock.Mock
}

func (m *MockWalletService) wallet(args mock.Arguments) (*domain.WalletAccount, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WalletAccount), args.Error(1)
}

func (m *MockWalletService) EnsureWallet(ctx context.Context, userID uuid.UUID) (*domain.WalletAccount, error) {
	return m.wallet(m.Called(ctx, userID))
}

func (m *MockWalletService) RecordTransaction(ctx context.Context, walletID uuid.UUID, amount int64, txType domain.TransactionType, description string, bookingID *uuid.UUID) (*domain.WalletTransaction, error) {
	args := m.Called(ctx, walletID, amount, txType, description, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WalletTransaction), args.Error(1)
}

func (m *MockWalletService) HasSufficientBalance(ctx context.Context, userID uuid.UUID, amount int64) (bool, error) {
	args := m.Called(ctx, userID, amount)
	return args.Bool(0), args.Error(1)
}

func (m *MockWalletService) GetWallet(ctx context.Context, userID uuid.UUID) (*domain.WalletAccount, error) {
	return m.wallet(m.Called(ctx, userID))
}

func (m *MockWalletService) ListTransactions(ctx context.Context, userID uuid.UUID, page, pageSize int32) ([]domain.WalletTransaction, int32, error) {
	args := m.Called(ctx, userID, page, pageSize)
	return args.Get(0).([]domain.WalletTransaction), args.Get(1).(int32), args.Error(2)
}

func (m *MockWalletService) Reconcile(ctx context.Context) ([]domain.LedgerCheck, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.LedgerCheck), args.Error(1)
}

type MockAvailabilityService struct {
	mock.Mock
}

func (m *MockAvailabilityService) CheckDate(ctx context.Context, equipmentID uuid.UUID, date time.Time) (service.DateState, error) {
	args := m.Called(ctx, equipmentID, date)
	return args.Get(0).(service.DateState), args.Error(1)
}

func (m *MockAvailabilityService) IsDateBooked(ctx context.Context, equipmentID uuid.UUID, date time.Time) (bool, error) {
	args := m.Called(ctx, equipmentID, date)
	return args.Bool(0), args.Error(1)
}

func (m *MockAvailabilityService) HasOverlap(ctx context.Context, equipmentID uuid.UUID, start, end time.Time) (bool, error) {
	args := m.Called(ctx, equipmentID, start, end)
	return args.Bool(0), args.Error(1)
}

func (m *MockAvailabilityService) NextAvailableDate(ctx context.Context, equipmentID uuid.UUID, from time.Time) (*time.Time, error) {
	args := m.Called(ctx, equipmentID, from)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*time.Time), args.Error(1)
}

func (m *MockAvailabilityService) BookedRanges(ctx context.Context, equipmentID uuid.UUID, from time.Time) ([]service.DateRange, error) {
	args := m.Called(ctx, equipmentID, from)
	return args.Get(0).([]service.DateRange), args.Error(1)
}

func (m *MockAvailabilityService) Subscribe(ctx context.Context, equipmentID uuid.UUID, onChange func(domain.BookingChanged)) (func(), error) {
	args := m.Called(ctx, equipmentID, onChange)
	if args.Get(0) == nil {
		return func() {}, args.Error(1)
	}
	return args.Get(0).(func()), args.Error(1)
}

type MockSandbox struct {
	mock.Mock
}

func (m *MockSandbox) Settle(reference string) error {
	return m.Called(reference).Error(0)
}

func (m *MockSandbox) Decline(reference string) error {
	return m.Called(reference).Error(0)
}
