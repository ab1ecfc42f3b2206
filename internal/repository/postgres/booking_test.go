package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"threewloc-backend/internal/domain"
	"threewloc-backend/internal/repository/postgres"
)

var bookingCols = []string{"id", "equipment_id", "renter_id", "owner_id", "start_date", "end_date", "total_price", "deposit_amount",
	"status", "payment_status", "payment_method", "rejection_reason", "owner_signed", "renter_signed", "created_at", "updated_at"}

func date(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func bookingRow(rows *sqlmock.Rows, b domain.Booking) *sqlmock.Rows {
	return rows.AddRow(b.ID.String(), b.EquipmentID.String(), b.RenterID.String(), b.OwnerID.String(), b.StartDate, b.EndDate,
		b.TotalPrice, b.DepositAmount, string(b.Status), string(b.PaymentStatus), string(b.PaymentMethod), b.RejectionReason,
		false, false, time.Now(), time.Now())
}

func TestBookingRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewBookingRepository(db)
	ctx := context.Background()

	newBooking := func() *domain.Booking {
		return &domain.Booking{
			EquipmentID:   uuid.New(),
			RenterID:      uuid.New(),
			OwnerID:       uuid.New(),
			StartDate:     date("2024-06-04"),
			EndDate:       date("2024-06-10"),
			TotalPrice:    105000,
			Status:        domain.BookingStatusRequested,
			PaymentStatus: domain.PaymentStatusUnpaid,
		}
	}

	t.Run("Success", func(t *testing.T) {
		b := newBooking()
		mock.ExpectExec("INSERT INTO bookings").
			WithArgs(sqlmock.AnyArg(), b.EquipmentID, b.RenterID, b.OwnerID, b.StartDate, b.EndDate, b.TotalPrice, b.DepositAmount,
				"requested", "unpaid", "", "", false, false, sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Create(ctx, b)
		assert.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, b.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Exclusion violation becomes DateConflictError", func(t *testing.T) {
		b := newBooking()
		mock.ExpectExec("INSERT INTO bookings").
			WillReturnError(&pq.Error{Code: "23P01", Message: "conflicting key value violates exclusion constraint"})

		err := repo.Create(ctx, b)
		var conflict *domain.DateConflictError
		require.True(t, errors.As(err, &conflict))
		assert.Equal(t, b.EquipmentID, conflict.EquipmentID)
		assert.Equal(t, b.StartDate, conflict.StartDate)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Other errors pass through", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO bookings").WillReturnError(errors.New("connection refused"))

		err := repo.Create(ctx, newBooking())
		assert.EqualError(t, err, "connection refused")
	})
}

func TestBookingRepository_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewBookingRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		want := domain.Booking{
			ID: uuid.New(), EquipmentID: uuid.New(), RenterID: uuid.New(), OwnerID: uuid.New(),
			StartDate: date("2024-06-01"), EndDate: date("2024-06-05"), TotalPrice: 75000,
			Status: domain.BookingStatusPaid, PaymentStatus: domain.PaymentStatusPaid, PaymentMethod: domain.PaymentMethodWallet,
		}
		mock.ExpectQuery("SELECT (.+) FROM bookings WHERE id = \\$1").
			WithArgs(want.ID).
			WillReturnRows(bookingRow(sqlmock.NewRows(bookingCols), want))

		got, err := repo.GetByID(ctx, want.ID)
		require.NoError(t, err)
		assert.Equal(t, want.ID, got.ID)
		assert.Equal(t, want.EquipmentID, got.EquipmentID)
		assert.Equal(t, domain.BookingStatusPaid, got.Status)
		assert.Equal(t, domain.PaymentMethodWallet, got.PaymentMethod)
		assert.Equal(t, int64(75000), got.TotalPrice)
	})

	t.Run("Not found", func(t *testing.T) {
		id := uuid.New()
		mock.ExpectQuery("SELECT (.+) FROM bookings WHERE id = \\$1").
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows(bookingCols))

		_, err := repo.GetByID(ctx, id)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestBookingRepository_ListActiveByEquipment(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewBookingRepository(db)
	equipmentID := uuid.New()

	rows := sqlmock.NewRows(bookingCols)
	bookingRow(rows, domain.Booking{ID: uuid.New(), EquipmentID: equipmentID, RenterID: uuid.New(), OwnerID: uuid.New(),
		StartDate: date("2024-06-01"), EndDate: date("2024-06-05"), Status: domain.BookingStatusPaid, PaymentStatus: domain.PaymentStatusPaid})
	bookingRow(rows, domain.Booking{ID: uuid.New(), EquipmentID: equipmentID, RenterID: uuid.New(), OwnerID: uuid.New(),
		StartDate: date("2024-06-10"), EndDate: date("2024-06-12"), Status: domain.BookingStatusRequested, PaymentStatus: domain.PaymentStatusUnpaid})

	mock.ExpectQuery("SELECT (.+) FROM bookings WHERE equipment_id = \\$1 AND end_date >= \\$2 AND status = ANY").
		WithArgs(equipmentID, date("2024-06-01"), sqlmock.AnyArg()).
		WillReturnRows(rows)

	bookings, err := repo.ListActiveByEquipment(context.Background(), equipmentID, date("2024-06-01"))
	require.NoError(t, err)
	require.Len(t, bookings, 2)
	assert.Equal(t, date("2024-06-10"), bookings[1].StartDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepository_ListUnpaidRequestedBefore(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewBookingRepository(db)
	cutoff := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(bookingCols)
	bookingRow(rows, domain.Booking{ID: uuid.New(), EquipmentID: uuid.New(), RenterID: uuid.New(), OwnerID: uuid.New(),
		StartDate: date("2025-03-10"), EndDate: date("2025-03-12"), Status: domain.BookingStatusRequested, PaymentStatus: domain.PaymentStatusUnpaid})

	mock.ExpectQuery("SELECT (.+) FROM bookings WHERE status = 'requested' AND payment_status = 'unpaid' AND created_at < \\$1").
		WithArgs(cutoff, 50).
		WillReturnRows(rows)

	bookings, err := repo.ListUnpaidRequestedBefore(context.Background(), cutoff, 50)
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, domain.BookingStatusRequested, bookings[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepository_ListByRenter(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewBookingRepository(db)
	renterID := uuid.New()

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM bookings WHERE renter_id = \\$1 AND status = \\$2").
		WithArgs(renterID, "paid").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT (.+) FROM bookings WHERE renter_id = \\$1 AND status = \\$2 ORDER BY created_at DESC LIMIT \\$3 OFFSET \\$4").
		WithArgs(renterID, "paid", int32(10), int32(10)).
		WillReturnRows(bookingRow(sqlmock.NewRows(bookingCols), domain.Booking{ID: uuid.New(), RenterID: renterID,
			Status: domain.BookingStatusPaid, PaymentStatus: domain.PaymentStatusPaid}))

	bookings, total, err := repo.ListByRenter(context.Background(), renterID, "paid", 2, 10)
	require.NoError(t, err)
	assert.Equal(t, int32(1), total)
	assert.Len(t, bookings, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepository_Update(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewBookingRepository(db)
	b := &domain.Booking{ID: uuid.New(), Status: domain.BookingStatusOwnerRejected, PaymentStatus: domain.PaymentStatusPaid, RejectionReason: "busy"}

	mock.ExpectExec("UPDATE bookings SET status=\\$1").
		WithArgs("owner_rejected", "paid", "", "busy", false, false, sqlmock.AnyArg(), b.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, repo.Update(context.Background(), b))

	mock.ExpectExec("UPDATE bookings SET status=\\$1").WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Update(context.Background(), b), domain.ErrNotFound)
}
