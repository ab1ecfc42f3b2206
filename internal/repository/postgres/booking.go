package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"threewloc-backend/internal/domain"
	"threewloc-backend/internal/logger"
	"threewloc-backend/internal/repository"
)

const bookingColumns = `id, equipment_id, renter_id, owner_id, start_date, end_date, total_price, deposit_amount,
	status, payment_status, payment_method, rejection_reason, owner_signed, renter_signed, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

type bookingRepository struct {
	db Querier
}

func NewBookingRepository(db Querier) repository.BookingRepository {
	return &bookingRepository{db: db}
}

func scanBooking(s rowScanner) (*domain.Booking, error) {
	b := &domain.Booking{}
	err := s.Scan(&b.ID, &b.EquipmentID, &b.RenterID, &b.OwnerID, &b.StartDate, &b.EndDate, &b.TotalPrice, &b.DepositAmount,
		&b.Status, &b.PaymentStatus, &b.PaymentMethod, &b.RejectionReason, &b.OwnerSigned, &b.RenterSigned, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *bookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	logger.EnterMethod("bookingRepository.Create", "equipmentID", b.EquipmentID, "renterID", b.RenterID)

	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	now := time.Now().UTC()
	b.CreatedAt, b.UpdatedAt = now, now

	query := `INSERT INTO bookings (id, equipment_id, renter_id, owner_id, start_date, end_date, total_price, deposit_amount,
	          status, payment_status, payment_method, rejection_reason, owner_signed, renter_signed, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	logger.DatabaseCall("INSERT", "bookings", "bookingID", b.ID)
	_, err := r.db.ExecContext(ctx, query, b.ID, b.EquipmentID, b.RenterID, b.OwnerID, b.StartDate, b.EndDate, b.TotalPrice, b.DepositAmount,
		b.Status, b.PaymentStatus, b.PaymentMethod, b.RejectionReason, b.OwnerSigned, b.RenterSigned, b.CreatedAt, b.UpdatedAt)
	logger.DatabaseResult("INSERT", 1, err, "bookingID", b.ID)

	if pqCode(err) == pqExclusionViolation {
		err = &domain.DateConflictError{EquipmentID: b.EquipmentID, StartDate: b.StartDate, EndDate: b.EndDate}
	}
	if err != nil {
		logger.ExitMethodWithError("bookingRepository.Create", err)
		return err
	}
	logger.ExitMethod("bookingRepository.Create", "bookingID", b.ID)
	return nil
}

func (r *bookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	b, err := scanBooking(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err)
	}
	return b, nil
}

func (r *bookingRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1 FOR UPDATE`
	b, err := scanBooking(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err)
	}
	return b, nil
}

func (r *bookingRepository) Update(ctx context.Context, b *domain.Booking) error {
	b.UpdatedAt = time.Now().UTC()
	query := `UPDATE bookings SET status=$1, payment_status=$2, payment_method=$3, rejection_reason=$4,
	          owner_signed=$5, renter_signed=$6, updated_at=$7 WHERE id=$8`
	logger.DatabaseCall("UPDATE", "bookings", "bookingID", b.ID, "status", b.Status, "paymentStatus", b.PaymentStatus)
	res, err := r.db.ExecContext(ctx, query, b.Status, b.PaymentStatus, b.PaymentMethod, b.RejectionReason,
		b.OwnerSigned, b.RenterSigned, b.UpdatedAt, b.ID)
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err, "bookingID", b.ID)
		return err
	}
	n, _ := res.RowsAffected()
	logger.DatabaseResult("UPDATE", n, nil, "bookingID", b.ID)
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *bookingRepository) ListActiveByEquipment(ctx context.Context, equipmentID uuid.UUID, from time.Time) ([]domain.Booking, error) {
	active := make([]string, len(domain.ActiveBookingStatuses))
	for i, s := range domain.ActiveBookingStatuses {
		active[i] = string(s)
	}
	query := `SELECT ` + bookingColumns + ` FROM bookings
	          WHERE equipment_id = $1 AND end_date >= $2 AND status = ANY($3)
	          ORDER BY start_date`
	logger.DatabaseCall("SELECT", "bookings", "equipmentID", equipmentID, "from", from)
	rows, err := r.db.QueryContext(ctx, query, equipmentID, from, pq.Array(active))
	if err != nil {
		logger.DatabaseResult("SELECT", 0, err)
		return nil, err
	}
	defer rows.Close()

	bookings, err := scanBookings(rows)
	if err != nil {
		return nil, err
	}
	logger.DatabaseResult("SELECT", int64(len(bookings)), nil, "equipmentID", equipmentID)
	return bookings, nil
}

func scanBookings(rows *sql.Rows) ([]domain.Booking, error) {
	var bookings []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

func (r *bookingRepository) ListUnpaidRequestedBefore(ctx context.Context, before time.Time, limit int) ([]domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
	          WHERE status = 'requested' AND payment_status = 'unpaid' AND created_at < $1
	          ORDER BY created_at LIMIT $2`
	logger.DatabaseCall("SELECT", "bookings", "before", before)
	rows, err := r.db.QueryContext(ctx, query, before, limit)
	if err != nil {
		logger.DatabaseResult("SELECT", 0, err)
		return nil, err
	}
	defer rows.Close()

	bookings, err := scanBookings(rows)
	if err != nil {
		return nil, err
	}
	logger.DatabaseResult("SELECT", int64(len(bookings)), nil)
	return bookings, nil
}

func (r *bookingRepository) ListByRenter(ctx context.Context, renterID uuid.UUID, status string, page, pageSize int32) ([]domain.Booking, int32, error) {
	return r.listBy(ctx, "renter_id", renterID, status, page, pageSize)
}

func (r *bookingRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, status string, page, pageSize int32) ([]domain.Booking, int32, error) {
	return r.listBy(ctx, "owner_id", ownerID, status, page, pageSize)
}

// listBy pages through bookings where column matches userID. column is never
// user input.
func (r *bookingRepository) listBy(ctx context.Context, column string, userID uuid.UUID, status string, page, pageSize int32) ([]domain.Booking, int32, error) {
	offset := (page - 1) * pageSize
	where := ` FROM bookings WHERE ` + column + ` = $1`

	args := []any{userID}
	argIdx := 2
	if status != "" {
		where += " AND status = $2"
		args = append(args, status)
		argIdx++
	}

	var count int32
	if err := r.db.QueryRowContext(ctx, "SELECT count(*)"+where, args...).Scan(&count); err != nil {
		return nil, 0, err
	}

	query := "SELECT " + bookingColumns + where + fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, pageSize, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var bookings []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, 0, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, count, rows.Err()
}
