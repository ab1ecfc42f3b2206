package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"threewloc-backend/internal/domain"
	"threewloc-backend/internal/logger"
	"threewloc-backend/internal/repository"
)

type disputeRepository struct {
	db Querier
}

func NewDisputeRepository(db Querier) repository.DisputeRepository {
	return &disputeRepository{db: db}
}

func (r *disputeRepository) Create(ctx context.Context, d *domain.Dispute) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.Status == "" {
		d.Status = domain.DisputeStatusOpen
	}
	d.CreatedAt = time.Now().UTC()

	query := `INSERT INTO disputes (id, booking_id, opened_by, condition, notes, status, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`
	logger.DatabaseCall("INSERT", "disputes", "bookingID", d.BookingID)
	_, err := r.db.ExecContext(ctx, query, d.ID, d.BookingID, d.OpenedBy, d.Condition, d.Notes, d.Status, d.CreatedAt)
	logger.DatabaseResult("INSERT", 1, err, "disputeID", d.ID)
	return err
}

func (r *disputeRepository) ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]domain.Dispute, error) {
	query := `SELECT id, booking_id, opened_by, condition, COALESCE(notes, ''), status, created_at
	          FROM disputes WHERE booking_id = $1 ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var disputes []domain.Dispute
	for rows.Next() {
		var d domain.Dispute
		if err := rows.Scan(&d.ID, &d.BookingID, &d.OpenedBy, &d.Condition, &d.Notes, &d.Status, &d.CreatedAt); err != nil {
			return nil, err
		}
		disputes = append(disputes, d)
	}
	return disputes, rows.Err()
}
