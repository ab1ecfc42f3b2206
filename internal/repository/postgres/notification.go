package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"threewloc-backend/internal/domain"
	"threewloc-backend/internal/logger"
	"threewloc-backend/internal/repository"
)

type notificationRepository struct {
	db Querier
}

func NewNotificationRepository(db Querier) repository.NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	logger.EnterMethod("notificationRepository.Create", "userID", n.UserID, "type", n.Type, "title", n.Title)

	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	n.CreatedAt = time.Now().UTC()

	query := `INSERT INTO notifications (id, user_id, type, title, message, booking_id, is_read, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	logger.DatabaseCall("INSERT", "notifications", "userID", n.UserID, "type", n.Type)

	_, err := r.db.ExecContext(ctx, query, n.ID, n.UserID, n.Type, n.Title, n.Message, n.BookingID, n.IsRead, n.CreatedAt)
	logger.DatabaseResult("INSERT", 1, err, "notificationID", n.ID)

	if err != nil {
		logger.ExitMethodWithError("notificationRepository.Create", err, "userID", n.UserID)
	} else {
		logger.ExitMethod("notificationRepository.Create", "notificationID", n.ID)
	}
	return err
}

func (r *notificationRepository) List(ctx context.Context, userID uuid.UUID, limit, offset int32) ([]domain.Notification, int32, error) {
	query := `SELECT id, user_id, type, title, message, booking_id, is_read, created_at
	          FROM notifications WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var notes []domain.Notification
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.BookingID, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, 0, err
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var count int32
	err = r.db.QueryRowContext(ctx, `SELECT count(*) FROM notifications WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		return nil, 0, err
	}
	return notes, count, nil
}

func (r *notificationRepository) MarkAsRead(ctx context.Context, id, userID uuid.UUID) error {
	query := `UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("notification not found or access denied: %w", domain.ErrNotFound)
	}
	return nil
}
