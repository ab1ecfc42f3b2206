package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"threewloc-backend/internal/domain"
	"threewloc-backend/internal/logger"
	"threewloc-backend/internal/repository"
)

type equipmentRepository struct {
	db Querier
}

func NewEquipmentRepository(db Querier) repository.EquipmentRepository {
	return &equipmentRepository{db: db}
}

func (r *equipmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Equipment, error) {
	e := &domain.Equipment{}
	var weekly sql.NullInt64
	query := `SELECT id, owner_id, title, daily_price, weekly_price, deposit_amount, status, moderation_status, updated_at
	          FROM equipment WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&e.ID, &e.OwnerID, &e.Title, &e.DailyPrice, &weekly, &e.DepositAmount, &e.Status, &e.ModerationStatus, &e.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	if weekly.Valid {
		e.WeeklyPrice = &weekly.Int64
	}
	return e, nil
}

func (r *equipmentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.EquipmentStatus) error {
	logger.DatabaseCall("UPDATE", "equipment", "equipmentID", id, "status", status)
	query := `UPDATE equipment SET status = $1, updated_at = $2 WHERE id = $3`
	res, err := r.db.ExecContext(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err)
		return err
	}
	n, _ := res.RowsAffected()
	logger.DatabaseResult("UPDATE", n, nil, "equipmentID", id)
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
