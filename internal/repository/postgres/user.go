package postgres

import (
	"context"

	"github.com/google/uuid"

	"threewloc-backend/internal/domain"
	"threewloc-backend/internal/repository"
)

type userRepository struct {
	db Querier
}

func NewUserRepository(db Querier) repository.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	u := &domain.User{}
	query := `SELECT id, email, COALESCE(full_name, '') FROM profiles WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&u.ID, &u.Email, &u.FullName)
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}
