package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"threewloc-backend/internal/domain"
	"threewloc-backend/internal/logger"
	"threewloc-backend/internal/repository"
)

// Querier is satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const (
	pqExclusionViolation = "23P01"
	pqUniqueViolation    = "23505"

	paymentsProviderTransactionIndex = "payments_provider_transaction_key"
)

type Store struct {
	db *sql.DB
	repository.UserRepository
	repository.EquipmentRepository
	repository.BookingRepository
	repository.WalletRepository
	repository.PaymentRepository
	repository.DisputeRepository
	repository.NotificationRepository
}

func NewStore(db *sql.DB) *Store {
	repos := newRepositories(db)
	return &Store{
		db:                     db,
		UserRepository:         repos.Users,
		EquipmentRepository:    repos.Equipment,
		BookingRepository:      repos.Bookings,
		WalletRepository:       repos.Wallets,
		PaymentRepository:      repos.Payments,
		DisputeRepository:      repos.Disputes,
		NotificationRepository: repos.Notifications,
	}
}

func newRepositories(q Querier) repository.Repositories {
	return repository.Repositories{
		Users:         NewUserRepository(q),
		Equipment:     NewEquipmentRepository(q),
		Bookings:      NewBookingRepository(q),
		Wallets:       NewWalletRepository(q),
		Payments:      NewPaymentRepository(q),
		Disputes:      NewDisputeRepository(q),
		Notifications: NewNotificationRepository(q),
	}
}

// Repositories returns the store's repositories bound to the pool.
func (s *Store) Repositories() repository.Repositories {
	return newRepositories(s.db)
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(ctx, newRepositories(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			logger.Error("Transaction rollback failed", "error", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// notFound maps sql.ErrNoRows to domain.ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}

func pqConstraint(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Constraint
	}
	return ""
}

func pqCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}
