package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"threewloc-backend/internal/domain"
	"threewloc-backend/internal/logger"
	"threewloc-backend/internal/repository"
)

const walletTxColumns = `id, wallet_id, amount, type, status, COALESCE(description, ''), booking_id, reference, created_at`

type walletRepository struct {
	db Querier
}

func NewWalletRepository(db Querier) repository.WalletRepository {
	return &walletRepository{db: db}
}

func scanWalletTx(s rowScanner) (*domain.WalletTransaction, error) {
	tx := &domain.WalletTransaction{}
	err := s.Scan(&tx.ID, &tx.WalletID, &tx.Amount, &tx.Type, &tx.Status, &tx.Description, &tx.BookingID, &tx.Reference, &tx.CreatedAt)
	if err != nil {
		return nil, err
	}
	return tx, nil
}

func (r *walletRepository) Create(ctx context.Context, w *domain.WalletAccount) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	now := time.Now().UTC()
	w.CreatedAt, w.UpdatedAt = now, now

	query := `INSERT INTO wallets (id, user_id, balance, frozen, frozen_reason, created_at, updated_at)
	          VALUES ($1, $2, 0, false, '', $3, $4)`
	logger.DatabaseCall("INSERT", "wallets", "userID", w.UserID)
	_, err := r.db.ExecContext(ctx, query, w.ID, w.UserID, w.CreatedAt, w.UpdatedAt)
	logger.DatabaseResult("INSERT", 1, err, "walletID", w.ID)
	if pqCode(err) == pqUniqueViolation {
		return domain.ErrWalletExists
	}
	return err
}

func (r *walletRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.WalletAccount, error) {
	return r.getWallet(ctx, `WHERE id = $1`, id)
}

func (r *walletRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.WalletAccount, error) {
	return r.getWallet(ctx, `WHERE user_id = $1`, userID)
}

func (r *walletRepository) getWallet(ctx context.Context, where string, arg any) (*domain.WalletAccount, error) {
	w := &domain.WalletAccount{}
	query := `SELECT id, user_id, balance, frozen, COALESCE(frozen_reason, ''), created_at, updated_at FROM wallets ` + where
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&w.ID, &w.UserID, &w.Balance, &w.Frozen, &w.FrozenReason, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return w, nil
}

func (r *walletRepository) ApplyTransaction(ctx context.Context, tx *domain.WalletTransaction) error {
	logger.EnterMethod("walletRepository.ApplyTransaction", "walletID", tx.WalletID, "amount", tx.Amount, "type", tx.Type)

	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	tx.Status = domain.TransactionStatusCompleted
	tx.CreatedAt = time.Now().UTC()

	// The balance guard and the ledger insert share one statement, so a
	// rejected debit leaves no transaction behind.
	query := `WITH w AS (
	              UPDATE wallets SET balance = balance + $3, updated_at = $8
	              WHERE id = $2 AND NOT frozen AND balance + $3 >= 0
	              RETURNING id
	          )
	          INSERT INTO wallet_transactions (id, wallet_id, amount, type, status, description, booking_id, reference, created_at)
	          SELECT $1, w.id, $3, $4, 'completed', $5, $6, $7, $8 FROM w
	          RETURNING id`
	logger.DatabaseCall("INSERT", "wallet_transactions", "walletID", tx.WalletID, "amount", tx.Amount)
	var id uuid.UUID
	err := r.db.QueryRowContext(ctx, query, tx.ID, tx.WalletID, tx.Amount, tx.Type, tx.Description, tx.BookingID, tx.Reference, tx.CreatedAt).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		err = r.classifyRejected(ctx, tx.WalletID, tx.Amount)
	}
	logger.DatabaseResult("INSERT", 1, err, "transactionID", tx.ID)

	if err != nil {
		logger.ExitMethodWithError("walletRepository.ApplyTransaction", err, "walletID", tx.WalletID)
		return err
	}
	logger.ExitMethod("walletRepository.ApplyTransaction", "transactionID", tx.ID)
	return nil
}

// classifyRejected explains why a guarded balance update matched no row.
func (r *walletRepository) classifyRejected(ctx context.Context, walletID uuid.UUID, amount int64) error {
	var balance int64
	var frozen bool
	err := r.db.QueryRowContext(ctx, `SELECT balance, frozen FROM wallets WHERE id = $1`, walletID).Scan(&balance, &frozen)
	if err != nil {
		return notFound(err)
	}
	if frozen {
		return domain.ErrWalletFrozen
	}
	return &domain.InsufficientFundsError{WalletID: walletID, Balance: balance, Requested: -amount}
}

func (r *walletRepository) InsertPending(ctx context.Context, tx *domain.WalletTransaction) error {
	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	tx.Status = domain.TransactionStatusPending
	tx.CreatedAt = time.Now().UTC()

	query := `INSERT INTO wallet_transactions (id, wallet_id, amount, type, status, description, booking_id, reference, created_at)
	          VALUES ($1, $2, $3, $4, 'pending', $5, $6, $7, $8)`
	logger.DatabaseCall("INSERT", "wallet_transactions", "walletID", tx.WalletID, "status", "pending")
	_, err := r.db.ExecContext(ctx, query, tx.ID, tx.WalletID, tx.Amount, tx.Type, tx.Description, tx.BookingID, tx.Reference, tx.CreatedAt)
	logger.DatabaseResult("INSERT", 1, err, "transactionID", tx.ID)
	return err
}

func (r *walletRepository) CompletePending(ctx context.Context, txID uuid.UUID) (bool, error) {
	var walletID uuid.UUID
	var amount int64
	err := r.db.QueryRowContext(ctx,
		`UPDATE wallet_transactions SET status = 'completed' WHERE id = $1 AND status = 'pending' RETURNING wallet_id, amount`,
		txID).Scan(&walletID, &amount)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE wallets SET balance = balance + $2, updated_at = $3 WHERE id = $1 AND NOT frozen AND balance + $2 >= 0`,
		walletID, amount, time.Now().UTC())
	if err != nil {
		return false, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return false, r.classifyRejected(ctx, walletID, amount)
	}
	logger.DatabaseResult("UPDATE", 1, nil, "transactionID", txID, "walletID", walletID)
	return true, nil
}

func (r *walletRepository) FailPending(ctx context.Context, txID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `UPDATE wallet_transactions SET status = 'failed' WHERE id = $1 AND status = 'pending'`, txID)
	return err
}

func (r *walletRepository) GetTransactionByReference(ctx context.Context, reference string) (*domain.WalletTransaction, error) {
	query := `SELECT ` + walletTxColumns + ` FROM wallet_transactions WHERE reference = $1 ORDER BY created_at DESC LIMIT 1`
	tx, err := scanWalletTx(r.db.QueryRowContext(ctx, query, reference))
	if err != nil {
		return nil, notFound(err)
	}
	return tx, nil
}

func (r *walletRepository) ListTransactions(ctx context.Context, walletID uuid.UUID, page, pageSize int32) ([]domain.WalletTransaction, int32, error) {
	offset := (page - 1) * pageSize
	query := `SELECT ` + walletTxColumns + ` FROM wallet_transactions WHERE wallet_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, query, walletID, pageSize, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var txs []domain.WalletTransaction
	for rows.Next() {
		tx, err := scanWalletTx(rows)
		if err != nil {
			return nil, 0, err
		}
		txs = append(txs, *tx)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var count int32
	err = r.db.QueryRowContext(ctx, `SELECT count(*) FROM wallet_transactions WHERE wallet_id = $1`, walletID).Scan(&count)
	if err != nil {
		return nil, 0, err
	}
	return txs, count, nil
}

func (r *walletRepository) LedgerChecks(ctx context.Context) ([]domain.LedgerCheck, error) {
	query := `SELECT w.id, w.user_id, w.balance,
	                 COALESCE(SUM(t.amount) FILTER (WHERE t.status = 'completed'), 0) AS ledger_sum,
	                 w.frozen
	          FROM wallets w
	          LEFT JOIN wallet_transactions t ON t.wallet_id = w.id
	          GROUP BY w.id, w.user_id, w.balance, w.frozen`
	logger.DatabaseCall("SELECT", "wallets")
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		logger.DatabaseResult("SELECT", 0, err)
		return nil, err
	}
	defer rows.Close()

	var checks []domain.LedgerCheck
	for rows.Next() {
		var c domain.LedgerCheck
		if err := rows.Scan(&c.WalletID, &c.UserID, &c.Balance, &c.LedgerSum, &c.Frozen); err != nil {
			return nil, err
		}
		checks = append(checks, c)
	}
	logger.DatabaseResult("SELECT", int64(len(checks)), rows.Err())
	return checks, rows.Err()
}

func (r *walletRepository) Freeze(ctx context.Context, walletID uuid.UUID, reason string) error {
	logger.DatabaseCall("UPDATE", "wallets", "walletID", walletID, "frozen", true)
	_, err := r.db.ExecContext(ctx, `UPDATE wallets SET frozen = true, frozen_reason = $2, updated_at = $3 WHERE id = $1`,
		walletID, reason, time.Now().UTC())
	logger.DatabaseResult("UPDATE", 1, err, "walletID", walletID)
	return err
}
