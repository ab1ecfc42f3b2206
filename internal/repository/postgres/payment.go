package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"threewloc-backend/internal/domain"
	"threewloc-backend/internal/logger"
	"threewloc-backend/internal/repository"
)

const paymentColumns = `id, reference, provider, COALESCE(provider_transaction_id, ''), purpose, booking_id, user_id, amount, currency,
	status, COALESCE(checkout_url, ''), verify_attempts, next_verify_at, refund_status, COALESCE(refund_reason, ''),
	COALESCE(failure_reason, ''), needs_attention, created_at, updated_at`

type paymentRepository struct {
	db Querier
}

func NewPaymentRepository(db Querier) repository.PaymentRepository {
	return &paymentRepository{db: db}
}

func scanPayment(s rowScanner) (*domain.Payment, error) {
	p := &domain.Payment{}
	err := s.Scan(&p.ID, &p.Reference, &p.Provider, &p.ProviderTransactionID, &p.Purpose, &p.BookingID, &p.UserID, &p.Amount, &p.Currency,
		&p.Status, &p.CheckoutURL, &p.VerifyAttempts, &p.NextVerifyAt, &p.RefundStatus, &p.RefundReason,
		&p.FailureReason, &p.NeedsAttention, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *paymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Reference == "" {
		p.Reference = p.ID.String()
	}
	if p.RefundStatus == "" {
		p.RefundStatus = domain.RefundStatusNone
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now

	query := `INSERT INTO payments (id, reference, provider, provider_transaction_id, purpose, booking_id, user_id, amount, currency,
	          status, checkout_url, verify_attempts, next_verify_at, refund_status, refund_reason, failure_reason, needs_attention,
	          created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`
	logger.DatabaseCall("INSERT", "payments", "reference", p.Reference, "provider", p.Provider)
	_, err := r.db.ExecContext(ctx, query, p.ID, p.Reference, p.Provider, p.ProviderTransactionID, p.Purpose, p.BookingID, p.UserID, p.Amount, p.Currency,
		p.Status, p.CheckoutURL, p.VerifyAttempts, p.NextVerifyAt, p.RefundStatus, p.RefundReason, p.FailureReason, p.NeedsAttention,
		p.CreatedAt, p.UpdatedAt)
	logger.DatabaseResult("INSERT", 1, err, "paymentID", p.ID)
	return providerTransactionInUse(err)
}

// providerTransactionInUse maps a violation of the provider transaction index,
// which stops one provider payment from settling two of ours.
func providerTransactionInUse(err error) error {
	if pqCode(err) == pqUniqueViolation && pqConstraint(err) == paymentsProviderTransactionIndex {
		return domain.ErrProviderTransactionInUse
	}
	return err
}

func (r *paymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	p, err := scanPayment(r.db.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

func (r *paymentRepository) GetByReference(ctx context.Context, reference string) (*domain.Payment, error) {
	p, err := scanPayment(r.db.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE reference = $1`, reference))
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

func (r *paymentRepository) GetSettledForBooking(ctx context.Context, bookingID uuid.UUID) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments
	          WHERE booking_id = $1 AND purpose = 'booking' AND status = 'completed'
	          ORDER BY updated_at DESC LIMIT 1`
	p, err := scanPayment(r.db.QueryRowContext(ctx, query, bookingID))
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

func (r *paymentRepository) Update(ctx context.Context, p *domain.Payment) error {
	p.UpdatedAt = time.Now().UTC()
	query := `UPDATE payments SET provider_transaction_id=$1, status=$2, checkout_url=$3, verify_attempts=$4, next_verify_at=$5,
	          refund_status=$6, refund_reason=$7, failure_reason=$8, needs_attention=$9, updated_at=$10
	          WHERE id=$11`
	logger.DatabaseCall("UPDATE", "payments", "paymentID", p.ID, "status", p.Status, "refundStatus", p.RefundStatus)
	res, err := r.db.ExecContext(ctx, query, p.ProviderTransactionID, p.Status, p.CheckoutURL, p.VerifyAttempts, p.NextVerifyAt,
		p.RefundStatus, p.RefundReason, p.FailureReason, p.NeedsAttention, p.UpdatedAt, p.ID)
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err, "paymentID", p.ID)
		return providerTransactionInUse(err)
	}
	n, _ := res.RowsAffected()
	logger.DatabaseResult("UPDATE", n, nil, "paymentID", p.ID)
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *paymentRepository) ListDueForVerification(ctx context.Context, now time.Time, limit int) ([]domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments
	          WHERE status = 'pending' AND provider <> 'wallet'
	            AND (next_verify_at IS NULL OR next_verify_at <= $1)
	          ORDER BY created_at LIMIT $2`
	return r.list(ctx, query, now, limit)
}

func (r *paymentRepository) ListFailedRefunds(ctx context.Context, limit int) ([]domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments
	          WHERE refund_status = 'failed' AND needs_attention
	          ORDER BY updated_at LIMIT $1`
	return r.list(ctx, query, limit)
}

func (r *paymentRepository) HasPendingForBooking(ctx context.Context, bookingID uuid.UUID) (bool, error) {
	var pending bool
	query := `SELECT EXISTS (SELECT 1 FROM payments WHERE booking_id = $1 AND status = 'pending')`
	logger.DatabaseCall("SELECT", "payments", "bookingID", bookingID)
	err := r.db.QueryRowContext(ctx, query, bookingID).Scan(&pending)
	logger.DatabaseResult("SELECT", 1, err, "bookingID", bookingID)
	return pending, err
}

func (r *paymentRepository) list(ctx context.Context, query string, args ...any) ([]domain.Payment, error) {
	logger.DatabaseCall("SELECT", "payments")
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.DatabaseResult("SELECT", 0, err)
		return nil, err
	}
	defer rows.Close()

	var payments []domain.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *p)
	}
	logger.DatabaseResult("SELECT", int64(len(payments)), rows.Err())
	return payments, rows.Err()
}
