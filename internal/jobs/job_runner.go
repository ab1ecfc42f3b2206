package jobs

import (
	"context"
	"time"

	"threewloc-backend/internal/config"
	"threewloc-backend/internal/domain"
	"threewloc-backend/internal/logger"
)

// jobTimeout bounds a single run so a stuck provider cannot pile up runs.
const jobTimeout = 5 * time.Minute

type PaymentVerifier interface {
	VerifyDuePayments(ctx context.Context, limit int) (int, error)
}

type RefundRetrier interface {
	RetryFailedRefunds(ctx context.Context, limit int) (int, error)
}

type BookingExpirer interface {
	ExpireUnpaidRequests(ctx context.Context, limit int) (int, error)
}

type LedgerReconciler interface {
	Reconcile(ctx context.Context) ([]domain.LedgerCheck, error)
}

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	services *Services
	config   *config.Config
}

// Services holds all service dependencies needed by jobs
type Services struct {
	Payments PaymentVerifier
	Refunds  RefundRetrier
	Expiry   BookingExpirer
	Ledger   LedgerReconciler
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(services *Services, cfg *config.Config) *JobRunner {
	return &JobRunner{
		services: services,
		config:   cfg,
	}
}

// Config returns the configuration the runner was built with
func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func(ctx context.Context)) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	logger.Debug("Starting job", "job", jobName)
	jobFunc(ctx)
	logger.Debug("Job completed", "job", jobName)
}

// RunAll runs every job once (for manual execution)
func (jr *JobRunner) RunAll() {
	jr.VerifyPendingPayments()
	jr.RetryFailedRefunds()
	jr.ExpireUnpaidBookings()
	jr.ReconcileWallets()
}
