package jobs

import (
	"context"

	"threewloc-backend/internal/logger"
)

// VerifyPendingPayments polls providers for charges whose next check is due.
// Callbacks can be lost, so this is what eventually settles every payment.
func (jr *JobRunner) VerifyPendingPayments() {
	jr.runWithRecovery("VerifyPendingPayments", func(ctx context.Context) {
		resolved, err := jr.services.Payments.VerifyDuePayments(ctx, jr.config.Scheduler.BatchSize)
		if err != nil {
			logger.Error("Failed to verify pending payments", "error", err)
			return
		}
		if resolved > 0 {
			logger.Info("Resolved pending payments", "count", resolved)
		}
	})
}

// RetryFailedRefunds retries gateway refunds for rejected bookings.
func (jr *JobRunner) RetryFailedRefunds() {
	jr.runWithRecovery("RetryFailedRefunds", func(ctx context.Context) {
		refunded, err := jr.services.Refunds.RetryFailedRefunds(ctx, jr.config.Scheduler.BatchSize)
		if err != nil {
			logger.Error("Failed to retry refunds", "error", err)
			return
		}
		if refunded > 0 {
			logger.Info("Completed refunds on retry", "count", refunded)
		}
	})
}
