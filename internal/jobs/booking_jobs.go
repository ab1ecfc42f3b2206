package jobs

import (
	"context"

	"threewloc-backend/internal/logger"
)

// ExpireUnpaidBookings frees the dates held by requests nobody paid for.
func (jr *JobRunner) ExpireUnpaidBookings() {
	jr.runWithRecovery("ExpireUnpaidBookings", func(ctx context.Context) {
		expired, err := jr.services.Expiry.ExpireUnpaidRequests(ctx, jr.config.Scheduler.BatchSize)
		if err != nil {
			logger.Error("Failed to expire unpaid bookings", "error", err)
			return
		}
		if expired > 0 {
			logger.Info("Expired unpaid bookings", "count", expired)
		}
	})
}
