package jobs

import (
	"context"

	"threewloc-backend/internal/logger"
)

// ReconcileWallets checks every balance against its completed transactions.
// Broken wallets are frozen by the service.
func (jr *JobRunner) ReconcileWallets() {
	jr.runWithRecovery("ReconcileWallets", func(ctx context.Context) {
		broken, err := jr.services.Ledger.Reconcile(ctx)
		if err != nil {
			logger.Error("Failed to reconcile wallets", "error", err)
			return
		}
		if len(broken) > 0 {
			logger.Error("Ledger reconciliation found mismatches", "count", len(broken))
			return
		}
		logger.Info("Ledger reconciliation clean")
	})
}
