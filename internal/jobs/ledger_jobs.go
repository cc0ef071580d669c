package jobs

import (
	"context"

	"service-portal-backend/internal/logger"
)

// ReconcileLedger re-syncs every record updated within the lookback
// window. It repairs entries left stale by a failed push-down or by a
// crash between a record write and its sync.
func (jr *JobRunner) ReconcileLedger() {
	jr.runWithRecovery("ReconcileLedger", func() {
		ctx := context.Background()
		since := jr.now().UTC().Add(-jr.config.ReconcileLookback())

		res, err := jr.reconciler.ReconcileSince(ctx, since)
		if err != nil {
			logger.Error("Failed to reconcile ledger", "since", since, "visited", res.Visited, "error", err)
			return
		}
		if res.Failed > 0 {
			logger.Warn("Ledger reconcile left records unsynced", "failed", res.Failed, "visited", res.Visited)
		}
		logger.Info("Reconciled ledger", "since", since, "visited", res.Visited, "synced", res.Synced)
	})
}
