package ledger

import (
	"context"
	"errors"
	"time"

	"service-portal-backend/internal/domain"
)

// ReconcileResult counts what a reconcile pass did.
type ReconcileResult struct {
	Visited int
	Synced  int
	Failed  int
}

// ReconcileSince re-syncs every record updated at or after since. It heals
// ledger entries left behind by a failed ledger write after a push-down or
// a crash between a record write and its sync. Individual failures are logged and counted;
// only a failure to list a store aborts the pass.
func (e *Engine) ReconcileSince(ctx context.Context, since time.Time) (ReconcileResult, error) {
	var res ReconcileResult
	for _, st := range domain.ServiceTypes {
		store, ok := e.sources[st]
		if !ok {
			continue
		}
		ids, err := store.ListUpdatedSince(ctx, since)
		if err != nil {
			return res, err
		}
		for _, id := range ids {
			if err := ctx.Err(); err != nil {
				return res, err
			}
			res.Visited++
			_, err := e.SyncFromSource(ctx, st, id)
			e.metrics.RecordReconciled(string(st), err)
			switch {
			case err == nil:
				res.Synced++
			case errors.Is(err, domain.ErrSourceNotFound):
				// Deleted between listing and loading.
				res.Failed++
			default:
				res.Failed++
				e.log.Warn("Reconcile sync failed", "service_type", st, "source_id", id, "error", err)
			}
		}
	}
	e.log.Info("Reconcile pass finished", "since", since, "visited", res.Visited, "synced", res.Synced, "failed", res.Failed)
	return res, nil
}
