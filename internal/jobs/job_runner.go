package jobs

import (
	"context"
	"time"

	"service-portal-backend/internal/config"
	"service-portal-backend/internal/ledger"
	"service-portal-backend/internal/logger"
)

// Reconciler re-derives ledger entries from recently changed records.
// *ledger.Engine satisfies it.
type Reconciler interface {
	ReconcileSince(ctx context.Context, since time.Time) (ledger.ReconcileResult, error)
}

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	reconciler Reconciler
	config     *config.Config
	now        func() time.Time
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(reconciler Reconciler, cfg *config.Config) *JobRunner {
	return &JobRunner{
		reconciler: reconciler,
		config:     cfg,
		now:        time.Now,
	}
}

// Config returns the configuration the scheduler reads cron specs from
func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
		}
	}()

	logger.Info("Starting job", "job", jobName)
	jobFunc()
	logger.Info("Job completed", "job", jobName)
}

// RunAll runs every job once (for manual execution)
func (jr *JobRunner) RunAll() {
	jr.ReconcileLedger()
}
