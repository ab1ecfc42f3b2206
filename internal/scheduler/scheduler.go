package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"

	"threewloc-backend/internal/jobs"
	"threewloc-backend/internal/logger"
)

// Scheduler manages cron job scheduling
type Scheduler struct {
	cron *cron.Cron
	jobs *jobs.JobRunner
}

// NewScheduler creates a new scheduler with the provided job runner
func NewScheduler(jobRunner *jobs.JobRunner) *Scheduler {
	// Create cron with UTC timezone and seconds precision. A run that is
	// still going when the next tick fires is skipped.
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithSeconds(),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)

	s := &Scheduler{
		cron: c,
		jobs: jobRunner,
	}

	s.registerJobs()
	return s
}

// registerJobs registers all scheduled jobs with the cron scheduler
func (s *Scheduler) registerJobs() {
	cfg := s.jobs.Config().Scheduler

	_, err := s.cron.AddFunc(cfg.VerifyPendingPayments, s.jobs.VerifyPendingPayments)
	if err != nil {
		logger.Error("Failed to register VerifyPendingPayments job", "error", err)
	}

	_, err = s.cron.AddFunc(cfg.RetryFailedRefunds, s.jobs.RetryFailedRefunds)
	if err != nil {
		logger.Error("Failed to register RetryFailedRefunds job", "error", err)
	}

	_, err = s.cron.AddFunc(cfg.ExpireUnpaidBookings, s.jobs.ExpireUnpaidBookings)
	if err != nil {
		logger.Error("Failed to register ExpireUnpaidBookings job", "error", err)
	}

	// Nightly
	_, err = s.cron.AddFunc(cfg.ReconcileWallets, s.jobs.ReconcileWallets)
	if err != nil {
		logger.Error("Failed to register ReconcileWallets job", "error", err)
	}

	logger.Info("Cron jobs registered", "count", len(s.cron.Entries()))
}

// Start begins the cron scheduler
func (s *Scheduler) Start() {
	logger.Info("Starting cron scheduler...")
	s.cron.Start()
}

// Stop gracefully stops the cron scheduler, waiting for running jobs
func (s *Scheduler) Stop() {
	logger.Info("Stopping cron scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("Cron scheduler stopped")
}

// IsRunning returns true if the scheduler has jobs registered
func (s *Scheduler) IsRunning() bool {
	return len(s.cron.Entries()) > 0
}
