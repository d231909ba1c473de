package rewind

import (
	"log/slog"
	"time"

	"vibecast/src/features/config"
	"vibecast/src/features/jobs"
)

// Scheduler starts the bulk recompute on a fixed interval. It runs inside
// the process; two instances of the service would each run their own
// schedule, there is no distributed lock.
type Scheduler struct {
	configManager *config.Manager
	jobService    jobs.JobService
	stopChan      chan struct{}
}

// NewScheduler creates a new scheduler.
func NewScheduler(cfgManager *config.Manager, jobService jobs.JobService) *Scheduler {
	return &Scheduler{
		configManager: cfgManager,
		jobService:    jobService,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the periodic schedule.
func (s *Scheduler) Start() {
	go s.run()
}

// Stop halts the schedule. A run already started keeps going to completion.
func (s *Scheduler) Stop() {
	close(s.stopChan)
}

func (s *Scheduler) run() {
	interval := time.Duration(s.configManager.Get().Rewind.IntervalHours) * time.Hour
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("rewind scheduler started", "interval", interval)
	for {
		select {
		case <-ticker.C:
			s.trigger()
		case <-s.stopChan:
			slog.Info("rewind scheduler stopped")
			return
		}
	}
}

func (s *Scheduler) trigger() {
	jobID, err := s.jobService.StartJob(JobType, "Scheduled rewind recompute", nil)
	if err != nil {
		slog.Error("failed to start scheduled rewind job", "error", err)
		return
	}
	slog.Info("scheduled rewind job started", "job_id", jobID)
}
