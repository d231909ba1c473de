package rewind

import (
	"context"

	"vibecast/src/features/jobs"
)

// JobType is the job type the bulk recompute registers under.
const JobType = "rewind_all"

// RewindTask implements jobs.Task for the bulk recompute.
type RewindTask struct {
	driver *Driver
}

// NewRewindTask creates a new RewindTask.
func NewRewindTask(driver *Driver) *RewindTask {
	return &RewindTask{driver: driver}
}

// MetadataKeys returns the required metadata keys for a rewind job.
func (t *RewindTask) MetadataKeys() []string {
	return []string{}
}

// Execute runs the bulk recompute and reports per-pair failures through the
// job metadata. Partial failure does not fail the job.
func (t *RewindTask) Execute(ctx context.Context, job *jobs.Job, progressUpdater func(int, string)) (map[string]any, error) {
	progressUpdater(0, "Collecting users and templates...")

	report, err := t.driver.RunAll(ctx, func(done, total int) {
		progressUpdater(done*100/total, "Recomputing rewind playlists...")
	})
	if err != nil {
		return nil, err
	}

	stats := map[string]any{
		"total":     report.Total,
		"succeeded": report.Succeeded,
		"failed":    report.Failed,
		"success":   report.Success,
	}
	if len(report.Errors) > 0 {
		stats["errors"] = report.Errors
	}
	return stats, nil
}

// Cleanup has nothing to release for rewind jobs.
func (t *RewindTask) Cleanup(job *jobs.Job) error {
	return nil
}
