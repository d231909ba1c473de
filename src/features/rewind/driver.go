package rewind

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/time/rate"

	"vibecast/src/catalog"
)

// PairError records one failed user/template recompute in a bulk run.
type PairError struct {
	UserID   string `json:"userId"`
	Template string `json:"template"`
	Error    string `json:"error"`
}

// Report is the aggregate outcome of a bulk run. Partial failure is a valid
// outcome: Success means every pair completed, not that the run ran.
type Report struct {
	Total     int         `json:"total"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
	Success   bool        `json:"success"`
	Errors    []PairError `json:"errors,omitempty"`
}

// Driver fans the recompute out over every active user and template pair.
type Driver struct {
	service   *Service
	userStore catalog.UserStore
	params    Params
	limiter   *rate.Limiter
}

// NewDriver creates a bulk driver. pairsPerSecond bounds store pressure
// during a run; zero or negative disables pacing.
func NewDriver(service *Service, userStore catalog.UserStore, params Params, pairsPerSecond float64) *Driver {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if pairsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(pairsPerSecond), 1)
	}
	return &Driver{
		service:   service,
		userStore: userStore,
		params:    params,
		limiter:   limiter,
	}
}

// RunAll recomputes every active user's instance of every template. Each
// pair runs independently: one failure is recorded and the rest continue.
// The returned report is complete even when err is nil and Failed > 0.
func (d *Driver) RunAll(ctx context.Context, progress func(done, total int)) (*Report, error) {
	users, err := d.userStore.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active users: %w", err)
	}
	templates, err := d.service.playlistStore.ListTemplates(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}

	report := &Report{Total: len(users) * len(templates)}
	if report.Total == 0 {
		report.Success = true
		return report, nil
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		done int
	)
	for _, user := range users {
		for _, template := range templates {
			if err := d.limiter.Wait(ctx); err != nil {
				// Context cancelled mid-run. Let in-flight pairs settle
				// before counting the never-launched remainder as failed.
				wg.Wait()
				mu.Lock()
				report.Failed = report.Total - report.Succeeded
				mu.Unlock()
				return report, err
			}

			wg.Add(1)
			go func(userID string, template *catalog.Playlist) {
				defer wg.Done()
				recErr := d.service.Recompute(ctx, userID, template, d.params)

				mu.Lock()
				defer mu.Unlock()
				done++
				if recErr != nil {
					report.Failed++
					report.Errors = append(report.Errors, PairError{
						UserID:   userID,
						Template: template.Name,
						Error:    recErr.Error(),
					})
					slog.Error("rewind recompute failed", "user", userID, "template", template.Name, "error", recErr)
				} else {
					report.Succeeded++
				}
				if progress != nil {
					progress(done, report.Total)
				}
			}(user.ID, template)
		}
	}
	wg.Wait()

	report.Success = report.Failed == 0
	slog.Info("rewind bulk run finished",
		"total", report.Total, "succeeded", report.Succeeded, "failed", report.Failed)
	return report, nil
}
