package rewind

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"vibecast/src/features/jobs"
)

// Handler is the handler for the rewind feature.
type Handler struct {
	service    *Service
	jobService jobs.JobService
}

// NewHandler creates a new handler for the rewind feature.
func NewHandler(service *Service, jobService jobs.JobService) *Handler {
	return &Handler{service: service, jobService: jobService}
}

// Run starts a bulk recompute and returns immediately with the job id.
func (h *Handler) Run(c *fiber.Ctx) error {
	jobID, err := h.jobService.StartJob(JobType, "Rewind recompute", nil)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}

	slog.Info("rewind job triggered", "job_id", jobID)
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"job_id": jobID})
}

// GetUserRewind returns a user's rewind playlist with its tracks.
func (h *Handler) GetUserRewind(c *fiber.Ctx) error {
	result, err := h.service.GetUserRewind(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(result)
}
