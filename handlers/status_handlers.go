package handlers

import (
	"github.com/gofiber/fiber/v2"

	"framegrab/internal/identity"
	"framegrab/utils"
)

// StatusResponse documents the status payload. ERROR carries error; DONE
// always carries archiveUrl (null for free viewers), frames and isProTier.
type StatusResponse struct {
	Status     string         `json:"status" enums:"QUEUED,PROCESSING,DONE,ERROR"`
	Error      string         `json:"error,omitempty"`
	ArchiveURL *string        `json:"archiveUrl" extensions:"x-nullable"`
	Frames     []FrameExample `json:"frames,omitempty"`
	IsProTier  *bool          `json:"isProTier,omitempty"`
}

// FrameExample documents one frame entry in a DONE payload.
type FrameExample struct {
	ID        int    `json:"id" example:"1"`
	Timestamp string `json:"timestamp" example:"00:01:05"`
	ImageURL  string `json:"imageUrl"`
	IsLocked  bool   `json:"isLocked"`
}

// GetStatus godoc
// @Summary Get job status
// @Description Returns the caller's view of a job. Frames past the free limit are locked for non-pro viewers.
// @Tags jobs
// @Produce  json
// @Param   jobId query string true "Job ID"
// @Param   Authorization header string false "Bearer access token"
// @Success 200 {object} StatusResponse
// @Failure 400 {object} utils.ErrorResponse "Missing Job ID"
// @Failure 503 {object} utils.ErrorResponse "Job backend unavailable"
// @Router /api/status [get]
func (h *ApplicationHandler) GetStatus(c *fiber.Ctx) error {
	return h.status(c, c.Query("jobId"))
}

// GetJob godoc
// @Summary Get job status by path
// @Tags jobs
// @Produce  json
// @Param   jobId path string true "Job ID"
// @Success 200 {object} StatusResponse
// @Failure 503 {object} utils.ErrorResponse "Job backend unavailable"
// @Router /api/v1/jobs/{jobId} [get]
func (h *ApplicationHandler) GetJob(c *fiber.Ctx) error {
	return h.status(c, c.Params("jobId"))
}

func (h *ApplicationHandler) status(c *fiber.Ctx, jobID string) error {
	caller := identity.FromContext(c.UserContext())
	view, err := h.Status.Status(c.UserContext(), jobID, caller)
	if err != nil {
		return h.respondWithDomainError(c, err)
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, view)
}
