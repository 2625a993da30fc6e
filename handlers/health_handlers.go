package handlers

import (
	"github.com/gofiber/fiber/v2"

	"framegrab/utils"
)

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string `json:"status" example:"ok"`
	Message string `json:"message" example:"framegrab is healthy"`
}

// Health godoc
// @Summary Health check
// @Tags health
// @Produce  json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health [get]
func (h *ApplicationHandler) Health(c *fiber.Ctx) error {
	if h.Backend != nil {
		if err := h.Backend.Ping(c.UserContext()); err != nil {
			h.Logger.WithField("error", err.Error()).Warn("Health check: backend unreachable")
			return utils.RespondWithJSON(c, fiber.StatusServiceUnavailable, HealthResponse{
				Status:  "degraded",
				Message: "job backend unreachable",
			})
		}
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, HealthResponse{
		Status:  "ok",
		Message: "framegrab is healthy",
	})
}
