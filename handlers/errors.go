package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"framegrab/middleware"
	"framegrab/models"
	"framegrab/utils"
)

const (
	msgUnavailable = "service temporarily unavailable"
	msgInternal    = "internal server error"
)

// respondWithDomainError maps the error taxonomy onto HTTP. Raw error text
// is only echoed for user-correctable errors.
func (h *ApplicationHandler) respondWithDomainError(c *fiber.Ctx, err error) error {
	var (
		validation *models.ValidationError
		missing    *models.MissingIdentifierError
		transport  *models.TransportError
	)
	switch {
	case errors.As(err, &validation):
		return utils.RespondWithError(c, fiber.StatusBadRequest, validation.Message)
	case errors.As(err, &missing):
		return utils.RespondWithError(c, fiber.StatusBadRequest, missing.Error())
	case errors.As(err, &transport):
		h.Logger.WithFields(logrus.Fields{
			"request_id": c.Locals(middleware.RequestIDKey),
			"error":      err.Error(),
		}).Error("Backend unavailable")
		return utils.RespondWithError(c, fiber.StatusServiceUnavailable, msgUnavailable)
	default:
		h.Logger.WithFields(logrus.Fields{
			"request_id": c.Locals(middleware.RequestIDKey),
			"error":      err.Error(),
		}).Error("Unhandled error")
		return utils.RespondWithError(c, fiber.StatusInternalServerError, msgInternal)
	}
}

// ErrorHandler is the fiber.Config ErrorHandler. Fiber errors keep their
// code; anything else becomes a generic 500.
func ErrorHandler(log *logrus.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return utils.RespondWithError(c, fe.Code, fe.Message)
		}
		log.WithFields(logrus.Fields{
			"request_id": c.Locals(middleware.RequestIDKey),
			"error":      err.Error(),
		}).Error("Request failed")
		return utils.RespondWithError(c, fiber.StatusInternalServerError, msgInternal)
	}
}
