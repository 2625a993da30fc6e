package utils

import (
	"path"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error string `json:"error" example:"No URL provided"`
}

// RespondWithError sends a JSON error response.
func RespondWithError(c *fiber.Ctx, statusCode int, message string) error {
	return c.Status(statusCode).JSON(ErrorResponse{Error: message})
}

// RespondWithJSON sends data as the JSON body.
func RespondWithJSON(c *fiber.Ctx, statusCode int, data interface{}) error {
	return c.Status(statusCode).JSON(data)
}

// SanitizeFilename makes a caller-supplied name safe for a
// Content-Disposition header. Empty input yields fallback.
func SanitizeFilename(name, fallback string) string {
	name = strings.TrimSpace(name)
	name = strings.NewReplacer(`"`, "", "\\", "/", "\r", "", "\n", "").Replace(name)
	name = path.Base(name)
	if name == "." || name == "/" || name == "" {
		return fallback
	}
	return name
}
