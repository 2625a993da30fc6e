package handlers

import (
	"fmt"
	"net/url"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"framegrab/middleware"
	"framegrab/utils"
)

const (
	defaultDownloadName = "image.jpg"
	defaultContentType  = "image/jpeg"
	maxDownloadRedirect = 5
)

// DownloadFrame godoc
// @Summary Download a frame image
// @Description Fetches the image server side and returns it as an attachment so browsers save instead of navigate.
// @Tags frames
// @Produce  octet-stream
// @Param   url query string true "Image URL"
// @Param   filename query string false "Attachment file name" default(image.jpg)
// @Success 200 {file} binary
// @Failure 500 {object} utils.ErrorResponse "Download failed"
// @Router /api/download [get]
func (h *ApplicationHandler) DownloadFrame(c *fiber.Ctx) error {
	target := c.Query("url")
	filename := utils.SanitizeFilename(c.Query("filename"), defaultDownloadName)

	log := h.Logger.WithFields(logrus.Fields{
		"request_id": c.Locals(middleware.RequestIDKey),
		"url":        target,
	})

	body, contentType, err := h.fetch(target)
	if err != nil {
		log.WithField("error", err.Error()).Error("Download relay failed")
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Download failed")
	}

	if contentType == "" {
		contentType = defaultContentType
	}
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	return c.Status(fiber.StatusOK).Send(body)
}

// fetch retrieves target with the fiber client agent.
func (h *ApplicationHandler) fetch(target string) ([]byte, string, error) {
	u, err := url.Parse(target)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, "", fmt.Errorf("invalid url %q", target)
	}

	resp := fiber.AcquireResponse()
	defer fiber.ReleaseResponse(resp)

	agent := fiber.Get(target)
	agent.SetResponse(resp)
	agent.MaxRedirectsCount(maxDownloadRedirect)
	if h.DownloadTimeout > 0 {
		agent.Timeout(h.DownloadTimeout)
	}

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return nil, "", fmt.Errorf("fetch: %w", errs[0])
	}
	if code < 200 || code >= 300 {
		return nil, "", fmt.Errorf("upstream returned %d", code)
	}
	return body, string(resp.Header.ContentType()), nil
}
