package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"framegrab/internal/identity"
	"framegrab/internal/submission"
	"framegrab/utils"
)

// Quality is a requested output height. Clients send it as a number, a
// numeric string or a label such as "720p"; anything without a leading
// integer reads as zero so the policy default applies.
type Quality int

func (q *Quality) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*q = 0
		return nil
	}
	var s string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
	} else {
		s = string(data)
	}
	*q = Quality(parseQuality(s))
	return nil
}

// parseQuality reads a full number (including exponents) first and falls
// back to the integer prefix of a label. Results are clamped to int32.
func parseQuality(s string) int {
	s = strings.TrimSpace(s)
	if f, err := strconv.ParseFloat(s, 64); err == nil || errors.Is(err, strconv.ErrRange) {
		return clampQuality(f)
	}
	return leadingInt(s)
}

func clampQuality(f float64) int {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt32:
		return math.MaxInt32
	case f <= math.MinInt32:
		return math.MinInt32
	}
	return int(f)
}

// leadingInt parses the integer prefix of s.
func leadingInt(s string) int {
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			if s[0] == '-' {
				return math.MinInt32
			}
			return math.MaxInt32
		}
		return 0
	}
	return clampQuality(float64(n))
}

// SubmitRequest defines the expected request body for a frame extraction.
// url and quality are accepted from older clients.
type SubmitRequest struct {
	SourceURL        string   `json:"sourceUrl" example:"https://www.youtube.com/watch?v=dQw4w9WgXcQ"`
	RequestedQuality *Quality `json:"requestedQuality,omitempty" swaggertype:"integer" example:"720"`
	URL              string   `json:"url,omitempty" swaggerignore:"true"`
	Quality          *Quality `json:"quality,omitempty" swaggerignore:"true"`
}

func (r SubmitRequest) toRequest() submission.Request {
	req := submission.Request{SourceURL: r.SourceURL}
	if req.SourceURL == "" {
		req.SourceURL = r.URL
	}
	switch {
	case r.RequestedQuality != nil:
		req.RequestedQuality = int(*r.RequestedQuality)
	case r.Quality != nil:
		req.RequestedQuality = int(*r.Quality)
	}
	return req
}

// SubmitJob godoc
// @Summary Submit a video for frame extraction
// @Description Queues a new extraction job. Quality and frame limit are resolved from the caller's tier.
// @Tags jobs
// @Accept  json
// @Produce  json
// @Param   job body SubmitRequest true "Video to extract frames from"
// @Param   Authorization header string false "Bearer access token"
// @Success 200 {object} submission.Receipt "Job queued"
// @Failure 400 {object} utils.ErrorResponse "No URL provided"
// @Failure 503 {object} utils.ErrorResponse "Job backend unavailable"
// @Router /api/submit [post]
func (h *ApplicationHandler) SubmitJob(c *fiber.Ctx) error {
	body := new(SubmitRequest)
	if err := c.BodyParser(body); err != nil {
		h.Logger.WithField("error", err.Error()).Warn("Cannot parse submit body")
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Invalid request body")
	}

	caller := identity.FromContext(c.UserContext())
	receipt, err := h.Submitter.Submit(c.UserContext(), body.toRequest(), caller)
	if err != nil {
		return h.respondWithDomainError(c, err)
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, receipt)
}
