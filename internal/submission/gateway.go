// Package submission accepts extraction requests and turns them into
// durable, queued jobs.
package submission

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"framegrab/internal/identity"
	"framegrab/internal/jobstore"
	"framegrab/internal/policy"
	"framegrab/models"
)

// Request is a validated submission.
type Request struct {
	SourceURL        string `validate:"required"`
	RequestedQuality int
}

// Receipt is returned to the submitter.
type Receipt struct {
	JobID           string `json:"jobId"`
	ResolvedQuality int    `json:"resolvedQuality"`
	ResolvedLimit   int    `json:"resolvedLimit"`
}

// Gateway validates submissions, applies the tier policy and dispatches.
type Gateway struct {
	dispatcher jobstore.Dispatcher
	policy     policy.Table
	logger     *logrus.Logger
	validate   *validator.Validate

	newID func() (string, error)
	now   func() time.Time
}

func NewGateway(dispatcher jobstore.Dispatcher, table policy.Table, logger *logrus.Logger) *Gateway {
	return &Gateway{
		dispatcher: dispatcher,
		policy:     table,
		logger:     logger,
		validate:   validator.New(),
		newID:      newJobID,
		now:        time.Now,
	}
}

// newJobID mints a time-ordered UUIDv7.
func newJobID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Submit creates one job per call; repeated identical requests create
// distinct jobs.
func (g *Gateway) Submit(ctx context.Context, req Request, caller *identity.Identity) (Receipt, error) {
	req.SourceURL = strings.TrimSpace(req.SourceURL)
	if err := g.validate.Struct(req); err != nil {
		return Receipt{}, &models.ValidationError{Field: "sourceUrl", Message: "No URL provided"}
	}

	tier := models.TierOf(identity.IsPro(caller))
	quality, limit := g.policy.Resolve(tier, req.RequestedQuality)

	jobID, err := g.newID()
	if err != nil {
		return Receipt{}, fmt.Errorf("generate job id: %w", err)
	}

	now := g.now().UTC()
	job := models.Job{
		JobID:            jobID,
		Status:           models.StatusQueued,
		SourceURL:        req.SourceURL,
		RequestedQuality: quality,
		FrameLimit:       limit,
		OwnerTier:        tier,
		Revision:         1,
		DispatchAttempts: 1,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	log := g.logger.WithFields(logrus.Fields{
		"job_id":  jobID,
		"tier":    tier,
		"quality": quality,
		"limit":   limit,
	})

	if err := g.dispatcher.Dispatch(ctx, job, models.NewWorkMessage(job)); err != nil {
		if errors.Is(err, jobstore.ErrDuplicateJob) {
			log.Error("Job id collision on submit")
			return Receipt{}, fmt.Errorf("job id %s collided: %w", jobID, err)
		}
		log.WithField("error", err.Error()).Error("Failed to dispatch job")
		return Receipt{}, &models.TransportError{Op: "dispatch job", Err: err}
	}

	log.Info("Job queued")
	return Receipt{JobID: jobID, ResolvedQuality: quality, ResolvedLimit: limit}, nil
}
