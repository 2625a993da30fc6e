package handlers

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"framegrab/internal/identity"
	"framegrab/internal/submission"
	"framegrab/models"
)

// Submitter turns an extraction request into a queued job.
type Submitter interface {
	Submit(ctx context.Context, req submission.Request, caller *identity.Identity) (submission.Receipt, error)
}

// StatusReader returns the caller's view of a job.
type StatusReader interface {
	Status(ctx context.Context, jobID string, caller *identity.Identity) (models.View, error)
}

// Pinger reports whether the job backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ApplicationHandler holds shared dependencies for handlers.
type ApplicationHandler struct {
	Submitter       Submitter
	Status          StatusReader
	Backend         Pinger
	Logger          *logrus.Logger
	DownloadTimeout time.Duration
}

// NewApplicationHandler creates a new ApplicationHandler with the given dependencies.
func NewApplicationHandler(submitter Submitter, status StatusReader, backend Pinger, logger *logrus.Logger, downloadTimeout time.Duration) *ApplicationHandler {
	return &ApplicationHandler{
		Submitter:       submitter,
		Status:          status,
		Backend:         backend,
		Logger:          logger,
		DownloadTimeout: downloadTimeout,
	}
}
