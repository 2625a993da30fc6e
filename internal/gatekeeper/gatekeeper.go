// Package gatekeeper answers status polls with a view of the job shaped by
// the caller's tier. It never writes.
package gatekeeper

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"framegrab/internal/identity"
	"framegrab/internal/jobstore"
	"framegrab/internal/policy"
	"framegrab/models"
)

// Mode selects whose tier gates a finished job.
type Mode string

const (
	// ModeViewer gates by the tier of whoever is polling. Job ids behave as
	// shareable links.
	ModeViewer Mode = "viewer"
	// ModeOwner additionally caps the viewer at the submitter's tier.
	ModeOwner Mode = "owner"
)

// ParseMode accepts "viewer" or "owner"; empty means viewer.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeViewer:
		return ModeViewer, nil
	case ModeOwner:
		return ModeOwner, nil
	default:
		return "", fmt.Errorf("unknown gating mode %q", s)
	}
}

type Gatekeeper struct {
	store     jobstore.Reader
	mode      Mode
	freeLimit int
	logger    *logrus.Logger
}

func New(store jobstore.Reader, mode Mode, logger *logrus.Logger) *Gatekeeper {
	return &Gatekeeper{store: store, mode: mode, freeLimit: policy.FreeLimit, logger: logger}
}

// Status returns the caller's view of jobID. A job the store has not seen
// yet reads as PROCESSING so pollers never race the submission write.
func (g *Gatekeeper) Status(ctx context.Context, jobID string, caller *identity.Identity) (models.View, error) {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return nil, &models.MissingIdentifierError{}
	}

	job, err := g.store.Get(ctx, jobID)
	if errors.Is(err, jobstore.ErrNotFound) {
		return models.ProcessingView{}, nil
	}
	if err != nil {
		g.logger.WithFields(logrus.Fields{"job_id": jobID, "error": err.Error()}).Error("Status lookup failed")
		return nil, &models.TransportError{Op: "read job", Err: err}
	}

	switch job.Status {
	case models.StatusQueued:
		return models.QueuedView{}, nil
	case models.StatusDone:
		return g.project(job, caller), nil
	case models.StatusError:
		return models.ErrorView{Message: job.Error}, nil
	default:
		return models.ProcessingView{}, nil
	}
}

// project applies the tier policy to a finished job. Frames are copied
// before annotation so the record itself is never touched.
func (g *Gatekeeper) project(job models.Job, caller *identity.Identity) models.DoneView {
	pro := identity.IsPro(caller)
	if g.mode == ModeOwner && job.OwnerTier != models.TierPro {
		pro = false
	}

	frames := make([]models.Frame, len(job.Frames))
	copy(frames, job.Frames)

	for i := range frames {
		frames[i].IsLocked = !pro && i >= g.freeLimit
	}
	if pro {
		return models.DoneView{ArchiveURL: job.ArchiveURL, Frames: frames, IsProTier: true}
	}
	// the archive is pro-only whatever the frame count
	return models.DoneView{ArchiveURL: nil, Frames: frames, IsProTier: false}
}
