// Package results implements the write side of the job lifecycle used by
// the extraction worker and by operators: QUEUED → PROCESSING → DONE|ERROR.
package results

import (
	"context"
	"errors"
	"fmt"
	"time"

	"framegrab/internal/jobstore"
	"framegrab/models"
)

var (
	// ErrTerminal is returned for any write to a DONE or ERROR job.
	ErrTerminal = errors.New("job already in a terminal state")
	// ErrInvalidTransition is returned for a move the lifecycle forbids.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrNoFrames is returned when completing a job without frames.
	ErrNoFrames = errors.New("a finished job needs at least one frame")
	// ErrFrameLimit is returned when more frames than the job's limit are supplied.
	ErrFrameLimit = errors.New("frame count exceeds the job's frame limit")
)

// Writer moves jobs through their lifecycle with whole-record
// compare-and-swap writes.
type Writer struct {
	store jobstore.Store
	now   func() time.Time
}

func NewWriter(store jobstore.Store) *Writer {
	return &Writer{store: store, now: time.Now}
}

// Begin marks the job PROCESSING.
func (w *Writer) Begin(ctx context.Context, jobID string) error {
	return w.transition(ctx, jobID, models.StatusProcessing, nil)
}

// Complete marks the job DONE with its frames and optional archive.
func (w *Writer) Complete(ctx context.Context, jobID string, frames []models.Frame, archiveURL *string) error {
	if len(frames) == 0 {
		return ErrNoFrames
	}
	return w.transition(ctx, jobID, models.StatusDone, func(job *models.Job) error {
		if job.FrameLimit > 0 && len(frames) > job.FrameLimit {
			return fmt.Errorf("%w: %d > %d", ErrFrameLimit, len(frames), job.FrameLimit)
		}
		job.Frames = make([]models.Frame, len(frames))
		for i, f := range frames {
			f.IsLocked = false
			job.Frames[i] = f
		}
		job.ArchiveURL = archiveURL
		job.Error = ""
		return nil
	})
}

// Fail marks the job ERROR with a message shown to callers verbatim.
func (w *Writer) Fail(ctx context.Context, jobID, message string) error {
	return w.transition(ctx, jobID, models.StatusError, failWith(message))
}

// FailFrom marks the job ERROR only if the stored record still matches
// current. A record that moved on since current was read yields
// jobstore.ErrConflict.
func (w *Writer) FailFrom(ctx context.Context, current models.Job, message string) error {
	return w.apply(ctx, current, false, models.StatusError, failWith(message))
}

func failWith(message string) func(*models.Job) error {
	return func(job *models.Job) error {
		job.Error = message
		job.Frames = nil
		job.ArchiveURL = nil
		return nil
	}
}

func (w *Writer) transition(ctx context.Context, jobID string, next models.JobStatus, mutate func(*models.Job) error) error {
	current, err := w.store.Get(ctx, jobID)
	missing := errors.Is(err, jobstore.ErrNotFound)
	switch {
	case missing:
		current = models.Job{JobID: jobID, Status: models.StatusQueued}
	case err != nil:
		return err
	}
	return w.apply(ctx, current, missing, next, mutate)
}

func (w *Writer) apply(ctx context.Context, current models.Job, missing bool, next models.JobStatus, mutate func(*models.Job) error) error {
	if current.Status.IsTerminal() {
		return ErrTerminal
	}
	if !current.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, current.Status, next)
	}

	updated := current.Clone()
	updated.Status = next
	updated.Revision++
	updated.UpdatedAt = w.now().UTC()
	if mutate != nil {
		if err := mutate(&updated); err != nil {
			return err
		}
	}

	if missing {
		if err := w.store.Create(ctx, updated); errors.Is(err, jobstore.ErrDuplicateJob) {
			return jobstore.ErrConflict
		} else if err != nil {
			return err
		}
		return nil
	}
	return w.store.CompareAndSwap(ctx, current, updated)
}
