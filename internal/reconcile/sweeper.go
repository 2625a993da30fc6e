// Package reconcile repairs jobs whose queue message may have been lost and
// reports jobs the worker appears to have abandoned.
package reconcile

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/sirupsen/logrus"

	"framegrab/internal/jobstore"
	"framegrab/internal/results"
	"framegrab/internal/worker"
	"framegrab/models"
)

const redispatchWorkers = 4

// AbandonedMessage is the error shown to callers once a job has used up its
// dispatch attempts without the worker picking it up.
const AbandonedMessage = "Processing could not be started, please try again"

// Config controls the sweep. A zero QueuedThreshold disables re-enqueueing
// and a zero MaxProcessingAge disables the stale-processing report. A job
// that has already been dispatched MaxDispatchAttempts times is failed
// instead of re-enqueued; zero means no cap.
type Config struct {
	Interval            time.Duration
	QueuedThreshold     time.Duration
	MaxProcessingAge    time.Duration
	MaxDispatchAttempts int
}

// StaleJob is a PROCESSING job older than MaxProcessingAge. Records written
// without timestamps have AgeUnknown set and a zero Age.
type StaleJob struct {
	JobID      string
	Age        time.Duration
	AgeUnknown bool
}

// Report summarises one sweep.
type Report struct {
	Requeued        []string
	Abandoned       []string
	Conflicts       int
	Failed          int
	StaleProcessing []StaleJob
	Corrupt         []string
}

func (r *Report) addCorrupt(ids []string) {
	for _, id := range ids {
		if !slices.Contains(r.Corrupt, id) {
			r.Corrupt = append(r.Corrupt, id)
		}
	}
}

// Sweeper re-enqueues QUEUED jobs that have waited longer than the
// threshold. The worker consumes messages at least once, so a duplicate
// push for a job that was merely slow is harmless.
type Sweeper struct {
	backend jobstore.Backend
	writer  *results.Writer
	cfg     Config
	logger  *logrus.Logger
	now     func() time.Time
}

func New(backend jobstore.Backend, cfg Config, logger *logrus.Logger) *Sweeper {
	return &Sweeper{
		backend: backend,
		writer:  results.NewWriter(backend),
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
	}
}

// Run sweeps every Interval until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) error {
	if s.cfg.Interval <= 0 {
		s.logger.Info("Reconciliation sweep disabled")
		<-ctx.Done()
		return nil
	}
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil && ctx.Err() == nil {
				s.logger.WithField("error", err.Error()).Error("Reconciliation sweep failed")
			}
		}
	}
}

// Sweep runs a single pass.
func (s *Sweeper) Sweep(ctx context.Context) (Report, error) {
	var report Report
	now := s.now().UTC()

	if s.cfg.QueuedThreshold > 0 {
		if err := s.requeue(ctx, now, &report); err != nil {
			return report, err
		}
	}
	if s.cfg.MaxProcessingAge > 0 {
		if err := s.findStale(ctx, now, &report); err != nil {
			return report, err
		}
	}

	if len(report.Requeued) > 0 || len(report.Abandoned) > 0 || report.Failed > 0 ||
		len(report.StaleProcessing) > 0 || len(report.Corrupt) > 0 {
		s.logger.WithFields(logrus.Fields{
			"requeued":         len(report.Requeued),
			"abandoned":        len(report.Abandoned),
			"conflicts":        report.Conflicts,
			"failed":           report.Failed,
			"stale_processing": len(report.StaleProcessing),
			"corrupt":          len(report.Corrupt),
		}).Info("Reconciliation sweep finished")
	}
	return report, nil
}

// list skips undecodable records so one bad blob cannot stall the sweep.
func (s *Sweeper) list(ctx context.Context, status models.JobStatus, report *Report) ([]models.Job, error) {
	jobs, err := s.backend.ListByStatus(ctx, status)
	var corrupt *jobstore.CorruptRecordsError
	if errors.As(err, &corrupt) {
		report.addCorrupt(corrupt.JobIDs)
		s.logger.WithField("job_ids", corrupt.JobIDs).Warn("Skipping undecodable job records")
		return jobs, nil
	}
	return jobs, err
}

type redispatchJob struct {
	backend jobstore.Dispatcher
	current models.Job
	next    models.Job
}

func (j redispatchJob) ID() string { return j.current.JobID }

func (j redispatchJob) Execute(ctx context.Context) error {
	return j.backend.Redispatch(ctx, j.current, j.next, models.NewWorkMessage(j.next))
}

func (s *Sweeper) requeue(ctx context.Context, now time.Time, report *Report) error {
	queued, err := s.list(ctx, models.StatusQueued, report)
	if err != nil {
		return err
	}

	pool := worker.NewDispatcher(redispatchWorkers, len(queued), s.logger)
	pool.Run(ctx)
	for _, job := range queued {
		// records without a source URL predate this service and cannot be resent
		if job.SourceURL == "" || job.UpdatedAt.IsZero() {
			continue
		}
		if now.Sub(job.UpdatedAt) < s.cfg.QueuedThreshold {
			continue
		}
		if s.cfg.MaxDispatchAttempts > 0 && job.DispatchAttempts >= s.cfg.MaxDispatchAttempts {
			s.abandon(ctx, job, report)
			continue
		}
		next := job.Clone()
		next.Revision++
		next.DispatchAttempts++
		next.UpdatedAt = now
		if err := pool.SubmitJob(ctx, redispatchJob{backend: s.backend, current: job, next: next}); err != nil {
			break
		}
	}

	for _, r := range pool.Stop() {
		switch {
		case r.Err == nil:
			report.Requeued = append(report.Requeued, r.JobID)
			s.logger.WithField("job_id", r.JobID).Warn("Re-enqueued job stuck in QUEUED")
		case errors.Is(r.Err, jobstore.ErrConflict), errors.Is(r.Err, jobstore.ErrNotFound):
			report.Conflicts++
		default:
			report.Failed++
			s.logger.WithFields(logrus.Fields{"job_id": r.JobID, "error": r.Err.Error()}).Error("Failed to re-enqueue job")
		}
	}
	return ctx.Err()
}

// abandon fails a job that was dispatched too often without being picked
// up. The write only lands if the record is unchanged since it was listed.
func (s *Sweeper) abandon(ctx context.Context, job models.Job, report *Report) {
	log := s.logger.WithFields(logrus.Fields{"job_id": job.JobID, "dispatch_attempts": job.DispatchAttempts})
	err := s.writer.FailFrom(ctx, job, AbandonedMessage)
	switch {
	case err == nil:
		report.Abandoned = append(report.Abandoned, job.JobID)
		log.Warn("Failed job after exhausting dispatch attempts")
	case errors.Is(err, jobstore.ErrConflict), errors.Is(err, jobstore.ErrNotFound),
		errors.Is(err, results.ErrTerminal), errors.Is(err, results.ErrInvalidTransition):
		report.Conflicts++
	default:
		report.Failed++
		log.WithField("error", err.Error()).Error("Failed to abandon job")
	}
}

// findStale is the liveness hook: nothing here terminates the job, it is
// only surfaced for an operator or an external timeout policy.
func (s *Sweeper) findStale(ctx context.Context, now time.Time, report *Report) error {
	processing, err := s.list(ctx, models.StatusProcessing, report)
	if err != nil {
		return err
	}
	for _, job := range processing {
		// the deployed worker writes bare {"status": ...} records
		if job.UpdatedAt.IsZero() {
			report.StaleProcessing = append(report.StaleProcessing, StaleJob{JobID: job.JobID, AgeUnknown: true})
			s.logger.WithField("job_id", job.JobID).Warn("Job is PROCESSING with no timestamp, age unknown")
			continue
		}
		age := now.Sub(job.UpdatedAt)
		if age < s.cfg.MaxProcessingAge {
			continue
		}
		report.StaleProcessing = append(report.StaleProcessing, StaleJob{JobID: job.JobID, Age: age})
		s.logger.WithFields(logrus.Fields{
			"job_id": job.JobID,
			"age":    age.Round(time.Second).String(),
		}).Warn("Job has been PROCESSING longer than the allowed maximum")
	}
	return nil
}
