package jobstore

import (
	"context"

	"github.com/sirupsen/logrus"

	"framegrab/models"
)

// Sequential dispatches over a Store and a separate Queue that share no
// transaction. The record is made durable first; if the push then fails
// the job stays QUEUED and the reconciliation sweep enqueues it again, so
// Dispatch still reports success.
type Sequential struct {
	Store
	queue  Queue
	logger *logrus.Logger
}

func NewSequential(store Store, queue Queue, logger *logrus.Logger) *Sequential {
	return &Sequential{Store: store, queue: queue, logger: logger}
}

func (s *Sequential) Dispatch(ctx context.Context, job models.Job, msg models.WorkMessage) error {
	if err := s.Store.Create(ctx, job); err != nil {
		return err
	}
	if err := s.queue.Push(ctx, msg); err != nil {
		s.logger.WithFields(logrus.Fields{
			"job_id": job.JobID,
			"error":  err.Error(),
		}).Warn("Queue push failed after record write; leaving job for the reconciliation sweep")
	}
	return nil
}

// Redispatch returns the push error so the sweeper can count the failure;
// the bumped record will be picked up again on a later sweep.
func (s *Sequential) Redispatch(ctx context.Context, current, next models.Job, msg models.WorkMessage) error {
	if err := s.Store.CompareAndSwap(ctx, current, next); err != nil {
		return err
	}
	return s.queue.Push(ctx, msg)
}
