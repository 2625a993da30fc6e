package worker

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// Job is a unit of work run by the pool.
type Job interface {
	Execute(ctx context.Context) error
	ID() string
}

// Result records the outcome of one Job.
type Result struct {
	JobID string
	Err   error
}

// Dispatcher runs submitted jobs on a fixed number of workers.
type Dispatcher struct {
	MaxWorkers int
	JobQueue   chan Job

	wg      sync.WaitGroup
	mu      sync.Mutex
	results []Result
	logger  *logrus.Logger
}

// NewDispatcher creates a Dispatcher; call Run before submitting.
func NewDispatcher(maxWorkers, jobQueueSize int, logger *logrus.Logger) *Dispatcher {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &Dispatcher{
		MaxWorkers: maxWorkers,
		JobQueue:   make(chan Job, jobQueueSize),
		logger:     logger,
	}
}

// Run starts the workers. Jobs still queued after ctx is cancelled are
// drained without running and reported with ctx's error.
func (d *Dispatcher) Run(ctx context.Context) {
	for i := 1; i <= d.MaxWorkers; i++ {
		d.wg.Add(1)
		go d.work(ctx, i)
	}
}

func (d *Dispatcher) work(ctx context.Context, workerID int) {
	defer d.wg.Done()
	for job := range d.JobQueue {
		if err := ctx.Err(); err != nil {
			d.record(Result{JobID: job.ID(), Err: err})
			continue
		}
		err := job.Execute(ctx)
		if err != nil {
			d.logger.WithFields(logrus.Fields{
				"worker": workerID,
				"job_id": job.ID(),
				"error":  err.Error(),
			}).Debug("Worker job failed")
		}
		d.record(Result{JobID: job.ID(), Err: err})
	}
}

func (d *Dispatcher) record(r Result) {
	d.mu.Lock()
	d.results = append(d.results, r)
	d.mu.Unlock()
}

// SubmitJob blocks until a slot in the queue is free or ctx is done.
func (d *Dispatcher) SubmitJob(ctx context.Context, job Job) error {
	select {
	case d.JobQueue <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop closes the queue, waits for the workers and returns every result.
func (d *Dispatcher) Stop() []Result {
	close(d.JobQueue)
	d.wg.Wait()
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Result, len(d.results))
	copy(out, d.results)
	return out
}
