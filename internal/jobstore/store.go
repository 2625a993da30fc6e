// Package jobstore persists job records and carries work messages to the
// extraction worker.
package jobstore

import (
	"context"
	"errors"
	"fmt"

	"framegrab/models"
)

var (
	// ErrNotFound means no record exists for the job id yet.
	ErrNotFound = errors.New("job not found")
	// ErrDuplicateJob means a record already exists for a freshly minted id.
	ErrDuplicateJob = errors.New("job id already exists")
	// ErrConflict means the stored record changed since it was read.
	ErrConflict = errors.New("job record changed concurrently")
)

// CorruptRecordsError is returned by ListByStatus together with the records
// that did decode. JobIDs names the records that could not be read.
type CorruptRecordsError struct {
	JobIDs []string
}

func (e *CorruptRecordsError) Error() string {
	return fmt.Sprintf("%d undecodable job records: %v", len(e.JobIDs), e.JobIDs)
}

// Reader looks up a single job record.
type Reader interface {
	Get(ctx context.Context, jobID string) (models.Job, error)
}

// Store is a durable jobId → Job mapping. Every write replaces the whole
// record.
type Store interface {
	Reader
	// Create writes a new record and fails with ErrDuplicateJob if one exists.
	Create(ctx context.Context, job models.Job) error
	// Put unconditionally replaces the record.
	Put(ctx context.Context, job models.Job) error
	// CompareAndSwap replaces current with next only if the stored record
	// still has current's status and revision.
	CompareAndSwap(ctx context.Context, current, next models.Job) error
	// ListByStatus returns every record in the given status. Records that
	// cannot be decoded are skipped and reported as *CorruptRecordsError
	// alongside the rest.
	ListByStatus(ctx context.Context, status models.JobStatus) ([]models.Job, error)
	Ping(ctx context.Context) error
}

// Queue delivers work messages at least once, in push order.
type Queue interface {
	Push(ctx context.Context, msg models.WorkMessage) error
}

// Dispatcher performs the record-plus-message dual write.
type Dispatcher interface {
	// Dispatch creates job and enqueues msg.
	Dispatch(ctx context.Context, job models.Job, msg models.WorkMessage) error
	// Redispatch swaps current for next and enqueues msg again.
	Redispatch(ctx context.Context, current, next models.Job, msg models.WorkMessage) error
}

// Backend is a Store that can also dispatch work.
type Backend interface {
	Store
	Dispatcher
}

// sameVersion is the compare half of CompareAndSwap.
func sameVersion(stored, expected models.Job) bool {
	return stored.Status == expected.Status && stored.Revision == expected.Revision
}
