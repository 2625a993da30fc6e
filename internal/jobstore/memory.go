package jobstore

import (
	"context"
	"sync"

	"framegrab/models"
)

// Memory is an in-process Backend. Dispatch is atomic under its lock.
// It backs local development and tests.
type Memory struct {
	mu       sync.RWMutex
	jobs     map[string]models.Job
	messages []models.WorkMessage
}

func NewMemory() *Memory {
	return &Memory{jobs: make(map[string]models.Job)}
}

func (m *Memory) Get(_ context.Context, jobID string) (models.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	job, ok := m.jobs[jobID]
	if !ok {
		return models.Job{}, ErrNotFound
	}
	return job.Clone(), nil
}

func (m *Memory) Create(_ context.Context, job models.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createLocked(job)
}

func (m *Memory) createLocked(job models.Job) error {
	if _, exists := m.jobs[job.JobID]; exists {
		return ErrDuplicateJob
	}
	m.jobs[job.JobID] = job.Clone()
	return nil
}

func (m *Memory) Put(_ context.Context, job models.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[job.JobID] = job.Clone()
	return nil
}

func (m *Memory) CompareAndSwap(_ context.Context, current, next models.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.swapLocked(current, next)
}

func (m *Memory) swapLocked(current, next models.Job) error {
	stored, ok := m.jobs[current.JobID]
	if !ok {
		return ErrNotFound
	}
	if !sameVersion(stored, current) {
		return ErrConflict
	}
	m.jobs[next.JobID] = next.Clone()
	return nil
}

func (m *Memory) ListByStatus(_ context.Context, status models.JobStatus) ([]models.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Job
	for _, job := range m.jobs {
		if job.Status == status {
			out = append(out, job.Clone())
		}
	}
	return out, nil
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Push(_ context.Context, msg models.WorkMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	return nil
}

func (m *Memory) Dispatch(_ context.Context, job models.Job, msg models.WorkMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.createLocked(job); err != nil {
		return err
	}
	m.messages = append(m.messages, msg)
	return nil
}

func (m *Memory) Redispatch(_ context.Context, current, next models.Job, msg models.WorkMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.swapLocked(current, next); err != nil {
		return err
	}
	m.messages = append(m.messages, msg)
	return nil
}

// Messages returns the queued messages in push order.
func (m *Memory) Messages() []models.WorkMessage {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.WorkMessage, len(m.messages))
	copy(out, m.messages)
	return out
}
