package jobstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"framegrab/models"
)

func sampleJob(id string) models.Job {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return models.Job{
		JobID:            id,
		Status:           models.StatusQueued,
		SourceURL:        "https://example.com/watch?v=" + id,
		RequestedQuality: 480,
		FrameLimit:       12,
		OwnerTier:        models.TierFree,
		Revision:         1,
		DispatchAttempts: 1,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// runStoreContract exercises the Store behaviour every backend must share.
func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("get missing", func(t *testing.T) {
		s := newStore(t)
		if _, err := s.Get(ctx, "nope"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("Get = %v, want ErrNotFound", err)
		}
	})

	t.Run("create and get", func(t *testing.T) {
		s := newStore(t)
		job := sampleJob("a1")
		if err := s.Create(ctx, job); err != nil {
			t.Fatalf("Create: %v", err)
		}
		got, err := s.Get(ctx, "a1")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got.SourceURL != job.SourceURL || got.Status != models.StatusQueued || got.FrameLimit != 12 {
			t.Errorf("Get = %+v, want %+v", got, job)
		}
	})

	t.Run("create duplicate", func(t *testing.T) {
		s := newStore(t)
		if err := s.Create(ctx, sampleJob("dup")); err != nil {
			t.Fatalf("Create: %v", err)
		}
		if err := s.Create(ctx, sampleJob("dup")); !errors.Is(err, ErrDuplicateJob) {
			t.Fatalf("second Create = %v, want ErrDuplicateJob", err)
		}
	})

	t.Run("put replaces whole record", func(t *testing.T) {
		s := newStore(t)
		job := sampleJob("p1")
		if err := s.Create(ctx, job); err != nil {
			t.Fatalf("Create: %v", err)
		}
		archive := "https://cdn.example.com/p1.zip"
		done := models.Job{
			JobID:      "p1",
			Status:     models.StatusDone,
			Frames:     []models.Frame{{ID: 1, Timestamp: "00:00:01", ImageURL: "https://cdn.example.com/1.jpg"}},
			ArchiveURL: &archive,
		}
		if err := s.Put(ctx, done); err != nil {
			t.Fatalf("Put: %v", err)
		}
		got, err := s.Get(ctx, "p1")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got.Status != models.StatusDone || len(got.Frames) != 1 || got.ArchiveURL == nil || *got.ArchiveURL != archive {
			t.Errorf("Get = %+v", got)
		}
		if got.SourceURL != "" {
			t.Errorf("Put must replace the record, SourceURL survived: %q", got.SourceURL)
		}
	})

	t.Run("compare and swap", func(t *testing.T) {
		s := newStore(t)
		job := sampleJob("c1")
		if err := s.Create(ctx, job); err != nil {
			t.Fatalf("Create: %v", err)
		}
		next := job
		next.Status = models.StatusProcessing
		next.Revision++
		if err := s.CompareAndSwap(ctx, job, next); err != nil {
			t.Fatalf("CompareAndSwap: %v", err)
		}
		// job is now stale
		again := job
		again.DispatchAttempts = 5
		if err := s.CompareAndSwap(ctx, job, again); !errors.Is(err, ErrConflict) {
			t.Fatalf("stale CompareAndSwap = %v, want ErrConflict", err)
		}
		if err := s.CompareAndSwap(ctx, sampleJob("ghost"), sampleJob("ghost")); !errors.Is(err, ErrNotFound) {
			t.Fatalf("CompareAndSwap on missing = %v, want ErrNotFound", err)
		}
		got, _ := s.Get(ctx, "c1")
		if got.Status != models.StatusProcessing || got.Revision != 2 {
			t.Errorf("Get = %+v, want PROCESSING rev 2", got)
		}
	})

	t.Run("list by status", func(t *testing.T) {
		s := newStore(t)
		for _, id := range []string{"l1", "l2", "l3"} {
			if err := s.Create(ctx, sampleJob(id)); err != nil {
				t.Fatalf("Create %s: %v", id, err)
			}
		}
		if err := s.Put(ctx, models.Job{JobID: "l2", Status: models.StatusError, Error: "boom"}); err != nil {
			t.Fatalf("Put: %v", err)
		}
		queued, err := s.ListByStatus(ctx, models.StatusQueued)
		if err != nil {
			t.Fatalf("ListByStatus: %v", err)
		}
		if len(queued) != 2 {
			t.Fatalf("got %d queued jobs, want 2", len(queued))
		}
		failed, err := s.ListByStatus(ctx, models.StatusError)
		if err != nil {
			t.Fatalf("ListByStatus: %v", err)
		}
		if len(failed) != 1 || failed[0].JobID != "l2" || failed[0].Error != "boom" {
			t.Fatalf("failed = %+v", failed)
		}
	})

	t.Run("ping", func(t *testing.T) {
		if err := newStore(t).Ping(ctx); err != nil {
			t.Fatalf("Ping: %v", err)
		}
	})
}
