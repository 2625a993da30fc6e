package results

import (
	"context"
	"errors"
	"testing"

	"framegrab/internal/jobstore"
	"framegrab/models"
)

func seeded(t *testing.T, limit int) (*Writer, *jobstore.Memory) {
	t.Helper()
	store := jobstore.NewMemory()
	job := models.Job{JobID: "j1", Status: models.StatusQueued, FrameLimit: limit, SourceURL: "https://a", Revision: 1}
	if err := store.Create(context.Background(), job); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return NewWriter(store), store
}

func frames(n int) []models.Frame {
	out := make([]models.Frame, n)
	for i := range out {
		out[i] = models.Frame{ID: i + 1, ImageURL: "https://cdn/x.jpg", Timestamp: "Frame"}
	}
	return out
}

func TestLifecycleToDone(t *testing.T) {
	ctx := context.Background()
	w, store := seeded(t, 12)

	if err := w.Begin(ctx, "j1"); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	archive := "https://cdn/j1.zip"
	if err := w.Complete(ctx, "j1", frames(3), &archive); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	job, _ := store.Get(ctx, "j1")
	if job.Status != models.StatusDone || len(job.Frames) != 3 || job.ArchiveURL == nil {
		t.Fatalf("job = %+v", job)
	}
	if job.SourceURL != "https://a" {
		t.Errorf("submission fields lost: %+v", job)
	}
	if job.Revision != 3 {
		t.Errorf("revision = %d, want 3", job.Revision)
	}

	if err := w.Fail(ctx, "j1", "late failure"); !errors.Is(err, ErrTerminal) {
		t.Fatalf("Fail after DONE = %v, want ErrTerminal", err)
	}
	if err := w.Begin(ctx, "j1"); !errors.Is(err, ErrTerminal) {
		t.Fatalf("Begin after DONE = %v, want ErrTerminal", err)
	}
}

func TestFailFromQueued(t *testing.T) {
	ctx := context.Background()
	w, store := seeded(t, 12)
	if err := w.Fail(ctx, "j1", "unsupported URL"); err != nil {
		t.Fatalf("Fail: %v", err)
	}
	job, _ := store.Get(ctx, "j1")
	if job.Status != models.StatusError || job.Error != "unsupported URL" || job.Frames != nil {
		t.Fatalf("job = %+v", job)
	}
}

func TestBeginTwiceIsInvalid(t *testing.T) {
	ctx := context.Background()
	w, _ := seeded(t, 12)
	if err := w.Begin(ctx, "j1"); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := w.Begin(ctx, "j1"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("second Begin = %v, want ErrInvalidTransition", err)
	}
}

func TestCompleteGuards(t *testing.T) {
	ctx := context.Background()
	w, store := seeded(t, 2)

	if err := w.Complete(ctx, "j1", nil, nil); !errors.Is(err, ErrNoFrames) {
		t.Fatalf("Complete without frames = %v, want ErrNoFrames", err)
	}
	if err := w.Complete(ctx, "j1", frames(3), nil); !errors.Is(err, ErrFrameLimit) {
		t.Fatalf("Complete over limit = %v, want ErrFrameLimit", err)
	}
	job, _ := store.Get(ctx, "j1")
	if job.Status != models.StatusQueued {
		t.Fatalf("rejected writes changed the record: %+v", job)
	}
}

func TestCompleteUnseenJob(t *testing.T) {
	ctx := context.Background()
	store := jobstore.NewMemory()
	w := NewWriter(store)
	if err := w.Complete(ctx, "ghost", frames(1), nil); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	job, err := store.Get(ctx, "ghost")
	if err != nil || job.Status != models.StatusDone {
		t.Fatalf("job = %+v (%v)", job, err)
	}
}

func TestFailFromSnapshot(t *testing.T) {
	ctx := context.Background()
	w, store := seeded(t, 12)
	snapshot, _ := store.Get(ctx, "j1")

	// the worker picks the job up after the snapshot was taken
	if err := w.Begin(ctx, "j1"); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := w.FailFrom(ctx, snapshot, "gave up"); !errors.Is(err, jobstore.ErrConflict) {
		t.Fatalf("FailFrom stale snapshot = %v, want ErrConflict", err)
	}
	job, _ := store.Get(ctx, "j1")
	if job.Status != models.StatusProcessing {
		t.Fatalf("stale FailFrom overwrote the record: %+v", job)
	}

	current, _ := store.Get(ctx, "j1")
	if err := w.FailFrom(ctx, current, "gave up"); err != nil {
		t.Fatalf("FailFrom: %v", err)
	}
	job, _ = store.Get(ctx, "j1")
	if job.Status != models.StatusError || job.Error != "gave up" {
		t.Fatalf("job = %+v", job)
	}
}
