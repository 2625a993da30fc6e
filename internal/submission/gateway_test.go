package submission

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"

	"framegrab/internal/identity"
	"framegrab/internal/jobstore"
	"framegrab/internal/policy"
	"framegrab/models"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestSubmitPolicy(t *testing.T) {
	tests := []struct {
		name        string
		caller      *identity.Identity
		quality     int
		wantQuality int
		wantLimit   int
		wantTier    models.Tier
	}{
		{name: "anonymous 1080", caller: nil, quality: 1080, wantQuality: 480, wantLimit: 12, wantTier: models.TierFree},
		{name: "free user 1080", caller: &identity.Identity{UserID: "u1"}, quality: 1080, wantQuality: 480, wantLimit: 12, wantTier: models.TierFree},
		{name: "free user 360", caller: &identity.Identity{UserID: "u1"}, quality: 360, wantQuality: 360, wantLimit: 12, wantTier: models.TierFree},
		{name: "pro 1080", caller: &identity.Identity{UserID: "u2", Pro: true}, quality: 1080, wantQuality: 1080, wantLimit: 50, wantTier: models.TierPro},
		{name: "pro without quality", caller: &identity.Identity{UserID: "u2", Pro: true}, quality: 0, wantQuality: 480, wantLimit: 50, wantTier: models.TierPro},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := jobstore.NewMemory()
			g := NewGateway(backend, policy.Default(), testLogger())

			receipt, err := g.Submit(context.Background(), Request{SourceURL: "https://youtu.be/abc", RequestedQuality: tt.quality}, tt.caller)
			if err != nil {
				t.Fatalf("Submit: %v", err)
			}
			if receipt.ResolvedQuality != tt.wantQuality || receipt.ResolvedLimit != tt.wantLimit {
				t.Errorf("receipt = %+v, want quality %d limit %d", receipt, tt.wantQuality, tt.wantLimit)
			}

			job, err := backend.Get(context.Background(), receipt.JobID)
			if err != nil {
				t.Fatalf("record not stored: %v", err)
			}
			if job.Status != models.StatusQueued || job.OwnerTier != tt.wantTier || job.FrameLimit != tt.wantLimit {
				t.Errorf("stored job = %+v", job)
			}

			msgs := backend.Messages()
			if len(msgs) != 1 {
				t.Fatalf("got %d messages, want 1", len(msgs))
			}
			msg := msgs[0]
			if msg.JobID != receipt.JobID || msg.ResolvedQuality != tt.wantQuality || msg.ResolvedLimit != tt.wantLimit || msg.OwnerTier != tt.wantTier {
				t.Errorf("message = %+v", msg)
			}
		})
	}
}

func TestSubmitValidation(t *testing.T) {
	backend := jobstore.NewMemory()
	g := NewGateway(backend, policy.Default(), testLogger())

	for _, url := range []string{"", "   "} {
		_, err := g.Submit(context.Background(), Request{SourceURL: url}, nil)
		var verr *models.ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("Submit(%q) = %v, want ValidationError", url, err)
		}
	}
	if n := len(backend.Messages()); n != 0 {
		t.Fatalf("invalid submissions enqueued %d messages", n)
	}
}

func TestSubmitIDsAreUnique(t *testing.T) {
	backend := jobstore.NewMemory()
	g := NewGateway(backend, policy.Default(), testLogger())

	const n = 200
	var (
		mu   sync.Mutex
		seen = make(map[string]bool, n)
		wg   sync.WaitGroup
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, err := g.Submit(context.Background(), Request{SourceURL: "https://youtu.be/same"}, nil)
			if err != nil {
				t.Errorf("Submit: %v", err)
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if seen[r.JobID] {
				t.Errorf("duplicate job id %s", r.JobID)
			}
			seen[r.JobID] = true
		}()
	}
	wg.Wait()
	if len(seen) != n {
		t.Fatalf("got %d distinct ids, want %d", len(seen), n)
	}
}

func TestSubmitCollisionIsAnError(t *testing.T) {
	backend := jobstore.NewMemory()
	g := NewGateway(backend, policy.Default(), testLogger())
	g.newID = func() (string, error) { return "fixed", nil }

	if _, err := g.Submit(context.Background(), Request{SourceURL: "https://a"}, nil); err != nil {
		t.Fatalf("first Submit: %v", err)
	}
	_, err := g.Submit(context.Background(), Request{SourceURL: "https://b"}, nil)
	if !errors.Is(err, jobstore.ErrDuplicateJob) {
		t.Fatalf("second Submit = %v, want ErrDuplicateJob", err)
	}
	job, _ := backend.Get(context.Background(), "fixed")
	if job.SourceURL != "https://a" {
		t.Fatalf("collision overwrote the original record: %+v", job)
	}
}

type failingDispatcher struct{}

func (failingDispatcher) Dispatch(context.Context, models.Job, models.WorkMessage) error {
	return errors.New("dial tcp: connection refused")
}

func (failingDispatcher) Redispatch(context.Context, models.Job, models.Job, models.WorkMessage) error {
	return errors.New("dial tcp: connection refused")
}

func TestSubmitTransportError(t *testing.T) {
	g := NewGateway(failingDispatcher{}, policy.Default(), testLogger())
	_, err := g.Submit(context.Background(), Request{SourceURL: "https://a"}, nil)
	var terr *models.TransportError
	if !errors.As(err, &terr) {
		t.Fatalf("Submit = %v, want TransportError", err)
	}
}

// orderedStore records the order of the durable write and the queue push.
type orderedStore struct {
	*jobstore.Memory
	mu    sync.Mutex
	steps []string
}

func (s *orderedStore) Create(ctx context.Context, job models.Job) error {
	s.mu.Lock()
	s.steps = append(s.steps, "write")
	s.mu.Unlock()
	return s.Memory.Create(ctx, job)
}

func (s *orderedStore) Push(ctx context.Context, msg models.WorkMessage) error {
	s.mu.Lock()
	s.steps = append(s.steps, "push")
	s.mu.Unlock()
	return s.Memory.Push(ctx, msg)
}

func TestSubmitWritesBeforePush(t *testing.T) {
	s := &orderedStore{Memory: jobstore.NewMemory()}
	g := NewGateway(jobstore.NewSequential(s, s, testLogger()), policy.Default(), testLogger())

	if _, err := g.Submit(context.Background(), Request{SourceURL: "https://a"}, nil); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(s.steps) != 2 || s.steps[0] != "write" || s.steps[1] != "push" {
		t.Fatalf("steps = %v, want [write push]", s.steps)
	}
}
