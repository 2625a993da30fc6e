package models

import (
	"encoding/json"
	"time"
)

// JobStatus is the lifecycle state of an extraction job.
type JobStatus string

const (
	StatusQueued     JobStatus = "QUEUED"
	StatusProcessing JobStatus = "PROCESSING"
	StatusDone       JobStatus = "DONE"
	StatusError      JobStatus = "ERROR"
)

// IsTerminal reports whether the status can no longer change.
func (s JobStatus) IsTerminal() bool {
	return s == StatusDone || s == StatusError
}

// CanTransitionTo reports whether next is a legal successor of s.
// QUEUED may skip straight to a terminal state when the worker never
// recorded PROCESSING.
func (s JobStatus) CanTransitionTo(next JobStatus) bool {
	switch s {
	case StatusQueued:
		return next == StatusProcessing || next.IsTerminal()
	case StatusProcessing:
		return next.IsTerminal()
	default:
		return false
	}
}

// normalizeStatus folds the worker's progress sub-states into PROCESSING.
func normalizeStatus(s JobStatus) JobStatus {
	switch s {
	case StatusQueued, StatusProcessing, StatusDone, StatusError:
		return s
	case "":
		return StatusQueued
	default:
		// UPLOADING_IMAGES, ZIPPING and friends
		return StatusProcessing
	}
}

// Tier is the access level of a caller.
type Tier string

const (
	TierFree Tier = "free"
	TierPro  Tier = "pro"
)

// TierOf maps a pro entitlement flag to a Tier.
func TierOf(isPro bool) Tier {
	if isPro {
		return TierPro
	}
	return TierFree
}

// Job is the persisted record of one submission. It is always written as a
// whole; partial updates are never issued.
type Job struct {
	JobID            string    `json:"jobId"`
	Status           JobStatus `json:"status"`
	SourceURL        string    `json:"sourceUrl,omitempty"`
	RequestedQuality int       `json:"requestedQuality,omitempty"`
	FrameLimit       int       `json:"frameLimit,omitempty"`
	OwnerTier        Tier      `json:"ownerTier,omitempty"`
	Frames           []Frame   `json:"frames,omitempty"`
	ArchiveURL       *string   `json:"archiveUrl,omitempty"`
	Error            string    `json:"error,omitempty"`
	Revision         int       `json:"revision,omitempty"`
	DispatchAttempts int       `json:"dispatchAttempts,omitempty"`
	CreatedAt        time.Time `json:"createdAt,omitzero"`
	UpdatedAt        time.Time `json:"updatedAt,omitzero"`
}

// UnmarshalJSON accepts records written by older workers: "zipUrl" instead
// of "archiveUrl" and intermediate progress statuses.
func (j *Job) UnmarshalJSON(data []byte) error {
	type plain Job
	var raw struct {
		plain
		ZipURL *string `json:"zipUrl,omitempty"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*j = Job(raw.plain)
	if j.ArchiveURL == nil && raw.ZipURL != nil {
		j.ArchiveURL = raw.ZipURL
	}
	j.Status = normalizeStatus(j.Status)
	return nil
}

// Clone returns a deep copy so callers can annotate frames freely.
func (j Job) Clone() Job {
	out := j
	if j.Frames != nil {
		out.Frames = make([]Frame, len(j.Frames))
		copy(out.Frames, j.Frames)
	}
	if j.ArchiveURL != nil {
		archive := *j.ArchiveURL
		out.ArchiveURL = &archive
	}
	return out
}
