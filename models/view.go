package models

import "encoding/json"

// View is what a caller receives when polling a job. It is one of
// QueuedView, ProcessingView, DoneView or ErrorView.
type View interface {
	Status() JobStatus
	isView()
}

// QueuedView is a job accepted but not yet picked up.
type QueuedView struct{}

// ProcessingView is a job being worked on, or one not yet visible in the store.
type ProcessingView struct{}

// DoneView is the tier-projected result of a completed job.
type DoneView struct {
	ArchiveURL *string
	Frames     []Frame
	IsProTier  bool
}

// ErrorView carries the worker's failure message verbatim.
type ErrorView struct {
	Message string
}

func (QueuedView) Status() JobStatus     { return StatusQueued }
func (ProcessingView) Status() JobStatus { return StatusProcessing }
func (DoneView) Status() JobStatus       { return StatusDone }
func (ErrorView) Status() JobStatus      { return StatusError }

func (QueuedView) isView()     {}
func (ProcessingView) isView() {}
func (DoneView) isView()       {}
func (ErrorView) isView()      {}

func (v QueuedView) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Status JobStatus `json:"status"`
	}{v.Status()})
}

func (v ProcessingView) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Status JobStatus `json:"status"`
	}{v.Status()})
}

// MarshalJSON always emits archiveUrl (null when withheld) and a non-nil
// frames array so clients can rely on the shape.
func (v DoneView) MarshalJSON() ([]byte, error) {
	frames := v.Frames
	if frames == nil {
		frames = []Frame{}
	}
	return json.Marshal(struct {
		Status     JobStatus `json:"status"`
		ArchiveURL *string   `json:"archiveUrl"`
		Frames     []Frame   `json:"frames"`
		IsProTier  bool      `json:"isProTier"`
	}{v.Status(), v.ArchiveURL, frames, v.IsProTier})
}

func (v ErrorView) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Status JobStatus `json:"status"`
		Error  string    `json:"error"`
	}{v.Status(), v.Message})
}

// Err exposes the failure as an UpstreamJobError.
func (v ErrorView) Err() error {
	return &UpstreamJobError{Message: v.Message}
}
