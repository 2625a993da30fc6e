package models

import "fmt"

// ValidationError is a user-correctable problem with a request.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// MissingIdentifierError is returned when a status request names no job.
type MissingIdentifierError struct{}

func (e *MissingIdentifierError) Error() string {
	return "Missing Job ID"
}

// UpstreamJobError is a failure reported by the extraction worker.
type UpstreamJobError struct {
	Message string
}

func (e *UpstreamJobError) Error() string {
	return e.Message
}

// TransportError wraps an unreachable job store or queue.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
