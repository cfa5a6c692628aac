package job

import (
	"errors"
	"fmt"
	"time"

	"github.com/maauso/smartmute/internal/audioshake"
)

// notAvailable marks service diagnostic fields the service did not report.
const notAvailable = "not available"

// Static errors for job orchestration.
var (
	// ErrUpload is returned when the input cannot be read or stored remotely.
	ErrUpload = errors.New("job: upload failed")
	// ErrSubmission is returned when job creation is rejected by the service.
	ErrSubmission = errors.New("job: submission failed")
	// ErrNoMetadata is returned when a fan-out run is given no metadata entries.
	ErrNoMetadata = errors.New("job: at least one metadata entry is required")
)

// RemoteError is returned when the service reports a terminal failed or
// error status for a job. Detail and Message carry the service-provided
// diagnostics verbatim; absent fields are set to "not available".
type RemoteError struct {
	JobID   string
	Status  audioshake.Status
	Detail  string
	Message string
}

// NewRemoteError builds a RemoteError from a terminal job observation.
func NewRemoteError(j audioshake.Job) *RemoteError {
	e := &RemoteError{
		JobID:   j.ID,
		Status:  j.Status,
		Detail:  j.Error,
		Message: j.Message,
	}
	if e.Detail == "" {
		e.Detail = notAvailable
	}
	if e.Message == "" {
		e.Message = notAvailable
	}
	return e
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("job %s failed with status %q: detail=%s message=%s",
		e.JobID, e.Status, e.Detail, e.Message)
}

// TimeoutError is returned when a job does not reach a terminal status
// within the wall-clock budget. The remote job is abandoned locally and may
// still complete server-side; no cancellation is sent.
type TimeoutError struct {
	JobID   string
	Elapsed time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("job %s timed out after %s", e.JobID, e.Elapsed.Round(time.Millisecond))
}
