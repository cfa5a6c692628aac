// Package audioshake provides an HTTP client for the AudioShake audio
// processing API.
package audioshake

// Status represents the status of an AudioShake job.
type Status string

// Job statuses aligned with the AudioShake API.
const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusError      Status = "error" // the service reports "error" for internal faults
)

// IsTerminal returns true if the status is a terminal state.
// Once a job reaches a terminal status, its status and output assets
// never change.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusError:
		return true
	default:
		return false
	}
}

// Metadata selects which remote model runs and the expected output container.
// It is passed through to the service unmodified; locally it is only used to
// derive output filenames.
type Metadata struct {
	Name   string `json:"name" validate:"required"`
	Format string `json:"format,omitempty"`
}

// Asset is the opaque handle returned after an input file is uploaded.
type Asset struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
	Link string `json:"link,omitempty"`
}

// OutputAsset is a single downloadable output produced by a completed job.
type OutputAsset struct {
	Name string `json:"name,omitempty"`
	Link string `json:"link,omitempty"`
}

// Job is the remote job as observed through the API. It is created by
// CreateJob and mutated only by the service; local code reads it via GetJob.
type Job struct {
	ID           string        `json:"id"`
	Status       Status        `json:"status"`
	OutputAssets []OutputAsset `json:"outputAssets,omitempty"`
	// Error and Message carry service-reported diagnostics for failed jobs.
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// createJobRequest is the request body for the job creation endpoint.
type createJobRequest struct {
	AssetID     string   `json:"assetId"`
	Metadata    Metadata `json:"metadata"`
	CallbackURL string   `json:"callbackUrl,omitempty"`
}

// jobEnvelope wraps the job object in create and status responses.
type jobEnvelope struct {
	Job Job `json:"job"`
}
