package compressor

import "github.com/pkg/errors"

// Error taxonomy for compression jobs. Callers match with errors.Is;
// everything the orchestrator returns wraps one of these.
var (
	// ErrInvalidInput covers bad paths, non-positive dimensions or
	// durations and invalid override values. Never retried.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInsufficientStorage means free space is below the configured
	// safety margin. The caller may retry with a lower quality tier.
	ErrInsufficientStorage = errors.New("insufficient storage")
	// ErrInsufficientMemory means available memory is below threshold.
	ErrInsufficientMemory = errors.New("insufficient memory")
	// ErrNoVideoTrack means the source has no usable video stream.
	ErrNoVideoTrack = errors.New("no video track")
	// ErrExportFailed wraps a failure reported by the export
	// collaborator. Never retried automatically.
	ErrExportFailed = errors.New("export failed")
	// ErrCancelled is the cancellation outcome; it is a distinct
	// terminal state, not a failure.
	ErrCancelled = errors.New("cancelled")
	// ErrJobActive is returned when a job is submitted while another
	// is still exporting on the single-job API.
	ErrJobActive = errors.New("a compression job is already active")
	// ErrJobNotFound is returned for cancel/query on an unknown job id.
	ErrJobNotFound = errors.New("job not found")
)
