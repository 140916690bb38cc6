package compressor

import (
	"context"

	"github.com/panuavakul/v-video-compressor-sub001/internal/models"
	"github.com/panuavakul/v-video-compressor-sub001/pkg/utils"
)

// JobCallbacks carry progress and completion signals to the caller.
// Both are optional. Progress values are monotonic in [0,1] and no
// progress is delivered after the terminal callback. Callbacks must
// return promptly and must not call back into the use case.
type JobCallbacks struct {
	OnProgress func(jobID string, progress float64)
	OnDone     func(jobID string, result *models.CompressionResult, err error)
}

// BatchItem is one entry of a sequential batch compression.
type BatchItem struct {
	Source models.SourceVideoProperties `json:"source"`
	Spec   models.CompressionSpec       `json:"spec"`
}

// BatchResult pairs a batch entry with its outcome; Err is non-nil for
// entries that failed or were cancelled.
type BatchResult struct {
	JobID  string                    `json:"job_id"`
	Result *models.CompressionResult `json:"result,omitempty"`
	Err    error                     `json:"-"`
}

type UseCase interface {
	Estimate(ctx context.Context, src models.SourceVideoProperties, spec models.CompressionSpec) (*models.SizeEstimate, error)
	ProbeSource(ctx context.Context, path string) (*models.SourceVideoProperties, error)

	SubmitJob(ctx context.Context, src models.SourceVideoProperties, spec models.CompressionSpec, cb JobCallbacks) (string, error)
	Compress(ctx context.Context, src models.SourceVideoProperties, spec models.CompressionSpec) (*models.CompressionResult, error)
	CompressBatch(ctx context.Context, items []BatchItem) []BatchResult

	Cancel(jobID string) error
	IsActive() bool
	GetJob(jobID string) (*models.CompressionJob, error)
	ListJobs(ctx context.Context, pagination *utils.Pagination) (*models.JobList, error)
}
