package models

import (
	"time"

	"github.com/panuavakul/v-video-compressor-sub001/internal/geometry"
)

// JobState is the orchestrator's state machine position. Idle is
// initial; completed, failed and cancelled are terminal and no state is
// ever re-entered.
type JobState string

const (
	JobStateIdle       JobState = "idle"
	JobStateValidating JobState = "validating"
	JobStatePreparing  JobState = "preparing"
	JobStateExporting  JobState = "exporting"
	JobStateFinalizing JobState = "finalizing"
	JobStateCompleted  JobState = "completed"
	JobStateFailed     JobState = "failed"
	JobStateCancelled  JobState = "cancelled"
)

// IsTerminal reports whether the state is one of the three outcomes.
func (s JobState) IsTerminal() bool {
	return s == JobStateCompleted || s == JobStateFailed || s == JobStateCancelled
}

// CompressionJob is the unit of work tracked by the orchestrator.
type CompressionJob struct {
	JobID    string                  `json:"job_id" db:"job_id"`
	State    JobState                `json:"state" db:"state"`
	Source   SourceVideoProperties   `json:"source"`
	Spec     CompressionSpec         `json:"spec"`
	Plan     *geometry.TransformPlan `json:"-"`
	Progress float64                 `json:"progress" db:"progress"`
	Error    string                  `json:"error,omitempty" db:"error"`

	StartedAt   time.Time `json:"started_at" db:"started_at"`
	CompletedAt time.Time `json:"completed_at,omitempty" db:"completed_at"`
}

// CompressionResult is the terminal report for a successful job. When
// compression saved less than the fallback threshold the original file
// is kept and reported instead, with UsedOriginal set.
type CompressionResult struct {
	JobID                string        `json:"job_id" db:"job_id"`
	OutputPath           string        `json:"output_path" db:"output_path"`
	OriginalSize         int64         `json:"original_size" db:"original_size"`
	CompressedSize       int64         `json:"compressed_size" db:"compressed_size"`
	CompressionRatio     float64       `json:"compression_ratio" db:"compression_ratio"`
	SpaceSaved           int64         `json:"space_saved" db:"space_saved"`
	Elapsed              time.Duration `json:"elapsed" db:"elapsed"`
	OriginalResolution   string        `json:"original_resolution" db:"original_resolution"`
	CompressedResolution string        `json:"compressed_resolution" db:"compressed_resolution"`
	UsedOriginal         bool          `json:"used_original" db:"used_original"`
}

// JobRecord is the persisted history row for a terminal job.
type JobRecord struct {
	JobID          string    `json:"job_id" db:"job_id"`
	State          JobState  `json:"state" db:"state"`
	SourcePath     string    `json:"source_path" db:"source_path"`
	OutputPath     string    `json:"output_path" db:"output_path"`
	Quality        Quality   `json:"quality" db:"quality"`
	OriginalSize   int64     `json:"original_size" db:"original_size"`
	CompressedSize int64     `json:"compressed_size" db:"compressed_size"`
	SpaceSaved     int64     `json:"space_saved" db:"space_saved"`
	UsedOriginal   bool      `json:"used_original" db:"used_original"`
	Error          string    `json:"error,omitempty" db:"error"`
	StartedAt      time.Time `json:"started_at" db:"started_at"`
	CompletedAt    time.Time `json:"completed_at" db:"completed_at"`
}

// JobList is a paginated slice of history records.
type JobList struct {
	Jobs       []*JobRecord `json:"jobs"`
	TotalCount int          `json:"total_count"`
	Page       int          `json:"page"`
	PageSize   int          `json:"page_size"`
	HasMore    bool         `json:"has_more"`
}
