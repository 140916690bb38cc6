package compressor

import (
	"context"

	"github.com/panuavakul/v-video-compressor-sub001/internal/models"
	"github.com/panuavakul/v-video-compressor-sub001/pkg/utils"
)

// Repository persists terminal job records so past compressions can be
// listed after the daemon restarts.
type Repository interface {
	SaveRecord(ctx context.Context, record *models.JobRecord) error
	GetRecord(ctx context.Context, jobID string) (*models.JobRecord, error)
	ListRecords(ctx context.Context, pagination *utils.Pagination) (*models.JobList, error)
}
