package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/panuavakul/v-video-compressor-sub001/internal/compressor"
	"github.com/panuavakul/v-video-compressor-sub001/internal/models"
	"github.com/panuavakul/v-video-compressor-sub001/pkg/utils"
)

type jobRepo struct {
	db *sqlx.DB
}

// NewJobRepo creates the sqlite-backed job history repository and
// ensures its schema exists.
func NewJobRepo(db *sqlx.DB) (compressor.Repository, error) {
	if _, err := db.Exec(createJobsTableQuery); err != nil {
		return nil, fmt.Errorf("failed to create jobs table: %w", err)
	}
	return &jobRepo{db: db}, nil
}

func (r *jobRepo) SaveRecord(ctx context.Context, record *models.JobRecord) error {
	if _, err := r.db.ExecContext(
		ctx,
		saveRecordQuery,
		record.JobID,
		record.State,
		record.SourcePath,
		record.OutputPath,
		record.Quality,
		record.OriginalSize,
		record.CompressedSize,
		record.SpaceSaved,
		record.UsedOriginal,
		record.Error,
		record.StartedAt,
		record.CompletedAt,
	); err != nil {
		return fmt.Errorf("failed to save job record: %w", err)
	}
	return nil
}

func (r *jobRepo) GetRecord(ctx context.Context, jobID string) (*models.JobRecord, error) {
	record := &models.JobRecord{}
	if err := r.db.GetContext(ctx, record, getRecordQuery, jobID); err != nil {
		return nil, fmt.Errorf("failed to get job record: %w", err)
	}
	return record, nil
}

func (r *jobRepo) ListRecords(ctx context.Context, pagination *utils.Pagination) (*models.JobList, error) {
	var totalCount int
	if err := r.db.GetContext(ctx, &totalCount, getTotalRecordsQuery); err != nil {
		return nil, fmt.Errorf("failed to count job records: %w", err)
	}
	if totalCount == 0 {
		return &models.JobList{
			Jobs:       make([]*models.JobRecord, 0),
			TotalCount: 0,
			Page:       pagination.Page,
			PageSize:   pagination.Size,
		}, nil
	}

	rows, err := r.db.QueryxContext(ctx, listRecordsQuery, pagination.GetLimit(), pagination.GetOffset())
	if err != nil {
		return nil, fmt.Errorf("failed to list job records: %w", err)
	}
	defer rows.Close()

	jobs := make([]*models.JobRecord, 0, pagination.Size)
	for rows.Next() {
		var record models.JobRecord
		if err = rows.StructScan(&record); err != nil {
			return nil, fmt.Errorf("failed to scan job record: %w", err)
		}
		jobs = append(jobs, &record)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan job records: %w", err)
	}

	return &models.JobList{
		Jobs:       jobs,
		TotalCount: totalCount,
		Page:       pagination.Page,
		PageSize:   pagination.Size,
		HasMore:    utils.GetHasMore(pagination.Page, totalCount, pagination.Size),
	}, nil
}
