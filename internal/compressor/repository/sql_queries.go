package repository

const (
	createJobsTableQuery = `CREATE TABLE IF NOT EXISTS compression_jobs (
					job_id TEXT PRIMARY KEY,
					state TEXT NOT NULL,
					source_path TEXT NOT NULL,
					output_path TEXT NOT NULL DEFAULT '',
					quality TEXT NOT NULL,
					original_size INTEGER NOT NULL DEFAULT 0,
					compressed_size INTEGER NOT NULL DEFAULT 0,
					space_saved INTEGER NOT NULL DEFAULT 0,
					used_original INTEGER NOT NULL DEFAULT 0,
					error TEXT NOT NULL DEFAULT '',
					started_at TIMESTAMP NOT NULL,
					completed_at TIMESTAMP NOT NULL)`
	saveRecordQuery = `INSERT OR REPLACE INTO compression_jobs
					(job_id, state, source_path, output_path, quality, original_size, compressed_size,
					 space_saved, used_original, error, started_at, completed_at)
					VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	getRecordQuery = `SELECT job_id, state, source_path, output_path, quality, original_size, compressed_size,
					space_saved, used_original, error, started_at, completed_at
					FROM compression_jobs WHERE job_id = $1`
	listRecordsQuery = `SELECT job_id, state, source_path, output_path, quality, original_size, compressed_size,
					space_saved, used_original, error, started_at, completed_at
					FROM compression_jobs ORDER BY completed_at DESC LIMIT $1 OFFSET $2`
	getTotalRecordsQuery = `SELECT COUNT(job_id) FROM compression_jobs`
)
