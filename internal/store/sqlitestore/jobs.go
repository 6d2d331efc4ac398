package sqlitestore

import (
	"context"
	"database/sql"
	"time"

	"github.com/sitesentry/sitesentry/internal/errors"
	"github.com/sitesentry/sitesentry/internal/models"
	"github.com/sitesentry/sitesentry/internal/store"
)

type jobStore struct{ s *Store }

// Jobs returns the store.JobStore view of s.
func Jobs(s *Store) store.JobStore { return jobStore{s} }

func (a jobStore) Save(ctx context.Context, job *models.Job) error {
	_, err := a.s.db.ExecContext(ctx, `
		INSERT INTO jobs (id, site_id, next_run_at, last_run_at, last_success_at,
			retry_count, max_retries, consecutive_failures, status, priority)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(site_id) DO UPDATE SET
			next_run_at=excluded.next_run_at, last_run_at=excluded.last_run_at,
			last_success_at=excluded.last_success_at, retry_count=excluded.retry_count,
			max_retries=excluded.max_retries, consecutive_failures=excluded.consecutive_failures,
			status=excluded.status, priority=excluded.priority`,
		job.ID, job.SiteID, job.NextRunAt, toNullTime(job.LastRunAt), toNullTime(job.LastSuccessAt),
		job.RetryCount, job.MaxRetries, job.ConsecutiveFailures, string(job.Status), job.Priority)
	if err != nil {
		return errors.NewStorageError("save_job", err)
	}
	return nil
}

func toNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func fromNullTime(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

func (a jobStore) Get(ctx context.Context, siteID string) (*models.Job, error) {
	row := a.s.db.QueryRowContext(ctx, jobSelect+` WHERE site_id = ?`, siteID)
	return scanJob(row)
}

func (a jobStore) List(ctx context.Context) ([]*models.Job, error) {
	rows, err := a.s.db.QueryContext(ctx, jobSelect+` ORDER BY site_id`)
	if err != nil {
		return nil, errors.NewStorageError("list_jobs", err)
	}
	defer rows.Close()

	var jobs []*models.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

func (a jobStore) Delete(ctx context.Context, siteID string) error {
	res, err := a.s.db.ExecContext(ctx, `DELETE FROM jobs WHERE site_id=?`, siteID)
	if err != nil {
		return errors.NewStorageError("delete_job", err)
	}
	return rowsAffectedOrNotFound(res)
}

const jobSelect = `
	SELECT id, site_id, next_run_at, last_run_at, last_success_at,
		retry_count, max_retries, consecutive_failures, status, priority
	FROM jobs`

func scanJob(row rowScanner) (*models.Job, error) {
	var job models.Job
	var status string
	var lastRun, lastSuccess sql.NullTime
	err := row.Scan(&job.ID, &job.SiteID, &job.NextRunAt, &lastRun, &lastSuccess,
		&job.RetryCount, &job.MaxRetries, &job.ConsecutiveFailures, &status, &job.Priority)
	if err == sql.ErrNoRows {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		return nil, errors.NewStorageError("scan_job", err)
	}
	job.Status = models.JobStatus(status)
	job.LastRunAt = fromNullTime(lastRun)
	job.LastSuccessAt = fromNullTime(lastSuccess)
	return &job, nil
}
